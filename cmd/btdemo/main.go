// Command btdemo compiles and ticks a small tree built from the
// built-in example leaves: compile a JSON template, instantiate, tick
// until the tree completes, print the rendered tree.
package main

import (
	"fmt"

	"github.com/sirupsen/logrus"

	bhvtree "github.com/solifugus/bhvtree"
)

// World and Entity stand in for whatever a real host's simulation
// state looks like; the engine never inspects either.
type World struct{}
type Entity struct{ ID int }

const scoutTreeJSON = `
{
	"tree_blackboard": [
		{"bb_name": "position", "bb_type": "vec3", "bb_value": "0,0,0"},
		{"bb_name": "waypoint", "bb_type": "vec3", "bb_value": "10,0,4"}
	],
	"tree_structure": {
		"Sequence": [
			0,
			[
				{
					"Action": [
						1,
						{
							"name": "MoveTowardAction",
							"meta_map": {"speed": "1.5", "tolerance": "0.25"},
							"bb_ref_map": {"position": "position"},
							"dyn_ref_map": {"target": "<waypoint>"}
						}
					]
				},
				{
					"Action": [
						2,
						{
							"name": "DistanceCondition",
							"meta_map": {"within": "0.5"},
							"dyn_ref_map": {"from": "<position>", "to": "<waypoint>"}
						}
					]
				}
			]
		]
	}
}`

func main() {
	logrus.SetLevel(logrus.InfoLevel)
	bhvtree.SetLogger(logrus.StandardLogger())

	factory := bhvtree.NewFactory[World, Entity]()
	if err := factory.Compile("scout_to_waypoint", []byte(scoutTreeJSON)); err != nil {
		logrus.Fatalf("compile: %v", err)
	}

	instance, err := factory.Instantiate("scout_to_waypoint")
	if err != nil {
		logrus.Fatalf("instantiate: %v", err)
	}

	world := World{}
	entity := Entity{ID: 1}

	for tick := 0; tick < 12; tick++ {
		status := instance.Tick(world, entity)
		fmt.Printf("tick %2d: %s\n", tick, status)
		if status.IsSuccess() || status.IsFailure() {
			break
		}
	}

	fmt.Println(instance.Render())
}
