package bhvtree

import "strconv"

// Built-in example leaves, registered into every Factory by
// NewFactory under the names a tree template's "Action" entries may
// reference. They work purely over blackboard Vec3/float64 cells and
// carry no dependency on any particular host simulation; they also
// serve as reference implementations of the RegisterAction contract.

func registerBuiltinLeaves[W any, E any](f *Factory[W, E]) {
	f.RegisterAction("DistanceCondition", newDistanceCondition[W, E])
	f.RegisterAction("MoveTowardAction", newMoveTowardAction[W, E])
	f.RegisterAction("SetValueAction", newSetValueAction[W, E])
}

func parseFloat32Literal(raw string) (float32, error) {
	v, err := strconv.ParseFloat(raw, 32)
	return float32(v), err
}

func parseFloat64Literal(raw string) (float64, error) {
	return strconv.ParseFloat(raw, 64)
}

// DistanceCondition succeeds when the distance between two vec3
// points, "from" and "to" (each a dyn_ref_map field: either a
// "<cell_name>" blackboard borrow or a literal "x,y,z"), is within the
// "within" metadata threshold.
type DistanceCondition[W any, E any] struct {
	BaseAction[W, E]
	from   DynCell[Vec3]
	to     DynCell[Vec3]
	within MetaCell[float32]
}

func newDistanceCondition[W any, E any](bc *BuildContext) (Action[W, E], error) {
	from, err := ResolveDynCell[Vec3](bc, "from", parseVec3)
	if err != nil {
		return nil, err
	}
	to, err := ResolveDynCell[Vec3](bc, "to", parseVec3)
	if err != nil {
		return nil, err
	}
	within, err := ResolveMeta[float32](bc, "within", parseFloat32Literal)
	if err != nil {
		return nil, err
	}
	return &DistanceCondition[W, E]{from: from, to: to, within: within}, nil
}

func (c *DistanceCondition[W, E]) Tick(_ *Blackboard, _ W, _ E) Status {
	return StatusFromBool(c.from.Get().Distance(c.to.Get()) <= c.within.Get())
}

// MoveTowardAction steps the "position" blackboard cell one tick
// toward the "target" point (a dyn_ref_map field) at up to "speed"
// units per tick, returning Running until within "tolerance" of the
// target.
type MoveTowardAction[W any, E any] struct {
	BaseAction[W, E]
	position  BbCell[Vec3]
	target    DynCell[Vec3]
	speed     MetaCell[float32]
	tolerance MetaCell[float32]
}

func newMoveTowardAction[W any, E any](bc *BuildContext) (Action[W, E], error) {
	position, err := ResolveBbCell[Vec3](bc, "position")
	if err != nil {
		return nil, err
	}
	target, err := ResolveDynCell[Vec3](bc, "target", parseVec3)
	if err != nil {
		return nil, err
	}
	speed, err := ResolveMeta[float32](bc, "speed", parseFloat32Literal)
	if err != nil {
		return nil, err
	}
	tolerance, err := ResolveMeta[float32](bc, "tolerance", parseFloat32Literal)
	if err != nil {
		return nil, err
	}
	return &MoveTowardAction[W, E]{position: position, target: target, speed: speed, tolerance: tolerance}, nil
}

func (a *MoveTowardAction[W, E]) Tick(_ *Blackboard, _ W, _ E) Status {
	cur := a.position.Get()
	tgt := a.target.Get()
	remaining := cur.Distance(tgt)
	if remaining <= a.tolerance.Get() {
		return StatusSuccess
	}

	step := a.speed.Get()
	if step >= remaining {
		a.position.Set(tgt)
		return StatusSuccess
	}
	a.position.Set(cur.Add(tgt.Sub(cur).Normalize().Scale(step)))
	return StatusRunning
}

// SetValueAction writes the "value" dyn_ref_map field (a literal or a
// blackboard borrow) into the "target" bb_ref_map cell, always
// succeeding immediately.
type SetValueAction[W any, E any] struct {
	BaseAction[W, E]
	target BbCell[float64]
	value  DynCell[float64]
}

func newSetValueAction[W any, E any](bc *BuildContext) (Action[W, E], error) {
	target, err := ResolveBbCell[float64](bc, "target")
	if err != nil {
		return nil, err
	}
	value, err := ResolveDynCell[float64](bc, "value", parseFloat64Literal)
	if err != nil {
		return nil, err
	}
	return &SetValueAction[W, E]{target: target, value: value}, nil
}

func (a *SetValueAction[W, E]) Tick(_ *Blackboard, _ W, _ E) Status {
	a.target.Set(a.value.Get())
	return StatusSuccess
}
