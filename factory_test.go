package bhvtree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFactoryCompileAndInstantiateEndToEnd(t *testing.T) {
	f := NewFactory[testWorld, testEntity]()

	tree := []byte(`{
		"tree_blackboard": [
			{"bb_name": "counter", "bb_type": "f64", "bb_value": "0"},
			{"bb_name": "flag", "bb_type": "bool", "bb_value": "None"}
		],
		"tree_structure": {
			"Sequence": [0, [
				{"Action": [1, {
					"name": "SetValueAction",
					"bb_ref_map": {"target": "counter"},
					"dyn_ref_map": {"value": "42"}
				}]},
				{"AlwaysSuccess": 2}
			]]
		}
	}`)

	require.NoError(t, f.Compile("main", tree))

	inst, err := f.Instantiate("main")
	require.NoError(t, err)
	assert.Equal(t, "main", inst.Name())

	status := inst.Tick(testWorld{}, testEntity{})
	assert.True(t, status.IsSuccess())

	cell, ok := inst.Blackboard().Lookup("counter")
	require.True(t, ok)
	assert.Equal(t, float64(42), cell.Get())

	flagCell, ok := inst.Blackboard().Lookup("flag")
	require.True(t, ok)
	assert.Equal(t, false, flagCell.Get(), "a \"None\" init falls back to the type's zero value")
}

func TestFactoryInstantiateUnregisteredTreeName(t *testing.T) {
	f := NewFactory[testWorld, testEntity]()
	_, err := f.Instantiate("nope")
	require.Error(t, err)
	var be *BehaviorError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, ErrUnregisteredTreeNode, be.Kind)
}

func TestFactoryCompileMalformedJSON(t *testing.T) {
	f := NewFactory[testWorld, testEntity]()
	err := f.Compile("bad", []byte(`{not json`))
	require.Error(t, err)
	var be *BehaviorError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, ErrCompileTreeTemplateFailed, be.Kind)
}

func TestFactoryInstantiateUnknownTemplateKind(t *testing.T) {
	f := NewFactory[testWorld, testEntity]()
	require.NoError(t, f.Compile("main", []byte(`{"tree_structure": {"TotallyMadeUp": [0]}}`)))
	_, err := f.Instantiate("main")
	require.Error(t, err)
	var be *BehaviorError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, ErrUnregisteredTreeNode, be.Kind)
}

func TestFactoryInstantiateUnregisteredActionName(t *testing.T) {
	f := NewFactory[testWorld, testEntity]()
	require.NoError(t, f.Compile("main", []byte(`{
		"tree_structure": {"Action": [0, {"name": "NeverRegistered"}]}
	}`)))
	_, err := f.Instantiate("main")
	require.Error(t, err)
	var be *BehaviorError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, ErrUnregisteredTreeNode, be.Kind)
}

func TestFactorySubTreeLinksParentCellsBeforeInits(t *testing.T) {
	f := NewFactory[testWorld, testEntity]()

	require.NoError(t, f.Compile("child", []byte(`{
		"tree_blackboard": [{"bb_name": "shared", "bb_type": "f64", "bb_value": "0"}],
		"tree_structure": {"Action": [0, {
			"name": "SetValueAction",
			"bb_ref_map": {"target": "shared"},
			"dyn_ref_map": {"value": "9"}
		}]}
	}`)))

	require.NoError(t, f.Compile("parent", []byte(`{
		"tree_blackboard": [{"bb_name": "shared", "bb_type": "f64", "bb_value": "1"}],
		"tree_structure": {"SubTree": [0, "child", {"shared": "shared"}]}
	}`)))

	inst, err := f.Instantiate("parent")
	require.NoError(t, err)

	status := inst.Tick(testWorld{}, testEntity{})
	assert.True(t, status.IsSuccess())

	cell, ok := inst.Blackboard().Lookup("shared")
	require.True(t, ok)
	assert.Equal(t, float64(9), cell.Get(), "the subtree writes through the aliased parent cell")
}

func TestFactorySubTreeLinkTypeMismatch(t *testing.T) {
	f := NewFactory[testWorld, testEntity]()

	require.NoError(t, f.Compile("child", []byte(`{
		"tree_blackboard": [{"bb_name": "shared", "bb_type": "i32", "bb_value": "0"}],
		"tree_structure": {"AlwaysSuccess": 0}
	}`)))

	require.NoError(t, f.Compile("parent", []byte(`{
		"tree_blackboard": [{"bb_name": "shared", "bb_type": "f64", "bb_value": "1"}],
		"tree_structure": {"SubTree": [0, "child", {"shared": "shared"}]}
	}`)))

	_, err := f.Instantiate("parent")
	require.Error(t, err)
	var be *BehaviorError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, ErrCreateSubTreeFailed, be.Kind)
	var cause *BehaviorError
	require.ErrorAs(t, be.Cause, &cause)
	assert.Equal(t, ErrLinkDifferentBlackBoardType, cause.Kind)
}

func TestBranchWithBranchCondDrivesExpressionProgression(t *testing.T) {
	f := NewFactory[testWorld, testEntity]()
	require.NoError(t, f.Compile("main", []byte(`{
		"tree_blackboard": [{"bb_name": "x", "bb_type": "i32", "bb_value": "0"}],
		"tree_structure": {
			"Branch": [0, false,
				{"BranchCond": [1, [
					{"Expression": [2, "x < 10"]},
					{"Expression": [3, "x < 20"]},
					{"AlwaysSuccess": 4}
				]]},
				[
					{"Expression": [5, "x += 2"]},
					{"Expression": [6, "x += 5"]},
					{"Expression": [7, "x += 10"]}
				]
			]
		}
	}`)))

	inst, err := f.Instantiate("main")
	require.NoError(t, err)

	cell, ok := inst.Blackboard().Lookup("x")
	require.True(t, ok)

	// x<10 picks branch 0 (+2) for five ticks, x<20 picks branch 1
	// (+5) for two, then the fallthrough picks branch 2 (+10).
	want := []int32{2, 4, 6, 8, 10, 15, 20, 30}
	for i, expected := range want {
		status := inst.Tick(testWorld{}, testEntity{})
		require.True(t, status.IsSuccess(), "tick %d", i)
		assert.Equal(t, expected, cell.Get(), "tick %d", i)
	}
}

func TestPriorityBranchStickinessEndToEnd(t *testing.T) {
	clock := &fakeClock{}
	f := NewFactory[testWorld, testEntity](WithClock[testWorld, testEntity](clock.now))
	require.NoError(t, f.Compile("main", []byte(`{
		"tree_blackboard": [{"bb_name": "x", "bb_type": "i32", "bb_value": "0"}],
		"tree_structure": {
			"PriorityBranch": [0, true, "100|75",
				{"BranchCond": [1, [
					{"Expression": [2, "x < 10"]},
					{"AlwaysSuccess": 3}
				]]},
				[
					{"Wait": [4, 1000]},
					{"Wait": [5, 1000]}
				]
			]
		}
	}`)))

	inst, err := f.Instantiate("main")
	require.NoError(t, err)

	require.True(t, inst.Tick(testWorld{}, testEntity{}).IsRunning(), "branch 0 (priority 100) starts running")

	cell, ok := inst.Blackboard().Lookup("x")
	require.True(t, ok)
	cell.Set(int32(50)) // the condition now selects branch 1 (priority 75)

	clock.advance(500)
	require.True(t, inst.Tick(testWorld{}, testEntity{}).IsRunning(), "a lower-priority candidate must not preempt")

	clock.advance(600)
	status := inst.Tick(testWorld{}, testEntity{})
	assert.True(t, status.IsSuccess(), "branch 0's Wait runs to completion")
}

func TestFactoryCustomRegisteredAction(t *testing.T) {
	f := NewFactory[testWorld, testEntity]()
	f.RegisterAction("Custom", func(bc *BuildContext) (Action[testWorld, testEntity], error) {
		n, err := ResolveMeta[float32](bc, "amount", parseFloat32Literal)
		if err != nil {
			return nil, err
		}
		return &constAmountAction{amount: n}, nil
	})

	require.NoError(t, f.Compile("main", []byte(`{
		"tree_structure": {"Action": [0, {"name": "Custom", "meta_map": {"amount": "3.5"}}]}
	}`)))

	inst, err := f.Instantiate("main")
	require.NoError(t, err)
	assert.True(t, inst.Tick(testWorld{}, testEntity{}).IsSuccess())
}

type constAmountAction struct {
	BaseAction[testWorld, testEntity]
	amount MetaCell[float32]
}

func (a *constAmountAction) Tick(_ *Blackboard, _ testWorld, _ testEntity) Status {
	return StatusFromBool(a.amount.Get() > 0)
}
