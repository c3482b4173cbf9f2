package bhvtree

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildRenderInstance() *Instance[testWorld, testEntity] {
	childBB := NewBlackboard(NewBlackboardMap())
	leaf := constLeaf[testWorld, testEntity](1, "c", StatusSuccess)
	sub := NewSubTreeNode[testWorld, testEntity](2, "SubTree", "inner", childBB, leaf)
	seq := NewSequenceNode[testWorld, testEntity](0, "Sequence", []Node[testWorld, testEntity]{
		constLeaf[testWorld, testEntity](3, "first", StatusSuccess),
		sub,
	})
	return &Instance[testWorld, testEntity]{name: "outer", blackboard: emptyBB(), root: seq}
}

func TestRenderIncludesNodeNamesKindsAndStatus(t *testing.T) {
	inst := buildRenderInstance()
	inst.Tick(testWorld{}, testEntity{})

	out := inst.Render()
	assert.Contains(t, out, "outer")
	assert.Contains(t, out, "Sequence")
	assert.Contains(t, out, "first")
	assert.Contains(t, out, "-> inner")
	assert.True(t, strings.Count(out, "\n") > 1)
}

func TestSnapshotRoundTripsStatusCodes(t *testing.T) {
	inst := buildRenderInstance()
	status := inst.Tick(testWorld{}, testEntity{})
	require.True(t, status.IsSuccess())

	snap := inst.Snapshot()
	assert.Equal(t, "outer", snap.TreeName)
	assert.True(t, snap.NodeCount >= 2)
	assert.Equal(t, byte(1), snap.StatusAt(0), "root Sequence completed Success")

	require.NotNil(t, snap.SubTrees)
	sub, ok := snap.SubTrees[2]
	require.True(t, ok, "the SubTree node's index must key its nested snapshot")
	assert.Equal(t, "inner", sub.TreeName)
	assert.Equal(t, byte(1), sub.StatusAt(0))
}

func TestStatusAtOutOfRangeReturnsZero(t *testing.T) {
	snap := &VisualSnapshot{}
	assert.Equal(t, byte(0), snap.StatusAt(5))
}
