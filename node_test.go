package bhvtree

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultHookBeginTickEndLifecycle(t *testing.T) {
	action := newScriptedAction[testWorld, testEntity](StatusRunning, StatusRunning, StatusSuccess)
	bb := emptyBB()
	w, e := testWorld{}, testEntity{}

	s1 := DefaultHook[testWorld, testEntity](action, true, bb, w, e)
	assert.True(t, s1.IsRunning())
	assert.Equal(t, 1, action.beginCalls, "Begin fires on startingRun=true")
	assert.Equal(t, 0, action.endCalls)

	s2 := DefaultHook[testWorld, testEntity](action, false, bb, w, e)
	assert.True(t, s2.IsRunning())
	assert.Equal(t, 1, action.beginCalls, "Begin does not re-fire mid-run")

	s3 := DefaultHook[testWorld, testEntity](action, false, bb, w, e)
	assert.True(t, s3.IsSuccess())
	assert.Equal(t, 1, action.endCalls, "End fires once the run completes")
}

func TestActionNodeStartingRunTracksOwnStatus(t *testing.T) {
	action := newScriptedAction[testWorld, testEntity](StatusRunning, StatusSuccess)
	node := NewActionNode[testWorld, testEntity](0, "leaf", action, nil)
	bb := emptyBB()
	w, e := testWorld{}, testEntity{}

	node.Tick(bb, nil, w, e)
	assert.Equal(t, 1, action.beginCalls)

	node.Tick(bb, nil, w, e)
	assert.Equal(t, 1, action.beginCalls, "second tick continues the same run")
	assert.Equal(t, 1, action.endCalls)

	node.Reset(bb, w, e)
	node.Tick(bb, nil, w, e)
	assert.Equal(t, 2, action.beginCalls, "a tick after Reset starts a new run")
}

func TestActionNodePanicsOnIdleAndPlainParentPanicsOnBranch(t *testing.T) {
	bb := emptyBB()
	w, e := testWorld{}, testEntity{}

	idleAction := newScriptedAction[testWorld, testEntity](StatusIdle)
	idleNode := NewActionNode[testWorld, testEntity](0, "bad", idleAction, nil)
	assert.Panics(t, func() { idleNode.Tick(bb, nil, w, e) })

	branchAction := newScriptedAction[testWorld, testEntity](NewBranchStatus(SingleBranch(0)))
	branchNode := NewActionNode[testWorld, testEntity](1, "bad2", branchAction, nil)
	seq := NewSequenceNode[testWorld, testEntity](2, "seq", []Node[testWorld, testEntity]{branchNode})
	assert.Panics(t, func() { seq.Tick(bb, nil, w, e) })
}

func TestRequireNonBranchPanicsOnBranchChild(t *testing.T) {
	assert.Panics(t, func() {
		requireNonBranch[testWorld, testEntity](NewBranchStatus(SingleBranch(0)), "parent", 0, "child", 1)
	})
	assert.NotPanics(t, func() {
		requireNonBranch[testWorld, testEntity](StatusSuccess, "parent", 0, "child", 1)
	})
}
