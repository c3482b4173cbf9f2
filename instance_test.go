package bhvtree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInstanceTickAndResetDelegateToRoot(t *testing.T) {
	child := newScriptedAction[testWorld, testEntity](StatusRunning, StatusSuccess)
	root := NewActionNode[testWorld, testEntity](0, "root", child, nil)
	inst := &Instance[testWorld, testEntity]{name: "t", blackboard: emptyBB(), root: root}

	assert.Equal(t, "t", inst.Name())
	assert.Same(t, root, inst.Root())
	require.NotNil(t, inst.Blackboard())

	s1 := inst.Tick(testWorld{}, testEntity{})
	assert.True(t, s1.IsRunning())
	s2 := inst.Tick(testWorld{}, testEntity{})
	assert.True(t, s2.IsSuccess())

	inst.Reset(testWorld{}, testEntity{})
	assert.Equal(t, 1, child.resetCalls)
}

func TestInstanceTickWithHookInterceptsLeafExecution(t *testing.T) {
	child := newScriptedAction[testWorld, testEntity](StatusSuccess)
	root := NewActionNode[testWorld, testEntity](0, "root", child, nil)
	inst := &Instance[testWorld, testEntity]{name: "t", blackboard: emptyBB(), root: root}

	var hookCalls int
	hook := func(action Action[testWorld, testEntity], startingRun bool, bb *Blackboard, world testWorld, entity testEntity) Status {
		hookCalls++
		return DefaultHook[testWorld, testEntity](action, startingRun, bb, world, entity)
	}

	status := inst.TickWithHook(hook, testWorld{}, testEntity{})
	assert.True(t, status.IsSuccess())
	assert.Equal(t, 1, hookCalls)
}
