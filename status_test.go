package bhvtree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusPredicates(t *testing.T) {
	assert.True(t, StatusIdle.IsIdle())
	assert.True(t, StatusSuccess.IsSuccess())
	assert.True(t, StatusFailure.IsFailure())
	assert.True(t, StatusRunning.IsRunning())
	assert.False(t, StatusRunning.IsCompleted())
	assert.True(t, StatusSuccess.IsCompleted())
	assert.True(t, StatusFailure.IsCompleted())
	assert.False(t, StatusIdle.IsCompleted())
}

func TestStatusFromBool(t *testing.T) {
	assert.Equal(t, StatusSuccess, StatusFromBool(true))
	assert.Equal(t, StatusFailure, StatusFromBool(false))
}

func TestSingleBranch(t *testing.T) {
	b := SingleBranch(5)
	assert.False(t, b.IsMulti())
	assert.Equal(t, 5, b.Index())
	assert.True(t, b.Contains(5))
	assert.False(t, b.Contains(6))
	assert.Equal(t, []int{5}, b.Indices())
}

func TestMultiBranch(t *testing.T) {
	b := MultiBranch(0, 2, 4, MaxBranchIndex)
	assert.True(t, b.IsMulti())
	assert.True(t, b.Contains(0))
	assert.True(t, b.Contains(2))
	assert.True(t, b.Contains(4))
	assert.True(t, b.Contains(MaxBranchIndex))
	assert.False(t, b.Contains(1))
	assert.Equal(t, []int{0, 2, 4, MaxBranchIndex}, b.Indices())
}

func TestBranchStatusRoundTrip(t *testing.T) {
	s := NewBranchStatus(SingleBranch(3))
	require.True(t, s.IsBranch())
	data, ok := s.Branch()
	require.True(t, ok)
	assert.Equal(t, 3, data.Index())

	_, ok = StatusSuccess.Branch()
	assert.False(t, ok)
}

func TestSingleBranchPanicsOnOutOfRange(t *testing.T) {
	assert.Panics(t, func() { SingleBranch(MaxBranchIndex + 1) })
	assert.Panics(t, func() { SingleBranch(-1) })
}
