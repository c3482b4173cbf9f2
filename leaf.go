package bhvtree

import "time"

// NowFunc is the engine's only time dependency: a monotonic
// millisecond clock. Wait, Timeout, and Limiter all consume
// it instead of calling time.Now() directly, so hosts and tests can
// substitute a fake clock.
type NowFunc func() int64

// RealClock returns wall-clock milliseconds since the Unix epoch.
func RealClock() int64 { return time.Now().UnixMilli() }

// ActionNode wraps a user-authored Action as a leaf node. There is no
// separate condition-node wrapper: the only difference between a
// "condition" and an "action" is naming convention, not engine
// mechanics.
type ActionNode[W any, E any] struct {
	BaseNode[W, E]
	action Action[W, E]
	hook   Hook[W, E]
}

// NewActionNode builds a leaf wrapping action. If hook is nil,
// DefaultHook is used.
func NewActionNode[W any, E any](index int32, name string, action Action[W, E], hook Hook[W, E]) *ActionNode[W, E] {
	if hook == nil {
		hook = DefaultHook[W, E]
	}
	return &ActionNode[W, E]{BaseNode: newBaseNode[W, E](index, name, LeafNode), action: action, hook: hook}
}

func (n *ActionNode[W, E]) Children() []Node[W, E] { return nil }

func (n *ActionNode[W, E]) Tick(bb *Blackboard, hook Hook[W, E], world W, entity E) Status {
	if hook == nil {
		hook = n.hook
	}
	startingRun := !n.Status().IsRunning()
	status := hook(n.action, startingRun, bb, world, entity)
	// A Branch status is passed up: a leaf used as the condition of a
	// Branch/PriorityBranch returns one, and every other parent rejects
	// it through requireNonBranch.
	if status.IsIdle() {
		panicInvalidLeafStatus(n.Name(), n.NodeIndex(), status)
	}
	return n.setStatus(status)
}

func (n *ActionNode[W, E]) Reset(bb *Blackboard, world W, entity E) {
	if n.IsRunning() {
		n.action.End(bb, world, entity)
	}
	n.action.Reset(bb, world, entity)
	n.resetStatus()
}

func panicInvalidLeafStatus(name string, index int32, s Status) {
	panicInvalidStatus("leaf", name, index, s)
}

func panicInvalidStatus(kind, name string, index int32, s Status) {
	panicf("bhvtree: %s node %q (index %d) returned invalid status %s", kind, name, index, s)
}

// WaitNode returns Running until at least ms milliseconds have
// elapsed since the tick that first observed it not running, then
// Success.
type WaitNode[W any, E any] struct {
	BaseNode[W, E]
	ms    int64
	now   NowFunc
	start int64
	armed bool
}

// NewWaitNode builds a Wait(ms) leaf. ms must be >= 0.
func NewWaitNode[W any, E any](index int32, name string, ms int64, now NowFunc) *WaitNode[W, E] {
	if ms < 0 {
		panicf("bhvtree: Wait ms must be >= 0, got %d", ms)
	}
	if now == nil {
		now = RealClock
	}
	return &WaitNode[W, E]{BaseNode: newBaseNode[W, E](index, name, LeafNode), ms: ms, now: now}
}

func (n *WaitNode[W, E]) Children() []Node[W, E] { return nil }

func (n *WaitNode[W, E]) Tick(_ *Blackboard, _ Hook[W, E], _ W, _ E) Status {
	if !n.IsRunning() {
		n.start = n.now()
		n.armed = true
	}
	if n.armed && n.now() >= n.start+n.ms {
		n.armed = false
		return n.setStatus(StatusSuccess)
	}
	return n.setStatus(StatusRunning)
}

func (n *WaitNode[W, E]) Reset(*Blackboard, W, E) {
	n.armed = false
	n.start = 0
	n.resetStatus()
}

// WaitForeverNode always returns Running.
type WaitForeverNode[W any, E any] struct {
	BaseNode[W, E]
}

func NewWaitForeverNode[W any, E any](index int32, name string) *WaitForeverNode[W, E] {
	return &WaitForeverNode[W, E]{BaseNode: newBaseNode[W, E](index, name, LeafNode)}
}

func (n *WaitForeverNode[W, E]) Children() []Node[W, E] { return nil }

func (n *WaitForeverNode[W, E]) Tick(*Blackboard, Hook[W, E], W, E) Status {
	return n.setStatus(StatusRunning)
}

func (n *WaitForeverNode[W, E]) Reset(*Blackboard, W, E) { n.resetStatus() }

// ConstNode always returns the same constant status (AlwaysSuccess /
// AlwaysFailure).
type ConstNode[W any, E any] struct {
	BaseNode[W, E]
	result Status
}

func NewAlwaysSuccessNode[W any, E any](index int32, name string) *ConstNode[W, E] {
	return &ConstNode[W, E]{BaseNode: newBaseNode[W, E](index, name, LeafNode), result: StatusSuccess}
}

func NewAlwaysFailureNode[W any, E any](index int32, name string) *ConstNode[W, E] {
	return &ConstNode[W, E]{BaseNode: newBaseNode[W, E](index, name, LeafNode), result: StatusFailure}
}

func (n *ConstNode[W, E]) Children() []Node[W, E] { return nil }

func (n *ConstNode[W, E]) Tick(*Blackboard, Hook[W, E], W, E) Status {
	return n.setStatus(n.result)
}

func (n *ConstNode[W, E]) Reset(*Blackboard, W, E) { n.resetStatus() }
