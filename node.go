package bhvtree

import "fmt"

// Node is the single polymorphic interface every control, decorator,
// and leaf variant implements, parameterized over the caller-supplied
// world type W and entity type E threaded through every tick. The
// world/entity pair is generic so the engine has no dependency on any
// particular host simulation.
type Node[W any, E any] interface {
	// Tick drives one synchronous traversal step. hook is threaded
	// top-down unchanged so a caller can intercept leaf execution.
	Tick(bb *Blackboard, hook Hook[W, E], world W, entity E) Status

	// Reset recursively and idempotently clears mid-tick state. It
	// must never invoke a user Action's Tick.
	Reset(bb *Blackboard, world W, entity E)

	NodeIndex() int32
	Name() string
	Kind() NodeKind
	Children() []Node[W, E]
}

// Hook is the mutable callable passed top-down through every Tick so
// a host can intercept leaf execution for tracing or replay.
// startingRun reports whether this call begins a new, non-contiguous
// run (the owning node's previous status was not Running) — the hook
// uses it to decide whether to invoke Action.Begin.
type Hook[W any, E any] func(action Action[W, E], startingRun bool, bb *Blackboard, world W, entity E) Status

// DefaultHook implements the leaf-node authoring contract: invoke
// Begin at the start of a non-contiguous run, then Tick, then End
// when the run newly completes.
func DefaultHook[W any, E any](action Action[W, E], startingRun bool, bb *Blackboard, world W, entity E) Status {
	if startingRun {
		action.Begin(bb, world, entity)
	}
	status := action.Tick(bb, world, entity)
	if status != StatusRunning {
		action.End(bb, world, entity)
	}
	return status
}

// Action is the contract a host implements to author a leaf "Action"
// node. BaseAction supplies no-op Begin/End/Reset so simple actions
// need only implement Tick.
type Action[W any, E any] interface {
	Begin(bb *Blackboard, world W, entity E)
	Tick(bb *Blackboard, world W, entity E) Status
	End(bb *Blackboard, world W, entity E)
	Reset(bb *Blackboard, world W, entity E)
}

// BaseAction is embedded by user Action implementations that don't
// need Begin/End/Reset hooks.
type BaseAction[W any, E any] struct{}

func (BaseAction[W, E]) Begin(*Blackboard, W, E) {}
func (BaseAction[W, E]) End(*Blackboard, W, E)   {}
func (BaseAction[W, E]) Reset(*Blackboard, W, E) {}

// BaseNode holds the status protocol common to every node variant:
// node index, kind, name, and last-returned status. The index and
// kind exist for diagnostics and visualization only; traversal never
// consults them.
type BaseNode[W any, E any] struct {
	index  int32
	name   string
	kind   NodeKind
	status Status
}

func newBaseNode[W any, E any](index int32, name string, kind NodeKind) BaseNode[W, E] {
	return BaseNode[W, E]{index: index, name: name, kind: kind, status: StatusIdle}
}

func (b *BaseNode[W, E]) NodeIndex() int32 { return b.index }
func (b *BaseNode[W, E]) Name() string     { return b.name }
func (b *BaseNode[W, E]) Kind() NodeKind   { return b.kind }
func (b *BaseNode[W, E]) Status() Status   { return b.status }

// IsRunning reports whether the node's last tick returned Running.
func (b *BaseNode[W, E]) IsRunning() bool { return b.status.IsRunning() }

// IsCompleted reports whether the node's last tick result is neither
// Idle nor Running.
func (b *BaseNode[W, E]) IsCompleted() bool { return b.status.IsCompleted() }

// resetStatus sets Idle. There is no exported equivalent: only a full
// Reset() may set Idle, and only as part of clearing mid-tick state.
func (b *BaseNode[W, E]) resetStatus() { b.status = StatusIdle }

// setStatus records and returns s, asserting the status-completeness
// contract: no node may set itself to Idle.
func (b *BaseNode[W, E]) setStatus(s Status) Status {
	if s.IsIdle() {
		panic(fmt.Sprintf("bhvtree: node %q (index %d) set Idle status — programming error", b.name, b.index))
	}
	b.status = s
	return s
}

// requireNonBranch panics (a contract violation is a programming
// error) if s is Idle or Branch, i.e. if it is not a valid result for
// a plain (non-condition) child.
func requireNonBranch[W any, E any](s Status, parentName string, parentIndex int32, childName string, childIndex int32) Status {
	if s.IsIdle() || s.IsBranch() {
		panic(fmt.Sprintf(
			"bhvtree: node %q (index %d) received invalid status %s from child %q (index %d); children must return Success, Failure, or Running",
			parentName, parentIndex, s, childName, childIndex,
		))
	}
	return s
}
