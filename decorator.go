package bhvtree

import "github.com/sirupsen/logrus"

// Decorator nodes: single-child nodes that transform the child's
// status or gate how often/how long it runs.

// InvertNode swaps Success and Failure; Running passes through.
type InvertNode[W any, E any] struct {
	BaseNode[W, E]
	child Node[W, E]
}

func NewInvertNode[W any, E any](index int32, name string, child Node[W, E]) *InvertNode[W, E] {
	return &InvertNode[W, E]{BaseNode: newBaseNode[W, E](index, name, DecoratorNode), child: child}
}

func (n *InvertNode[W, E]) Children() []Node[W, E] { return []Node[W, E]{n.child} }

func (n *InvertNode[W, E]) Tick(bb *Blackboard, hook Hook[W, E], world W, entity E) Status {
	status := requireNonBranch[W, E](n.child.Tick(bb, hook, world, entity), n.Name(), n.NodeIndex(), n.child.Name(), n.child.NodeIndex())
	switch {
	case status.IsSuccess():
		return n.setStatus(StatusFailure)
	case status.IsFailure():
		return n.setStatus(StatusSuccess)
	default:
		return n.setStatus(StatusRunning)
	}
}

func (n *InvertNode[W, E]) Reset(bb *Blackboard, world W, entity E) {
	if n.IsRunning() {
		n.resetStatus()
		n.child.Reset(bb, world, entity)
	}
}

// forceNode backs both ForceSuccess and ForceFailure: on completion it
// returns a fixed status regardless of the child's outcome; Running
// passes through unchanged.
type forceNode[W any, E any] struct {
	BaseNode[W, E]
	child  Node[W, E]
	result Status
}

func newForceNode[W any, E any](index int32, name string, child Node[W, E], result Status) *forceNode[W, E] {
	return &forceNode[W, E]{BaseNode: newBaseNode[W, E](index, name, DecoratorNode), child: child, result: result}
}

func (n *forceNode[W, E]) Children() []Node[W, E] { return []Node[W, E]{n.child} }

func (n *forceNode[W, E]) Tick(bb *Blackboard, hook Hook[W, E], world W, entity E) Status {
	status := requireNonBranch[W, E](n.child.Tick(bb, hook, world, entity), n.Name(), n.NodeIndex(), n.child.Name(), n.child.NodeIndex())
	if status.IsRunning() {
		return n.setStatus(StatusRunning)
	}
	return n.setStatus(n.result)
}

func (n *forceNode[W, E]) Reset(bb *Blackboard, world W, entity E) {
	if n.IsRunning() {
		n.resetStatus()
		n.child.Reset(bb, world, entity)
	}
}

// ForceSuccessNode always completes Success.
type ForceSuccessNode[W any, E any] struct{ *forceNode[W, E] }

func NewForceSuccessNode[W any, E any](index int32, name string, child Node[W, E]) *ForceSuccessNode[W, E] {
	return &ForceSuccessNode[W, E]{newForceNode[W, E](index, name, child, StatusSuccess)}
}

// ForceFailureNode always completes Failure.
type ForceFailureNode[W any, E any] struct{ *forceNode[W, E] }

func NewForceFailureNode[W any, E any](index int32, name string, child Node[W, E]) *ForceFailureNode[W, E] {
	return &ForceFailureNode[W, E]{newForceNode[W, E](index, name, child, StatusFailure)}
}

// UntilSuccessNode keeps retrying the child until it succeeds: Success
// passes through, Failure or Running both become Running.
type UntilSuccessNode[W any, E any] struct {
	BaseNode[W, E]
	child Node[W, E]
}

func NewUntilSuccessNode[W any, E any](index int32, name string, child Node[W, E]) *UntilSuccessNode[W, E] {
	return &UntilSuccessNode[W, E]{BaseNode: newBaseNode[W, E](index, name, DecoratorNode), child: child}
}

func (n *UntilSuccessNode[W, E]) Children() []Node[W, E] { return []Node[W, E]{n.child} }

func (n *UntilSuccessNode[W, E]) Tick(bb *Blackboard, hook Hook[W, E], world W, entity E) Status {
	status := requireNonBranch[W, E](n.child.Tick(bb, hook, world, entity), n.Name(), n.NodeIndex(), n.child.Name(), n.child.NodeIndex())
	if status.IsSuccess() {
		return n.setStatus(StatusSuccess)
	}
	return n.setStatus(StatusRunning)
}

func (n *UntilSuccessNode[W, E]) Reset(bb *Blackboard, world W, entity E) {
	if n.IsRunning() {
		n.resetStatus()
		n.child.Reset(bb, world, entity)
	}
}

// UntilFailureNode is the dual of UntilSuccessNode.
type UntilFailureNode[W any, E any] struct {
	BaseNode[W, E]
	child Node[W, E]
}

func NewUntilFailureNode[W any, E any](index int32, name string, child Node[W, E]) *UntilFailureNode[W, E] {
	return &UntilFailureNode[W, E]{BaseNode: newBaseNode[W, E](index, name, DecoratorNode), child: child}
}

func (n *UntilFailureNode[W, E]) Children() []Node[W, E] { return []Node[W, E]{n.child} }

func (n *UntilFailureNode[W, E]) Tick(bb *Blackboard, hook Hook[W, E], world W, entity E) Status {
	status := requireNonBranch[W, E](n.child.Tick(bb, hook, world, entity), n.Name(), n.NodeIndex(), n.child.Name(), n.child.NodeIndex())
	if status.IsFailure() {
		return n.setStatus(StatusFailure)
	}
	return n.setStatus(StatusRunning)
}

func (n *UntilFailureNode[W, E]) Reset(bb *Blackboard, world W, entity E) {
	if n.IsRunning() {
		n.resetStatus()
		n.child.Reset(bb, world, entity)
	}
}

// TimeoutNode fails its child out once it has stayed Running for ms
// milliseconds or more, measured from the tick that first observed it
// Running.
type TimeoutNode[W any, E any] struct {
	BaseNode[W, E]
	ms      int64
	now     NowFunc
	start   int64
	started bool
	child   Node[W, E]
}

// NewTimeoutNode builds a Timeout(ms, child) decorator. ms must be > 0.
func NewTimeoutNode[W any, E any](index int32, name string, ms int64, now NowFunc, child Node[W, E]) *TimeoutNode[W, E] {
	if ms <= 0 {
		panicf("bhvtree: Timeout node %q (index %d) ms must be > 0, got %d", name, index, ms)
	}
	if now == nil {
		now = RealClock
	}
	return &TimeoutNode[W, E]{BaseNode: newBaseNode[W, E](index, name, DecoratorNode), ms: ms, now: now, child: child}
}

func (n *TimeoutNode[W, E]) Children() []Node[W, E] { return []Node[W, E]{n.child} }

func (n *TimeoutNode[W, E]) Tick(bb *Blackboard, hook Hook[W, E], world W, entity E) Status {
	now := n.now()
	if n.started && now >= n.start+n.ms {
		n.started = false
		n.child.Reset(bb, world, entity)
		return n.setStatus(StatusFailure)
	}

	status := requireNonBranch[W, E](n.child.Tick(bb, hook, world, entity), n.Name(), n.NodeIndex(), n.child.Name(), n.child.NodeIndex())
	if status.IsRunning() {
		if !n.IsRunning() {
			n.start = now
			n.started = true
		}
		return n.setStatus(StatusRunning)
	}
	n.started = false
	return n.setStatus(status)
}

func (n *TimeoutNode[W, E]) Reset(bb *Blackboard, world W, entity E) {
	if n.IsRunning() {
		n.resetStatus()
		n.started = false
		n.child.Reset(bb, world, entity)
	}
}

// LimiterNode rejects its child once it has completed max executions
// within a sliding window, the window anchored at the first completion
// rather than the node's first tick.
type LimiterNode[W any, E any] struct {
	BaseNode[W, E]
	windowMs   int64
	maxExec    int
	now        NowFunc
	windowOpen bool
	windowFrom int64
	count      int
	child      Node[W, E]
}

// NewLimiterNode builds a Limiter(windowMs, maxExecutions, child)
// decorator. windowMs and maxExecutions must be > 0.
func NewLimiterNode[W any, E any](index int32, name string, windowMs int64, maxExecutions int, now NowFunc, child Node[W, E]) *LimiterNode[W, E] {
	if windowMs <= 0 || maxExecutions <= 0 {
		panicf("bhvtree: Limiter node %q (index %d) requires windowMs>0 and maxExecutions>0, got %d, %d", name, index, windowMs, maxExecutions)
	}
	if now == nil {
		now = RealClock
	}
	return &LimiterNode[W, E]{BaseNode: newBaseNode[W, E](index, name, DecoratorNode), windowMs: windowMs, maxExec: maxExecutions, now: now, child: child}
}

func (n *LimiterNode[W, E]) Children() []Node[W, E] { return []Node[W, E]{n.child} }

func (n *LimiterNode[W, E]) Tick(bb *Blackboard, hook Hook[W, E], world W, entity E) Status {
	now := n.now()
	if n.windowOpen && now >= n.windowFrom+n.windowMs {
		n.windowOpen = false
		n.count = 0
	}
	if n.count >= n.maxExec {
		return n.setStatus(StatusFailure)
	}

	status := requireNonBranch[W, E](n.child.Tick(bb, hook, world, entity), n.Name(), n.NodeIndex(), n.child.Name(), n.child.NodeIndex())
	if status.IsRunning() {
		return n.setStatus(StatusRunning)
	}
	n.count++
	if !n.windowOpen {
		n.windowOpen = true
		n.windowFrom = now
	}
	return n.setStatus(status)
}

func (n *LimiterNode[W, E]) Reset(bb *Blackboard, world W, entity E) {
	if n.IsRunning() {
		n.resetStatus()
		n.windowOpen = false
		n.count = 0
		n.child.Reset(bb, world, entity)
	}
}

// RepeatNode re-enters its child on completion until it has completed
// limit times (limit == -1 for infinite), then forwards the terminal
// status. limit must be -1 or > 0.
type RepeatNode[W any, E any] struct {
	BaseNode[W, E]
	limit int
	count int
	child Node[W, E]
}

func NewRepeatNode[W any, E any](index int32, name string, limit int, child Node[W, E]) *RepeatNode[W, E] {
	if limit != -1 && limit <= 0 {
		panicf("bhvtree: Repeat node %q (index %d) limit must be -1 or > 0, got %d", name, index, limit)
	}
	return &RepeatNode[W, E]{BaseNode: newBaseNode[W, E](index, name, DecoratorNode), limit: limit, child: child}
}

func (n *RepeatNode[W, E]) Children() []Node[W, E] { return []Node[W, E]{n.child} }

func (n *RepeatNode[W, E]) Tick(bb *Blackboard, hook Hook[W, E], world W, entity E) Status {
	status := requireNonBranch[W, E](n.child.Tick(bb, hook, world, entity), n.Name(), n.NodeIndex(), n.child.Name(), n.child.NodeIndex())
	if status.IsRunning() {
		return n.setStatus(StatusRunning)
	}
	if n.limit != -1 {
		n.count++
	}
	if n.limit == -1 || n.count < n.limit {
		return n.setStatus(StatusRunning)
	}
	n.count = 0
	return n.setStatus(status)
}

func (n *RepeatNode[W, E]) Reset(bb *Blackboard, world W, entity E) {
	if n.IsRunning() {
		n.resetStatus()
		n.count = 0
		n.child.Reset(bb, world, entity)
	}
}

// ImmediateRepeatNode is RepeatNode's single-tick loop variant: it
// re-ticks the child within the same Tick call until Running or the
// cap is reached, instead of spreading repeats across ticks.
type ImmediateRepeatNode[W any, E any] struct {
	BaseNode[W, E]
	limit int
	count int
	child Node[W, E]
}

func NewImmediateRepeatNode[W any, E any](index int32, name string, limit int, child Node[W, E]) *ImmediateRepeatNode[W, E] {
	if limit != -1 && limit <= 0 {
		panicf("bhvtree: ImmediateRepeat node %q (index %d) limit must be -1 or > 0, got %d", name, index, limit)
	}
	return &ImmediateRepeatNode[W, E]{BaseNode: newBaseNode[W, E](index, name, DecoratorNode), limit: limit, child: child}
}

func (n *ImmediateRepeatNode[W, E]) Children() []Node[W, E] { return []Node[W, E]{n.child} }

func (n *ImmediateRepeatNode[W, E]) Tick(bb *Blackboard, hook Hook[W, E], world W, entity E) Status {
	for {
		status := requireNonBranch[W, E](n.child.Tick(bb, hook, world, entity), n.Name(), n.NodeIndex(), n.child.Name(), n.child.NodeIndex())
		if status.IsRunning() {
			return n.setStatus(StatusRunning)
		}
		if n.limit != -1 {
			n.count++
		}
		if n.limit == -1 || n.count < n.limit {
			continue
		}
		n.count = 0
		return n.setStatus(status)
	}
}

func (n *ImmediateRepeatNode[W, E]) Reset(bb *Blackboard, world W, entity E) {
	if n.IsRunning() {
		n.resetStatus()
		n.count = 0
		n.child.Reset(bb, world, entity)
	}
}

// RetryNode re-enters its child on Failure until it has failed limit
// times (limit == -1 for infinite), then gives up with Failure; a
// Success at any point resets the try count and succeeds immediately.
type RetryNode[W any, E any] struct {
	BaseNode[W, E]
	limit int
	tries int
	child Node[W, E]
}

func NewRetryNode[W any, E any](index int32, name string, limit int, child Node[W, E]) *RetryNode[W, E] {
	if limit != -1 && limit <= 0 {
		panicf("bhvtree: Retry node %q (index %d) limit must be -1 or > 0, got %d", name, index, limit)
	}
	return &RetryNode[W, E]{BaseNode: newBaseNode[W, E](index, name, DecoratorNode), limit: limit, child: child}
}

func (n *RetryNode[W, E]) Children() []Node[W, E] { return []Node[W, E]{n.child} }

func (n *RetryNode[W, E]) Tick(bb *Blackboard, hook Hook[W, E], world W, entity E) Status {
	status := requireNonBranch[W, E](n.child.Tick(bb, hook, world, entity), n.Name(), n.NodeIndex(), n.child.Name(), n.child.NodeIndex())
	switch {
	case status.IsRunning():
		return n.setStatus(StatusRunning)
	case status.IsSuccess():
		n.tries = 0
		return n.setStatus(StatusSuccess)
	default:
		if n.limit != -1 {
			n.tries++
		}
		if n.limit == -1 || n.tries < n.limit {
			return n.setStatus(StatusRunning)
		}
		n.tries = 0
		return n.setStatus(StatusFailure)
	}
}

func (n *RetryNode[W, E]) Reset(bb *Blackboard, world W, entity E) {
	if n.IsRunning() {
		n.resetStatus()
		n.tries = 0
		n.child.Reset(bb, world, entity)
	}
}

// ImmediateRetryNode is RetryNode's single-tick loop variant.
type ImmediateRetryNode[W any, E any] struct {
	BaseNode[W, E]
	limit int
	tries int
	child Node[W, E]
}

func NewImmediateRetryNode[W any, E any](index int32, name string, limit int, child Node[W, E]) *ImmediateRetryNode[W, E] {
	if limit != -1 && limit <= 0 {
		panicf("bhvtree: ImmediateRetry node %q (index %d) limit must be -1 or > 0, got %d", name, index, limit)
	}
	return &ImmediateRetryNode[W, E]{BaseNode: newBaseNode[W, E](index, name, DecoratorNode), limit: limit, child: child}
}

func (n *ImmediateRetryNode[W, E]) Children() []Node[W, E] { return []Node[W, E]{n.child} }

func (n *ImmediateRetryNode[W, E]) Tick(bb *Blackboard, hook Hook[W, E], world W, entity E) Status {
	for {
		status := requireNonBranch[W, E](n.child.Tick(bb, hook, world, entity), n.Name(), n.NodeIndex(), n.child.Name(), n.child.NodeIndex())
		switch {
		case status.IsRunning():
			return n.setStatus(StatusRunning)
		case status.IsSuccess():
			n.tries = 0
			return n.setStatus(StatusSuccess)
		default:
			if n.limit != -1 {
				n.tries++
			}
			if n.limit == -1 || n.tries < n.limit {
				continue
			}
			n.tries = 0
			return n.setStatus(StatusFailure)
		}
	}
}

func (n *ImmediateRetryNode[W, E]) Reset(bb *Blackboard, world W, entity E) {
	if n.IsRunning() {
		n.resetStatus()
		n.tries = 0
		n.child.Reset(bb, world, entity)
	}
}

// LogNode passes its child's result through unchanged, emitting the
// current value of each named blackboard cell as a structured log
// field for observation. cells are resolved once at
// factory-instantiate time, not re-looked-up per tick.
type LogNode[W any, E any] struct {
	BaseNode[W, E]
	cellNames []string
	cells     []SharedCell
	child     Node[W, E]
}

func NewLogNode[W any, E any](index int32, name string, cellNames []string, cells []SharedCell, child Node[W, E]) *LogNode[W, E] {
	return &LogNode[W, E]{BaseNode: newBaseNode[W, E](index, name, DecoratorNode), cellNames: cellNames, cells: cells, child: child}
}

func (n *LogNode[W, E]) Children() []Node[W, E] { return []Node[W, E]{n.child} }

func (n *LogNode[W, E]) Tick(bb *Blackboard, hook Hook[W, E], world W, entity E) Status {
	status := requireNonBranch[W, E](n.child.Tick(bb, hook, world, entity), n.Name(), n.NodeIndex(), n.child.Name(), n.child.NodeIndex())
	fields := make(logrus.Fields, len(n.cells))
	for i, cell := range n.cells {
		fields[n.cellNames[i]] = cell.Get()
	}
	pkgLogger.WithFields(fields).WithField("node", n.Name()).Debug("bhvtree: Log")
	return n.setStatus(status)
}

func (n *LogNode[W, E]) Reset(bb *Blackboard, world W, entity E) {
	if n.IsRunning() {
		n.resetStatus()
		n.child.Reset(bb, world, entity)
	}
}

// SubTreeNode ticks child against its own blackboard rather than the
// parent's, isolating the subtree instance's named cells while still
// sharing whichever SharedCell handles the factory aliased in from
// the parent. child is the compiled subtree's root.
type SubTreeNode[W any, E any] struct {
	BaseNode[W, E]
	treeName   string
	blackboard *Blackboard
	child      Node[W, E]
}

func NewSubTreeNode[W any, E any](index int32, name, treeName string, blackboard *Blackboard, child Node[W, E]) *SubTreeNode[W, E] {
	return &SubTreeNode[W, E]{BaseNode: newBaseNode[W, E](index, name, DecoratorNode), treeName: treeName, blackboard: blackboard, child: child}
}

func (n *SubTreeNode[W, E]) Children() []Node[W, E] { return []Node[W, E]{n.child} }

func (n *SubTreeNode[W, E]) TreeName() string { return n.treeName }

func (n *SubTreeNode[W, E]) Tick(_ *Blackboard, hook Hook[W, E], world W, entity E) Status {
	status := requireNonBranch[W, E](n.child.Tick(n.blackboard, hook, world, entity), n.Name(), n.NodeIndex(), n.child.Name(), n.child.NodeIndex())
	return n.setStatus(status)
}

func (n *SubTreeNode[W, E]) Reset(_ *Blackboard, world W, entity E) {
	if n.IsRunning() {
		n.resetStatus()
		n.child.Reset(n.blackboard, world, entity)
	}
}
