package bhvtree

import (
	"fmt"

	"github.com/xlab/treeprint"
)

// Render draws the instance's current node structure and per-node
// status as indented text, for human-readable debugging alongside the
// packed Snapshot form.
func (i *Instance[W, E]) Render() string {
	root := treeprint.New()
	root.SetValue(i.name)
	renderNode[W, E](root, i.root)
	return root.String()
}

func renderNode[W any, E any](parent treeprint.Tree, n Node[W, E]) {
	label := fmt.Sprintf("%s #%d [%s] %s", n.Name(), n.NodeIndex(), n.Kind(), nodeStatus[W, E](n))

	if sub, ok := any(n).(*SubTreeNode[W, E]); ok {
		branch := parent.AddBranch(label + " -> " + sub.TreeName())
		for _, c := range n.Children() {
			renderNode[W, E](branch, c)
		}
		return
	}

	children := n.Children()
	if len(children) == 0 {
		parent.AddNode(label)
		return
	}
	branch := parent.AddBranch(label)
	for _, c := range children {
		renderNode[W, E](branch, c)
	}
}

// nodeStatus reads a node's last-observed Status through the Status()
// method every BaseNode embed promotes; Node itself doesn't declare
// Status() since plain traversal never needs it, only diagnostics do.
func nodeStatus[W any, E any](n Node[W, E]) Status {
	if sr, ok := n.(interface{ Status() Status }); ok {
		return sr.Status()
	}
	return StatusIdle
}

// statusCode packs a Status into the 2-bit code VisualSnapshot stores
// per node: Idle=0, Success/Branch=1, Failure=2, Running=3. Branch
// shares Success's code — a stored Branch status (a BranchCond that
// just picked a winner) is a successful selection.
func statusCode(s Status) byte {
	switch {
	case s.IsSuccess(), s.IsBranch():
		return 1
	case s.IsFailure():
		return 2
	case s.IsRunning():
		return 3
	default:
		return 0
	}
}

// VisualSnapshot is a packed, 2-bit-per-node record of every node's
// status in one tree, taken in the same pre-order Render walks.
// SubTrees nests one snapshot per SubTree node index, since node
// indices are only unique within a single tree.
type VisualSnapshot struct {
	TreeName  string
	NodeCount int
	Bits      []byte
	SubTrees  map[int32]*VisualSnapshot
}

func (s *VisualSnapshot) appendCode(code byte) {
	bitIdx := s.NodeCount * 2
	byteIdx := bitIdx / 8
	for len(s.Bits) <= byteIdx {
		s.Bits = append(s.Bits, 0)
	}
	s.Bits[byteIdx] |= code << uint(bitIdx%8)
	s.NodeCount++
}

// StatusAt decodes the 2-bit status code recorded for the idx-th node
// visited in this snapshot's pre-order walk.
func (s *VisualSnapshot) StatusAt(idx int) byte {
	bitIdx := idx * 2
	byteIdx := bitIdx / 8
	if byteIdx >= len(s.Bits) {
		return 0
	}
	return (s.Bits[byteIdx] >> uint(bitIdx%8)) & 0x3
}

// Snapshot takes a VisualSnapshot of the instance's current node
// statuses.
func (i *Instance[W, E]) Snapshot() *VisualSnapshot {
	snap := &VisualSnapshot{TreeName: i.name}
	collectSnapshot[W, E](snap, i.root)
	return snap
}

func collectSnapshot[W any, E any](snap *VisualSnapshot, n Node[W, E]) {
	snap.appendCode(statusCode(nodeStatus[W, E](n)))

	if sub, ok := any(n).(*SubTreeNode[W, E]); ok {
		child := &VisualSnapshot{TreeName: sub.TreeName()}
		if snap.SubTrees == nil {
			snap.SubTrees = map[int32]*VisualSnapshot{}
		}
		snap.SubTrees[n.NodeIndex()] = child
		for _, c := range n.Children() {
			collectSnapshot[W, E](child, c)
		}
		return
	}

	for _, c := range n.Children() {
		collectSnapshot[W, E](snap, c)
	}
}
