package bhvtree

import "fmt"

// ErrKind enumerates every structural failure the factory can
// surface. Structural errors always propagate unchanged out of
// Compile/Instantiate; none of them can occur at tick time.
type ErrKind string

const (
	ErrUnregisteredTreeNode         ErrKind = "UnregisteredTreeNode"
	ErrUnregisteredBlackBoardType   ErrKind = "UnregisteredBlackBoardType"
	ErrDowncastFailed               ErrKind = "DowncastFailed"
	ErrRegexCapturesFailed          ErrKind = "RegexCapturesFailed"
	ErrCompileTreeTemplateFailed    ErrKind = "CompileTreeTemplateFailed"
	ErrTreeTemplateNodeNotFound     ErrKind = "TreeTemplateNodeNotFound"
	ErrInitBlackBoardParseFailed    ErrKind = "InitBlackBoardParseFailed"
	ErrCreateSubTreeFailed          ErrKind = "CreateSubTreeFailed"
	ErrMetaDataNotFound             ErrKind = "MetaDataNotFound"
	ErrMetaDataParseFailed          ErrKind = "MetaDataParseFailed"
	ErrBlackBoardRefNotFound        ErrKind = "BlackBoardRefNotFound"
	ErrBlackBoardNotFound           ErrKind = "BlackBoardNotFound"
	ErrBlackBoardDowncastFailed     ErrKind = "BlackBoardDowncastFailed"
	ErrDynamicRefNotFound           ErrKind = "DynamicRefNotFound"
	ErrDynamicMetaDataParseFailed   ErrKind = "DynamicMetaDataParseFailed"
	ErrDynamicBlackBoardNotFound    ErrKind = "DynamicBlackBoardNotFound"
	ErrDynamicBlackBoardDowncast    ErrKind = "DynamicBlackBoardDowncastFailed"
	ErrLinkParentBlackBoardNotFound ErrKind = "LinkParentBlackBoardNotFound"
	ErrLinkDifferentBlackBoardType  ErrKind = "LinkDifferentBlackBoardType"
	ErrExpressionInvalidOperatorTree ErrKind = "ExpressionInvalidOperatorTree"
	ErrExpressionInvalidVariable     ErrKind = "ExpressionInvalidVariable"
	ErrExpressionVariableNotExist    ErrKind = "ExpressionVariableNotExist"
)

// TreeLocation identifies which compiled tree an error occurred in.
type TreeLocation struct {
	TreeName  string
	TreeIndex int
	TreeDepth int
}

func (l TreeLocation) String() string {
	return fmt.Sprintf("tree=%s index=%d depth=%d", l.TreeName, l.TreeIndex, l.TreeDepth)
}

// NodeLocation identifies which node within a tree an error occurred
// at.
type NodeLocation struct {
	NodeName  string
	NodeIndex int32
}

func (l NodeLocation) String() string {
	return fmt.Sprintf("node=%s index=%d", l.NodeName, l.NodeIndex)
}

// BehaviorError is the structural-failure type every Factory.Compile
// / Factory.Instantiate error takes the shape of. It wraps an
// optional inner cause (e.g. CreateSubTreeFailed wraps the failing
// subtree's own BehaviorError) so errors.Is/errors.As reach through.
type BehaviorError struct {
	Kind  ErrKind
	Tree  TreeLocation
	Node  NodeLocation
	Msg   string
	Cause error
}

func (e *BehaviorError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("bhvtree: %s (%s, %s): %s: %v", e.Kind, e.Tree, e.Node, e.Msg, e.Cause)
	}
	return fmt.Sprintf("bhvtree: %s (%s, %s): %s", e.Kind, e.Tree, e.Node, e.Msg)
}

func (e *BehaviorError) Unwrap() error { return e.Cause }

// Is supports errors.Is(err, &BehaviorError{Kind: k}) style matching
// against the sentinel kinds above by comparing Kind fields only;
// primarily useful from tests.
func (e *BehaviorError) Is(target error) bool {
	other, ok := target.(*BehaviorError)
	if !ok {
		return false
	}
	return e.Kind == other.Kind
}

func newErr(kind ErrKind, tree TreeLocation, node NodeLocation, msg string, cause error) *BehaviorError {
	return &BehaviorError{Kind: kind, Tree: tree, Node: node, Msg: msg, Cause: cause}
}
