package bhvtree

import (
	"encoding/json"
	"fmt"
)

// Factory compiles JSON tree templates and instantiates them into
// ticking Instance values. It owns three registries keyed by name:
// blackboard cell types, leaf-action constructors, and compiled tree
// templates.
type Factory[W any, E any] struct {
	cellTypes    map[string]CellType
	actions      map[string]func(*BuildContext) (Action[W, E], error)
	trees        map[string]*TreeTemplate
	clock        NowFunc
	weightedDraw WeightedDraw
}

// FactoryOption configures a Factory at construction time.
type FactoryOption[W any, E any] func(*Factory[W, E])

// WithClock overrides the millisecond clock every Wait/Timeout/Limiter
// node built by this factory consumes. Defaults to RealClock.
func WithClock[W any, E any](now NowFunc) FactoryOption[W, E] {
	return func(f *Factory[W, E]) { f.clock = now }
}

// WithWeightedDraw overrides the random source every WeightSelect node
// built by this factory consumes. Defaults to NewDefaultWeightedDraw.
func WithWeightedDraw[W any, E any](draw WeightedDraw) FactoryOption[W, E] {
	return func(f *Factory[W, E]) { f.weightedDraw = draw }
}

// WithCellType registers an additional blackboard cell type beyond
// the built-ins, before any user RegisterCellType calls.
func WithCellType[W any, E any](ct CellType) FactoryOption[W, E] {
	return func(f *Factory[W, E]) { f.cellTypes[ct.Tag] = ct }
}

// NewFactory builds a Factory with the built-in cell types and
// built-in example leaves already registered.
func NewFactory[W any, E any](opts ...FactoryOption[W, E]) *Factory[W, E] {
	f := &Factory[W, E]{
		cellTypes: builtinCellTypes(),
		actions:   map[string]func(*BuildContext) (Action[W, E], error){},
		trees:     map[string]*TreeTemplate{},
		clock:     RealClock,
	}
	registerBuiltinLeaves[W, E](f)
	for _, opt := range opts {
		opt(f)
	}
	if f.weightedDraw == nil {
		f.weightedDraw = NewDefaultWeightedDraw()
	}
	return f
}

// RegisterCellType adds or overrides a blackboard cell type.
func (f *Factory[W, E]) RegisterCellType(ct CellType) { f.cellTypes[ct.Tag] = ct }

// RegisterAction registers a leaf constructor under name, the string
// an "Action" template entry names in tree_structure JSON. ctor
// resolves the action's meta/bb/dyn fields against the BuildContext
// it's given (see ResolveMeta, ResolveBbCell, ResolveDynCell).
func (f *Factory[W, E]) RegisterAction(name string, ctor func(*BuildContext) (Action[W, E], error)) {
	f.actions[name] = ctor
}

// Compile parses a tree_blackboard/tree_structure JSON document and
// registers it under name for later Instantiate calls. It does not
// build any node — structural errors beyond JSON syntax only surface
// at Instantiate time.
func (f *Factory[W, E]) Compile(name string, data []byte) error {
	var tt TreeTemplate
	if err := json.Unmarshal(data, &tt); err != nil {
		return newErr(ErrCompileTreeTemplateFailed, TreeLocation{TreeName: name}, NodeLocation{}, "parsing tree template JSON", err)
	}
	f.trees[name] = &tt
	return nil
}

// Instantiate builds a fresh, ticking Instance of the tree previously
// registered under name via Compile.
func (f *Factory[W, E]) Instantiate(name string) (*Instance[W, E], error) {
	return f.instantiateTree(name, 0, nil)
}

// parentLink carries the parent tree's blackboard and a subtree
// template's ref_map across one level of SubTree recursion, so the
// child's blackboard inits can be spliced against aliased parent
// cells before running.
type parentLink struct {
	parentTreeName string
	parentMap      *BlackboardMap
	refMap         map[string]string
}

func (f *Factory[W, E]) instantiateTree(name string, depth int, link *parentLink) (*Instance[W, E], error) {
	tt, ok := f.trees[name]
	if !ok {
		return nil, newErr(ErrUnregisteredTreeNode, TreeLocation{TreeName: name, TreeDepth: depth}, NodeLocation{}, fmt.Sprintf("tree %q was not Compiled", name), nil)
	}
	treeLoc := TreeLocation{TreeName: name, TreeDepth: depth}

	bbMap, err := f.buildBlackboard(tt.Blackboard, treeLoc, link)
	if err != nil {
		return nil, err
	}
	root, err := f.buildNode(tt.Structure, bbMap, treeLoc)
	if err != nil {
		return nil, err
	}
	return &Instance[W, E]{name: name, blackboard: NewBlackboard(bbMap), root: root}, nil
}

// buildBlackboard constructs a tree's BlackboardMap: first splicing
// in any cells aliased from a parent tree via a SubTree ref_map, then
// running each bb init — an init whose name already exists (because
// it was just aliased in) is left alone after a type-tag compatibility
// check rather than overwritten — links run first precisely so inits
// can conflict-check against them.
func (f *Factory[W, E]) buildBlackboard(inits []BlackboardInit, tree TreeLocation, link *parentLink) (*BlackboardMap, error) {
	bbMap := NewBlackboardMap()

	if link != nil {
		for childName, parentName := range link.refMap {
			parentCell, ok := link.parentMap.Lookup(parentName)
			if !ok {
				return nil, newErr(ErrLinkParentBlackBoardNotFound, tree, NodeLocation{},
					fmt.Sprintf("subtree link from %q: parent blackboard cell %q not found", link.parentTreeName, parentName), nil)
			}
			bbMap.Insert(SharedCell{name: childName, box: parentCell.box})
		}
	}

	for _, init := range inits {
		ct, ok := f.cellTypes[init.Type]
		if !ok {
			return nil, newErr(ErrUnregisteredBlackBoardType, tree, NodeLocation{},
				fmt.Sprintf("blackboard %q declares unregistered type %q", init.Name, init.Type), nil)
		}

		if existing, ok := bbMap.Lookup(init.Name); ok {
			if existing.TypeTag() != init.Type {
				return nil, newErr(ErrLinkDifferentBlackBoardType, tree, NodeLocation{},
					fmt.Sprintf("blackboard %q: linked cell has type %q, init declares %q", init.Name, existing.TypeTag(), init.Type), nil)
			}
			continue
		}

		var value any
		if init.Value == "" || init.Value == "None" {
			value = ct.Zero()
		} else {
			v, err := ct.Parse(init.Value)
			if err != nil {
				return nil, newErr(ErrInitBlackBoardParseFailed, tree, NodeLocation{}, fmt.Sprintf("blackboard %q: %v", init.Name, err), err)
			}
			value = v
		}
		bbMap.Insert(NewSharedCell(init.Name, init.Type, value))
	}

	return bbMap, nil
}

func (f *Factory[W, E]) buildChildren(tpls []*Template, bbMap *BlackboardMap, tree TreeLocation) ([]Node[W, E], error) {
	out := make([]Node[W, E], 0, len(tpls))
	for _, tpl := range tpls {
		n, err := f.buildNode(tpl, bbMap, tree)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

// buildNode recursively compiles one Template into a ticking Node.
// Built-in control/decorator/leaf kinds use the template's Kind string
// as the node's Name(), since the wire format carries no separate
// display name for them, so rendered trees and error locations read
// the same as the JSON that produced them.
func (f *Factory[W, E]) buildNode(tpl *Template, bbMap *BlackboardMap, tree TreeLocation) (Node[W, E], error) {
	nodeLoc := NodeLocation{NodeName: tpl.Kind, NodeIndex: tpl.Idx}

	switch tpl.Kind {
	case "Sequence":
		children, err := f.buildChildren(tpl.Children, bbMap, tree)
		if err != nil {
			return nil, err
		}
		return NewSequenceNode[W, E](tpl.Idx, tpl.Kind, children), nil

	case "Select":
		children, err := f.buildChildren(tpl.Children, bbMap, tree)
		if err != nil {
			return nil, err
		}
		return NewSelectNode[W, E](tpl.Idx, tpl.Kind, children), nil

	case "While":
		cond, err := f.buildNode(tpl.Cond, bbMap, tree)
		if err != nil {
			return nil, err
		}
		children, err := f.buildChildren(tpl.Children, bbMap, tree)
		if err != nil {
			return nil, err
		}
		return NewWhileNode[W, E](tpl.Idx, tpl.Kind, cond, children), nil

	case "If":
		cond, err := f.buildNode(tpl.Cond, bbMap, tree)
		if err != nil {
			return nil, err
		}
		then, err := f.buildNode(tpl.Then, bbMap, tree)
		if err != nil {
			return nil, err
		}
		return NewIfNode[W, E](tpl.Idx, tpl.Kind, tpl.CanAbort, cond, then), nil

	case "IfThenElse":
		cond, err := f.buildNode(tpl.Cond, bbMap, tree)
		if err != nil {
			return nil, err
		}
		then, err := f.buildNode(tpl.Then, bbMap, tree)
		if err != nil {
			return nil, err
		}
		els, err := f.buildNode(tpl.Else, bbMap, tree)
		if err != nil {
			return nil, err
		}
		return NewIfThenElseNode[W, E](tpl.Idx, tpl.Kind, tpl.CanAbort, cond, then, els), nil

	case "Branch":
		cond, err := f.buildNode(tpl.Cond, bbMap, tree)
		if err != nil {
			return nil, err
		}
		children, err := f.buildChildren(tpl.Children, bbMap, tree)
		if err != nil {
			return nil, err
		}
		return NewBranchNode[W, E](tpl.Idx, tpl.Kind, tpl.CanAbort, cond, children), nil

	case "PriorityBranch":
		cond, err := f.buildNode(tpl.Cond, bbMap, tree)
		if err != nil {
			return nil, err
		}
		children, err := f.buildChildren(tpl.Children, bbMap, tree)
		if err != nil {
			return nil, err
		}
		return NewPriorityBranchNode[W, E](tpl.Idx, tpl.Kind, tpl.CanAbort, tpl.Priorities, cond, children), nil

	case "BranchCond":
		conds, err := f.buildChildren(tpl.Children, bbMap, tree)
		if err != nil {
			return nil, err
		}
		return NewBranchCondNode[W, E](tpl.Idx, tpl.Kind, conds), nil

	case "ParallelAnd":
		children, err := f.buildChildren(tpl.Children, bbMap, tree)
		if err != nil {
			return nil, err
		}
		return NewParallelAndNode[W, E](tpl.Idx, tpl.Kind, children), nil

	case "ParallelOr":
		children, err := f.buildChildren(tpl.Children, bbMap, tree)
		if err != nil {
			return nil, err
		}
		return NewParallelOrNode[W, E](tpl.Idx, tpl.Kind, children), nil

	case "ParallelSequence":
		children, err := f.buildChildren(tpl.Children, bbMap, tree)
		if err != nil {
			return nil, err
		}
		return NewParallelSequenceNode[W, E](tpl.Idx, tpl.Kind, children), nil

	case "ParallelSelect":
		children, err := f.buildChildren(tpl.Children, bbMap, tree)
		if err != nil {
			return nil, err
		}
		return NewParallelSelectNode[W, E](tpl.Idx, tpl.Kind, children), nil

	case "WeightSelect":
		children, err := f.buildChildren(tpl.Children, bbMap, tree)
		if err != nil {
			return nil, err
		}
		return NewWeightSelectNode[W, E](tpl.Idx, tpl.Kind, tpl.Weights, children, f.weightedDraw), nil

	case "Invert":
		child, err := f.buildNode(tpl.Child, bbMap, tree)
		if err != nil {
			return nil, err
		}
		return NewInvertNode[W, E](tpl.Idx, tpl.Kind, child), nil

	case "ForceSuccess":
		child, err := f.buildNode(tpl.Child, bbMap, tree)
		if err != nil {
			return nil, err
		}
		return NewForceSuccessNode[W, E](tpl.Idx, tpl.Kind, child), nil

	case "ForceFailure":
		child, err := f.buildNode(tpl.Child, bbMap, tree)
		if err != nil {
			return nil, err
		}
		return NewForceFailureNode[W, E](tpl.Idx, tpl.Kind, child), nil

	case "UntilSuccess":
		child, err := f.buildNode(tpl.Child, bbMap, tree)
		if err != nil {
			return nil, err
		}
		return NewUntilSuccessNode[W, E](tpl.Idx, tpl.Kind, child), nil

	case "UntilFailure":
		child, err := f.buildNode(tpl.Child, bbMap, tree)
		if err != nil {
			return nil, err
		}
		return NewUntilFailureNode[W, E](tpl.Idx, tpl.Kind, child), nil

	case "TimeOut":
		child, err := f.buildNode(tpl.Child, bbMap, tree)
		if err != nil {
			return nil, err
		}
		return NewTimeoutNode[W, E](tpl.Idx, tpl.Kind, tpl.Ms, f.clock, child), nil

	case "Limiter":
		child, err := f.buildNode(tpl.Child, bbMap, tree)
		if err != nil {
			return nil, err
		}
		return NewLimiterNode[W, E](tpl.Idx, tpl.Kind, tpl.WindowMs, tpl.N, f.clock, child), nil

	case "Repeat":
		child, err := f.buildNode(tpl.Child, bbMap, tree)
		if err != nil {
			return nil, err
		}
		return NewRepeatNode[W, E](tpl.Idx, tpl.Kind, tpl.N, child), nil

	case "ImmediateRepeat":
		child, err := f.buildNode(tpl.Child, bbMap, tree)
		if err != nil {
			return nil, err
		}
		return NewImmediateRepeatNode[W, E](tpl.Idx, tpl.Kind, tpl.N, child), nil

	case "Retry":
		child, err := f.buildNode(tpl.Child, bbMap, tree)
		if err != nil {
			return nil, err
		}
		return NewRetryNode[W, E](tpl.Idx, tpl.Kind, tpl.N, child), nil

	case "ImmediateRetry":
		child, err := f.buildNode(tpl.Child, bbMap, tree)
		if err != nil {
			return nil, err
		}
		return NewImmediateRetryNode[W, E](tpl.Idx, tpl.Kind, tpl.N, child), nil

	case "Log":
		cells := make([]SharedCell, 0, len(tpl.CellNames))
		for _, cellName := range tpl.CellNames {
			cell, ok := bbMap.Lookup(cellName)
			if !ok {
				return nil, newErr(ErrBlackBoardNotFound, tree, nodeLoc, fmt.Sprintf("Log node references blackboard cell %q", cellName), nil)
			}
			cells = append(cells, cell)
		}
		child, err := f.buildNode(tpl.Child, bbMap, tree)
		if err != nil {
			return nil, err
		}
		return NewLogNode[W, E](tpl.Idx, tpl.Kind, tpl.CellNames, cells, child), nil

	case "SubTree":
		return f.buildSubTree(tpl, bbMap, tree)

	case "Wait":
		return NewWaitNode[W, E](tpl.Idx, tpl.Kind, tpl.Ms, f.clock), nil

	case "WaitForever":
		return NewWaitForeverNode[W, E](tpl.Idx, tpl.Kind), nil

	case "AlwaysSuccess":
		return NewAlwaysSuccessNode[W, E](tpl.Idx, tpl.Kind), nil

	case "AlwaysFailure":
		return NewAlwaysFailureNode[W, E](tpl.Idx, tpl.Kind), nil

	case "Expression":
		return NewExpressionNode[W, E](tpl.Idx, tpl.Kind, tree, tpl.Expr, bbMap, f.cellTypes)

	case "Action":
		return f.buildAction(tpl, bbMap, tree)

	default:
		return nil, newErr(ErrUnregisteredTreeNode, tree, nodeLoc, fmt.Sprintf("unknown template kind %q", tpl.Kind), nil)
	}
}

func (f *Factory[W, E]) buildAction(tpl *Template, bbMap *BlackboardMap, tree TreeLocation) (Node[W, E], error) {
	nodeLoc := NodeLocation{NodeName: tpl.Action.Name, NodeIndex: tpl.Idx}
	ctor, ok := f.actions[tpl.Action.Name]
	if !ok {
		return nil, newErr(ErrUnregisteredTreeNode, tree, nodeLoc, fmt.Sprintf("action %q was not RegisterAction'd", tpl.Action.Name), nil)
	}
	bc := &BuildContext{
		Tree:      tree,
		Node:      nodeLoc,
		Meta:      tpl.Action.MetaMap,
		BbRefs:    tpl.Action.BbRefMap,
		DynRefs:   tpl.Action.DynRefMap,
		BbMap:     bbMap,
		CellTypes: f.cellTypes,
	}
	action, err := ctor(bc)
	if err != nil {
		return nil, err
	}
	return NewActionNode[W, E](tpl.Idx, tpl.Action.Name, action, nil), nil
}

// buildSubTree instantiates the named tree as a fully independent
// sub-instance, aliasing blackboard cells named in tpl.RefMap from the
// parent's map before the subtree's own inits run, then wraps it as a
// SubTreeNode ticking against its own blackboard. Any failure below is
// re-wrapped as CreateSubTreeFailed with the inner error as cause.
func (f *Factory[W, E]) buildSubTree(tpl *Template, parentBbMap *BlackboardMap, parentTree TreeLocation) (Node[W, E], error) {
	link := &parentLink{parentTreeName: parentTree.TreeName, parentMap: parentBbMap, refMap: tpl.RefMap}
	child, err := f.instantiateTree(tpl.SubTree, parentTree.TreeDepth+1, link)
	if err != nil {
		return nil, newErr(ErrCreateSubTreeFailed, parentTree, NodeLocation{NodeName: tpl.Kind, NodeIndex: tpl.Idx},
			fmt.Sprintf("instantiating subtree %q", tpl.SubTree), err)
	}
	return NewSubTreeNode[W, E](tpl.Idx, tpl.Kind, tpl.SubTree, child.blackboard, child.root), nil
}

// BuildContext is everything a registered Action constructor needs to
// resolve its own meta/bb/dyn fields: the raw string maps from the
// ActionTemplate plus the tree's already-built BlackboardMap and the
// factory's cell type registry. Passed to every func(*BuildContext)
// registered via Factory.RegisterAction.
type BuildContext struct {
	Tree TreeLocation
	Node NodeLocation

	Meta    map[string]string
	BbRefs  map[string]string
	DynRefs map[string]string

	BbMap     *BlackboardMap
	CellTypes map[string]CellType
}

// ResolveMeta parses the metadata field named key with parse
// (MetaDataNotFound, MetaDataParseFailed on failure).
func ResolveMeta[T any](bc *BuildContext, key string, parse func(raw string) (T, error)) (MetaCell[T], error) {
	raw, ok := bc.Meta[key]
	if !ok {
		return MetaCell[T]{}, newErr(ErrMetaDataNotFound, bc.Tree, bc.Node, fmt.Sprintf("metadata field %q not found", key), nil)
	}
	v, err := parse(raw)
	if err != nil {
		return MetaCell[T]{}, newErr(ErrMetaDataParseFailed, bc.Tree, bc.Node, fmt.Sprintf("metadata field %q: %v", key, err), err)
	}
	return NewMetaCell(v), nil
}

// ResolveBbCell binds the bb_ref_map field named key to its named
// blackboard cell, downcasting its current value to T to catch a
// mismatched registration early (BlackBoardRefNotFound,
// BlackBoardNotFound, BlackBoardDowncastFailed).
func ResolveBbCell[T any](bc *BuildContext, key string) (BbCell[T], error) {
	name, ok := bc.BbRefs[key]
	if !ok {
		return BbCell[T]{}, newErr(ErrBlackBoardRefNotFound, bc.Tree, bc.Node, fmt.Sprintf("bb_ref_map field %q not found", key), nil)
	}
	cell, ok := bc.BbMap.Lookup(name)
	if !ok {
		return BbCell[T]{}, newErr(ErrBlackBoardNotFound, bc.Tree, bc.Node, fmt.Sprintf("bb_ref_map field %q: blackboard cell %q not found", key, name), nil)
	}
	if _, ok := cell.Get().(T); !ok {
		return BbCell[T]{}, newErr(ErrBlackBoardDowncastFailed, bc.Tree, bc.Node, fmt.Sprintf("bb_ref_map field %q: cell %q has the wrong type", key, name), nil)
	}
	return NewBbCell[T](name, cell), nil
}

// ResolveDynCell resolves the dyn_ref_map field named key: a raw
// string shaped "<cell_name>" borrows that blackboard cell mutably, a
// raw string that starts with '<' but is not such a reference fails
// with ErrRegexCapturesFailed, and any other raw string is parsed with
// parseLit into an immutable literal.
func ResolveDynCell[T any](bc *BuildContext, key string, parseLit func(raw string) (T, error)) (DynCell[T], error) {
	raw, ok := bc.DynRefs[key]
	if !ok {
		return DynCell[T]{}, newErr(ErrDynamicRefNotFound, bc.Tree, bc.Node, fmt.Sprintf("dyn_ref_map field %q not found", key), nil)
	}

	name, isRef, attempted := parseDynRef(raw)
	if attempted && !isRef {
		return DynCell[T]{}, newErr(ErrRegexCapturesFailed, bc.Tree, bc.Node, fmt.Sprintf("dyn_ref_map field %q: malformed cell reference %q", key, raw), nil)
	}
	if isRef {
		cell, ok := bc.BbMap.Lookup(name)
		if !ok {
			return DynCell[T]{}, newErr(ErrDynamicBlackBoardNotFound, bc.Tree, bc.Node, fmt.Sprintf("dyn_ref_map field %q: blackboard cell %q not found", key, name), nil)
		}
		if _, ok := cell.Get().(T); !ok {
			return DynCell[T]{}, newErr(ErrDynamicBlackBoardDowncast, bc.Tree, bc.Node, fmt.Sprintf("dyn_ref_map field %q: cell %q has the wrong type", key, name), nil)
		}
		return NewMutableDynCell[T](name, cell), nil
	}

	v, err := parseLit(raw)
	if err != nil {
		return DynCell[T]{}, newErr(ErrDynamicMetaDataParseFailed, bc.Tree, bc.Node, fmt.Sprintf("dyn_ref_map field %q literal %q: %v", key, raw, err), err)
	}
	return NewImmutableDynCell[T](v), nil
}
