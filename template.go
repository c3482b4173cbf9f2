package bhvtree

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Template is the compile-time, not-yet-bound description of a tree:
// a recursive tagged union decoded from the wire JSON shape
// `{"Kind": [idx, ...fields]}`, one key per object. One flat struct
// holds every variant's fields; Kind selects which are meaningful.
type Template struct {
	Kind string
	Idx  int32

	CanAbort   bool
	Cond       *Template
	Then       *Template
	Else       *Template
	Children   []*Template
	Priorities []int
	Weights    []float64

	Child     *Template
	Ms        int64
	WindowMs  int64
	N         int
	CellNames []string
	SubTree   string
	RefMap    map[string]string

	Expr   string
	Action *ActionTemplate
}

// ActionTemplate is the wire shape of a user-registered leaf. All
// three maps are string→string; typed parsing happens in the factory
// at Instantiate time.
type ActionTemplate struct {
	Name      string            `json:"name"`
	MetaMap   map[string]string `json:"meta_map,omitempty"`
	BbRefMap  map[string]string `json:"bb_ref_map,omitempty"`
	DynRefMap map[string]string `json:"dyn_ref_map,omitempty"`
}

// BlackboardInit is the wire shape of one tree_blackboard entry.
type BlackboardInit struct {
	Name  string `json:"bb_name"`
	Type  string `json:"bb_type"`
	Value string `json:"bb_value"`
}

// TreeTemplate is the top-level decoded document: an optional list of
// blackboard inits plus the root Behavior tree.
type TreeTemplate struct {
	Blackboard []BlackboardInit `json:"tree_blackboard,omitempty"`
	Structure  *Template        `json:"tree_structure"`
}

func (t *Template) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if len(raw) != 1 {
		return fmt.Errorf("bhvtree: template object must have exactly one key, got %d", len(raw))
	}
	var kind string
	var body json.RawMessage
	for k, v := range raw {
		kind, body = k, v
	}

	// Single-value kinds ("WaitForever": idx) decode the bare index;
	// everything else decodes a JSON array tuple.
	switch kind {
	case "WaitForever", "AlwaysSuccess", "AlwaysFailure":
		var idx int32
		if err := json.Unmarshal(body, &idx); err != nil {
			return fmt.Errorf("bhvtree: template %q: %w", kind, err)
		}
		t.Kind, t.Idx = kind, idx
		return nil
	}

	var tuple []json.RawMessage
	if err := json.Unmarshal(body, &tuple); err != nil {
		return fmt.Errorf("bhvtree: template %q: expected an array: %w", kind, err)
	}
	dec := &tupleDecoder{kind: kind, tuple: tuple}
	t.Kind = kind
	t.Idx = dec.index(0)

	switch kind {
	case "Wait":
		t.Ms = dec.int64(1)
	case "Expression":
		t.Expr = dec.str(1)
	case "Action":
		t.Action = dec.action(1)

	case "Select", "Sequence", "BranchCond", "ParallelAnd", "ParallelOr",
		"ParallelSequence", "ParallelSelect":
		t.Children = dec.children(1)
	case "If":
		t.CanAbort = dec.boolAt(1)
		t.Cond = dec.child(2)
		t.Then = dec.child(3)
	case "IfThenElse":
		t.CanAbort = dec.boolAt(1)
		t.Cond = dec.child(2)
		t.Then = dec.child(3)
		t.Else = dec.child(4)
	case "While":
		t.Cond = dec.child(1)
		t.Children = dec.children(2)
	case "Branch":
		t.CanAbort = dec.boolAt(1)
		t.Cond = dec.child(2)
		t.Children = dec.children(3)
	case "PriorityBranch":
		t.CanAbort = dec.boolAt(1)
		t.Priorities = dec.intList(2)
		t.Cond = dec.child(3)
		t.Children = dec.children(4)
	case "WeightSelect":
		t.Weights = dec.floatList(1)
		t.Children = dec.children(2)

	case "Invert", "ForceSuccess", "ForceFailure", "UntilSuccess", "UntilFailure":
		t.Child = dec.child(1)
	case "TimeOut":
		t.Ms = dec.int64(1)
		t.Child = dec.child(2)
	case "Limiter":
		t.WindowMs = dec.int64(1)
		t.N = dec.intAt(2)
		t.Child = dec.child(3)
	case "Repeat", "ImmediateRepeat", "Retry", "ImmediateRetry":
		t.N = dec.intAt(1)
		t.Child = dec.child(2)
	case "Log":
		t.CellNames = dec.pipeList(1)
		t.Child = dec.child(2)
	case "SubTree":
		t.SubTree = dec.str(1)
		t.RefMap = dec.strMap(2)

	default:
		// An unknown kind decodes with only Kind and Idx set;
		// Factory.Instantiate rejects it as ErrUnregisteredTreeNode.
	}
	return dec.err
}

// tupleDecoder decodes a positional JSON array, accumulating the first
// error encountered so call sites read linearly without individual
// error checks.
type tupleDecoder struct {
	kind  string
	tuple []json.RawMessage
	err   error
}

func (d *tupleDecoder) raw(i int) json.RawMessage {
	if d.err != nil {
		return nil
	}
	if i >= len(d.tuple) {
		d.err = fmt.Errorf("bhvtree: template %q: missing element %d", d.kind, i)
		return nil
	}
	return d.tuple[i]
}

func (d *tupleDecoder) index(i int) int32 {
	var v int32
	if r := d.raw(i); r != nil {
		if err := json.Unmarshal(r, &v); err != nil && d.err == nil {
			d.err = fmt.Errorf("bhvtree: template %q: index: %w", d.kind, err)
		}
	}
	return v
}

func (d *tupleDecoder) int64(i int) int64 {
	var v int64
	if r := d.raw(i); r != nil {
		if err := json.Unmarshal(r, &v); err != nil && d.err == nil {
			d.err = fmt.Errorf("bhvtree: template %q: element %d: %w", d.kind, i, err)
		}
	}
	return v
}

func (d *tupleDecoder) intAt(i int) int {
	return int(d.int64(i))
}

func (d *tupleDecoder) boolAt(i int) bool {
	var v bool
	if r := d.raw(i); r != nil {
		if err := json.Unmarshal(r, &v); err != nil && d.err == nil {
			d.err = fmt.Errorf("bhvtree: template %q: element %d: %w", d.kind, i, err)
		}
	}
	return v
}

func (d *tupleDecoder) str(i int) string {
	var v string
	if r := d.raw(i); r != nil {
		if err := json.Unmarshal(r, &v); err != nil && d.err == nil {
			d.err = fmt.Errorf("bhvtree: template %q: element %d: %w", d.kind, i, err)
		}
	}
	return v
}

func (d *tupleDecoder) strMap(i int) map[string]string {
	v := map[string]string{}
	if r := d.raw(i); r != nil {
		if err := json.Unmarshal(r, &v); err != nil && d.err == nil {
			d.err = fmt.Errorf("bhvtree: template %q: element %d: %w", d.kind, i, err)
		}
	}
	return v
}

func (d *tupleDecoder) child(i int) *Template {
	var v Template
	if r := d.raw(i); r != nil {
		if err := json.Unmarshal(r, &v); err != nil && d.err == nil {
			d.err = fmt.Errorf("bhvtree: template %q: element %d: %w", d.kind, i, err)
			return nil
		}
	}
	if d.err != nil {
		return nil
	}
	return &v
}

func (d *tupleDecoder) children(i int) []*Template {
	var v []*Template
	if r := d.raw(i); r != nil {
		if err := json.Unmarshal(r, &v); err != nil && d.err == nil {
			d.err = fmt.Errorf("bhvtree: template %q: element %d: %w", d.kind, i, err)
		}
	}
	return v
}

func (d *tupleDecoder) action(i int) *ActionTemplate {
	var v ActionTemplate
	if r := d.raw(i); r != nil {
		if err := json.Unmarshal(r, &v); err != nil && d.err == nil {
			d.err = fmt.Errorf("bhvtree: template %q: element %d: %w", d.kind, i, err)
			return nil
		}
	}
	if d.err != nil {
		return nil
	}
	return &v
}

// pipeList splits a "a|b|c" string into its parts, the grammar every
// sequence-shaped template field uses: PriorityBranch's priorities,
// WeightSelect's weights, Log's cell names.
func (d *tupleDecoder) pipeList(i int) []string {
	s := d.str(i)
	if s == "" {
		return nil
	}
	return strings.Split(s, "|")
}

func (d *tupleDecoder) intList(i int) []int {
	parts := d.pipeList(i)
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil && d.err == nil {
			d.err = fmt.Errorf("bhvtree: template %q: element %d: invalid integer %q", d.kind, i, p)
		}
		out = append(out, n)
	}
	return out
}

func (d *tupleDecoder) floatList(i int) []float64 {
	parts := d.pipeList(i)
	out := make([]float64, 0, len(parts))
	for _, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil && d.err == nil {
			d.err = fmt.Errorf("bhvtree: template %q: element %d: invalid float %q", d.kind, i, p)
		}
		out = append(out, f)
	}
	return out
}
