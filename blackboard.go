package bhvtree

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// cellBox is the shared, mutable payload behind a SharedCell. Several
// SharedCell values — one per tree that aliases the same underlying
// slot via a subtree link — may point at the same cellBox, so writes
// through any one of them are observable through all the others.
type cellBox struct {
	typeTag string
	value   any
}

// SharedCell is a named, runtime-typed, shared-ownership blackboard
// slot. Copying a SharedCell by value copies the handle, not the
// payload: both copies still observe each other's writes.
type SharedCell struct {
	name string
	box  *cellBox
}

// NewSharedCell wraps value as a freshly boxed cell named name with
// runtime type tag typeTag.
func NewSharedCell(name, typeTag string, value any) SharedCell {
	return SharedCell{name: name, box: &cellBox{typeTag: typeTag, value: value}}
}

// Name returns the cell's blackboard key.
func (c SharedCell) Name() string { return c.name }

// TypeTag returns the cell's interned runtime type tag, e.g. "i32".
func (c SharedCell) TypeTag() string { return c.box.typeTag }

// Get returns the current boxed value.
func (c SharedCell) Get() any { return c.box.value }

// Set overwrites the boxed value. Observable through every alias of
// this cell.
func (c SharedCell) Set(v any) { c.box.value = v }

// BlackboardMap is a name → SharedCell mapping with unique keys,
// built once per tree instance during Factory.Instantiate. Subtree
// linking copies SharedCell handles (not values) from a parent map
// into a child map, which is how blackboard aliasing across a
// subtree link works.
type BlackboardMap struct {
	cells map[string]SharedCell
}

// NewBlackboardMap returns an empty map.
func NewBlackboardMap() *BlackboardMap {
	return &BlackboardMap{cells: make(map[string]SharedCell)}
}

// Lookup returns the cell named name, if present.
func (m *BlackboardMap) Lookup(name string) (SharedCell, bool) {
	c, ok := m.cells[name]
	return c, ok
}

// Insert adds or replaces the cell under its own name.
func (m *BlackboardMap) Insert(cell SharedCell) {
	m.cells[cell.name] = cell
}

// Has reports whether name is present.
func (m *BlackboardMap) Has(name string) bool {
	_, ok := m.cells[name]
	return ok
}

// Names returns every key currently present, in no particular order.
func (m *BlackboardMap) Names() []string {
	names := make([]string, 0, len(m.cells))
	for name := range m.cells {
		names = append(names, name)
	}
	return names
}

// Blackboard is the per-tree shared memory nodes tick against. It
// wraps a BlackboardMap; the split mirrors the factory-side
// construction type (BlackboardMap, built incrementally while
// resolving links and inits) from the tick-side type nodes see.
type Blackboard struct {
	*BlackboardMap
}

// NewBlackboard wraps an existing map for tick-time use.
func NewBlackboard(m *BlackboardMap) *Blackboard {
	return &Blackboard{BlackboardMap: m}
}

// MetaCell is an immutable, per-node value captured at construction
// time from the template's metadata map. It never reads or writes the
// blackboard.
type MetaCell[T any] struct {
	value T
}

// NewMetaCell wraps a parsed metadata value.
func NewMetaCell[T any](value T) MetaCell[T] { return MetaCell[T]{value: value} }

// Get returns the captured value.
func (c MetaCell[T]) Get() T { return c.value }

// BbCell is a named borrow of a blackboard slot. Reads and writes
// mutate the shared cell value; Name is retained for diagnostics.
type BbCell[T any] struct {
	name string
	cell SharedCell
}

// NewBbCell binds name to cell for typed access.
func NewBbCell[T any](name string, cell SharedCell) BbCell[T] {
	return BbCell[T]{name: name, cell: cell}
}

// Name returns the bound blackboard key.
func (c BbCell[T]) Name() string { return c.name }

// Get downcasts and returns the current value.
func (c BbCell[T]) Get() T {
	v, _ := c.cell.Get().(T)
	return v
}

// Set overwrites the shared cell's value.
func (c BbCell[T]) Set(v T) { c.cell.Set(v) }

// DynCell resolves, at factory construction time, to either a mutable
// borrow of a named blackboard cell (when the raw template string
// matched "<name>") or an immutable literal parsed from the raw
// string. The immutable variant still exposes Set, but writes through
// it are silently discarded.
type DynCell[T any] struct {
	mutable bool
	lit     T
	name    string
	cell    SharedCell
}

// NewMutableDynCell builds the mutable (blackboard-borrowing) variant.
func NewMutableDynCell[T any](name string, cell SharedCell) DynCell[T] {
	return DynCell[T]{mutable: true, name: name, cell: cell}
}

// NewImmutableDynCell builds the immutable (literal) variant.
func NewImmutableDynCell[T any](lit T) DynCell[T] {
	return DynCell[T]{mutable: false, lit: lit}
}

// IsMutable reports whether this DynCell borrows a blackboard cell.
func (c DynCell[T]) IsMutable() bool { return c.mutable }

// Name returns the bound blackboard key, or "" for the immutable
// variant.
func (c DynCell[T]) Name() string { return c.name }

// Get returns the current value, whichever variant this is.
func (c DynCell[T]) Get() T {
	if c.mutable {
		v, _ := c.cell.Get().(T)
		return v
	}
	return c.lit
}

// Set writes through to the blackboard for the mutable variant;
// discarded for the immutable variant.
func (c DynCell[T]) Set(v T) {
	if c.mutable {
		c.cell.Set(v)
	}
}

// dynRefRegexp recognizes a DynCell template raw string that names a
// blackboard cell rather than carrying a literal: "<cell_name>". A
// raw string that merely starts with '<' but doesn't fully match is a
// malformed ref attempt, not a literal starting with the character '<'.
var dynRefRegexp = regexp.MustCompile(`^<(.*)>$`)

// parseDynRef inspects raw, a DynCell template string. attempted is
// true whenever raw looks like a cell reference (starts with '<');
// ok is true only when the reference fully matched, in which case name
// is the captured cell name. A caller sees attempted&&!ok when the raw
// string should have been a reference but its shape is malformed
// (ErrRegexCapturesFailed), and !attempted when raw is an ordinary
// literal to hand to the type's own parser.
func parseDynRef(raw string) (name string, ok bool, attempted bool) {
	trimmed := strings.TrimSpace(raw)
	if !strings.HasPrefix(trimmed, "<") {
		return "", false, false
	}
	m := dynRefRegexp.FindStringSubmatch(trimmed)
	if m == nil {
		return "", false, true
	}
	return m[1], true, true
}

// CellType describes how the factory parses, zero-initializes, and
// (for the four numeric tags) reads/writes back a registered
// blackboard value type. Tag is the interned string stored on every
// SharedCell of this type ("i32", "vec3", ...).
type CellType struct {
	Tag string

	// Zero produces the value for the raw string "None".
	Zero func() any

	// Parse produces a value from any other raw string.
	Parse func(raw string) (any, error)

	// ToF64 and FromF64 are set only for the four numeric tags the
	// expression evaluator binds against (i32/i64/f32/f64). FromF64
	// narrows an f64 evaluation result back to the declared type,
	// reporting false on narrowing failure (e.g. float64 -> i32
	// overflow).
	ToF64   func(v any) (float64, bool)
	FromF64 func(f float64) (any, bool)
}

// IsNumeric reports whether this cell type participates in
// expression-node variable binding.
func (t CellType) IsNumeric() bool { return t.ToF64 != nil && t.FromF64 != nil }

// NumericCellTags lists the four blackboard type tags an Expression
// node's free variables may bind to.
var NumericCellTags = []string{"i32", "i64", "f32", "f64"}

func isNumericTag(tag string) bool {
	for _, t := range NumericCellTags {
		if t == tag {
			return true
		}
	}
	return false
}

// builtinCellTypes returns the registry of cell types wired in by
// default: the native scalars, the vec3 spatial type, and the
// pipe-separated sequence containers.
func builtinCellTypes() map[string]CellType {
	reg := map[string]CellType{}
	add := func(ct CellType) { reg[ct.Tag] = ct }

	add(CellType{
		Tag:  "i32",
		Zero: func() any { return int32(0) },
		Parse: func(raw string) (any, error) {
			v, err := strconv.ParseInt(raw, 10, 32)
			if err != nil {
				return nil, err
			}
			return int32(v), nil
		},
		ToF64: func(v any) (float64, bool) {
			i, ok := v.(int32)
			return float64(i), ok
		},
		FromF64: func(f float64) (any, bool) {
			i := int64(f)
			if float64(i) != f || i < -1<<31 || i > 1<<31-1 {
				return nil, false
			}
			return int32(i), true
		},
	})

	add(CellType{
		Tag:  "i64",
		Zero: func() any { return int64(0) },
		Parse: func(raw string) (any, error) {
			return strconv.ParseInt(raw, 10, 64)
		},
		ToF64: func(v any) (float64, bool) {
			i, ok := v.(int64)
			return float64(i), ok
		},
		FromF64: func(f float64) (any, bool) {
			i := int64(f)
			if float64(i) != f {
				return nil, false
			}
			return i, true
		},
	})

	add(CellType{
		Tag:  "f32",
		Zero: func() any { return float32(0) },
		Parse: func(raw string) (any, error) {
			v, err := strconv.ParseFloat(raw, 32)
			if err != nil {
				return nil, err
			}
			return float32(v), nil
		},
		ToF64: func(v any) (float64, bool) {
			f, ok := v.(float32)
			return float64(f), ok
		},
		FromF64: func(f float64) (any, bool) {
			return float32(f), true
		},
	})

	add(CellType{
		Tag:  "f64",
		Zero: func() any { return float64(0) },
		Parse: func(raw string) (any, error) {
			return strconv.ParseFloat(raw, 64)
		},
		ToF64: func(v any) (float64, bool) {
			f, ok := v.(float64)
			return f, ok
		},
		FromF64: func(f float64) (any, bool) {
			return f, true
		},
	})

	add(CellType{
		Tag:  "bool",
		Zero: func() any { return false },
		Parse: func(raw string) (any, error) {
			return strconv.ParseBool(raw)
		},
	})

	add(CellType{
		Tag:  "string",
		Zero: func() any { return "" },
		Parse: func(raw string) (any, error) {
			return raw, nil
		},
	})

	add(CellType{
		Tag:  "vec3",
		Zero: func() any { return Vec3{} },
		Parse: func(raw string) (any, error) {
			return parseVec3(raw)
		},
	})

	// Sequence containers parse from the "a|b|c" grammar; an empty
	// element ("1|2|") is a parse error, not an empty slot.
	add(listCellType[int32]("[]i32", reg["i32"].Parse))
	add(listCellType[int64]("[]i64", reg["i64"].Parse))
	add(listCellType[float32]("[]f32", reg["f32"].Parse))
	add(listCellType[float64]("[]f64", reg["f64"].Parse))
	add(listCellType[string]("[]string", reg["string"].Parse))

	return reg
}

// listCellType derives the sequence-container cell type for an
// element type: tag is the Go slice spelling of the element tag, and
// the raw string is "a|b|c" with each element handed to elemParse.
// The stored value is a []T, so BbCell[[]T] downcasts work.
func listCellType[T any](tag string, elemParse func(string) (any, error)) CellType {
	return CellType{
		Tag:  tag,
		Zero: func() any { return []T{} },
		Parse: func(raw string) (any, error) {
			parts := strings.Split(raw, "|")
			out := make([]T, 0, len(parts))
			for _, p := range parts {
				if p == "" {
					return nil, fmt.Errorf("bhvtree: list %q has an empty element", raw)
				}
				v, err := elemParse(p)
				if err != nil {
					return nil, fmt.Errorf("bhvtree: list element %q: %w", p, err)
				}
				out = append(out, v.(T))
			}
			return out, nil
		},
	}
}

func parseVec3(raw string) (Vec3, error) {
	parts := strings.Split(raw, ",")
	if len(parts) != 3 {
		return Vec3{}, fmt.Errorf("bhvtree: vec3 literal %q must have 3 comma-separated components", raw)
	}
	var out [3]float32
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 32)
		if err != nil {
			return Vec3{}, fmt.Errorf("bhvtree: vec3 literal %q: %w", raw, err)
		}
		out[i] = float32(v)
	}
	return NewVec3(out[0], out[1], out[2]), nil
}
