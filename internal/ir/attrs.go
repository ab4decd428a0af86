package ir

import (
	"fmt"
	"strings"
)

// IntAttr is a sized integer constant attribute.
type IntAttr struct {
	Bits  int
	Value int64
}

func (a *IntAttr) AttrKey() string { return fmt.Sprintf("int:%d:%d", a.Bits, a.Value) }
func (a *IntAttr) String() string  { return fmt.Sprintf("i%d:%d", a.Bits, a.Value) }

// FloatAttr is a floating-point constant attribute.
type FloatAttr struct {
	Bits  int
	Value float64
}

func (a *FloatAttr) AttrKey() string { return fmt.Sprintf("float:%d:%v", a.Bits, a.Value) }
func (a *FloatAttr) String() string  { return fmt.Sprintf("f%d:%v", a.Bits, a.Value) }

// BoolAttr is a boolean constant attribute.
type BoolAttr struct{ Value bool }

func (a *BoolAttr) AttrKey() string { return fmt.Sprintf("bool:%v", a.Value) }
func (a *BoolAttr) String() string  { return fmt.Sprintf("%v", a.Value) }

// StringAttr is a length-prefixed string constant attribute.
type StringAttr struct{ Value string }

func (a *StringAttr) AttrKey() string { return "string:" + a.Value }
func (a *StringAttr) String() string  { return fmt.Sprintf("%q", a.Value) }

// UnitAttr carries no payload; it is used for boolean markers such as
// the non-strict attribute.
type UnitAttr struct{}

func (a *UnitAttr) AttrKey() string { return "unit" }
func (a *UnitAttr) String() string  { return "unit" }

// ShapeAttr encodes a dense tensor's dimensions.
type ShapeAttr struct{ Dims []int64 }

func (a *ShapeAttr) AttrKey() string {
	parts := make([]string, len(a.Dims))
	for i, d := range a.Dims {
		parts[i] = fmt.Sprintf("%d", d)
	}
	return "shape:" + strings.Join(parts, ",")
}
func (a *ShapeAttr) String() string { return a.AttrKey() }

// DenseAttr encodes a dense element array with its dtype and shape.
type DenseAttr struct {
	DType string
	Shape []int64
	// Exactly one of Ints/Floats/Strings is populated based on DType.
	Ints    []int64
	Floats  []float64
	Strings []string
}

func (a *DenseAttr) AttrKey() string {
	return fmt.Sprintf("dense:%s:%v:%v:%v:%v", a.DType, a.Shape, a.Ints, a.Floats, a.Strings)
}
func (a *DenseAttr) String() string { return fmt.Sprintf("dense<%s>%v", a.DType, a.Shape) }

// AggregateAttr is a named tuple of child attributes, emitted leaves
// first then a parent offsets table (spec §4.4).
type AggregateAttr struct{ Elements []Attribute }

func (a *AggregateAttr) AttrKey() string {
	parts := make([]string, len(a.Elements))
	for i, e := range a.Elements {
		parts[i] = e.AttrKey()
	}
	return "agg:[" + strings.Join(parts, ";") + "]"
}
func (a *AggregateAttr) String() string { return a.AttrKey() }

// ArrayAttr is a homogeneous array of attributes of the same kind
// (other than function symbol refs, which the entity table collects
// separately as fn_attrs rather than pooling — spec §4.2).
type ArrayAttr struct{ Elements []Attribute }

func (a *ArrayAttr) AttrKey() string {
	parts := make([]string, len(a.Elements))
	for i, e := range a.Elements {
		parts[i] = e.AttrKey()
	}
	return "array:[" + strings.Join(parts, ";") + "]"
}
func (a *ArrayAttr) String() string { return a.AttrKey() }

// SymbolRefAttr names a function by its interned symbol. It is never
// pooled into the attribute section directly (spec §4.2): the entity
// table records it as a fn_attr use, to be validated against the
// function table at the end of pass 1, unless CompiledModule is set, in
// which case it is emitted as a compilation-unit attribute instead.
type SymbolRefAttr struct {
	FunctionName string
	// CompiledModule holds a serialized module image when this ref
	// targets an embedded compilation unit rather than a sibling
	// function (spec §4.4 "symbol-ref to a compilation unit").
	CompiledModule []byte
}

func (a *SymbolRefAttr) AttrKey() string {
	return fmt.Sprintf("symref:%s:%d", a.FunctionName, len(a.CompiledModule))
}
func (a *SymbolRefAttr) String() string { return "@" + a.FunctionName }

func (a *SymbolRefAttr) TargetsCompiledModule() bool { return a.CompiledModule != nil }

// CostAttr represents the `_tfrt_cost` attribute, excluded from the
// attribute pool entirely (spec §4.2).
type CostAttr struct{ Value int64 }

func (a *CostAttr) AttrKey() string { return fmt.Sprintf("cost:%d", a.Value) }
func (a *CostAttr) String() string  { return fmt.Sprintf("cost=%d", a.Value) }

// NonStrictAttrName is the special attribute recognized during entity
// collection to mark a kernel as non-strict (spec §4.2, §4.6).
const NonStrictAttrName = "bef.nonstrict"

// CostAttrName is the special cost attribute name excluded from the pool.
const CostAttrName = "_tfrt_cost"
