// Package tensor provides the minimal host tensor representation the
// runtime kernels operate on: dtype/shape metadata plus a flat payload.
package tensor

import (
	"fmt"
	"strings"
)

// DType identifies the element type of a tensor.
type DType int

const (
	I1 DType = iota
	I32
	I64
	F32
	F64
	Str
)

func (d DType) String() string {
	switch d {
	case I1:
		return "i1"
	case I32:
		return "i32"
	case I64:
		return "i64"
	case F32:
		return "f32"
	case F64:
		return "f64"
	case Str:
		return "string"
	default:
		return "unknown"
	}
}

// Shape is a dense tensor's dimension list. A nil or empty Shape denotes
// a scalar (single-element) tensor.
type Shape []int64

func (s Shape) NumElements() int64 {
	if len(s) == 0 {
		return 1
	}
	n := int64(1)
	for _, d := range s {
		n *= d
	}
	return n
}

func (s Shape) String() string {
	parts := make([]string, len(s))
	for i, d := range s {
		parts[i] = fmt.Sprintf("%d", d)
	}
	return "[" + strings.Join(parts, "x") + "]"
}

// Metadata describes a tensor without its payload.
type Metadata struct {
	DType DType
	Shape Shape
}

func (m Metadata) String() string {
	return fmt.Sprintf("%s%s", m.Shape, m.DType)
}

// Host is a materialized host-side tensor: metadata plus a flat payload.
// Numeric dtypes store their elements in Ints or Floats; Str stores them
// in Strings. Exactly one of the three is populated, matching DType.
type Host struct {
	Metadata Metadata
	Ints     []int64
	Floats   []float64
	Strings  []string
}

// NewScalarBool builds a single-element boolean-valued I1 host tensor.
func NewScalarBool(v bool) *Host {
	i := int64(0)
	if v {
		i = 1
	}
	return &Host{Metadata: Metadata{DType: I1, Shape: nil}, Ints: []int64{i}}
}

// NewScalarInt builds a single-element I64 host tensor.
func NewScalarInt(v int64) *Host {
	return &Host{Metadata: Metadata{DType: I64, Shape: nil}, Ints: []int64{v}}
}

// NewString builds a rank-0 or rank-1 string tensor from the given shape
// and row-major elements.
func NewString(shape Shape, elems []string) *Host {
	return &Host{Metadata: Metadata{DType: Str, Shape: shape}, Strings: elems}
}

// Predicate interprets the tensor as a boolean, following the rule used
// by the conditional and while-loop kernels: a single-element dense
// tensor is nonzero-is-true; a string tensor is false iff it is empty or
// its first element is the empty string; any other kind is unsupported.
func (h *Host) Predicate() (bool, error) {
	switch h.Metadata.DType {
	case Str:
		if len(h.Strings) == 0 || h.Strings[0] == "" {
			return false, nil
		}
		return true, nil
	case I1, I32, I64:
		if h.Metadata.Shape.NumElements() != 1 || len(h.Ints) == 0 {
			return false, fmt.Errorf("tensor predicate does not support type %s", h.Metadata)
		}
		return h.Ints[0] != 0, nil
	case F32, F64:
		if h.Metadata.Shape.NumElements() != 1 || len(h.Floats) == 0 {
			return false, fmt.Errorf("tensor predicate does not support type %s", h.Metadata)
		}
		return h.Floats[0] != 0, nil
	default:
		return false, fmt.Errorf("tensor predicate does not support type %s", h.Metadata)
	}
}
