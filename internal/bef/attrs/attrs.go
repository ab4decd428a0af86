// Package attrs implements the attribute emitter (spec §4.4): encoding
// each pooled attribute value into the attributes section and reporting
// the byte offset a kernel record needs to reference it.
package attrs

import (
	"math"

	"bef/internal/bef/emitter"
	"bef/internal/ir"
)

// TypeTag identifies an attribute's encoding for the optional
// attribute-types sidecar (spec §4.4, §4.7).
type TypeTag byte

const (
	TagBool TypeTag = iota + 1
	TagInt
	TagFloat
	TagString
	TagDense
	TagShape
	TagAggregate
	TagArray
	TagSymbolRef
)

// Pool encodes an ordered attribute pool into the attributes section
// body, returning each attribute's byte offset (index-aligned with the
// input slice) and, for the optional sidecar, its type tag.
type Pool struct {
	Body    []byte
	Offsets []int
	Tags    []TypeTag
}

// Emit encodes values (already deduplicated and in first-encounter
// order by the entity table) into one attributes-section body.
func Emit(values []ir.Attribute) *Pool {
	e := emitter.New()
	p := &Pool{Offsets: make([]int, len(values)), Tags: make([]TypeTag, len(values))}

	for i, v := range values {
		p.Offsets[i] = e.Len()
		p.Tags[i] = encodeOne(e, v)
	}

	p.Body = e.Bytes()
	return p
}

func encodeOne(e *emitter.Emitter, v ir.Attribute) TypeTag {
	switch a := v.(type) {
	case *ir.BoolAttr:
		if a.Value {
			e.EmitByte(1)
		} else {
			e.EmitByte(0)
		}
		return TagBool

	case *ir.IntAttr:
		width := a.Bits / 8
		if width == 0 {
			width = 4
		}
		e.EmitByte(byte(width))
		u := uint64(a.Value)
		for i := 0; i < width; i++ {
			e.EmitByte(byte(u >> (8 * i)))
		}
		return TagInt

	case *ir.FloatAttr:
		if a.Bits == 32 {
			e.EmitByte(4)
			e.EmitFixed32(math.Float32bits(float32(a.Value)))
		} else {
			e.EmitByte(8)
			bits := math.Float64bits(a.Value)
			e.EmitFixed32(uint32(bits))
			e.EmitFixed32(uint32(bits >> 32))
		}
		return TagFloat

	case *ir.StringAttr:
		emitLengthPrefixed(e, []byte(a.Value))
		return TagString

	case *ir.ShapeAttr:
		emitShape(e, a.Dims)
		return TagShape

	case *ir.DenseAttr:
		emitDense(e, a)
		return TagDense

	case *ir.AggregateAttr:
		emitChildren(e, a.Elements)
		return TagAggregate

	case *ir.ArrayAttr:
		emitChildren(e, a.Elements)
		return TagArray

	case *ir.SymbolRefAttr:
		emitLengthPrefixed(e, a.CompiledModule)
		emitLengthPrefixed(e, []byte(a.FunctionName))
		return TagSymbolRef

	default:
		// UnitAttr / CostAttr never reach the pool (the entity table
		// strips them); an unrecognized type here is a compiler bug.
		panic("attrs: unsupported attribute type in pool")
	}
}

func emitLengthPrefixed(e *emitter.Emitter, data []byte) {
	e.EmitVBR(uint64(len(data)))
	e.EmitBytes(data)
}

func emitShape(e *emitter.Emitter, dims []int64) {
	e.EmitVBR(uint64(len(dims)))
	for _, d := range dims {
		e.EmitVBR(uint64(d))
	}
}

func dtypeCode(name string) byte {
	switch name {
	case "i1":
		return 0
	case "i32":
		return 1
	case "i64":
		return 2
	case "f32":
		return 3
	case "f64":
		return 4
	case "string":
		return 5
	default:
		return 0xff
	}
}

func elementSize(name string) int {
	switch name {
	case "i1":
		return 1
	case "i32", "f32":
		return 4
	case "i64", "f64":
		return 8
	default:
		return 1
	}
}

func emitDense(e *emitter.Emitter, a *ir.DenseAttr) {
	e.EmitByte(dtypeCode(a.DType))
	emitShape(e, a.Shape)

	n := len(a.Ints) + len(a.Floats) + len(a.Strings)
	e.EmitVBR(uint64(n))

	if a.DType == "string" {
		for _, s := range a.Strings {
			emitLengthPrefixed(e, []byte(s))
		}
		return
	}

	e.EmitAlignment(elementSize(a.DType))
	switch a.DType {
	case "i1", "i32":
		for _, v := range a.Ints {
			e.EmitFixed32(uint32(v))
		}
	case "i64":
		for _, v := range a.Ints {
			u := uint64(v)
			e.EmitFixed32(uint32(u))
			e.EmitFixed32(uint32(u >> 32))
		}
	case "f32":
		for _, f := range a.Floats {
			e.EmitFixed32(math.Float32bits(float32(f)))
		}
	case "f64":
		for _, f := range a.Floats {
			bits := math.Float64bits(f)
			e.EmitFixed32(uint32(bits))
			e.EmitFixed32(uint32(bits >> 32))
		}
	}
}

// emitChildren implements the aggregate/array encoding: leaves first,
// then a trailing offsets table, so a reader can index children without
// backpatching (spec §4.4).
func emitChildren(e *emitter.Emitter, elems []ir.Attribute) {
	offsets := make([]int, len(elems))
	base := e.Len()
	for i, el := range elems {
		offsets[i] = e.Len() - base
		encodeOne(e, el)
	}
	e.EmitVBR(uint64(len(elems)))
	for _, off := range offsets {
		e.EmitVBR(uint64(off))
	}
}
