package bef

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bef/internal/bef/entities"
	"bef/internal/ir"
)

func trivialModule() *ir.Module {
	i32 := &ir.Type{Name: "i32"}
	x := &ir.Value{Name: "x", Type: i32}
	ret := &ir.Op{Opcode: ir.ReturnOpcode, Operands: []*ir.Value{x}}
	fn := &ir.Function{
		Name:     "main",
		Kind:     ir.KindAsync,
		ArgTypes: []*ir.Type{i32},
		Region: &ir.Region{
			Args:   []*ir.Value{x},
			Blocks: []*ir.Block{{Ops: []*ir.Op{ret}}},
		},
	}
	return &ir.Module{Name: "m", Functions: []*ir.Function{fn}}
}

func TestCompileEmitsMagicBytesAndVersion(t *testing.T) {
	out, err := Compile(trivialModule(), Options{})
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(out), 3)
	assert.Equal(t, []byte{MagicByte1, MagicByte2, VersionByte}, out[:3])
}

func TestCompilePropagatesEntityErrors(t *testing.T) {
	i32 := &ir.Type{Name: "i32"}
	x := &ir.Value{Name: "x", Type: i32}
	y := &ir.Value{Name: "y", Type: i32}
	call := &ir.Op{Opcode: "call", Operands: []*ir.Value{x}, Results: []*ir.Value{y}, FuncRefs: []string{"missing"}}
	ret := &ir.Op{Opcode: ir.ReturnOpcode, Operands: []*ir.Value{y}}
	fn := &ir.Function{
		Name: "f", Kind: ir.KindAsync, ArgTypes: []*ir.Type{i32},
		Region: &ir.Region{Args: []*ir.Value{x}, Blocks: []*ir.Block{{Ops: []*ir.Op{call, ret}}}},
	}
	mod := &ir.Module{Functions: []*ir.Function{fn}}

	out, err := Compile(mod, Options{})
	assert.Nil(t, out, "Compile must return a nil image on the first fatal error")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not defined")
}

func TestCompileWithOneOpFunctionProducesNonEmptyFunctionsSection(t *testing.T) {
	i32 := &ir.Type{Name: "i32"}
	x := &ir.Value{Name: "x", Type: i32}
	y := &ir.Value{Name: "y", Type: i32}
	op := &ir.Op{Opcode: "double", Operands: []*ir.Value{x}, Results: []*ir.Value{y}}
	ret := &ir.Op{Opcode: ir.ReturnOpcode, Operands: []*ir.Value{y}}
	fn := &ir.Function{
		Name: "main", Kind: ir.KindAsync, ArgTypes: []*ir.Type{i32},
		Region: &ir.Region{Args: []*ir.Value{x}, Blocks: []*ir.Block{{Ops: []*ir.Op{op, ret}}}},
	}
	mod := &ir.Module{Name: "m", Functions: []*ir.Function{fn}}

	out, err := Compile(mod, Options{})
	require.NoError(t, err)

	found := false
	for i := 3; i < len(out); i++ {
		if out[i] == SectionFunctions {
			found = true
			break
		}
	}
	assert.True(t, found, "output does not contain a functions section id byte")

	// The body is at minimum the trivial module's body plus this
	// function's kernel record; the compiled image must be substantially
	// larger than the header-only trivial-module image.
	trivial, err := Compile(trivialModule(), Options{})
	require.NoError(t, err)
	assert.Greater(t, len(out), len(trivial))
}

func TestCompileRejectsNativeFunctionWithRegion(t *testing.T) {
	i32 := &ir.Type{Name: "i32"}
	x := &ir.Value{Name: "x", Type: i32}
	ret := &ir.Op{Opcode: ir.ReturnOpcode, Operands: []*ir.Value{x}}
	fn := &ir.Function{
		Name: "f", Kind: ir.KindNative, ArgTypes: []*ir.Type{i32},
		Region: &ir.Region{Args: []*ir.Value{x}, Blocks: []*ir.Block{{Ops: []*ir.Op{ret}}}},
	}
	mod := &ir.Module{Functions: []*ir.Function{fn}}

	_, err := Compile(mod, Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "native function must not have a region")
}

func TestCompileWithOptionalSectionsProducesALargerImage(t *testing.T) {
	mod := trivialModule()
	minimal, err := Compile(mod, Options{})
	require.NoError(t, err)
	withOptional, err := Compile(mod, Options{Options: entities.Options{IncludeOptionalSections: true}})
	require.NoError(t, err)
	assert.Greater(t, len(withOptional), len(minimal))

	count := 0
	for _, id := range []byte{SectionAttributeTypes, SectionAttributeNames, SectionRegisterTypes} {
		for _, b := range withOptional {
			if b == id {
				count++
				break
			}
		}
	}
	assert.Equal(t, 3, count, "optional image is missing one of the three optional section ids")
}
