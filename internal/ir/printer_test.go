package ir

import (
	"strings"
	"testing"
)

func TestPrintRendersFunctionSignatureAndReturn(t *testing.T) {
	i32 := &Type{Name: "i32"}
	x := &Value{Name: "x", Type: i32}
	ret := &Op{Opcode: ReturnOpcode, Operands: []*Value{x}}
	fn := &Function{
		Name:     "main",
		Kind:     KindAsync,
		ArgTypes: []*Type{i32},
		Region:   &Region{Args: []*Value{x}, Blocks: []*Block{{Ops: []*Op{ret}}}},
	}
	mod := &Module{Name: "m", Functions: []*Function{fn}}

	out := Print(mod)
	if !strings.Contains(out, "module m {") {
		t.Fatalf("Print output missing module header:\n%s", out)
	}
	if !strings.Contains(out, "func main(i32) -> ()") {
		t.Fatalf("Print output missing function signature:\n%s", out)
	}
	if !strings.Contains(out, "return x") {
		t.Fatalf("Print output missing return statement:\n%s", out)
	}
}

func TestPrintNativeFunctionHasNoBody(t *testing.T) {
	i32 := &Type{Name: "i32"}
	fn := &Function{Name: "add", Kind: KindNative, ArgTypes: []*Type{i32, i32}, ResultType: []*Type{i32}}
	mod := &Module{Name: "m", Functions: []*Function{fn}}

	out := Print(mod)
	if !strings.Contains(out, "native func add(i32, i32) -> (i32)") {
		t.Fatalf("Print output missing native function line:\n%s", out)
	}
	if strings.Contains(out, "{\n") && strings.Count(out, "{") > 1 {
		t.Fatalf("native function must not print a body block:\n%s", out)
	}
}

func TestPrintOpWithResultsAndAttrs(t *testing.T) {
	i32 := &Type{Name: "i32"}
	x := &Value{Name: "x", Type: i32}
	y := &Value{Name: "y", Type: i32}
	op := &Op{
		Opcode:   "const",
		Operands: []*Value{x},
		Results:  []*Value{y},
		Attrs:    []NamedAttr{{Name: "value", Attr: &IntAttr{Bits: 32, Value: 1}}},
	}
	ret := &Op{Opcode: ReturnOpcode, Operands: []*Value{y}}
	fn := &Function{
		Name: "f", Kind: KindAsync, ArgTypes: []*Type{i32},
		Region: &Region{Args: []*Value{x}, Blocks: []*Block{{Ops: []*Op{op, ret}}}},
	}
	mod := &Module{Name: "m", Functions: []*Function{fn}}

	out := Print(mod)
	if !strings.Contains(out, "y = const(x) {value=") {
		t.Fatalf("Print output missing op line with attrs:\n%s", out)
	}
}
