package parser

import (
	"strings"
	"testing"
)

func TestParseStringAndResolveRoundTrip(t *testing.T) {
	src := `module m {
  func main(%x: i32) -> (i32) {
    %y = double(%x) {bef.nonstrict=true}
    return %y
  }
}`
	g, perr := ParseString("m.tir", src)
	if perr != nil {
		t.Fatalf("ParseString failed: %v", perr)
	}
	mod, err := Resolve("m.tir", g)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if len(mod.Functions) != 1 || mod.Functions[0].Name != "main" {
		t.Fatalf("unexpected functions: %+v", mod.Functions)
	}
	fn := mod.Functions[0]
	if len(fn.Region.Blocks[0].Ops) != 2 {
		t.Fatalf("expected 2 ops (double, return), got %d", len(fn.Region.Blocks[0].Ops))
	}
	op := fn.Region.Blocks[0].Ops[0]
	if !op.NonStrict {
		t.Fatal("bef.nonstrict attribute did not set Op.NonStrict")
	}
}

func TestParseStringRejectsMalformedSource(t *testing.T) {
	_, perr := ParseString("bad.tir", "module {{{")
	if perr == nil {
		t.Fatal("expected a parse error for malformed source")
	}
}

func TestResolveRejectsDuplicateFunctionNames(t *testing.T) {
	src := `module m {
  func f() -> () { return }
  func f() -> () { return }
}`
	g, perr := ParseString("m.tir", src)
	if perr != nil {
		t.Fatalf("ParseString failed: %v", perr)
	}
	if _, err := Resolve("m.tir", g); err == nil || !strings.Contains(err.Error(), "duplicate function name") {
		t.Fatalf("Resolve error = %v, want duplicate function name error", err)
	}
}

func TestResolveNativeFunctionRejectsBody(t *testing.T) {
	src := `module m {
  native func f() -> () { return }
}`
	g, perr := ParseString("m.tir", src)
	if perr != nil {
		t.Fatalf("ParseString failed: %v", perr)
	}
	if _, err := Resolve("m.tir", g); err == nil || !strings.Contains(err.Error(), "must not have a body") {
		t.Fatalf("Resolve error = %v, want native-with-body error", err)
	}
}

func TestResolveInfersResultTypeWhenOmitted(t *testing.T) {
	src := `module m {
  func f(%x: i32) -> (i32) {
    %y = identity(%x)
    return %y
  }
}`
	g, perr := ParseString("m.tir", src)
	if perr != nil {
		t.Fatalf("ParseString failed: %v", perr)
	}
	mod, err := Resolve("m.tir", g)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	res := mod.Functions[0].Region.Blocks[0].Ops[0].Results[0]
	if res.Type.Name != "!inferred" {
		t.Fatalf("inferred result type = %q, want !inferred", res.Type.Name)
	}
}

func TestResolveUndefinedRegisterErrors(t *testing.T) {
	src := `module m {
  func f() -> () {
    return %nope
  }
}`
	g, perr := ParseString("m.tir", src)
	if perr != nil {
		t.Fatalf("ParseString failed: %v", perr)
	}
	if _, err := Resolve("m.tir", g); err == nil || !strings.Contains(err.Error(), "undefined register") {
		t.Fatalf("Resolve error = %v, want undefined register error", err)
	}
}

func TestResolveSymbolFuncRefOperand(t *testing.T) {
	src := `module m {
  func callee() -> () { return }
  func caller() -> () {
    %r = call(@callee)
    return
  }
}`
	g, perr := ParseString("m.tir", src)
	if perr != nil {
		t.Fatalf("ParseString failed: %v", perr)
	}
	mod, err := Resolve("m.tir", g)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	caller := mod.Functions[1]
	op := caller.Region.Blocks[0].Ops[0]
	if len(op.FuncRefs) != 1 || op.FuncRefs[0] != "callee" {
		t.Fatalf("op.FuncRefs = %v, want [callee]", op.FuncRefs)
	}
}
