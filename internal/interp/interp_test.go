package interp

import (
	"testing"

	"bef/internal/async"
	"bef/internal/ir"
	"bef/internal/runtime"
	"bef/internal/tensor"
)

func TestRunConstDenseTensorThroughTensorHandleRoundTrip(t *testing.T) {
	i32 := &ir.Type{Name: "i32"}
	chainT := &ir.Type{Name: "!chain"}

	hostVal := &ir.Value{Name: "host", Type: i32}
	thVal := &ir.Value{Name: "th", Type: i32}
	backVal := &ir.Value{Name: "back", Type: i32}

	constOp := &ir.Op{
		Opcode:  "const_dense_tensor",
		Results: []*ir.Value{hostVal},
		Attrs: []ir.NamedAttr{{Name: "value", Attr: &ir.DenseAttr{
			DType: "i32", Shape: []int64{1}, Ints: []int64{42},
		}}},
	}
	chainArg := &ir.Value{Name: "chain", Type: chainT}
	toHandle := &ir.Op{
		Opcode:   "ht_to_tensorhandle",
		Operands: []*ir.Value{hostVal, chainArg},
		Results:  []*ir.Value{thVal},
	}
	back := &ir.Op{
		Opcode:   "tensorhandle_to_ht",
		Operands: []*ir.Value{thVal},
		Results:  []*ir.Value{backVal},
	}
	ret := &ir.Op{Opcode: ir.ReturnOpcode, Operands: []*ir.Value{backVal}}

	fn := &ir.Function{
		Name: "main",
		Kind: ir.KindAsync,
		Region: &ir.Region{
			Args:   []*ir.Value{chainArg},
			Blocks: []*ir.Block{{Ops: []*ir.Op{constOp, toHandle, back, ret}}},
		},
	}
	mod := &ir.Module{Name: "m", Functions: []*ir.Function{fn}}

	rt := runtime.New(1)
	defer rt.Queue.Close()
	it := New(rt, mod)

	chain := async.NewReadyChain()
	out, err := it.Run([]*async.Value{chain}, nil)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("Run returned %d values, want 1", len(out))
	}

	host, ok := async.Get[*tensor.Host](out[0])
	if !ok {
		t.Fatal("returned value did not resolve to a *tensor.Host")
	}
	if len(host.Ints) != 1 || host.Ints[0] != 42 {
		t.Fatalf("round-tripped tensor = %+v, want a single element 42", host)
	}
}

func TestRunUnknownOpcodeErrors(t *testing.T) {
	x := &ir.Value{Name: "x", Type: &ir.Type{Name: "i32"}}
	bogus := &ir.Op{Opcode: "not_a_real_kernel", Results: []*ir.Value{x}}
	ret := &ir.Op{Opcode: ir.ReturnOpcode, Operands: []*ir.Value{x}}
	fn := &ir.Function{
		Name: "main", Kind: ir.KindAsync,
		Region: &ir.Region{Blocks: []*ir.Block{{Ops: []*ir.Op{bogus, ret}}}},
	}
	mod := &ir.Module{Name: "m", Functions: []*ir.Function{fn}}

	rt := runtime.New(1)
	defer rt.Queue.Close()
	it := New(rt, mod)

	if _, err := it.Run(nil, nil); err == nil {
		t.Fatal("expected an error for an unknown opcode")
	}
}

func TestMakeCompositeOpRoundTripsThroughExecuteCrtOp(t *testing.T) {
	i32 := &ir.Type{Name: "i32"}
	thT := &ir.Type{Name: "!tensorhandle"}
	attrsT := &ir.Type{Name: "!opattrs"}
	chainT := &ir.Type{Name: "!chain"}
	opT := &ir.Type{Name: "!op"}

	// The composite op's body is the identity function on its one
	// tensor-handle argument.
	innerArg := &ir.Value{Name: "a", Type: thT}
	innerRet := &ir.Op{Opcode: ir.ReturnOpcode, Operands: []*ir.Value{innerArg}}
	identityRegion := &ir.Region{
		Args:   []*ir.Value{innerArg},
		Blocks: []*ir.Block{{Ops: []*ir.Op{innerRet}}},
	}

	chainArg := &ir.Value{Name: "chain", Type: chainT}
	hostVal := &ir.Value{Name: "host", Type: i32}
	thVal := &ir.Value{Name: "th", Type: thT}
	attrsVal := &ir.Value{Name: "attrs", Type: attrsT}
	attrsChainVal := &ir.Value{Name: "attrs_chain", Type: chainT}
	opVal := &ir.Value{Name: "op", Type: opT}
	resultVal := &ir.Value{Name: "result", Type: thT}

	constOp := &ir.Op{
		Opcode:  "const_dense_tensor",
		Results: []*ir.Value{hostVal},
		Attrs: []ir.NamedAttr{{Name: "value", Attr: &ir.DenseAttr{
			DType: "i32", Shape: []int64{1}, Ints: []int64{7},
		}}},
	}
	toHandle := &ir.Op{
		Opcode:   "ht_to_tensorhandle",
		Operands: []*ir.Value{hostVal, chainArg},
		Results:  []*ir.Value{thVal},
	}
	createAttrs := &ir.Op{
		Opcode:  "create_op_attrs",
		Results: []*ir.Value{attrsVal, attrsChainVal},
	}
	makeOp := &ir.Op{
		Opcode:  "make_composite_op",
		Results: []*ir.Value{opVal},
		Regions: []*ir.Region{identityRegion},
	}
	execOp := &ir.Op{
		Opcode:   "execute_crt_op",
		Operands: []*ir.Value{opVal, thVal, attrsVal},
		Results:  []*ir.Value{resultVal},
	}
	ret := &ir.Op{Opcode: ir.ReturnOpcode, Operands: []*ir.Value{resultVal}}

	fn := &ir.Function{
		Name: "main",
		Kind: ir.KindAsync,
		Region: &ir.Region{
			Args:   []*ir.Value{chainArg},
			Blocks: []*ir.Block{{Ops: []*ir.Op{constOp, toHandle, createAttrs, makeOp, execOp, ret}}},
		},
	}
	mod := &ir.Module{Name: "m", Functions: []*ir.Function{fn}}

	rt := runtime.New(1)
	defer rt.Queue.Close()
	it := New(rt, mod)

	chain := async.NewReadyChain()
	out, err := it.Run([]*async.Value{chain}, nil)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("Run returned %d values, want 1", len(out))
	}

	th, ok := async.Get[*runtime.TensorHandle](out[0])
	if !ok {
		t.Fatal("returned value did not resolve to a *runtime.TensorHandle")
	}
	host, ok := async.Get[*tensor.Host](th.Tensor)
	if !ok {
		t.Fatal("returned tensor handle's tensor cell did not resolve")
	}
	if len(host.Ints) != 1 || host.Ints[0] != 7 {
		t.Fatalf("execute_crt_op through an identity composite op = %+v, want a single element 7", host)
	}
}

func TestRunNativeEntryFunctionErrors(t *testing.T) {
	fn := &ir.Function{Name: "main", Kind: ir.KindNative}
	mod := &ir.Module{Name: "m", Functions: []*ir.Function{fn}}

	rt := runtime.New(1)
	defer rt.Queue.Close()
	it := New(rt, mod)

	if _, err := it.Run(nil, nil); err == nil {
		t.Fatal("expected an error interpreting a native entry function")
	}
}
