// Package interp walks a resolved ir.Module and drives its kernels
// against the async runtime (spec §4.14 "bef-tool run ... parse →
// compile → interpret via async runtime"). It does not read BEF bytes
// back (spec §2 marks that path "out of scope"); instead it dispatches
// each op directly by opcode the way the BEF interpreter would dispatch
// by opcode index, since C9's kernel functions already operate on the
// same in-memory types the front end produces.
package interp

import (
	"fmt"

	"bef/internal/async"
	"bef/internal/corert"
	"bef/internal/device"
	"bef/internal/ir"
	"bef/internal/runtime"
	"bef/internal/tensor"
)

// Interp holds the module and runtime an interpretation run is against.
type Interp struct {
	rt   *runtime.Runtime
	mod  *ir.Module
	fns  map[string]*ir.Function
	cpu  *device.Device
}

func New(rt *runtime.Runtime, mod *ir.Module) *Interp {
	fns := make(map[string]*ir.Function, len(mod.Functions))
	for _, fn := range mod.Functions {
		fns[fn.Name] = fn
	}
	cpu, _ := rt.Devices.Lookup("cpu")
	return &Interp{rt: rt, mod: mod, fns: fns, cpu: cpu}
}

// Run invokes the module's entry point (its first function, spec §8
// property 4) with the given arguments and returns its result values.
func (it *Interp) Run(args []*async.Value, cancel *async.Value) ([]*async.Value, error) {
	if len(it.mod.Functions) == 0 {
		return nil, fmt.Errorf("interp: module has no functions")
	}
	entry := it.mod.Functions[0]
	ctx := &runtime.ExecutionContext{Runtime: it.rt, Cancel: cancel}
	return it.callFunction(entry.Name, args, ctx)
}

func (it *Interp) callFunction(name string, args []*async.Value, ctx *runtime.ExecutionContext) ([]*async.Value, error) {
	fn, ok := it.fns[name]
	if !ok {
		return nil, fmt.Errorf("interp: function not defined: %s", name)
	}
	if fn.Kind == ir.KindNative {
		return nil, fmt.Errorf("interp: native function %s has no interpretable body", name)
	}
	return it.execRegion(fn.Region, args, ctx)
}

// execRegion binds region.Args to args, executes every op in program
// order, and returns the async values named by the region's return op.
// Because every kernel constructor returns immediately (possibly with
// an unresolved indirect value), one linear pass suffices to build the
// whole dataflow graph; nothing here blocks.
func (it *Interp) execRegion(region *ir.Region, args []*async.Value, ctx *runtime.ExecutionContext) ([]*async.Value, error) {
	env := make(map[*ir.Value]*async.Value, len(region.Args))
	for i, a := range region.Args {
		if i < len(args) {
			env[a] = args[i]
		} else {
			env[a] = async.New()
		}
	}

	block := region.Blocks[0]
	for _, op := range block.Ops {
		if op.IsReturn() {
			out := make([]*async.Value, len(op.Operands))
			for i, v := range op.Operands {
				out[i] = env[v]
			}
			return out, nil
		}
		results, err := it.execOp(op, env, ctx)
		if err != nil {
			return nil, err
		}
		for i, r := range op.Results {
			env[r] = results[i]
		}
	}
	return nil, fmt.Errorf("interp: region has no return op")
}

func (it *Interp) execOp(op *ir.Op, env map[*ir.Value]*async.Value, ctx *runtime.ExecutionContext) ([]*async.Value, error) {
	switch op.Opcode {
	case "ht_to_tensorhandle":
		host := async.MustGet[*tensor.Host](env[op.Operands[0]])
		chain := env[op.Operands[1]]
		th := corert.HtToTensorHandle(host, chain, it.cpu)
		return []*async.Value{async.NewConcrete(th)}, nil

	case "tensorhandle_to_ht":
		th := async.MustGet[*runtime.TensorHandle](env[op.Operands[0]])
		return []*async.Value{corert.TensorHandleToHT(th)}, nil

	case "tensorhandle_to_shape":
		th := async.MustGet[*runtime.TensorHandle](env[op.Operands[0]])
		return []*async.Value{corert.TensorHandleToShape(th)}, nil

	case "const_dense_tensor":
		dense, ok := findAttr[*ir.DenseAttr](op, "value")
		if !ok {
			return nil, fmt.Errorf("const_dense_tensor: missing dense attribute %q", "value")
		}
		host, err := corert.ConstDenseTensor(dense)
		if err != nil {
			return nil, err
		}
		return []*async.Value{async.NewConcrete(host)}, nil

	case "const_string_tensor":
		shapeAttr, ok := findAttr[*ir.ShapeAttr](op, "shape")
		if !ok {
			return nil, fmt.Errorf("const_string_tensor: missing shape attribute")
		}
		agg, ok := findAttr[*ir.AggregateAttr](op, "value")
		if !ok {
			return nil, fmt.Errorf("const_string_tensor: missing value attribute")
		}
		host, err := corert.ConstStringTensor(tensor.Shape(shapeAttr.Dims), agg)
		if err != nil {
			return nil, err
		}
		return []*async.Value{async.NewConcrete(host)}, nil

	case "create_op_attrs":
		return []*async.Value{async.NewConcrete(corert.CreateOpAttrs()), async.NewReadyChain()}, nil

	case "op_attrs_set.string", "op_attrs_set.i64", "op_attrs_set.f64", "op_attrs_set.bool":
		attrs := async.MustGet[*runtime.AttrSet](env[op.Operands[0]])
		inChain := env[op.Operands[1]]
		key, ok := findAttr[*ir.StringAttr](op, "name")
		if !ok {
			return nil, fmt.Errorf("%s: missing name attribute", op.Opcode)
		}
		valueAttr, ok := findRawAttr(op, "value")
		if !ok {
			return nil, fmt.Errorf("%s: missing value attribute", op.Opcode)
		}
		var out *async.Value
		switch op.Opcode {
		case "op_attrs_set.string":
			out = corert.OpAttrsSetString(attrs, inChain, key.Value, valueAttr.(*ir.StringAttr).Value)
		case "op_attrs_set.i64":
			out = corert.OpAttrsSetInt(attrs, inChain, key.Value, valueAttr.(*ir.IntAttr).Value)
		case "op_attrs_set.f64":
			out = corert.OpAttrsSetFloat(attrs, inChain, key.Value, valueAttr.(*ir.FloatAttr).Value)
		case "op_attrs_set.bool":
			out = corert.OpAttrsSetBool(attrs, inChain, key.Value, valueAttr.(*ir.BoolAttr).Value)
		}
		return []*async.Value{out}, nil

	case "get_op_handler":
		name, ok := findAttr[*ir.StringAttr](op, "name")
		if !ok {
			return nil, fmt.Errorf("get_op_handler: missing name attribute")
		}
		h, err := corert.GetOpHandler(it.rt, name.Value)
		if err != nil {
			return nil, err
		}
		return []*async.Value{async.NewConcrete(h)}, nil

	case "register_op_handler":
		root := async.MustGet[*runtime.OpHandler](env[op.Operands[0]])
		name, ok := findAttr[*ir.StringAttr](op, "name")
		if !ok {
			return nil, fmt.Errorf("register_op_handler: missing name attribute")
		}
		corert.RegisterOpHandler(it.rt, name.Value, root)
		return nil, nil

	case "executeop", "executeop_sync":
		handler := async.MustGet[*runtime.OpHandler](env[op.Operands[0]])
		args := tensorHandleArgs(env, op.Operands[1:])
		attrs := async.MustGet[*runtime.AttrSet](env[op.Operands[len(op.Operands)-1]])
		args = args[:len(args)-1]
		name, ok := findAttr[*ir.StringAttr](op, "name")
		if !ok {
			return nil, fmt.Errorf("%s: missing name attribute", op.Opcode)
		}
		var (
			out []*runtime.TensorHandle
			err error
		)
		if op.Opcode == "executeop" {
			out, err = corert.ExecuteOp(ctx, handler, unwrapHandles(args), attrs, name.Value, len(op.Results))
		} else {
			out, err = corert.ExecuteOpSync(ctx, handler, unwrapHandles(args), attrs, name.Value, len(op.Results))
		}
		if err != nil {
			return nil, err
		}
		return wrapHandles(out), nil

	case "executeop.seq":
		handler := async.MustGet[*runtime.OpHandler](env[op.Operands[0]])
		inChain := env[op.Operands[1]]
		rest := op.Operands[2:]
		attrsVal := env[rest[len(rest)-1]]
		attrs := async.MustGet[*runtime.AttrSet](attrsVal)
		argRegs := rest[:len(rest)-1]
		args := unwrapHandles(tensorHandleArgs(env, argRegs))
		name, ok := findAttr[*ir.StringAttr](op, "name")
		if !ok {
			return nil, fmt.Errorf("executeop.seq: missing name attribute")
		}
		outChain, results := corert.ExecuteOpSeq(ctx, handler, inChain, args, attrs, name.Value, len(op.Results)-1)
		return append([]*async.Value{outChain}, wrapHandles(results)...), nil

	case "cond":
		predTH := async.MustGet[*runtime.TensorHandle](env[op.Operands[0]])
		rest := op.Operands[1:]
		branchArgs := make([]*async.Value, len(rest))
		for i, v := range rest {
			branchArgs[i] = env[v]
		}
		trueFn, falseFn := it.branches(op, ctx)
		return corert.Cond(predTH, branchArgs, trueFn, falseFn, len(op.Results)), nil

	case "while":
		loopArgs := make([]*async.Value, len(op.Operands))
		for i, v := range op.Operands {
			loopArgs[i] = env[v]
		}
		condFn, bodyFn := it.loopFuncs(op, ctx)
		return corert.While(ctx, loopArgs, condFn, bodyFn, len(op.Results)), nil

	case "make_composite_op":
		return []*async.Value{async.NewConcrete(it.compositeOpFunc(op))}, nil

	case "execute_crt_op":
		fn := async.MustGet[runtime.OpFunc](env[op.Operands[0]])
		argRegs := op.Operands[1 : len(op.Operands)-1]
		args := unwrapHandles(tensorHandleArgs(env, argRegs))
		attrs := async.MustGet[*runtime.AttrSet](env[op.Operands[len(op.Operands)-1]])
		out, err := corert.ExecuteCompositeOp(ctx, fn, args, attrs, len(op.Results))
		if err != nil {
			return nil, err
		}
		return wrapHandles(out), nil

	case "transfer":
		th := async.MustGet[*runtime.TensorHandle](env[op.Operands[0]])
		devName, ok := findAttr[*ir.StringAttr](op, "device")
		if !ok {
			return nil, fmt.Errorf("transfer: missing device attribute")
		}
		dstType, _ := findAttr[*ir.StringAttr](op, "dst_tensor_type")
		dstTypeName := ""
		if dstType != nil {
			dstTypeName = dstType.Value
		}
		out, err := corert.Transfer(it.rt, th, devName.Value, dstTypeName)
		if err != nil {
			return nil, err
		}
		return []*async.Value{async.NewConcrete(out)}, nil

	default:
		return nil, fmt.Errorf("interp: unknown opcode %q", op.Opcode)
	}
}

func (it *Interp) branches(op *ir.Op, ctx *runtime.ExecutionContext) (corert.BranchFunc, corert.BranchFunc) {
	call := func(idx int) corert.BranchFunc {
		if len(op.Regions) > idx {
			region := op.Regions[idx]
			return func(a []*async.Value) []*async.Value {
				out, err := it.execRegion(region, a, ctx)
				if err != nil {
					return errorValues(err, len(region.Blocks[0].Ops))
				}
				return out
			}
		}
		name := op.FuncRefs[idx]
		return func(a []*async.Value) []*async.Value {
			out, err := it.callFunction(name, a, ctx)
			if err != nil {
				return errorValues(err, 0)
			}
			return out
		}
	}
	return call(0), call(1)
}

// compositeOpFunc implements `make_composite_op`: it wraps a nested
// region or a func-ref as an OpFunc runnable under whatever
// ExecutionContext later dispatches it (spec §4.9), the same way
// branches and loopFuncs wrap regions/func-refs for cond/while.
func (it *Interp) compositeOpFunc(op *ir.Op) runtime.OpFunc {
	return runtime.MakeCompositeOp(func(execCtx *runtime.ExecutionContext, args []*runtime.TensorHandle) ([]*runtime.TensorHandle, error) {
		var out []*async.Value
		var err error
		if len(op.Regions) > 0 {
			out, err = it.execRegion(op.Regions[0], wrapHandles(args), execCtx)
		} else {
			out, err = it.callFunction(op.FuncRefs[0], wrapHandles(args), execCtx)
		}
		if err != nil {
			return nil, err
		}
		return unwrapHandles(out), nil
	})
}

func (it *Interp) loopFuncs(op *ir.Op, ctx *runtime.ExecutionContext) (corert.CondFunc, corert.BodyFunc) {
	condFn := func(a []*async.Value) (*async.Value, *runtime.TensorHandle) {
		var out []*async.Value
		var err error
		if len(op.Regions) > 0 {
			out, err = it.execRegion(op.Regions[0], a, ctx)
		} else {
			out, err = it.callFunction(op.FuncRefs[0], a, ctx)
		}
		if err != nil {
			errChain := async.New()
			errChain.SetError(err)
			return errChain, runtime.NewIndirectTensorHandle(nil)
		}
		return out[0], async.MustGet[*runtime.TensorHandle](out[1])
	}
	bodyFn := func(a []*async.Value) []*async.Value {
		var out []*async.Value
		var err error
		if len(op.Regions) > 1 {
			out, err = it.execRegion(op.Regions[1], a, ctx)
		} else {
			out, err = it.callFunction(op.FuncRefs[1], a, ctx)
		}
		if err != nil {
			return errorValues(err, len(a))
		}
		return out
	}
	return condFn, bodyFn
}

func errorValues(err error, n int) []*async.Value {
	out := make([]*async.Value, n)
	for i := range out {
		out[i] = async.NewError(err)
	}
	return out
}

func tensorHandleArgs(env map[*ir.Value]*async.Value, regs []*ir.Value) []*async.Value {
	out := make([]*async.Value, len(regs))
	for i, v := range regs {
		out[i] = env[v]
	}
	return out
}

func unwrapHandles(vals []*async.Value) []*runtime.TensorHandle {
	out := make([]*runtime.TensorHandle, len(vals))
	for i, v := range vals {
		out[i] = async.MustGet[*runtime.TensorHandle](v)
	}
	return out
}

func wrapHandles(hs []*runtime.TensorHandle) []*async.Value {
	out := make([]*async.Value, len(hs))
	for i, h := range hs {
		out[i] = async.NewConcrete(h)
	}
	return out
}

func findRawAttr(op *ir.Op, name string) (ir.Attribute, bool) {
	for _, na := range op.Attrs {
		if na.Name == name {
			return na.Attr, true
		}
	}
	return nil, false
}

func findAttr[T ir.Attribute](op *ir.Op, name string) (T, bool) {
	var zero T
	raw, ok := findRawAttr(op, name)
	if !ok {
		return zero, false
	}
	t, ok := raw.(T)
	return t, ok
}
