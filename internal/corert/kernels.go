package corert

import (
	"fmt"

	"bef/internal/async"
	"bef/internal/runtime"
)

// ExecuteOp implements `executeop`: look up name on handler, dispatch,
// and return one tensor handle per result (spec §4.9).
func ExecuteOp(ctx *runtime.ExecutionContext, handler *runtime.OpHandler, args []*runtime.TensorHandle, attrs *runtime.AttrSet, name string, numResults int) ([]*runtime.TensorHandle, error) {
	fn, ok := handler.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("op not found: %s on handler %s", name, handler.Name)
	}
	return fn(ctx, args, attrs, numResults)
}

// ExecuteOpSync implements `executeop_sync`: never suspends, returns an
// error directly on dispatch failure (spec §4.9).
func ExecuteOpSync(ctx *runtime.ExecutionContext, handler *runtime.OpHandler, args []*runtime.TensorHandle, attrs *runtime.AttrSet, name string, numResults int) ([]*runtime.TensorHandle, error) {
	return ExecuteOp(ctx, handler, args, attrs, name, numResults)
}

// ExecuteOpSeq implements `executeop.seq` (spec §4.9): if op_handler and
// every argument's tensor cell is already concrete, dispatch inline;
// otherwise register a waiter on the non-concrete subset and dispatch
// once everything resolves. Any argument error propagates to every
// result and to out_chain, which otherwise resolves strictly after the
// op's own effects (spec §8 property 6).
func ExecuteOpSeq(ctx *runtime.ExecutionContext, handler *runtime.OpHandler, inChain *async.Value, args []*runtime.TensorHandle, attrs *runtime.AttrSet, name string, numResults int) (*async.Value, []*runtime.TensorHandle) {
	results := make([]*runtime.TensorHandle, numResults)
	for i := range results {
		results[i] = runtime.NewIndirectTensorHandle(nil)
	}
	outChain := async.NewChain()

	deps := make([]*async.Value, 0, len(args)+1)
	deps = append(deps, inChain)
	for _, a := range args {
		deps = append(deps, a.Tensor)
	}

	dispatch := func() {
		if inChain.IsError() {
			propagateSeqError(inChain.GetError(), results, outChain)
			return
		}
		for _, a := range args {
			if a.Tensor.IsError() {
				propagateSeqError(a.Tensor.GetError(), results, outChain)
				return
			}
		}
		out, err := ExecuteOp(ctx, handler, args, attrs, name, numResults)
		if err != nil {
			propagateSeqError(err, results, outChain)
			return
		}
		for i, r := range out {
			results[i].ForwardFrom(r)
		}
		async.ResolveChain(outChain)
	}

	ready := inChain.IsTerminal()
	for _, a := range args {
		ready = ready && a.Tensor.IsTerminal()
	}
	if ready {
		dispatch()
	} else {
		async.WhenAll(deps, dispatch)
	}
	return outChain, results
}

func propagateSeqError(err error, results []*runtime.TensorHandle, outChain *async.Value) {
	for _, r := range results {
		r.SetError(err)
	}
	outChain.SetError(err)
}

// ExecuteCompositeOp implements `execute_crt_op` (original TFRT name;
// spec §4.9's dispatch counterpart to `make_composite_op`): invoke a
// composite op's function directly, without a named handler lookup.
func ExecuteCompositeOp(ctx *runtime.ExecutionContext, op runtime.OpFunc, args []*runtime.TensorHandle, attrs *runtime.AttrSet, numResults int) ([]*runtime.TensorHandle, error) {
	return op(ctx, args, attrs, numResults)
}

// GetOpHandler implements `get_op_handler(name)`.
func GetOpHandler(rt *runtime.Runtime, name string) (*runtime.OpHandler, error) {
	return rt.GetOpHandler(name)
}

// RegisterOpHandler implements `register_op_handler(root, name)`: root
// installs h under name on rt's registry.
func RegisterOpHandler(rt *runtime.Runtime, name string, h *runtime.OpHandler) {
	rt.RegisterOpHandler(name, h)
}
