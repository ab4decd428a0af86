package corert

import (
	"fmt"

	"bef/internal/async"
	"bef/internal/device"
	"bef/internal/runtime"
)

// CondFunc is a compiled cond_fn region: it evaluates the loop's
// continuation test over the current iteration state and returns the
// chain ordering its effects plus the predicate tensor handle.
type CondFunc func(args []*async.Value) (chain *async.Value, predicate *runtime.TensorHandle)

// BodyFunc is a compiled body_fn region: it advances the loop state.
type BodyFunc func(args []*async.Value) []*async.Value

// While implements the `while` kernel (spec §4.9.2): it retains the
// loop's argument vector, allocates one indirect result per declared
// result, and repeatedly evaluates cond_fn/body_fn, tail-calling the
// next iteration on the execution engine's work queue rather than
// recursing on the calling goroutine.
func While(ctx *runtime.ExecutionContext, args []*async.Value, condFn CondFunc, bodyFn BodyFunc, numResults int) []*async.Value {
	results := make([]*async.Value, numResults)
	for i := range results {
		results[i] = async.New()
	}

	var iterate func(a []*async.Value)
	iterate = func(a []*async.Value) {
		if ctx.Cancelled() {
			for _, r := range results {
				r.ForwardTo(ctx.Cancel)
			}
			return
		}

		chain, predTH := condFn(a)
		async.WhenAll([]*async.Value{chain, predTH.Tensor}, func() {
			if chain.IsError() {
				propagateError(chain.GetError(), results)
				return
			}
			if predTH.Tensor.IsError() {
				propagateError(predTH.Tensor.GetError(), results)
				return
			}
			if predTH.Device == nil || predTH.Device.Kind != device.CPU {
				propagateError(fmt.Errorf("non-cpu device for condition tensor handle"), results)
				return
			}
			host, err := hostTensorOf(predTH)
			if err != nil {
				propagateError(err, results)
				return
			}
			pred, err := host.Predicate()
			if err != nil {
				propagateError(err, results)
				return
			}

			if !pred {
				for i, r := range results {
					r.ForwardTo(a[i])
				}
				return
			}

			next := bodyFn(a)
			ctx.Runtime.Queue.Enqueue(func() { iterate(next) })
		})
	}

	iterate(args)
	return results
}
