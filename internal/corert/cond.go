package corert

import (
	"bef/internal/async"
	"bef/internal/runtime"
)

// BranchFunc is a compiled true_fn/false_fn region invoked by Cond: it
// receives the conditional's shared arguments and returns one async
// value per declared result.
type BranchFunc func(args []*async.Value) []*async.Value

// Cond implements the `cond` kernel (spec §4.9.1). It is non-strict: it
// may be invoked before the predicate is ready, since every result is
// an indirect value that only forwards once the branch has run.
func Cond(predTH *runtime.TensorHandle, args []*async.Value, trueFn, falseFn BranchFunc, numResults int) []*async.Value {
	results := make([]*async.Value, numResults)
	for i := range results {
		results[i] = async.New()
	}

	predTH.Tensor.AndThen(func() {
		if predTH.Tensor.IsError() {
			propagateError(predTH.Tensor.GetError(), results)
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

		var out []*async.Value
		if pred {
			out = trueFn(args)
		} else {
			out = falseFn(args)
		}
		for i, r := range out {
			results[i].ForwardTo(r)
		}
	})

	return results
}

func propagateError(err error, results []*async.Value) {
	for _, r := range results {
		r.SetError(err)
	}
}
