// Package corert implements the core-runtime kernel primitives (spec
// §4.9): tensor-handle construction, op dispatch, constant
// materialization, and the cond/while control-flow kernels, all built
// on internal/async's ready-callback model rather than blocking waits.
// The data types the kernels operate on (runtime.TensorHandle,
// runtime.AttrSet, runtime.OpHandler) live in internal/runtime since
// Runtime's registries are typed against them directly.
package corert

import (
	"fmt"

	"bef/internal/async"
	"bef/internal/device"
	"bef/internal/runtime"
	"bef/internal/tensor"
)

// HtToTensorHandle packages a host tensor into a TensorHandle, ordering
// its visibility against in_chain (spec §4.9 "the chain orders against
// prior side effects").
func HtToTensorHandle(host *tensor.Host, inChain *async.Value, dev *device.Device) *runtime.TensorHandle {
	th := runtime.NewIndirectTensorHandle(dev)
	inChain.AndThen(func() {
		if inChain.IsError() {
			th.SetError(inChain.GetError())
			return
		}
		th.Metadata.SetConcrete(host.Metadata)
		th.Tensor.SetConcrete(host)
	})
	return th
}

// TensorHandleToHT implements `tensorhandle_to_ht`: it simply exposes
// the handle's own async tensor cell.
func TensorHandleToHT(th *runtime.TensorHandle) *async.Value { return th.Tensor }

// hostTensorOf reads a tensor handle's already-concrete tensor cell as
// a host tensor. Callers must only invoke it once th.Tensor is known
// terminal and non-error.
func hostTensorOf(th *runtime.TensorHandle) (*tensor.Host, error) {
	h, ok := async.Get[*tensor.Host](th.Tensor)
	if !ok {
		return nil, fmt.Errorf("tensor handle does not hold a host tensor")
	}
	return h, nil
}

// TensorHandleToShape implements `tensorhandle_to_shape`: it returns
// synchronously if metadata is already concrete, otherwise derives an
// indirect result from the metadata cell once it resolves (spec §4.9).
func TensorHandleToShape(th *runtime.TensorHandle) *async.Value {
	if meta, ok := th.ConcreteMetadata(); ok {
		return async.NewConcrete(meta.Shape)
	}
	out := async.New()
	th.Metadata.AndThen(func() {
		if th.Metadata.IsError() {
			out.SetError(th.Metadata.GetError())
			return
		}
		meta := async.MustGet[tensor.Metadata](th.Metadata)
		out.SetConcrete(meta.Shape)
	})
	return out
}
