package runtime

import (
	"bef/internal/async"
	"bef/internal/device"
	"bef/internal/tensor"
)

// TensorHandle pairs an async tensor-metadata cell with an async tensor
// payload cell, mirroring TFRT's TensorHandle: the two resolve
// independently so a shape query need not wait on the full payload. It
// lives in this package (rather than corert, which implements the
// kernels that construct and consume it) because Runtime's op-handler
// registry is typed in terms of functions over TensorHandle.
type TensorHandle struct {
	Metadata *async.Value // resolves to tensor.Metadata
	Tensor   *async.Value // resolves to *tensor.Host
	Device   *device.Device
}

// NewIndirectTensorHandle allocates a handle whose Metadata and Tensor
// cells are still Unconstructed, for kernels that must return a handle
// before its contents are known (ht_to_tensorhandle, transfer,
// executeop.seq).
func NewIndirectTensorHandle(dev *device.Device) *TensorHandle {
	return &TensorHandle{Metadata: async.New(), Tensor: async.New(), Device: dev}
}

// ForwardFrom makes th an alias of src via ForwardTo on both cells. If
// th was allocated without a known device, it adopts src's.
func (th *TensorHandle) ForwardFrom(src *TensorHandle) {
	if th.Device == nil {
		th.Device = src.Device
	}
	th.Metadata.ForwardTo(src.Metadata)
	th.Tensor.ForwardTo(src.Tensor)
}

// SetError resolves both cells to err, skipping any cell already
// terminal (a handle may have had its metadata resolved before its
// tensor payload errors).
func (th *TensorHandle) SetError(err error) {
	if !th.Metadata.IsTerminal() {
		th.Metadata.SetError(err)
	}
	if !th.Tensor.IsTerminal() {
		th.Tensor.SetError(err)
	}
}

// ConcreteMetadata returns the handle's metadata and true if the
// metadata cell is concrete, or the zero Metadata and false otherwise.
func (th *TensorHandle) ConcreteMetadata() (tensor.Metadata, bool) {
	return async.Get[tensor.Metadata](th.Metadata)
}
