package corert

import "bef/internal/runtime"

// Transfer implements the `transfer` kernel (spec §4.9): it fails
// synchronously if the destination device is not registered, otherwise
// returns a handle whose cells forward from th once the source resolves.
// dstTensorType is currently advisory only; no cross-representation
// conversion is implemented.
func Transfer(rt *runtime.Runtime, th *runtime.TensorHandle, deviceName, dstTensorType string) (*runtime.TensorHandle, error) {
	dev, err := rt.Devices.Lookup(deviceName)
	if err != nil {
		return nil, err
	}
	out := runtime.NewIndirectTensorHandle(dev)
	out.ForwardFrom(th)
	return out, nil
}
