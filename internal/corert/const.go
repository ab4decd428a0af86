package corert

import (
	"fmt"

	"bef/internal/ir"
	"bef/internal/tensor"
)

// ConstDenseTensor materializes a constant tensor from a compiled dense
// attribute (spec §4.9 "fail with a descriptive error if allocation
// fails").
func ConstDenseTensor(a *ir.DenseAttr) (*tensor.Host, error) {
	shape := tensor.Shape(a.Shape)
	dtype, err := dtypeFromName(a.DType)
	if err != nil {
		return nil, err
	}
	n := shape.NumElements()

	h := &tensor.Host{Metadata: tensor.Metadata{DType: dtype, Shape: shape}}
	switch dtype {
	case tensor.Str:
		if int64(len(a.Strings)) != n {
			return nil, fmt.Errorf("const_dense_tensor: shape %s expects %d elements, dense attr has %d", shape, n, len(a.Strings))
		}
		h.Strings = a.Strings
	case tensor.F32, tensor.F64:
		if int64(len(a.Floats)) != n {
			return nil, fmt.Errorf("const_dense_tensor: shape %s expects %d elements, dense attr has %d", shape, n, len(a.Floats))
		}
		h.Floats = a.Floats
	default:
		if int64(len(a.Ints)) != n {
			return nil, fmt.Errorf("const_dense_tensor: shape %s expects %d elements, dense attr has %d", shape, n, len(a.Ints))
		}
		h.Ints = a.Ints
	}
	return h, nil
}

// ConstStringTensor materializes a constant string tensor from an
// explicit shape and an aggregate of string attributes.
func ConstStringTensor(shape tensor.Shape, agg *ir.AggregateAttr) (*tensor.Host, error) {
	n := shape.NumElements()
	if int64(len(agg.Elements)) != n {
		return nil, fmt.Errorf("const_string_tensor: shape %s expects %d elements, aggregate has %d", shape, n, len(agg.Elements))
	}
	elems := make([]string, len(agg.Elements))
	for i, el := range agg.Elements {
		s, ok := el.(*ir.StringAttr)
		if !ok {
			return nil, fmt.Errorf("const_string_tensor: aggregate element %d is not a string attribute", i)
		}
		elems[i] = s.Value
	}
	return tensor.NewString(shape, elems), nil
}

func dtypeFromName(name string) (tensor.DType, error) {
	switch name {
	case "i1":
		return tensor.I1, nil
	case "i32":
		return tensor.I32, nil
	case "i64":
		return tensor.I64, nil
	case "f32":
		return tensor.F32, nil
	case "f64":
		return tensor.F64, nil
	case "string":
		return tensor.Str, nil
	default:
		return 0, fmt.Errorf("const_dense_tensor: unsupported dtype %q", name)
	}
}
