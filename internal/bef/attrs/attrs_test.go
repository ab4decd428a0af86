package attrs

import (
	"testing"

	"bef/internal/ir"
)

func TestEmitBoolAndInt(t *testing.T) {
	pool := Emit([]ir.Attribute{
		&ir.BoolAttr{Value: true},
		&ir.IntAttr{Bits: 32, Value: 7},
	})
	if len(pool.Offsets) != 2 || len(pool.Tags) != 2 {
		t.Fatalf("pool has %d offsets, %d tags, want 2/2", len(pool.Offsets), len(pool.Tags))
	}
	if pool.Tags[0] != TagBool || pool.Tags[1] != TagInt {
		t.Fatalf("tags = %v, %v, want Bool, Int", pool.Tags[0], pool.Tags[1])
	}
	if pool.Offsets[0] != 0 {
		t.Fatalf("first offset = %d, want 0", pool.Offsets[0])
	}
	if pool.Body[pool.Offsets[0]] != 1 {
		t.Fatal("bool true must encode as byte 1")
	}
}

func TestEmitOffsetsAreMonotonicAndDistinct(t *testing.T) {
	pool := Emit([]ir.Attribute{
		&ir.StringAttr{Value: "hello"},
		&ir.StringAttr{Value: "world!!"},
		&ir.FloatAttr{Bits: 64, Value: 3.5},
	})
	for i := 1; i < len(pool.Offsets); i++ {
		if pool.Offsets[i] <= pool.Offsets[i-1] {
			t.Fatalf("offset %d = %d is not strictly greater than offset %d = %d", i, pool.Offsets[i], i-1, pool.Offsets[i-1])
		}
	}
}

func TestEmitDenseIntTensor(t *testing.T) {
	pool := Emit([]ir.Attribute{
		&ir.DenseAttr{DType: "i32", Shape: []int64{2}, Ints: []int64{10, 20}},
	})
	if pool.Tags[0] != TagDense {
		t.Fatalf("tag = %v, want TagDense", pool.Tags[0])
	}
	if pool.Body[0] != dtypeCode("i32") {
		t.Fatalf("dtype code = %d, want %d", pool.Body[0], dtypeCode("i32"))
	}
}

func TestEmitAggregateWritesTrailingOffsetTable(t *testing.T) {
	pool := Emit([]ir.Attribute{
		&ir.AggregateAttr{Elements: []ir.Attribute{
			&ir.StringAttr{Value: "a"},
			&ir.StringAttr{Value: "b"},
		}},
	})
	if pool.Tags[0] != TagAggregate {
		t.Fatalf("tag = %v, want TagAggregate", pool.Tags[0])
	}
	if len(pool.Body) == 0 {
		t.Fatal("aggregate body must not be empty")
	}
}

func TestEmitUnsupportedAttributePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected a panic for an unpoolable attribute type")
		}
	}()
	Emit([]ir.Attribute{&ir.UnitAttr{}})
}
