package streams

import (
	"testing"

	"bef/internal/ir"
)

func TestSingleStreamAssignsEveryOpToZero(t *testing.T) {
	block := &ir.Block{Ops: []*ir.Op{
		{Opcode: "const_dense_tensor"},
		{Opcode: "ht_to_tensorhandle"},
		{Opcode: ir.ReturnOpcode},
	}}
	a := SingleStream{}.Analyze(block)
	if a.RootStream != 0 {
		t.Fatalf("root stream = %d, want 0", a.RootStream)
	}
	for _, op := range block.Ops {
		if a.OpStream[op] != 0 {
			t.Fatalf("op %s assigned stream %d, want 0", op.Opcode, a.OpStream[op])
		}
	}
}

func TestPerBlockRoundRobinSkipsReturnAndWraps(t *testing.T) {
	ops := make([]*ir.Op, 5)
	for i := range ops {
		ops[i] = &ir.Op{Opcode: "op"}
	}
	block := &ir.Block{Ops: append(append([]*ir.Op{}, ops...), &ir.Op{Opcode: ir.ReturnOpcode})}

	a := PerBlockRoundRobin{Lanes: 2}.Analyze(block)
	want := []uint32{0, 1, 0, 1, 0}
	for i, op := range ops {
		if a.OpStream[op] != want[i] {
			t.Fatalf("op %d stream = %d, want %d", i, a.OpStream[op], want[i])
		}
	}
	if _, ok := a.OpStream[block.Ops[len(block.Ops)-1]]; ok {
		t.Fatal("return op must not receive a stream assignment")
	}
}

func TestPerBlockRoundRobinClampsLanesBelowOne(t *testing.T) {
	block := &ir.Block{Ops: []*ir.Op{{Opcode: "op"}}}
	a := PerBlockRoundRobin{Lanes: 0}.Analyze(block)
	if a.OpStream[block.Ops[0]] != 0 {
		t.Fatal("zero lanes must be clamped to one lane (stream 0)")
	}
}
