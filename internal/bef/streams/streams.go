// Package streams implements the stream-analysis contract (spec §4.5):
// assigning each kernel in a block to an advisory concurrency lane.
// Stream assignment is a pluggable Strategy per the spec's open question
// ("reimplementations may... treat C5... as a pluggable strategy").
package streams

import "bef/internal/ir"

// Assignment is one block's stream analysis result.
type Assignment struct {
	RootStream uint32
	OpStream   map[*ir.Op]uint32
}

// Strategy assigns stream ids to the ops of one block. It must be pure
// with respect to the block (spec §4.5 "The analysis is pure").
type Strategy interface {
	Analyze(block *ir.Block) Assignment
}

// SingleStream puts every kernel, and the pseudo-entry kernel, on stream
// 0. This is the compiler's default: it is always safe, since same-
// stream kernels are only required to run in dataflow order, never
// forbidden from doing so.
type SingleStream struct{}

func (SingleStream) Analyze(block *ir.Block) Assignment {
	a := Assignment{RootStream: 0, OpStream: make(map[*ir.Op]uint32, len(block.Ops))}
	for _, op := range block.Ops {
		a.OpStream[op] = 0
	}
	return a
}

// PerBlockRoundRobin spreads kernels across n lanes round-robin, purely
// by their position in the block. It exists to exercise multi-stream
// kernel records in tests; it does not analyze data dependencies, so it
// must not be used where a data-dependent kernel needs to be
// co-scheduled with its producer.
type PerBlockRoundRobin struct {
	Lanes int
}

func (s PerBlockRoundRobin) Analyze(block *ir.Block) Assignment {
	lanes := s.Lanes
	if lanes < 1 {
		lanes = 1
	}
	a := Assignment{RootStream: 0, OpStream: make(map[*ir.Op]uint32, len(block.Ops))}
	i := 0
	for _, op := range block.Ops {
		if op.IsReturn() {
			continue
		}
		a.OpStream[op] = uint32(i % lanes)
		i++
	}
	return a
}
