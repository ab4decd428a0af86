package async

import "sync/atomic"

// chainToken is Chain's zero-size payload: Chain carries no data, only
// the happens-before it establishes (spec §4.8 "a concrete value of
// unit type, used purely for ordering").
type chainToken struct{}

// NewChain returns an Unconstructed chain.
func NewChain() *Value { return New() }

// ResolveChain transitions c to its single concrete state.
func ResolveChain(c *Value) { c.SetConcrete(chainToken{}) }

// NewReadyChain returns an already-resolved chain, for kernels that
// have no real predecessor to order against.
func NewReadyChain() *Value { return NewConcrete(chainToken{}) }

// WhenAll invokes k once every value in vs has reached a terminal
// state. If any value errors, k still runs after all have settled; the
// caller is expected to check each value's IsError itself, matching the
// spec's `when_all(values, k)` dependency-set primitive (§4.8's
// grounding note on implementation strategy).
func WhenAll(vs []*Value, k func()) {
	if len(vs) == 0 {
		k()
		return
	}
	remaining := int32(len(vs))
	for _, v := range vs {
		v.AndThen(func() {
			if atomic.AddInt32(&remaining, -1) == 0 {
				k()
			}
		})
	}
}
