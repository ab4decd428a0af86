package async

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetConcreteRunsWaiterInline(t *testing.T) {
	v := NewConcrete(42)
	ran := false
	v.AndThen(func() { ran = true })
	assert.True(t, ran, "AndThen on an already-concrete value must run inline")

	got, ok := Get[int](v)
	require.True(t, ok)
	assert.Equal(t, 42, got)
}

func TestAndThenDeferredUntilResolved(t *testing.T) {
	v := New()
	ran := false
	v.AndThen(func() { ran = true })
	assert.False(t, ran, "AndThen must not run before the value is terminal")

	v.SetConcrete("x")
	assert.True(t, ran, "AndThen must run exactly once the value becomes terminal")
}

func TestAndThenRunsExactlyOnce(t *testing.T) {
	v := New()
	count := 0
	v.AndThen(func() { count++ })
	v.AndThen(func() { count++ })
	v.SetConcrete(1)
	assert.Equal(t, 2, count)
}

func TestMonotonicTransitionPanics(t *testing.T) {
	v := NewConcrete(1)
	defer func() {
		assert.NotNil(t, recover(), "expected panic on double resolution")
	}()
	v.SetConcrete(2)
}

func TestIndirectForwarding(t *testing.T) {
	indirect := NewIndirect()
	target := New()

	ran := false
	indirect.AndThen(func() { ran = true })

	indirect.ForwardTo(target)
	assert.False(t, ran, "waiter must not run until the target resolves")

	target.SetConcrete("done")
	assert.True(t, ran, "forwarded waiter must run when the target resolves")

	got, ok := Get[string](indirect)
	require.True(t, ok)
	assert.Equal(t, "done", got)
	assert.True(t, indirect.IsConcrete(), "indirect value should report Concrete once its target resolves")
}

func TestErrorPropagatesThroughIndirect(t *testing.T) {
	indirect := NewIndirect()
	target := New()
	indirect.ForwardTo(target)

	wantErr := errors.New("boom")
	target.SetError(wantErr)

	require.True(t, indirect.IsError(), "indirect value should report Error once its target errors")
	assert.Equal(t, wantErr, indirect.GetError())
}

func TestChainOrdering(t *testing.T) {
	c := NewChain()
	ran := false
	c.AndThen(func() { ran = true })
	ResolveChain(c)
	assert.True(t, ran, "chain waiter must run once resolved")
}

func TestWhenAllWaitsForEveryValue(t *testing.T) {
	a, b := New(), New()
	ran := false
	WhenAll([]*Value{a, b}, func() { ran = true })

	a.SetConcrete(1)
	assert.False(t, ran, "WhenAll fired before every dependency resolved")

	b.SetConcrete(2)
	assert.True(t, ran, "WhenAll did not fire once every dependency resolved")
}

func TestRetainReleaseUnderflow(t *testing.T) {
	v := New()
	v.Release()
	defer func() {
		assert.NotNil(t, recover(), "expected panic on Release underflow")
	}()
	v.Release()
}
