// Package async implements the async value model (spec §4.8): a
// reference-counted single-assignment cell that either kernels or the
// execution engine populate, plus a ready-callback primitive kernels
// use instead of blocking waits (spec §5 "There are no thread-blocking
// waits inside kernels").
package async

import (
	"fmt"
	"sync/atomic"

	"github.com/sasha-s/go-deadlock"
)

// State is one of an AsyncValue's four lifecycle states (spec §4.8).
type State int

const (
	Unconstructed State = iota
	Constructed
	ConcreteState
	ErrorState
)

func (s State) String() string {
	switch s {
	case Constructed:
		return "constructed"
	case ConcreteState:
		return "concrete"
	case ErrorState:
		return "error"
	default:
		return "unconstructed"
	}
}

// Value is a single-assignment, reference-counted future. The zero
// value is not usable; construct one with New, NewConcrete, NewError or
// NewIndirect.
//
// Transitions are monotonic: SetConcrete/SetError may run at most once,
// and only from Unconstructed or Constructed. An indirect value's
// ForwardTo runs at most once and redirects every subsequent read and
// waiter to its target, matching the C++ RCReference<AsyncValue>
// forwarding contract this type is modeled on.
type Value struct {
	mu      deadlock.Mutex
	state   State
	value   any
	err     error
	waiters []func()
	target  *Value
	refs    int32
}

// New returns an Unconstructed value.
func New() *Value {
	return &Value{state: Unconstructed, refs: 1}
}

// NewConcrete returns a value already in the Concrete(v) state.
func NewConcrete(v any) *Value {
	return &Value{state: ConcreteState, value: v, refs: 1}
}

// NewError returns a value already in the Error(err) state.
func NewError(err error) *Value {
	return &Value{state: ErrorState, err: err, refs: 1}
}

// NewIndirect returns an Unconstructed value intended to be resolved
// exclusively via ForwardTo (spec §4.8 "Indirect async values").
func NewIndirect() *Value { return New() }

// Retain increments the reference count and returns v, mirroring the
// C++ RCReference<AsyncValue>::CopyRef chaining idiom.
func (v *Value) Retain() *Value {
	atomic.AddInt32(&v.refs, 1)
	return v
}

// Release decrements the reference count. The runtime relies on the Go
// garbage collector for actual deallocation; Release exists so kernels
// can express "done with this handle" the way the spec's ownership
// model expects, and so double-release bugs surface as a negative
// count instead of silently corrupting shared state.
func (v *Value) Release() {
	if atomic.AddInt32(&v.refs, -1) < 0 {
		panic("async: Release called more times than Retain")
	}
}

// final walks the indirect-forwarding chain to the value that actually
// holds state. The contract (spec §4.8 "Cycles through indirects must
// be prevented by the producer") makes this always terminate.
func (v *Value) final() *Value {
	cur := v
	for {
		cur.mu.Lock()
		t := cur.target
		cur.mu.Unlock()
		if t == nil {
			return cur
		}
		cur = t
	}
}

// State returns the current lifecycle state, resolving through any
// indirect forwarding.
func (v *Value) State() State {
	f := v.final()
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// IsConcrete reports whether the value (transitively) holds Concrete.
func (v *Value) IsConcrete() bool { return v.State() == ConcreteState }

// IsError reports whether the value (transitively) holds Error.
func (v *Value) IsError() bool { return v.State() == ErrorState }

// IsTerminal reports Concrete or Error.
func (v *Value) IsTerminal() bool {
	s := v.State()
	return s == ConcreteState || s == ErrorState
}

// GetError returns the terminal error. Callers must check IsError first;
// like the spec's get<T>, calling this on a non-error value is a
// programmer error.
func (v *Value) GetError() error {
	f := v.final()
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state != ErrorState {
		panic("async: GetError called on a non-error value")
	}
	return f.err
}

// Get retrieves the concrete payload with a type assertion, mirroring
// the spec's typed `is<T>()`/`get<T>()` pair collapsed into one check.
func Get[T any](v *Value) (T, bool) {
	f := v.final()
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state != ConcreteState {
		var zero T
		return zero, false
	}
	t, ok := f.value.(T)
	return t, ok
}

// MustGet retrieves the concrete payload and panics if it is not
// concrete or not of type T.
func MustGet[T any](v *Value) T {
	t, ok := Get[T](v)
	if !ok {
		panic(fmt.Sprintf("async: value is not a concrete %T", t))
	}
	return t
}

// SetConcrete transitions v to Concrete(payload), running every
// registered waiter exactly once. Calling it on an already-terminal
// value violates the monotonicity contract and panics.
func (v *Value) SetConcrete(payload any) {
	v.transition(func(f *Value) {
		f.state = ConcreteState
		f.value = payload
	})
}

// SetError transitions v to Error(err).
func (v *Value) SetError(err error) {
	v.transition(func(f *Value) {
		f.state = ErrorState
		f.err = err
	})
}

func (v *Value) transition(apply func(*Value)) {
	f := v.final()
	f.mu.Lock()
	if f.state == ConcreteState || f.state == ErrorState {
		f.mu.Unlock()
		panic("async: value already resolved, transitions are monotonic")
	}
	apply(f)
	ready := f.waiters
	f.waiters = nil
	f.mu.Unlock()
	for _, w := range ready {
		w()
	}
}

// AndThen enqueues f to run when v reaches a terminal state. If v is
// already terminal, f runs inline on the calling goroutine. Otherwise it
// is queued and later run on whichever goroutine performs the terminal
// transition (spec §4.8 "either observes the terminal state and runs
// inline, or atomically enqueues and defers").
func (v *Value) AndThen(f func()) {
	target := v.final()
	target.mu.Lock()
	if target.state == ConcreteState || target.state == ErrorState {
		target.mu.Unlock()
		f()
		return
	}
	target.waiters = append(target.waiters, f)
	target.mu.Unlock()
}

// ForwardTo makes v an indirect alias of other: every waiter registered
// on v (before or after this call) becomes a waiter of other, and every
// read of v resolves through other. It may be called at most once per
// value.
func (v *Value) ForwardTo(other *Value) {
	v.mu.Lock()
	if v.target != nil {
		v.mu.Unlock()
		panic("async: ForwardTo called more than once")
	}
	if v.state == ConcreteState || v.state == ErrorState {
		v.mu.Unlock()
		panic("async: ForwardTo called on an already-resolved value")
	}
	v.target = other
	waiters := v.waiters
	v.waiters = nil
	v.mu.Unlock()

	for _, w := range waiters {
		other.AndThen(w)
	}
}
