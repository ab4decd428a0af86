// Package runtime hosts the process-wide core-runtime registry (spec
// §4.9's "process-wide core-runtime registry"): op handlers and
// devices, plus the cooperative work queue kernels use to re-enqueue
// tail work instead of blocking (spec §5). There is no kernel registry;
// internal/interp dispatches kernels by opcode name.
package runtime

import (
	"fmt"
	"sync"

	"bef/internal/async"
	"bef/internal/device"
)

// Runtime is the shared handle every kernel invocation runs against.
// It owns the op-handler registry, the device registry, and the work
// queue that backs while-loop tail calls. executeop.seq does not use
// the queue: its deferred dispatch runs in the callback of the value
// that resolves last.
type Runtime struct {
	mu       sync.RWMutex
	handlers map[string]*OpHandler
	Devices  *device.Registry
	Queue    *WorkQueue
}

// New returns a Runtime with a CPU-seeded device registry and a work
// queue running the given number of worker goroutines (at least 1).
func New(workers int) *Runtime {
	return &Runtime{
		handlers: make(map[string]*OpHandler),
		Devices:  device.NewRegistry(),
		Queue:    NewWorkQueue(workers),
	}
}

// RegisterOpHandler installs h under name, implementing
// `register_op_handler` (spec §4.9). name need not equal h's own name,
// so a handler may also be registered under a root/alias name,
// matching `register_op_handler(root, name)`.
func (rt *Runtime) RegisterOpHandler(name string, h *OpHandler) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	rt.handlers[name] = h
}

// GetOpHandler implements `get_op_handler(name)`.
func (rt *Runtime) GetOpHandler(name string) (*OpHandler, error) {
	rt.mu.RLock()
	defer rt.mu.RUnlock()
	h, ok := rt.handlers[name]
	if !ok {
		return nil, fmt.Errorf("op handler not found: %s", name)
	}
	return h, nil
}

// ExecutionContext is threaded through every kernel invocation (spec
// §4.9 "All kernels receive an ExecutionContext"). Cancel, if non-nil,
// is a concrete-when-cancelled async value the while loop polls at
// each iteration boundary (spec §5 "Cancellation").
type ExecutionContext struct {
	Runtime *Runtime
	Cancel  *async.Value
}

// Cancelled reports whether cancellation has been signalled, whether
// the cancel value resolved concretely or with an error (spec §8
// scenario F: a cancel value in the Error state stops a while loop
// before its first iteration just as a Concrete one does).
func (ec *ExecutionContext) Cancelled() bool {
	return ec.Cancel != nil && ec.Cancel.IsTerminal()
}
