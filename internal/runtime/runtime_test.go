package runtime

import (
	"errors"
	"sync"
	"testing"

	"bef/internal/async"
)

func TestRegisterAndGetOpHandler(t *testing.T) {
	rt := New(1)
	h := NewOpHandler("cpu")
	rt.RegisterOpHandler("cpu", h)

	got, err := rt.GetOpHandler("cpu")
	if err != nil {
		t.Fatalf("GetOpHandler failed: %v", err)
	}
	if got != h {
		t.Fatal("GetOpHandler returned a different handler than the one registered")
	}
}

func TestGetOpHandlerUnknownNameErrors(t *testing.T) {
	rt := New(1)
	if _, err := rt.GetOpHandler("nope"); err == nil {
		t.Fatal("expected an error for an unregistered op handler name")
	}
}

func TestOpHandlerRegisterAndLookup(t *testing.T) {
	h := NewOpHandler("cpu")
	called := false
	h.Register("add", func(ctx *ExecutionContext, args []*TensorHandle, attrs *AttrSet, numResults int) ([]*TensorHandle, error) {
		called = true
		return nil, nil
	})

	fn, ok := h.Lookup("add")
	if !ok {
		t.Fatal("Lookup(add) = false, want true after Register")
	}
	if _, err := fn(nil, nil, nil, 0); err != nil {
		t.Fatalf("fn returned error: %v", err)
	}
	if !called {
		t.Fatal("registered function was not invoked")
	}

	if _, ok := h.Lookup("missing"); ok {
		t.Fatal("Lookup(missing) = true, want false")
	}
}

func TestMakeCompositeOpForwardsArgsAndChecksResultCount(t *testing.T) {
	th := &TensorHandle{}
	op := MakeCompositeOp(func(ctx *ExecutionContext, args []*TensorHandle) ([]*TensorHandle, error) {
		return []*TensorHandle{th, th}, nil
	})

	out, err := op(nil, nil, nil, 2)
	if err != nil {
		t.Fatalf("op failed: %v", err)
	}
	if len(out) != 2 || out[0] != th {
		t.Fatal("MakeCompositeOp did not forward the wrapped function's results")
	}

	if _, err := op(nil, nil, nil, 5); err == nil {
		t.Fatal("expected an error when the wrapped function's result count does not match numResults")
	}
}

func TestMakeCompositeOpPropagatesError(t *testing.T) {
	wantErr := errors.New("boom")
	op := MakeCompositeOp(func(ctx *ExecutionContext, args []*TensorHandle) ([]*TensorHandle, error) {
		return nil, wantErr
	})
	if _, err := op(nil, nil, nil, 0); err != wantErr {
		t.Fatalf("op error = %v, want %v", err, wantErr)
	}
}

func TestExecutionContextCancelled(t *testing.T) {
	ec := &ExecutionContext{}
	if ec.Cancelled() {
		t.Fatal("Cancelled() = true with a nil Cancel value")
	}

	cancel := async.New()
	ec.Cancel = cancel
	if ec.Cancelled() {
		t.Fatal("Cancelled() = true before the cancel value is concrete")
	}
	cancel.SetConcrete(struct{}{})
	if !ec.Cancelled() {
		t.Fatal("Cancelled() = false after the cancel value resolved")
	}
}

func TestExecutionContextCancelledOnError(t *testing.T) {
	cancel := async.New()
	ec := &ExecutionContext{Cancel: cancel}
	cancel.SetError(errors.New("boom"))
	if !ec.Cancelled() {
		t.Fatal("Cancelled() = false after the cancel value resolved with an error")
	}
}

func TestAttrSetGetAndSet(t *testing.T) {
	a := NewAttrSet()
	if _, ok := a.Get("x"); ok {
		t.Fatal("Get on an empty set returned ok = true")
	}
	a.Set("x", 42)
	v, ok := a.Get("x")
	if !ok || v.(int) != 42 {
		t.Fatalf("Get(x) = (%v, %v), want (42, true)", v, ok)
	}
	a.Set("x", 43)
	v, _ = a.Get("x")
	if v.(int) != 43 {
		t.Fatal("Set did not overwrite the previous value")
	}
}

func TestWorkQueueRunsEnqueuedTasks(t *testing.T) {
	q := NewWorkQueue(2)
	defer q.Close()

	var wg sync.WaitGroup
	var mu sync.Mutex
	sum := 0
	for i := 1; i <= 10; i++ {
		i := i
		wg.Add(1)
		q.Enqueue(func() {
			defer wg.Done()
			mu.Lock()
			sum += i
			mu.Unlock()
		})
	}
	wg.Wait()
	if sum != 55 {
		t.Fatalf("sum = %d, want 55", sum)
	}
}

func TestNewWorkQueueClampsWorkerCountBelowOne(t *testing.T) {
	q := NewWorkQueue(0)
	defer q.Close()
	done := make(chan struct{})
	q.Enqueue(func() { close(done) })
	<-done
}
