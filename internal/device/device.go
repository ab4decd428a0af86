// Package device models the runtime's device references and the
// process-wide device registry used by tensor-handle transfer kernels.
package device

import "fmt"

// Kind distinguishes device families relevant to predicate evaluation
// and transfer kernels.
type Kind int

const (
	CPU Kind = iota
	Other
)

// Device is an opaque device reference. The runtime never inspects a
// device beyond its name and kind.
type Device struct {
	Name string
	Kind Kind
}

func (d *Device) String() string { return d.Name }

// Registry looks up devices by name. It is owned by runtime.Runtime and
// has no lock of its own, and runtime.Runtime does not lock it either:
// registering a device while other goroutines look devices up is not
// safe.
type Registry struct {
	byName map[string]*Device
}

func NewRegistry() *Registry {
	r := &Registry{byName: make(map[string]*Device)}
	r.Register(&Device{Name: "cpu", Kind: CPU})
	return r
}

func (r *Registry) Register(d *Device) {
	r.byName[d.Name] = d
}

func (r *Registry) Lookup(name string) (*Device, error) {
	d, ok := r.byName[name]
	if !ok {
		return nil, fmt.Errorf("device not found: %s", name)
	}
	return d, nil
}
