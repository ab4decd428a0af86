package device

import "testing"

func TestNewRegistrySeedsCPU(t *testing.T) {
	r := NewRegistry()
	d, err := r.Lookup("cpu")
	if err != nil {
		t.Fatalf("Lookup(cpu) failed: %v", err)
	}
	if d.Kind != CPU {
		t.Fatalf("cpu device kind = %v, want CPU", d.Kind)
	}
}

func TestRegisterAddsANewDevice(t *testing.T) {
	r := NewRegistry()
	r.Register(&Device{Name: "gpu:0", Kind: Other})
	d, err := r.Lookup("gpu:0")
	if err != nil {
		t.Fatalf("Lookup(gpu:0) failed: %v", err)
	}
	if d.String() != "gpu:0" {
		t.Fatalf("String() = %q, want %q", d.String(), "gpu:0")
	}
}

func TestLookupUnknownDeviceErrors(t *testing.T) {
	r := NewRegistry()
	if _, err := r.Lookup("nope"); err == nil {
		t.Fatal("expected an error looking up an unregistered device")
	}
}
