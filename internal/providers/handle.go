package providers

import "sync/atomic"

// Handle holds the active Registry and supports whole-registry replacement
// without blocking in-flight evaluations: readers keep the snapshot they
// started with.
type Handle struct {
	current atomic.Pointer[Registry]
}

// NewHandle returns a Handle seeded with reg.
func NewHandle(reg *Registry) *Handle {
	h := &Handle{}
	h.current.Store(reg)
	return h
}

// Get returns the current registry snapshot.
func (h *Handle) Get() *Registry {
	return h.current.Load()
}

// Swap atomically replaces the active registry.
func (h *Handle) Swap(reg *Registry) {
	h.current.Store(reg)
}
