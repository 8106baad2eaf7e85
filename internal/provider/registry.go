// Altimetrus - Multi-Source Altitude Fusion and Measurement History
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/altimetrus

package provider

import (
	"sync"
)

// Registry holds the ordered set of registered providers. Registration
// order is significant: the fusion engine breaks score ties by it.
//
// Register and Unregister are idempotent and safe while fetches are in
// flight; Snapshot hands out a copy so an in-flight fusion round keeps
// the provider set it started with.
type Registry struct {
	mu        sync.RWMutex
	providers []Provider
}

// NewRegistry creates an empty provider registry.
func NewRegistry(providers ...Provider) *Registry {
	r := &Registry{}
	for _, p := range providers {
		r.Register(p)
	}
	return r
}

// Register appends a provider. A provider with an already-registered name
// is ignored, keeping registration idempotent.
func (r *Registry) Register(p Provider) {
	if p == nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.providers {
		if existing.Name() == p.Name() {
			return
		}
	}
	r.providers = append(r.providers, p)
}

// Unregister removes the provider with the given name. Removing an
// unknown name is a no-op.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, existing := range r.providers {
		if existing.Name() == name {
			r.providers = append(r.providers[:i], r.providers[i+1:]...)
			return
		}
	}
}

// Snapshot returns a copy of the current provider list in registration
// order.
func (r *Registry) Snapshot() []Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Provider, len(r.providers))
	copy(out, r.providers)
	return out
}

// Len returns the number of registered providers.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.providers)
}
