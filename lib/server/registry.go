// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package server

import "sync"

// Registry tracks which usernames have a live questionnaire session.
// The answer store does no cross-session locking; this exclusivity is
// what makes that safe when the same user connects twice.
type Registry struct {
	mu     sync.Mutex
	active map[string]struct{}
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{active: make(map[string]struct{})}
}

// Acquire reserves the username for one session. On success the
// returned release function must be called when the session ends;
// release is idempotent. Returns false when the username already has
// a live session.
func (registry *Registry) Acquire(name string) (release func(), ok bool) {
	registry.mu.Lock()
	defer registry.mu.Unlock()

	if _, busy := registry.active[name]; busy {
		return nil, false
	}
	registry.active[name] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			registry.mu.Lock()
			defer registry.mu.Unlock()
			delete(registry.active, name)
		})
	}, true
}
