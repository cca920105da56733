package model

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Built-in exchange tags.
const (
	ExchangeKalshi     = "kalshi"
	ExchangePolymarket = "polymarket"
)

// Registry is the set of known exchange tags. Records carrying an
// unregistered tag are rejected before they reach storage. New sources are
// registered at startup from configuration; no schema change is needed.
type Registry struct {
	mu   sync.RWMutex
	tags map[string]struct{}
}

// NewRegistry creates a registry seeded with the given tags.
func NewRegistry(tags ...string) (*Registry, error) {
	r := &Registry{tags: make(map[string]struct{})}
	for _, tag := range tags {
		if err := r.Register(tag); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// DefaultRegistry returns a registry with the built-in exchanges.
func DefaultRegistry() *Registry {
	r, _ := NewRegistry(ExchangeKalshi, ExchangePolymarket)
	return r
}

// Register adds an exchange tag. Tags are lowercase identifiers.
func (r *Registry) Register(tag string) error {
	if tag == "" {
		return fmt.Errorf("exchange tag must not be empty")
	}
	if tag != strings.ToLower(tag) || strings.ContainsAny(tag, " \t/") {
		return fmt.Errorf("invalid exchange tag %q", tag)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tags[tag] = struct{}{}
	return nil
}

// Known reports whether the tag is registered.
func (r *Registry) Known(tag string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.tags[tag]
	return ok
}

// Tags returns all registered tags in sorted order.
func (r *Registry) Tags() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.tags))
	for tag := range r.tags {
		out = append(out, tag)
	}
	sort.Strings(out)
	return out
}
