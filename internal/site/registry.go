package site

import (
	"fmt"
	"sync"
)

// Registry is the in-memory mapping of site name to Spec. The supervisor
// reads it; writes come from config load and the add/remove API.
type Registry struct {
	mu    sync.RWMutex
	sites map[string]Spec
	order []string // registration order, preserved for listings
}

func NewRegistry() *Registry {
	return &Registry{sites: make(map[string]Spec)}
}

// Get returns the spec for name or ErrNotFound.
func (r *Registry) Get(name string) (Spec, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sites[name]
	if !ok {
		return Spec{}, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return s, nil
}

// List returns all specs in registration order.
func (r *Registry) List() []Spec {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Spec, 0, len(r.order))
	for _, n := range r.order {
		out = append(out, r.sites[n])
	}
	return out
}

// Add validates and registers a new site. Duplicate names are rejected.
func (r *Registry) Add(s Spec) error {
	if err := s.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sites[s.Name]; ok {
		return fmt.Errorf("site %s already exists", s.Name)
	}
	r.sites[s.Name] = s
	r.order = append(r.order, s.Name)
	return nil
}

// Remove unregisters a site. Unknown names return ErrNotFound.
func (r *Registry) Remove(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sites[name]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	delete(r.sites, name)
	for i, n := range r.order {
		if n == name {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

// Replace swaps the full site set, e.g. after a config reload.
// Specs that fail validation are skipped and reported.
func (r *Registry) Replace(specs []Spec) error {
	var firstErr error
	fresh := make(map[string]Spec, len(specs))
	order := make([]string, 0, len(specs))
	for _, s := range specs {
		if err := s.Validate(); err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if _, dup := fresh[s.Name]; dup {
			if firstErr == nil {
				firstErr = fmt.Errorf("duplicate site %s", s.Name)
			}
			continue
		}
		fresh[s.Name] = s
		order = append(order, s.Name)
	}
	r.mu.Lock()
	r.sites = fresh
	r.order = order
	r.mu.Unlock()
	return firstErr
}

// Len reports the number of registered sites.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sites)
}
