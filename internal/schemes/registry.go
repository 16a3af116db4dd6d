// Package schemes maps address scheme tokens to the handlers that read,
// build and discover addresses of that scheme.
//
// Lookup consults primary tokens of every handler before any alias, so an
// alias can never shadow another handler's primary token.
package schemes

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/custodia-labs/sercha-corpus/internal/core/domain"
	"github.com/custodia-labs/sercha-corpus/internal/core/ports/driven"
)

// Ensure Registry implements the interface.
var _ driven.SchemeRegistry = (*Registry)(nil)

// Registry is a static table of scheme handlers.
type Registry struct {
	mu       sync.RWMutex
	handlers []driven.SchemeHandler
}

// NewRegistry creates a registry holding handlers.
func NewRegistry(handlers ...driven.SchemeHandler) *Registry {
	r := &Registry{}
	for _, h := range handlers {
		r.Register(h)
	}
	return r
}

// Register adds a handler. A later handler with the same primary token
// replaces the earlier one.
func (r *Registry) Register(h driven.SchemeHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, existing := range r.handlers {
		if existing.Scheme() == h.Scheme() {
			r.handlers[i] = h
			return
		}
	}
	r.handlers = append(r.handlers, h)
}

// Lookup implements driven.SchemeRegistry. The empty token means file.
func (r *Registry) Lookup(scheme string) (driven.SchemeHandler, error) {
	if scheme == "" {
		scheme = domain.SchemeFile
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, h := range r.handlers {
		if h.Scheme() == scheme {
			return h, nil
		}
	}
	for _, h := range r.handlers {
		for _, alias := range h.Aliases() {
			if alias == scheme {
				return h, nil
			}
		}
	}
	return nil, fmt.Errorf("%w: unknown scheme %q", domain.ErrLookup, scheme)
}

// Read implements driven.SchemeRegistry.
func (r *Registry) Read(ctx context.Context, addr domain.Address, opts driven.ReadOptions) ([]byte, error) {
	h, err := r.Lookup(addr.Scheme())
	if err != nil {
		return nil, err
	}
	return h.Read(ctx, addr, opts)
}

// Schemes lists the primary tokens, sorted.
func (r *Registry) Schemes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.handlers))
	for _, h := range r.handlers {
		out = append(out, h.Scheme())
	}
	sort.Strings(out)
	return out
}

// owns reports whether addr belongs to a handler with the given tokens.
// Bare paths belong to the file scheme only.
func owns(addr domain.Address, scheme string, aliases []string) bool {
	s := addr.Scheme()
	if s == "" {
		return scheme == domain.SchemeFile
	}
	if s == scheme {
		return true
	}
	for _, a := range aliases {
		if a == s {
			return true
		}
	}
	return false
}

// mismatch reports a handler asked to read a foreign address.
func mismatch(addr domain.Address, scheme string) error {
	return fmt.Errorf("%w: %s is not a %s address", domain.ErrInvalidAddress, addr, scheme)
}
