package loader

import (
	"context"
	"fmt"
	"net/url"
	"sync"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/GriffinCanCode/framenav/internal/navigation/address"
)

type route struct {
	pattern string
	loader  Loader
}

// Router dispatches to the first loader whose glob pattern matches the
// address. Patterns use doublestar syntax over the address without query
// or fragment, e.g. "doc://manual/**" or "https://*.example.com/*.html".
type Router struct {
	mu       sync.RWMutex
	routes   []route
	fallback Loader
}

// NewRouter creates an empty router
func NewRouter() *Router {
	return &Router{}
}

// Handle appends a route. Routes are tried in registration order.
func (r *Router) Handle(pattern string, l Loader) error {
	if !doublestar.ValidatePattern(pattern) {
		return fmt.Errorf("invalid route pattern %q: %w", pattern, doublestar.ErrBadPattern)
	}
	if l == nil {
		return fmt.Errorf("route %q: nil loader", pattern)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.routes = append(r.routes, route{pattern: pattern, loader: l})
	return nil
}

// Fallback sets the loader used when no route matches
func (r *Router) Fallback(l Loader) *Router {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fallback = l
	return r
}

// Match returns the loader for addr
func (r *Router) Match(addr *url.URL) (Loader, bool) {
	name := routeKey(addr)

	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, rt := range r.routes {
		if ok, _ := doublestar.Match(rt.pattern, name); ok {
			return rt.loader, true
		}
	}
	if r.fallback != nil {
		return r.fallback, true
	}
	return nil, false
}

// Load implements Loader
func (r *Router) Load(ctx context.Context, addr *url.URL) (any, error) {
	l, ok := r.Match(addr)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoRoute, address.Key(addr))
	}
	return l.Load(ctx, addr)
}

func routeKey(u *url.URL) string {
	base := address.RemoveFragment(u)
	if base == nil {
		return ""
	}
	if base.RawQuery == "" && !base.ForceQuery {
		return base.String()
	}
	stripped := *base
	stripped.RawQuery = ""
	stripped.ForceQuery = false
	return stripped.String()
}
