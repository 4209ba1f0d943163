package loader

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"

	"github.com/GriffinCanCode/framenav/internal/navigation/address"
)

var (
	ErrNotFound          = errors.New("content not found")
	ErrNoRoute           = errors.New("no loader route matches address")
	ErrUnsupportedScheme = errors.New("unsupported address scheme")
	ErrStatus            = errors.New("unexpected response status")
	ErrTooLarge          = errors.New("content exceeds size limit")
)

// Loader produces the content for an address. Implementations must honour
// ctx cancellation and must not touch frame state.
type Loader interface {
	Load(ctx context.Context, addr *url.URL) (any, error)
}

// Func adapts a function to the Loader interface
type Func func(ctx context.Context, addr *url.URL) (any, error)

// Load calls f
func (f Func) Load(ctx context.Context, addr *url.URL) (any, error) {
	return f(ctx, addr)
}

// Static serves content from an in-memory table keyed by base address.
// It is safe for concurrent use.
type Static struct {
	mu      sync.RWMutex
	content map[string]any
}

// NewStatic creates a table from address → content pairs
func NewStatic(entries map[string]any) *Static {
	s := &Static{content: make(map[string]any, len(entries))}
	for k, v := range entries {
		s.Set(k, v)
	}
	return s
}

// Set registers content for addr (its fragment is ignored)
func (s *Static) Set(addr string, content any) {
	key := addr
	if u, err := url.Parse(addr); err == nil {
		key = address.Key(u)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.content[key] = content
}

// Load returns the registered content or ErrNotFound
func (s *Static) Load(ctx context.Context, addr *url.URL) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	content, ok := s.content[address.Key(addr)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, address.Key(addr))
	}
	return content, nil
}
