// Package cache implements the per-frame content cache and its keep-alive
// policy.
//
// Entries are keyed by the base address (fragment removed). Whether content
// is stored at all is decided by ShouldKeep: an explicit override from the
// side-table wins, then a KeepAliveHint on the content, then the store's
// default. Turning the default off drops every entry; there is no eviction
// order because clearing is all-or-nothing.
//
// A Store is owned by one frame and touched only from that frame's
// dispatcher goroutine, so it carries no lock.
package cache

import (
	"net/url"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/framenav/internal/infrastructure/logging"
	"github.com/GriffinCanCode/framenav/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/framenav/internal/navigation/address"
)

// Store maps base addresses to loaded content
type Store struct {
	entries          map[string]any
	keepAliveDefault bool
	overrides        *Overrides
	metrics          *monitoring.Metrics
	logger           *zap.Logger
}

// New creates a store with the given keep-alive default
func New(keepAliveDefault bool) *Store {
	return &Store{
		entries:          make(map[string]any),
		keepAliveDefault: keepAliveDefault,
		overrides:        defaultOverrides,
		logger:           zap.NewNop(),
	}
}

// WithOverrides replaces the side-table consulted by ShouldKeep
func (s *Store) WithOverrides(o *Overrides) *Store {
	if o != nil {
		s.overrides = o
	}
	return s
}

// WithMetrics attaches a metrics collector
func (s *Store) WithMetrics(m *monitoring.Metrics) *Store {
	s.metrics = m
	return s
}

// WithLogger attaches a logger
func (s *Store) WithLogger(l *zap.Logger) *Store {
	s.logger = logging.OrNop(l)
	return s
}

// Get returns the content cached for base
func (s *Store) Get(base *url.URL) (any, bool) {
	content, ok := s.entries[address.Key(base)]
	s.metrics.RecordCacheLookup(ok)
	return content, ok
}

// Put stores content under base, replacing any previous entry
func (s *Store) Put(base *url.URL, content any) {
	key := address.Key(base)
	if _, exists := s.entries[key]; !exists {
		s.metrics.AddCacheEntries(1)
	}
	s.entries[key] = content
}

// Clear drops every entry
func (s *Store) Clear() {
	n := len(s.entries)
	if n == 0 {
		return
	}
	clear(s.entries)
	s.metrics.RecordCacheClear(n)
	s.logger.Debug("Content cache cleared", zap.Int("entries", n))
}

// Len returns the number of cached entries
func (s *Store) Len() int {
	return len(s.entries)
}

// Keys returns the cached base addresses
func (s *Store) Keys() []string {
	keys := make([]string, 0, len(s.entries))
	for k := range s.entries {
		keys = append(keys, k)
	}
	return keys
}

// KeepAliveDefault reports the store-wide keep-alive policy
func (s *Store) KeepAliveDefault() bool {
	return s.keepAliveDefault
}

// SetKeepAliveDefault changes the store-wide policy. Switching it off
// clears the cache; switching it back on does not repopulate it.
func (s *Store) SetKeepAliveDefault(keep bool) {
	prev := s.keepAliveDefault
	s.keepAliveDefault = keep
	if prev && !keep {
		s.Clear()
	}
}

// ShouldKeep reports whether content should be cached after loading
func (s *Store) ShouldKeep(content any) bool {
	if content != nil {
		if keep, ok := s.overrides.Resolve(content); ok {
			return keep
		}
	}
	return s.keepAliveDefault
}
