package cache

import (
	"errors"
	"reflect"
	"runtime"
	"strings"
	"sync"
)

var (
	ErrNilContent    = errors.New("keep-alive: content is nil")
	ErrNotComparable = errors.New("keep-alive: content is not comparable")
)

// KeepAliveHint is implemented by content that carries its own keep-alive
// preference. ok=false leaves the decision to the frame.
type KeepAliveHint interface {
	KeepAlive() (keep bool, ok bool)
}

// Overrides is a side-table of per-content keep-alive flags keyed by
// content identity. It is safe for concurrent use.
type Overrides struct {
	mu      sync.RWMutex
	entries map[any]bool
}

// NewOverrides creates an empty side-table
func NewOverrides() *Overrides {
	return &Overrides{entries: make(map[any]bool)}
}

// Set records the keep-alive flag for content. A nil value removes the
// override.
func (o *Overrides) Set(content any, value *bool) (err error) {
	if err := checkKey(content); err != nil {
		return err
	}
	defer unhashable(func() { err = ErrNotComparable })

	o.mu.Lock()
	defer o.mu.Unlock()

	if value == nil {
		delete(o.entries, content)
		return nil
	}
	o.entries[content] = *value
	return nil
}

// Get returns the keep-alive flag recorded for content, or nil.
func (o *Overrides) Get(content any) (flag *bool) {
	if checkKey(content) != nil {
		return nil
	}
	defer unhashable(func() { flag = nil })

	o.mu.RLock()
	defer o.mu.RUnlock()

	if v, ok := o.entries[content]; ok {
		return &v
	}
	return nil
}

// Resolve returns the effective override for content: the side-table
// entry first, then the content's own hint.
func (o *Overrides) Resolve(content any) (bool, bool) {
	if v := o.Get(content); v != nil {
		return *v, true
	}
	if hint, ok := content.(KeepAliveHint); ok {
		return hint.KeepAlive()
	}
	return false, false
}

func checkKey(content any) error {
	if content == nil {
		return ErrNilContent
	}
	if !reflect.TypeOf(content).Comparable() {
		return ErrNotComparable
	}
	return nil
}

// unhashable runs onPanic when the deferred-from function panicked while
// hashing a key. A comparable struct type can still hold a slice or map in
// an interface field; such values have no identity to key on.
func unhashable(onPanic func()) {
	r := recover()
	if r == nil {
		return
	}
	if err, ok := r.(runtime.Error); ok && strings.Contains(err.Error(), "unhashable") {
		onPanic()
		return
	}
	panic(r)
}

var defaultOverrides = NewOverrides()

// DefaultOverrides returns the process-wide side-table used by stores
// created without one.
func DefaultOverrides() *Overrides {
	return defaultOverrides
}

// SetKeepAlive sets whether content is kept alive in any frame.
// Nil leaves the decision to the frame.
func SetKeepAlive(content any, value *bool) error {
	return defaultOverrides.Set(content, value)
}

// KeepAlive returns the keep-alive flag set for content, or nil.
func KeepAlive(content any) *bool {
	return defaultOverrides.Get(content)
}

// Bool returns a pointer to v, for SetKeepAlive call sites.
func Bool(v bool) *bool {
	return &v
}
