package frame

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"slices"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/framenav/internal/infrastructure/logging"
	"github.com/GriffinCanCode/framenav/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/framenav/internal/navigation/address"
	"github.com/GriffinCanCode/framenav/internal/navigation/cache"
	"github.com/GriffinCanCode/framenav/internal/navigation/dispatch"
	"github.com/GriffinCanCode/framenav/internal/navigation/loader"
	"github.com/GriffinCanCode/framenav/internal/shared/id"
)

var (
	ErrNilLoader     = errors.New("content loader must not be nil")
	ErrNilDispatcher = errors.New("dispatcher must not be nil")
)

// State is the coarse navigation state of a frame
type State int

const (
	StateIdle State = iota
	StateNavigating
	StateError
)

// String returns the string representation of the state
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateNavigating:
		return "navigating"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// Frame is one navigation host. All methods must be called on the
// frame's dispatcher goroutine.
type Frame struct {
	id         id.FrameID
	name       string
	dispatcher *dispatch.Dispatcher
	loader     loader.Loader
	cache      *cache.Store

	target  *url.URL
	content any
	history []*url.URL
	state   State
	loading bool

	navigatingHistory bool
	resettingTarget   bool

	// in-flight load
	generation uint64
	cancel     context.CancelFunc
	baseCtx    context.Context

	// frame tree
	tree     *Tree
	node     id.NodeID
	children []id.FrameID
	closed   bool

	navigating handlers[NavigatingEvent]
	navigated  handlers[NavigatedEvent]
	failed     handlers[FailedEvent]
	fragment   handlers[FragmentEvent]

	metrics *monitoring.Metrics
	logger  *zap.Logger
}

// New creates an idle frame bound to d that loads content through l.
// Content caching is on by default.
func New(name string, d *dispatch.Dispatcher, l loader.Loader) (*Frame, error) {
	if d == nil {
		return nil, ErrNilDispatcher
	}
	if l == nil {
		return nil, ErrNilLoader
	}

	return &Frame{
		id:         id.NewFrameID(),
		name:       name,
		dispatcher: d,
		loader:     l,
		cache:      cache.New(true),
		baseCtx:    context.Background(),
		logger:     zap.NewNop(),
	}, nil
}

// WithLogger attaches a logger
func (f *Frame) WithLogger(l *zap.Logger) *Frame {
	f.logger = logging.OrNop(l).With(zap.String("frame", f.id.String()))
	f.cache.WithLogger(f.logger)
	return f
}

// WithMetrics attaches a metrics collector
func (f *Frame) WithMetrics(m *monitoring.Metrics) *Frame {
	f.metrics = m
	f.cache.WithMetrics(m)
	return f
}

// WithContext sets the parent context of every content load
func (f *Frame) WithContext(ctx context.Context) *Frame {
	if ctx != nil {
		f.baseCtx = ctx
	}
	return f
}

// WithKeepAliveOverrides replaces the keep-alive side-table of the cache
func (f *Frame) WithKeepAliveOverrides(o *cache.Overrides) *Frame {
	f.cache.WithOverrides(o)
	return f
}

// ID returns the frame identifier
func (f *Frame) ID() id.FrameID { return f.id }

// Name returns the frame name used by FindFrame
func (f *Frame) Name() string { return f.name }

// Dispatcher returns the dispatcher that owns this frame
func (f *Frame) Dispatcher() *dispatch.Dispatcher { return f.dispatcher }

// Node returns the host node the frame is attached to
func (f *Frame) Node() id.NodeID { return f.node }

// Target returns the current target address, which may be nil
func (f *Frame) Target() *url.URL { return f.target }

// Content returns the displayed content. After an unhandled load failure
// it is the error itself.
func (f *Frame) Content() any { return f.content }

// IsLoading reports whether a navigation is underway
func (f *Frame) IsLoading() bool { return f.loading }

// State returns the navigation state
func (f *Frame) State() State { return f.state }

// History returns a copy of the back stack, oldest first
func (f *Frame) History() []*url.URL { return slices.Clone(f.history) }

// Closed reports whether Close has been called
func (f *Frame) Closed() bool { return f.closed }

// ContentLoader returns the loader
func (f *Frame) ContentLoader() loader.Loader { return f.loader }

// SetContentLoader replaces the loader used by subsequent navigations
func (f *Frame) SetContentLoader(l loader.Loader) error {
	if l == nil {
		return ErrNilLoader
	}
	f.loader = l
	return nil
}

// KeepContentAlive reports the frame-wide caching default
func (f *Frame) KeepContentAlive() bool { return f.cache.KeepAliveDefault() }

// SetKeepContentAlive changes the caching default. Turning it off drops
// every cached entry.
func (f *Frame) SetKeepContentAlive(keep bool) {
	f.cache.SetKeepAliveDefault(keep)
}

// Cache exposes the frame's content cache
func (f *Frame) Cache() *cache.Store { return f.cache }

// ClearHistory empties the back stack
func (f *Frame) ClearHistory() {
	f.history = nil
}

// CanBrowseBack reports whether the back stack is non-empty
func (f *Frame) CanBrowseBack() bool { return len(f.history) > 0 }

// CanRefresh reports whether there is a target to reload
func (f *Frame) CanRefresh() bool { return f.target != nil }

// CanCopy reports whether there is content to copy
func (f *Frame) CanCopy() bool { return f.content != nil }

// CanGoToPage reports whether param can be turned into an address
func (f *Frame) CanGoToPage(param any) bool {
	_, ok := address.ResolveTarget(param)
	return ok
}

// GoToPage navigates to param, which may be a *url.URL or a string
func (f *Frame) GoToPage(param any) bool {
	u, ok := address.ResolveTarget(param)
	if !ok {
		return false
	}
	f.SetTarget(u)
	return true
}

// CopyText returns a textual rendering of the content
func (f *Frame) CopyText() (string, bool) {
	switch c := f.content.(type) {
	case nil:
		return "", false
	case interface{ Text() string }:
		return c.Text(), true
	case error:
		return c.Error(), true
	case fmt.Stringer:
		return c.String(), true
	default:
		return fmt.Sprint(c), true
	}
}

// Close cancels any in-flight load and removes the frame from its tree.
// Completions that arrive later are dropped.
func (f *Frame) Close() {
	if f.closed {
		return
	}
	f.cancelLoad()
	f.generation++
	f.loading = false
	f.state = StateIdle
	f.closed = true
	if f.tree != nil {
		f.tree.forget(f)
	}
	f.logger.Debug("Frame closed")
}

func (f *Frame) cancelLoad() {
	if f.cancel != nil {
		f.cancel()
		f.cancel = nil
	}
}
