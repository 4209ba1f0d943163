package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/framenav/internal/infrastructure/logging"
	"github.com/GriffinCanCode/framenav/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/framenav/internal/navigation/cache"
	"github.com/GriffinCanCode/framenav/internal/navigation/dispatch"
	"github.com/GriffinCanCode/framenav/internal/navigation/frame"
	"github.com/GriffinCanCode/framenav/internal/navigation/loader"
	"github.com/GriffinCanCode/framenav/internal/shared/id"
	"github.com/GriffinCanCode/framenav/internal/types"
)

var (
	ErrNotFound  = errors.New("frame not found")
	ErrNoContent = errors.New("frame has no content to copy")
)

// Config holds the defaults applied to spawned frames
type Config struct {
	KeepContentAlive bool
	// Home is navigated to by every new frame; empty leaves frames blank
	Home string
}

// Manager owns the frame tree behind the API. Every frame operation is
// marshalled onto the dispatcher, which must be pumped with Run.
type Manager struct {
	dispatcher *dispatch.Dispatcher
	host       *frame.NodeTree
	tree       *frame.Tree
	loader     loader.Loader
	overrides  *cache.Overrides
	cfg        Config

	ctx     context.Context
	metrics *monitoring.Metrics
	logger  *zap.Logger

	mu        sync.RWMutex
	observers []Observer

	// control goroutine only
	created  map[id.FrameID]time.Time
	releases map[id.FrameID][]func()
}

// Observer is called for every spawned frame. The func it returns, if any,
// runs when the frame is closed.
type Observer func(*frame.Frame) (release func())

// NewManager creates a manager whose frames load through l
func NewManager(d *dispatch.Dispatcher, l loader.Loader, cfg Config) *Manager {
	host := frame.NewNodeTree()
	return &Manager{
		dispatcher: d,
		host:       host,
		tree:       frame.NewTree(host, d),
		loader:     l,
		overrides:  cache.NewOverrides(),
		cfg:        cfg,
		ctx:        context.Background(),
		logger:     zap.NewNop(),
		created:    make(map[id.FrameID]time.Time),
		releases:   make(map[id.FrameID][]func()),
	}
}

// WithLogger attaches a logger
func (m *Manager) WithLogger(l *zap.Logger) *Manager {
	m.logger = logging.OrNop(l).Named("frames")
	m.tree.WithLogger(m.logger)
	return m
}

// WithMetrics attaches a metrics collector to every spawned frame
func (m *Manager) WithMetrics(metrics *monitoring.Metrics) *Manager {
	m.metrics = metrics
	return m
}

// WithContext sets the context content loads derive from. Cancelling it
// aborts every in-flight load.
func (m *Manager) WithContext(ctx context.Context) *Manager {
	if ctx != nil {
		m.ctx = ctx
	}
	return m
}

// Observe registers fn to be called on the control goroutine for every
// frame spawned afterwards, before its first navigation.
func (m *Manager) Observe(fn Observer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.observers = append(m.observers, fn)
}

// Tree returns the frame tree. It must only be used on the control
// goroutine.
func (m *Manager) Tree() *frame.Tree { return m.tree }

// Overrides returns the keep-alive side-table shared by all frames
func (m *Manager) Overrides() *cache.Overrides { return m.overrides }

// Spawn creates a frame. With an empty parent the frame gets a root node of
// its own; otherwise its node is nested under the parent frame's node.
func (m *Manager) Spawn(ctx context.Context, name string, parent id.FrameID) (types.Frame, error) {
	var view types.Frame
	err := m.invoke(ctx, func() error {
		var parentNode id.NodeID
		if parent != "" {
			p := m.tree.Lookup(parent)
			if p == nil {
				return fmt.Errorf("%w: %s", ErrNotFound, parent)
			}
			parentNode = p.Node()
		}

		f, err := m.spawn(name, parentNode)
		if err != nil {
			return err
		}
		view = m.view(f)
		return nil
	})
	return view, err
}

// spawn runs on the control goroutine
func (m *Manager) spawn(name string, parentNode id.NodeID) (*frame.Frame, error) {
	f, err := frame.New(name, m.dispatcher, m.loader)
	if err != nil {
		return nil, err
	}
	f.WithLogger(m.logger).
		WithMetrics(m.metrics).
		WithContext(m.ctx).
		WithKeepAliveOverrides(m.overrides)
	f.SetKeepContentAlive(m.cfg.KeepContentAlive)

	node, err := m.host.Add(parentNode)
	if err != nil {
		return nil, err
	}
	if err := m.tree.Attach(f, node); err != nil {
		m.host.Remove(node)
		return nil, err
	}
	m.created[f.ID()] = time.Now()

	m.mu.RLock()
	observers := m.observers
	m.mu.RUnlock()
	for _, fn := range observers {
		if release := fn(f); release != nil {
			m.releases[f.ID()] = append(m.releases[f.ID()], release)
		}
	}

	m.logger.Info("Frame spawned",
		zap.String("frame", f.ID().String()),
		zap.String("name", name),
		zap.String("node", node.String()))

	if m.cfg.Home != "" {
		if err := f.Navigate(m.cfg.Home); err != nil {
			m.logger.Warn("Invalid home address", zap.String("home", m.cfg.Home), zap.Error(err))
		}
	}
	return f, nil
}

// Get returns a frame's view
func (m *Manager) Get(ctx context.Context, fid id.FrameID) (types.Frame, error) {
	return m.update(ctx, fid, func(*frame.Frame) error { return nil })
}

// List returns every frame ordered by id
func (m *Manager) List(ctx context.Context) ([]types.Frame, error) {
	var views []types.Frame
	err := m.invoke(ctx, func() error {
		frames := m.tree.Frames()
		views = make([]types.Frame, 0, len(frames))
		for _, f := range frames {
			views = append(views, m.view(f))
		}
		return nil
	})
	return views, err
}

// Navigate points the frame at uri. The load completes asynchronously.
func (m *Manager) Navigate(ctx context.Context, fid id.FrameID, uri string) (types.Frame, error) {
	return m.update(ctx, fid, func(f *frame.Frame) error {
		return f.Navigate(uri)
	})
}

// Back navigates to the previous address; ok is false when the back stack
// is empty or the navigation was vetoed.
func (m *Manager) Back(ctx context.Context, fid id.FrameID) (view types.Frame, ok bool, err error) {
	view, err = m.update(ctx, fid, func(f *frame.Frame) error {
		ok = f.BrowseBack()
		return nil
	})
	return view, ok, err
}

// Refresh reloads the current address bypassing the cache
func (m *Manager) Refresh(ctx context.Context, fid id.FrameID) (view types.Frame, ok bool, err error) {
	view, err = m.update(ctx, fid, func(f *frame.Frame) error {
		ok = f.Refresh()
		return nil
	})
	return view, ok, err
}

// ClearHistory empties the back stack
func (m *Manager) ClearHistory(ctx context.Context, fid id.FrameID) (types.Frame, error) {
	return m.update(ctx, fid, func(f *frame.Frame) error {
		f.ClearHistory()
		return nil
	})
}

// SetKeepAlive changes the frame's caching default
func (m *Manager) SetKeepAlive(ctx context.Context, fid id.FrameID, keep bool) (types.Frame, error) {
	return m.update(ctx, fid, func(f *frame.Frame) error {
		f.SetKeepContentAlive(keep)
		return nil
	})
}

// Copy returns the textual rendering of the frame's content
func (m *Manager) Copy(ctx context.Context, fid id.FrameID) (string, error) {
	var text string
	_, err := m.update(ctx, fid, func(f *frame.Frame) error {
		var ok bool
		if text, ok = f.CopyText(); !ok {
			return ErrNoContent
		}
		return nil
	})
	return text, err
}

// Close closes the frame and every frame nested under it, and removes
// their nodes.
func (m *Manager) Close(ctx context.Context, fid id.FrameID) error {
	return m.invoke(ctx, func() error {
		f := m.tree.Lookup(fid)
		if f == nil {
			return fmt.Errorf("%w: %s", ErrNotFound, fid)
		}
		node := f.Node()
		for _, other := range m.tree.Frames() {
			if m.within(other.Node(), node) {
				other.Close()
				for _, release := range m.releases[other.ID()] {
					release()
				}
				delete(m.releases, other.ID())
				delete(m.created, other.ID())
			}
		}
		m.host.Remove(node)
		m.logger.Info("Frame closed", zap.String("frame", fid.String()))
		return nil
	})
}

// within reports whether node is root or lies below it
func (m *Manager) within(node, root id.NodeID) bool {
	for n, ok := node, true; ok; n, ok = m.host.Parent(n) {
		if n == root {
			return true
		}
	}
	return false
}

// Stats summarises the frames
func (m *Manager) Stats(ctx context.Context) (types.Stats, error) {
	var stats types.Stats
	err := m.invoke(ctx, func() error {
		for _, f := range m.tree.Frames() {
			stats.TotalFrames++
			if f.IsLoading() {
				stats.LoadingFrames++
			}
			if _, failed := f.Content().(error); failed {
				stats.FailedFrames++
			}
			stats.CachedEntries += f.Cache().Len()
		}
		return nil
	})
	return stats, err
}

// update runs fn against a frame on the control goroutine and returns the
// frame's view afterwards
func (m *Manager) update(ctx context.Context, fid id.FrameID, fn func(*frame.Frame) error) (types.Frame, error) {
	var view types.Frame
	err := m.invoke(ctx, func() error {
		f := m.tree.Lookup(fid)
		if f == nil {
			return fmt.Errorf("%w: %s", ErrNotFound, fid)
		}
		if err := fn(f); err != nil {
			return err
		}
		view = m.view(f)
		return nil
	})
	return view, err
}

func (m *Manager) invoke(ctx context.Context, fn func() error) error {
	var err error
	if ierr := m.dispatcher.Invoke(ctx, func() { err = fn() }); ierr != nil {
		return ierr
	}
	return err
}
