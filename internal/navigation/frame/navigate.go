package frame

import (
	"context"
	"errors"
	"net/url"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/framenav/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/framenav/internal/navigation/address"
)

// load is one in-flight content load
type load struct {
	id         string
	generation uint64
	ctx        context.Context
	cancel     context.CancelFunc
	source     *url.URL
	base       *url.URL
	intent     Intent
	timer      *monitoring.Timer
}

// SetTarget changes the target address. Setting an address equal to the
// current one, fragment included, does nothing. A change that only
// touches the fragment raises fragment events without loading.
func (f *Frame) SetTarget(u *url.URL) {
	old := f.target
	if address.Equal(old, u) {
		return
	}
	f.target = u
	f.targetChanged(old, u)
}

// Navigate parses s and sets it as the target
func (f *Frame) Navigate(s string) error {
	u, err := address.Parse(s)
	if err != nil {
		return err
	}
	f.SetTarget(u)
	return nil
}

func (f *Frame) targetChanged(old, next *url.URL) {
	if f.resettingTarget {
		return
	}

	if address.SameBase(next, old) {
		fragment := address.Fragment(next)
		f.logger.Debug("Fragment navigation", zap.String("fragment", fragment))
		f.raiseFragment(f.content, &FragmentEvent{Frame: f, Fragment: fragment})
		f.metrics.RecordNavigation(IntentNew.String(), monitoring.OutcomeFragment)
		return
	}

	intent := IntentNew
	if f.navigatingHistory {
		intent = IntentBack
	}

	// BrowseBack has already run the gate
	if !f.navigatingHistory && !f.canNavigate(old, next, intent) {
		return
	}

	f.navigate(old, next, intent)
}

// BrowseBack navigates to the most recent history entry. It returns false
// when the history is empty or the navigation was vetoed.
func (f *Frame) BrowseBack() bool {
	if len(f.history) == 0 {
		return false
	}

	old := f.target
	prev := f.history[len(f.history)-1]
	if !f.canNavigate(old, prev, IntentBack) {
		return false
	}

	f.history = f.history[:len(f.history)-1]
	f.navigatingHistory = true
	defer func() { f.navigatingHistory = false }()
	f.SetTarget(prev)
	return true
}

// Refresh reloads the current target, bypassing the cache
func (f *Frame) Refresh() bool {
	if f.target == nil {
		return false
	}
	if !f.canNavigate(f.target, f.target, IntentRefresh) {
		return false
	}
	f.navigate(f.target, f.target, IntentRefresh)
	return true
}

// canNavigate raises the cancelable navigating event. When vetoed after
// the target already moved, the old target is restored in a later turn.
func (f *Frame) canNavigate(old, next *url.URL, intent Intent) bool {
	e := &NavigatingEvent{
		Frame:                   f,
		Source:                  next,
		Intent:                  intent,
		IsParentFrameNavigating: true,
	}
	f.raiseNavigating(f.content, e)
	if !e.Cancel {
		return true
	}

	f.logger.Debug("Navigation cancelled",
		zap.Stringer("intent", intent),
		zap.String("source", address.Key(next)))
	f.metrics.RecordNavigation(intent.String(), monitoring.OutcomeVetoed)

	if !address.Equal(f.target, old) {
		f.dispatcher.Post(func() {
			f.resettingTarget = true
			defer func() { f.resettingTarget = false }()
			f.SetTarget(old)
		})
	}
	return false
}

func (f *Frame) navigate(old, next *url.URL, intent Intent) {
	f.logger.Debug("Navigating",
		zap.Stringer("intent", intent),
		zap.String("from", address.Key(old)),
		zap.String("to", address.Key(next)))

	f.loading = true
	f.state = StateNavigating

	f.cancelLoad()
	f.generation++

	if old != nil && intent == IntentNew {
		f.history = append(f.history, old)
	}

	if next == nil {
		f.setContent(nil, intent, nil)
		f.metrics.RecordNavigation(intent.String(), monitoring.OutcomeEmpty)
		return
	}

	base := address.RemoveFragment(next)
	if intent != IntentRefresh {
		if content, ok := f.cache.Get(base); ok {
			f.setContent(next, intent, content)
			f.metrics.RecordNavigation(intent.String(), monitoring.OutcomeCached)
			return
		}
	}

	f.startLoad(next, base, intent)
}

func (f *Frame) startLoad(source, base *url.URL, intent Intent) {
	ctx, cancel := context.WithCancel(f.baseCtx)
	f.cancel = cancel

	req := &load{
		id:         uuid.NewString(),
		generation: f.generation,
		ctx:        ctx,
		cancel:     cancel,
		source:     source,
		base:       base,
		intent:     intent,
		timer:      monitoring.NewTimer(f.metrics, source.Scheme),
	}
	l := f.loader

	f.logger.Debug("Loading content",
		zap.String("load_id", req.id),
		zap.String("source", source.String()))

	f.dispatcher.Go(func() func() {
		content, err := l.Load(ctx, source)
		return func() { f.completeLoad(req, content, err) }
	})
}

func (f *Frame) completeLoad(req *load, content any, err error) {
	defer req.cancel()
	if req.generation == f.generation {
		f.cancel = nil
	}

	if req.ctx.Err() != nil || req.generation != f.generation || errors.Is(err, context.Canceled) {
		req.timer.Stop(monitoring.OutcomeCancelled)
		f.metrics.RecordNavigation(req.intent.String(), monitoring.OutcomeCancelled)
		f.logger.Debug("Stale load dropped", zap.String("load_id", req.id))
		return
	}

	if err != nil {
		f.fail(req, err)
		return
	}

	duration := req.timer.Stop(monitoring.OutcomeLoaded)
	f.metrics.RecordNavigation(req.intent.String(), monitoring.OutcomeLoaded)
	f.logger.Debug("Content loaded",
		zap.String("load_id", req.id),
		zap.Duration("duration", duration))

	if f.cache.ShouldKeep(content) {
		f.cache.Put(req.base, content)
	}
	f.setContent(req.source, req.intent, content)
}

// fail reports a load error to subscribers. Unless one of them marks it
// handled, the error becomes the displayed content.
func (f *Frame) fail(req *load, err error) {
	req.timer.Stop(monitoring.OutcomeFailed)
	f.metrics.RecordNavigation(req.intent.String(), monitoring.OutcomeFailed)
	f.logger.Warn("Content load failed",
		zap.String("load_id", req.id),
		zap.String("source", req.source.String()),
		zap.Error(err))

	f.state = StateError
	e := &FailedEvent{Frame: f, Source: req.source, Error: err}
	f.raiseFailed(e)

	if !e.Handled {
		f.content = err
	}
	f.loading = false
	f.state = StateIdle
}

func (f *Frame) setContent(source *url.URL, intent Intent, content any) {
	old := f.content
	f.content = content

	f.raiseNavigated(old, content, &NavigatedEvent{
		Frame:   f,
		Source:  source,
		Content: content,
		Intent:  intent,
	})

	f.loading = false
	f.state = StateIdle

	if fragment := address.Fragment(source); fragment != "" {
		f.raiseFragment(content, &FragmentEvent{Frame: f, Fragment: fragment})
	}
}
