package frame

import (
	"net/url"
	"slices"
)

// Intent is the reason class of a navigation
type Intent int

const (
	// IntentNew pushes the previous address onto the history
	IntentNew Intent = iota
	// IntentBack pops the history
	IntentBack
	// IntentRefresh reloads the current address, bypassing the cache
	IntentRefresh
)

// String returns the string representation of the intent
func (i Intent) String() string {
	switch i {
	case IntentNew:
		return "New"
	case IntentBack:
		return "Back"
	case IntentRefresh:
		return "Refresh"
	default:
		return "Unknown"
	}
}

// NavigatingEvent is raised before a navigation starts. Any participant
// may set Cancel to veto it.
type NavigatingEvent struct {
	Frame  *Frame
	Source *url.URL
	Intent Intent
	// IsParentFrameNavigating is true while the event is delivered to a
	// frame other than the one navigating.
	IsParentFrameNavigating bool
	Cancel                  bool
}

// NavigatedEvent is raised when new content has been set
type NavigatedEvent struct {
	Frame   *Frame
	Source  *url.URL
	Content any
	Intent  Intent
}

// FailedEvent is raised when the content loader fails. Setting Handled
// keeps the current content instead of displaying the error.
type FailedEvent struct {
	Frame   *Frame
	Source  *url.URL
	Error   error
	Handled bool
}

// FragmentEvent is raised when only the fragment of the address changes,
// and after a successful navigation to an address with a fragment.
type FragmentEvent struct {
	Frame    *Frame
	Fragment string
}

// Lifecycle is implemented by content that wants to take part in the
// navigations that show or hide it.
type Lifecycle interface {
	// OnNavigatingFrom is called before the content is navigated away
	// from; setting e.Cancel vetoes the navigation.
	OnNavigatingFrom(e *NavigatingEvent)
	OnNavigatedFrom(e *NavigatedEvent)
	OnNavigatedTo(e *NavigatedEvent)
	OnFragmentNavigation(e *FragmentEvent)
}

type handler[E any] struct {
	id int
	fn func(*E)
}

// handlers is an ordered subscriber list. Emission works on a snapshot so
// handlers may unsubscribe while being called.
type handlers[E any] struct {
	nextID int
	list   []handler[E]
}

func (h *handlers[E]) add(fn func(*E)) func() {
	h.nextID++
	hid := h.nextID
	h.list = append(h.list, handler[E]{id: hid, fn: fn})

	return func() {
		h.list = slices.DeleteFunc(h.list, func(x handler[E]) bool { return x.id == hid })
	}
}

func (h *handlers[E]) emit(e *E) {
	for _, x := range slices.Clone(h.list) {
		x.fn(e)
	}
}

func (h *handlers[E]) len() int {
	return len(h.list)
}

// OnNavigating subscribes to cancelable navigation notifications. It
// returns a function that removes the subscription.
func (f *Frame) OnNavigating(fn func(*NavigatingEvent)) func() {
	return f.navigating.add(fn)
}

// OnNavigated subscribes to completed navigations
func (f *Frame) OnNavigated(fn func(*NavigatedEvent)) func() {
	return f.navigated.add(fn)
}

// OnNavigationFailed subscribes to loader failures
func (f *Frame) OnNavigationFailed(fn func(*FailedEvent)) func() {
	return f.failed.add(fn)
}

// OnFragmentNavigation subscribes to fragment navigations
func (f *Frame) OnFragmentNavigation(fn func(*FragmentEvent)) func() {
	return f.fragment.add(fn)
}

// raiseNavigating runs the cancellation gate: live children first (depth
// first), then content, then this frame's subscribers.
func (f *Frame) raiseNavigating(content any, e *NavigatingEvent) {
	for _, child := range f.liveChildren() {
		child.raiseNavigating(child.content, e)
	}

	e.IsParentFrameNavigating = e.Frame != f

	if lc, ok := content.(Lifecycle); ok {
		lc.OnNavigatingFrom(e)
	}
	f.navigating.emit(e)
}

func (f *Frame) raiseNavigated(oldContent, newContent any, e *NavigatedEvent) {
	if lc, ok := oldContent.(Lifecycle); ok {
		lc.OnNavigatedFrom(e)
	}
	if lc, ok := newContent.(Lifecycle); ok {
		lc.OnNavigatedTo(e)
	}
	f.navigated.emit(e)
}

func (f *Frame) raiseFragment(content any, e *FragmentEvent) {
	if lc, ok := content.(Lifecycle); ok {
		lc.OnFragmentNavigation(e)
	}
	f.fragment.emit(e)
}

func (f *Frame) raiseFailed(e *FailedEvent) {
	f.failed.emit(e)
}
