package ws

import (
	"fmt"
	"net/url"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/framenav/internal/infrastructure/logging"
	"github.com/GriffinCanCode/framenav/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/framenav/internal/navigation/frame"
)

// Message types sent to clients
const (
	TypeSystem             = "system"
	TypeNavigating         = "navigating"
	TypeNavigated          = "navigated"
	TypeNavigationFailed   = "navigation_failed"
	TypeFragmentNavigation = "fragment_navigation"
	TypePong               = "pong"
	TypeError              = "error"
)

// DefaultBuffer is the number of messages queued per client before new
// ones are dropped
const DefaultBuffer = 64

// Message is one event log line
type Message struct {
	Type      string `json:"type"`
	Frame     string `json:"frame,omitempty"`
	Message   string `json:"message"`
	Timestamp int64  `json:"timestamp"`
}

type client struct {
	send chan Message
	// frame restricts delivery to one frame's events; empty means all
	frame string
}

// Hub fans frame events out to stream clients. It is safe for concurrent
// use; Watch must be called on the frame's control goroutine.
type Hub struct {
	mu      sync.RWMutex
	clients map[*client]struct{}
	buffer  int

	metrics *monitoring.Metrics
	logger  *zap.Logger
	now     func() time.Time
}

// NewHub creates a hub with no clients
func NewHub(metrics *monitoring.Metrics, logger *zap.Logger) *Hub {
	return &Hub{
		clients: make(map[*client]struct{}),
		buffer:  DefaultBuffer,
		metrics: metrics,
		logger:  logging.OrNop(logger).Named("stream"),
		now:     time.Now,
	}
}

// Watch publishes f's navigation events in the form
// "Navigating: [New] https://example.com/". The returned func stops it.
func (h *Hub) Watch(f *frame.Frame) (unwatch func()) {
	fid := f.ID().String()

	stops := []func(){
		f.OnNavigating(func(e *frame.NavigatingEvent) {
			h.Publish(TypeNavigating, fid, fmt.Sprintf("Navigating: [%s] %s", e.Intent, addressString(e.Source)))
		}),
		f.OnNavigated(func(e *frame.NavigatedEvent) {
			h.Publish(TypeNavigated, fid, fmt.Sprintf("Navigated: [%s] %s", e.Intent, addressString(e.Source)))
		}),
		f.OnNavigationFailed(func(e *frame.FailedEvent) {
			h.Publish(TypeNavigationFailed, fid, "NavigationFailed: "+e.Error.Error())
		}),
		f.OnFragmentNavigation(func(e *frame.FragmentEvent) {
			h.Publish(TypeFragmentNavigation, fid, "FragmentNavigation: "+e.Fragment)
		}),
	}
	return func() {
		for _, stop := range stops {
			stop()
		}
	}
}

// Publish queues a message for every interested client. Clients that are
// too slow to keep up lose the message.
func (h *Hub) Publish(msgType, frameID, text string) {
	msg := Message{
		Type:      msgType,
		Frame:     frameID,
		Message:   text,
		Timestamp: h.now().Unix(),
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		if c.frame != "" && c.frame != frameID {
			continue
		}
		h.enqueue(c, msg)
	}
}

// enqueue must be called with mu held
func (h *Hub) enqueue(c *client, msg Message) bool {
	select {
	case c.send <- msg:
		return true
	default:
		h.logger.Warn("Dropped stream message",
			zap.String("type", msg.Type),
			zap.String("frame", msg.Frame))
		return false
	}
}

// deliver queues msg for c alone if it is still subscribed
func (h *Hub) deliver(c *client, msg Message) bool {
	if msg.Timestamp == 0 {
		msg.Timestamp = h.now().Unix()
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	if _, ok := h.clients[c]; !ok {
		return false
	}
	return h.enqueue(c, msg)
}

func (h *Hub) subscribe(frameID string) *client {
	c := &client{send: make(chan Message, h.buffer), frame: frameID}

	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	h.metrics.IncWSConnections()
	return c
}

// unsubscribe removes c and closes its queue
func (h *Hub) unsubscribe(c *client) {
	h.mu.Lock()
	_, ok := h.clients[c]
	if ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()

	if ok {
		h.metrics.DecWSConnections()
	}
}

// Clients returns the number of connected clients
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func addressString(u *url.URL) string {
	if u == nil {
		return ""
	}
	return u.String()
}
