package http

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/GriffinCanCode/framenav/internal/app"
	"github.com/GriffinCanCode/framenav/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/framenav/internal/infrastructure/resilience"
	"github.com/GriffinCanCode/framenav/internal/shared/id"
	"github.com/GriffinCanCode/framenav/internal/types"
)

// Version is reported by the root endpoint
const Version = "1.0.0"

// BreakerStater reports the state of the remote content circuit breaker
type BreakerStater interface {
	BreakerState() resilience.State
}

// Handlers contains all HTTP handlers
type Handlers struct {
	manager *app.Manager
	metrics *monitoring.Metrics
	remote  BreakerStater
	timeout time.Duration
	started time.Time
}

// NewHandlers creates a new handler set. remote may be nil when no HTTP
// loader is configured.
func NewHandlers(manager *app.Manager, metrics *monitoring.Metrics, remote BreakerStater) *Handlers {
	return &Handlers{
		manager: manager,
		metrics: metrics,
		remote:  remote,
		timeout: 5 * time.Second,
		started: time.Now(),
	}
}

type createFrameRequest struct {
	Name   string `json:"name"`
	Parent string `json:"parent"`
}

type navigateRequest struct {
	URI string `json:"uri"`
}

type keepAliveRequest struct {
	Enabled *bool `json:"enabled"`
}

// Register mounts the frame routes on r
func (h *Handlers) Register(r gin.IRoutes) {
	r.GET("/", h.Root)
	r.GET("/health", h.Health)
	r.GET("/metrics/json", h.MetricsJSON)

	r.GET("/frames", h.ListFrames)
	r.POST("/frames", h.CreateFrame)
	r.GET("/frames/:id", h.GetFrame)
	r.DELETE("/frames/:id", h.CloseFrame)
	r.POST("/frames/:id/navigate", h.Navigate)
	r.POST("/frames/:id/back", h.Back)
	r.POST("/frames/:id/refresh", h.Refresh)
	r.POST("/frames/:id/history/clear", h.ClearHistory)
	r.GET("/frames/:id/copy", h.Copy)
	r.PUT("/frames/:id/keep-alive", h.SetKeepAlive)
}

// Root identifies the service
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "online",
		"service": "framenav",
		"version": Version,
	})
}

// Health handles detailed health check
func (h *Handlers) Health(c *gin.Context) {
	ctx, cancel := h.context(c)
	defer cancel()

	stats, err := h.manager.Stats(ctx)
	if err != nil {
		// the control goroutine is not answering
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": err.Error()})
		return
	}

	remote := gin.H{"configured": h.remote != nil}
	if h.remote != nil {
		remote["breaker"] = h.remote.BreakerState().String()
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"uptime": time.Since(h.started).Round(time.Second).String(),
		"frames": stats,
		"remote": remote,
	})
}

// MetricsJSON returns the running navigation totals
func (h *Handlers) MetricsJSON(c *gin.Context) {
	c.JSON(http.StatusOK, h.metrics.Snapshot())
}

// ListFrames lists all frames
func (h *Handlers) ListFrames(c *gin.Context) {
	ctx, cancel := h.context(c)
	defer cancel()

	frames, err := h.manager.List(ctx)
	if err != nil {
		h.fail(c, err)
		return
	}
	stats, err := h.manager.Stats(ctx)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"frames": frames,
		"stats":  stats,
	})
}

// CreateFrame spawns a frame, nested under parent when one is given
func (h *Handlers) CreateFrame(c *gin.Context) {
	var req createFrameRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if err := validateString(req.Name, "name", MaxNameLength, false); err != nil {
		h.fail(c, err)
		return
	}

	var parent id.FrameID
	if req.Parent != "" {
		var err error
		if parent, err = validateFrameID(req.Parent, "parent"); err != nil {
			h.fail(c, err)
			return
		}
	}

	ctx, cancel := h.context(c)
	defer cancel()

	view, err := h.manager.Spawn(ctx, req.Name, parent)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.Header("Location", "/frames/"+view.ID)
	c.JSON(http.StatusCreated, view)
}

// GetFrame returns one frame
func (h *Handlers) GetFrame(c *gin.Context) {
	fid, ok := h.frameID(c)
	if !ok {
		return
	}
	ctx, cancel := h.context(c)
	defer cancel()

	view, err := h.manager.Get(ctx, fid)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// CloseFrame closes a frame and the frames nested in it
func (h *Handlers) CloseFrame(c *gin.Context) {
	fid, ok := h.frameID(c)
	if !ok {
		return
	}
	ctx, cancel := h.context(c)
	defer cancel()

	if err := h.manager.Close(ctx, fid); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "frame_id": fid})
}

// Navigate sets a frame's target. Loading continues after the response.
func (h *Handlers) Navigate(c *gin.Context) {
	fid, ok := h.frameID(c)
	if !ok {
		return
	}
	var req navigateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if err := validateAddress(req.URI); err != nil {
		h.fail(c, err)
		return
	}

	ctx, cancel := h.context(c)
	defer cancel()

	view, err := h.manager.Navigate(ctx, fid, req.URI)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusAccepted, view)
}

// Back navigates a frame to its previous address
func (h *Handlers) Back(c *gin.Context) {
	h.command(c, h.manager.Back)
}

// Refresh reloads a frame's address
func (h *Handlers) Refresh(c *gin.Context) {
	h.command(c, h.manager.Refresh)
}

// ClearHistory empties a frame's back stack
func (h *Handlers) ClearHistory(c *gin.Context) {
	fid, ok := h.frameID(c)
	if !ok {
		return
	}
	ctx, cancel := h.context(c)
	defer cancel()

	view, err := h.manager.ClearHistory(ctx, fid)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// Copy returns the text rendering of a frame's content
func (h *Handlers) Copy(c *gin.Context) {
	fid, ok := h.frameID(c)
	if !ok {
		return
	}
	ctx, cancel := h.context(c)
	defer cancel()

	text, err := h.manager.Copy(ctx, fid)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"frame_id": fid, "text": text})
}

// SetKeepAlive changes a frame's content caching default
func (h *Handlers) SetKeepAlive(c *gin.Context) {
	fid, ok := h.frameID(c)
	if !ok {
		return
	}
	var req keepAliveRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Enabled == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "enabled is required"})
		return
	}

	ctx, cancel := h.context(c)
	defer cancel()

	view, err := h.manager.SetKeepAlive(ctx, fid, *req.Enabled)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *Handlers) command(c *gin.Context, run func(context.Context, id.FrameID) (types.Frame, bool, error)) {
	fid, ok := h.frameID(c)
	if !ok {
		return
	}
	ctx, cancel := h.context(c)
	defer cancel()

	view, navigated, err := run(ctx, fid)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"navigated": navigated, "frame": view})
}

func (h *Handlers) frameID(c *gin.Context) (id.FrameID, bool) {
	fid, err := validateFrameID(c.Param("id"), "id")
	if err != nil {
		h.fail(c, err)
		return "", false
	}
	return fid, true
}

func (h *Handlers) context(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), h.timeout)
}

// fail maps manager and validation errors to responses
func (h *Handlers) fail(c *gin.Context, err error) {
	_ = c.Error(err)

	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, errInvalid):
		status = http.StatusBadRequest
	case errors.Is(err, app.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, app.ErrNoContent):
		status = http.StatusConflict
	case errors.Is(err, context.DeadlineExceeded):
		status = http.StatusServiceUnavailable
	case errors.Is(err, context.Canceled):
		// client went away
		status = 499
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
