package tracing

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func newObserved(t *testing.T) (*Tracer, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zap.DebugLevel)
	tracer := New("test", zap.New(core))
	t.Cleanup(tracer.Close)
	return tracer, logs
}

func TestStartSpanNests(t *testing.T) {
	tracer, _ := newObserved(t)

	parent, ctx := tracer.StartSpan(context.Background(), "parent")
	child, childCtx := tracer.StartSpan(ctx, "child")

	assert.NotEmpty(t, parent.TraceID)
	assert.Equal(t, parent.TraceID, child.TraceID)
	assert.Equal(t, parent.SpanID, child.ParentID)
	assert.Empty(t, parent.ParentID)
	assert.Equal(t, child.SpanID, SpanIDFrom(childCtx))
	assert.Equal(t, parent.TraceID, TraceIDFrom(childCtx))
}

func TestEndLogsSpan(t *testing.T) {
	tracer, logs := newObserved(t)

	span, _ := tracer.StartSpan(context.Background(), "fetch")
	span.SetTag("url", "http://example.com")
	tracer.End(span)

	failed, _ := tracer.StartSpan(context.Background(), "fetch")
	failed.SetError(errors.New("boom"))
	tracer.End(failed)

	require.Eventually(t, func() bool { return logs.Len() == 2 }, time.Second, time.Millisecond)
	entries := logs.All()
	assert.Equal(t, "Span completed", entries[0].Message)
	assert.Equal(t, "http://example.com", entries[0].ContextMap()["url"])
	assert.Equal(t, "Span completed with error", entries[1].Message)
	assert.Equal(t, "boom", entries[1].ContextMap()["error"])
}

func TestNilTracer(t *testing.T) {
	var tracer *Tracer
	ctx := context.Background()

	span, got := tracer.StartSpan(ctx, "noop")
	assert.Nil(t, span)
	assert.Equal(t, ctx, got)

	span.SetTag("k", "v")
	span.SetStatus(http.StatusOK)
	span.SetError(errors.New("ignored"))
	tracer.End(span)
	tracer.Close()
}

func TestPropagation(t *testing.T) {
	h := http.Header{}
	Inject(context.Background(), h)
	assert.Empty(t, h)

	ctx := WithSpan(context.Background(), "trace-1", "span-1")
	Inject(ctx, h)
	assert.Equal(t, "trace-1", h.Get(TraceHeader))
	assert.Equal(t, "span-1", h.Get(SpanHeader))

	back := Extract(context.Background(), h)
	assert.Equal(t, TraceID("trace-1"), TraceIDFrom(back))
	assert.Equal(t, SpanID("span-1"), SpanIDFrom(back))
}

func TestHTTPMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tracer, logs := newObserved(t)

	var seen TraceID
	router := gin.New()
	router.Use(HTTPMiddleware(tracer))
	router.GET("/frames/:id", func(c *gin.Context) {
		seen = TraceIDFrom(c.Request.Context())
		c.Status(http.StatusNotFound)
	})

	req := httptest.NewRequest(http.MethodGet, "/frames/x", nil)
	req.Header.Set(TraceHeader, "upstream")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, TraceID("upstream"), seen)
	assert.Equal(t, "upstream", w.Header().Get(TraceHeader))
	assert.NotEmpty(t, w.Header().Get(SpanHeader))

	require.Eventually(t, func() bool { return logs.Len() == 1 }, time.Second, time.Millisecond)
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "GET /frames/:id", fields["operation"])
	assert.Equal(t, "404", fields["http.status"])
}
