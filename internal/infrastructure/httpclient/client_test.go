package httpclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/framenav/internal/infrastructure/resilience"
	"github.com/GriffinCanCode/framenav/internal/infrastructure/tracing"
)

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Retries = 0
	cfg.Timeout = 5 * time.Second
	return cfg
}

func TestClientGet(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/old":
			http.Redirect(w, r, "/page", http.StatusFound)
		case "/page":
			assert.Equal(t, "framenav/1.0", r.Header.Get("User-Agent"))
			assert.Equal(t, "yes", r.Header.Get("X-Test"))
			w.Header().Set("Content-Type", "text/plain")
			_, _ = w.Write([]byte("hello"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := New(testConfig(), nil)
	c.SetHeader("X-Test", "yes")

	resp, err := c.Get(context.Background(), srv.URL+"/old")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "hello", string(resp.Body))
	assert.Equal(t, "text/plain", resp.ContentType())
	require.NotNil(t, resp.URL)
	assert.Equal(t, "/page", resp.URL.Path)

	resp, err = c.Get(context.Background(), srv.URL+"/missing")
	require.NoError(t, err, "client errors are not transport errors")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, resilience.StateClosed, c.BreakerState())
}

func TestClientServerErrorTripsBreaker(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := New(testConfig(), nil)
	for i := 0; i < 10; i++ {
		resp, err := c.Get(context.Background(), srv.URL)
		assert.ErrorIs(t, err, ErrServer)
		require.NotNil(t, resp)
		assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	}

	assert.Equal(t, resilience.StateOpen, c.BreakerState())
	_, err := c.Get(context.Background(), srv.URL)
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.EqualValues(t, 10, hits.Load(), "open breaker does not reach the host")
}

func TestClientRetries(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("finally"))
	}))
	defer srv.Close()

	cfg := testConfig()
	cfg.Retries = 3
	cfg.RetryWaitMin = time.Millisecond
	cfg.RetryWaitMax = 5 * time.Millisecond

	resp, err := New(cfg, nil).Get(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "finally", string(resp.Body))
	assert.EqualValues(t, 3, hits.Load())
}

func TestClientMaxBytes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("x", 64)))
	}))
	defer srv.Close()

	cfg := testConfig()
	cfg.MaxBytes = 16
	_, err := New(cfg, nil).Get(context.Background(), srv.URL)
	assert.ErrorIs(t, err, ErrTooLarge)

	cfg.MaxBytes = 64
	resp, err := New(cfg, nil).Get(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Len(t, resp.Body, 64)
}

func TestClientCancellationDoesNotTrip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	c := New(testConfig(), nil)
	for i := 0; i < 12; i++ {
		ctx, cancel := context.WithCancel(context.Background())
		time.AfterFunc(5*time.Millisecond, cancel)
		_, err := c.Get(ctx, srv.URL)
		assert.ErrorIs(t, err, context.Canceled)
	}
	assert.Equal(t, resilience.StateClosed, c.BreakerState())
}

func TestClientRateLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	c := New(testConfig(), nil)
	c.SetRateLimit(0.5)

	_, err := c.Get(context.Background(), srv.URL)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = c.Get(ctx, srv.URL)
	assert.Error(t, err, "second request waits longer than the deadline")
}

func TestClientPropagatesTrace(t *testing.T) {
	var traceID, parent string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID = r.Header.Get(tracing.TraceHeader)
		parent = r.Header.Get(tracing.SpanHeader)
	}))
	defer srv.Close()

	tracer := tracing.New("test", nil)
	defer tracer.Close()
	c := New(testConfig(), nil).WithTracer(tracer)

	ctx := tracing.WithSpan(context.Background(), "trace-1", "span-1")
	_, err := c.Get(ctx, srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "trace-1", traceID)
	assert.NotEmpty(t, parent)
	assert.NotEqual(t, "span-1", parent, "the fetch span is the remote parent")
}
