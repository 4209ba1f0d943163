package httpclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/GriffinCanCode/framenav/internal/infrastructure/logging"
	"github.com/GriffinCanCode/framenav/internal/infrastructure/resilience"
	"github.com/GriffinCanCode/framenav/internal/infrastructure/tracing"
)

var (
	ErrUnavailable = errors.New("remote host unavailable: circuit breaker open")
	ErrTooLarge    = errors.New("response body exceeds limit")
	ErrServer      = errors.New("server error")
)

// Config controls transport behaviour
type Config struct {
	Timeout      time.Duration
	Retries      int
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration
	// RateLimit is requests per second; zero or less means unlimited
	RateLimit float64
	UserAgent string
	// MaxBytes caps response bodies; zero or less means unlimited
	MaxBytes int64
}

// DefaultConfig returns production defaults
func DefaultConfig() Config {
	return Config{
		Timeout:      30 * time.Second,
		Retries:      3,
		RetryWaitMin: time.Second,
		RetryWaitMax: 30 * time.Second,
		UserAgent:    "framenav/1.0",
		MaxBytes:     10 << 20,
	}
}

// Response is a fully read HTTP response
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	// URL is the address after redirects
	URL *url.URL
}

// ContentType returns the Content-Type header
func (r *Response) ContentType() string {
	return r.Header.Get("Content-Type")
}

// Client fetches remote content with retries, rate limiting and a circuit
// breaker. It is safe for concurrent use.
type Client struct {
	resty    *resty.Client
	breaker  *resilience.Breaker
	maxBytes int64
	tracer   *tracing.Tracer
	logger   *zap.Logger

	mu      sync.RWMutex
	limiter *rate.Limiter
}

// New creates a client from cfg
func New(cfg Config, logger *zap.Logger) *Client {
	logger = logging.OrNop(logger).Named("httpclient")

	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = cfg.Retries
	retryClient.RetryWaitMin = cfg.RetryWaitMin
	retryClient.RetryWaitMax = cfg.RetryWaitMax
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler
	retryClient.Logger = retryLogger{logger.Sugar()}

	restyClient := resty.NewWithClient(retryClient.StandardClient()).
		SetTimeout(cfg.Timeout).
		SetHeader("User-Agent", cfg.UserAgent)

	// Remote hosts vary in reliability: trip on a long failure streak or a
	// high failure ratio over enough traffic.
	breaker := resilience.New("remote-content", resilience.Settings{
		MaxRequests: 5,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts resilience.Counts) bool {
			return counts.ConsecutiveFailures >= 10 ||
				(counts.Requests >= 20 && counts.FailureRatio() > 0.7)
		},
		OnStateChange: resilience.LogStateChanges(logger),
	})

	c := &Client{
		resty:    restyClient,
		breaker:  breaker,
		maxBytes: cfg.MaxBytes,
		logger:   logger,
	}
	c.SetRateLimit(cfg.RateLimit)
	return c
}

// WithTracer records a span per fetch and propagates the trace to the
// remote host
func (c *Client) WithTracer(t *tracing.Tracer) *Client {
	c.tracer = t
	return c
}

// SetHeader adds a default request header
func (c *Client) SetHeader(key, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resty.SetHeader(key, value)
}

// SetRateLimit configures requests per second; rps <= 0 removes the limit
func (c *Client) SetRateLimit(rps float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if rps <= 0 {
		c.limiter = rate.NewLimiter(rate.Inf, 0)
		return
	}
	burst := int(rps)
	if burst < 1 {
		burst = 1
	}
	c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
}

// BreakerState returns the circuit breaker state
func (c *Client) BreakerState() resilience.State {
	return c.breaker.State()
}

// Get fetches addr. Responses with status 5xx are returned together with
// an ErrServer error and count against the circuit breaker.
func (c *Client) Get(ctx context.Context, addr string) (*Response, error) {
	c.mu.RLock()
	limiter := c.limiter
	c.mu.RUnlock()

	if err := limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}

	span, ctx := c.tracer.StartSpan(ctx, "fetch")
	span.SetTag("url", addr)
	defer c.tracer.End(span)

	start := time.Now()
	resp, err := resilience.Execute(c.breaker, func() (*Response, error) {
		return c.get(ctx, addr)
	})
	if errors.Is(err, resilience.ErrCircuitOpen) || errors.Is(err, resilience.ErrTooManyRequests) {
		err = fmt.Errorf("%w: %s", ErrUnavailable, addr)
		span.SetError(err)
		return nil, err
	}
	if resp != nil {
		span.SetStatus(resp.StatusCode)
	}
	span.SetError(err)

	if err == nil {
		c.logger.Debug("Fetched",
			zap.String("url", addr),
			zap.Int("status", resp.StatusCode),
			zap.Int("bytes", len(resp.Body)),
			zap.Duration("duration", time.Since(start)))
	}
	return resp, err
}

func (c *Client) get(ctx context.Context, addr string) (*Response, error) {
	c.mu.RLock()
	req := c.resty.R().SetContext(ctx).SetDoNotParseResponse(true)
	c.mu.RUnlock()
	tracing.Inject(ctx, req.Header)

	raw, err := req.Get(addr)
	if err != nil {
		return nil, err
	}

	body := raw.RawBody()
	defer body.Close()

	data, err := c.readBody(body)
	if err != nil {
		return nil, err
	}

	resp := &Response{
		StatusCode: raw.StatusCode(),
		Header:     raw.Header(),
		Body:       data,
	}
	if raw.RawResponse != nil && raw.RawResponse.Request != nil {
		resp.URL = raw.RawResponse.Request.URL
	}

	if resp.StatusCode >= http.StatusInternalServerError {
		return resp, fmt.Errorf("%w: %s", ErrServer, raw.Status())
	}
	return resp, nil
}

func (c *Client) readBody(r io.Reader) ([]byte, error) {
	if c.maxBytes <= 0 {
		return io.ReadAll(r)
	}

	data, err := io.ReadAll(io.LimitReader(r, c.maxBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > c.maxBytes {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrTooLarge, c.maxBytes)
	}
	return data, nil
}

// retryLogger adapts zap to retryablehttp.LeveledLogger
type retryLogger struct {
	s *zap.SugaredLogger
}

func (l retryLogger) Error(msg string, kv ...interface{}) { l.s.Errorw(msg, kv...) }
func (l retryLogger) Warn(msg string, kv ...interface{})  { l.s.Warnw(msg, kv...) }
func (l retryLogger) Info(msg string, kv ...interface{})  { l.s.Debugw(msg, kv...) }
func (l retryLogger) Debug(msg string, kv ...interface{}) { l.s.Debugw(msg, kv...) }
