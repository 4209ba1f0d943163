package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	api "github.com/GriffinCanCode/framenav/internal/api/http"
	"github.com/GriffinCanCode/framenav/internal/api/middleware"
	"github.com/GriffinCanCode/framenav/internal/api/ws"
	"github.com/GriffinCanCode/framenav/internal/app"
	"github.com/GriffinCanCode/framenav/internal/infrastructure/config"
	"github.com/GriffinCanCode/framenav/internal/infrastructure/httpclient"
	"github.com/GriffinCanCode/framenav/internal/infrastructure/logging"
	"github.com/GriffinCanCode/framenav/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/framenav/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/framenav/internal/navigation/content"
	"github.com/GriffinCanCode/framenav/internal/navigation/dispatch"
	"github.com/GriffinCanCode/framenav/internal/navigation/loader"
	"github.com/GriffinCanCode/framenav/internal/navigation/source"
)

// MainFrame is the name of the frame every server starts with
const MainFrame = "main"

const shutdownTimeout = 10 * time.Second

// Server wraps the HTTP server and dependencies
type Server struct {
	config     *config.Config
	router     *gin.Engine
	dispatcher *dispatch.Dispatcher
	manager    *app.Manager
	hub        *ws.Hub
	remote     *httpclient.Client
	metrics    *monitoring.Metrics
	registry   *prometheus.Registry
	tracer     *tracing.Tracer
	logger     *zap.Logger

	loads  context.Context
	cancel context.CancelFunc
}

// NewServer creates a new server instance
func NewServer(cfg *config.Config, logger *zap.Logger) (*Server, error) {
	logger = logging.OrNop(logger)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := monitoring.NewMetrics(registry)
	tracer := tracing.New("framenav", logger)

	remote := httpclient.New(httpclient.Config{
		Timeout:      cfg.Loader.Timeout,
		Retries:      cfg.Loader.MaxRetries,
		RetryWaitMin: httpclient.DefaultConfig().RetryWaitMin,
		RetryWaitMax: httpclient.DefaultConfig().RetryWaitMax,
		RateLimit:    cfg.Loader.RateLimit,
		UserAgent:    cfg.Loader.UserAgent,
		MaxBytes:     cfg.Loader.MaxBytes,
	}, logger).WithTracer(tracer)

	static, err := builtinPages()
	if err != nil {
		tracer.Close()
		return nil, err
	}
	router, err := source.Default(source.Options{
		ContentRoot: cfg.Navigation.ContentRoot,
		MaxBytes:    cfg.Loader.MaxBytes,
		Client:      remote,
		Static:      static,
		Logger:      logger,
	})
	if err != nil {
		tracer.Close()
		return nil, fmt.Errorf("content loader: %w", err)
	}

	loads, cancel := context.WithCancel(context.Background())
	d := dispatch.New().WithLogger(logger.Named("dispatch"))
	manager := app.NewManager(d, router, app.Config{
		KeepContentAlive: cfg.Navigation.KeepContentAlive,
		Home:             cfg.Navigation.Home,
	}).WithLogger(logger).WithMetrics(metrics).WithContext(loads)

	hub := ws.NewHub(metrics, logger)
	manager.Observe(hub.Watch)

	s := &Server{
		config:     cfg,
		dispatcher: d,
		manager:    manager,
		hub:        hub,
		remote:     remote,
		metrics:    metrics,
		registry:   registry,
		tracer:     tracer,
		logger:     logger,
		loads:      loads,
		cancel:     cancel,
	}
	s.router = s.routes()

	logger.Info("Server initialized",
		zap.String("content_root", cfg.Navigation.ContentRoot),
		zap.String("home", cfg.Navigation.Home),
		zap.Bool("keep_content_alive", cfg.Navigation.KeepContentAlive))
	return s, nil
}

func (s *Server) routes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(tracing.HTTPMiddleware(s.tracer))
	router.Use(middleware.Logger(s.logger))
	router.Use(monitoring.Middleware(s.metrics))
	router.Use(middleware.CORS(middleware.DefaultCORSConfig().WithOrigins(s.config.CORS.AllowOrigins)))
	if s.config.RateLimit.Enabled {
		s.logger.Info("Rate limiting enabled",
			zap.Int("rps", s.config.RateLimit.RequestsPerSecond),
			zap.Int("burst", s.config.RateLimit.Burst),
		)
		router.Use(middleware.RateLimit(middleware.RateLimitConfig{
			RequestsPerSecond: s.config.RateLimit.RequestsPerSecond,
			Burst:             s.config.RateLimit.Burst,
		}))
	}

	api.NewHandlers(s.manager, s.metrics, s.remote).Register(router)
	router.GET("/stream", ws.NewHandler(s.hub).HandleConnection)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})))
	return router
}

// Handler returns the HTTP handler
func (s *Server) Handler() http.Handler { return s.router }

// Manager returns the frame manager
func (s *Server) Manager() *app.Manager { return s.manager }

// Run pumps the dispatcher, opens the main frame and serves until ctx is
// cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	addr := net.JoinHostPort(s.config.Server.Host, s.config.Server.Port)
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	return s.Serve(ctx, lis)
}

// Serve is Run on an existing listener
func (s *Server) Serve(ctx context.Context, lis net.Listener) error {
	pumpCtx, stopPump := context.WithCancel(context.Background())
	pumped := make(chan error, 1)
	go func() { pumped <- s.dispatcher.Run(pumpCtx) }()
	defer func() {
		stopPump()
		<-pumped
	}()

	root, err := s.manager.Spawn(ctx, MainFrame, "")
	if err != nil {
		return fmt.Errorf("spawn main frame: %w", err)
	}
	s.logger.Info("Main frame ready", zap.String("frame", root.ID))

	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	served := make(chan error, 1)
	go func() {
		s.logger.Info("Starting HTTP server", zap.String("addr", lis.Addr().String()))
		served <- srv.Serve(lis)
	}()

	select {
	case err := <-served:
		s.cancel()
		return err
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down server")
	s.cancel()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-served; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Close releases resources
func (s *Server) Close() error {
	s.cancel()
	s.tracer.Close()
	_ = s.logger.Sync()
	return nil
}

const aboutPage = `<!DOCTYPE html>
<html>
<head>
<title>framenav</title>
<meta name="description" content="Navigation frames over HTTP">
</head>
<body>
<h1 id="framenav">framenav</h1>
<p>Navigate a frame with <code>POST /frames/:id/navigate</code>.</p>
<h2 id="schemes">Schemes</h2>
<ul>
<li><code>http</code> and <code>https</code> fetch remote pages</li>
<li><code>file</code> serves the content root</li>
<li><code>about</code> serves built-in pages</li>
</ul>
</body>
</html>`

// builtinPages holds the about: addresses
func builtinPages() (*loader.Static, error) {
	u, err := url.Parse("about:framenav")
	if err != nil {
		return nil, err
	}
	page, err := content.NewPage(u, []byte(aboutPage), "text/html; charset=utf-8")
	if err != nil {
		return nil, fmt.Errorf("built-in page: %w", err)
	}
	return loader.NewStatic(map[string]any{
		"about:blank":    &content.Text{URL: &url.URL{Scheme: "about", Opaque: "blank"}, MediaType: "text/plain"},
		"about:framenav": page,
	}), nil
}
