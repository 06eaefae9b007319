package http

import (
	"context"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"processos/internal/core"
	applog "processos/internal/log"
	"processos/internal/metrics"
	"processos/internal/middleware/ratelimit"
	"processos/internal/middleware/security"
	"processos/internal/middleware/trace"
	"processos/internal/services"
	appweb "processos/web"
)

// ProcessService is what the handlers need from the service layer.
type ProcessService interface {
	Today() core.Date
	List(ctx context.Context) ([]core.Process, error)
	AlertsAt(ctx context.Context, today core.Date) ([]services.Alert, error)
	AddProcess(ctx context.Context, in services.NewProcess) (core.Process, error)
	ConfirmPayment(ctx context.Context, target services.Target) (services.Outcome, error)
}

// Options configure the optional parts of the server.
type Options struct {
	Logger            *applog.Logger
	Metrics           *metrics.Metrics
	Gatherer          prometheus.Gatherer
	RequestsPerMinute int
	StaticMaxAge      int
}

type Server struct {
	http.Server
	templates *template.Template
	svc       ProcessService
	mux       *http.ServeMux
	logger    *applog.Logger
	metrics   *metrics.Metrics
	limiter   *ratelimit.Limiter
	tracer    *trace.Middleware
	headers   *security.HeadersMiddleware

	shutdownOnce sync.Once
}

// NewServer configures routes and templates, returning a ready-to-run http.Server.
func NewServer(addr string, svc ProcessService, opts Options) *Server {
	mux := http.NewServeMux()

	logger := opts.Logger
	if logger == nil {
		logger = applog.FromContext(context.Background())
	}
	logger = logger.WithComponent(applog.ComponentHTTP)

	s := &Server{
		Server: http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		},
		svc:     svc,
		mux:     mux,
		logger:  logger,
		metrics: opts.Metrics,
		limiter: ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RequestsPerMinute}),
		headers: security.NewHeadersMiddleware(security.DefaultHeadersConfig()),
	}

	var observer trace.Observer
	if opts.Metrics != nil {
		observer = opts.Metrics
	}
	s.tracer = trace.NewMiddleware(logger, extractClientIP, observer)

	// Parse embedded templates at startup.
	t, err := template.ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		logger.Warn("Failed parsing templates", "error", err)
	}
	s.templates = t

	// Static assets (served from embedded FS)
	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		maxAge := opts.StaticMaxAge
		if maxAge == 0 {
			maxAge = 3600
		}
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("/static/", security.StaticAssetMiddleware(maxAge)(static))
	} else {
		logger.Warn("Failed to mount embedded static FS", "error", err)
	}

	s.route("/", http.HandlerFunc(s.handleIndex), false)
	s.route("/ui/alerts", http.HandlerFunc(s.handleAlerts), false)
	s.route("/processes", http.HandlerFunc(s.handleCreateProcess), true)
	s.route("/alerts/confirm", http.HandlerFunc(s.handleConfirmPayment), true)

	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", s.handleReady)
	if opts.Gatherer != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{}))
	}

	return s
}

// route registers an application route behind tracing and security headers.
// Limited routes also pass through the per-client rate limiter.
func (s *Server) route(pattern string, h http.Handler, limited bool) {
	if limited {
		h = s.limiter.Middleware(extractClientIP, s.onRateLimited)(h)
	}
	h = s.headers.Middleware(h)
	s.mux.Handle(pattern, s.tracer.Wrap(pattern, h))
}

func (s *Server) onRateLimited(w http.ResponseWriter, r *http.Request) {
	applog.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
		applog.FieldClientIP, extractClientIP(r),
		applog.FieldMethod, r.Method,
		applog.FieldPath, r.URL.Path)
	if s.metrics != nil {
		s.metrics.RateLimited()
	}
	TooManyRequestsError("Muitas requisições. Tente novamente em instantes.").Write(w)
}

// Shutdown gracefully shuts down the server and the limiter cleanup.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// handleReady reports ready once the configured backend can be read.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	if _, err := s.svc.List(ctx); err != nil {
		slog.WarnContext(ctx, "Readiness check failed", "error", err)
		http.Error(w, "not ready", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
