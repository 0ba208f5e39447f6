package http

import (
	"context"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strings"
	"sync"
	"time"

	"controlepix/internal/core"
	applog "controlepix/internal/log"
	"controlepix/internal/metrics"
	"controlepix/internal/middleware/ratelimit"
	"controlepix/internal/middleware/security"
	"controlepix/internal/middleware/trace"
	"controlepix/internal/services"
	appweb "controlepix/web"
)

// Dispatcher runs one dashboard action. *services.Dashboard satisfies it.
type Dispatcher interface {
	Dispatch(ctx context.Context, a services.Action) (services.Page, error)
}

// Pinger reports store reachability for /readyz. *storage.Store satisfies it.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Options tunes the server. Zero values pick defaults; a nil Metrics disables
// /metrics.
type Options struct {
	Logger             *applog.Logger
	Metrics            *metrics.Metrics
	RateLimitPerMinute int
}

type Server struct {
	http.Server
	templates *template.Template
	dashboard Dispatcher
	store     Pinger
	structLog *applog.StructuredLogger
	tmplLog   *applog.StructuredLogger
	metrics   *metrics.Metrics
	limiter   *ratelimit.Limiter
	detector  *security.Detector
	started   time.Time

	shutdownOnce sync.Once
}

var templateFuncs = template.FuncMap{
	"brl": core.FormatBRL,
}

// NewServer parses the embedded templates and wires routes and middleware.
func NewServer(addr string, dashboard Dispatcher, store Pinger, opts Options) (*Server, error) {
	logger := opts.Logger
	if logger == nil {
		logger = applog.FromContext(context.Background())
	}
	logger = logger.WithComponent(applog.ComponentHTTP)

	t, err := template.New("").Funcs(templateFuncs).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	s := &Server{
		templates: t,
		dashboard: dashboard,
		store:     store,
		structLog: applog.NewStructuredLogger(logger),
		tmplLog:   applog.NewStructuredLogger(logger.WithComponent(applog.ComponentTemplate)),
		metrics:   opts.Metrics,
		limiter:   ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitPerMinute}),
		started:   time.Now(),
	}
	s.detector = security.NewDetector(s.onSuspicious)

	mux := http.NewServeMux()

	static, err := fs.Sub(appweb.StaticFS, "static")
	if err != nil {
		s.limiter.Stop()
		return nil, fmt.Errorf("mount static assets: %w", err)
	}
	mux.Handle("GET /static/", security.StaticAssetMiddleware(3600)(
		http.StripPrefix("/static/", http.FileServer(http.FS(static)))))

	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("POST /transactions", s.handleAddTransaction)
	mux.HandleFunc("POST /transactions/delete", s.handleDeleteTransaction)
	mux.HandleFunc("GET /chart.svg", s.handleChart)
	mux.HandleFunc("GET /api/summary", s.handleSummary)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics.Handler())
	}

	var observe trace.Observer
	if s.metrics != nil {
		observe = func(method, path string, status int, d time.Duration) {
			s.metrics.ObserveHTTP(method, routeLabel(path), status, d)
		}
	}

	var h http.Handler = mux
	h = s.limiter.Middleware(s.detector.ExtractClientIP, s.onRateLimited, http.MethodPost)(h)
	h = s.detector.Middleware(h)
	h = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(h)
	h = trace.NewMiddleware(s.detector.ExtractClientIP, observe).Middleware(h)
	h = applog.Middleware(logger)(h)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s, nil
}

// Shutdown stops the limiter and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

var knownRoutes = map[string]bool{
	"/": true, "/transactions": true, "/transactions/delete": true, "/chart.svg": true,
	"/api/summary": true, "/healthz": true, "/readyz": true, "/metrics": true,
}

// routeLabel bounds metric label cardinality to the registered routes.
func routeLabel(path string) string {
	switch {
	case knownRoutes[path]:
		return path
	case strings.HasPrefix(path, "/static/"):
		return "/static"
	default:
		return "other"
	}
}

func (s *Server) onSuspicious() {
	if s.metrics != nil {
		s.metrics.SuspiciousRequest()
	}
}

func (s *Server) onRateLimited(w http.ResponseWriter, r *http.Request) {
	applog.FromContext(r.Context()).WithComponent(applog.ComponentRateLimit).
		WarnContext(r.Context(), "Rate limit exceeded",
			applog.FieldClientIP, s.detector.ExtractClientIP(r),
			applog.FieldMethod, r.Method,
			applog.FieldPath, r.URL.Path)
	if s.metrics != nil {
		s.metrics.RateLimited()
	}
	TooManyRequestsError("Muitas requisições. Tente novamente em instantes.").Write(w)
}
