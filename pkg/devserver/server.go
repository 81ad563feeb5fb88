package devserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"

	"github.com/devfolio-dev/folio/pkg/changes"
	"github.com/devfolio-dev/folio/pkg/likestore"
	"github.com/devfolio-dev/folio/pkg/metrics"
	"github.com/devfolio-dev/folio/pkg/middleware"
	"github.com/devfolio-dev/folio/pkg/upload"
)

// Defaults.
const (
	DefaultAddr            = "localhost:8080"
	DefaultSessionCache    = 256
	DefaultUploadPath      = "/uploads/"
	DefaultCleanupInterval = time.Hour
	DefaultShutdownTimeout = 10 * time.Second

	// UserHeader identifies the acting user. Requests without it act as
	// user "1".
	UserHeader = "X-Folio-User"
)

// Config holds dev server settings.
type Config struct {
	// Addr is the listen address. Default: "localhost:8080".
	Addr string

	// ImageTags, RefAttr, RecordedAttr, FieldName and MaxAttachments
	// configure every editor session. Zero values use the package defaults
	// of editor and attachments.
	ImageTags      []string
	RefAttr        string
	RecordedAttr   string
	FieldName      string
	MaxAttachments int

	// SessionCache bounds the number of live editor sessions.
	SessionCache int

	// Upload configures the image upload endpoint. Nil uses
	// upload.DefaultConfig().
	Upload *upload.Config

	// UploadPath is where a DiskStore's files are served.
	UploadPath string

	// UploadMaxAge is how long unclaimed uploads survive the periodic
	// cleanup. Zero disables cleanup.
	UploadMaxAge time.Duration

	// CleanupInterval is how often the cleanup runs.
	CleanupInterval time.Duration

	// AllowedOrigins are the CORS origins, with at most one "*" each.
	// Empty allows localhost and 127.0.0.1 on any port.
	AllowedOrigins []string

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration
}

func (c *Config) applyDefaults() {
	if c.Addr == "" {
		c.Addr = DefaultAddr
	}
	if c.SessionCache <= 0 {
		c.SessionCache = DefaultSessionCache
	}
	if c.Upload == nil {
		c.Upload = upload.DefaultConfig()
	}
	if c.UploadPath == "" {
		c.UploadPath = DefaultUploadPath
	}
	if !strings.HasSuffix(c.UploadPath, "/") {
		c.UploadPath += "/"
	}
	if c.CleanupInterval <= 0 {
		c.CleanupInterval = DefaultCleanupInterval
	}
	if len(c.AllowedOrigins) == 0 {
		c.AllowedOrigins = []string{"http://localhost:*", "http://127.0.0.1:*"}
	}
	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = DefaultShutdownTimeout
	}
}

func (c *Config) classifier() changes.Classifier {
	cl := changes.NewClassifier()
	if len(c.ImageTags) > 0 {
		cl.Tags = c.ImageTags
	}
	if c.RefAttr != "" {
		cl.RefAttr = c.RefAttr
	}
	return cl
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMetrics records request and session metrics in m and serves g on
// /metrics.
func WithMetrics(m *metrics.Metrics, g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.metrics = m
		s.gatherer = g
	}
}

// WithUser sets how the acting user is identified.
func WithUser(fn func(r *http.Request) string) Option {
	return func(s *Server) {
		if fn != nil {
			s.user = fn
		}
	}
}

// Server is the dev API server.
type Server struct {
	config   Config
	likes    *likestore.Store
	uploads  upload.Store
	logger   *slog.Logger
	metrics  *metrics.Metrics
	gatherer prometheus.Gatherer
	user     func(r *http.Request) string

	router   chi.Router
	sessions *lru.Cache[string, *session]
	http     *http.Server
}

// New builds a Server. likes and uploads may be nil, in which case the
// corresponding routes are not mounted.
func New(cfg Config, likes *likestore.Store, uploads upload.Store, opts ...Option) (*Server, error) {
	cfg.applyDefaults()
	s := &Server{
		config:  cfg,
		likes:   likes,
		uploads: uploads,
		logger:  slog.Default(),
		user:    headerUser,
	}
	for _, opt := range opts {
		opt(s)
	}

	sessions, err := lru.NewWithEvict[string, *session](cfg.SessionCache, func(_ string, sess *session) {
		sess.Close()
	})
	if err != nil {
		return nil, err
	}
	s.sessions = sessions
	s.router = s.routes()
	return s, nil
}

func headerUser(r *http.Request) string {
	if u := strings.TrimSpace(r.Header.Get(UserHeader)); u != "" {
		return u
	}
	return "1"
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recover(s.logger))
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.OpenTelemetry(
		middleware.WithTracerName("folio/devserver"),
		middleware.WithFilter(func(r *http.Request) bool {
			return r.URL.Path != "/healthz" && r.URL.Path != "/metrics"
		}),
	))
	r.Use(middleware.Prometheus(s.metrics))
	r.Use(middleware.Logger(s.logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.config.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", UserHeader, "traceparent", "tracestate"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	if s.likes != nil {
		r.Route("/api/{target}/{id}", func(r chi.Router) {
			r.Post("/add-like", s.handleLike(true))
			r.Post("/remove-like", s.handleLike(false))
			r.Get("/likes", s.handleLikes)
			r.Get("/button", s.handleButton)
		})
	}

	if s.uploads != nil {
		r.Method(http.MethodPost, "/image/upload", upload.Handler(s.uploads, s.config.Upload,
			upload.WithLogger(s.logger),
			upload.WithOwner(s.user),
		))
		if disk, ok := s.uploads.(*upload.DiskStore); ok {
			prefix := s.config.UploadPath
			r.Handle(prefix+"*", http.StripPrefix(prefix, staticFiles(disk.Dir())))
		}
	}

	r.Get("/ws/editor", s.handleEditor)

	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
	return r
}

// staticFiles serves dir without exposing DiskStore's metadata sidecars.
func staticFiles(dir string) http.Handler {
	fs := http.FileServer(http.Dir(dir))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, ".meta") || strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		fs.ServeHTTP(w, r)
	})
}

// Handler returns the server's root handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Sessions returns the number of live editor sessions.
func (s *Server) Sessions() int {
	return s.sessions.Len()
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve is ListenAndServe on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.http = &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	if s.uploads != nil && s.config.UploadMaxAge > 0 {
		c, err := s.scheduleCleanup(ctx)
		if err != nil {
			ln.Close()
			return err
		}
		c.Start()
		defer func() { <-c.Stop().Done() }()
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("dev server listening", "addr", ln.Addr().String())
		errCh <- s.http.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()
	err := s.http.Shutdown(shutdownCtx)
	s.Close()
	return err
}

func (s *Server) scheduleCleanup(ctx context.Context) (*cron.Cron, error) {
	c := cron.New()
	spec := "@every " + s.config.CleanupInterval.String()
	if _, err := c.AddFunc(spec, func() { s.Cleanup(ctx) }); err != nil {
		return nil, fmt.Errorf("scheduling upload cleanup %q: %w", spec, err)
	}
	return c, nil
}

// Cleanup removes unclaimed uploads older than UploadMaxAge.
func (s *Server) Cleanup(ctx context.Context) int {
	if s.uploads == nil || s.config.UploadMaxAge <= 0 {
		return 0
	}
	n, err := s.uploads.Cleanup(ctx, s.config.UploadMaxAge)
	if err != nil {
		s.logger.Warn("upload cleanup failed", "error", err)
	}
	if n > 0 {
		s.logger.Info("removed stale uploads", "count", n)
	}
	return n
}

// Close ends every editor session.
func (s *Server) Close() {
	s.sessions.Purge()
}
