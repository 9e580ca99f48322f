package server

import (
	"context"
	"embed"
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"ccreator/orchestrator"
)

//go:embed web
var embeddedStatic embed.FS

// Options configures a Server. The zero value is usable.
type Options struct {
	Logger   *slog.Logger
	Messages orchestrator.Messages
	// FlowTimeout bounds one flow's remote calls; zero means no limit.
	FlowTimeout time.Duration
	// SessionTTL is the idle time after which a session is dropped;
	// DefaultSessionTTL when zero.
	SessionTTL time.Duration
	Registerer prometheus.Registerer
	Gatherer   prometheus.Gatherer
}

type Server struct {
	svc         orchestrator.Service
	logger      *slog.Logger
	msgs        orchestrator.Messages
	flowTimeout time.Duration
	store       *sessionStore
	validate    *validator.Validate
	static      fs.FS
	staticFS    http.Handler
	metrics     http.Handler

	flows         sync.WaitGroup
	flowsInFlight prometheus.Gauge
}

func New(svc orchestrator.Service, opts Options) (*Server, error) {
	if svc == nil {
		return nil, errors.New("generation service required")
	}

	sub, err := fs.Sub(embeddedStatic, "web")
	if err != nil {
		return nil, err
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	msgs := opts.Messages
	if msgs == (orchestrator.Messages{}) {
		msgs = orchestrator.English
	}
	gatherer := opts.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	s := &Server{
		svc:         svc,
		logger:      logger,
		msgs:        msgs,
		flowTimeout: opts.FlowTimeout,
		store:       newStore(opts.SessionTTL),
		validate:    validator.New(),
		static:      sub,
		staticFS:    http.FileServer(http.FS(sub)),
		metrics:     promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}),
		flowsInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "ccreator",
			Name:      "flows_in_flight",
			Help:      "Orchestration flows currently running in the background.",
		}),
	}
	if opts.Registerer != nil {
		if err := opts.Registerer.Register(s.flowsInFlight); err != nil {
			return nil, err
		}
		if err := opts.Registerer.Register(s.store.sessions); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logMiddleware(s.logger))
	r.Use(middleware.Recoverer)

	r.Route("/api/sessions", func(r chi.Router) {
		r.Post("/", s.handleSessionCreate)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.handleSessionGet)
			r.Post("/content", s.handleContent)
			r.Post("/image-prompt", s.handleImagePrompt)
			r.Post("/image", s.handleImage)
			r.Get("/image", s.handleImageDownload)
		})
	})
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", s.metrics)
	r.Handle("/*", s.staticHandler())
	return r
}

// Drain waits for background flows to finish or ctx to end.
func (s *Server) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.flows.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Server) staticHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		upath := r.URL.Path
		if strings.HasPrefix(upath, "/api/") {
			http.NotFound(w, r)
			return
		}
		// 不存在的路径交给 "/"，由 FileServer 输出 index.html
		name := strings.TrimPrefix(upath, "/")
		if name == "" || name == "index.html" {
			r.URL.Path = "/"
		} else if _, err := fs.Stat(s.static, name); err != nil {
			r.URL.Path = "/"
		}
		s.staticFS.ServeHTTP(w, r)
	})
}

func logMiddleware(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			path := r.URL.Path
			if path == "" {
				path = "/"
			}
			logger.InfoContext(r.Context(), "http request",
				"method", r.Method,
				"path", path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()))
		})
	}
}
