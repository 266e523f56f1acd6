package observability

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

const (
	shutdownTimeout   = 5 * time.Second
	readHeaderTimeout = 10 * time.Second
)

// Pinger is satisfied by the storage layer.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ReadyFunc reports whether the process can serve its main workload.
type ReadyFunc func() error

type Server struct {
	db      Pinger
	ready   ReadyFunc
	port    int
	logger  *zerolog.Logger
	routes  map[string]http.Handler
	handler http.Handler
}

// NewServer creates the health and metrics server. db and ready are optional.
func NewServer(db Pinger, ready ReadyFunc, port int, logger *zerolog.Logger) *Server {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	return &Server{
		db:     db,
		ready:  ready,
		port:   port,
		logger: logger,
		routes: make(map[string]http.Handler),
	}
}

// Handle mounts an extra handler, such as the predict API, next to the
// health endpoints. It must be called before Start.
func (s *Server) Handle(pattern string, h http.Handler) {
	s.routes[pattern] = h
	s.handler = nil
}

// Handler returns the composed mux.
func (s *Server) Handler() http.Handler {
	if s.handler != nil {
		return s.handler
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = fmt.Fprint(w, "OK")
	})

	mux.HandleFunc("/readyz", s.handleReady)
	mux.Handle("/metrics", promhttp.Handler())

	for pattern, h := range s.routes {
		mux.Handle(pattern, h)
	}

	s.handler = mux

	return mux
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		if err := s.ready(); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = fmt.Fprintf(w, "Model error: %v", err)

			return
		}
	}

	if s.db != nil {
		if err := s.db.Ping(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = fmt.Fprintf(w, "DB error: %v", err)

			return
		}
	}

	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprint(w, "OK")
}

func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)

		defer cancel()

		//nolint:errcheck,contextcheck // shutdown in signal handler is best-effort, non-inherited context intentional
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info().Int("port", s.port).Msg("HTTP server starting")

	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server error: %w", err)
	}

	return nil
}
