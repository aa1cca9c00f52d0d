// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package server exposes merging and agreement over HTTP.
//
// Routes:
//
//	GET  /healthz     liveness check
//	POST /merge       merge result files, returns the merge output
//	POST /merge/iaa   agreement report for result files
//	GET  /metrics     Prometheus exposition
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pdiddy/datalabel/internal/agreement"
	"github.com/pdiddy/datalabel/internal/httputil"
	"github.com/pdiddy/datalabel/internal/loader"
	"github.com/pdiddy/datalabel/internal/logging"
	"github.com/pdiddy/datalabel/internal/merge"
	"github.com/pdiddy/datalabel/pkg/types"
)

// Defaults for ServerConfig fields left zero.
const (
	DefaultHost         = "0.0.0.0"
	DefaultPort         = 8210
	DefaultReadTimeout  = 30 * time.Second
	DefaultWriteTimeout = 60 * time.Second
	shutdownTimeout     = 10 * time.Second
)

// MergeRequest is the body of POST /merge.
type MergeRequest struct {
	Strategy string             `json:"strategy"`
	Results  []types.ResultFile `json:"results"`
}

// AgreementRequest is the body of POST /merge/iaa.
type AgreementRequest struct {
	Results []types.ResultFile `json:"results"`
}

// Options configures a Server.
type Options struct {
	Config  types.ServerConfig
	Logger  *logging.Logger
	Version string

	// Registerer and Gatherer back /metrics; the Prometheus defaults are
	// used when nil.
	Registerer prometheus.Registerer
	Gatherer   prometheus.Gatherer
}

// Server is the HTTP surface. Every request builds its own merge and
// agreement state; nothing is shared between requests.
type Server struct {
	cfg     types.ServerConfig
	log     *logging.Logger
	version string
	metrics *Metrics
	router  chi.Router
}

// New builds a Server and its routes.
func New(opts Options) (*Server, error) {
	cfg := withDefaults(opts.Config)

	metrics, err := NewMetrics(opts.Registerer)
	if err != nil {
		return nil, err
	}
	gatherer := opts.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	s := &Server{
		cfg:     cfg,
		log:     opts.Logger,
		version: opts.Version,
		metrics: metrics,
		router:  chi.NewRouter(),
	}

	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.Recoverer)
	s.router.Use(s.observe)

	s.router.Get("/healthz", s.handleHealth)
	s.router.Post("/merge", s.handleMerge)
	s.router.Post("/merge/iaa", s.handleAgreement)
	s.router.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	return s, nil
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.Addr(),
		Handler:      s.router,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("listening", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serving: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		s.log.Info("shutting down")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down: %w", err)
		}
		return nil
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleMerge(w http.ResponseWriter, r *http.Request) {
	var req MergeRequest
	if err := httputil.DecodeJSON(w, r, &req, s.cfg.MaxBodyBytes); err != nil {
		s.fail(w, err)
		return
	}
	if len(req.Results) == 0 {
		s.fail(w, types.DataError("results must not be empty"))
		return
	}

	sets, err := resultSets(req.Results)
	if err != nil {
		s.fail(w, err)
		return
	}

	out, err := merge.Merge(sets, merge.Options{
		Strategy: merge.Strategy(req.Strategy),
		Version:  s.version,
		Logger:   s.log.With("request_id", middleware.GetReqID(r.Context())),
	})
	if err != nil {
		s.fail(w, err)
		return
	}
	s.metrics.observeMerge(out.Metadata.TotalTasks, out.Metadata.ConflictCount)
	httputil.WriteJSON(w, http.StatusOK, out)
}

func (s *Server) handleAgreement(w http.ResponseWriter, r *http.Request) {
	var req AgreementRequest
	if err := httputil.DecodeJSON(w, r, &req, s.cfg.MaxBodyBytes); err != nil {
		s.fail(w, err)
		return
	}

	sets, err := resultSets(req.Results)
	if err != nil {
		s.fail(w, err)
		return
	}

	report := agreement.NewEngine(s.log).Compute(sets)
	if report.Failed() {
		httputil.WriteJSON(w, http.StatusUnprocessableEntity, report)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, report)
}

func (s *Server) fail(w http.ResponseWriter, err error) {
	status := httputil.StatusFor(err)
	if status >= http.StatusInternalServerError {
		s.log.Error("request failed", "error", err)
	}
	httputil.WriteError(w, status, err.Error())
}

// observe counts requests by route pattern and status.
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		s.metrics.observeRequest(route, status)
	})
}

// resultSets converts request result files into result sets. Files without
// metadata.annotator are named annotator_1, annotator_2, ... by position.
func resultSets(files []types.ResultFile) ([]types.AnnotatorResultSet, error) {
	sets := make([]types.AnnotatorResultSet, len(files))
	for i, rf := range files {
		set, err := loader.FromResultFile(rf, "")
		if err != nil {
			return nil, fmt.Errorf("result %d: %w", i, err)
		}
		if set.Annotator == "" {
			set.Annotator = fmt.Sprintf("annotator_%d", i+1)
		}
		sets[i] = set
	}
	return sets, nil
}

func withDefaults(cfg types.ServerConfig) types.ServerConfig {
	if cfg.Host == "" {
		cfg.Host = DefaultHost
	}
	if cfg.Port == 0 {
		cfg.Port = DefaultPort
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = httputil.DefaultMaxBodyBytes
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = DefaultReadTimeout
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = DefaultWriteTimeout
	}
	return cfg
}
