// Package api exposes the HTTP interface for the crawler service.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/shopsage/crawler/internal/app"
	"github.com/shopsage/crawler/internal/config"
	"github.com/shopsage/crawler/internal/crawler"
	"github.com/shopsage/crawler/internal/index"
)

// Server wires HTTP handlers to the crawl pipeline.
type Server struct {
	router  chi.Router
	service *app.Service
	cfg     config.Config
	logger  *zap.Logger
}

// NewServer constructs a Server with middleware and routes.
func NewServer(service *app.Service, cfg config.Config, logger *zap.Logger) *Server {
	s := &Server{
		service: service,
		cfg:     cfg,
		logger:  logger,
	}
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware(logger))
	r.Use(recoverMiddleware(logger))
	r.Use(timeoutMiddleware(60 * time.Second))

	r.Get("/healthz", s.healthz)
	r.Get("/readyz", s.readyz)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		if cfg.Auth.Enabled {
			r.Use(apiKeyMiddleware(cfg.Auth.APIKey))
		}
		r.Route("/sites", func(r chi.Router) {
			r.Post("/crawl", s.crawlSite)
			r.Get("/", s.listSites)
			r.Route("/{site_key}", func(r chi.Router) {
				r.Get("/snapshot", s.getSnapshot)
				r.Get("/search", s.searchSite)
			})
		})
	})

	s.router = r
	return s
}

// Handler returns the Router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) readyz(w http.ResponseWriter, r *http.Request) {
	if _, err := s.service.SiteKeys(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, "snapshot store unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

type crawlRequest struct {
	URL           string `json:"url"`
	MaxPages      *int   `json:"max_pages"`
	MaxDepth      *int   `json:"max_depth"`
	Concurrency   *int   `json:"concurrency"`
	RespectRobots *bool  `json:"respect_robots"`
	RenderPages   *bool  `json:"render_pages"`
}

func (s *Server) crawlSite(w http.ResponseWriter, r *http.Request) {
	var req crawlRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.URL == "" {
		writeError(w, http.StatusBadRequest, "url required")
		return
	}
	opts := s.toCrawlOptions(req)

	result, err := s.service.RunCrawl(r.Context(), req.URL, opts)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, context.DeadlineExceeded) {
			status = http.StatusRequestTimeout
		}
		writeError(w, status, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) listSites(w http.ResponseWriter, r *http.Request) {
	keys, err := s.service.SiteKeys(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list sites")
		return
	}
	if keys == nil {
		keys = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"sites": keys})
}

func (s *Server) getSnapshot(w http.ResponseWriter, r *http.Request) {
	siteKey := chi.URLParam(r, "site_key")
	snap, err := s.service.Snapshot(r.Context(), siteKey)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load snapshot")
		return
	}
	if snap == nil {
		writeError(w, http.StatusNotFound, "snapshot not found")
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) searchSite(w http.ResponseWriter, r *http.Request) {
	siteKey := chi.URLParam(r, "site_key")
	term := r.URL.Query().Get("q")
	postings, err := s.service.Search(r.Context(), siteKey, term)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "search failed")
		return
	}
	if postings == nil {
		postings = []index.Posting{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"term": term, "results": postings})
}

func (s *Server) toCrawlOptions(req crawlRequest) crawler.Options {
	opts := crawler.Options{
		MaxPages:        valueOrDefault(req.MaxPages, s.cfg.Crawler.MaxPages),
		MaxDepth:        valueOrDefault(req.MaxDepth, s.cfg.Crawler.MaxDepth),
		Concurrency:     valueOrDefault(req.Concurrency, s.cfg.Crawler.Concurrency),
		UserAgent:       s.cfg.Crawler.UserAgent,
		PerPageMaxLen:   s.cfg.Crawler.PerPageMaxLen,
		AggregateMaxLen: s.cfg.Crawler.AggregateMaxLen,
		FetchTimeout:    s.cfg.FetchTimeout(),
		RenderTimeout:   s.cfg.RenderTimeout(),
	}
	respect := boolOrDefault(req.RespectRobots, s.cfg.Crawler.RespectRobots)
	opts.RespectRobots = &respect
	render := boolOrDefault(req.RenderPages, s.cfg.Render.Enabled)
	opts.RenderFallback = &render
	return opts
}

func valueOrDefault[T any](ptr *T, def T) T {
	if ptr == nil {
		return def
	}
	return *ptr
}

func boolOrDefault(ptr *bool, def bool) bool {
	if ptr == nil {
		return def
	}
	return *ptr
}

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := uuid.NewString()
		ctx := context.WithValue(r.Context(), requestIDKey{}, reqID)
		w.Header().Set("X-Request-ID", reqID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func loggingMiddleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := &responseWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(ww, r)
			logger.Info("request completed",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.status),
				zap.Int64("duration_ms", time.Since(start).Milliseconds()),
			)
		})
	}
}

func recoverMiddleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					logger.Error("panic recovered", zap.Any("error", rec))
					writeError(w, http.StatusInternalServerError, "internal server error")
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

func timeoutMiddleware(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.TimeoutHandler(next, d, "request timed out")
	}
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

type requestIDKey struct{}

func apiKeyMiddleware(expected string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get("X-API-Key")
			if key == "" {
				key = r.URL.Query().Get("api_key")
			}
			if key != expected {
				writeError(w, http.StatusForbidden, "unauthorized")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		zap.L().Error("write JSON failed", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
