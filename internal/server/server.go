// Package server serves the portfolio page over HTTP.
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/jonathan/portfolio/internal/loader"
	"github.com/jonathan/portfolio/internal/rendering"
	"github.com/jonathan/portfolio/internal/server/ratelimit"
	"github.com/jonathan/portfolio/internal/view"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// RetryPath is the endpoint the failure page posts to.
const RetryPath = "/retry"

const shutdownTimeout = 30 * time.Second

// Server represents the HTTP server
type Server struct {
	httpServer  *http.Server
	handler     http.Handler
	logger      *zap.Logger
	rateLimiter *ratelimit.Limiter
	source      loader.Source
	viewOpts    view.Options

	// loadCtx outlives requests; mounted views load under it.
	loadCtx    context.Context
	cancelLoad context.CancelFunc
	closeOnce  sync.Once

	mu      sync.Mutex
	current *view.View
	closed  bool
}

// Config holds server configuration
type Config struct {
	Port           int
	Source         loader.Source
	Renderer       *rendering.Renderer
	Contact        rendering.Contact
	RefreshSeconds int
	Logger         *zap.Logger
	// RateLimit defaults to ratelimit.LoadConfig() when nil.
	RateLimit *ratelimit.Config
}

// New creates a new server instance and mounts the first view.
func New(cfg Config) (*Server, error) {
	if cfg.Source == nil {
		return nil, errors.New("server: nil source")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	renderer := cfg.Renderer
	if renderer == nil {
		r, err := rendering.New()
		if err != nil {
			return nil, fmt.Errorf("failed to load templates: %w", err)
		}
		renderer = r
	}
	rlConfig := cfg.RateLimit
	if rlConfig == nil {
		rlConfig = ratelimit.LoadConfig()
	}

	loadCtx, cancel := context.WithCancel(context.Background())
	s := &Server{
		logger:      logger,
		rateLimiter: ratelimit.NewLimiter(rlConfig),
		source:      cfg.Source,
		viewOpts: view.Options{
			Logger:         logger,
			Renderer:       renderer,
			Contact:        cfg.Contact,
			RetryPath:      RetryPath,
			RefreshSeconds: cfg.RefreshSeconds,
		},
		loadCtx:    loadCtx,
		cancelLoad: cancel,
	}

	if _, err := s.mount(false); err != nil {
		s.Close()
		return nil, err
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handlePage)
	mux.HandleFunc("GET /data.json", s.handleData)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST "+RetryPath, s.handleRetry)

	s.handler = s.withRateLimit(s.withLogging(s.withCORS(mux)))
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

// Handler returns the server's root handler with middleware applied.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// View returns the currently mounted view.
func (s *Server) View() *view.View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// mount replaces the current view with a fresh one and starts its load.
// With onlyIfFailed set, a current view in any other state is kept and
// mount returns nil.
func (s *Server) mount(onlyIfFailed bool) (*view.View, error) {
	s.mu.Lock()
	old := s.current
	if s.closed || (onlyIfFailed && old != nil && old.State() != view.StateFailed) {
		s.mu.Unlock()
		return nil, nil
	}
	v, err := view.New(s.source, s.viewOpts)
	if err != nil {
		s.mu.Unlock()
		return nil, fmt.Errorf("failed to mount view: %w", err)
	}
	s.current = v
	s.mu.Unlock()

	if old != nil {
		old.Close()
	}
	v.Initialize(s.loadCtx)
	return v, nil
}

// Start begins listening for requests. It returns after ctx is cancelled or
// SIGINT/SIGTERM is received and the server has shut down.
func (s *Server) Start(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("Server starting", zap.String("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		s.logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		return nil
	})

	err := g.Wait()
	s.Close()
	s.logger.Info("Server stopped")
	return err
}

// Close unmounts the current view and stops the rate limiter.
func (s *Server) Close() {
	s.closeOnce.Do(func() {
		s.cancelLoad()

		s.mu.Lock()
		s.closed = true
		v := s.current
		s.mu.Unlock()
		if v != nil {
			v.Close()
		}

		if s.rateLimiter != nil {
			s.rateLimiter.Stop()
		}
	})
}

// handlePage renders the current view.
func (s *Server) handlePage(w http.ResponseWriter, _ *http.Request) {
	v := s.View()
	snap := v.Snapshot()

	var buf bytes.Buffer
	if err := v.RenderSnapshot(&buf, snap); err != nil {
		s.logger.Error("Error rendering page", zap.String("mount_id", v.ID().String()), zap.Error(err))
		http.Error(w, http.StatusText(HTTPStatus(err)), HTTPStatus(err))
		return
	}

	status := http.StatusOK
	if snap.State == view.StateFailed {
		status = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		s.logger.Debug("Error writing page", zap.Error(err))
	}
}

// handleData serves the loaded profile document as JSON.
func (s *Server) handleData(w http.ResponseWriter, _ *http.Request) {
	snap := s.View().Snapshot()
	if snap.State != view.StateLoaded {
		s.errorResponse(w, HTTPStatus(ErrNotLoaded), ErrNotLoaded.Error())
		return
	}
	s.jsonResponse(w, http.StatusOK, snap.Profile)
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	v := s.View()
	s.jsonResponse(w, http.StatusOK, map[string]string{
		"status":   "ok",
		"state":    v.State().String(),
		"mount_id": v.ID().String(),
	})
}

// handleRetry remounts the view when the current one has failed. Any other
// state is left alone so a retry never cancels a load in progress.
func (s *Server) handleRetry(w http.ResponseWriter, r *http.Request) {
	v, err := s.mount(true)
	if err != nil {
		s.logger.Error("Error remounting view", zap.Error(err))
		s.errorResponse(w, http.StatusInternalServerError, "failed to retry")
		return
	}
	if v != nil {
		s.logger.Info("Retrying profile load", zap.String("mount_id", v.ID().String()))
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// withCORS adds CORS headers
func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// statusRecorder captures the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// withLogging adds request logging
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Info("Request completed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("remote_addr", r.RemoteAddr),
			zap.Int("status", rec.status),
			zap.Duration("latency", time.Since(start)))
	})
}

// withRateLimit adds rate limiting middleware
func (s *Server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowed, info := s.rateLimiter.Allow(s.extractClientID(r), r.URL.Path, r.Method)
		s.setRateLimitHeaders(w, info)
		if !allowed {
			s.rateLimitResponse(w, info)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// extractClientID extracts the client identifier from the request.
// X-Forwarded-For is ignored since there is no trusted proxy list.
func (s *Server) extractClientID(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// setRateLimitHeaders sets standard rate limit headers on the response.
func (s *Server) setRateLimitHeaders(w http.ResponseWriter, info ratelimit.Info) {
	if info.Limit > 0 {
		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(info.Limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(info.Remaining))
	}
}

// rateLimitResponse writes a 429 Too Many Requests response with rate limit information.
func (s *Server) rateLimitResponse(w http.ResponseWriter, info ratelimit.Info) {
	response := map[string]any{
		"error":     "rate_limit_exceeded",
		"message":   "Rate limit exceeded. Please try again later.",
		"limit":     info.Limit,
		"remaining": info.Remaining,
	}

	if info.RetryAfter > 0 {
		seconds := int(info.RetryAfter.Round(time.Second).Seconds())
		if seconds < 1 {
			seconds = 1
		}
		response["retry_after"] = seconds
		w.Header().Set("Retry-After", strconv.Itoa(seconds))
	}

	s.logger.Warn("Rate limit exceeded",
		zap.Int("limit", info.Limit),
		zap.Duration("retry_after", info.RetryAfter))

	s.jsonResponse(w, http.StatusTooManyRequests, response)
}

// jsonResponse writes a JSON response
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("Error encoding JSON response", zap.Error(err))
	}
}

// errorResponse writes an error JSON response
func (s *Server) errorResponse(w http.ResponseWriter, status int, message string) {
	s.jsonResponse(w, status, map[string]string{"error": message})
}
