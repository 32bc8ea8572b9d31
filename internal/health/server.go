// Package health serves the liveness, readiness and metrics endpoints of the scanner.
package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yourusername/prop-edge/internal/metrics"
	"golang.org/x/sync/errgroup"
)

const checkTimeout = 3 * time.Second

// Check is one readiness dependency. A nil error means healthy.
type Check func(ctx context.Context) error

// StatusFunc reports the scanner state embedded in /ready and /status
type StatusFunc func() any

// HealthResponse is the body of /health and /live
type HealthResponse struct {
	Status    string `json:"status"`
	Service   string `json:"service"`
	Timestamp string `json:"timestamp,omitempty"`
	Version   string `json:"version,omitempty"`
	Commit    string `json:"commit,omitempty"`
	Uptime    string `json:"uptime,omitempty"`
}

// ReadyResponse is the body of /ready
type ReadyResponse struct {
	Status   string            `json:"status"`
	Service  string            `json:"service"`
	Checks   map[string]string `json:"checks,omitempty"`
	Duration string            `json:"duration,omitempty"`
	Scanner  any               `json:"scanner,omitempty"`
}

// Server serves the health endpoints and the Prometheus scrape endpoint
type Server struct {
	cfg     Config
	started time.Time
	server  *http.Server

	mu     sync.RWMutex
	ready  bool
	checks map[string]Check
}

// Config holds the health server settings. MetricsPath mounts the Prometheus handler when set;
// Status is optional.
type Config struct {
	ServiceName string
	Version     string
	Commit      string
	Port        int
	MetricsPath string
	Logger      *logrus.Logger
	Status      StatusFunc
}

// NewServer creates a health server. It reports not ready until SetReady(true).
func NewServer(cfg Config) *Server {
	if cfg.Port == 0 {
		cfg.Port = 9090
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.StandardLogger()
	}
	return &Server{
		cfg:     cfg,
		started: time.Now(),
		checks:  make(map[string]Check),
	}
}

// AddCheck registers a named readiness check, replacing any check of the same name
func (s *Server) AddCheck(name string, check Check) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checks[name] = check
}

// SetReady marks the server as ready to accept traffic.
func (s *Server) SetReady(ready bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ready = ready
}

// IsReady returns whether the server is ready.
func (s *Server) IsReady() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ready
}

// Handler returns the routes served by the health server.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /live", s.handleLive)
	mux.HandleFunc("GET /ready", s.handleReady)
	mux.HandleFunc("GET /status", s.handleStatus)
	if s.cfg.MetricsPath != "" {
		mux.Handle(s.cfg.MetricsPath, metrics.Handler())
	}
	return mux
}

// Start serves in the background until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	s.server = &http.Server{
		Addr:         ":" + strconv.Itoa(s.cfg.Port),
		Handler:      s.Handler(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		s.cfg.Logger.WithFields(logrus.Fields{
			"port":    s.cfg.Port,
			"service": s.cfg.ServiceName,
			"metrics": s.cfg.MetricsPath,
		}).Info("Health check server starting")

		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.cfg.Logger.WithError(err).Error("Health check server error")
		}
	}()

	go func() {
		<-ctx.Done()
		_ = s.Shutdown()
	}()

	return nil
}

// Shutdown gracefully shuts down the health check server.
func (s *Server) Shutdown() error {
	if s.server == nil {
		return nil
	}
	s.cfg.Logger.Info("Health check server shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:    "ok",
		Service:   s.cfg.ServiceName,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   s.cfg.Version,
		Commit:    s.cfg.Commit,
		Uptime:    time.Since(s.started).Round(time.Second).String(),
	})
}

func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok", Service: s.cfg.ServiceName})
}

// handleReady runs every registered check concurrently, each bounded by checkTimeout
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	results := s.runChecks(r.Context())

	healthy := s.IsReady()
	results["service"] = "ok"
	if !healthy {
		results["service"] = "not_ready"
	}
	for _, v := range results {
		if v != "ok" {
			healthy = false
		}
	}

	resp := ReadyResponse{
		Status:   "ok",
		Service:  s.cfg.ServiceName,
		Checks:   results,
		Duration: time.Since(start).String(),
	}
	if s.cfg.Status != nil {
		resp.Scanner = s.cfg.Status()
	}

	status := http.StatusOK
	if !healthy {
		resp.Status = "not_ready"
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, resp)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if s.cfg.Status == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no status reporter configured"})
		return
	}
	writeJSON(w, http.StatusOK, s.cfg.Status())
}

func (s *Server) runChecks(ctx context.Context) map[string]string {
	s.mu.RLock()
	names := make([]string, 0, len(s.checks))
	for name := range s.checks {
		names = append(names, name)
	}
	checks := make([]Check, len(names))
	sort.Strings(names)
	for i, name := range names {
		checks[i] = s.checks[name]
	}
	s.mu.RUnlock()

	outcomes := make([]string, len(names))
	var g errgroup.Group
	for i := range checks {
		g.Go(func() error {
			cctx, cancel := context.WithTimeout(ctx, checkTimeout)
			defer cancel()
			if err := checks[i](cctx); err != nil {
				s.cfg.Logger.WithError(err).WithField("check", names[i]).Warn("Readiness check failed")
				outcomes[i] = "error: " + err.Error()
				return nil
			}
			outcomes[i] = "ok"
			return nil
		})
	}
	_ = g.Wait()

	results := make(map[string]string, len(names)+1)
	for i, name := range names {
		results[name] = outcomes[i]
	}
	return results
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
