package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"clipguard/internal/logging"
	"clipguard/internal/moderation"
	"clipguard/internal/services"
	"clipguard/internal/workspace"
)

// Banner is the message returned by GET /.
const Banner = "O Agente Moderador está online!"

const (
	maxBodyBytes    = 16 << 10
	shutdownTimeout = 10 * time.Second
)

// Runner executes one moderation request. *pipeline.Orchestrator implements it.
type Runner interface {
	Run(ctx context.Context, req moderation.Request) moderation.Result
}

// Config tunes the server.
type Config struct {
	Bind               string
	MaxConcurrent      int
	RateLimitPerMinute int
	CORSOrigins        []string
}

// Server serves the moderation API.
type Server struct {
	bind    string
	logger  *slog.Logger
	runner  Runner
	limiter *rate.Limiter
	slots   *semaphore.Weighted
	metrics *metrics
	handler http.Handler

	listener net.Listener
	server   *http.Server
}

// New builds a Server. gatherer backs /metrics and reg receives the HTTP
// collectors; either may be nil.
func New(cfg Config, runner Runner, reg prometheus.Registerer, gatherer prometheus.Gatherer, logger *slog.Logger) *Server {
	s := &Server{
		bind:    strings.TrimSpace(cfg.Bind),
		logger:  logging.NewComponentLogger(logger, "api-server"),
		runner:  runner,
		limiter: newLimiter(cfg.RateLimitPerMinute),
		slots:   semaphore.NewWeighted(int64(max(cfg.MaxConcurrent, 1))),
		metrics: newMetrics(reg),
	}

	mux := chi.NewRouter()
	mux.Use(middleware.Recoverer)
	if len(cfg.CORSOrigins) > 0 {
		mux.Use(cors.Handler(cors.Options{
			AllowedOrigins: cfg.CORSOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type"},
			ExposedHeaders: []string{"X-Request-ID"},
			MaxAge:         300,
		}))
	}

	mux.Get("/", s.instrument("/", s.handleHome))
	mux.Get("/healthz", s.instrument("/healthz", s.handleHealth))
	mux.Post("/analyze", s.instrument("/analyze", s.handleAnalyze))
	mux.Post("/analisar", s.instrument("/analyze", s.handleAnalyze))
	if gatherer != nil {
		mux.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}
	s.handler = mux
	return s
}

func newLimiter(perMinute int) *rate.Limiter {
	if perMinute <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	return rate.NewLimiter(rate.Limit(float64(perMinute)/60), perMinute)
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Addr returns the bound listener address once started.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Start listens on the configured address and serves until ctx is done.
func (s *Server) Start(ctx context.Context) error {
	if s.bind == "" {
		return services.Wrap(services.ErrConfiguration, "api", "listen", "api.bind not configured", nil)
	}
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener
	s.server = &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		// Runs download, transcribe and call models synchronously.
		WriteTimeout: 30 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error", logging.Error(err))
		}
	}()
	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	s.logger.Info("api server listening",
		logging.String("address", listener.Addr().String()),
		logging.String(logging.FieldEventType, "api_listening"),
	)
	return nil
}

// Stop shuts the server down, waiting briefly for in-flight requests.
func (s *Server) Stop() {
	if s.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}
}

type analyzeRequest struct {
	URL string `json:"url"`
}

func (s *Server) handleHome(w http.ResponseWriter, _ *http.Request) int {
	return s.writeJSON(w, http.StatusOK, map[string]string{"message": Banner})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) int {
	return s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) int {
	var body analyzeRequest
	decoder := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := decoder.Decode(&body); err != nil {
		return s.writeError(w, http.StatusBadRequest, "invalid JSON body: expected {\"url\": \"...\"}")
	}
	body.URL = strings.TrimSpace(body.URL)
	if body.URL == "" {
		return s.writeError(w, http.StatusBadRequest, "url is required")
	}

	if !s.limiter.Allow() {
		s.metrics.rejected.WithLabelValues("rate").Inc()
		w.Header().Set("Retry-After", "60")
		return s.writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
	}
	if !s.slots.TryAcquire(1) {
		s.metrics.rejected.WithLabelValues("busy").Inc()
		w.Header().Set("Retry-After", strconv.Itoa(30))
		return s.writeError(w, http.StatusTooManyRequests, "too many analyses in progress")
	}
	defer s.slots.Release(1)

	id := workspace.NewRequestID()
	w.Header().Set("X-Request-ID", id)
	ctx := services.WithRequestID(r.Context(), id)

	s.logger.Info("analysis requested",
		logging.String(logging.FieldRequestID, id),
		logging.String("url", body.URL),
		logging.String("remote_addr", r.RemoteAddr),
		logging.String(logging.FieldEventType, "analysis_requested"),
	)

	result := s.runner.Run(ctx, moderation.Request{SourceURL: body.URL})
	status := http.StatusOK
	if !result.Succeeded() {
		status = http.StatusUnprocessableEntity
	}
	return s.writeJSON(w, status, result)
}

type routeHandler func(http.ResponseWriter, *http.Request) int

func (s *Server) instrument(route string, h routeHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := h(w, r)
		s.metrics.requests.WithLabelValues(route, strconv.Itoa(code)).Inc()
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) int {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return status
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", logging.Error(err))
	}
	return status
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) int {
	return s.writeJSON(w, status, map[string]string{"error": message})
}
