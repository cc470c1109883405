package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/AlfeuAlves/autvya/internal/auth"
	"github.com/AlfeuAlves/autvya/internal/insight"
	"github.com/AlfeuAlves/autvya/internal/ratelimit"
	"github.com/AlfeuAlves/autvya/internal/storage"
)

// Server is the AuTvya HTTP server.
type Server struct {
	httpServer *http.Server
	handler    http.Handler
	handlers   *Handlers
	logger     *slog.Logger
}

// Handler returns the root HTTP handler for use in tests.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// ServerConfig holds all dependencies and configuration for creating a Server.
// Optional fields (nil-safe): Generator, AuthLimiter, InsightLimiter.
type ServerConfig struct {
	// Required dependencies.
	DB     *storage.DB
	JWTMgr *auth.JWTManager
	Logger *slog.Logger

	// Optional dependencies (nil = disabled).
	Generator      insight.Generator
	AuthLimiter    ratelimit.Limiter
	InsightLimiter ratelimit.Limiter

	// HTTP server settings.
	Port                int
	ReadTimeout         time.Duration
	WriteTimeout        time.Duration
	Version             string
	MaxRequestBodyBytes int64

	// Aggregation window settings.
	MetricsDefaultDays int
	MetricsMaxDays     int
	InsightDays        int
}

// New creates a new HTTP server with all routes configured.
func New(cfg ServerConfig) *Server {
	h := NewHandlers(HandlersDeps{
		DB:                  cfg.DB,
		JWTMgr:              cfg.JWTMgr,
		Generator:           cfg.Generator,
		Logger:              cfg.Logger,
		Version:             cfg.Version,
		MaxRequestBodyBytes: cfg.MaxRequestBodyBytes,
		DefaultDays:         cfg.MetricsDefaultDays,
		MaxDays:             cfg.MetricsMaxDays,
		InsightDays:         cfg.InsightDays,
	})

	// Request ID extractor for rate limit error responses.
	reqIDFunc := func(r *http.Request) string {
		return RequestIDFromContext(r.Context())
	}

	authRL := ratelimit.Middleware(cfg.AuthLimiter, ratelimit.IPKeyFunc, reqIDFunc, cfg.Logger)
	insightRL := ratelimit.Middleware(cfg.InsightLimiter, userKeyFunc, reqIDFunc, cfg.Logger)

	mux := http.NewServeMux()

	// Auth endpoints (no auth required, rate limited by IP).
	mux.Handle("POST /auth/register", authRL(http.HandlerFunc(h.HandleRegister)))
	mux.Handle("POST /auth/login", authRL(http.HandlerFunc(h.HandleLogin)))

	// Child profiles.
	mux.HandleFunc("GET /v1/children", h.HandleListChildren)
	mux.HandleFunc("POST /v1/children", h.HandleCreateChild)
	mux.HandleFunc("GET /v1/children/{child_id}", h.HandleGetChild)
	mux.HandleFunc("PATCH /v1/children/{child_id}", h.HandleUpdateChild)
	mux.HandleFunc("DELETE /v1/children/{child_id}", h.HandleDeleteChild)

	// Interaction ingestion.
	mux.HandleFunc("POST /v1/interactions", h.HandleCreateInteraction)
	mux.HandleFunc("POST /v1/interactions/batch", h.HandleBatchInteractions)

	// Derived views.
	mux.HandleFunc("GET /v1/children/{child_id}/metrics", h.HandleChildMetrics)
	mux.HandleFunc("GET /v1/children/{child_id}/readiness", h.HandleChildReadiness)
	mux.HandleFunc("GET /v1/children/{child_id}/report", h.HandleChildReport)
	mux.HandleFunc("GET /v1/reports/summary", h.HandleReportsSummary)

	// Insight generation (tighter per-user rate limit).
	mux.Handle("POST /v1/insights", insightRL(http.HandlerFunc(h.HandleGenerateInsight)))

	// Health (no auth, no rate limit).
	mux.HandleFunc("GET /health", h.HandleHealth)

	// Middleware chain (outermost executes first):
	// request ID → security headers → tracing → logging → auth → recovery → handler.
	var handler http.Handler = mux
	handler = recoveryMiddleware(cfg.Logger, handler)
	handler = authMiddleware(cfg.JWTMgr, handler)
	handler = loggingMiddleware(cfg.Logger, handler)
	handler = tracingMiddleware(handler)
	handler = securityHeadersMiddleware(handler)
	handler = requestIDMiddleware(handler)

	return &Server{
		httpServer: &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.Port),
			Handler:      handler,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
		},
		handler:  handler,
		handlers: h,
		logger:   cfg.Logger,
	}
}

// userKeyFunc extracts the caregiver ID from the request context for rate
// limiting. Unauthenticated requests fall through to the auth middleware.
func userKeyFunc(r *http.Request) string {
	claims := ClaimsFromContext(r.Context())
	if claims == nil {
		return ""
	}
	return claims.UserID.String()
}

// Start begins serving HTTP requests.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("http server shutting down")
	return s.httpServer.Shutdown(ctx)
}
