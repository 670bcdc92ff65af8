package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"sync"
	"time"

	applog "finsight/internal/log"
	"finsight/internal/middleware/ratelimit"
	"finsight/internal/middleware/security"
	"finsight/internal/middleware/trace"
	"finsight/internal/services"
	"finsight/internal/session"
	appweb "finsight/web"
)

// Config holds the server wiring.
type Config struct {
	Addr         string
	Advisor      *services.AdvisorService
	DemoUserID   string
	DemoPassword string
}

// Server is the web frontend: login, the tab shell and the HTMX partials.
type Server struct {
	http.Server
	templates *template.Template
	advisor   *services.AdvisorService

	limiter    *ratelimit.Limiter
	detector   *security.Detector
	headers    *security.HeadersMiddleware
	tracer     *trace.Middleware
	logger     *applog.Logger
	structured *applog.StructuredLogger

	demoUserID   string
	demoPassword string

	startedAt    time.Time
	shutdownOnce sync.Once
}

// NewServer configures routes and templates, returning a ready-to-run server.
func NewServer(cfg Config) *Server {
	mux := http.NewServeMux()

	detector := security.NewDetector()
	logger := applog.New(applog.Config{
		Component: applog.ComponentHTTP,
		Handler:   slog.Default().Handler(),
	})
	s := &Server{
		Server: http.Server{
			Addr:              cfg.Addr,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		},
		advisor:      cfg.Advisor,
		limiter:      ratelimit.NewLimiter(ratelimit.DefaultConfig()),
		detector:     detector,
		headers:      security.NewHeadersMiddleware(security.DefaultHeadersConfig()),
		tracer:       trace.NewMiddleware(detector.ExtractClientIP),
		logger:       logger,
		structured:   applog.NewStructuredLogger(logger),
		demoUserID:   cfg.DemoUserID,
		demoPassword: cfg.DemoPassword,
		startedAt:    time.Now(),
	}

	// Parse embedded templates at startup.
	t, err := template.New("").Funcs(templateFuncs()).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		slog.Warn("Failed parsing templates", "error", err)
	}
	s.templates = t

	// Static assets (served from embedded FS)
	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("/static/", security.StaticAssetMiddleware(3600)(static))
	} else {
		slog.Warn("Failed to mount embedded static FS", "error", err)
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.Handle("GET /{$}", s.protect(s.handleLoginPage))
	mux.Handle("POST /login", s.protect(s.handleLogin))
	mux.Handle("POST /logout", s.protect(s.handleLogout))

	mux.Handle("GET /app", s.protect(s.handleApp))
	mux.Handle("POST /upload", s.protect(s.handleUpload))
	mux.Handle("GET /export/report", s.protect(s.handleReport))

	mux.Handle("GET /ui/backend-status", s.protect(s.handleBackendStatus))
	mux.Handle("GET /ui/dashboard-overview", s.protect(s.handleDashboardOverview))
	mux.Handle("GET /ui/analysis", s.protect(s.handleAnalysis))
	mux.Handle("GET /ui/budget-scenarios", s.protect(s.handleBudgetScenarios))

	mux.Handle("GET /ui/debt-analysis", s.protect(s.handleDebtAnalysis))
	mux.Handle("GET /ui/debt-list", s.protect(s.handleDebtList))
	mux.Handle("POST /debts", s.protect(s.handleDebtCreate))
	mux.Handle("POST /debts/strategy", s.protect(s.handleDebtStrategy))
	mux.Handle("POST /debts/{id}", s.protect(s.handleDebtUpdate))
	mux.Handle("POST /debts/{id}/delete", s.protect(s.handleDebtDelete))

	mux.Handle("GET /ui/investment-analysis", s.protect(s.handleInvestmentAnalysis))
	mux.Handle("POST /investments", s.protect(s.handleInvestmentCreate))
	mux.Handle("POST /investments/{id}/delete", s.protect(s.handleInvestmentDelete))
	mux.Handle("POST /goals", s.protect(s.handleGoalCreate))
	mux.Handle("POST /goals/{id}/delete", s.protect(s.handleGoalDelete))

	mux.Handle("GET /ui/chat", s.protect(s.handleChat))
	mux.Handle("POST /chat/send", s.protect(s.handleChatSend))

	return s
}

// protect chains the standard middleware: request tracing and logging,
// security headers, suspicious-request detection and per-IP rate limiting
// on mutating requests.
func (s *Server) protect(next http.HandlerFunc) http.Handler {
	guarded := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clientIP := s.detector.ExtractClientIP(r)

		if s.detector.DetectSuspiciousRequest(r) {
			slog.WarnContext(r.Context(), "Suspicious request",
				"client_ip", clientIP, "method", r.Method, "path", r.URL.Path)
		}

		if r.Method == http.MethodPost && !s.limiter.Allow(clientIP) {
			slog.WarnContext(r.Context(), "Rate limit exceeded",
				"client_ip", clientIP, "method", r.Method, "path", r.URL.Path)
			w.Header().Set("Retry-After", "60")
			http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
			return
		}

		next.ServeHTTP(w, r)
	})

	withLogger := applog.Middleware(s.logger)(
		applog.RequestIDMiddleware(func(r *http.Request) string {
			return trace.GetRequestID(r.Context())
		})(guarded))

	return s.tracer.Middleware(s.headers.Middleware(withLogger))
}

// Shutdown gracefully shuts down the server and cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		if s.limiter != nil {
			s.limiter.Stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}

const sessionCookie = "finsight_session"

func setSessionCookie(w http.ResponseWriter, id string) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
}

// sessionFromRequest resolves the cookie to a stored session.
func (s *Server) sessionFromRequest(r *http.Request) (*session.Session, error) {
	c, err := r.Cookie(sessionCookie)
	if err != nil || c.Value == "" {
		return nil, session.ErrNotFound
	}
	return s.advisor.Session(r.Context(), c.Value)
}

// render executes a template into a buffer so a render failure never
// leaves a half-written response.
func (s *Server) render(w http.ResponseWriter, r *http.Request, name string, data any) {
	if s.templates == nil {
		slog.ErrorContext(r.Context(), "Templates not loaded", "template", name)
		InternalServerError("templates not loaded").Write(w)
		return
	}

	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		slog.ErrorContext(r.Context(), "Template execution failed", "template", name, "error", err)
		InternalServerError("rendering failed").Write(w)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

// renderLoadError renders the inline error panel with a retry control that
// re-invokes the same loader.
func (s *Server) renderLoadError(w http.ResponseWriter, r *http.Request, message, retryURL, target string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	s.render(w, r, "load_error.html", struct {
		Message  string
		RetryURL string
		Target   string
	}{Message: message, RetryURL: retryURL, Target: target})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.startedAt).String(),
	})
}

// handleReady verifies templates, the session store and analyzer
// reachability before reporting ready.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]string)

	if s.templates == nil {
		checks["templates"] = "failed: templates not loaded"
		status, httpStatus = "not_ready", http.StatusServiceUnavailable
	} else {
		checks["templates"] = "ok"
	}

	// A lookup miss still proves the store answers.
	if _, err := s.advisor.Session(ctx, "readyz-probe"); err == nil || errors.Is(err, session.ErrNotFound) {
		checks["session_store"] = "ok"
	} else {
		checks["session_store"] = "failed: " + err.Error()
		status, httpStatus = "not_ready", http.StatusServiceUnavailable
	}

	if healthy, _ := s.advisor.BackendStatus(ctx); healthy {
		checks["analyzer"] = "ok"
	} else {
		// The app degrades to demo data without the analyzer, so this
		// is reported but not fatal for readiness.
		checks["analyzer"] = "unreachable"
	}

	w.WriteHeader(httpStatus)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	})
}
