package httpapi

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/velvetcart/secauth"
	"github.com/velvetcart/secauth/middleware"
)

// Config tunes the HTTP surface. The zero value is usable in tests.
type Config struct {
	// SecureCookies marks session and CSRF cookies Secure. Required
	// in production.
	SecureCookies bool

	// CSRFProtection enables the double-submit guard on
	// state-changing authenticated requests.
	CSRFProtection bool

	// Logger receives request-level errors. Defaults to slog.Default.
	Logger *slog.Logger

	// Registry receives the HTTP request metrics. Defaults to the
	// global prometheus registerer.
	Registry prometheus.Registerer

	// ResetTokenSink receives each issued password-reset token so a
	// mailer can deliver it. When nil, tokens are silently discarded;
	// the endpoint still responds identically.
	ResetTokenSink func(email, token string)
}

// Server binds an authentication engine to a chi router.
type Server struct {
	engine         *secauth.Engine
	logger         *slog.Logger
	secureCookies  bool
	csrf           bool
	resetTokenSink func(email, token string)
	metrics        *httpMetrics
}

// New creates a Server over the engine.
func New(engine *secauth.Engine, cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	registry := cfg.Registry
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}
	return &Server{
		engine:         engine,
		logger:         logger,
		secureCookies:  cfg.SecureCookies,
		csrf:           cfg.CSRFProtection,
		resetTokenSink: cfg.ResetTokenSink,
		metrics:        newHTTPMetrics(registry),
	}
}

// csrfExempt lists the endpoints a client may call before it holds a
// CSRF cookie. Everything else under /api/user is guarded.
var csrfExempt = map[string]struct{}{
	"/api/user/login":           {},
	"/api/user/register":        {},
	"/api/user/admin":           {},
	"/api/user/forgot-password": {},
	"/api/user/reset-password":  {},
}

// Routes builds the full router, middleware included.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(middleware.Metadata)
	r.Use(s.metrics.instrument)
	if s.csrf {
		r.Use(middleware.CSRF(middleware.CSRFConfig{
			SkipPath: func(path string) bool {
				_, ok := csrfExempt[path]
				return ok
			},
		}))
	}

	r.Route("/api/user", func(r chi.Router) {
		r.Post("/login", s.handleLogin)
		r.Post("/register", s.handleRegister)
		r.Post("/admin", s.handleAdminLogin)
		r.Post("/forgot-password", s.handleForgotPassword)
		r.Post("/reset-password", s.handleResetPassword)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Authenticate(s.engine))
			r.Get("/me", s.handleMe)
			r.Post("/logout", s.handleLogout)
			r.Post("/change-password", s.handleChangePassword)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(secauth.RoleAdmin))
				r.Post("/admin/logout", s.handleLogout)
			})
		})
	})

	return r
}
