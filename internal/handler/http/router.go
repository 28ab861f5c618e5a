package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/MumuCarrot/bestpractices-bc/pkg/health"
	"github.com/MumuCarrot/bestpractices-bc/pkg/middleware"

	"github.com/MumuCarrot/bestpractices-bc/internal/auth"
	"github.com/MumuCarrot/bestpractices-bc/internal/service"
)

// NewRouter creates a chi router with all auth service routes registered.
func NewRouter(
	authService *service.AuthService,
	tokens *auth.TokenManager,
	healthHandler *health.Handler,
	logger *slog.Logger,
	corsConfig CORSConfig,
	cookieConfig CookieConfig,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(CORS(corsConfig))
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics())
	r.Use(middleware.Tracing())

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	authHandler := NewAuthHandler(authService, logger, cookieConfig)

	// Token validator that bridges to the token manager.
	tokenValidator := func(token string) (string, error) {
		claims, err := tokens.Verify(token)
		if err != nil {
			return "", err
		}
		return claims.UserID, nil
	}

	r.Route("/auth", func(r chi.Router) {
		// Public endpoints
		r.With(ContentTypeJSON).Post("/register", authHandler.Register)
		r.With(ContentTypeJSON).Post("/login", authHandler.Login)
		r.Get("/refresh-token", authHandler.RefreshToken)

		// Authenticated endpoints
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(tokenValidator))

			r.Get("/me", authHandler.Me)
		})
	})

	return r
}
