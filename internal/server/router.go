package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/surajmeruva0786/restosaas2/internal/config"
	"github.com/surajmeruva0786/restosaas2/internal/handler"
	"github.com/surajmeruva0786/restosaas2/internal/server/authctx"
)

// NewRouter wires HTTP routes and middleware.
func NewRouter(cfg config.Config,
	logger *slog.Logger,
	health handler.HealthHandler,
	home handler.HomeHandler,
	auth handler.AuthHandler,
	storefront handler.StorefrontHandler,
	admin handler.AdminHandler,
	platform handler.PlatformHandler,
	export handler.ExportHandler,
) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(NewLoggerMiddleware(logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(httprate.LimitByIP(200, 1*time.Minute))

	health.RegisterRoutes(r)
	home.RegisterRoutes(r)
	storefront.RegisterRoutes(r)
	r.Method("GET", "/metrics", promhttp.Handler())

	r.Route("/admin", func(ar chi.Router) {
		auth.RegisterAdminRoutes(ar)
		ar.Group(func(g chi.Router) {
			g.Use(AuthMiddleware(cfg.JWTSecret))
			g.Use(RequireRole(authctx.RoleTenantAdmin))
			admin.RegisterRoutes(g)
		})
	})
	r.Route("/superadmin", func(sr chi.Router) {
		auth.RegisterOperatorRoutes(sr)
		sr.Group(func(g chi.Router) {
			g.Use(AuthMiddleware(cfg.JWTSecret))
			g.Use(RequireRole(authctx.RolePlatformOperator))
			platform.RegisterRoutes(g)
			export.RegisterRoutes(g)
		})
	})

	return r
}
