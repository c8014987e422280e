package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/preciousyou/precious-backend/api/controllers"
	"github.com/preciousyou/precious-backend/api/middleware"
	"github.com/preciousyou/precious-backend/internal/auth"
	"github.com/preciousyou/precious-backend/internal/dispatch"
	"github.com/preciousyou/precious-backend/internal/users"
	"github.com/preciousyou/precious-backend/pkg/auth/session"
	"github.com/preciousyou/precious-backend/pkg/config"
	"github.com/preciousyou/precious-backend/pkg/db"
	"github.com/preciousyou/precious-backend/pkg/logger"
	"github.com/preciousyou/precious-backend/pkg/redis"
)

// RouterParams bundles everything the HTTP surface needs.
type RouterParams struct {
	Config      *config.Config
	Logger      *logger.Logger
	DB          db.Pinger
	Redis       *redis.Client
	Sessions    session.AccessSessionChecker
	AuthService auth.Service
	UserService *users.Service
	Dispatch    *dispatch.Service
	// Registry backs the /metrics endpoint; nil falls back to the default.
	Registry *prometheus.Registry
}

func NewRouter(p RouterParams) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(p.Logger),
		middleware.RequestID(p.Logger),
		middleware.Logging(p.Logger),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(p.Config))
		r.Get("/ready", controllers.HealthReady(p.Config, p.Logger, p.DB, p.Redis))
	})

	if p.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(p.Registry, promhttp.HandlerOpts{}))
	} else {
		r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/apple", controllers.AuthApple(p.AuthService, p.Logger))
			r.Post("/google", controllers.AuthGoogle(p.AuthService, p.Logger))
			r.Post("/refresh", controllers.AuthRefresh(p.AuthService, p.Logger))

			r.Group(func(r chi.Router) {
				r.Use(middleware.Auth(p.Config.JWT, p.Sessions, p.Logger))
				r.Post("/logout", controllers.AuthLogout(p.AuthService, p.Logger))
				r.Delete("/account", controllers.AuthDeleteAccount(p.AuthService, p.Logger))
				r.Get("/me", controllers.AuthMe(p.AuthService, p.Logger))
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(p.Config.JWT, p.Sessions, p.Logger))
			r.Put("/me", controllers.UpdateProfile(p.UserService, p.Logger))
			r.Post("/device", controllers.RegisterDevice(p.UserService, p.Logger))
			r.Post("/push/test", controllers.TestPush(p.Dispatch, p.Logger))
		})
	})

	return r
}
