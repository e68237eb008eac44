package http

import (
	"net/http"

	"github.com/compound-health-monitor/internal/application/alert"
	"github.com/compound-health-monitor/internal/application/settings"
	"github.com/compound-health-monitor/internal/config"
	"github.com/compound-health-monitor/internal/transport/http/handler"
	appmiddleware "github.com/compound-health-monitor/internal/transport/http/middleware"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/time/rate"
)

// NewRouter builds and returns the application router.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// 5 requests/second, burst of 10, on the public write endpoint.
	saveRL := appmiddleware.NewRateLimiter(rate.Limit(5), 10)

	settingsSvc := settings.NewService(deps.Users, deps.Notifications)
	alertSvc := alert.NewService(deps.Notifications, deps.Sender, deps.TargetRatio)

	settingsH := handler.NewSettingsHandler(settingsSvc)
	notifyH := handler.NewNotifyHandler(alertSvc)

	r.With(saveRL.Limit).Post("/save-settings", settingsH.Save)
	r.Get("/notifications/{address}", settingsH.History)

	r.Route("/api/notify", func(r chi.Router) {
		r.Get("/health", notifyH.Health)
		r.Post("/", notifyH.Send)
		r.Post("/test", notifyH.SendTest)
	})

	return r
}
