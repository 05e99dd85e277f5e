package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/docchat/bookingbot/internal/appointments"
	"github.com/docchat/bookingbot/internal/chat"
	httpmiddleware "github.com/docchat/bookingbot/internal/http/middleware"
	"github.com/docchat/bookingbot/pkg/logging"
)

// Config holds router configuration.
type Config struct {
	Logger            *logging.Logger
	ChatHandler       *chat.Handler
	AdminAppointments *appointments.AdminHandler
	AdminAuthSecret   string
	MetricsHandler    http.Handler
}

// New creates a Chi router with all routes configured.
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	if cfg.ChatHandler != nil {
		r.Route("/chat", func(r chi.Router) {
			r.Post("/message", cfg.ChatHandler.HandleMessage)
			r.Get("/history", cfg.ChatHandler.HandleHistory)
			r.Get("/ws", cfg.ChatHandler.HandleWebSocket)
		})
	}

	if cfg.AdminAppointments != nil {
		r.Group(func(admin chi.Router) {
			admin.Use(httpmiddleware.AdminJWT(cfg.AdminAuthSecret))
			admin.Get("/admin/appointments", cfg.AdminAppointments.List)
		})
	}

	return r
}
