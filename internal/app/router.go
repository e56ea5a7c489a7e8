package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/besy-hub/besy-orders/internal/filtermenu"
	"github.com/besy-hub/besy-orders/internal/observability"
	"github.com/besy-hub/besy-orders/internal/orders"
	"github.com/besy-hub/besy-orders/internal/preferences"
	"github.com/besy-hub/besy-orders/internal/shared"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger             *slog.Logger
	Config             *Config
	Sessions           *shared.SessionStore
	OrdersHandler      *orders.Handler
	PreferencesHandler *preferences.Handler
	FilterMenuHandler  *filtermenu.Handler
	Metrics            *observability.Metrics
}

// NewRouter constructs the chi.Router with BeSy defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:   params.Logger,
		Config:   params.Config,
		Sessions: params.Sessions,
		Metrics:  params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		if params.OrdersHandler != nil {
			params.OrdersHandler.MountRoutes(r)
		}
		if params.PreferencesHandler != nil {
			params.PreferencesHandler.MountRoutes(r)
		}
		if params.FilterMenuHandler != nil {
			params.FilterMenuHandler.MountRoutes(r)
		}
	})

	return r
}
