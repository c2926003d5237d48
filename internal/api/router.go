package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mathrush/mathrush-go/internal/api/handler"
	apimiddleware "github.com/mathrush/mathrush-go/internal/api/middleware"
	"github.com/mathrush/mathrush-go/internal/api/response"
	"github.com/mathrush/mathrush-go/internal/gateway"
	"github.com/mathrush/mathrush-go/internal/middleware"
	"github.com/mathrush/mathrush-go/internal/registry"
	"github.com/mathrush/mathrush-go/internal/services/turn"
	"github.com/mathrush/mathrush-go/internal/storage"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger      *slog.Logger
	Coordinator *turn.Coordinator
	Registry    *registry.Registry
	Store       storage.Storage
	Gateway     *gateway.Gateway
}

// NewRouter creates a new router with the HTTP API and the realtime
// endpoint configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	roomHandler := handler.NewRoomHandler(cfg.Coordinator, cfg.Store)

	loggingMiddleware := middleware.Logging(cfg.Logger)
	recoveryMiddleware := apimiddleware.Recovery(cfg.Logger)

	// API subrouter with common middleware
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(recoveryMiddleware)
	api.Use(loggingMiddleware)

	// Room lifecycle routes. Rooms are initialized here; gameplay flows
	// over the realtime endpoint.
	api.HandleFunc("/rooms", roomHandler.Create).Methods(http.MethodPost)
	api.HandleFunc("/rooms/{id}", roomHandler.Get).Methods(http.MethodGet)
	api.HandleFunc("/rooms/{id}", roomHandler.End).Methods(http.MethodDelete)
	api.HandleFunc("/rooms/{id}/start", roomHandler.Start).Methods(http.MethodPost)
	api.HandleFunc("/rooms/{id}/summary", roomHandler.GetSummary).Methods(http.MethodGet)
	api.HandleFunc("/summaries", roomHandler.ListSummaries).Methods(http.MethodGet)

	// Health check endpoint
	api.HandleFunc("/health", healthHandler(cfg.Registry)).Methods(http.MethodGet)

	// Realtime endpoint; the gateway owns the connection after upgrade,
	// so it sits outside the HTTP middleware chain
	r.HandleFunc("/ws", cfg.Gateway.HandleWS)

	return r
}

func healthHandler(reg *registry.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response.JSON(w, http.StatusOK, response.Health{
			Status: "ok",
			Rooms:  reg.Len(),
		})
	}
}
