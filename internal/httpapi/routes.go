package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/songclash/songclash-backend/internal/hub"
	"github.com/songclash/songclash-backend/internal/ws"
)

func SetupRoutes(h *hub.Hub, joinBaseURL string, log *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Post("/sessions", CreateSession(h, log))
	r.Get("/sessions/{code}/qr", JoinQR(h, joinBaseURL))
	r.Get("/healthz", Healthz)
	r.Get("/ws", ws.Handler(h, log))
	return r
}
