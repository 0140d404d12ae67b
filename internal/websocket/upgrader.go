package websocket

import (
	"log/slog"
	"net/http"
	"slices"

	"github.com/gorilla/websocket"

	"energypolicy/internal/config"
)

// NewUpgrader builds an upgrader that accepts requests without an Origin
// header, from the request's own host, or from allowedOrigins ("*" allows
// any). onError, when non-nil, writes the failure response.
func NewUpgrader(cfg config.WebSocketConfig, allowedOrigins []string, logger *slog.Logger, onError func(w http.ResponseWriter, r *http.Request, status int, reason error)) *websocket.Upgrader {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "websocket.upgrader"))

	return &websocket.Upgrader{
		ReadBufferSize:  cfg.ReadBufferSize,
		WriteBufferSize: cfg.WriteBufferSize,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" || origin == "http://"+r.Host || origin == "https://"+r.Host {
				return true
			}
			if slices.Contains(allowedOrigins, "*") || slices.Contains(allowedOrigins, origin) {
				return true
			}
			logger.WarnContext(r.Context(), "WebSocket origin check - origin not allowed",
				slog.String("origin", origin),
				slog.Any("allowed_origins", allowedOrigins))
			return false
		},
		Error: func(w http.ResponseWriter, r *http.Request, status int, reason error) {
			logger.WarnContext(r.Context(), "WebSocket upgrade error",
				slog.Int("status", status),
				slog.String("reason", reason.Error()),
				slog.String("origin", r.Header.Get("Origin")))
			if onError != nil {
				onError(w, r, status, reason)
				return
			}
			http.Error(w, http.StatusText(status), status)
		},
	}
}
