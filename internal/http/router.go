package httpx

import (
	"net/http"
	"time"

	"github.com/HarshilGandhi7/Code-collab/internal/app"
	"github.com/HarshilGandhi7/Code-collab/internal/room"
	"github.com/HarshilGandhi7/Code-collab/internal/store"
	"github.com/HarshilGandhi7/Code-collab/internal/ws"
	"github.com/HarshilGandhi7/Code-collab/pkg/metrics"
)

// NewRouter wires up all HTTP routes, middleware, and handlers. db may be
// nil (archive disabled).
func NewRouter(cfg app.Config, hub *ws.Hub, rooms *room.Store, db *store.Postgres) http.Handler {
	mw := NewMiddleware(cfg)
	api := &API{Hub: hub, Rooms: rooms, DB: db, Start: time.Now()}

	mux := http.NewServeMux()

	// Banner / liveness / metrics
	mux.Handle("/", http.HandlerFunc(api.Index))
	mux.Handle("/health", http.HandlerFunc(api.Health))
	mux.Handle("/metrics", metrics.Handler())

	// WebSocket endpoint
	mux.Handle("/ws", http.HandlerFunc(hub.ServeWS))

	// Admin API
	mux.Handle("/api/stats", http.HandlerFunc(api.Stats))
	mux.Handle("/api/snapshots", mw.Auth(http.HandlerFunc(api.Snapshots)))

	// CORS + rate limit applied globally
	return mw.Wrap(mux)
}
