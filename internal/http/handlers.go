package httpx

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/HarshilGandhi7/Code-collab/internal/room"
	"github.com/HarshilGandhi7/Code-collab/internal/store"
	"github.com/HarshilGandhi7/Code-collab/internal/ws"
)

// API serves the monitoring and admin endpoints. DB is nil when the
// snapshot archive is not configured.
type API struct {
	Hub   *ws.Hub
	Rooms *room.Store
	DB    *store.Postgres
	Start time.Time
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Index is the plain-text banner the editor client pings on load.
func (a *API) Index(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("Code Collab coordination server is running"))
}

type healthResponse struct {
	Status    string    `json:"status"`
	Uptime    float64   `json:"uptime"`
	Timestamp time.Time `json:"timestamp"`
}

// Health reports process uptime for external monitoring. It carries no room
// state and is not part of the coordination protocol.
func (a *API) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:    "ok",
		Uptime:    time.Since(a.Start).Seconds(),
		Timestamp: time.Now().UTC(),
	})
}

type statsResponse struct {
	ActiveRooms       int       `json:"active_rooms"`
	ActiveConnections int64     `json:"active_connections"`
	Timestamp         time.Time `json:"timestamp"`
}

// Stats exposes live coordinator counters.
func (a *API) Stats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, statsResponse{
		ActiveRooms:       a.Rooms.Len(),
		ActiveConnections: a.Hub.ActiveConnections(),
		Timestamp:         time.Now().UTC(),
	})
}

type snapshotResponse struct {
	ID       int64     `json:"id"`
	RoomID   string    `json:"roomId"`
	Language string    `json:"language"`
	Code     string    `json:"code"`
	ClosedAt time.Time `json:"closedAt"`
}

// Snapshots lists a room's archived teardown snapshots, newest first.
func (a *API) Snapshots(w http.ResponseWriter, r *http.Request) {
	if a.DB == nil {
		http.Error(w, "snapshot archive not configured", http.StatusServiceUnavailable)
		return
	}
	roomID := r.URL.Query().Get("roomId")
	if roomID == "" {
		http.Error(w, "roomId required", http.StatusBadRequest)
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	snaps, err := a.DB.ListSnapshots(r.Context(), roomID, limit)
	if err != nil {
		http.Error(w, "failed to list snapshots", http.StatusInternalServerError)
		return
	}

	resp := make([]snapshotResponse, 0, len(snaps))
	for _, s := range snaps {
		resp = append(resp, snapshotResponse{
			ID: s.ID, RoomID: s.RoomID, Language: s.Language, Code: s.Code, ClosedAt: s.ClosedAt,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}
