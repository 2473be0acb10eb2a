package handlers

import (
	"encoding/json"
	"net/http"
	"sort"
	"strconv"

	"github.com/cbodonnell/roomsync/pkg/log"
	"github.com/cbodonnell/roomsync/pkg/state"
	"github.com/gorilla/mux"
)

// Status holds the static facts reported next to the live snapshot.
type Status struct {
	Version        string `json:"version"`
	GameServerID   int    `json:"gameServerID"`
	RoomSize       int    `json:"roomSize"`
	MaxGames       int    `json:"maxGames"`
	MaxConnections int    `json:"maxConnections"`
}

type StatusResponse struct {
	Status
	ActiveRooms int             `json:"activeRooms"`
	Waiting     int             `json:"waiting"`
	Connected   int             `json:"connected"`
	Snapshot    *state.Snapshot `json:"snapshot"`
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("failed to encode response: %v", err)
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

func HandleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]string{"status": "ok"})
	}
}

func HandleListRooms(stateManager state.StateManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snapshot, err := stateManager.Get(r.Context())
		if err != nil {
			log.Error("failed to get master state: %v", err)
			http.Error(w, "Failed to get rooms", http.StatusInternalServerError)
			return
		}

		rooms := make([]state.RoomState, 0, len(snapshot.Rooms))
		for _, room := range snapshot.Rooms {
			rooms = append(rooms, room)
		}
		sort.Slice(rooms, func(i, j int) bool { return rooms[i].Room < rooms[j].Room })
		writeJSON(w, rooms)
	}
}

func HandleGetRoom(stateManager state.StateManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		number, err := strconv.Atoi(mux.Vars(r)["room"])
		if err != nil {
			http.Error(w, "Failed to parse room", http.StatusBadRequest)
			return
		}

		snapshot, err := stateManager.Get(r.Context())
		if err != nil {
			log.Error("failed to get master state: %v", err)
			http.Error(w, "Failed to get room", http.StatusInternalServerError)
			return
		}

		room, ok := snapshot.Rooms[number]
		if !ok {
			http.Error(w, "Room not found", http.StatusNotFound)
			return
		}
		writeJSON(w, room)
	}
}

func HandleStatus(stateManager state.StateManager, status Status) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snapshot, err := stateManager.Get(r.Context())
		if err != nil {
			log.Error("failed to get master state: %v", err)
			http.Error(w, "Failed to get status", http.StatusInternalServerError)
			return
		}

		writeJSON(w, StatusResponse{
			Status:      status,
			ActiveRooms: len(snapshot.Rooms),
			Waiting:     len(snapshot.Waiting),
			Connected:   snapshot.Connected,
			Snapshot:    snapshot,
		})
	}
}
