package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/mathrush/mathrush-go/internal/api/request"
	"github.com/mathrush/mathrush-go/internal/api/response"
	"github.com/mathrush/mathrush-go/internal/model"
	"github.com/mathrush/mathrush-go/internal/services/turn"
	"github.com/mathrush/mathrush-go/internal/storage"
)

const defaultSummaryLimit = 20

// RoomHandler handles room lifecycle endpoints. Rooms must be
// initialized here before any realtime join-game is accepted.
type RoomHandler struct {
	coordinator *turn.Coordinator
	store       storage.Storage
}

// NewRoomHandler creates a new room handler
func NewRoomHandler(coordinator *turn.Coordinator, store storage.Storage) *RoomHandler {
	return &RoomHandler{
		coordinator: coordinator,
		store:       store,
	}
}

// Create handles POST /api/v1/rooms
func (h *RoomHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req request.CreateRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}
	if req.RoomID == "" {
		WriteError(w, NewInvalidRequestError("roomId is required"))
		return
	}

	room, err := h.coordinator.CreateRoom(model.RoomID(req.RoomID), req.Difficulty)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, room)
}

// Get handles GET /api/v1/rooms/{id}. Live rooms are served from the
// registry; rooms already swept fall back to their archived snapshot.
func (h *RoomHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := model.RoomID(mux.Vars(r)["id"])

	if room, ok := h.coordinator.GetRoom(id); ok {
		response.JSON(w, http.StatusOK, room)
		return
	}

	room, err := h.store.GetSnapshot(r.Context(), id)
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, room)
}

// Start handles POST /api/v1/rooms/{id}/start
func (h *RoomHandler) Start(w http.ResponseWriter, r *http.Request) {
	id := model.RoomID(mux.Vars(r)["id"])

	room, err := h.coordinator.StartRoom(id)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, room)
}

// End handles DELETE /api/v1/rooms/{id}. The room moves to completed
// and is swept from the registry after the retention window.
func (h *RoomHandler) End(w http.ResponseWriter, r *http.Request) {
	id := model.RoomID(mux.Vars(r)["id"])

	room, summary, err := h.coordinator.EndRoom(id)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.EndRoom{
		Room:    room,
		Summary: response.SummaryFromModel(summary),
	})
}

// GetSummary handles GET /api/v1/rooms/{id}/summary
func (h *RoomHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	id := model.RoomID(mux.Vars(r)["id"])

	summary, err := h.store.GetSummary(r.Context(), id)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.SummaryFromModel(summary))
}

// ListSummaries handles GET /api/v1/summaries
func (h *RoomHandler) ListSummaries(w http.ResponseWriter, r *http.Request) {
	limit := defaultSummaryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			WriteError(w, NewInvalidRequestError("limit must be a positive integer"))
			return
		}
		limit = parsed
	}

	summaries, err := h.store.ListRecentSummaries(r.Context(), limit)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.SummaryListFromModel(summaries))
}
