package server

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/skyloft/kitedrift/internal/game"
	"github.com/skyloft/kitedrift/internal/kitedrift"
	"github.com/skyloft/kitedrift/internal/store"
)

// RoomSummary is a room plus its current member count, for the lobby list.
type RoomSummary struct {
	kitedrift.Room
	PlayerCount int `json:"playerCount"`
}

func handleListRooms(s store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rooms, err := s.ListRooms(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		summaries := make([]RoomSummary, 0, len(rooms))
		for _, room := range rooms {
			members, err := s.MembersByRoom(r.Context(), room.ID)
			if err != nil {
				writeError(w, http.StatusInternalServerError, "internal error")
				return
			}
			summaries = append(summaries, RoomSummary{Room: room, PlayerCount: len(members)})
		}
		writeJSON(w, http.StatusOK, summaries)
	}
}

type CreateRoomRequest struct {
	Name        string `json:"name"`
	CreatorID   int64  `json:"creatorId"`
	MaxPlayers  int    `json:"maxPlayers"`
	TargetCoins int    `json:"targetCoins"`
}

func handleCreateRoom(s store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateRoomRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		req.Name = strings.TrimSpace(req.Name)
		if req.Name == "" || req.CreatorID == 0 {
			writeError(w, http.StatusBadRequest, "name and creatorId are required")
			return
		}
		if req.MaxPlayers <= 0 {
			req.MaxPlayers = 4
		}
		if req.TargetCoins <= 0 {
			req.TargetCoins = 500
		}

		room, err := s.CreateRoom(r.Context(), req.Name, req.CreatorID, req.MaxPlayers, req.TargetCoins)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusCreated, room)
	}
}

// RoomDetailResponse bundles the room with its members and kites.
type RoomDetailResponse struct {
	Room    kitedrift.Room             `json:"room"`
	Players []kitedrift.RoomMembership `json:"players"`
	Kites   []kitedrift.Kite           `json:"kites"`
}

func handleGetRoom(eng *game.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid room id")
			return
		}

		state, err := eng.RoomState(r.Context(), id)
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "room not found")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, RoomDetailResponse{
			Room:    state.Room,
			Players: state.Players,
			Kites:   state.Kites,
		})
	}
}
