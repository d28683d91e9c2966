package server

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kinoroom/kinoroom/internal/embed"
	"github.com/kinoroom/kinoroom/internal/room"
	"github.com/kinoroom/kinoroom/internal/ws"
	"github.com/kinoroom/kinoroom/pkg/httputil"
)

type CreateRoomRequest struct {
	Link    string `json:"link"`
	OwnerID string `json:"owner_id"`
}

type CreateRoomResponse struct {
	RoomID   string `json:"room_id"`
	EmbedURL string `json:"embed_url"`
	RoomURL  string `json:"room_url"`
}

type RoomResponse struct {
	Room    *room.Room `json:"room"`
	Viewers int        `json:"viewers"`
}

type ControlRequest struct {
	Command string `json:"command"`
}

type ControlResponse struct {
	RoomID  string `json:"room_id"`
	Command string `json:"command"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) error {
	return httputil.RespondJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"rooms":  s.registry.Len(),
	})
}

// handleCreateRoom normalizes the submitted link and opens a room for it
func (s *Server) handleCreateRoom(w http.ResponseWriter, r *http.Request) error {
	req := new(CreateRoomRequest)
	if err := httputil.DecodeJSON(r, req); err != nil {
		return err
	}

	if req.Link == "" {
		return httputil.BadRequest("link is required")
	}
	if req.OwnerID == "" {
		return httputil.BadRequest("owner_id is required")
	}

	embedURL, err := embed.Normalize(req.Link)
	if err != nil {
		return httputil.Unprocessable(
			"Video is not supported or the link is malformed",
			embed.SupportedProviders(),
		)
	}

	rm := s.registry.Create(req.OwnerID, embedURL)

	return httputil.RespondJSON(w, http.StatusCreated, CreateRoomResponse{
		RoomID:   rm.ID,
		EmbedURL: rm.EmbedURL,
		RoomURL:  s.baseURL + "/room/" + rm.ID,
	})
}

func (s *Server) handleGetRoom(w http.ResponseWriter, r *http.Request) error {
	roomID := chi.URLParam(r, "roomID")

	rm, err := s.registry.Get(roomID)
	if err != nil {
		if errors.Is(err, room.ErrNotFound) {
			return httputil.NotFound("Room does not exist or is inactive")
		}
		return httputil.Internal(err)
	}

	return httputil.RespondJSON(w, http.StatusOK, RoomResponse{
		Room:    rm,
		Viewers: s.manager.ViewerCount(roomID),
	})
}

// handleControl forwards a play/pause/close command into the room's
// control channel
func (s *Server) handleControl(w http.ResponseWriter, r *http.Request) error {
	roomID := chi.URLParam(r, "roomID")

	req := new(ControlRequest)
	if err := httputil.DecodeJSON(r, req); err != nil {
		return err
	}

	cmd, err := ws.ParseCommand(req.Command)
	if err != nil {
		return httputil.BadRequest("command must be one of play, pause, close")
	}

	if err := s.manager.Dispatch(roomID, cmd); err != nil {
		if errors.Is(err, room.ErrNotFound) {
			return httputil.NotFound("Room does not exist or is inactive")
		}
		return httputil.Internal(err)
	}

	s.log.Debug("control dispatched",
		"room_id", roomID,
		"command", cmd,
	)

	return httputil.RespondJSON(w, http.StatusOK, ControlResponse{
		RoomID:  roomID,
		Command: string(cmd),
	})
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) error {
	roomID := chi.URLParam(r, "roomID")

	if err := s.manager.Connect(w, r, roomID); err != nil {
		if errors.Is(err, room.ErrNotFound) {
			return httputil.NotFound("Room does not exist or is inactive")
		}
		// Upgrade failures have already written their own response
		s.log.Warn("websocket upgrade failed", "room_id", roomID, "error", err)
		return nil
	}

	return nil
}
