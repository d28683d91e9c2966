package server

import (
	"html/template"
	"net/http"

	"github.com/go-chi/chi/v5"
)

var roomPage = template.Must(template.New("room").Parse(`<!DOCTYPE html>
<html>
<head>
  <title>Watch room {{.RoomID}}</title>
</head>
<body>
  <h1>Watch room: {{.RoomID}}</h1>
  {{if .EmbedURL}}
    <iframe width="640" height="360" src="{{.EmbedURL}}" allowfullscreen></iframe>
  {{else}}
    <p>Room does not exist or is inactive.</p>
  {{end}}
</body>
</html>
`))

type roomPageData struct {
	RoomID   string
	EmbedURL string
}

// handleRoomPage renders the watch page. Unknown rooms still get a page,
// just with the inactive notice instead of the player.
func (s *Server) handleRoomPage(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "roomID")

	data := roomPageData{RoomID: roomID}

	status := http.StatusOK
	if rm, err := s.registry.Get(roomID); err == nil {
		data.EmbedURL = rm.EmbedURL
	} else {
		status = http.StatusNotFound
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)

	if err := roomPage.Execute(w, data); err != nil {
		s.log.Error("failed to render room page", "room_id", roomID, "error", err)
	}
}
