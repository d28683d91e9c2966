package room

import (
	"errors"
	"time"
)

// State is the observable playback state of a room.
type State string

const (
	StatePlaying State = "playing"
	StatePaused  State = "paused"
)

// ErrNotFound is returned for rooms that were never created or already closed.
var ErrNotFound = errors.New("room not found")

// Room is one ephemeral watch-party session. Rooms live in memory only and
// do not survive a process restart.
type Room struct {
	ID        string    `json:"id"`
	EmbedURL  string    `json:"embed_url"`
	OwnerID   string    `json:"owner_id"`
	State     State     `json:"state"`
	CreatedAt time.Time `json:"created_at"`
}
