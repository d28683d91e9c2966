package ws

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/kinoroom/kinoroom/internal/room"
)

// MessageType defines the type of WebSocket message sent to viewers
type MessageType string

const (
	TypeState        MessageType = "state"
	TypePlay         MessageType = "play"
	TypePause        MessageType = "pause"
	TypeClose        MessageType = "close"
	TypeViewerJoined MessageType = "viewer_joined"
	TypeViewerLeft   MessageType = "viewer_left"
)

// Message is the base structure for all WebSocket messages
type Message struct {
	Type      MessageType `json:"type"`
	Data      any         `json:"data,omitempty"`
	Timestamp int64       `json:"timestamp"`
}

// StateData is the playback snapshot a viewer receives on join
type StateData struct {
	RoomID string     `json:"room_id"`
	State  room.State `json:"state"`
}

// ViewerData identifies a viewer joining or leaving the room
type ViewerData struct {
	ViewerID uuid.UUID `json:"viewer_id"`
}

// CloseData tells viewers the room ceased to exist
type CloseData struct {
	RoomID string `json:"room_id"`
}

// NewStateMessage creates the snapshot message for late joiners
func NewStateMessage(roomID string, state room.State) *Message {
	return newMessage(TypeState, StateData{RoomID: roomID, State: state})
}

// NewViewerJoined creates a viewer joined notification
func NewViewerJoined(viewerID uuid.UUID) *Message {
	return newMessage(TypeViewerJoined, ViewerData{ViewerID: viewerID})
}

// NewViewerLeft creates a viewer left notification
func NewViewerLeft(viewerID uuid.UUID) *Message {
	return newMessage(TypeViewerLeft, ViewerData{ViewerID: viewerID})
}

// NewCloseMessage creates the close notice broadcast before a room dies
func NewCloseMessage(roomID string) *Message {
	return newMessage(TypeClose, CloseData{RoomID: roomID})
}

func newMessage(t MessageType, data any) *Message {
	return &Message{
		Type:      t,
		Data:      data,
		Timestamp: time.Now().Unix(),
	}
}

// ToJSON converts a message to JSON bytes
func (m *Message) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// Command is a playback control issued against a room.
type Command string

const (
	CommandPlay  Command = "play"
	CommandPause Command = "pause"
	CommandClose Command = "close"
)

// ErrUnknownCommand is returned for control requests outside play/pause/close.
var ErrUnknownCommand = errors.New("unknown control command")

// ParseCommand validates a wire-format command string.
func ParseCommand(s string) (Command, error) {
	switch Command(s) {
	case CommandPlay, CommandPause, CommandClose:
		return Command(s), nil
	default:
		return "", ErrUnknownCommand
	}
}

// messageFor maps a playback command to its broadcast message.
func messageFor(cmd Command, roomID string) *Message {
	switch cmd {
	case CommandPlay:
		return newMessage(TypePlay, StateData{RoomID: roomID, State: room.StatePlaying})
	case CommandPause:
		return newMessage(TypePause, StateData{RoomID: roomID, State: room.StatePaused})
	default:
		return NewCloseMessage(roomID)
	}
}
