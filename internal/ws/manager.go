package ws

import (
	"context"
	"net/http"
	"sync"

	"github.com/coder/websocket"

	"github.com/kinoroom/kinoroom/internal/room"
	"github.com/kinoroom/kinoroom/pkg/logger"
)

// Manager routes viewer connections and control commands to per-room hubs.
// The manager lock covers the registry-liveness check together with the
// hub map, so Close and a racing Connect resolve deterministically: the
// viewer either observes NotFound or receives the close notice.
type Manager struct {
	registry *room.Registry

	mu   sync.Mutex
	hubs map[string]*Hub

	log *logger.Logger
}

func NewManager(registry *room.Registry, log *logger.Logger) *Manager {
	return &Manager{
		registry: registry,
		hubs:     make(map[string]*Hub),
		log:      log,
	}
}

// Connect upgrades the request to a WebSocket and registers the viewer
// against a live room. Returns room.ErrNotFound (before upgrading) when
// the room does not exist.
func (m *Manager) Connect(w http.ResponseWriter, r *http.Request, roomID string) error {
	hub, err := m.liveHub(roomID)
	if err != nil {
		return err
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"}, // tighten in prod!
	})
	if err != nil {
		return err
	}

	client := newClient(roomID, conn, hub, m.log)

	if err := hub.register(client); err != nil {
		// Room closed between the liveness check and registration.
		// The HTTP response is gone after the upgrade, so the viewer
		// is told over the socket instead.
		conn.Close(websocket.StatusGoingAway, "room closed")
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	client.cancel = cancel
	go client.writePump(ctx)
	go client.readPump(ctx)

	return nil
}

// Dispatch applies a control command to a room and fans it out to every
// connected viewer. Close destroys the room before Dispatch returns.
func (m *Manager) Dispatch(roomID string, cmd Command) error {
	switch cmd {
	case CommandPlay, CommandPause:
		hub, err := m.liveHub(roomID)
		if err != nil {
			return err
		}
		return hub.dispatch(cmd)

	case CommandClose:
		m.mu.Lock()
		defer m.mu.Unlock()

		hub, ok := m.hubs[roomID]
		if !ok {
			// No viewer ever connected; the room may still be live
			if _, err := m.registry.Get(roomID); err != nil {
				return err
			}
			hub = newHub(roomID, m.registry, m.log)
		}
		delete(m.hubs, roomID)
		return hub.close()

	default:
		return ErrUnknownCommand
	}
}

// ViewerCount reports connected viewers for a room; zero for unknown rooms.
func (m *Manager) ViewerCount(roomID string) int {
	m.mu.Lock()
	hub, ok := m.hubs[roomID]
	m.mu.Unlock()

	if !ok {
		return 0
	}
	return hub.viewerCount()
}

// Shutdown disconnects every viewer of every room. Rooms themselves are
// in-memory and die with the process anyway.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	hubs := m.hubs
	m.hubs = make(map[string]*Hub)
	m.mu.Unlock()

	for _, hub := range hubs {
		hub.shutdown()
	}

	m.log.Info("websocket manager shut down", "hubs_closed", len(hubs))
}

// liveHub returns the room's hub, creating one on first use, or
// room.ErrNotFound when the room does not exist.
func (m *Manager) liveHub(roomID string) (*Hub, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if hub, ok := m.hubs[roomID]; ok {
		return hub, nil
	}

	if _, err := m.registry.Get(roomID); err != nil {
		return nil, err
	}

	hub := newHub(roomID, m.registry, m.log)
	m.hubs[roomID] = hub
	return hub, nil
}
