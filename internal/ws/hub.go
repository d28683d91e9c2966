package ws

import (
	"sync"
	"time"

	"github.com/kinoroom/kinoroom/internal/room"
	"github.com/kinoroom/kinoroom/pkg/logger"
)

// Hub owns one room's connected viewer set and serializes every state
// change and broadcast for that room behind its lock. Different rooms
// have independent hubs and proceed in parallel.
type Hub struct {
	roomID   string
	registry *room.Registry

	mu      sync.Mutex
	clients map[*Client]bool
	closed  bool

	metrics HubMetrics

	log *logger.Logger
}

type HubMetrics struct {
	ConnectedClients int
	MessagesSent     int64
	MessagesDropped  int64
	LastActivity     time.Time
}

func newHub(roomID string, registry *room.Registry, log *logger.Logger) *Hub {
	return &Hub{
		roomID:   roomID,
		registry: registry,
		clients:  make(map[*Client]bool),
		metrics:  HubMetrics{LastActivity: time.Now()},
		log:      log,
	}
}

// register adds a viewer to the room and hands it the current playback
// snapshot before any later command can be broadcast. Fails with
// room.ErrNotFound once the room has been closed.
func (h *Hub) register(c *Client) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return room.ErrNotFound
	}

	rm, err := h.registry.Get(h.roomID)
	if err != nil {
		return err
	}

	snapshot, err := NewStateMessage(h.roomID, rm.State).ToJSON()
	if err != nil {
		return err
	}

	h.clients[c] = true
	// Fresh client with an empty buffer, cannot block
	c.send <- snapshot

	h.metrics.ConnectedClients = len(h.clients)
	h.metrics.LastActivity = time.Now()

	h.log.Info("viewer registered",
		"room_id", h.roomID,
		"viewer_id", c.id,
		"total_viewers", len(h.clients),
	)

	h.broadcastLocked(NewViewerJoined(c.id))
	return nil
}

// unregister removes a viewer. Idempotent: safe to call for a viewer that
// was already dropped, and safe concurrently with an in-flight broadcast.
func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.clients[c] {
		return
	}
	h.dropLocked(c)

	h.log.Info("viewer unregistered",
		"room_id", h.roomID,
		"viewer_id", c.id,
		"remaining_viewers", len(h.clients),
	)

	h.broadcastLocked(NewViewerLeft(c.id))
}

// dispatch applies a Play or Pause command: mutate the room state first,
// then fan the command out. Callers route Close through close instead.
func (h *Hub) dispatch(cmd Command) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return room.ErrNotFound
	}

	state := room.StatePlaying
	if cmd == CommandPause {
		state = room.StatePaused
	}
	if err := h.registry.SetState(h.roomID, state); err != nil {
		return err
	}

	h.broadcastLocked(messageFor(cmd, h.roomID))
	return nil
}

// close broadcasts the close notice, destroys the room in the registry and
// evicts every viewer. The registry entry is gone before close returns, so
// a racing connect deterministically observes NotFound.
func (h *Hub) close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return room.ErrNotFound
	}

	h.broadcastLocked(NewCloseMessage(h.roomID))

	err := h.registry.Destroy(h.roomID)

	h.closed = true
	for c := range h.clients {
		close(c.send)
	}
	h.clients = make(map[*Client]bool)
	h.metrics.ConnectedClients = 0

	h.log.Info("hub closed", "room_id", h.roomID)
	return err
}

// shutdown evicts all viewers without touching the registry; used on
// process exit only.
func (h *Hub) shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.closed = true
	for c := range h.clients {
		close(c.send)
	}
	h.clients = make(map[*Client]bool)
	h.metrics.ConnectedClients = 0
}

// broadcastLocked fans a message out to every connected viewer, at most
// once each. Delivery is non-blocking: a viewer whose buffer is full is
// dropped from the room rather than delaying the rest.
func (h *Hub) broadcastLocked(m *Message) {
	data, err := m.ToJSON()
	if err != nil {
		h.log.Error("failed to marshal message", "room_id", h.roomID, "error", err)
		return
	}

	h.metrics.LastActivity = time.Now()

	for c := range h.clients {
		if c.deliver(data) {
			h.metrics.MessagesSent++
			continue
		}

		h.log.Warn("viewer buffer full, dropping",
			"room_id", h.roomID,
			"viewer_id", c.id,
		)
		h.metrics.MessagesDropped++
		h.dropLocked(c)
	}
}

func (h *Hub) dropLocked(c *Client) {
	delete(h.clients, c)
	close(c.send)
	h.metrics.ConnectedClients = len(h.clients)
}

// viewerCount reports currently connected viewers.
func (h *Hub) viewerCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Metrics returns a snapshot of the hub's counters.
func (h *Hub) Metrics() HubMetrics {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.metrics
}
