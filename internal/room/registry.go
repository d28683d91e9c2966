package room

import (
	"crypto/rand"
	"encoding/base64"
	"sync"
	"time"

	"github.com/kinoroom/kinoroom/pkg/logger"
)

// tokenBytes of entropy per room id; 6 bytes encode to 8 URL-safe
// characters, far beyond what live-room collision needs.
const tokenBytes = 6

// Registry is the sole owner of room lifetime. All Room mutations go
// through it so that within a single room operations observe a total order.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]*Room
	log   *logger.Logger
}

func NewRegistry(log *logger.Logger) *Registry {
	return &Registry{
		rooms: make(map[string]*Room),
		log:   log,
	}
}

// Create stores a new room with a fresh unique id and returns it.
// The initial playback state is Playing.
func (r *Registry) Create(ownerID, embedURL string) *Room {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := newToken()
	for _, taken := r.rooms[id]; taken; _, taken = r.rooms[id] {
		// negligible-probability collision with a live room, draw again
		id = newToken()
	}

	rm := &Room{
		ID:        id,
		EmbedURL:  embedURL,
		OwnerID:   ownerID,
		State:     StatePlaying,
		CreatedAt: time.Now(),
	}
	r.rooms[id] = rm

	r.log.Info("room created",
		"room_id", id,
		"owner_id", ownerID,
		"total_rooms", len(r.rooms),
	)

	return copyRoom(rm)
}

// Get returns a snapshot of the room or ErrNotFound.
func (r *Registry) Get(id string) (*Room, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rm, ok := r.rooms[id]
	if !ok {
		return nil, ErrNotFound
	}
	return copyRoom(rm), nil
}

// SetState mutates the room's playback state.
func (r *Registry) SetState(id string, state State) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rm, ok := r.rooms[id]
	if !ok {
		return ErrNotFound
	}
	rm.State = state
	return nil
}

// Destroy removes the room. Any lookup after Destroy returns observes
// ErrNotFound.
func (r *Registry) Destroy(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.rooms[id]; !ok {
		return ErrNotFound
	}
	delete(r.rooms, id)

	r.log.Info("room destroyed",
		"room_id", id,
		"total_rooms", len(r.rooms),
	)

	return nil
}

// Len reports the number of live rooms.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms)
}

// Callers get value snapshots so registry state can only change
// through registry methods.
func copyRoom(rm *Room) *Room {
	cp := *rm
	return &cp
}

func newToken() string {
	b := make([]byte, tokenBytes)
	// crypto/rand.Read never fails on supported platforms
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return base64.RawURLEncoding.EncodeToString(b)
}
