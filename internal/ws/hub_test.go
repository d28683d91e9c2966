package ws

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/kinoroom/kinoroom/internal/room"
	"github.com/kinoroom/kinoroom/pkg/logger"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New(logger.Config{Env: "test"})
	if err != nil {
		t.Fatalf("creating logger: %v", err)
	}
	return log
}

func testHub(t *testing.T) (*Hub, *room.Registry, *room.Room) {
	t.Helper()
	log := testLogger(t)
	reg := room.NewRegistry(log)
	rm := reg.Create("owner", "https://www.youtube.com/embed/ABC")
	return newHub(rm.ID, reg, log), reg, rm
}

// fakeViewer joins a hub without a real network connection; the hub only
// ever touches the send channel.
func fakeViewer(buffer int) *Client {
	return &Client{
		id:   uuid.New(),
		send: make(chan []byte, buffer),
	}
}

// collect drains everything currently buffered for the client.
func collect(t *testing.T, c *Client) []Message {
	t.Helper()
	var out []Message
	for {
		select {
		case data, ok := <-c.send:
			if !ok {
				return out
			}
			var m Message
			if err := json.Unmarshal(data, &m); err != nil {
				t.Fatalf("undecodable message %q: %v", data, err)
			}
			out = append(out, m)
		default:
			return out
		}
	}
}

func typesOf(ms []Message) []MessageType {
	out := make([]MessageType, len(ms))
	for i, m := range ms {
		out[i] = m.Type
	}
	return out
}

func TestRegisterDeliversSnapshotFirst(t *testing.T) {
	hub, reg, rm := testHub(t)

	if err := reg.SetState(rm.ID, room.StatePaused); err != nil {
		t.Fatal(err)
	}

	viewer := fakeViewer(16)
	if err := hub.register(viewer); err != nil {
		t.Fatalf("register returned error: %v", err)
	}

	got := collect(t, viewer)
	if len(got) == 0 || got[0].Type != TypeState {
		t.Fatalf("first message types = %v, want state snapshot first", typesOf(got))
	}

	var snap StateData
	raw, _ := json.Marshal(got[0].Data)
	if err := json.Unmarshal(raw, &snap); err != nil {
		t.Fatal(err)
	}
	if snap.State != room.StatePaused {
		t.Errorf("snapshot state = %q, want the state as of connect time", snap.State)
	}
}

func TestDispatchBroadcastsInOrderExactlyOnce(t *testing.T) {
	hub, reg, rm := testHub(t)

	v1, v2 := fakeViewer(16), fakeViewer(16)
	if err := hub.register(v1); err != nil {
		t.Fatal(err)
	}
	if err := hub.register(v2); err != nil {
		t.Fatal(err)
	}

	if err := hub.dispatch(CommandPlay); err != nil {
		t.Fatalf("dispatch play: %v", err)
	}
	if err := hub.dispatch(CommandPause); err != nil {
		t.Fatalf("dispatch pause: %v", err)
	}

	for _, v := range []*Client{v1, v2} {
		var controls []MessageType
		for _, m := range collect(t, v) {
			if m.Type == TypePlay || m.Type == TypePause {
				controls = append(controls, m.Type)
			}
		}
		if len(controls) != 2 || controls[0] != TypePlay || controls[1] != TypePause {
			t.Errorf("viewer %s control sequence = %v, want [play pause]", v.id, controls)
		}
	}

	got, err := reg.Get(rm.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.State != room.StatePaused {
		t.Errorf("room state = %q, want %q after the last command", got.State, room.StatePaused)
	}
}

func TestLateJoinerSeesSnapshotNotHistory(t *testing.T) {
	hub, _, _ := testHub(t)

	early := fakeViewer(16)
	if err := hub.register(early); err != nil {
		t.Fatal(err)
	}
	if err := hub.dispatch(CommandPause); err != nil {
		t.Fatal(err)
	}

	late := fakeViewer(16)
	if err := hub.register(late); err != nil {
		t.Fatal(err)
	}
	if err := hub.dispatch(CommandPlay); err != nil {
		t.Fatal(err)
	}

	msgs := collect(t, late)
	if msgs[0].Type != TypeState {
		t.Fatalf("late joiner first message = %v, want state", msgs[0].Type)
	}
	for _, m := range msgs {
		if m.Type == TypePause {
			t.Error("late joiner observed a command dispatched before it connected")
		}
	}

	var snap StateData
	raw, _ := json.Marshal(msgs[0].Data)
	if err := json.Unmarshal(raw, &snap); err != nil {
		t.Fatal(err)
	}
	if snap.State != room.StatePaused {
		t.Errorf("late snapshot = %q, want state reflecting the earlier pause", snap.State)
	}
}

func TestSlowViewerDroppedWithoutBlockingOthers(t *testing.T) {
	hub, _, _ := testHub(t)

	// Buffer 2 holds exactly the join-time snapshot and own joined notice
	slow := fakeViewer(2)
	if err := hub.register(slow); err != nil {
		t.Fatal(err)
	}
	healthy := fakeViewer(16)
	if err := hub.register(healthy); err != nil {
		t.Fatal(err)
	}

	// slow's buffer is already full, so the next fan-out that cannot
	// reach it must evict it and still reach healthy
	if err := hub.dispatch(CommandPause); err != nil {
		t.Fatal(err)
	}

	if hub.viewerCount() != 1 {
		t.Errorf("viewer count = %d, want 1 after dropping the slow viewer", hub.viewerCount())
	}

	var sawPause bool
	for _, m := range collect(t, healthy) {
		if m.Type == TypePause {
			sawPause = true
		}
	}
	if !sawPause {
		t.Error("healthy viewer missed the command after the slow one was dropped")
	}

	if m := hub.Metrics(); m.MessagesDropped == 0 {
		t.Error("drop was not counted in hub metrics")
	}
}

func TestCloseDestroysRoomAndNotifiesViewers(t *testing.T) {
	hub, reg, rm := testHub(t)

	viewer := fakeViewer(16)
	if err := hub.register(viewer); err != nil {
		t.Fatal(err)
	}

	if err := hub.close(); err != nil {
		t.Fatalf("close returned error: %v", err)
	}

	if _, err := reg.Get(rm.ID); !errors.Is(err, room.ErrNotFound) {
		t.Errorf("room lookup after close = %v, want ErrNotFound", err)
	}

	msgs := collect(t, viewer)
	if len(msgs) == 0 || msgs[len(msgs)-1].Type != TypeClose {
		t.Errorf("viewer messages = %v, want close notice last", typesOf(msgs))
	}

	// Channel must be closed so the write pump can end the connection
	if _, ok := <-viewer.send; ok {
		t.Error("viewer send channel left open after close")
	}

	if err := hub.register(fakeViewer(16)); !errors.Is(err, room.ErrNotFound) {
		t.Errorf("register after close = %v, want ErrNotFound", err)
	}
	if err := hub.dispatch(CommandPlay); !errors.Is(err, room.ErrNotFound) {
		t.Errorf("dispatch after close = %v, want ErrNotFound", err)
	}
}

func TestUnregisterIsIdempotent(t *testing.T) {
	hub, _, _ := testHub(t)

	viewer := fakeViewer(16)
	if err := hub.register(viewer); err != nil {
		t.Fatal(err)
	}

	hub.unregister(viewer)
	hub.unregister(viewer) // second removal must be a no-op

	if hub.viewerCount() != 0 {
		t.Errorf("viewer count = %d, want 0", hub.viewerCount())
	}
}
