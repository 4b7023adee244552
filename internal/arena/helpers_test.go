package arena

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"connect-arena/internal/store"
)

type recorder struct {
	mu     sync.Mutex
	events map[string][]Event
}

func newRecorder() *recorder {
	return &recorder{events: map[string][]Event{}}
}

func (r *recorder) Notify(clientID string, ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events[clientID] = append(r.events[clientID], ev)
}

func (r *recorder) all(clientID string) []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events[clientID]))
	copy(out, r.events[clientID])
	return out
}

func (r *recorder) find(clientID, name string) (Event, bool) {
	evs := r.all(clientID)
	for i := len(evs) - 1; i >= 0; i-- {
		if evs[i].Name == name {
			return evs[i], true
		}
	}
	return Event{}, false
}

func (r *recorder) count(clientID, name string) int {
	n := 0
	for _, ev := range r.all(clientID) {
		if ev.Name == name {
			n++
		}
	}
	return n
}

type memSink struct {
	mu   sync.Mutex
	recs []store.GameRecord
	err  error
}

func (m *memSink) SaveGame(_ context.Context, g store.GameRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.recs = append(m.recs, g)
	return nil
}

func (m *memSink) saved() []store.GameRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]store.GameRecord, len(m.recs))
	copy(out, m.recs)
	return out
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met within %v", timeout)
}

func newTestRegistry(t *testing.T, reconnect time.Duration) (*Registry, *recorder, *memSink) {
	t.Helper()
	rec := newRecorder()
	sink := &memSink{}
	reg := NewRegistry(Options{ReconnectTimeout: reconnect}, rec, sink)
	t.Cleanup(reg.Close)
	return reg, rec, sink
}

func startHumans(t *testing.T, reg *Registry) string {
	t.Helper()
	id, err := reg.StartSession(Entrant{ClientID: "c-alice", Username: "alice"}, Entrant{ClientID: "c-bob", Username: "bob"})
	if err != nil {
		t.Fatalf("start session: %v", err)
	}
	return id
}

func mustMove(t *testing.T, reg *Registry, gameID, clientID string, col int) {
	t.Helper()
	if err := reg.ApplyPlayerMove(gameID, clientID, "", col); err != nil {
		t.Fatalf("move %s col %d: %v", clientID, col, err)
	}
}

var errSinkDown = errors.New("sink down")
