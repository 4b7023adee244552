package arena

import (
	"errors"
	"sync"
	"testing"
	"time"

	"connect-arena/internal/game"
)

type fakeStarter struct {
	mu    sync.Mutex
	pairs [][2]Entrant
	bots  []Entrant
}

func (f *fakeStarter) StartSession(a, b Entrant) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pairs = append(f.pairs, [2]Entrant{a, b})
	return "pair", nil
}

func (f *fakeStarter) StartBotSession(h Entrant) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bots = append(f.bots, h)
	return "bot", nil
}

func (f *fakeStarter) counts() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.pairs), len(f.bots)
}

func TestEnqueueTwoPairsImmediately(t *testing.T) {
	starter := &fakeStarter{}
	rec := newRecorder()
	m := NewMatchmaker(40*time.Millisecond, starter, rec)
	defer m.Close()

	alice := Entrant{ClientID: "c-alice", Username: "alice"}
	bob := Entrant{ClientID: "c-bob", Username: "bob"}
	if err := m.Enqueue(alice); err != nil {
		t.Fatalf("enqueue alice: %v", err)
	}
	ev, ok := rec.find("c-alice", EventWaitingForOpponent)
	if !ok || ev.Data.(WaitingPayload).TimeoutMS != 40 {
		t.Fatalf("expected waiting_for_opponent, got %+v", ev)
	}
	if err := m.Enqueue(bob); err != nil {
		t.Fatalf("enqueue bob: %v", err)
	}
	if _, ok := rec.find("c-bob", EventWaitingForOpponent); ok {
		t.Fatal("second player should be paired, not told to wait")
	}

	time.Sleep(100 * time.Millisecond)
	pairs, bots := starter.counts()
	if pairs != 1 || bots != 0 {
		t.Fatalf("got pairs=%d bots=%d, want 1/0", pairs, bots)
	}
	if starter.pairs[0][0] != alice || starter.pairs[0][1] != bob {
		t.Fatalf("pair not FIFO: %+v", starter.pairs[0])
	}
	if m.Waiting() != 0 {
		t.Fatalf("queue should be empty, got %d", m.Waiting())
	}
}

func TestLonePlayerFallsBackToBot(t *testing.T) {
	starter := &fakeStarter{}
	m := NewMatchmaker(20*time.Millisecond, starter, nil)
	defer m.Close()

	alice := Entrant{ClientID: "c-alice", Username: "alice"}
	_ = m.Enqueue(alice)
	waitFor(t, time.Second, func() bool { _, b := starter.counts(); return b == 1 })
	if starter.bots[0] != alice {
		t.Fatalf("unexpected bot entrant: %+v", starter.bots[0])
	}
	if m.Waiting() != 0 {
		t.Fatal("timed-out entry should leave the queue")
	}
}

func TestDequeueCancelsFallback(t *testing.T) {
	starter := &fakeStarter{}
	m := NewMatchmaker(20*time.Millisecond, starter, nil)
	defer m.Close()

	alice := Entrant{ClientID: "c-alice", Username: "alice"}
	_ = m.Enqueue(alice)
	m.Dequeue(alice)
	m.Dequeue(alice)
	time.Sleep(60 * time.Millisecond)
	if pairs, bots := starter.counts(); pairs != 0 || bots != 0 {
		t.Fatalf("dequeued entry started a session: pairs=%d bots=%d", pairs, bots)
	}
}

func TestRequeueReplacesStaleEntry(t *testing.T) {
	starter := &fakeStarter{}
	m := NewMatchmaker(time.Second, starter, nil)
	defer m.Close()

	alice := Entrant{ClientID: "c-alice", Username: "alice"}
	_ = m.Enqueue(alice)
	_ = m.Enqueue(alice)
	if m.Waiting() != 1 {
		t.Fatalf("expected 1 waiting, got %d", m.Waiting())
	}
	if pairs, _ := starter.counts(); pairs != 0 {
		t.Fatal("a player must not be paired with itself")
	}
}

func TestPairingRacesTimeoutExactlyOnce(t *testing.T) {
	for i := 0; i < 30; i++ {
		starter := &fakeStarter{}
		m := NewMatchmaker(2*time.Millisecond, starter, nil)
		_ = m.Enqueue(Entrant{ClientID: "a", Username: "a"})
		time.Sleep(2 * time.Millisecond)
		_ = m.Enqueue(Entrant{ClientID: "b", Username: "b"})
		time.Sleep(20 * time.Millisecond)

		pairs, bots := starter.counts()
		// Either a and b paired, or a fell back and b fell back on its own.
		if !(pairs == 1 && bots == 0) && !(pairs == 0 && bots == 2) {
			t.Fatalf("iteration %d: pairs=%d bots=%d", i, pairs, bots)
		}
		m.Close()
	}
}

func TestEnqueueAfterCloseFails(t *testing.T) {
	m := NewMatchmaker(time.Second, &fakeStarter{}, nil)
	m.Close()
	if err := m.Enqueue(Entrant{ClientID: "c", Username: "u"}); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
}

func TestMatchmakerWithRegistryBotSession(t *testing.T) {
	reg, rec, _ := newTestRegistry(t, time.Second)
	m := NewMatchmaker(20*time.Millisecond, reg, rec)
	defer m.Close()

	_ = m.Enqueue(Entrant{ClientID: "c-alice", Username: "alice"})
	waitFor(t, time.Second, func() bool { return reg.ActiveCount() == 1 })

	ev, ok := rec.find("c-alice", EventGameStart)
	if !ok {
		t.Fatal("missing game_start")
	}
	p := ev.Data.(GameStartPayload)
	if p.YourToken != int(game.TokenA) || !p.Players[1].IsBot || p.Players[1].Token != int(game.TokenB) {
		t.Fatalf("unexpected seats: %+v", p)
	}
}

func TestEndToEndVerticalFourThroughQueue(t *testing.T) {
	reg, rec, sink := newTestRegistry(t, time.Second)
	m := NewMatchmaker(time.Second, reg, rec)
	defer m.Close()

	_ = m.Enqueue(Entrant{ClientID: "c-alice", Username: "alice"})
	_ = m.Enqueue(Entrant{ClientID: "c-bob", Username: "bob"})
	ev, ok := rec.find("c-alice", EventGameStart)
	if !ok {
		t.Fatal("pairing should start a session immediately")
	}
	id := ev.GameID

	for i := 0; i < 3; i++ {
		mustMove(t, reg, id, "c-alice", 3)
		mustMove(t, reg, id, "c-bob", 0)
	}
	mustMove(t, reg, id, "c-alice", 3)

	saved := sink.saved()
	if len(saved) != 1 || saved[0].Winner != "alice" || len(saved[0].Moves) != 7 {
		t.Fatalf("unexpected result: %+v", saved)
	}
	if reg.ActiveCount() != 0 {
		t.Fatal("session should be evicted")
	}
}
