package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"connect-arena/internal/arena"
	"connect-arena/internal/store"
)

type savedGames struct {
	mu    sync.Mutex
	games []store.GameRecord
}

func (s *savedGames) SaveGame(_ context.Context, g store.GameRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.games = append(s.games, g)
	return nil
}

func (s *savedGames) list() []store.GameRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]store.GameRecord(nil), s.games...)
}

type harness struct {
	srv   *Server
	reg   *arena.Registry
	mm    *arena.Matchmaker
	sink  *savedGames
	http  *httptest.Server
	wsURL string
}

func newHarness(t *testing.T, matchTimeout, reconnect time.Duration) *harness {
	t.Helper()
	srv := NewServer(Options{ReservedNames: []string{arena.DefaultBotName}})
	sink := &savedGames{}
	reg := arena.NewRegistry(arena.Options{ReconnectTimeout: reconnect}, srv, sink)
	mm := arena.NewMatchmaker(matchTimeout, reg, srv)
	srv.Bind(mm, reg)
	hs := httptest.NewServer(http.HandlerFunc(srv.HandleWS))
	t.Cleanup(func() {
		mm.Close()
		reg.Close()
		hs.Close()
	})
	return &harness{
		srv:   srv,
		reg:   reg,
		mm:    mm,
		sink:  sink,
		http:  hs,
		wsURL: "ws" + strings.TrimPrefix(hs.URL, "http"),
	}
}

type rawFrame struct {
	Event    string          `json:"event"`
	GameID   string          `json:"game_id"`
	ServerTS int64           `json:"server_ts"`
	Data     json.RawMessage `json:"data"`
}

func dial(t *testing.T, h *harness) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(h.wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, v any) {
	t.Helper()
	if err := conn.WriteJSON(v); err != nil {
		t.Fatalf("write: %v", err)
	}
}

// expect reads frames until one named event arrives.
func expect(t *testing.T, conn *websocket.Conn, event string) rawFrame {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for {
		_ = conn.SetReadDeadline(deadline)
		var f rawFrame
		if err := conn.ReadJSON(&f); err != nil {
			t.Fatalf("waiting for %s: %v", event, err)
		}
		if f.Event == event {
			return f
		}
	}
}

// expectMoveBy skips move_made echoes until one played by player arrives.
func expectMoveBy(t *testing.T, conn *websocket.Conn, player string) arena.MoveMadePayload {
	t.Helper()
	for {
		f := expect(t, conn, arena.EventMoveMade)
		var p arena.MoveMadePayload
		if err := json.Unmarshal(f.Data, &p); err != nil {
			t.Fatalf("decode move_made: %v", err)
		}
		if p.Move.Player == player {
			return p
		}
	}
}

func waitUntil(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func TestTwoClientsPlayToVerticalWin(t *testing.T) {
	h := newHarness(t, time.Second, time.Second)
	alice := dial(t, h)
	bob := dial(t, h)

	send(t, alice, map[string]any{"type": IntentJoinQueue, "username": "alice"})
	expect(t, alice, arena.EventWaitingForOpponent)
	send(t, bob, map[string]any{"type": IntentJoinQueue, "username": "bob"})

	start := expect(t, alice, arena.EventGameStart)
	var sp arena.GameStartPayload
	if err := json.Unmarshal(start.Data, &sp); err != nil {
		t.Fatalf("decode game_start: %v", err)
	}
	if sp.YourToken != 1 || start.GameID == "" || start.ServerTS == 0 {
		t.Fatalf("unexpected game_start: %+v", start)
	}
	expect(t, bob, arena.EventGameStart)
	id := start.GameID

	for i := 0; i < 3; i++ {
		send(t, alice, map[string]any{"type": IntentMakeMove, "game_id": id, "column": 3})
		expectMoveBy(t, bob, "alice")
		send(t, bob, map[string]any{"type": IntentMakeMove, "game_id": id, "column": 4})
		expectMoveBy(t, alice, "bob")
	}
	send(t, alice, map[string]any{"type": IntentMakeMove, "game_id": id, "column": 3})
	mp := expectMoveBy(t, bob, "alice")
	if mp.Winner != "alice" || len(mp.WinningCoords) != 4 {
		t.Fatalf("unexpected terminal move: %+v", mp)
	}
	waitUntil(t, func() bool { return len(h.sink.list()) == 1 })
	if g := h.sink.list()[0]; g.Winner != "alice" || g.Reason != arena.ReasonConnectFour {
		t.Fatalf("unexpected record: %+v", g)
	}
}

func TestInvalidIntentsReturnErrorFrames(t *testing.T) {
	h := newHarness(t, time.Second, time.Second)
	conn := dial(t, h)

	cases := []struct {
		name string
		msg  string
		code string
	}{
		{"not_json", `hello`, codeInvalidRequest},
		{"missing_username", `{"type":"join_queue"}`, codeInvalidRequest},
		{"reserved_name", `{"type":"join_queue","username":"bot_competitive"}`, codeInvalidRequest},
		{"column_string", `{"type":"make_move","game_id":"g","column":"3"}`, codeInvalidRequest},
		{"column_missing", `{"type":"make_move","game_id":"g"}`, codeInvalidRequest},
		{"unknown_type", `{"type":"dance"}`, codeInvalidRequest},
		{"unknown_game", `{"type":"make_move","game_id":"nope","column":1}`, "game_not_found"},
		{"rejoin_unknown", `{"type":"rejoin_game","username":"alice","game_id":"nope"}`, "game_not_found"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(tc.msg)); err != nil {
				t.Fatalf("write: %v", err)
			}
			f := expect(t, conn, arena.EventError)
			var p arena.ErrorPayload
			if err := json.Unmarshal(f.Data, &p); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if p.Code != tc.code {
				t.Fatalf("got code %q, want %q", p.Code, tc.code)
			}
		})
	}
}

func TestLonePlayerGetsBotAndBotReplies(t *testing.T) {
	h := newHarness(t, 30*time.Millisecond, time.Second)
	alice := dial(t, h)

	send(t, alice, map[string]any{"type": IntentJoinQueue, "username": "alice"})
	start := expect(t, alice, arena.EventGameStart)
	var sp arena.GameStartPayload
	_ = json.Unmarshal(start.Data, &sp)
	if !sp.Players[1].IsBot {
		t.Fatalf("expected bot opponent: %+v", sp.Players)
	}

	send(t, alice, map[string]any{"type": IntentMakeMove, "game_id": start.GameID, "column": 0})
	mp := expectMoveBy(t, alice, arena.DefaultBotName)
	if mp.TurnToken != 1 {
		t.Fatalf("unexpected bot reply: %+v", mp)
	}
}

func TestClosingSocketLeavesQueue(t *testing.T) {
	h := newHarness(t, time.Second, time.Second)
	alice := dial(t, h)
	send(t, alice, map[string]any{"type": IntentJoinQueue, "username": "alice"})
	expect(t, alice, arena.EventWaitingForOpponent)

	_ = alice.Close()
	waitUntil(t, func() bool { return h.mm.Waiting() == 0 && h.srv.Connected() == 0 })
}

func TestDropAndRejoinOnNewSocket(t *testing.T) {
	h := newHarness(t, time.Second, time.Second)
	alice := dial(t, h)
	bob := dial(t, h)
	send(t, alice, map[string]any{"type": IntentJoinQueue, "username": "alice"})
	expect(t, alice, arena.EventWaitingForOpponent)
	send(t, bob, map[string]any{"type": IntentJoinQueue, "username": "bob"})
	id := expect(t, alice, arena.EventGameStart).GameID
	expect(t, bob, arena.EventGameStart)

	_ = bob.Close()
	expect(t, alice, arena.EventPlayerDisconnected)

	bob2 := dial(t, h)
	send(t, bob2, map[string]any{"type": IntentRejoinGame, "username": "bob", "game_id": id})
	rs := expect(t, bob2, arena.EventRejoinSuccess)
	if rs.GameID != id {
		t.Fatalf("rejoined wrong game: %+v", rs)
	}
	expect(t, alice, arena.EventPlayerRejoined)

	send(t, alice, map[string]any{"type": IntentMakeMove, "game_id": id, "column": 2})
	expectMoveBy(t, bob2, "alice")
	send(t, bob2, map[string]any{"type": IntentMakeMove, "game_id": id, "column": 2})
	if mp := expectMoveBy(t, alice, "bob"); mp.Move.Row != 4 {
		t.Fatalf("bob's stone should land on alice's: %+v", mp.Move)
	}
}

func TestOriginCheck(t *testing.T) {
	srv := NewServer(Options{AllowedOrigins: []string{"https://arena.example"}})
	ok := httptest.NewRequest(http.MethodGet, "/ws", nil)
	ok.Header.Set("Origin", "https://arena.example")
	bad := httptest.NewRequest(http.MethodGet, "/ws", nil)
	bad.Header.Set("Origin", "https://evil.example")
	if !srv.upgrader.CheckOrigin(ok) || srv.upgrader.CheckOrigin(bad) {
		t.Fatal("origin allow-list not applied")
	}
	if !NewServer(Options{}).upgrader.CheckOrigin(bad) {
		t.Fatal("empty allow-list should accept any origin")
	}
}

func TestNotifyUnknownClientIsNoop(t *testing.T) {
	srv := NewServer(Options{})
	srv.Notify("missing", arena.Event{Name: arena.EventGameState})
}
