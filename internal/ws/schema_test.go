package ws

import (
	"encoding/json"
	"os"
	"strings"
	"testing"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"connect-arena/internal/arena"
	"connect-arena/internal/game"
	"connect-arena/internal/game/viewmodel"
)

func compileSchema(t *testing.T) *jsonschema.Schema {
	t.Helper()
	compiler := jsonschema.NewCompiler()
	data, err := os.ReadFile("../../api/schema/ws_v1.schema.json")
	if err != nil {
		t.Fatalf("read schema: %v", err)
	}
	if err := compiler.AddResource("ws_v1.schema.json", strings.NewReader(string(data))); err != nil {
		t.Fatalf("add resource: %v", err)
	}
	schema, err := compiler.Compile("ws_v1.schema.json")
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	return schema
}

func validate(t *testing.T, schema *jsonschema.Schema, raw []byte) error {
	t.Helper()
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		t.Fatalf("unmarshal %s: %v", raw, err)
	}
	return schema.Validate(v)
}

func TestWSProtocolSchema(t *testing.T) {
	schema := compileSchema(t)

	samples := []string{
		`{"type":"join_queue","username":"alice"}`,
		`{"type":"leave_queue"}`,
		`{"type":"make_move","game_id":"01J0000000000000000000000","column":3}`,
		`{"type":"rejoin_game","username":"alice","game_id":"01J0000000000000000000000"}`,
		`{"event":"waiting_for_opponent","server_ts":1,"data":{"message":"Waiting for opponent (10s timeout before bot)","timeout_ms":10000}}`,
		`{"event":"game_result","game_id":"g","server_ts":1,"data":{"winner":"draw","reason":"bot_no_moves"}}`,
		`{"event":"player_disconnected","game_id":"g","server_ts":1,"data":{"username":"bob","message":"bob disconnected. Waiting 30s for reconnect.","grace_ms":30000}}`,
		`{"event":"error","server_ts":1,"data":{"code":"invalid_request","message":"column must be a number"}}`,
	}
	for i, s := range samples {
		if err := validate(t, schema, []byte(s)); err != nil {
			t.Fatalf("schema validate sample %d: %v", i, err)
		}
	}

	rejected := []string{
		`{"type":"join_queue"}`,
		`{"type":"make_move","game_id":"g","column":"3"}`,
		`{"event":"game_start","server_ts":1,"data":{"game_id":"g"}}`,
	}
	for i, s := range rejected {
		if err := validate(t, schema, []byte(s)); err == nil {
			t.Fatalf("sample %d should be rejected", i)
		}
	}
}

// Frames produced by the server encoder must satisfy the published schema.
func TestEncodedFramesMatchSchema(t *testing.T) {
	schema := compileSchema(t)
	b := game.NewBoard()
	row, _ := b.Apply(3, game.TokenA)
	mv := viewmodel.MoveView{Player: "alice", Token: 1, Column: 3, Row: row, TS: 1}
	players := []viewmodel.PlayerView{
		{Username: "alice", Token: 1},
		{Username: arena.DefaultBotName, Token: 2, IsBot: true},
	}

	frames := []Frame{
		{Event: arena.EventGameStart, GameID: "g", ServerTS: 1, Data: arena.GameStartPayload{GameID: "g", Players: players, Board: b.Grid(), YourToken: 1}},
		{Event: arena.EventGameState, GameID: "g", ServerTS: 1, Data: arena.GameStatePayload{Board: b.Grid(), TurnToken: 2, Moves: []viewmodel.MoveView{mv}}},
		{Event: arena.EventMoveMade, GameID: "g", ServerTS: 1, Data: arena.MoveMadePayload{Board: b.Grid(), Move: mv, TurnToken: 2}},
		{Event: arena.EventMoveMade, GameID: "g", ServerTS: 1, Data: arena.MoveMadePayload{Board: b.Grid(), Move: mv, Winner: "alice", WinningCoords: []game.Cell{{Row: 5, Col: 3}, {Row: 4, Col: 3}}}},
		{Event: arena.EventGameForfeited, GameID: "g", ServerTS: 1, Data: arena.GameForfeitedPayload{Winner: "bob", Reason: "alice did not reconnect in time"}},
		{Event: arena.EventPlayerRejoined, GameID: "g", ServerTS: 1, Data: arena.PlayerRejoinedPayload{Username: "bob"}},
		{Event: arena.EventRejoinSuccess, GameID: "g", ServerTS: 1, Data: viewmodel.BuildSession("g", nil, b, nil, game.TokenB)},
		{Event: arena.EventError, ServerTS: 1, Data: arena.ErrorPayload{Code: "not_your_turn", Message: "Not your turn"}},
	}
	for _, f := range frames {
		raw, err := json.Marshal(f)
		if err != nil {
			t.Fatalf("marshal %s: %v", f.Event, err)
		}
		if err := validate(t, schema, raw); err != nil {
			t.Fatalf("%s: %v\n%s", f.Event, err, raw)
		}
	}
}
