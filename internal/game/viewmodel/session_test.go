package viewmodel

import (
	"testing"
	"time"

	"connect-arena/internal/game"
)

func TestBuildSessionCopiesBoardAndMoves(t *testing.T) {
	b := game.NewBoard()
	row, _ := b.Apply(3, game.TokenA)
	at := time.UnixMilli(1_700_000_000_000)
	moves := []game.Move{{Player: "alice", Token: game.TokenA, Column: 3, Row: row, At: at}}
	seats := []game.Seat{
		{Username: "alice", Token: game.TokenA},
		{Username: "BOT_COMPETITIVE", Token: game.TokenB, IsBot: true},
	}

	view := BuildSession("g1", seats, b, moves, game.TokenB)
	if len(view.Players) != 2 || !view.Players[1].IsBot {
		t.Fatalf("unexpected players: %+v", view.Players)
	}
	if len(view.Moves) != 1 || view.Moves[0].TS != at.UnixMilli() || view.Moves[0].Row != game.DefaultRows-1 {
		t.Fatalf("unexpected moves: %+v", view.Moves)
	}
	if view.TurnToken != int(game.TokenB) {
		t.Fatalf("expected turn token 2, got %d", view.TurnToken)
	}

	view.Board[game.DefaultRows-1][3] = 0
	if b.At(game.DefaultRows-1, 3) != game.TokenA {
		t.Fatal("view board aliases live board")
	}
}

func TestBuildMovesEmptyIsNonNil(t *testing.T) {
	if got := BuildMoves(nil); got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", got)
	}
}
