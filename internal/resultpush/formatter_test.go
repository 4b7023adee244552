package resultpush

import (
	"strings"
	"testing"
	"time"

	"connect-arena/internal/store"
	"connect-arena/internal/testutil"
)

func TestFormatResultWin(t *testing.T) {
	finished := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	g := testutil.FinishedGame("alice", finished)
	msg := FormatResult(g)

	if msg.Title != "alice wins" || msg.Color != colorWin {
		t.Fatalf("unexpected title/color: %q %x", msg.Title, msg.Color)
	}
	if !strings.Contains(msg.Description, "alice vs bob") || !strings.Contains(msg.Description, "four in a row") {
		t.Fatalf("unexpected description: %q", msg.Description)
	}
	if msg.Timestamp != "2026-03-01T12:00:00Z" {
		t.Fatalf("timestamp = %q", msg.Timestamp)
	}
	if len(msg.Fields) != 2 || msg.Fields[0].Value != "1" || msg.Fields[1].Value != "1m0s" {
		t.Fatalf("unexpected fields: %+v", msg.Fields)
	}
	if rec, ok := msg.Payload.(store.GameRecord); !ok || rec.ID != g.ID {
		t.Fatalf("payload should carry the record, got %T", msg.Payload)
	}
}

func TestFormatResultDrawAndBot(t *testing.T) {
	draw := testutil.FinishedGame(store.DrawWinner, time.Now())
	draw.Reason = "board_full"
	msg := FormatResult(draw)
	if msg.Title != "alice vs bob ended in a draw" || msg.Color != colorDraw || !strings.Contains(msg.Description, "board full") {
		t.Fatalf("unexpected draw message: %+v", msg)
	}

	if msg := FormatResult(botGame()); msg.Color != colorBot {
		t.Fatalf("bot win should use bot color, got %x", msg.Color)
	}

	odd := testutil.FinishedGame("alice", time.Now())
	odd.Reason = "mystery"
	if msg := FormatResult(odd); !strings.HasSuffix(msg.Description, "mystery") {
		t.Fatalf("unknown reason should pass through: %q", msg.Description)
	}
}
