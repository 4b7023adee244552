package resultpush

import (
	"fmt"
	"strings"
	"time"

	"connect-arena/internal/resultpush/platforms"
	"connect-arena/internal/store"
)

const (
	colorWin  = 0x57F287
	colorDraw = 0xFEE75C
	colorBot  = 0x5865F2
)

var reasonText = map[string]string{
	"connect_four": "four in a row",
	"board_full":   "board full",
	"bot_no_moves": "bot had no legal move",
	"forfeit":      "forfeit",
}

// FormatResult renders a finished game. The webhook payload is the record
// itself.
func FormatResult(g store.GameRecord) platforms.Message {
	names := playerNames(g)
	title := names + " ended in a draw"
	color := colorDraw
	if g.Winner != "" && g.Winner != store.DrawWinner {
		title = g.Winner + " wins"
		color = colorWin
		if winnerIsBot(g) {
			color = colorBot
		}
	}

	return platforms.Message{
		Title:       title,
		Description: fmt.Sprintf("%s, %s", names, fallback(reasonText[g.Reason], g.Reason)),
		Color:       color,
		Timestamp:   g.FinishedAt.UTC().Format(time.RFC3339),
		Footer:      "game " + shortID(g.ID, 10),
		Fields: []platforms.Field{
			{Name: "Moves", Value: fmt.Sprintf("%d", len(g.Moves)), Inline: true},
			{Name: "Duration", Value: (time.Duration(g.DurationMS) * time.Millisecond).Round(time.Second).String(), Inline: true},
		},
		Payload: g,
	}
}

func playerNames(g store.GameRecord) string {
	names := make([]string, 0, len(g.Players))
	for _, p := range g.Players {
		names = append(names, p.Username)
	}
	if len(names) == 0 {
		return "unknown players"
	}
	return strings.Join(names, " vs ")
}

func winnerIsBot(g store.GameRecord) bool {
	for _, p := range g.Players {
		if p.Username == g.Winner {
			return p.IsBot
		}
	}
	return false
}

func shortID(v string, max int) string {
	if len(v) <= max {
		return v
	}
	return v[:max]
}

func fallback(v, d string) string {
	if strings.TrimSpace(v) == "" {
		return d
	}
	return v
}
