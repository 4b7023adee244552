package testutil

import (
	"context"
	"testing"
	"time"

	"connect-arena/internal/store"
)

// FinishedGame is an alice-vs-bob record that ended at finished with the
// given winner.
func FinishedGame(winner string, finished time.Time) store.GameRecord {
	return store.GameRecord{
		ID: store.NewID(),
		Players: []store.GamePlayer{
			{Username: "alice", Token: 1},
			{Username: "bob", Token: 2},
		},
		Moves: []store.GameMove{
			{Player: "alice", Token: 1, Column: 3, Row: 5, TS: finished.UnixMilli()},
		},
		Winner:     winner,
		Reason:     "connect_four",
		Board:      [][]int{{0, 0, 0, 1}},
		CreatedAt:  finished.Add(-time.Minute),
		FinishedAt: finished,
		DurationMS: time.Minute.Milliseconds(),
	}
}

func MustSaveGames(t *testing.T, st *store.Store, games ...store.GameRecord) {
	t.Helper()
	for i, g := range games {
		if err := st.SaveGame(context.Background(), g); err != nil {
			t.Fatalf("save game %d: %v", i, err)
		}
	}
}
