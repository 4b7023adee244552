package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const (
	DrawWinner = "draw"

	DefaultCompletedLimit   = 50
	DefaultLeaderboardLimit = 20
	MaxLeaderboardLimit     = 100
)

type GamePlayer struct {
	Username string `json:"username"`
	Token    int    `json:"token"`
	IsBot    bool   `json:"is_bot"`
}

type GameMove struct {
	Player string `json:"player"`
	Token  int    `json:"token"`
	Column int    `json:"column"`
	Row    int    `json:"row"`
	TS     int64  `json:"ts"`
}

// GameRecord is a finished game. Winner is a username or DrawWinner.
type GameRecord struct {
	ID         string       `json:"id"`
	Players    []GamePlayer `json:"players"`
	Moves      []GameMove   `json:"moves"`
	Winner     string       `json:"winner"`
	Reason     string       `json:"reason"`
	Board      [][]int      `json:"board"`
	CreatedAt  time.Time    `json:"created_at"`
	FinishedAt time.Time    `json:"finished_at"`
	DurationMS int64        `json:"duration_ms"`
}

func (g GameRecord) HasBot() bool {
	for _, p := range g.Players {
		if p.IsBot {
			return true
		}
	}
	return false
}

type LeaderboardEntry struct {
	Username string `json:"username"`
	Wins     int64  `json:"wins"`
}

const gameColumns = `id, players, moves, winner, reason, board, created_at, finished_at, duration_ms`

func (s *Store) SaveGame(ctx context.Context, g GameRecord) error {
	if g.ID == "" {
		return fmt.Errorf("save game: empty id")
	}
	if g.Players == nil {
		g.Players = []GamePlayer{}
	}
	if g.Moves == nil {
		g.Moves = []GameMove{}
	}
	if g.Board == nil {
		g.Board = [][]int{}
	}
	_, err := s.Pool.Exec(ctx, `
		INSERT INTO games (id, players, moves, winner, reason, board, move_count, bot_game, created_at, finished_at, duration_ms)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO NOTHING`,
		g.ID, g.Players, g.Moves, g.Winner, g.Reason, g.Board, len(g.Moves), g.HasBot(),
		timestamptzParam(g.CreatedAt), timestamptzParam(g.FinishedAt), g.DurationMS,
	)
	if err != nil {
		return fmt.Errorf("save game %s: %w", g.ID, err)
	}
	return nil
}

func (s *Store) GetGame(ctx context.Context, id string) (*GameRecord, error) {
	row := s.Pool.QueryRow(ctx, `SELECT `+gameColumns+` FROM games WHERE id = $1`, id)
	g, err := scanGame(row)
	if err != nil {
		return nil, mapNotFound(err)
	}
	return g, nil
}

// ListCompletedGames returns the most recently finished games first.
func (s *Store) ListCompletedGames(ctx context.Context, limit int) ([]GameRecord, error) {
	limit = clampLimit(limit, DefaultCompletedLimit, DefaultCompletedLimit)
	rows, err := s.Pool.Query(ctx, `SELECT `+gameColumns+` FROM games ORDER BY finished_at DESC, id DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []GameRecord{}
	for rows.Next() {
		g, err := scanGame(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *g)
	}
	return out, rows.Err()
}

// Leaderboard aggregates wins per username, draws excluded.
func (s *Store) Leaderboard(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	limit = clampLimit(limit, DefaultLeaderboardLimit, MaxLeaderboardLimit)
	rows, err := s.Pool.Query(ctx, `
		SELECT winner, COUNT(*) AS wins
		FROM games
		WHERE winner <> $1 AND winner <> ''
		GROUP BY winner
		ORDER BY wins DESC, winner ASC
		LIMIT $2`, DrawWinner, limit)
	if err != nil {
		return nil, err
	}
	return scanEntries(rows)
}

// WinCounts returns the win count of every username that has won a game.
func (s *Store) WinCounts(ctx context.Context) ([]LeaderboardEntry, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT winner, COUNT(*) FROM games
		WHERE winner <> $1 AND winner <> ''
		GROUP BY winner`, DrawWinner)
	if err != nil {
		return nil, err
	}
	return scanEntries(rows)
}

func (s *Store) CountGames(ctx context.Context) (int64, error) {
	var n int64
	err := s.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM games`).Scan(&n)
	return n, err
}

func scanGame(row pgx.Row) (*GameRecord, error) {
	var (
		g          GameRecord
		createdAt  pgtype.Timestamptz
		finishedAt pgtype.Timestamptz
	)
	if err := row.Scan(&g.ID, &g.Players, &g.Moves, &g.Winner, &g.Reason, &g.Board, &createdAt, &finishedAt, &g.DurationMS); err != nil {
		return nil, err
	}
	g.CreatedAt = timeVal(createdAt)
	g.FinishedAt = timeVal(finishedAt)
	return &g, nil
}

func scanEntries(rows pgx.Rows) ([]LeaderboardEntry, error) {
	defer rows.Close()
	out := []LeaderboardEntry{}
	for rows.Next() {
		var e LeaderboardEntry
		if err := rows.Scan(&e.Username, &e.Wins); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
