package public

import (
	"context"
	"errors"

	"connect-arena/internal/game/viewmodel"
	"connect-arena/internal/store"

	"github.com/rs/zerolog/log"
)

type GameReader interface {
	GetGame(ctx context.Context, id string) (*store.GameRecord, error)
	ListCompletedGames(ctx context.Context, limit int) ([]store.GameRecord, error)
	Leaderboard(ctx context.Context, limit int) ([]store.LeaderboardEntry, error)
}

type WinCache interface {
	Top(ctx context.Context, limit int) ([]store.LeaderboardEntry, error)
}

type Queue interface {
	Waiting() int
}

type Sessions interface {
	ActiveCount() int
	Snapshot(gameID string) (viewmodel.SessionView, bool)
}

type Service struct {
	games    GameReader
	cache    WinCache
	queue    Queue
	sessions Sessions
	defLimit int
}

type Option func(*Service)

func WithCache(c WinCache) Option { return func(s *Service) { s.cache = c } }
func WithLive(q Queue, ss Sessions) Option { return func(s *Service) { s.queue, s.sessions = q, ss } }
func WithLeaderboardLimit(n int) Option { return func(s *Service) { s.defLimit = n } }

func NewService(games GameReader, opts ...Option) *Service {
	s := &Service{games: games, defLimit: store.DefaultLeaderboardLimit}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Service) Leaderboard(ctx context.Context, limit int) (*LeaderboardResponse, error) {
	limit = clampLeaderboardLimit(limit, s.defLimit)
	var (
		entries []store.LeaderboardEntry
		source  = "db"
		err     error
	)
	if s.cache != nil {
		entries, err = s.cache.Top(ctx, limit)
		if err == nil {
			source = "cache"
		} else {
			log.Warn().Err(err).Msg("leaderboard_cache_fallback")
		}
	}
	if s.cache == nil || err != nil {
		entries, err = s.games.Leaderboard(ctx, limit)
		if err != nil {
			return nil, err
		}
	}
	out := make([]LeaderboardItem, 0, len(entries))
	for i, e := range entries {
		out = append(out, LeaderboardItem{Rank: i + 1, Username: e.Username, Wins: e.Wins})
	}
	return &LeaderboardResponse{Items: out, Limit: limit, Source: source}, nil
}

func (s *Service) Game(ctx context.Context, id string) (*GameResponse, error) {
	if !store.ValidID(id) {
		return nil, ErrInvalidRequest
	}
	g, err := s.games.GetGame(ctx, id)
	if err == nil {
		return &GameResponse{Status: "finished", Game: g}, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}
	if s.sessions != nil {
		if view, ok := s.sessions.Snapshot(id); ok {
			return &GameResponse{Status: "active", Live: &view}, nil
		}
	}
	return nil, ErrGameNotFound
}

func (s *Service) CompletedGames(ctx context.Context) (*CompletedGamesResponse, error) {
	items, err := s.games.ListCompletedGames(ctx, store.DefaultCompletedLimit)
	if err != nil {
		return nil, err
	}
	return &CompletedGamesResponse{Items: items}, nil
}

func (s *Service) Stats() StatsResponse {
	var out StatsResponse
	if s.queue != nil {
		out.WaitingPlayers = s.queue.Waiting()
	}
	if s.sessions != nil {
		out.ActiveSessions = s.sessions.ActiveCount()
	}
	return out
}

func clampLeaderboardLimit(limit, def int) int {
	if def <= 0 || def > store.MaxLeaderboardLimit {
		def = store.DefaultLeaderboardLimit
	}
	if limit <= 0 {
		return def
	}
	if limit > store.MaxLeaderboardLimit {
		return store.MaxLeaderboardLimit
	}
	return limit
}
