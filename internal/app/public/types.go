package public

import (
	"connect-arena/internal/game/viewmodel"
	"connect-arena/internal/store"
)

type LeaderboardResponse struct {
	Items  []LeaderboardItem `json:"items"`
	Limit  int               `json:"limit"`
	Source string            `json:"source"`
}

type LeaderboardItem struct {
	Rank     int    `json:"rank"`
	Username string `json:"username"`
	Wins     int64  `json:"wins"`
}

// GameResponse holds a finished record, or the live view while the game is
// still being played.
type GameResponse struct {
	Status string                 `json:"status"`
	Game   *store.GameRecord      `json:"game,omitempty"`
	Live   *viewmodel.SessionView `json:"live,omitempty"`
}

type CompletedGamesResponse struct {
	Items []store.GameRecord `json:"items"`
}

type StatsResponse struct {
	WaitingPlayers int `json:"waiting_players"`
	ActiveSessions int `json:"active_sessions"`
}
