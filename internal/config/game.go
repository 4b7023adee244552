package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

type GameConfig struct {
	BoardRows          int           `env:"BOARD_ROWS" envDefault:"6"`
	BoardCols          int           `env:"BOARD_COLS" envDefault:"7"`
	MatchmakingTimeout time.Duration `env:"MATCHMAKING_TIMEOUT" envDefault:"10s"`
	ReconnectTimeout   time.Duration `env:"RECONNECT_TIMEOUT" envDefault:"30s"`
	BotName            string        `env:"BOT_NAME" envDefault:"BOT_COMPETITIVE"`
	LeaderboardLimit   int           `env:"LEADERBOARD_LIMIT" envDefault:"20"`
}

func LoadGame() (GameConfig, error) {
	var cfg GameConfig
	if err := env.Parse(&cfg); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

// Validate rejects boards that cannot hold a line of four and non-positive
// timeouts.
func (c GameConfig) Validate() error {
	if c.BoardRows < 4 || c.BoardCols < 4 {
		return fmt.Errorf("board %dx%d too small: rows and cols must be at least 4", c.BoardRows, c.BoardCols)
	}
	if c.MatchmakingTimeout <= 0 {
		return fmt.Errorf("MATCHMAKING_TIMEOUT must be positive, got %s", c.MatchmakingTimeout)
	}
	if c.ReconnectTimeout <= 0 {
		return fmt.Errorf("RECONNECT_TIMEOUT must be positive, got %s", c.ReconnectTimeout)
	}
	if c.BotName == "" {
		return fmt.Errorf("BOT_NAME must not be empty")
	}
	return nil
}
