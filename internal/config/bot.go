package config

import "github.com/caarlos0/env/v11"

type BotConfig struct {
	WSURL    string `env:"WS_URL" envDefault:"ws://localhost:8080/ws"`
	Username string `env:"BOT_USERNAME" envDefault:"dumb-bot"`
	// Games is how many games to play before exiting; 0 plays forever.
	Games int `env:"BOT_GAMES" envDefault:"0"`
}

func LoadBot() (BotConfig, error) {
	var cfg BotConfig
	err := env.Parse(&cfg)
	return cfg, err
}
