package config

import (
	"time"

	"github.com/caarlos0/env/v11"
)

type ServerConfig struct {
	PostgresDSN string `env:"POSTGRES_DSN,required,notEmpty"`
	HTTPAddr    string `env:"HTTP_ADDR" envDefault:":8080"`

	// Empty RedisAddr disables the leaderboard cache.
	RedisAddr string `env:"REDIS_ADDR"`
	RedisDB   int    `env:"REDIS_DB" envDefault:"0"`

	PersistTimeout time.Duration `env:"PERSIST_TIMEOUT" envDefault:"5s"`
	AllowedOrigins []string      `env:"ALLOWED_ORIGINS" envSeparator:","`

	// Spectator feeds keep SpectateBuffer events per game and stay
	// replayable for SpectateLinger after the game ends.
	SpectateBuffer int           `env:"SPECTATE_BUFFER" envDefault:"200"`
	SpectateLinger time.Duration `env:"SPECTATE_LINGER" envDefault:"1m"`

	// Finished-game announcements. Targets come from the file when
	// ResultPushConfigPath is set, otherwise from the inline JSON.
	ResultPushTargets      string        `env:"RESULT_PUSH_TARGETS"`
	ResultPushConfigPath   string        `env:"RESULT_PUSH_CONFIG_PATH"`
	ResultPushConfigReload time.Duration `env:"RESULT_PUSH_CONFIG_RELOAD" envDefault:"5s"`
	ResultPushWorkers      int           `env:"RESULT_PUSH_WORKERS" envDefault:"2"`
	ResultPushRetryMax     int           `env:"RESULT_PUSH_RETRY_MAX" envDefault:"3"`
	ResultPushRetryBase    time.Duration `env:"RESULT_PUSH_RETRY_BASE" envDefault:"500ms"`
}

func LoadServer() (ServerConfig, error) {
	var cfg ServerConfig
	err := env.Parse(&cfg)
	return cfg, err
}
