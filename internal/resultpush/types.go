package resultpush

import (
	"time"

	"connect-arena/internal/resultpush/platforms"
)

const (
	ScopeAll   = "all"
	ScopeHuman = "human"
	ScopeBot   = "bot"
)

// Target is one announcement destination. Reasons, when set, limits the
// target to games that ended for one of the listed reasons.
type Target struct {
	Platform string   `json:"platform"`
	Endpoint string   `json:"endpoint"`
	Secret   string   `json:"secret,omitempty"`
	Scope    string   `json:"scope"`
	Reasons  []string `json:"reasons,omitempty"`
	Enabled  bool     `json:"enabled"`
}

type Config struct {
	Enabled             bool
	ConfigPath          string
	ConfigReload        time.Duration
	Workers             int
	RetryMax            int
	RetryBase           time.Duration
	FailureThreshold    int
	CircuitOpenDuration time.Duration
	RequestTimeout      time.Duration
	DispatchBuffer      int
	Targets             []Target
}

type pushJob struct {
	Target  Target
	GameID  string
	Message platforms.Message
	Attempt int
}

func (j pushJob) key() string {
	return targetKey(j.Target)
}

func targetKey(t Target) string {
	return t.Platform + "|" + t.Endpoint
}
