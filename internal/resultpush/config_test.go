package resultpush

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"connect-arena/internal/config"
)

func TestConfigFromServerDisabledWithoutTargets(t *testing.T) {
	cfg, err := ConfigFromServer(config.ServerConfig{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Enabled {
		t.Fatal("expected disabled config")
	}
	if cfg.Workers != 2 || cfg.RetryBase != 500*time.Millisecond {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}

func TestConfigFromServerFiltersTargets(t *testing.T) {
	cfg, err := ConfigFromServer(config.ServerConfig{
		ResultPushTargets: `[
			{"platform":" Discord ","endpoint":" https://discord.test/hook ","enabled":true,"reasons":[" Forfeit "]},
			{"platform":"webhook","endpoint":"https://hook.test","scope":"human","enabled":true},
			{"platform":"slack","endpoint":"https://slack.test","enabled":true},
			{"platform":"feishu","endpoint":"","enabled":true},
			{"platform":"feishu","endpoint":"https://feishu.test","scope":"room","enabled":true},
			{"platform":"feishu","endpoint":"https://feishu.test","enabled":false}
		]`,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !cfg.Enabled || len(cfg.Targets) != 2 {
		t.Fatalf("expected 2 targets, got %+v", cfg.Targets)
	}
	first := cfg.Targets[0]
	if first.Platform != "discord" || first.Endpoint != "https://discord.test/hook" || first.Scope != ScopeAll || first.Reasons[0] != "forfeit" {
		t.Fatalf("target not normalized: %+v", first)
	}
	if cfg.Targets[1].Scope != ScopeHuman {
		t.Fatalf("scope lost: %+v", cfg.Targets[1])
	}
}

func TestConfigFromServerBadJSON(t *testing.T) {
	if _, err := ConfigFromServer(config.ServerConfig{ResultPushTargets: "{"}); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestConfigFromServerPathWins(t *testing.T) {
	path := filepath.Join(t.TempDir(), "targets.json")
	if err := os.WriteFile(path, []byte(`[{"platform":"webhook","endpoint":"https://file.test","enabled":true}]`), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := ConfigFromServer(config.ServerConfig{
		ResultPushConfigPath: path,
		ResultPushTargets:    `[{"platform":"webhook","endpoint":"https://inline.test","enabled":true}]`,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cfg.Targets) != 1 || cfg.Targets[0].Endpoint != "https://file.test" {
		t.Fatalf("expected file targets, got %+v", cfg.Targets)
	}

	if _, err := ConfigFromServer(config.ServerConfig{ResultPushConfigPath: filepath.Join(t.TempDir(), "missing.json")}); err == nil {
		t.Fatal("expected error for missing file")
	}
}
