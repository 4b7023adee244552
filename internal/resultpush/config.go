package resultpush

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"connect-arena/internal/config"
)

func ConfigFromServer(cfg config.ServerConfig) (Config, error) {
	out := Config{
		ConfigPath:          strings.TrimSpace(cfg.ResultPushConfigPath),
		ConfigReload:        cfg.ResultPushConfigReload,
		Workers:             cfg.ResultPushWorkers,
		RetryMax:            cfg.ResultPushRetryMax,
		RetryBase:           cfg.ResultPushRetryBase,
		FailureThreshold:    3,
		CircuitOpenDuration: 30 * time.Second,
		RequestTimeout:      5 * time.Second,
		DispatchBuffer:      256,
	}
	if out.Workers <= 0 {
		out.Workers = 2
	}
	if out.RetryMax < 0 {
		out.RetryMax = 0
	}
	if out.RetryBase <= 0 {
		out.RetryBase = 500 * time.Millisecond
	}
	if out.ConfigReload <= 0 {
		out.ConfigReload = 5 * time.Second
	}

	jsonRaw, err := loadTargetsJSON(cfg)
	if err != nil {
		return Config{}, err
	}
	if jsonRaw != "" {
		targets, err := parseTargetsJSON(jsonRaw)
		if err != nil {
			return Config{}, err
		}
		out.Targets = targets
	}
	// A watched file may gain targets later, so it enables the manager even
	// while empty.
	out.Enabled = len(out.Targets) > 0 || out.ConfigPath != ""
	return out, nil
}

func loadTargetsJSON(cfg config.ServerConfig) (string, error) {
	path := strings.TrimSpace(cfg.ResultPushConfigPath)
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("read result push config path %q: %w", path, err)
		}
		return strings.TrimSpace(string(raw)), nil
	}
	return strings.TrimSpace(cfg.ResultPushTargets), nil
}

func parseTargetsJSON(jsonRaw string) ([]Target, error) {
	var targets []Target
	if err := json.Unmarshal([]byte(jsonRaw), &targets); err != nil {
		return nil, fmt.Errorf("parse result push targets: %w", err)
	}
	filtered := make([]Target, 0, len(targets))
	for _, target := range targets {
		target.Platform = strings.ToLower(strings.TrimSpace(target.Platform))
		switch target.Platform {
		case "discord", "feishu", "webhook":
		default:
			continue
		}
		target.Scope = strings.ToLower(strings.TrimSpace(target.Scope))
		if target.Scope == "" {
			target.Scope = ScopeAll
		}
		if target.Scope != ScopeAll && target.Scope != ScopeHuman && target.Scope != ScopeBot {
			continue
		}
		target.Endpoint = strings.TrimSpace(target.Endpoint)
		if target.Endpoint == "" {
			continue
		}
		if !target.Enabled {
			continue
		}
		for i := range target.Reasons {
			target.Reasons[i] = strings.TrimSpace(strings.ToLower(target.Reasons[i]))
		}
		filtered = append(filtered, target)
	}
	return filtered, nil
}
