package resultpush

import (
	"strings"

	"connect-arena/internal/store"
)

type Router struct{}

func (r Router) MatchTargets(targets []Target, g store.GameRecord) []Target {
	if len(targets) == 0 {
		return nil
	}
	out := make([]Target, 0, len(targets))
	for _, target := range targets {
		if !target.Enabled {
			continue
		}
		if !scopeMatches(target, g) {
			continue
		}
		if !reasonAllowed(target.Reasons, g.Reason) {
			continue
		}
		out = append(out, target)
	}
	return out
}

func scopeMatches(target Target, g store.GameRecord) bool {
	switch target.Scope {
	case ScopeAll:
		return true
	case ScopeHuman:
		return !g.HasBot()
	case ScopeBot:
		return g.HasBot()
	default:
		return false
	}
}

func reasonAllowed(allowlist []string, reason string) bool {
	if len(allowlist) == 0 {
		return true
	}
	reason = strings.ToLower(strings.TrimSpace(reason))
	for _, v := range allowlist {
		if v == "" {
			continue
		}
		if strings.ToLower(strings.TrimSpace(v)) == reason {
			return true
		}
	}
	return false
}
