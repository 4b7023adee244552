package httptransport

import (
	"context"
	"net/http"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandlers reports each named dependency as up or down. The database
// is required; any other failing check degrades the response without
// failing it.
type HealthHandlers struct {
	db     Pinger
	extras map[string]Pinger
}

func NewHealthHandlers(db Pinger, extras map[string]Pinger) *HealthHandlers {
	return &HealthHandlers{db: db, extras: extras}
}

func (h *HealthHandlers) Health() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := map[string]any{"ok": true, "db": "up"}
		if h.db != nil {
			if err := h.db.Ping(r.Context()); err != nil {
				resp["ok"] = false
				resp["db"] = "down"
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusServiceUnavailable)
				writeJSON(w, resp)
				return
			}
		}
		for name, p := range h.extras {
			if p == nil {
				continue
			}
			state := "up"
			if err := p.Ping(r.Context()); err != nil {
				state = "down"
			}
			resp[name] = state
		}
		writeJSON(w, resp)
	}
}
