package spectate

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
)

var pingInterval = 15 * time.Second

// EventsHandler streams a game's events as SSE. Buffered events are replayed
// first, honouring Last-Event-ID. The stream ends with the game.
func EventsHandler(hub *Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		gameID := strings.TrimSpace(chi.URLParam(r, "game_id"))
		buf, ok := hub.Feed(gameID)
		if !ok {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":"game_not_found"}`))
			return
		}
		flusher, ok := w.(http.Flusher)
		if !ok {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}

		metricStreamsTotal.Add(1)
		metricStreamsActive.Add(1)
		defer metricStreamsActive.Add(-1)

		SetSSEHeaders(w)
		w.WriteHeader(http.StatusOK)

		// Subscribing before the replay closes the gap between the two; last
		// drops events the replay already covered.
		ch := buf.Subscribe()
		defer buf.Unsubscribe(ch)
		var last int64
		for _, ev := range buf.ReplayAfter(r.Header.Get("Last-Event-ID")) {
			if err := WriteSSE(w, ev); err != nil {
				return
			}
			last = eventSeq(ev)
		}
		flusher.Flush()

		ticker := time.NewTicker(pingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-r.Context().Done():
				return
			case ev, ok := <-ch:
				if !ok {
					return
				}
				if eventSeq(ev) <= last {
					continue
				}
				if err := WriteSSE(w, ev); err != nil {
					return
				}
				flusher.Flush()
			case <-ticker.C:
				ping := StreamEvent{
					Event:    "ping",
					GameID:   gameID,
					ServerTS: time.Now().UnixMilli(),
					Data:     map[string]any{"ts": time.Now().UnixMilli()},
				}
				if err := WriteSSE(w, ping); err != nil {
					return
				}
				flusher.Flush()
			}
		}
	}
}

func eventSeq(ev StreamEvent) int64 {
	n, _ := strconv.ParseInt(ev.EventID, 10, 64)
	return n
}
