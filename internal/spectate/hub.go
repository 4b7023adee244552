package spectate

import (
	"sync"
	"time"

	"connect-arena/internal/arena"
)

// Hub keeps one event buffer per live game. It is an arena observer; ended
// games stay replayable for the linger period.
type Hub struct {
	maxEvents int
	linger    time.Duration

	mu    sync.Mutex
	feeds map[string]*EventBuffer
}

func NewHub(maxEvents int, linger time.Duration) *Hub {
	if linger <= 0 {
		linger = time.Minute
	}
	return &Hub{
		maxEvents: maxEvents,
		linger:    linger,
		feeds:     map[string]*EventBuffer{},
	}
}

func (h *Hub) Observe(ev arena.Event) {
	if ev.GameID == "" {
		return
	}
	h.mu.Lock()
	buf, ok := h.feeds[ev.GameID]
	if !ok {
		buf = NewEventBuffer(h.maxEvents)
		h.feeds[ev.GameID] = buf
		metricFeedsActive.Add(1)
	}
	h.mu.Unlock()
	buf.Append(ev.Name, ev.GameID, ev.Data)
}

func (h *Hub) GameEnded(gameID string) {
	h.mu.Lock()
	buf := h.feeds[gameID]
	h.mu.Unlock()
	if buf == nil {
		return
	}
	buf.Close()
	time.AfterFunc(h.linger, func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if h.feeds[gameID] == buf {
			delete(h.feeds, gameID)
			metricFeedsActive.Add(-1)
		}
	})
}

func (h *Hub) Feed(gameID string) (*EventBuffer, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	buf, ok := h.feeds[gameID]
	return buf, ok
}
