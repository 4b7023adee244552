package arena

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// SessionStarter is the part of the registry the matchmaker drives.
type SessionStarter interface {
	StartSession(a, b Entrant) (string, error)
	StartBotSession(human Entrant) (string, error)
}

type queueEntry struct {
	Entrant
	joinedAt time.Time
	timer    *time.Timer
}

// Matchmaker pairs waiting players FIFO. An entry is claimed by removing it
// from the queue under the lock, so pairing and the bot fallback for the same
// entry are mutually exclusive.
type Matchmaker struct {
	timeout  time.Duration
	starter  SessionStarter
	notifier Notifier

	mu     sync.Mutex
	queue  []*queueEntry
	closed bool
}

func NewMatchmaker(timeout time.Duration, starter SessionStarter, notifier Notifier) *Matchmaker {
	if timeout <= 0 {
		timeout = DefaultMatchmakingTimeout
	}
	if notifier == nil {
		notifier = NotifierFunc(func(string, Event) {})
	}
	return &Matchmaker{timeout: timeout, starter: starter, notifier: notifier}
}

func (m *Matchmaker) Enqueue(e Entrant) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrClosed
	}
	m.removeLocked(e)

	entry := &queueEntry{Entrant: e, joinedAt: time.Now()}
	entry.timer = time.AfterFunc(m.timeout, func() { m.expire(entry) })
	m.queue = append(m.queue, entry)

	if len(m.queue) < 2 {
		metricQueueWaiting.Set(int64(len(m.queue)))
		m.notifier.Notify(e.ClientID, Event{Name: EventWaitingForOpponent, Data: WaitingPayload{
			Message:   fmt.Sprintf("Waiting for opponent (%ds timeout before bot)", int(m.timeout/time.Second)),
			TimeoutMS: m.timeout.Milliseconds(),
		}})
		m.mu.Unlock()
		return nil
	}

	a, b := m.queue[0], m.queue[1]
	m.queue = m.queue[2:]
	a.timer.Stop()
	b.timer.Stop()
	metricQueueWaiting.Set(int64(len(m.queue)))
	m.mu.Unlock()

	log.Info().Str("player_a", a.Username).Str("player_b", b.Username).Msg("queue_paired")
	if _, err := m.starter.StartSession(a.Entrant, b.Entrant); err != nil {
		log.Error().Err(err).Str("player_a", a.Username).Str("player_b", b.Username).Msg("start_session_failed")
		return err
	}
	return nil
}

// Dequeue cancels a waiting entry; a missing entry is a no-op.
func (m *Matchmaker) Dequeue(e Entrant) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.removeLocked(e)
	metricQueueWaiting.Set(int64(len(m.queue)))
}

func (m *Matchmaker) removeLocked(e Entrant) {
	for i, q := range m.queue {
		if q.Username == e.Username && q.ClientID == e.ClientID {
			q.timer.Stop()
			m.queue = append(m.queue[:i], m.queue[i+1:]...)
			return
		}
	}
}

func (m *Matchmaker) expire(entry *queueEntry) {
	m.mu.Lock()
	idx := -1
	for i, q := range m.queue {
		if q == entry {
			idx = i
			break
		}
	}
	if idx < 0 || m.closed {
		m.mu.Unlock()
		return
	}
	m.queue = append(m.queue[:idx], m.queue[idx+1:]...)
	metricQueueWaiting.Set(int64(len(m.queue)))
	m.mu.Unlock()

	log.Info().
		Str("username", entry.Username).
		Dur("waited", time.Since(entry.joinedAt)).
		Msg("queue_timeout_bot_fallback")
	if _, err := m.starter.StartBotSession(entry.Entrant); err != nil {
		log.Error().Err(err).Str("username", entry.Username).Msg("start_bot_session_failed")
	}
}

func (m *Matchmaker) Waiting() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queue)
}

// Close stops every pending fallback timer and rejects new entries.
func (m *Matchmaker) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	for _, q := range m.queue {
		q.timer.Stop()
	}
	m.queue = nil
	metricQueueWaiting.Set(0)
}
