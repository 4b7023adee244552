package resultpush

import (
	"context"
	"os"
	"strings"
	"sync"
	"time"

	"connect-arena/internal/resultpush/platforms"
	"connect-arena/internal/store"

	"github.com/rs/zerolog/log"
)

type breakerState struct {
	consecutiveFailures int
	openUntil           time.Time
}

// Manager announces finished games to chat and webhook targets. It is an
// arena sink: SaveGame only enqueues, delivery happens on worker goroutines.
type Manager struct {
	cfg      Config
	router   Router
	adapters map[string]platforms.Adapter

	dispatchCh chan pushJob
	retryQ     *retryQueue
	done       chan struct{}
	closeOnce  sync.Once

	mu           sync.Mutex
	started      bool
	breakerByKey map[string]breakerState
}

func NewManager(cfg Config) *Manager {
	client := platforms.NewHTTPClient(cfg.RequestTimeout)
	adapters := map[string]platforms.Adapter{
		"discord": platforms.NewDiscordAdapter(client),
		"feishu":  platforms.NewFeishuAdapter(client),
		"webhook": platforms.NewWebhookAdapter(client),
	}
	if cfg.DispatchBuffer <= 0 {
		cfg.DispatchBuffer = 256
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 2
	}
	if cfg.RetryBase <= 0 {
		cfg.RetryBase = 500 * time.Millisecond
	}
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 3
	}
	if cfg.CircuitOpenDuration <= 0 {
		cfg.CircuitOpenDuration = 30 * time.Second
	}

	m := &Manager{
		cfg:          cfg,
		router:       Router{},
		adapters:     adapters,
		dispatchCh:   make(chan pushJob, cfg.DispatchBuffer),
		done:         make(chan struct{}),
		breakerByKey: map[string]breakerState{},
	}
	m.retryQ = newRetryQueue(m.dispatchCh, m.done)
	return m
}

func (m *Manager) Start(ctx context.Context) error {
	if !m.cfg.Enabled {
		return nil
	}

	m.mu.Lock()
	if m.started {
		m.mu.Unlock()
		return nil
	}
	m.started = true
	m.mu.Unlock()

	for i := 0; i < m.cfg.Workers; i++ {
		go m.worker(ctx)
	}
	if m.cfg.ConfigPath != "" {
		go m.watchConfigLoop(ctx)
	}
	go func() {
		select {
		case <-ctx.Done():
			m.Close()
		case <-m.done:
		}
	}()
	return nil
}

// Close stops the workers and pending retries. Queued jobs are dropped.
func (m *Manager) Close() {
	m.closeOnce.Do(func() { close(m.done) })
}

// SaveGame queues one announcement per matching target. It never fails the
// caller: a full queue drops the announcement.
func (m *Manager) SaveGame(_ context.Context, g store.GameRecord) error {
	if !m.cfg.Enabled {
		return nil
	}
	select {
	case <-m.done:
		return nil
	default:
	}
	targets := m.router.MatchTargets(m.currentTargets(), g)
	if len(targets) == 0 {
		return nil
	}
	msg := FormatResult(g)
	for _, target := range targets {
		if !m.enqueue(pushJob{Target: target, GameID: g.ID, Message: msg}) {
			log.Warn().Str("game_id", g.ID).Str("platform", target.Platform).Msg("result_push_dropped")
		}
	}
	return nil
}

func (m *Manager) enqueue(job pushJob) bool {
	select {
	case m.dispatchCh <- job:
		metricPushQueuedTotal.Add(1)
		metricPushQueueLen.Set(int64(len(m.dispatchCh)))
		return true
	default:
		metricPushDroppedTotal.Add(1)
		return false
	}
}

func (m *Manager) currentTargets() []Target {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Target, len(m.cfg.Targets))
	copy(out, m.cfg.Targets)
	return out
}

func (m *Manager) setTargets(targets []Target) {
	m.mu.Lock()
	m.cfg.Targets = targets
	m.mu.Unlock()
}

func (m *Manager) watchConfigLoop(ctx context.Context) {
	interval := m.cfg.ConfigReload
	if interval <= 0 {
		interval = 5 * time.Second
	}
	lastRaw := ""
	if raw, err := os.ReadFile(m.cfg.ConfigPath); err == nil {
		lastRaw = strings.TrimSpace(string(raw))
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-m.done:
			return
		case <-ticker.C:
			lastRaw = m.reloadTargets(lastRaw)
		}
	}
}

// reloadTargets re-reads the config file and swaps the target list when it
// changed and parses. It returns the content now in effect.
func (m *Manager) reloadTargets(lastRaw string) string {
	raw, err := os.ReadFile(m.cfg.ConfigPath)
	if err != nil {
		metricPushConfigReloadError.Add(1)
		return lastRaw
	}
	nextRaw := strings.TrimSpace(string(raw))
	if nextRaw == lastRaw {
		return lastRaw
	}
	targets, err := parseTargetsJSON(nextRaw)
	if err != nil {
		metricPushConfigReloadError.Add(1)
		log.Warn().Err(err).Str("path", m.cfg.ConfigPath).Msg("result_push_reload_failed")
		return lastRaw
	}
	m.setTargets(targets)
	metricPushConfigReloadTotal.Add(1)
	log.Info().Int("targets", len(targets)).Msg("result_push_targets_reloaded")
	return nextRaw
}
