package resultpush

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
)

var errCircuitOpen = errors.New("circuit_open")

func (m *Manager) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-m.done:
			return
		case job := <-m.dispatchCh:
			metricPushQueueLen.Set(int64(len(m.dispatchCh)))
			m.processJob(ctx, job)
		}
	}
}

func (m *Manager) processJob(ctx context.Context, job pushJob) {
	adapter := m.adapters[job.Target.Platform]
	if adapter == nil {
		metricPushDroppedTotal.Add(1)
		return
	}

	now := time.Now()
	if err := m.beforeSend(job.key(), now); err != nil {
		metricPushCircuitOpenTotal.Add(1)
		m.retryOrDrop(job, err)
		return
	}

	err := adapter.Send(ctx, job.Target.Endpoint, job.Target.Secret, job.Message)
	if err != nil {
		metricPushFailedTotal.Add(1)
		m.afterFailure(job.key(), time.Now())
		m.retryOrDrop(job, err)
		return
	}

	metricPushSentTotal.Add(1)
	m.afterSuccess(job.key())
}

func (m *Manager) retryOrDrop(job pushJob, err error) bool {
	if job.Attempt >= m.cfg.RetryMax {
		metricPushRetryDroppedTotal.Add(1)
		log.Warn().Err(err).Str("game_id", job.GameID).Str("platform", job.Target.Platform).Int("attempts", job.Attempt+1).Msg("result_push_gave_up")
		return false
	}
	job.Attempt++
	metricPushRetryTotal.Add(1)
	delay := m.cfg.RetryBase * time.Duration(1<<(job.Attempt-1))
	m.retryQ.Enqueue(job, delay)
	return true
}

func (m *Manager) beforeSend(key string, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	state := m.breakerByKey[key]
	if !state.openUntil.IsZero() && now.Before(state.openUntil) {
		return errCircuitOpen
	}
	return nil
}

func (m *Manager) afterFailure(key string, now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	state := m.breakerByKey[key]
	state.consecutiveFailures++
	if state.consecutiveFailures >= m.cfg.FailureThreshold {
		state.openUntil = now.Add(m.cfg.CircuitOpenDuration)
		state.consecutiveFailures = 0
	}
	m.breakerByKey[key] = state
}

func (m *Manager) afterSuccess(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.breakerByKey[key] = breakerState{}
}
