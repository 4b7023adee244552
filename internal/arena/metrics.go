package arena

import "expvar"

var (
	metricSessionsStarted   = expvar.NewInt("arena_sessions_started_total")
	metricBotSessions       = expvar.NewInt("arena_bot_sessions_total")
	metricSessionsFinished  = expvar.NewInt("arena_sessions_finished_total")
	metricForfeits          = expvar.NewInt("arena_forfeits_total")
	metricMovesApplied      = expvar.NewInt("arena_moves_applied_total")
	metricMovesRejected     = expvar.NewInt("arena_moves_rejected_total")
	metricPersistErrors     = expvar.NewInt("arena_persist_errors_total")
	metricSessionsActive    = expvar.NewInt("arena_sessions_active")
	metricQueueWaiting      = expvar.NewInt("arena_queue_waiting")
	metricReconnectsHandled = expvar.NewInt("arena_reconnects_total")
)
