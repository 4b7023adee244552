package spectate

import "expvar"

var (
	metricStreamsTotal  = expvar.NewInt("spectate_streams_total")
	metricStreamsActive = expvar.NewInt("spectate_streams_active")
	metricFeedsActive   = expvar.NewInt("spectate_feeds_active")
	metricDroppedEvents = expvar.NewInt("spectate_dropped_events_total")
)
