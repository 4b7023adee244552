package httptransport

import "expvar"

var (
	leaderboardQueryTotal  = expvar.NewInt("leaderboard_query_total")
	leaderboardQueryErrors = expvar.NewInt("leaderboard_query_errors_total")
	leaderboardQueryMS     = expvar.NewInt("leaderboard_query_last_ms")

	gameLookupTotal  = expvar.NewInt("game_lookup_total")
	gameLookupMisses = expvar.NewInt("game_lookup_misses_total")
)
