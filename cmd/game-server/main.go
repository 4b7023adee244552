package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"connect-arena/internal/arena"
	"connect-arena/internal/config"
	"connect-arena/internal/leaderboard"
	"connect-arena/internal/logging"
	"connect-arena/internal/resultpush"
	"connect-arena/internal/store"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.LoadApp()
	if err != nil {
		panic(err)
	}
	closer, err := logging.Init(cfg.Log)
	if err != nil {
		panic(err)
	}
	defer closer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if err := run(ctx, cfg); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

func run(ctx context.Context, cfg config.AppConfig) error {
	st, err := store.New(cfg.Server.PostgresDSN)
	if err != nil {
		return err
	}
	defer st.Close()
	if err := st.Ping(ctx); err != nil {
		return err
	}

	var followers arena.MultiSink
	var cache *leaderboard.Cache
	if cfg.Server.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.Server.RedisAddr, DB: cfg.Server.RedisDB})
		defer rdb.Close()
		cache = leaderboard.New(rdb)
		seedLeaderboard(ctx, st, cache)
		followers = append(followers, cache)
	}

	pushCfg, err := resultpush.ConfigFromServer(cfg.Server)
	if err != nil {
		return err
	}
	if pushCfg.Enabled {
		pusher := resultpush.NewManager(pushCfg)
		if err := pusher.Start(ctx); err != nil {
			return err
		}
		defer pusher.Close()
		followers = append(followers, pusher)
		log.Info().Int("targets", len(pushCfg.Targets)).Msg("result_push_enabled")
	}

	c := newCore(cfg, gameSinks(st, followers...))
	r := newRouter(c, routerDeps{
		games:            st,
		db:               st,
		cache:            cache,
		leaderboardLimit: cfg.Game.LeaderboardLimit,
		logBodies:        cfg.Log.HTTPBodies,
	})
	logRoutes(r)

	server := &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.Server.HTTPAddr).Msg("http listening")
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		c.close()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutdown_started")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("http_shutdown_failed")
	}
	c.close()
	log.Info().Msg("shutdown_complete")
	return nil
}

// seedLeaderboard rebuilds the redis win counts from the games table. A
// failure leaves the cache unseeded, so reads keep using the database.
// gameSinks persists to db first; followers only see games db stored.
func gameSinks(db arena.Sink, followers ...arena.Sink) arena.Sink {
	if len(followers) == 0 {
		return db
	}
	return arena.Chain{db, arena.MultiSink(followers)}
}

func seedLeaderboard(ctx context.Context, st *store.Store, cache *leaderboard.Cache) {
	seedCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	counts, err := st.WinCounts(seedCtx)
	if err != nil {
		log.Warn().Err(err).Msg("leaderboard_seed_failed")
		return
	}
	if err := cache.Seed(seedCtx, counts); err != nil {
		log.Warn().Err(err).Msg("leaderboard_seed_failed")
		return
	}
	log.Info().Int("usernames", len(counts)).Msg("leaderboard_seeded")
}
