package main

import (
	"connect-arena/internal/arena"
	apppublic "connect-arena/internal/app/public"
	"connect-arena/internal/config"
	"connect-arena/internal/leaderboard"
	"connect-arena/internal/mcpserver"
	"connect-arena/internal/spectate"
	"connect-arena/internal/store"
	httptransport "connect-arena/internal/transport/http"
	"connect-arena/internal/ws"

	"github.com/go-chi/chi/v5"
)

// core wires the matchmaking queue and the session registry to the
// websocket server, which is also their notifier. The spectate hub observes
// every session.
type core struct {
	ws         *ws.Server
	registry   *arena.Registry
	matchmaker *arena.Matchmaker
	spectate   *spectate.Hub
}

func newCore(cfg config.AppConfig, sink arena.Sink) *core {
	botName := cfg.Game.BotName
	if botName == "" {
		botName = arena.DefaultBotName
	}
	wsSrv := ws.NewServer(ws.Options{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		ReservedNames:  []string{botName},
	})
	hub := spectate.NewHub(cfg.Server.SpectateBuffer, cfg.Server.SpectateLinger)
	reg := arena.NewRegistry(arena.Options{
		Rows:             cfg.Game.BoardRows,
		Cols:             cfg.Game.BoardCols,
		ReconnectTimeout: cfg.Game.ReconnectTimeout,
		PersistTimeout:   cfg.Server.PersistTimeout,
		BotName:          botName,
		NewID:            store.NewID,
		Observer:         hub,
	}, wsSrv, sink)
	mm := arena.NewMatchmaker(cfg.Game.MatchmakingTimeout, reg, wsSrv)
	wsSrv.Bind(mm, reg)
	return &core{ws: wsSrv, registry: reg, matchmaker: mm, spectate: hub}
}

// close stops queue fallbacks before session timers so no new session is
// started during shutdown.
func (c *core) close() {
	c.matchmaker.Close()
	c.registry.Close()
}

type routerDeps struct {
	games            apppublic.GameReader
	db               httptransport.Pinger
	cache            *leaderboard.Cache
	leaderboardLimit int
	logBodies        bool
}

func newRouter(c *core, d routerDeps) *chi.Mux {
	opts := []apppublic.Option{
		apppublic.WithLive(c.matchmaker, c.registry),
		apppublic.WithLeaderboardLimit(d.leaderboardLimit),
	}
	checks := map[string]httptransport.Pinger{}
	if d.cache != nil {
		opts = append(opts, apppublic.WithCache(d.cache))
		checks["redis"] = d.cache
	}
	publicSvc := apppublic.NewService(d.games, opts...)
	return httptransport.NewRouter(httptransport.Deps{
		Public:   publicSvc,
		DB:       d.db,
		Checks:   checks,
		WS:       c.ws.HandleWS,
		MCP:      mcpserver.New(publicSvc).Handler(),
		Spectate: spectate.EventsHandler(c.spectate),

		LogBodies: d.logBodies,
	})
}

func logRoutes(r chi.Router) {
	httptransport.LogRoutes(r)
}
