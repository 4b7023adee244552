package httptransport

import (
	"expvar"
	"fmt"
	"net/http"
	"sort"
	"strings"

	apppublic "connect-arena/internal/app/public"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"
)

// Deps are the handlers and services mounted by NewRouter. WS, MCP and
// Spectate are optional.
type Deps struct {
	Public   *apppublic.Service
	DB       Pinger
	Checks   map[string]Pinger
	WS       http.HandlerFunc
	MCP      http.Handler
	Spectate http.HandlerFunc

	// LogBodies adds query responses to the access log.
	LogBodies bool
}

func NewRouter(d Deps) *chi.Mux {
	publicHandlers := NewPublicHandlers(d.Public)
	healthHandlers := NewHealthHandlers(d.DB, d.Checks)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)

	r.With(APILogMiddleware()).Get("/healthz", healthHandlers.Health())
	if d.WS != nil {
		r.Get("/ws", d.WS)
	}
	if d.MCP != nil {
		r.With(APILogMiddleware()).MethodFunc(http.MethodOptions, "/mcp", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Allow", "POST, GET, DELETE, OPTIONS")
			w.WriteHeader(http.StatusNoContent)
		})
		r.With(APILogMiddleware()).Method(http.MethodPost, "/mcp", d.MCP)
		r.With(APILogMiddleware()).Method(http.MethodGet, "/mcp", d.MCP)
		r.With(APILogMiddleware()).Method(http.MethodDelete, "/mcp", d.MCP)
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(APILogMiddleware())
		r.Group(func(r chi.Router) {
			if d.LogBodies {
				r.Use(ResponseCaptureMiddleware(4096))
			}
			r.Get("/leaderboard", publicHandlers.Leaderboard())
			r.Get("/games/{game_id}", publicHandlers.Game())
			r.Get("/completed-games", publicHandlers.CompletedGames())
			r.Get("/stats", publicHandlers.Stats())
		})
		if d.Spectate != nil {
			r.Get("/games/{game_id}/events", d.Spectate)
		}
		r.Get("/debug/vars", expvar.Handler().ServeHTTP)
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		WriteHTTPError(w, http.StatusNotFound, "not_found")
	})
	return r
}

func LogRoutes(r chi.Router) {
	type routeDef struct {
		Method string
		Path   string
	}
	routes := make([]routeDef, 0, 64)
	err := chi.Walk(r, func(method string, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		routes = append(routes, routeDef{Method: method, Path: route})
		return nil
	})
	if err != nil {
		log.Error().Err(err).Msg("walk routes failed")
		return
	}
	sort.Slice(routes, func(i, j int) bool {
		if routes[i].Path == routes[j].Path {
			return routes[i].Method < routes[j].Method
		}
		return routes[i].Path < routes[j].Path
	})
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Registered routes (%d):\n", len(routes)))
	for _, rt := range routes {
		b.WriteString(fmt.Sprintf("  %-6s %s\n", rt.Method, rt.Path))
	}
	fmt.Print(b.String())
}
