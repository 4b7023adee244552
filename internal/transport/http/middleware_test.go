package httptransport

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	apppublic "connect-arena/internal/app/public"

	"github.com/go-chi/chi/v5"
)

func newLoggedRouter(buf *bytes.Buffer, maxBytes int) *chi.Mux {
	r := chi.NewRouter()
	r.Use(apiLogMiddlewareTo(buf))
	r.Use(ResponseCaptureMiddleware(maxBytes))
	r.Get("/api/leaderboard", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, map[string]any{"items": []map[string]any{{"username": "alice", "wins": 3}}})
	})
	r.Get("/api/games/{game_id}", func(w http.ResponseWriter, _ *http.Request) {
		WriteHTTPError(w, http.StatusNotFound, "game_not_found")
	})
	return r
}

func accessLine(t *testing.T, buf *bytes.Buffer) string {
	t.Helper()
	line := strings.TrimSpace(buf.String())
	if line == "" {
		t.Fatal("no access log written")
	}
	var decoded map[string]any
	if err := json.Unmarshal([]byte(line), &decoded); err != nil {
		t.Fatalf("access log is not one JSON line: %v: %s", err, line)
	}
	return line
}

func TestResponseCaptureAddsBodyToAccessLog(t *testing.T) {
	var buf bytes.Buffer
	h := newLoggedRouter(&buf, 4096)
	rec := doGet(t, h, "/api/leaderboard")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "alice") {
		t.Fatalf("response changed by capture: %d %s", rec.Code, rec.Body.String())
	}
	line := accessLine(t, &buf)
	if !strings.Contains(line, `"response_body":{"items":[{"username":"alice","wins":3}]}`) {
		t.Fatalf("captured body missing: %s", line)
	}
	if !strings.Contains(line, `"response_body_truncated":false`) || strings.Contains(line, "error_code") {
		t.Fatalf("unexpected capture attrs: %s", line)
	}
}

func TestResponseCaptureLogsErrorCode(t *testing.T) {
	var buf bytes.Buffer
	h := newLoggedRouter(&buf, 4096)
	if rec := doGet(t, h, "/api/games/01ARZ3NDEKTSV4RRFFQ69G5FAV"); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if line := accessLine(t, &buf); !strings.Contains(line, `"error_code":"game_not_found"`) {
		t.Fatalf("error code missing: %s", line)
	}
}

func TestResponseCaptureTruncates(t *testing.T) {
	var buf bytes.Buffer
	h := newLoggedRouter(&buf, 10)
	rec := doGet(t, h, "/api/leaderboard")
	if !strings.Contains(rec.Body.String(), `"wins":3`) {
		t.Fatalf("client must get the full body: %s", rec.Body.String())
	}
	line := accessLine(t, &buf)
	if !strings.Contains(line, `"response_body_truncated":true`) || !strings.Contains(line, `"response_body":"{\"items\":`) {
		t.Fatalf("expected a cut string body: %s", line)
	}
}

func TestRouterServesQueriesWithBodyLogging(t *testing.T) {
	h := NewRouter(Deps{
		Public:    apppublic.NewService(&fakeGames{}),
		DB:        pinger{},
		LogBodies: true,
	})
	if rec := doGet(t, h, "/api/stats"); rec.Code != http.StatusOK {
		t.Fatalf("stats with body logging: %d", rec.Code)
	}
	if rec := doGet(t, h, "/api/debug/vars"); rec.Code != http.StatusOK {
		t.Fatalf("debug vars: %d", rec.Code)
	}
}
