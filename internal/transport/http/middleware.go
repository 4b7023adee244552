package httptransport

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"connect-arena/internal/logging"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httplog/v3"
)

func APILogMiddleware() func(http.Handler) http.Handler {
	return apiLogMiddlewareTo(logging.Writer())
}

func apiLogMiddlewareTo(w io.Writer) func(http.Handler) http.Handler {
	return httplog.RequestLogger(
		slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{})),
		&httplog.Options{
			Level:              slog.LevelInfo,
			Schema:             httplog.Schema{ResponseStatus: "status", ResponseDuration: "duration_ms"},
			LogRequestBody:     func(*http.Request) bool { return false },
			LogResponseBody:    func(*http.Request) bool { return false },
			LogRequestHeaders:  []string{},
			LogResponseHeaders: []string{},
			LogExtraAttrs: func(req *http.Request, _ string, _ int) []slog.Attr {
				rc := chi.RouteContext(req.Context())
				route := req.URL.Path
				if rc != nil && rc.RoutePattern() != "" {
					route = rc.RoutePattern()
				}
				return []slog.Attr{
					slog.String("request_id", chimw.GetReqID(req.Context())),
					slog.String("method", req.Method),
					slog.String("route", route),
					slog.String("path", req.URL.Path),
				}
			},
		},
	)
}

// ResponseCaptureMiddleware attaches the JSON answer of a query route to its
// access log line, cut at maxCaptureBytes. Failed requests also log the
// error code they returned. Must run inside APILogMiddleware.
func ResponseCaptureMiddleware(maxCaptureBytes int) func(http.Handler) http.Handler {
	if maxCaptureBytes <= 0 {
		maxCaptureBytes = 4096
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cw := &captureWriter{ResponseWriter: w, maxBytes: maxCaptureBytes, status: http.StatusOK}
			next.ServeHTTP(cw, r)

			body := parseMaybeJSON(cw.body.Bytes())
			attrs := []slog.Attr{
				slog.Any("response_body", body),
				slog.Bool("response_body_truncated", cw.truncated),
			}
			if cw.status >= http.StatusBadRequest {
				if m, ok := body.(map[string]any); ok {
					if code, ok := m["error"].(string); ok {
						attrs = append(attrs, slog.String("error_code", code))
					}
				}
			}
			httplog.SetAttrs(r.Context(), attrs...)
		})
	}
}

type captureWriter struct {
	http.ResponseWriter
	body      bytes.Buffer
	maxBytes  int
	status    int
	truncated bool
}

func (c *captureWriter) WriteHeader(status int) {
	c.status = status
	c.ResponseWriter.WriteHeader(status)
}

func (c *captureWriter) Write(p []byte) (int, error) {
	if remain := c.maxBytes - c.body.Len(); remain >= len(p) {
		_, _ = c.body.Write(p)
	} else {
		if remain > 0 {
			_, _ = c.body.Write(p[:remain])
		}
		c.truncated = true
	}
	return c.ResponseWriter.Write(p)
}

// parseMaybeJSON keeps a cut-off body readable as a string.
func parseMaybeJSON(b []byte) any {
	if len(b) == 0 {
		return ""
	}
	var out any
	if err := json.Unmarshal(b, &out); err == nil {
		return out
	}
	return string(b)
}

func WriteHTTPError(w http.ResponseWriter, status int, code string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"error": code})
}
