package httptransport

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	apppublic "connect-arena/internal/app/public"

	"github.com/go-chi/chi/v5"
)

type PublicHandlers struct {
	publicSvc *apppublic.Service
}

func NewPublicHandlers(publicSvc *apppublic.Service) *PublicHandlers {
	return &PublicHandlers{publicSvc: publicSvc}
}

func (h *PublicHandlers) Leaderboard() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		defer func() {
			leaderboardQueryMS.Set(time.Since(start).Milliseconds())
		}()
		leaderboardQueryTotal.Add(1)

		limit := 0
		if v := r.URL.Query().Get("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 1 {
				leaderboardQueryErrors.Add(1)
				WriteHTTPError(w, http.StatusBadRequest, "invalid_request")
				return
			}
			limit = n
		}
		resp, err := h.publicSvc.Leaderboard(r.Context(), limit)
		if err != nil {
			leaderboardQueryErrors.Add(1)
			WriteHTTPError(w, http.StatusInternalServerError, "internal_error")
			return
		}
		writeJSON(w, resp)
	}
}

func (h *PublicHandlers) Game() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		gameLookupTotal.Add(1)
		resp, err := h.publicSvc.Game(r.Context(), chi.URLParam(r, "game_id"))
		if err != nil {
			switch {
			case errors.Is(err, apppublic.ErrInvalidRequest):
				WriteHTTPError(w, http.StatusBadRequest, "invalid_request")
			case errors.Is(err, apppublic.ErrGameNotFound):
				gameLookupMisses.Add(1)
				WriteHTTPError(w, http.StatusNotFound, "game_not_found")
			default:
				WriteHTTPError(w, http.StatusInternalServerError, "internal_error")
			}
			return
		}
		writeJSON(w, resp)
	}
}

func (h *PublicHandlers) CompletedGames() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp, err := h.publicSvc.CompletedGames(r.Context())
		if err != nil {
			WriteHTTPError(w, http.StatusInternalServerError, "internal_error")
			return
		}
		writeJSON(w, resp)
	}
}

func (h *PublicHandlers) Stats() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, h.publicSvc.Stats())
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
