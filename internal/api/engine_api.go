package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/inschoolz/engine/internal/app/experience"
	"github.com/inschoolz/engine/internal/domain"
)

// ─── User Progress ──────────────────────────────────────────────────────────

func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")

	u, p, err := s.engine.Progress(userID)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"user":     u,
		"progress": p,
	})
}

// --- /api/users/{id}/history ---

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	entries, err := s.engine.History(userID, limit)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	if entries == nil {
		entries = []domain.HistoryEntry{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"user_id": userID,
		"entries": entries,
	})
}

// --- /api/users/{id}/limits ---

func (s *Server) handleLimits(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")

	out := make(map[string]domain.LimitStatus)
	for _, cat := range []domain.LimitCategory{domain.CategoryPosts, domain.CategoryComments} {
		st, err := s.limits.Check(userID, cat, "")
		if err != nil {
			writeEngineError(w, err)
			return
		}
		out[string(cat)] = st
	}
	for _, game := range domain.KnownGameTypes() {
		st, err := s.limits.Check(userID, domain.CategoryGames, game)
		if err != nil {
			writeEngineError(w, err)
			return
		}
		out[string(game)] = st
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"user_id": userID,
		"limits":  out,
	})
}

// ─── Awards ─────────────────────────────────────────────────────────────────

type awardRequest struct {
	UserID    string              `json:"user_id"`
	Activity  domain.ActivityType `json:"activity"`
	Amount    int64               `json:"amount,omitempty"`
	GameType  domain.GameType     `json:"game_type,omitempty"`
	GameScore int                 `json:"game_score,omitempty"`
}

func (s *Server) handleAward(w http.ResponseWriter, r *http.Request) {
	var req awardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.UserID == "" || req.Activity == "" {
		writeError(w, http.StatusBadRequest, "user_id and activity are required")
		return
	}

	res, err := s.engine.Award(r.Context(), req.UserID, req.Activity, experience.AwardOptions{
		Amount:    req.Amount,
		GameType:  req.GameType,
		GameScore: req.GameScore,
	})
	if err != nil {
		writeEngineError(w, err)
		return
	}

	// Denials are part of the contract, not HTTP errors.
	writeJSON(w, http.StatusOK, res)
}

// --- /api/games/score ---

type gameScoreRequest struct {
	UserID string          `json:"user_id"`
	Game   domain.GameType `json:"game"`
	Score  int             `json:"score"`
}

func (s *Server) handleGameScore(w http.ResponseWriter, r *http.Request) {
	var req gameScoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.UserID == "" || req.Game == "" {
		writeError(w, http.StatusBadRequest, "user_id and game are required")
		return
	}

	res, err := s.games.RecordScore(r.Context(), req.UserID, req.Game, req.Score)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, res)
}

// writeEngineError maps service errors onto HTTP statuses.
func writeEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrUserNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrInvalidScope):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}
