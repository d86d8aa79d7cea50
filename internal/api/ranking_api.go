package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/inschoolz/engine/internal/domain"
)

// ─── Rankings ───────────────────────────────────────────────────────────────

// --- /api/rankings/{scope} ---

func (s *Server) handleRankings(w http.ResponseWriter, r *http.Request) {
	scope := domain.RankScope(chi.URLParam(r, "scope"))
	key := r.URL.Query().Get("key")
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	ranked, err := s.rankings.Top(r.Context(), scope, key, limit)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	if ranked == nil {
		ranked = []domain.RankedUser{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"scope":    scope,
		"key":      key,
		"rankings": ranked,
	})
}

// --- /api/users/{id}/rank ---

func (s *Server) handleRank(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")
	scope := domain.RankScope(r.URL.Query().Get("scope"))
	if scope == "" {
		scope = domain.ScopeGlobal
	}

	rank, err := s.rankings.RankOf(r.Context(), scope, userID)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"user_id": userID,
		"scope":   scope,
		"rank":    rank,
	})
}

// --- /api/rankings/{scope}/snapshots ---

func (s *Server) handleSnapshots(w http.ResponseWriter, r *http.Request) {
	scope := domain.RankScope(chi.URLParam(r, "scope"))
	if !scope.IsValid() {
		writeError(w, http.StatusBadRequest, "unknown ranking scope")
		return
	}
	key := r.URL.Query().Get("key")
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	snaps, err := s.db.RecentSnapshots(scope, key, limit)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	if snaps == nil {
		snaps = []domain.RankSnapshot{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"scope":     scope,
		"key":       key,
		"snapshots": snaps,
	})
}
