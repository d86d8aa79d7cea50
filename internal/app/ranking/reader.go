// Package ranking reads leaderboards. Queries prefer the Redis
// mirror when one is attached and quietly fall back to the SQL
// totals, which stay authoritative either way.
package ranking

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/inschoolz/engine/internal/domain"
	"github.com/inschoolz/engine/internal/infra/leaderboard"
	"github.com/inschoolz/engine/internal/infra/sqlite"
)

const (
	defaultTopN = 20
	maxTopN     = 100
)

// Reader answers leaderboard queries.
type Reader struct {
	db     *sqlite.DB
	boards *leaderboard.Cache // optional, may be nil
}

// NewReader creates a leaderboard reader.
func NewReader(db *sqlite.DB) *Reader {
	return &Reader{db: db}
}

// SetBoards attaches the optional Redis mirror.
func (r *Reader) SetBoards(b *leaderboard.Cache) { r.boards = b }

// Top returns the scope's leaderboard, ranks assigned by position.
// key is the school or region id for the scoped boards and ignored
// for the global one.
func (r *Reader) Top(ctx context.Context, scope domain.RankScope, key string, limit int) ([]domain.RankedUser, error) {
	if !scope.IsValid() {
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidScope, scope)
	}
	if scope != domain.ScopeGlobal && key == "" {
		return nil, fmt.Errorf("%w: %s scope needs a key", domain.ErrInvalidScope, scope)
	}
	if limit <= 0 || limit > maxTopN {
		limit = defaultTopN
	}

	if r.boards != nil {
		ranked, err := r.topFromMirror(ctx, scope, key, limit)
		if err == nil && len(ranked) > 0 {
			return ranked, nil
		}
		if err != nil {
			log.WithError(err).WithField("scope", scope).
				Warn("leaderboard mirror read failed, using store")
		}
	}

	users, err := r.db.TopUsers(scope, key, limit)
	if err != nil {
		return nil, fmt.Errorf("top users: %w", err)
	}
	return rankByPosition(users), nil
}

// RankOf returns a user's 1-based rank within a scope. The school and
// region keys come from the user's own record; asking for a scoped
// rank the user does not belong to is an ErrInvalidScope.
func (r *Reader) RankOf(ctx context.Context, scope domain.RankScope, userID string) (int, error) {
	if !scope.IsValid() {
		return 0, fmt.Errorf("%w: %s", domain.ErrInvalidScope, scope)
	}

	u, err := r.db.GetUser(userID)
	if err != nil {
		return 0, fmt.Errorf("load user: %w", err)
	}
	if u == nil {
		return 0, fmt.Errorf("%w: %s", domain.ErrUserNotFound, userID)
	}

	key := ""
	switch scope {
	case domain.ScopeSchool:
		if u.SchoolID == "" {
			return 0, fmt.Errorf("%w: user %s has no school", domain.ErrInvalidScope, userID)
		}
		key = u.SchoolID
	case domain.ScopeRegion:
		if u.RegionID == "" {
			return 0, fmt.Errorf("%w: user %s has no region", domain.ErrInvalidScope, userID)
		}
		key = u.RegionID
	}

	if r.boards != nil {
		rank, found, err := r.boards.Rank(ctx, scope, key, userID)
		if err == nil && found {
			return rank, nil
		}
		if err != nil {
			log.WithError(err).WithField("user", userID).
				Warn("leaderboard mirror rank failed, using store")
		}
	}

	above, err := r.db.CountUsersAbove(scope, key, u.TotalExperience)
	if err != nil {
		return 0, fmt.Errorf("count users above: %w", err)
	}
	return above + 1, nil
}

// topFromMirror reads ids from the Redis board and hydrates them from
// the store. Ids the store no longer knows are skipped.
func (r *Reader) topFromMirror(ctx context.Context, scope domain.RankScope, key string, limit int) ([]domain.RankedUser, error) {
	ids, err := r.boards.TopIDs(ctx, scope, key, limit)
	if err != nil {
		return nil, err
	}

	var users []domain.UserRecord
	for _, id := range ids {
		u, err := r.db.GetUser(id)
		if err != nil {
			return nil, err
		}
		if u == nil {
			continue
		}
		users = append(users, *u)
	}
	return rankByPosition(users), nil
}

func rankByPosition(users []domain.UserRecord) []domain.RankedUser {
	ranked := make([]domain.RankedUser, 0, len(users))
	for i, u := range users {
		ranked = append(ranked, domain.RankedUser{
			Rank:            i + 1,
			UserID:          u.ID,
			DisplayName:     u.DisplayName,
			Level:           u.Level,
			TotalExperience: u.TotalExperience,
			SchoolName:      u.SchoolName,
			ProfileImageURL: u.ProfileImageURL,
		})
	}
	return ranked
}
