package sqlite

import (
	"fmt"
	"time"

	"github.com/inschoolz/engine/internal/domain"
)

// ─── Ranking Queries ────────────────────────────────────────────────────────

// scopeFilter maps a ranking scope to its WHERE clause.
func scopeFilter(scope domain.RankScope, key string) (clause string, args []any, err error) {
	switch scope {
	case domain.ScopeGlobal:
		return "", nil, nil
	case domain.ScopeSchool:
		return " AND school_id = ?", []any{key}, nil
	case domain.ScopeRegion:
		return " AND region_id = ?", []any{key}, nil
	}
	return "", nil, fmt.Errorf("%w: %q", domain.ErrInvalidScope, scope)
}

// TopUsers returns up to limit users within a scope, ordered by
// total experience descending (ties broken by id for stable pages).
func (d *DB) TopUsers(scope domain.RankScope, key string, limit int) ([]domain.UserRecord, error) {
	clause, args, err := scopeFilter(scope, key)
	if err != nil {
		return nil, err
	}

	query := `SELECT id, display_name, school_id, school_name, region_id, region_name,
			profile_image_url, total_experience, level, current_exp, current_level_required_xp, updated_at
		 FROM users WHERE 1=1` + clause + ` ORDER BY total_experience DESC, id ASC LIMIT ?`
	args = append(args, limit)

	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []domain.UserRecord
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

// CountUsersAbove counts users in scope with strictly greater total
// experience. A user's rank is this count plus one.
func (d *DB) CountUsersAbove(scope domain.RankScope, key string, totalExperience int64) (int, error) {
	clause, args, err := scopeFilter(scope, key)
	if err != nil {
		return 0, err
	}

	query := `SELECT COUNT(*) FROM users WHERE total_experience > ?` + clause
	args = append([]any{totalExperience}, args...)

	var count int
	if err := d.db.QueryRow(query, args...).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// ─── Leaderboard Snapshots ──────────────────────────────────────────────────

// InsertRankSnapshots batch-inserts one nightly capture.
func (d *DB) InsertRankSnapshots(snaps []domain.RankSnapshot) error {
	if len(snaps) == 0 {
		return nil
	}

	tx, err := d.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(
		`INSERT INTO leaderboard_snapshots (scope, scope_key, user_id, position, total_experience, snapped_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, s := range snaps {
		if _, err := stmt.Exec(string(s.Scope), s.ScopeKey, s.UserID, s.Rank,
			s.TotalExperience, s.SnappedAt.Unix()); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// RecentSnapshots returns the latest snapshot rows for a scope,
// newest capture first.
func (d *DB) RecentSnapshots(scope domain.RankScope, key string, limit int) ([]domain.RankSnapshot, error) {
	rows, err := d.db.Query(
		`SELECT id, scope, scope_key, user_id, position, total_experience, snapped_at
		 FROM leaderboard_snapshots WHERE scope = ? AND scope_key = ?
		 ORDER BY snapped_at DESC, position ASC LIMIT ?`,
		string(scope), key, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var snaps []domain.RankSnapshot
	for rows.Next() {
		var s domain.RankSnapshot
		var scopeStr string
		var snappedAt int64
		if err := rows.Scan(&s.ID, &scopeStr, &s.ScopeKey, &s.UserID, &s.Rank,
			&s.TotalExperience, &snappedAt); err != nil {
			return nil, err
		}
		s.Scope = domain.RankScope(scopeStr)
		s.SnappedAt = time.Unix(snappedAt, 0)
		snaps = append(snaps, s)
	}
	return snaps, rows.Err()
}
