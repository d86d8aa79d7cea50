package sqlite

import (
	"database/sql"
	"fmt"

	"github.com/inschoolz/engine/internal/domain"
)

// ─── Daily Activity Counters ────────────────────────────────────────────────

// GetActivityLimits loads a user's daily counters. Returns (nil, nil)
// when no row exists yet, i.e. the user has never earned capped XP.
func (d *DB) GetActivityLimits(userID string) (*domain.ActivityLimits, error) {
	var a domain.ActivityLimits
	err := d.db.QueryRow(
		`SELECT user_id, last_reset_date, posts, comments FROM activity_limits WHERE user_id = ?`,
		userID,
	).Scan(&a.UserID, &a.LastResetDate, &a.Posts, &a.Comments)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	rows, err := d.db.Query(
		`SELECT game_type, count FROM game_counts WHERE user_id = ?`, userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	a.GameCounts = make(map[domain.GameType]int)
	for rows.Next() {
		var game string
		var count int
		if err := rows.Scan(&game, &count); err != nil {
			return nil, err
		}
		a.GameCounts[domain.GameType(game)] = count
	}
	return &a, rows.Err()
}

// ResetDailyCounts stamps the reset date and zeroes every counter in
// one transaction. Idempotent: repeating it for the same day is a
// no-op in effect.
func (d *DB) ResetDailyCounts(userID, day string) error {
	tx, err := d.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO activity_limits (user_id, last_reset_date, posts, comments)
		 VALUES (?, ?, 0, 0)
		 ON CONFLICT(user_id) DO UPDATE SET
			last_reset_date=excluded.last_reset_date, posts=0, comments=0`,
		userID, day,
	)
	if err != nil {
		return fmt.Errorf("reset counters: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM game_counts WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("reset game counters: %w", err)
	}
	return tx.Commit()
}

// IncrementDailyCount bumps exactly one counter atomically. It does
// not check limits; callers gate first.
func (d *DB) IncrementDailyCount(userID string, cat domain.LimitCategory, game domain.GameType) error {
	return incrementDailyCount(d.db, userID, cat, game)
}

func incrementDailyCount(e execer, userID string, cat domain.LimitCategory, game domain.GameType) error {
	switch cat {
	case domain.CategoryPosts:
		_, err := e.Exec(
			`INSERT INTO activity_limits (user_id, posts) VALUES (?, 1)
			 ON CONFLICT(user_id) DO UPDATE SET posts = posts + 1`, userID)
		return err
	case domain.CategoryComments:
		_, err := e.Exec(
			`INSERT INTO activity_limits (user_id, comments) VALUES (?, 1)
			 ON CONFLICT(user_id) DO UPDATE SET comments = comments + 1`, userID)
		return err
	case domain.CategoryGames:
		if game == "" {
			return fmt.Errorf("game counter bump without a game type")
		}
		_, err := e.Exec(
			`INSERT INTO game_counts (user_id, game_type, count) VALUES (?, ?, 1)
			 ON CONFLICT(user_id, game_type) DO UPDATE SET count = count + 1`,
			userID, string(game))
		return err
	}
	return fmt.Errorf("unknown limit category %q", cat)
}

// ─── Personal Bests ─────────────────────────────────────────────────────────

// GetBestScore returns a user's recorded best metric for a game.
// The second return is false when no best has been recorded.
func (d *DB) GetBestScore(userID string, game domain.GameType) (int, bool, error) {
	var best int
	err := d.db.QueryRow(
		`SELECT best_score FROM game_stats WHERE user_id = ? AND game_type = ?`,
		userID, string(game),
	).Scan(&best)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return best, true, nil
}

// SetBestScore stores a new personal best.
func (d *DB) SetBestScore(userID string, game domain.GameType, score int, at int64) error {
	_, err := d.db.Exec(
		`INSERT INTO game_stats (user_id, game_type, best_score, updated_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(user_id, game_type) DO UPDATE SET
			best_score=excluded.best_score, updated_at=excluded.updated_at`,
		userID, string(game), score, at,
	)
	return err
}
