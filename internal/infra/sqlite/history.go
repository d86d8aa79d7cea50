package sqlite

import (
	"time"

	"github.com/inschoolz/engine/internal/domain"
)

// ─── Experience Ledger ──────────────────────────────────────────────────────

// insertHistory appends one ledger entry. Always runs inside the
// award transaction.
func insertHistory(e execer, entry domain.HistoryEntry) error {
	_, err := e.Exec(
		`INSERT INTO xp_history (id, user_id, activity, game_type, amount, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.UserID, string(entry.Activity), string(entry.GameType),
		entry.Amount, entry.CreatedAt.Unix(),
	)
	return err
}

// HistoryFor returns a user's most recent ledger entries, newest
// first.
func (d *DB) HistoryFor(userID string, limit int) ([]domain.HistoryEntry, error) {
	rows, err := d.db.Query(
		`SELECT id, user_id, activity, game_type, amount, created_at
		 FROM xp_history WHERE user_id = ? ORDER BY created_at DESC, id DESC LIMIT ?`,
		userID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []domain.HistoryEntry
	for rows.Next() {
		var e domain.HistoryEntry
		var activity, game string
		var createdAt int64
		if err := rows.Scan(&e.ID, &e.UserID, &activity, &game, &e.Amount, &createdAt); err != nil {
			return nil, err
		}
		e.Activity = domain.ActivityType(activity)
		e.GameType = domain.GameType(game)
		e.CreatedAt = time.Unix(createdAt, 0)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
