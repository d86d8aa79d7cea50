package sqlite

import (
	"database/sql"
	"time"

	"github.com/inschoolz/engine/internal/domain"
)

// ─── User Repository ────────────────────────────────────────────────────────

// UpsertUser inserts or updates a full user record.
func (d *DB) UpsertUser(u domain.UserRecord) error {
	_, err := d.db.Exec(
		`INSERT INTO users (id, display_name, school_id, school_name, region_id, region_name,
			profile_image_url, total_experience, level, current_exp, current_level_required_xp, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			display_name=excluded.display_name,
			school_id=excluded.school_id,
			school_name=excluded.school_name,
			region_id=excluded.region_id,
			region_name=excluded.region_name,
			profile_image_url=excluded.profile_image_url,
			total_experience=excluded.total_experience,
			level=excluded.level,
			current_exp=excluded.current_exp,
			current_level_required_xp=excluded.current_level_required_xp,
			updated_at=excluded.updated_at`,
		u.ID, u.DisplayName, u.SchoolID, u.SchoolName, u.RegionID, u.RegionName,
		u.ProfileImageURL, u.TotalExperience, u.Level, u.CurrentExp,
		u.CurrentLevelRequiredXP, unixOrZero(u.UpdatedAt),
	)
	return err
}

// GetUser retrieves a single user by id. Returns (nil, nil) when the
// user document does not exist.
func (d *DB) GetUser(id string) (*domain.UserRecord, error) {
	row := d.db.QueryRow(
		`SELECT id, display_name, school_id, school_name, region_id, region_name,
			profile_image_url, total_experience, level, current_exp, current_level_required_xp, updated_at
		 FROM users WHERE id = ?`, id,
	)
	return scanUser(row)
}

// applyExperiencePatch updates exactly the experience-derived fields
// named by the patch, leaving every other column untouched.
func applyExperiencePatch(e execer, id string, p domain.ExperiencePatch) error {
	result, err := e.Exec(
		`UPDATE users SET total_experience = ?, level = ?, current_exp = ?,
			current_level_required_xp = ?, updated_at = ?
		 WHERE id = ?`,
		p.TotalExperience, p.Level, p.CurrentExp, p.CurrentLevelRequiredXP,
		unixOrZero(p.UpdatedAt), id,
	)
	if err != nil {
		return err
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// CounterBump names the single daily counter an award consumes.
type CounterBump struct {
	Category domain.LimitCategory
	Game     domain.GameType
}

// CommitAward persists one award atomically: the experience patch,
// the ledger entry, and (when the activity is capped) the daily
// counter bump all commit or none do.
func (d *DB) CommitAward(userID string, p domain.ExperiencePatch, entry domain.HistoryEntry, bump *CounterBump) error {
	tx, err := d.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := applyExperiencePatch(tx, userID, p); err != nil {
		return err
	}
	if err := insertHistory(tx, entry); err != nil {
		return err
	}
	if bump != nil {
		if err := incrementDailyCount(tx, userID, bump.Category, bump.Game); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func scanUser(s scanner) (*domain.UserRecord, error) {
	var u domain.UserRecord
	var updatedAt int64

	err := s.Scan(&u.ID, &u.DisplayName, &u.SchoolID, &u.SchoolName,
		&u.RegionID, &u.RegionName, &u.ProfileImageURL,
		&u.TotalExperience, &u.Level, &u.CurrentExp,
		&u.CurrentLevelRequiredXP, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil // Not found, no error
	}
	if err != nil {
		return nil, err
	}

	if updatedAt > 0 {
		u.UpdatedAt = time.Unix(updatedAt, 0)
	}
	return &u, nil
}
