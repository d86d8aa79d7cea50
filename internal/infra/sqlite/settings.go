package sqlite

import "database/sql"

const settingsKey = "system"

// ─── Settings Document ──────────────────────────────────────────────────────

// LoadSettingsDoc returns the raw settings document. found is false
// when no admin has ever saved one.
func (d *DB) LoadSettingsDoc() (data []byte, found bool, err error) {
	var value string
	err = d.db.QueryRow(
		`SELECT value FROM system_settings WHERE key = ?`, settingsKey,
	).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return []byte(value), true, nil
}

// SaveSettingsDoc stores the settings document. Callers are expected
// to invalidate the settings cache afterward.
func (d *DB) SaveSettingsDoc(data []byte) error {
	_, err := d.db.Exec(
		`INSERT INTO system_settings (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value=excluded.value`,
		settingsKey, string(data),
	)
	return err
}
