package domain

import "errors"

// ─── Sentinel Errors ────────────────────────────────────────────────────────
// Expected user-facing outcomes (daily cap reached, score below
// threshold) are NOT errors; they travel as structured results.

var (
	// User documents
	ErrUserNotFound = errors.New("user not found")

	// Rankings
	ErrInvalidScope = errors.New("invalid ranking scope")
)
