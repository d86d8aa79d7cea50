package jobs_test

import (
	"testing"

	"github.com/inschoolz/engine/internal/domain"
	"github.com/inschoolz/engine/internal/infra/sqlite"
	"github.com/inschoolz/engine/internal/jobs"
)

func testDB(t *testing.T) *sqlite.DB {
	t.Helper()
	db, err := sqlite.Open(t.TempDir())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSnapshot(t *testing.T) {
	db := testDB(t)
	for _, u := range []domain.UserRecord{
		{ID: "a", TotalExperience: 100},
		{ID: "b", TotalExperience: 300},
		{ID: "c", TotalExperience: 200},
	} {
		if err := db.UpsertUser(u); err != nil {
			t.Fatal(err)
		}
	}

	s := jobs.NewScheduler(db, nil, 2)
	if err := s.Snapshot(); err != nil {
		t.Fatalf("snapshot: %v", err)
	}

	snaps, err := db.RecentSnapshots(domain.ScopeGlobal, "", 10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	// Size 2 keeps only the top two.
	if len(snaps) != 2 {
		t.Fatalf("len = %d, want 2", len(snaps))
	}
	for _, snap := range snaps {
		switch snap.UserID {
		case "b":
			if snap.Rank != 1 {
				t.Errorf("b rank = %d, want 1", snap.Rank)
			}
		case "c":
			if snap.Rank != 2 {
				t.Errorf("c rank = %d, want 2", snap.Rank)
			}
		default:
			t.Errorf("unexpected user %s in snapshot", snap.UserID)
		}
	}
}

func TestSnapshot_EmptyStore(t *testing.T) {
	db := testDB(t)

	s := jobs.NewScheduler(db, nil, 100)
	if err := s.Snapshot(); err != nil {
		t.Fatalf("snapshot on empty store: %v", err)
	}
	snaps, _ := db.RecentSnapshots(domain.ScopeGlobal, "", 10)
	if len(snaps) != 0 {
		t.Errorf("snapshots = %d, want none", len(snaps))
	}
}
