package experience_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/inschoolz/engine/internal/app/experience"
	"github.com/inschoolz/engine/internal/app/level"
	"github.com/inschoolz/engine/internal/app/limits"
	"github.com/inschoolz/engine/internal/app/settings"
	"github.com/inschoolz/engine/internal/domain"
	"github.com/inschoolz/engine/internal/infra/sqlite"
)

func newEngine(t *testing.T) (*experience.Engine, *sqlite.DB) {
	t.Helper()
	db, err := sqlite.Open(t.TempDir())
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	sc := settings.NewCache(db)
	tr := limits.NewTracker(db, sc)
	return experience.NewEngine(db, sc, tr), db
}

func seedUser(t *testing.T, db *sqlite.DB, id string, total int64) {
	t.Helper()
	p := level.ProgressFor(total)
	err := db.UpsertUser(domain.UserRecord{
		ID:                     id,
		DisplayName:            "user " + id,
		TotalExperience:        total,
		Level:                  p.Level,
		CurrentExp:             p.CurrentExp,
		CurrentLevelRequiredXP: p.CurrentLevelRequiredXP,
	})
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}
}

func TestAward_Post(t *testing.T) {
	eng, db := newEngine(t)
	seedUser(t, db, "u1", 0)

	res, err := eng.Award(context.Background(), "u1", domain.ActivityPost, experience.AwardOptions{})
	if err != nil {
		t.Fatalf("award: %v", err)
	}
	if !res.Success {
		t.Fatalf("expected success, got reason %q", res.Reason)
	}
	if res.ExpAwarded != 10 {
		t.Errorf("ExpAwarded = %d, want 10", res.ExpAwarded)
	}

	u, err := db.GetUser("u1")
	if err != nil || u == nil {
		t.Fatalf("get user: %v %v", u, err)
	}
	if u.TotalExperience != 10 {
		t.Errorf("TotalExperience = %d, want 10", u.TotalExperience)
	}

	// The award and its ledger entry commit together.
	hist, err := db.HistoryFor("u1", 10)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(hist) != 1 || hist[0].Activity != domain.ActivityPost || hist[0].Amount != 10 {
		t.Errorf("history = %+v, want one post entry of 10", hist)
	}
}

func TestAward_DailyLimitDenies(t *testing.T) {
	eng, db := newEngine(t)
	seedUser(t, db, "u1", 0)
	ctx := context.Background()

	// Default post cap is 3.
	for i := 0; i < 3; i++ {
		res, err := eng.Award(ctx, "u1", domain.ActivityPost, experience.AwardOptions{})
		if err != nil {
			t.Fatalf("award %d: %v", i, err)
		}
		if !res.Success {
			t.Fatalf("award %d denied: %q", i, res.Reason)
		}
	}

	res, err := eng.Award(ctx, "u1", domain.ActivityPost, experience.AwardOptions{})
	if err != nil {
		t.Fatalf("fourth award: %v", err)
	}
	if res.Success {
		t.Fatal("fourth post should be denied")
	}
	if !strings.Contains(res.Reason, "3/3") {
		t.Errorf("Reason = %q, want it to mention 3/3", res.Reason)
	}

	// A denial never touches the total.
	u, _ := db.GetUser("u1")
	if u.TotalExperience != 30 {
		t.Errorf("TotalExperience = %d, want 30", u.TotalExperience)
	}
}

func TestAward_LikesAreUncapped(t *testing.T) {
	eng, db := newEngine(t)
	seedUser(t, db, "u1", 0)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		res, err := eng.Award(ctx, "u1", domain.ActivityLike, experience.AwardOptions{})
		if err != nil {
			t.Fatalf("like %d: %v", i, err)
		}
		if !res.Success || res.ExpAwarded != 1 {
			t.Fatalf("like %d: %+v", i, res)
		}
	}

	u, _ := db.GetUser("u1")
	if u.TotalExperience != 10 {
		t.Errorf("TotalExperience = %d, want 10", u.TotalExperience)
	}
}

func TestAward_LevelUp(t *testing.T) {
	eng, db := newEngine(t)
	seedUser(t, db, "u1", 0)

	// 30 XP crosses the 10 XP and 30 XP cumulative boundaries.
	res, err := eng.Award(context.Background(), "u1", domain.ActivityReferral, experience.AwardOptions{})
	if err != nil {
		t.Fatalf("award: %v", err)
	}
	if !res.LeveledUp {
		t.Fatal("expected a level-up")
	}
	if res.OldLevel != 1 || res.NewLevel != 3 {
		t.Errorf("levels = %d -> %d, want 1 -> 3", res.OldLevel, res.NewLevel)
	}

	u, _ := db.GetUser("u1")
	if u.Level != 3 || u.CurrentExp != 0 || u.CurrentLevelRequiredXP != 30 {
		t.Errorf("derived fields = %+v", u)
	}
}

func TestAward_AttendanceAmountOverride(t *testing.T) {
	eng, db := newEngine(t)
	seedUser(t, db, "u1", 0)
	ctx := context.Background()

	res, err := eng.Award(ctx, "u1", domain.ActivityAttendance, experience.AwardOptions{Amount: 20})
	if err != nil {
		t.Fatalf("award: %v", err)
	}
	if res.ExpAwarded != 20 {
		t.Errorf("ExpAwarded = %d, want the 20 override", res.ExpAwarded)
	}

	res, err = eng.Award(ctx, "u1", domain.ActivityAttendance, experience.AwardOptions{})
	if err != nil {
		t.Fatalf("award: %v", err)
	}
	if res.ExpAwarded != 5 {
		t.Errorf("ExpAwarded = %d, want the configured 5", res.ExpAwarded)
	}
}

func TestAward_GameThresholds(t *testing.T) {
	eng, db := newEngine(t)
	seedUser(t, db, "u1", 0)
	ctx := context.Background()

	cases := []struct {
		game  domain.GameType
		score int
		want  int64
	}{
		// Reaction times are ceilings: faster clears a stricter bound.
		{domain.GameReaction, 90, 15},
		{domain.GameReaction, 150, 10},
		{domain.GameReaction, 250, 5},
		// Tile move counts are floors searched downward.
		{domain.GameTile, 14, 5},
		{domain.GameTile, 11, 10},
		// Flappy pays flat.
		{domain.GameFlappy, 1, 5},
	}
	for _, tc := range cases {
		res, err := eng.Award(ctx, "u1", domain.ActivityGame, experience.AwardOptions{
			GameType:  tc.game,
			GameScore: tc.score,
		})
		if err != nil {
			t.Fatalf("%s score %d: %v", tc.game, tc.score, err)
		}
		if !res.Success || res.ExpAwarded != tc.want {
			t.Errorf("%s score %d: got %+v, want %d XP", tc.game, tc.score, res, tc.want)
		}
	}
}

func TestAward_GameBelowThreshold(t *testing.T) {
	eng, db := newEngine(t)
	seedUser(t, db, "u1", 0)

	res, err := eng.Award(context.Background(), "u1", domain.ActivityGame, experience.AwardOptions{
		GameType:  domain.GameReaction,
		GameScore: 500, // slower than every ceiling
	})
	if err != nil {
		t.Fatalf("award: %v", err)
	}
	if res.Success || res.Reason != "score below threshold" {
		t.Errorf("got %+v, want below-threshold denial", res)
	}
}

func TestAward_GameTypeRequired(t *testing.T) {
	eng, db := newEngine(t)
	seedUser(t, db, "u1", 0)

	res, err := eng.Award(context.Background(), "u1", domain.ActivityGame, experience.AwardOptions{GameScore: 100})
	if err != nil {
		t.Fatalf("award: %v", err)
	}
	if res.Success || res.Reason != "game type required" {
		t.Errorf("got %+v, want a game-type-required denial", res)
	}
}

func TestAward_GenericActivityPaysVerbatim(t *testing.T) {
	eng, db := newEngine(t)
	seedUser(t, db, "u1", 0)

	res, err := eng.Award(context.Background(), "u1", domain.ActivityType("event"), experience.AwardOptions{Amount: 7})
	if err != nil {
		t.Fatalf("award: %v", err)
	}
	if !res.Success || res.ExpAwarded != 7 {
		t.Errorf("got %+v, want 7 XP", res)
	}
}

func TestAward_ZeroAmountDenied(t *testing.T) {
	eng, db := newEngine(t)
	seedUser(t, db, "u1", 0)

	res, err := eng.Award(context.Background(), "u1", domain.ActivityType("event"), experience.AwardOptions{})
	if err != nil {
		t.Fatalf("award: %v", err)
	}
	if res.Success || res.Reason != "no experience to award" {
		t.Errorf("got %+v, want a zero-amount denial", res)
	}
}

func TestAward_UnknownUser(t *testing.T) {
	eng, _ := newEngine(t)

	_, err := eng.Award(context.Background(), "ghost", domain.ActivityPost, experience.AwardOptions{})
	if !errors.Is(err, domain.ErrUserNotFound) {
		t.Errorf("err = %v, want ErrUserNotFound", err)
	}
}

func TestGrantGameReward_SkipsPlayCounter(t *testing.T) {
	eng, db := newEngine(t)
	seedUser(t, db, "u1", 0)

	res, err := eng.GrantGameReward(context.Background(), "u1", domain.GameReaction, 15)
	if err != nil {
		t.Fatalf("grant: %v", err)
	}
	if !res.Success || res.ExpAwarded != 15 {
		t.Fatalf("got %+v", res)
	}

	// The adapter owns the play counter; a bare grant must not bump it.
	lim, err := db.GetActivityLimits("u1")
	if err != nil {
		t.Fatalf("limits: %v", err)
	}
	if lim != nil && lim.GamesTotal() != 0 {
		t.Errorf("games counter = %d, want 0", lim.GamesTotal())
	}
}

func TestProgress(t *testing.T) {
	eng, db := newEngine(t)
	seedUser(t, db, "u1", 25)

	u, p, err := eng.Progress("u1")
	if err != nil {
		t.Fatalf("progress: %v", err)
	}
	if u.ID != "u1" || p.Level != 2 || p.CurrentExp != 15 || p.ExpToNextLevel != 5 {
		t.Errorf("got user %+v progress %+v", u, p)
	}

	if _, _, err := eng.Progress("ghost"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Errorf("err = %v, want ErrUserNotFound", err)
	}
}

func TestHistory_NewestFirst(t *testing.T) {
	eng, db := newEngine(t)
	seedUser(t, db, "u1", 0)
	ctx := context.Background()

	// Advance the clock a second per award so the ledger order is
	// deterministic.
	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	eng.SetClock(func() time.Time {
		at = at.Add(time.Second)
		return at
	})

	if _, err := eng.Award(ctx, "u1", domain.ActivityPost, experience.AwardOptions{}); err != nil {
		t.Fatal(err)
	}
	if _, err := eng.Award(ctx, "u1", domain.ActivityComment, experience.AwardOptions{}); err != nil {
		t.Fatal(err)
	}

	hist, err := eng.History("u1", 0)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(hist) != 2 {
		t.Fatalf("len = %d, want 2", len(hist))
	}
	if hist[0].Activity != domain.ActivityComment || hist[1].Activity != domain.ActivityPost {
		t.Errorf("order = %s, %s; want newest first", hist[0].Activity, hist[1].Activity)
	}
}
