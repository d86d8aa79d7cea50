package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/inschoolz/engine/internal/app/experience"
	"github.com/inschoolz/engine/internal/app/games"
	"github.com/inschoolz/engine/internal/app/limits"
	"github.com/inschoolz/engine/internal/app/ranking"
	"github.com/inschoolz/engine/internal/app/settings"
	"github.com/inschoolz/engine/internal/domain"
	"github.com/inschoolz/engine/internal/infra/sqlite"
)

func testServer(t *testing.T) (*Server, *sqlite.DB) {
	t.Helper()
	db, err := sqlite.Open(t.TempDir())
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	sc := settings.NewCache(db)
	tr := limits.NewTracker(db, sc)
	eng := experience.NewEngine(db, sc, tr)
	ga := games.NewAdapter(db, sc, tr, eng)
	rd := ranking.NewReader(db)
	return NewServer(eng, ga, tr, rd, sc, db), db
}

func seedUser(t *testing.T, db *sqlite.DB, id string, total int64) {
	t.Helper()
	err := db.UpsertUser(domain.UserRecord{
		ID:              id,
		DisplayName:     "user " + id,
		SchoolID:        "s1",
		RegionID:        "r1",
		TotalExperience: total,
		Level:           1,
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
}

func doJSON(t *testing.T, h http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	s, _ := testServer(t)
	rec := doJSON(t, s.Handler(), http.MethodGet, "/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestProgressEndpoint(t *testing.T) {
	s, db := testServer(t)
	seedUser(t, db, "u1", 25)
	h := s.Handler()

	rec := doJSON(t, h, http.MethodGet, "/api/users/u1/progress", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	var resp struct {
		Progress struct {
			Level      int   `json:"level"`
			CurrentExp int64 `json:"current_exp"`
		} `json:"progress"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Progress.Level != 2 || resp.Progress.CurrentExp != 15 {
		t.Errorf("progress = %+v", resp.Progress)
	}

	rec = doJSON(t, h, http.MethodGet, "/api/users/ghost/progress", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing user status = %d", rec.Code)
	}
}

func TestAwardEndpoint(t *testing.T) {
	s, db := testServer(t)
	seedUser(t, db, "u1", 0)
	h := s.Handler()

	rec := doJSON(t, h, http.MethodPost, "/api/experience/award", awardRequest{
		UserID:   "u1",
		Activity: domain.ActivityPost,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	var res domain.AwardResult
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatal(err)
	}
	if !res.Success || res.ExpAwarded != 10 {
		t.Errorf("result = %+v", res)
	}

	// Missing fields are a 400.
	rec = doJSON(t, h, http.MethodPost, "/api/experience/award", awardRequest{Activity: domain.ActivityPost})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestAwardEndpoint_DenialIsHTTP200(t *testing.T) {
	s, db := testServer(t)
	seedUser(t, db, "u1", 0)
	h := s.Handler()

	for i := 0; i < 3; i++ {
		doJSON(t, h, http.MethodPost, "/api/experience/award", awardRequest{UserID: "u1", Activity: domain.ActivityPost})
	}
	rec := doJSON(t, h, http.MethodPost, "/api/experience/award", awardRequest{UserID: "u1", Activity: domain.ActivityPost})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, denials ride a 200", rec.Code)
	}
	var res domain.AwardResult
	json.Unmarshal(rec.Body.Bytes(), &res)
	if res.Success || res.Reason == "" {
		t.Errorf("result = %+v, want a denial with a reason", res)
	}
}

func TestGameScoreEndpoint(t *testing.T) {
	s, db := testServer(t)
	seedUser(t, db, "u1", 0)

	rec := doJSON(t, s.Handler(), http.MethodPost, "/api/games/score", gameScoreRequest{
		UserID: "u1",
		Game:   domain.GameReaction,
		Score:  150,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	var res domain.GameResult
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatal(err)
	}
	if !res.Success || res.ExpEarned != 10 || !res.NewBest {
		t.Errorf("result = %+v", res)
	}
}

func TestLimitsEndpoint(t *testing.T) {
	s, db := testServer(t)
	seedUser(t, db, "u1", 0)
	h := s.Handler()

	doJSON(t, h, http.MethodPost, "/api/experience/award", awardRequest{UserID: "u1", Activity: domain.ActivityPost})

	rec := doJSON(t, h, http.MethodGet, "/api/users/u1/limits", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	var resp struct {
		Limits map[string]domain.LimitStatus `json:"limits"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	posts := resp.Limits["posts"]
	if posts.CurrentCount != 1 || posts.Limit != 3 || !posts.CanEarnExp {
		t.Errorf("posts = %+v", posts)
	}
}

func TestRankingsEndpoint(t *testing.T) {
	s, db := testServer(t)
	seedUser(t, db, "a", 100)
	seedUser(t, db, "b", 300)
	h := s.Handler()

	rec := doJSON(t, h, http.MethodGet, "/api/rankings/global", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	var resp struct {
		Rankings []domain.RankedUser `json:"rankings"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Rankings) != 2 || resp.Rankings[0].UserID != "b" {
		t.Errorf("rankings = %+v", resp.Rankings)
	}

	rec = doJSON(t, h, http.MethodGet, "/api/rankings/planet", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad scope status = %d", rec.Code)
	}

	rec = doJSON(t, h, http.MethodGet, "/api/users/a/rank?scope=school", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("rank status = %d, body %s", rec.Code, rec.Body)
	}
	var rank struct {
		Rank int `json:"rank"`
	}
	json.Unmarshal(rec.Body.Bytes(), &rank)
	if rank.Rank != 2 {
		t.Errorf("rank = %d, want 2", rank.Rank)
	}
}

func TestAdminSettings(t *testing.T) {
	s, db := testServer(t)
	seedUser(t, db, "u1", 0)
	h := s.Handler()

	// Effective settings come back with defaults filled in.
	rec := doJSON(t, h, http.MethodGet, "/api/admin/settings", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var st domain.SystemSettings
	if err := json.Unmarshal(rec.Body.Bytes(), &st); err != nil {
		t.Fatal(err)
	}
	if st.Experience.PostReward != 10 {
		t.Errorf("PostReward = %d, want the default 10", st.Experience.PostReward)
	}

	// A partial update takes effect on the very next award.
	update := map[string]interface{}{
		"experience": map[string]interface{}{"post_reward": 20},
	}
	rec = doJSON(t, h, http.MethodPut, "/api/admin/settings", update)
	if rec.Code != http.StatusOK {
		t.Fatalf("put status = %d, body %s", rec.Code, rec.Body)
	}

	rec = doJSON(t, h, http.MethodPost, "/api/experience/award", awardRequest{UserID: "u1", Activity: domain.ActivityPost})
	var res domain.AwardResult
	json.Unmarshal(rec.Body.Bytes(), &res)
	if res.ExpAwarded != 20 {
		t.Errorf("ExpAwarded = %d, want the updated 20", res.ExpAwarded)
	}

	// Garbage is rejected.
	req := httptest.NewRequest(http.MethodPut, "/api/admin/settings", bytes.NewBufferString("not json"))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("garbage status = %d", rr.Code)
	}
}
