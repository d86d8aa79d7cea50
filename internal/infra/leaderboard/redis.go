// Package leaderboard mirrors user experience totals into Redis
// sorted sets, one per ranking scope, so top-N and rank lookups skip
// the SQL path. The mirror is best-effort: writes that fail are
// logged and dropped, and readers fall back to the store. Rebuilt
// nightly from the authoritative totals.
package leaderboard

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/inschoolz/engine/internal/domain"
)

// Cache is a Redis-backed leaderboard mirror.
type Cache struct {
	client *redis.Client
}

// New connects a leaderboard cache to the given Redis address.
func New(addr string) *Cache {
	return &Cache{
		client: redis.NewClient(&redis.Options{
			Addr:         addr,
			DialTimeout:  2 * time.Second,
			ReadTimeout:  2 * time.Second,
			WriteTimeout: 2 * time.Second,
		}),
	}
}

// Ping checks connectivity.
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close releases the client.
func (c *Cache) Close() error {
	return c.client.Close()
}

// boardKey maps a scope to its sorted-set key.
func boardKey(scope domain.RankScope, key string) string {
	switch scope {
	case domain.ScopeSchool:
		return "lb:school:" + key
	case domain.ScopeRegion:
		return "lb:region:" + key
	default:
		return "lb:global"
	}
}

// Update writes a user's total into every board the user belongs to.
func (c *Cache) Update(ctx context.Context, u domain.UserRecord) error {
	z := &redis.Z{Score: float64(u.TotalExperience), Member: u.ID}

	if err := c.client.ZAdd(ctx, boardKey(domain.ScopeGlobal, ""), z).Err(); err != nil {
		return fmt.Errorf("zadd global: %w", err)
	}
	if u.SchoolID != "" {
		if err := c.client.ZAdd(ctx, boardKey(domain.ScopeSchool, u.SchoolID), z).Err(); err != nil {
			return fmt.Errorf("zadd school: %w", err)
		}
	}
	if u.RegionID != "" {
		if err := c.client.ZAdd(ctx, boardKey(domain.ScopeRegion, u.RegionID), z).Err(); err != nil {
			return fmt.Errorf("zadd region: %w", err)
		}
	}
	return nil
}

// TopIDs returns up to n member ids ordered by experience descending.
func (c *Cache) TopIDs(ctx context.Context, scope domain.RankScope, key string, n int) ([]string, error) {
	return c.client.ZRevRange(ctx, boardKey(scope, key), 0, int64(n-1)).Result()
}

// Rank returns a user's 1-based rank within a scope. found is false
// when the user is not on the board.
func (c *Cache) Rank(ctx context.Context, scope domain.RankScope, key, userID string) (rank int, found bool, err error) {
	r, err := c.client.ZRevRank(ctx, boardKey(scope, key), userID).Result()
	if err == redis.Nil {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return int(r) + 1, true, nil
}

// Rebuild replaces every board with the given authoritative records.
func (c *Cache) Rebuild(ctx context.Context, users []domain.UserRecord) error {
	// Collect members per board, then swap each board wholesale.
	boards := make(map[string][]*redis.Z)
	for _, u := range users {
		z := &redis.Z{Score: float64(u.TotalExperience), Member: u.ID}
		boards[boardKey(domain.ScopeGlobal, "")] = append(boards[boardKey(domain.ScopeGlobal, "")], z)
		if u.SchoolID != "" {
			k := boardKey(domain.ScopeSchool, u.SchoolID)
			boards[k] = append(boards[k], z)
		}
		if u.RegionID != "" {
			k := boardKey(domain.ScopeRegion, u.RegionID)
			boards[k] = append(boards[k], z)
		}
	}

	for k, members := range boards {
		pipe := c.client.TxPipeline()
		pipe.Del(ctx, k)
		pipe.ZAdd(ctx, k, members...)
		if _, err := pipe.Exec(ctx); err != nil {
			return fmt.Errorf("rebuild %s: %w", k, err)
		}
	}
	return nil
}
