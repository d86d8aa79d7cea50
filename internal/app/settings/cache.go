// Package settings holds the process-wide cache of the admin-tuned
// reward and limit parameters. Settings change rarely but are read on
// every reward-granting action, so the resolved document is cached
// for the process lifetime and dropped explicitly whenever an admin
// saves, or by the award engine right before it reads.
package settings

import (
	"encoding/json"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/inschoolz/engine/internal/domain"
	"github.com/inschoolz/engine/internal/infra/metrics"
)

// Loader fetches the raw settings document from the store. found is
// false when no document has ever been saved. Satisfied by
// *sqlite.DB; tests substitute fakes to assert invalidation timing.
type Loader interface {
	LoadSettingsDoc() (data []byte, found bool, err error)
}

// Cache is the explicit settings cache: Get returns the cached value
// verbatim until Invalidate drops it.
type Cache struct {
	mu     sync.RWMutex
	loader Loader
	cached *domain.SystemSettings
}

// NewCache creates a settings cache over the given loader.
func NewCache(loader Loader) *Cache {
	return &Cache{loader: loader}
}

// Get returns the current settings. A cached value is returned as-is,
// even if stale; callers needing freshness must Invalidate first.
// Resolution never fails: every field decodes on top of its hardcoded
// default, and a missing or unreadable document yields all defaults.
func (c *Cache) Get() domain.SystemSettings {
	c.mu.RLock()
	if c.cached != nil {
		s := *c.cached
		c.mu.RUnlock()
		return s
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cached != nil {
		return *c.cached
	}

	resolved := c.resolve()
	c.cached = &resolved
	return resolved
}

// Invalidate drops the cached value; the next Get re-fetches.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.cached = nil
	c.mu.Unlock()
}

// resolve loads and decodes the settings document over the defaults.
// Never blocks reward-granting: any failure falls back to defaults.
func (c *Cache) resolve() domain.SystemSettings {
	metrics.SettingsReloads.Inc()
	s := domain.DefaultSettings()

	data, found, err := c.loader.LoadSettingsDoc()
	if err != nil {
		log.WithError(err).Warn("settings load failed, using defaults")
		return s
	}
	if !found {
		return s
	}

	// Decoding on top of the defaults gives every absent field its
	// fallback. Game entries replace wholesale.
	if err := json.Unmarshal(data, &s); err != nil {
		log.WithError(err).Warn("settings document malformed, using defaults")
		return domain.DefaultSettings()
	}
	if s.Games == nil {
		s.Games = domain.DefaultSettings().Games
	}
	return s
}
