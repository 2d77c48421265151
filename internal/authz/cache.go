package authz

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/clubdesk/clubdesk/internal/content"
)

const settingsKeyPrefix = "authz:settings:"

// SettingsCache fronts a SettingsRepository with a Redis TTL cache. The
// permission engine reads a setting on every gated mutation, so misses are
// collapsed through singleflight. Redis failures degrade to direct repository
// reads; the cache is never a correctness boundary.
type SettingsCache struct {
	repo   SettingsRepository
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
	group  singleflight.Group
}

// NewSettingsCache constructs a SettingsCache.
func NewSettingsCache(repo SettingsRepository, client *redis.Client, ttl time.Duration, logger *slog.Logger) *SettingsCache {
	if logger == nil {
		logger = slog.Default()
	}
	return &SettingsCache{repo: repo, client: client, ttl: ttl, logger: logger}
}

// RequiresApproval implements SettingsSource.
func (c *SettingsCache) RequiresApproval(ctx context.Context, module content.Module, action content.Action) (bool, error) {
	s, err := c.get(ctx, module)
	if err != nil {
		return false, err
	}
	return s.Requires(action), nil
}

func (c *SettingsCache) get(ctx context.Context, module content.Module) (Setting, error) {
	if c.client != nil {
		raw, err := c.client.Get(ctx, settingsKeyPrefix+string(module)).Bytes()
		if err == nil {
			var s Setting
			if err := json.Unmarshal(raw, &s); err == nil {
				return s, nil
			}
		} else if err != redis.Nil {
			c.logger.Warn("settings cache read", slog.Any("error", err))
		}
	}
	v, err, _ := c.group.Do(string(module), func() (any, error) {
		s, err := c.repo.Get(ctx, module)
		if err != nil {
			return Setting{}, err
		}
		c.store(ctx, s)
		return s, nil
	})
	if err != nil {
		return Setting{}, err
	}
	return v.(Setting), nil
}

func (c *SettingsCache) store(ctx context.Context, s Setting) {
	if c.client == nil {
		return
	}
	raw, err := json.Marshal(s)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, settingsKeyPrefix+string(s.Module), raw, c.ttl).Err(); err != nil {
		c.logger.Warn("settings cache write", slog.Any("error", err))
	}
}

// Invalidate drops the cached entry for a module after an update.
func (c *SettingsCache) Invalidate(ctx context.Context, module content.Module) {
	if c.client == nil {
		return
	}
	if err := c.client.Del(ctx, settingsKeyPrefix+string(module)).Err(); err != nil {
		c.logger.Warn("settings cache invalidate", slog.Any("error", err))
	}
}

// WarmUp primes the cache for every known module.
func (c *SettingsCache) WarmUp(ctx context.Context) error {
	settings, err := c.repo.List(ctx)
	if err != nil {
		return err
	}
	for _, s := range settings {
		c.store(ctx, s)
	}
	return nil
}
