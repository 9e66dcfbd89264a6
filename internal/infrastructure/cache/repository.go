package cache

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"users-svc/internal/domain/user"
)

// CachedRepository serves FindByID from the cache and drops the entry on every
// write. Cache failures are logged and fall through to the store.
type CachedRepository struct {
	user.Repository
	cache  Store
	ttl    time.Duration
	logger *zap.Logger
	group  singleflight.Group
	// writes is bumped after every successful write and before its eviction.
	// A fill that saw it move may hold a pre-write row and is dropped.
	writes atomic.Uint64
}

func NewCachedRepository(next user.Repository, cache Store, ttl time.Duration, logger *zap.Logger) *CachedRepository {
	return &CachedRepository{
		Repository: next,
		cache:      cache,
		ttl:        ttl,
		logger:     logger,
	}
}

// Uncached reads straight from the store and still evicts on writes. Writers
// that build on the row they read must use it.
func (c *CachedRepository) Uncached() user.Repository { return uncached{c} }

type uncached struct{ *CachedRepository }

func (u uncached) FindByID(ctx context.Context, id user.UUID) (*user.User, error) {
	return u.Repository.FindByID(ctx, id)
}

func idKey(id user.UUID) string { return "users:id:" + id.String() }

func (c *CachedRepository) FindByID(ctx context.Context, id user.UUID) (*user.User, error) {
	key := idKey(id)

	var cached user.User
	hit, err := c.cache.Get(ctx, key, &cached)
	if err != nil {
		c.logger.Warn("cache get failed", zap.String("key", key), zap.Error(err))
	}
	if hit {
		return &cached, nil
	}

	// shared by every joined caller, so one caller's cancellation must not end it
	fillCtx := context.WithoutCancel(ctx)
	v, err, _ := c.group.Do(key, func() (any, error) {
		return c.fill(fillCtx, key, id)
	})
	if err != nil {
		return nil, err
	}
	u, _ := v.(*user.User)
	if u == nil {
		return nil, nil
	}
	out := *u
	return &out, nil
}

func (c *CachedRepository) fill(ctx context.Context, key string, id user.UUID) (*user.User, error) {
	seen := c.writes.Load()
	u, err := c.Repository.FindByID(ctx, id)
	if err != nil || u == nil {
		return u, err
	}
	if c.writes.Load() != seen {
		return u, nil
	}
	if err := c.cache.Set(ctx, key, u, c.ttl); err != nil {
		c.logger.Warn("cache set failed", zap.String("key", key), zap.Error(err))
		return u, nil
	}
	// a write that landed between the check and the Set
	if c.writes.Load() != seen {
		c.evict(ctx, id)
	}
	return u, nil
}

func (c *CachedRepository) Save(ctx context.Context, u user.User, passwordHash *string) (*user.User, error) {
	saved, err := c.Repository.Save(ctx, u, passwordHash)
	if err != nil {
		return nil, err
	}
	c.written(ctx, saved.ID)
	return saved, nil
}

func (c *CachedRepository) Deactivate(ctx context.Context, id user.UUID, at time.Time) (*user.User, error) {
	saved, err := c.Repository.Deactivate(ctx, id, at)
	if err != nil {
		return nil, err
	}
	c.written(ctx, id)
	return saved, nil
}

func (c *CachedRepository) Delete(ctx context.Context, id user.UUID) error {
	if err := c.Repository.Delete(ctx, id); err != nil {
		return err
	}
	c.written(ctx, id)
	return nil
}

func (c *CachedRepository) written(ctx context.Context, id user.UUID) {
	c.writes.Add(1)
	c.evict(ctx, id)
}

func (c *CachedRepository) evict(ctx context.Context, id user.UUID) {
	if err := c.cache.Del(ctx, idKey(id)); err != nil {
		c.logger.Warn("cache evict failed", zap.Stringer("user_id", id), zap.Error(err))
	}
}
