package repo

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"go-gin-graphql-users/internal/core/cache"
	"go-gin-graphql-users/internal/domain"
)

const keyAllUsers = "users:all"

func keyUser(id int64) string { return fmt.Sprintf("users:id:%d", id) }

// CachedUserRepo puts a read-through cache in front of another
// UserRepository. Every write drops the list key and the row's key.
type CachedUserRepo struct {
	next  domain.UserRepository
	cache *cache.Cache
	ttl   time.Duration
	log   *zap.Logger
}

var _ domain.UserRepository = (*CachedUserRepo)(nil)

func NewCachedUserRepo(next domain.UserRepository, c *cache.Cache, ttl time.Duration, l *zap.Logger) *CachedUserRepo {
	if l == nil {
		l = zap.NewNop()
	}
	return &CachedUserRepo{next: next, cache: c, ttl: ttl, log: l.Named("repo.user.cache")}
}

func (r *CachedUserRepo) List(ctx context.Context) ([]domain.User, error) {
	users, err := cache.GetOrLoadJSON(ctx, r.cache, keyAllUsers, r.ttl, func(ctx context.Context) (*[]domain.User, error) {
		us, err := r.next.List(ctx)
		if err != nil {
			return nil, err
		}
		return &us, nil
	})
	if err != nil {
		return nil, err
	}
	if users == nil {
		return []domain.User{}, nil
	}
	return *users, nil
}

func (r *CachedUserRepo) FindByID(ctx context.Context, id int64) (*domain.User, error) {
	return cache.GetOrLoadJSON(ctx, r.cache, keyUser(id), r.ttl, func(ctx context.Context) (*domain.User, error) {
		return r.next.FindByID(ctx, id)
	})
}

func (r *CachedUserRepo) Create(ctx context.Context, u *domain.User) error {
	if err := r.next.Create(ctx, u); err != nil {
		return err
	}
	// 新 id 可能已被缓存为 null
	r.invalidate(ctx, keyAllUsers, keyUser(u.UserID))
	return nil
}

func (r *CachedUserRepo) Update(ctx context.Context, u *domain.User) error {
	if err := r.next.Update(ctx, u); err != nil {
		return err
	}
	r.invalidate(ctx, keyAllUsers, keyUser(u.UserID))
	return nil
}

func (r *CachedUserRepo) Delete(ctx context.Context, id int64) error {
	if err := r.next.Delete(ctx, id); err != nil {
		return err
	}
	r.invalidate(ctx, keyAllUsers, keyUser(id))
	return nil
}

func (r *CachedUserRepo) invalidate(ctx context.Context, keys ...string) {
	if err := r.cache.Invalidate(ctx, keys...); err != nil {
		r.log.Warn("cache invalidate failed", zap.Strings("keys", keys), zap.Error(err))
	}
}
