package repo_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"go-gin-graphql-users/internal/core/cache"
	"go-gin-graphql-users/internal/domain"
	"go-gin-graphql-users/internal/repo"
	"go-gin-graphql-users/internal/testutil"
)

type memKV struct {
	mu   sync.Mutex
	data map[string][]byte
}

func (m *memKV) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if b, ok := m.data[key]; ok {
		return b, nil
	}
	return nil, cache.ErrMiss
}

func (m *memKV) Set(_ context.Context, key string, val []byte, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = val
	return nil
}

func (m *memKV) Del(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}

// countingRepo counts reads that reach the underlying store.
type countingRepo struct {
	domain.UserRepository
	lists, finds int
}

func (c *countingRepo) List(ctx context.Context) ([]domain.User, error) {
	c.lists++
	return c.UserRepository.List(ctx)
}

func (c *countingRepo) FindByID(ctx context.Context, id int64) (*domain.User, error) {
	c.finds++
	return c.UserRepository.FindByID(ctx, id)
}

func newCached(t *testing.T) (*repo.CachedUserRepo, *countingRepo) {
	base := &countingRepo{UserRepository: testutil.NewUserRepo(t)}
	c := cache.New(&memKV{data: map[string][]byte{}})
	return repo.NewCachedUserRepo(base, c, time.Minute, zap.NewNop()), base
}

func TestCachedUserRepo_ReadsHitCache(t *testing.T) {
	r, base := newCached(t)
	ctx := context.Background()

	ada := newUser("Ada", "Lovelace", "admin")
	require.NoError(t, r.Create(ctx, ada))

	for i := 0; i < 3; i++ {
		got, err := r.FindByID(ctx, ada.UserID)
		require.NoError(t, err)
		require.Equal(t, ada, got)

		list, err := r.List(ctx)
		require.NoError(t, err)
		require.Equal(t, []domain.User{*ada}, list)
	}
	require.Equal(t, 1, base.finds)
	require.Equal(t, 1, base.lists)
}

func TestCachedUserRepo_WritesInvalidate(t *testing.T) {
	r, _ := newCached(t)
	ctx := context.Background()

	// 先把空结果缓存起来
	list, err := r.List(ctx)
	require.NoError(t, err)
	require.Empty(t, list)
	missing, err := r.FindByID(ctx, 1)
	require.NoError(t, err)
	require.Nil(t, missing)

	ada := newUser("Ada", "Lovelace", "admin")
	require.NoError(t, r.Create(ctx, ada))
	require.Equal(t, int64(1), ada.UserID)

	got, err := r.FindByID(ctx, ada.UserID)
	require.NoError(t, err)
	require.Equal(t, ada, got)
	list, err = r.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)

	require.NoError(t, r.Update(ctx, &domain.User{UserID: ada.UserID, FirstName: testutil.Ptr("A.")}))
	got, err = r.FindByID(ctx, ada.UserID)
	require.NoError(t, err)
	require.Equal(t, "A.", *got.FirstName)
	require.Nil(t, got.LastName)
	require.Nil(t, got.Role)

	require.NoError(t, r.Delete(ctx, ada.UserID))
	got, err = r.FindByID(ctx, ada.UserID)
	require.NoError(t, err)
	require.Nil(t, got)
	list, err = r.List(ctx)
	require.NoError(t, err)
	require.Empty(t, list)
}
