package cache

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"users-svc/internal/domain/user"
)

type FakeStore struct {
	mu   sync.Mutex
	data map[string][]byte
	err  error
	// beforeSet runs ahead of every Set, outside the lock.
	beforeSet func()
}

func newFakeStore() *FakeStore { return &FakeStore{data: make(map[string][]byte)} }

func (f *FakeStore) Get(_ context.Context, key string, dest any) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return false, f.err
	}
	b, ok := f.data[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(b, dest)
}

func (f *FakeStore) Set(_ context.Context, key string, value any, _ time.Duration) error {
	if f.beforeSet != nil {
		f.beforeSet()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	f.data[key] = b
	return nil
}

func (f *FakeStore) Del(_ context.Context, keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	for _, k := range keys {
		delete(f.data, k)
	}
	return nil
}

// FakeRepository counts reads so cache hits are observable. afterRead runs
// once the row has been copied, like a slow query returning.
type FakeRepository struct {
	user.Repository
	mu        sync.Mutex
	users     map[user.UUID]user.User
	reads     int
	afterRead func()
}

func (f *FakeRepository) FindByID(ctx context.Context, id user.UUID) (*user.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	f.reads++
	u, ok := f.users[id]
	afterRead := f.afterRead
	f.mu.Unlock()

	if afterRead != nil {
		afterRead()
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (f *FakeRepository) Save(_ context.Context, u user.User, _ *string) (*user.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[u.ID] = u
	return &u, nil
}

func (f *FakeRepository) Deactivate(_ context.Context, id user.UUID, at time.Time) (*user.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, user.NotFound(user.MsgUserNotFound)
	}
	u.Active = false
	u.UpdatedAt = at
	f.users[id] = u
	return &u, nil
}

func (f *FakeRepository) Delete(_ context.Context, id user.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[id]; !ok {
		return user.NotFound(user.MsgUserNotFound)
	}
	delete(f.users, id)
	return nil
}

func setup(t *testing.T) (*FakeRepository, *FakeStore, *CachedRepository, user.User) {
	t.Helper()
	u := user.User{
		ID:        uuid.New(),
		Name:      "Ana",
		Username:  "ana01",
		Email:     "ana@x.com",
		Provider:  user.ProviderLocal,
		Active:    true,
		CreatedAt: time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC),
		UpdatedAt: time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC),
	}
	repo := &FakeRepository{users: map[user.UUID]user.User{u.ID: u}}
	store := newFakeStore()
	return repo, store, NewCachedRepository(repo, store, time.Minute, zap.NewNop()), u
}

func TestCachedRepository_FindByID_Hit(t *testing.T) {
	repo, store, cached, u := setup(t)
	ctx := context.Background()

	first, err := cached.FindByID(ctx, u.ID)
	require.NoError(t, err)
	second, err := cached.FindByID(ctx, u.ID)
	require.NoError(t, err)

	assert.Equal(t, 1, repo.reads)
	assert.Equal(t, u, *first)
	assert.Equal(t, u, *second)
	assert.Contains(t, store.data, "users:id:"+u.ID.String())
}

func TestCachedRepository_FindByID_MissNotCached(t *testing.T) {
	repo, store, cached, _ := setup(t)
	ctx := context.Background()
	id := uuid.New()

	u, err := cached.FindByID(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, u)
	_, _ = cached.FindByID(ctx, id)

	assert.Equal(t, 2, repo.reads)
	assert.Empty(t, store.data)
}

func TestCachedRepository_SaveEvicts(t *testing.T) {
	repo, _, cached, u := setup(t)
	ctx := context.Background()

	_, err := cached.FindByID(ctx, u.ID)
	require.NoError(t, err)

	u.Active = false
	_, err = cached.Save(ctx, u, nil)
	require.NoError(t, err)

	got, err := cached.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.False(t, got.Active)
	assert.Equal(t, 2, repo.reads)
}

func TestCachedRepository_Delete(t *testing.T) {
	_, store, cached, u := setup(t)
	ctx := context.Background()

	_, err := cached.FindByID(ctx, u.ID)
	require.NoError(t, err)
	require.NoError(t, cached.Delete(ctx, u.ID))
	assert.Empty(t, store.data)

	assert.ErrorIs(t, cached.Delete(ctx, u.ID), user.ErrNotFound)
}

func TestCachedRepository_CacheDownFallsThrough(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	u := user.User{ID: uuid.New(), Username: "ana01"}
	repo := &FakeRepository{users: map[user.UUID]user.User{u.ID: u}}
	store := newFakeStore()
	store.err = errors.New("redis: connection refused")
	cached := NewCachedRepository(repo, store, time.Minute, zap.New(core))

	got, err := cached.FindByID(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = cached.Save(context.Background(), u, nil)
	require.NoError(t, err)

	assert.Equal(t, 1, logs.FilterMessage("cache get failed").Len())
	assert.Equal(t, 1, logs.FilterMessage("cache set failed").Len())
	assert.Equal(t, 1, logs.FilterMessage("cache evict failed").Len())
}

func TestCachedRepository_WriteDuringFillIsNotCached(t *testing.T) {
	at := time.Date(2025, 1, 11, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		hook  func(repo *FakeRepository, store *FakeStore, write func())
		write func(ctx context.Context, c *CachedRepository, u user.User) error
	}{
		{
			name: "deactivate while the store read is in flight",
			hook: func(repo *FakeRepository, _ *FakeStore, write func()) { repo.afterRead = once(write) },
			write: func(ctx context.Context, c *CachedRepository, u user.User) error {
				_, err := c.Deactivate(ctx, u.ID, at)
				return err
			},
		},
		{
			name: "save while the store read is in flight",
			hook: func(repo *FakeRepository, _ *FakeStore, write func()) { repo.afterRead = once(write) },
			write: func(ctx context.Context, c *CachedRepository, u user.User) error {
				u.Active = false
				u.UpdatedAt = at
				_, err := c.Save(ctx, u, nil)
				return err
			},
		},
		{
			name: "deactivate between the check and the cache set",
			hook: func(_ *FakeRepository, store *FakeStore, write func()) { store.beforeSet = once(write) },
			write: func(ctx context.Context, c *CachedRepository, u user.User) error {
				_, err := c.Deactivate(ctx, u.ID, at)
				return err
			},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			repo, store, cached, u := setup(t)
			ctx := context.Background()
			tt.hook(repo, store, func() { require.NoError(t, tt.write(ctx, cached, u)) })

			first, err := cached.FindByID(ctx, u.ID)
			require.NoError(t, err)
			assert.True(t, first.Active, "the in-flight read returns what it saw")
			assert.Empty(t, store.data)

			got, err := cached.FindByID(ctx, u.ID)
			require.NoError(t, err)
			assert.False(t, got.Active)
			assert.Equal(t, at, got.UpdatedAt)
		})
	}
}

func once(fn func()) func() {
	var o sync.Once
	return func() { o.Do(fn) }
}

func TestCachedRepository_CancelledCallerDoesNotFailOthers(t *testing.T) {
	repo, _, cached, u := setup(t)

	inRead := make(chan struct{})
	release := make(chan struct{})
	repo.afterRead = once(func() {
		close(inRead)
		<-release
	})

	first, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	var firstErr, secondErr error
	var secondUser *user.User

	wg.Add(1)
	go func() {
		defer wg.Done()
		_, firstErr = cached.FindByID(first, u.ID)
	}()
	<-inRead

	wg.Add(1)
	go func() {
		defer wg.Done()
		secondUser, secondErr = cached.FindByID(context.Background(), u.ID)
	}()
	// let the second caller join the in-flight read
	time.Sleep(20 * time.Millisecond)
	cancel()
	close(release)
	wg.Wait()

	assert.NoError(t, firstErr)
	require.NoError(t, secondErr)
	require.NotNil(t, secondUser)
	assert.Equal(t, u.ID, secondUser.ID)
}

func TestCachedRepository_Uncached(t *testing.T) {
	repo, store, cached, u := setup(t)
	ctx := context.Background()
	writer := cached.Uncached()

	_, err := cached.FindByID(ctx, u.ID)
	require.NoError(t, err)
	require.Contains(t, store.data, "users:id:"+u.ID.String())

	got, err := writer.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, u, *got)
	assert.Equal(t, 2, repo.reads)

	_, err = writer.Deactivate(ctx, u.ID, time.Now())
	require.NoError(t, err)
	assert.Empty(t, store.data)
}
