package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"songboard/internal/cache"
	"songboard/internal/models"
	"songboard/internal/repositories"
)

// MockSongRepository is a mock implementation of SongRepository for testing
type MockSongRepository struct {
	mock.Mock
}

func (m *MockSongRepository) BulkUpsert(ctx context.Context, songs []*models.Song) (*repositories.BulkResult, error) {
	args := m.Called(ctx, songs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repositories.BulkResult), args.Error(1)
}

func (m *MockSongRepository) ListPaged(ctx context.Context, page, limit int) ([]*models.Song, int64, error) {
	args := m.Called(ctx, page, limit)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*models.Song), args.Get(1).(int64), args.Error(2)
}

func (m *MockSongRepository) SearchByTitle(ctx context.Context, title string) ([]*models.Song, error) {
	args := m.Called(ctx, title)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Song), args.Error(1)
}

func (m *MockSongRepository) UpdateRating(ctx context.Context, songID string, rating int) (*models.Song, error) {
	args := m.Called(ctx, songID, rating)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Song), args.Error(1)
}

// FakeCache is an in-memory Cache for tests. The Fail switches make
// every matching operation error, emulating an unreachable backend.
type FakeCache struct {
	mu   sync.RWMutex
	data map[string]fakeEntry

	FailGets  bool
	FailSets  bool
	FailFlush bool

	Gets    int
	Sets    int
	Flushes int
}

type fakeEntry struct {
	data      []byte
	expiresAt time.Time
}

func NewFakeCache() *FakeCache {
	return &FakeCache{data: make(map[string]fakeEntry)}
}

func (f *FakeCache) Get(ctx context.Context, key string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.Gets++
	if f.FailGets {
		return nil, &cache.CacheError{Operation: "get", Key: key, Err: context.DeadlineExceeded}
	}

	entry, exists := f.data[key]
	if !exists {
		return nil, nil
	}
	if !entry.expiresAt.IsZero() && time.Now().After(entry.expiresAt) {
		delete(f.data, key)
		return nil, nil
	}
	return entry.data, nil
}

func (f *FakeCache) Set(ctx context.Context, key string, value []byte, expiration time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.Sets++
	if f.FailSets {
		return &cache.CacheError{Operation: "set", Key: key, Err: context.DeadlineExceeded}
	}

	entry := fakeEntry{data: value}
	if expiration > 0 {
		entry.expiresAt = time.Now().Add(expiration)
	}
	f.data[key] = entry
	return nil
}

func (f *FakeCache) FlushAll(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.Flushes++
	if f.FailFlush {
		return &cache.CacheError{Operation: "flushall", Err: context.DeadlineExceeded}
	}

	f.data = make(map[string]fakeEntry)
	return nil
}

func (f *FakeCache) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data = nil
	return nil
}

func (f *FakeCache) Health(ctx context.Context) error {
	return nil
}

// Len reports the number of live entries
func (f *FakeCache) Len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.data)
}
