package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"songboard/internal/cache"
	"songboard/internal/config"
	"songboard/internal/models"
	"songboard/internal/normalizer"
	"songboard/internal/repositories"
)

// IngestSummary reports the outcome of one dataset upload
type IngestSummary struct {
	Inserted int64              `json:"inserted"`
	Updated  int64              `json:"updated"`
	Rejected int                `json:"rejected"`
	Errors   []normalizer.Issue `json:"errors,omitempty"`
}

// ListResult is one page of the rating-sorted listing
type ListResult struct {
	Items []*models.Song `json:"items"`
	Page  int            `json:"page"`
	Limit int            `json:"limit"`
	Total int64          `json:"total"`
}

// SongService orchestrates normalization, persistence and caching.
//
// The cache is best-effort: every cache failure degrades to a miss or
// a no-op and is logged, never surfaced. A nil cache disables caching
// entirely. Writes always invalidate after they commit, so a listing
// served from cache never predates the latest write.
type SongService struct {
	repository repositories.SongRepository
	cache      cache.Cache

	cacheTTL     time.Duration
	cacheTimeout time.Duration
	defaultLimit int
	maxLimit     int
	strict       bool
}

// NewSongService creates a new song service. cacheBackend may be nil
// to run uncached.
func NewSongService(repository repositories.SongRepository, cacheBackend cache.Cache, cfg *config.Config) *SongService {
	return &SongService{
		repository:   repository,
		cache:        cacheBackend,
		cacheTTL:     cfg.CacheTTL,
		cacheTimeout: cfg.CacheTimeout,
		defaultLimit: cfg.DefaultPageLimit,
		maxLimit:     cfg.MaxPageLimit,
		strict:       cfg.StrictIngest,
	}
}

func listKey(page, limit int) string {
	return fmt.Sprintf("songs:list:p%d:l%d", page, limit)
}

// Ingest normalizes a column-oriented payload and upserts the
// resulting records. Structural failures abort before any write.
// Per-record validation failures are returned in the summary; the
// valid remainder is still persisted (unless strict mode aborted the
// whole batch during normalization).
func (s *SongService) Ingest(ctx context.Context, payload []byte) (*IngestSummary, error) {
	songs, issues, err := normalizer.Normalize(payload, s.strict)
	if err != nil {
		return nil, err
	}

	summary := &IngestSummary{
		Rejected: len(issues),
		Errors:   issues,
	}

	if len(songs) == 0 {
		return summary, nil
	}

	result, err := s.repository.BulkUpsert(ctx, songs)
	if err != nil {
		return nil, err
	}

	summary.Inserted = result.Inserted
	summary.Updated = result.Updated

	s.invalidateAll(ctx)

	return summary, nil
}

// List serves one listing page, consulting the cache before the
// repository and populating it on a miss
func (s *SongService) List(ctx context.Context, page, limit int) (*ListResult, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = s.defaultLimit
	}
	if limit > s.maxLimit {
		limit = s.maxLimit
	}

	key := listKey(page, limit)
	if data := s.cacheGet(ctx, key); data != nil {
		var result ListResult
		if err := json.Unmarshal(data, &result); err == nil {
			return &result, nil
		}
		slog.Warn("Discarding undecodable cache entry", "key", key)
	}

	items, total, err := s.repository.ListPaged(ctx, page, limit)
	if err != nil {
		return nil, err
	}

	result := &ListResult{
		Items: items,
		Page:  page,
		Limit: limit,
		Total: total,
	}

	if data, err := json.Marshal(result); err == nil {
		s.cacheSet(ctx, key, data)
	}

	return result, nil
}

// Search looks up songs by title substring. Search results are never
// cached: the query space is unbounded.
func (s *SongService) Search(ctx context.Context, title string) ([]*models.Song, error) {
	return s.repository.SearchByTitle(ctx, title)
}

// Rate updates one song's rating and invalidates cached listings.
// Range validation happens before any storage access.
func (s *SongService) Rate(ctx context.Context, songID string, rating int) (*models.Song, error) {
	if !models.ValidRating(rating) {
		return nil, &models.ValidationError{Field: "rating", Message: models.RatingRangeMessage()}
	}

	song, err := s.repository.UpdateRating(ctx, songID, rating)
	if err != nil {
		return nil, err
	}

	s.invalidateAll(ctx)

	return song, nil
}

// cacheGet is a best-effort cache read; any failure is a miss
func (s *SongService) cacheGet(ctx context.Context, key string) []byte {
	if s.cache == nil {
		return nil
	}

	cctx, cancel := context.WithTimeout(ctx, s.cacheTimeout)
	defer cancel()

	data, err := s.cache.Get(cctx, key)
	if err != nil {
		slog.Warn("Cache get failed, treating as miss", "key", key, "error", err)
		return nil
	}
	return data
}

// cacheSet is a best-effort cache write
func (s *SongService) cacheSet(ctx context.Context, key string, data []byte) {
	if s.cache == nil {
		return
	}

	cctx, cancel := context.WithTimeout(ctx, s.cacheTimeout)
	defer cancel()

	if err := s.cache.Set(cctx, key, data, s.cacheTTL); err != nil {
		slog.Warn("Cache set failed", "key", key, "error", err)
	}
}

// invalidateAll clears every cached listing after a successful write.
// Coarse by choice: write volume is low and a stale read across a
// write boundary is the failure that matters.
func (s *SongService) invalidateAll(ctx context.Context) {
	if s.cache == nil {
		return
	}

	cctx, cancel := context.WithTimeout(ctx, s.cacheTimeout)
	defer cancel()

	if err := s.cache.FlushAll(cctx); err != nil {
		slog.Warn("Cache invalidation failed, stale entries expire via TTL", "error", err)
	}
}
