package repositories

import (
	"context"

	"songboard/internal/models"
)

// BulkResult summarizes a bulk upsert
type BulkResult struct {
	Inserted int64 `json:"inserted"`
	Updated  int64 `json:"updated"`
}

// SongRepository defines the interface for song data operations.
//
// Duplicate-id policy: BulkUpsert upserts by song_id (update existing,
// insert new), which keeps dataset re-uploads idempotent.
type SongRepository interface {
	// Bulk operations
	BulkUpsert(ctx context.Context, songs []*models.Song) (*BulkResult, error)

	// Find operations
	ListPaged(ctx context.Context, page, limit int) ([]*models.Song, int64, error)
	SearchByTitle(ctx context.Context, title string) ([]*models.Song, error)

	// Mutations
	UpdateRating(ctx context.Context, songID string, rating int) (*models.Song, error)
}
