package repositories

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"songboard/internal/models"
)

// mongoSongRepository implements SongRepository using MongoDB
type mongoSongRepository struct {
	collection *mongo.Collection
}

// NewMongoSongRepository creates a new MongoDB-backed song repository
func NewMongoSongRepository(db *models.Database) SongRepository {
	return &mongoSongRepository{
		collection: db.DB.Collection("songs"),
	}
}

// listSortOrder sorts by rating descending with unset ratings last
// (BSON null sorts below every number, so a descending sort places it
// after all rated songs), ties broken by song_id ascending. This order
// must stay deterministic for stable pagination.
var listSortOrder = bson.D{{Key: "rating", Value: -1}, {Key: "song_id", Value: 1}}

// BulkUpsert writes all records in one bulk operation, upserting by
// song_id. Every field is replaced with the incoming value, so a
// re-upload of the same dataset is idempotent.
func (r *mongoSongRepository) BulkUpsert(ctx context.Context, songs []*models.Song) (*BulkResult, error) {
	if len(songs) == 0 {
		return &BulkResult{}, nil
	}

	now := time.Now()
	writes := make([]mongo.WriteModel, 0, len(songs))
	for _, song := range songs {
		update := bson.M{
			"$set": bson.M{
				"title":      song.Title,
				"artist":     song.Artist,
				"rating":     song.Rating,
				"attributes": song.Attributes,
				"updated_at": now,
			},
			"$setOnInsert": bson.M{
				"song_id":    song.SongID,
				"created_at": now,
			},
		}
		writes = append(writes, mongo.NewUpdateOneModel().
			SetFilter(bson.M{"song_id": song.SongID}).
			SetUpdate(update).
			SetUpsert(true))
	}

	result, err := r.collection.BulkWrite(ctx, writes)
	if err != nil {
		return nil, &models.BackendUnavailableError{Operation: "bulk upsert", Err: err}
	}

	return &BulkResult{
		Inserted: result.UpsertedCount,
		Updated:  result.MatchedCount,
	}, nil
}

// ListPaged returns one page of songs in the listing order plus the
// total record count. page is 1-indexed; callers clamp limit.
func (r *mongoSongRepository) ListPaged(ctx context.Context, page, limit int) ([]*models.Song, int64, error) {
	if page < 1 {
		page = 1
	}

	total, err := r.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, 0, &models.BackendUnavailableError{Operation: "count", Err: err}
	}

	findOptions := options.Find().
		SetSort(listSortOrder).
		SetSkip(int64(page-1) * int64(limit)).
		SetLimit(int64(limit))

	cursor, err := r.collection.Find(ctx, bson.M{}, findOptions)
	if err != nil {
		return nil, 0, &models.BackendUnavailableError{Operation: "list", Err: err}
	}
	defer cursor.Close(ctx)

	songs, err := decodeSongs(ctx, cursor)
	if err != nil {
		return nil, 0, err
	}

	return songs, total, nil
}

// SearchByTitle finds songs whose title contains the query,
// case-insensitively, in the listing order
func (r *mongoSongRepository) SearchByTitle(ctx context.Context, title string) ([]*models.Song, error) {
	pattern := primitive.Regex{Pattern: regexp.QuoteMeta(title), Options: "i"}

	findOptions := options.Find().SetSort(listSortOrder)

	cursor, err := r.collection.Find(ctx, bson.M{"title": pattern}, findOptions)
	if err != nil {
		return nil, &models.BackendUnavailableError{Operation: "search", Err: err}
	}
	defer cursor.Close(ctx)

	return decodeSongs(ctx, cursor)
}

// UpdateRating atomically replaces the rating of one song and returns
// the updated record
func (r *mongoSongRepository) UpdateRating(ctx context.Context, songID string, rating int) (*models.Song, error) {
	if !models.ValidRating(rating) {
		return nil, &models.ValidationError{Field: "rating", Message: models.RatingRangeMessage()}
	}

	update := bson.M{"$set": bson.M{"rating": rating, "updated_at": time.Now()}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var song models.Song
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"song_id": songID}, update, opts).Decode(&song)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, &models.NotFoundError{SongID: songID}
		}
		return nil, &models.BackendUnavailableError{Operation: "update rating", Err: err}
	}

	return &song, nil
}

// decodeSongs drains a cursor into song records
func decodeSongs(ctx context.Context, cursor *mongo.Cursor) ([]*models.Song, error) {
	songs := make([]*models.Song, 0)
	for cursor.Next(ctx) {
		var song models.Song
		if err := cursor.Decode(&song); err != nil {
			slog.Error("Failed to decode song", "error", err)
			continue
		}
		songs = append(songs, &song)
	}
	if err := cursor.Err(); err != nil {
		return nil, &models.BackendUnavailableError{Operation: "cursor", Err: fmt.Errorf("iterating results: %w", err)}
	}
	return songs, nil
}
