package models

import (
	"time"
)

// Rating bounds for a song
const (
	MinRating = 1
	MaxRating = 5
)

// Song represents a single song record
type Song struct {
	SongID string `bson:"song_id" json:"song_id"`
	Title  string `bson:"title" json:"title"`
	Artist string `bson:"artist,omitempty" json:"artist,omitempty"`

	// Rating is unset until the first explicit rate call or an ingested
	// rating column; nil means "never rated".
	Rating *int `bson:"rating,omitempty" json:"rating"`

	// Attributes holds every non-core column from the source dataset
	// (duration_ms, tempo, energy, ...) as opaque pass-through values.
	Attributes map[string]interface{} `bson:"attributes,omitempty" json:"attributes,omitempty"`

	// Timestamps
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// NewSong creates a new Song with the given identifiers
func NewSong(songID, title string) *Song {
	now := time.Now()
	return &Song{
		SongID:     songID,
		Title:      title,
		Attributes: make(map[string]interface{}),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// SetRating sets the rating if it is within the valid range
func (s *Song) SetRating(rating int) error {
	if !ValidRating(rating) {
		return &ValidationError{
			Field:   "rating",
			Message: ratingRangeMessage(),
		}
	}
	r := rating
	s.Rating = &r
	s.UpdatedAt = time.Now()
	return nil
}

// RatingValue returns the rating and whether it has been set
func (s *Song) RatingValue() (int, bool) {
	if s.Rating == nil {
		return 0, false
	}
	return *s.Rating, true
}

// ValidRating reports whether rating is within [MinRating, MaxRating]
func ValidRating(rating int) bool {
	return rating >= MinRating && rating <= MaxRating
}
