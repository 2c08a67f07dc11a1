package models

import "fmt"

// MalformedInputError indicates a structurally invalid upload payload:
// unparseable JSON, a non-object payload, non-sequence columns, or
// ragged column lengths.
type MalformedInputError struct {
	Message string
}

func (e *MalformedInputError) Error() string {
	return "malformed input: " + e.Message
}

// ValidationError indicates a semantically invalid field value
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation failed: " + e.Message
	}
	return "validation failed for field '" + e.Field + "': " + e.Message
}

// NotFoundError indicates a referenced song does not exist
type NotFoundError struct {
	SongID string
}

func (e *NotFoundError) Error() string {
	return "song not found: " + e.SongID
}

// ConflictError indicates a duplicate song id under a reject policy
type ConflictError struct {
	SongID string
}

func (e *ConflictError) Error() string {
	return "song already exists: " + e.SongID
}

// BackendUnavailableError indicates the persistence store is
// unreachable. Unlike cache failures this is fatal to the request.
type BackendUnavailableError struct {
	Operation string
	Err       error
}

func (e *BackendUnavailableError) Error() string {
	return "persistence backend unavailable during " + e.Operation + ": " + e.Err.Error()
}

func (e *BackendUnavailableError) Unwrap() error {
	return e.Err
}

func ratingRangeMessage() string {
	return fmt.Sprintf("rating must be between %d and %d", MinRating, MaxRating)
}

// RatingRangeMessage returns the user-facing valid rating range
func RatingRangeMessage() string {
	return ratingRangeMessage()
}
