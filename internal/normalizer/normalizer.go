// Package normalizer converts column-oriented JSON song datasets into
// row-oriented Song records. The transformation is pure: it touches
// neither persistence nor cache.
package normalizer

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"songboard/internal/models"
)

// Core column names interpreted by the normalizer. Every other column
// passes through untouched as a record attribute.
const (
	columnID     = "id"
	columnTitle  = "title"
	columnArtist = "artist"
	columnRating = "rating"
)

// Issue describes one invalid record encountered during normalization
type Issue struct {
	Index   int    `json:"index"`
	SongID  string `json:"song_id,omitempty"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (i Issue) Error() string {
	return fmt.Sprintf("record %d: field '%s': %s", i.Index, i.Field, i.Message)
}

// Normalize transforms a column-oriented JSON payload into row records.
//
// The payload must be a JSON object mapping field names to equal-length
// sequences, or a single-element array wrapping such an object (the
// shape pandas to_json produces for exported playlists). Sequences may
// be JSON arrays or index-keyed objects ({"0": v0, "1": v1, ...}).
//
// Structural problems return a *models.MalformedInputError and no
// records. Per-record problems (missing id, empty title) are collected
// into issues; in strict mode the first one aborts with a
// *models.ValidationError instead.
func Normalize(payload []byte, strict bool) ([]*models.Song, []Issue, error) {
	columns, err := decodeColumns(payload)
	if err != nil {
		return nil, nil, err
	}

	names, length, err := columnSequences(columns)
	if err != nil {
		return nil, nil, err
	}

	songs := make([]*models.Song, 0, length)
	var issues []Issue

	for i := 0; i < length; i++ {
		song, issue := buildRecord(columns, names, i)
		if issue != nil {
			if strict {
				return nil, nil, &models.ValidationError{
					Field:   issue.Field,
					Message: issue.Error(),
				}
			}
			issues = append(issues, *issue)
			continue
		}
		songs = append(songs, song)
	}

	return songs, issues, nil
}

// column is one field's value sequence in index-addressable form
type column interface {
	len() int
	at(i int) interface{}
}

type arrayColumn []interface{}

func (c arrayColumn) len() int             { return len(c) }
func (c arrayColumn) at(i int) interface{} { return c[i] }

// indexedColumn is the pandas to_json shape: values keyed by the
// stringified record index
type indexedColumn map[string]interface{}

func (c indexedColumn) len() int             { return len(c) }
func (c indexedColumn) at(i int) interface{} { return c[strconv.Itoa(i)] }

// decodeColumns parses the payload down to the column map
func decodeColumns(payload []byte) (map[string]column, error) {
	var raw interface{}
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, &models.MalformedInputError{Message: "could not decode JSON: " + err.Error()}
	}

	// Unwrap the single-element array form
	if list, ok := raw.([]interface{}); ok {
		if len(list) != 1 {
			return nil, &models.MalformedInputError{Message: fmt.Sprintf("expected a single column-oriented object, got an array of %d elements", len(list))}
		}
		raw = list[0]
	}

	obj, ok := raw.(map[string]interface{})
	if !ok {
		return nil, &models.MalformedInputError{Message: "payload must be a JSON object mapping field names to value sequences"}
	}

	columns := make(map[string]column, len(obj))
	for name, value := range obj {
		switch v := value.(type) {
		case []interface{}:
			columns[name] = arrayColumn(v)
		case map[string]interface{}:
			if err := checkIndexKeys(name, v); err != nil {
				return nil, err
			}
			columns[name] = indexedColumn(v)
		default:
			return nil, &models.MalformedInputError{Message: fmt.Sprintf("field '%s' is not a value sequence", name)}
		}
	}

	return columns, nil
}

// checkIndexKeys verifies an index-keyed column covers 0..len-1 exactly
func checkIndexKeys(name string, m map[string]interface{}) error {
	for key := range m {
		idx, err := strconv.Atoi(key)
		if err != nil || idx < 0 || idx >= len(m) {
			return &models.MalformedInputError{Message: fmt.Sprintf("field '%s' has non-contiguous index key '%s'", name, key)}
		}
	}
	return nil
}

// columnSequences validates column shape and returns the sorted field
// names and the common record count
func columnSequences(columns map[string]column) ([]string, int, error) {
	if _, ok := columns[columnID]; !ok {
		return nil, 0, &models.MalformedInputError{Message: "required column 'id' is missing"}
	}

	names := make([]string, 0, len(columns))
	for name := range columns {
		names = append(names, name)
	}
	sort.Strings(names)

	length := -1
	for _, name := range names {
		n := columns[name].len()
		if length == -1 {
			length = n
			continue
		}
		if n != length {
			return nil, 0, &models.MalformedInputError{Message: fmt.Sprintf("ragged columns: field '%s' has %d values, expected %d", name, n, length)}
		}
	}

	if length <= 0 {
		return nil, 0, &models.MalformedInputError{Message: "payload contains no records"}
	}

	return names, length, nil
}

// buildRecord materializes the i-th row from every column
func buildRecord(columns map[string]column, names []string, i int) (*models.Song, *Issue) {
	id, ok := stringValue(columns[columnID].at(i))
	if !ok || id == "" {
		return nil, &Issue{Index: i, Field: columnID, Message: "missing or empty id"}
	}

	title := ""
	if col, exists := columns[columnTitle]; exists {
		title, _ = stringValue(col.at(i))
	}
	if title == "" {
		return nil, &Issue{Index: i, SongID: id, Field: columnTitle, Message: "missing or empty title"}
	}

	song := models.NewSong(id, title)

	if col, exists := columns[columnArtist]; exists {
		song.Artist, _ = stringValue(col.at(i))
	}

	if col, exists := columns[columnRating]; exists {
		// Invalid ingested ratings degrade to unset rather than
		// rejecting the record.
		if rating, ok := intValue(col.at(i)); ok && models.ValidRating(rating) {
			r := rating
			song.Rating = &r
		}
	}

	for _, name := range names {
		switch name {
		case columnID, columnTitle, columnArtist, columnRating:
			continue
		}
		song.Attributes[name] = columns[name].at(i)
	}

	return song, nil
}

// stringValue extracts a trimmed string, reporting whether the raw
// value was a string at all
func stringValue(v interface{}) (string, bool) {
	s, ok := v.(string)
	if !ok {
		return "", false
	}
	return strings.TrimSpace(s), true
}

// intValue extracts an integer from the JSON number encodings
func intValue(v interface{}) (int, bool) {
	switch n := v.(type) {
	case float64:
		if n != math.Trunc(n) {
			return 0, false
		}
		return int(n), true
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, false
		}
		return int(i), true
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(n))
		if err != nil {
			return 0, false
		}
		return i, true
	default:
		return 0, false
	}
}
