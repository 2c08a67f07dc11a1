package handlers

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"songboard/internal/config"
	"songboard/internal/models"
	"songboard/internal/repositories"
	"songboard/internal/services"
	"songboard/internal/testutil"
)

const testMaxUpload = 1 << 20

func setupRouter(repo *testutil.MockSongRepository) *gin.Engine {
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		CacheTTL:         time.Minute,
		CacheTimeout:     time.Second,
		DefaultPageLimit: 10,
		MaxPageLimit:     100,
	}
	service := services.NewSongService(repo, testutil.NewFakeCache(), cfg)
	handler := NewSongHandler(service, testMaxUpload)

	router := gin.New()
	handler.RegisterRoutes(router)
	return router
}

func multipartFile(t *testing.T, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	return body, writer.FormDataContentType()
}

func TestUploadJSON_Success(t *testing.T) {
	repo := new(testutil.MockSongRepository)
	repo.On("BulkUpsert", mock.Anything, mock.MatchedBy(func(songs []*models.Song) bool {
		return len(songs) == 2
	})).Return(&repositories.BulkResult{Inserted: 2}, nil).Once()

	router := setupRouter(repo)

	payload := []byte(`{"id":["a","b"],"title":["Song A","Song B"],"rating":[null,3]}`)
	body, contentType := multipartFile(t, "playlist.json", payload)

	req := httptest.NewRequest(http.MethodPost, "/api/songs/upload-json/", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var summary services.IngestSummary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &summary))
	assert.Equal(t, int64(2), summary.Inserted)
	assert.Equal(t, 0, summary.Rejected)

	repo.AssertExpectations(t)
}

func TestUploadJSON_ReportsValidationIssues(t *testing.T) {
	repo := new(testutil.MockSongRepository)
	repo.On("BulkUpsert", mock.Anything, mock.Anything).
		Return(&repositories.BulkResult{Inserted: 1}, nil).Once()

	router := setupRouter(repo)

	payload := []byte(`{"id":["a",""],"title":["Song A","No ID"]}`)
	body, contentType := multipartFile(t, "playlist.json", payload)

	req := httptest.NewRequest(http.MethodPost, "/api/songs/upload-json/", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var summary services.IngestSummary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &summary))
	assert.Equal(t, 1, summary.Rejected)
	require.Len(t, summary.Errors, 1)
	assert.Equal(t, 1, summary.Errors[0].Index)
}

func TestUploadJSON_MalformedPayload(t *testing.T) {
	repo := new(testutil.MockSongRepository)
	router := setupRouter(repo)

	payload := []byte(`{"id":["a","b"],"title":["only one"]}`)
	body, contentType := multipartFile(t, "playlist.json", payload)

	req := httptest.NewRequest(http.MethodPost, "/api/songs/upload-json/", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "ragged")

	repo.AssertNotCalled(t, "BulkUpsert", mock.Anything, mock.Anything)
}

func TestUploadJSON_RejectsNonJSONFile(t *testing.T) {
	router := setupRouter(new(testutil.MockSongRepository))

	body, contentType := multipartFile(t, "playlist.csv", []byte("id,title"))

	req := httptest.NewRequest(http.MethodPost, "/api/songs/upload-json/", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Only .json files")
}

func TestUploadJSON_MissingFile(t *testing.T) {
	router := setupRouter(new(testutil.MockSongRepository))

	req := httptest.NewRequest(http.MethodPost, "/api/songs/upload-json/", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "No file uploaded")
}

func TestListSongs_Success(t *testing.T) {
	repo := new(testutil.MockSongRepository)
	rating := 4
	song := models.NewSong("a", "Song A")
	song.Rating = &rating
	repo.On("ListPaged", mock.Anything, 2, 5).
		Return([]*models.Song{song}, int64(11), nil).Once()

	router := setupRouter(repo)

	req := httptest.NewRequest(http.MethodGet, "/api/songs/?page=2&limit=5", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var result services.ListResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, 2, result.Page)
	assert.Equal(t, 5, result.Limit)
	assert.Equal(t, int64(11), result.Total)
	require.Len(t, result.Items, 1)
	require.NotNil(t, result.Items[0].Rating)
	assert.Equal(t, 4, *result.Items[0].Rating)

	repo.AssertExpectations(t)
}

func TestListSongs_InvalidPagination(t *testing.T) {
	router := setupRouter(new(testutil.MockSongRepository))

	for _, query := range []string{"?page=0", "?page=abc", "?limit=-3", "?limit=x"} {
		req := httptest.NewRequest(http.MethodGet, "/api/songs/"+query, nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code, "query %s", query)
	}
}

func TestListSongs_BackendUnavailable(t *testing.T) {
	repo := new(testutil.MockSongRepository)
	repo.On("ListPaged", mock.Anything, 1, 10).
		Return(nil, int64(0), &models.BackendUnavailableError{Operation: "list", Err: assert.AnError}).Once()

	router := setupRouter(repo)

	req := httptest.NewRequest(http.MethodGet, "/api/songs/", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestSearchSongs_RequiresTerm(t *testing.T) {
	router := setupRouter(new(testutil.MockSongRepository))

	req := httptest.NewRequest(http.MethodGet, "/api/songs/search/?title=%20%20", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Search term is required")
}

func TestSearchSongs_NoMatches(t *testing.T) {
	repo := new(testutil.MockSongRepository)
	repo.On("SearchByTitle", mock.Anything, "nothing").
		Return([]*models.Song{}, nil).Once()

	router := setupRouter(repo)

	req := httptest.NewRequest(http.MethodGet, "/api/songs/search/?title=nothing", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSearchSongs_ReturnsMatches(t *testing.T) {
	repo := new(testutil.MockSongRepository)
	matches := []*models.Song{
		models.NewSong("a", "Dancing Queen"),
		models.NewSong("b", "Dancing in the Dark"),
	}
	repo.On("SearchByTitle", mock.Anything, "dancing").Return(matches, nil).Once()

	router := setupRouter(repo)

	req := httptest.NewRequest(http.MethodGet, "/api/songs/search/?title=dancing", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var songs []*models.Song
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &songs))
	require.Len(t, songs, 2)
	assert.Equal(t, "Dancing Queen", songs[0].Title)
}

func TestRateSong_Success(t *testing.T) {
	repo := new(testutil.MockSongRepository)
	rating := 5
	updated := models.NewSong("a", "Song A")
	updated.Rating = &rating
	repo.On("UpdateRating", mock.Anything, "a", 5).Return(updated, nil).Once()

	router := setupRouter(repo)

	body := bytes.NewBufferString(`{"song_id":"a","rating":5}`)
	req := httptest.NewRequest(http.MethodPut, "/api/songs/rate/", body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var song models.Song
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &song))
	assert.Equal(t, "a", song.SongID)
	require.NotNil(t, song.Rating)
	assert.Equal(t, 5, *song.Rating)

	repo.AssertExpectations(t)
}

func TestRateSong_UnknownID(t *testing.T) {
	repo := new(testutil.MockSongRepository)
	repo.On("UpdateRating", mock.Anything, "ghost", 3).
		Return(nil, &models.NotFoundError{SongID: "ghost"}).Once()

	router := setupRouter(repo)

	body := bytes.NewBufferString(`{"song_id":"ghost","rating":3}`)
	req := httptest.NewRequest(http.MethodPut, "/api/songs/rate/", body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "ghost")
}

func TestRateSong_OutOfRange(t *testing.T) {
	repo := new(testutil.MockSongRepository)
	router := setupRouter(repo)

	body := bytes.NewBufferString(`{"song_id":"a","rating":9}`)
	req := httptest.NewRequest(http.MethodPut, "/api/songs/rate/", body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "between 1 and 5")

	repo.AssertNotCalled(t, "UpdateRating", mock.Anything, mock.Anything, mock.Anything)
}

func TestRateSong_MissingFields(t *testing.T) {
	router := setupRouter(new(testutil.MockSongRepository))

	for _, body := range []string{`{}`, `{"song_id":"a"}`, `{"rating":3}`, `not json`} {
		req := httptest.NewRequest(http.MethodPut, "/api/songs/rate/", bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code, "body %s", body)
	}
}
