package handlers

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"songboard/internal/models"
	"songboard/internal/services"
)

// RateSongRequest is the payload for the rate endpoint
type RateSongRequest struct {
	SongID string `json:"song_id" binding:"required"`
	Rating *int   `json:"rating" binding:"required"`
}

// SongHandler handles song-related requests
type SongHandler struct {
	service        *services.SongService
	maxUploadBytes int64
}

// NewSongHandler creates a new song handler
func NewSongHandler(service *services.SongService, maxUploadBytes int64) *SongHandler {
	return &SongHandler{
		service:        service,
		maxUploadBytes: maxUploadBytes,
	}
}

// RegisterRoutes attaches the song endpoints to the router
func (h *SongHandler) RegisterRoutes(router *gin.Engine) {
	songs := router.Group("/api/songs")
	{
		songs.GET("/", h.ListSongs)
		songs.GET("/search/", h.SearchSongs)
		songs.PUT("/rate/", h.RateSong)
		songs.POST("/upload-json/", h.UploadJSON)
	}
}

// UploadJSON handles POST /api/songs/upload-json/
func (h *SongHandler) UploadJSON(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file uploaded"})
		return
	}

	if !strings.HasSuffix(strings.ToLower(fileHeader.Filename), ".json") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid file type. Only .json files are allowed"})
		return
	}

	if fileHeader.Size > h.maxUploadBytes {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "File too large",
			"limit": h.maxUploadBytes,
		})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Could not read uploaded file"})
		return
	}
	defer file.Close()

	payload, err := io.ReadAll(io.LimitReader(file, h.maxUploadBytes+1))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Could not read uploaded file"})
		return
	}
	if int64(len(payload)) > h.maxUploadBytes {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "File too large",
			"limit": h.maxUploadBytes,
		})
		return
	}

	summary, err := h.service.Ingest(c.Request.Context(), payload)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}

// ListSongs handles GET /api/songs/?page=&limit=
func (h *SongHandler) ListSongs(c *gin.Context) {
	page, ok := positiveIntQuery(c, "page", 1)
	if !ok {
		return
	}
	limit, ok := positiveIntQuery(c, "limit", 0)
	if !ok {
		return
	}

	result, err := h.service.List(c.Request.Context(), page, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// SearchSongs handles GET /api/songs/search/?title=
func (h *SongHandler) SearchSongs(c *gin.Context) {
	title := strings.TrimSpace(c.Query("title"))
	if title == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Search term is required"})
		return
	}

	songs, err := h.service.Search(c.Request.Context(), title)
	if err != nil {
		respondError(c, err)
		return
	}

	if len(songs) == 0 {
		c.JSON(http.StatusNotFound, gin.H{
			"error":       "No songs found matching the title",
			"search_term": title,
		})
		return
	}

	c.JSON(http.StatusOK, songs)
}

// RateSong handles PUT /api/songs/rate/
func (h *SongHandler) RateSong(c *gin.Context) {
	var req RateSongRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "song_id and rating are required",
			"details": err.Error(),
		})
		return
	}

	song, err := h.service.Rate(c.Request.Context(), req.SongID, *req.Rating)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, song)
}

// positiveIntQuery parses a query parameter that must be a positive
// integer when present; fallback is used when absent
func positiveIntQuery(c *gin.Context, name string, fallback int) (int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return fallback, true
	}

	value, err := strconv.Atoi(raw)
	if err != nil || value < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": name + " must be a positive integer"})
		return 0, false
	}
	return value, true
}

// respondError maps domain errors onto HTTP status codes
func respondError(c *gin.Context, err error) {
	var malformed *models.MalformedInputError
	var validation *models.ValidationError
	var notFound *models.NotFoundError
	var conflict *models.ConflictError
	var unavailable *models.BackendUnavailableError

	switch {
	case errors.As(err, &malformed):
		c.JSON(http.StatusBadRequest, gin.H{"error": malformed.Message})
	case errors.As(err, &validation):
		c.JSON(http.StatusBadRequest, gin.H{"error": validation.Error()})
	case errors.As(err, &notFound):
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "Song not found",
			"song_id": notFound.SongID,
		})
	case errors.As(err, &conflict):
		c.JSON(http.StatusConflict, gin.H{
			"error":   "Song already exists",
			"song_id": conflict.SongID,
		})
	case errors.As(err, &unavailable):
		slog.Error("Persistence backend unavailable", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Storage backend unavailable"})
	default:
		slog.Error("Unhandled error", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "An internal server error occurred"})
	}
}
