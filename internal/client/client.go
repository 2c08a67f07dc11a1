// Package client is a small SDK for the songboard HTTP API.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"songboard/internal/models"
	"songboard/internal/services"
)

// APIError is a non-2xx response from the API
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error (status %d): %s", e.StatusCode, e.Message)
}

// Client talks to a songboard server
type Client struct {
	http *resty.Client
}

// New creates a client for the given base URL
func New(baseURL string) *Client {
	http := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(30 * time.Second).
		SetRetryCount(3).
		SetRetryWaitTime(1 * time.Second).
		SetRetryMaxWaitTime(5 * time.Second)

	return &Client{http: http}
}

// UploadDataset uploads a column-oriented JSON dataset file
func (c *Client) UploadDataset(ctx context.Context, path string) (*services.IngestSummary, error) {
	var summary services.IngestSummary

	resp, err := c.http.R().
		SetContext(ctx).
		SetFile("file", path).
		SetResult(&summary).
		Post("/api/songs/upload-json/")
	if err != nil {
		return nil, fmt.Errorf("upload request failed: %w", err)
	}
	if resp.IsError() {
		return nil, apiError(resp)
	}

	return &summary, nil
}

// List fetches one page of the rating-sorted listing
func (c *Client) List(ctx context.Context, page, limit int) (*services.ListResult, error) {
	var result services.ListResult

	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("page", fmt.Sprintf("%d", page)).
		SetQueryParam("limit", fmt.Sprintf("%d", limit)).
		SetResult(&result).
		Get("/api/songs/")
	if err != nil {
		return nil, fmt.Errorf("list request failed: %w", err)
	}
	if resp.IsError() {
		return nil, apiError(resp)
	}

	return &result, nil
}

// Search finds songs by title substring
func (c *Client) Search(ctx context.Context, title string) ([]*models.Song, error) {
	var songs []*models.Song

	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("title", title).
		SetResult(&songs).
		Get("/api/songs/search/")
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	if resp.IsError() {
		return nil, apiError(resp)
	}

	return songs, nil
}

// Rate sets the rating of one song and returns the updated record
func (c *Client) Rate(ctx context.Context, songID string, rating int) (*models.Song, error) {
	var song models.Song

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]interface{}{"song_id": songID, "rating": rating}).
		SetResult(&song).
		Put("/api/songs/rate/")
	if err != nil {
		return nil, fmt.Errorf("rate request failed: %w", err)
	}
	if resp.IsError() {
		return nil, apiError(resp)
	}

	return &song, nil
}

// apiError extracts the server's error message from a failed response
func apiError(resp *resty.Response) error {
	var body struct {
		Error string `json:"error"`
	}
	message := resp.Status()
	if err := json.Unmarshal(resp.Body(), &body); err == nil && body.Error != "" {
		message = body.Error
	}

	return &APIError{
		StatusCode: resp.StatusCode(),
		Message:    message,
	}
}
