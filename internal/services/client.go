package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/desertthunder/songbook/internal/shared"
)

// DefaultBaseURL is where [NewClient] looks for a songbook server when none is given.
const DefaultBaseURL = "http://127.0.0.1:3000"

// Client makes raw HTTP requests to a running songbook server.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client for the songbook HTTP API at baseURL.
func NewClient(baseURL string, client *http.Client) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if client == nil {
		client = http.DefaultClient
	}

	return &Client{
		baseURL:    baseURL,
		httpClient: client,
	}
}

// Response is a raw API response with status and body.
type Response struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
	IsJSON     bool
	JSONData   any
}

// Err returns the server's error message for non-2xx responses.
func (r *Response) Err() error {
	if r.StatusCode >= 200 && r.StatusCode < 300 {
		return nil
	}
	if m, ok := r.JSONData.(map[string]any); ok {
		if msg, ok := m["error"].(string); ok {
			return fmt.Errorf("server returned %d: %s", r.StatusCode, msg)
		}
	}
	return fmt.Errorf("server returned %d", r.StatusCode)
}

// Get performs a GET request to the specified path and returns the raw response.
func (c *Client) Get(ctx context.Context, path string) (*Response, error) {
	return c.do(ctx, http.MethodGet, path, nil)
}

// Post sends data as a JSON body.
func (c *Client) Post(ctx context.Context, path string, data []byte) (*Response, error) {
	return c.do(ctx, http.MethodPost, path, data)
}

// Put sends data as a JSON body.
func (c *Client) Put(ctx context.Context, path string, data []byte) (*Response, error) {
	return c.do(ctx, http.MethodPut, path, data)
}

// Delete performs a DELETE request.
func (c *Client) Delete(ctx context.Context, path string) (*Response, error) {
	return c.do(ctx, http.MethodDelete, path, nil)
}

// Submit posts a public lyrics submission. A 409 response carries the matched entries.
func (c *Client) Submit(ctx context.Context, in SubmitLyrics) (*Response, error) {
	data, err := json.Marshal(in)
	if err != nil {
		return nil, fmt.Errorf("failed to encode submission: %w", err)
	}
	return c.Post(ctx, "/api/lyrics", data)
}

// Duplicates fetches the admin duplicate report. Empty scorer and non-positive threshold use
// the server's configuration.
func (c *Client) Duplicates(ctx context.Context, scorer string, threshold float64) (*Response, error) {
	q := url.Values{}
	if scorer != "" {
		q.Set("scorer", scorer)
	}
	if threshold > 0 {
		q.Set("threshold", strconv.FormatFloat(threshold, 'f', -1, 64))
	}

	path := "/api/admin/duplicates"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	return c.Get(ctx, path)
}

// Catalog collections writable through [Client.Create].
const (
	CollectionArtists  = "artists"
	CollectionPosts    = "posts"
	CollectionStations = "stations"
)

// Create posts a new artist, post or station to the admin catalog route of collection.
// data is sent as-is and must be JSON.
func (c *Client) Create(ctx context.Context, collection string, data []byte) (*Response, error) {
	switch collection {
	case CollectionArtists, CollectionPosts, CollectionStations:
	default:
		return nil, fmt.Errorf("%w: unknown collection %q", shared.ErrInvalidArgument, collection)
	}
	if !json.Valid(data) {
		return nil, fmt.Errorf("%w: body is not valid JSON", shared.ErrInvalidInput)
	}
	return c.Post(ctx, "/api/admin/"+collection, data)
}

func (c *Client) do(ctx context.Context, method, path string, data []byte) (*Response, error) {
	fullURL := c.baseURL + path

	var body io.Reader
	if data != nil {
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if data != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	apiResp := &Response{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       raw,
	}

	var jsonData any
	if err := json.Unmarshal(raw, &jsonData); err == nil {
		apiResp.IsJSON = true
		apiResp.JSONData = jsonData
	}

	return apiResp, nil
}
