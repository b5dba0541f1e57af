package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/poiesic/logseer/core"
	"github.com/poiesic/logseer/vectorstore"
)

const (
	defaultTimeout        = 30 * time.Second
	defaultMaxRetries     = 3
	defaultRetryBaseDelay = 500 * time.Millisecond
)

// Client implements vectorstore.Store against the Qdrant REST API.
// Qdrant assigns overwrite semantics to upserts with an existing point ID,
// which is the property the ingestion pipeline's retry model relies on.
type Client struct {
	baseURL        string
	httpClient     *http.Client
	maxRetries     int
	retryBaseDelay time.Duration
	logger         *slog.Logger
}

var _ vectorstore.Store = (*Client)(nil)

// Option configures a Client.
type Option func(*Client) error

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) error {
		if httpClient == nil {
			return fmt.Errorf("http client must not be nil")
		}
		c.httpClient = httpClient
		return nil
	}
}

// WithTimeout sets the per-request timeout.
// Default is 30s.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) error {
		if timeout <= 0 {
			return fmt.Errorf("timeout must be positive")
		}
		c.httpClient.Timeout = timeout
		return nil
	}
}

// WithMaxRetries sets the maximum number of attempts for transient failures.
// Default is 3.
func WithMaxRetries(maxRetries int) Option {
	return func(c *Client) error {
		if maxRetries < 1 {
			maxRetries = 1
		}
		c.maxRetries = maxRetries
		return nil
	}
}

// WithRetryBaseDelay sets the base delay for exponential backoff.
// Default is 500ms.
func WithRetryBaseDelay(delay time.Duration) Option {
	return func(c *Client) error {
		if delay <= 0 {
			return fmt.Errorf("retry base delay must be positive")
		}
		c.retryBaseDelay = delay
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) error {
		if logger == nil {
			logger = slog.Default()
		}
		c.logger = logger
		return nil
	}
}

// NewClient creates a Qdrant client for the given base URL,
// e.g. "http://localhost:6333".
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, ErrBaseURLRequired
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("invalid qdrant url %q: %w", baseURL, err)
	}

	c := &Client{
		baseURL:        strings.TrimSuffix(baseURL, "/"),
		httpClient:     &http.Client{Timeout: defaultTimeout},
		maxRetries:     defaultMaxRetries,
		retryBaseDelay: defaultRetryBaseDelay,
		logger:         slog.Default().With("component", "qdrant"),
	}

	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}

	return c, nil
}

// collectionInfo mirrors the subset of GET /collections/{name} we consume.
type collectionInfo struct {
	Result struct {
		PointsCount uint64 `json:"points_count"`
	} `json:"result"`
}

type createCollectionRequest struct {
	Vectors vectorParams `json:"vectors"`
}

type vectorParams struct {
	Size     int    `json:"size"`
	Distance string `json:"distance"`
}

type upsertRequest struct {
	Points []point `json:"points"`
}

type point struct {
	Id      uint64       `json:"id"`
	Vector  []float32    `json:"vector"`
	Payload chunkPayload `json:"payload"`
}

type chunkPayload struct {
	Text   string `json:"text"`
	Source string `json:"source"`
	Seq    int    `json:"seq"`
}

type searchRequest struct {
	Vector      []float32 `json:"vector"`
	Limit       int       `json:"limit"`
	WithPayload bool      `json:"with_payload"`
}

type searchResponse struct {
	Result []struct {
		Id      uint64       `json:"id"`
		Score   float32      `json:"score"`
		Payload chunkPayload `json:"payload"`
	} `json:"result"`
}

// EnsureCollection creates the collection if it does not exist.
func (c *Client) EnsureCollection(ctx context.Context, name string, dim int, metric vectorstore.Metric) error {
	exists, err := c.CollectionExists(ctx, name)
	if err != nil {
		return err
	}
	if exists {
		c.logger.Info("collection already exists", "collection", name)
		return nil
	}

	body := createCollectionRequest{
		Vectors: vectorParams{Size: dim, Distance: string(metric)},
	}
	status, _, err := c.do(ctx, http.MethodPut, "/collections/"+url.PathEscape(name), body)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return fmt.Errorf("creating collection %q: unexpected status %d", name, status)
	}

	c.logger.Info("collection created", "collection", name, "dim", dim, "metric", metric)
	return nil
}

// CollectionExists reports whether the collection exists.
func (c *Client) CollectionExists(ctx context.Context, name string) (bool, error) {
	status, _, err := c.do(ctx, http.MethodGet, "/collections/"+url.PathEscape(name), nil)
	if err != nil {
		return false, err
	}
	switch status {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	default:
		return false, fmt.Errorf("checking collection %q: unexpected status %d", name, status)
	}
}

// PointCount returns the number of points stored in the collection.
func (c *Client) PointCount(ctx context.Context, name string) (uint64, error) {
	status, body, err := c.do(ctx, http.MethodGet, "/collections/"+url.PathEscape(name), nil)
	if err != nil {
		return 0, err
	}
	if status == http.StatusNotFound {
		return 0, fmt.Errorf("%w: %s", vectorstore.ErrCollectionNotFound, name)
	}
	if status != http.StatusOK {
		return 0, fmt.Errorf("reading collection %q: unexpected status %d", name, status)
	}

	var info collectionInfo
	if err := json.Unmarshal(body, &info); err != nil {
		return 0, fmt.Errorf("decoding collection info: %w", err)
	}
	return info.Result.PointsCount, nil
}

// Upsert writes points to the collection, overwriting existing IDs.
func (c *Client) Upsert(ctx context.Context, name string, points []vectorstore.Point) error {
	if len(points) == 0 {
		return nil
	}

	req := upsertRequest{Points: make([]point, len(points))}
	for i, p := range points {
		req.Points[i] = point{
			Id:     uint64(p.Id),
			Vector: p.Vector,
			Payload: chunkPayload{
				Text:   p.Chunk.Text,
				Source: p.Chunk.Source,
				Seq:    p.Chunk.Seq,
			},
		}
	}

	status, _, err := c.do(ctx, http.MethodPut, "/collections/"+url.PathEscape(name)+"/points?wait=true", req)
	if err != nil {
		return err
	}
	if status == http.StatusNotFound {
		return fmt.Errorf("%w: %s", vectorstore.ErrCollectionNotFound, name)
	}
	if status != http.StatusOK {
		return fmt.Errorf("upserting %d points to %q: unexpected status %d", len(points), name, status)
	}
	return nil
}

// Search returns up to limit nearest points, ordered by descending score.
func (c *Client) Search(ctx context.Context, name string, vector []float32, limit int) ([]vectorstore.ScoredPoint, error) {
	req := searchRequest{Vector: vector, Limit: limit, WithPayload: true}

	status, body, err := c.do(ctx, http.MethodPost, "/collections/"+url.PathEscape(name)+"/points/search", req)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", vectorstore.ErrCollectionNotFound, name)
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("searching %q: unexpected status %d", name, status)
	}

	var resp searchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decoding search response: %w", err)
	}

	results := make([]vectorstore.ScoredPoint, len(resp.Result))
	for i, r := range resp.Result {
		results[i] = vectorstore.ScoredPoint{
			Id:    core.ID(r.Id),
			Score: r.Score,
			Chunk: core.Chunk{
				Id:     core.ID(r.Id),
				Text:   r.Payload.Text,
				Source: r.Payload.Source,
				Seq:    r.Payload.Seq,
			},
		}
	}
	return results, nil
}

// do performs one HTTP exchange with retry on transient failures.
// Non-2xx statuses other than 429/5xx are returned to the caller for
// endpoint-specific handling.
func (c *Client) do(ctx context.Context, method, path string, body any) (int, []byte, error) {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return 0, nil, fmt.Errorf("encoding request: %w", err)
		}
	}

	var (
		status   int
		respBody []byte
	)
	err := retryWithBackoff(ctx, func() error {
		var reader io.Reader
		if payload != nil {
			reader = bytes.NewReader(payload)
		}

		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
		if err != nil {
			return err
		}
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("%w: %w", vectorstore.ErrUnavailable, err)
		}
		defer resp.Body.Close()

		respBody, err = io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("reading response: %w", err)
		}
		status = resp.StatusCode

		if status == http.StatusTooManyRequests || status >= http.StatusInternalServerError {
			return fmt.Errorf("%w: status %d", ErrTransient, status)
		}
		return nil
	}, c.maxRetries, c.retryBaseDelay, c.logger)

	if err != nil {
		return status, respBody, err
	}
	return status, respBody, nil
}
