package notion

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"shelflife/internal/metrics"
)

const (
	defaultBaseURL = "https://api.notion.com"
	apiVersion     = "2022-06-28"

	// The hosted API allows an average of three requests per second.
	requestsPerSecond = 3
)

// ErrNotConfigured is returned when the direct-query path is used without the
// required credentials. This is a fatal configuration error for that path.
var ErrNotConfigured = errors.New("notion: NOTION_API_KEY or NOTION_DATABASE_ID is not set")

// Client is a minimal HTTP client for the content database API. All calls are
// rate limited client side and carry the pinned API version header.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	databaseID string
	limiter    *rate.Limiter
	logger     *log.Logger
}

func NewClient(apiKey, databaseID string, logger *log.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout:   5 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				TLSHandshakeTimeout: 5 * time.Second,
				MaxIdleConns:        10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		baseURL:    defaultBaseURL,
		apiKey:     apiKey,
		databaseID: databaseID,
		limiter:    rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond),
		logger:     logger,
	}
}

// Configured reports whether the direct-query path can be used.
func (c *Client) Configured() bool {
	return c != nil && c.apiKey != "" && c.databaseID != ""
}

// QueryDatabase runs a filtered, sorted query against the configured database.
func (c *Client) QueryDatabase(ctx context.Context, filter Filter, sorts []Sort, pageSize int) ([]Page, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}
	req := queryRequest{Filter: filter, Sorts: sorts, PageSize: pageSize}
	var resp queryResponse
	path := fmt.Sprintf("/v1/databases/%s/query", c.databaseID)
	if err := c.do(ctx, http.MethodPost, path, req, &resp); err != nil {
		return nil, fmt.Errorf("query database: %w", err)
	}
	return resp.Results, nil
}

// RetrieveDatabase fetches the database definition, used for facet options.
func (c *Client) RetrieveDatabase(ctx context.Context) (*Database, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}
	var db Database
	path := fmt.Sprintf("/v1/databases/%s", c.databaseID)
	if err := c.do(ctx, http.MethodGet, path, nil, &db); err != nil {
		return nil, fmt.Errorf("retrieve database: %w", err)
	}
	return &db, nil
}

// CreatePage creates a record in the configured database.
func (c *Client) CreatePage(ctx context.Context, properties map[string]any) (*Page, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}
	body := map[string]any{
		"parent":     map[string]any{"database_id": c.databaseID},
		"properties": properties,
	}
	var page Page
	if err := c.do(ctx, http.MethodPost, "/v1/pages", body, &page); err != nil {
		return nil, fmt.Errorf("create page: %w", err)
	}
	return &page, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Notion-Version", apiVersion)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.NotionRequests.WithLabelValues("error").Inc()
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		metrics.NotionRequests.WithLabelValues("error").Inc()
		var apiErr apiError
		if json.Unmarshal(raw, &apiErr) == nil && apiErr.Message != "" {
			return fmt.Errorf("api error %d (%s): %s", resp.StatusCode, apiErr.Code, apiErr.Message)
		}
		return fmt.Errorf("api error %d", resp.StatusCode)
	}
	metrics.NotionRequests.WithLabelValues("ok").Inc()

	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}
