// Package upstream is the client for the remote inventory API. The API is
// external and fixed: single-day dashboard queries, a category catalogue,
// and a bulk expiry-entry save endpoint.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/daeun-oh/kihan/internal/model"
)

// DefaultBaseURL is the deployed inventory API.
const DefaultBaseURL = "https://inventory-api-231876330057.asia-northeast3.run.app"

// Client talks to the remote inventory API.
//
// Dashboard reads are partial-failure tolerant: a non-2xx status or an
// unparseable body yields empty rows and a nil error, so one bad day never
// aborts a whole range aggregate. Transport errors (including context
// cancellation) do propagate.
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

// New creates a client for the given base URL, falling back to the
// deployed API when empty.
func New(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		BaseURL: baseURL,
		HTTP:    &http.Client{Timeout: 30 * time.Second},
	}
}

// scopeQuery builds the day+scope query parameters shared by the two
// dashboard endpoints. A selected store always wins over a region: the
// two are never sent together.
func scopeQuery(date, region, storeCode string) url.Values {
	q := url.Values{}
	if date != "" {
		q.Set("input_date", date)
	}
	if storeCode != "" {
		q.Set("store_code", storeCode)
	} else if region != "" {
		q.Set("region", region)
	}
	return q
}

// Summary fetches the per-store summary rows for one day and scope.
func (c *Client) Summary(ctx context.Context, date, region, storeCode string) ([]model.SummaryRow, error) {
	var body struct {
		Rows []model.SummaryRow `json:"rows"`
	}
	if err := c.getRows(ctx, "/api/dashboard/summary", scopeQuery(date, region, storeCode), &body); err != nil {
		return nil, err
	}
	return body.Rows, nil
}

// Items fetches the expiring-material rows for one day and scope. The
// category filter applies to items only, never to summaries.
func (c *Client) Items(ctx context.Context, date, region, storeCode, category string) ([]model.ItemRow, error) {
	q := scopeQuery(date, region, storeCode)
	if category != "" {
		q.Set("category", category)
	}

	var body struct {
		Rows []model.ItemRow `json:"rows"`
	}
	if err := c.getRows(ctx, "/api/dashboard/items", q, &body); err != nil {
		return nil, err
	}
	return body.Rows, nil
}

// getRows performs a dashboard read. Decode failures and error statuses
// leave the target untouched (empty rows) and return nil.
func (c *Client) getRows(ctx context.Context, path string, q url.Values, target any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("requesting %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		slog.Warn("upstream returned error status", "path", path, "status", resp.StatusCode)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		slog.Warn("upstream returned bad payload", "path", path, "error", err)
	}
	return nil
}

// Categories fetches the material catalogue. Unlike the dashboard reads,
// failures surface as errors so the caller can fall back to its cache.
func (c *Client) Categories(ctx context.Context) ([]model.Category, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/categories", nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("requesting categories: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("categories request failed: status %d", resp.StatusCode)
	}

	var body struct {
		Categories []model.Category `json:"categories"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decoding categories: %w", err)
	}
	return body.Categories, nil
}

// BulkResult is the upstream response to a bulk save.
type BulkResult struct {
	OK    bool   `json:"ok"`
	Count int    `json:"count"`
	Error string `json:"error"`
}

// BulkSave submits a store's confirmed entries for one input date.
func (c *Client) BulkSave(ctx context.Context, storeCode, inputDate string, entries []model.ExpiryEntry) (*BulkResult, error) {
	payload, err := json.Marshal(map[string]any{
		"store_code": storeCode,
		"input_date": inputDate,
		"entries":    entries,
	})
	if err != nil {
		return nil, fmt.Errorf("encoding bulk save: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.BaseURL+"/api/expiry-entries/bulk", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("saving entries: %w", err)
	}
	defer resp.Body.Close()

	var result BulkResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		result = BulkResult{}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 || !result.OK {
		if result.Error == "" {
			result.Error = fmt.Sprintf("save failed: status %d", resp.StatusCode)
		}
		result.OK = false
	}
	return &result, nil
}
