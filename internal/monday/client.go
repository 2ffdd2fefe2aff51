// Package monday is a minimal client for the monday.com GraphQL API:
// board column metadata and cursor-paginated item listings.
package monday

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/ignite/orders-map/internal/config"
	"github.com/ignite/orders-map/internal/pkg/httpretry"
)

const columnsQuery = `
query ($boardId: [ID!]) {
  boards (ids: $boardId) {
    columns { id title type }
  }
}`

const itemsQuery = `
query ($boardId: [ID!], $cursor: String, $limit: Int!) {
  boards (ids: $boardId) {
    items_page (limit: $limit, cursor: $cursor) {
      cursor
      items {
        id
        name
        created_at
        updated_at
        column_values { id text value }
      }
    }
  }
}`

// maxPages caps the pagination loop so a misbehaving API cannot spin
// the fetcher forever.
const maxPages = 1000

// Client is the monday.com API client.
type Client struct {
	baseURL    string
	apiToken   string
	pageSize   int
	httpClient httpretry.HTTPDoer
}

// NewClient creates a new monday.com API client.
func NewClient(cfg config.MondayConfig) *Client {
	return &Client{
		baseURL:  cfg.BaseURL,
		apiToken: cfg.APIToken,
		pageSize: cfg.PageSize,
		httpClient: httpretry.NewRetryClient(&http.Client{
			Timeout: cfg.Timeout(),
		}, 3),
	}
}

// SetHTTPClient sets a custom HTTP client (useful for testing).
func (c *Client) SetHTTPClient(client httpretry.HTTPDoer) {
	c.httpClient = client
}

// do performs one authenticated GraphQL call and returns the "data"
// payload. Any transport error, non-2xx status, or non-empty GraphQL
// error list aborts the call.
func (c *Client) do(ctx context.Context, query string, variables map[string]any) (json.RawMessage, error) {
	body, err := json.Marshal(graphQLRequest{Query: query, Variables: variables})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", c.apiToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(respBody))
	}

	var envelope graphQLResponse
	if err := json.Unmarshal(respBody, &envelope); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if len(envelope.Errors) > 0 {
		return nil, fmt.Errorf("API returned %d error(s): %s", len(envelope.Errors), envelope.Errors[0].Message)
	}

	return envelope.Data, nil
}

// GetColumns retrieves the column metadata (id, title, type) for a board.
func (c *Client) GetColumns(ctx context.Context, boardID int64) ([]Column, error) {
	data, err := c.do(ctx, columnsQuery, map[string]any{"boardId": []int64{boardID}})
	if err != nil {
		return nil, err
	}

	var parsed columnsData
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse columns response: %w", err)
	}
	if len(parsed.Boards) == 0 {
		return nil, fmt.Errorf("board %d not found", boardID)
	}

	return parsed.Boards[0].Columns, nil
}

// ListItems retrieves all items of a board, following the items_page
// cursor until the API signals the final page with an empty cursor.
// A failure on any page aborts the whole listing; no partial result is
// returned.
func (c *Client) ListItems(ctx context.Context, boardID int64) ([]Item, error) {
	var all []Item
	var cursor *string

	for page := 0; page < maxPages; page++ {
		variables := map[string]any{
			"boardId": []int64{boardID},
			"limit":   c.pageSize,
			"cursor":  cursor,
		}

		data, err := c.do(ctx, itemsQuery, variables)
		if err != nil {
			return nil, fmt.Errorf("fetching items page %d: %w", page+1, err)
		}

		var parsed itemsData
		if err := json.Unmarshal(data, &parsed); err != nil {
			return nil, fmt.Errorf("failed to parse items response: %w", err)
		}
		if len(parsed.Boards) == 0 {
			return nil, fmt.Errorf("board %d not found", boardID)
		}

		pageData := parsed.Boards[0].ItemsPage
		all = append(all, pageData.Items...)

		if pageData.Cursor == nil || *pageData.Cursor == "" {
			return all, nil
		}
		cursor = pageData.Cursor
	}

	return nil, fmt.Errorf("pagination did not terminate after %d pages", maxPages)
}
