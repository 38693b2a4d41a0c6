package notion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	BaseURL = "https://api.notion.com/v1"

	// APIVersion is sent as the Notion-Version header on every request
	APIVersion = "2022-06-28"

	queryPageSize = 100
)

// Client is a Notion API client scoped to one calendar database
type Client struct {
	token      string
	baseURL    string
	httpClient *http.Client
	databaseID string // Database holding the synced rows
	idProperty string // Property carrying the event identity
}

// NewClient creates a new Notion client
func NewClient(token string) *Client {
	return &Client{
		token:   token,
		baseURL: BaseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// IsConfigured returns true if the client has a token
func (c *Client) IsConfigured() bool {
	return c.token != ""
}

// SetBaseURL overrides the API endpoint (used by tests)
func (c *Client) SetBaseURL(url string) {
	c.baseURL = url
}

// SetDatabaseID sets the database to sync with
func (c *Client) SetDatabaseID(id string) {
	c.databaseID = id
}

// SetIDProperty sets the property name carrying the event identity
func (c *Client) SetIDProperty(name string) {
	c.idProperty = name
}

// doRequest performs an HTTP request with auth
func (c *Client) doRequest(ctx context.Context, method, path string, body interface{}) ([]byte, error) {
	var reqBody io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal body: %w", err)
		}
		reqBody = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Notion-Version", APIVersion)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("API error %d: %s", resp.StatusCode, string(respBody))
	}

	return respBody, nil
}

type searchRequest struct {
	Query  string       `json:"query"`
	Filter searchFilter `json:"filter"`
}

type searchFilter struct {
	Value    string `json:"value"`
	Property string `json:"property"`
}

type searchResponse struct {
	Results []Database `json:"results"`
}

// SearchDatabase finds a database by name. The first match wins.
func (c *Client) SearchDatabase(ctx context.Context, query string) (*Database, error) {
	req := searchRequest{
		Query:  query,
		Filter: searchFilter{Value: "database", Property: "object"},
	}

	data, err := c.doRequest(ctx, "POST", "/search", req)
	if err != nil {
		return nil, err
	}

	var resp searchResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("unmarshal search results: %w", err)
	}

	if len(resp.Results) == 0 {
		return nil, fmt.Errorf("no database matching %q", query)
	}

	return &resp.Results[0], nil
}

type queryRequest struct {
	Filter      *propertyFilter `json:"filter,omitempty"`
	StartCursor string          `json:"start_cursor,omitempty"`
	PageSize    int             `json:"page_size,omitempty"`
}

type propertyFilter struct {
	Property string     `json:"property"`
	RichText textFilter `json:"rich_text"`
}

type textFilter struct {
	IsNotEmpty bool `json:"is_not_empty"`
}

type queryResponse struct {
	Results    []Page `json:"results"`
	HasMore    bool   `json:"has_more"`
	NextCursor string `json:"next_cursor"`
}

// ListPages returns all pages of the database whose identity property is
// non-empty, following pagination cursors. Pages without an identity were
// created by hand and are none of our business.
func (c *Client) ListPages(ctx context.Context) ([]Page, error) {
	if c.databaseID == "" {
		return nil, fmt.Errorf("database ID not set")
	}

	var pages []Page
	cursor := ""

	for {
		req := queryRequest{
			Filter: &propertyFilter{
				Property: c.idProperty,
				RichText: textFilter{IsNotEmpty: true},
			},
			StartCursor: cursor,
			PageSize:    queryPageSize,
		}

		data, err := c.doRequest(ctx, "POST", "/databases/"+c.databaseID+"/query", req)
		if err != nil {
			return nil, err
		}

		var resp queryResponse
		if err := json.Unmarshal(data, &resp); err != nil {
			return nil, fmt.Errorf("unmarshal query results: %w", err)
		}

		pages = append(pages, resp.Results...)

		if !resp.HasMore || resp.NextCursor == "" {
			break
		}
		cursor = resp.NextCursor
	}

	return pages, nil
}

type createPageRequest struct {
	Parent     pageParent `json:"parent"`
	Properties Properties `json:"properties"`
}

type pageParent struct {
	DatabaseID string `json:"database_id"`
}

// CreatePage creates a new page in the database and returns its ID
func (c *Client) CreatePage(ctx context.Context, properties Properties) (string, error) {
	req := createPageRequest{
		Parent:     pageParent{DatabaseID: c.databaseID},
		Properties: properties,
	}

	data, err := c.doRequest(ctx, "POST", "/pages", req)
	if err != nil {
		return "", err
	}

	var page Page
	if err := json.Unmarshal(data, &page); err != nil {
		return "", fmt.Errorf("unmarshal page: %w", err)
	}

	return page.ID, nil
}

type updatePageRequest struct {
	Properties Properties `json:"properties"`
}

// UpdatePage overwrites the given properties of an existing page
func (c *Client) UpdatePage(ctx context.Context, pageID string, properties Properties) error {
	_, err := c.doRequest(ctx, "PATCH", "/pages/"+pageID, updatePageRequest{Properties: properties})
	return err
}
