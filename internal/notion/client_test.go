package notion

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(t *testing.T, handler http.Handler) *Client {
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := NewClient("secret-token")
	client.SetBaseURL(server.URL)
	return client
}

func TestSearchDatabase(t *testing.T) {
	var gotAuth, gotVersion string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "POST", r.Method)
		require.Equal(t, "/search", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		gotVersion = r.Header.Get("Notion-Version")

		var req searchRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "Calendar", req.Query)
		assert.Equal(t, "database", req.Filter.Value)

		fmt.Fprint(w, `{"results": [{"id": "db-1", "properties": {
			"Name": {"id": "title", "type": "title"},
			"Event ID": {"id": "abcd", "type": "rich_text"},
			"Date": {"id": "efgh", "type": "date"}
		}}]}`)
	})

	client := testClient(t, handler)
	db, err := client.SearchDatabase(context.Background(), "Calendar")

	require.NoError(t, err)
	assert.Equal(t, "db-1", db.ID)
	assert.Equal(t, "Bearer secret-token", gotAuth)
	assert.Equal(t, APIVersion, gotVersion)

	title, ok := db.TitleProperty()
	require.True(t, ok)
	assert.Equal(t, "Name", title)
}

func TestSearchDatabase_NoMatch(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"results": []}`)
	})

	client := testClient(t, handler)
	_, err := client.SearchDatabase(context.Background(), "Missing")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "no database matching")
}

func TestListPages_FollowsPagination(t *testing.T) {
	var cursors []string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/databases/db-1/query", r.URL.Path)

		var req queryRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.NotNil(t, req.Filter)
		assert.Equal(t, "Event ID", req.Filter.Property)
		assert.True(t, req.Filter.RichText.IsNotEmpty)
		cursors = append(cursors, req.StartCursor)

		if req.StartCursor == "" {
			fmt.Fprint(w, `{"results": [{"id": "page-1", "properties": {}}], "has_more": true, "next_cursor": "c2"}`)
			return
		}
		fmt.Fprint(w, `{"results": [{"id": "page-2", "properties": {}}], "has_more": false}`)
	})

	client := testClient(t, handler)
	client.SetDatabaseID("db-1")
	client.SetIDProperty("Event ID")

	pages, err := client.ListPages(context.Background())

	require.NoError(t, err)
	require.Len(t, pages, 2)
	assert.Equal(t, "page-1", pages[0].ID)
	assert.Equal(t, "page-2", pages[1].ID)
	assert.Equal(t, []string{"", "c2"}, cursors)
}

func TestListPages_ParsesProperties(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"results": [{"id": "page-1", "properties": {
			"Name": {"type": "title", "title": [{"plain_text": "Stand"}, {"plain_text": "up"}]},
			"Event ID": {"type": "rich_text", "rich_text": [{"plain_text": "ev-1"}]},
			"Date": {"type": "date", "date": {"start": "2026-03-02T09:00:00.000+00:00", "end": null}}
		}}], "has_more": false}`)
	})

	client := testClient(t, handler)
	client.SetDatabaseID("db-1")
	client.SetIDProperty("Event ID")

	pages, err := client.ListPages(context.Background())

	require.NoError(t, err)
	require.Len(t, pages, 1)
	page := pages[0]
	assert.Equal(t, "Standup", page.Properties["Name"].PlainText())
	assert.Equal(t, "ev-1", page.Properties["Event ID"].PlainText())
	require.NotNil(t, page.Properties["Date"].Date)
	assert.Equal(t, "2026-03-02T09:00:00.000+00:00", page.Properties["Date"].Date.Start)
}

func TestCreatePage(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "POST", r.Method)
		require.Equal(t, "/pages", r.URL.Path)

		var req createPageRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "db-1", req.Parent.DatabaseID)

		fmt.Fprint(w, `{"id": "page-9"}`)
	})

	client := testClient(t, handler)
	client.SetDatabaseID("db-1")

	id, err := client.CreatePage(context.Background(), Properties{
		"Name":     NewTitle("Standup"),
		"Event ID": NewText("ev-1"),
		"Date":     NewDate(DateValue{Start: "2026-03-02T09:00:00Z"}),
	})

	require.NoError(t, err)
	assert.Equal(t, "page-9", id)
}

func TestUpdatePage(t *testing.T) {
	var gotBody map[string]json.RawMessage
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "PATCH", r.Method)
		require.Equal(t, "/pages/page-9", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		fmt.Fprint(w, `{"id": "page-9"}`)
	})

	client := testClient(t, handler)
	client.SetDatabaseID("db-1")

	err := client.UpdatePage(context.Background(), "page-9", Properties{
		"Location": NewText(""),
	})

	require.NoError(t, err)
	// An empty text value must be sent as an empty array, that is what
	// clears a stale property
	assert.JSONEq(t, `{"Location": {"rich_text": []}}`, string(gotBody["properties"]))
}

func TestDoRequest_APIError(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"code": "validation_error"}`)
	})

	client := testClient(t, handler)
	client.SetDatabaseID("db-1")

	_, err := client.CreatePage(context.Background(), Properties{})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "API error 400")
	assert.Contains(t, err.Error(), "validation_error")
}
