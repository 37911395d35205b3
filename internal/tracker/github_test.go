package tracker

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kazz187/tracksync/pkg/cerr"
)

func TestCreateItem(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/repos/acme/demo/issues", r.URL.Path)
		require.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Fix login bug", body["title"])

		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]any{
			"number":   42,
			"html_url": "https://github.com/acme/demo/issues/42",
			"node_id":  "I_node42",
		})
	}))
	defer srv.Close()

	client := NewGitHub("test-token", WithBaseURL(srv.URL))
	ref, err := client.CreateItem(context.Background(), CollectionRef{Owner: "acme", Repo: "demo"}, ItemPayload{
		Title:  "Fix login bug",
		Body:   "details",
		Labels: []string{"taskmaster"},
	})
	require.NoError(t, err)
	assert.Equal(t, 42, ref.Number)
	assert.Equal(t, "https://github.com/acme/demo/issues/42", ref.URL)
	assert.Equal(t, "I_node42", ref.NodeID)
}

func TestStatusErrorMapping(t *testing.T) {
	tests := []struct {
		status int
		code   cerr.Code
	}{
		{http.StatusUnauthorized, cerr.Unauthenticated},
		{http.StatusForbidden, cerr.PermissionDenied},
		{http.StatusNotFound, cerr.NotFound},
		{http.StatusUnprocessableEntity, cerr.InvalidArgument},
		{http.StatusBadGateway, cerr.Unavailable},
	}

	for _, tt := range tests {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tt.status)
			json.NewEncoder(w).Encode(map[string]string{"message": "nope"})
		}))

		client := NewGitHub("t", WithBaseURL(srv.URL))
		_, err := client.CreateItem(context.Background(), CollectionRef{Owner: "a", Repo: "b"}, ItemPayload{Title: "x"})
		require.Error(t, err)
		assert.Truef(t, cerr.IsCode(err, tt.code), "status %d should map to %s, got %v", tt.status, tt.code, err)
		srv.Close()
	}
}

func TestAddItemToCollection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/graphql", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]any{
			"data": map[string]any{
				"addProjectV2ItemById": map[string]any{
					"item": map[string]any{"id": "PVTI_item1"},
				},
			},
		})
	}))
	defer srv.Close()

	client := NewGitHub("t", WithBaseURL(srv.URL))
	itemID, err := client.AddItemToCollection(context.Background(), "PVT_proj", "I_node1")
	require.NoError(t, err)
	assert.Equal(t, "PVTI_item1", itemID)
}

func TestGraphQLErrorMapping(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"errors": []map[string]string{
				{"type": "NOT_FOUND", "message": "could not resolve node"},
			},
		})
	}))
	defer srv.Close()

	client := NewGitHub("t", WithBaseURL(srv.URL))
	_, err := client.AddItemToCollection(context.Background(), "PVT_missing", "I_node1")
	require.Error(t, err)
	assert.True(t, cerr.IsCode(err, cerr.NotFound))
}

func TestListCollectionItemsPaginates(t *testing.T) {
	page := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		page++
		hasNext := page == 1
		items := []map[string]any{
			{"content": map[string]any{
				"number": page,
				"title":  "item",
				"state":  "open",
				"labels": map[string]any{"nodes": []map[string]string{{"name": "bug"}}},
			}},
			// Non-issue content (draft items) decodes to number 0 and is skipped.
			{"content": map[string]any{}},
		}
		json.NewEncoder(w).Encode(map[string]any{
			"data": map[string]any{
				"node": map[string]any{
					"items": map[string]any{
						"pageInfo": map[string]any{"hasNextPage": hasNext, "endCursor": "c1"},
						"nodes":    items,
					},
				},
			},
		})
	}))
	defer srv.Close()

	client := NewGitHub("t", WithBaseURL(srv.URL))
	items, err := client.ListCollectionItems(context.Background(), "PVT_proj")
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, 1, items[0].Number)
	assert.Equal(t, 2, items[1].Number)
	assert.Equal(t, []string{"bug"}, items[0].Labels)
	assert.Equal(t, 2, page)
}
