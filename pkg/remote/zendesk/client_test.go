package zendesk

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/commercekit/chrome/pkg/search"
)

func TestSearchArticles(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v2/help_center/articles/search.json", r.URL.Path)
		assert.Equal(t, "refund policy", r.URL.Query().Get("query"))
		assert.Equal(t, "de", r.URL.Query().Get("locale"))
		assert.Equal(t, "5", r.URL.Query().Get("per_page"))
		w.Write([]byte(`{"results":[
			{"id":4412, "title":"Refunds", "html_url":"https://help.example.com/articles/4412", "snippet":"How refunds work"},
			{"id":9001, "title":"Returns", "html_url":"https://help.example.com/articles/9001", "snippet":"Return windows"}
		]}`))
	}))
	defer srv.Close()

	client := New(srv.URL)
	results, err := client.SearchArticles(context.Background(), "refund policy", "de")
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, search.TypeZendesk, results[0].Type)
	assert.Equal(t, "Refunds", results[0].Title)
	assert.Equal(t, "4412", results[0].ObjectID)
	assert.Equal(t, "How refunds work", results[0].Description)
	assert.True(t, results[0].OpenInNewTab)
}

func TestSearchArticlesDefaultsLocale(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "en-us", r.URL.Query().Get("locale"))
		w.Write([]byte(`{"results":[]}`))
	}))
	defer srv.Close()

	client := New(srv.URL)
	results, err := client.SearchArticles(context.Background(), "anything", "")
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearchArticlesServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := New(srv.URL)
	_, err := client.SearchArticles(context.Background(), "anything", "en-us")
	assert.Error(t, err)
}

func TestSearchArticlesPageSizeOption(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "3", r.URL.Query().Get("per_page"))
		w.Write([]byte(`{"results":[]}`))
	}))
	defer srv.Close()

	client := New(srv.URL, WithPageSize(3))
	_, err := client.SearchArticles(context.Background(), "anything", "en-us")
	require.NoError(t, err)
}
