package websearch

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHTTPSearcherSearch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("q"); got != "golang fiber" {
			t.Errorf("query param q = %q, want %q", got, "golang fiber")
		}
		if got := r.Header.Get("X-API-Key"); got != "test-key" {
			t.Errorf("X-API-Key = %q, want %q", got, "test-key")
		}
		json.NewEncoder(w).Encode(SearchResult{
			SearchTimeMs: 42,
			Items: []SearchItem{
				{Title: "Fiber", Link: "https://gofiber.io", Snippet: "Express inspired web framework"},
				{Title: "Fiber docs", Link: "https://docs.gofiber.io", Snippet: "Documentation"},
			},
		})
	}))
	defer server.Close()

	searcher := NewHTTPSearcher(server.URL, "test-key", 5)
	result, err := searcher.Search(context.Background(), "golang fiber")
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}

	if result.Query != "golang fiber" {
		t.Errorf("Query = %q, want %q", result.Query, "golang fiber")
	}
	if result.SearchTimeMs != 42 {
		t.Errorf("SearchTimeMs = %d, want 42", result.SearchTimeMs)
	}
	if len(result.Items) != 2 {
		t.Fatalf("len(Items) = %d, want 2", len(result.Items))
	}
	if result.Items[0].Link != "https://gofiber.io" {
		t.Errorf("Items[0].Link = %q", result.Items[0].Link)
	}
}

func TestHTTPSearcherTruncatesToMaxResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(SearchResult{
			Items: []SearchItem{
				{Title: "a"}, {Title: "b"}, {Title: "c"}, {Title: "d"},
			},
		})
	}))
	defer server.Close()

	searcher := NewHTTPSearcher(server.URL, "", 2)
	result, err := searcher.Search(context.Background(), "anything")
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(result.Items) != 2 {
		t.Errorf("len(Items) = %d, want 2", len(result.Items))
	}
}

func TestHTTPSearcherErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer server.Close()

	searcher := NewHTTPSearcher(server.URL, "", 5)
	if _, err := searcher.Search(context.Background(), "anything"); err == nil {
		t.Fatal("Search() expected error on 429, got nil")
	}
}
