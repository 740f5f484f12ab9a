package newsapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestEverything(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Api-Key") != "key" {
			t.Errorf("missing api key header")
		}
		q := r.URL.Query()
		if q.Get("q") != "Apple" || q.Get("sortBy") != "relevancy" || q.Get("pageSize") != "20" {
			t.Errorf("unexpected query: %s", r.URL.RawQuery)
		}
		if q.Has("page") || q.Has("to") {
			t.Errorf("zero values should be omitted: %s", r.URL.RawQuery)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
  "status": "ok",
  "totalResults": 2,
  "articles": [
    {"source": {"id": null, "name": "The Verge"}, "author": null, "title": "New chips",
     "description": "<p>Apple&#39;s new chips</p>", "url": "https://theverge.com/a",
     "publishedAt": "2025-06-11T10:00:00Z", "content": "Apple announced..."},
    {"source": {"id": "bbc-news", "name": "BBC News"}, "author": "BBC", "title": "Other",
     "description": null, "url": "https://bbc.co.uk/b", "publishedAt": null, "content": null}
  ]
}`))
	}))
	defer srv.Close()

	c := &Client{APIKey: "key", Endpoint: srv.URL, HTTP: srv.Client()}
	got, err := c.Everything(context.Background(), Query{Q: "Apple", SortBy: "relevancy", PageSize: 20})
	if err != nil {
		t.Fatalf("Everything: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 articles, got %d", len(got))
	}
	if got[0].Source.ID != nil || got[0].Author != nil {
		t.Fatalf("nulls should decode to nil: %+v", got[0])
	}
	if got[0].PublishedAt == nil || got[0].PublishedAt.Year() != 2025 {
		t.Fatalf("publishedAt not decoded: %v", got[0].PublishedAt)
	}
	if got[1].Source.ID == nil || *got[1].Source.ID != "bbc-news" || got[1].PublishedAt != nil {
		t.Fatalf("unexpected second article: %+v", got[1])
	}
}

func TestEverythingAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"status":"error","code":"apiKeyInvalid","message":"Your API key is invalid."}`))
	}))
	defer srv.Close()

	c := &Client{APIKey: "bad", Endpoint: srv.URL, HTTP: srv.Client()}
	_, err := c.Everything(context.Background(), Query{Q: "x"})
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusUnauthorized || apiErr.Code != "apiKeyInvalid" {
		t.Fatalf("unexpected api error: %+v", apiErr)
	}
}

func TestEverythingRequiresSelector(t *testing.T) {
	c := &Client{Endpoint: "http://unused"}
	if _, err := c.Everything(context.Background(), Query{Language: "en"}); err == nil {
		t.Fatalf("expected error without q, sources or domains")
	}
}
