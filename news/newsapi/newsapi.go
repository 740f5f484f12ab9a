package newsapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/mohammad-safakhou/newsrag/config"
)

// Article is one record of the /v2/everything response. NewsAPI sends null for
// missing values, so optional fields are pointers.
type Article struct {
	Source struct {
		ID   *string `json:"id"`
		Name *string `json:"name"`
	} `json:"source"`
	Author      *string    `json:"author"`
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	URL         string     `json:"url"`
	PublishedAt *time.Time `json:"publishedAt"`
	Content     *string    `json:"content"`
}

type response struct {
	Status       string    `json:"status"`
	Code         string    `json:"code"`
	Message      string    `json:"message"`
	TotalResults int       `json:"totalResults"`
	Articles     []Article `json:"articles"`
}

// Query holds the /v2/everything parameters. Zero values are left out.
type Query struct {
	Q        string
	Sources  string // comma separated source ids, e.g. "bbc-news,the-verge"
	Domains  string // comma separated domains, e.g. "bbc.co.uk,techcrunch.com"
	From     string // YYYY-MM-DD or RFC3339
	To       string
	Language string
	SortBy   string // relevancy, popularity or publishedAt
	Page     int
	PageSize int
}

// QueryFromConfig returns the default query configured under sources.newsapi.
func QueryFromConfig(cfg config.NewsAPIConfig) Query {
	return Query{
		Q:        cfg.Query,
		Sources:  cfg.Sources,
		Domains:  cfg.Domains,
		Language: cfg.Language,
		SortBy:   cfg.SortBy,
		PageSize: cfg.PageSize,
	}
}

func (q Query) values() url.Values {
	params := url.Values{}
	add := func(key, value string) {
		if v := strings.TrimSpace(value); v != "" {
			params.Set(key, v)
		}
	}
	add("q", q.Q)
	add("sources", q.Sources)
	add("domains", q.Domains)
	add("from", q.From)
	add("to", q.To)
	add("language", q.Language)
	add("sortBy", q.SortBy)
	if q.Page > 0 {
		params.Set("page", strconv.Itoa(q.Page))
	}
	if q.PageSize > 0 {
		params.Set("pageSize", strconv.Itoa(q.PageSize))
	}
	return params
}

// APIError is a non-ok NewsAPI response.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("newsapi error %d (%s): %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("newsapi error %d: %s", e.StatusCode, e.Message)
}

// Client calls the NewsAPI /v2/everything endpoint.
type Client struct {
	APIKey   string
	Endpoint string
	HTTP     *http.Client
}

func New(cfg config.NewsAPIConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		APIKey:   cfg.APIKey,
		Endpoint: cfg.Endpoint,
		HTTP:     &http.Client{Timeout: timeout},
	}
}

// Everything runs q and returns the articles of the requested page.
func (c *Client) Everything(ctx context.Context, q Query) ([]Article, error) {
	params := q.values()
	if params.Get("q") == "" && params.Get("sources") == "" && params.Get("domains") == "" {
		return nil, fmt.Errorf("newsapi query needs q, sources or domains")
	}
	reqURL := fmt.Sprintf("%s?%s", c.Endpoint, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-Api-Key", c.APIKey)
	req.Header.Set("Accept", "application/json")

	client := c.HTTP
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch news: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	var result response
	if err := json.Unmarshal(body, &result); err != nil {
		if resp.StatusCode != http.StatusOK {
			return nil, &APIError{StatusCode: resp.StatusCode, Message: resp.Status}
		}
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if resp.StatusCode != http.StatusOK || result.Status != "ok" {
		return nil, &APIError{StatusCode: resp.StatusCode, Code: result.Code, Message: result.Message}
	}
	return result.Articles, nil
}
