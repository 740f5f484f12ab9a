package web_fetch

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/mohammad-safakhou/newsrag/config"
	appmodels "github.com/mohammad-safakhou/newsrag/models"
	"github.com/mohammad-safakhou/newsrag/tools/web_fetch/chromedp"
	"github.com/mohammad-safakhou/newsrag/tools/web_fetch/models"
	"github.com/mohammad-safakhou/newsrag/tools/web_fetch/readable"
)

const (
	DefaultTimeout   = 15 * time.Second
	MaxCharsDefault  = 20000
	DefaultUserAgent = "newsrag/1.0 (+https://github.com/mohammad-safakhou/newsrag)"
)

type WebFetcher interface {
	Exec(ctx context.Context, url string) (models.Result, error)
}

type FetcherType string

const (
	HTTPFetcherType     FetcherType = "http"
	ChromedpFetcherType FetcherType = "chromedp"
)

// Error reports a fetcher misconfiguration.
type Error struct {
	Message string
}

func (e *Error) Error() string { return "web_fetch: " + e.Message }

// NewWebFetcher builds the fetcher selected by cfg.Type. The returned closer
// releases browser resources and is a no-op for the http fetcher.
func NewWebFetcher(cfg config.FetchConfig) (WebFetcher, func() error, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	maxChars := cfg.MaxChars
	if maxChars <= 0 {
		maxChars = MaxCharsDefault
	}
	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}

	switch FetcherType(cfg.Type) {
	case HTTPFetcherType, "":
		f := readable.Fetch{
			Client:    &http.Client{Timeout: timeout},
			Timeout:   timeout,
			MaxChars:  maxChars,
			UserAgent: userAgent,
		}
		return f, func() error { return nil }, nil
	case ChromedpFetcherType:
		f := chromedp.New(timeout, maxChars, userAgent)
		return f, f.Close, nil
	default:
		return nil, nil, &Error{"unsupported fetcher type " + cfg.Type}
	}
}

// ErrEmptyBody is wrapped in a FetchError when a page yields no article text.
var ErrEmptyBody = errors.New("no article text extracted")

// Body fetches url and returns its article text. Every failure, including a page
// without extractable text, is a *models.FetchError.
func Body(ctx context.Context, f WebFetcher, url string) (string, error) {
	res, err := f.Exec(ctx, url)
	if err != nil {
		return "", &appmodels.FetchError{URL: url, Err: err}
	}
	if !res.OK() {
		return "", &appmodels.FetchError{URL: url, Err: ErrEmptyBody}
	}
	return res.Text, nil
}
