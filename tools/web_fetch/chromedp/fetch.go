// Package chromedp renders article pages in headless Chrome before extraction.
package chromedp

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/mohammad-safakhou/newsrag/tools/web_fetch/extract"
	"github.com/mohammad-safakhou/newsrag/tools/web_fetch/models"
)

// Fetch owns a long-lived browser; every Exec opens a fresh tab in it.
// Construct with New and call Close on shutdown.
type Fetch struct {
	Timeout  time.Duration
	MaxChars int

	cancelAlloc   context.CancelFunc
	browserCtx    context.Context
	cancelBrowser context.CancelFunc
}

func New(timeout time.Duration, maxChars int, userAgent string) *Fetch {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
	)
	if userAgent != "" {
		opts = append(opts, chromedp.UserAgent(userAgent))
	}
	actx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), opts...)
	bctx, cancelBrowser := chromedp.NewContext(actx)
	return &Fetch{
		Timeout:       timeout,
		MaxChars:      maxChars,
		cancelAlloc:   cancelAlloc,
		browserCtx:    bctx,
		cancelBrowser: cancelBrowser,
	}
}

// Close tears down Chrome resources.
func (f *Fetch) Close() error {
	if f.cancelBrowser != nil {
		f.cancelBrowser()
	}
	if f.cancelAlloc != nil {
		f.cancelAlloc()
	}
	return nil
}

func (f *Fetch) Exec(ctx context.Context, url string) (models.Result, error) {
	if strings.TrimSpace(url) == "" {
		return models.Result{}, errors.New("invalid url")
	}
	t0 := time.Now()
	html, err := f.outerHTML(ctx, url)
	if err != nil {
		return models.Result{URL: url, Status: 599, RenderMS: int(time.Since(t0) / time.Millisecond)}, err
	}
	res, err := extract.FromHTML(html, url, f.MaxChars)
	res.RenderMS = int(time.Since(t0) / time.Millisecond)
	return res, err
}

func (f *Fetch) outerHTML(ctx context.Context, url string) (string, error) {
	tabCtx, cancelTab := chromedp.NewContext(f.browserCtx)
	defer cancelTab()
	if f.Timeout > 0 {
		var cancel context.CancelFunc
		tabCtx, cancel = context.WithTimeout(tabCtx, f.Timeout)
		defer cancel()
	}
	stop := context.AfterFunc(ctx, cancelTab)
	defer stop()

	var html string
	err := chromedp.Run(tabCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	return html, err
}
