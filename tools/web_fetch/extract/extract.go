// Package extract pulls the main article text out of a rendered page.
package extract

import (
	"crypto/sha1"
	"encoding/hex"
	"net/url"
	"strings"
	"time"

	"github.com/go-shiori/go-readability"

	"github.com/mohammad-safakhou/newsrag/internal/helpers"
	"github.com/mohammad-safakhou/newsrag/tools/web_fetch/models"
)

// FromHTML runs readability over html and returns the article text capped at
// maxChars bytes.
func FromHTML(html, link string, maxChars int) (models.Result, error) {
	sum := sha1.Sum([]byte(html))
	res := models.Result{URL: link, HTMLHash: hex.EncodeToString(sum[:]), Status: 200}

	article, err := readability.FromReader(strings.NewReader(html), parseURL(link))
	if err != nil {
		return res, err
	}
	res.Title = strings.TrimSpace(article.Title)
	res.Byline = strings.TrimSpace(article.Byline)
	if article.PublishedTime != nil {
		res.PublishedAt = article.PublishedTime.UTC().Format(time.RFC3339)
	}
	res.Text = strings.TrimSpace(helpers.Truncate(strings.TrimSpace(article.TextContent), maxChars))
	return res, nil
}

func parseURL(raw string) *url.URL {
	u, err := url.Parse(raw)
	if err != nil {
		return &url.URL{}
	}
	return u
}
