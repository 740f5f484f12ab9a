package helpers

import (
	"net/url"
	"strings"
	"time"
)

// FormatSource renders a retrieved article as a one-line reference:
// Title (domain, YYYY-MM-DD) <URL>
func FormatSource(title, rawURL string, published *time.Time) string {
	var parts []string
	if title = strings.TrimSpace(title); title != "" {
		parts = append(parts, title)
	}
	if domain := domainOf(rawURL); domain != "" {
		meta := domain
		if published != nil && !published.IsZero() {
			meta += ", " + published.Format("2006-01-02")
		}
		parts = append(parts, "("+meta+")")
	}
	if link := strings.TrimSpace(rawURL); link != "" {
		parts = append(parts, "<"+link+">")
	}
	return strings.Join(parts, " ")
}

func domainOf(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		return ""
	}
	return strings.TrimPrefix(stripDefaultPort(strings.ToLower(u.Scheme), strings.ToLower(u.Host)), "www.")
}
