package helpers

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/url"
	"path"
	"sort"
	"strings"
)

// trackingParams are query keys that never change which article a URL points to.
var trackingParams = map[string]struct{}{
	"gclid": {}, "dclid": {}, "fbclid": {}, "msclkid": {}, "igshid": {},
	"mc_cid": {}, "mc_eid": {}, "ocid": {}, "cmpid": {}, "smid": {},
}

func isTrackingParam(key string) bool {
	key = strings.ToLower(key)
	if strings.HasPrefix(key, "utm_") {
		return true
	}
	_, ok := trackingParams[key]
	return ok
}

// CanonicalURL normalises an article URL so that the same story reached through
// different links compares equal. Scheme and host are lowercased, default ports,
// fragments and tracking parameters dropped, the path cleaned and the remaining
// query sorted. A missing scheme defaults to https.
func CanonicalURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", errors.New("empty url")
	}
	u, err := parseLoose(raw)
	if err != nil {
		return "", err
	}
	u.Scheme = strings.ToLower(u.Scheme)
	if u.Scheme == "" {
		u.Scheme = "https"
	}
	u.Host = stripDefaultPort(u.Scheme, strings.ToLower(u.Host))
	if u.Host == "" {
		return "", errors.New("url missing host")
	}
	u.Path = cleanPath(u.Path)
	u.RawPath = ""
	u.Fragment = ""
	u.RawQuery = canonicalQuery(u.Query())
	return u.String(), nil
}

// ArticleKey is the dedupe key for an article URL: its canonical form, or the
// trimmed input when it cannot be parsed.
func ArticleKey(raw string) string {
	if canonical, err := CanonicalURL(raw); err == nil {
		return canonical
	}
	return strings.TrimSpace(raw)
}

// URLFingerprint returns a deterministic SHA-256 hex digest derived from the canonical URL.
func URLFingerprint(raw string) (string, error) {
	canonical, err := CanonicalURL(raw)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256([]byte(canonical))
	return hex.EncodeToString(sum[:]), nil
}

func parseLoose(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	if u.Scheme != "" || u.Host != "" {
		return u, nil
	}
	if strings.HasPrefix(raw, "//") {
		return url.Parse("https:" + raw)
	}
	return url.Parse("https://" + raw)
}

func stripDefaultPort(scheme, host string) string {
	h, port, found := strings.Cut(host, ":")
	if !found {
		return host
	}
	if (scheme == "http" && port == "80") || (scheme == "https" && port == "443") {
		return h
	}
	return host
}

func cleanPath(p string) string {
	if p == "" {
		return "/"
	}
	cleaned := path.Clean("/" + p)
	if cleaned != "/" && strings.HasSuffix(p, "/") {
		cleaned += "/"
	}
	return cleaned
}

func canonicalQuery(q url.Values) string {
	keys := make([]string, 0, len(q))
	for key := range q {
		if !isTrackingParam(key) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	var b strings.Builder
	for _, key := range keys {
		values := append([]string(nil), q[key]...)
		sort.Strings(values)
		for _, v := range values {
			if b.Len() > 0 {
				b.WriteByte('&')
			}
			b.WriteString(url.QueryEscape(key))
			if v != "" {
				b.WriteByte('=')
				b.WriteString(url.QueryEscape(v))
			}
		}
	}
	return b.String()
}
