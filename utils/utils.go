package utils

import "strings"

// Ptr returns a pointer to s.
func Ptr(s string) *string { return &s }

// NonEmpty returns nil for blank strings and a pointer to the trimmed value otherwise.
func NonEmpty(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// Deref returns the pointed-to string or "".
func Deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
