package models

import "fmt"

// FetchError is returned when an article body could not be retrieved or extracted.
type FetchError struct {
	URL string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// ValidationError means a serialized document failed the structural schema.
// It is fatal to the whole batch.
type ValidationError struct {
	Reason string
	Err    error
}

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("document validation failed: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("document validation failed: %s", e.Reason)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// PersistenceError wraps a failed (and rolled back) repository write.
type PersistenceError struct {
	Op  string
	Key string
	Err error
}

func (e *PersistenceError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("%s (%s): %v", e.Op, e.Key, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// ExtractionError is reported when the feature model fails on a text. The extractor
// degrades to an empty feature set instead of returning it to callers.
type ExtractionError struct {
	Err error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("feature extraction: %v", e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }
