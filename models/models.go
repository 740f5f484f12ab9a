package models

import (
	"errors"
	"time"
)

// ErrArticleNotFound is returned when an article is not found
var ErrArticleNotFound = errors.New("article not found")

// ErrFeatureSetNotFound is returned when an article has no stored feature set
var ErrFeatureSetNotFound = errors.New("feature set not found")

// NotAvailable is stored as full_content when the article body could not be fetched.
const NotAvailable = "not available"

// Article is one news item. URL is the unique key; every other field is optional
// and nil means the value was missing upstream.
type Article struct {
	ID          int64      `json:"id,omitempty"`
	URL         string     `json:"url"`
	Title       *string    `json:"title"`
	Author      *string    `json:"author"`
	Description *string    `json:"description"`
	SourceID    *string    `json:"source_id"`
	SourceName  *string    `json:"source_name"`
	PublishedAt *time.Time `json:"published_at"`
	FullContent *string    `json:"full_content"`
}

// Body returns the article text, or "" when the body is missing or was not fetched.
func (a Article) Body() string {
	if a.FullContent == nil || *a.FullContent == NotAvailable {
		return ""
	}
	return *a.FullContent
}

// FeatureSet holds the linguistic annotations derived from one article.
type FeatureSet struct {
	ID                 int64    `json:"id,omitempty"`
	ArticleID          int64    `json:"article_id,omitempty"`
	People             []string `json:"people"`
	Organizations      []string `json:"organizations"`
	Locations          []string `json:"locations"`
	Dates              []string `json:"dates"`
	GeopoliticalGroups []string `json:"geopolitical_groups"`
	EventSentences     []string `json:"event_sentences"`
	Sentiment          float64  `json:"sentiment"`
}

// Uninformative reports whether every collection is empty and the sentiment is neutral.
// Such feature sets are never persisted.
func (f FeatureSet) Uninformative() bool {
	return len(f.People) == 0 &&
		len(f.Organizations) == 0 &&
		len(f.Locations) == 0 &&
		len(f.Dates) == 0 &&
		len(f.GeopoliticalGroups) == 0 &&
		len(f.EventSentences) == 0 &&
		f.Sentiment == 0.0
}

// ArticleWithFeatures pairs an article with its feature set, if one was stored.
type ArticleWithFeatures struct {
	Article  Article     `json:"article"`
	Features *FeatureSet `json:"features,omitempty"`
}
