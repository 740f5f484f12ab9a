package vectorindex

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mohammad-safakhou/newsrag/models"
	"github.com/mohammad-safakhou/newsrag/utils"
)

// Metadata keys attached to every indexed document. No other key is written.
const (
	MetaTitle              = "title"
	MetaPeople             = "people"
	MetaOrganizations      = "organizations"
	MetaLocations          = "locations"
	MetaDates              = "dates"
	MetaGeopoliticalGroups = "geopolitical_groups"
	MetaSentiment          = "sentiment"
)

// Stored alongside the metadata so answers can cite their sources.
const (
	contentField   = "content"
	urlField       = "source_url"
	publishedField = "source_published_at"
)

// Document is the unit stored in an Index. URL and PublishedAt travel with the
// document but are not part of Metadata.
type Document struct {
	ID          string
	Content     string
	URL         string
	PublishedAt *time.Time
	Metadata    map[string]string
}

// Title returns the title metadata, or "" when the article had none.
func (d Document) Title() string { return d.Metadata[MetaTitle] }

func (d Document) storedFields() map[string]string {
	fields := make(map[string]string, len(d.Metadata)+3)
	for k, v := range d.Metadata {
		fields[k] = v
	}
	fields[contentField] = d.Content
	if d.URL != "" {
		fields[urlField] = d.URL
	}
	if d.PublishedAt != nil {
		fields[publishedField] = d.PublishedAt.UTC().Format(time.RFC3339)
	}
	return fields
}

func documentFromFields(id string, fields map[string]string) Document {
	doc := Document{ID: id, Metadata: map[string]string{}}
	for name, v := range fields {
		switch name {
		case contentField:
			doc.Content = v
		case urlField:
			doc.URL = v
		case publishedField:
			if t, err := time.Parse(time.RFC3339, v); err == nil {
				doc.PublishedAt = &t
			}
		default:
			doc.Metadata[name] = v
		}
	}
	return doc
}

// DocumentID derives a stable point id from the article URL so re-indexing overwrites.
func DocumentID(articleURL string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(articleURL)).String()
}

// BuildDocuments converts stored rows into index documents. Articles without a
// usable body are skipped.
func BuildDocuments(rows []models.ArticleWithFeatures) []Document {
	docs := make([]Document, 0, len(rows))
	for _, row := range rows {
		content := strings.TrimSpace(row.Article.Body())
		if content == "" {
			continue
		}
		meta := map[string]string{MetaTitle: utils.Deref(row.Article.Title)}
		fs := row.Features
		if fs == nil {
			fs = &models.FeatureSet{}
		}
		meta[MetaPeople] = strings.Join(fs.People, ", ")
		meta[MetaOrganizations] = strings.Join(fs.Organizations, ", ")
		meta[MetaLocations] = strings.Join(fs.Locations, ", ")
		meta[MetaDates] = strings.Join(fs.Dates, ", ")
		meta[MetaGeopoliticalGroups] = strings.Join(fs.GeopoliticalGroups, ", ")
		if row.Features != nil {
			meta[MetaSentiment] = strconv.FormatFloat(fs.Sentiment, 'f', -1, 64)
		} else {
			meta[MetaSentiment] = ""
		}
		docs = append(docs, Document{
			ID:          DocumentID(row.Article.URL),
			Content:     content,
			URL:         row.Article.URL,
			PublishedAt: row.Article.PublishedAt,
			Metadata:    meta,
		})
	}
	return docs
}
