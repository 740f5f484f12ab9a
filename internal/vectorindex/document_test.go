package vectorindex

import (
	"testing"
	"time"

	"github.com/mohammad-safakhou/newsrag/models"
	"github.com/mohammad-safakhou/newsrag/utils"
)

func TestBuildDocuments(t *testing.T) {
	published := time.Date(2025, 6, 11, 10, 0, 0, 0, time.UTC)
	rows := []models.ArticleWithFeatures{
		{
			Article: models.Article{
				URL:         "https://example.com/a",
				Title:       utils.Ptr("Troops enter capital"),
				PublishedAt: &published,
				FullContent: utils.Ptr("Troops began to occupy the capital."),
			},
			Features: &models.FeatureSet{
				People:             []string{"Ann", "Bob"},
				Locations:          []string{"Kyiv"},
				GeopoliticalGroups: []string{"NATO"},
				Sentiment:          -0.25,
			},
		},
		{Article: models.Article{URL: "https://example.com/b", FullContent: utils.Ptr(models.NotAvailable)}},
		{Article: models.Article{URL: "https://example.com/c", FullContent: utils.Ptr("   ")}},
		{Article: models.Article{URL: "https://example.com/d", FullContent: utils.Ptr("No features yet.")}},
	}

	docs := BuildDocuments(rows)
	if len(docs) != 2 {
		t.Fatalf("expected 2 documents, got %d", len(docs))
	}
	d := docs[0]
	if d.ID != DocumentID("https://example.com/a") || d.ID == DocumentID("https://example.com/d") {
		t.Fatalf("unexpected id %s", d.ID)
	}
	want := map[string]string{
		MetaTitle:              "Troops enter capital",
		MetaPeople:             "Ann, Bob",
		MetaOrganizations:      "",
		MetaLocations:          "Kyiv",
		MetaDates:              "",
		MetaGeopoliticalGroups: "NATO",
		MetaSentiment:          "-0.25",
	}
	if len(d.Metadata) != len(want) {
		t.Fatalf("metadata keys = %v, want exactly %d keys", d.Metadata, len(want))
	}
	for k, v := range want {
		got, ok := d.Metadata[k]
		if !ok || got != v {
			t.Errorf("metadata %s = %q, want %q", k, got, v)
		}
	}
	if d.URL != "https://example.com/a" || d.PublishedAt == nil || !d.PublishedAt.Equal(published) {
		t.Fatalf("source fields not carried: url=%q published=%v", d.URL, d.PublishedAt)
	}

	bare := docs[1]
	if len(bare.Metadata) != len(want) {
		t.Fatalf("bare metadata keys = %v", bare.Metadata)
	}
	if bare.Title() != "" || bare.Metadata[MetaSentiment] != "" || bare.PublishedAt != nil {
		t.Fatalf("missing values should be empty: %+v", bare.Metadata)
	}
}

func TestDocumentIDIsStable(t *testing.T) {
	if DocumentID("https://example.com/a") != DocumentID("https://example.com/a") {
		t.Fatalf("ids differ for the same url")
	}
}

func TestStoredFieldsRoundTrip(t *testing.T) {
	published := time.Date(2025, 6, 11, 10, 0, 0, 0, time.UTC)
	d := Document{
		ID:          "id-1",
		Content:     "body",
		URL:         "https://example.com/a",
		PublishedAt: &published,
		Metadata:    map[string]string{MetaTitle: "T", MetaSentiment: "0.5"},
	}
	got := documentFromFields(d.ID, d.storedFields())
	if got.Content != "body" || got.URL != d.URL || got.PublishedAt == nil || !got.PublishedAt.Equal(published) {
		t.Fatalf("unexpected document: %+v", got)
	}
	if len(got.Metadata) != 2 || got.Metadata[MetaTitle] != "T" || got.Metadata[MetaSentiment] != "0.5" {
		t.Fatalf("metadata should hold only the original keys: %v", got.Metadata)
	}
}
