// Package features derives entity buckets, conflict event sentences and a
// sentiment score from article text.
package features

import (
	"fmt"
	"log"
	"math"
	"regexp"
	"strings"

	"github.com/mohammad-safakhou/newsrag/models"
)

// ConflictVocabulary flags event sentences. Matching is a case-insensitive
// substring test, so "protests" and "strikes" count.
var ConflictVocabulary = []string{"attack", "bombard", "protest", "retreat", "occupy", "strike", "evacuate"}

// Scorer returns a polarity for text. Values outside [-1, 1] are clamped.
type Scorer interface {
	Score(text string) float64
}

// Extractor turns article bodies into feature sets.
type Extractor struct {
	model  Model
	scorer Scorer
	logger *log.Logger
}

// NewExtractor wires a model and scorer. Nil arguments fall back to the prose
// model, the VADER scorer and a prefixed default logger.
func NewExtractor(model Model, scorer Scorer, logger *log.Logger) *Extractor {
	if model == nil {
		model = NewProseModel()
	}
	if scorer == nil {
		scorer = NewVaderScorer()
	}
	if logger == nil {
		logger = log.New(log.Writer(), "[FEATURES] ", log.LstdFlags)
	}
	return &Extractor{model: model, scorer: scorer, logger: logger}
}

// Extract never fails. Empty text, the unavailable-body sentinel and model
// failures all produce an empty, neutral feature set.
func (e *Extractor) Extract(text string) (fs models.FeatureSet) {
	if strings.TrimSpace(text) == "" || text == models.NotAvailable {
		return models.FeatureSet{}
	}
	defer func() {
		if r := recover(); r != nil {
			e.logger.Printf("%v", &models.ExtractionError{Err: fmt.Errorf("panic: %v", r)})
			fs = models.FeatureSet{}
		}
	}()

	ann, err := e.model.Annotate(text)
	if err != nil {
		e.logger.Printf("%v", &models.ExtractionError{Err: err})
		return models.FeatureSet{}
	}

	for _, ent := range ann.Entities {
		value := strings.TrimSpace(ent.Text)
		switch strings.ToUpper(ent.Label) {
		case "PERSON", "PER":
			fs.People = append(fs.People, value)
		case "ORG", "ORGANIZATION":
			fs.Organizations = append(fs.Organizations, value)
			fs.GeopoliticalGroups = append(fs.GeopoliticalGroups, value)
		case "NORP":
			fs.GeopoliticalGroups = append(fs.GeopoliticalGroups, value)
		case "GPE", "LOC", "LOCATION":
			fs.Locations = append(fs.Locations, value)
		case "DATE":
			fs.Dates = append(fs.Dates, value)
		}
	}

	sentences := ann.Sentences
	if len(sentences) == 0 {
		sentences = SplitSentences(text)
	}
	fs.EventSentences = EventSentences(sentences)
	fs.Sentiment = clampPolarity(e.scorer.Score(text))
	return fs
}

// EventSentences keeps, in order, the sentences mentioning any conflict term.
func EventSentences(sentences []string) []string {
	var out []string
	for _, s := range sentences {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		lower := strings.ToLower(s)
		for _, term := range ConflictVocabulary {
			if strings.Contains(lower, term) {
				out = append(out, s)
				break
			}
		}
	}
	return out
}

var sentenceEnd = regexp.MustCompile(`[.!?]+["')\]]*(?:\s+|$)`)

// SplitSentences is a punctuation splitter used when the model reports no sentences.
func SplitSentences(text string) []string {
	var out []string
	start := 0
	for _, loc := range sentenceEnd.FindAllStringIndex(text, -1) {
		if s := strings.TrimSpace(text[start:loc[1]]); s != "" {
			out = append(out, s)
		}
		start = loc[1]
	}
	if s := strings.TrimSpace(text[start:]); s != "" {
		out = append(out, s)
	}
	return out
}

// Preprocess deduplicates the set-valued fields and drops empty entries. Event
// sentences and sentiment pass through untouched.
func Preprocess(fs models.FeatureSet) models.FeatureSet {
	fs.People = cleanSet(fs.People)
	fs.Organizations = cleanSet(fs.Organizations)
	fs.Locations = cleanSet(fs.Locations)
	fs.Dates = cleanSet(fs.Dates)
	fs.GeopoliticalGroups = cleanSet(fs.GeopoliticalGroups)
	return fs
}

func cleanSet(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func clampPolarity(v float64) float64 {
	switch {
	case math.IsNaN(v):
		return 0
	case v > 1:
		return 1
	case v < -1:
		return -1
	}
	return v
}
