package features

import (
	"fmt"
	"regexp"

	"github.com/jdkato/prose/v2"
)

// Entity is a span of text tagged by the NER model.
type Entity struct {
	Text  string
	Label string
}

// Annotations is what a feature model reports for one text. Models differ in
// the labels they emit; the extractor maps whichever ones it recognises.
type Annotations struct {
	Entities  []Entity
	Sentences []string
}

// Model annotates raw text with entities and sentence boundaries.
type Model interface {
	Annotate(text string) (Annotations, error)
}

// ModelFunc adapts a plain function to Model.
type ModelFunc func(text string) (Annotations, error)

func (f ModelFunc) Annotate(text string) (Annotations, error) { return f(text) }

// datePattern picks up calendar expressions the prose tagger does not label.
var datePattern = regexp.MustCompile(
	`\b(?:(?:Jan(?:uary)?|Feb(?:ruary)?|Mar(?:ch)?|Apr(?:il)?|May|June?|July?|Aug(?:ust)?|Sep(?:t(?:ember)?)?|Oct(?:ober)?|Nov(?:ember)?|Dec(?:ember)?)\.?(?:\s+\d{1,2}(?:st|nd|rd|th)?)?(?:,?\s+\d{4})?` +
		`|\d{1,2}\s+(?:January|February|March|April|May|June|July|August|September|October|November|December)(?:\s+\d{4})?` +
		`|(?:Monday|Tuesday|Wednesday|Thursday|Friday|Saturday|Sunday)` +
		`|(?:19|20)\d{2})\b`)

// ProseModel is the default Model, backed by the prose tokenizer, segmenter and
// named-entity tagger. Dates are matched separately since prose has no DATE label.
type ProseModel struct{}

func NewProseModel() *ProseModel { return &ProseModel{} }

func (m *ProseModel) Annotate(text string) (Annotations, error) {
	doc, err := prose.NewDocument(text)
	if err != nil {
		return Annotations{}, fmt.Errorf("prose document: %w", err)
	}
	var ann Annotations
	for _, ent := range doc.Entities() {
		ann.Entities = append(ann.Entities, Entity{Text: ent.Text, Label: ent.Label})
	}
	for _, d := range datePattern.FindAllString(text, -1) {
		ann.Entities = append(ann.Entities, Entity{Text: d, Label: "DATE"})
	}
	for _, s := range doc.Sentences() {
		ann.Sentences = append(ann.Sentences, s.Text)
	}
	return ann, nil
}
