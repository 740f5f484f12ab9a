// Package xmldoc converts article batches to and from the XML document that sits
// on disk between the collect and prepare runs.
package xmldoc

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"
	"time"

	"github.com/antchfx/xmlquery"

	"github.com/mohammad-safakhou/newsrag/models"
)

// legacyNone is what older documents carry for a missing source id.
const legacyNone = "None"

type document struct {
	XMLName  xml.Name     `xml:"articles"`
	Articles []xmlArticle `xml:"article"`
}

type xmlArticle struct {
	URL         string    `xml:"url"`
	Title       field     `xml:"title"`
	Author      field     `xml:"author"`
	Description field     `xml:"description"`
	Source      xmlSource `xml:"source"`
	PublishedAt field     `xml:"published_at"`
	FullContent field     `xml:"full_content"`
}

type xmlSource struct {
	ID   field `xml:"id"`
	Name field `xml:"name"`
}

// field is always written, even when the value is missing, so every article has
// the same shape. Missing values carry null="true".
type field struct {
	Null  string `xml:"null,attr,omitempty"`
	Value string `xml:",chardata"`
}

func fieldOf(p *string) field {
	if p == nil {
		return field{Null: "true"}
	}
	return field{Value: xmlText(*p)}
}

// xmlText drops runes XML 1.0 cannot carry, such as most C0 control characters.
func xmlText(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r == '\t' || r == '\n' || r == '\r':
			return r
		case r >= 0x20 && r <= 0xD7FF, r >= 0xE000 && r <= 0xFFFD, r >= 0x10000 && r <= 0x10FFFF:
			return r
		}
		return -1
	}, s)
}

// Serialize renders articles as an indented <articles> document. Characters
// that XML 1.0 forbids (vertical tab, form feed, NUL and the other C0 controls
// apart from tab, newline and carriage return) are removed rather than written.
func Serialize(articles []models.Article) ([]byte, error) {
	doc := document{Articles: make([]xmlArticle, 0, len(articles))}
	for i, a := range articles {
		if strings.TrimSpace(a.URL) == "" {
			return nil, fmt.Errorf("serialize article %d: url is required", i)
		}
		var published field
		if a.PublishedAt != nil {
			published = field{Value: a.PublishedAt.UTC().Format(time.RFC3339)}
		} else {
			published = field{Null: "true"}
		}
		doc.Articles = append(doc.Articles, xmlArticle{
			URL:         xmlText(a.URL),
			Title:       fieldOf(a.Title),
			Author:      fieldOf(a.Author),
			Description: fieldOf(a.Description),
			Source: xmlSource{
				ID:   fieldOf(a.SourceID),
				Name: fieldOf(a.SourceName),
			},
			PublishedAt: published,
			FullContent: fieldOf(a.FullContent),
		})
	}
	out, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal articles: %w", err)
	}
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	buf.Write(out)
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// Deserialize reads every <article> of doc. It does not validate; fields that are
// absent or marked null decode to nil.
func Deserialize(doc []byte) ([]models.Article, error) {
	root, err := xmlquery.Parse(bytes.NewReader(doc))
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}
	nodes := xmlquery.Find(root, "//article")
	articles := make([]models.Article, 0, len(nodes))
	for _, n := range nodes {
		a := models.Article{
			Title:       optional(n, "./title"),
			Author:      optional(n, "./author"),
			Description: optional(n, "./description"),
			SourceName:  optional(n, "./source/name"),
			FullContent: optional(n, "./full_content"),
		}
		if u := optional(n, "./url"); u != nil {
			a.URL = strings.TrimSpace(*u)
		}
		if id := optional(n, "./source/id"); id != nil && *id != legacyNone {
			a.SourceID = id
		}
		if ts := optional(n, "./published_at"); ts != nil {
			if t, err := time.Parse(time.RFC3339, strings.TrimSpace(*ts)); err == nil {
				a.PublishedAt = &t
			}
		}
		articles = append(articles, a)
	}
	return articles, nil
}

// Decode validates doc and then deserializes it. Schema failures are returned as
// *models.ValidationError.
func Decode(doc []byte) ([]models.Article, error) {
	if err := Validate(doc); err != nil {
		return nil, err
	}
	return Deserialize(doc)
}

func optional(n *xmlquery.Node, expr string) *string {
	node := xmlquery.FindOne(n, expr)
	if node == nil || node.SelectAttr("null") == "true" {
		return nil
	}
	v := node.InnerText()
	return &v
}
