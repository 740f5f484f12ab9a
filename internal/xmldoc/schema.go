package xmldoc

import (
	"bytes"
	"fmt"
	"strings"
	"sync"

	_ "embed"

	"github.com/antchfx/xmlquery"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/mohammad-safakhou/newsrag/models"
)

//go:embed article_schema.json
var articleSchemaJSON string

var (
	compileOnce   sync.Once
	articleSchema *jsonschema.Schema
	compileErr    error
)

// ArticleSchema returns the compiled structural schema for article documents.
func ArticleSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("article_schema.json", strings.NewReader(articleSchemaJSON)); err != nil {
			compileErr = fmt.Errorf("add schema resource: %w", err)
			return
		}
		schema, err := compiler.Compile("article_schema.json")
		if err != nil {
			compileErr = fmt.Errorf("compile article schema: %w", err)
			return
		}
		articleSchema = schema
	})
	return articleSchema, compileErr
}

// Validate checks element names, nesting and cardinality of doc.
//
// The element tree is mapped onto JSON values before validation: an element with
// child elements becomes an object keyed by child name, each key holding the list
// of same-named children; a leaf becomes its text, or null when marked null="true".
func Validate(doc []byte) error {
	schema, err := ArticleSchema()
	if err != nil {
		return err
	}
	parsed, err := xmlquery.Parse(bytes.NewReader(doc))
	if err != nil {
		return &models.ValidationError{Reason: "document is not well-formed XML", Err: err}
	}
	root := firstElement(parsed)
	if root == nil {
		return &models.ValidationError{Reason: "document has no root element"}
	}
	tree := map[string]interface{}{
		root.Data: []interface{}{toValue(root)},
	}
	if err := schema.Validate(tree); err != nil {
		return &models.ValidationError{Reason: "document does not match schema", Err: err}
	}
	return nil
}

func firstElement(n *xmlquery.Node) *xmlquery.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == xmlquery.ElementNode {
			return c
		}
	}
	return nil
}

func toValue(n *xmlquery.Node) interface{} {
	var children []*xmlquery.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == xmlquery.ElementNode {
			children = append(children, c)
		}
	}
	if len(children) == 0 {
		if n.SelectAttr("null") == "true" {
			return nil
		}
		return n.InnerText()
	}
	obj := make(map[string]interface{}, len(children))
	for _, c := range children {
		list, _ := obj[c.Data].([]interface{})
		obj[c.Data] = append(list, toValue(c))
	}
	return obj
}
