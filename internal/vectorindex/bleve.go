package vectorindex

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/blevesearch/bleve"
)

// BleveIndex is a keyword (BM25-style) index. With an empty path it lives in memory.
type BleveIndex struct {
	index bleve.Index
}

// OpenBleve opens the index at path, creating it when missing.
func OpenBleve(path string) (*BleveIndex, error) {
	if strings.TrimSpace(path) == "" {
		idx, err := bleve.NewMemOnly(bleve.NewIndexMapping())
		if err != nil {
			return nil, err
		}
		return &BleveIndex{index: idx}, nil
	}
	idx, err := bleve.Open(path)
	if errors.Is(err, bleve.ErrorIndexPathDoesNotExist) {
		idx, err = bleve.New(path, bleve.NewIndexMapping())
	}
	if err != nil {
		return nil, fmt.Errorf("open bleve index %s: %w", path, err)
	}
	return &BleveIndex{index: idx}, nil
}

func (b *BleveIndex) Add(ctx context.Context, docs []Document) error {
	if len(docs) == 0 {
		return nil
	}
	batch := b.index.NewBatch()
	for _, d := range docs {
		if err := ctx.Err(); err != nil {
			return err
		}
		stored := d.storedFields()
		fields := make(map[string]interface{}, len(stored))
		for k, v := range stored {
			fields[k] = v
		}
		if err := batch.Index(d.ID, fields); err != nil {
			return fmt.Errorf("index %s: %w", d.ID, err)
		}
	}
	return b.index.Batch(batch)
}

func (b *BleveIndex) Query(ctx context.Context, text string, k int) ([]Match, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	if k <= 0 {
		k = 4
	}
	req := bleve.NewSearchRequestOptions(bleve.NewMatchQuery(text), k, 0, false)
	req.Fields = []string{"*"}
	res, err := b.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, err
	}
	out := make([]Match, 0, len(res.Hits))
	for i, hit := range res.Hits {
		fields := make(map[string]string, len(hit.Fields))
		for name, v := range hit.Fields {
			if s, ok := v.(string); ok {
				fields[name] = s
			}
		}
		out = append(out, Match{Document: documentFromFields(hit.ID, fields), Score: hit.Score, Rank: i + 1})
	}
	return out, nil
}

// Count returns the number of indexed documents.
func (b *BleveIndex) Count() (uint64, error) { return b.index.DocCount() }

func (b *BleveIndex) Close() error { return b.index.Close() }
