package vectorindex

import (
	"context"
	"fmt"
	"log"
	"sort"

	"github.com/mohammad-safakhou/newsrag/config"
)

// Index stores documents and returns the closest ones for a text query.
type Index interface {
	Add(ctx context.Context, docs []Document) error
	Query(ctx context.Context, text string, k int) ([]Match, error)
	Close() error
}

// Match is a query hit. Rank starts at 1.
type Match struct {
	Document
	Score float64
	Rank  int
}

const rrfK = 60 // reciprocal-rank-fusion constant

// FuseRRF merges ranked lists by reciprocal rank fusion and keeps the top k.
func FuseRRF(k int, lists ...[]Match) []Match {
	type agg struct {
		item  Match
		score float64
		first int
	}
	m := map[string]*agg{}
	order := 0
	for _, list := range lists {
		for i, h := range list {
			rank := h.Rank
			if rank <= 0 {
				rank = i + 1
			}
			x, ok := m[h.ID]
			if !ok {
				x = &agg{item: h, first: order}
				m[h.ID] = x
				order++
			}
			x.score += 1.0 / float64(rrfK+rank)
		}
	}
	items := make([]*agg, 0, len(m))
	for _, v := range m {
		items = append(items, v)
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].score != items[j].score {
			return items[i].score > items[j].score
		}
		return items[i].first < items[j].first
	})
	if k > 0 && len(items) > k {
		items = items[:k]
	}
	out := make([]Match, len(items))
	for i, x := range items {
		out[i] = x.item
		out[i].Score = x.score
		out[i].Rank = i + 1
	}
	return out
}

// Hybrid queries a keyword and a semantic index and fuses their rankings.
type Hybrid struct {
	Lexical  Index
	Semantic Index
}

func (h *Hybrid) Add(ctx context.Context, docs []Document) error {
	if err := h.Lexical.Add(ctx, docs); err != nil {
		return err
	}
	return h.Semantic.Add(ctx, docs)
}

func (h *Hybrid) Query(ctx context.Context, text string, k int) ([]Match, error) {
	lex, err := h.Lexical.Query(ctx, text, k)
	if err != nil {
		return nil, err
	}
	sem, err := h.Semantic.Query(ctx, text, k)
	if err != nil {
		return nil, err
	}
	return FuseRRF(k, lex, sem), nil
}

func (h *Hybrid) Close() error {
	err := h.Lexical.Close()
	if serr := h.Semantic.Close(); err == nil {
		err = serr
	}
	return err
}

// Open builds the index selected by cfg.Backend. The embedder is only used by
// the qdrant and hybrid backends.
func Open(ctx context.Context, cfg config.VectorConfig, embedder Embedder, logger *log.Logger) (Index, error) {
	if logger == nil {
		logger = log.New(log.Writer(), "[INDEX] ", log.LstdFlags)
	}
	cfg = cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	switch cfg.Backend {
	case "bleve":
		return OpenBleve(cfg.BlevePath)
	case "qdrant":
		return openQdrant(ctx, cfg, embedder)
	case "hybrid":
		lex, err := OpenBleve(cfg.BlevePath)
		if err != nil {
			return nil, err
		}
		sem, err := openQdrant(ctx, cfg, embedder)
		if err != nil {
			_ = lex.Close()
			return nil, err
		}
		logger.Printf("hybrid index: bleve %q + qdrant %s/%s", cfg.BlevePath, cfg.QdrantAddr, cfg.Collection)
		return &Hybrid{Lexical: lex, Semantic: sem}, nil
	default:
		return nil, fmt.Errorf("unknown vector backend %q", cfg.Backend)
	}
}

func openQdrant(ctx context.Context, cfg config.VectorConfig, embedder Embedder) (*QdrantIndex, error) {
	if embedder == nil {
		return nil, fmt.Errorf("vector backend %s needs an embedder", cfg.Backend)
	}
	idx, err := NewQdrant(cfg.QdrantAddr, cfg.Collection, cfg.Dimensions, embedder)
	if err != nil {
		return nil, err
	}
	if err := idx.EnsureCollection(ctx); err != nil {
		_ = idx.Close()
		return nil, err
	}
	return idx, nil
}
