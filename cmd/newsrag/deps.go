package main

import (
	"context"
	"fmt"
	"log"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/mohammad-safakhou/newsrag/config"
	"github.com/mohammad-safakhou/newsrag/internal/features"
	"github.com/mohammad-safakhou/newsrag/internal/pipeline"
	"github.com/mohammad-safakhou/newsrag/internal/rag"
	"github.com/mohammad-safakhou/newsrag/internal/store"
	"github.com/mohammad-safakhou/newsrag/internal/vectorindex"
	"github.com/mohammad-safakhou/newsrag/news"
	"github.com/mohammad-safakhou/newsrag/news/newsapi"
	"github.com/mohammad-safakhou/newsrag/tools/web_fetch"
)

func openStore(ctx context.Context, cfg *config.Config) (*store.Store, error) {
	if err := cfg.Storage.Postgres.Validate(); err != nil {
		return nil, err
	}
	return store.New(ctx, cfg.Storage.Postgres)
}

func newCollector(cfg *config.Config) (*news.Collector, func() error, error) {
	fetcher, closeFetcher, err := web_fetch.NewWebFetcher(cfg.Fetch)
	if err != nil {
		return nil, nil, err
	}
	logger := log.New(log.Writer(), "[COLLECT] ", log.LstdFlags)
	collector := news.NewCollector(newsapi.New(cfg.Sources.NewsAPI), fetcher, cfg.Fetch.CrawlPolicy, logger).
		WithRateLimit(cfg.Fetch.RatePerSec, cfg.Fetch.Burst)
	return collector, closeFetcher, nil
}

func newDriver(st *store.Store, reg prometheus.Registerer) *pipeline.Driver {
	extractor := features.NewExtractor(nil, nil, nil)
	return pipeline.NewDriver(st, extractor, pipeline.NewMetrics(reg), nil)
}

// openIndex opens the configured index. The returned closer releases the index
// and, when used, the redis embedding cache.
func openIndex(ctx context.Context, cfg *config.Config) (vectorindex.Index, func() error, error) {
	var embedder vectorindex.Embedder
	closeCache := func() error { return nil }
	if cfg.Vector.Backend != "bleve" {
		openaiEmb := vectorindex.NewOpenAIEmbedder(cfg.LLM, cfg.Vector.Dimensions)
		embedder = openaiEmb
		if cfg.Storage.Redis.Enabled() {
			client, err := vectorindex.ConnectRedis(ctx, cfg.Storage.Redis)
			if err != nil {
				return nil, nil, fmt.Errorf("redis connection failed (%s:%s): %w", cfg.Storage.Redis.Host, cfg.Storage.Redis.Port, err)
			}
			embedder = vectorindex.NewCachedEmbedder(openaiEmb, client, openaiEmb.Model(), cfg.Storage.Redis.EmbeddingTTL, nil)
			closeCache = client.Close
		}
	}
	idx, err := vectorindex.Open(ctx, cfg.Vector, embedder, nil)
	if err != nil {
		_ = closeCache()
		return nil, nil, err
	}
	closer := func() error {
		err := idx.Close()
		if cerr := closeCache(); err == nil {
			err = cerr
		}
		return err
	}
	return idx, closer, nil
}

// indexAll rebuilds index entries for every stored article with a body.
func indexAll(ctx context.Context, st *store.Store, idx vectorindex.Index) (int, error) {
	rows, err := st.ListArticlesWithFeatures(ctx)
	if err != nil {
		return 0, err
	}
	docs := vectorindex.BuildDocuments(rows)
	if err := idx.Add(ctx, docs); err != nil {
		return 0, err
	}
	return len(docs), nil
}

func newAnswerer(cfg *config.Config, idx vectorindex.Index) *rag.Answerer {
	return rag.NewAnswerer(idx, rag.NewOpenAIGenerator(cfg.LLM), cfg.Vector.TopK, nil)
}

func queryFromFlags(cfg *config.Config, q, sources, domains, from, to string) newsapi.Query {
	query := newsapi.QueryFromConfig(cfg.Sources.NewsAPI)
	if q != "" {
		query.Q = q
	}
	if sources != "" {
		query.Sources = sources
	}
	if domains != "" {
		query.Domains = domains
	}
	query.From = from
	query.To = to
	return query
}
