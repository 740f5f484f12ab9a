package news

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/time/rate"

	"github.com/mohammad-safakhou/newsrag/config"
	"github.com/mohammad-safakhou/newsrag/internal/helpers"
	"github.com/mohammad-safakhou/newsrag/internal/xmldoc"
	"github.com/mohammad-safakhou/newsrag/models"
	"github.com/mohammad-safakhou/newsrag/news/newsapi"
	"github.com/mohammad-safakhou/newsrag/tools/web_fetch"
	"github.com/mohammad-safakhou/newsrag/utils"
)

// Source returns raw article records for a query.
type Source interface {
	Everything(ctx context.Context, q newsapi.Query) ([]newsapi.Article, error)
}

// Collector fetches API records, enriches them with the scraped article body and
// writes the serialized batch for the prepare stage.
type Collector struct {
	source  Source
	fetcher web_fetch.WebFetcher
	policy  config.CrawlPolicyConfig
	limiter *rate.Limiter
	logger  *log.Logger
}

func NewCollector(source Source, fetcher web_fetch.WebFetcher, policy config.CrawlPolicyConfig, logger *log.Logger) *Collector {
	if logger == nil {
		logger = log.New(log.Writer(), "[COLLECT] ", log.LstdFlags)
	}
	return &Collector{source: source, fetcher: fetcher, policy: policy.Normalize(), logger: logger}
}

// WithRateLimit throttles article page fetches to perSecond with the given burst.
// perSecond <= 0 leaves fetching unthrottled.
func (c *Collector) WithRateLimit(perSecond float64, burst int) *Collector {
	if perSecond <= 0 {
		c.limiter = nil
		return c
	}
	if burst < 1 {
		burst = 1
	}
	c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	return c
}

// Collect returns the enriched batch in API order. Records without a URL and
// repeats of an already seen canonical URL are dropped. A body that cannot be
// fetched is stored as models.NotAvailable.
func (c *Collector) Collect(ctx context.Context, q newsapi.Query) ([]models.Article, error) {
	records, err := c.source.Everything(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("collect: %w", err)
	}
	c.logger.Printf("fetched %d records for q=%q", len(records), q.Q)

	seen := make(map[string]struct{}, len(records))
	out := make([]models.Article, 0, len(records))
	for i, rec := range records {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		url := strings.TrimSpace(rec.URL)
		if url == "" {
			c.logger.Printf("record %d dropped: no url", i)
			continue
		}
		key := helpers.ArticleKey(url)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		a := toArticle(rec)
		a.URL = url
		a.FullContent = utils.Ptr(c.body(ctx, url))
		out = append(out, a)
	}
	return out, nil
}

func (c *Collector) body(ctx context.Context, url string) string {
	if c.fetcher == nil {
		return models.NotAvailable
	}
	if !c.policy.Permits(url) {
		c.logger.Printf("%s: crawl policy forbids fetching", url)
		return models.NotAvailable
	}
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return models.NotAvailable
		}
	}
	text, err := web_fetch.Body(ctx, c.fetcher, url)
	if err != nil {
		var fErr *models.FetchError
		if errors.As(err, &fErr) {
			c.logger.Printf("%v", fErr)
		} else {
			c.logger.Printf("fetch %s: %v", url, err)
		}
		return models.NotAvailable
	}
	return text
}

func toArticle(rec newsapi.Article) models.Article {
	return models.Article{
		Title:       plain(rec.Title),
		Author:      plain(rec.Author),
		Description: plain(rec.Description),
		SourceID:    utils.NonEmpty(utils.Deref(rec.Source.ID)),
		SourceName:  utils.NonEmpty(utils.Deref(rec.Source.Name)),
		PublishedAt: rec.PublishedAt,
	}
}

func plain(p *string) *string {
	if p == nil {
		return nil
	}
	return utils.NonEmpty(helpers.PlainText(*p))
}

// CollectToFile collects a batch and writes it to path. The file is replaced
// atomically so a concurrent prepare never reads a partial document.
func (c *Collector) CollectToFile(ctx context.Context, q newsapi.Query, path string) (int, error) {
	articles, err := c.Collect(ctx, q)
	if err != nil {
		return 0, err
	}
	doc, err := xmldoc.Serialize(articles)
	if err != nil {
		return 0, err
	}
	if err := writeAtomic(path, doc); err != nil {
		return 0, err
	}
	c.logger.Printf("wrote %d articles to %s", len(articles), path)
	return len(articles), nil
}

func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
