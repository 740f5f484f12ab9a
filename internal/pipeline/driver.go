// Package pipeline drives a serialized article batch through validation, feature
// extraction and persistence.
package pipeline

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/mohammad-safakhou/newsrag/internal/features"
	"github.com/mohammad-safakhou/newsrag/internal/xmldoc"
	"github.com/mohammad-safakhou/newsrag/models"
)

// Stage is the furthest point a batch reached.
type Stage string

const (
	StageFetched    Stage = "fetched"
	StageSerialized Stage = "serialized"
	StageValidated  Stage = "validated"
	StageParsed     Stage = "parsed"
	StagePersisted  Stage = "persisted"
)

// Repository is the subset of the store the driver writes through.
type Repository interface {
	UpsertArticle(ctx context.Context, a models.Article) (int64, error)
	InsertFeatureSet(ctx context.Context, articleID int64, fs models.FeatureSet) (bool, error)
}

// Extractor produces raw feature sets; the driver preprocesses them.
type Extractor interface {
	Extract(text string) models.FeatureSet
}

// RecordFailure identifies a skipped record well enough to reprocess it by hand.
type RecordFailure struct {
	Index int
	URL   string
	Err   error
}

// Report summarises one Prepare run.
type Report struct {
	Stage         Stage
	Records       int
	Articles      int
	FeatureSets   int
	Duplicates    int
	Uninformative int
	Failures      []RecordFailure
}

// Driver runs the prepare stage.
type Driver struct {
	repo      Repository
	extractor Extractor
	metrics   *Metrics
	logger    *log.Logger
}

func NewDriver(repo Repository, extractor Extractor, metrics *Metrics, logger *log.Logger) *Driver {
	if logger == nil {
		logger = log.New(log.Writer(), "[PIPELINE] ", log.LstdFlags)
	}
	return &Driver{repo: repo, extractor: extractor, metrics: metrics, logger: logger}
}

// PrepareFile reads a serialized document from disk and prepares it.
func (d *Driver) PrepareFile(ctx context.Context, path string) (Report, error) {
	doc, err := os.ReadFile(path)
	if err != nil {
		return Report{Stage: StageFetched}, fmt.Errorf("read document: %w", err)
	}
	return d.Prepare(ctx, doc)
}

// Prepare validates doc and persists each record in document order. A document
// that fails validation is rejected before any write. Failures of individual
// records are logged and skipped.
func (d *Driver) Prepare(ctx context.Context, doc []byte) (Report, error) {
	report := Report{Stage: StageSerialized}
	if err := xmldoc.Validate(doc); err != nil {
		d.metrics.batch("rejected")
		d.logger.Printf("batch rejected: %v", err)
		return report, err
	}
	report.Stage = StageValidated

	articles, err := xmldoc.Deserialize(doc)
	if err != nil {
		d.metrics.batch("rejected")
		return report, &models.ValidationError{Reason: "document could not be parsed", Err: err}
	}
	report.Stage = StageParsed
	report.Records = len(articles)

	for i, a := range articles {
		if err := ctx.Err(); err != nil {
			d.metrics.batch("cancelled")
			return report, err
		}
		if err := d.persist(ctx, a, &report); err != nil {
			d.metrics.record(OutcomeFailed)
			report.Failures = append(report.Failures, RecordFailure{Index: i, URL: a.URL, Err: err})
			d.logger.Printf("record %d (%s) skipped: %v", i, a.URL, err)
		}
	}
	report.Stage = StagePersisted
	d.metrics.batch("ok")
	d.logger.Printf("prepared %d records: %d articles, %d feature sets, %d duplicates, %d uninformative, %d failed",
		report.Records, report.Articles, report.FeatureSets, report.Duplicates, report.Uninformative, len(report.Failures))
	return report, nil
}

func (d *Driver) persist(ctx context.Context, a models.Article, report *Report) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	id, err := d.repo.UpsertArticle(ctx, a)
	if err != nil {
		return err
	}
	report.Articles++
	d.metrics.record(OutcomeArticle)

	fs := features.Preprocess(d.extractor.Extract(a.Body()))
	if fs.Uninformative() {
		report.Uninformative++
		d.metrics.record(OutcomeUninformative)
		return nil
	}
	inserted, err := d.repo.InsertFeatureSet(ctx, id, fs)
	if err != nil {
		return err
	}
	if inserted {
		report.FeatureSets++
		d.metrics.record(OutcomeFeatureSet)
	} else {
		report.Duplicates++
		d.metrics.record(OutcomeDuplicate)
	}
	return nil
}
