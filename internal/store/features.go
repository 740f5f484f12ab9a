package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/mohammad-safakhou/newsrag/models"
)

// InsertFeatureSet stores fs for an article. The first write wins: if the article
// already has a feature set nothing changes and inserted is false.
func (s *Store) InsertFeatureSet(ctx context.Context, articleID int64, fs models.FeatureSet) (inserted bool, err error) {
	if articleID <= 0 {
		return false, fmt.Errorf("article_id required")
	}
	err = s.withTx(ctx, "insert feature set", idKey(articleID), func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
INSERT INTO features (article_id, people, organizations, locations, dates, geopolitical_groups, event_sentences, sentiment)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
ON CONFLICT (article_id) DO NOTHING
`, articleID, pq.Array(nonNil(fs.People)), pq.Array(nonNil(fs.Organizations)), pq.Array(nonNil(fs.Locations)),
			pq.Array(nonNil(fs.Dates)), pq.Array(nonNil(fs.GeopoliticalGroups)), pq.Array(nonNil(fs.EventSentences)), fs.Sentiment)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		inserted = n > 0
		return nil
	})
	if err != nil {
		return false, err
	}
	return inserted, nil
}

// UpdateFeatureSet overwrites the stored feature set of an article.
func (s *Store) UpdateFeatureSet(ctx context.Context, articleID int64, fs models.FeatureSet) error {
	return s.withTx(ctx, "update feature set", idKey(articleID), func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
UPDATE features
SET people=$2, organizations=$3, locations=$4, dates=$5, geopolitical_groups=$6, event_sentences=$7, sentiment=$8
WHERE article_id=$1
`, articleID, pq.Array(nonNil(fs.People)), pq.Array(nonNil(fs.Organizations)), pq.Array(nonNil(fs.Locations)),
			pq.Array(nonNil(fs.Dates)), pq.Array(nonNil(fs.GeopoliticalGroups)), pq.Array(nonNil(fs.EventSentences)), fs.Sentiment)
		if err != nil {
			return err
		}
		return requireRow(res, models.ErrFeatureSetNotFound)
	})
}

// DeleteFeatureSet removes the feature set of an article, leaving the article.
func (s *Store) DeleteFeatureSet(ctx context.Context, articleID int64) error {
	return s.withTx(ctx, "delete feature set", idKey(articleID), func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM features WHERE article_id=$1`, articleID)
		if err != nil {
			return err
		}
		return requireRow(res, models.ErrFeatureSetNotFound)
	})
}

// GetFeatureSet loads the feature set of an article.
func (s *Store) GetFeatureSet(ctx context.Context, articleID int64) (models.FeatureSet, bool, error) {
	var fs models.FeatureSet
	err := s.DB.QueryRowContext(ctx, `
SELECT id, article_id, people, organizations, locations, dates, geopolitical_groups, event_sentences, sentiment
FROM features
WHERE article_id=$1
`, articleID).Scan(&fs.ID, &fs.ArticleID, pq.Array(&fs.People), pq.Array(&fs.Organizations), pq.Array(&fs.Locations),
		pq.Array(&fs.Dates), pq.Array(&fs.GeopoliticalGroups), pq.Array(&fs.EventSentences), &fs.Sentiment)
	if errors.Is(err, sql.ErrNoRows) {
		return models.FeatureSet{}, false, nil
	}
	if err != nil {
		return models.FeatureSet{}, false, err
	}
	return fs, true, nil
}
