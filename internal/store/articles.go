package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/mohammad-safakhou/newsrag/models"
)

const articleColumns = `id, url, title, author, description, source_id, source_name, published_at, full_content`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanArticle(row rowScanner) (models.Article, error) {
	var (
		a                                                models.Article
		title, author, description, sourceID, sourceName sql.NullString
		fullContent                                      sql.NullString
		publishedAt                                      sql.NullTime
	)
	if err := row.Scan(&a.ID, &a.URL, &title, &author, &description, &sourceID, &sourceName, &publishedAt, &fullContent); err != nil {
		return models.Article{}, err
	}
	a.Title = stringPtr(title)
	a.Author = stringPtr(author)
	a.Description = stringPtr(description)
	a.SourceID = stringPtr(sourceID)
	a.SourceName = stringPtr(sourceName)
	a.PublishedAt = timePtr(publishedAt)
	a.FullContent = stringPtr(fullContent)
	return a, nil
}

// UpsertArticle inserts a by url. When the url already exists the stored row is
// left untouched and its id is returned.
func (s *Store) UpsertArticle(ctx context.Context, a models.Article) (id int64, err error) {
	url := strings.TrimSpace(a.URL)
	if url == "" {
		return 0, fmt.Errorf("url required")
	}
	err = s.withTx(ctx, "upsert article", url, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx, `
INSERT INTO articles (url, title, author, description, source_id, source_name, published_at, full_content)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
ON CONFLICT (url) DO NOTHING
RETURNING id
`, url, nullableString(a.Title), nullableString(a.Author), nullableString(a.Description),
			nullableString(a.SourceID), nullableString(a.SourceName), nullableTime(a.PublishedAt), nullableString(a.FullContent))
		err := row.Scan(&id)
		if errors.Is(err, sql.ErrNoRows) {
			return tx.QueryRowContext(ctx, `SELECT id FROM articles WHERE url=$1`, url).Scan(&id)
		}
		return err
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// GetArticle loads one article by id.
func (s *Store) GetArticle(ctx context.Context, id int64) (models.Article, bool, error) {
	row := s.DB.QueryRowContext(ctx, `SELECT `+articleColumns+` FROM articles WHERE id=$1`, id)
	a, err := scanArticle(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Article{}, false, nil
	}
	if err != nil {
		return models.Article{}, false, err
	}
	return a, true, nil
}

// ListArticles pages through articles in id order. limit <= 0 means no limit.
func (s *Store) ListArticles(ctx context.Context, limit, offset int) ([]models.Article, error) {
	query := `SELECT ` + articleColumns + ` FROM articles ORDER BY id`
	args := []interface{}{}
	if limit > 0 {
		query += ` LIMIT $1 OFFSET $2`
		args = append(args, limit, offset)
	}
	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []models.Article
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// UpdateArticle replaces every column of an existing article. It is the explicit
// correction path; the pipeline never calls it.
func (s *Store) UpdateArticle(ctx context.Context, id int64, a models.Article) error {
	url := strings.TrimSpace(a.URL)
	if url == "" {
		return fmt.Errorf("url required")
	}
	return s.withTx(ctx, "update article", idKey(id), func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
UPDATE articles
SET url=$2, title=$3, author=$4, description=$5, source_id=$6, source_name=$7, published_at=$8, full_content=$9
WHERE id=$1
`, id, url, nullableString(a.Title), nullableString(a.Author), nullableString(a.Description),
			nullableString(a.SourceID), nullableString(a.SourceName), nullableTime(a.PublishedAt), nullableString(a.FullContent))
		if err != nil {
			return err
		}
		return requireRow(res, models.ErrArticleNotFound)
	})
}

// DeleteArticle removes an article; its feature set goes with it via ON DELETE CASCADE.
func (s *Store) DeleteArticle(ctx context.Context, id int64) error {
	return s.withTx(ctx, "delete article", idKey(id), func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM articles WHERE id=$1`, id)
		if err != nil {
			return err
		}
		return requireRow(res, models.ErrArticleNotFound)
	})
}

func requireRow(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound
	}
	return nil
}
