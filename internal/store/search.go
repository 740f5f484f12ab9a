package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/mohammad-safakhou/newsrag/models"
)

const joinedSelect = `
SELECT a.id, a.url, a.title, a.author, a.description, a.source_id, a.source_name, a.published_at, a.full_content,
       f.id, f.people, f.organizations, f.locations, f.dates, f.geopolitical_groups, f.event_sentences, f.sentiment
FROM articles a
LEFT JOIN features f ON f.article_id = a.id
`

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// SearchArticles returns articles whose body contains query (case-insensitive) or
// whose people list contains query exactly. Articles without a feature set can
// still match on their body.
func (s *Store) SearchArticles(ctx context.Context, query string) ([]models.ArticleWithFeatures, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("search query required")
	}
	pattern := "%" + likeEscaper.Replace(query) + "%"
	rows, err := s.DB.QueryContext(ctx, joinedSelect+`WHERE a.full_content ILIKE $1 OR f.people @> $2
ORDER BY a.id
`, pattern, pq.Array([]string{query}))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanJoined(rows)
}

// ListArticlesWithFeatures returns every article with its feature set, if any.
func (s *Store) ListArticlesWithFeatures(ctx context.Context) ([]models.ArticleWithFeatures, error) {
	rows, err := s.DB.QueryContext(ctx, joinedSelect+`ORDER BY a.id
`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanJoined(rows)
}

func scanJoined(rows *sql.Rows) ([]models.ArticleWithFeatures, error) {
	var out []models.ArticleWithFeatures
	for rows.Next() {
		var (
			a                                                models.Article
			title, author, description, sourceID, sourceName sql.NullString
			fullContent                                      sql.NullString
			publishedAt                                      sql.NullTime
			featureID                                        sql.NullInt64
			sentiment                                        sql.NullFloat64
			fs                                               models.FeatureSet
		)
		if err := rows.Scan(&a.ID, &a.URL, &title, &author, &description, &sourceID, &sourceName, &publishedAt, &fullContent,
			&featureID, pq.Array(&fs.People), pq.Array(&fs.Organizations), pq.Array(&fs.Locations), pq.Array(&fs.Dates),
			pq.Array(&fs.GeopoliticalGroups), pq.Array(&fs.EventSentences), &sentiment); err != nil {
			return nil, err
		}
		a.Title = stringPtr(title)
		a.Author = stringPtr(author)
		a.Description = stringPtr(description)
		a.SourceID = stringPtr(sourceID)
		a.SourceName = stringPtr(sourceName)
		a.PublishedAt = timePtr(publishedAt)
		a.FullContent = stringPtr(fullContent)

		item := models.ArticleWithFeatures{Article: a}
		if featureID.Valid {
			fs.ID = featureID.Int64
			fs.ArticleID = a.ID
			fs.Sentiment = sentiment.Float64
			item.Features = &fs
		}
		out = append(out, item)
	}
	return out, rows.Err()
}
