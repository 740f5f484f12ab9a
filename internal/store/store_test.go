package store

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"

	"github.com/mohammad-safakhou/newsrag/models"
	"github.com/mohammad-safakhou/newsrag/utils"
)

func newMock(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return &Store{DB: db}, mock
}

func TestUpsertArticleInserts(t *testing.T) {
	st, mock := newMock(t)
	published := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	a := models.Article{
		URL:         " https://example.com/a ",
		Title:       utils.Ptr("Title"),
		SourceName:  utils.Ptr("Reuters"),
		PublishedAt: &published,
		FullContent: utils.Ptr("body"),
	}

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO articles`)).
		WithArgs("https://example.com/a", "Title", nil, nil, nil, "Reuters", sqlmock.AnyArg(), "body").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(7)))
	mock.ExpectCommit()

	id, err := st.UpsertArticle(context.Background(), a)
	if err != nil {
		t.Fatalf("UpsertArticle: %v", err)
	}
	if id != 7 {
		t.Fatalf("id = %d, want 7", id)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestUpsertArticleReturnsExistingID(t *testing.T) {
	st, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`ON CONFLICT (url) DO NOTHING`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id FROM articles WHERE url=$1`)).
		WithArgs("https://example.com/a").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(3)))
	mock.ExpectCommit()

	id, err := st.UpsertArticle(context.Background(), models.Article{URL: "https://example.com/a", Title: utils.Ptr("changed")})
	if err != nil {
		t.Fatalf("UpsertArticle: %v", err)
	}
	if id != 3 {
		t.Fatalf("id = %d, want existing id 3", id)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestUpsertArticleRollsBackOnError(t *testing.T) {
	st, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO articles`)).
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	_, err := st.UpsertArticle(context.Background(), models.Article{URL: "https://example.com/a"})
	var pErr *models.PersistenceError
	if !errors.As(err, &pErr) {
		t.Fatalf("expected PersistenceError, got %v", err)
	}
	if pErr.Key != "https://example.com/a" {
		t.Fatalf("error key = %q", pErr.Key)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestUpsertArticleRequiresURL(t *testing.T) {
	st, mock := newMock(t)
	if _, err := st.UpsertArticle(context.Background(), models.Article{URL: "  "}); err == nil {
		t.Fatalf("expected error for empty url")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("no statements expected: %v", err)
	}
}

func TestInsertFeatureSetFirstWriteWins(t *testing.T) {
	st, mock := newMock(t)
	fs := models.FeatureSet{People: []string{"Ann"}, Sentiment: 0.3}

	args := []driver.Value{int64(5), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), 0.3}
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`ON CONFLICT (article_id) DO NOTHING`)).
		WithArgs(args...).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`ON CONFLICT (article_id) DO NOTHING`)).
		WithArgs(args...).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	inserted, err := st.InsertFeatureSet(context.Background(), 5, fs)
	if err != nil || !inserted {
		t.Fatalf("first insert: inserted=%v err=%v", inserted, err)
	}
	inserted, err = st.InsertFeatureSet(context.Background(), 5, fs)
	if err != nil || inserted {
		t.Fatalf("second insert should be a no-op: inserted=%v err=%v", inserted, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestUpdateFeatureSetNotFound(t *testing.T) {
	st, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE features`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := st.UpdateFeatureSet(context.Background(), 9, models.FeatureSet{Sentiment: 0.1})
	if !errors.Is(err, models.ErrFeatureSetNotFound) {
		t.Fatalf("expected ErrFeatureSetNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestDeleteArticle(t *testing.T) {
	st, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM articles WHERE id=$1`)).
		WithArgs(int64(4)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM articles WHERE id=$1`)).
		WithArgs(int64(4)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	if err := st.DeleteArticle(context.Background(), 4); err != nil {
		t.Fatalf("DeleteArticle: %v", err)
	}
	if err := st.DeleteArticle(context.Background(), 4); !errors.Is(err, models.ErrArticleNotFound) {
		t.Fatalf("expected ErrArticleNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestGetArticleMissing(t *testing.T) {
	st, mock := newMock(t)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM articles WHERE id=$1`)).
		WithArgs(int64(11)).
		WillReturnError(sql.ErrNoRows)

	_, ok, err := st.GetArticle(context.Background(), 11)
	if err != nil {
		t.Fatalf("GetArticle: %v", err)
	}
	if ok {
		t.Fatalf("expected article to be missing")
	}
}

func TestSearchArticles(t *testing.T) {
	st, mock := newMock(t)

	cols := []string{
		"id", "url", "title", "author", "description", "source_id", "source_name", "published_at", "full_content",
		"fid", "people", "organizations", "locations", "dates", "geopolitical_groups", "event_sentences", "sentiment",
	}
	mock.ExpectQuery(regexp.QuoteMeta(`WHERE a.full_content ILIKE $1 OR f.people @> $2`)).
		WithArgs(`%50\%\_off%`, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow(int64(1), "https://a", "A", nil, nil, nil, nil, nil, "Deals at 50%_off today",
				int64(10), "{Trump}", "{}", "{}", "{}", "{}", "{}", 0.2).
			AddRow(int64(2), "https://b", nil, nil, nil, nil, nil, nil, "50%_off again",
				nil, nil, nil, nil, nil, nil, nil, nil))

	got, err := st.SearchArticles(context.Background(), "50%_off")
	if err != nil {
		t.Fatalf("SearchArticles: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 results, got %d", len(got))
	}
	if got[0].Features == nil || len(got[0].Features.People) != 1 || got[0].Features.People[0] != "Trump" {
		t.Fatalf("features not scanned: %+v", got[0].Features)
	}
	if got[0].Features.ArticleID != 1 || got[0].Features.Sentiment != 0.2 {
		t.Fatalf("unexpected feature set: %+v", got[0].Features)
	}
	if got[1].Features != nil {
		t.Fatalf("article without features should have nil Features")
	}
	if got[1].Article.Title != nil {
		t.Fatalf("null title should stay nil")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}

	if _, err := st.SearchArticles(context.Background(), "  "); err == nil {
		t.Fatalf("expected error for empty query")
	}
}

func TestListArticlesPaginates(t *testing.T) {
	st, mock := newMock(t)
	cols := []string{"id", "url", "title", "author", "description", "source_id", "source_name", "published_at", "full_content"}

	mock.ExpectQuery(regexp.QuoteMeta(`FROM articles ORDER BY id LIMIT $1 OFFSET $2`)).
		WithArgs(2, 4).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow(int64(5), "https://example.com/5", "Five", nil, nil, nil, "Wire", nil, "body").
			AddRow(int64(6), "https://example.com/6", nil, nil, nil, nil, nil, nil, nil))

	got, err := st.ListArticles(context.Background(), 2, 4)
	if err != nil {
		t.Fatalf("ListArticles: %v", err)
	}
	if len(got) != 2 || got[0].ID != 5 || utils.Deref(got[0].Title) != "Five" || got[1].Title != nil {
		t.Fatalf("unexpected articles: %+v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestUpdateArticle(t *testing.T) {
	st, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE articles`)).
		WithArgs(int64(3), "https://example.com/a", "Corrected", nil, nil, nil, nil, nil, "body").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE articles`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	a := models.Article{URL: "https://example.com/a", Title: utils.Ptr("Corrected"), FullContent: utils.Ptr("body")}
	if err := st.UpdateArticle(context.Background(), 3, a); err != nil {
		t.Fatalf("UpdateArticle: %v", err)
	}
	if err := st.UpdateArticle(context.Background(), 99, a); !errors.Is(err, models.ErrArticleNotFound) {
		t.Fatalf("expected ErrArticleNotFound, got %v", err)
	}
	if err := st.UpdateArticle(context.Background(), 3, models.Article{}); err == nil {
		t.Fatalf("expected error for empty url")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestDeleteFeatureSet(t *testing.T) {
	st, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM features WHERE article_id=$1`)).
		WithArgs(int64(8)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	if err := st.DeleteFeatureSet(context.Background(), 8); !errors.Is(err, models.ErrFeatureSetNotFound) {
		t.Fatalf("expected ErrFeatureSetNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
