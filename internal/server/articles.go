package server

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/mohammad-safakhou/newsrag/models"
)

// ArticleReader is the read side of the repository used by the API.
type ArticleReader interface {
	SearchArticles(ctx context.Context, query string) ([]models.ArticleWithFeatures, error)
	ListArticles(ctx context.Context, limit, offset int) ([]models.Article, error)
	GetArticle(ctx context.Context, id int64) (models.Article, bool, error)
	GetFeatureSet(ctx context.Context, articleID int64) (models.FeatureSet, bool, error)
}

type ArticlesHandler struct {
	Store ArticleReader
}

func (h *ArticlesHandler) Register(g *echo.Group) {
	g.GET("", h.list)
	g.GET("/search", h.search)
	g.GET("/:id", h.get)
}

// list returns a page of articles ordered by id.
//
//	@Summary  List articles
//	@Tags     articles
//	@Produce  json
//	@Param    limit  query int false "page size (default 20, max 100)"
//	@Param    offset query int false "offset"
//	@Router   /api/articles [get]
func (h *ArticlesHandler) list(c echo.Context) error {
	limit, err := intParam(c, "limit", 20)
	if err != nil {
		return err
	}
	offset, err := intParam(c, "offset", 0)
	if err != nil {
		return err
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	items, err := h.Store.ListArticles(c.Request().Context(), limit, offset)
	if err != nil {
		return err
	}
	if items == nil {
		items = []models.Article{}
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"articles": items, "limit": limit, "offset": offset})
}

// search matches the query against article bodies and people names.
//
//	@Summary  Search articles
//	@Tags     articles
//	@Produce  json
//	@Param    q query string true "search text"
//	@Router   /api/articles/search [get]
func (h *ArticlesHandler) search(c echo.Context) error {
	q := strings.TrimSpace(c.QueryParam("q"))
	if q == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "q required")
	}
	items, err := h.Store.SearchArticles(c.Request().Context(), q)
	if err != nil {
		return err
	}
	if items == nil {
		items = []models.ArticleWithFeatures{}
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"query": q, "results": items})
}

// get returns one article with its feature set, if any.
//
//	@Summary  Get article
//	@Tags     articles
//	@Produce  json
//	@Param    id path int true "article id"
//	@Router   /api/articles/{id} [get]
func (h *ArticlesHandler) get(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	ctx := c.Request().Context()
	a, ok, err := h.Store.GetArticle(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, models.ErrArticleNotFound.Error())
	}
	out := models.ArticleWithFeatures{Article: a}
	fs, found, err := h.Store.GetFeatureSet(ctx, id)
	if err != nil {
		return err
	}
	if found {
		out.Features = &fs
	}
	return c.JSON(http.StatusOK, out)
}

func intParam(c echo.Context, name string, def int) (int, error) {
	raw := strings.TrimSpace(c.QueryParam(name))
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid "+name)
	}
	return n, nil
}
