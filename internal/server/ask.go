package server

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/mohammad-safakhou/newsrag/internal/rag"
)

type Asker interface {
	Ask(ctx context.Context, question string) (rag.Answer, error)
}

type AskHandler struct {
	Asker Asker
}

func (h *AskHandler) Register(g *echo.Group) {
	g.POST("/ask", h.ask)
}

type askRequest struct {
	Question string `json:"question"`
}

// ask answers a question from the indexed articles.
//
//	@Summary  Ask a question
//	@Tags     rag
//	@Accept   json
//	@Produce  json
//	@Param    payload body askRequest true "question"
//	@Router   /api/ask [post]
func (h *AskHandler) ask(c echo.Context) error {
	if h.Asker == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "answering is not configured")
	}
	var req askRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if strings.TrimSpace(req.Question) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "question required")
	}
	ans, err := h.Asker.Ask(c.Request().Context(), req.Question)
	if errors.Is(err, rag.ErrEmptyQuestion) {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	}
	if ans.Sources == nil {
		ans.Sources = []string{}
	}
	return c.JSON(http.StatusOK, ans)
}
