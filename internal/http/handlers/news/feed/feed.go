// Package feed отдаёт ленту новостей рынка форекс.
package feed

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/course-membership/internal/http/response"
	"github.com/magabrotheeeer/course-membership/internal/lib/sl"
	"github.com/magabrotheeeer/course-membership/internal/news"
)

// Service описывает получение ленты.
type Service interface {
	Feed(ctx context.Context) ([]news.Article, error)
}

// Handler обрабатывает GET /api/v1/news.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Новости форекс
// @Description До 10 последних статей NewsAPI, лента кэшируется на час
// @Tags News
// @Produce  json
// @Success 200 {object} response.Response "Статьи"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 502 {object} response.ErrorResponse "Источник новостей недоступен"
// @Router /news [get]
// @Security BearerAuth
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.news.feed"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	articles, err := h.service.Feed(r.Context())
	if err != nil {
		log.Error("failed to load news", sl.Err(err))
		render.Status(r, http.StatusBadGateway)
		render.JSON(w, r, response.Error("unable to load forex news at this time"))
		return
	}
	if articles == nil {
		articles = []news.Article{}
	}

	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"articles": articles,
	}))
}
