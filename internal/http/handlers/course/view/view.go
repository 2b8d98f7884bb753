// Package view отдаёт пользователю состояние курса: доступ к видео и пройденные уроки.
package view

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/course-membership/internal/http/middlewarectx"
	"github.com/magabrotheeeer/course-membership/internal/http/response"
	"github.com/magabrotheeeer/course-membership/internal/lib/sl"
	"github.com/magabrotheeeer/course-membership/internal/services/account"
	"github.com/magabrotheeeer/course-membership/internal/storage/repository"
)

// Service описывает получение состояния курса.
type Service interface {
	Course(ctx context.Context, userID int64) (*account.Course, error)
}

// Handler обрабатывает GET /api/v1/course.
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
// @Summary Курс
// @Description Ссылка на видео возвращается только оплатившему пользователю
// @Tags Course
// @Produce  json
// @Success 200 {object} response.Response{data=account.Course} "Состояние курса"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка"
// @Router /course [get]
// @Security BearerAuth
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.course.view"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	userID, ok := middlewarectx.UserIDFromContext(r.Context())
	if !ok {
		log.Error("user id not found in context")
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	course, err := h.service.Course(r.Context(), userID)
	if errors.Is(err, repository.ErrUserNotFound) {
		log.Error("user from token not found", slog.Int64("user_id", userID))
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}
	if err != nil {
		log.Error("failed to load course", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not load course"))
		return
	}

	render.JSON(w, r, response.StatusOKWithData(course))
}
