// Package progress отмечает уроки курса пройденными.
package progress

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/course-membership/internal/http/middlewarectx"
	"github.com/magabrotheeeer/course-membership/internal/http/response"
	"github.com/magabrotheeeer/course-membership/internal/lib/sl"
	"github.com/magabrotheeeer/course-membership/internal/services/account"
)

// Request — урок, отмеченный пройденным.
type Request struct {
	Lesson string `json:"lesson" validate:"required,max=64"`
}

// Service описывает запись прогресса.
type Service interface {
	AddProgress(ctx context.Context, userID int64, lesson string) ([]string, error)
}

// Handler обрабатывает POST /api/v1/course/progress.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Отметить урок
// @Description Добавляет урок в список пройденных; повторная отметка ничего не меняет
// @Tags Course
// @Accept  json
// @Produce  json
// @Param request body Request true "Идентификатор урока"
// @Success 200 {object} response.Response "Актуальный список пройденных уроков"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка"
// @Router /course/progress [post]
// @Security BearerAuth
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.course.progress"
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

	var req Request
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("failed to decode request"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		log.Info("validation failed", sl.Err(err))
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	progress, err := h.service.AddProgress(r.Context(), userID, req.Lesson)
	if errors.Is(err, account.ErrEmptyLesson) {
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, response.Error("field Lesson is a required field"))
		return
	}
	if err != nil {
		log.Error("failed to save progress", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not save progress"))
		return
	}

	log.Info("lesson completed", slog.Int64("user_id", userID), slog.String("lesson", req.Lesson))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"progress": progress,
	}))
}
