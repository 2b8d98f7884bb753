// Package update сохраняет имя и телефон пользователя.
package update

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
	"github.com/magabrotheeeer/course-membership/internal/storage/repository"
)

// Request — новые данные профиля.
type Request struct {
	Name  string `json:"name" validate:"max=100"`
	Phone string `json:"phone" validate:"required,numeric,min=10,max=15"`
}

// Service описывает обновление профиля.
type Service interface {
	UpdateProfile(ctx context.Context, userID int64, name, phone string) error
}

// Handler обрабатывает PUT /api/v1/profile.
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
// @Summary Обновить профиль
// @Description Телефон должен состоять из 10-15 цифр
// @Tags Profile
// @Accept  json
// @Produce  json
// @Param request body Request true "Имя и телефон"
// @Success 200 {object} response.Response "Профиль обновлён"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка"
// @Router /profile [put]
// @Security BearerAuth
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.profile.update"

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

	err := h.service.UpdateProfile(r.Context(), userID, req.Name, req.Phone)
	switch {
	case errors.Is(err, account.ErrInvalidPhone):
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, response.Error(account.ErrInvalidPhone.Error()))
		return
	case errors.Is(err, repository.ErrUserNotFound):
		log.Error("user from token not found", slog.Int64("user_id", userID))
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	case err != nil:
		log.Error("failed to update profile", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not update profile"))
		return
	}

	log.Info("profile updated", slog.Int64("user_id", userID))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"name":  req.Name,
		"phone": req.Phone,
	}))
}
