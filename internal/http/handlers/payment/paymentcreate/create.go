// Package paymentcreate обрабатывает создание счёта на оплату тарифа.
package paymentcreate

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/course-membership/internal/http/middlewarectx"
	"github.com/magabrotheeeer/course-membership/internal/http/response"
	"github.com/magabrotheeeer/course-membership/internal/lib/sl"
	"github.com/magabrotheeeer/course-membership/internal/models"
	"github.com/magabrotheeeer/course-membership/internal/services/payment"
	"github.com/magabrotheeeer/course-membership/internal/storage/repository"
)

// Request представляет запрос на создание счёта.
type Request struct {
	Plan string `json:"plan" validate:"required,oneof=smc wave_smc"`
}

// Result — ссылка на страницу оплаты.
type Result struct {
	PaymentURL string `json:"payment_url"`
}

// Service определяет интерфейс для выставления счетов.
type Service interface {
	CreateInvoice(ctx context.Context, userID int64, plan models.Plan) (string, error)
}

// Handler обрабатывает запросы на создание счёта.
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
// @Summary Создать счёт на оплату
// @Description Создаёт счёт NOWPayments на выбранный тариф и возвращает ссылку на оплату
// @Tags Payments
// @Accept  json
// @Produce  json
// @Param request body Request true "Тариф: smc или wave_smc"
// @Success 200 {object} response.Response{data=Result} "Ссылка на оплату"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 409 {object} response.ErrorResponse "Курс уже оплачен"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 502 {object} response.ErrorResponse "Ошибка платёжного провайдера"
// @Router /payment [post]
// @Security BearerAuth
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.create"
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
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		log.Info("validation failed", sl.Err(err))
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	url, err := h.service.CreateInvoice(r.Context(), userID, models.Plan(req.Plan))
	switch {
	case errors.Is(err, payment.ErrAlreadyPaid):
		log.Info("invoice requested by paid user", slog.Int64("user_id", userID))
		render.Status(r, http.StatusConflict)
		render.JSON(w, r, response.Error("course already paid"))
		return
	case errors.Is(err, repository.ErrUserNotFound):
		log.Error("user from token not found", slog.Int64("user_id", userID))
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	case errors.Is(err, payment.ErrProvider):
		log.Error("payment provider failed", sl.Err(err))
		render.Status(r, http.StatusBadGateway)
		render.JSON(w, r, response.Error("payment provider error"))
		return
	case err != nil:
		log.Error("failed to create invoice", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal error"))
		return
	}

	log.Info("invoice created", slog.Int64("user_id", userID), slog.String("plan", req.Plan))
	render.JSON(w, r, response.StatusOKWithData(Result{PaymentURL: url}))
}
