// Package ipn принимает уведомления платёжного провайдера (IPN) о статусе оплаты.
package ipn

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"

	"github.com/magabrotheeeer/course-membership/internal/lib/orderid"
	"github.com/magabrotheeeer/course-membership/internal/lib/signature"
	"github.com/magabrotheeeer/course-membership/internal/lib/sl"
	"github.com/magabrotheeeer/course-membership/internal/metrics"
	"github.com/magabrotheeeer/course-membership/internal/models"
	"github.com/magabrotheeeer/course-membership/internal/services/payment"
)

const (
	// DefaultSignatureHeader — заголовок с подписью, который шлёт NOWPayments.
	DefaultSignatureHeader = "x-nowpayments-sig"
	// FallbackSignatureHeader читается, если основного заголовка нет.
	FallbackSignatureHeader = "x-provider-signature"
	// StatusFinished — единственный статус, при котором оплата применяется.
	StatusFinished = "finished"

	maxBodyBytes = 64 << 10
)

// Notification содержит значимые поля уведомления.
type Notification struct {
	PaymentStatus string `json:"payment_status"`
	OrderID       string `json:"order_id"`
}

// Applier применяет оплату к пользователю.
type Applier interface {
	Apply(ctx context.Context, userID int64, plan models.Plan) (payment.Result, error)
}

// Metrics считает исходы обработки уведомлений.
type Metrics interface {
	Observe(outcome string)
}

// Handler обрабатывает POST /ipn.
type Handler struct {
	log     *slog.Logger
	applier Applier
	metrics Metrics
	secret  string
	header  string
}

// New создает новый экземпляр Handler. Пустой header заменяется на DefaultSignatureHeader.
func New(log *slog.Logger, applier Applier, m Metrics, secret, header string) *Handler {
	if header == "" {
		header = DefaultSignatureHeader
	}
	return &Handler{
		log:     log,
		applier: applier,
		metrics: m,
		secret:  secret,
		header:  header,
	}
}

// ServeHTTP godoc
// @Summary Уведомление платёжного провайдера
// @Description Проверяет HMAC-SHA256 подпись тела и при статусе finished открывает пользователю доступ к тарифу из order_id
// @Tags Payments
// @Accept  json
// @Param x-nowpayments-sig header string true "HMAC-SHA256 тела запроса в hex"
// @Param request body Notification true "Уведомление"
// @Success 200 "Уведомление принято или проигнорировано"
// @Failure 400 "Подпись неверна, order_id некорректен или пользователь не найден"
// @Failure 500 "Ошибка хранилища"
// @Router /ipn [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.ipn"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		log.Warn("failed to read notification body", sl.Err(err))
		h.finish(w, http.StatusBadRequest, metrics.OutcomeRejected)
		return
	}

	sig := r.Header.Get(h.header)
	if sig == "" {
		sig = r.Header.Get(FallbackSignatureHeader)
	}
	if h.secret == "" {
		log.Error("ipn secret is not configured")
		h.finish(w, http.StatusBadRequest, metrics.OutcomeRejected)
		return
	}
	if sig == "" {
		log.Warn("missing notification signature")
		h.finish(w, http.StatusBadRequest, metrics.OutcomeRejected)
		return
	}
	if !signature.Verify(h.secret, body, sig) {
		log.Warn("notification signature mismatch")
		h.finish(w, http.StatusBadRequest, metrics.OutcomeRejected)
		return
	}

	var n Notification
	if err := json.Unmarshal(body, &n); err != nil {
		log.Warn("signed notification is not valid json", sl.Err(err))
		h.finish(w, http.StatusOK, metrics.OutcomeIgnored)
		return
	}
	if n.PaymentStatus != StatusFinished || n.OrderID == "" {
		log.Info("notification ignored",
			slog.String("payment_status", n.PaymentStatus),
			slog.String("order_id", n.OrderID))
		h.finish(w, http.StatusOK, metrics.OutcomeIgnored)
		return
	}

	order, err := orderid.Decode(n.OrderID)
	if err != nil {
		log.Error("signed notification carries malformed order_id",
			slog.String("order_id", n.OrderID), sl.Err(err))
		h.finish(w, http.StatusBadRequest, metrics.OutcomeRejected)
		return
	}
	log = log.With(slog.Int64("user_id", order.UserID), slog.String("plan", order.Plan.String()))

	res, err := h.applier.Apply(r.Context(), order.UserID, order.Plan)
	switch {
	case errors.Is(err, payment.ErrSubjectNotFound):
		log.Warn("notification for unknown user")
		h.finish(w, http.StatusBadRequest, metrics.OutcomeNotFound)
	case err != nil:
		log.Error("failed to apply payment", sl.Err(err))
		h.finish(w, http.StatusInternalServerError, metrics.OutcomeFailed)
	case res == payment.AlreadyApplied:
		log.Info("payment already applied")
		h.finish(w, http.StatusOK, metrics.OutcomeAlready)
	default:
		log.Info("payment applied")
		h.finish(w, http.StatusOK, metrics.OutcomeApplied)
	}
}

func (h *Handler) finish(w http.ResponseWriter, status int, outcome string) {
	if h.metrics != nil {
		h.metrics.Observe(outcome)
	}
	w.WriteHeader(status)
}
