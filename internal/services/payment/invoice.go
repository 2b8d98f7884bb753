package payment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/magabrotheeeer/course-membership/internal/lib/orderid"
	"github.com/magabrotheeeer/course-membership/internal/lib/sl"
	"github.com/magabrotheeeer/course-membership/internal/models"
	"github.com/magabrotheeeer/course-membership/internal/paymentprovider"
)

var (
	// ErrUnknownPlan — запрошен тариф, которого нет в перечне.
	ErrUnknownPlan = errors.New("unknown plan")
	// ErrAlreadyPaid — пользователь уже оплатил курс.
	ErrAlreadyPaid = errors.New("user already paid")
	// ErrProvider — платёжный провайдер не смог создать счёт.
	ErrProvider = errors.New("payment provider failure")
)

// InvoiceCreator создаёт счёт у платёжного провайдера.
type InvoiceCreator interface {
	CreateInvoice(ctx context.Context, params paymentprovider.CreateInvoiceRequest) (*paymentprovider.CreateInvoiceResponse, error)
}

// UserGetter возвращает пользователя по ID.
type UserGetter interface {
	GetUser(ctx context.Context, id int64) (*models.User, error)
}

// URLs передаются провайдеру вместе со счётом.
type URLs struct {
	IPNCallback string
	Success     string
	Cancel      string
}

// InvoiceService выставляет счета на оплату тарифов.
type InvoiceService struct {
	provider InvoiceCreator
	users    UserGetter
	urls     URLs
	log      *slog.Logger
}

// NewInvoiceService создаёт InvoiceService.
func NewInvoiceService(provider InvoiceCreator, users UserGetter, urls URLs, log *slog.Logger) *InvoiceService {
	return &InvoiceService{
		provider: provider,
		users:    users,
		urls:     urls,
		log:      log,
	}
}

// CreateInvoice выставляет счёт на тариф plan и возвращает ссылку на оплату.
// order_id счёта кодирует пару (userID, plan), которую затем вернёт IPN.
func (s *InvoiceService) CreateInvoice(ctx context.Context, userID int64, plan models.Plan) (string, error) {
	const op = "services.payment.CreateInvoice"

	if !plan.Valid() {
		return "", fmt.Errorf("%s: %w: %q", op, ErrUnknownPlan, plan)
	}
	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if user.Paid {
		return "", fmt.Errorf("%s: %w", op, ErrAlreadyPaid)
	}

	orderID := orderid.Encode(userID, plan)
	invoice, err := s.provider.CreateInvoice(ctx, paymentprovider.CreateInvoiceRequest{
		PriceAmount:      plan.Price(),
		PriceCurrency:    models.PriceCurrency,
		OrderID:          orderID,
		OrderDescription: fmt.Sprintf("%s course membership", plan),
		IPNCallbackURL:   s.urls.IPNCallback,
		SuccessURL:       s.urls.Success,
		CancelURL:        s.urls.Cancel,
	})
	if err != nil {
		return "", fmt.Errorf("%s: %w: %w", op, ErrProvider, err)
	}

	s.log.Info("invoice created", sl.Op(op),
		slog.String("order_id", orderID),
		slog.String("invoice_id", invoice.ID))
	return invoice.RedirectURL(), nil
}
