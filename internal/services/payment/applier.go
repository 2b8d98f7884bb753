// Package payment применяет подтверждённые оплаты к пользователям и
// создаёт счета у платёжного провайдера.
package payment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/course-membership/internal/lib/sl"
	"github.com/magabrotheeeer/course-membership/internal/models"
	"github.com/magabrotheeeer/course-membership/internal/rabbitmq"
	"github.com/magabrotheeeer/course-membership/internal/storage/repository"
)

var (
	// ErrSubjectNotFound — пользователя с таким ID нет.
	ErrSubjectNotFound = errors.New("subject not found")
	// ErrPersistence — хранилище не смогло прочитать или записать пользователя.
	ErrPersistence = errors.New("persistence failure")
)

// Result — итог применения оплаты.
type Result int

const (
	// Applied — пользователь переведён в оплаченное состояние этим вызовом.
	Applied Result = iota + 1
	// AlreadyApplied — пользователь уже был оплачен, изменений нет.
	AlreadyApplied
)

func (r Result) String() string {
	switch r {
	case Applied:
		return "applied"
	case AlreadyApplied:
		return "already_applied"
	default:
		return "unknown"
	}
}

// Store описывает хранилище пользователей, нужное Applier.
type Store interface {
	GetUser(ctx context.Context, id int64) (*models.User, error)
	MarkPaid(ctx context.Context, id int64, plan models.Plan) (bool, error)
}

// Publisher публикует события в брокер сообщений.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, message any) error
}

// Applier переводит пользователя в оплаченное состояние ровно один раз.
type Applier struct {
	store     Store
	publisher Publisher
	log       *slog.Logger
	now       func() time.Time
}

// NewApplier создаёт Applier. publisher может быть nil.
func NewApplier(store Store, publisher Publisher, log *slog.Logger) *Applier {
	return &Applier{
		store:     store,
		publisher: publisher,
		log:       log,
		now:       time.Now,
	}
}

// Apply выставляет пользователю paid=true и тариф plan.
// Повторный вызов для оплаченного пользователя ничего не пишет и
// возвращает AlreadyApplied.
func (a *Applier) Apply(ctx context.Context, userID int64, plan models.Plan) (Result, error) {
	const op = "services.payment.Apply"
	log := a.log.With(sl.Op(op), slog.Int64("user_id", userID), slog.String("plan", plan.String()))

	updated, err := a.store.MarkPaid(ctx, userID, plan)
	if err != nil {
		return 0, fmt.Errorf("%s: %w: %w", op, ErrPersistence, err)
	}

	if !updated {
		// ни одна строка не изменилась: пользователь уже оплачен или его нет
		if _, err := a.store.GetUser(ctx, userID); err != nil {
			if errors.Is(err, repository.ErrUserNotFound) {
				return 0, fmt.Errorf("%s: %w", op, ErrSubjectNotFound)
			}
			return 0, fmt.Errorf("%s: %w: %w", op, ErrPersistence, err)
		}
		log.Info("payment already applied")
		return AlreadyApplied, nil
	}

	log.Info("payment applied")
	a.publishApplied(ctx, log, userID, plan)
	return Applied, nil
}

func (a *Applier) publishApplied(ctx context.Context, log *slog.Logger, userID int64, plan models.Plan) {
	if a.publisher == nil {
		return
	}
	user, err := a.store.GetUser(ctx, userID)
	if err != nil {
		log.Warn("failed to load user for payment event", sl.Err(err))
		return
	}
	event := models.PaymentEvent{
		EventID:   uuid.NewString(),
		UserID:    user.ID,
		Username:  user.Username,
		Email:     user.Email,
		Plan:      plan,
		AppliedAt: a.now().UTC(),
	}
	if err := a.publisher.Publish(ctx, rabbitmq.PaymentAppliedRoutingKey, event); err != nil {
		log.Warn("failed to publish payment event", sl.Err(err))
	}
}
