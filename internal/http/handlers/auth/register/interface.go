package register

import (
	"context"
)

// Service регистрирует пользователей.
type Service interface {
	Register(ctx context.Context, email, password string) (int64, error)
}
