package login

import (
	"context"
)

// Service проверяет учётные данные и выпускает токен.
type Service interface {
	Login(ctx context.Context, username, password string) (string, error)
}
