// Package orderid кодирует и разбирает составной идентификатор заказа
// "<user_id>:<plan>", который передаётся платёжному провайдеру и
// возвращается обратно в IPN-уведомлении.
package orderid

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/magabrotheeeer/course-membership/internal/models"
)

const separator = ":"

// ErrMalformed возвращается для любой строки, не являющейся корректным идентификатором.
var ErrMalformed = errors.New("malformed order id")

// OrderID хранит разобранный идентификатор заказа.
type OrderID struct {
	UserID int64
	Plan   models.Plan
}

// Encode собирает строковый идентификатор заказа.
func Encode(userID int64, plan models.Plan) string {
	return strconv.FormatInt(userID, 10) + separator + string(plan)
}

func (o OrderID) String() string {
	return Encode(o.UserID, o.Plan)
}

// Decode разбирает идентификатор по первому двоеточию. Левая часть должна
// быть положительным целым числом, правая — допустимым тарифом.
func Decode(s string) (OrderID, error) {
	const op = "orderid.Decode"

	idPart, planPart, ok := strings.Cut(s, separator)
	if !ok {
		return OrderID{}, fmt.Errorf("%s: %w: no separator in %q", op, ErrMalformed, s)
	}
	if !isDigits(idPart) {
		return OrderID{}, fmt.Errorf("%s: %w: user id %q is not a number", op, ErrMalformed, idPart)
	}
	userID, err := strconv.ParseInt(idPart, 10, 64)
	if err != nil || userID <= 0 {
		return OrderID{}, fmt.Errorf("%s: %w: user id %q is not positive", op, ErrMalformed, idPart)
	}
	plan, ok := models.ParsePlan(planPart)
	if !ok {
		return OrderID{}, fmt.Errorf("%s: %w: unknown plan %q", op, ErrMalformed, planPart)
	}
	return OrderID{UserID: userID, Plan: plan}, nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
