package models

import "time"

// PaymentEvent публикуется в очередь уведомлений после того, как оплата
// применена к пользователю. EventID позволяет получателю отбрасывать дубли.
type PaymentEvent struct {
	EventID   string    `json:"event_id"`
	UserID    int64     `json:"user_id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Plan      Plan      `json:"plan"`
	AppliedAt time.Time `json:"applied_at"`
}
