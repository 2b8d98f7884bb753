// Package metrics регистрирует метрики Prometheus приложения.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Исходы обработки IPN-уведомления.
const (
	OutcomeRejected = "rejected"
	OutcomeIgnored  = "ignored"
	OutcomeApplied  = "applied"
	OutcomeAlready  = "already_applied"
	OutcomeNotFound = "subject_not_found"
	OutcomeFailed   = "persistence_error"
)

// IPN считает уведомления платёжного провайдера по исходу обработки.
type IPN struct {
	notifications *prometheus.CounterVec
}

// NewIPN регистрирует счётчики в reg.
func NewIPN(reg prometheus.Registerer) *IPN {
	return &IPN{
		notifications: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "ipn_notifications_total",
			Help: "Payment provider notifications by processing outcome.",
		}, []string{"outcome"}),
	}
}

// Observe увеличивает счётчик для outcome. Безопасен для nil-получателя.
func (m *IPN) Observe(outcome string) {
	if m == nil {
		return
	}
	m.notifications.WithLabelValues(outcome).Inc()
}
