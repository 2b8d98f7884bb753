package rabbitmq

const (
	// NotificationsExchange — обменник для всех уведомлений.
	NotificationsExchange = "notifications"
	// PaymentAppliedRoutingKey — ключ маршрутизации события об успешной оплате.
	PaymentAppliedRoutingKey = "payment.applied"
	// PaymentAppliedQueue — очередь писем-подтверждений оплаты.
	PaymentAppliedQueue = "notifications.payment_applied"
)

// QueueConfig связывает очередь с ключом маршрутизации.
type QueueConfig struct {
	QueueName  string
	RoutingKey string
}

// GetNotificationQueues возвращает очереди, которые объявляются при старте.
func GetNotificationQueues() []QueueConfig {
	return []QueueConfig{
		{QueueName: PaymentAppliedQueue, RoutingKey: PaymentAppliedRoutingKey},
	}
}
