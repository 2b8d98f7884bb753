// Package sender отправляет пользователям письма-уведомления, получаемые из очереди.
package sender

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/magabrotheeeer/course-membership/internal/lib/sl"
	"github.com/magabrotheeeer/course-membership/internal/lib/smtp"
	"github.com/magabrotheeeer/course-membership/internal/models"
	"github.com/magabrotheeeer/course-membership/internal/rabbitmq"
)

var planTitles = map[models.Plan]string{
	models.PlanSMC:     "SMC",
	models.PlanWaveSMC: "Wave SMC",
}

// SenderService формирует и отправляет письма через SMTP.
type SenderService struct {
	transport smtp.TransportInterface
	log       *slog.Logger
}

// NewSenderService создает новый экземпляр SenderService.
func NewSenderService(log *slog.Logger, transport smtp.TransportInterface) *SenderService {
	return &SenderService{
		transport: transport,
		log:       log,
	}
}

// SendPaymentConfirmation обрабатывает событие models.PaymentEvent из очереди
// и отправляет пользователю письмо об открытии доступа к курсу.
// Некорректное сообщение помечается как rabbitmq.ErrPoisonMessage.
func (s *SenderService) SendPaymentConfirmation(body []byte) error {
	const op = "services.sender.SendPaymentConfirmation"

	var event models.PaymentEvent
	if err := json.Unmarshal(body, &event); err != nil {
		s.log.Error("failed to unmarshal message body", sl.Op(op), sl.Err(err))
		return fmt.Errorf("%s: %w: %w", op, rabbitmq.ErrPoisonMessage, err)
	}
	if event.Email == "" {
		return fmt.Errorf("%s: %w: event %s has no email", op, rabbitmq.ErrPoisonMessage, event.EventID)
	}

	title, ok := planTitles[event.Plan]
	if !ok {
		title = string(event.Plan)
	}
	subject := fmt.Sprintf("Your %s membership is active", title)
	bodyText := fmt.Sprintf("Hello, %s!\n\n"+
		"We have received your payment for the %s membership.\n"+
		"Your course is now unlocked: log in and open the Course page to start watching.\n\n"+
		"Order: %d:%s\n",
		event.Username, title, event.UserID, event.Plan)

	if err := s.sendEmail([]string{event.Email}, subject, bodyText); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("payment confirmation sent", slog.String("event_id", event.EventID), slog.Int64("user_id", event.UserID))
	return nil
}

func (s *SenderService) sendEmail(to []string, subject, bodyText string) error {
	msg := strings.Join([]string{
		"From: " + s.transport.GetSMTPUser(),
		"To: " + strings.Join(to, ";"),
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"UTF-8\"",
		"",
		bodyText,
	}, "\r\n")

	client, err := s.transport.Connect()
	if err != nil {
		s.log.Error("failed to connect to SMTP server", sl.Err(err))
		return err
	}
	defer client.Close()

	if err := client.Mail(s.transport.GetSMTPUser()); err != nil {
		s.log.Error("failed to set MAIL FROM", slog.String("from", s.transport.GetSMTPUser()), sl.Err(err))
		return err
	}
	for _, addr := range to {
		if err := client.Rcpt(addr); err != nil {
			s.log.Error("failed to set RCPT TO", slog.String("recipient", addr), sl.Err(err))
			return err
		}
	}

	wc, err := client.Data()
	if err != nil {
		s.log.Error("failed to get Data writer", sl.Err(err))
		return err
	}
	if _, err = wc.Write([]byte(msg)); err != nil {
		s.log.Error("failed to write email body", sl.Err(err))
		return err
	}
	if err = wc.Close(); err != nil {
		s.log.Error("failed to close Data writer", sl.Err(err))
		return err
	}
	if err = client.Quit(); err != nil {
		s.log.Error("failed to quit SMTP client", sl.Err(err))
		return err
	}
	return nil
}
