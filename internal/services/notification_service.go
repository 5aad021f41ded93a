package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/zlucky/raffle-backend/pkg/smsgateway"
)

// NotificationService sends buyer-facing SMS. Every send is
// best-effort: failures are logged and never propagated to the
// operation that triggered them.
type NotificationService interface {
	SendTicketConfirmation(phone, buyerName, eventName string, ticketNumber int, txRef string)
	SendWinnerNotification(phone, buyerName, eventName, prize string, ticketNumber int)
}

type notificationService struct {
	gateway smsgateway.Gateway
	timeout time.Duration
}

// NewNotificationService creates a NotificationService over an SMS gateway
func NewNotificationService(gateway smsgateway.Gateway) NotificationService {
	return &notificationService{
		gateway: gateway,
		timeout: 15 * time.Second,
	}
}

// SendTicketConfirmation confirms a completed purchase.
// Single-line message to avoid carrier filtering.
func (s *notificationService) SendTicketConfirmation(phone, buyerName, eventName string, ticketNumber int, txRef string) {
	message := fmt.Sprintf("Ticket Confirmed. %s. Ticket #%d. Ref: %s.", eventName, ticketNumber, txRef)
	s.send(phone, message, "ticket confirmation")
}

// SendWinnerNotification tells a buyer their ticket won.
func (s *notificationService) SendWinnerNotification(phone, buyerName, eventName, prize string, ticketNumber int) {
	message := fmt.Sprintf("Congratulations %s! Ticket #%d won %s in %s.", buyerName, ticketNumber, prize, eventName)
	s.send(phone, message, "winner notification")
}

func (s *notificationService) send(phone, message, kind string) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	messageID, err := s.gateway.SendSMS(ctx, phone, message)
	if err != nil {
		slog.Error("sms send failed", "kind", kind, "error", err)
		return
	}
	slog.Info("sms sent", "kind", kind, "messageId", messageID)
}
