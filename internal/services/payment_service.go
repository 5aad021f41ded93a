package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/zlucky/raffle-backend/internal/models"
	"github.com/zlucky/raffle-backend/internal/repositories"
	"github.com/zlucky/raffle-backend/pkg/chapa"
)

// PaymentService reconciles gateway-reported payment outcomes with
// local state. The client-initiated verify call and the signed webhook
// both converge on Reconcile, so the two entry points cannot drift.
type PaymentService interface {
	// Reconcile drives the reserved ticket to sold or back to available
	// based on the gateway's verdict for txRef. Idempotent: a payment
	// already in a terminal state is returned unchanged.
	Reconcile(ctx context.Context, txRef string) (*models.Payment, error)
	// HandleWebhook processes a signature-verified webhook delivery.
	HandleWebhook(ctx context.Context, payload *chapa.WebhookPayload) error
	GetPayment(ctx context.Context, txRef string) (*models.Payment, error)
}

type paymentService struct {
	txRunner    repositories.TxRunner
	eventRepo   repositories.EventRepository
	ticketRepo  repositories.TicketRepository
	paymentRepo repositories.PaymentRepository
	gateway     chapa.Gateway
	notifier    NotificationService
}

// NewPaymentService creates a PaymentService
func NewPaymentService(
	txRunner repositories.TxRunner,
	eventRepo repositories.EventRepository,
	ticketRepo repositories.TicketRepository,
	paymentRepo repositories.PaymentRepository,
	gateway chapa.Gateway,
	notifier NotificationService,
) PaymentService {
	return &paymentService{
		txRunner:    txRunner,
		eventRepo:   eventRepo,
		ticketRepo:  ticketRepo,
		paymentRepo: paymentRepo,
		gateway:     gateway,
		notifier:    notifier,
	}
}

// GetPayment returns the stored payment for a reference
func (s *paymentService) GetPayment(ctx context.Context, txRef string) (*models.Payment, error) {
	payment, err := s.paymentRepo.FindByTxRef(ctx, txRef)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("%w: payment %s", ErrNotFound, txRef)
	}
	if err != nil {
		return nil, err
	}
	return payment, nil
}

// Reconcile is the client-verify entry point.
func (s *paymentService) Reconcile(ctx context.Context, txRef string) (*models.Payment, error) {
	return s.reconcile(ctx, txRef, false, "")
}

// HandleWebhook is the webhook entry point. Non-success events are
// acknowledged and ignored; expiry handles abandoned checkouts.
func (s *paymentService) HandleWebhook(ctx context.Context, payload *chapa.WebhookPayload) error {
	if payload.TxRef == "" {
		return fmt.Errorf("%w: missing tx_ref", ErrInvalidInput)
	}
	if payload.Status != "success" {
		slog.Info("ignoring non-success webhook event", "txRef", payload.TxRef, "status", payload.Status)
		return nil
	}
	_, err := s.reconcile(ctx, payload.TxRef, true, payload.TransactionID)
	if errors.Is(err, ErrAmountMismatch) {
		// Recorded on the payment; the delivery itself is acknowledged
		// so the gateway stops redelivering.
		return nil
	}
	return err
}

func (s *paymentService) reconcile(ctx context.Context, txRef string, viaWebhook bool, gatewayTxID string) (*models.Payment, error) {
	payment, err := s.GetPayment(ctx, txRef)
	if err != nil {
		return nil, err
	}

	// Idempotency gate: terminal payments are never re-mutated, so
	// retries and duplicate webhook deliveries are safe.
	if payment.Status.Terminal() {
		return payment, nil
	}

	verdict, err := s.gateway.Verify(ctx, txRef)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGatewayFailure, err)
	}
	details := toBSON(verdict.Details)
	if gatewayTxID == "" {
		gatewayTxID = verdict.TransactionID
	}

	if !verdict.Success {
		return s.reconcileFailure(ctx, payment, details)
	}

	if verdict.Amount != payment.Amount {
		// Fails closed: the payment is flagged, the ticket stays
		// reserved for manual review until the hold expires.
		slog.Error("payment amount mismatch",
			"txRef", txRef, "expected", payment.Amount, "reported", verdict.Amount)
		if _, err := s.paymentRepo.MarkFailed(ctx, txRef, "amount mismatch", details); err != nil {
			return nil, fmt.Errorf("failed to mark payment failed: %w", err)
		}
		payment.Status = models.PaymentStatusFailed
		return payment, ErrAmountMismatch
	}

	return s.reconcileSuccess(ctx, payment, details, viaWebhook, gatewayTxID)
}

func (s *paymentService) reconcileSuccess(ctx context.Context, payment *models.Payment, details bson.M, viaWebhook bool, gatewayTxID string) (*models.Payment, error) {
	var soldTicket *models.Ticket
	err := s.txRunner.WithTransaction(ctx, func(ctx context.Context) error {
		now := time.Now()
		updated, err := s.paymentRepo.MarkSuccess(ctx, payment.TxRef, gatewayTxID, details, viaWebhook, now)
		if err != nil {
			return fmt.Errorf("failed to mark payment success: %w", err)
		}
		if !updated {
			// A concurrent reconciliation won; nothing left to do.
			return nil
		}

		soldTicket, err = s.ticketRepo.MarkSold(ctx, payment.EventID, payment.TicketNumber, now)
		if err != nil {
			return fmt.Errorf("failed to mark ticket sold: %w", err)
		}
		if soldTicket == nil {
			// The hold expired and the sweeper already reverted the
			// ticket. The payment stays successful for manual refund
			// handling; counters are untouched.
			slog.Warn("payment succeeded but ticket no longer reserved",
				"txRef", payment.TxRef, "ticketNumber", payment.TicketNumber)
			return nil
		}

		return s.eventRepo.AdjustCounters(ctx, payment.EventID, 0, -1, +1)
	})
	if err != nil {
		return nil, err
	}

	refreshed, err := s.GetPayment(ctx, payment.TxRef)
	if err != nil {
		return nil, err
	}

	if soldTicket != nil {
		slog.Info("ticket sold", "txRef", payment.TxRef,
			"eventId", payment.EventID.Hex(), "ticketNumber", payment.TicketNumber)
		s.notifyBuyer(refreshed)
	}
	return refreshed, nil
}

func (s *paymentService) reconcileFailure(ctx context.Context, payment *models.Payment, details bson.M) (*models.Payment, error) {
	err := s.txRunner.WithTransaction(ctx, func(ctx context.Context) error {
		updated, err := s.paymentRepo.MarkFailed(ctx, payment.TxRef, "gateway reported failure", details)
		if err != nil {
			return fmt.Errorf("failed to mark payment failed: %w", err)
		}
		if !updated {
			return nil
		}

		ticket, err := s.ticketRepo.ReleaseByPaymentID(ctx, payment.TxRef)
		if err != nil {
			return fmt.Errorf("failed to release ticket: %w", err)
		}
		if ticket != nil {
			return s.eventRepo.AdjustCounters(ctx, payment.EventID, +1, -1, 0)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Info("payment failed, hold released", "txRef", payment.TxRef)
	return s.GetPayment(ctx, payment.TxRef)
}

// notifyBuyer fires the confirmation SMS without blocking the caller.
func (s *paymentService) notifyBuyer(payment *models.Payment) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
		defer cancel()

		eventName := "your event"
		if event, err := s.eventRepo.FindByID(ctx, payment.EventID); err == nil {
			eventName = event.Name
		}
		s.notifier.SendTicketConfirmation(payment.BuyerPhone, payment.BuyerName, eventName, payment.TicketNumber, payment.TxRef)
	}()
}

func toBSON(details map[string]interface{}) bson.M {
	if details == nil {
		return nil
	}
	return bson.M(details)
}
