package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/zlucky/raffle-backend/internal/config"
	"github.com/zlucky/raffle-backend/internal/models"
	"github.com/zlucky/raffle-backend/internal/repositories"
	"github.com/zlucky/raffle-backend/internal/utils"
	"github.com/zlucky/raffle-backend/pkg/chapa"
)

// ReservationTTL is how long a hold lasts before the sweeper reverts
// it. The sweeper's expiry predicate and the payment expiry both derive
// from this single constant.
const ReservationTTL = 10 * time.Minute

// ReserveRequest is the buyer input for a reservation
type ReserveRequest struct {
	TicketNumber int
	BuyerName    string
	BuyerPhone   string
	BuyerEmail   string
}

// ReservationResult is returned to the caller on a successful hold
type ReservationResult struct {
	TicketID    primitive.ObjectID `json:"ticketId"`
	TxRef       string             `json:"txRef"`
	CheckoutURL string             `json:"checkoutUrl"`
	ExpiresAt   time.Time          `json:"expiresAt"`
}

// ReservationService executes the reserve-ticket protocol
type ReservationService interface {
	Reserve(ctx context.Context, eventID primitive.ObjectID, req *ReserveRequest) (*ReservationResult, error)
}

type reservationService struct {
	txRunner    repositories.TxRunner
	eventRepo   repositories.EventRepository
	ticketRepo  repositories.TicketRepository
	paymentRepo repositories.PaymentRepository
	gateway     chapa.Gateway
	appURL      string
	currency    string
}

// NewReservationService creates a ReservationService
func NewReservationService(
	txRunner repositories.TxRunner,
	eventRepo repositories.EventRepository,
	ticketRepo repositories.TicketRepository,
	paymentRepo repositories.PaymentRepository,
	gateway chapa.Gateway,
	cfg *config.Config,
) ReservationService {
	return &reservationService{
		txRunner:    txRunner,
		eventRepo:   eventRepo,
		ticketRepo:  ticketRepo,
		paymentRepo: paymentRepo,
		gateway:     gateway,
		appURL:      cfg.AppURL,
		currency:    cfg.Chapa.Currency,
	}
}

// Reserve atomically places a 10-minute hold on one available ticket,
// creates the pending payment, then initializes the gateway checkout.
// If gateway initialization fails after the hold committed, a
// compensating transaction reverts the hold.
func (s *reservationService) Reserve(ctx context.Context, eventID primitive.ObjectID, req *ReserveRequest) (*ReservationResult, error) {
	if req.BuyerName == "" || req.BuyerPhone == "" || req.TicketNumber < 1 {
		return nil, fmt.Errorf("%w: ticket number, buyer name and phone are required", ErrInvalidInput)
	}
	phone := utils.NormalizePhone(req.BuyerPhone)
	if phone == "" {
		return nil, fmt.Errorf("%w: invalid phone number %q", ErrInvalidInput, req.BuyerPhone)
	}
	if req.BuyerEmail != "" && !utils.IsValidEmail(req.BuyerEmail) {
		return nil, fmt.Errorf("%w: invalid email address", ErrInvalidInput)
	}

	buyer := repositories.BuyerInfo{Name: req.BuyerName, Phone: phone, Email: req.BuyerEmail}
	txRef := "tx-" + uuid.NewString()
	expiresAt := time.Now().Add(ReservationTTL)

	var (
		ticket    *models.Ticket
		eventName string
		amount    int64
	)
	err := s.txRunner.WithTransaction(ctx, func(ctx context.Context) error {
		event, err := s.eventRepo.FindByID(ctx, eventID)
		if errors.Is(err, mongo.ErrNoDocuments) {
			return fmt.Errorf("%w: event", ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("failed to load event: %w", err)
		}
		if event.Status != models.EventStatusActive {
			return ErrEventNotActive
		}

		ticket, err = s.ticketRepo.FindByEventAndNumber(ctx, eventID, req.TicketNumber)
		if errors.Is(err, mongo.ErrNoDocuments) {
			return fmt.Errorf("%w: ticket %d", ErrNotFound, req.TicketNumber)
		}
		if err != nil {
			return fmt.Errorf("failed to load ticket: %w", err)
		}

		reserved, err := s.ticketRepo.Reserve(ctx, ticket.ID, buyer, expiresAt, txRef)
		if err != nil {
			return fmt.Errorf("failed to reserve ticket: %w", err)
		}
		if !reserved {
			return ErrTicketNotAvailable
		}

		if err := s.eventRepo.AdjustCounters(ctx, eventID, -1, +1, 0); err != nil {
			return fmt.Errorf("failed to adjust counters: %w", err)
		}

		eventName = event.Name
		amount = event.TicketPrice
		payment := &models.Payment{
			TxRef:        txRef,
			EventID:      eventID,
			TicketID:     ticket.ID,
			TicketNumber: req.TicketNumber,
			Amount:       amount,
			Currency:     s.currency,
			BuyerName:    buyer.Name,
			BuyerPhone:   buyer.Phone,
			BuyerEmail:   buyer.Email,
			Status:       models.PaymentStatusPending,
			ExpiresAt:    expiresAt,
		}
		if err := s.paymentRepo.Create(ctx, payment); err != nil {
			return fmt.Errorf("failed to create payment: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Gateway initialization happens outside the hold transaction so a
	// slow upstream never extends the critical section.
	initResp, err := s.gateway.Initialize(ctx, &chapa.InitializeRequest{
		Amount:      amount,
		Currency:    s.currency,
		Email:       buyer.Email,
		FirstName:   buyer.Name,
		PhoneNumber: buyer.Phone,
		TxRef:       txRef,
		CallbackURL: s.appURL + "/api/v1/webhooks/chapa",
		ReturnURL:   s.appURL + "/payment/success?tx_ref=" + txRef,
		Title:       eventName,
		Description: sanitizeDescription(fmt.Sprintf("Ticket %d for %s", req.TicketNumber, buyer.Name)),
	})
	if err != nil {
		slog.Error("gateway initialize failed, compensating reservation",
			"txRef", txRef, "eventId", eventID.Hex(), "ticketNumber", req.TicketNumber, "error", err)
		s.compensate(ctx, eventID, txRef)
		return nil, fmt.Errorf("%w: %v", ErrGatewayFailure, err)
	}

	if err := s.paymentRepo.SetCheckoutURL(ctx, txRef, initResp.CheckoutURL); err != nil {
		slog.Error("failed to record checkout url", "txRef", txRef, "error", err)
	}

	slog.Info("ticket reserved",
		"eventId", eventID.Hex(), "ticketNumber", req.TicketNumber,
		"txRef", txRef, "expiresAt", expiresAt)

	return &ReservationResult{
		TicketID:    ticket.ID,
		TxRef:       txRef,
		CheckoutURL: initResp.CheckoutURL,
		ExpiresAt:   expiresAt,
	}, nil
}

// compensate reverts a committed hold after gateway initialization
// failed. Keyed by the payment reference and conditional on the ticket
// still being reserved, so it is safe to run even if the sweeper got
// there first.
func (s *reservationService) compensate(ctx context.Context, eventID primitive.ObjectID, txRef string) {
	err := s.txRunner.WithTransaction(ctx, func(ctx context.Context) error {
		ticket, err := s.ticketRepo.ReleaseByPaymentID(ctx, txRef)
		if err != nil {
			return fmt.Errorf("failed to release ticket: %w", err)
		}
		if ticket != nil {
			if err := s.eventRepo.AdjustCounters(ctx, eventID, +1, -1, 0); err != nil {
				return fmt.Errorf("failed to adjust counters: %w", err)
			}
		}
		if _, err := s.paymentRepo.MarkFailed(ctx, txRef, "gateway initialization failed", nil); err != nil {
			return fmt.Errorf("failed to mark payment failed: %w", err)
		}
		return nil
	})
	if err != nil {
		// The sweeper reverts the hold after expiry, so an unwound
		// compensation heals on its own.
		slog.Error("reservation compensation failed", "txRef", txRef, "error", err)
	}
}

// sanitizeDescription strips characters the gateway rejects in
// checkout customization fields.
func sanitizeDescription(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == ' ', r == '.', r == '_', r == '-':
			return r
		default:
			return -1
		}
	}, s)
}
