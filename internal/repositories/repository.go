package repositories

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/zlucky/raffle-backend/internal/models"
)

// TxRunner executes fn inside one storage transaction. Repository calls
// made with the context passed to fn are part of that transaction.
// Transient contention is retried a bounded number of times before the
// error surfaces.
type TxRunner interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// BuyerInfo is the buyer contact captured on reservation
type BuyerInfo struct {
	Name  string
	Phone string
	Email string
}

// UserRepository stores organizer accounts
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
}

// EventRepository stores raffle events and their aggregate counters
type EventRepository interface {
	Create(ctx context.Context, event *models.Event) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Event, error)
	FindByAdmin(ctx context.Context, adminID primitive.ObjectID) ([]*models.Event, error)
	// AdjustCounters applies relative deltas to the available/reserved/sold
	// counters with a single $inc, never read-modify-write.
	AdjustCounters(ctx context.Context, id primitive.ObjectID, available, reserved, sold int) error
	// Close transitions active -> closed. Returns false when the event
	// was not active.
	Close(ctx context.Context, id primitive.ObjectID, at time.Time) (bool, error)
	// MarkWinnersGenerated flips isWinnerGenerated and completes the
	// event, conditional on winners not having been generated before.
	// Returns false when the flag was already set.
	MarkWinnersGenerated(ctx context.Context, id primitive.ObjectID, at time.Time) (bool, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// TicketRepository stores the per-event ticket inventory. Every state
// transition is a conditional update filtered on the expected current
// status; a false return means the ticket was not in that state.
type TicketRepository interface {
	CreateMany(ctx context.Context, tickets []*models.Ticket) error
	FindByEventAndNumber(ctx context.Context, eventID primitive.ObjectID, number int) (*models.Ticket, error)
	// FindByEvent lists tickets of an event, optionally filtered by
	// status (empty status means all), ordered by ticket number.
	FindByEvent(ctx context.Context, eventID primitive.ObjectID, status models.TicketStatus) ([]*models.Ticket, error)
	// FindExpiredReservations selects tickets whose reservation expiry
	// has passed, by expiry time only; callers re-check status before
	// mutating.
	FindExpiredReservations(ctx context.Context, now time.Time, limit int) ([]*models.Ticket, error)
	Reserve(ctx context.Context, id primitive.ObjectID, buyer BuyerInfo, expiresAt time.Time, paymentID string) (bool, error)
	// Release reverts a reserved ticket to available, clearing buyer,
	// expiry and payment fields.
	Release(ctx context.Context, id primitive.ObjectID) (bool, error)
	// ReleaseByPaymentID is the compensation variant keyed by the
	// payment reference; returns the released ticket when one matched.
	ReleaseByPaymentID(ctx context.Context, paymentID string) (*models.Ticket, error)
	// MarkSold promotes a reserved ticket to sold, clearing the expiry
	// and stamping soldAt; returns the sold ticket when one matched.
	MarkSold(ctx context.Context, eventID primitive.ObjectID, number int, at time.Time) (*models.Ticket, error)
	MarkWinner(ctx context.Context, id primitive.ObjectID, position int) error
	DeleteByEvent(ctx context.Context, eventID primitive.ObjectID) error
}

// PaymentRepository stores payment attempts keyed by tx_ref
type PaymentRepository interface {
	Create(ctx context.Context, payment *models.Payment) error
	FindByTxRef(ctx context.Context, txRef string) (*models.Payment, error)
	SetCheckoutURL(ctx context.Context, txRef, url string) error
	// MarkSuccess/MarkFailed/MarkExpired transition a pending payment to
	// its terminal state; a false return means the payment was no longer
	// pending.
	MarkSuccess(ctx context.Context, txRef, gatewayTxID string, details bson.M, viaWebhook bool, at time.Time) (bool, error)
	MarkFailed(ctx context.Context, txRef, reason string, details bson.M) (bool, error)
	MarkExpired(ctx context.Context, txRef string) (bool, error)
	FindExpiredPending(ctx context.Context, now time.Time, limit int) ([]*models.Payment, error)
}

// WinnerRepository stores draw results
type WinnerRepository interface {
	CreateMany(ctx context.Context, winners []*models.Winner) error
	FindByEvent(ctx context.Context, eventID primitive.ObjectID) ([]*models.Winner, error)
}
