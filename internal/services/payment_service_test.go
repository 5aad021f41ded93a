package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/zlucky/raffle-backend/internal/models"
	"github.com/zlucky/raffle-backend/pkg/chapa"
)

// reserveOne places a hold via the reservation flow and returns the
// reservation result for reconciliation tests.
func reserveOne(t *testing.T, f *fixture, eventID primitive.ObjectID, number int) *ReservationResult {
	t.Helper()
	result, err := f.reservations.Reserve(context.Background(), eventID, &ReserveRequest{
		TicketNumber: number,
		BuyerName:    "Abebe",
		BuyerPhone:   "0911223344",
	})
	require.NoError(t, err)
	return result
}

func TestReconcileSuccessSellsTicket(t *testing.T) {
	f := newFixture()
	event := f.seedEvent(primitive.NewObjectID(), 3)
	res := reserveOne(t, f, event.ID, 1)

	f.gateway.verify = &chapa.VerifyResult{
		Success:       true,
		Amount:        event.TicketPrice,
		TransactionID: "ch-123",
	}

	payment, err := f.payments.Reconcile(context.Background(), res.TxRef)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusSuccess, payment.Status)
	assert.Equal(t, "ch-123", payment.GatewayTransactionID)
	require.NotNil(t, payment.CompletedAt)

	ticket := f.ticketRepo.get(res.TicketID)
	assert.Equal(t, models.TicketStatusSold, ticket.Status)
	assert.Nil(t, ticket.ReservationExpiresAt)
	require.NotNil(t, ticket.SoldAt)

	available, reserved, sold := f.counters(event.ID)
	assert.Equal(t, 2, available)
	assert.Zero(t, reserved)
	assert.Equal(t, 1, sold)
}

func TestReconcileIsIdempotent(t *testing.T) {
	f := newFixture()
	event := f.seedEvent(primitive.NewObjectID(), 3)
	res := reserveOne(t, f, event.ID, 1)

	f.gateway.verify = &chapa.VerifyResult{Success: true, Amount: event.TicketPrice}

	first, err := f.payments.Reconcile(context.Background(), res.TxRef)
	require.NoError(t, err)
	verifiedOnce := f.gateway.verifyCount()

	// Re-verification and a duplicate webhook both hit the terminal
	// gate: no further gateway calls, no counter movement.
	second, err := f.payments.Reconcile(context.Background(), res.TxRef)
	require.NoError(t, err)
	assert.Equal(t, first.Status, second.Status)

	err = f.payments.HandleWebhook(context.Background(), &chapa.WebhookPayload{
		TxRef: res.TxRef, Status: "success",
	})
	require.NoError(t, err)

	assert.Equal(t, verifiedOnce, f.gateway.verifyCount())
	available, reserved, sold := f.counters(event.ID)
	assert.Equal(t, 2, available)
	assert.Zero(t, reserved)
	assert.Equal(t, 1, sold)
}

func TestWebhookSuccessSellsTicket(t *testing.T) {
	f := newFixture()
	event := f.seedEvent(primitive.NewObjectID(), 2)
	res := reserveOne(t, f, event.ID, 2)

	f.gateway.verify = &chapa.VerifyResult{Success: true, Amount: event.TicketPrice, TransactionID: "ch-9"}

	err := f.payments.HandleWebhook(context.Background(), &chapa.WebhookPayload{
		TxRef: res.TxRef, Status: "success", TransactionID: "ch-9",
	})
	require.NoError(t, err)

	payment, err := f.paymentRepo.FindByTxRef(context.Background(), res.TxRef)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusSuccess, payment.Status)
	assert.True(t, payment.WebhookReceived)

	ticket := f.ticketRepo.get(res.TicketID)
	assert.Equal(t, models.TicketStatusSold, ticket.Status)
}

func TestWebhookIgnoresNonSuccessEvents(t *testing.T) {
	f := newFixture()
	event := f.seedEvent(primitive.NewObjectID(), 2)
	res := reserveOne(t, f, event.ID, 1)

	err := f.payments.HandleWebhook(context.Background(), &chapa.WebhookPayload{
		TxRef: res.TxRef, Status: "failed",
	})
	require.NoError(t, err)
	assert.Zero(t, f.gateway.verifyCount())

	payment, err := f.paymentRepo.FindByTxRef(context.Background(), res.TxRef)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusPending, payment.Status)
	ticket := f.ticketRepo.get(res.TicketID)
	assert.Equal(t, models.TicketStatusReserved, ticket.Status)
}

func TestReconcileFailureReleasesHold(t *testing.T) {
	f := newFixture()
	event := f.seedEvent(primitive.NewObjectID(), 3)
	res := reserveOne(t, f, event.ID, 1)

	f.gateway.verify = &chapa.VerifyResult{Success: false}

	payment, err := f.payments.Reconcile(context.Background(), res.TxRef)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusFailed, payment.Status)

	ticket := f.ticketRepo.get(res.TicketID)
	assert.Equal(t, models.TicketStatusAvailable, ticket.Status)
	assert.Empty(t, ticket.BuyerName)

	available, reserved, sold := f.counters(event.ID)
	assert.Equal(t, 3, available)
	assert.Zero(t, reserved)
	assert.Zero(t, sold)
}

func TestReconcileAmountMismatchFailsClosed(t *testing.T) {
	f := newFixture()
	event := f.seedEvent(primitive.NewObjectID(), 3)
	res := reserveOne(t, f, event.ID, 1)

	f.gateway.verify = &chapa.VerifyResult{Success: true, Amount: event.TicketPrice - 1}

	payment, err := f.payments.Reconcile(context.Background(), res.TxRef)
	assert.ErrorIs(t, err, ErrAmountMismatch)
	require.NotNil(t, payment)
	assert.Equal(t, models.PaymentStatusFailed, payment.Status)

	// The ticket stays reserved for the sweeper; counters untouched.
	ticket := f.ticketRepo.get(res.TicketID)
	assert.Equal(t, models.TicketStatusReserved, ticket.Status)
	available, reserved, sold := f.counters(event.ID)
	assert.Equal(t, 2, available)
	assert.Equal(t, 1, reserved)
	assert.Zero(t, sold)
}

func TestWebhookAcksAmountMismatch(t *testing.T) {
	f := newFixture()
	event := f.seedEvent(primitive.NewObjectID(), 2)
	res := reserveOne(t, f, event.ID, 1)

	f.gateway.verify = &chapa.VerifyResult{Success: true, Amount: event.TicketPrice + 100}

	err := f.payments.HandleWebhook(context.Background(), &chapa.WebhookPayload{
		TxRef: res.TxRef, Status: "success",
	})
	assert.NoError(t, err)

	payment, err := f.paymentRepo.FindByTxRef(context.Background(), res.TxRef)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusFailed, payment.Status)
	assert.Equal(t, "amount mismatch", payment.FailureReason)
}

func TestReconcileSuccessAfterSweepKeepsPayment(t *testing.T) {
	f := newFixture()
	event := f.seedEvent(primitive.NewObjectID(), 2)
	res := reserveOne(t, f, event.ID, 1)

	// The sweeper reverted the hold before the gateway confirmed.
	released, err := f.ticketRepo.Release(context.Background(), res.TicketID)
	require.NoError(t, err)
	require.True(t, released)
	require.NoError(t, f.eventRepo.AdjustCounters(context.Background(), event.ID, +1, -1, 0))

	f.gateway.verify = &chapa.VerifyResult{Success: true, Amount: event.TicketPrice}

	payment, err := f.payments.Reconcile(context.Background(), res.TxRef)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusSuccess, payment.Status)

	// The ticket was not resurrected and counters did not move again.
	ticket := f.ticketRepo.get(res.TicketID)
	assert.Equal(t, models.TicketStatusAvailable, ticket.Status)
	available, reserved, sold := f.counters(event.ID)
	assert.Equal(t, 2, available)
	assert.Zero(t, reserved)
	assert.Zero(t, sold)
}

func TestReconcileUnknownPayment(t *testing.T) {
	f := newFixture()
	_, err := f.payments.Reconcile(context.Background(), "tx-missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReconcileGatewayError(t *testing.T) {
	f := newFixture()
	event := f.seedEvent(primitive.NewObjectID(), 2)
	res := reserveOne(t, f, event.ID, 1)

	f.gateway.verifyErr = errors.New("verify unavailable")

	_, err := f.payments.Reconcile(context.Background(), res.TxRef)
	assert.ErrorIs(t, err, ErrGatewayFailure)

	// Nothing settled: the next reconcile attempt starts clean.
	payment, err := f.paymentRepo.FindByTxRef(context.Background(), res.TxRef)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusPending, payment.Status)
}
