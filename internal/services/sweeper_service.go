package services

import (
	"context"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/sync/errgroup"

	"github.com/zlucky/raffle-backend/internal/models"
	"github.com/zlucky/raffle-backend/internal/repositories"
)

// sweepBatchSize bounds how many expired records one sweep invocation
// processes; the next scheduled run picks up the rest.
const sweepBatchSize = 100

// SweepResult reports what one sweep invocation reverted
type SweepResult struct {
	Tickets  int `json:"ticketsReverted"`
	Payments int `json:"paymentsExpired"`
}

// SweeperService reverts expired reservations and expires their
// pending payments. Triggered on a schedule by an external caller.
type SweeperService interface {
	Sweep(ctx context.Context) (*SweepResult, error)
}

type sweeperService struct {
	txRunner    repositories.TxRunner
	eventRepo   repositories.EventRepository
	ticketRepo  repositories.TicketRepository
	paymentRepo repositories.PaymentRepository
}

// NewSweeperService creates a SweeperService
func NewSweeperService(
	txRunner repositories.TxRunner,
	eventRepo repositories.EventRepository,
	ticketRepo repositories.TicketRepository,
	paymentRepo repositories.PaymentRepository,
) SweeperService {
	return &sweeperService{
		txRunner:    txRunner,
		eventRepo:   eventRepo,
		ticketRepo:  ticketRepo,
		paymentRepo: paymentRepo,
	}
}

// Sweep runs the ticket and payment passes. Safe to run concurrently
// with itself and with reconciliation: every mutation re-checks the
// record's status inside its own transaction, so a record that already
// transitioned is skipped rather than double-reverted.
func (s *sweeperService) Sweep(ctx context.Context) (*SweepResult, error) {
	result := &SweepResult{}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := s.sweepTickets(gctx)
		result.Tickets = n
		return err
	})
	g.Go(func() error {
		n, err := s.sweepPayments(gctx)
		result.Payments = n
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	slog.Info("sweep completed", "ticketsReverted", result.Tickets, "paymentsExpired", result.Payments)
	return result, nil
}

// sweepTickets reverts expired holds and applies one batched counter
// adjustment per event, all in a single transaction. A commit failure
// fails the whole invocation; the next scheduled run retries.
func (s *sweeperService) sweepTickets(ctx context.Context) (int, error) {
	candidates, err := s.ticketRepo.FindExpiredReservations(ctx, time.Now(), sweepBatchSize)
	if err != nil {
		return 0, err
	}
	if len(candidates) == 0 {
		return 0, nil
	}

	reverted := 0
	err = s.txRunner.WithTransaction(ctx, func(ctx context.Context) error {
		reverted = 0
		eventDeltas := make(map[primitive.ObjectID]int)

		for _, ticket := range candidates {
			// The time-only query also returns tickets that already
			// moved on; releasing is conditional on status == reserved.
			if ticket.Status != models.TicketStatusReserved {
				continue
			}
			released, err := s.ticketRepo.Release(ctx, ticket.ID)
			if err != nil {
				return err
			}
			if !released {
				// Lost the race against reconciliation; not an error.
				continue
			}
			reverted++
			eventDeltas[ticket.EventID]++
		}

		for eventID, count := range eventDeltas {
			if err := s.eventRepo.AdjustCounters(ctx, eventID, +count, -count, 0); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return reverted, nil
}

func (s *sweeperService) sweepPayments(ctx context.Context) (int, error) {
	candidates, err := s.paymentRepo.FindExpiredPending(ctx, time.Now(), sweepBatchSize)
	if err != nil {
		return 0, err
	}

	expired := 0
	for _, payment := range candidates {
		if payment.Status != models.PaymentStatusPending {
			continue
		}
		marked, err := s.paymentRepo.MarkExpired(ctx, payment.TxRef)
		if err != nil {
			// Partial failure on one record is logged, the rest of the
			// batch continues.
			slog.Error("failed to expire payment", "txRef", payment.TxRef, "error", err)
			continue
		}
		if marked {
			expired++
		}
	}
	return expired, nil
}
