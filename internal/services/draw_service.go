package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/zlucky/raffle-backend/internal/models"
	"github.com/zlucky/raffle-backend/internal/repositories"
	"github.com/zlucky/raffle-backend/internal/utils"
)

// DrawService runs the one-shot winner draw for an event
type DrawService interface {
	// DrawWinners samples numberOfWinners distinct winners uniformly at
	// random from the event's sold tickets, records them, and completes
	// the event. Re-invocation after success fails with ErrAlreadyDrawn.
	DrawWinners(ctx context.Context, eventID, adminID primitive.ObjectID, numberOfWinners int, prizes []string) ([]*models.Winner, error)
	GetWinners(ctx context.Context, eventID primitive.ObjectID) ([]*models.Winner, error)
}

type drawService struct {
	txRunner   repositories.TxRunner
	eventRepo  repositories.EventRepository
	ticketRepo repositories.TicketRepository
	winnerRepo repositories.WinnerRepository
	notifier   NotificationService
}

// NewDrawService creates a DrawService
func NewDrawService(
	txRunner repositories.TxRunner,
	eventRepo repositories.EventRepository,
	ticketRepo repositories.TicketRepository,
	winnerRepo repositories.WinnerRepository,
	notifier NotificationService,
) DrawService {
	return &drawService{
		txRunner:   txRunner,
		eventRepo:  eventRepo,
		ticketRepo: ticketRepo,
		winnerRepo: winnerRepo,
		notifier:   notifier,
	}
}

// DrawWinners executes the draw inside one transaction against the
// current event snapshot.
func (s *drawService) DrawWinners(ctx context.Context, eventID, adminID primitive.ObjectID, numberOfWinners int, prizes []string) ([]*models.Winner, error) {
	if numberOfWinners < 1 {
		return nil, fmt.Errorf("%w: number of winners must be at least 1", ErrInvalidInput)
	}

	var (
		winners   []*models.Winner
		eventName string
	)
	err := s.txRunner.WithTransaction(ctx, func(ctx context.Context) error {
		winners = nil

		event, err := s.eventRepo.FindByID(ctx, eventID)
		if errors.Is(err, mongo.ErrNoDocuments) {
			return fmt.Errorf("%w: event", ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("failed to load event: %w", err)
		}
		if event.AdminID != adminID {
			return ErrForbidden
		}
		if event.IsWinnerGenerated {
			return ErrAlreadyDrawn
		}
		eventName = event.Name

		soldTickets, err := s.ticketRepo.FindByEvent(ctx, eventID, models.TicketStatusSold)
		if err != nil {
			return fmt.Errorf("failed to load sold tickets: %w", err)
		}
		if len(soldTickets) == 0 {
			return ErrNoSales
		}
		if numberOfWinners > len(soldTickets) {
			return fmt.Errorf("%w: %d sold, %d requested", ErrInsufficientTickets, len(soldTickets), numberOfWinners)
		}

		// Uniform random permutation without replacement; rand.Shuffle
		// is a Fisher-Yates shuffle. Position follows shuffle order.
		rand.Shuffle(len(soldTickets), func(i, j int) {
			soldTickets[i], soldTickets[j] = soldTickets[j], soldTickets[i]
		})
		selected := soldTickets[:numberOfWinners]

		now := time.Now()
		for i, ticket := range selected {
			position := i + 1
			winners = append(winners, &models.Winner{
				EventID:      eventID,
				TicketID:     ticket.ID,
				TicketNumber: ticket.TicketNumber,
				Position:     position,
				Prize:        prizeLabel(prizes, position),
				BuyerName:    ticket.BuyerName,
				BuyerPhone:   ticket.BuyerPhone,
				BuyerEmail:   ticket.BuyerEmail,
				ClaimStatus:  models.ClaimStatusPending,
			})
		}
		if err := s.winnerRepo.CreateMany(ctx, winners); err != nil {
			return fmt.Errorf("failed to create winner records: %w", err)
		}

		for i, ticket := range selected {
			if err := s.ticketRepo.MarkWinner(ctx, ticket.ID, i+1); err != nil {
				return fmt.Errorf("failed to mark winning ticket %d: %w", ticket.TicketNumber, err)
			}
		}

		// One-shot guard: the conditional flip fails when a concurrent
		// draw got there first, aborting this transaction.
		flipped, err := s.eventRepo.MarkWinnersGenerated(ctx, eventID, now)
		if err != nil {
			return fmt.Errorf("failed to complete event: %w", err)
		}
		if !flipped {
			return ErrAlreadyDrawn
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Info("winners drawn", "eventId", eventID.Hex(), "count", len(winners))
	s.notifyWinners(eventName, winners)
	return winners, nil
}

// GetWinners lists an event's winners ordered by position
func (s *drawService) GetWinners(ctx context.Context, eventID primitive.ObjectID) ([]*models.Winner, error) {
	return s.winnerRepo.FindByEvent(ctx, eventID)
}

// notifyWinners fires best-effort SMS to each winner without blocking
// the draw response.
func (s *drawService) notifyWinners(eventName string, winners []*models.Winner) {
	go func() {
		for _, w := range winners {
			s.notifier.SendWinnerNotification(w.BuyerPhone, w.BuyerName, eventName, w.Prize, w.TicketNumber)
		}
	}()
}

// prizeLabel returns the caller-supplied label for a position, or the
// default "<n><ordinal> Prize".
func prizeLabel(prizes []string, position int) string {
	if position-1 < len(prizes) && prizes[position-1] != "" {
		return prizes[position-1]
	}
	return fmt.Sprintf("%d%s Prize", position, utils.OrdinalSuffix(position))
}
