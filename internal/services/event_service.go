package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/zlucky/raffle-backend/internal/config"
	"github.com/zlucky/raffle-backend/internal/models"
	"github.com/zlucky/raffle-backend/internal/repositories"
	"github.com/zlucky/raffle-backend/pkg/qrcode"
)

// CreateEventRequest is the organizer input for a new event
type CreateEventRequest struct {
	Name         string
	Description  string
	TicketPrice  int64
	TotalTickets int
}

// EventService manages the event lifecycle and its ticket inventory
type EventService interface {
	// CreateEvent creates the event together with its full inventory of
	// tickets numbered densely 1..totalTickets. Tickets are never added
	// or removed afterward.
	CreateEvent(ctx context.Context, adminID primitive.ObjectID, req *CreateEventRequest) (*models.Event, error)
	GetEvent(ctx context.Context, eventID primitive.ObjectID) (*models.Event, error)
	ListEventsByAdmin(ctx context.Context, adminID primitive.ObjectID) ([]*models.Event, error)
	ListTickets(ctx context.Context, eventID primitive.ObjectID, status models.TicketStatus) ([]*models.Ticket, error)
	GetTicket(ctx context.Context, eventID primitive.ObjectID, number int) (*models.Ticket, error)
	CloseEvent(ctx context.Context, eventID, adminID primitive.ObjectID) error
	// DeleteEvent removes the event and its tickets in one operation.
	// Payments and winners are retained as historical records.
	DeleteEvent(ctx context.Context, eventID, adminID primitive.ObjectID) error
}

type eventService struct {
	txRunner   repositories.TxRunner
	eventRepo  repositories.EventRepository
	ticketRepo repositories.TicketRepository
	qrGen      qrcode.Generator
	appURL     string
}

// NewEventService creates an EventService
func NewEventService(
	txRunner repositories.TxRunner,
	eventRepo repositories.EventRepository,
	ticketRepo repositories.TicketRepository,
	qrGen qrcode.Generator,
	cfg *config.Config,
) EventService {
	return &eventService{
		txRunner:   txRunner,
		eventRepo:  eventRepo,
		ticketRepo: ticketRepo,
		qrGen:      qrGen,
		appURL:     cfg.AppURL,
	}
}

// CreateEvent validates, creates the event and batch-inserts its tickets.
func (s *eventService) CreateEvent(ctx context.Context, adminID primitive.ObjectID, req *CreateEventRequest) (*models.Event, error) {
	if req.Name == "" {
		return nil, fmt.Errorf("%w: event name is required", ErrInvalidInput)
	}
	if req.TicketPrice <= 0 {
		return nil, fmt.Errorf("%w: ticket price must be positive", ErrInvalidInput)
	}
	if req.TotalTickets < 1 || req.TotalTickets > models.MaxTicketsPerEvent {
		return nil, fmt.Errorf("%w: total tickets must be between 1 and %d", ErrInvalidInput, models.MaxTicketsPerEvent)
	}

	eventID := primitive.NewObjectID()
	publicURL := fmt.Sprintf("%s/event/%s", s.appURL, eventID.Hex())

	qrCodeURL, err := s.qrGen.Generate(ctx, eventID.Hex(), publicURL)
	if err != nil {
		return nil, fmt.Errorf("failed to generate event QR code: %w", err)
	}

	event := &models.Event{
		ID:               eventID,
		AdminID:          adminID,
		Name:             req.Name,
		Description:      req.Description,
		TicketPrice:      req.TicketPrice,
		TotalTickets:     req.TotalTickets,
		QRCodeURL:        qrCodeURL,
		PublicEventURL:   publicURL,
		Status:           models.EventStatusActive,
		AvailableTickets: req.TotalTickets,
	}

	err = s.txRunner.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.eventRepo.Create(ctx, event); err != nil {
			return fmt.Errorf("failed to create event: %w", err)
		}
		tickets := make([]*models.Ticket, 0, req.TotalTickets)
		for n := 1; n <= req.TotalTickets; n++ {
			tickets = append(tickets, &models.Ticket{
				EventID:      eventID,
				TicketNumber: n,
				Status:       models.TicketStatusAvailable,
			})
		}
		if err := s.ticketRepo.CreateMany(ctx, tickets); err != nil {
			return fmt.Errorf("failed to create tickets: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Info("event created", "eventId", eventID.Hex(), "totalTickets", req.TotalTickets)
	return event, nil
}

// GetEvent returns one event
func (s *eventService) GetEvent(ctx context.Context, eventID primitive.ObjectID) (*models.Event, error) {
	event, err := s.eventRepo.FindByID(ctx, eventID)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("%w: event", ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return event, nil
}

// ListEventsByAdmin lists events owned by an organizer
func (s *eventService) ListEventsByAdmin(ctx context.Context, adminID primitive.ObjectID) ([]*models.Event, error) {
	return s.eventRepo.FindByAdmin(ctx, adminID)
}

// ListTickets lists an event's tickets, optionally filtered by status
func (s *eventService) ListTickets(ctx context.Context, eventID primitive.ObjectID, status models.TicketStatus) ([]*models.Ticket, error) {
	if _, err := s.GetEvent(ctx, eventID); err != nil {
		return nil, err
	}
	return s.ticketRepo.FindByEvent(ctx, eventID, status)
}

// GetTicket looks up one ticket for public verification
func (s *eventService) GetTicket(ctx context.Context, eventID primitive.ObjectID, number int) (*models.Ticket, error) {
	ticket, err := s.ticketRepo.FindByEventAndNumber(ctx, eventID, number)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("%w: ticket %d", ErrNotFound, number)
	}
	if err != nil {
		return nil, err
	}
	return ticket, nil
}

// CloseEvent transitions an active event to the terminal closed state
func (s *eventService) CloseEvent(ctx context.Context, eventID, adminID primitive.ObjectID) error {
	event, err := s.GetEvent(ctx, eventID)
	if err != nil {
		return err
	}
	if event.AdminID != adminID {
		return ErrForbidden
	}

	closed, err := s.eventRepo.Close(ctx, eventID, time.Now())
	if err != nil {
		return fmt.Errorf("failed to close event: %w", err)
	}
	if !closed {
		return ErrEventNotActive
	}
	slog.Info("event closed", "eventId", eventID.Hex())
	return nil
}

// DeleteEvent removes the event and its tickets together
func (s *eventService) DeleteEvent(ctx context.Context, eventID, adminID primitive.ObjectID) error {
	event, err := s.GetEvent(ctx, eventID)
	if err != nil {
		return err
	}
	if event.AdminID != adminID {
		return ErrForbidden
	}

	err = s.txRunner.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.ticketRepo.DeleteByEvent(ctx, eventID); err != nil {
			return fmt.Errorf("failed to delete tickets: %w", err)
		}
		if err := s.eventRepo.Delete(ctx, eventID); err != nil {
			return fmt.Errorf("failed to delete event: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	slog.Info("event deleted", "eventId", eventID.Hex())
	return nil
}
