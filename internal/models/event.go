package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// EventStatus represents the lifecycle state of a raffle event
type EventStatus string

const (
	EventStatusActive    EventStatus = "active"
	EventStatusCompleted EventStatus = "completed"
	EventStatusClosed    EventStatus = "closed"
)

// MaxTicketsPerEvent caps the inventory an organizer may create for one event.
const MaxTicketsPerEvent = 500

// Event represents a raffle event with a fixed ticket inventory.
// The counter fields always satisfy available + reserved + sold == totalTickets;
// they are only ever adjusted with relative $inc updates inside the same
// transaction as the ticket transition that caused the change.
type Event struct {
	ID                 primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	AdminID            primitive.ObjectID `bson:"adminId" json:"adminId"`
	Name               string             `bson:"name" json:"name"`
	Description        string             `bson:"description,omitempty" json:"description,omitempty"`
	TicketPrice        int64              `bson:"ticketPrice" json:"ticketPrice"` // minor currency units
	TotalTickets       int                `bson:"totalTickets" json:"totalTickets"`
	QRCodeURL          string             `bson:"qrCodeUrl,omitempty" json:"qrCodeUrl,omitempty"`
	PublicEventURL     string             `bson:"publicEventUrl,omitempty" json:"publicEventUrl,omitempty"`
	Status             EventStatus        `bson:"status" json:"status"`
	IsWinnerGenerated  bool               `bson:"isWinnerGenerated" json:"isWinnerGenerated"`
	AvailableTickets   int                `bson:"availableTickets" json:"availableTickets"`
	ReservedTickets    int                `bson:"reservedTickets" json:"reservedTickets"`
	SoldTickets        int                `bson:"soldTickets" json:"soldTickets"`
	CreatedAt          time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt          time.Time          `bson:"updatedAt" json:"updatedAt"`
	ClosedAt           *time.Time         `bson:"closedAt,omitempty" json:"closedAt,omitempty"`
	WinnersGeneratedAt *time.Time         `bson:"winnersGeneratedAt,omitempty" json:"winnersGeneratedAt,omitempty"`
}
