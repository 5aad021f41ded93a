package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TicketStatus represents the state of a single numbered ticket
type TicketStatus string

const (
	TicketStatusAvailable TicketStatus = "available"
	TicketStatusReserved  TicketStatus = "reserved"
	TicketStatusSold      TicketStatus = "sold"
)

// Ticket represents one numbered ticket of an event.
//
// State machine: available --reserve--> reserved --payment success--> sold,
// reserved --payment failure / expiry--> available. Buyer fields,
// reservedAt, reservationExpiresAt and paymentId are set on reservation
// and cleared on every revert to available; soldAt is stamped exactly once.
type Ticket struct {
	ID                   primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	EventID              primitive.ObjectID `bson:"eventId" json:"eventId"`
	TicketNumber         int                `bson:"ticketNumber" json:"ticketNumber"`
	Status               TicketStatus       `bson:"status" json:"status"`
	BuyerName            string             `bson:"buyerName,omitempty" json:"buyerName,omitempty"`
	BuyerPhone           string             `bson:"buyerPhone,omitempty" json:"buyerPhone,omitempty"`
	BuyerEmail           string             `bson:"buyerEmail,omitempty" json:"buyerEmail,omitempty"`
	ReservedAt           *time.Time         `bson:"reservedAt,omitempty" json:"reservedAt,omitempty"`
	ReservationExpiresAt *time.Time         `bson:"reservationExpiresAt,omitempty" json:"reservationExpiresAt,omitempty"`
	PaymentID            string             `bson:"paymentId,omitempty" json:"paymentId,omitempty"`
	SoldAt               *time.Time         `bson:"soldAt,omitempty" json:"soldAt,omitempty"`
	IsWinner             bool               `bson:"isWinner" json:"isWinner"`
	WinPosition          int                `bson:"winPosition,omitempty" json:"winPosition,omitempty"`
	CreatedAt            time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt            time.Time          `bson:"updatedAt" json:"updatedAt"`
}
