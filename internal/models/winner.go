package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ClaimStatus represents whether a winner has collected their prize
type ClaimStatus string

const (
	ClaimStatusPending   ClaimStatus = "pending"
	ClaimStatusClaimed   ClaimStatus = "claimed"
	ClaimStatusUnclaimed ClaimStatus = "unclaimed"
)

// Winner records one winning ticket of an event draw. Created only by the
// draw engine, in the same transaction that marks the event completed.
// Buyer fields are copied from the ticket at draw time.
type Winner struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	EventID      primitive.ObjectID `bson:"eventId" json:"eventId"`
	TicketID     primitive.ObjectID `bson:"ticketId" json:"ticketId"`
	TicketNumber int                `bson:"ticketNumber" json:"ticketNumber"`
	Position     int                `bson:"position" json:"position"`
	Prize        string             `bson:"prize" json:"prize"`
	BuyerName    string             `bson:"buyerName" json:"buyerName"`
	BuyerPhone   string             `bson:"buyerPhone" json:"buyerPhone"`
	BuyerEmail   string             `bson:"buyerEmail,omitempty" json:"buyerEmail,omitempty"`
	Notified     bool               `bson:"notified" json:"notified"`
	NotifiedAt   *time.Time         `bson:"notifiedAt,omitempty" json:"notifiedAt,omitempty"`
	ClaimStatus  ClaimStatus        `bson:"claimStatus" json:"claimStatus"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt" json:"updatedAt"`
}
