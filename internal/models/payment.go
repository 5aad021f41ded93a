package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PaymentStatus represents the state of a payment attempt
type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusSuccess PaymentStatus = "success"
	PaymentStatusFailed  PaymentStatus = "failed"
	PaymentStatusExpired PaymentStatus = "expired"
)

// Terminal reports whether no further transitions are allowed for the status.
func (s PaymentStatus) Terminal() bool {
	return s == PaymentStatusSuccess || s == PaymentStatusFailed || s == PaymentStatusExpired
}

// Payment records one payment attempt for one ticket reservation.
// Its document id is the gateway transaction reference (tx_ref), which
// makes the reconciliation idempotency gate a single FindByID. Buyer
// fields are an immutable snapshot taken at reservation time, not a
// live reference to the ticket.
type Payment struct {
	TxRef                string             `bson:"_id" json:"txRef"`
	EventID              primitive.ObjectID `bson:"eventId" json:"eventId"`
	TicketID             primitive.ObjectID `bson:"ticketId" json:"ticketId"`
	TicketNumber         int                `bson:"ticketNumber" json:"ticketNumber"`
	Amount               int64              `bson:"amount" json:"amount"`
	Currency             string             `bson:"currency" json:"currency"`
	BuyerName            string             `bson:"buyerName" json:"buyerName"`
	BuyerPhone           string             `bson:"buyerPhone" json:"buyerPhone"`
	BuyerEmail           string             `bson:"buyerEmail,omitempty" json:"buyerEmail,omitempty"`
	Status               PaymentStatus      `bson:"status" json:"status"`
	FailureReason        string             `bson:"failureReason,omitempty" json:"failureReason,omitempty"`
	CheckoutURL          string             `bson:"checkoutUrl,omitempty" json:"checkoutUrl,omitempty"`
	GatewayTransactionID string             `bson:"gatewayTransactionId,omitempty" json:"gatewayTransactionId,omitempty"`
	GatewayDetails       bson.M             `bson:"gatewayDetails,omitempty" json:"gatewayDetails,omitempty"`
	WebhookReceived      bool               `bson:"webhookReceived" json:"webhookReceived"`
	ExpiresAt            time.Time          `bson:"expiresAt" json:"expiresAt"`
	CompletedAt          *time.Time         `bson:"completedAt,omitempty" json:"completedAt,omitempty"`
	CreatedAt            time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt            time.Time          `bson:"updatedAt" json:"updatedAt"`
}
