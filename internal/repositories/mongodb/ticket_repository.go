package mongodb

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/zlucky/raffle-backend/internal/models"
	"github.com/zlucky/raffle-backend/internal/repositories"
)

// TicketRepository implements the repositories.TicketRepository interface
type TicketRepository struct {
	collection *mongo.Collection
}

// NewTicketRepository creates a new TicketRepository
func NewTicketRepository(db *mongo.Database) repositories.TicketRepository {
	return &TicketRepository{
		collection: db.Collection("tickets"),
	}
}

// CreateMany inserts the full inventory of an event
func (r *TicketRepository) CreateMany(ctx context.Context, tickets []*models.Ticket) error {
	now := time.Now()
	docs := make([]interface{}, 0, len(tickets))
	for _, t := range tickets {
		t.CreatedAt = now
		t.UpdatedAt = now
		docs = append(docs, t)
	}
	_, err := r.collection.InsertMany(ctx, docs)
	return err
}

// FindByEventAndNumber finds one ticket by its event and number
func (r *TicketRepository) FindByEventAndNumber(ctx context.Context, eventID primitive.ObjectID, number int) (*models.Ticket, error) {
	var ticket models.Ticket
	err := r.collection.FindOne(ctx, bson.M{"eventId": eventID, "ticketNumber": number}).Decode(&ticket)
	if err != nil {
		return nil, err
	}
	return &ticket, nil
}

// FindByEvent lists tickets of an event, optionally filtered by status
func (r *TicketRepository) FindByEvent(ctx context.Context, eventID primitive.ObjectID, status models.TicketStatus) ([]*models.Ticket, error) {
	filter := bson.M{"eventId": eventID}
	if status != "" {
		filter["status"] = status
	}
	opts := options.Find().SetSort(bson.M{"ticketNumber": 1})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var tickets []*models.Ticket
	if err := cursor.All(ctx, &tickets); err != nil {
		return nil, err
	}
	if tickets == nil {
		tickets = []*models.Ticket{}
	}
	return tickets, nil
}

// FindExpiredReservations selects tickets past their reservation expiry.
// The query filters by time only so it runs without a compound index;
// callers re-check status before mutating.
func (r *TicketRepository) FindExpiredReservations(ctx context.Context, now time.Time, limit int) ([]*models.Ticket, error) {
	filter := bson.M{"reservationExpiresAt": bson.M{"$lte": now}}
	opts := options.Find().SetLimit(int64(limit))
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var tickets []*models.Ticket
	if err := cursor.All(ctx, &tickets); err != nil {
		return nil, err
	}
	return tickets, nil
}

// Reserve transitions available -> reserved
func (r *TicketRepository) Reserve(ctx context.Context, id primitive.ObjectID, buyer repositories.BuyerInfo, expiresAt time.Time, paymentID string) (bool, error) {
	now := time.Now()
	filter := bson.M{"_id": id, "status": models.TicketStatusAvailable}
	update := bson.M{"$set": bson.M{
		"status":               models.TicketStatusReserved,
		"buyerName":            buyer.Name,
		"buyerPhone":           buyer.Phone,
		"buyerEmail":           buyer.Email,
		"reservedAt":           now,
		"reservationExpiresAt": expiresAt,
		"paymentId":            paymentID,
		"updatedAt":            now,
	}}
	res, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount > 0, nil
}

// releaseUpdate clears everything the reservation set
func releaseUpdate(now time.Time) bson.M {
	return bson.M{
		"$set": bson.M{
			"status":    models.TicketStatusAvailable,
			"updatedAt": now,
		},
		"$unset": bson.M{
			"buyerName":            "",
			"buyerPhone":           "",
			"buyerEmail":           "",
			"reservedAt":           "",
			"reservationExpiresAt": "",
			"paymentId":            "",
		},
	}
}

// Release transitions reserved -> available
func (r *TicketRepository) Release(ctx context.Context, id primitive.ObjectID) (bool, error) {
	filter := bson.M{"_id": id, "status": models.TicketStatusReserved}
	res, err := r.collection.UpdateOne(ctx, filter, releaseUpdate(time.Now()))
	if err != nil {
		return false, err
	}
	return res.ModifiedCount > 0, nil
}

// ReleaseByPaymentID reverts the reserved ticket holding a payment
// reference. Nil ticket with nil error means nothing matched, which the
// compensation path treats as a benign no-op.
func (r *TicketRepository) ReleaseByPaymentID(ctx context.Context, paymentID string) (*models.Ticket, error) {
	filter := bson.M{"paymentId": paymentID, "status": models.TicketStatusReserved}
	var ticket models.Ticket
	err := r.collection.FindOneAndUpdate(ctx, filter, releaseUpdate(time.Now())).Decode(&ticket)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &ticket, nil
}

// MarkSold transitions reserved -> sold, clearing the hold expiry and
// stamping soldAt. Nil ticket with nil error means the ticket was not
// reserved anymore.
func (r *TicketRepository) MarkSold(ctx context.Context, eventID primitive.ObjectID, number int, at time.Time) (*models.Ticket, error) {
	filter := bson.M{
		"eventId":      eventID,
		"ticketNumber": number,
		"status":       models.TicketStatusReserved,
	}
	update := bson.M{
		"$set": bson.M{
			"status":    models.TicketStatusSold,
			"soldAt":    at,
			"updatedAt": at,
		},
		"$unset": bson.M{"reservationExpiresAt": ""},
	}
	var ticket models.Ticket
	err := r.collection.FindOneAndUpdate(ctx, filter, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&ticket)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &ticket, nil
}

// MarkWinner marks a sold ticket as a draw winner
func (r *TicketRepository) MarkWinner(ctx context.Context, id primitive.ObjectID, position int) error {
	filter := bson.M{"_id": id, "status": models.TicketStatusSold}
	update := bson.M{"$set": bson.M{
		"isWinner":    true,
		"winPosition": position,
		"updatedAt":   time.Now(),
	}}
	res, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// DeleteByEvent removes the whole inventory of an event
func (r *TicketRepository) DeleteByEvent(ctx context.Context, eventID primitive.ObjectID) error {
	_, err := r.collection.DeleteMany(ctx, bson.M{"eventId": eventID})
	return err
}
