package mongodb

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/zlucky/raffle-backend/internal/models"
	"github.com/zlucky/raffle-backend/internal/repositories"
)

// PaymentRepository implements the repositories.PaymentRepository interface
type PaymentRepository struct {
	collection *mongo.Collection
}

// NewPaymentRepository creates a new PaymentRepository
func NewPaymentRepository(db *mongo.Database) repositories.PaymentRepository {
	return &PaymentRepository{
		collection: db.Collection("payments"),
	}
}

// Create creates a new payment keyed by its tx_ref
func (r *PaymentRepository) Create(ctx context.Context, payment *models.Payment) error {
	payment.CreatedAt = time.Now()
	payment.UpdatedAt = time.Now()
	_, err := r.collection.InsertOne(ctx, payment)
	return err
}

// FindByTxRef finds a payment by its gateway reference
func (r *PaymentRepository) FindByTxRef(ctx context.Context, txRef string) (*models.Payment, error) {
	var payment models.Payment
	err := r.collection.FindOne(ctx, bson.M{"_id": txRef}).Decode(&payment)
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

// SetCheckoutURL records the hosted checkout handle after gateway init
func (r *PaymentRepository) SetCheckoutURL(ctx context.Context, txRef, url string) error {
	update := bson.M{"$set": bson.M{"checkoutUrl": url, "updatedAt": time.Now()}}
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": txRef}, update)
	return err
}

// MarkSuccess transitions pending -> success
func (r *PaymentRepository) MarkSuccess(ctx context.Context, txRef, gatewayTxID string, details bson.M, viaWebhook bool, at time.Time) (bool, error) {
	filter := bson.M{"_id": txRef, "status": models.PaymentStatusPending}
	set := bson.M{
		"status":      models.PaymentStatusSuccess,
		"completedAt": at,
		"updatedAt":   at,
	}
	if gatewayTxID != "" {
		set["gatewayTransactionId"] = gatewayTxID
	}
	if details != nil {
		set["gatewayDetails"] = details
	}
	if viaWebhook {
		set["webhookReceived"] = true
	}
	res, err := r.collection.UpdateOne(ctx, filter, bson.M{"$set": set})
	if err != nil {
		return false, err
	}
	return res.ModifiedCount > 0, nil
}

// MarkFailed transitions pending -> failed with a reason
func (r *PaymentRepository) MarkFailed(ctx context.Context, txRef, reason string, details bson.M) (bool, error) {
	filter := bson.M{"_id": txRef, "status": models.PaymentStatusPending}
	set := bson.M{
		"status":        models.PaymentStatusFailed,
		"failureReason": reason,
		"updatedAt":     time.Now(),
	}
	if details != nil {
		set["gatewayDetails"] = details
	}
	res, err := r.collection.UpdateOne(ctx, filter, bson.M{"$set": set})
	if err != nil {
		return false, err
	}
	return res.ModifiedCount > 0, nil
}

// MarkExpired transitions pending -> expired
func (r *PaymentRepository) MarkExpired(ctx context.Context, txRef string) (bool, error) {
	filter := bson.M{"_id": txRef, "status": models.PaymentStatusPending}
	update := bson.M{"$set": bson.M{
		"status":    models.PaymentStatusExpired,
		"updatedAt": time.Now(),
	}}
	res, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount > 0, nil
}

// FindExpiredPending selects payments past their expiry. Filtered by
// time only; callers re-check the pending status before mutating.
func (r *PaymentRepository) FindExpiredPending(ctx context.Context, now time.Time, limit int) ([]*models.Payment, error) {
	filter := bson.M{"expiresAt": bson.M{"$lte": now}}
	opts := options.Find().SetLimit(int64(limit))
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var payments []*models.Payment
	if err := cursor.All(ctx, &payments); err != nil {
		return nil, err
	}
	return payments, nil
}
