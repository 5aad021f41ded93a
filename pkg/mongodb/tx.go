package mongodb

import (
	"context"
	"log/slog"

	"go.mongodb.org/mongo-driver/mongo"
)

// txRetries bounds how many times a transaction is re-run after the
// server reports transient contention before the error surfaces.
const txRetries = 3

// TxRunner executes a function inside a MongoDB multi-document
// transaction. The context passed to fn is session-scoped; repository
// calls made with it participate in the transaction.
type TxRunner struct {
	client *mongo.Client
}

// NewTxRunner creates a TxRunner bound to a client
func NewTxRunner(client *Client) *TxRunner {
	return &TxRunner{client: client.Raw()}
}

// WithTransaction runs fn transactionally, retrying on transient
// transaction errors up to txRetries times.
func (r *TxRunner) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	session, err := r.client.StartSession()
	if err != nil {
		return err
	}
	defer session.EndSession(ctx)

	var lastErr error
	for attempt := 0; attempt <= txRetries; attempt++ {
		_, lastErr = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
			return nil, fn(sc)
		})
		if lastErr == nil {
			return nil
		}
		if !isTransient(lastErr) {
			return lastErr
		}
		slog.Warn("transaction contention, retrying", "attempt", attempt+1, "error", lastErr)
	}
	return lastErr
}

func isTransient(err error) bool {
	cmdErr, ok := err.(mongo.CommandError)
	if ok {
		return cmdErr.HasErrorLabel("TransientTransactionError") ||
			cmdErr.HasErrorLabel("UnknownTransactionCommitResult")
	}
	return false
}
