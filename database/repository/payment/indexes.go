package paymentRepo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes creates the necessary indexes on the payment collections.
func (r *mongoPaymentRepo) EnsureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	paymentIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("unique_id"),
		},
		// One payment aggregate per appointment.
		{
			Keys:    bson.D{{Key: "appointment_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("unique_appointment_id"),
		},
		{
			Keys:    bson.D{{Key: "status", Value: 1}},
			Options: options.Index().SetName("status_idx"),
		},
	}
	if _, err := r.coll.Indexes().CreateMany(ctx, paymentIndexes); err != nil {
		return fmt.Errorf("failed to create payment indexes: %w", err)
	}

	eventIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "payment_id", Value: 1}, {Key: "at", Value: 1}},
			Options: options.Index().SetName("payment_at_idx"),
		},
	}
	if _, err := r.events.Indexes().CreateMany(ctx, eventIndexes); err != nil {
		return fmt.Errorf("failed to create payment event indexes: %w", err)
	}
	return nil
}
