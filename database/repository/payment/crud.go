package paymentRepo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"interlingo/models"
)

// Create inserts a new payment aggregate.
func (r *mongoPaymentRepo) Create(ctx context.Context, p *models.Payment) error {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	p.UpdatedAt = time.Now()

	_, err := r.coll.InsertOne(ctx, p)
	return err
}

// GetByID returns a payment by its ID.
func (r *mongoPaymentRepo) GetByID(ctx context.Context, id string) (*models.Payment, error) {
	var p models.Payment
	if err := r.coll.FindOne(ctx, bson.M{"id": id}).Decode(&p); err != nil {
		return nil, err
	}
	return &p, nil
}

// GetByAppointmentID returns the payment for an appointment.
func (r *mongoPaymentRepo) GetByAppointmentID(ctx context.Context, appointmentID string) (*models.Payment, error) {
	var p models.Payment
	if err := r.coll.FindOne(ctx, bson.M{"appointment_id": appointmentID}).Decode(&p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Update replaces the stored aggregate with the given state. Payments
// are superseded by status transitions, never deleted.
func (r *mongoPaymentRepo) Update(ctx context.Context, p *models.Payment) error {
	p.UpdatedAt = time.Now()
	_, err := r.coll.ReplaceOne(ctx, bson.M{"id": p.ID}, p)
	return err
}

// AppendEvent records a state transition in the audit trail.
func (r *mongoPaymentRepo) AppendEvent(ctx context.Context, event models.PaymentTransitionEvent) error {
	if event.At.IsZero() {
		event.At = time.Now()
	}
	_, err := r.events.InsertOne(ctx, event)
	return err
}

// ListEvents returns a payment's transitions in chronological order.
func (r *mongoPaymentRepo) ListEvents(ctx context.Context, paymentID string) ([]models.PaymentTransitionEvent, error) {
	opts := options.Find().SetSort(bson.D{{Key: "at", Value: 1}})
	cursor, err := r.events.Find(ctx, bson.M{"payment_id": paymentID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var events []models.PaymentTransitionEvent
	if err := cursor.All(ctx, &events); err != nil {
		return nil, err
	}
	return events, nil
}
