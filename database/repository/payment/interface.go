package paymentRepo

import (
	"context"
	"log"

	"go.mongodb.org/mongo-driver/mongo"

	"interlingo/database"
	"interlingo/models"
)

// PaymentRepository persists payment aggregates and their transition
// events. Payments are never deleted; every status transition is
// appended to the event collection for audit.
type PaymentRepository interface {
	Create(ctx context.Context, p *models.Payment) error
	GetByID(ctx context.Context, id string) (*models.Payment, error)
	GetByAppointmentID(ctx context.Context, appointmentID string) (*models.Payment, error)
	Update(ctx context.Context, p *models.Payment) error
	AppendEvent(ctx context.Context, event models.PaymentTransitionEvent) error
	ListEvents(ctx context.Context, paymentID string) ([]models.PaymentTransitionEvent, error)
}

type mongoPaymentRepo struct {
	coll   *mongo.Collection
	events *mongo.Collection
}

// NewMongoPaymentRepo returns a new PaymentRepository instance using MongoDB.
func NewMongoPaymentRepo() PaymentRepository {
	db := database.MongoClient.Database("interlingo")
	repo := &mongoPaymentRepo{
		coll:   db.Collection("payments"),
		events: db.Collection("payment_events"),
	}
	if err := repo.EnsureIndexes(); err != nil {
		log.Printf("paymentRepo: failed to ensure indexes: %v", err)
	}
	return repo
}
