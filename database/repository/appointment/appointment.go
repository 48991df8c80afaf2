package appointmentRepo

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"interlingo/database"
	"interlingo/models"
)

// AppointmentRepository is read-only access to booked sessions. The
// scheduling subsystem owns this collection; the billing engine only
// reads start/end times and billing metadata from it.
type AppointmentRepository interface {
	GetAppointmentByID(ctx context.Context, id string) (*models.Appointment, error)
}

type mongoAppointmentRepo struct {
	coll *mongo.Collection
}

// NewMongoAppointmentRepo returns a new AppointmentRepository instance using MongoDB.
func NewMongoAppointmentRepo() AppointmentRepository {
	db := database.MongoClient.Database("interlingo")
	return &mongoAppointmentRepo{
		coll: db.Collection("appointments"),
	}
}

func (r *mongoAppointmentRepo) GetAppointmentByID(ctx context.Context, id string) (*models.Appointment, error) {
	var appt models.Appointment
	if err := r.coll.FindOne(ctx, bson.M{"id": id}).Decode(&appt); err != nil {
		return nil, err
	}
	return &appt, nil
}
