package activityRepo

import (
	"context"

	"taskmaster/models"

	"go.mongodb.org/mongo-driver/mongo"
)

// ActivityRepository journals accept and OTP completion attempts.
type ActivityRepository interface {
	Record(ctx context.Context, activity models.JobActivity) error
	ListByBooking(ctx context.Context, bookingID string) ([]models.JobActivity, error)
}

type mongoActivityRepo struct {
	coll *mongo.Collection
}

// NewMongoActivityRepo returns an ActivityRepository backed by the
// job_activity collection.
func NewMongoActivityRepo(client *mongo.Client, dbName string) (ActivityRepository, error) {
	r := &mongoActivityRepo{
		coll: client.Database(dbName).Collection("job_activity"),
	}
	if err := r.ensureIndexes(); err != nil {
		return nil, err
	}
	return r, nil
}

// noopRepo is used when the journal is disabled.
type noopRepo struct{}

func NewNoopActivityRepo() ActivityRepository { return noopRepo{} }

func (noopRepo) Record(context.Context, models.JobActivity) error { return nil }

func (noopRepo) ListByBooking(context.Context, string) ([]models.JobActivity, error) {
	return []models.JobActivity{}, nil
}
