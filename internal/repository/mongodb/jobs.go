package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/agriflow/reporting/internal/domain/models"
)

// JobStore defines the interface for report-job bookkeeping. The polling
// contract never reads it; it exists for out-of-band observability, so a
// deployment without MongoDB runs on the no-op implementation.
type JobStore interface {
	Insert(ctx context.Context, job models.JobRecord) error
	MarkCompleted(ctx context.Context, reportID string) error
	MarkFailed(ctx context.Context, reportID, reason string) error
}

// JobRegistry implements JobStore on MongoDB.
type JobRegistry struct {
	client   *mongo.Client
	dbName   string
	collName string
}

// NewJobRegistry connects to MongoDB and verifies the connection.
func NewJobRegistry(ctx context.Context, uri string, dbName string) (*JobRegistry, error) {
	clientOptions := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	return &JobRegistry{
		client:   client,
		dbName:   dbName,
		collName: "report_jobs",
	}, nil
}

// Insert records a freshly queued report job.
func (r *JobRegistry) Insert(ctx context.Context, job models.JobRecord) error {
	collection := r.client.Database(r.dbName).Collection(r.collName)
	if _, err := collection.InsertOne(ctx, job); err != nil {
		return fmt.Errorf("failed to insert report job: %w", err)
	}
	return nil
}

// MarkCompleted flips a job to completed.
func (r *JobRegistry) MarkCompleted(ctx context.Context, reportID string) error {
	return r.setStatus(ctx, reportID, models.JobCompleted, "")
}

// MarkFailed flips a job to failed with the failure reason.
func (r *JobRegistry) MarkFailed(ctx context.Context, reportID, reason string) error {
	return r.setStatus(ctx, reportID, models.JobFailed, reason)
}

func (r *JobRegistry) setStatus(ctx context.Context, reportID string, status models.JobStatus, reason string) error {
	collection := r.client.Database(r.dbName).Collection(r.collName)
	update := bson.M{
		"status":     status,
		"updated_at": time.Now().UTC(),
	}
	if reason != "" {
		update["error"] = reason
	}
	_, err := collection.UpdateOne(ctx,
		bson.M{"report_id": reportID},
		bson.M{"$set": update},
	)
	if err != nil {
		return fmt.Errorf("failed to update report job %s: %w", reportID, err)
	}
	return nil
}

// Close closes the MongoDB connection.
func (r *JobRegistry) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}

// NopStore is the JobStore used when no MongoDB URI is configured.
type NopStore struct{}

func (NopStore) Insert(context.Context, models.JobRecord) error   { return nil }
func (NopStore) MarkCompleted(context.Context, string) error      { return nil }
func (NopStore) MarkFailed(context.Context, string, string) error { return nil }
