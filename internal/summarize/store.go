package summarize

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// PersistedJob is the Mongo representation of one summarization attempt.
// Jobs are the audit trail behind the status shown on the document itself.
type PersistedJob struct {
	JobID      string    `bson:"jobId" json:"jobId"`
	DocumentID string    `bson:"documentId" json:"documentId"`
	Status     string    `bson:"status" json:"status"`
	Error      string    `bson:"error,omitempty" json:"error,omitempty"`
	StartedAt  time.Time `bson:"startedAt" json:"startedAt"`
	FinishedAt time.Time `bson:"finishedAt,omitempty" json:"finishedAt,omitempty"`
}

// Store persists summarization jobs. A nil Store is a no-op, so callers can
// run without the audit trail configured.
type Store struct {
	col *mongo.Collection
}

func NewStore(col *mongo.Collection) *Store {
	return &Store{col: col}
}

// SaveJob upserts the job keyed by jobId.
func (s *Store) SaveJob(ctx context.Context, j *PersistedJob) error {
	if s == nil || s.col == nil {
		return nil
	}
	filter := bson.M{"jobId": j.JobID}
	opts := options.Update().SetUpsert(true)
	if _, err := s.col.UpdateOne(ctx, filter, bson.M{"$set": j}, opts); err != nil {
		return fmt.Errorf("save summarize job: %w", err)
	}
	return nil
}

// Load fetches a job by jobId. Returns nil when not found.
func (s *Store) Load(ctx context.Context, jobID string) (*PersistedJob, error) {
	if s == nil || s.col == nil {
		return nil, nil
	}
	var j PersistedJob
	if err := s.col.FindOne(ctx, bson.M{"jobId": jobID}).Decode(&j); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &j, nil
}

// ListByDocument returns the attempts recorded for a document, oldest first.
func (s *Store) ListByDocument(ctx context.Context, documentID string) ([]*PersistedJob, error) {
	if s == nil || s.col == nil {
		return nil, nil
	}
	opts := options.Find().SetSort(bson.D{{Key: "startedAt", Value: 1}})
	cur, err := s.col.Find(ctx, bson.M{"documentId": documentID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var jobs []*PersistedJob
	if err := cur.All(ctx, &jobs); err != nil {
		return nil, err
	}
	return jobs, nil
}
