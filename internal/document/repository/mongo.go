package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/jargoyle/jargoyle/internal/document"
)

// MongoRepo implements Repository with two collections: documents and
// document summaries keyed by document id.
type MongoRepo struct {
	docs      *mongo.Collection
	summaries *mongo.Collection
}

func NewMongoRepo(docs, summaries *mongo.Collection) *MongoRepo {
	// owner listing is the hot path; index (userId, createdAt desc)
	idx := mongo.IndexModel{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}}}
	_, _ = docs.Indexes().CreateOne(context.Background(), idx)
	sidx := mongo.IndexModel{Keys: bson.D{{Key: "documentId", Value: 1}}, Options: options.Index().SetUnique(true)}
	_, _ = summaries.Indexes().CreateOne(context.Background(), sidx)
	return &MongoRepo{docs: docs, summaries: summaries}
}

func (m *MongoRepo) Create(ctx context.Context, d *document.Document) (string, error) {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	d.CreatedAt = now
	d.UpdatedAt = now
	if _, err := m.docs.InsertOne(ctx, d); err != nil {
		return "", err
	}
	return d.ID, nil
}

func (m *MongoRepo) ListByUser(ctx context.Context, userID string, page, size int) ([]*document.Document, int64, error) {
	filter := bson.M{"userId": userID}
	total, err := m.docs.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip(int64(page * size)).
		SetLimit(int64(size))
	cur, err := m.docs.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cur.Close(ctx)
	out := []*document.Document{}
	for cur.Next(ctx) {
		var d document.Document
		if err := cur.Decode(&d); err != nil {
			return nil, 0, err
		}
		out = append(out, &d)
	}
	return out, total, cur.Err()
}

func (m *MongoRepo) GetByIDAndUser(ctx context.Context, id, userID string) (*document.Document, error) {
	var d document.Document
	err := m.docs.FindOne(ctx, bson.M{"_id": id, "userId": userID}).Decode(&d)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &d, nil
}

func (m *MongoRepo) UpdateMeta(ctx context.Context, id, userID string, title, documentType *string) error {
	set := bson.M{"updatedAt": time.Now().UTC()}
	if title != nil {
		set["title"] = *title
	}
	if documentType != nil {
		set["documentType"] = *documentType
	}
	res, err := m.docs.UpdateOne(ctx, bson.M{"_id": id, "userId": userID}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (m *MongoRepo) DeleteByIDAndUser(ctx context.Context, id, userID string) error {
	res, err := m.docs.DeleteOne(ctx, bson.M{"_id": id, "userId": userID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	_, _ = m.summaries.DeleteOne(ctx, bson.M{"documentId": id})
	return nil
}

func (m *MongoRepo) SetStatus(ctx context.Context, id, status, errorMessage string) error {
	set := bson.M{"status": status, "errorMessage": errorMessage, "updatedAt": time.Now().UTC()}
	res, err := m.docs.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (m *MongoRepo) SaveSummary(ctx context.Context, s *document.Summary) error {
	filter := bson.M{"documentId": s.DocumentID}
	opts := options.Update().SetUpsert(true)
	_, err := m.summaries.UpdateOne(ctx, filter, bson.M{"$set": s}, opts)
	return err
}

func (m *MongoRepo) GetSummary(ctx context.Context, documentID string) (*document.Summary, error) {
	var s document.Summary
	err := m.summaries.FindOne(ctx, bson.M{"documentId": documentID}).Decode(&s)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}
