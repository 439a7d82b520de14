package users

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/jargoyle/jargoyle/internal/models"
)

// Repository defines persistence operations for local user records.
// FindByProviderSubject returns (nil, nil) when no record matches.
type Repository interface {
	FindByProviderSubject(ctx context.Context, provider, subject string) (*models.User, error)
	Insert(ctx context.Context, u *models.User) (*models.User, error)
	UpdateLastLogin(ctx context.Context, id string, at time.Time) error
}

// MongoRepository implements Repository using MongoDB.
type MongoRepository struct {
	col *mongo.Collection
}

// NewMongoRepository creates a repository for the given collection and ensures
// the unique compound index on (oauthProvider, oauthSubject). The index is what
// makes concurrent first-time logins safe: the second insert fails with a
// duplicate-key error instead of creating a second record.
func NewMongoRepository(col *mongo.Collection) (*MongoRepository, error) {
	idx := mongo.IndexModel{
		Keys:    bson.D{{Key: "oauthProvider", Value: 1}, {Key: "oauthSubject", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	if _, err := col.Indexes().CreateOne(context.Background(), idx); err != nil {
		return nil, fmt.Errorf("ensure identity index: %w", err)
	}
	return &MongoRepository{col: col}, nil
}

func (r *MongoRepository) FindByProviderSubject(ctx context.Context, provider, subject string) (*models.User, error) {
	var u models.User
	filter := bson.M{"oauthProvider": provider, "oauthSubject": subject}
	if err := r.col.FindOne(ctx, filter).Decode(&u); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

func (r *MongoRepository) Insert(ctx context.Context, u *models.User) (*models.User, error) {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if _, err := r.col.InsertOne(ctx, u); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrDuplicateIdentity
		}
		return nil, err
	}
	return u, nil
}

func (r *MongoRepository) UpdateLastLogin(ctx context.Context, id string, at time.Time) error {
	res, err := r.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"lastLoginAt": at}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}
