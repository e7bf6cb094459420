package otp

import (
	"context"
	"time"

	"github.com/campusconecto/campusconecto/backend/api/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// Store persists reset codes. Find returns (nil, nil) when no live code
// matches.
type Store interface {
	Save(ctx context.Context, rec *models.OTP) error
	Find(ctx context.Context, email, code string) (*models.OTP, error)
	DeleteAll(ctx context.Context, email string) error
}

// MongoStore keeps codes in a collection; a TTL index on expiresAt removes
// them once expired.
type MongoStore struct {
	col *mongo.Collection
}

func NewMongoStore(col *mongo.Collection) *MongoStore {
	return &MongoStore{col: col}
}

func (s *MongoStore) Save(ctx context.Context, rec *models.OTP) error {
	_, err := s.col.InsertOne(ctx, rec)
	return err
}

func (s *MongoStore) Find(ctx context.Context, email, code string) (*models.OTP, error) {
	var rec models.OTP
	filter := bson.M{"email": email, "otp": code, "expiresAt": bson.M{"$gt": time.Now().UTC()}}
	if err := s.col.FindOne(ctx, filter).Decode(&rec); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &rec, nil
}

func (s *MongoStore) DeleteAll(ctx context.Context, email string) error {
	_, err := s.col.DeleteMany(ctx, bson.M{"email": email})
	return err
}
