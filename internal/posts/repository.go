package posts

import (
	"context"
	"time"

	"github.com/campusconecto/campusconecto/backend/api/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Repository persists posts. Get returns (nil, nil) when missing.
type Repository interface {
	Create(ctx context.Context, p *models.Post) error
	Get(ctx context.Context, id primitive.ObjectID) (*models.Post, error)
	ListByUser(ctx context.Context, user primitive.ObjectID) ([]*models.Post, error)
	Latest(ctx context.Context, limit int64) ([]*models.Post, error)
	UpdateText(ctx context.Context, id primitive.ObjectID, text string) (*models.Post, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// MongoRepo implements Repository on the posts collection.
type MongoRepo struct {
	col *mongo.Collection
}

func NewMongoRepo(col *mongo.Collection) *MongoRepo {
	return &MongoRepo{col: col}
}

func (m *MongoRepo) Create(ctx context.Context, p *models.Post) error {
	now := time.Now().UTC()
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	if p.Attachments == nil {
		p.Attachments = []models.Attachment{}
	}
	p.CreatedAt = now
	p.UpdatedAt = now
	_, err := m.col.InsertOne(ctx, p)
	return err
}

func (m *MongoRepo) Get(ctx context.Context, id primitive.ObjectID) (*models.Post, error) {
	var p models.Post
	if err := m.col.FindOne(ctx, bson.M{"_id": id}).Decode(&p); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (m *MongoRepo) list(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*models.Post, error) {
	cur, err := m.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := []*models.Post{}
	for cur.Next(ctx) {
		var p models.Post
		if err := cur.Decode(&p); err != nil {
			return nil, err
		}
		out = append(out, &p)
	}
	return out, cur.Err()
}

func newestFirst() *options.FindOptions {
	return options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})
}

func (m *MongoRepo) ListByUser(ctx context.Context, user primitive.ObjectID) ([]*models.Post, error) {
	return m.list(ctx, bson.M{"user": user}, newestFirst())
}

func (m *MongoRepo) Latest(ctx context.Context, limit int64) ([]*models.Post, error) {
	return m.list(ctx, bson.M{}, newestFirst().SetLimit(limit))
}

func (m *MongoRepo) UpdateText(ctx context.Context, id primitive.ObjectID, text string) (*models.Post, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	update := bson.M{"$set": bson.M{"text": text, "updatedAt": time.Now().UTC()}}
	var p models.Post
	if err := m.col.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&p); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (m *MongoRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
	_, err := m.col.DeleteOne(ctx, bson.M{"_id": id})
	return err
}
