package messages

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/campusconecto/campusconecto/backend/api/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Repository stores direct messages.
type Repository interface {
	Create(ctx context.Context, m *models.Message) error
	// Between returns the messages exchanged by a and b in either
	// direction, newest first.
	Between(ctx context.Context, a, b primitive.ObjectID) ([]*models.Message, error)
}

// MongoRepo implements Repository on the messages collection.
type MongoRepo struct {
	col *mongo.Collection
}

func NewMongoRepo(col *mongo.Collection) *MongoRepo {
	return &MongoRepo{col: col}
}

func (r *MongoRepo) Create(ctx context.Context, m *models.Message) error {
	if m.ID.IsZero() {
		m.ID = primitive.NewObjectID()
	}
	m.CreatedAt = time.Now().UTC()
	_, err := r.col.InsertOne(ctx, m)
	return err
}

func (r *MongoRepo) Between(ctx context.Context, a, b primitive.ObjectID) ([]*models.Message, error) {
	filter := bson.M{"$or": bson.A{
		bson.M{"from": a, "to": b},
		bson.M{"from": b, "to": a},
	}}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})
	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := []*models.Message{}
	for cur.Next(ctx) {
		var m models.Message
		if err := cur.Decode(&m); err != nil {
			return nil, err
		}
		out = append(out, &m)
	}
	return out, cur.Err()
}

// MemoryRepo is an in-memory Repository for tests and local runs.
type MemoryRepo struct {
	mu   sync.RWMutex
	msgs []models.Message
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{}
}

func (r *MemoryRepo) Create(ctx context.Context, m *models.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m.ID.IsZero() {
		m.ID = primitive.NewObjectID()
	}
	m.CreatedAt = time.Now().UTC()
	r.msgs = append(r.msgs, *m)
	return nil
}

func (r *MemoryRepo) Between(ctx context.Context, a, b primitive.ObjectID) ([]*models.Message, error) {
	r.mu.RLock()
	out := []*models.Message{}
	// walk backwards so equal timestamps stay newest first
	for i := len(r.msgs) - 1; i >= 0; i-- {
		m := r.msgs[i]
		if (m.From == a && m.To == b) || (m.From == b && m.To == a) {
			out = append(out, &m)
		}
	}
	r.mu.RUnlock()
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}
