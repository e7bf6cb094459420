package users

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/campusconecto/campusconecto/backend/api/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	ErrNotFound       = errors.New("user not found")
	ErrDuplicateEmail = errors.New("user already exists")
	ErrUsernameTaken  = errors.New("username is already taken")
)

// MaxSearchResults caps the size of a search result page.
const MaxSearchResults = 20

// ProfileUpdate carries the editable profile fields. Empty fields are left
// untouched.
type ProfileUpdate struct {
	Username        string
	College         string
	Bio             string
	ProfileImageURL string
}

// SearchQuery selects users whose Field (or any searchable field when Field
// is empty) contains Text, case-insensitively.
type SearchQuery struct {
	Text    string
	Field   string
	Exclude primitive.ObjectID
	Limit   int64
}

// UserRepository defines persistence operations for users.
// Lookups return (nil, nil) when nothing matches.
type UserRepository interface {
	Create(ctx context.Context, u *models.User) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetMany(ctx context.Context, ids []primitive.ObjectID) ([]*models.User, error)
	UpdateProfile(ctx context.Context, id primitive.ObjectID, upd ProfileUpdate) (*models.User, error)
	SetPasswordHash(ctx context.Context, id primitive.ObjectID, hash string) error
	Search(ctx context.Context, q SearchQuery) ([]*models.User, error)

	// AddFriendPair and RemoveFriendPair mutate both users' lists.
	AddFriendPair(ctx context.Context, a, b primitive.ObjectID) error
	RemoveFriendPair(ctx context.Context, a, b primitive.ObjectID) error
	// AddFriend and RemoveFriend touch only owner's list.
	AddFriend(ctx context.Context, owner, friend primitive.ObjectID) error
	RemoveFriend(ctx context.Context, owner, friend primitive.ObjectID) error

	ForEach(ctx context.Context, fn func(*models.User) error) error
}

var searchFields = map[string]string{
	"email":    "email",
	"username": "username",
	"name":     "fullName",
	"fullName": "fullName",
}

// SearchField maps a search mode to the stored field name; unknown modes
// search every field.
func SearchField(mode string) string {
	return searchFields[strings.TrimSpace(mode)]
}

// MongoUserRepository implements UserRepository using MongoDB
type MongoUserRepository struct {
	col          *mongo.Collection
	client       *mongo.Client
	transactions bool
}

// NewMongoUserRepository creates a new repository for the given collection.
// When transactions is true friend pair mutations run in one transaction,
// which needs a replica set.
func NewMongoUserRepository(col *mongo.Collection, transactions bool) *MongoUserRepository {
	return &MongoUserRepository{col: col, client: col.Database().Client(), transactions: transactions}
}

func (r *MongoUserRepository) Create(ctx context.Context, u *models.User) error {
	now := time.Now().UTC()
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	u.Email = models.NormalizeEmail(u.Email)
	if u.Friends == nil {
		u.Friends = []primitive.ObjectID{}
	}
	if u.Subjects == nil {
		u.Subjects = []string{}
	}
	u.CreatedAt = now
	u.UpdatedAt = now
	if _, err := r.col.InsertOne(ctx, u); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *MongoUserRepository) findOne(ctx context.Context, filter bson.M) (*models.User, error) {
	var u models.User
	if err := r.col.FindOne(ctx, filter).Decode(&u); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

func (r *MongoUserRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *MongoUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, bson.M{"email": models.NormalizeEmail(email)})
}

func (r *MongoUserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.findOne(ctx, bson.M{"username": strings.ToLower(strings.TrimSpace(username))})
}

func (r *MongoUserRepository) GetMany(ctx context.Context, ids []primitive.ObjectID) ([]*models.User, error) {
	if len(ids) == 0 {
		return []*models.User{}, nil
	}
	return r.find(ctx, bson.M{"_id": bson.M{"$in": ids}}, options.Find().SetSort(bson.D{{Key: "fullName", Value: 1}}))
}

func (r *MongoUserRepository) find(ctx context.Context, filter bson.M, opts ...*options.FindOptions) ([]*models.User, error) {
	cur, err := r.col.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := []*models.User{}
	for cur.Next(ctx) {
		var u models.User
		if err := cur.Decode(&u); err != nil {
			return nil, err
		}
		out = append(out, &u)
	}
	return out, cur.Err()
}

func (r *MongoUserRepository) UpdateProfile(ctx context.Context, id primitive.ObjectID, upd ProfileUpdate) (*models.User, error) {
	set := bson.M{"profileCreated": true, "updatedAt": time.Now().UTC()}
	if upd.Username != "" {
		set["username"] = upd.Username
	}
	if upd.College != "" {
		set["college"] = upd.College
	}
	if upd.Bio != "" {
		set["bio"] = upd.Bio
	}
	if upd.ProfileImageURL != "" {
		set["profileImageUrl"] = upd.ProfileImageURL
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var u models.User
	if err := r.col.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&u); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrUsernameTaken
		}
		return nil, err
	}
	return &u, nil
}

func (r *MongoUserRepository) SetPasswordHash(ctx context.Context, id primitive.ObjectID, hash string) error {
	res, err := r.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"passwordHash": hash, "updatedAt": time.Now().UTC()}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// searchFilter builds the Mongo filter for q. The text is matched literally.
func searchFilter(q SearchQuery) bson.M {
	pattern := primitive.Regex{Pattern: regexp.QuoteMeta(q.Text), Options: "i"}
	filter := bson.M{}
	if q.Field != "" {
		filter[q.Field] = pattern
	} else {
		filter["$or"] = bson.A{
			bson.M{"email": pattern},
			bson.M{"username": pattern},
			bson.M{"fullName": pattern},
		}
	}
	if !q.Exclude.IsZero() {
		filter["_id"] = bson.M{"$ne": q.Exclude}
	}
	return filter
}

func (r *MongoUserRepository) Search(ctx context.Context, q SearchQuery) ([]*models.User, error) {
	limit := q.Limit
	if limit <= 0 || limit > MaxSearchResults {
		limit = MaxSearchResults
	}
	return r.find(ctx, searchFilter(q), options.Find().SetLimit(limit).SetSort(bson.D{{Key: "fullName", Value: 1}}))
}

// addFriendUpdate and removeFriendUpdate are set operations, so repeating
// them never duplicates or fails.
func addFriendUpdate(friend primitive.ObjectID, now time.Time) bson.M {
	return bson.M{
		"$addToSet": bson.M{"friends": friend},
		"$set":      bson.M{"updatedAt": now},
	}
}

func removeFriendUpdate(friend primitive.ObjectID, now time.Time) bson.M {
	return bson.M{
		"$pull": bson.M{"friends": friend},
		"$set":  bson.M{"updatedAt": now},
	}
}

func (r *MongoUserRepository) AddFriend(ctx context.Context, owner, friend primitive.ObjectID) error {
	_, err := r.col.UpdateOne(ctx, bson.M{"_id": owner}, addFriendUpdate(friend, time.Now().UTC()))
	return err
}

func (r *MongoUserRepository) RemoveFriend(ctx context.Context, owner, friend primitive.ObjectID) error {
	_, err := r.col.UpdateOne(ctx, bson.M{"_id": owner}, removeFriendUpdate(friend, time.Now().UTC()))
	return err
}

func (r *MongoUserRepository) AddFriendPair(ctx context.Context, a, b primitive.ObjectID) error {
	return r.pair(ctx, func(ctx context.Context) error {
		if err := r.AddFriend(ctx, a, b); err != nil {
			return err
		}
		return r.AddFriend(ctx, b, a)
	})
}

func (r *MongoUserRepository) RemoveFriendPair(ctx context.Context, a, b primitive.ObjectID) error {
	return r.pair(ctx, func(ctx context.Context) error {
		if err := r.RemoveFriend(ctx, a, b); err != nil {
			return err
		}
		return r.RemoveFriend(ctx, b, a)
	})
}

// pair runs fn inside a transaction when enabled, otherwise directly.
func (r *MongoUserRepository) pair(ctx context.Context, fn func(ctx context.Context) error) error {
	if !r.transactions {
		return fn(ctx)
	}
	sess, err := r.client.StartSession()
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	defer sess.EndSession(ctx)
	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return err
}

func (r *MongoUserRepository) ForEach(ctx context.Context, fn func(*models.User) error) error {
	cur, err := r.col.Find(ctx, bson.M{})
	if err != nil {
		return err
	}
	defer cur.Close(ctx)
	for cur.Next(ctx) {
		var u models.User
		if err := cur.Decode(&u); err != nil {
			return err
		}
		if err := fn(&u); err != nil {
			return err
		}
	}
	return cur.Err()
}
