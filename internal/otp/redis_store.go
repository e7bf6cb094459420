package otp

import (
	"context"
	"time"

	"github.com/campusconecto/campusconecto/backend/api/internal/models"
	"github.com/redis/go-redis/v9"
)

// RedisStore keeps the live code of an email in the hash "otp:<email>"
// expiring with the code.
type RedisStore struct {
	client *redis.Client
	prefix string
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client, prefix: "otp:"}
}

func (s *RedisStore) key(email string) string { return s.prefix + email }

func (s *RedisStore) Save(ctx context.Context, rec *models.OTP) error {
	ttl := time.Until(rec.ExpiresAt)
	if ttl <= 0 {
		return nil
	}
	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, s.key(rec.Email), map[string]interface{}{
		"otp":       rec.Code,
		"createdAt": rec.CreatedAt.UTC().Format(time.RFC3339Nano),
		"expiresAt": rec.ExpiresAt.UTC().Format(time.RFC3339Nano),
	})
	pipe.Expire(ctx, s.key(rec.Email), ttl)
	_, err := pipe.Exec(ctx)
	return err
}

func (s *RedisStore) Find(ctx context.Context, email, code string) (*models.OTP, error) {
	vals, err := s.client.HGetAll(ctx, s.key(email)).Result()
	if err != nil {
		return nil, err
	}
	if len(vals) == 0 || vals["otp"] != code {
		return nil, nil
	}
	rec := &models.OTP{Email: email, Code: code}
	rec.CreatedAt, _ = time.Parse(time.RFC3339Nano, vals["createdAt"])
	rec.ExpiresAt, _ = time.Parse(time.RFC3339Nano, vals["expiresAt"])
	if !rec.ExpiresAt.IsZero() && time.Now().After(rec.ExpiresAt) {
		return nil, nil
	}
	return rec, nil
}

func (s *RedisStore) DeleteAll(ctx context.Context, email string) error {
	return s.client.Del(ctx, s.key(email)).Err()
}
