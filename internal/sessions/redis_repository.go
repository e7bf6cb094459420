package sessions

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisRepository implements Repository using Redis as the backing store.
// Sessions live as JSON under "<prefix><refreshToken>" with TTL until
// expiry; "<prefix>user:<id>" holds the set of a user's refresh tokens.
type RedisRepository struct {
	client *redis.Client
	prefix string
}

// NewRedisRepository creates a Redis-based session repository. Prefix may be empty.
func NewRedisRepository(client *redis.Client, prefix string) *RedisRepository {
	if prefix == "" {
		prefix = "session:"
	}
	return &RedisRepository{client: client, prefix: prefix}
}

func (r *RedisRepository) key(refresh string) string { return r.prefix + refresh }

func (r *RedisRepository) userKey(userID string) string { return r.prefix + "user:" + userID }

func (r *RedisRepository) Create(ctx context.Context, s *Session) error {
	b, err := json.Marshal(s)
	if err != nil {
		return err
	}
	exp := time.Until(s.ExpiresAt)
	if exp <= 0 {
		exp = time.Second
	}
	pipe := r.client.TxPipeline()
	pipe.Set(ctx, r.key(s.RefreshToken), b, exp)
	pipe.SAdd(ctx, r.userKey(s.UserID), s.RefreshToken)
	pipe.Expire(ctx, r.userKey(s.UserID), exp)
	_, err = pipe.Exec(ctx)
	return err
}

func (r *RedisRepository) GetByRefresh(ctx context.Context, refresh string) (*Session, error) {
	b, err := r.client.Get(ctx, r.key(refresh)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}
	var s Session
	if err := json.Unmarshal(b, &s); err != nil {
		return nil, err
	}
	if s.Expired(time.Now().UTC()) {
		_ = r.DeleteByRefresh(ctx, refresh)
		return nil, nil
	}
	return &s, nil
}

func (r *RedisRepository) DeleteByRefresh(ctx context.Context, refresh string) error {
	s, err := r.client.Get(ctx, r.key(refresh)).Bytes()
	if err == nil {
		var sess Session
		if json.Unmarshal(s, &sess) == nil && sess.UserID != "" {
			_ = r.client.SRem(ctx, r.userKey(sess.UserID), refresh).Err()
		}
	}
	return r.client.Del(ctx, r.key(refresh)).Err()
}

func (r *RedisRepository) DeleteByUser(ctx context.Context, userID string) error {
	tokens, err := r.client.SMembers(ctx, r.userKey(userID)).Result()
	if err != nil && err != redis.Nil {
		return err
	}
	keys := make([]string, 0, len(tokens)+1)
	for _, t := range tokens {
		keys = append(keys, r.key(t))
	}
	keys = append(keys, r.userKey(userID))
	return r.client.Del(ctx, keys...).Err()
}
