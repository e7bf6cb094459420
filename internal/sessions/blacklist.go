package sessions

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/redis/go-redis/v9"
)

// Blacklist records revoked access tokens in Redis until they would have
// expired anyway. A nil *Blacklist, or one without a client, is a no-op.
type Blacklist struct {
	client *redis.Client
	prefix string
}

func NewBlacklist(client *redis.Client) *Blacklist {
	return &Blacklist{client: client, prefix: "blacklist:access:"}
}

// tokens are stored hashed
func (b *Blacklist) key(token string) string {
	sum := sha256.Sum256([]byte(token))
	return b.prefix + hex.EncodeToString(sum[:])
}

// Revoke blacklists token for ttl. Non-positive ttl is a no-op.
func (b *Blacklist) Revoke(ctx context.Context, token string, ttl time.Duration) error {
	if b == nil || b.client == nil || ttl <= 0 {
		return nil
	}
	return b.client.Set(ctx, b.key(token), "1", ttl).Err()
}

// IsRevoked reports whether token is currently blacklisted.
func (b *Blacklist) IsRevoked(ctx context.Context, token string) (bool, error) {
	if b == nil || b.client == nil {
		return false, nil
	}
	n, err := b.client.Exists(ctx, b.key(token)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
