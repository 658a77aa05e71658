package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dkravets/photoshare-service/internal/repository"
)

// Blacklist is an expiring key-set of revoked token identifiers, consulted
// on every authenticated request.
type Blacklist interface {
	Add(ctx context.Context, jti string, expiresAt time.Time) error
	Contains(ctx context.Context, jti string) (bool, error)
}

// RedisBlacklist stores revoked jtis in redis, letting TTL handle expiry.
type RedisBlacklist struct {
	client *redis.Client
}

// NewRedisBlacklist initializes a redis-backed blacklist
func NewRedisBlacklist(client *redis.Client) *RedisBlacklist {
	return &RedisBlacklist{client: client}
}

func blacklistKey(jti string) string { return "blacklist:" + jti }

// Add records a jti until its natural expiry. Already-expired tokens are
// ignored; the expiry check rejects them anyway.
func (b *RedisBlacklist) Add(ctx context.Context, jti string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}
	if err := b.client.Set(ctx, blacklistKey(jti), "true", ttl).Err(); err != nil {
		return fmt.Errorf("failed to blacklist token: %w", err)
	}
	return nil
}

// Contains reports whether a jti has been revoked.
func (b *RedisBlacklist) Contains(ctx context.Context, jti string) (bool, error) {
	n, err := b.client.Exists(ctx, blacklistKey(jti)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check blacklist: %w", err)
	}
	return n > 0, nil
}

// DBBlacklist stores revoked jtis in the token_blacklist table. Used when
// redis is not configured; expired rows are purged by a scheduled job.
type DBBlacklist struct {
	repo *repository.Repository
}

// NewDBBlacklist initializes a database-backed blacklist
func NewDBBlacklist(repo *repository.Repository) *DBBlacklist {
	return &DBBlacklist{repo: repo}
}

func (b *DBBlacklist) Add(ctx context.Context, jti string, expiresAt time.Time) error {
	if time.Until(expiresAt) <= 0 {
		return nil
	}
	return b.repo.BlacklistToken(ctx, jti, expiresAt)
}

func (b *DBBlacklist) Contains(ctx context.Context, jti string) (bool, error) {
	return b.repo.IsTokenBlacklisted(ctx, jti)
}
