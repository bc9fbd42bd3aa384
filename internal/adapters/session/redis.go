package session

import (
	"context"
	"errors"
	"strconv"

	"github.com/redis/go-redis/v9"
	"go.trai.ch/hexmap/internal/core/domain"
	"go.trai.ch/zerr"
)

// KeyPrefix prefixes session keys in Redis.
const KeyPrefix = "session:"

// Key returns the Redis key holding the user ID for token.
func Key(token string) string {
	return KeyPrefix + token
}

// Client is the part of the Redis client used by Redis.
type Client interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

// Redis implements ports.SessionProvider by looking up "session:{token}",
// which holds the signed-in user's integer ID.
type Redis struct {
	client Client
	closer func() error
	token  string
}

// NewRedis returns a provider reading token's session through client.
func NewRedis(client Client, token string) *Redis {
	return &Redis{client: client, token: token}
}

// NewRedisFromURL connects to the Redis server at url.
func NewRedisFromURL(url, token string) (*Redis, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(errors.Join(domain.ErrConfigInvalid, err), "failed to parse redis url"), "key", "redis_url")
	}
	client := redis.NewClient(opts)
	return &Redis{client: client, closer: client.Close, token: token}, nil
}

// CurrentUser reads the session fresh on every call. A missing token or key
// means nobody is signed in.
func (r *Redis) CurrentUser(ctx context.Context) (domain.CurrentUser, error) {
	if r.token == "" {
		return domain.Anonymous, nil
	}

	val, err := r.client.Get(ctx, Key(r.token)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.Anonymous, nil
		}
		return domain.Anonymous, zerr.Wrap(errors.Join(domain.ErrTransport, err), "failed to read session")
	}

	id, err := strconv.Atoi(val)
	if err != nil || id <= 0 {
		return domain.Anonymous, zerr.With(zerr.Wrap(domain.ErrTransport, "failed to read session"), "reason", "session value is not a user id")
	}
	return domain.UserOf(id), nil
}

// Close releases the client connection when this provider owns it.
func (r *Redis) Close() error {
	if r.closer == nil {
		return nil
	}
	return r.closer()
}
