package storage

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// Presence is an optional, TTL-based "last seen" record per user, backed by
// Redis. The connection registry is still authoritative for routing; presence
// only answers "was this user recently attached to a live connection", which
// lets lookups be treated as best-effort rather than guaranteed-reachable.
type Presence struct {
	rdb *redis.Client
	ttl time.Duration
}

type Config struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration // defaults to 60s
}

func NewPresence(c Config) (*Presence, error) {
	if c.TTL <= 0 {
		c.TTL = 60 * time.Second
	}
	rdb := redis.NewClient(&redis.Options{Addr: c.Addr, Password: c.Password, DB: c.DB})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, errors.Wrap(err, "redis ping failed")
	}
	return &Presence{rdb: rdb, ttl: c.TTL}, nil
}

// key: chat:presence:<user>, value: node id, TTL bounds staleness
func presenceKey(user string) string { return "chat:presence:" + user }

// Online marks the user online and renews the TTL.
func (p *Presence) Online(ctx context.Context, user, nodeID string) error {
	return p.rdb.Set(ctx, presenceKey(user), nodeID, p.ttl).Err()
}

// Touch renews the TTL without changing the node binding.
func (p *Presence) Touch(ctx context.Context, user string) error {
	return p.rdb.Expire(ctx, presenceKey(user), p.ttl).Err()
}

// Offline removes the presence key.
func (p *Presence) Offline(ctx context.Context, user string) error {
	return p.rdb.Del(ctx, presenceKey(user)).Err()
}

// Lookup reports whether the user is currently marked online.
func (p *Presence) Lookup(ctx context.Context, user string) (nodeID string, online bool, err error) {
	val, err := p.rdb.Get(ctx, presenceKey(user)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

func (p *Presence) Close() error {
	return p.rdb.Close()
}
