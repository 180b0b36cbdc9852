package cache

import (
	"context"
	"time"

	"github.com/nanakusa/frontier/cache/local"
	cacheredis "github.com/nanakusa/frontier/cache/redis"
)

// Cache is the server's shared volatile store. It carries the session
// entries written at login ("session:<token>" with the account ID as
// value) and the streak leaderboard as a scored set. Backends map the
// operations onto Redis or an in-process store; a missing key or member
// surfaces as the backend's ErrNotFound.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	Exists(ctx context.Context, key string) (bool, error)

	ZAdd(ctx context.Context, key string, score float64, member string) error
	ZRevRange(ctx context.Context, key string, start, stop int64) ([]string, error)
	ZScore(ctx context.Context, key, member string) (float64, error)
}

// Message is one delivery taken off a subscription.
type Message struct {
	Channel string
	Payload string
}

// PubSub fans announcements out across server instances, or within one
// process when no Redis is configured.
type PubSub interface {
	Publish(ctx context.Context, channel, message string) error
	Subscribe(ctx context.Context, channels ...string) (<-chan *Message, func(), error)
}

// CacheConfig selects and tunes the backend. An empty RedisAddr picks
// the in-process implementations.
type CacheConfig struct {
	RedisAddr       string        `mapstructure:"redis_addr"`
	RedisPassword   string        `mapstructure:"redis_password"`
	RedisDB         int           `mapstructure:"redis_db"`
	LocalGCInterval time.Duration `mapstructure:"local_gc_interval"`
	LocalPubSubBuf  int           `mapstructure:"local_pubsub_buf"`
}

// NewCache builds the configured Cache backend.
func NewCache(cfg CacheConfig) (Cache, error) {
	if cfg.RedisAddr != "" {
		return cacheredis.New(cacheredis.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
	}
	return local.New(local.Config{GCInterval: cfg.LocalGCInterval})
}

// NewPubSub builds the configured PubSub backend.
func NewPubSub(cfg CacheConfig) (PubSub, error) {
	if cfg.RedisAddr != "" {
		rps, err := cacheredis.NewPubSub(cacheredis.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			return nil, err
		}
		return &redisBridge{ps: rps}, nil
	}
	buf := cfg.LocalPubSubBuf
	if buf <= 0 {
		buf = 256
	}
	return &localBridge{ps: local.NewPubSub(buf)}, nil
}

// The sub-packages each define their own message struct so they stay
// importable on their own; the bridges repackage those into Message.

type localBridge struct {
	ps *local.PubSub
}

func (b *localBridge) Publish(ctx context.Context, channel, message string) error {
	return b.ps.Publish(ctx, channel, message)
}

func (b *localBridge) Subscribe(ctx context.Context, channels ...string) (<-chan *Message, func(), error) {
	src, cancel, err := b.ps.Subscribe(ctx, channels...)
	if err != nil {
		return nil, nil, err
	}
	out := make(chan *Message, 256)
	go func() {
		defer close(out)
		for m := range src {
			out <- &Message{Channel: m.Channel, Payload: m.Payload}
		}
	}()
	return out, cancel, nil
}

type redisBridge struct {
	ps *cacheredis.PubSub
}

func (b *redisBridge) Publish(ctx context.Context, channel, message string) error {
	return b.ps.Publish(ctx, channel, message)
}

func (b *redisBridge) Subscribe(ctx context.Context, channels ...string) (<-chan *Message, func(), error) {
	src, cancel, err := b.ps.Subscribe(ctx, channels...)
	if err != nil {
		return nil, nil, err
	}
	out := make(chan *Message, 256)
	go func() {
		defer close(out)
		for m := range src {
			out <- &Message{Channel: m.Channel, Payload: m.Payload}
		}
	}()
	return out, cancel, nil
}
