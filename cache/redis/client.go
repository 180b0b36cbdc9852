package redis

import (
	"context"
	"errors"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// ErrNotFound is returned when a key or set member does not exist.
var ErrNotFound = errors.New("cache: key not found")

// Config holds Redis connection settings.
type Config struct {
	Addr     string
	Password string
	DB       int
}

const pingTimeout = 5 * time.Second

func connect(cfg Config) (*goredis.Client, error) {
	cli := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := cli.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	return cli, nil
}

// Cache adapts a Redis client to the server's cache operations.
type Cache struct {
	cli *goredis.Client
}

// New connects to Redis, verifying the connection with a ping.
func New(cfg Config) (*Cache, error) {
	cli, err := connect(cfg)
	if err != nil {
		return nil, err
	}
	return &Cache{cli: cli}, nil
}

func (c *Cache) Get(ctx context.Context, key string) (string, error) {
	v, err := c.cli.Get(ctx, key).Result()
	if errors.Is(err, goredis.Nil) {
		return "", ErrNotFound
	}
	return v, err
}

func (c *Cache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return c.cli.Set(ctx, key, value, ttl).Err()
}

func (c *Cache) Del(ctx context.Context, keys ...string) error {
	return c.cli.Del(ctx, keys...).Err()
}

func (c *Cache) Exists(ctx context.Context, key string) (bool, error) {
	n, err := c.cli.Exists(ctx, key).Result()
	return n > 0, err
}

func (c *Cache) ZAdd(ctx context.Context, key string, score float64, member string) error {
	return c.cli.ZAdd(ctx, key, goredis.Z{Score: score, Member: member}).Err()
}

func (c *Cache) ZRevRange(ctx context.Context, key string, start, stop int64) ([]string, error) {
	return c.cli.ZRevRange(ctx, key, start, stop).Result()
}

func (c *Cache) ZScore(ctx context.Context, key, member string) (float64, error) {
	s, err := c.cli.ZScore(ctx, key, member).Result()
	if errors.Is(err, goredis.Nil) {
		return 0, ErrNotFound
	}
	return s, err
}

// Message is one delivered pub/sub payload.
type Message struct {
	Channel string
	Payload string
}

// PubSub publishes and subscribes through Redis channels on a client of
// its own, since a subscribed connection cannot issue other commands.
type PubSub struct {
	cli *goredis.Client
}

// NewPubSub connects a dedicated pub/sub client.
func NewPubSub(cfg Config) (*PubSub, error) {
	cli, err := connect(cfg)
	if err != nil {
		return nil, err
	}
	return &PubSub{cli: cli}, nil
}

func (p *PubSub) Publish(ctx context.Context, channel, message string) error {
	return p.cli.Publish(ctx, channel, message).Err()
}

// Subscribe streams messages from the named channels until the returned
// cancel func is called.
func (p *PubSub) Subscribe(ctx context.Context, channels ...string) (<-chan *Message, func(), error) {
	sub := p.cli.Subscribe(ctx, channels...)
	out := make(chan *Message, 256)
	go func() {
		defer close(out)
		for m := range sub.Channel() {
			out <- &Message{Channel: m.Channel, Payload: m.Payload}
		}
	}()
	return out, func() { _ = sub.Close() }, nil
}
