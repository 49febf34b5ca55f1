// Package cache keeps detection results in Redis keyed by content hash.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/JonMunkholm/tabsniff/internal/core"
	"github.com/redis/go-redis/v9"
)

// version is part of every key so a change to the cached shape never reads
// stale entries.
const version = "v1"

// Options configures a Client.
type Options struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
	Prefix   string
}

// Client implements core.ResultCache on Redis.
type Client struct {
	rdb    *redis.Client
	ttl    time.Duration
	prefix string
}

var _ core.ResultCache = (*Client)(nil)

// New connects to Redis and verifies the connection with a ping.
func New(opts Options) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("redis ping %s: %w", opts.Addr, err)
	}

	return &Client{rdb: rdb, ttl: opts.TTL, prefix: opts.Prefix}, nil
}

// Close releases the connection pool.
func (c *Client) Close() error {
	return c.rdb.Close()
}

// Ping checks that Redis is reachable.
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// Get implements core.ResultCache.
func (c *Client) Get(ctx context.Context, hash string) (*core.Detection, bool, error) {
	data, err := c.rdb.Get(ctx, c.key(hash)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache get: %w", err)
	}

	det, err := decode(data)
	if err != nil {
		return nil, false, fmt.Errorf("cache get: %w", err)
	}
	return det, true, nil
}

// Set implements core.ResultCache.
func (c *Client) Set(ctx context.Context, hash string, det *core.Detection) error {
	data, err := encode(det)
	if err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	if err := c.rdb.Set(ctx, c.key(hash), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	return nil
}

func (c *Client) key(hash string) string {
	return Key(c.prefix, hash)
}

// Key builds the Redis key for a content hash.
func Key(prefix, hash string) string {
	return prefix + "detect:" + version + ":" + hash
}

func encode(det *core.Detection) ([]byte, error) {
	if det == nil || det.Table == nil {
		return nil, errors.New("nil detection")
	}
	return json.Marshal(det)
}

func decode(data []byte) (*core.Detection, error) {
	var det core.Detection
	if err := json.Unmarshal(data, &det); err != nil {
		return nil, fmt.Errorf("decode detection: %w", err)
	}
	if det.Table == nil {
		return nil, errors.New("decode detection: missing table")
	}
	return &det, nil
}
