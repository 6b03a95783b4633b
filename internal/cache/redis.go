package cache

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/go-redis/redis/v8"
)

// NewRedis connects to Redis and verifies the connection
func NewRedis(addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	log.Println("✓ Redis connected successfully")
	return client, nil
}

// Once is a set-once marker store used to de-duplicate webhook deliveries
type Once struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewOnce creates a marker store under prefix
func NewOnce(client *redis.Client, prefix string, ttl time.Duration) *Once {
	return &Once{client: client, prefix: prefix, ttl: ttl}
}

// Claim returns true the first time key is seen within the TTL
func (o *Once) Claim(ctx context.Context, key string) (bool, error) {
	ok, err := o.client.SetNX(ctx, o.prefix+key, "1", o.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to claim %s: %w", key, err)
	}
	return ok, nil
}

// Release removes a claim so a failed delivery can be retried
func (o *Once) Release(ctx context.Context, key string) error {
	return o.client.Del(ctx, o.prefix+key).Err()
}

// TextCache caches short strings with a TTL
type TextCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewTextCache creates a string cache under prefix
func NewTextCache(client *redis.Client, prefix string, ttl time.Duration) *TextCache {
	return &TextCache{client: client, prefix: prefix, ttl: ttl}
}

// Get returns the cached value; found is false on a miss
func (c *TextCache) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := c.client.Get(ctx, c.prefix+key).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get %s: %w", key, err)
	}
	return val, true, nil
}

// Set stores value under key
func (c *TextCache) Set(ctx context.Context, key, value string) error {
	return c.client.Set(ctx, c.prefix+key, value, c.ttl).Err()
}
