// Package cache wraps Redis for the hot paths that shouldn't hit Postgres:
// OTP rate limiting, view deduplication, and the trending-tags cache.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Srimanrao123/CollegeDost-sub000/internal/logger"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisClient wraps the redis.Client with centralized connection pooling
type RedisClient struct {
	client *redis.Client
}

var globalRedis *RedisClient

const (
	// otpRequestLimit caps OTP sends per phone per window
	otpRequestLimit  = 5
	otpRequestWindow = time.Hour

	// viewDedupeTTL suppresses repeat view events from the same viewer
	viewDedupeTTL = 6 * time.Hour

	trendingTagsKey = "trending:tags"
	trendingTagsTTL = 5 * time.Minute
)

// NewRedisClient creates and initializes a Redis client with connection pooling
func NewRedisClient(host, port, password string) (*RedisClient, error) {
	if host == "" {
		host = "localhost"
	}
	if port == "" {
		port = "6379"
	}

	addr := fmt.Sprintf("%s:%s", host, port)

	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           0,
		MaxRetries:   3,
		PoolSize:     10,
		MinIdleConns: 5,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		DialTimeout:  5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		logger.ErrorWithFields("Failed to connect to Redis", err)
		return nil, err
	}

	rc := &RedisClient{client: client}
	globalRedis = rc

	logger.Log.Info("Redis client connected", zap.String("address", addr))
	return rc, nil
}

// GetRedisClient returns the global Redis client instance
func GetRedisClient() *RedisClient {
	return globalRedis
}

// Close closes the Redis connection gracefully
func (rc *RedisClient) Close() error {
	if rc == nil || rc.client == nil {
		return nil
	}
	return rc.client.Close()
}

// Ping tests the Redis connection
func (rc *RedisClient) Ping(ctx context.Context) error {
	return rc.client.Ping(ctx).Err()
}

// Get retrieves a value
func (rc *RedisClient) Get(ctx context.Context, key string) (string, error) {
	return rc.client.Get(ctx, key).Result()
}

// SetEx stores a value with expiration
func (rc *RedisClient) SetEx(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return rc.client.Set(ctx, key, value, ttl).Err()
}

// Del deletes one or more keys
func (rc *RedisClient) Del(ctx context.Context, keys ...string) error {
	return rc.client.Del(ctx, keys...).Err()
}

// AllowOTPRequest checks and consumes one OTP send for the phone. Returns
// false once the per-window limit is hit. Fails open: if Redis is down the
// send is allowed rather than locking users out.
func (rc *RedisClient) AllowOTPRequest(ctx context.Context, phone string) bool {
	key := "otp:rate:" + phone

	count, err := rc.client.Incr(ctx, key).Result()
	if err != nil {
		logger.WarnWithFields("OTP rate limit check failed, allowing", err)
		return true
	}
	if count == 1 {
		if err := rc.client.Expire(ctx, key, otpRequestWindow).Err(); err != nil {
			logger.WarnWithFields("Failed to set OTP rate window", err)
		}
	}
	return count <= otpRequestLimit
}

// MarkPostViewed records a view event key for dedupe. Returns true when this
// is the first view from the viewer within the TTL window. viewerKey is a
// user ID or a client fingerprint for anonymous sessions.
func (rc *RedisClient) MarkPostViewed(ctx context.Context, postID, viewerKey string) bool {
	key := fmt.Sprintf("view:%s:%s", postID, viewerKey)

	ok, err := rc.client.SetNX(ctx, key, 1, viewDedupeTTL).Result()
	if err != nil {
		logger.WarnWithFields("View dedupe check failed, counting", err)
		return true
	}
	return ok
}

// TrendingTag is a cached trending-tag entry
type TrendingTag struct {
	Name      string `json:"name"`
	PostCount int    `json:"post_count"`
}

// GetTrendingTags returns the cached trending list, or nil on miss
func (rc *RedisClient) GetTrendingTags(ctx context.Context) []TrendingTag {
	data, err := rc.client.Get(ctx, trendingTagsKey).Result()
	if err != nil {
		return nil
	}
	var tags []TrendingTag
	if err := json.Unmarshal([]byte(data), &tags); err != nil {
		return nil
	}
	return tags
}

// SetTrendingTags caches the trending list
func (rc *RedisClient) SetTrendingTags(ctx context.Context, tags []TrendingTag) {
	data, err := json.Marshal(tags)
	if err != nil {
		return
	}
	if err := rc.client.Set(ctx, trendingTagsKey, data, trendingTagsTTL).Err(); err != nil {
		logger.WarnWithFields("Failed to cache trending tags", err)
	}
}
