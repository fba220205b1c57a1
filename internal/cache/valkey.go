// Package cache wraps the Valkey client used for the auth lookup hash
// and the train search result cache. Cache misses and cache outages
// degrade to the database; they are never user-visible errors.
package cache

import (
	"context"
	"encoding/base64"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

type Config struct {
	Addr         string
	Password     string
	UsersHashKey string
	SearchTTLMin int
}

const searchKeyPrefix = "trains:search:"

type ValkeyClient struct {
	client       *redis.Client
	usersHashKey string
	searchTTL    time.Duration
}

func NewValkeyClient(cfg Config) (*ValkeyClient, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           0,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
		DialTimeout:  5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Valkey: %w", err)
	}

	ttl := time.Duration(cfg.SearchTTLMin) * time.Minute
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}

	return &ValkeyClient{
		client:       rdb,
		usersHashKey: cfg.UsersHashKey,
		searchTTL:    ttl,
	}, nil
}

// AuthKey builds the hash field for a credential pair. The password
// part is the hex SHA-256 of the plaintext, not the bcrypt hash, so the
// field is stable across requests.
func AuthKey(email, passwordSHA string) string {
	return base64.StdEncoding.EncodeToString([]byte(email + ":" + passwordSHA))
}

func (v *ValkeyClient) GetUserIDByAuth(ctx context.Context, authKey string) (int64, error) {
	userIDStr, err := v.client.HGet(ctx, v.usersHashKey, authKey).Result()
	if err != nil {
		if err == redis.Nil {
			return 0, fmt.Errorf("user not found in cache")
		}
		return 0, fmt.Errorf("cache lookup error: %w", err)
	}

	userID, err := strconv.ParseInt(userIDStr, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid user ID in cache: %w", err)
	}

	return userID, nil
}

func (v *ValkeyClient) CacheAuth(ctx context.Context, authKey string, userID int64) error {
	return v.client.HSet(ctx, v.usersHashKey, authKey, strconv.FormatInt(userID, 10)).Err()
}

// GetSearch returns the cached JSON payload for a search key, or false
// on a miss.
func (v *ValkeyClient) GetSearch(ctx context.Context, key string) ([]byte, bool) {
	data, err := v.client.Get(ctx, searchKeyPrefix+key).Bytes()
	if err != nil {
		return nil, false
	}
	return data, true
}

func (v *ValkeyClient) SetSearch(ctx context.Context, key string, payload []byte) error {
	return v.client.Set(ctx, searchKeyPrefix+key, payload, v.searchTTL).Err()
}

// InvalidateSearches drops every cached search result. Called after any
// booking or cancellation changes seat availability.
func (v *ValkeyClient) InvalidateSearches(ctx context.Context) error {
	iter := v.client.Scan(ctx, 0, searchKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		if err := v.client.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}

func (v *ValkeyClient) Close() error {
	return v.client.Close()
}
