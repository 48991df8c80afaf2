// File: utils/cache.go
package utils

import (
	"context"
	"log"
	"time"

	"github.com/go-redis/redis/v8"

	"interlingo/config"
)

var (
	// CacheClient is the generic cache client.
	CacheClient *redis.Client
	// WaitListClient is the dedicated client for the payment wait-list
	// and per-appointment lock leases.
	WaitListClient *redis.Client
)

// InitCache initializes the generic Redis cache client (using DB from AppConfig for general caching).
func InitCache() {
	CacheClient = redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisCacheDB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := CacheClient.Ping(ctx).Result(); err != nil {
		log.Fatalf("Failed to connect to Redis (Cache): %v", err)
	}
}

// GetCacheClient returns the generic cache client.
func GetCacheClient() *redis.Client {
	if CacheClient == nil {
		InitCache()
	}
	return CacheClient
}

// InitWaitListCache initializes the Redis client backing the payment
// wait-list (using DB from AppConfig).
func InitWaitListCache() {
	WaitListClient = redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisWaitListDB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := WaitListClient.Ping(ctx).Result(); err != nil {
		log.Fatalf("Failed to connect to Redis (WaitList): %v", err)
	}
}

// GetWaitListClient returns the Redis client for the payment wait-list.
func GetWaitListClient() *redis.Client {
	if WaitListClient == nil {
		InitWaitListCache()
	}
	return WaitListClient
}
