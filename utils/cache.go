// File: utils/cache.go
package utils

import (
	"context"
	"fmt"
	"time"

	"taskmaster/config"

	"github.com/go-redis/redis/v8"
)

// InitSheetCache connects the Redis client backing OTP sheets and pings it.
// It returns nil, nil when no Redis address is configured.
func InitSheetCache() (*redis.Client, error) {
	if config.AppConfig.RedisAddr == "" {
		return nil, nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisSheetDB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := client.Ping(ctx).Result(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis (Sheets): %w", err)
	}
	return client, nil
}
