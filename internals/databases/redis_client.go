package database

import (
	"context"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"trainingku_backend/internals/configs"
)

var RedisClient *redis.Client

// InitRedis is optional: without REDIS_URI the template cache and asynq jobs stay disabled.
func InitRedis() {
	addr := configs.App.RedisURI
	if addr == "" {
		log.Println("⚠️ REDIS_URI not set. Cache & jobs disabled.")
		return
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: configs.GetEnv("REDIS_PASSWORD"),
		DB:       0,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if _, err := client.Ping(ctx).Result(); err != nil {
		log.Printf("❌ Failed to connect Redis: %v", err)
		_ = client.Close()
		return
	}
	RedisClient = client
	log.Println("✅ Redis connected")
}
