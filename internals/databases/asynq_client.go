package database

import (
	"log"

	"github.com/hibiken/asynq"

	"trainingku_backend/internals/configs"
)

var AsynqClient *asynq.Client

// InitAsynq initializes the Asynq client only if Redis is available
func InitAsynq() {
	if RedisClient == nil || configs.App.RedisURI == "" {
		log.Println("⚠️ Redis not available. Asynq client will not be initialized.")
		return
	}

	AsynqClient = asynq.NewClient(RedisOpt())
	log.Println("✅ Asynq Client initialized successfully")
}

func RedisOpt() asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     configs.App.RedisURI,
		Password: configs.GetEnv("REDIS_PASSWORD"),
	}
}
