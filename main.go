package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/etag"
	"github.com/hibiken/asynq"
	"github.com/robfig/cron/v3"

	"trainingku_backend/internals/configs"
	database "trainingku_backend/internals/databases"
	"trainingku_backend/internals/features/assessments/jobs"
	"trainingku_backend/internals/features/assessments/scheduler"
	"trainingku_backend/internals/features/assessments/service"
	helper "trainingku_backend/internals/helpers"
	middlewares "trainingku_backend/internals/middlewares"
	routes "trainingku_backend/internals/route"
)

func main() {
	configs.LoadEnv()

	app := fiber.New(fiber.Config{
		// 🚀 JSON super cepat
		JSONEncoder:             sonic.Marshal,
		JSONDecoder:             sonic.Unmarshal,
		DisableStartupMessage:   true,
		ErrorHandler:            helper.ErrorHandler,
		ProxyHeader:             fiber.HeaderXForwardedFor,
		EnableTrustedProxyCheck: true,
		TrustedProxies:          []string{"0.0.0.0/0"},
	})

	// ⚙️ middleware dasar + performa
	app.Use(compress.New(compress.Config{Level: compress.LevelDefault}))
	app.Use(etag.New())

	// 🔎 Request-ID + timing, timeout mengikuti budget transaksi bulk
	app.Use(middlewares.RequestIDMiddleware(configs.App.DBTxTimeout))

	middlewares.SetupMiddlewares(app)

	// 🔌 DB connect + pool + warm-up
	database.ConnectDB()
	database.TunePool()
	database.WarmUpQueries()

	// 🧰 Redis + asynq (opsional)
	database.InitRedis()
	database.InitAsynq()

	svc := routes.BuildAssessmentService(database.DB)

	worker := startWorker(svc)

	// ⏱ sapuan harian setelah DB siap
	sweep, err := scheduler.StartDueSweep(svc, scheduler.DueSweepConfig{
		CronSchedule: configs.App.AssessmentCron,
		Location:     configs.App.Location(),
		RunOnBoot:    true,
	})
	if err != nil {
		log.Fatalf("❌ due sweep: %v", err)
	}

	// ✅ Routes
	routes.SetupRoutes(app, svc)

	// 🔒 Keep-Alive & timeout koneksi server
	app.Server().ReadTimeout = 15 * time.Second
	app.Server().WriteTimeout = 30 * time.Second
	app.Server().IdleTimeout = 90 * time.Second

	port := configs.App.Port

	go func() {
		log.Printf("✅ Listening on :%s", port)
		if err := app.Listen("0.0.0.0:" + port); err != nil {
			log.Fatalf("server error: %v", err)
		}
	}()

	// graceful shutdown: http → cron → worker → asynq client → redis → DB
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("🛑 Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = app.ShutdownWithContext(ctx)

	stopCron(ctx, sweep)
	if worker != nil {
		worker.Shutdown()
	}
	if database.AsynqClient != nil {
		_ = database.AsynqClient.Close()
	}
	if database.RedisClient != nil {
		_ = database.RedisClient.Close()
	}
	database.Close()
}

// startWorker menjalankan consumer asynq bila Redis tersedia.
func startWorker(svc *service.Service) *asynq.Server {
	if database.AsynqClient == nil {
		return nil
	}

	var renderer jobs.PDFRenderer
	if configs.App.PDFServiceURL != "" {
		renderer = jobs.NewPDFClient(configs.App.PDFServiceURL, configs.App.PDFServiceTimeout)
	}

	mux := asynq.NewServeMux()
	if err := jobs.RegisterHandlers(mux, svc, renderer); err != nil {
		log.Fatalf("❌ register asynq handlers: %v", err)
	}
	srv, err := jobs.StartWorker(database.RedisOpt(), mux, 5)
	if err != nil {
		log.Printf("⚠️ asynq worker not started: %v", err)
		return nil
	}
	return srv
}

func stopCron(ctx context.Context, c *cron.Cron) {
	if c == nil {
		return
	}
	select {
	case <-c.Stop().Done():
	case <-ctx.Done():
		log.Println("⚠️ due sweep still running at shutdown")
	}
}
