package scheduler

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// DueStarter dipenuhi *service.Service.
type DueStarter interface {
	StartDueAssessments(ctx context.Context) (int64, error)
}

type DueSweepConfig struct {
	CronSchedule string
	Location     *time.Location
	Timeout      time.Duration
	RunOnBoot    bool
}

// StartDueSweep menjadwalkan sapuan harian NOT_STARTED → ON_GOING.
// Task asynq per event tetap jalan; sapuan ini menangkap event yang task-nya hilang.
func StartDueSweep(svc DueStarter, cfg DueSweepConfig) (*cron.Cron, error) {
	if cfg.CronSchedule == "" {
		cfg.CronSchedule = "5 0 * * *"
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 2 * time.Minute
	}

	c := cron.New(
		cron.WithLocation(cfg.Location),
		cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)),
	)
	if _, err := c.AddFunc(cfg.CronSchedule, func() { RunDueSweep(svc, cfg.Timeout) }); err != nil {
		return nil, err
	}
	log.Printf("[DUE-SWEEP] started schedule=%q tz=%s", cfg.CronSchedule, cfg.Location)
	c.Start()

	if cfg.RunOnBoot {
		go RunDueSweep(svc, cfg.Timeout)
	}
	return c, nil
}

func RunDueSweep(svc DueStarter, timeout time.Duration) int64 {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	n, err := svc.StartDueAssessments(ctx)
	if err != nil {
		log.Printf("[DUE-SWEEP] error: %v", err)
		return 0
	}
	return n
}
