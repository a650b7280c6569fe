package jobs

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// Sunday 09:00
const weeklyCheckupCron = "0 9 * * 0"

// Scheduler owns the cron-driven background jobs
type Scheduler struct {
	scheduler gocron.Scheduler
}

// NewScheduler creates the scheduler and registers the weekly checkup
func NewScheduler(checkup *WeeklyCheckup) (*Scheduler, error) {
	scheduler, err := gocron.NewScheduler(
		gocron.WithLocation(time.Local),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	_, err = scheduler.NewJob(
		gocron.CronJob(weeklyCheckupCron, false),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
			defer cancel()
			if err := checkup.Run(ctx); err != nil {
				log.Printf("❌ [SCHEDULER] Weekly checkup failed: %v", err)
			}
		}),
		gocron.WithName("weekly-financial-checkup"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to register weekly checkup: %w", err)
	}

	return &Scheduler{scheduler: scheduler}, nil
}

// Start begins running registered jobs
func (s *Scheduler) Start() {
	s.scheduler.Start()
	log.Println("⏰ [SCHEDULER] Started background jobs")
}

// Shutdown stops the scheduler and waits for running jobs
func (s *Scheduler) Shutdown() error {
	return s.scheduler.Shutdown()
}
