package services

import (
	"context"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/rs/zerolog/log"
)

// Scheduler runs the background jobs: sweeping overdue claims back to
// expired and refreshing the cached leaderboard.
type Scheduler struct {
	sched gocron.Scheduler
}

func StartScheduler(taskSvc *TaskService, gamSvc *GamificationService, sweepEvery, refreshEvery time.Duration) (*Scheduler, error) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}

	_, err = sched.NewJob(
		gocron.DurationJob(sweepEvery),
		gocron.NewTask(func() {
			expired, err := taskSvc.ExpireOverdue(time.Now())
			if err != nil {
				log.Error().Err(err).Msg("[scheduler] expiry sweep failed")
				return
			}
			if expired > 0 {
				log.Info().Int("expired", expired).Msg("[scheduler] expired overdue tasks")
			}
		}),
	)
	if err != nil {
		return nil, err
	}

	_, err = sched.NewJob(
		gocron.DurationJob(refreshEvery),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := gamSvc.RefreshLeaderboard(ctx); err != nil {
				log.Error().Err(err).Msg("[scheduler] leaderboard refresh failed")
			}
		}),
	)
	if err != nil {
		return nil, err
	}

	sched.Start()
	return &Scheduler{sched: sched}, nil
}

func (s *Scheduler) Stop() {
	if err := s.sched.Shutdown(); err != nil {
		log.Warn().Err(err).Msg("scheduler shutdown error")
	}
}
