package monitor

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/shelterwatch/shelterwatch/internal/models"
)

// BatchRunner runs one alerting pass across all eligible recipients.
type BatchRunner interface {
	CheckAndAlertAll(ctx context.Context) (models.BatchResult, error)
}

// Scheduler drives periodic disaster checks when the deployment is not
// using the webhook. The first pass runs after one full interval so a
// restart never immediately re-alerts everyone.
type Scheduler struct {
	runner   BatchRunner
	interval time.Duration
	wg       sync.WaitGroup
}

func NewScheduler(runner BatchRunner, interval time.Duration) *Scheduler {
	return &Scheduler{
		runner:   runner,
		interval: interval,
	}
}

func (s *Scheduler) Start(ctx context.Context) {
	s.wg.Add(1)
	go s.run(ctx)
}

func (s *Scheduler) run(ctx context.Context) {
	defer s.wg.Done()
	slog.Info("starting disaster monitor", "interval", s.interval)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("disaster monitor shutting down")
			return
		case <-ticker.C:
			result, err := s.runner.CheckAndAlertAll(ctx)
			if err != nil {
				slog.Error("scheduled disaster check failed", "error", err)
				continue
			}
			slog.Info("scheduled disaster check complete",
				"succeeded", result.Succeeded, "failed", result.Failed, "total", result.Total)
		}
	}
}

// Stop blocks until the monitor goroutine exits. Cancel the Start
// context first.
func (s *Scheduler) Stop() {
	s.wg.Wait()
}
