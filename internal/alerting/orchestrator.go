package alerting

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/shelterwatch/shelterwatch/internal/feed"
	"github.com/shelterwatch/shelterwatch/internal/models"
	"github.com/shelterwatch/shelterwatch/internal/observability"
	"github.com/shelterwatch/shelterwatch/internal/repository"
	"github.com/shelterwatch/shelterwatch/internal/risk"
	"github.com/shelterwatch/shelterwatch/internal/worker"
)

// RecipientDirectory is the slice of the repository the orchestrator
// needs: eligibility-filtered listing and single lookups.
type RecipientDirectory interface {
	ListAlertEligible(ctx context.Context) ([]models.Recipient, error)
	GetByID(ctx context.Context, id string) (*models.Recipient, error)
}

// Dispatcher delivers one consolidated alert to one recipient.
type Dispatcher interface {
	Dispatch(ctx context.Context, r *models.Recipient, events []models.HazardEvent) models.DispatchOutcome
}

// LocationReport is the result of a side-effect-free hazard query.
type LocationReport struct {
	Events      []models.HazardEvent
	AlertWorthy []models.HazardEvent
}

// Orchestrator runs the alerting pipeline: fetch hazards, classify,
// filter, dispatch. Each call is a stateless pass; nothing is
// deduplicated across invocations.
type Orchestrator struct {
	feed       feed.Feed
	directory  RecipientDirectory
	dispatcher Dispatcher
	metrics    *observability.Metrics

	workerCount int
}

func NewOrchestrator(f feed.Feed, dir RecipientDirectory, d Dispatcher, m *observability.Metrics, workerCount int) *Orchestrator {
	if workerCount < 1 {
		workerCount = 1
	}
	return &Orchestrator{
		feed:        f,
		directory:   dir,
		dispatcher:  d,
		metrics:     m,
		workerCount: workerCount,
	}
}

// CheckAndAlertOne runs a full pass for a single recipient. A nil
// outcome with nil error means the recipient was skipped: no location,
// nothing near them, or nothing alert-worthy. A feed failure degrades
// to zero events rather than aborting the caller.
func (o *Orchestrator) CheckAndAlertOne(ctx context.Context, r *models.Recipient) (*models.DispatchOutcome, error) {
	if !r.HasLocation() {
		slog.Info("skipping recipient, no location data", "recipient", r.ID)
		o.metrics.RecipientsSkipped.Inc()
		return nil, nil
	}

	events, err := o.feed.FetchNear(ctx, *r.Latitude, *r.Longitude)
	if err != nil {
		slog.Warn("hazard feed fetch failed, treating as no events", "recipient", r.ID, "error", err)
		o.metrics.FeedErrors.Inc()
		events = nil
	}

	if len(events) == 0 {
		slog.Debug("no hazards near recipient", "recipient", r.ID)
		o.metrics.RecipientsSkipped.Inc()
		return nil, nil
	}

	worthy := risk.AlertWorthy(events)
	if len(worthy) == 0 {
		slog.Info("recipient safe, only low-risk events nearby", "recipient", r.ID, "events", len(events))
		o.metrics.RecipientsSkipped.Inc()
		return nil, nil
	}

	slog.Info("alert-worthy hazards found", "recipient", r.ID, "count", len(worthy))

	// One consolidated dispatch per recipient per pass.
	outcome := o.dispatcher.Dispatch(ctx, r, worthy)
	return &outcome, nil
}

// CheckAndAlertByID resolves the recipient first and treats unknown or
// alerts-disabled recipients as a no-op, per the upstream-gate
// contract. Infrastructure failures do propagate.
func (o *Orchestrator) CheckAndAlertByID(ctx context.Context, id string) (*models.DispatchOutcome, error) {
	r, err := o.directory.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		slog.Info("skipping alert, recipient not found", "recipient", id)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error resolving recipient %s: %w", id, err)
	}
	if !r.AlertsEnabled {
		slog.Info("skipping alert, alerts disabled", "recipient", id)
		return nil, nil
	}

	return o.CheckAndAlertOne(ctx, r)
}

// CheckAndAlertAll runs one batch pass across every eligible
// recipient, fanning units out over a bounded worker pool. Failures
// are isolated per recipient; the batch always completes and reports
// aggregate counts only.
func (o *Orchestrator) CheckAndAlertAll(ctx context.Context) (models.BatchResult, error) {
	start := time.Now()

	recipients, err := o.directory.ListAlertEligible(ctx)
	if err != nil {
		return models.BatchResult{}, fmt.Errorf("error listing eligible recipients: %w", err)
	}

	slog.Info("starting disaster check", "recipients", len(recipients))

	if len(recipients) == 0 {
		return models.BatchResult{}, nil
	}

	var succeeded, failed atomic.Int64

	// Buffer sized to the batch so Submit never blocks even if the
	// context is cancelled while workers are draining.
	pool := worker.NewPool(o.workerCount, len(recipients), func(ctx context.Context, r models.Recipient) error {
		if err := o.checkOneIsolated(ctx, &r); err != nil {
			slog.Error("recipient check failed", "recipient", r.ID, "error", err)
			failed.Add(1)
			return err
		}
		succeeded.Add(1)
		return nil
	})

	pool.Start(ctx)
	for _, r := range recipients {
		pool.Submit(r)
	}
	pool.Stop()

	result := models.BatchResult{
		Succeeded: int(succeeded.Load()),
		Failed:    int(failed.Load()),
		Total:     len(recipients),
	}

	o.metrics.BatchRuns.Inc()
	o.metrics.BatchDuration.Observe(time.Since(start).Seconds())
	slog.Info("disaster check complete",
		"succeeded", result.Succeeded, "failed", result.Failed, "total", result.Total)

	return result, nil
}

// checkOneIsolated converts a panic inside one recipient's unit into an
// error so it cannot take down the batch or its workers.
func (o *Orchestrator) checkOneIsolated(ctx context.Context, r *models.Recipient) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic while alerting recipient %s: %v", r.ID, rec)
		}
	}()

	_, err = o.CheckAndAlertOne(ctx, r)
	return err
}

// CheckLocation fetches and classifies hazards near a coordinate
// without notifying anyone. Used for diagnostics.
func (o *Orchestrator) CheckLocation(ctx context.Context, lat, lng float64) (LocationReport, error) {
	events, err := o.feed.FetchNear(ctx, lat, lng)
	if err != nil {
		return LocationReport{}, fmt.Errorf("error fetching hazards: %w", err)
	}

	report := LocationReport{
		Events:      events,
		AlertWorthy: risk.AlertWorthy(events),
	}

	slog.Info("location check", "lat", lat, "lng", lng,
		"events", len(report.Events), "alert_worthy", len(report.AlertWorthy))

	return report, nil
}
