package notify

import (
	"context"
	"log/slog"
	"sync"

	"github.com/shelterwatch/shelterwatch/internal/models"
	"github.com/shelterwatch/shelterwatch/internal/observability"
)

// Dispatcher delivers a consolidated alert for a set of hazard events
// over every verified channel the recipient has. Channel attempts are
// independent: a failing transport is recorded in the outcome and never
// blocks the sibling channel or the caller.
type Dispatcher struct {
	sms     SMSSender
	email   EmailSender
	metrics *observability.Metrics
}

func NewDispatcher(sms SMSSender, email EmailSender, metrics *observability.Metrics) *Dispatcher {
	return &Dispatcher{
		sms:     sms,
		email:   email,
		metrics: metrics,
	}
}

// Dispatch assumes the caller has already established eligibility
// (alerts enabled, events non-empty and alert-worthy). It never returns
// an error; every failure lives in the outcome.
func (d *Dispatcher) Dispatch(ctx context.Context, r *models.Recipient, events []models.HazardEvent) models.DispatchOutcome {
	outcome := models.DispatchOutcome{
		RecipientID: r.ID,
		SMS:         models.NotAttempted(),
		Email:       models.NotAttempted(),
	}

	var wg sync.WaitGroup

	if r.HasVerifiedPhone() {
		wg.Add(1)
		go func() {
			defer wg.Done()
			outcome.SMS = d.sendSMS(ctx, r, events)
		}()
	} else if r.Phone != "" {
		slog.Info("skipping SMS, phone not verified", "recipient", r.ID)
	}

	if r.HasVerifiedEmail() {
		wg.Add(1)
		go func() {
			defer wg.Done()
			outcome.Email = d.sendEmail(ctx, r, events)
		}()
	} else if r.Email != "" {
		slog.Info("skipping email, address not verified", "recipient", r.ID)
	}

	wg.Wait()

	if !r.Deliverable() {
		// A data/verification gap, not a delivery failure.
		slog.Warn("recipient has no verified contact methods", "recipient", r.ID)
		d.metrics.NoChannelGaps.Inc()
	}

	return outcome
}

func (d *Dispatcher) sendSMS(ctx context.Context, r *models.Recipient, events []models.HazardEvent) models.ChannelResult {
	if err := d.sms.Send(ctx, r.Phone, smsBody(events)); err != nil {
		slog.Error("SMS alert failed", "recipient", r.ID, "error", err)
		d.metrics.SMSFailed.Inc()
		return models.Failed(err.Error())
	}

	slog.Info("SMS alert sent", "recipient", r.ID, "events", len(events))
	d.metrics.SMSSent.Inc()
	return models.Sent()
}

func (d *Dispatcher) sendEmail(ctx context.Context, r *models.Recipient, events []models.HazardEvent) models.ChannelResult {
	if err := d.email.Send(ctx, r.Email, emailSubject, emailBody(r.ID, events)); err != nil {
		slog.Error("email alert failed", "recipient", r.ID, "error", err)
		d.metrics.EmailFailed.Inc()
		return models.Failed(err.Error())
	}

	slog.Info("email alert sent", "recipient", r.ID, "events", len(events))
	d.metrics.EmailSent.Inc()
	return models.Sent()
}
