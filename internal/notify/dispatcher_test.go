package notify

import (
	"context"
	"errors"
	"sync"
	"testing"

	"go.uber.org/goleak"

	"github.com/shelterwatch/shelterwatch/internal/models"
	"github.com/shelterwatch/shelterwatch/internal/observability"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeSMS struct {
	mu    sync.Mutex
	calls []string
	err   error
}

func (f *fakeSMS) Send(ctx context.Context, toPhone, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, toPhone)
	return f.err
}

func (f *fakeSMS) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type fakeEmail struct {
	mu    sync.Mutex
	calls []string
	body  string
	err   error
}

func (f *fakeEmail) Send(ctx context.Context, toAddress, subject, htmlBody string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, toAddress)
	f.body = htmlBody
	return f.err
}

func (f *fakeEmail) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func verifiedRecipient() *models.Recipient {
	return &models.Recipient{
		ID:            "r1",
		Phone:         "+15551234567",
		PhoneVerified: true,
		Email:         "a@example.com",
		EmailVerified: true,
		AlertsEnabled: true,
	}
}

var someEvents = []models.HazardEvent{
	{EventID: "e1", Category: "flood", SeverityRaw: "moderate", Title: "Flash Flood Warning"},
}

func TestDispatch_BothChannelsSent(t *testing.T) {
	sms, email := &fakeSMS{}, &fakeEmail{}
	d := NewDispatcher(sms, email, observability.NewMetricsForTesting())

	outcome := d.Dispatch(context.Background(), verifiedRecipient(), someEvents)

	if outcome.SMS.Status != models.ChannelSent {
		t.Errorf("expected SMS sent, got %+v", outcome.SMS)
	}
	if outcome.Email.Status != models.ChannelSent {
		t.Errorf("expected email sent, got %+v", outcome.Email)
	}
	if sms.callCount() != 1 || email.callCount() != 1 {
		t.Errorf("expected one call per channel, got sms=%d email=%d", sms.callCount(), email.callCount())
	}
	if !outcome.Delivered() {
		t.Error("expected Delivered() true")
	}
}

func TestDispatch_EmailFailureDoesNotAffectSMS(t *testing.T) {
	sms := &fakeSMS{}
	email := &fakeEmail{err: errors.New("smtp down")}
	d := NewDispatcher(sms, email, observability.NewMetricsForTesting())

	outcome := d.Dispatch(context.Background(), verifiedRecipient(), someEvents)

	if outcome.SMS.Status != models.ChannelSent {
		t.Errorf("SMS must succeed independently, got %+v", outcome.SMS)
	}
	if outcome.Email.Status != models.ChannelFailed {
		t.Errorf("expected email FAILED, got %+v", outcome.Email)
	}
	if outcome.Email.Reason == "" {
		t.Error("expected a failure reason on the email result")
	}
}

func TestDispatch_SMSFailureDoesNotAffectEmail(t *testing.T) {
	sms := &fakeSMS{err: errors.New("carrier rejected")}
	email := &fakeEmail{}
	d := NewDispatcher(sms, email, observability.NewMetricsForTesting())

	outcome := d.Dispatch(context.Background(), verifiedRecipient(), someEvents)

	if outcome.SMS.Status != models.ChannelFailed {
		t.Errorf("expected SMS FAILED, got %+v", outcome.SMS)
	}
	if outcome.Email.Status != models.ChannelSent {
		t.Errorf("email must succeed independently, got %+v", outcome.Email)
	}
	if email.callCount() != 1 {
		t.Errorf("email must still be attempted after SMS failure, calls=%d", email.callCount())
	}
}

func TestDispatch_UnverifiedChannelsNotAttempted(t *testing.T) {
	sms, email := &fakeSMS{}, &fakeEmail{}
	d := NewDispatcher(sms, email, observability.NewMetricsForTesting())

	r := &models.Recipient{
		ID:            "r2",
		Phone:         "+15551234567", // present but unverified
		AlertsEnabled: true,
	}

	outcome := d.Dispatch(context.Background(), r, someEvents)

	if outcome.SMS.Status != models.ChannelNotAttempted {
		t.Errorf("expected SMS NOT_ATTEMPTED, got %+v", outcome.SMS)
	}
	if outcome.Email.Status != models.ChannelNotAttempted {
		t.Errorf("expected email NOT_ATTEMPTED, got %+v", outcome.Email)
	}
	if sms.callCount() != 0 || email.callCount() != 0 {
		t.Error("no transport call may be made for unverified channels")
	}
	if outcome.Delivered() {
		t.Error("expected Delivered() false")
	}
}

func TestDispatch_EmailOnly(t *testing.T) {
	sms, email := &fakeSMS{}, &fakeEmail{}
	d := NewDispatcher(sms, email, observability.NewMetricsForTesting())

	r := &models.Recipient{
		ID:            "r3",
		Email:         "b@example.com",
		EmailVerified: true,
		AlertsEnabled: true,
	}

	outcome := d.Dispatch(context.Background(), r, someEvents)

	if outcome.SMS.Status != models.ChannelNotAttempted {
		t.Errorf("expected SMS NOT_ATTEMPTED, got %+v", outcome.SMS)
	}
	if outcome.Email.Status != models.ChannelSent {
		t.Errorf("expected email sent, got %+v", outcome.Email)
	}
	if sms.callCount() != 0 {
		t.Error("SMS transport must not be called without a verified phone")
	}
}

func TestDispatch_EmailBodyReferencesRecipient(t *testing.T) {
	sms, email := &fakeSMS{}, &fakeEmail{}
	d := NewDispatcher(sms, email, observability.NewMetricsForTesting())

	r := verifiedRecipient()
	d.Dispatch(context.Background(), r, someEvents)

	email.mu.Lock()
	body := email.body
	email.mu.Unlock()

	if body == "" {
		t.Fatal("expected an email body")
	}
	if !containsAll(body, r.ID, "Flash Flood Warning") {
		t.Errorf("email body missing recipient ID or event title: %s", body)
	}
}
