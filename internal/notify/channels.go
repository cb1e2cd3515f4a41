package notify

import "context"

// SMSSender delivers a text message to an E.164 phone number. Failures
// surface as errors; the core never retries.
type SMSSender interface {
	Send(ctx context.Context, toPhone, body string) error
}

// EmailSender delivers an HTML email.
type EmailSender interface {
	Send(ctx context.Context, toAddress, subject, htmlBody string) error
}
