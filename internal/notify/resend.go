package notify

import (
	"context"
	"fmt"

	"github.com/resend/resend-go/v2"
)

// ResendEmail sends transactional email via Resend.
type ResendEmail struct {
	client *resend.Client
	from   string
}

func NewResendEmail(apiKey, from string) *ResendEmail {
	return &ResendEmail{
		client: resend.NewClient(apiKey),
		from:   from,
	}
}

func (s *ResendEmail) Send(ctx context.Context, toAddress, subject, htmlBody string) error {
	params := &resend.SendEmailRequest{
		From:    s.from,
		To:      []string{toAddress},
		Subject: subject,
		Html:    htmlBody,
	}

	_, err := s.client.Emails.SendWithContext(ctx, params)
	if err != nil {
		return fmt.Errorf("failed to send email via Resend: %w", err)
	}

	return nil
}
