package verification

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"math/big"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/shelterwatch/shelterwatch/internal/notify"
	"github.com/shelterwatch/shelterwatch/internal/repository"
)

var (
	ErrNoPhone = errors.New("no phone number on file")
	ErrNoEmail = errors.New("no email address on file")
)

// Service issues and checks one-time contact verification codes. Codes
// are six digits, stored alongside the recipient, and expire after a
// configurable TTL. The clock is injected so expiry is testable.
type Service struct {
	repo  repository.RecipientRepository
	sms   notify.SMSSender
	email notify.EmailSender
	ttl   time.Duration
	clock clockwork.Clock
}

func NewService(repo repository.RecipientRepository, sms notify.SMSSender, email notify.EmailSender, ttl time.Duration, clock clockwork.Clock) *Service {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &Service{
		repo:  repo,
		sms:   sms,
		email: email,
		ttl:   ttl,
		clock: clock,
	}
}

// SendPhoneCode generates, stores, and texts a verification code.
func (s *Service) SendPhoneCode(ctx context.Context, recipientID string) error {
	r, err := s.repo.GetByID(ctx, recipientID)
	if err != nil {
		return err
	}
	if r.Phone == "" {
		return ErrNoPhone
	}

	code, err := generateCode()
	if err != nil {
		return fmt.Errorf("error generating code: %w", err)
	}

	expires := s.clock.Now().Add(s.ttl)
	if err := s.repo.SetVerificationCode(ctx, recipientID, repository.ContactPhone, code, expires); err != nil {
		return err
	}

	body := fmt.Sprintf("Your verification code is: %s. This code expires in %d minutes.",
		code, int(s.ttl.Minutes()))
	if err := s.sms.Send(ctx, r.Phone, body); err != nil {
		return fmt.Errorf("error sending verification SMS: %w", err)
	}

	slog.Info("phone verification code sent", "recipient", recipientID)
	return nil
}

// SendEmailCode generates, stores, and emails a verification code.
func (s *Service) SendEmailCode(ctx context.Context, recipientID string) error {
	r, err := s.repo.GetByID(ctx, recipientID)
	if err != nil {
		return err
	}
	if r.Email == "" {
		return ErrNoEmail
	}

	code, err := generateCode()
	if err != nil {
		return fmt.Errorf("error generating code: %w", err)
	}

	expires := s.clock.Now().Add(s.ttl)
	if err := s.repo.SetVerificationCode(ctx, recipientID, repository.ContactEmail, code, expires); err != nil {
		return err
	}

	subject := "Verify Your Email - Disaster Alert System"
	if err := s.email.Send(ctx, r.Email, subject, verificationEmailBody(code, s.ttl)); err != nil {
		return fmt.Errorf("error sending verification email: %w", err)
	}

	slog.Info("email verification code sent", "recipient", recipientID)
	return nil
}

// VerifyPhone checks the submitted code and, on match, marks the phone
// verified and clears the pending code. A mismatch or expired code is
// not an error, just false.
func (s *Service) VerifyPhone(ctx context.Context, recipientID, code string) (bool, error) {
	return s.verify(ctx, recipientID, repository.ContactPhone, code)
}

// VerifyEmail is VerifyPhone for the email channel.
func (s *Service) VerifyEmail(ctx context.Context, recipientID, code string) (bool, error) {
	return s.verify(ctx, recipientID, repository.ContactEmail, code)
}

func (s *Service) verify(ctx context.Context, recipientID string, ch repository.ContactChannel, code string) (bool, error) {
	stored, expires, err := s.repo.GetVerificationCode(ctx, recipientID, ch)
	if err != nil {
		return false, err
	}

	if stored == "" || stored != code || s.clock.Now().After(expires) {
		return false, nil
	}

	if err := s.repo.MarkVerified(ctx, recipientID, ch); err != nil {
		return false, err
	}

	slog.Info("contact channel verified", "recipient", recipientID, "channel", ch)
	return true, nil
}

func generateCode() (string, error) {
	// 100000..999999, always six digits.
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}

func verificationEmailBody(code string, ttl time.Duration) string {
	return fmt.Sprintf(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">`+
		`<h2>Verify Your Email</h2>`+
		`<p>Your verification code is:</p>`+
		`<div style="background-color: #f3f4f6; padding: 20px; text-align: center; font-size: 32px; font-weight: bold; letter-spacing: 5px; margin: 20px 0;">%s</div>`+
		`<p>This code expires in %d minutes.</p>`+
		`<p style="color: #666; font-size: 12px;">If you didn't request this code, please ignore this email.</p>`+
		`</div>`,
		html.EscapeString(code), int(ttl.Minutes()))
}
