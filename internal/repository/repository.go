package repository

import (
	"context"
	"errors"
	"time"

	"github.com/shelterwatch/shelterwatch/internal/models"
)

var (
	ErrNotFound  = errors.New("recipient not found")
	ErrDuplicate = errors.New("contact already registered")
)

// ContactChannel names a verifiable contact method on a recipient.
type ContactChannel string

const (
	ContactPhone ContactChannel = "phone"
	ContactEmail ContactChannel = "email"
)

// RecipientRepository owns recipient records and their verification
// state. The alerting core only reads from it.
type RecipientRepository interface {
	Create(ctx context.Context, r *models.Recipient) error
	GetByID(ctx context.Context, id string) (*models.Recipient, error)
	GetByPhone(ctx context.Context, phone string) (*models.Recipient, error)
	GetByEmail(ctx context.Context, email string) (*models.Recipient, error)
	Update(ctx context.Context, r *models.Recipient) error
	Delete(ctx context.Context, id string) error
	SetAlertsEnabled(ctx context.Context, id string, enabled bool) error

	// ListAlertEligible returns recipients with alerts enabled, a known
	// location, and at least one verified contact channel. This is the
	// single place eligibility is derived.
	ListAlertEligible(ctx context.Context) ([]models.Recipient, error)

	SetVerificationCode(ctx context.Context, id string, ch ContactChannel, code string, expires time.Time) error
	GetVerificationCode(ctx context.Context, id string, ch ContactChannel) (code string, expires time.Time, err error)
	MarkVerified(ctx context.Context, id string, ch ContactChannel) error
}
