package models

import "time"

// Recipient is a person registered for disaster alerts. Owned by the
// repository; the alerting core only reads snapshots.
type Recipient struct {
	ID            string
	Phone         string // E.164
	PhoneVerified bool
	Email         string
	EmailVerified bool
	AlertsEnabled bool
	Latitude      *float64
	Longitude     *float64
	WebhookURL    string
	CreatedAt     time.Time
}

func (r *Recipient) HasLocation() bool {
	return r.Latitude != nil && r.Longitude != nil
}

func (r *Recipient) HasVerifiedPhone() bool {
	return r.Phone != "" && r.PhoneVerified
}

func (r *Recipient) HasVerifiedEmail() bool {
	return r.Email != "" && r.EmailVerified
}

// Deliverable reports whether at least one contact channel is usable.
// A recipient without one never reaches the dispatcher.
func (r *Recipient) Deliverable() bool {
	return r.HasVerifiedPhone() || r.HasVerifiedEmail()
}
