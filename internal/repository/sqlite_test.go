package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shelterwatch/shelterwatch/internal/models"
)

func setupTestDB(t *testing.T) *SQLiteDB {
	db, err := NewSQLiteDB(":memory:")
	if err != nil {
		t.Fatalf("failed to create test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func ptr(f float64) *float64 { return &f }

func testRecipient(phone, email string) *models.Recipient {
	return &models.Recipient{
		Phone:         phone,
		Email:         email,
		AlertsEnabled: true,
		Latitude:      ptr(31.1),
		Longitude:     ptr(-93.2),
	}
}

func TestSQLiteDB_CreateAndGet(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	r := testRecipient("+15551234567", "a@example.com")
	if err := db.Create(ctx, r); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if r.ID == "" {
		t.Fatal("Create should assign an ID")
	}

	got, err := db.GetByID(ctx, r.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Phone != "+15551234567" {
		t.Errorf("expected phone +15551234567, got %s", got.Phone)
	}
	if got.Email != "a@example.com" {
		t.Errorf("expected email a@example.com, got %s", got.Email)
	}
	if !got.HasLocation() {
		t.Error("expected location to round-trip")
	}
	if got.PhoneVerified || got.EmailVerified {
		t.Error("new recipients must start unverified")
	}
}

func TestSQLiteDB_GetByID_NotFound(t *testing.T) {
	db := setupTestDB(t)

	_, err := db.GetByID(context.Background(), "nonexistent")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestSQLiteDB_DuplicatePhone(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	if err := db.Create(ctx, testRecipient("+15551234567", "a@example.com")); err != nil {
		t.Fatalf("first Create failed: %v", err)
	}

	err := db.Create(ctx, testRecipient("+15551234567", "b@example.com"))
	if !errors.Is(err, ErrDuplicate) {
		t.Errorf("expected ErrDuplicate for reused phone, got %v", err)
	}
}

func TestSQLiteDB_MultipleRecipientsWithoutEmail(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	// Empty emails are stored as NULL, so UNIQUE(email) must not trip.
	if err := db.Create(ctx, testRecipient("+15551110001", "")); err != nil {
		t.Fatalf("first Create failed: %v", err)
	}
	if err := db.Create(ctx, testRecipient("+15551110002", "")); err != nil {
		t.Errorf("second email-less Create failed: %v", err)
	}
}

func TestSQLiteDB_UpdateAndDelete(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	r := testRecipient("+15551234567", "a@example.com")
	if err := db.Create(ctx, r); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	r.Email = "new@example.com"
	r.AlertsEnabled = false
	if err := db.Update(ctx, r); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	got, err := db.GetByID(ctx, r.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Email != "new@example.com" || got.AlertsEnabled {
		t.Errorf("update not applied: %+v", got)
	}

	if err := db.Delete(ctx, r.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := db.GetByID(ctx, r.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}

	if err := db.Delete(ctx, r.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound deleting twice, got %v", err)
	}
}

func TestSQLiteDB_SetAlertsEnabled(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	r := testRecipient("+15551234567", "")
	if err := db.Create(ctx, r); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if err := db.SetAlertsEnabled(ctx, r.ID, false); err != nil {
		t.Fatalf("SetAlertsEnabled failed: %v", err)
	}

	got, _ := db.GetByID(ctx, r.ID)
	if got.AlertsEnabled {
		t.Error("expected alerts disabled")
	}
}

func TestSQLiteDB_ListAlertEligible(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	// Eligible: enabled, located, verified phone.
	eligible := testRecipient("+15550000001", "")
	eligible.PhoneVerified = true
	if err := db.Create(ctx, eligible); err != nil {
		t.Fatal(err)
	}

	// Not eligible: alerts disabled.
	disabled := testRecipient("+15550000002", "")
	disabled.PhoneVerified = true
	disabled.AlertsEnabled = false
	if err := db.Create(ctx, disabled); err != nil {
		t.Fatal(err)
	}

	// Not eligible: no location.
	nowhere := testRecipient("+15550000003", "")
	nowhere.PhoneVerified = true
	nowhere.Latitude = nil
	nowhere.Longitude = nil
	if err := db.Create(ctx, nowhere); err != nil {
		t.Fatal(err)
	}

	// Not eligible: no verified channel.
	unverified := testRecipient("+15550000004", "d@example.com")
	if err := db.Create(ctx, unverified); err != nil {
		t.Fatal(err)
	}

	// Eligible via verified email only.
	emailOnly := testRecipient("+15550000005", "e@example.com")
	emailOnly.EmailVerified = true
	if err := db.Create(ctx, emailOnly); err != nil {
		t.Fatal(err)
	}

	got, err := db.ListAlertEligible(ctx)
	if err != nil {
		t.Fatalf("ListAlertEligible failed: %v", err)
	}

	if len(got) != 2 {
		t.Fatalf("expected 2 eligible recipients, got %d", len(got))
	}
	for _, r := range got {
		if !r.AlertsEnabled || !r.HasLocation() || !r.Deliverable() {
			t.Errorf("ineligible recipient returned: %+v", r)
		}
	}
}

func TestSQLiteDB_VerificationFlow(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	r := testRecipient("+15551234567", "a@example.com")
	if err := db.Create(ctx, r); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	expires := time.Now().Add(10 * time.Minute).UTC().Truncate(time.Second)
	if err := db.SetVerificationCode(ctx, r.ID, ContactPhone, "123456", expires); err != nil {
		t.Fatalf("SetVerificationCode failed: %v", err)
	}

	code, gotExpires, err := db.GetVerificationCode(ctx, r.ID, ContactPhone)
	if err != nil {
		t.Fatalf("GetVerificationCode failed: %v", err)
	}
	if code != "123456" {
		t.Errorf("expected code 123456, got %s", code)
	}
	if !gotExpires.Equal(expires) {
		t.Errorf("expected expiry %v, got %v", expires, gotExpires)
	}

	// Email code lives in separate columns.
	emailCode, _, err := db.GetVerificationCode(ctx, r.ID, ContactEmail)
	if err != nil {
		t.Fatalf("GetVerificationCode(email) failed: %v", err)
	}
	if emailCode != "" {
		t.Errorf("expected no email code, got %s", emailCode)
	}

	if err := db.MarkVerified(ctx, r.ID, ContactPhone); err != nil {
		t.Fatalf("MarkVerified failed: %v", err)
	}

	got, _ := db.GetByID(ctx, r.ID)
	if !got.PhoneVerified {
		t.Error("expected phone verified")
	}
	if got.EmailVerified {
		t.Error("email must stay unverified")
	}

	// Code is cleared after verification.
	code, _, _ = db.GetVerificationCode(ctx, r.ID, ContactPhone)
	if code != "" {
		t.Errorf("expected cleared code, got %s", code)
	}
}
