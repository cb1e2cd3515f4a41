package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/shelterwatch/shelterwatch/internal/models"
)

type SQLiteDB struct {
	db *sql.DB
}

func NewSQLiteDB(path string) (*SQLiteDB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("error while pinging database: %w", err)
	}

	s := &SQLiteDB{
		db: db,
	}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("error while migrating database: %w", err)
	}

	return s, nil
}

func (s *SQLiteDB) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS user_contacts (
			id TEXT PRIMARY KEY,
			phone TEXT NOT NULL UNIQUE,
			email TEXT UNIQUE,
			webhook_url TEXT,
			alert_enabled INTEGER NOT NULL DEFAULT 1,
			latitude REAL,
			longitude REAL,
			phone_verified INTEGER NOT NULL DEFAULT 0,
			email_verified INTEGER NOT NULL DEFAULT 0,
			phone_verification_code TEXT,
			phone_verification_expires DATETIME,
			email_verification_code TEXT,
			email_verification_expires DATETIME,
			created_at DATETIME NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_user_contacts_alert_enabled ON user_contacts(alert_enabled);
  	`

	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteDB) Close() error {
	return s.db.Close()
}

const recipientColumns = `id, phone, email, webhook_url, alert_enabled, latitude, longitude, phone_verified, email_verified, created_at`

func (s *SQLiteDB) Create(ctx context.Context, r *models.Recipient) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO user_contacts
		(id, phone, email, webhook_url, alert_enabled, latitude, longitude, phone_verified, email_verified, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Phone, nullString(r.Email), nullString(r.WebhookURL), r.AlertsEnabled,
		nullFloat(r.Latitude), nullFloat(r.Longitude), r.PhoneVerified, r.EmailVerified, r.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("error inserting recipient: %w", err)
	}
	return nil
}

func (s *SQLiteDB) GetByID(ctx context.Context, id string) (*models.Recipient, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+recipientColumns+` FROM user_contacts WHERE id = ?`, id)
	return scanRecipient(row)
}

func (s *SQLiteDB) GetByPhone(ctx context.Context, phone string) (*models.Recipient, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+recipientColumns+` FROM user_contacts WHERE phone = ?`, phone)
	return scanRecipient(row)
}

func (s *SQLiteDB) GetByEmail(ctx context.Context, email string) (*models.Recipient, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+recipientColumns+` FROM user_contacts WHERE email = ?`, email)
	return scanRecipient(row)
}

func (s *SQLiteDB) Update(ctx context.Context, r *models.Recipient) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE user_contacts
		SET phone = ?, email = ?, webhook_url = ?, alert_enabled = ?,
		    latitude = ?, longitude = ?, phone_verified = ?, email_verified = ?
		WHERE id = ?`,
		r.Phone, nullString(r.Email), nullString(r.WebhookURL), r.AlertsEnabled,
		nullFloat(r.Latitude), nullFloat(r.Longitude), r.PhoneVerified, r.EmailVerified, r.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("error updating recipient: %w", err)
	}
	return requireRow(res)
}

func (s *SQLiteDB) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM user_contacts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("error deleting recipient: %w", err)
	}
	return requireRow(res)
}

func (s *SQLiteDB) SetAlertsEnabled(ctx context.Context, id string, enabled bool) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE user_contacts SET alert_enabled = ? WHERE id = ?`, enabled, id)
	if err != nil {
		return fmt.Errorf("error toggling alerts: %w", err)
	}
	return requireRow(res)
}

func (s *SQLiteDB) ListAlertEligible(ctx context.Context) ([]models.Recipient, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+recipientColumns+`
		FROM user_contacts
		WHERE alert_enabled = 1
		  AND latitude IS NOT NULL AND longitude IS NOT NULL
		  AND (phone_verified = 1 OR (email IS NOT NULL AND email_verified = 1))
		ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("error listing eligible recipients: %w", err)
	}
	defer rows.Close()

	var recipients []models.Recipient
	for rows.Next() {
		r, err := scanRecipientRow(rows)
		if err != nil {
			return nil, err
		}
		recipients = append(recipients, *r)
	}
	return recipients, rows.Err()
}

func (s *SQLiteDB) SetVerificationCode(ctx context.Context, id string, ch ContactChannel, code string, expires time.Time) error {
	query := `UPDATE user_contacts SET phone_verification_code = ?, phone_verification_expires = ? WHERE id = ?`
	if ch == ContactEmail {
		query = `UPDATE user_contacts SET email_verification_code = ?, email_verification_expires = ? WHERE id = ?`
	}

	res, err := s.db.ExecContext(ctx, query, code, expires, id)
	if err != nil {
		return fmt.Errorf("error storing verification code: %w", err)
	}
	return requireRow(res)
}

func (s *SQLiteDB) GetVerificationCode(ctx context.Context, id string, ch ContactChannel) (string, time.Time, error) {
	query := `SELECT phone_verification_code, phone_verification_expires FROM user_contacts WHERE id = ?`
	if ch == ContactEmail {
		query = `SELECT email_verification_code, email_verification_expires FROM user_contacts WHERE id = ?`
	}

	var code sql.NullString
	var expires sql.NullTime
	err := s.db.QueryRowContext(ctx, query, id).Scan(&code, &expires)
	if errors.Is(err, sql.ErrNoRows) {
		return "", time.Time{}, ErrNotFound
	}
	if err != nil {
		return "", time.Time{}, fmt.Errorf("error reading verification code: %w", err)
	}
	return code.String, expires.Time, nil
}

func (s *SQLiteDB) MarkVerified(ctx context.Context, id string, ch ContactChannel) error {
	query := `UPDATE user_contacts SET phone_verified = 1, phone_verification_code = NULL, phone_verification_expires = NULL WHERE id = ?`
	if ch == ContactEmail {
		query = `UPDATE user_contacts SET email_verified = 1, email_verification_code = NULL, email_verification_expires = NULL WHERE id = ?`
	}

	res, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("error marking %s verified: %w", ch, err)
	}
	return requireRow(res)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecipient(row *sql.Row) (*models.Recipient, error) {
	r, err := scanRecipientRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return r, err
}

func scanRecipientRow(row rowScanner) (*models.Recipient, error) {
	var r models.Recipient
	var email, webhook sql.NullString
	var lat, lng sql.NullFloat64

	err := row.Scan(&r.ID, &r.Phone, &email, &webhook, &r.AlertsEnabled,
		&lat, &lng, &r.PhoneVerified, &r.EmailVerified, &r.CreatedAt)
	if err != nil {
		return nil, err
	}

	r.Email = email.String
	r.WebhookURL = webhook.String
	if lat.Valid {
		r.Latitude = &lat.Float64
	}
	if lng.Valid {
		r.Longitude = &lng.Float64
	}
	return &r, nil
}

// nullString maps empty strings to NULL so UNIQUE(email) ignores
// recipients without one.
func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullFloat(f *float64) any {
	if f == nil {
		return nil
	}
	return *f
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
