package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/hifisync/internal/shared"
)

// Session is a persisted service login, one row per service name.
type Session struct {
	Service      string
	TokenType    string
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
	UserID       int
	CountryCode  string
}

// SessionRepository stores service logins so both services resume without
// re-authenticating on every run.
type SessionRepository struct {
	db *sql.DB
}

// NewSessionRepository creates a SessionRepository with the given database connection
func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Save upserts the session row for its service.
func (r *SessionRepository) Save(session Session) error {
	if session.Service == "" {
		return fmt.Errorf("%w: session missing service", shared.ErrInvalidInput)
	}
	if session.AccessToken == "" {
		return fmt.Errorf("%w: session missing access token", shared.ErrInvalidInput)
	}
	if session.TokenType == "" {
		session.TokenType = "Bearer"
	}

	query := `
		INSERT INTO sessions (service, token_type, access_token, refresh_token, expires_at, user_id, country_code, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(service) DO UPDATE SET
			token_type = excluded.token_type,
			access_token = excluded.access_token,
			refresh_token = excluded.refresh_token,
			expires_at = excluded.expires_at,
			user_id = excluded.user_id,
			country_code = excluded.country_code,
			updated_at = excluded.updated_at
	`

	_, err := r.db.Exec(query,
		session.Service,
		session.TokenType,
		session.AccessToken,
		session.RefreshToken,
		session.ExpiresAt,
		session.UserID,
		session.CountryCode,
		time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	return nil
}

// Get retrieves the stored session for a service, or
// [shared.ErrSessionExpired] when none is stored.
func (r *SessionRepository) Get(service string) (*Session, error) {
	query := `
		SELECT service, token_type, access_token, refresh_token, expires_at, user_id, country_code
		FROM sessions
		WHERE service = ?
	`

	var session Session
	var expiresAt sql.NullTime
	err := r.db.QueryRow(query, service).Scan(
		&session.Service,
		&session.TokenType,
		&session.AccessToken,
		&session.RefreshToken,
		&expiresAt,
		&session.UserID,
		&session.CountryCode,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: no stored session for %s", shared.ErrSessionExpired, service)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	if expiresAt.Valid {
		session.ExpiresAt = expiresAt.Time
	}

	return &session, nil
}

// Delete removes the stored session for a service. Removing an absent session
// is not an error.
func (r *SessionRepository) Delete(service string) error {
	if _, err := r.db.Exec("DELETE FROM sessions WHERE service = ?", service); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}
