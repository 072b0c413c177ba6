package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/fieldgrid/backend/internal/domain/models"
	"github.com/fieldgrid/backend/pkg/constants"
)

// SessionRepository handles database operations for login sessions.
type SessionRepository struct {
	db *sql.DB
}

// NewSessionRepository creates a new SessionRepository
func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Insert persists a session
func (r *SessionRepository) Insert(ctx context.Context, session *models.Session) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s, %s, %s, %s, %s, %s)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, constants.TableSession,
		constants.FieldID, constants.FieldUserID, constants.FieldToken,
		constants.FieldExpiresAt, constants.FieldIPAddress, constants.FieldUserAgent,
		constants.FieldIsRevoked, constants.FieldLastActivity)

	_, err := r.db.ExecContext(ctx, query,
		session.ID, session.UserID, session.Token, session.ExpiresAt,
		session.IPAddress, session.UserAgent, session.IsRevoked, session.LastActivity)
	if err != nil {
		return fmt.Errorf("failed to insert session: %w", err)
	}
	return nil
}

// GetByID retrieves a session by its id (the JWT jti). Returns nil, nil
// when absent.
func (r *SessionRepository) GetByID(ctx context.Context, id string) (*models.Session, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s WHERE %s = ? LIMIT 1
	`, sessionColumns(), constants.TableSession, constants.FieldID)

	var session models.Session
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&session.ID, &session.UserID, &session.Token, &session.ExpiresAt,
		&session.IPAddress, &session.UserAgent, &session.IsRevoked, &session.LastActivity)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	return &session, nil
}

// Revoke marks a session revoked
func (r *SessionRepository) Revoke(ctx context.Context, id string) error {
	query := fmt.Sprintf("UPDATE %s SET %s = 1 WHERE %s = ?",
		constants.TableSession, constants.FieldIsRevoked, constants.FieldID)

	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("failed to revoke session: %w", err)
	}
	return nil
}

// Touch updates the session's last activity timestamp
func (r *SessionRepository) Touch(ctx context.Context, id string) error {
	query := fmt.Sprintf("UPDATE %s SET %s = CURRENT_TIMESTAMP WHERE %s = ?",
		constants.TableSession, constants.FieldLastActivity, constants.FieldID)

	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("failed to touch session: %w", err)
	}
	return nil
}

func sessionColumns() string {
	return strings.Join([]string{
		constants.FieldID, constants.FieldUserID, constants.FieldToken,
		constants.FieldExpiresAt, constants.FieldIPAddress, constants.FieldUserAgent,
		constants.FieldIsRevoked, constants.FieldLastActivity,
	}, ", ")
}
