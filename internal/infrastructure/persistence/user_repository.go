package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/fieldgrid/backend/internal/domain/models"
	"github.com/fieldgrid/backend/pkg/constants"
)

// UserRepository handles database operations for user accounts.
type UserRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

// GetByEmail retrieves a user by email. Returns nil, nil when absent.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s WHERE %s = ? LIMIT 1
	`, userColumns(), constants.TableUser, constants.FieldEmail)

	user, err := scanUser(r.db.QueryRowContext(ctx, query, strings.ToLower(email)))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user by email: %w", err)
	}
	return user, nil
}

// GetByID retrieves a user by id. Returns nil, nil when absent.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s WHERE %s = ? LIMIT 1
	`, userColumns(), constants.TableUser, constants.FieldID)

	user, err := scanUser(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return user, nil
}

// CheckEmailExists reports whether any account uses the email
func (r *UserRepository) CheckEmailExists(ctx context.Context, email string) (bool, error) {
	query := fmt.Sprintf("SELECT EXISTS(SELECT 1 FROM %s WHERE %s = ?)",
		constants.TableUser, constants.FieldEmail)

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, strings.ToLower(email)).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check user email: %w", err)
	}
	return exists, nil
}

// Insert creates a user account
func (r *UserRepository) Insert(ctx context.Context, user *models.User) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s, %s, %s, %s)
		VALUES (?, ?, ?, ?, ?, ?)
	`, constants.TableUser,
		constants.FieldID, constants.FieldName, constants.FieldEmail,
		constants.FieldPassword, constants.FieldIsAdmin, constants.FieldIsActive)

	_, err := r.db.ExecContext(ctx, query,
		user.ID, user.Name, strings.ToLower(user.Email), user.Password, user.IsAdmin, user.IsActive)
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

// List retrieves all active users
func (r *UserRepository) List(ctx context.Context) ([]*models.User, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s WHERE %s = 1 ORDER BY %s ASC
	`, userColumns(), constants.TableUser, constants.FieldIsActive, constants.FieldName)

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

func userColumns() string {
	return strings.Join([]string{
		constants.FieldID, constants.FieldName, constants.FieldEmail,
		constants.FieldPassword, constants.FieldIsAdmin, constants.FieldIsActive,
		constants.FieldCreatedAt,
	}, ", ")
}

func scanUser(s scanner) (*models.User, error) {
	var user models.User
	var password sql.NullString

	err := s.Scan(&user.ID, &user.Name, &user.Email, &password,
		&user.IsAdmin, &user.IsActive, &user.CreatedAt)
	if err != nil {
		return nil, err
	}

	user.Password = password.String
	return &user, nil
}
