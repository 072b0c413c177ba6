package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/fieldgrid/backend/internal/domain/models"
	"github.com/fieldgrid/backend/pkg/constants"
	"github.com/fieldgrid/backend/pkg/errors"
	"github.com/fieldgrid/backend/pkg/utils"
)

// GrantRepository handles database operations for permission grants. It is
// implemented once and parameterized by a GrantFamily descriptor, so every
// resource family (sheets, folders, trackers, settlement) shares this code
// instead of repeating it.
type GrantRepository struct {
	db *sql.DB
}

// NewGrantRepository creates a new GrantRepository
func NewGrantRepository(db *sql.DB) *GrantRepository {
	return &GrantRepository{db: db}
}

// Exists checks whether a grant already exists for (resource, subject)
func (r *GrantRepository) Exists(ctx context.Context, fam *models.GrantFamily, resourceID, userID string) (bool, error) {
	query := fmt.Sprintf("SELECT EXISTS(SELECT 1 FROM %s WHERE %s = ? AND %s = ?)",
		fam.Table, fam.ResourceFK, constants.FieldUserID)

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, resourceID, userID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check existing grant: %w", err)
	}
	return exists, nil
}

// Insert creates a grant record shaped per the family descriptor
func (r *GrantRepository) Insert(ctx context.Context, fam *models.GrantFamily, grant *models.Grant) error {
	cols := []string{constants.FieldID, fam.ResourceFK, constants.FieldUserID, constants.FieldGrantedBy}
	args := []interface{}{grant.ID, grant.ResourceID, grant.UserID, grant.GrantedBy}

	switch fam.Shape {
	case models.ShapeLevel:
		cols = append(cols, constants.FieldPermissionLevel)
		args = append(args, grant.Level)
	case models.ShapeFlags:
		for _, flag := range fam.Flags {
			cols = append(cols, flag)
			args = append(args, grant.Flags[flag])
		}
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		fam.Table, strings.Join(cols, ", "), placeholders(len(cols)))

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to insert %s grant: %w", fam.Name, err)
	}
	return nil
}

// Update changes a grant's level or flags in place. No history of the
// prior level is kept.
func (r *GrantRepository) Update(ctx context.Context, fam *models.GrantFamily, grantID string, level string, flags map[string]bool) error {
	var sets []string
	var args []interface{}

	switch fam.Shape {
	case models.ShapeLevel:
		sets = append(sets, constants.FieldPermissionLevel+" = ?")
		args = append(args, level)
	case models.ShapeFlags:
		for _, flag := range fam.Flags {
			if value, ok := flags[flag]; ok {
				sets = append(sets, flag+" = ?")
				args = append(args, value)
			}
		}
	}

	if len(sets) == 0 {
		return nil
	}

	query := fmt.Sprintf("UPDATE %s SET %s WHERE %s = ?",
		fam.Table, strings.Join(sets, ", "), constants.FieldID)
	args = append(args, grantID)

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update %s grant: %w", fam.Name, err)
	}
	affected, _ := result.RowsAffected()
	if affected == 0 {
		// Also zero when the values were already in place; re-read to
		// distinguish a missing grant from a no-op update.
		existing, getErr := r.GetByID(ctx, fam, grantID)
		if getErr != nil {
			return getErr
		}
		if existing == nil {
			return errorsNotFound(fam, grantID)
		}
	}
	return nil
}

// Delete removes a grant unconditionally
func (r *GrantRepository) Delete(ctx context.Context, fam *models.GrantFamily, grantID string) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE %s = ?", fam.Table, constants.FieldID)
	result, err := r.db.ExecContext(ctx, query, grantID)
	if err != nil {
		return fmt.Errorf("failed to delete %s grant: %w", fam.Name, err)
	}
	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errorsNotFound(fam, grantID)
	}
	return nil
}

// GetByID retrieves one grant. Returns nil, nil when absent.
func (r *GrantRepository) GetByID(ctx context.Context, fam *models.GrantFamily, grantID string) (*models.Grant, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s g
		JOIN %s u ON u.%s = g.%s
		WHERE g.%s = ? LIMIT 1
	`, grantColumns(fam), fam.Table,
		constants.TableUser, constants.FieldID, constants.FieldUserID,
		constants.FieldID)

	grant, err := scanGrant(fam, r.db.QueryRowContext(ctx, query, grantID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load %s grant: %w", fam.Name, err)
	}
	return grant, nil
}

// ListByResource retrieves all grants on one resource with the subject's
// name and email joined in.
func (r *GrantRepository) ListByResource(ctx context.Context, fam *models.GrantFamily, resourceID string) ([]*models.Grant, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s g
		JOIN %s u ON u.%s = g.%s
		WHERE g.%s = ?
		ORDER BY g.%s ASC
	`, grantColumns(fam), fam.Table,
		constants.TableUser, constants.FieldID, constants.FieldUserID,
		fam.ResourceFK, constants.FieldCreatedAt)

	rows, err := r.db.QueryContext(ctx, query, resourceID)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s grants: %w", fam.Name, err)
	}
	defer rows.Close()

	var grants []*models.Grant
	for rows.Next() {
		grant, err := scanGrant(fam, rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan %s grant: %w", fam.Name, err)
		}
		grants = append(grants, grant)
	}
	return grants, rows.Err()
}

func grantColumns(fam *models.GrantFamily) string {
	cols := []string{
		"g." + constants.FieldID,
		"g." + fam.ResourceFK,
		"g." + constants.FieldUserID,
		"u." + constants.FieldName,
		"u." + constants.FieldEmail,
		"g." + constants.FieldGrantedBy,
		"g." + constants.FieldCreatedAt,
	}
	switch fam.Shape {
	case models.ShapeLevel:
		cols = append(cols, "g."+constants.FieldPermissionLevel)
	case models.ShapeFlags:
		for _, flag := range fam.Flags {
			cols = append(cols, "g."+flag)
		}
	}
	return strings.Join(cols, ", ")
}

func scanGrant(fam *models.GrantFamily, s scanner) (*models.Grant, error) {
	grant := &models.Grant{}

	dest := []interface{}{
		&grant.ID, &grant.ResourceID, &grant.UserID,
		&grant.UserName, &grant.UserEmail, &grant.GrantedBy, &grant.CreatedAt,
	}

	// Flag columns are TINYINT; the driver hands back int64 or raw bytes
	// depending on the protocol, so scan loosely and convert.
	flagDest := make([]interface{}, len(fam.Flags))
	switch fam.Shape {
	case models.ShapeLevel:
		dest = append(dest, &grant.Level)
	case models.ShapeFlags:
		for i := range fam.Flags {
			dest = append(dest, &flagDest[i])
		}
	}

	if err := s.Scan(dest...); err != nil {
		return nil, err
	}

	if fam.Shape == models.ShapeFlags {
		grant.Flags = make(map[string]bool, len(fam.Flags))
		for i, flag := range fam.Flags {
			grant.Flags[flag] = utils.ToBool(flagDest[i])
		}
	}
	return grant, nil
}

func placeholders(n int) string {
	marks := make([]string, n)
	for i := range marks {
		marks[i] = "?"
	}
	return strings.Join(marks, ", ")
}

func errorsNotFound(fam *models.GrantFamily, id string) error {
	return errors.NewNotFoundError(fam.Name+" grant", id)
}
