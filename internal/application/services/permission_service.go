package services

import (
	"context"
	"fmt"

	"github.com/fieldgrid/backend/internal/domain/models"
	"github.com/fieldgrid/backend/internal/infrastructure/persistence"
	"github.com/fieldgrid/backend/pkg/constants"
	"github.com/fieldgrid/backend/pkg/errors"
	"github.com/fieldgrid/backend/pkg/utils"
)

// grantFamilies enumerates every resource family the permission service
// manages. Adding a family is one descriptor here plus its table.
var grantFamilies = []*models.GrantFamily{
	{
		Name:       "sheets",
		Table:      constants.TableSheetGrant,
		ResourceFK: constants.FieldSheetID,
		Shape:      models.ShapeLevel,
		Levels:     constants.SheetLevels,
	},
	{
		Name:       "folders",
		Table:      constants.TableFolderGrant,
		ResourceFK: constants.FieldFolderID,
		Shape:      models.ShapeFlags,
		Flags:      []string{constants.FieldCanView, constants.FieldCanEdit, constants.FieldCanDelete},
	},
	{
		Name:       "trackers",
		Table:      constants.TableTrackerGrant,
		ResourceFK: constants.FieldTrackerID,
		Shape:      models.ShapeFlags,
		Flags:      []string{constants.FieldCanView, constants.FieldCanEdit, constants.FieldCanDelete, constants.FieldCanManage},
	},
	{
		Name:       "settlement",
		Table:      constants.TableSettlementGrant,
		ResourceFK: constants.FieldTrackerID,
		Shape:      models.ShapeFlags,
		Flags:      []string{constants.FieldCanView, constants.FieldCanEdit, constants.FieldCanDelete, constants.FieldCanManage},
	},
}

// PermissionService manages access grants across every resource family
// through one code path parameterized by family descriptors.
type PermissionService struct {
	grants   *persistence.GrantRepository
	users    *persistence.UserRepository
	families map[string]*models.GrantFamily
}

// NewPermissionService creates a new PermissionService
func NewPermissionService(grants *persistence.GrantRepository, users *persistence.UserRepository) *PermissionService {
	families := make(map[string]*models.GrantFamily, len(grantFamilies))
	for _, fam := range grantFamilies {
		families[fam.Name] = fam
	}
	return &PermissionService{grants: grants, users: users, families: families}
}

// Family resolves a family by route name
func (s *PermissionService) Family(name string) (*models.GrantFamily, error) {
	fam, ok := s.families[name]
	if !ok {
		return nil, errors.NewNotFoundError("Resource family", name)
	}
	return fam, nil
}

// GrantRequest carries one grant creation. Level applies to level-shaped
// families, Flags to flag-shaped ones.
type GrantRequest struct {
	Email string          `json:"email" binding:"required"`
	Level string          `json:"permission_level,omitempty"`
	Flags map[string]bool `json:"flags,omitempty"`
}

// Grant authorizes the user identified by email on one resource. The
// subject must already have an account; duplicate grants are rejected.
func (s *PermissionService) Grant(ctx context.Context, familyName, resourceID string, req GrantRequest, grantedBy string) (*models.Grant, error) {
	fam, err := s.Family(familyName)
	if err != nil {
		return nil, err
	}

	user, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	if user == nil {
		return nil, errors.NewNotFoundError("User", req.Email)
	}

	if err := s.validateShape(fam, req.Level, req.Flags); err != nil {
		return nil, err
	}

	exists, err := s.grants.Exists(ctx, fam, resourceID, user.ID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, errors.NewConflictError("Grant", "user", req.Email)
	}

	grant := &models.Grant{
		ID:         utils.GenerateID(),
		ResourceID: resourceID,
		UserID:     user.ID,
		UserName:   user.Name,
		UserEmail:  user.Email,
		Level:      req.Level,
		Flags:      req.Flags,
		GrantedBy:  grantedBy,
	}
	if err := s.grants.Insert(ctx, fam, grant); err != nil {
		return nil, err
	}
	return grant, nil
}

// UpdateGrant rewrites an existing grant's level or flags
func (s *PermissionService) UpdateGrant(ctx context.Context, familyName, grantID, level string, flags map[string]bool) (*models.Grant, error) {
	fam, err := s.Family(familyName)
	if err != nil {
		return nil, err
	}
	if err := s.validateShape(fam, level, flags); err != nil {
		return nil, err
	}
	if err := s.grants.Update(ctx, fam, grantID, level, flags); err != nil {
		return nil, err
	}
	return s.grants.GetByID(ctx, fam, grantID)
}

// Revoke removes a grant
func (s *PermissionService) Revoke(ctx context.Context, familyName, grantID string) error {
	fam, err := s.Family(familyName)
	if err != nil {
		return err
	}
	return s.grants.Delete(ctx, fam, grantID)
}

// ListGrants retrieves a resource's grants with subject name and email
func (s *PermissionService) ListGrants(ctx context.Context, familyName, resourceID string) ([]*models.Grant, error) {
	fam, err := s.Family(familyName)
	if err != nil {
		return nil, err
	}
	return s.grants.ListByResource(ctx, fam, resourceID)
}

// HasGrant reports whether the user holds any grant on the resource
func (s *PermissionService) HasGrant(ctx context.Context, familyName, resourceID, userID string) (bool, error) {
	fam, err := s.Family(familyName)
	if err != nil {
		return false, err
	}
	return s.grants.Exists(ctx, fam, resourceID, userID)
}

func (s *PermissionService) validateShape(fam *models.GrantFamily, level string, flags map[string]bool) error {
	switch fam.Shape {
	case models.ShapeLevel:
		if !fam.ValidLevel(level) {
			return errors.NewValidationError("permission_level",
				fmt.Sprintf("must be one of %v", fam.Levels))
		}
	case models.ShapeFlags:
		if len(flags) == 0 {
			return errors.NewValidationError("flags", "at least one flag is required")
		}
		for name := range flags {
			if !fam.ValidFlag(name) {
				return errors.NewValidationError("flags",
					fmt.Sprintf("unknown flag %q for %s", name, fam.Name))
			}
		}
	}
	return nil
}
