package services

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/fieldgrid/backend/internal/domain/models"
	"github.com/fieldgrid/backend/internal/infrastructure/persistence"
	"github.com/fieldgrid/backend/pkg/constants"
	"github.com/fieldgrid/backend/pkg/errors"
	"github.com/fieldgrid/backend/pkg/utils"
)

// SheetService owns sheet lifecycle: creation with the default column
// set, stats, public links, and the audit trail.
type SheetService struct {
	tx      *persistence.TransactionManager
	sheets  *persistence.SheetRepository
	columns *persistence.ColumnRepository
	history *persistence.HistoryRepository
	rowSvc  *RowService
}

// NewSheetService creates a new SheetService
func NewSheetService(tx *persistence.TransactionManager, sheets *persistence.SheetRepository,
	columns *persistence.ColumnRepository, history *persistence.HistoryRepository,
	rowSvc *RowService) *SheetService {
	return &SheetService{tx: tx, sheets: sheets, columns: columns, history: history, rowSvc: rowSvc}
}

// CreateSheet creates a sheet, provisions the default column set at
// positions 0..8, and adds one empty row. There is deliberately no
// rollback of the sheet if later steps fail: the caller detects a sheet
// with zero columns and handles it.
func (s *SheetService) CreateSheet(ctx context.Context, name, description, ownerID string, settings json.RawMessage) (*models.Sheet, error) {
	if name == "" {
		return nil, errors.NewValidationError("name", "is required")
	}

	sheet := &models.Sheet{
		ID:       utils.GenerateID(),
		Name:     name,
		OwnerID:  ownerID,
		IsActive: true,
		Settings: settings,
	}
	if description != "" {
		sheet.Description = &description
	}

	if err := s.sheets.Insert(ctx, sheet); err != nil {
		return nil, err
	}

	for position, def := range constants.DefaultSheetColumns {
		col := &models.Column{
			ID:       utils.GenerateID(),
			SheetID:  sheet.ID,
			Name:     def.Name,
			Type:     def.Type,
			Position: position,
			Width:    constants.DefaultColumnWidth,
		}
		if len(def.Options) > 0 {
			rules, err := json.Marshal(models.ValidationRules{Options: def.Options})
			if err != nil {
				return nil, fmt.Errorf("failed to encode column options: %w", err)
			}
			col.ValidationRules = rules
		}
		if err := s.columns.Insert(ctx, nil, col); err != nil {
			return nil, fmt.Errorf("failed to provision default column %q: %w", def.Name, err)
		}
	}

	if _, err := s.rowSvc.AddRow(ctx, sheet.ID, ownerID); err != nil {
		return nil, fmt.Errorf("failed to create initial row: %w", err)
	}

	s.logHistory(ctx, sheet.ID, ownerID, constants.HistorySheetCreated,
		fmt.Sprintf("created sheet %q with %d default columns", name, len(constants.DefaultSheetColumns)))

	return sheet, nil
}

// GetSheet retrieves a sheet, failing with NotFound when absent
func (s *SheetService) GetSheet(ctx context.Context, sheetID string) (*models.Sheet, error) {
	sheet, err := s.sheets.GetByID(ctx, sheetID)
	if err != nil {
		return nil, err
	}
	if sheet == nil {
		return nil, errors.NewNotFoundError("Sheet", sheetID)
	}
	return sheet, nil
}

// ListSheets retrieves sheets the user owns or has a grant on
func (s *SheetService) ListSheets(ctx context.Context, userID string) ([]*models.Sheet, error) {
	return s.sheets.ListForUser(ctx, userID)
}

// UpdateSheet renames a sheet and replaces description/settings
func (s *SheetService) UpdateSheet(ctx context.Context, sheetID, name, description string, settings json.RawMessage, actorID string) (*models.Sheet, error) {
	sheet, err := s.GetSheet(ctx, sheetID)
	if err != nil {
		return nil, err
	}

	if name != "" {
		sheet.Name = name
	}
	if description != "" {
		sheet.Description = &description
	}
	if len(settings) > 0 {
		sheet.Settings = settings
	}

	if err := s.sheets.Update(ctx, sheet); err != nil {
		return nil, err
	}

	s.logHistory(ctx, sheetID, actorID, constants.HistorySheetUpdated,
		fmt.Sprintf("updated sheet %q", sheet.Name))

	return sheet, nil
}

// DeleteSheet removes a sheet and all dependents in one transaction
func (s *SheetService) DeleteSheet(ctx context.Context, sheetID string) error {
	if _, err := s.GetSheet(ctx, sheetID); err != nil {
		return err
	}
	return s.tx.WithTransaction(func(tx *sql.Tx) error {
		return s.sheets.Delete(ctx, tx, sheetID)
	})
}

// GetStats reads the precomputed stats view; nil means no stats row
// exists yet (nothing is synthesized).
func (s *SheetService) GetStats(ctx context.Context, sheetID string) (*models.SheetStats, error) {
	return s.sheets.GetStats(ctx, sheetID)
}

// GetHistory retrieves the sheet's audit trail
func (s *SheetService) GetHistory(ctx context.Context, sheetID string, limit int) ([]*models.HistoryEntry, error) {
	return s.history.ListBySheet(ctx, sheetID, limit)
}

// LinkPermissions is the permission triple carried by a public link.
type LinkPermissions struct {
	CanView     bool `json:"can_view"`
	CanEdit     bool `json:"can_edit"`
	CanDownload bool `json:"can_download"`
}

// CreatePublicLink generates an opaque access key and stores a link
// record. The key is a timestamp plus a random suffix; it is an
// unguessable handle, not a cryptographic credential.
func (s *SheetService) CreatePublicLink(ctx context.Context, sheetID, ownerID string, perms LinkPermissions, expiresAt *time.Time) (*models.SheetLink, error) {
	if _, err := s.GetSheet(ctx, sheetID); err != nil {
		return nil, err
	}

	link := &models.SheetLink{
		ID:          utils.GenerateID(),
		SheetID:     sheetID,
		AccessKey:   generateAccessKey(),
		CreatedBy:   ownerID,
		CanView:     perms.CanView,
		CanEdit:     perms.CanEdit,
		CanDownload: perms.CanDownload,
		ExpiresAt:   expiresAt,
	}

	if err := s.sheets.InsertLink(ctx, link); err != nil {
		return nil, err
	}

	s.logHistory(ctx, sheetID, ownerID, constants.HistoryLinkCreated,
		fmt.Sprintf("created public link %s", link.AccessKey))

	return link, nil
}

// ResolvePublicLink looks up a link by access key, failing with NotFound
// when the key is unknown or the link has expired.
func (s *SheetService) ResolvePublicLink(ctx context.Context, accessKey string) (*models.SheetLink, error) {
	link, err := s.sheets.GetLinkByKey(ctx, accessKey)
	if err != nil {
		return nil, err
	}
	if link == nil {
		return nil, errors.NewNotFoundError("Public link", accessKey)
	}
	if link.ExpiresAt != nil && time.Now().After(*link.ExpiresAt) {
		return nil, errors.NewNotFoundError("Public link", accessKey)
	}
	return link, nil
}

// ListPublicLinks retrieves a sheet's links
func (s *SheetService) ListPublicLinks(ctx context.Context, sheetID string) ([]*models.SheetLink, error) {
	return s.sheets.ListLinks(ctx, sheetID)
}

// DeletePublicLink removes a link
func (s *SheetService) DeletePublicLink(ctx context.Context, linkID string) error {
	return s.sheets.DeleteLink(ctx, linkID)
}

func generateAccessKey() string {
	suffix := make([]byte, 8)
	if _, err := rand.Read(suffix); err != nil {
		// Fall back on the id generator; the key only needs uniqueness
		return fmt.Sprintf("%d-%s", time.Now().UnixMilli(), utils.GenerateID()[:16])
	}
	return fmt.Sprintf("%d-%s", time.Now().UnixMilli(), hex.EncodeToString(suffix))
}

func (s *SheetService) logHistory(ctx context.Context, sheetID, actorID, action, details string) {
	entry := &models.HistoryEntry{
		ID:      utils.GenerateID(),
		SheetID: sheetID,
		ActorID: actorID,
		Action:  action,
		Details: details,
	}
	if err := s.history.Insert(ctx, entry); err != nil {
		log.Printf("⚠️ Failed to log sheet history (%s): %v", action, err)
	}
}
