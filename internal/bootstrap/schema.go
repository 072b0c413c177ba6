package bootstrap

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/fieldgrid/backend/internal/application/services"
	"github.com/fieldgrid/backend/internal/infrastructure/database"
	"github.com/fieldgrid/backend/pkg/constants"
)

// InitializeSchema creates every table and view the server depends on.
// All statements are idempotent, so restarting against an existing
// database is a no-op.
func InitializeSchema(db *database.TiDBConnection) error {
	log.Println("🔧 Initializing schema...")

	for _, stmt := range schemaStatements() {
		if _, err := db.DB().ExecContext(context.Background(), stmt); err != nil {
			return fmt.Errorf("schema statement failed: %w", err)
		}
	}

	log.Println("✅ Schema ready")
	return nil
}

func schemaStatements() []string {
	return []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id VARCHAR(36) PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			email VARCHAR(255) NOT NULL,
			password VARCHAR(255) NOT NULL,
			is_admin BOOLEAN NOT NULL DEFAULT FALSE,
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
			UNIQUE KEY uk_users_email (email)
		)`, constants.TableUser),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id VARCHAR(36) PRIMARY KEY,
			user_id VARCHAR(36) NOT NULL,
			token TEXT NOT NULL,
			expires_at DATETIME NOT NULL,
			ip_address VARCHAR(45),
			user_agent VARCHAR(512),
			is_revoked BOOLEAN NOT NULL DEFAULT FALSE,
			last_activity DATETIME,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			KEY idx_sessions_user (user_id)
		)`, constants.TableSession),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id VARCHAR(36) PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			description TEXT,
			owner_id VARCHAR(36) NOT NULL,
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			settings JSON,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
			KEY idx_sheets_owner (owner_id)
		)`, constants.TableSheet),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id VARCHAR(36) PRIMARY KEY,
			sheet_id VARCHAR(36) NOT NULL,
			name VARCHAR(255) NOT NULL,
			type VARCHAR(32) NOT NULL,
			position INT NOT NULL DEFAULT 0,
			width INT NOT NULL DEFAULT %d,
			is_required BOOLEAN NOT NULL DEFAULT FALSE,
			is_unique BOOLEAN NOT NULL DEFAULT FALSE,
			default_value TEXT,
			validation_rules JSON,
			format_options JSON,
			KEY idx_columns_sheet (sheet_id)
		)`, constants.TableColumn, constants.DefaultColumnWidth),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id VARCHAR(36) PRIMARY KEY,
			sheet_id VARCHAR(36) NOT NULL,
			position INT NOT NULL DEFAULT 0,
			is_deleted BOOLEAN NOT NULL DEFAULT FALSE,
			deleted_at DATETIME,
			metadata JSON,
			KEY idx_rows_sheet (sheet_id, is_deleted)
		)`, constants.TableRow),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id VARCHAR(36) PRIMARY KEY,
			row_id VARCHAR(36) NOT NULL,
			column_id VARCHAR(36) NOT NULL,
			value TEXT,
			formatted_value TEXT,
			validation_status VARCHAR(16) NOT NULL DEFAULT 'valid',
			validation_message TEXT,
			version INT NOT NULL DEFAULT 1,
			UNIQUE KEY uk_cells_row_column (row_id, column_id),
			KEY idx_cells_column (column_id)
		)`, constants.TableCell),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id VARCHAR(36) PRIMARY KEY,
			sheet_id VARCHAR(36) NOT NULL,
			access_key VARCHAR(64) NOT NULL,
			created_by VARCHAR(36) NOT NULL,
			can_view BOOLEAN NOT NULL DEFAULT TRUE,
			can_edit BOOLEAN NOT NULL DEFAULT FALSE,
			can_download BOOLEAN NOT NULL DEFAULT FALSE,
			expires_at DATETIME,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			UNIQUE KEY uk_links_access_key (access_key),
			KEY idx_links_sheet (sheet_id)
		)`, constants.TableSheetLink),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id VARCHAR(36) PRIMARY KEY,
			sheet_id VARCHAR(36) NOT NULL,
			actor_id VARCHAR(36) NOT NULL,
			action VARCHAR(64) NOT NULL,
			details TEXT,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			KEY idx_history_sheet (sheet_id, created_at)
		)`, constants.TableSheetHistory),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id VARCHAR(36) PRIMARY KEY,
			sheet_id VARCHAR(36) NOT NULL,
			user_id VARCHAR(36) NOT NULL,
			permission_level VARCHAR(16) NOT NULL,
			granted_by VARCHAR(36) NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			UNIQUE KEY uk_sheet_grants (sheet_id, user_id)
		)`, constants.TableSheetGrant),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id VARCHAR(36) PRIMARY KEY,
			folder_id VARCHAR(36) NOT NULL,
			user_id VARCHAR(36) NOT NULL,
			can_view BOOLEAN NOT NULL DEFAULT FALSE,
			can_edit BOOLEAN NOT NULL DEFAULT FALSE,
			can_delete BOOLEAN NOT NULL DEFAULT FALSE,
			granted_by VARCHAR(36) NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			UNIQUE KEY uk_folder_grants (folder_id, user_id)
		)`, constants.TableFolderGrant),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id VARCHAR(36) PRIMARY KEY,
			tracker_id VARCHAR(36) NOT NULL,
			user_id VARCHAR(36) NOT NULL,
			can_view BOOLEAN NOT NULL DEFAULT FALSE,
			can_edit BOOLEAN NOT NULL DEFAULT FALSE,
			can_delete BOOLEAN NOT NULL DEFAULT FALSE,
			can_manage BOOLEAN NOT NULL DEFAULT FALSE,
			granted_by VARCHAR(36) NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			UNIQUE KEY uk_tracker_grants (tracker_id, user_id)
		)`, constants.TableTrackerGrant),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id VARCHAR(36) PRIMARY KEY,
			tracker_id VARCHAR(36) NOT NULL,
			user_id VARCHAR(36) NOT NULL,
			can_view BOOLEAN NOT NULL DEFAULT FALSE,
			can_edit BOOLEAN NOT NULL DEFAULT FALSE,
			can_delete BOOLEAN NOT NULL DEFAULT FALSE,
			can_manage BOOLEAN NOT NULL DEFAULT FALSE,
			granted_by VARCHAR(36) NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			UNIQUE KEY uk_settlement_grants (tracker_id, user_id)
		)`, constants.TableSettlementGrant),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id VARCHAR(36) PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			category VARCHAR(128),
			unit VARCHAR(32),
			quantity DOUBLE NOT NULL DEFAULT 0,
			location VARCHAR(255),
			notes TEXT,
			created_by VARCHAR(36) NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
			KEY idx_material_category (category)
		)`, constants.TableMaterialItem),

		fmt.Sprintf(`CREATE OR REPLACE VIEW %s AS
			SELECT s.id AS sheet_id,
				(SELECT COUNT(*) FROM %s r WHERE r.sheet_id = s.id AND r.is_deleted = 0) AS row_count,
				(SELECT COUNT(*) FROM %s c WHERE c.sheet_id = s.id) AS column_count,
				(SELECT COUNT(*) FROM %s ce JOIN %s r2 ON r2.id = ce.row_id
					WHERE r2.sheet_id = s.id AND r2.is_deleted = 0) AS cell_count
			FROM %s s`,
			constants.ViewSheetStats, constants.TableRow, constants.TableColumn,
			constants.TableCell, constants.TableRow, constants.TableSheet),
	}
}

// SeedAdminUser creates the initial administrator account when no users
// exist. Controlled by ADMIN_EMAIL and ADMIN_PASSWORD; skipped when
// ADMIN_PASSWORD is unset.
func SeedAdminUser(authSvc *services.AuthService) error {
	password := os.Getenv("ADMIN_PASSWORD")
	if password == "" {
		log.Println("ℹ️ ADMIN_PASSWORD not set, skipping admin seed")
		return nil
	}

	email := os.Getenv("ADMIN_EMAIL")
	if email == "" {
		email = "admin@fieldgrid.local"
	}

	users, err := authSvc.GetUsers(context.Background())
	if err != nil {
		return fmt.Errorf("failed to check existing users: %w", err)
	}
	if len(users) > 0 {
		return nil
	}

	if _, err := authSvc.CreateUser(context.Background(), services.CreateUserRequest{
		Name:     "Administrator",
		Email:    email,
		Password: password,
		IsAdmin:  true,
	}); err != nil {
		return fmt.Errorf("failed to seed admin user: %w", err)
	}

	log.Printf("👤 Seeded admin user %s", email)
	return nil
}
