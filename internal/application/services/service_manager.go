package services

import (
	"github.com/fieldgrid/backend/internal/infrastructure/database"
	"github.com/fieldgrid/backend/internal/infrastructure/persistence"
)

// ServiceManager orchestrates all services with dependency injection
type ServiceManager struct {
	db *database.TiDBConnection

	TxManager   *persistence.TransactionManager
	Auth        *AuthService
	Sheets      *SheetService
	Columns     *ColumnService
	Rows        *RowService
	Cells       *CellService
	Search      *SearchService
	Permissions *PermissionService
	Material    *MaterialService
	Reaper      *ReaperService
}

// NewServiceManager creates a new service manager with all dependencies wired
func NewServiceManager(db *database.TiDBConnection) *ServiceManager {
	sqlDB := db.DB()

	txManager := persistence.NewTransactionManager(sqlDB)

	sheetRepo := persistence.NewSheetRepository(sqlDB)
	columnRepo := persistence.NewColumnRepository(sqlDB)
	rowRepo := persistence.NewRowRepository(sqlDB)
	cellRepo := persistence.NewCellRepository(sqlDB)
	queryRepo := persistence.NewQueryRepository(sqlDB)
	grantRepo := persistence.NewGrantRepository(sqlDB)
	userRepo := persistence.NewUserRepository(sqlDB)
	sessionRepo := persistence.NewSessionRepository(sqlDB)
	historyRepo := persistence.NewHistoryRepository(sqlDB)
	materialRepo := persistence.NewMaterialRepository(sqlDB)

	sm := &ServiceManager{
		db:        db,
		TxManager: txManager,
	}

	sm.Auth = NewAuthService(userRepo, sessionRepo)
	sm.Rows = NewRowService(txManager, sheetRepo, columnRepo, rowRepo, cellRepo, historyRepo)
	sm.Columns = NewColumnService(txManager, sheetRepo, columnRepo, historyRepo)
	sm.Sheets = NewSheetService(txManager, sheetRepo, columnRepo, historyRepo, sm.Rows)
	sm.Cells = NewCellService(txManager, columnRepo, rowRepo, cellRepo)
	sm.Search = NewSearchService(sheetRepo, queryRepo)
	sm.Permissions = NewPermissionService(grantRepo, userRepo)
	sm.Material = NewMaterialService(materialRepo)
	sm.Reaper = NewReaperService(txManager, rowRepo)

	return sm
}
