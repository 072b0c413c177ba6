package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/fieldgrid/backend/internal/application/services"
	"github.com/fieldgrid/backend/internal/bootstrap"
	"github.com/fieldgrid/backend/internal/infrastructure/database"
	"github.com/fieldgrid/backend/internal/interfaces/middleware"
	"github.com/fieldgrid/backend/internal/interfaces/rest"
	"github.com/fieldgrid/backend/pkg/constants"
)

func main() {
	// Load .env if present
	for _, p := range []string{".env", "../.env"} {
		if err := godotenv.Load(p); err == nil {
			log.Printf("Loaded .env from %s", p)
			break
		}
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = constants.DefaultPort
	}

	// Initialize database connection
	db, err := database.GetInstance()
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	log.Println("✅ Database connection established")

	// Create tables and views; idempotent on restart
	if err := bootstrap.InitializeSchema(db); err != nil {
		log.Fatalf("Failed to initialize schema: %v", err)
	}

	// Initialize service manager
	svcMgr := services.NewServiceManager(db)
	log.Println("🔧 Service manager initialized")

	if err := bootstrap.SeedAdminUser(svcMgr.Auth); err != nil {
		log.Printf("⚠️  Warning: %v", err)
	}

	// Create Gin router
	router := gin.Default()

	// CORS middleware - Allow credentials from any origin
	router.Use(middleware.Cors())

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status": "ok",
			"server": "golang",
		})
	})

	// Initialize handlers
	authHandler := rest.NewAuthHandler(svcMgr)
	sheetHandler := rest.NewSheetHandler(svcMgr)
	columnHandler := rest.NewColumnHandler(svcMgr)
	rowHandler := rest.NewRowHandler(svcMgr)
	cellHandler := rest.NewCellHandler(svcMgr)
	permissionHandler := rest.NewPermissionHandler(svcMgr)
	materialHandler := rest.NewMaterialHandler(svcMgr)
	adminHandler := rest.NewAdminHandler(svcMgr)

	// Initialize middleware
	requireAuth := middleware.RequireAuth(svcMgr.Auth)
	requireAdmin := middleware.RequireAdmin()

	// API routes
	api := router.Group("/api")
	{
		// Public Auth routes (no authentication required)
		auth := api.Group("/auth")
		{
			auth.POST("/login", authHandler.Login)
			auth.POST("/logout", requireAuth, authHandler.Logout)
			auth.GET("/me", requireAuth, authHandler.GetMe)
			auth.POST("/register", requireAuth, requireAdmin, authHandler.Register)
			auth.GET("/users", requireAuth, authHandler.GetUsers)
		}

		// Public link resolution - the access key is the credential
		api.GET("/public/:accessKey", sheetHandler.ResolvePublicLink)

		// Protected Sheet routes
		sheets := api.Group("/sheets")
		sheets.Use(requireAuth)
		{
			sheets.GET("", sheetHandler.ListSheets)
			sheets.POST("", sheetHandler.CreateSheet)
			sheets.GET("/:id", sheetHandler.GetSheet)
			sheets.PUT("/:id", sheetHandler.UpdateSheet)
			sheets.DELETE("/:id", sheetHandler.DeleteSheet)
			sheets.GET("/:id/stats", sheetHandler.GetStats)
			sheets.GET("/:id/history", sheetHandler.GetHistory)

			sheets.GET("/:id/columns", columnHandler.ListColumns)
			sheets.POST("/:id/columns", columnHandler.AddColumn)
			sheets.PUT("/:id/columns", columnHandler.UpdateColumns)

			sheets.GET("/:id/rows", rowHandler.ListRows)
			sheets.POST("/:id/rows", rowHandler.AddRow)
			sheets.DELETE("/:id/rows/:rowId", rowHandler.DeleteRow)
			sheets.POST("/:id/search", rowHandler.SearchRows)

			sheets.PUT("/:id/cells", cellHandler.UpdateCell)
			sheets.POST("/:id/cells/bulk", cellHandler.BulkUpdateCells)

			sheets.GET("/:id/links", sheetHandler.ListLinks)
			sheets.POST("/:id/links", sheetHandler.CreateLink)
			sheets.DELETE("/:id/links/:linkId", sheetHandler.DeleteLink)
		}

		// Protected Permission routes
		permissions := api.Group("/permissions")
		permissions.Use(requireAuth)
		{
			permissions.GET("/:family/:resourceId", permissionHandler.ListGrants)
			permissions.POST("/:family/:resourceId", permissionHandler.CreateGrant)
			permissions.PUT("/:family/grants/:grantId", permissionHandler.UpdateGrant)
			permissions.DELETE("/:family/grants/:grantId", permissionHandler.DeleteGrant)
		}

		// Protected Material routes
		material := api.Group("/material")
		material.Use(requireAuth)
		{
			material.GET("/items", materialHandler.ListItems)
			material.POST("/items", materialHandler.CreateItem)
			material.GET("/items/:itemId", materialHandler.GetItem)
			material.PUT("/items/:itemId", materialHandler.UpdateItem)
			material.DELETE("/items/:itemId", materialHandler.DeleteItem)
		}

		// Admin routes (administrators only)
		admin := api.Group("/admin")
		admin.Use(requireAuth, requireAdmin)
		{
			admin.POST("/purge-rows", adminHandler.PurgeRows)
		}
	}

	// Start the soft-delete reaper
	go svcMgr.Reaper.Start()
	log.Println("🧹 Row reaper started")

	log.Println("🚀 FieldGrid backend started")
	log.Printf("📍 Server:       http://localhost:%s", port)
	log.Printf("🔐 Auth API:     http://localhost:%s/api/auth", port)
	log.Printf("📋 Sheets API:   http://localhost:%s/api/sheets", port)
	log.Printf("💚 Health check: http://localhost:%s/health", port)

	// Create HTTP Server
	srv := &http.Server{
		Addr:    "0.0.0.0:" + port,
		Handler: router,
	}

	// Start server in a goroutine
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	svcMgr.Reaper.Stop()
	log.Println("🛑 Row reaper stopped")

	// Give in-flight requests 5 seconds to finish
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown: ", err)
	}

	log.Println("Server exiting")
}
