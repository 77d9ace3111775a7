package main

import (
	"log"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"

	"github.com/arzan03/CloudVault/internal/config"
	"github.com/arzan03/CloudVault/internal/db"
	"github.com/arzan03/CloudVault/internal/handlers"
	"github.com/arzan03/CloudVault/internal/middleware"
	"github.com/arzan03/CloudVault/internal/services"
	"github.com/arzan03/CloudVault/internal/storage"
)

func main() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found or error loading it, using environment variables")
	}

	cfg := config.Load()

	// Connect to MongoDB and the object store
	database := db.Connect(cfg.MongoURI, cfg.MongoDB)
	db.EnsureIndexes(database)
	store := storage.New(cfg)

	// Services
	authService := services.NewAuthService(database, store, cfg)
	folderService := services.NewFolderService(database)
	fileService := services.NewFileService(database, store, folderService)
	bulkService := services.NewBulkService(fileService, folderService)
	shareService := services.NewShareService(database, store)
	trashService := services.NewTrashService(database, store)
	statsService := services.NewStatsService(database, cfg.StorageQuotaBytes, nil)

	// Handlers
	authHandler := handlers.NewAuthHandler(authService)
	folderHandler := handlers.NewFolderHandler(folderService, authService)
	fileHandler := handlers.NewFileHandler(fileService)
	bulkHandler := handlers.NewBulkHandler(bulkService)
	shareHandler := handlers.NewShareHandler(shareService, cfg.PublicBaseURL)
	trashHandler := handlers.NewTrashHandler(trashService)
	statsHandler := handlers.NewStatsHandler(statsService)
	searchHandler := handlers.NewSearchHandler(fileService, folderService)
	adminHandler := handlers.NewAdminHandler(database, store)

	app := fiber.New(fiber.Config{
		AppName:     "CloudVault",
		BodyLimit:   256 * 1024 * 1024,
		JSONEncoder: json.Marshal,
		JSONDecoder: json.Unmarshal,
	})

	// Middleware
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New())

	protected := middleware.Protected(cfg.JWTSecret, authService)

	// Public share access
	app.Get("/share/:token", shareHandler.Resolve)

	api := app.Group("/api/v1")

	// Auth routes
	auth := api.Group("/auth")
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)
	auth.Post("/logout", protected, authHandler.Logout)
	auth.Post("/refresh", protected, authHandler.Refresh)
	auth.Get("/me", protected, authHandler.Me)
	auth.Put("/account", protected, authHandler.UpdateAccount)
	auth.Delete("/account", protected, authHandler.DeleteAccount)

	// Folder routes
	folders := api.Group("/folders", protected)
	folders.Get("/", folderHandler.List)
	folders.Post("/", folderHandler.Create)
	folders.Get("/:id", folderHandler.Get)
	folders.Put("/:id", folderHandler.Update)
	folders.Delete("/:id", folderHandler.Delete)
	folders.Get("/:id/contents", folderHandler.Contents)
	folders.Get("/:id/stats", folderHandler.Stats)

	// File routes
	files := api.Group("/files", protected)
	files.Get("/", fileHandler.List)
	files.Post("/upload", fileHandler.Upload)
	files.Post("/download", fileHandler.DownloadMany)
	files.Get("/:id", fileHandler.Get)
	files.Put("/:id", fileHandler.Update)
	files.Delete("/:id", fileHandler.Delete)
	files.Get("/:id/download", fileHandler.Download)
	files.Get("/:id/stats", statsHandler.FileStats)

	// Bulk move/copy
	items := api.Group("/items", protected)
	items.Post("/move", bulkHandler.Move)
	items.Post("/copy", bulkHandler.Copy)

	// Share link routes
	links := api.Group("/links", protected)
	links.Get("/", shareHandler.List)
	links.Post("/", shareHandler.Create)
	links.Get("/shared-with-me", shareHandler.SharedWithMe)
	links.Get("/:id", shareHandler.Get)
	links.Put("/:id", shareHandler.Update)
	links.Delete("/:id", shareHandler.Delete)

	// Trash routes
	trash := api.Group("/trash", protected)
	trash.Get("/", trashHandler.Index)
	trash.Post("/restore", trashHandler.Restore)
	trash.Delete("/files/:id", trashHandler.PurgeFile)
	trash.Delete("/", trashHandler.Empty)

	// Stats and search
	api.Get("/stats/storage", protected, statsHandler.Storage)
	api.Get("/search", protected, searchHandler.Search)

	// Admin routes
	admin := api.Group("/admin", protected, middleware.AdminOnly)
	admin.Get("/users", adminHandler.ListUsers)
	admin.Get("/files", adminHandler.ListFiles)
	admin.Get("/users/:id", adminHandler.GetUser)
	admin.Delete("/files/:id", adminHandler.DeleteFile)

	log.Fatal(app.Listen(":" + cfg.Port))
}
