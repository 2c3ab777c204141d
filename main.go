package main

import (
	"context"
	"log"

	"quizadmin/config"
	"quizadmin/database"
	"quizadmin/handlers"
	"quizadmin/middleware"
	"quizadmin/routes"
	"quizadmin/services"
	"quizadmin/store"

	"github.com/gin-gonic/gin"
)

func main() {
	// Load configuration
	cfg := config.Load()
	logFile := config.SetupLogging(cfg)
	defer logFile.Close()

	// Initialize database
	db, err := config.InitDB(cfg)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	tree := database.NewGormTree(db)
	if err := tree.Migrate(); err != nil {
		log.Fatal("Failed to migrate database:", err)
	}

	// Local backup store
	local, closer, err := config.InitLocalStore(cfg)
	if err != nil {
		log.Fatal("Failed to open backup store:", err)
	}
	defer closer.Close()

	// Load content into memory
	persister := store.NewPersister(tree)
	content, err := persister.Load(context.Background())
	if err != nil {
		log.Fatal("Failed to load content:", err)
	}
	log.Printf("Loaded %d units with %d questions", len(content.Units()), content.Total())

	// Initialize WebSocket hub
	hub := services.NewHub()
	go hub.Run()
	defer hub.Stop()

	guard := services.NewOperationGuard()
	clock := services.SystemClock(cfg.Location())

	// Initialize services
	activityService := services.NewActivityService(tree, content, persister, guard, hub, clock)
	backupService := services.NewBackupService(local, content, persister, guard, hub, clock, services.BackupConfig{
		AppName: cfg.AppName,
		Limit:   cfg.BackupLimit,
	})
	exchangeService := services.NewExchangeService(content, persister, backupService, guard, hub, hub, clock, services.ExchangeConfig{
		AppName:  cfg.AppName,
		MaxBytes: cfg.ImportMaxBytes,
	})
	contentService := services.NewContentService(content, persister, activityService, guard, hub)
	authService := services.NewAuthService(tree, cfg.JWTSecret, clock)
	userService := services.NewUserService(tree, activityService, clock)
	searchService := services.NewSearchService(content)

	// Setup Gin router
	router := gin.Default()
	router.Use(middleware.CORS())

	routes.SetupRoutes(router, routes.Handlers{
		Auth:     handlers.NewAuthHandler(authService),
		Content:  handlers.NewContentHandler(content, contentService, searchService),
		Exchange: handlers.NewExchangeHandler(exchangeService),
		Backup:   handlers.NewBackupHandler(backupService),
		Activity: handlers.NewActivityHandler(activityService),
		User:     handlers.NewUserHandler(userService),
	}, routes.Options{
		AuthService: authService,
		Hub:         hub,
		LoginRate:   cfg.LoginRate,
		LoginBurst:  cfg.LoginBurst,
	})

	// Start server
	addr := cfg.BindAddress + ":" + cfg.Port
	log.Printf("Server starting on %s", addr)
	if err := router.Run(addr); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
