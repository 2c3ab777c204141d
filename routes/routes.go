package routes

import (
	"log"
	"net/http"

	"quizadmin/handlers"
	"quizadmin/middleware"
	"quizadmin/models"
	"quizadmin/services"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type Handlers struct {
	Auth     *handlers.AuthHandler
	Content  *handlers.ContentHandler
	Exchange *handlers.ExchangeHandler
	Backup   *handlers.BackupHandler
	Activity *handlers.ActivityHandler
	User     *handlers.UserHandler
}

type Options struct {
	AuthService *services.AuthService
	Hub         *services.Hub
	LoginRate   float64
	LoginBurst  int
}

func SetupRoutes(router *gin.Engine, h Handlers, opts Options) {
	api := router.Group("/api")
	{
		// Auth routes (public, throttled)
		auth := api.Group("/auth")
		auth.Use(middleware.RateLimit(opts.LoginRate, opts.LoginBurst))
		{
			auth.POST("/signup", h.Auth.Signup)
			auth.POST("/login", h.Auth.Login)
		}

		protected := api.Group("/")
		protected.Use(middleware.Auth(opts.AuthService))
		{
			protected.GET("/auth/profile", h.Auth.Profile)

			units := protected.Group("/units")
			{
				units.GET("", h.Content.ListUnits)
				units.GET("/:id", h.Content.GetUnit)
				units.GET("/:id/search", h.Content.Search)
				units.POST("/:id/questions", middleware.RequirePermission(models.PermCreate), h.Content.AddQuestion)
				units.PUT("/:id/questions/:index", middleware.RequirePermission(models.PermEdit), h.Content.EditQuestion)
				units.DELETE("/:id/questions/:index", middleware.RequirePermission(models.PermDelete), h.Content.DeleteQuestion)
			}

			admin := protected.Group("/")
			admin.Use(middleware.RequirePermission(models.PermAccessAdmin))
			{
				admin.GET("/export/json", h.Exchange.ExportJSON)
				admin.GET("/export/xlsx", h.Exchange.ExportExcel)
				admin.POST("/import", h.Exchange.Import)

				backups := admin.Group("/backups")
				{
					backups.GET("", h.Backup.List)
					backups.POST("", h.Backup.Create)
					backups.POST("/latest/restore", h.Backup.RestoreLatest)
					backups.POST("/:key/restore", h.Backup.Restore)
					backups.DELETE("/:key", h.Backup.Delete)
				}
			}

			activity := protected.Group("/activity")
			{
				activity.GET("", h.Activity.List)
				activity.DELETE("", h.Activity.Clear)
				activity.POST("/prune", h.Activity.Prune)
				activity.DELETE("/:id", h.Activity.Delete)
			}

			deleted := protected.Group("/deleted")
			{
				deleted.GET("", h.Activity.ListDeleted)
				deleted.POST("/:id/:index/restore", h.Activity.RestoreDeleted)
				deleted.DELETE("/:id/:index", h.Activity.DeleteDeleted)
			}

			users := protected.Group("/users")
			users.Use(middleware.RequirePermission(models.PermUsers))
			{
				users.GET("", h.User.List)
				users.GET("/stats", h.User.Stats)
				users.POST("", h.User.Create)
				users.PUT("/:id", h.User.Update)
				users.POST("/:id/toggle", h.User.Toggle)
				users.DELETE("/:id", h.User.Delete)
			}
		}
	}

	// WebSocket endpoint for admin notifications
	router.GET("/ws", middleware.Auth(opts.AuthService), func(c *gin.Context) {
		actor := middleware.Actor(c)

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Printf("WebSocket upgrade failed for user %s: %v", actor.ID, err)
			return
		}

		log.Printf("WebSocket connection established for user %s (%s)", actor.ID, actor.Name)
		opts.Hub.RegisterClient(conn, actor)
	})

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}
