package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"

	"brightpath/casedesk/internal/api/handlers"
	"brightpath/casedesk/internal/api/middleware"
	"brightpath/casedesk/internal/cache"
	"brightpath/casedesk/internal/config"
	"brightpath/casedesk/internal/email"
	"brightpath/casedesk/internal/services"
	"brightpath/casedesk/internal/uploads"
	"brightpath/casedesk/internal/workflow"
)

// SetupRouter configures and returns the main Gin engine.
func SetupRouter(cfg *config.Config, db *mongo.Database, rdb *redis.Client, sender email.Sender, orphans workflow.OrphanReporter) *gin.Engine {
	// Initialize services needed by API handlers here.
	caseService := services.NewCaseService(db)
	fileServer := uploads.NewFileServerClient(cfg)
	synchronizer := workflow.NewSynchronizer(caseService, fileServer, orphans)
	dispatcher := workflow.NewDispatcher(sender, cfg.SmtpFromAddress, cfg.AppName, cfg.EmailTimeout)
	engine := workflow.NewEngine(workflow.NewRegistry(), caseService, synchronizer, dispatcher)

	var listCache *cache.ListCache
	if rdb != nil {
		listCache = cache.NewListCache(rdb, cfg.ListCacheTTL)
	}

	r := gin.Default()
	r.Use(middleware.CORSMiddleware())

	authHandler := handlers.NewAuthHandler(cfg)
	caseHandler := handlers.NewCaseHandler(engine, listCache)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := r.Group("/v1")
	{
		// Public routes
		v1.POST("/admin/login", authHandler.Login)

		// Staff console routes
		cases := v1.Group("/cases")
		cases.Use(middleware.AuthMiddleware(cfg))
		{
			cases.GET("/:type", caseHandler.ListCases)
			cases.GET("/:type/:id", caseHandler.GetCase)
			cases.POST("/:type/:id/status", caseHandler.TransitionStatus)
			cases.POST("/:type/:id/attachments/:slot", caseHandler.AttachDocument)
			cases.DELETE("/:type/:id/attachments/:slot", caseHandler.RemoveDocument)
			cases.POST("/:type/:id/verify", caseHandler.SetVerified)
			cases.DELETE("/:type/:id", caseHandler.DeleteCase)
		}
	}
	return r
}
