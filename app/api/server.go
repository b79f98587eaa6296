package api

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"

	"bili-notes/app/cfg"
)

// NewServer creates a new HTTP server with all routes configured
func NewServer(handler *Handler) *gin.Engine {
	// Set Gin mode (can be controlled via GIN_MODE environment variable)
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// Middleware
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		Formatter: func(param gin.LogFormatterParams) string {
			return fmt.Sprintf("%s - [%s] \"%s %s %s %d %s \"%s\" %s\"\n",
				param.ClientIP,
				param.TimeStamp.Format(time.RFC3339),
				param.Method,
				param.Path,
				param.Request.Proto,
				param.StatusCode,
				param.Latency,
				param.Request.UserAgent(),
				param.ErrorMessage,
			)
		},
	}))

	r.Use(gin.Recovery())

	// CORS middleware for API endpoints
	r.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	// Routes
	setupRoutes(r, handler)

	return r
}

// setupRoutes configures all the application routes
func setupRoutes(r *gin.Engine, handler *Handler) {
	search := r.Group("/search")
	{
		search.GET("/:keyword", handler.GetSearch)
		search.POST("/excel", handler.ExportExcel)
		search.POST("/download", handler.DownloadVideos)
	}

	analyse := r.Group("/analyse")
	{
		analyse.POST("/", handler.AnalyzeBatch)
		analyse.POST("/single", handler.AnalyzeSingle)
		analyse.GET("/tasks/:id", handler.GetTask)
		analyse.POST("/markdown/:bvid", handler.GetMarkdown)
		analyse.GET("/documents", handler.ListDocuments)
	}

	repository := r.Group("/repository")
	{
		repository.GET("/knowledge", handler.ListKnowledge)
		repository.POST("/knowledge/save", handler.SaveKnowledge)
		repository.POST("/knowledge/:id/favorite", handler.ToggleFavorite)
		repository.DELETE("/knowledge/:id", handler.DeleteKnowledge)
	}

	// Health and status endpoints
	r.GET("/health", handler.GetHealth)

	// Root endpoint with basic information
	r.GET("/", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"service":     "Bili Notes",
			"version":     cfg.Get().Version,
			"description": "Video search, LLM-generated study notes, and an in-memory knowledge base",
			"endpoints": map[string]string{
				"search":    "/search/<keyword>",
				"excel":     "/search/excel (POST)",
				"download":  "/search/download (POST)",
				"analyse":   "/analyse/ (POST)",
				"single":    "/analyse/single (POST)",
				"task":      "/analyse/tasks/<id>",
				"markdown":  "/analyse/markdown/<bvid> (POST)",
				"documents": "/analyse/documents",
				"knowledge": "/repository/knowledge",
				"health":    "/health",
			},
		})
	})

	// Favicon handler (return 204 to avoid 404s)
	r.GET("/favicon.ico", func(c *gin.Context) {
		c.Status(204)
	})
}
