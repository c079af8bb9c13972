package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/thanhpq/chatbot-be/internal/api/handler"
)

// SetupRouter configures and returns the Gin router with all routes
func SetupRouter(deps *handler.Dependencies) *gin.Engine {
	r := gin.New()

	// Middleware
	r.Use(gin.Recovery())
	r.Use(LoggerMiddleware(deps.Logger))
	r.Use(CORSMiddleware())

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "chatbot-service",
		})
	})

	dialogHandler := handler.NewDialogHandler(deps)
	queueHandler := handler.NewQueueHandler(deps)

	v1 := r.Group("/api/v1")
	{
		dialogs := v1.Group("/dialogs")
		{
			dialogs.POST("", dialogHandler.CreateDialog)
			dialogs.GET("", dialogHandler.ListDialogs)
			dialogs.GET("/:dialog_id", dialogHandler.GetDialog)
			dialogs.POST("/:dialog_id/messages", dialogHandler.SendMessage)
			dialogs.GET("/:dialog_id/messages", dialogHandler.ListMessages)
		}

		q := v1.Group("/queue")
		{
			q.GET("/stats", queueHandler.GetStats)
			q.GET("/items", queueHandler.ListItems)
			q.GET("/items/:item_id", queueHandler.GetItem)
			q.DELETE("/items", queueHandler.PurgeItems)
		}
	}

	return r
}
