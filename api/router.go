package api

import (
	"github.com/gin-gonic/gin"

	"github.com/EricBlanvillain/control-automation/api/handler"
	"github.com/EricBlanvillain/control-automation/api/middleware"
)

// SetupRouter wires all API endpoints and middleware. taskHandler may
// be nil when no task queue is configured.
func SetupRouter(
	docHandler *handler.DocumentHandler,
	controlHandler *handler.ControlHandler,
	ruleHandler *handler.RuleHandler,
	taskHandler *handler.TaskHandler,
) *gin.Engine {
	router := gin.New()

	router.Use(middleware.Logger())
	router.Use(middleware.ErrorMiddleware())
	router.Use(middleware.SetTraceID())

	if gin.Mode() == gin.DebugMode {
		router.Use(middleware.RequestBodyLog())
	}

	api := router.Group("/api")
	{
		docGroup := api.Group("/documents")
		{
			docGroup.POST("", docHandler.UploadDocument)
			docGroup.GET("", docHandler.ListDocuments)
			docGroup.GET("/:id", docHandler.GetDocument)
			docGroup.DELETE("/:id", docHandler.DeleteDocument)
			if taskHandler != nil {
				docGroup.GET("/:id/tasks", taskHandler.ListDocumentTasks)
			}
		}

		runGroup := api.Group("/runs")
		{
			runGroup.POST("", controlHandler.StartRun)
			runGroup.GET("", controlHandler.ListRuns)
			runGroup.GET("/:id", controlHandler.GetRun)
			runGroup.GET("/:id/report", controlHandler.GetReport)
		}

		ruleGroup := api.Group("/rules")
		{
			ruleGroup.GET("", ruleHandler.ListRules)
			ruleGroup.GET("/categories", ruleHandler.ListCategories)
			ruleGroup.POST("", ruleHandler.CreateRule)
			ruleGroup.GET("/:id", ruleHandler.GetRule)
			ruleGroup.PUT("/:id", ruleHandler.UpdateRule)
			ruleGroup.DELETE("/:id", ruleHandler.DeleteRule)
		}

		if taskHandler != nil {
			taskGroup := api.Group("/tasks")
			{
				taskGroup.GET("/:id", taskHandler.GetTaskStatus)
				taskGroup.GET("/:id/wait", taskHandler.WaitForTask)
			}
		}

		api.GET("/health", func(c *gin.Context) {
			c.JSON(200, gin.H{
				"status": "ok",
			})
		})
	}

	return router
}
