package routes

import (
	"github.com/gin-gonic/gin"

	"dealdesk/internal/authz"
	"dealdesk/internal/handlers"
	"dealdesk/internal/middleware"
)

func SetupRoutes(
	r *gin.Engine,
	jwtSecret []byte,
	pipelineHandler *handlers.PipelineHandler,
	dealHandler *handlers.DealHandler,
) *gin.Engine {
	handlers.UseJSONFieldNames()

	api := r.Group("/api", middleware.AuthMiddleware(jwtSecret), middleware.ReadOnlyGuard())

	// PIPELINES
	pipelines := api.Group("/pipelines")
	{
		pipelines.GET("", pipelineHandler.List)
		pipelines.GET("/:id", pipelineHandler.GetByID)
		pipelines.GET("/:id/analytics", pipelineHandler.Analytics)
		pipelines.GET("/:id/analytics/report", pipelineHandler.AnalyticsReport)

		admin := pipelines.Group("", middleware.RequireRoles(authz.RoleAdmin))
		admin.POST("", pipelineHandler.Create)
		admin.PUT("/:id", pipelineHandler.Update)
		admin.DELETE("/:id", pipelineHandler.Delete)
	}

	// DEALS
	deals := api.Group("/deals")
	{
		deals.GET("", dealHandler.List)
		deals.POST("", dealHandler.Create)
		deals.GET("/:id", dealHandler.GetByID)
		deals.PUT("/:id", dealHandler.Update)
		deals.POST("/:id/stage", dealHandler.TransitionStage)
		deals.DELETE("/:id", middleware.RequireElevated(), dealHandler.Delete)
	}

	// DASHBOARD
	api.GET("/dashboard", dealHandler.Dashboard)

	return r
}
