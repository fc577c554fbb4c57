package routes

import (
	"fleetsmart/internal/controllers"
	"fleetsmart/internal/middleware"

	"github.com/gin-gonic/gin"
)

func TrackingRoutes(r *gin.Engine, tc *controllers.TrackingController) {
	// WebSocket endpoints authenticate via the token query parameter
	// themselves; the middleware cannot see headers on an upgrade.
	r.GET("/ws/driver", tc.HandleDriverWS)
	r.GET("/ws/monitor", tc.HandleMonitorWS)

	tracking := r.Group("/tracking")
	tracking.Use(middleware.RequireAuthWithRole("manager"))
	{
		tracking.GET("/positions", tc.Positions)
		tracking.GET("/positions/:assignmentId/history", tc.History)
		tracking.GET("/map", tc.RenderPlan)
	}
}
