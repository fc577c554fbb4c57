package routes

import (
	"fleetsmart/internal/controllers"
	"fleetsmart/internal/middleware"

	"github.com/gin-gonic/gin"
)

func AssignmentRoutes(r *gin.Engine, ac *controllers.AssignmentController) {
	assignments := r.Group("/assignments")
	assignments.Use(middleware.RequireAuthWithRole("manager"))
	{
		assignments.POST("/validate", ac.Validate)
		assignments.POST("/", ac.Create)
		assignments.GET("/", ac.List)
		assignments.GET("/overview", ac.Overview)
		assignments.DELETE("/:id", ac.Release)
	}
}
