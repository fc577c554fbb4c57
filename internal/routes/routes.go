package routes

import (
	"github.com/gin-contrib/logger"
	"github.com/gin-gonic/gin"

	"fleetsmart/internal/controllers"
)

// Controllers bundles every handler group the router mounts.
type Controllers struct {
	Auth        *controllers.AuthController
	Routes      *controllers.RouteController
	Drivers     *controllers.DriverController
	Vehicles    *controllers.VehicleController
	Assignments *controllers.AssignmentController
	Incidents   *controllers.IncidentController
	Tracking    *controllers.TrackingController
}

func SetupRouter(c Controllers) *gin.Engine {
	r := gin.New()
	r.Use(logger.SetLogger())
	r.Use(gin.Recovery())

	AuthRoutes(r, c.Auth)
	RouteRoutes(r, c.Routes)
	DriverRoutes(r, c.Drivers)
	VehicleRoutes(r, c.Vehicles)
	AssignmentRoutes(r, c.Assignments)
	IncidentRoutes(r, c.Incidents)
	TrackingRoutes(r, c.Tracking)

	return r
}
