package main

import (
	"log"
	"net/http"

	"github.com/sirupsen/logrus"

	"fleetsmart/internal/config"
	"fleetsmart/internal/controllers"
	"fleetsmart/internal/engine"
	"fleetsmart/internal/events"
	"fleetsmart/internal/geocode"
	"fleetsmart/internal/incidents"
	"fleetsmart/internal/logger"
	"fleetsmart/internal/middleware"
	"fleetsmart/internal/notify"
	"fleetsmart/internal/repos"
	"fleetsmart/internal/routes"
	"fleetsmart/internal/store"
	"fleetsmart/internal/tracking"
)

func main() {
	// Initialize structured logging to file
	logger.Setup()

	cfg := config.Load()

	// Connect to the database and mount the tree store on it
	config.InitDB()
	treeStore, err := store.NewGormStore(config.DB)
	if err != nil {
		log.Fatalf("tree store migration failed: %v", err)
	}

	// Repositories
	routeRepo := repos.NewRouteRepo(treeStore)
	driverRepo := repos.NewDriverRepo(treeStore)
	vehicleRepo := repos.NewVehicleRepo(treeStore)
	assignmentRepo := repos.NewAssignmentRepo(treeStore)
	incidentRepo := repos.NewIncidentRepo(treeStore)
	positionRepo := repos.NewPositionRepo(treeStore)
	managerRepo := repos.NewManagerRepo(treeStore)

	// Core services
	bus := events.NewBus()
	relay := notify.NewClient(cfg.NotifyBaseURL)
	eng := engine.New(assignmentRepo, routeRepo, driverRepo, vehicleRepo, bus, relay)
	incidentSvc := incidents.NewService(incidentRepo, vehicleRepo, driverRepo, bus, relay)
	trackingSvc := tracking.NewService(positionRepo)
	trackingSvc.BindAssignmentLifecycle(bus)

	// Live feed: one store listener pushes snapshots to every monitor socket
	hub := controllers.NewMonitorHub()
	if _, err := trackingSvc.StartListening(hub.Publish); err != nil {
		log.Fatalf("position listener failed: %v", err)
	}

	r := routes.SetupRouter(routes.Controllers{
		Auth:        controllers.NewAuthController(managerRepo, driverRepo),
		Routes:      controllers.NewRouteController(routeRepo, bus, geocode.NewClient()),
		Drivers:     controllers.NewDriverController(driverRepo, assignmentRepo, bus),
		Vehicles:    controllers.NewVehicleController(vehicleRepo, assignmentRepo, bus),
		Assignments: controllers.NewAssignmentController(eng, assignmentRepo, routeRepo, bus),
		Incidents:   controllers.NewIncidentController(incidentSvc),
		Tracking:    controllers.NewTrackingController(trackingSvc, assignmentRepo, hub, cfg.CompanyAnchor),
	})

	// Wrap with CORS
	handler := middleware.EnableCORS(r)

	logrus.WithField("addr", cfg.ListenAddr).Info("Server starting")
	log.Fatal(http.ListenAndServe(cfg.ListenAddr, handler))
}
