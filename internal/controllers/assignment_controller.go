package controllers

import (
	"errors"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	logrus "github.com/sirupsen/logrus"

	"fleetsmart/internal/config"
	"fleetsmart/internal/engine"
	"fleetsmart/internal/events"
	"fleetsmart/internal/models"
	"fleetsmart/internal/repos"
	"fleetsmart/internal/store"
	"fleetsmart/internal/viewcache"
)

// assignmentView keeps the assignment table warm between requests: one full
// load, then lifecycle events only. The mutex covers the handoff between the
// publisher goroutines applying events and request goroutines reading.
type assignmentView struct {
	mu     sync.Mutex
	cache  *viewcache.Cache[models.Assignment]
	warmed bool
}

type AssignmentController struct {
	engine      *engine.Engine
	assignments *repos.AssignmentRepo
	routes      *repos.RouteRepo
	view        *assignmentView
}

// sessionFrom builds the acting manager's session from the uid the auth
// middleware verified.
func sessionFrom(c *gin.Context) *config.Session {
	return &config.Session{ManagerID: c.GetString("uid")}
}

func NewAssignmentController(eng *engine.Engine, assignments *repos.AssignmentRepo, routes *repos.RouteRepo, bus *events.Bus) *AssignmentController {
	ac := &AssignmentController{
		engine:      eng,
		assignments: assignments,
		routes:      routes,
		view: &assignmentView{
			cache: viewcache.New(func(a models.Assignment) string { return a.ID }, nil),
		},
	}
	bus.Subscribe(events.KindAssignment, func(ev events.Event) {
		ac.view.mu.Lock()
		defer ac.view.mu.Unlock()
		if !ac.view.warmed {
			// Increments before the first full load would build a
			// partial view; drop them and let warm() catch up.
			return
		}
		ac.view.cache.Apply(ev)
	})
	return ac
}

// warm loads the view once. Subscription is already live, so events landing
// during the load are at worst re-applied as upserts afterwards.
func (ac *AssignmentController) warm() ([]models.Assignment, error) {
	ac.view.mu.Lock()
	defer ac.view.mu.Unlock()
	if !ac.view.warmed {
		all, err := ac.assignments.All()
		if err != nil {
			return nil, err
		}
		ac.view.cache.Load(all)
		ac.view.warmed = true
	}
	return ac.view.cache.Items(), nil
}

type assignmentInput struct {
	RouteID   string `json:"route_id" binding:"required"`
	DriverID  string `json:"driver_id" binding:"required"`
	VehicleID string `json:"vehicle_id" binding:"required"`

	// ConfirmReassignment acknowledges pulling the driver off their
	// current route. Without it, a driver conflict is reported back
	// instead of committed.
	ConfirmReassignment bool `json:"confirm_reassignment"`
}

// Validate runs the exclusivity checks without writing anything.
func (ac *AssignmentController) Validate(c *gin.Context) {
	var input assignmentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid assignment input: " + err.Error()})
		return
	}

	v, err := ac.engine.ValidateNewAssignment(input.RouteID, input.DriverID, input.VehicleID)
	if err != nil {
		ac.renderValidationError(c, err)
		return
	}
	if v.DriverReassignment {
		c.JSON(http.StatusOK, gin.H{
			"ok":                   true,
			"reason":               "DriverReassignmentRequired",
			"current_route":        v.PriorRouteName,
			"replaces_assignment":  v.ReplacesAssignmentID,
			"confirmation_needed":  true,
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// Create validates and commits a new assignment in one request.
func (ac *AssignmentController) Create(c *gin.Context) {
	var input assignmentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid assignment input: " + err.Error()})
		return
	}

	v, err := ac.engine.ValidateNewAssignment(input.RouteID, input.DriverID, input.VehicleID)
	if err != nil {
		ac.renderValidationError(c, err)
		return
	}
	if v.DriverReassignment && !input.ConfirmReassignment {
		c.JSON(http.StatusConflict, gin.H{
			"error":               "Driver already holds an assignment",
			"reason":              "DriverReassignmentRequired",
			"current_route":       v.PriorRouteName,
			"replaces_assignment": v.ReplacesAssignmentID,
		})
		return
	}

	a := models.Assignment{
		RouteID:   input.RouteID,
		DriverID:  input.DriverID,
		VehicleID: input.VehicleID,
	}
	id, err := ac.engine.CommitAssignment(sessionFrom(c), &a, v.ReplacesAssignmentID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Route, driver or vehicle not found"})
			return
		}
		logrus.WithError(err).Error("Failed to commit assignment.")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create assignment"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": id, "assignment": a})
}

func (ac *AssignmentController) renderValidationError(c *gin.Context, err error) {
	var routeConflict *engine.RouteConflictError
	var vehicleConflict *engine.VehicleConflictError
	switch {
	case errors.Is(err, engine.ErrMissingSelection):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.As(err, &routeConflict):
		c.JSON(http.StatusConflict, gin.H{
			"error":    err.Error(),
			"reason":   "RouteAlreadyAssigned",
			"existing": routeConflict.Existing.Summary(),
		})
	case errors.As(err, &vehicleConflict):
		c.JSON(http.StatusConflict, gin.H{
			"error":    err.Error(),
			"reason":   "VehicleAlreadyAssigned",
			"existing": vehicleConflict.Existing.Summary(),
		})
	default:
		logrus.WithError(err).Error("Assignment validation failed on store read.")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Validation failed"})
	}
}

func (ac *AssignmentController) List(c *gin.Context) {
	assignments, err := ac.warm()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error listing assignments"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": assignments})
}

// overviewRow is the assignment table the back office shows: every route
// with its assignee, or marked available.
type overviewRow struct {
	RouteID      string `json:"route_id"`
	RouteName    string `json:"route_name"`
	DriverName   string `json:"driver_name,omitempty"`
	VehiclePlate string `json:"vehicle_plate,omitempty"`
	AssignmentID string `json:"assignment_id,omitempty"`
	Assigned     bool   `json:"assigned"`
}

func (ac *AssignmentController) Overview(c *gin.Context) {
	routes, err := ac.routes.All()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error listing routes"})
		return
	}
	assignments, err := ac.warm()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error listing assignments"})
		return
	}

	byRoute := make(map[string]*models.Assignment, len(assignments))
	for i := range assignments {
		byRoute[assignments[i].RouteID] = &assignments[i]
	}

	rows := make([]overviewRow, 0, len(routes))
	for _, route := range routes {
		row := overviewRow{RouteID: route.ID, RouteName: route.Name}
		if a, ok := byRoute[route.ID]; ok {
			row.DriverName = a.DriverName
			row.VehiclePlate = a.VehiclePlate
			row.AssignmentID = a.ID
			row.Assigned = true
		}
		rows = append(rows, row)
	}
	c.JSON(http.StatusOK, gin.H{"data": rows})
}

// Release deletes an assignment, freeing its route, driver and vehicle.
func (ac *AssignmentController) Release(c *gin.Context) {
	id := c.Param("id")
	if err := ac.engine.ReleaseAssignment(sessionFrom(c), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Assignment not found"})
			return
		}
		logrus.WithError(err).Error("Failed to release assignment.")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to release assignment"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Assignment released. The route is available again."})
}
