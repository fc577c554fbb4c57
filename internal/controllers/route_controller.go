package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	logrus "github.com/sirupsen/logrus"

	"fleetsmart/internal/events"
	"fleetsmart/internal/geocode"
	"fleetsmart/internal/models"
	"fleetsmart/internal/repos"
	"fleetsmart/internal/store"
)

type RouteController struct {
	routes   *repos.RouteRepo
	bus      *events.Bus
	geocoder *geocode.Client
}

func NewRouteController(routes *repos.RouteRepo, bus *events.Bus, geocoder *geocode.Client) *RouteController {
	return &RouteController{routes: routes, bus: bus, geocoder: geocoder}
}

func (rc *RouteController) Create(c *gin.Context) {
	var route models.Route
	if err := c.ShouldBindJSON(&route); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid route input: " + err.Error()})
		return
	}
	route.OwnerManagerID = c.GetString("uid")
	if route.State == "" {
		route.State = models.RoutePending
	}
	if !route.State.IsValid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown route state"})
		return
	}

	id, err := rc.routes.Create(&route)
	if err != nil {
		logrus.WithError(err).Error("Failed to create route.")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create route"})
		return
	}
	rc.bus.Publish(events.KindRoute, events.Event{Type: events.Created, ID: id, Entity: route})

	c.JSON(http.StatusCreated, gin.H{"id": id, "route": route})
}

func (rc *RouteController) List(c *gin.Context) {
	routes, err := rc.routes.All()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error listing routes"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": routes})
}

func (rc *RouteController) Get(c *gin.Context) {
	route, err := rc.routes.Get(c.Param("id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Route not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch route"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"route": route})
}

func (rc *RouteController) Update(c *gin.Context) {
	id := c.Param("id")
	current, err := rc.routes.Get(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Route not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch route"})
		return
	}

	var route models.Route
	if err := c.ShouldBindJSON(&route); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid route input: " + err.Error()})
		return
	}
	route.ID = id
	route.OwnerManagerID = current.OwnerManagerID
	if route.State == "" {
		route.State = current.State
	}
	if !route.State.IsValid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown route state"})
		return
	}

	if err := rc.routes.Update(&route); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update route"})
		return
	}
	rc.bus.Publish(events.KindRoute, events.Event{Type: events.Updated, ID: id, Entity: route})
	if route.State != current.State {
		rc.bus.Publish(events.KindRoute, events.Event{Type: events.StateChanged, ID: id, Entity: route, NewState: string(route.State)})
	}

	c.JSON(http.StatusOK, gin.H{"route": route})
}

func (rc *RouteController) Delete(c *gin.Context) {
	id := c.Param("id")
	if err := rc.routes.Delete(id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Route not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete route"})
		return
	}
	rc.bus.Publish(events.KindRoute, events.Event{Type: events.Deleted, ID: id})
	c.JSON(http.StatusOK, gin.H{"message": "Route deleted"})
}

// Geocode resolves a free-text address for waypoint entry.
func (rc *RouteController) Geocode(c *gin.Context) {
	address := c.Query("address")
	if address == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing 'address' query parameter"})
		return
	}
	result, err := rc.geocoder.Resolve(c.Request.Context(), address)
	if err != nil {
		logrus.WithError(err).WithField("address", address).Warn("Geocoding failed.")
		c.JSON(http.StatusBadGateway, gin.H{"error": "Could not resolve address"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"lat":          result.Lat,
		"lon":          result.Lon,
		"display_name": result.DisplayName,
	})
}
