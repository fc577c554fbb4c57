package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	logrus "github.com/sirupsen/logrus"

	"fleetsmart/internal/events"
	"fleetsmart/internal/models"
	"fleetsmart/internal/repos"
	"fleetsmart/internal/store"
)

type VehicleController struct {
	vehicles    *repos.VehicleRepo
	assignments *repos.AssignmentRepo
	bus         *events.Bus
}

func NewVehicleController(vehicles *repos.VehicleRepo, assignments *repos.AssignmentRepo, bus *events.Bus) *VehicleController {
	return &VehicleController{vehicles: vehicles, assignments: assignments, bus: bus}
}

func (vc *VehicleController) Create(c *gin.Context) {
	var vehicle models.Vehicle
	if err := c.ShouldBindJSON(&vehicle); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid vehicle input: " + err.Error()})
		return
	}
	if vehicle.State == "" {
		vehicle.State = models.VehicleAvailable
	}
	if !vehicle.State.IsValid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown vehicle state"})
		return
	}

	id, err := vc.vehicles.Create(&vehicle)
	if err != nil {
		logrus.WithError(err).Error("Failed to create vehicle.")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create vehicle"})
		return
	}
	vc.bus.Publish(events.KindVehicle, events.Event{Type: events.Created, ID: id, Entity: vehicle})
	c.JSON(http.StatusCreated, gin.H{"id": id, "vehicle": vehicle})
}

func (vc *VehicleController) List(c *gin.Context) {
	// ?available=true narrows to vehicles eligible for assignment.
	var (
		vehicles []models.Vehicle
		err      error
	)
	if c.Query("available") == "true" {
		vehicles, err = vc.vehicles.Available()
	} else {
		vehicles, err = vc.vehicles.All()
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error listing vehicles"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": vehicles})
}

func (vc *VehicleController) Get(c *gin.Context) {
	vehicle, err := vc.vehicles.Get(c.Param("id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Vehicle not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch vehicle"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"vehicle": vehicle})
}

func (vc *VehicleController) Update(c *gin.Context) {
	id := c.Param("id")
	current, err := vc.vehicles.Get(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Vehicle not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch vehicle"})
		return
	}

	var vehicle models.Vehicle
	if err := c.ShouldBindJSON(&vehicle); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid vehicle input: " + err.Error()})
		return
	}
	vehicle.ID = id
	if vehicle.State == "" {
		vehicle.State = current.State
	}
	if !vehicle.State.IsValid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown vehicle state"})
		return
	}

	if err := vc.vehicles.Update(&vehicle); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update vehicle"})
		return
	}
	vc.bus.Publish(events.KindVehicle, events.Event{Type: events.Updated, ID: id, Entity: vehicle})
	if vehicle.State != current.State {
		vc.bus.Publish(events.KindVehicle, events.Event{Type: events.StateChanged, ID: id, Entity: vehicle, NewState: string(vehicle.State)})
	}
	c.JSON(http.StatusOK, gin.H{"vehicle": vehicle})
}

func (vc *VehicleController) Delete(c *gin.Context) {
	id := c.Param("id")

	if _, held, err := vc.assignments.ActiveForVehicle(id); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check assignments"})
		return
	} else if held {
		c.JSON(http.StatusConflict, gin.H{"error": "Vehicle has an active assignment; release it first"})
		return
	}

	if err := vc.vehicles.Delete(id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Vehicle not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete vehicle"})
		return
	}
	vc.bus.Publish(events.KindVehicle, events.Event{Type: events.Deleted, ID: id})
	c.JSON(http.StatusOK, gin.H{"message": "Vehicle deleted"})
}
