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

type DriverController struct {
	drivers     *repos.DriverRepo
	assignments *repos.AssignmentRepo
	bus         *events.Bus
}

func NewDriverController(drivers *repos.DriverRepo, assignments *repos.AssignmentRepo, bus *events.Bus) *DriverController {
	return &DriverController{drivers: drivers, assignments: assignments, bus: bus}
}

func (dc *DriverController) Create(c *gin.Context) {
	var driver models.Driver
	if err := c.ShouldBindJSON(&driver); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid driver input: " + err.Error()})
		return
	}
	if driver.State == "" {
		driver.State = models.DriverAvailable
	}
	if !driver.State.IsValid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown driver state"})
		return
	}

	id, err := dc.drivers.Create(&driver)
	if err != nil {
		logrus.WithError(err).Error("Failed to create driver.")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create driver"})
		return
	}
	dc.bus.Publish(events.KindDriver, events.Event{Type: events.Created, ID: id, Entity: driver})
	c.JSON(http.StatusCreated, gin.H{"id": id, "driver": driver})
}

func (dc *DriverController) List(c *gin.Context) {
	drivers, err := dc.drivers.All()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error listing drivers"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": drivers})
}

func (dc *DriverController) Get(c *gin.Context) {
	driver, err := dc.drivers.Get(c.Param("id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Driver not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch driver"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"driver": driver})
}

// ActiveAssignment answers which route a driver currently holds, used by the
// driver's own app after login.
func (dc *DriverController) ActiveAssignment(c *gin.Context) {
	driverID := c.Param("id")
	assignment, found, err := dc.assignments.ActiveForDriver(driverID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to look up assignment"})
		return
	}
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "No active assignment for this driver"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"assignment": assignment})
}

func (dc *DriverController) Update(c *gin.Context) {
	id := c.Param("id")
	current, err := dc.drivers.Get(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Driver not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch driver"})
		return
	}

	var driver models.Driver
	if err := c.ShouldBindJSON(&driver); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid driver input: " + err.Error()})
		return
	}
	driver.ID = id
	if driver.State == "" {
		driver.State = current.State
	}
	if !driver.State.IsValid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown driver state"})
		return
	}

	if err := dc.drivers.Update(&driver); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update driver"})
		return
	}
	dc.bus.Publish(events.KindDriver, events.Event{Type: events.Updated, ID: id, Entity: driver})
	if driver.State != current.State {
		dc.bus.Publish(events.KindDriver, events.Event{Type: events.StateChanged, ID: id, Entity: driver, NewState: string(driver.State)})
	}
	c.JSON(http.StatusOK, gin.H{"driver": driver})
}

func (dc *DriverController) Delete(c *gin.Context) {
	id := c.Param("id")

	// A driver holding an active assignment cannot be removed out from
	// under it.
	if _, held, err := dc.assignments.ActiveForDriver(id); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check assignments"})
		return
	} else if held {
		c.JSON(http.StatusConflict, gin.H{"error": "Driver has an active assignment; release it first"})
		return
	}

	if err := dc.drivers.Delete(id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Driver not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete driver"})
		return
	}
	dc.bus.Publish(events.KindDriver, events.Event{Type: events.Deleted, ID: id})
	c.JSON(http.StatusOK, gin.H{"message": "Driver deleted"})
}
