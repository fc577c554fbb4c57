package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	logrus "github.com/sirupsen/logrus"

	"fleetsmart/internal/incidents"
	"fleetsmart/internal/models"
	"fleetsmart/internal/store"
)

type IncidentController struct {
	service *incidents.Service
}

func NewIncidentController(service *incidents.Service) *IncidentController {
	return &IncidentController{service: service}
}

func (ic *IncidentController) Create(c *gin.Context) {
	var incident models.Incident
	if err := c.ShouldBindJSON(&incident); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid incident input: " + err.Error()})
		return
	}
	incident.ReportingManagerID = c.GetString("uid")

	id, err := ic.service.Create(&incident)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Referenced vehicle or driver not found"})
			return
		}
		logrus.WithError(err).Error("Failed to file incident.")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to file incident"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": id, "incident": incident})
}

func (ic *IncidentController) List(c *gin.Context) {
	// ?state=Pending|InProgress|Resolved filters; absent means all.
	state := models.IncidentState(c.Query("state"))
	if state != "" && !state.IsValid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown incident state"})
		return
	}
	list, err := ic.service.ByState(state)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error listing incidents"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": list})
}

// Advance moves an incident one state forward.
func (ic *IncidentController) Advance(c *gin.Context) {
	id := c.Param("id")
	next, err := ic.service.Advance(id)
	if err != nil {
		switch {
		case errors.Is(err, incidents.ErrAlreadyResolved):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "reason": "AlreadyResolved"})
		case errors.Is(err, store.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Incident not found"})
		default:
			logrus.WithError(err).Error("Failed to advance incident.")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to advance incident"})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"state": next})
}

func (ic *IncidentController) Update(c *gin.Context) {
	var incident models.Incident
	if err := c.ShouldBindJSON(&incident); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid incident input: " + err.Error()})
		return
	}
	incident.ID = c.Param("id")

	if err := ic.service.Update(&incident); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Incident not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update incident"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"incident": incident})
}

func (ic *IncidentController) Delete(c *gin.Context) {
	if err := ic.service.Delete(c.Param("id")); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Incident not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete incident"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Incident deleted"})
}
