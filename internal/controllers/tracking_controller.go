package controllers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"fleetsmart/internal/mapview"
	"fleetsmart/internal/middleware"
	"fleetsmart/internal/models"
	"fleetsmart/internal/repos"
	"fleetsmart/internal/tracking"
)

// upgrader configures the WebSocket connection.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all for development (restrict in production!)
	},
}

// gpsSample is the JSON a driver app sends over the socket. Timestamps
// arrive in assorted formats; the custom unmarshaler normalizes them.
type gpsSample struct {
	AssignmentID string    `json:"assignment_id"`
	Latitude     float64   `json:"latitude"`
	Longitude    float64   `json:"longitude"`
	Timestamp    time.Time `json:"timestamp"`
}

func (s *gpsSample) UnmarshalJSON(data []byte) error {
	type alias gpsSample
	aux := &struct {
		Timestamp string `json:"timestamp"`
		*alias
	}{alias: (*alias)(s)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	ts := aux.Timestamp
	if ts == "" {
		s.Timestamp = time.Now()
		return nil
	}
	// Tolerate missing timezone suffixes by assuming UTC.
	if !(strings.HasSuffix(ts, "Z") || (len(ts) > 6 && strings.ContainsAny(ts[len(ts)-6:], "+-"))) {
		ts += "Z"
	}
	t, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		return fmt.Errorf("invalid timestamp %q: %w", aux.Timestamp, err)
	}
	s.Timestamp = t
	return nil
}

// MonitorHub fans position snapshots out to every connected monitoring
// client (the command-center map views).
type MonitorHub struct {
	mu        sync.Mutex
	clients   map[*websocket.Conn]bool
	broadcast chan []models.CurrentPosition
}

func NewMonitorHub() *MonitorHub {
	hub := &MonitorHub{
		clients:   make(map[*websocket.Conn]bool),
		broadcast: make(chan []models.CurrentPosition, 100),
	}
	go hub.run()
	return hub
}

func (h *MonitorHub) run() {
	for snapshot := range h.broadcast {
		h.mu.Lock()
		for conn := range h.clients {
			if err := conn.WriteJSON(gin.H{"positions": snapshot}); err != nil {
				if websocket.IsCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
					logrus.WithField("conn_ptr", fmt.Sprintf("%p", conn)).Info("Monitor connection closed during broadcast, unregistering.")
				} else {
					logrus.WithError(err).Warn("Failed to send snapshot to monitor client.")
				}
				conn.Close()
				delete(h.clients, conn)
			}
		}
		h.mu.Unlock()
	}
}

func (h *MonitorHub) Register(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[conn] = true
	logrus.WithField("conn_ptr", fmt.Sprintf("%p", conn)).Info("Monitor client registered.")
}

func (h *MonitorHub) Unregister(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, conn)
	logrus.WithField("conn_ptr", fmt.Sprintf("%p", conn)).Info("Monitor client unregistered.")
}

// Publish queues a snapshot for broadcast. Dropping when the channel is full
// is safe: a newer snapshot supersedes the lost one.
func (h *MonitorHub) Publish(snapshot []models.CurrentPosition) {
	select {
	case h.broadcast <- snapshot:
	default:
		logrus.Warn("Monitor broadcast channel full, dropping snapshot.")
	}
}

type TrackingController struct {
	service     *tracking.Service
	assignments *repos.AssignmentRepo
	hub         *MonitorHub
	anchor      [2]float64
}

func NewTrackingController(service *tracking.Service, assignments *repos.AssignmentRepo, hub *MonitorHub, anchor [2]float64) *TrackingController {
	return &TrackingController{service: service, assignments: assignments, hub: hub, anchor: anchor}
}

// authenticateWebSocket validates the JWT passed as a query parameter —
// browsers cannot set headers on websocket upgrades.
func authenticateWebSocket(c *gin.Context) (*middleware.Claims, error) {
	tokenString := c.Query("token")
	if tokenString == "" {
		return nil, errors.New("missing authentication token")
	}
	return middleware.ValidateToken(tokenString)
}

// HandleDriverWS ingests GPS samples from an authenticated driver. Each
// sample must reference the driver's own active assignment.
func (tc *TrackingController) HandleDriverWS(c *gin.Context) {
	claims, err := authenticateWebSocket(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}
	if claims.Role != "driver" {
		c.JSON(http.StatusForbidden, gin.H{"error": "Only drivers may push positions"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logrus.WithError(err).Error("Failed to upgrade driver WebSocket connection.")
		return
	}
	defer conn.Close()

	logrus.WithField("driver_id", claims.UID).Info("Driver WebSocket connection established.")
	for {
		messageType, payload, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logrus.WithField("driver_id", claims.UID).Info("Driver WebSocket closed.")
			} else {
				logrus.WithError(err).WithField("driver_id", claims.UID).Error("Error reading driver WebSocket message.")
			}
			return
		}
		if messageType == websocket.TextMessage {
			tc.ingestSample(conn, payload, claims.UID)
		}
	}
}

func (tc *TrackingController) ingestSample(conn *websocket.Conn, payload []byte, driverID string) {
	var sample gpsSample
	if err := json.Unmarshal(payload, &sample); err != nil {
		logrus.WithError(err).WithField("driver_id", driverID).Error("Error unmarshaling GPS sample.")
		conn.WriteJSON(gin.H{"error": "Invalid sample format. Check timestamp format."})
		return
	}

	assignment, found, err := tc.assignments.ActiveForDriver(driverID)
	if err != nil {
		logrus.WithError(err).WithField("driver_id", driverID).Error("Failed to look up driver assignment.")
		conn.WriteJSON(gin.H{"error": "Could not verify assignment."})
		return
	}
	if !found {
		conn.WriteJSON(gin.H{"error": "No active assignment; sample ignored."})
		return
	}
	if sample.AssignmentID != "" && sample.AssignmentID != assignment.ID {
		logrus.WithFields(logrus.Fields{
			"driver_id":             driverID,
			"payload_assignment_id": sample.AssignmentID,
			"actual_assignment_id":  assignment.ID,
		}).Warn("Driver sent sample for a different assignment. Denying.")
		conn.WriteJSON(gin.H{"error": "Unauthorized position update."})
		return
	}

	pos := models.CurrentPosition{
		AssignmentID: assignment.ID,
		Latitude:     sample.Latitude,
		Longitude:    sample.Longitude,
		Timestamp:    sample.Timestamp,
		DriverName:   assignment.DriverName,
		VehiclePlate: assignment.VehiclePlate,
		RouteName:    assignment.RouteName,
	}
	if err := tc.service.Record(&pos); err != nil {
		logrus.WithError(err).WithField("assignment_id", assignment.ID).Error("Failed to save position.")
		conn.WriteJSON(gin.H{"error": "Failed to save position."})
		return
	}

	conn.WriteJSON(gin.H{
		"status":        "saved",
		"assignment_id": assignment.ID,
		"timestamp":     pos.Timestamp.Format(time.RFC3339Nano),
	})
}

// HandleMonitorWS streams position snapshots to a manager's map view.
func (tc *TrackingController) HandleMonitorWS(c *gin.Context) {
	claims, err := authenticateWebSocket(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}
	if claims.Role != "manager" {
		c.JSON(http.StatusForbidden, gin.H{"error": "Only managers may monitor the fleet"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logrus.WithError(err).Error("Failed to upgrade monitor WebSocket connection.")
		return
	}
	defer conn.Close()

	tc.hub.Register(conn)
	defer tc.hub.Unregister(conn)

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logrus.WithField("manager_id", claims.UID).Info("Monitor WebSocket closed.")
			} else {
				logrus.WithError(err).WithField("manager_id", claims.UID).Error("Error reading monitor WebSocket message.")
			}
			return
		}
		logrus.WithField("manager_id", claims.UID).Warn("Monitor client sent unexpected message. Ignoring.")
	}
}

// Positions returns the current snapshot synchronously — the explicit full
// load a view performs before trusting the live stream.
func (tc *TrackingController) Positions(c *gin.Context) {
	snapshot, err := tc.service.GetActivePositions()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read positions"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": snapshot})
}

// History returns an assignment's recorded trail.
func (tc *TrackingController) History(c *gin.Context) {
	trail, err := tc.service.History(c.Param("assignmentId"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read history"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": trail})
}

// RenderPlan computes the map layout for the client's next render. The
// client owns the first-render flag, passes it as ?first=true and persists
// the returned next_first_render.
func (tc *TrackingController) RenderPlan(c *gin.Context) {
	snapshot, err := tc.service.GetActivePositions()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read positions"})
		return
	}
	firstRender := c.Query("first") == "true"
	plan := mapview.BuildRenderPlan(snapshot, tc.anchor, firstRender)
	c.JSON(http.StatusOK, gin.H{
		"markers":           plan.Markers,
		"fit_bounds":        plan.FitBounds,
		"next_first_render": plan.NextFirstRender,
	})
}
