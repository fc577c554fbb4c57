// Package engine enforces assignment exclusivity across routes, drivers and
// vehicles. Validation reads the assignment store directly — never a display
// cache — and the checks are plain reads, not a transaction: two managers
// racing on the same route or vehicle can both pass validation before either
// commits. The store offers no compare-and-set, so that window is accepted
// and duplicates are surfaced at the next full reconciliation instead of
// prevented at write time.
package engine

import (
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"fleetsmart/internal/config"
	"fleetsmart/internal/events"
	"fleetsmart/internal/models"
	"fleetsmart/internal/repos"
	"fleetsmart/internal/store"
)

// Notifier is the slice of the push relay the engine needs.
type Notifier interface {
	RouteAssigned(driverID, routeID string) error
}

// Validation is the outcome of a clean or confirmable validation run. When
// DriverReassignment is set the caller must obtain user confirmation and
// pass ReplacesAssignmentID to Commit; committing then deletes the driver's
// prior assignment before inserting the new one.
type Validation struct {
	DriverReassignment   bool
	ReplacesAssignmentID string
	PriorRouteName       string
}

type Engine struct {
	assignments *repos.AssignmentRepo
	routes      *repos.RouteRepo
	drivers     *repos.DriverRepo
	vehicles    *repos.VehicleRepo
	bus         *events.Bus
	notifier    Notifier
}

func New(
	assignments *repos.AssignmentRepo,
	routes *repos.RouteRepo,
	drivers *repos.DriverRepo,
	vehicles *repos.VehicleRepo,
	bus *events.Bus,
	notifier Notifier,
) *Engine {
	return &Engine{
		assignments: assignments,
		routes:      routes,
		drivers:     drivers,
		vehicles:    vehicles,
		bus:         bus,
		notifier:    notifier,
	}
}

// ValidateNewAssignment runs the three exclusivity checks in order. Route
// and vehicle conflicts are hard failures returned as typed errors; a driver
// conflict is confirmable and reported through the Validation result, with
// the vehicle check still evaluated afterwards so a vehicle conflict is
// never hidden behind a pending confirmation.
func (e *Engine) ValidateNewAssignment(routeID, driverID, vehicleID string) (Validation, error) {
	if routeID == "" || driverID == "" || vehicleID == "" {
		return Validation{}, ErrMissingSelection
	}

	existing, found, err := e.assignments.ByRoute(routeID)
	if err != nil {
		return Validation{}, fmt.Errorf("checking route exclusivity: %w", err)
	}
	if found {
		return Validation{}, &RouteConflictError{Existing: *existing}
	}

	var v Validation
	prior, found, err := e.assignments.ActiveForDriver(driverID)
	if err != nil {
		return Validation{}, fmt.Errorf("checking driver exclusivity: %w", err)
	}
	if found {
		v.DriverReassignment = true
		v.ReplacesAssignmentID = prior.ID
		v.PriorRouteName = prior.RouteName
	}

	held, found, err := e.assignments.ActiveForVehicle(vehicleID)
	if err != nil {
		return Validation{}, fmt.Errorf("checking vehicle exclusivity: %w", err)
	}
	if found {
		return Validation{}, &VehicleConflictError{Existing: *held}
	}

	return v, nil
}

// CommitAssignment persists a new assignment on behalf of sess's manager.
// With replacesAssignmentID set, the driver's prior assignment is deleted
// first; the delete and the insert are two remote writes with no cross-write
// atomicity, so a failure between them leaves a transient gap that
// self-heals on the next full read. Driver and vehicle states flip to
// Assigned as separate follow-up writes, and the driver gets a best-effort
// push notification.
func (e *Engine) CommitAssignment(sess *config.Session, a *models.Assignment, replacesAssignmentID string) (string, error) {
	route, err := e.routes.Get(a.RouteID)
	if err != nil {
		return "", fmt.Errorf("loading route %s: %w", a.RouteID, err)
	}
	driver, err := e.drivers.Get(a.DriverID)
	if err != nil {
		return "", fmt.Errorf("loading driver %s: %w", a.DriverID, err)
	}
	vehicle, err := e.vehicles.Get(a.VehicleID)
	if err != nil {
		return "", fmt.Errorf("loading vehicle %s: %w", a.VehicleID, err)
	}

	a.RouteName = route.Name
	a.DriverName = driver.FullName
	a.VehiclePlate = vehicle.Plate
	a.AssignedBy = managerID(sess)
	if a.State == "" {
		a.State = models.AssignmentPending
	}
	if a.StartedAt.IsZero() {
		a.StartedAt = time.Now()
	}

	if replacesAssignmentID != "" {
		if err := e.releaseReplaced(replacesAssignmentID); err != nil {
			return "", err
		}
	}

	id, err := e.assignments.Create(a)
	if err != nil {
		return "", fmt.Errorf("saving assignment: %w", err)
	}
	e.bus.Publish(events.KindAssignment, events.Event{Type: events.Created, ID: id, Entity: *a})

	e.setDriverState(a.DriverID, models.DriverAssigned)
	e.setVehicleState(a.VehicleID, models.VehicleAssigned)

	if e.notifier != nil {
		if err := e.notifier.RouteAssigned(a.DriverID, a.RouteID); err != nil {
			logrus.WithError(err).WithFields(logrus.Fields{
				"driver_id": a.DriverID,
				"route_id":  a.RouteID,
			}).Warn("Route-assigned notification not delivered.")
		}
	}

	logrus.WithFields(logrus.Fields{
		"assignment_id": id,
		"route_id":      a.RouteID,
		"driver_id":     a.DriverID,
		"vehicle_id":    a.VehicleID,
		"manager_id":    managerID(sess),
	}).Info("Assignment committed.")
	return id, nil
}

// releaseReplaced deletes the driver's prior assignment during a confirmed
// reassignment and frees its vehicle. The driver's own state is overwritten
// by the commit that follows.
func (e *Engine) releaseReplaced(assignmentID string) error {
	prior, err := e.assignments.Get(assignmentID)
	if errors.Is(err, store.ErrNotFound) {
		// Already gone; nothing to replace.
		return nil
	}
	if err != nil {
		return fmt.Errorf("loading prior assignment %s: %w", assignmentID, err)
	}
	if err := e.assignments.Delete(assignmentID); err != nil {
		return fmt.Errorf("deleting prior assignment %s: %w", assignmentID, err)
	}
	e.bus.Publish(events.KindAssignment, events.Event{Type: events.Deleted, ID: assignmentID})
	e.setVehicleState(prior.VehicleID, models.VehicleAvailable)
	logrus.WithFields(logrus.Fields{
		"assignment_id": assignmentID,
		"route_name":    prior.RouteName,
	}).Info("Prior assignment removed for driver reassignment.")
	return nil
}

// ReleaseAssignment deletes an assignment on behalf of sess's manager,
// freeing its route, driver and vehicle. The entity state rollbacks are
// separate best-effort writes after the delete. Releasing an id twice
// returns store.ErrNotFound the second time and changes nothing.
func (e *Engine) ReleaseAssignment(sess *config.Session, assignmentID string) error {
	a, err := e.assignments.Get(assignmentID)
	if err != nil {
		return err
	}
	if err := e.assignments.Delete(assignmentID); err != nil {
		return err
	}
	e.bus.Publish(events.KindAssignment, events.Event{Type: events.Deleted, ID: assignmentID})

	e.setDriverState(a.DriverID, models.DriverAvailable)
	e.setVehicleState(a.VehicleID, models.VehicleAvailable)

	logrus.WithFields(logrus.Fields{
		"assignment_id": assignmentID,
		"route_id":      a.RouteID,
		"manager_id":    managerID(sess),
	}).Info("Assignment released.")
	return nil
}

// setDriverState flips a driver's availability and publishes Updated plus
// StateChanged. A failed write is logged and left for reconciliation — the
// assignment itself is already committed.
func (e *Engine) setDriverState(driverID string, state models.DriverState) {
	if err := e.drivers.SetState(driverID, state); err != nil {
		logrus.WithError(err).WithField("driver_id", driverID).Error("Failed to update driver state.")
		return
	}
	driver, err := e.drivers.Get(driverID)
	if err != nil {
		logrus.WithError(err).WithField("driver_id", driverID).Error("Failed to re-read driver after state change.")
		return
	}
	e.bus.Publish(events.KindDriver, events.Event{Type: events.Updated, ID: driverID, Entity: *driver})
	e.bus.Publish(events.KindDriver, events.Event{Type: events.StateChanged, ID: driverID, Entity: *driver, NewState: string(state)})
}

func (e *Engine) setVehicleState(vehicleID string, state models.VehicleState) {
	if err := e.vehicles.SetState(vehicleID, state); err != nil {
		logrus.WithError(err).WithField("vehicle_id", vehicleID).Error("Failed to update vehicle state.")
		return
	}
	vehicle, err := e.vehicles.Get(vehicleID)
	if err != nil {
		logrus.WithError(err).WithField("vehicle_id", vehicleID).Error("Failed to re-read vehicle after state change.")
		return
	}
	e.bus.Publish(events.KindVehicle, events.Event{Type: events.Updated, ID: vehicleID, Entity: *vehicle})
	e.bus.Publish(events.KindVehicle, events.Event{Type: events.StateChanged, ID: vehicleID, Entity: *vehicle, NewState: string(state)})
}

func managerID(sess *config.Session) string {
	if sess == nil {
		return ""
	}
	return sess.ManagerID
}
