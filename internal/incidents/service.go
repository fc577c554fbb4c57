// Package incidents runs the incident lifecycle: Pending → InProgress →
// Resolved, one step at a time, never backwards. Notifications ride on the
// same best-effort channel as route assignments and never gate a write.
package incidents

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"fleetsmart/internal/events"
	"fleetsmart/internal/models"
	"fleetsmart/internal/repos"
)

// ErrAlreadyResolved is returned by Advance when the incident is terminal.
// No write is performed.
var ErrAlreadyResolved = errors.New("incident is already resolved")

// Notifier is the slice of the push relay the incident flow needs.
type Notifier interface {
	IncidentNew(incidentID string) error
	IncidentAssigned(incidentID string) error
	IncidentUpdated(incidentID string) error
}

type Service struct {
	incidents *repos.IncidentRepo
	vehicles  *repos.VehicleRepo
	drivers   *repos.DriverRepo
	bus       *events.Bus
	notifier  Notifier
}

func NewService(
	incidents *repos.IncidentRepo,
	vehicles *repos.VehicleRepo,
	drivers *repos.DriverRepo,
	bus *events.Bus,
	notifier Notifier,
) *Service {
	return &Service{
		incidents: incidents,
		vehicles:  vehicles,
		drivers:   drivers,
		bus:       bus,
		notifier:  notifier,
	}
}

// Create files a new incident in Pending, denormalizing the vehicle plate
// and driver name for display.
func (s *Service) Create(incident *models.Incident) (string, error) {
	vehicle, err := s.vehicles.Get(incident.VehicleID)
	if err != nil {
		return "", fmt.Errorf("loading vehicle %s: %w", incident.VehicleID, err)
	}
	incident.Plate = vehicle.Plate
	if incident.DriverID != "" {
		driver, err := s.drivers.Get(incident.DriverID)
		if err != nil {
			return "", fmt.Errorf("loading driver %s: %w", incident.DriverID, err)
		}
		incident.DriverName = driver.FullName
	}
	incident.State = models.IncidentPending

	id, err := s.incidents.Create(incident)
	if err != nil {
		return "", fmt.Errorf("saving incident: %w", err)
	}
	s.bus.Publish(events.KindIncident, events.Event{Type: events.Created, ID: id, Entity: *incident})

	if s.notifier != nil {
		if err := s.notifier.IncidentNew(id); err != nil {
			logrus.WithError(err).WithField("incident_id", id).Warn("New-incident notification not delivered.")
		}
		if incident.DriverID != "" {
			if err := s.notifier.IncidentAssigned(id); err != nil {
				logrus.WithError(err).WithField("incident_id", id).Warn("Incident-assigned notification not delivered.")
			}
		}
	}

	logrus.WithFields(logrus.Fields{
		"incident_id": id,
		"vehicle_id":  incident.VehicleID,
		"type":        incident.Type,
	}).Info("Incident filed.")
	return id, nil
}

// Advance moves an incident exactly one state forward. Advancing from
// Resolved fails with ErrAlreadyResolved and writes nothing. A notification
// failure after a successful advance is logged and does not roll back.
func (s *Service) Advance(incidentID string) (models.IncidentState, error) {
	incident, err := s.incidents.Get(incidentID)
	if err != nil {
		return "", err
	}
	next, ok := incident.State.Next()
	if !ok {
		return "", ErrAlreadyResolved
	}

	if err := s.incidents.SetState(incidentID, next); err != nil {
		return "", fmt.Errorf("advancing incident %s: %w", incidentID, err)
	}
	incident.State = next
	s.bus.Publish(events.KindIncident, events.Event{Type: events.Updated, ID: incidentID, Entity: *incident})
	s.bus.Publish(events.KindIncident, events.Event{Type: events.StateChanged, ID: incidentID, Entity: *incident, NewState: string(next)})

	if s.notifier != nil {
		if err := s.notifier.IncidentUpdated(incidentID); err != nil {
			logrus.WithError(err).WithField("incident_id", incidentID).Warn("Incident-updated notification not delivered.")
		}
	}

	logrus.WithFields(logrus.Fields{
		"incident_id": incidentID,
		"new_state":   next,
	}).Info("Incident advanced.")
	return next, nil
}

// Update rewrites an incident's descriptive fields. State changes go through
// Advance only.
func (s *Service) Update(incident *models.Incident) error {
	current, err := s.incidents.Get(incident.ID)
	if err != nil {
		return err
	}
	incident.State = current.State
	if err := s.incidents.Update(incident); err != nil {
		return err
	}
	s.bus.Publish(events.KindIncident, events.Event{Type: events.Updated, ID: incident.ID, Entity: *incident})

	if s.notifier != nil && incident.DriverID != "" {
		if err := s.notifier.IncidentUpdated(incident.ID); err != nil {
			logrus.WithError(err).WithField("incident_id", incident.ID).Warn("Incident-updated notification not delivered.")
		}
	}
	return nil
}

// Delete removes an incident record.
func (s *Service) Delete(incidentID string) error {
	if err := s.incidents.Delete(incidentID); err != nil {
		return err
	}
	s.bus.Publish(events.KindIncident, events.Event{Type: events.Deleted, ID: incidentID})
	return nil
}

// ByState lists incidents filtered by state; empty state means all.
func (s *Service) ByState(state models.IncidentState) ([]models.Incident, error) {
	return s.incidents.ByState(state)
}
