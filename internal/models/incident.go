package models

// Incident is a vehicle incident report filed by a manager. State advances
// monotonically one step at a time and never regresses.
type Incident struct {
	ID                 string        `json:"-"`
	VehicleID          string        `json:"vehicle_id" binding:"required"`
	Plate              string        `json:"plate"`
	Type               string        `json:"type"` // "Breakdown", "Accident", "Maintenance", "Other"
	Description        string        `json:"description"`
	Date               string        `json:"date"` // "dd/MM/yyyy"
	Time               string        `json:"time"` // "HH:mm"
	State              IncidentState `json:"state"`
	ReportingManagerID string        `json:"reporting_manager_id"`
	DriverID           string        `json:"driver_id,omitempty"`
	DriverName         string        `json:"driver_name,omitempty"`
}
