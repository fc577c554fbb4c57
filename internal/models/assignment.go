package models

import "time"

// Assignment binds a route, a driver and a vehicle. An assignment is active
// for as long as the record exists in the store; deletion is the only way it
// stops being active. Names and the plate are denormalized for display and
// are not treated as the source of truth.
type Assignment struct {
	ID           string          `json:"-"`
	RouteID      string          `json:"route_id"`
	RouteName    string          `json:"route_name"`
	DriverID     string          `json:"driver_id"`
	DriverName   string          `json:"driver_name"`
	VehicleID    string          `json:"vehicle_id"`
	VehiclePlate string          `json:"vehicle_plate"`
	AssignedBy   string          `json:"assigned_by"`
	StartedAt    time.Time       `json:"started_at"`
	State        AssignmentState `json:"state"`
}

// Summary is the short form used in exclusivity-violation messages.
func (a *Assignment) Summary() string {
	return a.RouteName + " / " + a.DriverName + " / " + a.VehiclePlate
}
