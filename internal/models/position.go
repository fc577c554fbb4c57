package models

import "time"

// CurrentPosition is the single mutable GPS slot per active assignment.
// It is upserted on every accepted sample and removed when the owning
// assignment ends. Updates for the same assignment are ordered by arrival;
// no ordering holds across assignments.
type CurrentPosition struct {
	AssignmentID string    `json:"-"`
	Latitude     float64   `json:"latitude"`
	Longitude    float64   `json:"longitude"`
	Timestamp    time.Time `json:"timestamp"`
	DriverName   string    `json:"driver_name"`
	VehiclePlate string    `json:"vehicle_plate"`
	RouteName    string    `json:"route_name"`
}
