package models

// The source data historically carried free-text states with inconsistent
// casing. Each entity kind now has a closed vocabulary; anything read from
// the store that is not in the vocabulary is rejected at the edge.

// RouteState is manager-set metadata on a route.
type RouteState string

const (
	RoutePending    RouteState = "Pending"
	RouteInProgress RouteState = "InProgress"
	RouteCompleted  RouteState = "Completed"
)

func (s RouteState) IsValid() bool {
	switch s {
	case RoutePending, RouteInProgress, RouteCompleted:
		return true
	}
	return false
}

// DriverState tracks availability for new assignments.
type DriverState string

const (
	DriverAvailable DriverState = "Available"
	DriverAssigned  DriverState = "Assigned"
	DriverInactive  DriverState = "Inactive"
)

func (s DriverState) IsValid() bool {
	switch s {
	case DriverAvailable, DriverAssigned, DriverInactive:
		return true
	}
	return false
}

// VehicleState tracks availability for new assignments.
type VehicleState string

const (
	VehicleAvailable   VehicleState = "Available"
	VehicleAssigned    VehicleState = "Assigned"
	VehicleMaintenance VehicleState = "Maintenance"
)

func (s VehicleState) IsValid() bool {
	switch s {
	case VehicleAvailable, VehicleAssigned, VehicleMaintenance:
		return true
	}
	return false
}

// AssignmentState mirrors the route lifecycle for an active assignment.
type AssignmentState string

const (
	AssignmentPending    AssignmentState = "Pending"
	AssignmentInProgress AssignmentState = "InProgress"
	AssignmentCompleted  AssignmentState = "Completed"
)

func (s AssignmentState) IsValid() bool {
	switch s {
	case AssignmentPending, AssignmentInProgress, AssignmentCompleted:
		return true
	}
	return false
}

// IncidentState advances strictly forward; Resolved is terminal.
type IncidentState string

const (
	IncidentPending    IncidentState = "Pending"
	IncidentInProgress IncidentState = "InProgress"
	IncidentResolved   IncidentState = "Resolved"
)

func (s IncidentState) IsValid() bool {
	switch s {
	case IncidentPending, IncidentInProgress, IncidentResolved:
		return true
	}
	return false
}

// Next returns the state one step forward, or false from Resolved.
func (s IncidentState) Next() (IncidentState, bool) {
	switch s {
	case IncidentPending:
		return IncidentInProgress, true
	case IncidentInProgress:
		return IncidentResolved, true
	}
	return "", false
}
