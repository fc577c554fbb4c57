package engine

import (
	"errors"
	"fmt"

	"fleetsmart/internal/models"
)

// ErrMissingSelection is returned when a route, driver or vehicle id is
// absent from the request.
var ErrMissingSelection = errors.New("route, driver and vehicle must all be selected")

// RouteConflictError is a hard failure: the route already backs an active
// assignment and no override exists. The caller must release the existing
// assignment first.
type RouteConflictError struct {
	Existing models.Assignment
}

func (e *RouteConflictError) Error() string {
	return fmt.Sprintf("route %q is already assigned (%s)", e.Existing.RouteName, e.Existing.Summary())
}

// VehicleConflictError is a hard failure: vehicles are never auto-reassigned
// because a vehicle can be physically in only one place.
type VehicleConflictError struct {
	Existing models.Assignment
}

func (e *VehicleConflictError) Error() string {
	return fmt.Sprintf("vehicle %s is already assigned (%s)", e.Existing.VehiclePlate, e.Existing.Summary())
}
