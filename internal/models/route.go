package models

// Waypoint is an intermediate stop along a route. Order starts at 1; the
// final destination is derived from the waypoint with the highest order.
type Waypoint struct {
	Address string     `json:"address"`
	Coords  [2]float64 `json:"coords"` // [lat, lon]
	Order   int        `json:"order"`
}

// Route is a reusable service path planned by a manager.
type Route struct {
	ID               string     `json:"-"`
	Name             string     `json:"name" binding:"required"`
	Origin           string     `json:"origin"`
	FinalDestination string     `json:"final_destination"`
	PlannedDate      string     `json:"planned_date"` // "dd/MM/yyyy"
	PlannedStart     string     `json:"planned_start"` // "HH:mm"
	PlannedEnd       string     `json:"planned_end"`
	OwnerManagerID   string     `json:"owner_manager_id"`
	State            RouteState `json:"state"`
	Waypoints        []Waypoint `json:"waypoints,omitempty"`
}

// LastStop returns the waypoint with the highest order, which doubles as the
// route's final destination when one was not set explicitly.
func (r *Route) LastStop() (Waypoint, bool) {
	if len(r.Waypoints) == 0 {
		return Waypoint{}, false
	}
	last := r.Waypoints[0]
	for _, w := range r.Waypoints[1:] {
		if w.Order > last.Order {
			last = w
		}
	}
	return last, true
}
