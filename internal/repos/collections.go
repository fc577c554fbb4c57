// Package repos provides typed per-entity access to the tree store. Each
// repo owns one collection path and converts between store documents and
// model structs. Repos never cache; view caches live upstream and are fed by
// lifecycle events, not by these reads.
package repos

const (
	ColRoutes      = "routes"
	ColDrivers     = "drivers"
	ColVehicles    = "vehicles"
	ColAssignments = "assignments"
	ColIncidents   = "incidents"
	ColPositions   = "current_positions"
	ColManagers    = "managers"

	// Per-assignment history lives under its own subtree so removing the
	// current-position slot leaves the trail intact.
	colHistoryPrefix = "position_history/"
)
