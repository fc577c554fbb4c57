package repos

import (
	"encoding/json"
	"sort"

	"fleetsmart/internal/models"
	"fleetsmart/internal/store"
)

// AssignmentRepo is the single source of truth for assignment exclusivity.
// The derived lookups below always hit the store; caches are for display
// only and are never consulted for validation.
type AssignmentRepo struct {
	store store.TreeStore
}

func NewAssignmentRepo(s store.TreeStore) *AssignmentRepo {
	return &AssignmentRepo{store: s}
}

func (r *AssignmentRepo) Create(a *models.Assignment) (string, error) {
	id, err := r.store.Insert(ColAssignments, a)
	if err != nil {
		return "", err
	}
	a.ID = id
	return id, nil
}

func (r *AssignmentRepo) Get(id string) (*models.Assignment, error) {
	raw, err := r.store.GetOne(ColAssignments, id)
	if err != nil {
		return nil, err
	}
	var a models.Assignment
	if err := json.Unmarshal(raw, &a); err != nil {
		return nil, err
	}
	a.ID = id
	return &a, nil
}

func (r *AssignmentRepo) All() ([]models.Assignment, error) {
	raws, err := r.store.GetAll(ColAssignments)
	if err != nil {
		return nil, err
	}
	assignments := make([]models.Assignment, 0, len(raws))
	for id, raw := range raws {
		var a models.Assignment
		if err := json.Unmarshal(raw, &a); err != nil {
			return nil, err
		}
		a.ID = id
		assignments = append(assignments, a)
	}
	sort.Slice(assignments, func(i, j int) bool { return assignments[i].ID < assignments[j].ID })
	return assignments, nil
}

func (r *AssignmentRepo) Delete(id string) error {
	return r.store.Remove(ColAssignments, id)
}

// ByRoute returns the active assignment referencing routeID, if any.
func (r *AssignmentRepo) ByRoute(routeID string) (*models.Assignment, bool, error) {
	return r.findFirst(func(a *models.Assignment) bool { return a.RouteID == routeID })
}

// ActiveForDriver returns the active assignment holding driverID, if any.
func (r *AssignmentRepo) ActiveForDriver(driverID string) (*models.Assignment, bool, error) {
	return r.findFirst(func(a *models.Assignment) bool { return a.DriverID == driverID })
}

// ActiveForVehicle returns the active assignment holding vehicleID, if any.
func (r *AssignmentRepo) ActiveForVehicle(vehicleID string) (*models.Assignment, bool, error) {
	return r.findFirst(func(a *models.Assignment) bool { return a.VehicleID == vehicleID })
}

func (r *AssignmentRepo) findFirst(match func(*models.Assignment) bool) (*models.Assignment, bool, error) {
	all, err := r.All()
	if err != nil {
		return nil, false, err
	}
	for i := range all {
		if match(&all[i]) {
			return &all[i], true, nil
		}
	}
	return nil, false, nil
}
