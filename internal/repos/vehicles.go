package repos

import (
	"encoding/json"
	"sort"

	"fleetsmart/internal/models"
	"fleetsmart/internal/store"
)

type VehicleRepo struct {
	store store.TreeStore
}

func NewVehicleRepo(s store.TreeStore) *VehicleRepo {
	return &VehicleRepo{store: s}
}

func (r *VehicleRepo) Create(vehicle *models.Vehicle) (string, error) {
	if vehicle.State == "" {
		vehicle.State = models.VehicleAvailable
	}
	id, err := r.store.Insert(ColVehicles, vehicle)
	if err != nil {
		return "", err
	}
	vehicle.ID = id
	return id, nil
}

func (r *VehicleRepo) Get(id string) (*models.Vehicle, error) {
	raw, err := r.store.GetOne(ColVehicles, id)
	if err != nil {
		return nil, err
	}
	var vehicle models.Vehicle
	if err := json.Unmarshal(raw, &vehicle); err != nil {
		return nil, err
	}
	vehicle.ID = id
	return &vehicle, nil
}

func (r *VehicleRepo) All() ([]models.Vehicle, error) {
	raws, err := r.store.GetAll(ColVehicles)
	if err != nil {
		return nil, err
	}
	vehicles := make([]models.Vehicle, 0, len(raws))
	for id, raw := range raws {
		var vehicle models.Vehicle
		if err := json.Unmarshal(raw, &vehicle); err != nil {
			return nil, err
		}
		vehicle.ID = id
		vehicles = append(vehicles, vehicle)
	}
	sort.Slice(vehicles, func(i, j int) bool { return vehicles[i].ID < vehicles[j].ID })
	return vehicles, nil
}

// Available returns only vehicles eligible for a new assignment.
func (r *VehicleRepo) Available() ([]models.Vehicle, error) {
	all, err := r.All()
	if err != nil {
		return nil, err
	}
	available := all[:0]
	for _, v := range all {
		if v.State == models.VehicleAvailable {
			available = append(available, v)
		}
	}
	return available, nil
}

func (r *VehicleRepo) Update(vehicle *models.Vehicle) error {
	return r.store.Update(ColVehicles, vehicle.ID, vehicle)
}

// SetState writes only the state field.
func (r *VehicleRepo) SetState(id string, state models.VehicleState) error {
	return r.store.Update(ColVehicles, id, map[string]any{"state": state})
}

func (r *VehicleRepo) Delete(id string) error {
	return r.store.Remove(ColVehicles, id)
}
