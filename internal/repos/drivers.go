package repos

import (
	"encoding/json"
	"sort"

	"fleetsmart/internal/models"
	"fleetsmart/internal/store"
)

type DriverRepo struct {
	store store.TreeStore
}

func NewDriverRepo(s store.TreeStore) *DriverRepo {
	return &DriverRepo{store: s}
}

func (r *DriverRepo) Create(driver *models.Driver) (string, error) {
	if driver.State == "" {
		driver.State = models.DriverAvailable
	}
	id, err := r.store.Insert(ColDrivers, driver)
	if err != nil {
		return "", err
	}
	driver.ID = id
	return id, nil
}

// CreateWithID registers a driver under an externally issued identity
// (the authentication provider's uid).
func (r *DriverRepo) CreateWithID(id string, driver *models.Driver) error {
	if driver.State == "" {
		driver.State = models.DriverAvailable
	}
	if err := r.store.Put(ColDrivers, id, driver); err != nil {
		return err
	}
	driver.ID = id
	return nil
}

func (r *DriverRepo) Get(id string) (*models.Driver, error) {
	raw, err := r.store.GetOne(ColDrivers, id)
	if err != nil {
		return nil, err
	}
	var driver models.Driver
	if err := json.Unmarshal(raw, &driver); err != nil {
		return nil, err
	}
	driver.ID = id
	return &driver, nil
}

func (r *DriverRepo) All() ([]models.Driver, error) {
	raws, err := r.store.GetAll(ColDrivers)
	if err != nil {
		return nil, err
	}
	drivers := make([]models.Driver, 0, len(raws))
	for id, raw := range raws {
		var driver models.Driver
		if err := json.Unmarshal(raw, &driver); err != nil {
			return nil, err
		}
		driver.ID = id
		drivers = append(drivers, driver)
	}
	sort.Slice(drivers, func(i, j int) bool { return drivers[i].ID < drivers[j].ID })
	return drivers, nil
}

func (r *DriverRepo) Update(driver *models.Driver) error {
	return r.store.Update(ColDrivers, driver.ID, driver)
}

// SetState writes only the state field.
func (r *DriverRepo) SetState(id string, state models.DriverState) error {
	return r.store.Update(ColDrivers, id, map[string]any{"state": state})
}

func (r *DriverRepo) Delete(id string) error {
	return r.store.Remove(ColDrivers, id)
}
