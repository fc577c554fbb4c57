package repos

import (
	"encoding/json"

	"fleetsmart/internal/models"
	"fleetsmart/internal/store"
)

type ManagerRepo struct {
	store store.TreeStore
}

func NewManagerRepo(s store.TreeStore) *ManagerRepo {
	return &ManagerRepo{store: s}
}

func (r *ManagerRepo) Create(m *models.Manager) (string, error) {
	id, err := r.store.Insert(ColManagers, m)
	if err != nil {
		return "", err
	}
	m.ID = id
	return id, nil
}

func (r *ManagerRepo) Get(id string) (*models.Manager, error) {
	raw, err := r.store.GetOne(ColManagers, id)
	if err != nil {
		return nil, err
	}
	var m models.Manager
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	m.ID = id
	return &m, nil
}

// ByEmail scans for the account with the given email. Login volume is tiny;
// a full read is fine here.
func (r *ManagerRepo) ByEmail(email string) (*models.Manager, bool, error) {
	raws, err := r.store.GetAll(ColManagers)
	if err != nil {
		return nil, false, err
	}
	for id, raw := range raws {
		var m models.Manager
		if err := json.Unmarshal(raw, &m); err != nil {
			return nil, false, err
		}
		if m.Email == email {
			m.ID = id
			return &m, true, nil
		}
	}
	return nil, false, nil
}
