package repos

import (
	"encoding/json"
	"sort"

	"fleetsmart/internal/models"
	"fleetsmart/internal/store"
)

type IncidentRepo struct {
	store store.TreeStore
}

func NewIncidentRepo(s store.TreeStore) *IncidentRepo {
	return &IncidentRepo{store: s}
}

func (r *IncidentRepo) Create(incident *models.Incident) (string, error) {
	if incident.State == "" {
		incident.State = models.IncidentPending
	}
	id, err := r.store.Insert(ColIncidents, incident)
	if err != nil {
		return "", err
	}
	incident.ID = id
	return id, nil
}

func (r *IncidentRepo) Get(id string) (*models.Incident, error) {
	raw, err := r.store.GetOne(ColIncidents, id)
	if err != nil {
		return nil, err
	}
	var incident models.Incident
	if err := json.Unmarshal(raw, &incident); err != nil {
		return nil, err
	}
	incident.ID = id
	return &incident, nil
}

func (r *IncidentRepo) All() ([]models.Incident, error) {
	raws, err := r.store.GetAll(ColIncidents)
	if err != nil {
		return nil, err
	}
	incidents := make([]models.Incident, 0, len(raws))
	for id, raw := range raws {
		var incident models.Incident
		if err := json.Unmarshal(raw, &incident); err != nil {
			return nil, err
		}
		incident.ID = id
		incidents = append(incidents, incident)
	}
	sort.Slice(incidents, func(i, j int) bool { return incidents[i].ID < incidents[j].ID })
	return incidents, nil
}

// ByState filters incidents; an empty state returns everything.
func (r *IncidentRepo) ByState(state models.IncidentState) ([]models.Incident, error) {
	all, err := r.All()
	if err != nil {
		return nil, err
	}
	if state == "" {
		return all, nil
	}
	filtered := all[:0]
	for _, inc := range all {
		if inc.State == state {
			filtered = append(filtered, inc)
		}
	}
	return filtered, nil
}

func (r *IncidentRepo) Update(incident *models.Incident) error {
	return r.store.Update(ColIncidents, incident.ID, incident)
}

// SetState writes only the state field.
func (r *IncidentRepo) SetState(id string, state models.IncidentState) error {
	return r.store.Update(ColIncidents, id, map[string]any{"state": state})
}

func (r *IncidentRepo) Delete(id string) error {
	return r.store.Remove(ColIncidents, id)
}
