package repos

import (
	"encoding/json"
	"errors"
	"sort"

	"fleetsmart/internal/models"
	"fleetsmart/internal/store"
)

// PositionRepo manages the single mutable GPS slot per active assignment
// plus the append-only per-assignment history trail.
type PositionRepo struct {
	store store.TreeStore
}

func NewPositionRepo(s store.TreeStore) *PositionRepo {
	return &PositionRepo{store: s}
}

// Upsert writes the current-position slot for the assignment and appends the
// sample to that assignment's history. The history write is best-effort: a
// failure there does not undo the slot update.
func (r *PositionRepo) Upsert(pos *models.CurrentPosition) error {
	if err := r.store.Put(ColPositions, pos.AssignmentID, pos); err != nil {
		return err
	}
	_, err := r.store.Insert(colHistoryPrefix+pos.AssignmentID, pos)
	return err
}

// Active returns the current position of every tracked assignment.
func (r *PositionRepo) Active() ([]models.CurrentPosition, error) {
	raws, err := r.store.GetAll(ColPositions)
	if err != nil {
		return nil, err
	}
	positions := make([]models.CurrentPosition, 0, len(raws))
	for id, raw := range raws {
		var pos models.CurrentPosition
		if err := json.Unmarshal(raw, &pos); err != nil {
			return nil, err
		}
		pos.AssignmentID = id
		positions = append(positions, pos)
	}
	sort.Slice(positions, func(i, j int) bool {
		return positions[i].AssignmentID < positions[j].AssignmentID
	})
	return positions, nil
}

// ForAssignment returns the current position of one assignment.
func (r *PositionRepo) ForAssignment(assignmentID string) (*models.CurrentPosition, error) {
	raw, err := r.store.GetOne(ColPositions, assignmentID)
	if err != nil {
		return nil, err
	}
	var pos models.CurrentPosition
	if err := json.Unmarshal(raw, &pos); err != nil {
		return nil, err
	}
	pos.AssignmentID = assignmentID
	return &pos, nil
}

// Remove clears the current-position slot when an assignment ends. History
// is kept. Removing an untracked assignment is not an error.
func (r *PositionRepo) Remove(assignmentID string) error {
	err := r.store.Remove(ColPositions, assignmentID)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	return err
}

// History returns an assignment's recorded trail ordered by sample time.
func (r *PositionRepo) History(assignmentID string) ([]models.CurrentPosition, error) {
	raws, err := r.store.GetAll(colHistoryPrefix + assignmentID)
	if err != nil {
		return nil, err
	}
	trail := make([]models.CurrentPosition, 0, len(raws))
	for _, raw := range raws {
		var pos models.CurrentPosition
		if err := json.Unmarshal(raw, &pos); err != nil {
			return nil, err
		}
		pos.AssignmentID = assignmentID
		trail = append(trail, pos)
	}
	sort.Slice(trail, func(i, j int) bool { return trail[i].Timestamp.Before(trail[j].Timestamp) })
	return trail, nil
}

// Listen registers a no-diff change listener on the positions collection.
func (r *PositionRepo) Listen(onChange func()) (store.ListenerHandle, error) {
	return r.store.Listen(ColPositions, onChange)
}
