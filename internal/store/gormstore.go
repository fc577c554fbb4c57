package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// treeRecord is the row shape backing the tree store in Postgres: one JSONB
// document per (collection, id).
type treeRecord struct {
	Collection string `gorm:"primaryKey;size:128"`
	ID         string `gorm:"primaryKey;size:64"`
	Data       []byte `gorm:"type:jsonb"`
	UpdatedAt  time.Time
}

func (treeRecord) TableName() string { return "tree_records" }

// GormStore implements TreeStore over Postgres through GORM. Change
// listeners are notified in-process after each successful write, which
// satisfies the no-diff listener contract for a single-writer deployment.
type GormStore struct {
	db        *gorm.DB
	listeners listenerSet
}

func NewGormStore(db *gorm.DB) (*GormStore, error) {
	if err := db.AutoMigrate(&treeRecord{}); err != nil {
		return nil, fmt.Errorf("migrating tree_records: %w", err)
	}
	return &GormStore{db: db}, nil
}

func (g *GormStore) Insert(collection string, record any) (string, error) {
	raw, err := json.Marshal(record)
	if err != nil {
		return "", err
	}
	id := NewPushID()
	row := treeRecord{Collection: collection, ID: id, Data: raw}
	if err := g.db.Create(&row).Error; err != nil {
		return "", fmt.Errorf("inserting into %s: %w", collection, err)
	}
	g.listeners.notify(collection)
	return id, nil
}

func (g *GormStore) Put(collection, id string, record any) error {
	raw, err := json.Marshal(record)
	if err != nil {
		return err
	}
	row := treeRecord{Collection: collection, ID: id, Data: raw}
	err = g.db.Save(&row).Error
	if err != nil {
		return fmt.Errorf("writing %s/%s: %w", collection, id, err)
	}
	g.listeners.notify(collection)
	return nil
}

func (g *GormStore) GetAll(collection string) (map[string]json.RawMessage, error) {
	var rows []treeRecord
	if err := g.db.Where("collection = ?", collection).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("listing %s: %w", collection, err)
	}
	out := make(map[string]json.RawMessage, len(rows))
	for _, row := range rows {
		out[row.ID] = json.RawMessage(row.Data)
	}
	return out, nil
}

func (g *GormStore) GetOne(collection, id string) (json.RawMessage, error) {
	var row treeRecord
	err := g.db.Where("collection = ? AND id = ?", collection, id).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s/%s: %w", collection, id, err)
	}
	return json.RawMessage(row.Data), nil
}

func (g *GormStore) Update(collection, id string, record any) error {
	stored, err := g.GetOne(collection, id)
	if err != nil {
		return err
	}
	merged, err := mergeInto(stored, record)
	if err != nil {
		return err
	}
	res := g.db.Model(&treeRecord{}).
		Where("collection = ? AND id = ?", collection, id).
		Update("data", []byte(merged))
	if res.Error != nil {
		return fmt.Errorf("updating %s/%s: %w", collection, id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	g.listeners.notify(collection)
	return nil
}

func (g *GormStore) Remove(collection, id string) error {
	res := g.db.Where("collection = ? AND id = ?", collection, id).Delete(&treeRecord{})
	if res.Error != nil {
		return fmt.Errorf("removing %s/%s: %w", collection, id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	g.listeners.notify(collection)
	return nil
}

func (g *GormStore) Listen(collection string, onChange func()) (ListenerHandle, error) {
	return g.listeners.listen(collection, onChange), nil
}
