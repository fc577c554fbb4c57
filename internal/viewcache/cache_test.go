package viewcache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fleetsmart/internal/events"
	"fleetsmart/internal/models"
)

func vehicleCache(filter func(models.Vehicle) bool) *Cache[models.Vehicle] {
	return New(func(v models.Vehicle) string { return v.ID }, filter)
}

func TestLoadThenIncrements(t *testing.T) {
	c := vehicleCache(nil)
	c.Load([]models.Vehicle{
		{ID: "v1", Plate: "AAA-111"},
		{ID: "v2", Plate: "BBB-222"},
	})

	c.Apply(events.Event{Type: events.Created, ID: "v3", Entity: models.Vehicle{ID: "v3", Plate: "CCC-333"}})
	c.Apply(events.Event{Type: events.Updated, ID: "v1", Entity: models.Vehicle{ID: "v1", Plate: "AAA-999"}})
	c.Apply(events.Event{Type: events.Deleted, ID: "v2"})

	assert.Equal(t, []string{"v1", "v3"}, c.IDs())
	got, ok := c.Get("v1")
	require.True(t, ok)
	assert.Equal(t, "AAA-999", got.Plate)
}

// After any event sequence the cached id-set matches what a full reload
// would return.
func TestMatchesFullReloadAfterEventSequence(t *testing.T) {
	c := vehicleCache(nil)
	remote := map[string]models.Vehicle{}

	apply := func(ev events.Event) {
		switch ev.Type {
		case events.Created, events.Updated:
			remote[ev.ID] = ev.Entity.(models.Vehicle)
		case events.Deleted:
			delete(remote, ev.ID)
		}
		c.Apply(ev)
	}

	c.Load(nil)
	apply(events.Event{Type: events.Created, ID: "v1", Entity: models.Vehicle{ID: "v1"}})
	apply(events.Event{Type: events.Created, ID: "v2", Entity: models.Vehicle{ID: "v2"}})
	apply(events.Event{Type: events.Deleted, ID: "v1"})
	apply(events.Event{Type: events.Created, ID: "v3", Entity: models.Vehicle{ID: "v3"}})
	apply(events.Event{Type: events.Updated, ID: "v2", Entity: models.Vehicle{ID: "v2", Plate: "new"}})
	apply(events.Event{Type: events.Deleted, ID: "v3"})

	require.Equal(t, len(remote), c.Len())
	for _, id := range c.IDs() {
		_, ok := remote[id]
		assert.True(t, ok, "cache holds %s which the remote does not", id)
	}
}

func TestUpdateForUnknownIDInserts(t *testing.T) {
	c := vehicleCache(nil)
	c.Load(nil)

	// An update that raced ahead of the full load still lands.
	c.Apply(events.Event{Type: events.Updated, ID: "v9", Entity: models.Vehicle{ID: "v9", Plate: "ZZZ-999"}})
	assert.Equal(t, 1, c.Len())
}

func TestDeleteUnknownIDIsNoop(t *testing.T) {
	c := vehicleCache(nil)
	c.Load([]models.Vehicle{{ID: "v1"}})
	c.Apply(events.Event{Type: events.Deleted, ID: "ghost"})
	assert.Equal(t, []string{"v1"}, c.IDs())
}

func TestOrderPreservedAcrossRemoval(t *testing.T) {
	c := vehicleCache(nil)
	c.Load([]models.Vehicle{{ID: "v1"}, {ID: "v2"}, {ID: "v3"}, {ID: "v4"}})

	c.Apply(events.Event{Type: events.Deleted, ID: "v2"})
	assert.Equal(t, []string{"v1", "v3", "v4"}, c.IDs())

	// The reindexed tail must still be addressable.
	got, ok := c.Get("v4")
	require.True(t, ok)
	assert.Equal(t, "v4", got.ID)
}

func TestFilteredViewTracksStateChanges(t *testing.T) {
	available := vehicleCache(func(v models.Vehicle) bool { return v.State == models.VehicleAvailable })
	available.Load([]models.Vehicle{
		{ID: "v1", State: models.VehicleAvailable},
		{ID: "v2", State: models.VehicleAssigned},
	})
	require.Equal(t, []string{"v1"}, available.IDs())

	// v1 becomes assigned: it leaves the view.
	available.ApplyStateChange(events.Event{
		Type: events.StateChanged, ID: "v1",
		Entity:   models.Vehicle{ID: "v1", State: models.VehicleAssigned},
		NewState: string(models.VehicleAssigned),
	})
	assert.Empty(t, available.IDs())

	// v2 is released: it enters the view.
	available.ApplyStateChange(events.Event{
		Type: events.StateChanged, ID: "v2",
		Entity:   models.Vehicle{ID: "v2", State: models.VehicleAvailable},
		NewState: string(models.VehicleAvailable),
	})
	assert.Equal(t, []string{"v2"}, available.IDs())
}

func TestItemsReturnsCopy(t *testing.T) {
	c := vehicleCache(nil)
	c.Load([]models.Vehicle{{ID: "v1", Plate: "AAA-111"}})

	items := c.Items()
	items[0].Plate = "mutated"

	got, _ := c.Get("v1")
	assert.Equal(t, "AAA-111", got.Plate)
}
