package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeliveryOrderWithinKind(t *testing.T) {
	bus := NewBus()

	var got []string
	bus.Subscribe(KindRoute, func(ev Event) {
		got = append(got, ev.Type.String()+":"+ev.ID)
	})

	bus.Publish(KindRoute, Event{Type: Created, ID: "r1"})
	bus.Publish(KindRoute, Event{Type: Updated, ID: "r1"})
	bus.Publish(KindRoute, Event{Type: Deleted, ID: "r1"})

	assert.Equal(t, []string{"created:r1", "updated:r1", "deleted:r1"}, got)
}

func TestKindsAreIsolated(t *testing.T) {
	bus := NewBus()

	var routes, drivers int
	bus.Subscribe(KindRoute, func(Event) { routes++ })
	bus.Subscribe(KindDriver, func(Event) { drivers++ })

	bus.Publish(KindRoute, Event{Type: Created, ID: "r1"})
	bus.Publish(KindRoute, Event{Type: Deleted, ID: "r1"})
	bus.Publish(KindDriver, Event{Type: Created, ID: "d1"})

	assert.Equal(t, 2, routes)
	assert.Equal(t, 1, drivers)
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	bus := NewBus()

	var count int
	unsubscribe := bus.Subscribe(KindVehicle, func(Event) { count++ })

	bus.Publish(KindVehicle, Event{Type: Created, ID: "v1"})
	unsubscribe()
	bus.Publish(KindVehicle, Event{Type: Updated, ID: "v1"})

	assert.Equal(t, 1, count)
}

func TestUnsubscribeTwiceIsSafe(t *testing.T) {
	bus := NewBus()
	unsubscribe := bus.Subscribe(KindVehicle, func(Event) {})
	unsubscribe()
	unsubscribe()

	// Other subscriptions keep working.
	var count int
	bus.Subscribe(KindVehicle, func(Event) { count++ })
	bus.Publish(KindVehicle, Event{Type: Created, ID: "v1"})
	assert.Equal(t, 1, count)
}

func TestHandlerMayPublish(t *testing.T) {
	bus := NewBus()

	var stateChanges []string
	bus.Subscribe(KindDriver, func(ev Event) {
		if ev.Type == StateChanged {
			stateChanges = append(stateChanges, ev.NewState)
		}
	})
	// An assignment handler that reacts by flipping driver state, the way
	// the exclusivity engine does.
	bus.Subscribe(KindAssignment, func(ev Event) {
		if ev.Type == Created {
			bus.Publish(KindDriver, Event{Type: StateChanged, ID: "d1", NewState: "Assigned"})
		}
	})

	bus.Publish(KindAssignment, Event{Type: Created, ID: "a1"})
	require.Equal(t, []string{"Assigned"}, stateChanges)
}

func TestSubscriptionOrderPreserved(t *testing.T) {
	bus := NewBus()

	var order []int
	bus.Subscribe(KindIncident, func(Event) { order = append(order, 1) })
	bus.Subscribe(KindIncident, func(Event) { order = append(order, 2) })
	bus.Subscribe(KindIncident, func(Event) { order = append(order, 3) })

	bus.Publish(KindIncident, Event{Type: Created, ID: "i1"})
	assert.Equal(t, []int{1, 2, 3}, order)
}
