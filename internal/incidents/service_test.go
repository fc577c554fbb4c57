package incidents

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fleetsmart/internal/events"
	"fleetsmart/internal/models"
	"fleetsmart/internal/repos"
	"fleetsmart/internal/store"
)

type recordingNotifier struct {
	news     []string
	assigned []string
	updated  []string
	fail     error
}

func (n *recordingNotifier) IncidentNew(id string) error {
	if n.fail != nil {
		return n.fail
	}
	n.news = append(n.news, id)
	return nil
}

func (n *recordingNotifier) IncidentAssigned(id string) error {
	if n.fail != nil {
		return n.fail
	}
	n.assigned = append(n.assigned, id)
	return nil
}

func (n *recordingNotifier) IncidentUpdated(id string) error {
	if n.fail != nil {
		return n.fail
	}
	n.updated = append(n.updated, id)
	return nil
}

type fixture struct {
	service  *Service
	store    *store.MemStore
	bus      *events.Bus
	notifier *recordingNotifier

	vehicleID string
	driverID  string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	m := store.NewMemStore()
	f := &fixture{
		store:    m,
		bus:      events.NewBus(),
		notifier: &recordingNotifier{},
	}
	vehicles := repos.NewVehicleRepo(m)
	drivers := repos.NewDriverRepo(m)
	f.service = NewService(repos.NewIncidentRepo(m), vehicles, drivers, f.bus, f.notifier)

	var err error
	f.vehicleID, err = vehicles.Create(&models.Vehicle{Plate: "AAA-111"})
	require.NoError(t, err)
	f.driverID, err = drivers.Create(&models.Driver{FullName: "Ana Gomez"})
	require.NoError(t, err)
	return f
}

func (f *fixture) file(t *testing.T, incident models.Incident) string {
	t.Helper()
	incident.VehicleID = f.vehicleID
	id, err := f.service.Create(&incident)
	require.NoError(t, err)
	return id
}

func TestCreateStartsPending(t *testing.T) {
	f := newFixture(t)

	// Whatever state the caller claims, a new incident starts Pending.
	id := f.file(t, models.Incident{Type: "Breakdown", State: models.IncidentResolved})

	got, err := f.service.ByState(models.IncidentPending)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, id, got[0].ID)
	assert.Equal(t, "AAA-111", got[0].Plate)
}

func TestCreateNotifies(t *testing.T) {
	f := newFixture(t)
	id := f.file(t, models.Incident{Type: "Breakdown"})

	assert.Equal(t, []string{id}, f.notifier.news)
	assert.Empty(t, f.notifier.assigned)
}

func TestCreateWithDriverNotifiesDriverToo(t *testing.T) {
	f := newFixture(t)
	id := f.file(t, models.Incident{Type: "Accident", DriverID: f.driverID})

	assert.Equal(t, []string{id}, f.notifier.news)
	assert.Equal(t, []string{id}, f.notifier.assigned)

	got, err := f.service.ByState(models.IncidentPending)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Ana Gomez", got[0].DriverName)
}

func TestNotifierFailureDoesNotFailCreate(t *testing.T) {
	f := newFixture(t)
	f.notifier.fail = errors.New("relay down")

	f.file(t, models.Incident{Type: "Breakdown"})

	all, err := f.service.ByState("")
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestAdvanceWalksForward(t *testing.T) {
	f := newFixture(t)
	id := f.file(t, models.Incident{Type: "Breakdown"})

	next, err := f.service.Advance(id)
	require.NoError(t, err)
	assert.Equal(t, models.IncidentInProgress, next)

	next, err = f.service.Advance(id)
	require.NoError(t, err)
	assert.Equal(t, models.IncidentResolved, next)
}

func TestAdvanceFromResolvedFails(t *testing.T) {
	f := newFixture(t)
	id := f.file(t, models.Incident{Type: "Breakdown"})

	_, err := f.service.Advance(id)
	require.NoError(t, err)
	_, err = f.service.Advance(id)
	require.NoError(t, err)

	_, err = f.service.Advance(id)
	assert.ErrorIs(t, err, ErrAlreadyResolved)

	// Still resolved, not wrapped around.
	got, err := f.service.ByState(models.IncidentResolved)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestAdvanceUnknownIncident(t *testing.T) {
	f := newFixture(t)
	_, err := f.service.Advance("ghost")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestAdvancePublishesStateChange(t *testing.T) {
	f := newFixture(t)
	id := f.file(t, models.Incident{Type: "Breakdown"})

	var states []string
	f.bus.Subscribe(events.KindIncident, func(ev events.Event) {
		if ev.Type == events.StateChanged {
			states = append(states, ev.NewState)
		}
	})

	_, err := f.service.Advance(id)
	require.NoError(t, err)
	_, err = f.service.Advance(id)
	require.NoError(t, err)

	assert.Equal(t, []string{"InProgress", "Resolved"}, states)
}

func TestUpdatePreservesState(t *testing.T) {
	f := newFixture(t)
	id := f.file(t, models.Incident{Type: "Breakdown", Description: "engine light"})
	_, err := f.service.Advance(id)
	require.NoError(t, err)

	require.NoError(t, f.service.Update(&models.Incident{
		ID:          id,
		VehicleID:   f.vehicleID,
		Type:        "Breakdown",
		Description: "engine light, now smoking",
		State:       models.IncidentPending, // ignored
	}))

	got, err := f.service.ByState(models.IncidentInProgress)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "engine light, now smoking", got[0].Description)
}

func TestDelete(t *testing.T) {
	f := newFixture(t)
	id := f.file(t, models.Incident{Type: "Breakdown"})

	var deleted []string
	f.bus.Subscribe(events.KindIncident, func(ev events.Event) {
		if ev.Type == events.Deleted {
			deleted = append(deleted, ev.ID)
		}
	})

	require.NoError(t, f.service.Delete(id))
	assert.Equal(t, []string{id}, deleted)

	all, err := f.service.ByState("")
	require.NoError(t, err)
	assert.Empty(t, all)
}
