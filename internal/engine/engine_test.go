package engine

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fleetsmart/internal/config"
	"fleetsmart/internal/events"
	"fleetsmart/internal/models"
	"fleetsmart/internal/repos"
	"fleetsmart/internal/store"
)

type recordingNotifier struct {
	routeAssigned [][2]string
	fail          error
}

func (n *recordingNotifier) RouteAssigned(driverID, routeID string) error {
	if n.fail != nil {
		return n.fail
	}
	n.routeAssigned = append(n.routeAssigned, [2]string{driverID, routeID})
	return nil
}

type fixture struct {
	store       *store.MemStore
	assignments *repos.AssignmentRepo
	routes      *repos.RouteRepo
	drivers     *repos.DriverRepo
	vehicles    *repos.VehicleRepo
	bus         *events.Bus
	notifier    *recordingNotifier
	engine      *Engine
	session     *config.Session

	routeID   string
	driverID  string
	vehicleID string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	m := store.NewMemStore()
	f := &fixture{
		store:       m,
		assignments: repos.NewAssignmentRepo(m),
		routes:      repos.NewRouteRepo(m),
		drivers:     repos.NewDriverRepo(m),
		vehicles:    repos.NewVehicleRepo(m),
		bus:         events.NewBus(),
		notifier:    &recordingNotifier{},
	}
	f.engine = New(f.assignments, f.routes, f.drivers, f.vehicles, f.bus, f.notifier)
	f.session = &config.Session{ManagerID: "mgr-1"}

	var err error
	f.routeID, err = f.routes.Create(&models.Route{Name: "North loop", State: models.RoutePending})
	require.NoError(t, err)
	f.driverID, err = f.drivers.Create(&models.Driver{FullName: "Ana Gomez"})
	require.NoError(t, err)
	f.vehicleID, err = f.vehicles.Create(&models.Vehicle{Plate: "AAA-111"})
	require.NoError(t, err)
	return f
}

func (f *fixture) addRoute(t *testing.T, name string) string {
	t.Helper()
	id, err := f.routes.Create(&models.Route{Name: name, State: models.RoutePending})
	require.NoError(t, err)
	return id
}

func (f *fixture) addDriver(t *testing.T, name string) string {
	t.Helper()
	id, err := f.drivers.Create(&models.Driver{FullName: name})
	require.NoError(t, err)
	return id
}

func (f *fixture) addVehicle(t *testing.T, plate string) string {
	t.Helper()
	id, err := f.vehicles.Create(&models.Vehicle{Plate: plate})
	require.NoError(t, err)
	return id
}

func (f *fixture) commit(t *testing.T, routeID, driverID, vehicleID string) string {
	t.Helper()
	v, err := f.engine.ValidateNewAssignment(routeID, driverID, vehicleID)
	require.NoError(t, err)
	id, err := f.engine.CommitAssignment(f.session, &models.Assignment{RouteID: routeID, DriverID: driverID, VehicleID: vehicleID}, v.ReplacesAssignmentID)
	require.NoError(t, err)
	return id
}

func TestValidateMissingSelection(t *testing.T) {
	f := newFixture(t)
	_, err := f.engine.ValidateNewAssignment("", f.driverID, f.vehicleID)
	assert.ErrorIs(t, err, ErrMissingSelection)
	_, err = f.engine.ValidateNewAssignment(f.routeID, "", f.vehicleID)
	assert.ErrorIs(t, err, ErrMissingSelection)
	_, err = f.engine.ValidateNewAssignment(f.routeID, f.driverID, "")
	assert.ErrorIs(t, err, ErrMissingSelection)
}

func TestCleanAssignment(t *testing.T) {
	f := newFixture(t)

	id := f.commit(t, f.routeID, f.driverID, f.vehicleID)

	a, err := f.assignments.Get(id)
	require.NoError(t, err)
	assert.Equal(t, "North loop", a.RouteName)
	assert.Equal(t, "Ana Gomez", a.DriverName)
	assert.Equal(t, "AAA-111", a.VehiclePlate)
	assert.Equal(t, models.AssignmentPending, a.State)
	assert.False(t, a.StartedAt.IsZero())

	driver, err := f.drivers.Get(f.driverID)
	require.NoError(t, err)
	assert.Equal(t, models.DriverAssigned, driver.State)
	vehicle, err := f.vehicles.Get(f.vehicleID)
	require.NoError(t, err)
	assert.Equal(t, models.VehicleAssigned, vehicle.State)

	require.Len(t, f.notifier.routeAssigned, 1)
	assert.Equal(t, [2]string{f.driverID, f.routeID}, f.notifier.routeAssigned[0])
}

// The acting manager's id must survive past the request, not just appear in a
// log line.
func TestCommitRecordsActingManager(t *testing.T) {
	f := newFixture(t)

	id := f.commit(t, f.routeID, f.driverID, f.vehicleID)

	a, err := f.assignments.Get(id)
	require.NoError(t, err)
	assert.Equal(t, "mgr-1", a.AssignedBy)

	// A different manager on the same engine stamps their own id.
	otherRoute := f.addRoute(t, "South loop")
	otherDriver := f.addDriver(t, "Luis Marin")
	otherVehicle := f.addVehicle(t, "BBB-222")
	id2, err := f.engine.CommitAssignment(&config.Session{ManagerID: "mgr-2"},
		&models.Assignment{RouteID: otherRoute, DriverID: otherDriver, VehicleID: otherVehicle}, "")
	require.NoError(t, err)
	a2, err := f.assignments.Get(id2)
	require.NoError(t, err)
	assert.Equal(t, "mgr-2", a2.AssignedBy)
}

func TestRouteConflictIsHardFailure(t *testing.T) {
	f := newFixture(t)
	f.commit(t, f.routeID, f.driverID, f.vehicleID)

	otherDriver := f.addDriver(t, "Luis Marin")
	otherVehicle := f.addVehicle(t, "BBB-222")

	_, err := f.engine.ValidateNewAssignment(f.routeID, otherDriver, otherVehicle)
	var conflict *RouteConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, "North loop", conflict.Existing.RouteName)

	// Nothing was written.
	all, err := f.assignments.All()
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestVehicleConflictIsHardFailure(t *testing.T) {
	f := newFixture(t)
	f.commit(t, f.routeID, f.driverID, f.vehicleID)

	otherRoute := f.addRoute(t, "South loop")
	otherDriver := f.addDriver(t, "Luis Marin")

	_, err := f.engine.ValidateNewAssignment(otherRoute, otherDriver, f.vehicleID)
	var conflict *VehicleConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, "AAA-111", conflict.Existing.VehiclePlate)
}

func TestDriverConflictIsConfirmable(t *testing.T) {
	f := newFixture(t)
	firstID := f.commit(t, f.routeID, f.driverID, f.vehicleID)

	otherRoute := f.addRoute(t, "South loop")
	otherVehicle := f.addVehicle(t, "BBB-222")

	v, err := f.engine.ValidateNewAssignment(otherRoute, f.driverID, otherVehicle)
	require.NoError(t, err)
	assert.True(t, v.DriverReassignment)
	assert.Equal(t, firstID, v.ReplacesAssignmentID)
	assert.Equal(t, "North loop", v.PriorRouteName)
}

// A driver conflict must not mask a vehicle conflict: both would otherwise
// surface one confirmation too late.
func TestVehicleCheckRunsAfterDriverConflict(t *testing.T) {
	f := newFixture(t)
	f.commit(t, f.routeID, f.driverID, f.vehicleID)

	busyVehicle := f.addVehicle(t, "BBB-222")
	otherDriver := f.addDriver(t, "Luis Marin")
	otherRoute := f.addRoute(t, "South loop")
	f.commit(t, otherRoute, otherDriver, busyVehicle)

	thirdRoute := f.addRoute(t, "East loop")
	_, err := f.engine.ValidateNewAssignment(thirdRoute, f.driverID, busyVehicle)
	var conflict *VehicleConflictError
	require.ErrorAs(t, err, &conflict)
}

func TestConfirmedReassignmentReplacesPrior(t *testing.T) {
	f := newFixture(t)
	firstID := f.commit(t, f.routeID, f.driverID, f.vehicleID)

	otherRoute := f.addRoute(t, "South loop")
	otherVehicle := f.addVehicle(t, "BBB-222")

	var deleted, created []string
	f.bus.Subscribe(events.KindAssignment, func(ev events.Event) {
		switch ev.Type {
		case events.Deleted:
			deleted = append(deleted, ev.ID)
		case events.Created:
			created = append(created, ev.ID)
		}
	})

	v, err := f.engine.ValidateNewAssignment(otherRoute, f.driverID, otherVehicle)
	require.NoError(t, err)
	require.True(t, v.DriverReassignment)

	newID, err := f.engine.CommitAssignment(f.session,
		&models.Assignment{RouteID: otherRoute, DriverID: f.driverID, VehicleID: otherVehicle},
		v.ReplacesAssignmentID,
	)
	require.NoError(t, err)

	// The prior assignment is gone; only the new one is active.
	_, err = f.assignments.Get(firstID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	all, err := f.assignments.All()
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, newID, all[0].ID)

	// Delete published before the replacement's create.
	require.Equal(t, []string{firstID}, deleted)
	require.Equal(t, []string{newID}, created)

	// Prior vehicle freed, new vehicle taken, driver still assigned.
	priorVehicle, err := f.vehicles.Get(f.vehicleID)
	require.NoError(t, err)
	assert.Equal(t, models.VehicleAvailable, priorVehicle.State)
	takenVehicle, err := f.vehicles.Get(otherVehicle)
	require.NoError(t, err)
	assert.Equal(t, models.VehicleAssigned, takenVehicle.State)
	driver, err := f.drivers.Get(f.driverID)
	require.NoError(t, err)
	assert.Equal(t, models.DriverAssigned, driver.State)
}

func TestReassignmentWithVanishedPrior(t *testing.T) {
	f := newFixture(t)
	firstID := f.commit(t, f.routeID, f.driverID, f.vehicleID)

	// Someone else released the prior assignment between validate and
	// commit. The commit proceeds as if no replacement were needed.
	require.NoError(t, f.engine.ReleaseAssignment(f.session, firstID))

	otherRoute := f.addRoute(t, "South loop")
	otherVehicle := f.addVehicle(t, "BBB-222")
	_, err := f.engine.CommitAssignment(f.session,
		&models.Assignment{RouteID: otherRoute, DriverID: f.driverID, VehicleID: otherVehicle},
		firstID,
	)
	require.NoError(t, err)
}

func TestReleaseFreesEverything(t *testing.T) {
	f := newFixture(t)
	id := f.commit(t, f.routeID, f.driverID, f.vehicleID)

	require.NoError(t, f.engine.ReleaseAssignment(f.session, id))

	_, found, err := f.assignments.ByRoute(f.routeID)
	require.NoError(t, err)
	assert.False(t, found)

	driver, err := f.drivers.Get(f.driverID)
	require.NoError(t, err)
	assert.Equal(t, models.DriverAvailable, driver.State)
	vehicle, err := f.vehicles.Get(f.vehicleID)
	require.NoError(t, err)
	assert.Equal(t, models.VehicleAvailable, vehicle.State)
}

func TestReleaseTwice(t *testing.T) {
	f := newFixture(t)
	id := f.commit(t, f.routeID, f.driverID, f.vehicleID)

	require.NoError(t, f.engine.ReleaseAssignment(f.session, id))
	assert.ErrorIs(t, f.engine.ReleaseAssignment(f.session, id), store.ErrNotFound)
}

func TestRouteFreedByReleaseIsAssignableAgain(t *testing.T) {
	f := newFixture(t)
	id := f.commit(t, f.routeID, f.driverID, f.vehicleID)
	require.NoError(t, f.engine.ReleaseAssignment(f.session, id))

	otherDriver := f.addDriver(t, "Luis Marin")
	otherVehicle := f.addVehicle(t, "BBB-222")
	f.commit(t, f.routeID, otherDriver, otherVehicle)
}

func TestValidationSurfacesStoreFailure(t *testing.T) {
	f := newFixture(t)
	boom := errors.New("store unreachable")
	f.store.FailWith(boom)

	_, err := f.engine.ValidateNewAssignment(f.routeID, f.driverID, f.vehicleID)
	assert.ErrorIs(t, err, boom)
}

func TestCommitSurfacesStoreFailure(t *testing.T) {
	f := newFixture(t)
	boom := errors.New("store unreachable")
	f.store.FailWith(boom)

	_, err := f.engine.CommitAssignment(f.session, &models.Assignment{
		RouteID: f.routeID, DriverID: f.driverID, VehicleID: f.vehicleID,
	}, "")
	assert.ErrorIs(t, err, boom)

	// Nothing was notified for a failed commit.
	assert.Empty(t, f.notifier.routeAssigned)
}

func TestNotificationFailureDoesNotFailCommit(t *testing.T) {
	f := newFixture(t)
	f.notifier.fail = errors.New("relay down")

	id := f.commit(t, f.routeID, f.driverID, f.vehicleID)
	_, err := f.assignments.Get(id)
	assert.NoError(t, err)
}

func TestCreatedEventCarriesDenormalizedEntity(t *testing.T) {
	f := newFixture(t)

	var got models.Assignment
	f.bus.Subscribe(events.KindAssignment, func(ev events.Event) {
		if ev.Type == events.Created {
			got = ev.Entity.(models.Assignment)
		}
	})
	f.commit(t, f.routeID, f.driverID, f.vehicleID)

	assert.Equal(t, "North loop", got.RouteName)
	assert.Equal(t, "Ana Gomez", got.DriverName)
	assert.Equal(t, "AAA-111", got.VehiclePlate)
}
