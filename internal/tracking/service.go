// Package tracking owns the live GPS feed: one long-lived listener on the
// current-positions node, bridged to consumers through a bounded channel.
// The remote listener fires on a goroutine the store owns; nothing on that
// goroutine ever touches consumer state directly. A tracked assignment moves
// NoPosition → HasPosition on its first sample and is dropped entirely when
// the assignment ends.
package tracking

import (
	"errors"
	"sync"

	"github.com/sirupsen/logrus"

	"fleetsmart/internal/events"
	"fleetsmart/internal/models"
	"fleetsmart/internal/repos"
	"fleetsmart/internal/store"
)

// ErrListenerActive is returned when StartListening is called while a
// previous listener is still open. A second remote subscription would leak.
var ErrListenerActive = errors.New("tracking: a listener is already active")

// tickBuffer bounds the notification queue between the remote listener and
// the consumer. The listener carries no diff, so collapsed ticks lose
// nothing — the consumer re-reads the full snapshot either way.
const tickBuffer = 16

type Service struct {
	positions *repos.PositionRepo

	mu     sync.Mutex
	active *Handle
}

func NewService(positions *repos.PositionRepo) *Service {
	return &Service{positions: positions}
}

// Handle stops a running listener. Stop is idempotent and safe to call
// concurrently with deliveries.
type Handle struct {
	remote store.ListenerHandle
	stop   chan struct{}
	once   sync.Once
	svc    *Service
}

func (h *Handle) Stop() {
	h.once.Do(func() {
		h.remote.Close()
		close(h.stop)
		h.svc.mu.Lock()
		if h.svc.active == h {
			h.svc.active = nil
		}
		h.svc.mu.Unlock()
	})
}

// StartListening opens the remote listener and invokes onUpdate with a fresh
// full snapshot after every change tick. onUpdate always runs on the
// consumer goroutine owned by this service, never on the remote listener's
// goroutine. The first snapshot is the caller's responsibility (one explicit
// GetActivePositions before relying on ticks).
func (s *Service) StartListening(onUpdate func([]models.CurrentPosition)) (*Handle, error) {
	s.mu.Lock()
	if s.active != nil {
		s.mu.Unlock()
		return nil, ErrListenerActive
	}

	ticks := make(chan struct{}, tickBuffer)
	remote, err := s.positions.Listen(func() {
		// Remote goroutine: hand off and return. Dropping when full is
		// fine, the pending tick already forces a re-read.
		select {
		case ticks <- struct{}{}:
		default:
		}
	})
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}

	h := &Handle{remote: remote, stop: make(chan struct{}), svc: s}
	s.active = h
	s.mu.Unlock()

	go s.consume(h, ticks, onUpdate)
	logrus.Info("Live position listener started.")
	return h, nil
}

func (s *Service) consume(h *Handle, ticks <-chan struct{}, onUpdate func([]models.CurrentPosition)) {
	for {
		select {
		case <-h.stop:
			logrus.Info("Live position listener stopped.")
			return
		case <-ticks:
			snapshot, err := s.positions.Active()
			if err != nil {
				logrus.WithError(err).Error("Failed to re-read position snapshot after change tick.")
				continue
			}
			onUpdate(snapshot)
		}
	}
}

// StopListening stops the given handle. Nil and already-stopped handles are
// no-ops.
func (s *Service) StopListening(h *Handle) {
	if h != nil {
		h.Stop()
	}
}

// GetActivePositions returns the current snapshot synchronously.
func (s *Service) GetActivePositions() ([]models.CurrentPosition, error) {
	return s.positions.Active()
}

// Record upserts a GPS sample for an active assignment and appends it to
// that assignment's history trail.
func (s *Service) Record(pos *models.CurrentPosition) error {
	return s.positions.Upsert(pos)
}

// History returns an assignment's recorded trail ordered by sample time.
func (s *Service) History(assignmentID string) ([]models.CurrentPosition, error) {
	return s.positions.History(assignmentID)
}

// BindAssignmentLifecycle clears the current-position slot whenever an
// assignment ends, so the map stops showing released vehicles. Returns the
// unsubscribe function.
func (s *Service) BindAssignmentLifecycle(bus *events.Bus) func() {
	return bus.Subscribe(events.KindAssignment, func(ev events.Event) {
		if ev.Type != events.Deleted {
			return
		}
		if err := s.positions.Remove(ev.ID); err != nil {
			logrus.WithError(err).WithField("assignment_id", ev.ID).
				Error("Failed to clear position for ended assignment.")
		}
	})
}
