// Package supervisor schedules sync work across scopes.
package supervisor

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/catsync/catsync/model"
)

// Store lists the scopes needing work and arbitrates the single-writer
// claim per scope.
type Store interface {
	GetActiveSyncStates() ([]*model.SyncState, error)
	TryAcquireSync(scope, owner string) (bool, error)
	ReleaseSync(scope, owner string) error
}

// BatchStepper executes one batch for a scope, reporting whether the
// scope is done being driven for now.
type BatchStepper interface {
	Step(ctx context.Context, scope string) (bool, error)
}

// Supervisor periodically finds scopes with active runs and drives
// their engine batches in series. Each scope is claimed before any
// batch runs, so two supervisor instances never write the same
// checkpoint; control state is re-checked by the engine at every batch
// boundary.
type Supervisor struct {
	logger     log.FieldLogger
	store      Store
	engine     BatchStepper
	instanceID string
	tick       time.Duration
}

// NewSupervisor returns a Supervisor prepared with the needed metadata
// to operate.
func NewSupervisor(store Store, engine BatchStepper, tick time.Duration, logger log.FieldLogger) *Supervisor {
	instanceID := model.NewID()
	return &Supervisor{
		logger:     logger.WithField("supervisor", instanceID),
		store:      store,
		engine:     engine,
		instanceID: instanceID,
		tick:       tick,
	}
}

// Start runs the Supervisor's main routine on a new goroutine both
// periodically and forever.
func (s *Supervisor) Start() {
	s.logger.Info("Supervisor started")
	go func() {
		for {
			s.Supervise()
			time.Sleep(s.tick)
		}
	}()
}

// Supervise performs a single scheduling pass: claim each active
// scope, drive its batches until the engine reports it is done, and
// release the claim.
func (s *Supervisor) Supervise() {
	states, err := s.store.GetActiveSyncStates()
	if err != nil {
		s.logger.WithError(err).Error("Failed to query database for active syncs")
		return
	}

	for _, state := range states {
		s.superviseScope(state.Scope)
	}
}

func (s *Supervisor) superviseScope(scope string) {
	logger := s.logger.WithField("scope", scope)

	acquired, err := s.store.TryAcquireSync(scope, s.instanceID)
	if err != nil {
		logger.WithError(err).Error("Failed to try to acquire sync")
		return
	}
	if !acquired {
		// Another instance is already driving this scope.
		return
	}
	defer func() {
		err := s.store.ReleaseSync(scope, s.instanceID)
		if err != nil {
			logger.WithError(err).Error("Failed to release sync")
		}
	}()

	for {
		done, err := s.engine.Step(context.Background(), scope)
		if err != nil {
			logger.WithError(err).Error("Sync batch failed")
			return
		}
		if done {
			return
		}
	}
}
