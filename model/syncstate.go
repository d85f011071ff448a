package model

// SyncStatus describes where a sync run currently is in its lifecycle.
type SyncStatus string

// The full set of statuses a SyncState may hold. The pausing and
// stopping statuses double as operator intent: the engine observes
// them at a batch boundary and commits the corresponding paused or
// stopped status, never mid-batch.
const (
	SyncStatusIdle      SyncStatus = "idle"
	SyncStatusRunning   SyncStatus = "running"
	SyncStatusPausing   SyncStatus = "pausing"
	SyncStatusPaused    SyncStatus = "paused"
	SyncStatusStopping  SyncStatus = "stopping"
	SyncStatusStopped   SyncStatus = "stopped"
	SyncStatusCompleted SyncStatus = "completed"
	SyncStatusFailed    SyncStatus = "failed"
)

var validTransitions = map[SyncStatus][]SyncStatus{
	SyncStatusIdle:      {SyncStatusRunning},
	SyncStatusRunning:   {SyncStatusPausing, SyncStatusStopping, SyncStatusCompleted, SyncStatusFailed},
	SyncStatusPausing:   {SyncStatusPaused, SyncStatusStopping, SyncStatusCompleted, SyncStatusFailed},
	SyncStatusPaused:    {SyncStatusRunning, SyncStatusStopping},
	SyncStatusStopping:  {SyncStatusStopped},
	SyncStatusStopped:   {SyncStatusRunning},
	SyncStatusCompleted: {SyncStatusRunning},
	SyncStatusFailed:    {SyncStatusRunning},
}

// CanTransitionTo reports whether the state machine permits moving
// from this status directly to next.
func (s SyncStatus) CanTransitionTo(next SyncStatus) bool {
	for _, allowed := range validTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Terminal reports whether the status ends a run. Terminal states
// accept a fresh running transition to begin a new run.
func (s SyncStatus) Terminal() bool {
	return s == SyncStatusCompleted || s == SyncStatusStopped || s == SyncStatusFailed
}

// CanStart reports whether a new run may begin from this status.
func (s SyncStatus) CanStart() bool {
	return s == SyncStatusIdle || s.Terminal()
}

// Active reports whether the engine still has work to do for this
// status, including committing a deferred pause or cancel.
func (s SyncStatus) Active() bool {
	return s == SyncStatusRunning || s == SyncStatusPausing || s == SyncStatusStopping
}

// SyncState is the durable checkpoint for one sync scope. There is at
// most one row per scope; the store's acquire gate guarantees at most
// one writer mutates it at a time while any number of readers poll it.
type SyncState struct {
	Scope        string
	Status       SyncStatus
	RunID        string
	Cursor       int64
	BatchSize    int64
	FailureCount int64
	Processed    int64
	Created      int64
	Updated      int64
	Failed       int64
	ItemLimit    int64
	LockedBy     string
	CreateAt     int64
	UpdateAt     int64
}

// NewSyncState returns the baseline state for a fresh run of the given
// scope, starting at page zero with the configured maximum batch size.
func NewSyncState(scope, runID string, batchSize, itemLimit int64) *SyncState {
	now := Timestamp()
	return &SyncState{
		Scope:     scope,
		Status:    SyncStatusRunning,
		RunID:     runID,
		BatchSize: batchSize,
		ItemLimit: itemLimit,
		CreateAt:  now,
		UpdateAt:  now,
	}
}

// ResetForRun rewinds the checkpoint to the baseline for a new run
// while preserving the row identity of the scope.
func (s *SyncState) ResetForRun(runID string, batchSize, itemLimit int64) {
	s.Status = SyncStatusRunning
	s.RunID = runID
	s.Cursor = 0
	s.BatchSize = batchSize
	s.FailureCount = 0
	s.Processed = 0
	s.Created = 0
	s.Updated = 0
	s.Failed = 0
	s.ItemLimit = itemLimit
	s.UpdateAt = Timestamp()
}
