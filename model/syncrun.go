package model

// Run states derived from the timestamps on a SyncRun.
const (
	SyncRunStateInProgress = "sync-in-progress"
	SyncRunStateComplete   = "sync-complete"
)

// SyncRun is one append-only history row per run of a scope. It is
// created when the run starts and sealed exactly once when the run
// reaches a terminal status; it is never mutated afterwards.
type SyncRun struct {
	ID         string
	Scope      string
	Status     SyncStatus
	Processed  int64
	Created    int64
	Updated    int64
	Failed     int64
	StartAt    int64
	CompleteAt int64
	Error      string
}

// NewSyncRun creates a SyncRun with creation-time metadata for the
// given scope.
func NewSyncRun(scope string) *SyncRun {
	return &SyncRun{
		ID:      NewID(),
		Scope:   scope,
		Status:  SyncStatusRunning,
		StartAt: Timestamp(),
	}
}

// State determines and returns the current state of the run given its
// metadata, without needing a separate attribute in the database.
func (r *SyncRun) State() string {
	if r.CompleteAt == 0 {
		return SyncRunStateInProgress
	}
	return SyncRunStateComplete
}

// Duration returns the wall-clock milliseconds the run took, or the
// elapsed time so far for a run that has not been sealed yet.
func (r *SyncRun) Duration() int64 {
	if r.CompleteAt == 0 {
		return Timestamp() - r.StartAt
	}
	return r.CompleteAt - r.StartAt
}

// Seal marks the run finished with the given terminal status and a
// snapshot of the final counters.
func (r *SyncRun) Seal(status SyncStatus, state *SyncState, errorMessage string) {
	r.Status = status
	r.Processed = state.Processed
	r.Created = state.Created
	r.Updated = state.Updated
	r.Failed = state.Failed
	r.Error = errorMessage
	r.CompleteAt = Timestamp()
}
