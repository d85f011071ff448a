package api

import "github.com/catsync/catsync/model"

// Store is the persistence the API needs to answer control requests.
type Store interface {
	GetSyncState(scope string) (*model.SyncState, error)
	GetAllSyncStates() ([]*model.SyncState, error)
	CreateSyncState(state *model.SyncState) error
	UpdateSyncState(state *model.SyncState) error
	RequestSyncTransition(scope string, from, to model.SyncStatus) (bool, error)

	CreateSyncRun(run *model.SyncRun) error
	GetSyncRunsByScope(scope string) ([]*model.SyncRun, error)
}
