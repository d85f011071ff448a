package store

import (
	"database/sql"

	sq "github.com/Masterminds/squirrel"
	"github.com/pkg/errors"

	"github.com/catsync/catsync/model"
)

// SyncStateTableName holds the checkpoint rows, one per scope.
const SyncStateTableName = "SyncState"

var syncStateSelect sq.SelectBuilder

func init() {
	syncStateSelect = sq.
		Select(
			"Scope",
			"Status",
			"RunID",
			"Cursor",
			"BatchSize",
			"FailureCount",
			"Processed",
			"Created",
			"Updated",
			"Failed",
			"ItemLimit",
			"LockedBy",
			"CreateAt",
			"UpdateAt",
		).
		From(SyncStateTableName)
}

// GetSyncState fetches the checkpoint for a scope, returning nil if
// the scope has never been synced.
func (sqlStore *SQLStore) GetSyncState(scope string) (*model.SyncState, error) {
	state := new(model.SyncState)
	err := sqlStore.getBuilder(sqlStore.db, state,
		syncStateSelect.Where("Scope = ?", scope))

	if err == sql.ErrNoRows {
		return nil, nil
	} else if err != nil {
		return nil, errors.Wrap(err, "failed to get sync state by scope")
	}

	return state, nil
}

// GetAllSyncStates fetches the checkpoints of every known scope.
func (sqlStore *SQLStore) GetAllSyncStates() ([]*model.SyncState, error) {
	states := []*model.SyncState{}
	err := sqlStore.selectBuilder(sqlStore.db, &states,
		syncStateSelect.OrderBy("Scope ASC"))
	if err != nil {
		return nil, errors.Wrap(err, "failed to get sync states")
	}

	return states, nil
}

// GetActiveSyncStates fetches every scope the engine still has work
// for, including runs with a pending pause or cancel to commit.
func (sqlStore *SQLStore) GetActiveSyncStates() ([]*model.SyncState, error) {
	states := []*model.SyncState{}
	err := sqlStore.selectBuilder(sqlStore.db, &states,
		syncStateSelect.
			Where(sq.Eq{"Status": []model.SyncStatus{
				model.SyncStatusRunning,
				model.SyncStatusPausing,
				model.SyncStatusStopping,
			}}).
			OrderBy("UpdateAt ASC"))
	if err != nil {
		return nil, errors.Wrap(err, "failed to get active sync states")
	}

	return states, nil
}

// CreateSyncState stores a fresh checkpoint for a scope.
func (sqlStore *SQLStore) CreateSyncState(state *model.SyncState) error {
	_, err := sqlStore.execBuilder(sqlStore.db, sq.
		Insert(SyncStateTableName).
		SetMap(map[string]interface{}{
			"Scope":        state.Scope,
			"Status":       state.Status,
			"RunID":        state.RunID,
			"Cursor":       state.Cursor,
			"BatchSize":    state.BatchSize,
			"FailureCount": state.FailureCount,
			"Processed":    state.Processed,
			"Created":      state.Created,
			"Updated":      state.Updated,
			"Failed":       state.Failed,
			"ItemLimit":    state.ItemLimit,
			"LockedBy":     state.LockedBy,
			"CreateAt":     state.CreateAt,
			"UpdateAt":     state.UpdateAt,
		}),
	)
	return errors.Wrapf(err, "failed to create sync state for scope %s", state.Scope)
}

// UpdateSyncState persists the checkpoint after a batch. A write
// failure here is fatal to the run: without a durable checkpoint the
// pause and resume semantics cannot be trusted.
func (sqlStore *SQLStore) UpdateSyncState(state *model.SyncState) error {
	_, err := sqlStore.execBuilder(sqlStore.db, sq.
		Update(SyncStateTableName).
		SetMap(map[string]interface{}{
			"Status":       state.Status,
			"RunID":        state.RunID,
			"Cursor":       state.Cursor,
			"BatchSize":    state.BatchSize,
			"FailureCount": state.FailureCount,
			"Processed":    state.Processed,
			"Created":      state.Created,
			"Updated":      state.Updated,
			"Failed":       state.Failed,
			"ItemLimit":    state.ItemLimit,
			"UpdateAt":     state.UpdateAt,
		}).
		Where("Scope = ?", state.Scope),
	)
	return errors.Wrapf(err, "failed to update sync state for scope %s", state.Scope)
}

// RequestSyncTransition atomically moves a scope from one status to
// another, returning false if the scope was no longer in the expected
// status. This is the check-and-set gate behind the control surface and
// the single-flight guarantee.
func (sqlStore *SQLStore) RequestSyncTransition(scope string, from, to model.SyncStatus) (bool, error) {
	if !from.CanTransitionTo(to) {
		return false, errors.Errorf("transition from %s to %s is not allowed", from, to)
	}

	result, err := sqlStore.execBuilder(sqlStore.db, sq.
		Update(SyncStateTableName).
		SetMap(map[string]interface{}{
			"Status":   to,
			"UpdateAt": model.Timestamp(),
		}).
		Where("Scope = ?", scope).
		Where("Status = ?", from),
	)
	if err != nil {
		return false, errors.Wrapf(err, "failed to transition scope %s from %s to %s", scope, from, to)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, errors.Wrap(err, "failed to count affected rows")
	}

	return rows == 1, nil
}

// TryAcquireSync claims the writer role for a scope on behalf of
// owner. Only the holder may mutate the checkpoint; readers are
// unaffected.
func (sqlStore *SQLStore) TryAcquireSync(scope, owner string) (bool, error) {
	result, err := sqlStore.execBuilder(sqlStore.db, sq.
		Update(SyncStateTableName).
		SetMap(map[string]interface{}{
			"LockedBy": owner,
		}).
		Where("Scope = ?", scope).
		Where("LockedBy = ?", ""),
	)
	if err != nil {
		return false, errors.Wrapf(err, "failed to acquire sync for scope %s", scope)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, errors.Wrap(err, "failed to count affected rows")
	}

	return rows == 1, nil
}

// ReleaseSync releases the writer claim on a scope if owner still
// holds it.
func (sqlStore *SQLStore) ReleaseSync(scope, owner string) error {
	_, err := sqlStore.execBuilder(sqlStore.db, sq.
		Update(SyncStateTableName).
		SetMap(map[string]interface{}{
			"LockedBy": "",
		}).
		Where("Scope = ?", scope).
		Where("LockedBy = ?", owner),
	)
	return errors.Wrapf(err, "failed to release sync for scope %s", scope)
}
