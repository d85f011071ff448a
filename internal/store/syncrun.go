package store

import (
	"database/sql"

	sq "github.com/Masterminds/squirrel"
	"github.com/pkg/errors"

	"github.com/catsync/catsync/model"
)

// SyncRunTableName holds the append-only run history.
const SyncRunTableName = "SyncRun"

var syncRunSelect sq.SelectBuilder

func init() {
	syncRunSelect = sq.
		Select(
			"ID",
			"Scope",
			"Status",
			"Processed",
			"Created",
			"Updated",
			"Failed",
			"StartAt",
			"CompleteAt",
			"Error",
		).
		From(SyncRunTableName)
}

// GetSyncRun fetches a single run by identifier, returning nil if it
// does not exist.
func (sqlStore *SQLStore) GetSyncRun(id string) (*model.SyncRun, error) {
	run := new(model.SyncRun)
	err := sqlStore.getBuilder(sqlStore.db, run,
		syncRunSelect.Where("ID = ?", id))

	if err == sql.ErrNoRows {
		return nil, nil
	} else if err != nil {
		return nil, errors.Wrap(err, "failed to get sync run by id")
	}

	return run, nil
}

// GetSyncRunsByScope fetches the run history of a scope, newest first.
func (sqlStore *SQLStore) GetSyncRunsByScope(scope string) ([]*model.SyncRun, error) {
	runs := []*model.SyncRun{}
	err := sqlStore.selectBuilder(sqlStore.db, &runs,
		syncRunSelect.
			Where("Scope = ?", scope).
			OrderBy("StartAt DESC"))
	if err != nil {
		return nil, errors.Wrap(err, "failed to get sync runs by scope")
	}

	return runs, nil
}

// CreateSyncRun stores a new history row at run start.
func (sqlStore *SQLStore) CreateSyncRun(run *model.SyncRun) error {
	_, err := sqlStore.execBuilder(sqlStore.db, sq.
		Insert(SyncRunTableName).
		SetMap(map[string]interface{}{
			"ID":         run.ID,
			"Scope":      run.Scope,
			"Status":     run.Status,
			"Processed":  run.Processed,
			"Created":    run.Created,
			"Updated":    run.Updated,
			"Failed":     run.Failed,
			"StartAt":    run.StartAt,
			"CompleteAt": run.CompleteAt,
			"Error":      run.Error,
		}),
	)
	return errors.Wrapf(err, "failed to create sync run %s", run.ID)
}

// UpdateSyncRun seals a history row once its run reaches a terminal
// status. Sealed rows are never mutated again.
func (sqlStore *SQLStore) UpdateSyncRun(run *model.SyncRun) error {
	_, err := sqlStore.execBuilder(sqlStore.db, sq.
		Update(SyncRunTableName).
		SetMap(map[string]interface{}{
			"Status":     run.Status,
			"Processed":  run.Processed,
			"Created":    run.Created,
			"Updated":    run.Updated,
			"Failed":     run.Failed,
			"CompleteAt": run.CompleteAt,
			"Error":      run.Error,
		}).
		Where("ID = ?", run.ID).
		Where("CompleteAt = ?", 0),
	)
	return errors.Wrapf(err, "failed to update sync run %s", run.ID)
}
