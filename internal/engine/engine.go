// Package engine drives the page-by-page catalog import as a resumable
// state machine.
//
// The engine never runs as one long-lived loop. Each call to Step
// executes exactly one batch: it re-reads control state, fetches one
// page, processes its items, and persists the checkpoint. Pause and
// cancel requests are observed only at these boundaries, so a batch is
// either fully applied or the run stops before the next one begins;
// partially applied batches are never committed as a checkpoint.
package engine

import (
	"context"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/catsync/catsync/internal/config"
	"github.com/catsync/catsync/internal/pricing"
	"github.com/catsync/catsync/internal/vendor"
	"github.com/catsync/catsync/model"
)

// Store is the durable checkpoint and history access the engine
// needs. Only the engine instance holding the scope's writer claim may
// call the mutating methods.
type Store interface {
	GetSyncState(scope string) (*model.SyncState, error)
	UpdateSyncState(state *model.SyncState) error
	GetSyncRun(id string) (*model.SyncRun, error)
	UpdateSyncRun(run *model.SyncRun) error
}

// CatalogFetcher retrieves one page of the remote catalog.
type CatalogFetcher interface {
	FetchProducts(ctx context.Context, page, pageSize int64, filters model.CatalogFilters) (*vendor.ProductPage, error)
}

// ProductUpserter reconciles a normalized item into the local store by
// its external reference. It must be idempotent so a crashed batch can
// be retried at the same cursor.
type ProductUpserter interface {
	UpsertProduct(externalRef string, fields model.ProductFields, protection model.FieldProtection) (*model.ProductUpsertResult, error)
}

// TextTranslator translates a single text field.
type TextTranslator interface {
	Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error)
}

// TermResolver maps vendor category and model identifiers onto local
// taxonomy terms.
type TermResolver interface {
	Resolve(kind model.TermKind, externalID int64) (*model.TaxonomyTerm, error)
}

// Engine executes sync batches for any scope, looking up that scope's
// settings per step.
type Engine struct {
	store      Store
	fetcher    CatalogFetcher
	upserter   ProductUpserter
	translator TextTranslator
	resolver   TermResolver
	settings   *config.Resolver
	logger     logrus.FieldLogger
}

// New assembles an Engine.
func New(store Store, fetcher CatalogFetcher, upserter ProductUpserter, translator TextTranslator, resolver TermResolver, settings *config.Resolver, logger logrus.FieldLogger) *Engine {
	return &Engine{
		store:      store,
		fetcher:    fetcher,
		upserter:   upserter,
		translator: translator,
		resolver:   resolver,
		settings:   settings,
		logger:     logger,
	}
}

// Step runs one batch for the scope and reports whether the caller
// should stop driving it: true when the run reached a terminal or
// paused status, or when the checkpoint can no longer be trusted.
func (e *Engine) Step(ctx context.Context, scope string) (bool, error) {
	state, err := e.store.GetSyncState(scope)
	if err != nil {
		return true, errors.Wrap(err, "failed to load sync state")
	}
	if state == nil {
		return true, errors.Errorf("no sync state exists for scope %s", scope)
	}

	logger := e.logger.WithFields(logrus.Fields{
		"scope": scope,
		"run":   state.RunID,
	})

	switch state.Status {
	case model.SyncStatusStopping:
		err = e.finish(state, model.SyncStatusStopped, "", logger)
		return true, err
	case model.SyncStatusPausing:
		state.Status = model.SyncStatusPaused
		state.UpdateAt = model.Timestamp()
		err = e.store.UpdateSyncState(state)
		if err != nil {
			return true, errors.Wrap(err, "failed to commit pause")
		}
		logger.WithField("cursor", state.Cursor).Info("Sync paused")
		return true, nil
	case model.SyncStatusRunning:
	default:
		// Nothing to drive; paused and terminal scopes wait for the
		// control surface.
		return true, nil
	}

	settings := e.settings.Settings(scope)

	pageSize := state.BatchSize
	if state.ItemLimit > 0 {
		remaining := state.ItemLimit - state.Processed
		if remaining <= 0 {
			err = e.finish(state, model.SyncStatusCompleted, "", logger)
			return true, err
		}
		if remaining < pageSize {
			pageSize = remaining
		}
	}

	page, err := e.fetcher.FetchProducts(ctx, state.Cursor, pageSize, settings.Filters)
	if err != nil {
		return e.handleFetchFailure(state, settings, err, logger)
	}

	protection := settings.Protection()
	var processed, created, updated, failed int64
	for _, item := range page.Items {
		processed++
		result, err := e.processItem(ctx, settings, protection, item)
		if err != nil {
			// One bad record must not sink the batch.
			failed++
			logger.WithError(err).WithField("item", item.ExternalRef).Warn("Failed to process catalog item")
			continue
		}
		if result.Created {
			created++
		} else if result.Updated {
			updated++
		}
	}

	state.Cursor++
	state.Processed += processed
	state.Created += created
	state.Updated += updated
	state.Failed += failed
	state.FailureCount = 0
	state.BatchSize = growBatch(state.BatchSize, settings.MaxBatchSize)
	state.UpdateAt = model.Timestamp()

	limitReached := state.ItemLimit > 0 && state.Processed >= state.ItemLimit
	if page.IsLastPage || int64(len(page.Items)) < pageSize || limitReached {
		err = e.finish(state, model.SyncStatusCompleted, "", logger)
		return true, err
	}

	err = e.store.UpdateSyncState(state)
	if err != nil {
		// Without a durable checkpoint, resuming could double-apply or
		// lose pages; abort rather than proceed blind.
		return true, errors.Wrap(err, "failed to persist sync checkpoint")
	}

	logger.WithFields(logrus.Fields{
		"cursor":    state.Cursor,
		"processed": processed,
		"failed":    failed,
	}).Debug("Committed sync batch")

	return false, nil
}

// handleFetchFailure applies the adaptive batching policy: shrink the
// page size and retry the same cursor, going fatal once the
// consecutive failure threshold is exceeded.
func (e *Engine) handleFetchFailure(state *model.SyncState, settings config.Settings, fetchErr error, logger logrus.FieldLogger) (bool, error) {
	state.FailureCount++

	if state.FailureCount > settings.FatalFailureThreshold {
		logger.WithError(fetchErr).Error("Consecutive fetch failures exceeded the fatal threshold")
		err := e.finish(state, model.SyncStatusFailed, fetchErr.Error(), logger)
		return true, err
	}

	state.BatchSize = shrinkBatch(state.BatchSize, settings.MinBatchSize)
	state.UpdateAt = model.Timestamp()

	err := e.store.UpdateSyncState(state)
	if err != nil {
		return true, errors.Wrap(err, "failed to persist sync checkpoint")
	}

	logger.WithError(fetchErr).WithFields(logrus.Fields{
		"cursor":    state.Cursor,
		"failures":  state.FailureCount,
		"batchSize": state.BatchSize,
	}).Warn("Catalog fetch failed; shrinking batch size and retrying the page")

	return false, nil
}

// processItem normalizes one catalog item end to end: taxonomy
// resolution, text translation, price conversion, and the final
// upsert.
func (e *Engine) processItem(ctx context.Context, settings config.Settings, protection model.FieldProtection, item model.CatalogItem) (*model.ProductUpsertResult, error) {
	if item.ExternalRef == "" {
		return nil, errors.New("catalog item carries no external reference")
	}

	fields := model.ProductFields{Active: item.Active}

	if item.CategoryID > 0 {
		term, err := e.resolver.Resolve(model.TermKindCategory, item.CategoryID)
		if err != nil {
			return nil, errors.Wrap(err, "failed to resolve category")
		}
		fields.CategoryTermID = term.ID
	}
	if item.ModelID > 0 {
		term, err := e.resolver.Resolve(model.TermKindModel, item.ModelID)
		if err != nil {
			return nil, errors.Wrap(err, "failed to resolve model")
		}
		fields.ModelTermID = term.ID
	}

	name, err := e.translator.Translate(ctx, item.Name, settings.SourceLanguage, settings.TargetLanguage)
	if err != nil {
		return nil, errors.Wrap(err, "failed to translate name")
	}
	fields.Name = name

	description, err := e.translator.Translate(ctx, item.Description, settings.SourceLanguage, settings.TargetLanguage)
	if err != nil {
		return nil, errors.Wrap(err, "failed to translate description")
	}
	fields.Description = description

	price, err := pricing.Convert(item.Price, settings.ExchangeRate, settings.MarkupPercent, settings.PricePrecision)
	if err != nil {
		return nil, errors.Wrap(err, "failed to convert price")
	}
	fields.Price = price

	result, err := e.upserter.UpsertProduct(item.ExternalRef, fields, protection)
	if err != nil {
		return nil, errors.Wrap(err, "failed to upsert product")
	}

	return result, nil
}

// finish commits a terminal status and seals the run's history row.
func (e *Engine) finish(state *model.SyncState, status model.SyncStatus, errorMessage string, logger logrus.FieldLogger) error {
	state.Status = status
	state.UpdateAt = model.Timestamp()
	err := e.store.UpdateSyncState(state)
	if err != nil {
		return errors.Wrapf(err, "failed to commit %s", status)
	}

	run, err := e.store.GetSyncRun(state.RunID)
	if err != nil {
		return errors.Wrap(err, "failed to load sync run for sealing")
	}
	if run == nil {
		logger.Warnf("No sync run row found for run %s; history will be incomplete", state.RunID)
		return nil
	}

	run.Seal(status, state, errorMessage)
	err = e.store.UpdateSyncRun(run)
	if err != nil {
		return errors.Wrap(err, "failed to seal sync run")
	}

	logger.WithFields(logrus.Fields{
		"status":    status,
		"processed": state.Processed,
		"created":   state.Created,
		"updated":   state.Updated,
		"failed":    state.Failed,
	}).Info("Sync run finished")

	return nil
}

// shrinkBatch halves the page size, never dropping below the floor.
func shrinkBatch(batchSize, minBatchSize int64) int64 {
	shrunk := batchSize / 2
	if shrunk < minBatchSize {
		return minBatchSize
	}
	return shrunk
}

// growBatch steps the page size back toward the ceiling, one step per
// clean batch.
func growBatch(batchSize, maxBatchSize int64) int64 {
	if batchSize >= maxBatchSize {
		return maxBatchSize
	}
	return batchSize + 1
}
