package engine

import (
	"context"
	"fmt"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/catsync/catsync/internal/config"
	"github.com/catsync/catsync/internal/testlib"
	"github.com/catsync/catsync/internal/vendor"
	"github.com/catsync/catsync/model"
)

type fakeStore struct {
	states      map[string]*model.SyncState
	runs        map[string]*model.SyncRun
	failUpdates bool
}

func newFakeStore(state *model.SyncState) *fakeStore {
	run := &model.SyncRun{
		ID:      state.RunID,
		Scope:   state.Scope,
		Status:  model.SyncStatusRunning,
		StartAt: model.Timestamp(),
	}
	return &fakeStore{
		states: map[string]*model.SyncState{state.Scope: state},
		runs:   map[string]*model.SyncRun{run.ID: run},
	}
}

func (s *fakeStore) GetSyncState(scope string) (*model.SyncState, error) {
	state, ok := s.states[scope]
	if !ok {
		return nil, nil
	}
	clone := *state
	return &clone, nil
}

func (s *fakeStore) UpdateSyncState(state *model.SyncState) error {
	if s.failUpdates {
		return errors.New("checkpoint write refused")
	}
	clone := *state
	s.states[state.Scope] = &clone
	return nil
}

func (s *fakeStore) GetSyncRun(id string) (*model.SyncRun, error) {
	run, ok := s.runs[id]
	if !ok {
		return nil, nil
	}
	clone := *run
	return &clone, nil
}

func (s *fakeStore) UpdateSyncRun(run *model.SyncRun) error {
	clone := *run
	s.runs[run.ID] = &clone
	return nil
}

type fetchResult struct {
	page *vendor.ProductPage
	err  error
}

type fakeFetcher struct {
	results   []fetchResult
	calls     int
	pages     []int64
	pageSizes []int64
}

func (f *fakeFetcher) FetchProducts(_ context.Context, page, pageSize int64, _ model.CatalogFilters) (*vendor.ProductPage, error) {
	result := f.results[f.calls%len(f.results)]
	f.calls++
	f.pages = append(f.pages, page)
	f.pageSizes = append(f.pageSizes, pageSize)
	return result.page, result.err
}

// fakeUpserter implements the documented upsert contract: created on
// first sight of a reference, updated only when fields actually
// change.
type fakeUpserter struct {
	products map[string]model.ProductFields
	failRefs map[string]bool
	calls    int
}

func (u *fakeUpserter) UpsertProduct(externalRef string, fields model.ProductFields, _ model.FieldProtection) (*model.ProductUpsertResult, error) {
	u.calls++
	if u.failRefs[externalRef] {
		return nil, errors.New("upsert refused")
	}
	if u.products == nil {
		u.products = map[string]model.ProductFields{}
	}

	existing, ok := u.products[externalRef]
	if !ok {
		u.products[externalRef] = fields
		return &model.ProductUpsertResult{Created: true, LocalID: externalRef}, nil
	}
	if existing == fields {
		return &model.ProductUpsertResult{LocalID: externalRef}, nil
	}
	u.products[externalRef] = fields
	return &model.ProductUpsertResult{Updated: true, LocalID: externalRef}, nil
}

type fakeTranslator struct {
	calls int
}

func (t *fakeTranslator) Translate(_ context.Context, text, _, targetLang string) (string, error) {
	t.calls++
	if text == "" {
		return "", nil
	}
	return fmt.Sprintf("%s:%s", targetLang, text), nil
}

type fakeResolver struct{}

func (r *fakeResolver) Resolve(kind model.TermKind, externalID int64) (*model.TaxonomyTerm, error) {
	return &model.TaxonomyTerm{
		ID:         fmt.Sprintf("%s-%d", kind, externalID),
		Kind:       kind,
		ExternalID: externalID,
	}, nil
}

func testSettings(t *testing.T) *config.Resolver {
	cfg := &config.Config{
		Defaults: config.Settings{
			SourceLanguage:        "en",
			TargetLanguage:        "ro",
			ExchangeRate:          4.97,
			MarkupPercent:         20,
			PricePrecision:        2,
			MinBatchSize:          1,
			MaxBatchSize:          10,
			FatalFailureThreshold: 5,
		},
	}
	return cfg.Resolver()
}

func makeItems(n int, offset int64) []model.CatalogItem {
	items := make([]model.CatalogItem, 0, n)
	for i := 0; i < n; i++ {
		items = append(items, model.CatalogItem{
			ExternalRef: fmt.Sprintf("sku-%d", offset+int64(i)),
			Name:        "Widget",
			Description: "A widget",
			Price:       100,
			Currency:    "USD",
			CategoryID:  7,
			ModelID:     3,
			Active:      true,
		})
	}
	return items
}

func newTestEngine(t *testing.T, store *fakeStore, fetcher *fakeFetcher, upserter *fakeUpserter) *Engine {
	return New(store, fetcher, upserter, &fakeTranslator{}, &fakeResolver{}, testSettings(t), testlib.MakeLogger(t))
}

func TestStepCompletesOnShortPage(t *testing.T) {
	state := model.NewSyncState("default", "run1", 10, 0)
	store := newFakeStore(state)
	fetcher := &fakeFetcher{results: []fetchResult{
		{page: &vendor.ProductPage{Items: makeItems(3, 0)}},
	}}
	upserter := &fakeUpserter{}
	e := newTestEngine(t, store, fetcher, upserter)

	done, err := e.Step(context.Background(), "default")
	require.NoError(t, err)
	require.True(t, done)

	final := store.states["default"]
	assert.Equal(t, model.SyncStatusCompleted, final.Status)
	assert.Equal(t, int64(1), final.Cursor)
	assert.Equal(t, int64(3), final.Processed)
	assert.Equal(t, int64(3), final.Created)
	assert.Equal(t, int64(0), final.Failed)

	run := store.runs["run1"]
	assert.Equal(t, model.SyncStatusCompleted, run.Status)
	assert.NotZero(t, run.CompleteAt)
	assert.Equal(t, int64(3), run.Processed)

	// The normalized item carried a translated name and converted
	// price through to the upsert.
	fields := upserter.products["sku-0"]
	assert.Equal(t, "ro:Widget", fields.Name)
	assert.Equal(t, 596.4, fields.Price)
	assert.Equal(t, "category-7", fields.CategoryTermID)
	assert.Equal(t, "model-3", fields.ModelTermID)
}

func TestStepAdaptiveBatching(t *testing.T) {
	state := model.NewSyncState("default", "run1", 10, 0)
	store := newFakeStore(state)
	transportErr := &vendor.TransportError{Op: "products", StatusCode: 503}
	fetcher := &fakeFetcher{results: []fetchResult{
		{err: transportErr},
		{err: transportErr},
		{err: transportErr},
		{page: &vendor.ProductPage{Items: makeItems(1, 0)}},
	}}
	e := newTestEngine(t, store, fetcher, &fakeUpserter{})

	expectedSizes := []int64{5, 2, 1}
	for i, expected := range expectedSizes {
		done, err := e.Step(context.Background(), "default")
		require.NoError(t, err)
		require.False(t, done, "failure %d should not end the run", i+1)

		current := store.states["default"]
		assert.Equal(t, model.SyncStatusRunning, current.Status)
		assert.Equal(t, expected, current.BatchSize)
		assert.Equal(t, int64(i+1), current.FailureCount)
		assert.Equal(t, int64(0), current.Cursor, "the failed page is retried, not skipped")
	}

	// The fourth attempt succeeds with a full page of one item, so the
	// run keeps going: cursor advances, failures reset, batch regrows.
	done, err := e.Step(context.Background(), "default")
	require.NoError(t, err)
	require.False(t, done)

	final := store.states["default"]
	assert.Equal(t, model.SyncStatusRunning, final.Status)
	assert.Equal(t, int64(1), final.Cursor)
	assert.Equal(t, int64(0), final.FailureCount)
	assert.Equal(t, int64(2), final.BatchSize)
}

func TestStepFatalAfterThreshold(t *testing.T) {
	state := model.NewSyncState("default", "run1", 10, 0)
	store := newFakeStore(state)
	fetcher := &fakeFetcher{results: []fetchResult{
		{err: &vendor.TransportError{Op: "products", StatusCode: 502}},
	}}
	e := newTestEngine(t, store, fetcher, &fakeUpserter{})

	// Threshold is 5, so failures 1 through 5 shrink and retry while
	// the 6th goes fatal.
	for i := 0; i < 5; i++ {
		done, err := e.Step(context.Background(), "default")
		require.NoError(t, err)
		require.False(t, done)
	}

	done, err := e.Step(context.Background(), "default")
	require.NoError(t, err)
	require.True(t, done)

	final := store.states["default"]
	assert.Equal(t, model.SyncStatusFailed, final.Status)

	run := store.runs["run1"]
	assert.Equal(t, model.SyncStatusFailed, run.Status)
	assert.NotEmpty(t, run.Error)
	assert.NotZero(t, run.CompleteAt)
}

func TestStepItemFailureDoesNotAbortBatch(t *testing.T) {
	state := model.NewSyncState("default", "run1", 10, 0)
	store := newFakeStore(state)
	fetcher := &fakeFetcher{results: []fetchResult{
		{page: &vendor.ProductPage{Items: makeItems(4, 0), IsLastPage: true}},
	}}
	upserter := &fakeUpserter{failRefs: map[string]bool{"sku-2": true}}
	e := newTestEngine(t, store, fetcher, upserter)

	done, err := e.Step(context.Background(), "default")
	require.NoError(t, err)
	require.True(t, done)

	final := store.states["default"]
	assert.Equal(t, model.SyncStatusCompleted, final.Status)
	assert.Equal(t, int64(4), final.Processed)
	assert.Equal(t, int64(3), final.Created)
	assert.Equal(t, int64(1), final.Failed)
}

func TestStepCommitsPauseAtBoundary(t *testing.T) {
	state := model.NewSyncState("default", "run1", 10, 0)
	store := newFakeStore(state)
	fetcher := &fakeFetcher{results: []fetchResult{
		{page: &vendor.ProductPage{Items: makeItems(10, 0)}},
		{page: &vendor.ProductPage{Items: makeItems(2, 10)}},
	}}
	e := newTestEngine(t, store, fetcher, &fakeUpserter{})

	// Batch 0 applies fully.
	done, err := e.Step(context.Background(), "default")
	require.NoError(t, err)
	require.False(t, done)
	require.Equal(t, int64(1), store.states["default"].Cursor)

	// An operator requests a pause between batches.
	store.states["default"].Status = model.SyncStatusPausing

	done, err = e.Step(context.Background(), "default")
	require.NoError(t, err)
	require.True(t, done)
	assert.Equal(t, model.SyncStatusPaused, store.states["default"].Status)
	assert.Equal(t, 1, fetcher.calls, "a pausing run must not fetch another page")

	// Resuming continues from the saved cursor, not from zero.
	store.states["default"].Status = model.SyncStatusRunning

	done, err = e.Step(context.Background(), "default")
	require.NoError(t, err)
	require.True(t, done)
	assert.Equal(t, model.SyncStatusCompleted, store.states["default"].Status)
	require.Len(t, fetcher.pages, 2)
	assert.Equal(t, int64(1), fetcher.pages[1])
}

func TestStepCommitsCancelAtBoundary(t *testing.T) {
	state := model.NewSyncState("default", "run1", 10, 0)
	state.Status = model.SyncStatusStopping
	state.Cursor = 4
	store := newFakeStore(state)
	fetcher := &fakeFetcher{results: []fetchResult{
		{page: &vendor.ProductPage{Items: makeItems(10, 0)}},
	}}
	e := newTestEngine(t, store, fetcher, &fakeUpserter{})

	done, err := e.Step(context.Background(), "default")
	require.NoError(t, err)
	require.True(t, done)

	final := store.states["default"]
	assert.Equal(t, model.SyncStatusStopped, final.Status)
	assert.Equal(t, int64(4), final.Cursor, "the checkpoint survives a cancel")
	assert.Equal(t, 0, fetcher.calls)

	run := store.runs["run1"]
	assert.Equal(t, model.SyncStatusStopped, run.Status)
	assert.NotZero(t, run.CompleteAt)
}

func TestStepHonorsItemLimit(t *testing.T) {
	state := model.NewSyncState("default", "run1", 10, 3)
	store := newFakeStore(state)
	fetcher := &fakeFetcher{results: []fetchResult{
		{page: &vendor.ProductPage{Items: makeItems(3, 0)}},
	}}
	e := newTestEngine(t, store, fetcher, &fakeUpserter{})

	done, err := e.Step(context.Background(), "default")
	require.NoError(t, err)
	require.True(t, done)

	require.Len(t, fetcher.pageSizes, 1)
	assert.Equal(t, int64(3), fetcher.pageSizes[0], "the page size is capped by the remaining limit")
	assert.Equal(t, model.SyncStatusCompleted, store.states["default"].Status)
	assert.Equal(t, int64(3), store.states["default"].Processed)
}

func TestStepPersistenceFailureIsFatal(t *testing.T) {
	state := model.NewSyncState("default", "run1", 10, 0)
	store := newFakeStore(state)
	fetcher := &fakeFetcher{results: []fetchResult{
		{page: &vendor.ProductPage{Items: makeItems(10, 0)}},
	}}
	e := newTestEngine(t, store, fetcher, &fakeUpserter{})

	store.failUpdates = true
	done, err := e.Step(context.Background(), "default")
	require.Error(t, err)
	require.True(t, done, "a run without a trustworthy checkpoint must not continue")
}

func TestStepRepeatedUpsertIsNoOp(t *testing.T) {
	// Retrying the same cursor, as a crash between fetch and persist
	// would, must not double-count updates because the upsert matches
	// by external reference.
	state := model.NewSyncState("default", "run1", 10, 0)
	store := newFakeStore(state)
	fetcher := &fakeFetcher{results: []fetchResult{
		{page: &vendor.ProductPage{Items: makeItems(2, 0)}},
		{page: &vendor.ProductPage{Items: makeItems(2, 0)}},
	}}
	upserter := &fakeUpserter{}
	e := newTestEngine(t, store, fetcher, upserter)

	done, err := e.Step(context.Background(), "default")
	require.NoError(t, err)
	require.True(t, done)

	// Start a second run over the same data.
	next := store.states["default"]
	next.ResetForRun("run2", 10, 0)
	store.runs["run2"] = &model.SyncRun{ID: "run2", Scope: "default", Status: model.SyncStatusRunning, StartAt: model.Timestamp()}

	done, err = e.Step(context.Background(), "default")
	require.NoError(t, err)
	require.True(t, done)

	final := store.states["default"]
	assert.Equal(t, int64(2), final.Processed)
	assert.Equal(t, int64(0), final.Created)
	assert.Equal(t, int64(0), final.Updated, "identical fields must not count as an update")
}

func TestShrinkAndGrowBatch(t *testing.T) {
	assert.Equal(t, int64(5), shrinkBatch(10, 1))
	assert.Equal(t, int64(1), shrinkBatch(2, 1))
	assert.Equal(t, int64(1), shrinkBatch(1, 1))
	assert.Equal(t, int64(3), shrinkBatch(6, 3))

	assert.Equal(t, int64(2), growBatch(1, 10))
	assert.Equal(t, int64(10), growBatch(10, 10))
	assert.Equal(t, int64(10), growBatch(12, 10))
}
