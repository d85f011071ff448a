package taxonomy

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/catsync/catsync/internal/testlib"
	"github.com/catsync/catsync/model"
)

type termKey struct {
	kind       model.TermKind
	externalID int64
}

type fakeTermStore struct {
	terms   map[termKey]*model.TaxonomyTerm
	creates int
}

func (s *fakeTermStore) GetTaxonomyTerm(kind model.TermKind, externalID int64) (*model.TaxonomyTerm, error) {
	return s.terms[termKey{kind, externalID}], nil
}

func (s *fakeTermStore) CreateTaxonomyTerm(term *model.TaxonomyTerm) error {
	s.creates++
	if s.terms == nil {
		s.terms = map[termKey]*model.TaxonomyTerm{}
	}
	key := termKey{term.Kind, term.ExternalID}
	// First writer wins, as the unique constraint would enforce.
	if _, ok := s.terms[key]; !ok {
		s.terms[key] = term
	}
	return nil
}

func TestResolveCreatesOnFirstEncounter(t *testing.T) {
	store := &fakeTermStore{}
	resolver := NewResolver(store, nil, testlib.MakeLogger(t))

	term, err := resolver.Resolve(model.TermKindCategory, 42)
	require.NoError(t, err)
	require.NotNil(t, term)
	assert.Equal(t, model.TermKindCategory, term.Kind)
	assert.Equal(t, int64(42), term.ExternalID)
	assert.Equal(t, "42", term.Name, "unknown identifiers get a numeric placeholder name")
	assert.NotEmpty(t, term.ID)
}

func TestResolveIsIdempotent(t *testing.T) {
	store := &fakeTermStore{}
	resolver := NewResolver(store, nil, testlib.MakeLogger(t))

	first, err := resolver.Resolve(model.TermKindModel, 7)
	require.NoError(t, err)

	second, err := resolver.Resolve(model.TermKindModel, 7)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 1, store.creates)
}

func TestResolveUsesKnownNames(t *testing.T) {
	known := map[model.TermKind]map[int64]string{
		model.TermKindCategory: {1: "Uncategorized"},
	}
	store := &fakeTermStore{}
	resolver := NewResolver(store, known, testlib.MakeLogger(t))

	term, err := resolver.Resolve(model.TermKindCategory, 1)
	require.NoError(t, err)
	assert.Equal(t, "Uncategorized", term.Name)

	// The known-name table only covers its own kind.
	term, err = resolver.Resolve(model.TermKindModel, 1)
	require.NoError(t, err)
	assert.Equal(t, "1", term.Name)
}

func TestResolveKindsAreDisjoint(t *testing.T) {
	store := &fakeTermStore{}
	resolver := NewResolver(store, nil, testlib.MakeLogger(t))

	category, err := resolver.Resolve(model.TermKindCategory, 5)
	require.NoError(t, err)
	productModel, err := resolver.Resolve(model.TermKindModel, 5)
	require.NoError(t, err)

	assert.NotEqual(t, category.ID, productModel.ID, "the same vendor ID names different terms per kind")
}

func TestResolveMatchesByExternalIDNotName(t *testing.T) {
	store := &fakeTermStore{}
	resolver := NewResolver(store, nil, testlib.MakeLogger(t))

	term, err := resolver.Resolve(model.TermKindCategory, 9)
	require.NoError(t, err)

	// An operator renames the term locally.
	store.terms[termKey{model.TermKindCategory, 9}].Name = "Hand Tools"

	again, err := resolver.Resolve(model.TermKindCategory, 9)
	require.NoError(t, err)
	assert.Equal(t, term.ID, again.ID)
	assert.Equal(t, "Hand Tools", again.Name, "renamed terms keep matching on later syncs")
	assert.Equal(t, 1, store.creates)
}

func TestResolveConvergesWithConcurrentCreate(t *testing.T) {
	// Simulate losing the create race: the store already holds a row by
	// the time our insert lands, so the stored term must win.
	existing := &model.TaxonomyTerm{
		ID:         model.NewID(),
		Kind:       model.TermKindCategory,
		ExternalID: 3,
		Name:       "Garden",
		CreateAt:   model.Timestamp(),
	}
	store := &racingTermStore{winner: existing}
	resolver := NewResolver(store, nil, testlib.MakeLogger(t))

	term, err := resolver.Resolve(model.TermKindCategory, 3)
	require.NoError(t, err)
	assert.Equal(t, existing.ID, term.ID)
	assert.Equal(t, "Garden", term.Name)
}

type fakeTermStoreError struct{}

func (s *fakeTermStoreError) GetTaxonomyTerm(model.TermKind, int64) (*model.TaxonomyTerm, error) {
	return nil, errors.New("connection refused")
}

func (s *fakeTermStoreError) CreateTaxonomyTerm(*model.TaxonomyTerm) error {
	return errors.New("connection refused")
}

func TestResolvePropagatesStoreFailure(t *testing.T) {
	resolver := NewResolver(&fakeTermStoreError{}, nil, testlib.MakeLogger(t))

	_, err := resolver.Resolve(model.TermKindCategory, 1)
	require.Error(t, err)
}

// racingTermStore misses the first lookup but answers later reads with
// the winner's row, the way a concurrent insert under ON CONFLICT DO
// NOTHING behaves.
type racingTermStore struct {
	winner *model.TaxonomyTerm
	reads  int
}

func (s *racingTermStore) GetTaxonomyTerm(kind model.TermKind, externalID int64) (*model.TaxonomyTerm, error) {
	s.reads++
	if s.reads == 1 {
		return nil, nil
	}
	return s.winner, nil
}

func (s *racingTermStore) CreateTaxonomyTerm(*model.TaxonomyTerm) error {
	return nil
}
