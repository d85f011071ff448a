// Package taxonomy maps remote numeric category and model identifiers
// onto local taxonomy terms.
package taxonomy

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/catsync/catsync/model"
)

// TermStore persists taxonomy terms keyed by their immutable vendor
// correlation identifier.
type TermStore interface {
	GetTaxonomyTerm(kind model.TermKind, externalID int64) (*model.TaxonomyTerm, error)
	CreateTaxonomyTerm(term *model.TaxonomyTerm) error
}

// Resolver finds or creates the local term for a vendor identifier.
// Lookups are always by external ID, never by name, so terms renamed
// by operators keep matching across future syncs.
type Resolver struct {
	store      TermStore
	knownNames map[model.TermKind]map[int64]string
	logger     logrus.FieldLogger
}

// NewResolver creates a Resolver. knownNames optionally supplies
// human-friendly names for vendor identifiers whose meaning is known
// ahead of time.
func NewResolver(store TermStore, knownNames map[model.TermKind]map[int64]string, logger logrus.FieldLogger) *Resolver {
	return &Resolver{
		store:      store,
		knownNames: knownNames,
		logger:     logger,
	}
}

// Resolve returns the local term for the given vendor identifier,
// creating it on first encounter. Unknown identifiers get the numeric
// ID itself as a placeholder name. Resolving the same identifier twice
// returns the same term without duplication.
func (r *Resolver) Resolve(kind model.TermKind, externalID int64) (*model.TaxonomyTerm, error) {
	term, err := r.store.GetTaxonomyTerm(kind, externalID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to look up taxonomy term")
	}
	if term != nil {
		return term, nil
	}

	name := fmt.Sprintf("%d", externalID)
	if known, ok := r.knownNames[kind][externalID]; ok {
		name = known
	}

	term = &model.TaxonomyTerm{
		ID:         model.NewID(),
		Kind:       kind,
		ExternalID: externalID,
		Name:       name,
		CreateAt:   model.Timestamp(),
	}
	err = r.store.CreateTaxonomyTerm(term)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create taxonomy term")
	}

	r.logger.WithFields(logrus.Fields{
		"kind":       kind,
		"externalID": externalID,
		"name":       name,
	}).Debug("Created taxonomy term")

	// A concurrent resolver may have created the row first; the stored
	// term wins either way.
	created, err := r.store.GetTaxonomyTerm(kind, externalID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to re-read taxonomy term after create")
	}
	if created != nil {
		return created, nil
	}

	return term, nil
}
