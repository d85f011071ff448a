package store

import (
	"database/sql"

	sq "github.com/Masterminds/squirrel"
	"github.com/pkg/errors"

	"github.com/catsync/catsync/model"
)

// TaxonomyTermTableName holds local taxonomy terms correlated to
// vendor identifiers.
const TaxonomyTermTableName = "TaxonomyTerm"

var taxonomyTermSelect sq.SelectBuilder

func init() {
	taxonomyTermSelect = sq.
		Select(
			"ID",
			"Kind",
			"ExternalID",
			"Name",
			"CreateAt",
		).
		From(TaxonomyTermTableName)
}

// GetTaxonomyTerm fetches a term by its immutable correlation key,
// returning nil if no term has been created for it yet.
func (sqlStore *SQLStore) GetTaxonomyTerm(kind model.TermKind, externalID int64) (*model.TaxonomyTerm, error) {
	term := new(model.TaxonomyTerm)
	err := sqlStore.getBuilder(sqlStore.db, term,
		taxonomyTermSelect.
			Where("Kind = ?", kind).
			Where("ExternalID = ?", externalID))

	if err == sql.ErrNoRows {
		return nil, nil
	} else if err != nil {
		return nil, errors.Wrap(err, "failed to get taxonomy term by external id")
	}

	return term, nil
}

// CreateTaxonomyTerm stores a new term. The unique (Kind, ExternalID)
// index makes concurrent creates for the same vendor identifier
// converge on a single row; callers losing the race re-read instead.
func (sqlStore *SQLStore) CreateTaxonomyTerm(term *model.TaxonomyTerm) error {
	_, err := sqlStore.execBuilder(sqlStore.db, sq.
		Insert(TaxonomyTermTableName).
		SetMap(map[string]interface{}{
			"ID":         term.ID,
			"Kind":       term.Kind,
			"ExternalID": term.ExternalID,
			"Name":       term.Name,
			"CreateAt":   term.CreateAt,
		}).
		Suffix("ON CONFLICT (Kind, ExternalID) DO NOTHING"),
	)
	return errors.Wrapf(err, "failed to create taxonomy term for external id %d", term.ExternalID)
}
