package model

// TermKind distinguishes the two vendor taxonomies we mirror locally.
type TermKind string

const (
	TermKindCategory TermKind = "category"
	TermKindModel    TermKind = "model"
)

// TaxonomyTerm is a local taxonomy entry correlated to a vendor
// identifier. ExternalID is immutable once written so operator renames
// survive future syncs; lookups are always by (Kind, ExternalID), never
// by name.
type TaxonomyTerm struct {
	ID         string
	Kind       TermKind
	ExternalID int64
	Name       string
	CreateAt   int64
}
