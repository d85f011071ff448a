package model

// CatalogFilters narrows which remote catalog records a sync fetches.
// The zero value fetches everything.
type CatalogFilters struct {
	CategoryID int64  `json:"categoryID" yaml:"categoryID"`
	ActiveOnly bool   `json:"activeOnly" yaml:"activeOnly"`
	Search     string `json:"search" yaml:"search"`
}
