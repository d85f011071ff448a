package model

// CatalogItem is a normalized record from the remote vendor catalog.
// Items are transient: they are produced by the vendor client, consumed
// once per sync pass, and never persisted in this form.
type CatalogItem struct {
	ExternalRef string
	Name        string
	Description string
	Price       float64
	Currency    string
	CategoryID  int64
	ModelID     int64
	Active      bool
	Variants    []CatalogVariant
}

// CatalogVariant is an optional sellable variation of a catalog item.
type CatalogVariant struct {
	ExternalRef string
	Name        string
	Price       float64
}
