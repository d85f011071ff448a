package model

import (
	"github.com/pkg/errors"
)

// ProtectedField names a product field that operators may shield from
// being overwritten by a sync. The set of names is closed and validated
// at configuration load.
type ProtectedField string

const (
	FieldName        ProtectedField = "name"
	FieldDescription ProtectedField = "description"
	FieldPrice       ProtectedField = "price"
	FieldCategory    ProtectedField = "category"
	FieldActive      ProtectedField = "active"
)

var protectedFields = map[ProtectedField]bool{
	FieldName:        true,
	FieldDescription: true,
	FieldPrice:       true,
	FieldCategory:    true,
	FieldActive:      true,
}

// FieldProtection maps each protected field name to whether updates to
// it are suppressed during sync.
type FieldProtection map[ProtectedField]bool

// Validate rejects field names outside the closed enum.
func (p FieldProtection) Validate() error {
	for field := range p {
		if !protectedFields[field] {
			return errors.Errorf("unknown protected field %q", field)
		}
	}
	return nil
}

// Protects reports whether the given field must not be overwritten.
func (p FieldProtection) Protects(field ProtectedField) bool {
	return p != nil && p[field]
}

// Product is the local commerce record a catalog item is reconciled
// into, matched by its stable vendor external reference.
type Product struct {
	ID             string
	ExternalRef    string
	Name           string
	Description    string
	Price          float64
	CategoryTermID string
	ModelTermID    string
	Active         bool
	CreateAt       int64
	UpdateAt       int64
}

// ProductFields carries the normalized values a sync pass wants to
// apply to the product matched by an external reference.
type ProductFields struct {
	Name           string
	Description    string
	Price          float64
	CategoryTermID string
	ModelTermID    string
	Active         bool
}

// ProductUpsertResult reports what an upsert actually did. Re-upserting
// identical fields yields neither Created nor Updated.
type ProductUpsertResult struct {
	Created bool
	Updated bool
	LocalID string
}
