package store

import (
	"database/sql"

	sq "github.com/Masterminds/squirrel"
	"github.com/pkg/errors"

	"github.com/catsync/catsync/model"
)

// ProductTableName holds the local commerce records reconciled from
// the vendor catalog.
const ProductTableName = "Product"

var productSelect sq.SelectBuilder

func init() {
	productSelect = sq.
		Select(
			"ID",
			"ExternalRef",
			"Name",
			"Description",
			"Price",
			"CategoryTermID",
			"ModelTermID",
			"Active",
			"CreateAt",
			"UpdateAt",
		).
		From(ProductTableName)
}

// GetProductByExternalRef fetches a product by its vendor reference,
// returning nil if none exists.
func (sqlStore *SQLStore) GetProductByExternalRef(externalRef string) (*model.Product, error) {
	product := new(model.Product)
	err := sqlStore.getBuilder(sqlStore.db, product,
		productSelect.Where("ExternalRef = ?", externalRef))

	if err == sql.ErrNoRows {
		return nil, nil
	} else if err != nil {
		return nil, errors.Wrap(err, "failed to get product by external ref")
	}

	return product, nil
}

// UpsertProduct reconciles normalized catalog fields into the product
// matched by externalRef, creating it on first encounter. Fields named
// in protection are never overwritten on update, and re-upserting
// identical fields is a no-op write, which is what makes retrying a
// page at the same cursor safe.
func (sqlStore *SQLStore) UpsertProduct(externalRef string, fields model.ProductFields, protection model.FieldProtection) (*model.ProductUpsertResult, error) {
	tx, err := sqlStore.beginTransaction(sqlStore.db)
	if err != nil {
		return nil, err
	}
	defer tx.RollbackUnlessCommitted()

	existing := new(model.Product)
	err = sqlStore.getBuilder(tx, existing,
		productSelect.Where("ExternalRef = ?", externalRef).Suffix("FOR UPDATE"))
	if err == sql.ErrNoRows {
		existing = nil
	} else if err != nil {
		return nil, errors.Wrap(err, "failed to look up product for upsert")
	}

	if existing == nil {
		now := model.Timestamp()
		product := &model.Product{
			ID:             model.NewID(),
			ExternalRef:    externalRef,
			Name:           fields.Name,
			Description:    fields.Description,
			Price:          fields.Price,
			CategoryTermID: fields.CategoryTermID,
			ModelTermID:    fields.ModelTermID,
			Active:         fields.Active,
			CreateAt:       now,
			UpdateAt:       now,
		}
		_, err = sqlStore.execBuilder(tx, sq.
			Insert(ProductTableName).
			SetMap(map[string]interface{}{
				"ID":             product.ID,
				"ExternalRef":    product.ExternalRef,
				"Name":           product.Name,
				"Description":    product.Description,
				"Price":          product.Price,
				"CategoryTermID": product.CategoryTermID,
				"ModelTermID":    product.ModelTermID,
				"Active":         product.Active,
				"CreateAt":       product.CreateAt,
				"UpdateAt":       product.UpdateAt,
			}),
		)
		if err != nil {
			return nil, errors.Wrap(err, "failed to insert product")
		}

		err = tx.Commit()
		if err != nil {
			return nil, err
		}

		return &model.ProductUpsertResult{Created: true, LocalID: product.ID}, nil
	}

	updates := map[string]interface{}{}
	if !protection.Protects(model.FieldName) && existing.Name != fields.Name {
		updates["Name"] = fields.Name
	}
	if !protection.Protects(model.FieldDescription) && existing.Description != fields.Description {
		updates["Description"] = fields.Description
	}
	if !protection.Protects(model.FieldPrice) && existing.Price != fields.Price {
		updates["Price"] = fields.Price
	}
	if !protection.Protects(model.FieldCategory) {
		if existing.CategoryTermID != fields.CategoryTermID {
			updates["CategoryTermID"] = fields.CategoryTermID
		}
		if existing.ModelTermID != fields.ModelTermID {
			updates["ModelTermID"] = fields.ModelTermID
		}
	}
	if !protection.Protects(model.FieldActive) && existing.Active != fields.Active {
		updates["Active"] = fields.Active
	}

	if len(updates) == 0 {
		err = tx.Commit()
		if err != nil {
			return nil, err
		}
		return &model.ProductUpsertResult{LocalID: existing.ID}, nil
	}

	updates["UpdateAt"] = model.Timestamp()
	_, err = sqlStore.execBuilder(tx, sq.
		Update(ProductTableName).
		SetMap(updates).
		Where("ID = ?", existing.ID),
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to update product")
	}

	err = tx.Commit()
	if err != nil {
		return nil, err
	}

	return &model.ProductUpsertResult{Updated: true, LocalID: existing.ID}, nil
}
