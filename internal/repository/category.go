package repository

import (
	"context" // Request-scoped cancellation

	"personal_finance/internal/domain" // Importing domain models

	"gorm.io/gorm" // GORM ORM library
)

// Categories persists domain.Category rows
type Categories struct {
	*Repository[domain.Category]
}

// NewCategories creates the category repository
func NewCategories(db *gorm.DB) *Categories {
	return &Categories{Repository: New[domain.Category](db, "CATEGORY")}
}

// WithTx returns a copy bound to an open transaction
func (r *Categories) WithTx(tx *gorm.DB) *Categories {
	return &Categories{Repository: r.Repository.WithTx(tx)}
}

// ByType lists categories of one type ordered by name
func (r *Categories) ByType(ctx context.Context, t domain.TransactionType) ([]domain.Category, error) {
	return r.List(ctx, Where("type = ?", t), OrderBy("name"))
}

// TransactionCount counts transactions referencing the category
func (r *Categories) TransactionCount(ctx context.Context, id uint) (int64, error) {
	var n int64
	if err := r.DB(ctx).Model(&domain.Transaction{}).Where("category_id = ?", id).Count(&n).Error; err != nil {
		return 0, domain.StorageError("count category transactions", err)
	}
	return n, nil
}

// Delete removes a category unless transactions still reference it
func (r *Categories) Delete(ctx context.Context, id uint) error {
	return r.DB(ctx).Transaction(func(tx *gorm.DB) error {
		repo := r.WithTx(tx)
		cat, err := repo.Get(ctx, id)
		if err != nil {
			return err
		}
		n, err := repo.TransactionCount(ctx, id)
		if err != nil {
			return err
		}
		if n > 0 {
			return domain.Conflict("CATEGORY_IN_USE", "Cannot delete the category because transactions reference it")
		}
		return repo.Remove(ctx, cat)
	})
}
