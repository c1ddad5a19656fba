// Package repository is the persistence gateway: a generic gorm-backed Repository[T]
// plus per-entity repositories with the queries the ledger, the aggregation engine
// and the HTTP layer need.
package repository

import (
	"context" // Request-scoped cancellation
	"errors"  // Error inspection
	"fmt"     // Error formatting
	"time"    // Date range scopes

	"personal_finance/internal/domain" // Importing domain models

	"gorm.io/gorm"        // GORM ORM library
	"gorm.io/gorm/clause" // Clause helpers
)

// Scope narrows a query, composable through gorm's Scopes
type Scope = func(*gorm.DB) *gorm.DB

// Repository supports get/add/update/remove/count/exists for entity T
type Repository[T any] struct {
	db   *gorm.DB // Connection or open transaction
	name string   // Entity name used in error codes, e.g. ACCOUNT
}

// New creates a repository for T
func New[T any](db *gorm.DB, name string) *Repository[T] {
	return &Repository[T]{db: db, name: name}
}

// WithTx returns a copy bound to an open transaction
func (r *Repository[T]) WithTx(tx *gorm.DB) *Repository[T] {
	return &Repository[T]{db: tx, name: r.name}
}

// DB returns the underlying handle bound to ctx
func (r *Repository[T]) DB(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx)
}

// Get loads one row by primary key
func (r *Repository[T]) Get(ctx context.Context, id uint, scopes ...Scope) (*T, error) {
	var entity T
	if err := r.DB(ctx).Scopes(scopes...).First(&entity, id).Error; err != nil {
		return nil, r.wrap("get", id, err)
	}
	return &entity, nil
}

// List loads every row matching scopes
func (r *Repository[T]) List(ctx context.Context, scopes ...Scope) ([]T, error) {
	var entities []T
	if err := r.DB(ctx).Scopes(scopes...).Find(&entities).Error; err != nil {
		return nil, r.wrap("list", 0, err)
	}
	return entities, nil
}

// Add inserts a row
func (r *Repository[T]) Add(ctx context.Context, entity *T) error {
	if err := r.DB(ctx).Omit(clause.Associations).Create(entity).Error; err != nil {
		return r.wrap("add", 0, err)
	}
	return nil
}

// Update saves every column of an existing row, never its associations
func (r *Repository[T]) Update(ctx context.Context, entity *T) error {
	if err := r.DB(ctx).Omit(clause.Associations).Save(entity).Error; err != nil {
		return r.wrap("update", 0, err)
	}
	return nil
}

// Remove deletes a row; a row that is already gone is NotFound
func (r *Repository[T]) Remove(ctx context.Context, entity *T) error {
	res := r.DB(ctx).Delete(entity)
	if res.Error != nil {
		return r.wrap("remove", 0, res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.NotFound(r.name+"_NOT_FOUND", fmt.Sprintf("%s no longer exists", r.label()))
	}
	return nil
}

// Count counts rows matching scopes
func (r *Repository[T]) Count(ctx context.Context, scopes ...Scope) (int64, error) {
	var n int64
	if err := r.DB(ctx).Model(new(T)).Scopes(scopes...).Count(&n).Error; err != nil {
		return 0, r.wrap("count", 0, err)
	}
	return n, nil
}

// Exists reports whether a row with id exists
func (r *Repository[T]) Exists(ctx context.Context, id uint) (bool, error) {
	n, err := r.Count(ctx, func(db *gorm.DB) *gorm.DB { return db.Where("id = ?", id) })
	return n > 0, err
}

// wrap converts gorm failures into the domain error taxonomy
func (r *Repository[T]) wrap(op string, id uint, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.NotFound(r.name+"_NOT_FOUND", fmt.Sprintf("%s with ID %d not found", r.label(), id))
	}
	return domain.StorageError(op+" "+r.label(), err)
}

func (r *Repository[T]) label() string {
	switch r.name {
	case "ACCOUNT":
		return "account"
	case "CATEGORY":
		return "category"
	case "TRANSACTION":
		return "transaction"
	case "USER":
		return "user"
	}
	return "record"
}

// Page limits a query to one page; page is 1-based
func Page(page, pageSize int) Scope {
	return func(db *gorm.DB) *gorm.DB {
		return db.Offset((page - 1) * pageSize).Limit(pageSize)
	}
}

// OwnedBy limits a query to one user's rows; nil means no restriction
func OwnedBy(userID *uint) Scope {
	return func(db *gorm.DB) *gorm.DB {
		if userID == nil {
			return db
		}
		return db.Where("user_id = ?", *userID)
	}
}

// Between limits a query to date >= start and date <= end
func Between(start, end time.Time) Scope {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("date >= ? AND date <= ?", start.UTC(), end.UTC())
	}
}

// Where wraps a plain condition as a scope
func Where(query any, args ...any) Scope {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where(query, args...)
	}
}

// OrderBy sorts a query
func OrderBy(order string) Scope {
	return func(db *gorm.DB) *gorm.DB {
		return db.Order(order)
	}
}
