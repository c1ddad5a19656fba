package repository

import (
	"context" // Request-scoped cancellation

	"personal_finance/internal/domain" // Importing domain models

	"github.com/shopspring/decimal" // Fixed-point money
	"gorm.io/gorm"                  // GORM ORM library
	"gorm.io/gorm/clause"           // Row locking
)

// Transactions persists domain.Transaction rows
type Transactions struct {
	*Repository[domain.Transaction]
}

// NewTransactions creates the transaction repository
func NewTransactions(db *gorm.DB) *Transactions {
	return &Transactions{Repository: New[domain.Transaction](db, "TRANSACTION")}
}

// WithTx returns a copy bound to an open transaction
func (r *Transactions) WithTx(tx *gorm.DB) *Transactions {
	return &Transactions{Repository: r.Repository.WithTx(tx)}
}

// Lock loads one transaction with SELECT ... FOR UPDATE. Must run inside a
// transaction, before the account rows it touches are locked.
func (r *Transactions) Lock(ctx context.Context, id uint) (*domain.Transaction, error) {
	var t domain.Transaction
	if err := r.DB(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).First(&t, id).Error; err != nil {
		return nil, r.wrap("lock", id, err)
	}
	return &t, nil
}

// WithDetails preloads the category and account of each transaction
func WithDetails(db *gorm.DB) *gorm.DB {
	return db.Preload("Category").Preload("Account")
}

// Newest orders by date, newest first
func Newest(db *gorm.DB) *gorm.DB {
	return db.Order("date DESC").Order("id DESC")
}

// OfType limits to one transaction type
func OfType(t domain.TransactionType) Scope {
	return Where("type = ?", t)
}

// GetDetailed loads one transaction with its category and account
func (r *Transactions) GetDetailed(ctx context.Context, id uint) (*domain.Transaction, error) {
	return r.Get(ctx, id, WithDetails)
}

// ListDetailed lists transactions newest first with category and account resolved
func (r *Transactions) ListDetailed(ctx context.Context, scopes ...Scope) ([]domain.Transaction, error) {
	return r.List(ctx, append([]Scope{WithDetails, Newest}, scopes...)...)
}

// Sum adds up amounts of the scoped transactions
func (r *Transactions) Sum(ctx context.Context, scopes ...Scope) (decimal.Decimal, error) {
	var total decimal.NullDecimal
	err := r.DB(ctx).Model(&domain.Transaction{}).Scopes(scopes...).
		Select("SUM(amount)").Row().Scan(&total)
	if err != nil {
		return decimal.Zero, domain.StorageError("sum transactions", err)
	}
	return total.Decimal.Round(2), nil
}

// CountBy counts transactions grouped by a foreign key column (account_id or category_id)
func (r *Transactions) CountBy(ctx context.Context, column string, scopes ...Scope) (map[uint]int64, error) {
	var rows []struct {
		RefID uint
		Count int64
	}
	err := r.DB(ctx).Model(&domain.Transaction{}).Scopes(scopes...).
		Select(column + " AS ref_id, COUNT(*) AS count").Group(column).Scan(&rows).Error
	if err != nil {
		return nil, domain.StorageError("count transactions by "+column, err)
	}
	counts := make(map[uint]int64, len(rows))
	for _, row := range rows {
		counts[row.RefID] = row.Count
	}
	return counts, nil
}
