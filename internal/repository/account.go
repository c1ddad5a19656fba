package repository

import (
	"context" // Request-scoped cancellation
	"fmt"     // Error formatting
	"sort"    // Lock ordering

	"personal_finance/internal/domain" // Importing domain models

	"github.com/shopspring/decimal" // Fixed-point money
	"gorm.io/gorm"                  // GORM ORM library
	"gorm.io/gorm/clause"           // Row locking
)

// Accounts persists domain.Account rows
type Accounts struct {
	*Repository[domain.Account]
}

// NewAccounts creates the account repository
func NewAccounts(db *gorm.DB) *Accounts {
	return &Accounts{Repository: New[domain.Account](db, "ACCOUNT")}
}

// WithTx returns a copy bound to an open transaction
func (r *Accounts) WithTx(tx *gorm.DB) *Accounts {
	return &Accounts{Repository: r.Repository.WithTx(tx)}
}

// Lock loads the accounts with SELECT ... FOR UPDATE in ascending id order.
// Must run inside a transaction. Missing ids are reported as NotFound.
func (r *Accounts) Lock(ctx context.Context, ids ...uint) (map[uint]*domain.Account, error) {
	ordered := append([]uint(nil), ids...)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i] < ordered[j] })

	locked := make(map[uint]*domain.Account, len(ordered))
	for _, id := range ordered {
		if _, seen := locked[id]; seen {
			continue
		}
		var acc domain.Account
		err := r.DB(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).First(&acc, id).Error
		if err != nil {
			return nil, r.wrap("lock", id, err)
		}
		locked[id] = &acc
	}
	return locked, nil
}

// AdjustBalance moves the balance by delta with a single atomic UPDATE.
// ROUND keeps engines that store decimals as floating point at 2 fraction digits.
func (r *Accounts) AdjustBalance(ctx context.Context, id uint, delta decimal.Decimal) error {
	res := r.DB(ctx).Model(&domain.Account{}).Where("id = ?", id).
		Update("balance", gorm.Expr("ROUND(balance + ?, 2)", delta.Round(2)))
	if res.Error != nil {
		return r.wrap("adjust balance of", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.NotFound("ACCOUNT_NOT_FOUND", fmt.Sprintf("account with ID %d not found", id))
	}
	return nil
}

// TransactionCount counts transactions referencing the account
func (r *Accounts) TransactionCount(ctx context.Context, id uint) (int64, error) {
	var n int64
	if err := r.DB(ctx).Model(&domain.Transaction{}).Where("account_id = ?", id).Count(&n).Error; err != nil {
		return 0, domain.StorageError("count account transactions", err)
	}
	return n, nil
}

// TotalBalance sums balances over the scoped accounts
func (r *Accounts) TotalBalance(ctx context.Context, scopes ...Scope) (decimal.Decimal, error) {
	var total decimal.NullDecimal
	err := r.DB(ctx).Model(&domain.Account{}).Scopes(scopes...).
		Select("SUM(balance)").Row().Scan(&total)
	if err != nil {
		return decimal.Zero, domain.StorageError("sum account balances", err)
	}
	return total.Decimal.Round(2), nil
}

// Delete removes an account unless transactions still reference it
func (r *Accounts) Delete(ctx context.Context, id uint) error {
	return r.DB(ctx).Transaction(func(tx *gorm.DB) error {
		repo := r.WithTx(tx)
		acc, err := repo.Get(ctx, id)
		if err != nil {
			return err
		}
		n, err := repo.TransactionCount(ctx, id)
		if err != nil {
			return err
		}
		if n > 0 {
			return domain.Conflict("ACCOUNT_IN_USE", "Cannot delete the account because transactions reference it")
		}
		return repo.Remove(ctx, acc)
	})
}
