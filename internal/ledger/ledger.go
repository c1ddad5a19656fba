// Package ledger keeps every account balance equal to the signed sum of its
// transactions. Each write runs in one database transaction that locks the
// transaction row it changes, then the affected account rows in id order, so
// concurrent writers cannot lose or repeat a balance update.
package ledger

import (
	"context" // Request-scoped cancellation
	"errors"  // Error inspection
	"strings" // Description trimming
	"time"    // Default transaction date

	"personal_finance/internal/domain"     // Importing domain models
	"personal_finance/internal/metrics"    // Prometheus collectors
	"personal_finance/internal/repository" // Persistence gateway

	"github.com/shopspring/decimal" // Fixed-point money
	"github.com/sirupsen/logrus"    // Logrus for structured logging
	"gorm.io/gorm"                  // GORM ORM library
)

// NewTransaction is the input of Record
type NewTransaction struct {
	Amount      decimal.Decimal        // Must be > 0
	Description string                 // At most 200 characters
	Date        time.Time              // Zero means now
	Type        domain.TransactionType // Income or Expense
	CategoryID  uint                   // Must reference an existing category of the same type
	AccountID   uint                   // Must reference an existing account
}

// Patch lists the fields Amend may change; nil fields are kept
type Patch struct {
	Amount      *decimal.Decimal
	Description *string
	Date        *time.Time
	Type        *domain.TransactionType
	CategoryID  *uint
	AccountID   *uint
}

// apply copies the set fields onto t
func (p Patch) apply(t *domain.Transaction) {
	if p.Amount != nil {
		t.Amount = p.Amount.Round(2)
	}
	if p.Description != nil {
		t.Description = strings.TrimSpace(*p.Description)
	}
	if p.Date != nil && !p.Date.IsZero() {
		t.Date = p.Date.UTC()
	}
	if p.Type != nil {
		t.Type = *p.Type
	}
	if p.CategoryID != nil {
		t.CategoryID = *p.CategoryID
	}
	if p.AccountID != nil {
		t.AccountID = *p.AccountID
	}
}

// Notifier is told after every committed write
type Notifier interface {
	LedgerChanged(ctx context.Context)
}

// Ledger records, amends and retracts transactions
type Ledger struct {
	db           *gorm.DB
	accounts     *repository.Accounts
	categories   *repository.Categories
	transactions *repository.Transactions
	notifier     Notifier
}

// New creates a ledger; notifier may be nil
func New(db *gorm.DB, notifier Notifier) *Ledger {
	return &Ledger{
		db:           db,
		accounts:     repository.NewAccounts(db),
		categories:   repository.NewCategories(db),
		transactions: repository.NewTransactions(db),
		notifier:     notifier,
	}
}

// Get loads a transaction with its category and account resolved
func (l *Ledger) Get(ctx context.Context, id uint) (*domain.Transaction, error) {
	return l.transactions.GetDetailed(ctx, id)
}

// Record persists a transaction owned by userID and applies it to its account
func (l *Ledger) Record(ctx context.Context, userID uint, in NewTransaction) (*domain.Transaction, error) {
	t := domain.Transaction{
		Amount:      in.Amount.Round(2),
		Description: strings.TrimSpace(in.Description),
		Date:        in.Date.UTC(),
		Type:        in.Type,
		CategoryID:  in.CategoryID,
		AccountID:   in.AccountID,
		UserID:      userID,
	}
	if in.Date.IsZero() {
		t.Date = time.Now().UTC()
	}

	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		accounts, categories, transactions := l.accounts.WithTx(tx), l.categories.WithTx(tx), l.transactions.WithTx(tx)
		if err := validate(ctx, &t, accounts, categories); err != nil {
			return err
		}
		if _, err := accounts.Lock(ctx, t.AccountID); err != nil {
			return err
		}
		if err := transactions.Add(ctx, &t); err != nil {
			return err
		}
		return accounts.AdjustBalance(ctx, t.AccountID, t.Type.Signed(t.Amount))
	})
	if err != nil {
		return nil, l.fail("record", logrus.Fields{"account_id": t.AccountID, "amount": t.Amount.String(), "type": t.Type}, err)
	}
	l.done(ctx, "record", logrus.Fields{
		"transaction_id": t.ID,        // Transaction ID
		"account_id":     t.AccountID, // Account ID
		"amount":         t.Amount.String(),
		"type":           t.Type,
	})
	return l.transactions.GetDetailed(ctx, t.ID)
}

// Amend reverses the transaction's effect on its current account, applies the
// patch, then applies the new effect to the resulting (possibly different) account
func (l *Ledger) Amend(ctx context.Context, id uint, p Patch) (*domain.Transaction, error) {
	var before, after domain.Transaction
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		accounts, categories, transactions := l.accounts.WithTx(tx), l.categories.WithTx(tx), l.transactions.WithTx(tx)
		t, err := transactions.Lock(ctx, id)
		if err != nil {
			return err
		}
		before = *t
		p.apply(t)
		if err := validate(ctx, t, accounts, categories); err != nil {
			return err
		}
		if _, err := accounts.Lock(ctx, before.AccountID, t.AccountID); err != nil {
			return err
		}
		// Reverse the old effect, then apply the new one
		if err := accounts.AdjustBalance(ctx, before.AccountID, before.Type.Signed(before.Amount).Neg()); err != nil {
			return err
		}
		if err := transactions.Update(ctx, t); err != nil {
			return err
		}
		after = *t
		return accounts.AdjustBalance(ctx, t.AccountID, t.Type.Signed(t.Amount))
	})
	if err != nil {
		return nil, l.fail("amend", logrus.Fields{"transaction_id": id}, err)
	}
	l.done(ctx, "amend", logrus.Fields{
		"transaction_id": id,               // Transaction ID
		"old_account_id": before.AccountID, // Account before the patch
		"new_account_id": after.AccountID,  // Account after the patch
		"old_amount":     before.Amount.String(),
		"new_amount":     after.Amount.String(),
		"old_type":       before.Type,
		"new_type":       after.Type,
	})
	return l.transactions.GetDetailed(ctx, id)
}

// Retract reverses the transaction's effect on its account and deletes it
func (l *Ledger) Retract(ctx context.Context, id uint) error {
	var t *domain.Transaction
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		accounts, transactions := l.accounts.WithTx(tx), l.transactions.WithTx(tx)
		var err error
		if t, err = transactions.Lock(ctx, id); err != nil {
			return err
		}
		if _, err := accounts.Lock(ctx, t.AccountID); err != nil {
			return err
		}
		if err := accounts.AdjustBalance(ctx, t.AccountID, t.Type.Signed(t.Amount).Neg()); err != nil {
			return err
		}
		return transactions.Remove(ctx, t)
	})
	if err != nil {
		return l.fail("retract", logrus.Fields{"transaction_id": id}, err)
	}
	l.done(ctx, "retract", logrus.Fields{
		"transaction_id": id,          // Transaction ID
		"account_id":     t.AccountID, // Account ID
		"amount":         t.Amount.String(),
		"type":           t.Type,
	})
	return nil
}

// validate checks the transaction fields and its references
func validate(ctx context.Context, t *domain.Transaction, accounts *repository.Accounts, categories *repository.Categories) error {
	if !t.Amount.IsPositive() {
		return domain.ValidationError("INVALID_AMOUNT", "Transaction amount must be greater than 0")
	}
	if t.Type != domain.Income && t.Type != domain.Expense {
		return domain.ValidationError("INVALID_TYPE", "Transaction type must be Income or Expense")
	}
	if len([]rune(t.Description)) > domain.MaxDescriptionLength {
		return domain.ValidationError("INVALID_DESCRIPTION", "Description cannot exceed 200 characters")
	}
	category, err := categories.Get(ctx, t.CategoryID)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.ValidationError("INVALID_CATEGORY", "The specified category does not exist")
	}
	if err != nil {
		return err
	}
	if category.Type != t.Type {
		return domain.ValidationError("CATEGORY_TYPE_MISMATCH", "Transaction type must match the category type")
	}
	ok, err := accounts.Exists(ctx, t.AccountID)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ValidationError("INVALID_ACCOUNT", "The specified account does not exist")
	}
	return nil
}

// fail logs and counts a failed write, converting stray errors into StorageError
func (l *Ledger) fail(op string, fields logrus.Fields, err error) error {
	metrics.LedgerOperations.WithLabelValues(op, metrics.OutcomeError).Inc()
	if domain.KindOf(err) == 0 {
		err = domain.StorageError(op+" transaction", err)
	}
	fields["error"] = err.Error()
	logrus.WithFields(fields).Warn("Ledger " + op + " failed")
	return err
}

// done logs and counts a committed write and notifies listeners
func (l *Ledger) done(ctx context.Context, op string, fields logrus.Fields) {
	metrics.LedgerOperations.WithLabelValues(op, metrics.OutcomeOK).Inc()
	fields["timestamp"] = time.Now().UTC().Format(time.RFC3339)
	logrus.WithFields(fields).Info("Ledger " + op)
	if l.notifier != nil {
		l.notifier.LedgerChanged(ctx)
	}
}
