package domain

import (
	"strings" // String manipulation
	"time"    // Transaction timestamps

	"github.com/shopspring/decimal" // Fixed-point money
)

// TransactionType tells whether a transaction credits or debits its account
type TransactionType string

// Transaction types
const (
	Income  TransactionType = "Income"
	Expense TransactionType = "Expense"
)

// ParseTransactionType accepts "Income"/"Expense" (case-insensitive) or the numeric codes 0/1
func ParseTransactionType(s string) (TransactionType, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "income", "0":
		return Income, true
	case "expense", "1":
		return Expense, true
	}
	return "", false
}

// Signed returns the amount as it applies to an account balance
func (t TransactionType) Signed(amount decimal.Decimal) decimal.Decimal {
	if t == Expense {
		return amount.Neg()
	}
	return amount
}

// MaxDescriptionLength bounds the free-text description
const MaxDescriptionLength = 200

// Transaction Model
type Transaction struct {
	ID          uint            `gorm:"primaryKey" json:"id"`                                    // Primary key
	Amount      decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"amount"`               // Always > 0, the type carries the sign
	Description string          `gorm:"size:200" json:"description"`                             // Free text
	Date        time.Time       `gorm:"index;not null" json:"date"`                              // When the money moved (UTC)
	Type        TransactionType `gorm:"size:10;index;not null" json:"type"`                      // Income or Expense
	CategoryID  uint            `gorm:"index;not null" json:"categoryId"`                        // Foreign key to Category
	Category    *Category       `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;" json:"-"` // Resolved category
	AccountID   uint            `gorm:"index;not null" json:"accountId"`                         // Foreign key to Account
	Account     *Account        `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;" json:"-"` // Resolved account
	UserID      uint            `gorm:"index;not null" json:"userId"`                            // Foreign key to the owning User
	User        *User           `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;" json:"-"` // Owner
}
