package domain

import (
	"strconv" // Numeric type codes
	"strings" // String manipulation

	"github.com/shopspring/decimal" // Fixed-point money
)

// AccountType classifies where the money is held
type AccountType string

// Account types
const (
	AccountCash       AccountType = "Cash"
	AccountBankCard   AccountType = "BankCard"
	AccountCreditCard AccountType = "CreditCard"
	AccountSavings    AccountType = "Savings"
	AccountInvestment AccountType = "Investment"
)

// accountTypes keeps the declaration order, which is also the numeric code of each type
var accountTypes = []AccountType{AccountCash, AccountBankCard, AccountCreditCard, AccountSavings, AccountInvestment}

// ParseAccountType accepts a type name (case-insensitive) or its numeric code
func ParseAccountType(s string) (AccountType, bool) {
	s = strings.TrimSpace(s)
	for i, t := range accountTypes {
		if strings.EqualFold(s, string(t)) || s == strconv.Itoa(i) {
			return t, true
		}
	}
	return "", false
}

// DefaultCurrency is used when an account is created without a currency
const DefaultCurrency = "RUB"

// Account Model
type Account struct {
	ID       uint            `gorm:"primaryKey" json:"id"`                                    // Primary key
	Name     string          `gorm:"size:100;not null" json:"name"`                           // Display name
	Balance  decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"balance"`    // Running balance, moved only by the ledger
	Currency string          `gorm:"size:3;not null;default:RUB" json:"currency"`             // ISO currency code
	Type     AccountType     `gorm:"size:20;index;not null" json:"type"`                      // Account type
	UserID   uint            `gorm:"index;not null" json:"userId"`                            // Foreign key to the owning User
	User     *User           `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;" json:"-"` // Owner
}
