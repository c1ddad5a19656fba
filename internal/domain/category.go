package domain

import "github.com/shopspring/decimal" // Fixed-point money

// Category Model
type Category struct {
	ID            uint            `gorm:"primaryKey" json:"id"`                                       // Primary key
	Name          string          `gorm:"size:100;not null" json:"name"`                              // Display name
	Color         string          `gorm:"size:20" json:"color"`                                       // Color tag, e.g. #4CAF50
	Icon          string          `gorm:"size:50" json:"icon"`                                        // Icon tag
	Type          TransactionType `gorm:"size:10;index;not null" json:"type"`                         // Income or Expense
	MonthlyBudget decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"monthlyBudget"` // Informational budget ceiling
}
