package api

import (
	"time" // Timestamps

	"personal_finance/internal/domain" // Importing domain models

	"github.com/shopspring/decimal" // Fixed-point money
)

// AccountResponse is an account with its reference count
type AccountResponse struct {
	ID               uint               `json:"id"`
	Name             string             `json:"name"`
	Balance          decimal.Decimal    `json:"balance"`
	Currency         string             `json:"currency"`
	Type             domain.AccountType `json:"type"`
	UserID           uint               `json:"userId"`
	TransactionCount int64              `json:"transactionCount"`
}

func toAccountResponse(a *domain.Account, count int64) AccountResponse {
	return AccountResponse{
		ID:               a.ID,
		Name:             a.Name,
		Balance:          a.Balance,
		Currency:         a.Currency,
		Type:             a.Type,
		UserID:           a.UserID,
		TransactionCount: count,
	}
}

// CategoryResponse is a category with its reference count
type CategoryResponse struct {
	ID               uint                   `json:"id"`
	Name             string                 `json:"name"`
	Color            string                 `json:"color"`
	Icon             string                 `json:"icon"`
	Type             domain.TransactionType `json:"type"`
	MonthlyBudget    decimal.Decimal        `json:"monthlyBudget"`
	TransactionCount int64                  `json:"transactionCount"`
}

func toCategoryResponse(c *domain.Category, count int64) CategoryResponse {
	return CategoryResponse{
		ID:               c.ID,
		Name:             c.Name,
		Color:            c.Color,
		Icon:             c.Icon,
		Type:             c.Type,
		MonthlyBudget:    c.MonthlyBudget,
		TransactionCount: count,
	}
}

// TransactionResponse is a transaction with its category and account display fields
type TransactionResponse struct {
	ID            uint                   `json:"id"`
	Amount        decimal.Decimal        `json:"amount"`
	Description   string                 `json:"description"`
	Date          time.Time              `json:"date"`
	Type          domain.TransactionType `json:"type"`
	CategoryID    uint                   `json:"categoryId"`
	CategoryName  string                 `json:"categoryName"`
	CategoryColor string                 `json:"categoryColor"`
	AccountID     uint                   `json:"accountId"`
	AccountName   string                 `json:"accountName"`
	AccountType   domain.AccountType     `json:"accountType"`
	UserID        uint                   `json:"userId"`
}

func toTransactionResponse(t *domain.Transaction) TransactionResponse {
	out := TransactionResponse{
		ID:          t.ID,
		Amount:      t.Amount,
		Description: t.Description,
		Date:        t.Date.UTC(),
		Type:        t.Type,
		CategoryID:  t.CategoryID,
		AccountID:   t.AccountID,
		UserID:      t.UserID,
	}
	if t.Category != nil {
		out.CategoryName, out.CategoryColor = t.Category.Name, t.Category.Color
	}
	if t.Account != nil {
		out.AccountName, out.AccountType = t.Account.Name, t.Account.Type
	}
	return out
}

func toTransactionResponses(ts []domain.Transaction) []TransactionResponse {
	out := make([]TransactionResponse, len(ts))
	for i := range ts {
		out[i] = toTransactionResponse(&ts[i])
	}
	return out
}

// UserProfile is a user with ownership counts
type UserProfile struct {
	ID               uint       `json:"id"`
	Username         string     `json:"username"`
	Email            string     `json:"email"`
	Role             string     `json:"role"`
	CreatedAt        time.Time  `json:"createdAt"`
	UpdatedAt        *time.Time `json:"updatedAt,omitempty"`
	AccountCount     int64      `json:"accountCount"`
	TransactionCount int64      `json:"transactionCount"`
}
