package api

import (
	"net/http" // HTTP status codes
	"regexp"   // Currency codes
	"strings"  // String manipulation

	"personal_finance/internal/domain"     // Importing domain models
	"personal_finance/internal/middleware" // Caller identity
	"personal_finance/internal/repository" // Persistence gateway
	"personal_finance/internal/summary"    // Aggregation engine
	"personal_finance/internal/utils"      // Utility functions

	"github.com/gin-gonic/gin"      // Gin web framework
	"github.com/shopspring/decimal" // Fixed-point money
	"github.com/sirupsen/logrus"    // Logrus for structured logging
	"gorm.io/gorm"                  // GORM ORM library
)

// CreateAccountRequest is the body of POST /accounts
type CreateAccountRequest struct {
	Name     string          `json:"name"`     // Display name, required
	Balance  decimal.Decimal `json:"balance"`  // Initial balance
	Currency string          `json:"currency"` // ISO code, defaults to RUB
	Type     enum            `json:"type"`     // Account type name or code
}

// UpdateAccountRequest is the body of PUT /accounts/:id; the balance moves only through transactions
type UpdateAccountRequest struct {
	Name     string `json:"name"`
	Currency string `json:"currency"`
	Type     enum   `json:"type"`
}

var currencyPattern = regexp.MustCompile(`^[A-Z]{3}$`)

// accountFields validates the editable fields shared by create and update
func accountFields(name, currency string, kind enum) (string, string, domain.AccountType, error) {
	name = strings.TrimSpace(name)
	if name == "" || len([]rune(name)) > 100 {
		return "", "", "", domain.ValidationError("INVALID_NAME", "Account name is required and must be at most 100 characters")
	}
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if currency == "" {
		currency = domain.DefaultCurrency
	}
	if !currencyPattern.MatchString(currency) {
		return "", "", "", domain.ValidationError("INVALID_CURRENCY", "Currency must be a 3-letter code")
	}
	t, err := kind.accountType()
	if err != nil {
		return "", "", "", err
	}
	return name, currency, t, nil
}

// ownedAccount loads an account the caller may access
func ownedAccount(c *gin.Context, accounts *repository.Accounts, id uint) (*domain.Account, error) {
	account, err := accounts.Get(c.Request.Context(), id)
	if err != nil {
		return nil, err
	}
	if !middleware.IsAdmin(c) && account.UserID != middleware.CurrentUserID(c) {
		return nil, domain.Forbidden("You do not have access to this account")
	}
	return account, nil
}

// ListAccountsHandler lists the caller's accounts, or every account for admins
func ListAccountsHandler(db *gorm.DB) gin.HandlerFunc {
	accounts, transactions := repository.NewAccounts(db), repository.NewTransactions(db)
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		owner := repository.OwnedBy(middleware.OwnerScope(c))
		list, err := accounts.List(ctx, owner, repository.OrderBy("id"))
		if err != nil {
			fail(c, err)
			return
		}
		counts, err := transactions.CountBy(ctx, "account_id", owner)
		if err != nil {
			fail(c, err)
			return
		}
		resp := make([]AccountResponse, len(list))
		for i := range list {
			resp[i] = toAccountResponse(&list[i], counts[list[i].ID])
		}
		utils.Success(c, http.StatusOK, "Accounts retrieved successfully", resp)
	}
}

// GetAccountHandler returns one account
func GetAccountHandler(db *gorm.DB) gin.HandlerFunc {
	accounts := repository.NewAccounts(db)
	return func(c *gin.Context) {
		id, err := idParam(c, "id")
		if err != nil {
			fail(c, err)
			return
		}
		account, err := ownedAccount(c, accounts, id)
		if err != nil {
			fail(c, err)
			return
		}
		count, err := accounts.TransactionCount(c.Request.Context(), id)
		if err != nil {
			fail(c, err)
			return
		}
		utils.Success(c, http.StatusOK, "Account retrieved successfully", toAccountResponse(account, count))
	}
}

// CreateAccountHandler opens an account for the caller with an initial balance
func CreateAccountHandler(db *gorm.DB, cache *utils.Cache) gin.HandlerFunc {
	accounts := repository.NewAccounts(db)
	return func(c *gin.Context) {
		var req CreateAccountRequest
		if err := bind(c, &req); err != nil {
			fail(c, err)
			return
		}
		name, currency, kind, err := accountFields(req.Name, req.Currency, req.Type)
		if err != nil {
			fail(c, err)
			return
		}
		account := domain.Account{
			Name:     name,
			Balance:  req.Balance.Round(2),
			Currency: currency,
			Type:     kind,
			UserID:   middleware.CurrentUserID(c),
		}
		if err := accounts.Add(c.Request.Context(), &account); err != nil {
			fail(c, err)
			return
		}
		cache.LedgerChanged(c.Request.Context()) // Account totals changed
		logrus.WithFields(logrus.Fields{
			"account_id": account.ID,
			"user_id":    account.UserID,
			"balance":    account.Balance.String(),
		}).Info("Account created")
		utils.Success(c, http.StatusCreated, "Account created successfully", toAccountResponse(&account, 0))
	}
}

// UpdateAccountHandler renames or retypes an account
func UpdateAccountHandler(db *gorm.DB, cache *utils.Cache) gin.HandlerFunc {
	accounts := repository.NewAccounts(db)
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		id, err := idParam(c, "id")
		if err != nil {
			fail(c, err)
			return
		}
		var req UpdateAccountRequest
		if err := bind(c, &req); err != nil {
			fail(c, err)
			return
		}
		name, currency, kind, err := accountFields(req.Name, req.Currency, req.Type)
		if err != nil {
			fail(c, err)
			return
		}
		account, err := ownedAccount(c, accounts, id)
		if err != nil {
			fail(c, err)
			return
		}
		account.Name, account.Currency, account.Type = name, currency, kind
		// Only descriptive columns; the balance belongs to the ledger
		err = accounts.DB(ctx).Model(account).
			Updates(map[string]any{"name": name, "currency": currency, "type": kind}).Error
		if err != nil {
			fail(c, domain.StorageError("update account", err))
			return
		}
		cache.LedgerChanged(ctx)
		count, err := accounts.TransactionCount(ctx, id)
		if err != nil {
			fail(c, err)
			return
		}
		utils.Success(c, http.StatusOK, "Account updated successfully", toAccountResponse(account, count))
	}
}

// DeleteAccountHandler removes an account that no transaction references
func DeleteAccountHandler(db *gorm.DB, cache *utils.Cache) gin.HandlerFunc {
	accounts := repository.NewAccounts(db)
	return func(c *gin.Context) {
		id, err := idParam(c, "id")
		if err != nil {
			fail(c, err)
			return
		}
		if _, err := ownedAccount(c, accounts, id); err != nil {
			fail(c, err)
			return
		}
		if err := accounts.Delete(c.Request.Context(), id); err != nil {
			fail(c, err)
			return
		}
		cache.LedgerChanged(c.Request.Context())
		logrus.WithFields(logrus.Fields{"account_id": id, "user_id": middleware.CurrentUserID(c)}).Info("Account deleted")
		utils.Success(c, http.StatusOK, "Account deleted successfully", true)
	}
}

// AccountsSummaryHandler rolls balances up by account type
func AccountsSummaryHandler(svc *summary.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		out, err := svc.AccountsSummary(c.Request.Context(), summary.Scope{UserID: middleware.OwnerScope(c)})
		if err != nil {
			fail(c, err)
			return
		}
		utils.Success(c, http.StatusOK, "Accounts summary retrieved successfully", out)
	}
}
