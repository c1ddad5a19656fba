package api

import (
	"errors"   // Error inspection
	"net/http" // HTTP status codes

	"personal_finance/internal/domain"     // Importing domain models
	"personal_finance/internal/ledger"     // Ledger engine
	"personal_finance/internal/middleware" // Caller identity
	"personal_finance/internal/repository" // Persistence gateway
	"personal_finance/internal/summary"    // Aggregation engine
	"personal_finance/internal/utils"      // Utility functions

	"github.com/gin-gonic/gin"      // Gin web framework
	"github.com/shopspring/decimal" // Fixed-point money
	"gorm.io/gorm"                  // GORM ORM library
)

// CreateTransactionRequest is the body of POST /transactions
type CreateTransactionRequest struct {
	Amount      decimal.Decimal `json:"amount"`      // Must be > 0
	Description string          `json:"description"` // At most 200 characters
	Date        string          `json:"date"`        // RFC3339 or YYYY-MM-DD, defaults to now
	Type        enum            `json:"type"`        // Income or Expense
	CategoryID  uint            `json:"categoryId"`  // Category of the same type
	AccountID   uint            `json:"accountId"`   // One of the caller's accounts
}

// UpdateTransactionRequest is the body of PUT /transactions/:id; omitted fields are kept
type UpdateTransactionRequest struct {
	Amount      *decimal.Decimal `json:"amount"`
	Description *string          `json:"description"`
	Date        *string          `json:"date"`
	Type        *enum            `json:"type"`
	CategoryID  *uint            `json:"categoryId"`
	AccountID   *uint            `json:"accountId"`
}

// patch converts the request into a ledger patch
func (r UpdateTransactionRequest) patch() (ledger.Patch, error) {
	p := ledger.Patch{Amount: r.Amount, Description: r.Description, CategoryID: r.CategoryID, AccountID: r.AccountID}
	if r.Type != nil {
		t, err := r.Type.transactionType()
		if err != nil {
			return p, err
		}
		p.Type = &t
	}
	if r.Date != nil {
		d, err := parseDate(*r.Date, false)
		if err != nil {
			return p, err
		}
		p.Date = d
	}
	return p, nil
}

// writableAccount resolves the owner for a transaction on accountID. A missing
// account is left for the ledger to report; a foreign one is Forbidden unless the caller is an admin.
func writableAccount(c *gin.Context, accounts *repository.Accounts, accountID uint) (owner uint, err error) {
	owner = middleware.CurrentUserID(c)
	account, err := accounts.Get(c.Request.Context(), accountID)
	if errors.Is(err, domain.ErrNotFound) {
		return owner, nil
	} else if err != nil {
		return 0, err
	}
	if account.UserID != owner {
		if !middleware.IsAdmin(c) {
			return 0, domain.Forbidden("You do not have access to this account")
		}
		owner = account.UserID // Admins record on behalf of the account owner
	}
	return owner, nil
}

// ownedTransaction loads a transaction the caller may access
func ownedTransaction(c *gin.Context, l *ledger.Ledger, id uint) (*domain.Transaction, error) {
	t, err := l.Get(c.Request.Context(), id)
	if err != nil {
		return nil, err
	}
	if !middleware.IsAdmin(c) && t.UserID != middleware.CurrentUserID(c) {
		return nil, domain.Forbidden("You do not have access to this transaction")
	}
	return t, nil
}

// ListTransactionsHandler pages through the caller's transactions, newest first.
// filter, when set, derives an extra condition from the request.
func ListTransactionsHandler(db *gorm.DB, filter func(*gin.Context) (repository.Scope, error)) gin.HandlerFunc {
	transactions := repository.NewTransactions(db)
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		scopes := []repository.Scope{repository.OwnedBy(middleware.OwnerScope(c))}
		if filter != nil {
			extra, err := filter(c)
			if err != nil {
				fail(c, err)
				return
			}
			scopes = append(scopes, extra)
		}
		page, pageSize := pagination(c)
		total, err := transactions.Count(ctx, scopes...)
		if err != nil {
			fail(c, err)
			return
		}
		list, err := transactions.ListDetailed(ctx, append(scopes, repository.Page(page, pageSize))...)
		if err != nil {
			fail(c, err)
			return
		}
		utils.Success(c, http.StatusOK, "Transactions retrieved successfully",
			newPaged(toTransactionResponses(list), page, pageSize, total))
	}
}

// ByType filters on the :type path parameter
func ByType(c *gin.Context) (repository.Scope, error) {
	t, err := enum(c.Param("type")).transactionType()
	if err != nil {
		return nil, err
	}
	return repository.OfType(t), nil
}

// ByAccount filters on the :id path parameter as an account id
func ByAccount(c *gin.Context) (repository.Scope, error) {
	id, err := idParam(c, "id")
	if err != nil {
		return nil, err
	}
	return repository.Where("account_id = ?", id), nil
}

// ByCategory filters on the :id path parameter as a category id
func ByCategory(c *gin.Context) (repository.Scope, error) {
	id, err := idParam(c, "id")
	if err != nil {
		return nil, err
	}
	return repository.Where("category_id = ?", id), nil
}

// GetTransactionHandler returns one transaction
func GetTransactionHandler(l *ledger.Ledger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := idParam(c, "id")
		if err != nil {
			fail(c, err)
			return
		}
		t, err := ownedTransaction(c, l, id)
		if err != nil {
			fail(c, err)
			return
		}
		utils.Success(c, http.StatusOK, "Transaction retrieved successfully", toTransactionResponse(t))
	}
}

// CreateTransactionHandler records a transaction and moves its account balance
func CreateTransactionHandler(db *gorm.DB, l *ledger.Ledger) gin.HandlerFunc {
	accounts := repository.NewAccounts(db)
	return func(c *gin.Context) {
		var req CreateTransactionRequest
		if err := bind(c, &req); err != nil {
			fail(c, err)
			return
		}
		t, err := req.Type.transactionType()
		if err != nil {
			fail(c, err)
			return
		}
		date, err := parseDate(req.Date, false)
		if err != nil {
			fail(c, err)
			return
		}
		owner, err := writableAccount(c, accounts, req.AccountID)
		if err != nil {
			fail(c, err)
			return
		}
		in := ledger.NewTransaction{
			Amount:      req.Amount,
			Description: req.Description,
			Type:        t,
			CategoryID:  req.CategoryID,
			AccountID:   req.AccountID,
		}
		if date != nil {
			in.Date = *date
		}
		created, err := l.Record(c.Request.Context(), owner, in)
		if err != nil {
			fail(c, err)
			return
		}
		utils.Success(c, http.StatusCreated, "Transaction created successfully", toTransactionResponse(created))
	}
}

// UpdateTransactionHandler amends a transaction, rebalancing the affected accounts
func UpdateTransactionHandler(db *gorm.DB, l *ledger.Ledger) gin.HandlerFunc {
	accounts := repository.NewAccounts(db)
	return func(c *gin.Context) {
		id, err := idParam(c, "id")
		if err != nil {
			fail(c, err)
			return
		}
		var req UpdateTransactionRequest
		if err := bind(c, &req); err != nil {
			fail(c, err)
			return
		}
		p, err := req.patch()
		if err != nil {
			fail(c, err)
			return
		}
		existing, err := ownedTransaction(c, l, id)
		if err != nil {
			fail(c, err)
			return
		}
		if p.AccountID != nil && *p.AccountID != existing.AccountID {
			owner, err := writableAccount(c, accounts, *p.AccountID)
			if err != nil {
				fail(c, err)
				return
			}
			if owner != existing.UserID {
				fail(c, domain.ValidationError("INVALID_ACCOUNT", "A transaction cannot move to another user's account"))
				return
			}
		}
		updated, err := l.Amend(c.Request.Context(), id, p)
		if err != nil {
			fail(c, err)
			return
		}
		utils.Success(c, http.StatusOK, "Transaction updated successfully", toTransactionResponse(updated))
	}
}

// DeleteTransactionHandler retracts a transaction and restores its account balance
func DeleteTransactionHandler(l *ledger.Ledger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := idParam(c, "id")
		if err != nil {
			fail(c, err)
			return
		}
		if err := l.Retract(c.Request.Context(), id); err != nil {
			fail(c, err)
			return
		}
		utils.Success(c, http.StatusOK, "Transaction deleted successfully", true)
	}
}

// SummaryHandler reports income, expenses and savings rate for a period
func SummaryHandler(svc *summary.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		start, end, err := dateRange(c)
		if err != nil {
			fail(c, err)
			return
		}
		out, err := svc.PeriodSummary(c.Request.Context(), summary.Scope{UserID: middleware.OwnerScope(c)}, start, end)
		if err != nil {
			fail(c, err)
			return
		}
		utils.Success(c, http.StatusOK, "Financial summary retrieved successfully", out)
	}
}

// ExpensesByCategoryHandler breaks the period's expenses down by category
func ExpensesByCategoryHandler(svc *summary.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		start, end, err := dateRange(c)
		if err != nil {
			fail(c, err)
			return
		}
		out, err := svc.CategoryBreakdown(c.Request.Context(), summary.Scope{UserID: middleware.OwnerScope(c)}, start, end)
		if err != nil {
			fail(c, err)
			return
		}
		if out == nil {
			out = []summary.CategorySummary{}
		}
		utils.Success(c, http.StatusOK, "Expenses by category retrieved successfully", out)
	}
}
