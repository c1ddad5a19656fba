package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"personal_finance/internal/db"
	"personal_finance/internal/domain"
	"personal_finance/internal/ledger"
	"personal_finance/internal/summary"
	"personal_finance/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const testSecret = "0123456789abcdef0123456789abcdef"

type envelope[T any] struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	Data      T      `json:"data"`
	ErrorCode string `json:"errorCode"`
}

type harness struct {
	t      *testing.T
	db     *gorm.DB
	router *gin.Engine
	tokens *utils.TokenIssuer
	salary domain.Category
	food   domain.Category
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	gin.SetMode(gin.TestMode)
	gdb, err := db.OpenMemory()
	require.NoError(t, err)
	tokens := utils.NewTokenIssuer(testSecret, "personal-finance", "personal-finance", 60, 7)
	router, err := NewRouter(Deps{
		DB:      gdb,
		Ledger:  ledger.New(gdb, nil),
		Summary: summary.New(gdb, nil),
		Tokens:  tokens,
	})
	require.NoError(t, err)

	h := &harness{t: t, db: gdb, router: router, tokens: tokens}
	h.salary = domain.Category{Name: "Salary", Color: "#4CAF50", Type: domain.Income}
	h.food = domain.Category{Name: "Food", Color: "#F44336", Type: domain.Expense}
	require.NoError(t, gdb.Create(&h.salary).Error)
	require.NoError(t, gdb.Create(&h.food).Error)
	return h
}

// user inserts a user with role and returns it with a bearer token
func (h *harness) user(name, role string) (domain.User, string) {
	h.t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("Password1!"), bcrypt.MinCost)
	require.NoError(h.t, err)
	u := domain.User{Username: name, Email: name + "@example.com", PasswordHash: string(hash), Role: role}
	require.NoError(h.t, h.db.Create(&u).Error)
	pair, err := h.tokens.Issue(&u)
	require.NoError(h.t, err)
	return u, pair.AccessToken
}

func (h *harness) do(method, path, token string, body any) *httptest.ResponseRecorder {
	h.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(h.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) envelope[T] {
	t.Helper()
	var env envelope[T]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return env
}

func (h *harness) createAccount(token, name, balance string) AccountResponse {
	h.t.Helper()
	w := h.do(http.MethodPost, "/api/accounts", token, gin.H{"name": name, "balance": balance, "type": "BankCard"})
	require.Equal(h.t, http.StatusCreated, w.Code, w.Body.String())
	return decode[AccountResponse](h.t, w).Data
}

func (h *harness) balance(id uint) decimal.Decimal {
	h.t.Helper()
	var a domain.Account
	require.NoError(h.t, h.db.First(&a, id).Error)
	return a.Balance
}

func TestAuthFlow(t *testing.T) {
	h := newHarness(t)

	w := h.do(http.MethodPost, "/api/auth/register", "", gin.H{"username": "alice", "email": "Alice@Example.com", "password": "Secret123!"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	reg := decode[AuthResponse](t, w)
	assert.True(t, reg.Success)
	assert.Equal(t, domain.RoleUser, reg.Data.Role)
	assert.Equal(t, "alice@example.com", reg.Data.Email)
	assert.NotEmpty(t, reg.Data.AccessToken)

	w = h.do(http.MethodPost, "/api/auth/register", "", gin.H{"username": "alice", "email": "other@example.com", "password": "Secret123!"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "USERNAME_TAKEN", decode[any](t, w).ErrorCode)

	w = h.do(http.MethodPost, "/api/auth/register", "", gin.H{"username": "bob", "email": "not-an-email", "password": "Secret123!"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = h.do(http.MethodPost, "/api/auth/login", "", gin.H{"usernameOrEmail": "alice", "password": "wrong-password"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "INVALID_CREDENTIALS", decode[any](t, w).ErrorCode)

	w = h.do(http.MethodPost, "/api/auth/login", "", gin.H{"usernameOrEmail": "alice@example.com", "password": "Secret123!"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	login := decode[AuthResponse](t, w).Data

	w = h.do(http.MethodPost, "/api/auth/refresh", "", gin.H{"refreshToken": login.RefreshToken})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	refreshed := decode[AuthResponse](t, w).Data
	assert.Equal(t, login.UserID, refreshed.UserID)

	w = h.do(http.MethodPost, "/api/auth/refresh", "", gin.H{"refreshToken": login.AccessToken})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = h.do(http.MethodGet, "/api/auth/profile", refreshed.AccessToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	profile := decode[UserProfile](t, w).Data
	assert.Equal(t, "alice", profile.Username)
	assert.EqualValues(t, 0, profile.AccountCount)

	w = h.do(http.MethodPost, "/api/auth/logout", refreshed.AccessToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = h.do(http.MethodGet, "/api/users/profile", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAccountsOwnershipAndRoles(t *testing.T) {
	h := newHarness(t)
	_, userToken := h.user("ursula", domain.RoleUser)
	_, otherToken := h.user("oscar", domain.RolePremium)
	_, adminToken := h.user("ada", domain.RoleAdmin)

	mine := h.createAccount(userToken, "Visa", "100.555")
	assert.Equal(t, "100.56", mine.Balance.String())
	assert.Equal(t, "RUB", mine.Currency)
	theirs := h.createAccount(otherToken, "Cash box", "0")

	w := h.do(http.MethodGet, "/api/accounts", userToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[[]AccountResponse](t, w).Data
	require.Len(t, list, 1)
	assert.Equal(t, mine.ID, list[0].ID)

	w = h.do(http.MethodGet, "/api/accounts", adminToken, nil)
	assert.Len(t, decode[[]AccountResponse](t, w).Data, 2)

	w = h.do(http.MethodGet, fmt.Sprintf("/api/accounts/%d", theirs.ID), userToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = h.do(http.MethodGet, "/api/accounts/999", userToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "ACCOUNT_NOT_FOUND", decode[any](t, w).ErrorCode)

	w = h.do(http.MethodPost, "/api/accounts", userToken, gin.H{"name": " ", "type": "Cash"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = h.do(http.MethodPost, "/api/accounts", userToken, gin.H{"name": "Broker", "type": "Crypto"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = h.do(http.MethodPut, fmt.Sprintf("/api/accounts/%d", mine.ID), userToken, gin.H{"name": "Savings jar", "type": 3, "balance": "1000000"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	updated := decode[AccountResponse](t, w).Data
	assert.Equal(t, "Savings jar", updated.Name)
	assert.Equal(t, domain.AccountSavings, updated.Type)
	assert.Equal(t, "100.56", h.balance(mine.ID).String())

	w = h.do(http.MethodDelete, fmt.Sprintf("/api/accounts/%d", mine.ID), userToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = h.do(http.MethodDelete, fmt.Sprintf("/api/accounts/%d", theirs.ID), otherToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = h.do(http.MethodGet, "/api/accounts/summary", userToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = h.do(http.MethodGet, "/api/accounts/summary", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	rollup := decode[summary.AccountsSummary](t, w).Data
	assert.Equal(t, 1, rollup.TotalAccounts)
	assert.Equal(t, "100.56", rollup.TotalBalance.String())
}

func TestTransactionLifecycleKeepsBalance(t *testing.T) {
	h := newHarness(t)
	_, userToken := h.user("ursula", domain.RoleUser)
	_, premiumToken := h.user("petra", domain.RolePremium)
	_, adminToken := h.user("ada", domain.RoleAdmin)
	acc := h.createAccount(userToken, "Card", "0")

	w := h.do(http.MethodPost, "/api/transactions", userToken, gin.H{
		"amount": 500, "description": "Groceries", "date": "2026-03-05", "type": "Expense",
		"categoryId": h.food.ID, "accountId": acc.ID,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[TransactionResponse](t, w).Data
	assert.Equal(t, "Food", created.CategoryName)
	assert.Equal(t, "Card", created.AccountName)
	assert.Equal(t, "-500", h.balance(acc.ID).String())

	w = h.do(http.MethodPut, fmt.Sprintf("/api/transactions/%d", created.ID), userToken, gin.H{"amount": "300"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "-300", h.balance(acc.ID).String())

	w = h.do(http.MethodDelete, fmt.Sprintf("/api/transactions/%d", created.ID), premiumToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = h.do(http.MethodDelete, fmt.Sprintf("/api/transactions/%d", created.ID), adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, h.balance(acc.ID).IsZero())

	w = h.do(http.MethodDelete, fmt.Sprintf("/api/transactions/%d", created.ID), adminToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestTransactionValidation(t *testing.T) {
	h := newHarness(t)
	_, userToken := h.user("ursula", domain.RoleUser)
	_, otherToken := h.user("oscar", domain.RoleUser)
	acc := h.createAccount(userToken, "Card", "0")

	cases := []struct {
		name string
		body gin.H
		code string
	}{
		{"zero amount", gin.H{"amount": 0, "type": "Expense", "categoryId": h.food.ID, "accountId": acc.ID}, "INVALID_AMOUNT"},
		{"bad type", gin.H{"amount": 5, "type": "Gift", "categoryId": h.food.ID, "accountId": acc.ID}, "INVALID_TYPE"},
		{"type mismatch", gin.H{"amount": 5, "type": "Income", "categoryId": h.food.ID, "accountId": acc.ID}, "CATEGORY_TYPE_MISMATCH"},
		{"missing category", gin.H{"amount": 5, "type": "Expense", "categoryId": 999, "accountId": acc.ID}, "INVALID_CATEGORY"},
		{"missing account", gin.H{"amount": 5, "type": "Expense", "categoryId": h.food.ID, "accountId": 999}, "INVALID_ACCOUNT"},
		{"bad date", gin.H{"amount": 5, "type": "Expense", "categoryId": h.food.ID, "accountId": acc.ID, "date": "05/03/2026"}, "INVALID_DATE"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := h.do(http.MethodPost, "/api/transactions", userToken, tc.body)
			assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
			assert.Equal(t, tc.code, decode[any](t, w).ErrorCode)
		})
	}
	assert.True(t, h.balance(acc.ID).IsZero())

	w := h.do(http.MethodPost, "/api/transactions", otherToken, gin.H{"amount": 5, "type": 1, "categoryId": h.food.ID, "accountId": acc.ID})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestDeleteBlockedByTransactions(t *testing.T) {
	h := newHarness(t)
	_, premiumToken := h.user("petra", domain.RolePremium)
	acc := h.createAccount(premiumToken, "Card", "0")
	w := h.do(http.MethodPost, "/api/transactions", premiumToken, gin.H{"amount": 10, "type": "Income", "categoryId": h.salary.ID, "accountId": acc.ID})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = h.do(http.MethodDelete, fmt.Sprintf("/api/accounts/%d", acc.ID), premiumToken, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "ACCOUNT_IN_USE", decode[any](t, w).ErrorCode)

	w = h.do(http.MethodDelete, fmt.Sprintf("/api/categories/%d", h.salary.ID), premiumToken, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "CATEGORY_IN_USE", decode[any](t, w).ErrorCode)

	w = h.do(http.MethodDelete, fmt.Sprintf("/api/categories/%d", h.food.ID), premiumToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestTransactionListsAndPaging(t *testing.T) {
	h := newHarness(t)
	_, userToken := h.user("ursula", domain.RoleUser)
	_, otherToken := h.user("oscar", domain.RoleUser)
	acc := h.createAccount(userToken, "Card", "0")
	other := h.createAccount(otherToken, "Cash", "0")
	for i := 1; i <= 12; i++ {
		body := gin.H{"amount": i, "type": "Income", "categoryId": h.salary.ID, "accountId": acc.ID, "date": fmt.Sprintf("2026-02-%02d", i)}
		if i%4 == 0 {
			body["type"], body["categoryId"] = "Expense", h.food.ID
		}
		require.Equal(t, http.StatusCreated, h.do(http.MethodPost, "/api/transactions", userToken, body).Code)
	}
	require.Equal(t, http.StatusCreated, h.do(http.MethodPost, "/api/transactions", otherToken,
		gin.H{"amount": 1, "type": "Income", "categoryId": h.salary.ID, "accountId": other.ID}).Code)

	w := h.do(http.MethodGet, "/api/transactions", userToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	page := decode[Paged[TransactionResponse]](t, w).Data
	assert.EqualValues(t, 12, page.TotalCount)
	assert.Len(t, page.Items, DefaultPageSize)
	assert.Equal(t, 2, page.TotalPages)
	assert.True(t, page.HasNext)
	assert.Equal(t, "12", page.Items[0].Amount.String())

	w = h.do(http.MethodGet, "/api/transactions?page=2&pageSize=5", userToken, nil)
	page = decode[Paged[TransactionResponse]](t, w).Data
	assert.Len(t, page.Items, 5)
	assert.Equal(t, "7", page.Items[0].Amount.String())

	w = h.do(http.MethodGet, "/api/transactions?pageSize=1000", userToken, nil)
	assert.Equal(t, MaxPageSize, decode[Paged[TransactionResponse]](t, w).Data.PageSize)

	// A huge page number is clamped instead of wrapping the offset back to page 1
	w = h.do(http.MethodGet, "/api/transactions?page=9223372036854775807&pageSize=100", userToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	page = decode[Paged[TransactionResponse]](t, w).Data
	assert.Equal(t, MaxPage, page.Page)
	assert.Empty(t, page.Items)
	assert.False(t, page.HasNext)

	w = h.do(http.MethodGet, "/api/transactions/type/expense", userToken, nil)
	assert.EqualValues(t, 3, decode[Paged[TransactionResponse]](t, w).Data.TotalCount)

	w = h.do(http.MethodGet, fmt.Sprintf("/api/transactions/category/%d", h.salary.ID), userToken, nil)
	assert.EqualValues(t, 9, decode[Paged[TransactionResponse]](t, w).Data.TotalCount)

	w = h.do(http.MethodGet, fmt.Sprintf("/api/transactions/account/%d", other.ID), userToken, nil)
	assert.EqualValues(t, 0, decode[Paged[TransactionResponse]](t, w).Data.TotalCount)

	w = h.do(http.MethodGet, "/api/transactions/type/gift", userToken, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSummaries(t *testing.T) {
	h := newHarness(t)
	_, userToken := h.user("ursula", domain.RoleUser)
	_, premiumToken := h.user("petra", domain.RolePremium)
	acc := h.createAccount(premiumToken, "Card", "0")
	post := func(amount int, typ string, cat uint, date string) {
		w := h.do(http.MethodPost, "/api/transactions", premiumToken, gin.H{"amount": amount, "type": typ, "categoryId": cat, "accountId": acc.ID, "date": date})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	}
	post(1000, "Income", h.salary.ID, "2026-04-02")
	post(500, "Income", h.salary.ID, "2026-04-15")
	post(300, "Expense", h.food.ID, "2026-05-01")
	post(10000, "Income", h.salary.ID, "2026-06-20")

	w := h.do(http.MethodGet, "/api/transactions/summary?startDate=2026-04-01&endDate=2026-05-01", userToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = h.do(http.MethodGet, "/api/transactions/summary?startDate=2026-04-01&endDate=2026-05-01", premiumToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	fs := decode[summary.FinancialSummary](t, w).Data
	assert.Equal(t, "1500", fs.TotalIncome.String())
	assert.Equal(t, "300", fs.TotalExpenses.String())
	assert.Equal(t, "1200", fs.Balance.String())
	assert.Equal(t, "80", fs.SavingsRate.String())
	assert.EqualValues(t, 3, fs.TotalTransactions)

	w = h.do(http.MethodGet, "/api/transactions/expenses-by-category?startDate=2026-04-01&endDate=2026-05-01", premiumToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	breakdown := decode[[]summary.CategorySummary](t, w).Data
	require.Len(t, breakdown, 1)
	assert.Equal(t, "Food", breakdown[0].CategoryName)
	assert.Equal(t, "100", breakdown[0].Percentage.String())

	w = h.do(http.MethodGet, "/api/transactions/summary?startDate=2026-05-01&endDate=2026-04-01", premiumToken, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCategoriesCRUD(t *testing.T) {
	h := newHarness(t)
	_, token := h.user("ursula", domain.RoleUser)

	w := h.do(http.MethodPost, "/api/categories", token, gin.H{"name": "Transport", "color": "#2196F3", "icon": "car", "type": "Expense", "monthlyBudget": "5000"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[CategoryResponse](t, w).Data
	assert.Equal(t, "5000", created.MonthlyBudget.String())

	w = h.do(http.MethodPost, "/api/categories", token, gin.H{"name": "Broken", "type": "Expense", "monthlyBudget": -1})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = h.do(http.MethodGet, "/api/categories/expense", token, nil)
	expense := decode[[]CategoryResponse](t, w).Data
	require.Len(t, expense, 2)
	assert.Equal(t, "Food", expense[0].Name)

	w = h.do(http.MethodGet, "/api/categories/income", token, nil)
	assert.Len(t, decode[[]CategoryResponse](t, w).Data, 1)

	w = h.do(http.MethodPut, fmt.Sprintf("/api/categories/%d", created.ID), token, gin.H{"name": "Travel", "type": "Income"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, domain.Income, decode[CategoryResponse](t, w).Data.Type)

	w = h.do(http.MethodGet, fmt.Sprintf("/api/categories/%d", created.ID), token, nil)
	assert.Equal(t, "Travel", decode[CategoryResponse](t, w).Data.Name)

	w = h.do(http.MethodDelete, fmt.Sprintf("/api/categories/%d", created.ID), token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = h.do(http.MethodGet, fmt.Sprintf("/api/categories/%d", created.ID), token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUserAdministration(t *testing.T) {
	h := newHarness(t)
	target, userToken := h.user("ursula", domain.RoleUser)
	_, adminToken := h.user("ada", domain.RoleAdmin)

	w := h.do(http.MethodGet, "/api/users", userToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = h.do(http.MethodGet, "/api/users?pageSize=1", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	users := decode[Paged[UserProfile]](t, w).Data
	assert.EqualValues(t, 2, users.TotalCount)
	assert.Len(t, users.Items, 1)

	w = h.do(http.MethodPut, fmt.Sprintf("/api/users/%d/role", target.ID), adminToken, gin.H{"role": "Owner"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = h.do(http.MethodPut, fmt.Sprintf("/api/users/%d/role", target.ID), adminToken, gin.H{"role": domain.RolePremium})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	profile := decode[UserProfile](t, w).Data
	assert.Equal(t, domain.RolePremium, profile.Role)
	assert.NotNil(t, profile.UpdatedAt)

	w = h.do(http.MethodGet, "/api/users/statistics", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	stats := decode[UserStatistics](t, w).Data
	assert.EqualValues(t, 2, stats.TotalUsers)
	assert.EqualValues(t, 2, stats.NewUsersThisMonth)
	assert.EqualValues(t, 0, stats.ActiveUsers)
	assert.Len(t, stats.UsersByRole, 2)
}

func TestHealthAndUnknownRoutes(t *testing.T) {
	h := newHarness(t)

	w := h.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = h.do(http.MethodGet, "/api/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "ROUTE_NOT_FOUND", decode[any](t, w).ErrorCode)

	w = h.do(http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
