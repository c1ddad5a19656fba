// Package summary derives read-only financial views from persisted transactions
// and accounts: period totals with savings rate, expense breakdown by category and
// an account balance rollup.
package summary

import (
	"context" // Request-scoped cancellation
	"fmt"     // Cache key formatting
	"sort"    // Result ordering
	"time"    // Period bounds

	"personal_finance/internal/domain"     // Importing domain models
	"personal_finance/internal/repository" // Persistence gateway
	"personal_finance/internal/utils"      // Cache helpers

	"github.com/shopspring/decimal" // Fixed-point money
	"github.com/sirupsen/logrus"    // Logrus for structured logging
	"gorm.io/gorm"                  // GORM ORM library
)

var hundred = decimal.NewFromInt(100)

// Scope restricts a summary to one user's rows; a nil UserID covers everyone
type Scope struct {
	UserID *uint
}

func (s Scope) key() string {
	if s.UserID == nil {
		return "all"
	}
	return fmt.Sprintf("user:%d", *s.UserID)
}

func (s Scope) repo() repository.Scope {
	return repository.OwnedBy(s.UserID)
}

// Period is an inclusive date range
type Period struct {
	Start time.Time
	End   time.Time
}

// ResolvePeriod fills missing bounds: start defaults to one month before now, end to now
func ResolvePeriod(start, end *time.Time, now time.Time) Period {
	p := Period{Start: now.AddDate(0, -1, 0), End: now}
	if start != nil {
		p.Start = *start
	}
	if end != nil {
		p.End = *end
	}
	p.Start, p.End = p.Start.UTC(), p.End.UTC()
	return p
}

// FinancialSummary is the result of PeriodSummary
type FinancialSummary struct {
	TotalIncome       decimal.Decimal `json:"totalIncome"`
	TotalExpenses     decimal.Decimal `json:"totalExpenses"`
	Balance           decimal.Decimal `json:"balance"`
	SavingsRate       decimal.Decimal `json:"savingsRate"`
	TotalTransactions int64           `json:"totalTransactions"`
	PeriodStart       time.Time       `json:"periodStart"`
	PeriodEnd         time.Time       `json:"periodEnd"`
}

// CategorySummary is one row of CategoryBreakdown
type CategorySummary struct {
	CategoryName     string          `json:"categoryName"`
	CategoryColor    string          `json:"categoryColor"`
	TotalAmount      decimal.Decimal `json:"totalAmount"`
	Percentage       decimal.Decimal `json:"percentage"`
	TransactionCount int             `json:"transactionCount"`
}

// AccountTypeSummary is the subtotal of one account type
type AccountTypeSummary struct {
	Type         domain.AccountType `json:"type"`
	Count        int                `json:"count"`
	TotalBalance decimal.Decimal    `json:"totalBalance"`
}

// AccountsSummary is the result of AccountsSummary
type AccountsSummary struct {
	TotalBalance   decimal.Decimal      `json:"totalBalance"`
	TotalAccounts  int                  `json:"totalAccounts"`
	AccountsByType []AccountTypeSummary `json:"accountsByType"`
}

// Service computes summaries; it never writes
type Service struct {
	accounts     *repository.Accounts
	transactions *repository.Transactions
	cache        *utils.Cache
	now          func() time.Time
}

// New creates the service; cache may be nil
func New(db *gorm.DB, cache *utils.Cache) *Service {
	return &Service{
		accounts:     repository.NewAccounts(db),
		transactions: repository.NewTransactions(db),
		cache:        cache,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// PeriodSummary totals income and expenses inside the period
func (s *Service) PeriodSummary(ctx context.Context, scope Scope, start, end *time.Time) (*FinancialSummary, error) {
	p := ResolvePeriod(start, end, s.now())
	var out FinancialSummary
	var key string
	if start != nil && end != nil {
		var hit bool
		key, hit = s.lookup(ctx, fmt.Sprintf("period:%s:%d:%d", scope.key(), p.Start.UnixNano(), p.End.UnixNano()), &out)
		if hit {
			return &out, nil
		}
	}

	inRange := []repository.Scope{scope.repo(), repository.Between(p.Start, p.End)}
	income, err := s.transactions.Sum(ctx, append(inRange, repository.OfType(domain.Income))...)
	if err != nil {
		return nil, err
	}
	expenses, err := s.transactions.Sum(ctx, append(inRange, repository.OfType(domain.Expense))...)
	if err != nil {
		return nil, err
	}
	count, err := s.transactions.Count(ctx, inRange...)
	if err != nil {
		return nil, err
	}

	out = FinancialSummary{
		TotalIncome:       income,
		TotalExpenses:     expenses,
		Balance:           income.Sub(expenses),
		SavingsRate:       SavingsRate(income, expenses),
		TotalTransactions: count,
		PeriodStart:       p.Start,
		PeriodEnd:         p.End,
	}
	s.store(ctx, key, out)
	return &out, nil
}

// CategoryBreakdown groups the period's expenses by category
func (s *Service) CategoryBreakdown(ctx context.Context, scope Scope, start, end *time.Time) ([]CategorySummary, error) {
	p := ResolvePeriod(start, end, s.now())
	var out []CategorySummary
	var key string
	if start != nil && end != nil {
		var hit bool
		key, hit = s.lookup(ctx, fmt.Sprintf("breakdown:%s:%d:%d", scope.key(), p.Start.UnixNano(), p.End.UnixNano()), &out)
		if hit {
			return out, nil
		}
	}

	expenses, err := s.transactions.List(ctx, scope.repo(), repository.OfType(domain.Expense),
		repository.Between(p.Start, p.End), func(db *gorm.DB) *gorm.DB { return db.Preload("Category") })
	if err != nil {
		return nil, err
	}
	out = Breakdown(expenses)
	s.store(ctx, key, out)
	return out, nil
}

// AccountsSummary rolls balances up in total and per account type
func (s *Service) AccountsSummary(ctx context.Context, scope Scope) (*AccountsSummary, error) {
	var out AccountsSummary
	key, hit := s.lookup(ctx, "accounts:"+scope.key(), &out)
	if hit {
		return &out, nil
	}

	accounts, err := s.accounts.List(ctx, scope.repo())
	if err != nil {
		return nil, err
	}
	out = RollUp(accounts)
	s.store(ctx, key, out)
	return &out, nil
}

// SavingsRate is (income - expenses) / income * 100 rounded to 2 places, 0 without income
func SavingsRate(income, expenses decimal.Decimal) decimal.Decimal {
	if !income.IsPositive() {
		return decimal.Zero
	}
	return income.Sub(expenses).Div(income).Mul(hundred).Round(2)
}

// Breakdown groups expense transactions by (category name, color), largest total first.
// Transactions must have their Category loaded.
func Breakdown(expenses []domain.Transaction) []CategorySummary {
	type groupKey struct{ name, color string }
	groups := make(map[groupKey]*CategorySummary)
	total := decimal.Zero
	for _, t := range expenses {
		var k groupKey
		if t.Category != nil {
			k = groupKey{t.Category.Name, t.Category.Color}
		}
		g, ok := groups[k]
		if !ok {
			g = &CategorySummary{CategoryName: k.name, CategoryColor: k.color, TotalAmount: decimal.Zero}
			groups[k] = g
		}
		g.TotalAmount = g.TotalAmount.Add(t.Amount)
		g.TransactionCount++
		total = total.Add(t.Amount)
	}

	out := make([]CategorySummary, 0, len(groups))
	for _, g := range groups {
		g.Percentage = decimal.Zero
		if total.IsPositive() {
			g.Percentage = g.TotalAmount.Div(total).Mul(hundred).Round(2)
		}
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].TotalAmount.Cmp(out[j].TotalAmount); c != 0 {
			return c > 0
		}
		if out[i].CategoryName != out[j].CategoryName {
			return out[i].CategoryName < out[j].CategoryName
		}
		return out[i].CategoryColor < out[j].CategoryColor
	})
	return out
}

// RollUp totals account balances overall and per type, types ordered by name
func RollUp(accounts []domain.Account) AccountsSummary {
	byType := make(map[domain.AccountType]*AccountTypeSummary)
	out := AccountsSummary{TotalBalance: decimal.Zero, TotalAccounts: len(accounts), AccountsByType: []AccountTypeSummary{}}
	for _, a := range accounts {
		g, ok := byType[a.Type]
		if !ok {
			g = &AccountTypeSummary{Type: a.Type, TotalBalance: decimal.Zero}
			byType[a.Type] = g
		}
		g.Count++
		g.TotalBalance = g.TotalBalance.Add(a.Balance)
		out.TotalBalance = out.TotalBalance.Add(a.Balance)
	}
	for _, g := range byType {
		out.AccountsByType = append(out.AccountsByType, *g)
	}
	sort.Slice(out.AccountsByType, func(i, j int) bool {
		return out.AccountsByType[i].Type < out.AccountsByType[j].Type
	})
	return out
}

// lookup resolves name under the current generation and reads it. The resolved
// key is returned on a miss too, so the result computed afterwards is stored
// under the generation it was read against and a concurrent Bump orphans it.
// An empty key means the cache is unavailable.
func (s *Service) lookup(ctx context.Context, name string, dest any) (string, bool) {
	key, err := s.cache.Key(ctx, name)
	if err != nil {
		logrus.WithField("error", err.Error()).Warn("Cache unavailable")
		return "", false
	}
	found, err := s.cache.Get(ctx, key, dest)
	if err != nil {
		logrus.WithFields(logrus.Fields{"key": key, "error": err.Error()}).Warn("Cache read failed")
		return key, false
	}
	return key, found
}

// store writes value under a key resolved by lookup; cache failures only cost a recomputation
func (s *Service) store(ctx context.Context, key string, value any) {
	if key == "" {
		return
	}
	if err := s.cache.Set(ctx, key, value); err != nil {
		logrus.WithFields(logrus.Fields{"key": key, "error": err.Error()}).Warn("Cache write failed")
	}
}
