// Package seed fills an empty database with default categories, an admin and a
// demo user, their accounts and a few salary transactions.
package seed

import (
	"context" // Request-scoped cancellation
	"time"    // Transaction dates

	"personal_finance/internal/domain"     // Importing domain models
	"personal_finance/internal/ledger"     // Ledger engine
	"personal_finance/internal/repository" // Persistence gateway

	"github.com/shopspring/decimal" // Fixed-point money
	"github.com/sirupsen/logrus"    // Logrus for structured logging
	"golang.org/x/crypto/bcrypt"    // Password hashing
	"gorm.io/gorm"                  // GORM ORM library
)

// Demo credentials created by Run
const (
	AdminUsername = "admin"
	AdminPassword = "Admin123!"
	DemoUsername  = "demo"
	DemoPassword  = "Demo123!"
)

func budget(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

// DefaultCategories are created when the category table is empty
var DefaultCategories = []domain.Category{
	{Name: "Salary", Color: "#4CAF50", Icon: "work", Type: domain.Income},
	{Name: "Freelance", Color: "#8BC34A", Icon: "computer", Type: domain.Income},
	{Name: "Investments", Color: "#CDDC39", Icon: "show_chart", Type: domain.Income},
	{Name: "Gifts", Color: "#FFEB3B", Icon: "card_giftcard", Type: domain.Income},
	{Name: "Bonus", Color: "#FFC107", Icon: "military_tech", Type: domain.Income},
	{Name: "Dividends", Color: "#FF9800", Icon: "account_balance", Type: domain.Income},

	{Name: "Groceries", Color: "#F44336", Icon: "local_grocery_store", Type: domain.Expense, MonthlyBudget: budget(25000)},
	{Name: "Transport", Color: "#E91E63", Icon: "directions_car", Type: domain.Expense, MonthlyBudget: budget(8000)},
	{Name: "Entertainment", Color: "#9C27B0", Icon: "local_movies", Type: domain.Expense, MonthlyBudget: budget(5000)},
	{Name: "Housing", Color: "#673AB7", Icon: "apartment", Type: domain.Expense, MonthlyBudget: budget(40000)},
	{Name: "Health", Color: "#3F51B5", Icon: "favorite", Type: domain.Expense, MonthlyBudget: budget(5000)},
	{Name: "Clothing", Color: "#2196F3", Icon: "checkroom", Type: domain.Expense, MonthlyBudget: budget(7000)},
	{Name: "Restaurants", Color: "#03A9F4", Icon: "restaurant", Type: domain.Expense, MonthlyBudget: budget(6000)},
	{Name: "Education", Color: "#00BCD4", Icon: "school", Type: domain.Expense, MonthlyBudget: budget(3000)},
	{Name: "Phone & Internet", Color: "#009688", Icon: "smartphone", Type: domain.Expense, MonthlyBudget: budget(1500)},
}

// Run seeds whatever is missing: categories when there are none, users with
// their accounts and transactions when there are no users. It is safe to rerun.
func Run(ctx context.Context, db *gorm.DB, l *ledger.Ledger) error {
	if err := seedCategories(ctx, db); err != nil {
		return err
	}
	return seedUsers(ctx, db, l)
}

func seedCategories(ctx context.Context, db *gorm.DB) error {
	categories := repository.NewCategories(db)
	n, err := categories.Count(ctx)
	if err != nil || n > 0 {
		return err
	}
	for i := range DefaultCategories {
		c := DefaultCategories[i] // Copy, Add assigns the ID
		if err := categories.Add(ctx, &c); err != nil {
			return err
		}
	}
	logrus.WithField("count", len(DefaultCategories)).Info("Categories seeded")
	return nil
}

func seedUsers(ctx context.Context, db *gorm.DB, l *ledger.Ledger) error {
	users := repository.NewUsers(db)
	n, err := users.Count(ctx)
	if err != nil || n > 0 {
		return err
	}
	admin, err := addUser(ctx, users, AdminUsername, "admin@finance.com", AdminPassword, domain.RoleAdmin)
	if err != nil {
		return err
	}
	demo, err := addUser(ctx, users, DemoUsername, "demo@finance.com", DemoPassword, domain.RoleUser)
	if err != nil {
		return err
	}

	accounts := repository.NewAccounts(db)
	seeded := []domain.Account{
		{Name: "Cash", Balance: decimal.RequireFromString("8450.25"), Currency: domain.DefaultCurrency, Type: domain.AccountCash, UserID: admin.ID},
		{Name: "Black Card", Balance: decimal.RequireFromString("32780.75"), Currency: domain.DefaultCurrency, Type: domain.AccountBankCard, UserID: admin.ID},
		{Name: "Main Card", Balance: decimal.RequireFromString("15000.00"), Currency: domain.DefaultCurrency, Type: domain.AccountBankCard, UserID: demo.ID},
	}
	for i := range seeded {
		if err := accounts.Add(ctx, &seeded[i]); err != nil {
			return err
		}
	}

	salary, err := repository.NewCategories(db).List(ctx, repository.Where("name = ?", "Salary"))
	if err != nil {
		return err
	}
	if len(salary) == 0 {
		logrus.Warn("Salary category missing, skipping demo transactions")
		return nil
	}
	now := time.Now().UTC()
	payments := []struct {
		user    *domain.User
		account *domain.Account
		amount  string
		note    string
		daysAgo int
	}{
		{admin, &seeded[1], "85000.00", "January salary", 10},
		{demo, &seeded[2], "30000.00", "Salary", 8},
	}
	for _, p := range payments {
		_, err := l.Record(ctx, p.user.ID, ledger.NewTransaction{
			Amount:      decimal.RequireFromString(p.amount),
			Description: p.note,
			Date:        now.AddDate(0, 0, -p.daysAgo),
			Type:        domain.Income,
			CategoryID:  salary[0].ID,
			AccountID:   p.account.ID,
		})
		if err != nil {
			return err
		}
	}
	logrus.WithFields(logrus.Fields{
		"users":        2,
		"accounts":     len(seeded),
		"transactions": len(payments),
	}).Info("Demo data seeded, sign in as admin/Admin123! or demo/Demo123!")
	return nil
}

func addUser(ctx context.Context, users *repository.Users, username, email, password, role string) (*domain.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	u := &domain.User{Username: username, Email: email, PasswordHash: string(hash), Role: role}
	if err := users.Add(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}
