package seed

import (
	"context"
	"testing"

	"personal_finance/internal/db"
	"personal_finance/internal/domain"
	"personal_finance/internal/ledger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestRunSeedsOnceWithConsistentBalances(t *testing.T) {
	gdb, err := db.OpenMemory()
	require.NoError(t, err)
	ctx := context.Background()
	l := ledger.New(gdb, nil)

	require.NoError(t, Run(ctx, gdb, l))
	require.NoError(t, Run(ctx, gdb, l)) // Second run finds data and does nothing

	var categories, users, accounts, transactions int64
	gdb.Model(&domain.Category{}).Count(&categories)
	gdb.Model(&domain.User{}).Count(&users)
	gdb.Model(&domain.Account{}).Count(&accounts)
	gdb.Model(&domain.Transaction{}).Count(&transactions)
	assert.EqualValues(t, len(DefaultCategories), categories)
	assert.EqualValues(t, 2, users)
	assert.EqualValues(t, 3, accounts)
	assert.EqualValues(t, 2, transactions)

	var admin domain.User
	require.NoError(t, gdb.Where("username = ?", AdminUsername).First(&admin).Error)
	assert.Equal(t, domain.RoleAdmin, admin.Role)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(AdminPassword)))

	var card domain.Account
	require.NoError(t, gdb.Where("name = ?", "Black Card").First(&card).Error)
	assert.Equal(t, "117780.75", card.Balance.String())

	var demoCard domain.Account
	require.NoError(t, gdb.Where("name = ?", "Main Card").First(&demoCard).Error)
	assert.Equal(t, "45000", demoCard.Balance.String())
}
