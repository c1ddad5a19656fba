package repository

import (
	"context" // Request-scoped cancellation
	"errors"  // Error inspection
	"strings" // Case folding
	"time"    // Registration windows

	"personal_finance/internal/domain" // Importing domain models

	"gorm.io/gorm" // GORM ORM library
)

// Users persists domain.User rows
type Users struct {
	*Repository[domain.User]
}

// NewUsers creates the user repository
func NewUsers(db *gorm.DB) *Users {
	return &Users{Repository: New[domain.User](db, "USER")}
}

// FindByLogin looks a user up by username or email
func (r *Users) FindByLogin(ctx context.Context, login string) (*domain.User, error) {
	login = strings.TrimSpace(login)
	var user domain.User
	err := r.DB(ctx).Where("username = ? OR email = ?", login, strings.ToLower(login)).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.NotFound("USER_NOT_FOUND", "user not found")
	}
	if err != nil {
		return nil, domain.StorageError("find user", err)
	}
	return &user, nil
}

// FindTaken returns a user already holding username or email, or nil
func (r *Users) FindTaken(ctx context.Context, username, email string) (*domain.User, error) {
	var users []domain.User
	err := r.DB(ctx).Where("username = ? OR email = ?", username, email).Limit(1).Find(&users).Error
	if err != nil {
		return nil, domain.StorageError("find user", err)
	}
	if len(users) == 0 {
		return nil, nil
	}
	return &users[0], nil
}

// RoleCount is the number of users holding a role
type RoleCount struct {
	Role  string `json:"role"`
	Count int64  `json:"count"`
}

// CountByRole groups users by role
func (r *Users) CountByRole(ctx context.Context) ([]RoleCount, error) {
	var rows []RoleCount
	err := r.DB(ctx).Model(&domain.User{}).Select("role, COUNT(*) AS count").
		Group("role").Order("role").Scan(&rows).Error
	if err != nil {
		return nil, domain.StorageError("count users by role", err)
	}
	return rows, nil
}

// CreatedSince counts users registered at or after since
func (r *Users) CreatedSince(ctx context.Context, since time.Time) (int64, error) {
	return r.Count(ctx, Where("created_at >= ?", since.UTC()))
}

// ActiveSince counts users owning at least one transaction dated at or after since
func (r *Users) ActiveSince(ctx context.Context, since time.Time) (int64, error) {
	var n int64
	err := r.DB(ctx).Model(&domain.Transaction{}).Where("date >= ?", since.UTC()).
		Distinct("user_id").Count(&n).Error
	if err != nil {
		return 0, domain.StorageError("count active users", err)
	}
	return n, nil
}
