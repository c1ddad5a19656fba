package api

import (
	"context"  // Request-scoped cancellation
	"net/http" // HTTP status codes
	"time"     // Statistics windows

	"personal_finance/internal/domain"     // Importing domain models
	"personal_finance/internal/middleware" // Caller identity
	"personal_finance/internal/repository" // Persistence gateway
	"personal_finance/internal/utils"      // Utility functions

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logrus for structured logging
	"gorm.io/gorm"               // GORM ORM library
)

// UpdateRoleRequest is the body of PUT /users/:id/role
type UpdateRoleRequest struct {
	Role string `json:"role" binding:"required"` // Admin, Premium or User
}

// UserStatistics is returned by GET /users/statistics
type UserStatistics struct {
	TotalUsers        int64                  `json:"totalUsers"`        // Registered users
	ActiveUsers       int64                  `json:"activeUsers"`       // Users with a transaction in the last 30 days
	NewUsersThisMonth int64                  `json:"newUsersThisMonth"` // Registered since the first of the month
	UsersByRole       []repository.RoleCount `json:"usersByRole"`       // Users per role
}

// ListUsersHandler returns one page of users with their ownership counts
func ListUsersHandler(db *gorm.DB) gin.HandlerFunc {
	users := repository.NewUsers(db)
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		page, pageSize := pagination(c)
		total, err := users.Count(ctx) // Total user count
		if err != nil {
			fail(c, err)
			return
		}
		list, err := users.List(ctx, repository.OrderBy("id"), repository.Page(page, pageSize))
		if err != nil {
			fail(c, err)
			return
		}
		accounts, err := countOwned(ctx, db, &domain.Account{})
		if err != nil {
			fail(c, err)
			return
		}
		transactions, err := countOwned(ctx, db, &domain.Transaction{})
		if err != nil {
			fail(c, err)
			return
		}
		// Map users to response format
		resp := make([]UserProfile, len(list))
		for i, u := range list {
			resp[i] = UserProfile{
				ID:               u.ID,
				Username:         u.Username,
				Email:            u.Email,
				Role:             u.Role,
				CreatedAt:        u.CreatedAt,
				UpdatedAt:        u.UpdatedAt,
				AccountCount:     accounts[u.ID],
				TransactionCount: transactions[u.ID],
			}
		}
		utils.Success(c, http.StatusOK, "Users retrieved successfully", newPaged(resp, page, pageSize, total))
	}
}

// UpdateUserRoleHandler changes a user's role; it takes effect on the user's next token
func UpdateUserRoleHandler(db *gorm.DB) gin.HandlerFunc {
	users := repository.NewUsers(db)
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		id, err := idParam(c, "id")
		if err != nil {
			fail(c, err)
			return
		}
		var req UpdateRoleRequest
		if err := bind(c, &req); err != nil {
			fail(c, err)
			return
		}
		if !domain.IsValidRole(req.Role) {
			fail(c, domain.ValidationError("INVALID_ROLE", "Role must be Admin, Premium or User"))
			return
		}
		user, err := users.Get(ctx, id)
		if err != nil {
			fail(c, err)
			return
		}
		previous := user.Role
		now := time.Now().UTC()
		user.Role, user.UpdatedAt = req.Role, &now
		if err := users.Update(ctx, user); err != nil {
			fail(c, err)
			return
		}
		logrus.WithFields(logrus.Fields{
			"user_id":  user.ID,
			"old_role": previous,
			"new_role": user.Role,
			"admin_id": middleware.CurrentUserID(c),
		}).Info("User role updated")

		profile, err := loadProfile(ctx, db, user.ID)
		if err != nil {
			fail(c, err)
			return
		}
		utils.Success(c, http.StatusOK, "User role updated to "+user.Role, profile)
	}
}

// UserStatisticsHandler reports user totals, activity and role distribution
func UserStatisticsHandler(db *gorm.DB) gin.HandlerFunc {
	users := repository.NewUsers(db)
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		now := time.Now().UTC()
		var stats UserStatistics
		var err error
		if stats.TotalUsers, err = users.Count(ctx); err != nil {
			fail(c, err)
			return
		}
		if stats.ActiveUsers, err = users.ActiveSince(ctx, now.AddDate(0, 0, -30)); err != nil {
			fail(c, err)
			return
		}
		monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
		if stats.NewUsersThisMonth, err = users.CreatedSince(ctx, monthStart); err != nil {
			fail(c, err)
			return
		}
		if stats.UsersByRole, err = users.CountByRole(ctx); err != nil {
			fail(c, err)
			return
		}
		utils.Success(c, http.StatusOK, "User statistics retrieved successfully", stats)
	}
}

// countOwned counts rows of model per user_id
func countOwned(ctx context.Context, db *gorm.DB, model any) (map[uint]int64, error) {
	var rows []struct {
		UserID uint
		Count  int64
	}
	err := db.WithContext(ctx).Model(model).Select("user_id, COUNT(*) AS count").Group("user_id").Scan(&rows).Error
	if err != nil {
		return nil, domain.StorageError("count owned rows", err)
	}
	counts := make(map[uint]int64, len(rows))
	for _, row := range rows {
		counts[row.UserID] = row.Count
	}
	return counts, nil
}
