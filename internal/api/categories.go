package api

import (
	"net/http" // HTTP status codes
	"strings"  // String manipulation

	"personal_finance/internal/domain"     // Importing domain models
	"personal_finance/internal/repository" // Persistence gateway
	"personal_finance/internal/utils"      // Utility functions

	"github.com/gin-gonic/gin"      // Gin web framework
	"github.com/shopspring/decimal" // Fixed-point money
	"github.com/sirupsen/logrus"    // Logrus for structured logging
	"gorm.io/gorm"                  // GORM ORM library
)

// CategoryRequest is the body of POST and PUT /categories
type CategoryRequest struct {
	Name          string          `json:"name"`          // Display name, required
	Color         string          `json:"color"`         // Color tag
	Icon          string          `json:"icon"`          // Icon tag
	Type          enum            `json:"type"`          // Income or Expense
	MonthlyBudget decimal.Decimal `json:"monthlyBudget"` // Informational budget, >= 0
}

// toCategory validates the request and builds the model
func (r CategoryRequest) toCategory() (domain.Category, error) {
	name := strings.TrimSpace(r.Name)
	if name == "" || len([]rune(name)) > 100 {
		return domain.Category{}, domain.ValidationError("INVALID_NAME", "Category name is required and must be at most 100 characters")
	}
	t, err := r.Type.transactionType()
	if err != nil {
		return domain.Category{}, err
	}
	if r.MonthlyBudget.IsNegative() {
		return domain.Category{}, domain.ValidationError("INVALID_BUDGET", "Monthly budget cannot be negative")
	}
	return domain.Category{
		Name:          name,
		Color:         strings.TrimSpace(r.Color),
		Icon:          strings.TrimSpace(r.Icon),
		Type:          t,
		MonthlyBudget: r.MonthlyBudget.Round(2),
	}, nil
}

// writeCategories writes list with per-category transaction counts
func writeCategories(c *gin.Context, transactions *repository.Transactions, list []domain.Category, err error) {
	if err != nil {
		fail(c, err)
		return
	}
	counts, err := transactions.CountBy(c.Request.Context(), "category_id")
	if err != nil {
		fail(c, err)
		return
	}
	resp := make([]CategoryResponse, len(list))
	for i := range list {
		resp[i] = toCategoryResponse(&list[i], counts[list[i].ID])
	}
	utils.Success(c, http.StatusOK, "Categories retrieved successfully", resp)
}

// ListCategoriesHandler lists every category by name
func ListCategoriesHandler(db *gorm.DB) gin.HandlerFunc {
	categories, transactions := repository.NewCategories(db), repository.NewTransactions(db)
	return func(c *gin.Context) {
		list, err := categories.List(c.Request.Context(), repository.OrderBy("name"))
		writeCategories(c, transactions, list, err)
	}
}

// CategoriesByTypeHandler lists the Income or Expense categories
func CategoriesByTypeHandler(db *gorm.DB, t domain.TransactionType) gin.HandlerFunc {
	categories, transactions := repository.NewCategories(db), repository.NewTransactions(db)
	return func(c *gin.Context) {
		list, err := categories.ByType(c.Request.Context(), t)
		writeCategories(c, transactions, list, err)
	}
}

// GetCategoryHandler returns one category
func GetCategoryHandler(db *gorm.DB) gin.HandlerFunc {
	categories := repository.NewCategories(db)
	return func(c *gin.Context) {
		id, err := idParam(c, "id")
		if err != nil {
			fail(c, err)
			return
		}
		category, err := categories.Get(c.Request.Context(), id)
		if err != nil {
			fail(c, err)
			return
		}
		count, err := categories.TransactionCount(c.Request.Context(), id)
		if err != nil {
			fail(c, err)
			return
		}
		utils.Success(c, http.StatusOK, "Category retrieved successfully", toCategoryResponse(category, count))
	}
}

// CreateCategoryHandler adds a category
func CreateCategoryHandler(db *gorm.DB) gin.HandlerFunc {
	categories := repository.NewCategories(db)
	return func(c *gin.Context) {
		var req CategoryRequest
		if err := bind(c, &req); err != nil {
			fail(c, err)
			return
		}
		category, err := req.toCategory()
		if err != nil {
			fail(c, err)
			return
		}
		if err := categories.Add(c.Request.Context(), &category); err != nil {
			fail(c, err)
			return
		}
		logrus.WithFields(logrus.Fields{"category_id": category.ID, "name": category.Name}).Info("Category created")
		utils.Success(c, http.StatusCreated, "Category created successfully", toCategoryResponse(&category, 0))
	}
}

// UpdateCategoryHandler replaces a category's fields. Changing the type of a category
// that transactions reference is rejected, since their types must keep matching it.
func UpdateCategoryHandler(db *gorm.DB, cache *utils.Cache) gin.HandlerFunc {
	categories := repository.NewCategories(db)
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		id, err := idParam(c, "id")
		if err != nil {
			fail(c, err)
			return
		}
		var req CategoryRequest
		if err := bind(c, &req); err != nil {
			fail(c, err)
			return
		}
		updated, err := req.toCategory()
		if err != nil {
			fail(c, err)
			return
		}
		existing, err := categories.Get(ctx, id)
		if err != nil {
			fail(c, err)
			return
		}
		count, err := categories.TransactionCount(ctx, id)
		if err != nil {
			fail(c, err)
			return
		}
		if existing.Type != updated.Type && count > 0 {
			fail(c, domain.Conflict("CATEGORY_IN_USE", "Cannot change the type of a category that transactions reference"))
			return
		}
		updated.ID = id
		if err := categories.Update(ctx, &updated); err != nil {
			fail(c, err)
			return
		}
		cache.LedgerChanged(ctx) // Breakdown names and colors may change
		utils.Success(c, http.StatusOK, "Category updated successfully", toCategoryResponse(&updated, count))
	}
}

// DeleteCategoryHandler removes a category that no transaction references
func DeleteCategoryHandler(db *gorm.DB) gin.HandlerFunc {
	categories := repository.NewCategories(db)
	return func(c *gin.Context) {
		id, err := idParam(c, "id")
		if err != nil {
			fail(c, err)
			return
		}
		if err := categories.Delete(c.Request.Context(), id); err != nil {
			fail(c, err)
			return
		}
		logrus.WithField("category_id", id).Info("Category deleted")
		utils.Success(c, http.StatusOK, "Category deleted successfully", true)
	}
}
