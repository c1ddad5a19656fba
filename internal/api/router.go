package api

import (
	"net/http" // HTTP status codes

	"personal_finance/internal/domain"     // Importing domain models
	"personal_finance/internal/ledger"     // Ledger engine
	"personal_finance/internal/middleware" // Custom package for middleware
	"personal_finance/internal/summary"    // Aggregation engine
	"personal_finance/internal/utils"      // Utility functions

	"github.com/gin-gonic/gin"                                // Gin web framework
	"github.com/prometheus/client_golang/prometheus/promhttp" // Metrics endpoint
	"gorm.io/gorm"                                            // GORM ORM library
)

// Deps are the collaborators the HTTP layer needs
type Deps struct {
	DB             *gorm.DB           // Database handle
	Ledger         *ledger.Ledger     // Transaction writes
	Summary        *summary.Service   // Read-only summaries
	Cache          *utils.Cache       // Summary cache, may be nil
	Tokens         *utils.TokenIssuer // JWT issue and verification
	DebugErrors    bool               // Include diagnostic details in error bodies
	TrustedProxies []string           // Proxies allowed to set client IP headers
}

// NewRouter builds the gin engine with every route under /api plus /health and /metrics
func NewRouter(d Deps) (*gin.Engine, error) {
	r := gin.New() // Gin router instance
	if err := r.SetTrustedProxies(d.TrustedProxies); err != nil {
		return nil, err
	}
	r.Use(
		middleware.Recovery(d.DebugErrors),
		middleware.RequestLogger(),
		middleware.Metrics(),
		middleware.ErrorHandler(d.DebugErrors),
	)

	r.GET("/health", HealthHandler(d.DB))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	auth := middleware.JWTAuthMiddleware(d.Tokens)
	premium := middleware.RequireRoles(domain.RoleAdmin, domain.RolePremium)
	admin := middleware.AdminOnlyMiddleware()

	api := r.Group("/api")

	// Auth routes
	authGroup := api.Group("/auth")
	authGroup.POST("/register", RegisterHandler(d.DB, d.Tokens))
	authGroup.POST("/login", LoginHandler(d.DB, d.Tokens))
	authGroup.POST("/refresh", RefreshHandler(d.DB, d.Tokens))
	authGroup.POST("/logout", auth, LogoutHandler())
	authGroup.GET("/profile", auth, ProfileHandler(d.DB))

	// User routes
	users := api.Group("/users", auth)
	users.GET("/profile", ProfileHandler(d.DB))
	users.GET("", admin, ListUsersHandler(d.DB))
	users.GET("/statistics", admin, UserStatisticsHandler(d.DB))
	users.PUT("/:id/role", admin, UpdateUserRoleHandler(d.DB))

	// Account routes
	accounts := api.Group("/accounts", auth)
	accounts.GET("", ListAccountsHandler(d.DB))
	accounts.GET("/summary", premium, AccountsSummaryHandler(d.Summary))
	accounts.GET("/:id", GetAccountHandler(d.DB))
	accounts.POST("", CreateAccountHandler(d.DB, d.Cache))
	accounts.PUT("/:id", UpdateAccountHandler(d.DB, d.Cache))
	accounts.DELETE("/:id", premium, DeleteAccountHandler(d.DB, d.Cache))

	// Category routes
	categories := api.Group("/categories", auth)
	categories.GET("", ListCategoriesHandler(d.DB))
	categories.GET("/income", CategoriesByTypeHandler(d.DB, domain.Income))
	categories.GET("/expense", CategoriesByTypeHandler(d.DB, domain.Expense))
	categories.GET("/:id", GetCategoryHandler(d.DB))
	categories.POST("", CreateCategoryHandler(d.DB))
	categories.PUT("/:id", UpdateCategoryHandler(d.DB, d.Cache))
	categories.DELETE("/:id", DeleteCategoryHandler(d.DB))

	// Transaction routes
	transactions := api.Group("/transactions", auth)
	transactions.GET("", ListTransactionsHandler(d.DB, nil))
	transactions.GET("/type/:type", ListTransactionsHandler(d.DB, ByType))
	transactions.GET("/account/:id", ListTransactionsHandler(d.DB, ByAccount))
	transactions.GET("/category/:id", ListTransactionsHandler(d.DB, ByCategory))
	transactions.GET("/summary", premium, SummaryHandler(d.Summary))
	transactions.GET("/expenses-by-category", premium, ExpensesByCategoryHandler(d.Summary))
	transactions.GET("/:id", premium, GetTransactionHandler(d.Ledger))
	transactions.POST("", CreateTransactionHandler(d.DB, d.Ledger))
	transactions.PUT("/:id", UpdateTransactionHandler(d.DB, d.Ledger))
	transactions.DELETE("/:id", admin, DeleteTransactionHandler(d.Ledger))

	r.NoRoute(func(c *gin.Context) {
		fail(c, domain.NotFound("ROUTE_NOT_FOUND", "Route "+c.Request.URL.Path+" not found"))
	})
	return r, nil
}

// HealthHandler reports whether the database answers
func HealthHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(c.Request.Context())
		}
		if err != nil {
			fail(c, domain.StorageError("health check", err))
			return
		}
		utils.Success(c, http.StatusOK, "OK", gin.H{"database": "up"})
	}
}
