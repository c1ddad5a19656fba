package middleware

import (
	"strings" // String manipulation

	"personal_finance/internal/domain" // Importing domain models
	"personal_finance/internal/utils"  // JWT utility functions

	"github.com/gin-gonic/gin" // Gin web framework
)

// Context keys set by JWTAuthMiddleware
const (
	ContextUserID = "userID" // uint
	ContextRole   = "role"   // string
	ContextClaims = "claims" // *utils.Claims
)

// JWTAuthMiddleware validates bearer tokens and extracts user information
func JWTAuthMiddleware(tokens *utils.TokenIssuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization") // Get Authorization header
		// Check if the Authorization header is present and properly formatted
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			abort(c, domain.Unauthorized("Missing or invalid Authorization header"))
			return
		}
		tokenStr := strings.TrimPrefix(authHeader, "Bearer ") // Extract the token string
		claims, err := tokens.ParseAccess(tokenStr)           // Parse the JWT token
		if err != nil {
			abort(c, err) // TokenInvalid or TokenExpired
			return
		}
		c.Set(ContextUserID, claims.UserID) // Store userID in context
		c.Set(ContextRole, claims.Role)     // Store role in context
		c.Set(ContextClaims, claims)        // Store the full claims
		c.Next()                            // Proceed to the next handler
	}
}

// CurrentUserID returns the authenticated user's id, 0 when unauthenticated
func CurrentUserID(c *gin.Context) uint {
	if v, ok := c.Get(ContextUserID); ok {
		if id, ok := v.(uint); ok {
			return id
		}
	}
	return 0
}

// CurrentRole returns the authenticated user's role
func CurrentRole(c *gin.Context) string {
	return c.GetString(ContextRole)
}

// IsAdmin reports whether the caller holds the Admin role
func IsAdmin(c *gin.Context) bool {
	return CurrentRole(c) == domain.RoleAdmin
}

// OwnerScope returns nil for admins and the caller's id otherwise
func OwnerScope(c *gin.Context) *uint {
	if IsAdmin(c) {
		return nil
	}
	id := CurrentUserID(c)
	return &id
}

// abort records err for ErrorHandler and stops the chain
func abort(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}
