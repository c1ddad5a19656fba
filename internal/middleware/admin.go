package middleware

import (
	"slices" // Role lookup

	"personal_finance/internal/domain" // Importing domain models

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logrus for structured logging
)

// RequireRoles lets the request through only when the caller's token carries one of roles.
// It must run after JWTAuthMiddleware.
func RequireRoles(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Check if userID exists in context
		if _, exists := c.Get(ContextUserID); !exists {
			abort(c, domain.Unauthorized("Unauthorized"))
			return
		}
		role := CurrentRole(c)
		if !slices.Contains(roles, role) {
			logrus.WithFields(logrus.Fields{
				"user_id": CurrentUserID(c),
				"role":    role,
				"path":    c.FullPath(),
			}).Warn("Role check failed")
			abort(c, domain.Forbidden("Insufficient permissions"))
			return
		}
		c.Next() // Role accepted, proceed to the next handler
	}
}

// AdminOnlyMiddleware is RequireRoles(Admin)
func AdminOnlyMiddleware() gin.HandlerFunc {
	return RequireRoles(domain.RoleAdmin)
}
