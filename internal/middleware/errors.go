package middleware

import (
	"fmt"      // Panic formatting
	"net/http" // HTTP status codes

	"personal_finance/internal/utils" // Response envelope

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logrus for structured logging
)

// ErrorHandler renders the last error recorded with c.Error as a failure envelope.
// Diagnostic details are included only when debug is set.
func ErrorHandler(debug bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		err := c.Errors.Last().Err
		status, body := utils.ErrorBody(err, debug)
		if status >= http.StatusInternalServerError {
			logrus.WithFields(logrus.Fields{
				"method": c.Request.Method,
				"path":   c.Request.URL.Path,
				"code":   body.ErrorCode,
				"error":  err.Error(),
			}).Error("Request failed")
		}
		c.JSON(status, body)
	}
}

// Recovery turns a panic into a 500 envelope
func Recovery(debug bool) gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(logrus.StandardLogger().WriterLevel(logrus.ErrorLevel), func(c *gin.Context, rec any) {
		status, body := utils.ErrorBody(fmt.Errorf("panic: %v", rec), debug)
		c.AbortWithStatusJSON(status, body)
	})
}
