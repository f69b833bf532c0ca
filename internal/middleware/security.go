package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// SecurityHeaders middleware adds security headers for production
func SecurityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Prevent MIME type sniffing
		c.Header("X-Content-Type-Options", "nosniff")

		// Prevent clickjacking
		c.Header("X-Frame-Options", "DENY")

		// Referrer Policy
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")

		// Remove server information
		c.Header("Server", "")

		c.Next()
	}
}

// HealthCheck middleware provides a simple health check endpoint
func HealthCheck(endpoint string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.URL.Path == endpoint {
			c.JSON(http.StatusOK, gin.H{
				"status":    "healthy",
				"timestamp": time.Now().Unix(),
				"service":   "storefront-coupons-api",
			})
			c.Abort()
			return
		}
		c.Next()
	}
}
