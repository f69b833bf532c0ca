package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"storefront-coupons/internal/database"
	"storefront-coupons/internal/models"
)

const TenantHeader = "X-Tenant-ID"

// TenantMiddleware resolves the ambient tenant for storefront requests
// from the X-Tenant-ID header. Admin requests get their tenant from the
// JWT instead; if an earlier middleware already set it, this one defers.
func TenantMiddleware(tenantQueries *database.TenantQueries) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, exists := c.Get("tenant_id"); exists {
			c.Next()
			return
		}

		header := c.GetHeader(TenantHeader)
		if header == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Tenant header is required"})
			c.Abort()
			return
		}

		tenantID, err := uuid.Parse(header)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid tenant id"})
			c.Abort()
			return
		}

		tenant, err := tenantQueries.GetTenantByID(tenantID)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Unknown tenant"})
			c.Abort()
			return
		}
		if tenant.Status != models.TenantStatusActive {
			c.JSON(http.StatusForbidden, gin.H{"error": "Tenant is not active"})
			c.Abort()
			return
		}

		c.Set("tenant_id", tenantID)
		c.Next()
	}
}

// GetTenantID gets the resolved tenant id from gin context.
func GetTenantID(c *gin.Context) (uuid.UUID, bool) {
	value, exists := c.Get("tenant_id")
	if !exists {
		return uuid.Nil, false
	}
	tenantID, ok := value.(uuid.UUID)
	return tenantID, ok
}
