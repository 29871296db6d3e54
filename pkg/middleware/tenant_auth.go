package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/wms-platform/inventory-ops-service/pkg/logging"
	"github.com/wms-platform/inventory-ops-service/pkg/tenant"
)

// TenantAuth requires tenant and warehouse headers on every request and
// stores them in the request context. All repository queries scope by the
// pair, so a request without them cannot proceed.
func TenantAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tenantID := c.GetHeader(tenant.HeaderTenantID)
		warehouseID := c.GetHeader(tenant.HeaderWarehouseID)

		if tenantID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"code":    "UNAUTHORIZED",
				"message": "missing " + tenant.HeaderTenantID + " header",
			})
			return
		}
		if warehouseID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"code":    "UNAUTHORIZED",
				"message": "missing " + tenant.HeaderWarehouseID + " header",
			})
			return
		}

		ctx := tenant.WithTenant(c.Request.Context(), tenantID, warehouseID)
		ctx = logging.ContextWithTenantID(ctx, tenantID)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
