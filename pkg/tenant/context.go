package tenant

import (
	"context"
	"fmt"
)

type contextKey string

const (
	tenantIDKey    contextKey = "tenant_id"
	warehouseIDKey contextKey = "warehouse_id"
)

// Header names used to carry tenant identity on HTTP requests.
const (
	HeaderTenantID    = "X-WMS-Tenant-ID"
	HeaderWarehouseID = "X-WMS-Warehouse-ID"
)

// WithTenant stores the tenant and warehouse identifiers in the context.
func WithTenant(ctx context.Context, tenantID, warehouseID string) context.Context {
	ctx = context.WithValue(ctx, tenantIDKey, tenantID)
	return context.WithValue(ctx, warehouseIDKey, warehouseID)
}

// TenantID returns the tenant identifier from the context, or an error
// when the request was not authenticated for a tenant.
func TenantID(ctx context.Context) (string, error) {
	if v, ok := ctx.Value(tenantIDKey).(string); ok && v != "" {
		return v, nil
	}
	return "", fmt.Errorf("tenant ID not found in context")
}

// WarehouseID returns the warehouse identifier from the context, or an
// error when it is missing.
func WarehouseID(ctx context.Context) (string, error) {
	if v, ok := ctx.Value(warehouseIDKey).(string); ok && v != "" {
		return v, nil
	}
	return "", fmt.Errorf("warehouse ID not found in context")
}

// TenantIDOrEmpty returns the tenant identifier or "" when absent.
// Intended for logging and metrics labels, never for data scoping.
func TenantIDOrEmpty(ctx context.Context) string {
	v, _ := ctx.Value(tenantIDKey).(string)
	return v
}
