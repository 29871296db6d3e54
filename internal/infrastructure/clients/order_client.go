package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/wms-platform/inventory-ops-service/internal/domain"
	"github.com/wms-platform/inventory-ops-service/pkg/tenant"
)

// OrderLineDTO represents a single order line returned by order-service
type OrderLineDTO struct {
	OrderID   string `json:"orderId"`
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// OrderDTO represents order data fetched from order-service
type OrderDTO struct {
	OrderID string         `json:"orderId"`
	Status  string         `json:"status"`
	Lines   []OrderLineDTO `json:"lines"`
}

// OrderServiceClient handles communication with order-service
// Implements domain.OrderService interface
type OrderServiceClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewOrderServiceClient creates a new OrderServiceClient
func NewOrderServiceClient(baseURL string) *OrderServiceClient {
	return &OrderServiceClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// GetOrderLines fetches the pickable lines for each order from order-service
func (c *OrderServiceClient) GetOrderLines(ctx context.Context, tenantID string, orderIDs []string) ([]domain.OrderLine, error) {
	lines := make([]domain.OrderLine, 0, len(orderIDs))
	for _, orderID := range orderIDs {
		order, err := c.getOrder(ctx, tenantID, orderID)
		if err != nil {
			return nil, err
		}
		for _, line := range order.Lines {
			lines = append(lines, domain.OrderLine{
				OrderID:   order.OrderID,
				ProductID: line.ProductID,
				Quantity:  line.Quantity,
			})
		}
	}
	return lines, nil
}

func (c *OrderServiceClient) getOrder(ctx context.Context, tenantID, orderID string) (*OrderDTO, error) {
	url := fmt.Sprintf("%s/api/v1/orders/%s", c.baseURL, orderID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(tenant.HeaderTenantID, tenantID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch order: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("order not found: %s", orderID)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("order service returned status %d", resp.StatusCode)
	}

	var order OrderDTO
	if err := json.NewDecoder(resp.Body).Decode(&order); err != nil {
		return nil, fmt.Errorf("failed to decode order response: %w", err)
	}

	return &order, nil
}
