package main

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/wms-platform/inventory-ops-service/internal/application"
	"github.com/wms-platform/inventory-ops-service/internal/domain"
	"github.com/wms-platform/inventory-ops-service/pkg/api"
	apperrors "github.com/wms-platform/inventory-ops-service/pkg/errors"
	"github.com/wms-platform/inventory-ops-service/pkg/tenant"
)

// tenantScope pulls the tenant and warehouse set by the auth middleware.
func tenantScope(c *gin.Context) (string, string, bool) {
	ctx := c.Request.Context()
	tenantID, err := tenant.TenantID(ctx)
	if err != nil {
		c.Error(apperrors.ErrUnauthorized("tenant context missing"))
		return "", "", false
	}
	warehouseID, err := tenant.WarehouseID(ctx)
	if err != nil {
		c.Error(apperrors.ErrUnauthorized("warehouse context missing"))
		return "", "", false
	}
	return tenantID, warehouseID, true
}

func receiveStockHandler(service *application.AllocationService) gin.HandlerFunc {
	return func(c *gin.Context) {
		tenantID, warehouseID, ok := tenantScope(c)
		if !ok {
			return
		}

		var req struct {
			ProductID     string     `json:"productId" binding:"required"`
			ToLocation    string     `json:"toLocation" binding:"required"`
			Quantity      int        `json:"quantity" binding:"required,gt=0"`
			BatchID       string     `json:"batchId"`
			Expiry        *time.Time `json:"expiry"`
			UOM           string     `json:"uom"`
			Actor         string     `json:"actor" binding:"required"`
			CorrelationID string     `json:"correlationId"`
		}
		if appErr := api.BindAndValidate(c, &req); appErr != nil {
			c.Error(appErr)
			return
		}

		movement, err := service.Receive(c.Request.Context(), application.ReceiveStockCommand{
			TenantID:      tenantID,
			WarehouseID:   warehouseID,
			ProductID:     req.ProductID,
			ToLocation:    req.ToLocation,
			Quantity:      req.Quantity,
			BatchID:       req.BatchID,
			Expiry:        req.Expiry,
			UOM:           req.UOM,
			Actor:         req.Actor,
			CorrelationID: req.CorrelationID,
		})
		if err != nil {
			c.Error(err)
			return
		}

		c.JSON(http.StatusCreated, movement)
	}
}

func moveStockHandler(service *application.AllocationService) gin.HandlerFunc {
	return func(c *gin.Context) {
		tenantID, warehouseID, ok := tenantScope(c)
		if !ok {
			return
		}

		var req struct {
			ProductID     string `json:"productId" binding:"required"`
			FromLocation  string `json:"fromLocation" binding:"required"`
			ToLocation    string `json:"toLocation" binding:"required"`
			Quantity      int    `json:"quantity" binding:"required,gt=0"`
			BatchID       string `json:"batchId"`
			Reason        string `json:"reason"`
			Actor         string `json:"actor" binding:"required"`
			CorrelationID string `json:"correlationId"`
		}
		if appErr := api.BindAndValidate(c, &req); appErr != nil {
			c.Error(appErr)
			return
		}

		movement, err := service.Move(c.Request.Context(), application.MoveStockCommand{
			TenantID:      tenantID,
			WarehouseID:   warehouseID,
			ProductID:     req.ProductID,
			FromLocation:  req.FromLocation,
			ToLocation:    req.ToLocation,
			Quantity:      req.Quantity,
			BatchID:       req.BatchID,
			Reason:        req.Reason,
			Actor:         req.Actor,
			CorrelationID: req.CorrelationID,
		})
		if err != nil {
			c.Error(err)
			return
		}

		c.JSON(http.StatusOK, movement)
	}
}

func adjustStockHandler(service *application.AllocationService) gin.HandlerFunc {
	return func(c *gin.Context) {
		tenantID, warehouseID, ok := tenantScope(c)
		if !ok {
			return
		}

		var req struct {
			ProductID     string `json:"productId" binding:"required"`
			LocationID    string `json:"locationId" binding:"required"`
			Delta         int    `json:"delta" binding:"required"`
			BatchID       string `json:"batchId"`
			Reason        string `json:"reason" binding:"required"`
			Actor         string `json:"actor" binding:"required"`
			CorrelationID string `json:"correlationId"`
		}
		if appErr := api.BindAndValidate(c, &req); appErr != nil {
			c.Error(appErr)
			return
		}

		movement, err := service.Adjust(c.Request.Context(), application.AdjustStockCommand{
			TenantID:      tenantID,
			WarehouseID:   warehouseID,
			ProductID:     req.ProductID,
			LocationID:    req.LocationID,
			Delta:         req.Delta,
			BatchID:       req.BatchID,
			Reason:        req.Reason,
			Actor:         req.Actor,
			CorrelationID: req.CorrelationID,
		})
		if err != nil {
			c.Error(err)
			return
		}

		c.JSON(http.StatusOK, movement)
	}
}

func reserveStockHandler(service *application.AllocationService) gin.HandlerFunc {
	return func(c *gin.Context) {
		tenantID, warehouseID, ok := tenantScope(c)
		if !ok {
			return
		}

		var req struct {
			ProductID     string `json:"productId" binding:"required"`
			LocationID    string `json:"locationId" binding:"required"`
			Quantity      int    `json:"quantity" binding:"required,gt=0"`
			BatchID       string `json:"batchId"`
			Actor         string `json:"actor" binding:"required"`
			CorrelationID string `json:"correlationId"`
		}
		if appErr := api.BindAndValidate(c, &req); appErr != nil {
			c.Error(appErr)
			return
		}

		result, err := service.Reserve(c.Request.Context(), application.ReserveStockCommand{
			TenantID:      tenantID,
			WarehouseID:   warehouseID,
			ProductID:     req.ProductID,
			LocationID:    req.LocationID,
			Quantity:      req.Quantity,
			BatchID:       req.BatchID,
			Actor:         req.Actor,
			CorrelationID: req.CorrelationID,
		})
		if err != nil {
			c.Error(err)
			return
		}

		c.JSON(http.StatusCreated, result)
	}
}

func commitPickHandler(service *application.AllocationService) gin.HandlerFunc {
	return func(c *gin.Context) {
		tenantID, _, ok := tenantScope(c)
		if !ok {
			return
		}

		var req struct {
			ActualQty     int    `json:"actualQty" binding:"required,gt=0"`
			Actor         string `json:"actor" binding:"required"`
			CorrelationID string `json:"correlationId"`
		}
		if appErr := api.BindAndValidate(c, &req); appErr != nil {
			c.Error(appErr)
			return
		}

		movement, err := service.Commit(c.Request.Context(), application.CommitPickCommand{
			TenantID:      tenantID,
			ReservationID: c.Param("reservationId"),
			ActualQty:     req.ActualQty,
			Actor:         req.Actor,
			CorrelationID: req.CorrelationID,
		})
		if err != nil {
			c.Error(err)
			return
		}

		c.JSON(http.StatusOK, movement)
	}
}

func releaseReservationHandler(service *application.AllocationService) gin.HandlerFunc {
	return func(c *gin.Context) {
		tenantID, _, ok := tenantScope(c)
		if !ok {
			return
		}

		var req struct {
			Actor         string `json:"actor" binding:"required"`
			CorrelationID string `json:"correlationId"`
		}
		if appErr := api.BindAndValidate(c, &req); appErr != nil {
			c.Error(appErr)
			return
		}

		result, err := service.Release(c.Request.Context(), application.ReleaseReservationCommand{
			TenantID:      tenantID,
			ReservationID: c.Param("reservationId"),
			Actor:         req.Actor,
			CorrelationID: req.CorrelationID,
		})
		if err != nil {
			c.Error(err)
			return
		}

		c.JSON(http.StatusOK, result)
	}
}

func getStockHandler(service *application.QueryService) gin.HandlerFunc {
	return func(c *gin.Context) {
		tenantID, warehouseID, ok := tenantScope(c)
		if !ok {
			return
		}

		summary, err := service.GetStock(c.Request.Context(), tenantID, warehouseID, c.Param("productId"))
		if err != nil {
			c.Error(err)
			return
		}

		c.JSON(http.StatusOK, summary)
	}
}

func getAvailableHandler(service *application.QueryService) gin.HandlerFunc {
	return func(c *gin.Context) {
		tenantID, warehouseID, ok := tenantScope(c)
		if !ok {
			return
		}

		locationID := c.Query("locationId")
		if locationID == "" {
			c.Error(apperrors.ErrValidation("locationId query parameter is required"))
			return
		}

		available, err := service.GetAvailable(c.Request.Context(),
			tenantID, warehouseID, c.Param("productId"), locationID, c.Query("batchId"))
		if err != nil {
			c.Error(err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"productId":  c.Param("productId"),
			"locationId": locationID,
			"batchId":    c.Query("batchId"),
			"available":  available,
		})
	}
}

func traceByCorrelationHandler(service *application.QueryService) gin.HandlerFunc {
	return func(c *gin.Context) {
		tenantID, _, ok := tenantScope(c)
		if !ok {
			return
		}

		movements, err := service.TraceByCorrelation(c.Request.Context(), tenantID, c.Param("correlationId"))
		if err != nil {
			c.Error(err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"movements": movements})
	}
}

func traceByProductHandler(service *application.QueryService) gin.HandlerFunc {
	return func(c *gin.Context) {
		tenantID, _, ok := tenantScope(c)
		if !ok {
			return
		}

		since := time.Now().AddDate(0, 0, -30)
		if raw := c.Query("since"); raw != "" {
			parsed, err := time.Parse(time.RFC3339, raw)
			if err != nil {
				c.Error(apperrors.ErrValidation("since must be an RFC3339 timestamp"))
				return
			}
			since = parsed
		}

		movements, err := service.TraceByProduct(c.Request.Context(), tenantID, c.Param("productId"), since)
		if err != nil {
			c.Error(err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"movements": movements})
	}
}

func planWaveHandler(service *application.WaveService) gin.HandlerFunc {
	return func(c *gin.Context) {
		tenantID, warehouseID, ok := tenantScope(c)
		if !ok {
			return
		}

		var req struct {
			PickerID string   `json:"pickerId" binding:"required"`
			OrderIDs []string `json:"orderIds" binding:"required,min=1"`
		}
		if appErr := api.BindAndValidate(c, &req); appErr != nil {
			c.Error(appErr)
			return
		}

		wave, err := service.Plan(c.Request.Context(), application.PlanWaveCommand{
			TenantID:    tenantID,
			WarehouseID: warehouseID,
			PickerID:    req.PickerID,
			OrderIDs:    req.OrderIDs,
		})
		if err != nil {
			c.Error(err)
			return
		}

		c.JSON(http.StatusCreated, wave)
	}
}

func getWaveHandler(service *application.WaveService) gin.HandlerFunc {
	return func(c *gin.Context) {
		tenantID, _, ok := tenantScope(c)
		if !ok {
			return
		}

		wave, err := service.GetWave(c.Request.Context(), tenantID, c.Param("waveId"))
		if err != nil {
			c.Error(err)
			return
		}

		c.JSON(http.StatusOK, wave)
	}
}

func releaseWaveHandler(service *application.WaveService) gin.HandlerFunc {
	return func(c *gin.Context) {
		tenantID, _, ok := tenantScope(c)
		if !ok {
			return
		}

		wave, err := service.Release(c.Request.Context(), application.ReleaseWaveCommand{
			TenantID: tenantID,
			WaveID:   c.Param("waveId"),
		})
		if err != nil {
			c.Error(err)
			return
		}

		c.JSON(http.StatusOK, wave)
	}
}

func executeWaveHandler(service *application.WaveService) gin.HandlerFunc {
	return func(c *gin.Context) {
		tenantID, _, ok := tenantScope(c)
		if !ok {
			return
		}

		var req struct {
			Actor string `json:"actor" binding:"required"`
			Lines []struct {
				TaskID     string `json:"taskId" binding:"required"`
				CountedQty int    `json:"countedQty" binding:"gte=0"`
			} `json:"lines" binding:"required,min=1"`
		}
		if appErr := api.BindAndValidate(c, &req); appErr != nil {
			c.Error(appErr)
			return
		}

		lines := make([]application.WaveLineResult, 0, len(req.Lines))
		for _, line := range req.Lines {
			lines = append(lines, application.WaveLineResult{
				TaskID:     line.TaskID,
				CountedQty: line.CountedQty,
			})
		}

		execution, err := service.Execute(c.Request.Context(), application.ExecuteWaveCommand{
			TenantID: tenantID,
			WaveID:   c.Param("waveId"),
			Lines:    lines,
			Actor:    req.Actor,
		})
		if err != nil {
			c.Error(err)
			return
		}

		c.JSON(http.StatusOK, execution)
	}
}

func cancelWaveHandler(service *application.WaveService) gin.HandlerFunc {
	return func(c *gin.Context) {
		tenantID, _, ok := tenantScope(c)
		if !ok {
			return
		}

		var req struct {
			Reason string `json:"reason" binding:"required"`
			Actor  string `json:"actor" binding:"required"`
		}
		if appErr := api.BindAndValidate(c, &req); appErr != nil {
			c.Error(appErr)
			return
		}

		wave, err := service.Cancel(c.Request.Context(), application.CancelWaveCommand{
			TenantID: tenantID,
			WaveID:   c.Param("waveId"),
			Reason:   req.Reason,
			Actor:    req.Actor,
		})
		if err != nil {
			c.Error(err)
			return
		}

		c.JSON(http.StatusOK, wave)
	}
}

func evaluateReplenishmentHandler(service *application.ReplenishmentService) gin.HandlerFunc {
	return func(c *gin.Context) {
		tenantID, warehouseID, ok := tenantScope(c)
		if !ok {
			return
		}

		suggestions, err := service.Evaluate(c.Request.Context(), application.EvaluateReplenishmentCommand{
			TenantID:    tenantID,
			WarehouseID: warehouseID,
		})
		if err != nil {
			c.Error(err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"suggestions": suggestions})
	}
}

func listSuggestionsHandler(service *application.ReplenishmentService) gin.HandlerFunc {
	return func(c *gin.Context) {
		tenantID, warehouseID, ok := tenantScope(c)
		if !ok {
			return
		}

		status, appErr := suggestionStatusParam(c)
		if appErr != nil {
			c.Error(appErr)
			return
		}

		suggestions, err := service.List(c.Request.Context(), tenantID, warehouseID, status)
		if err != nil {
			c.Error(err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"suggestions": suggestions})
	}
}

func suggestionActionHandler(action func(context.Context, application.SuggestionActionCommand) (*application.SuggestionDTO, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		tenantID, _, ok := tenantScope(c)
		if !ok {
			return
		}

		var req struct {
			Actor string `json:"actor" binding:"required"`
		}
		if appErr := api.BindAndValidate(c, &req); appErr != nil {
			c.Error(appErr)
			return
		}

		suggestion, err := action(c.Request.Context(), application.SuggestionActionCommand{
			TenantID:     tenantID,
			SuggestionID: c.Param("suggestionId"),
			Actor:        req.Actor,
		})
		if err != nil {
			c.Error(err)
			return
		}

		c.JSON(http.StatusOK, suggestion)
	}
}

func listPoliciesHandler(service *application.ReplenishmentService) gin.HandlerFunc {
	return func(c *gin.Context) {
		tenantID, warehouseID, ok := tenantScope(c)
		if !ok {
			return
		}

		policies, err := service.ListPolicies(c.Request.Context(), tenantID, warehouseID)
		if err != nil {
			c.Error(err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"policies": policies})
	}
}

func upsertPolicyHandler(service *application.ReplenishmentService) gin.HandlerFunc {
	return func(c *gin.Context) {
		tenantID, warehouseID, ok := tenantScope(c)
		if !ok {
			return
		}

		var req struct {
			SKU         string `json:"sku" binding:"required"`
			LocationID  string `json:"locationId" binding:"required"`
			Min         int    `json:"min" binding:"gte=0"`
			Max         int    `json:"max" binding:"required,gt=0"`
			SafetyStock int    `json:"safetyStock" binding:"gte=0"`
			Strategy    string `json:"strategy"`
		}
		if appErr := api.BindAndValidate(c, &req); appErr != nil {
			c.Error(appErr)
			return
		}

		policy, err := service.UpsertPolicy(c.Request.Context(), application.UpsertPolicyCommand{
			TenantID:    tenantID,
			WarehouseID: warehouseID,
			SKU:         req.SKU,
			LocationID:  req.LocationID,
			Min:         req.Min,
			Max:         req.Max,
			SafetyStock: req.SafetyStock,
			Strategy:    req.Strategy,
		})
		if err != nil {
			c.Error(err)
			return
		}

		c.JSON(http.StatusOK, policy)
	}
}

func evaluateSlottingHandler(service *application.SlottingService, queries *application.QueryService) gin.HandlerFunc {
	return func(c *gin.Context) {
		tenantID, warehouseID, ok := tenantScope(c)
		if !ok {
			return
		}

		var req struct {
			Weeks       int `json:"weeks" binding:"gte=0"`
			Consumption []struct {
				SKU       string `json:"sku" binding:"required"`
				WeeklyQty []int  `json:"weeklyQty" binding:"required,min=1"`
			} `json:"consumption"`
		}
		if appErr := api.BindAndValidate(c, &req); appErr != nil {
			c.Error(appErr)
			return
		}

		var consumption []application.SKUConsumption
		if len(req.Consumption) > 0 {
			consumption = make([]application.SKUConsumption, 0, len(req.Consumption))
			for _, entry := range req.Consumption {
				consumption = append(consumption, application.SKUConsumption{
					SKU:       entry.SKU,
					WeeklyQty: entry.WeeklyQty,
				})
			}
		} else {
			weeks := req.Weeks
			if weeks == 0 {
				weeks = 8
			}
			window, err := queries.ConsumptionWindow(c.Request.Context(), tenantID, warehouseID, weeks)
			if err != nil {
				c.Error(err)
				return
			}
			consumption = window
		}

		recommendations, err := service.Evaluate(c.Request.Context(), application.EvaluateSlottingCommand{
			TenantID:    tenantID,
			WarehouseID: warehouseID,
			Consumption: consumption,
		})
		if err != nil {
			c.Error(err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"recommendations": recommendations})
	}
}

func listRecommendationsHandler(service *application.SlottingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		tenantID, warehouseID, ok := tenantScope(c)
		if !ok {
			return
		}

		status, appErr := suggestionStatusParam(c)
		if appErr != nil {
			c.Error(appErr)
			return
		}

		recommendations, err := service.List(c.Request.Context(), tenantID, warehouseID, status)
		if err != nil {
			c.Error(err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"recommendations": recommendations})
	}
}

func recommendationActionHandler(action func(context.Context, application.RecommendationActionCommand) (*application.RecommendationDTO, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		tenantID, _, ok := tenantScope(c)
		if !ok {
			return
		}

		var req struct {
			Actor string `json:"actor" binding:"required"`
		}
		if appErr := api.BindAndValidate(c, &req); appErr != nil {
			c.Error(appErr)
			return
		}

		recommendation, err := action(c.Request.Context(), application.RecommendationActionCommand{
			TenantID:         tenantID,
			RecommendationID: c.Param("recommendationId"),
			Actor:            req.Actor,
		})
		if err != nil {
			c.Error(err)
			return
		}

		c.JSON(http.StatusOK, recommendation)
	}
}

func createCycleCountHandler(service *application.CycleCountService) gin.HandlerFunc {
	return func(c *gin.Context) {
		tenantID, warehouseID, ok := tenantScope(c)
		if !ok {
			return
		}

		var req struct {
			Zones     []string `json:"zones"`
			Locations []string `json:"locations"`
			Products  []string `json:"products"`
		}
		if appErr := api.BindAndValidate(c, &req); appErr != nil {
			c.Error(appErr)
			return
		}

		task, err := service.Create(c.Request.Context(), application.CreateCycleCountCommand{
			TenantID:    tenantID,
			WarehouseID: warehouseID,
			Zones:       req.Zones,
			Locations:   req.Locations,
			Products:    req.Products,
		})
		if err != nil {
			c.Error(err)
			return
		}

		c.JSON(http.StatusCreated, task)
	}
}

func getCycleCountHandler(service *application.CycleCountService) gin.HandlerFunc {
	return func(c *gin.Context) {
		tenantID, _, ok := tenantScope(c)
		if !ok {
			return
		}

		task, err := service.Get(c.Request.Context(), tenantID, c.Param("taskId"))
		if err != nil {
			c.Error(err)
			return
		}

		c.JSON(http.StatusOK, task)
	}
}

func executeCycleCountHandler(service *application.CycleCountService) gin.HandlerFunc {
	return func(c *gin.Context) {
		tenantID, _, ok := tenantScope(c)
		if !ok {
			return
		}

		var req struct {
			Lines []struct {
				LocationID string `json:"locationId" binding:"required"`
				SKU        string `json:"sku" binding:"required"`
				BatchID    string `json:"batchId"`
				Counted    int    `json:"counted" binding:"gte=0"`
			} `json:"lines" binding:"required,min=1"`
		}
		if appErr := api.BindAndValidate(c, &req); appErr != nil {
			c.Error(appErr)
			return
		}

		lines := make([]application.CountedLine, 0, len(req.Lines))
		for _, line := range req.Lines {
			lines = append(lines, application.CountedLine{
				LocationID: line.LocationID,
				SKU:        line.SKU,
				BatchID:    line.BatchID,
				Counted:    line.Counted,
			})
		}

		task, err := service.Execute(c.Request.Context(), application.ExecuteCycleCountCommand{
			TenantID: tenantID,
			TaskID:   c.Param("taskId"),
			Lines:    lines,
		})
		if err != nil {
			c.Error(err)
			return
		}

		c.JSON(http.StatusOK, task)
	}
}

func reviewCycleCountHandler(service *application.CycleCountService) gin.HandlerFunc {
	return func(c *gin.Context) {
		tenantID, _, ok := tenantScope(c)
		if !ok {
			return
		}

		var req struct {
			Approve *bool  `json:"approve" binding:"required"`
			Actor   string `json:"actor" binding:"required"`
		}
		if appErr := api.BindAndValidate(c, &req); appErr != nil {
			c.Error(appErr)
			return
		}

		review, err := service.Review(c.Request.Context(), application.ReviewCycleCountCommand{
			TenantID: tenantID,
			TaskID:   c.Param("taskId"),
			Approve:  *req.Approve,
			Actor:    req.Actor,
		})
		if err != nil {
			c.Error(err)
			return
		}

		c.JSON(http.StatusOK, review)
	}
}

// suggestionStatusParam parses the status query parameter shared by the
// suggestion and recommendation listings. Defaults to PENDING.
func suggestionStatusParam(c *gin.Context) (domain.SuggestionStatus, *apperrors.AppError) {
	raw := strings.ToUpper(c.DefaultQuery("status", string(domain.SuggestionStatusPending)))
	status := domain.SuggestionStatus(raw)
	switch status {
	case domain.SuggestionStatusPending, domain.SuggestionStatusApproved,
		domain.SuggestionStatusExecuted, domain.SuggestionStatusRejected:
		return status, nil
	default:
		return "", apperrors.ErrValidation("status must be one of: PENDING, APPROVED, EXECUTED, REJECTED")
	}
}
