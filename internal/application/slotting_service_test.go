package application

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wms-platform/inventory-ops-service/internal/domain"
	apperrors "github.com/wms-platform/inventory-ops-service/pkg/errors"
)

type slottingFixture struct {
	service         *SlottingService
	ledger          *memLedger
	recommendations *memRecommendations
	locations       *memLocations
	products        *memProducts
}

func newSlottingFixture() *slottingFixture {
	ledger := newMemLedger()
	recommendations := newMemRecommendations()
	locations := &memLocations{}
	products := newMemProducts()
	publisher := &memPublisher{}
	allocation := NewAllocationService(ledger, ledger, ledger, publisher, nil, testLogger())
	service := NewSlottingService(recommendations, locations, products, ledger, allocation, publisher, nil, testLogger())
	return &slottingFixture{
		service:         service,
		ledger:          ledger,
		recommendations: recommendations,
		locations:       locations,
		products:        products,
	}
}

func (f *slottingFixture) addPickingLocation(locationID string) {
	f.locations.records = append(f.locations.records, domain.LocationRecord{
		TenantID:    testTenant,
		WarehouseID: testWarehouse,
		LocationID:  locationID,
		Type:        domain.LocationTypePicking,
	})
}

func steadyConsumption(sku string, weekly int) SKUConsumption {
	return SKUConsumption{SKU: sku, WeeklyQty: []int{weekly, weekly, weekly, weekly}}
}

func TestSlottingService_EvaluateRecommendsBetterPlacement(t *testing.T) {
	f := newSlottingFixture()
	f.addPickingLocation("A-01-R01-L01")
	f.addPickingLocation("A-01-R09-L04")
	// The fast mover sits deep in the aisle on a high level.
	seedCell(f.ledger, "SKU-A", "A-01-R09-L04", "B-001", 80, nil)

	created, err := f.service.Evaluate(context.Background(), EvaluateSlottingCommand{
		TenantID:    testTenant,
		WarehouseID: testWarehouse,
		Consumption: []SKUConsumption{steadyConsumption("SKU-A", 100)},
	})
	require.NoError(t, err)
	require.Len(t, created, 1)

	rec := created[0]
	assert.Equal(t, "SKU-A", rec.SKU)
	assert.Equal(t, "A-01-R09-L04", rec.CurrentLocation)
	assert.Equal(t, "A-01-R01-L01", rec.RecommendedLocation)
	assert.Equal(t, 100, rec.Score)
	assert.Equal(t, 54, rec.CurrentScore)
	assert.Equal(t, string(domain.ABCClassA), rec.ABCClass)
	assert.Equal(t, string(domain.XYZClassX), rec.XYZClass)
	assert.Equal(t, string(domain.SuggestionStatusPending), rec.Status)
}

func TestSlottingService_EvaluateSkips(t *testing.T) {
	t.Run("sku not slotted in picking", func(t *testing.T) {
		f := newSlottingFixture()
		f.addPickingLocation("A-01-R01-L01")
		seedCell(f.ledger, "SKU-A", "B-02-R04-L01", "B-001", 80, nil)

		created, err := f.service.Evaluate(context.Background(), EvaluateSlottingCommand{
			TenantID:    testTenant,
			WarehouseID: testWarehouse,
			Consumption: []SKUConsumption{steadyConsumption("SKU-A", 100)},
		})
		require.NoError(t, err)
		assert.Empty(t, created)
	})

	t.Run("current placement already best", func(t *testing.T) {
		f := newSlottingFixture()
		f.addPickingLocation("A-01-R01-L01")
		f.addPickingLocation("A-01-R09-L04")
		seedCell(f.ledger, "SKU-A", "A-01-R01-L01", "B-001", 80, nil)

		created, err := f.service.Evaluate(context.Background(), EvaluateSlottingCommand{
			TenantID:    testTenant,
			WarehouseID: testWarehouse,
			Consumption: []SKUConsumption{steadyConsumption("SKU-A", 100)},
		})
		require.NoError(t, err)
		assert.Empty(t, created)
	})

	t.Run("slow mover below score floor", func(t *testing.T) {
		f := newSlottingFixture()
		f.addPickingLocation("A-01-R09-L04")
		f.addPickingLocation("A-01-R03-L03")
		// SKU-C classifies C behind the two larger movers; both its
		// placements score under the floor.
		seedCell(f.ledger, "SKU-C", "A-01-R09-L04", "B-003", 10, nil)

		created, err := f.service.Evaluate(context.Background(), EvaluateSlottingCommand{
			TenantID:    testTenant,
			WarehouseID: testWarehouse,
			Consumption: []SKUConsumption{
				steadyConsumption("SKU-A", 80),
				steadyConsumption("SKU-B", 15),
				steadyConsumption("SKU-C", 5),
			},
		})
		require.NoError(t, err)
		assert.Empty(t, created)
	})

	t.Run("lowered floor admits the slow mover", func(t *testing.T) {
		f := newSlottingFixture()
		f.service.WithScoreFloor(20)
		f.addPickingLocation("A-01-R09-L04")
		f.addPickingLocation("A-01-R03-L03")
		seedCell(f.ledger, "SKU-C", "A-01-R09-L04", "B-003", 10, nil)

		created, err := f.service.Evaluate(context.Background(), EvaluateSlottingCommand{
			TenantID:    testTenant,
			WarehouseID: testWarehouse,
			Consumption: []SKUConsumption{
				steadyConsumption("SKU-A", 80),
				steadyConsumption("SKU-B", 15),
				steadyConsumption("SKU-C", 5),
			},
		})
		require.NoError(t, err)
		require.Len(t, created, 1)
		assert.Equal(t, "SKU-C", created[0].SKU)
		assert.Equal(t, "A-01-R03-L03", created[0].RecommendedLocation)
		assert.Equal(t, 32, created[0].Score)
		assert.Equal(t, 22, created[0].CurrentScore)
	})

	t.Run("open recommendation exists", func(t *testing.T) {
		f := newSlottingFixture()
		f.addPickingLocation("A-01-R01-L01")
		f.addPickingLocation("A-01-R09-L04")
		seedCell(f.ledger, "SKU-A", "A-01-R09-L04", "B-001", 80, nil)

		cmd := EvaluateSlottingCommand{
			TenantID:    testTenant,
			WarehouseID: testWarehouse,
			Consumption: []SKUConsumption{steadyConsumption("SKU-A", 100)},
		}
		first, err := f.service.Evaluate(context.Background(), cmd)
		require.NoError(t, err)
		require.Len(t, first, 1)

		second, err := f.service.Evaluate(context.Background(), cmd)
		require.NoError(t, err)
		assert.Empty(t, second)
	})
}

func TestSlottingService_EvaluateValidation(t *testing.T) {
	f := newSlottingFixture()
	ctx := context.Background()

	_, err := f.service.Evaluate(ctx, EvaluateSlottingCommand{
		TenantID:    testTenant,
		WarehouseID: testWarehouse,
	})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))

	// No picking locations configured at all.
	_, err = f.service.Evaluate(ctx, EvaluateSlottingCommand{
		TenantID:    testTenant,
		WarehouseID: testWarehouse,
		Consumption: []SKUConsumption{steadyConsumption("SKU-A", 100)},
	})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))
}

func TestSlottingService_ExecuteMovesStockOnce(t *testing.T) {
	f := newSlottingFixture()
	ctx := context.Background()
	f.addPickingLocation("A-01-R01-L01")
	f.addPickingLocation("A-01-R09-L04")
	seedCell(f.ledger, "SKU-A", "A-01-R09-L04", "B-001", 80, nil)

	created, err := f.service.Evaluate(ctx, EvaluateSlottingCommand{
		TenantID:    testTenant,
		WarehouseID: testWarehouse,
		Consumption: []SKUConsumption{steadyConsumption("SKU-A", 100)},
	})
	require.NoError(t, err)
	recommendationID := created[0].RecommendationID

	executed, err := f.service.Execute(ctx, RecommendationActionCommand{
		TenantID:         testTenant,
		RecommendationID: recommendationID,
		Actor:            "slotting-crew",
	})
	require.NoError(t, err)
	assert.Equal(t, string(domain.SuggestionStatusExecuted), executed.Status)
	require.NotNil(t, executed.ExecutedAt)

	assert.Equal(t, 0, f.ledger.cell(cellKey("SKU-A", "A-01-R09-L04", "B-001")).OnHandQty)
	destination := f.ledger.cell(cellKey("SKU-A", "A-01-R01-L01", "B-001"))
	require.NotNil(t, destination)
	assert.Equal(t, 80, destination.OnHandQty)

	transfers := f.ledger.movementsOfType(domain.MovementInternalTransfer)
	require.Len(t, transfers, 1)
	assert.Equal(t, "slotting", transfers[0].Reason)
	assert.Equal(t, recommendationID, transfers[0].CorrelationID)

	again, err := f.service.Execute(ctx, RecommendationActionCommand{
		TenantID:         testTenant,
		RecommendationID: recommendationID,
	})
	require.NoError(t, err)
	assert.Equal(t, string(domain.SuggestionStatusExecuted), again.Status)
	assert.Len(t, f.ledger.movementsOfType(domain.MovementInternalTransfer), 1)
}

func TestSlottingService_RejectBlocksExecute(t *testing.T) {
	f := newSlottingFixture()
	ctx := context.Background()
	f.addPickingLocation("A-01-R01-L01")
	f.addPickingLocation("A-01-R09-L04")
	seedCell(f.ledger, "SKU-A", "A-01-R09-L04", "B-001", 80, nil)

	created, err := f.service.Evaluate(ctx, EvaluateSlottingCommand{
		TenantID:    testTenant,
		WarehouseID: testWarehouse,
		Consumption: []SKUConsumption{steadyConsumption("SKU-A", 100)},
	})
	require.NoError(t, err)
	recommendationID := created[0].RecommendationID

	rejected, err := f.service.Reject(ctx, RecommendationActionCommand{
		TenantID:         testTenant,
		RecommendationID: recommendationID,
	})
	require.NoError(t, err)
	assert.Equal(t, string(domain.SuggestionStatusRejected), rejected.Status)

	_, err = f.service.Execute(ctx, RecommendationActionCommand{
		TenantID:         testTenant,
		RecommendationID: recommendationID,
	})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidStateTransition))
	assert.Equal(t, 80, f.ledger.cell(cellKey("SKU-A", "A-01-R09-L04", "B-001")).OnHandQty)
}
