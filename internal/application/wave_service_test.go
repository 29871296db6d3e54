package application

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wms-platform/inventory-ops-service/internal/domain"
	apperrors "github.com/wms-platform/inventory-ops-service/pkg/errors"
)

type waveFixture struct {
	service *WaveService
	ledger  *memLedger
	waves   *memWaves
	orders  *stubOrders
}

func newWaveFixture() *waveFixture {
	ledger := newMemLedger()
	waves := newMemWaves()
	orders := &stubOrders{lines: make(map[string][]domain.OrderLine)}
	publisher := &memPublisher{}
	allocation := NewAllocationService(ledger, ledger, ledger, publisher, nil, testLogger())
	service := NewWaveService(waves, ledger, allocation, orders, publisher, nil, testLogger())
	return &waveFixture{service: service, ledger: ledger, waves: waves, orders: orders}
}

func (f *waveFixture) plan(t *testing.T, orderIDs ...string) *WaveDTO {
	t.Helper()
	wave, err := f.service.Plan(context.Background(), PlanWaveCommand{
		TenantID:    testTenant,
		WarehouseID: testWarehouse,
		PickerID:    "picker-9",
		OrderIDs:    orderIDs,
	})
	require.NoError(t, err)
	return wave
}

func stopForProduct(t *testing.T, wave *WaveDTO, productID string) PickStopDTO {
	t.Helper()
	for _, stop := range wave.Stops {
		if stop.ProductID == productID {
			return stop
		}
	}
	t.Fatalf("no stop for product %s", productID)
	return PickStopDTO{}
}

func TestWaveService_PlanReservesAndSequences(t *testing.T) {
	f := newWaveFixture()
	// Both cells sit in odd aisle 1, walked rack-descending.
	seedCell(f.ledger, "SKU-001", "A-01-R09-L01", "B-001", 50, nil)
	seedCell(f.ledger, "SKU-002", "A-01-R02-L01", "B-002", 20, nil)
	f.orders.lines["ORD-1"] = []domain.OrderLine{
		{OrderID: "ORD-1", ProductID: "SKU-001", Quantity: 30},
		{OrderID: "ORD-1", ProductID: "SKU-002", Quantity: 20},
	}

	wave := f.plan(t, "ORD-1")

	assert.Equal(t, string(domain.WaveStatusPlanned), wave.Status)
	require.Len(t, wave.Stops, 2)
	assert.Equal(t, 1, wave.Stops[0].Sequence)
	assert.Equal(t, "A-01-R09-L01", wave.Stops[0].LocationID)
	assert.Equal(t, "SKU-001", wave.Stops[0].ProductID)
	assert.Equal(t, 2, wave.Stops[1].Sequence)
	assert.Equal(t, "A-01-R02-L01", wave.Stops[1].LocationID)

	assert.Equal(t, 30, f.ledger.cell(cellKey("SKU-001", "A-01-R09-L01", "B-001")).ReservedQty)
	assert.Equal(t, 20, f.ledger.cell(cellKey("SKU-002", "A-01-R02-L01", "B-002")).ReservedQty)
	assert.Len(t, f.ledger.activeReservations(), 2)
}

func TestWaveService_PlanShortfallCompensates(t *testing.T) {
	f := newWaveFixture()
	seedCell(f.ledger, "SKU-001", "A-01-R09-L01", "B-001", 15, nil)
	seedCell(f.ledger, "SKU-001", "A-02-R03-L01", "B-002", 10, nil)
	f.orders.lines["ORD-1"] = []domain.OrderLine{
		{OrderID: "ORD-1", ProductID: "SKU-001", Quantity: 30},
	}

	_, err := f.service.Plan(context.Background(), PlanWaveCommand{
		TenantID:    testTenant,
		WarehouseID: testWarehouse,
		OrderIDs:    []string{"ORD-1"},
	})
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInsufficientStock))

	// Partial reservations taken before the shortfall are rolled back.
	assert.Equal(t, 0, f.ledger.cell(cellKey("SKU-001", "A-01-R09-L01", "B-001")).ReservedQty)
	assert.Equal(t, 0, f.ledger.cell(cellKey("SKU-001", "A-02-R03-L01", "B-002")).ReservedQty)
	assert.Empty(t, f.ledger.activeReservations())
}

func TestWaveService_PlanValidation(t *testing.T) {
	f := newWaveFixture()
	ctx := context.Background()

	_, err := f.service.Plan(ctx, PlanWaveCommand{TenantID: testTenant, WarehouseID: testWarehouse})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))

	f.orders.lines["ORD-EMPTY"] = nil
	_, err = f.service.Plan(ctx, PlanWaveCommand{
		TenantID:    testTenant,
		WarehouseID: testWarehouse,
		OrderIDs:    []string{"ORD-EMPTY"},
	})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))
}

func TestWaveService_ExecuteFullPick(t *testing.T) {
	f := newWaveFixture()
	ctx := context.Background()
	seedCell(f.ledger, "SKU-001", "A-01-R09-L01", "B-001", 50, nil)
	f.orders.lines["ORD-1"] = []domain.OrderLine{
		{OrderID: "ORD-1", ProductID: "SKU-001", Quantity: 30},
	}
	wave := f.plan(t, "ORD-1")

	released, err := f.service.Release(ctx, ReleaseWaveCommand{TenantID: testTenant, WaveID: wave.WaveID})
	require.NoError(t, err)
	assert.Equal(t, string(domain.WaveStatusReleased), released.Status)

	execution, err := f.service.Execute(ctx, ExecuteWaveCommand{
		TenantID: testTenant,
		WaveID:   wave.WaveID,
		Lines:    []WaveLineResult{{TaskID: wave.Stops[0].TaskID, CountedQty: 30}},
		Actor:    "picker-9",
	})
	require.NoError(t, err)
	require.Len(t, execution.Results, 1)
	assert.Equal(t, string(domain.PickTaskPicked), execution.Results[0].Status)
	assert.Equal(t, 30, execution.Results[0].CommittedQty)
	assert.Equal(t, 0, execution.Results[0].ReleasedQty)
	assert.Equal(t, string(domain.WaveStatusDone), execution.Wave.Status)

	cell := f.ledger.cell(cellKey("SKU-001", "A-01-R09-L01", "B-001"))
	assert.Equal(t, 20, cell.OnHandQty)
	assert.Equal(t, 0, cell.ReservedQty)
}

func TestWaveService_ExecuteShortPickReleasesRemainder(t *testing.T) {
	f := newWaveFixture()
	ctx := context.Background()
	seedCell(f.ledger, "SKU-001", "A-01-R09-L01", "B-001", 50, nil)
	f.orders.lines["ORD-1"] = []domain.OrderLine{
		{OrderID: "ORD-1", ProductID: "SKU-001", Quantity: 30},
	}
	wave := f.plan(t, "ORD-1")
	_, err := f.service.Release(ctx, ReleaseWaveCommand{TenantID: testTenant, WaveID: wave.WaveID})
	require.NoError(t, err)

	execution, err := f.service.Execute(ctx, ExecuteWaveCommand{
		TenantID: testTenant,
		WaveID:   wave.WaveID,
		Lines:    []WaveLineResult{{TaskID: wave.Stops[0].TaskID, CountedQty: 20}},
	})
	require.NoError(t, err)
	assert.Equal(t, string(domain.PickTaskShort), execution.Results[0].Status)
	assert.Equal(t, 20, execution.Results[0].CommittedQty)
	assert.Equal(t, 10, execution.Results[0].ReleasedQty)
	assert.Equal(t, string(domain.WaveStatusDone), execution.Wave.Status)

	cell := f.ledger.cell(cellKey("SKU-001", "A-01-R09-L01", "B-001"))
	assert.Equal(t, 30, cell.OnHandQty)
	assert.Equal(t, 0, cell.ReservedQty)

	assert.Len(t, f.ledger.movementsOfType(domain.MovementCommit), 1)
	assert.Len(t, f.ledger.movementsOfType(domain.MovementRelease), 1)
}

func TestWaveService_ExecuteRequiresReleasedWave(t *testing.T) {
	f := newWaveFixture()
	seedCell(f.ledger, "SKU-001", "A-01-R09-L01", "B-001", 50, nil)
	f.orders.lines["ORD-1"] = []domain.OrderLine{
		{OrderID: "ORD-1", ProductID: "SKU-001", Quantity: 10},
	}
	wave := f.plan(t, "ORD-1")

	_, err := f.service.Execute(context.Background(), ExecuteWaveCommand{
		TenantID: testTenant,
		WaveID:   wave.WaveID,
		Lines:    []WaveLineResult{{TaskID: wave.Stops[0].TaskID, CountedQty: 10}},
	})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidStateTransition))
}

func TestWaveService_ExecuteUnknownTaskReportedPerLine(t *testing.T) {
	f := newWaveFixture()
	ctx := context.Background()
	seedCell(f.ledger, "SKU-001", "A-01-R09-L01", "B-001", 50, nil)
	f.orders.lines["ORD-1"] = []domain.OrderLine{
		{OrderID: "ORD-1", ProductID: "SKU-001", Quantity: 10},
	}
	wave := f.plan(t, "ORD-1")
	_, err := f.service.Release(ctx, ReleaseWaveCommand{TenantID: testTenant, WaveID: wave.WaveID})
	require.NoError(t, err)

	execution, err := f.service.Execute(ctx, ExecuteWaveCommand{
		TenantID: testTenant,
		WaveID:   wave.WaveID,
		Lines: []WaveLineResult{
			{TaskID: "PT-nope", CountedQty: 1},
			{TaskID: wave.Stops[0].TaskID, CountedQty: 10},
		},
	})
	require.NoError(t, err)
	require.Len(t, execution.Results, 2)
	assert.Equal(t, "ERROR", execution.Results[0].Status)
	assert.NotEmpty(t, execution.Results[0].Error)
	assert.Equal(t, string(domain.PickTaskPicked), execution.Results[1].Status)
	assert.Equal(t, string(domain.WaveStatusDone), execution.Wave.Status)
}

func TestWaveService_CancelReleasesOutstanding(t *testing.T) {
	f := newWaveFixture()
	ctx := context.Background()
	seedCell(f.ledger, "SKU-001", "A-01-R09-L01", "B-001", 50, nil)
	f.orders.lines["ORD-1"] = []domain.OrderLine{
		{OrderID: "ORD-1", ProductID: "SKU-001", Quantity: 30},
	}
	wave := f.plan(t, "ORD-1")

	cancelled, err := f.service.Cancel(ctx, CancelWaveCommand{
		TenantID: testTenant,
		WaveID:   wave.WaveID,
		Reason:   "carrier cutoff missed",
	})
	require.NoError(t, err)
	assert.Equal(t, string(domain.WaveStatusCancelled), cancelled.Status)

	cell := f.ledger.cell(cellKey("SKU-001", "A-01-R09-L01", "B-001"))
	assert.Equal(t, 50, cell.OnHandQty)
	assert.Equal(t, 0, cell.ReservedQty)
	assert.Empty(t, f.ledger.activeReservations())
}

func TestWaveService_CancelAfterCommitRejected(t *testing.T) {
	f := newWaveFixture()
	ctx := context.Background()
	seedCell(f.ledger, "SKU-001", "A-01-R09-L01", "B-001", 50, nil)
	seedCell(f.ledger, "SKU-002", "A-01-R02-L01", "B-002", 20, nil)
	f.orders.lines["ORD-1"] = []domain.OrderLine{
		{OrderID: "ORD-1", ProductID: "SKU-001", Quantity: 10},
		{OrderID: "ORD-1", ProductID: "SKU-002", Quantity: 5},
	}
	wave := f.plan(t, "ORD-1")
	_, err := f.service.Release(ctx, ReleaseWaveCommand{TenantID: testTenant, WaveID: wave.WaveID})
	require.NoError(t, err)

	first := stopForProduct(t, wave, "SKU-001")
	_, err = f.service.Execute(ctx, ExecuteWaveCommand{
		TenantID: testTenant,
		WaveID:   wave.WaveID,
		Lines:    []WaveLineResult{{TaskID: first.TaskID, CountedQty: 10}},
	})
	require.NoError(t, err)

	_, err = f.service.Cancel(ctx, CancelWaveCommand{
		TenantID: testTenant,
		WaveID:   wave.WaveID,
		Reason:   "too late",
	})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidStateTransition))
}

func TestWaveService_GetWaveNotFound(t *testing.T) {
	f := newWaveFixture()
	_, err := f.service.GetWave(context.Background(), testTenant, "WAV-missing")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))
}

func TestMemWavesSaveVisibility(t *testing.T) {
	waves := newMemWaves()
	ctx := context.Background()
	wave, err := domain.NewWave(testTenant, testWarehouse, "picker-1", []string{"ORD-1"})
	require.NoError(t, err)
	require.NoError(t, waves.Save(ctx, wave))

	found, err := waves.FindByWaveID(ctx, testTenant, wave.WaveID)
	require.NoError(t, err)
	require.NoError(t, found.MarkPlanned([]domain.PickStop{{
		Sequence:   1,
		TaskID:     "PT-1",
		ProductID:  "SKU-001",
		LocationID: "A-01-R01-L01",
		Quantity:   5,
		Status:     domain.PickTaskPending,
	}}))

	// A mutation that was never saved stays invisible to the next reader.
	again, err := waves.FindByWaveID(ctx, testTenant, wave.WaveID)
	require.NoError(t, err)
	assert.Equal(t, domain.WaveStatusCreated, again.Status)
	assert.Empty(t, again.Stops)

	require.NoError(t, waves.Save(ctx, found))
	saved, err := waves.FindByWaveID(ctx, testTenant, wave.WaveID)
	require.NoError(t, err)
	assert.Equal(t, domain.WaveStatusPlanned, saved.Status)
	require.Len(t, saved.Stops, 1)
}
