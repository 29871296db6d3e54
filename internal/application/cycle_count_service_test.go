package application

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wms-platform/inventory-ops-service/internal/domain"
	apperrors "github.com/wms-platform/inventory-ops-service/pkg/errors"
)

type cycleCountFixture struct {
	service *CycleCountService
	ledger  *memLedger
	tasks   *memCycleCounts
}

func newCycleCountFixture() *cycleCountFixture {
	ledger := newMemLedger()
	tasks := newMemCycleCounts()
	publisher := &memPublisher{}
	allocation := NewAllocationService(ledger, ledger, ledger, publisher, nil, testLogger())
	service := NewCycleCountService(tasks, ledger, allocation, publisher, nil, testLogger())
	return &cycleCountFixture{service: service, ledger: ledger, tasks: tasks}
}

func (f *cycleCountFixture) seedZoneA(t *testing.T) {
	t.Helper()
	seedCell(f.ledger, "SKU-001", "A-01-R01-L01", "B-001", 100, nil)
	seedCell(f.ledger, "SKU-002", "A-01-R02-L01", "", 40, nil)
	seedCell(f.ledger, "SKU-003", "A-01-R03-L01", "", 25, nil)
}

func (f *cycleCountFixture) createTask(t *testing.T) *CycleCountDTO {
	t.Helper()
	task, err := f.service.Create(context.Background(), CreateCycleCountCommand{
		TenantID:    testTenant,
		WarehouseID: testWarehouse,
		Locations:   []string{"A-01-R01-L01", "A-01-R02-L01", "A-01-R03-L01"},
	})
	require.NoError(t, err)
	return task
}

func TestCycleCountService_CreateSnapshotsTheoretical(t *testing.T) {
	f := newCycleCountFixture()
	f.seedZoneA(t)

	task := f.createTask(t)

	assert.Equal(t, string(domain.CycleCountAssigned), task.Status)
	require.Len(t, task.Lines, 3)
	theoretical := make(map[string]int)
	for _, line := range task.Lines {
		theoretical[line.SKU] = line.Theoretical
		assert.Nil(t, line.Counted)
	}
	assert.Equal(t, 100, theoretical["SKU-001"])
	assert.Equal(t, 40, theoretical["SKU-002"])
	assert.Equal(t, 25, theoretical["SKU-003"])
}

func TestCycleCountService_CreateEmptyScope(t *testing.T) {
	f := newCycleCountFixture()

	_, err := f.service.Create(context.Background(), CreateCycleCountCommand{
		TenantID:    testTenant,
		WarehouseID: testWarehouse,
		Locations:   []string{"Z-99-R01-L01"},
	})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))
}

func TestCycleCountService_ExecuteRecordsCounts(t *testing.T) {
	f := newCycleCountFixture()
	f.seedZoneA(t)
	task := f.createTask(t)
	ctx := context.Background()

	counted, err := f.service.Execute(ctx, ExecuteCycleCountCommand{
		TenantID: testTenant,
		TaskID:   task.TaskID,
		Lines: []CountedLine{
			{LocationID: "A-01-R01-L01", SKU: "SKU-001", BatchID: "B-001", Counted: 92},
			{LocationID: "A-01-R02-L01", SKU: "SKU-002", Counted: 45},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, string(domain.CycleCountCounted), counted.Status)
	require.NotNil(t, counted.CountedAt)

	// Counting never touches the ledger.
	assert.Equal(t, 100, f.ledger.cell(cellKey("SKU-001", "A-01-R01-L01", "B-001")).OnHandQty)

	_, err = f.service.Execute(ctx, ExecuteCycleCountCommand{
		TenantID: testTenant,
		TaskID:   task.TaskID,
		Lines:    []CountedLine{{LocationID: "A-01-R01-L01", SKU: "SKU-404", Counted: 1}},
	})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))
}

func TestCycleCountService_ReviewApproveAdjustsLedger(t *testing.T) {
	f := newCycleCountFixture()
	f.seedZoneA(t)
	task := f.createTask(t)
	ctx := context.Background()

	_, err := f.service.Execute(ctx, ExecuteCycleCountCommand{
		TenantID: testTenant,
		TaskID:   task.TaskID,
		Lines: []CountedLine{
			{LocationID: "A-01-R01-L01", SKU: "SKU-001", BatchID: "B-001", Counted: 92},
			{LocationID: "A-01-R02-L01", SKU: "SKU-002", Counted: 45},
		},
	})
	require.NoError(t, err)

	review, err := f.service.Review(ctx, ReviewCycleCountCommand{
		TenantID: testTenant,
		TaskID:   task.TaskID,
		Approve:  true,
		Actor:    "supervisor-3",
	})
	require.NoError(t, err)
	assert.Equal(t, string(domain.CycleCountReviewed), review.Task.Status)
	require.NotNil(t, review.Task.Approved)
	assert.True(t, *review.Task.Approved)

	// One adjustment per non-zero counted delta; the uncounted SKU-003
	// line stays untouched.
	require.Len(t, review.Adjustments, 2)
	for _, adjustment := range review.Adjustments {
		assert.True(t, adjustment.Applied)
		assert.Empty(t, adjustment.ErrorCode)
		require.NotNil(t, adjustment.Movement)
		assert.Equal(t, "cycle count reconciliation", adjustment.Movement.Reason)
		assert.Equal(t, task.TaskID, adjustment.Movement.CorrelationID)
	}

	assert.Equal(t, 92, f.ledger.cell(cellKey("SKU-001", "A-01-R01-L01", "B-001")).OnHandQty)
	assert.Equal(t, 45, f.ledger.cell(cellKey("SKU-002", "A-01-R02-L01", "")).OnHandQty)
	assert.Equal(t, 25, f.ledger.cell(cellKey("SKU-003", "A-01-R03-L01", "")).OnHandQty)

	assert.Len(t, f.ledger.movementsOfType(domain.MovementAdjustDec), 1)
	assert.Len(t, f.ledger.movementsOfType(domain.MovementAdjustInc), 1)
}

func TestCycleCountService_ReviewReportsUnappliedDelta(t *testing.T) {
	f := newCycleCountFixture()
	// Nearly all of the stock is held by an active reservation, so the
	// counted shortfall of 8 exceeds the 5 units that are free to adjust.
	cell := domain.NewStockCell(domain.CellKey{
		TenantID:    testTenant,
		WarehouseID: testWarehouse,
		ProductID:   "SKU-001",
		LocationID:  "A-01-R01-L01",
		BatchID:     "B-001",
	}, "EA", nil)
	cell.OnHandQty = 100
	cell.ReservedQty = 95
	f.ledger.seed(cell)
	ctx := context.Background()

	task, err := f.service.Create(ctx, CreateCycleCountCommand{
		TenantID:    testTenant,
		WarehouseID: testWarehouse,
		Locations:   []string{"A-01-R01-L01"},
	})
	require.NoError(t, err)

	_, err = f.service.Execute(ctx, ExecuteCycleCountCommand{
		TenantID: testTenant,
		TaskID:   task.TaskID,
		Lines:    []CountedLine{{LocationID: "A-01-R01-L01", SKU: "SKU-001", BatchID: "B-001", Counted: 92}},
	})
	require.NoError(t, err)

	review, err := f.service.Review(ctx, ReviewCycleCountCommand{
		TenantID: testTenant,
		TaskID:   task.TaskID,
		Approve:  true,
		Actor:    "supervisor-3",
	})
	require.NoError(t, err)
	assert.Equal(t, string(domain.CycleCountReviewed), review.Task.Status)

	// The failed delta stays visible in the response instead of vanishing.
	require.Len(t, review.Adjustments, 1)
	outcome := review.Adjustments[0]
	assert.False(t, outcome.Applied)
	assert.Equal(t, -8, outcome.Delta)
	assert.Equal(t, string(apperrors.CodeInsufficientStock), outcome.ErrorCode)
	assert.Nil(t, outcome.Movement)

	assert.Equal(t, 100, f.ledger.cell(cellKey("SKU-001", "A-01-R01-L01", "B-001")).OnHandQty)
	assert.Empty(t, f.ledger.movementsOfType(domain.MovementAdjustDec))
}

func TestCycleCountService_ReviewRejectLeavesLedgerAlone(t *testing.T) {
	f := newCycleCountFixture()
	f.seedZoneA(t)
	task := f.createTask(t)
	ctx := context.Background()

	_, err := f.service.Execute(ctx, ExecuteCycleCountCommand{
		TenantID: testTenant,
		TaskID:   task.TaskID,
		Lines:    []CountedLine{{LocationID: "A-01-R01-L01", SKU: "SKU-001", BatchID: "B-001", Counted: 92}},
	})
	require.NoError(t, err)

	review, err := f.service.Review(ctx, ReviewCycleCountCommand{
		TenantID: testTenant,
		TaskID:   task.TaskID,
		Approve:  false,
	})
	require.NoError(t, err)
	assert.Empty(t, review.Adjustments)
	require.NotNil(t, review.Task.Approved)
	assert.False(t, *review.Task.Approved)

	assert.Equal(t, 100, f.ledger.cell(cellKey("SKU-001", "A-01-R01-L01", "B-001")).OnHandQty)
	assert.Empty(t, f.ledger.movementsOfType(domain.MovementAdjustDec))
}

func TestCycleCountService_ReviewStateGuards(t *testing.T) {
	f := newCycleCountFixture()
	f.seedZoneA(t)
	task := f.createTask(t)
	ctx := context.Background()

	// Reviewing before any count is recorded.
	_, err := f.service.Review(ctx, ReviewCycleCountCommand{
		TenantID: testTenant,
		TaskID:   task.TaskID,
		Approve:  true,
	})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidStateTransition))

	_, err = f.service.Execute(ctx, ExecuteCycleCountCommand{
		TenantID: testTenant,
		TaskID:   task.TaskID,
		Lines:    []CountedLine{{LocationID: "A-01-R01-L01", SKU: "SKU-001", BatchID: "B-001", Counted: 100}},
	})
	require.NoError(t, err)

	_, err = f.service.Review(ctx, ReviewCycleCountCommand{TenantID: testTenant, TaskID: task.TaskID, Approve: true})
	require.NoError(t, err)

	// A reviewed task cannot be reviewed or recounted again.
	_, err = f.service.Review(ctx, ReviewCycleCountCommand{TenantID: testTenant, TaskID: task.TaskID, Approve: true})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidStateTransition))

	_, err = f.service.Execute(ctx, ExecuteCycleCountCommand{
		TenantID: testTenant,
		TaskID:   task.TaskID,
		Lines:    []CountedLine{{LocationID: "A-01-R01-L01", SKU: "SKU-001", BatchID: "B-001", Counted: 99}},
	})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidStateTransition))

	_, err = f.service.Get(ctx, testTenant, "CCT-missing")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))
}
