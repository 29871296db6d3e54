package application

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/wms-platform/inventory-ops-service/internal/domain"
)

// memLedger is an in-memory stand-in for the MongoDB ledger. It enforces
// the same compare-and-swap semantics as the real repository and keeps the
// movement log and reservation store alongside, so one transaction lands
// atomically like a Mongo session would make it.
type memLedger struct {
	mu           sync.Mutex
	cells        map[domain.CellKey]*domain.StockCell
	movements    []domain.MovementRecord
	reservations map[string]*domain.Reservation

	// forcedConflicts makes the next N Apply calls fail with a version
	// conflict before touching state.
	forcedConflicts int
	applyCalls      int
}

func newMemLedger() *memLedger {
	return &memLedger{
		cells:        make(map[domain.CellKey]*domain.StockCell),
		reservations: make(map[string]*domain.Reservation),
	}
}

func cloneCell(c *domain.StockCell) *domain.StockCell {
	cp := *c
	return &cp
}

func cloneReservation(r *domain.Reservation) *domain.Reservation {
	cp := *r
	return &cp
}

func (m *memLedger) seed(cell *domain.StockCell) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if cell.Version == 0 {
		cell.Version = 1
	}
	m.cells[cell.Key()] = cloneCell(cell)
}

func (m *memLedger) cell(key domain.CellKey) *domain.StockCell {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.cells[key]
	if !ok {
		return nil
	}
	return cloneCell(c)
}

func (m *memLedger) FindCell(ctx context.Context, key domain.CellKey) (*domain.StockCell, error) {
	return m.cell(key), nil
}

func (m *memLedger) FindCellsByProduct(ctx context.Context, tenantID, warehouseID, productID string) ([]*domain.StockCell, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*domain.StockCell, 0)
	for _, c := range m.cells {
		if c.TenantID == tenantID && c.WarehouseID == warehouseID && c.ProductID == productID {
			out = append(out, cloneCell(c))
		}
	}
	return out, nil
}

func (m *memLedger) FindCellsAtLocation(ctx context.Context, tenantID, warehouseID, productID, locationID string) ([]*domain.StockCell, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*domain.StockCell, 0)
	for _, c := range m.cells {
		if c.TenantID == tenantID && c.WarehouseID == warehouseID &&
			c.ProductID == productID && c.LocationID == locationID {
			out = append(out, cloneCell(c))
		}
	}
	return out, nil
}

func (m *memLedger) ListCells(ctx context.Context, tenantID, warehouseID string, filter domain.CellFilter) ([]*domain.StockCell, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*domain.StockCell, 0)
	for _, c := range m.cells {
		if c.TenantID != tenantID || c.WarehouseID != warehouseID {
			continue
		}
		if len(filter.Products) > 0 && !contains(filter.Products, c.ProductID) {
			continue
		}
		if len(filter.Locations) > 0 && !contains(filter.Locations, c.LocationID) {
			continue
		}
		if len(filter.Zones) > 0 {
			matched := false
			for _, zone := range filter.Zones {
				if strings.HasPrefix(c.LocationID, zone+"-") {
					matched = true
					break
				}
			}
			if !matched {
				continue
			}
		}
		out = append(out, cloneCell(c))
	}
	return out, nil
}

func (m *memLedger) Apply(ctx context.Context, txn domain.LedgerTxn) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.applyCalls++

	if m.forcedConflicts > 0 {
		m.forcedConflicts--
		return domain.ErrVersionConflict
	}

	// Validate every CAS precondition before mutating anything.
	for _, w := range txn.Writes {
		existing, ok := m.cells[w.Cell.Key()]
		if w.ExpectedVersion == 0 {
			if ok {
				return domain.ErrVersionConflict
			}
			continue
		}
		if !ok || existing.Version != w.ExpectedVersion {
			return domain.ErrVersionConflict
		}
	}

	for _, w := range txn.Writes {
		w.Cell.Version = w.ExpectedVersion + 1
		m.cells[w.Cell.Key()] = cloneCell(w.Cell)
	}
	if txn.Movement != nil {
		m.movements = append(m.movements, *txn.Movement)
	}
	for _, r := range txn.Reservations {
		m.reservations[r.ReservationID] = cloneReservation(r)
	}
	return nil
}

func (m *memLedger) FindByCorrelationID(ctx context.Context, tenantID, correlationID string) ([]domain.MovementRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.MovementRecord, 0)
	for _, mv := range m.movements {
		if mv.TenantID == tenantID && mv.CorrelationID == correlationID {
			out = append(out, mv)
		}
	}
	return out, nil
}

func (m *memLedger) FindByProduct(ctx context.Context, tenantID, productID string, since time.Time) ([]domain.MovementRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.MovementRecord, 0)
	for _, mv := range m.movements {
		if mv.TenantID == tenantID && mv.ProductID == productID && !mv.CreatedAt.Before(since) {
			out = append(out, mv)
		}
	}
	return out, nil
}

func (m *memLedger) FindCommitsSince(ctx context.Context, tenantID, warehouseID string, since time.Time) ([]domain.MovementRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.MovementRecord, 0)
	for _, mv := range m.movements {
		if mv.TenantID == tenantID && mv.WarehouseID == warehouseID &&
			mv.Type == domain.MovementCommit && !mv.CreatedAt.Before(since) {
			out = append(out, mv)
		}
	}
	return out, nil
}

func (m *memLedger) FindByReservationID(ctx context.Context, tenantID, reservationID string) (*domain.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.reservations[reservationID]
	if !ok || r.TenantID != tenantID {
		return nil, nil
	}
	return cloneReservation(r), nil
}

func (m *memLedger) Save(ctx context.Context, reservation *domain.Reservation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reservations[reservation.ReservationID] = cloneReservation(reservation)
	return nil
}

func (m *memLedger) movementsOfType(movementType domain.MovementType) []domain.MovementRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.MovementRecord, 0)
	for _, mv := range m.movements {
		if mv.Type == movementType {
			out = append(out, mv)
		}
	}
	return out
}

func (m *memLedger) activeReservations() []*domain.Reservation {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*domain.Reservation, 0)
	for _, r := range m.reservations {
		if r.Status == domain.ReservationStatusActive {
			out = append(out, cloneReservation(r))
		}
	}
	return out
}

func contains(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}

type memWaves struct {
	mu    sync.Mutex
	waves map[string]*domain.Wave
}

func newMemWaves() *memWaves {
	return &memWaves{waves: make(map[string]*domain.Wave)}
}

func (m *memWaves) Save(ctx context.Context, wave *domain.Wave) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.waves[wave.WaveID] = cloneWave(wave)
	return nil
}

func (m *memWaves) FindByWaveID(ctx context.Context, tenantID, waveID string) (*domain.Wave, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.waves[waveID]
	if !ok || w.TenantID != tenantID {
		return nil, nil
	}
	return cloneWave(w), nil
}

// cloneWave keeps callers from mutating stored state; only a Save makes
// changes visible, matching the real repository.
func cloneWave(w *domain.Wave) *domain.Wave {
	c := *w
	c.OrderIDs = append([]string(nil), w.OrderIDs...)
	c.Stops = make([]domain.PickStop, len(w.Stops))
	for i, stop := range w.Stops {
		c.Stops[i] = stop
		if stop.PickedQty != nil {
			qty := *stop.PickedQty
			c.Stops[i].PickedQty = &qty
		}
	}
	c.DomainEvents = nil
	return &c
}

type memSuggestions struct {
	mu          sync.Mutex
	suggestions map[string]*domain.ReplenishmentSuggestion
}

func newMemSuggestions() *memSuggestions {
	return &memSuggestions{suggestions: make(map[string]*domain.ReplenishmentSuggestion)}
}

func (m *memSuggestions) Save(ctx context.Context, s *domain.ReplenishmentSuggestion) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.suggestions[s.SuggestionID] = s
	return nil
}

func (m *memSuggestions) FindBySuggestionID(ctx context.Context, tenantID, suggestionID string) (*domain.ReplenishmentSuggestion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.suggestions[suggestionID]
	if !ok || s.TenantID != tenantID {
		return nil, nil
	}
	return s, nil
}

func (m *memSuggestions) FindByStatus(ctx context.Context, tenantID, warehouseID string, status domain.SuggestionStatus) ([]*domain.ReplenishmentSuggestion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*domain.ReplenishmentSuggestion, 0)
	for _, s := range m.suggestions {
		if s.TenantID == tenantID && s.WarehouseID == warehouseID && s.Status == status {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *memSuggestions) FindOpenForLocation(ctx context.Context, tenantID, warehouseID, sku, locationID string) (*domain.ReplenishmentSuggestion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.suggestions {
		if s.TenantID == tenantID && s.WarehouseID == warehouseID &&
			s.SKU == sku && s.DestinationLocation == locationID &&
			(s.Status == domain.SuggestionStatusPending || s.Status == domain.SuggestionStatusApproved) {
			return s, nil
		}
	}
	return nil, nil
}

type memRecommendations struct {
	mu              sync.Mutex
	recommendations map[string]*domain.SlottingRecommendation
}

func newMemRecommendations() *memRecommendations {
	return &memRecommendations{recommendations: make(map[string]*domain.SlottingRecommendation)}
}

func (m *memRecommendations) Save(ctx context.Context, r *domain.SlottingRecommendation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recommendations[r.RecommendationID] = r
	return nil
}

func (m *memRecommendations) FindByRecommendationID(ctx context.Context, tenantID, recommendationID string) (*domain.SlottingRecommendation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.recommendations[recommendationID]
	if !ok || r.TenantID != tenantID {
		return nil, nil
	}
	return r, nil
}

func (m *memRecommendations) FindByStatus(ctx context.Context, tenantID, warehouseID string, status domain.SuggestionStatus) ([]*domain.SlottingRecommendation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*domain.SlottingRecommendation, 0)
	for _, r := range m.recommendations {
		if r.TenantID == tenantID && r.WarehouseID == warehouseID && r.Status == status {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memRecommendations) FindOpenForSKU(ctx context.Context, tenantID, warehouseID, sku string) (*domain.SlottingRecommendation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.recommendations {
		if r.TenantID == tenantID && r.WarehouseID == warehouseID && r.SKU == sku &&
			(r.Status == domain.SuggestionStatusPending || r.Status == domain.SuggestionStatusApproved) {
			return r, nil
		}
	}
	return nil, nil
}

type memCycleCounts struct {
	mu    sync.Mutex
	tasks map[string]*domain.CycleCountTask
}

func newMemCycleCounts() *memCycleCounts {
	return &memCycleCounts{tasks: make(map[string]*domain.CycleCountTask)}
}

func (m *memCycleCounts) Save(ctx context.Context, task *domain.CycleCountTask) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tasks[task.TaskID] = task
	return nil
}

func (m *memCycleCounts) FindByTaskID(ctx context.Context, tenantID, taskID string) (*domain.CycleCountTask, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	task, ok := m.tasks[taskID]
	if !ok || task.TenantID != tenantID {
		return nil, nil
	}
	return task, nil
}

type memPolicies struct {
	mu       sync.Mutex
	policies []domain.ReplenishmentPolicy
}

func (m *memPolicies) ListPolicies(ctx context.Context, tenantID, warehouseID string) ([]domain.ReplenishmentPolicy, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.ReplenishmentPolicy, 0)
	for _, p := range m.policies {
		if p.TenantID == tenantID && p.WarehouseID == warehouseID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memPolicies) SavePolicy(ctx context.Context, policy domain.ReplenishmentPolicy) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, p := range m.policies {
		if p.TenantID == policy.TenantID && p.WarehouseID == policy.WarehouseID &&
			p.SKU == policy.SKU && p.LocationID == policy.LocationID {
			m.policies[i] = policy
			return nil
		}
	}
	m.policies = append(m.policies, policy)
	return nil
}

type memLocations struct {
	mu      sync.Mutex
	records []domain.LocationRecord
}

func (m *memLocations) ListByType(ctx context.Context, tenantID, warehouseID string, locationType domain.LocationType) ([]domain.LocationRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.LocationRecord, 0)
	for _, r := range m.records {
		if r.TenantID == tenantID && r.WarehouseID == warehouseID && r.Type == locationType {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memLocations) Save(ctx context.Context, record domain.LocationRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, record)
	return nil
}

type memProducts struct {
	mu       sync.Mutex
	profiles map[string]domain.ProductProfile
}

func newMemProducts() *memProducts {
	return &memProducts{profiles: make(map[string]domain.ProductProfile)}
}

func (m *memProducts) FindProfile(ctx context.Context, tenantID, sku string) (*domain.ProductProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[tenantID+"/"+sku]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (m *memProducts) Save(ctx context.Context, profile domain.ProductProfile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.profiles[profile.TenantID+"/"+profile.SKU] = profile
	return nil
}

type stubOrders struct {
	lines map[string][]domain.OrderLine
	err   error
}

func (s *stubOrders) GetOrderLines(ctx context.Context, tenantID string, orderIDs []string) ([]domain.OrderLine, error) {
	if s.err != nil {
		return nil, s.err
	}
	out := make([]domain.OrderLine, 0)
	for _, id := range orderIDs {
		out = append(out, s.lines[id]...)
	}
	return out, nil
}

type capturedEvent struct {
	TenantID string
	Subject  string
	Event    domain.DomainEvent
}

type memPublisher struct {
	mu     sync.Mutex
	events []capturedEvent
}

func (p *memPublisher) Publish(ctx context.Context, tenantID, subject string, event domain.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, capturedEvent{TenantID: tenantID, Subject: subject, Event: event})
	return nil
}

func (p *memPublisher) eventTypes() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Event.EventType())
	}
	return out
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// seedCell builds and seeds a cell with on-hand stock.
func seedCell(ledger *memLedger, productID, locationID, batchID string, qty int, expiry *time.Time) {
	cell := domain.NewStockCell(domain.CellKey{
		TenantID:    "tenant-001",
		WarehouseID: "wh-01",
		ProductID:   productID,
		LocationID:  locationID,
		BatchID:     batchID,
	}, "EA", expiry)
	cell.OnHandQty = qty
	ledger.seed(cell)
}
