package mongodb

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/wms-platform/inventory-ops-service/internal/domain"
)

// ReservationRepository stores reservations. Reservations created or
// resolved together with cell writes are saved by LedgerRepository.Apply;
// this repository serves lookups and standalone saves.
type ReservationRepository struct {
	collection *mongo.Collection
}

// NewReservationRepository creates a new ReservationRepository
func NewReservationRepository(db *mongo.Database) *ReservationRepository {
	return &ReservationRepository{collection: db.Collection("reservations")}
}

// FindByReservationID returns one reservation, nil when absent
func (r *ReservationRepository) FindByReservationID(ctx context.Context, tenantID, reservationID string) (*domain.Reservation, error) {
	var reservation domain.Reservation
	err := r.collection.FindOne(ctx, bson.M{
		"tenantId":      tenantID,
		"reservationId": reservationID,
	}).Decode(&reservation)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find reservation: %w", err)
	}
	return &reservation, nil
}

// Save upserts a reservation by its identifier
func (r *ReservationRepository) Save(ctx context.Context, reservation *domain.Reservation) error {
	filter := bson.M{"tenantId": reservation.TenantID, "reservationId": reservation.ReservationID}
	opts := options.Replace().SetUpsert(true)
	if _, err := r.collection.ReplaceOne(ctx, filter, reservation, opts); err != nil {
		return fmt.Errorf("failed to save reservation: %w", err)
	}
	return nil
}
