// README: Ride store backed by PostgreSQL with version-checked updates.
package ride

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"ridepool/internal/types"
)

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

const rideColumns = `
    id, driver_id, vehicle_id, origin, destination, depart_at,
    distance_km, fuel_price, total_people,
    passengers, pickup_points, dropoff_points,
    status, version, total_fuel_cost, cost_per_person, currency,
    created_at, updated_at, started_at, completed_at, cancelled_at, blocked_at, cancellation_reason`

func (s *Store) Create(ctx context.Context, r *Ride) error {
	rec := ToRecord(r)
	_, err := s.db.Exec(ctx, `
        INSERT INTO rides (`+rideColumns+`
        ) VALUES (
            $1, $2, $3, $4, $5, $6,
            $7, $8, $9,
            $10, $11, $12,
            $13, $14, $15, $16, $17,
            $18, $19, $20, $21, $22, $23, $24
        )`,
		rec.ID, rec.DriverID, rec.VehicleID, rec.Origin, rec.Destination, rec.DepartAt,
		rec.DistanceKm, rec.FuelPrice, rec.TotalPeople,
		rec.Passengers, rec.PickupPoints, rec.DropoffPoints,
		rec.Status, rec.Version, rec.TotalFuelCost, rec.CostPerPerson, rec.Currency,
		rec.CreatedAt, rec.UpdatedAt, rec.StartedAt, rec.CompletedAt, rec.CancelledAt, rec.BlockedAt, rec.CancelReason,
	)
	return err
}

func (s *Store) Get(ctx context.Context, id types.ID) (*Ride, error) {
	row := s.db.QueryRow(ctx, `SELECT `+rideColumns+` FROM rides WHERE id = $1`, string(id))

	var rec Record
	err := row.Scan(
		&rec.ID, &rec.DriverID, &rec.VehicleID, &rec.Origin, &rec.Destination, &rec.DepartAt,
		&rec.DistanceKm, &rec.FuelPrice, &rec.TotalPeople,
		&rec.Passengers, &rec.PickupPoints, &rec.DropoffPoints,
		&rec.Status, &rec.Version, &rec.TotalFuelCost, &rec.CostPerPerson, &rec.Currency,
		&rec.CreatedAt, &rec.UpdatedAt, &rec.StartedAt, &rec.CompletedAt, &rec.CancelledAt, &rec.BlockedAt, &rec.CancelReason,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	r, err := Normalize(rec)
	if err != nil {
		return nil, fmt.Errorf("ride %s: %w", id, err)
	}
	return r, nil
}

// Save writes the mutable part of r if nobody else has saved since r was read.
func (s *Store) Save(ctx context.Context, r *Ride) error {
	rec := ToRecord(r)
	tag, err := s.db.Exec(ctx, `
        UPDATE rides
        SET depart_at = $1,
            passengers = $2,
            pickup_points = $3,
            dropoff_points = $4,
            status = $5,
            version = version + 1,
            updated_at = $6,
            started_at = $7,
            completed_at = $8,
            cancelled_at = $9,
            blocked_at = $10,
            cancellation_reason = $11
        WHERE id = $12 AND version = $13`,
		rec.DepartAt,
		rec.Passengers, rec.PickupPoints, rec.DropoffPoints,
		rec.Status,
		rec.UpdatedAt, rec.StartedAt, rec.CompletedAt, rec.CancelledAt, rec.BlockedAt, rec.CancelReason,
		rec.ID, rec.Version,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() != 1 {
		return ErrConflict
	}
	r.Version++
	return nil
}

func (s *Store) AppendEvent(ctx context.Context, e *Event) error {
	return s.db.QueryRow(ctx, `
        INSERT INTO ride_events (
            ride_id, kind, from_status, to_status, actor_type, actor_id, created_at
        ) VALUES ($1, $2, $3, $4, $5, $6, $7)
        RETURNING id`,
		string(e.RideID),
		string(e.Kind),
		string(e.FromStatus),
		string(e.ToStatus),
		e.ActorType,
		toStringPtr(e.ActorID),
		e.CreatedAt,
	).Scan(&e.ID)
}

func toStringPtr(v *types.ID) *string {
	if v == nil {
		return nil
	}
	s := string(*v)
	return &s
}
