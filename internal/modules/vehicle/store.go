// README: Vehicle store backed by PostgreSQL.
package vehicle

import (
	"context"
	"errors"

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

func (s *Store) Create(ctx context.Context, v *Vehicle) error {
	_, err := s.db.Exec(ctx, `
        INSERT INTO vehicles (id, driver_id, model, plate, seats, mileage, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		string(v.ID), string(v.DriverID), v.Model, v.Plate, v.Seats, v.Mileage, v.CreatedAt,
	)
	return err
}

func (s *Store) Get(ctx context.Context, id types.ID) (*Vehicle, error) {
	row := s.db.QueryRow(ctx, `
        SELECT id, driver_id, model, plate, seats, mileage, created_at
        FROM vehicles WHERE id = $1`, string(id))

	var v Vehicle
	var vid, driverID string
	if err := row.Scan(&vid, &driverID, &v.Model, &v.Plate, &v.Seats, &v.Mileage, &v.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	v.ID = types.ID(vid)
	v.DriverID = types.ID(driverID)
	return &v, nil
}
