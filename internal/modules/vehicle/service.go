// README: Vehicle registry; supplies mileage and seat count to ride creation.
package vehicle

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"ridepool/internal/types"
)

var (
	ErrNotFound       = errors.New("vehicle not found")
	ErrNotOwner       = errors.New("vehicle belongs to another driver")
	ErrInvalidMileage = errors.New("mileage must be a positive number")
	ErrInvalidVehicle = errors.New("invalid vehicle")
)

type Repository interface {
	Create(ctx context.Context, v *Vehicle) error
	Get(ctx context.Context, id types.ID) (*Vehicle, error)
}

type Service struct {
	store Repository
	now   func() time.Time
}

func NewService(store Repository) *Service {
	return &Service{store: store, now: time.Now}
}

type RegisterCommand struct {
	DriverID types.ID
	Model    string
	Plate    string
	Seats    int
	Mileage  float64
}

func (s *Service) Register(ctx context.Context, cmd RegisterCommand) (*Vehicle, error) {
	if cmd.DriverID == "" || cmd.Seats < 1 {
		return nil, ErrInvalidVehicle
	}
	if math.IsNaN(cmd.Mileage) || math.IsInf(cmd.Mileage, 0) || cmd.Mileage <= 0 {
		return nil, ErrInvalidMileage
	}
	v := &Vehicle{
		ID:        types.NewID(),
		DriverID:  cmd.DriverID,
		Model:     strings.TrimSpace(cmd.Model),
		Plate:     strings.ToUpper(strings.TrimSpace(cmd.Plate)),
		Seats:     cmd.Seats,
		Mileage:   cmd.Mileage,
		CreatedAt: s.now(),
	}
	if err := s.store.Create(ctx, v); err != nil {
		return nil, err
	}
	return v, nil
}

func (s *Service) Get(ctx context.Context, id types.ID) (*Vehicle, error) {
	return s.store.Get(ctx, id)
}

// Owned returns the vehicle after checking it belongs to driverID and still
// carries a usable mileage.
func (s *Service) Owned(ctx context.Context, vehicleID, driverID types.ID) (*Vehicle, error) {
	v, err := s.store.Get(ctx, vehicleID)
	if err != nil {
		return nil, err
	}
	if v.DriverID != driverID {
		return nil, ErrNotOwner
	}
	if v.Mileage <= 0 {
		return nil, ErrInvalidMileage
	}
	return v, nil
}
