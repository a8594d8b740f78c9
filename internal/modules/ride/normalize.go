// README: Normalizes stored ride records into rides and back.
package ride

import (
	"errors"
	"fmt"
	"math"
	"time"

	"ridepool/internal/types"
)

var ErrInvalidRecord = errors.New("invalid ride record")

const DefaultCurrency = "INR"

// Record is a ride as it arrives from storage or another service: optional
// fields may be missing and locations are still "lat,lng" strings.
type Record struct {
	ID            string
	DriverID      string
	VehicleID     string
	Origin        string
	Destination   string
	DepartAt      time.Time
	DistanceKm    *float64
	FuelPrice     *float64
	TotalPeople   *int
	Passengers    []string
	PickupPoints  []string
	DropoffPoints []string
	Status        string
	Version       int
	TotalFuelCost *float64
	CostPerPerson *float64
	Currency      string
	CreatedAt     time.Time
	UpdatedAt     time.Time
	StartedAt     *time.Time
	CompletedAt   *time.Time
	CancelledAt   *time.Time
	BlockedAt     *time.Time
	CancelReason  *string
}

// Normalize turns rec into a Ride, filling defaults and rejecting shapes the
// core cannot work with. An over-capacity roster is accepted here; it is
// reported by Overbooked, not refused.
func Normalize(rec Record) (*Ride, error) {
	if rec.ID == "" || rec.DriverID == "" {
		return nil, fmt.Errorf("%w: missing id or driver", ErrInvalidRecord)
	}
	r := &Ride{
		ID:           types.ID(rec.ID),
		DriverID:     types.ID(rec.DriverID),
		VehicleID:    types.ID(rec.VehicleID),
		DepartAt:     rec.DepartAt,
		TotalPeople:  1,
		Status:       StatusPending,
		Version:      rec.Version,
		Currency:     rec.Currency,
		CreatedAt:    rec.CreatedAt,
		UpdatedAt:    rec.UpdatedAt,
		StartedAt:    rec.StartedAt,
		CompletedAt:  rec.CompletedAt,
		CancelledAt:  rec.CancelledAt,
		BlockedAt:    rec.BlockedAt,
		CancelReason: rec.CancelReason,
	}
	if r.Currency == "" {
		r.Currency = DefaultCurrency
	}
	if rec.Status != "" {
		r.Status = Status(rec.Status)
		if !r.Status.Valid() {
			return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidRecord, rec.Status)
		}
	}
	if rec.TotalPeople != nil {
		if *rec.TotalPeople < 1 {
			return nil, fmt.Errorf("%w: total people %d", ErrInvalidRecord, *rec.TotalPeople)
		}
		r.TotalPeople = *rec.TotalPeople
	}

	var err error
	if r.DistanceKm, err = nonNegative("distance", rec.DistanceKm); err != nil {
		return nil, err
	}
	if r.FuelPrice, err = nonNegative("fuel price", rec.FuelPrice); err != nil {
		return nil, err
	}
	if r.TotalFuelCost, err = nonNegative("total fuel cost", rec.TotalFuelCost); err != nil {
		return nil, err
	}
	if r.CostPerPerson, err = nonNegative("cost per person", rec.CostPerPerson); err != nil {
		return nil, err
	}

	if rec.Origin != "" {
		if r.Origin, err = ParseLocation(rec.Origin); err != nil {
			return nil, fmt.Errorf("%w: origin: %v", ErrInvalidRecord, err)
		}
	}
	if rec.Destination != "" {
		if r.Destination, err = ParseLocation(rec.Destination); err != nil {
			return nil, fmt.Errorf("%w: destination: %v", ErrInvalidRecord, err)
		}
	}

	if len(rec.PickupPoints) != len(rec.Passengers) || len(rec.DropoffPoints) != len(rec.Passengers) {
		return nil, fmt.Errorf("%w: roster has %d passengers, %d pickups, %d dropoffs",
			ErrInvalidRecord, len(rec.Passengers), len(rec.PickupPoints), len(rec.DropoffPoints))
	}
	seen := make(map[string]struct{}, len(rec.Passengers))
	for i, p := range rec.Passengers {
		if p == "" {
			return nil, fmt.Errorf("%w: empty passenger id at %d", ErrInvalidRecord, i)
		}
		if _, dup := seen[p]; dup {
			return nil, fmt.Errorf("%w: duplicate passenger %s", ErrInvalidRecord, p)
		}
		seen[p] = struct{}{}
		pickup, err := ParseLocation(rec.PickupPoints[i])
		if err != nil {
			return nil, fmt.Errorf("%w: pickup of %s: %v", ErrInvalidRecord, p, err)
		}
		dropoff, err := ParseLocation(rec.DropoffPoints[i])
		if err != nil {
			return nil, fmt.Errorf("%w: dropoff of %s: %v", ErrInvalidRecord, p, err)
		}
		r.Passengers = append(r.Passengers, types.ID(p))
		r.PickupPoints = append(r.PickupPoints, pickup)
		r.DropoffPoints = append(r.DropoffPoints, dropoff)
	}
	return r, nil
}

// ToRecord is the inverse of Normalize.
func ToRecord(r *Ride) Record {
	rec := Record{
		ID:            string(r.ID),
		DriverID:      string(r.DriverID),
		VehicleID:     string(r.VehicleID),
		Origin:        r.Origin.String(),
		Destination:   r.Destination.String(),
		DepartAt:      r.DepartAt,
		DistanceKm:    &r.DistanceKm,
		FuelPrice:     &r.FuelPrice,
		TotalPeople:   &r.TotalPeople,
		Status:        string(r.Status),
		Version:       r.Version,
		TotalFuelCost: &r.TotalFuelCost,
		CostPerPerson: &r.CostPerPerson,
		Currency:      r.Currency,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
		StartedAt:     r.StartedAt,
		CompletedAt:   r.CompletedAt,
		CancelledAt:   r.CancelledAt,
		BlockedAt:     r.BlockedAt,
		CancelReason:  r.CancelReason,
		Passengers:    make([]string, len(r.Passengers)),
		PickupPoints:  make([]string, len(r.PickupPoints)),
		DropoffPoints: make([]string, len(r.DropoffPoints)),
	}
	for i, p := range r.Passengers {
		rec.Passengers[i] = string(p)
	}
	for i, l := range r.PickupPoints {
		rec.PickupPoints[i] = l.String()
	}
	for i, l := range r.DropoffPoints {
		rec.DropoffPoints[i] = l.String()
	}
	return rec
}

func nonNegative(name string, v *float64) (float64, error) {
	if v == nil {
		return 0, nil
	}
	if math.IsNaN(*v) || math.IsInf(*v, 0) || *v < 0 {
		return 0, fmt.Errorf("%w: %s %v", ErrInvalidRecord, name, *v)
	}
	return *v, nil
}
