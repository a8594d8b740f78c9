// README: Ride offer aggregate, status definitions and transition table.
package ride

import (
	"time"

	"ridepool/internal/modules/pricing"
	"ridepool/internal/types"
)

type Status string

const (
	StatusNone      Status = "none"
	StatusPending   Status = "pending"
	StatusStarted   Status = "started"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
	StatusBlocked   Status = "blocked"
)

// Ride is a driver's offer of seats on one trip. TotalPeople counts the driver,
// so at most TotalPeople-1 passengers fit. Passengers, PickupPoints and
// DropoffPoints are parallel: index i of each belongs to the same passenger.
type Ride struct {
	ID          types.ID
	DriverID    types.ID
	VehicleID   types.ID
	Origin      Location
	Destination Location
	DepartAt    time.Time

	DistanceKm  float64
	FuelPrice   float64
	TotalPeople int

	Passengers    []types.ID
	PickupPoints  []Location
	DropoffPoints []Location

	Status  Status
	Version int

	// Fare snapshot taken at creation; joins do not recompute it.
	TotalFuelCost float64
	CostPerPerson float64
	Currency      string

	CreatedAt    time.Time
	UpdatedAt    time.Time
	StartedAt    *time.Time
	CompletedAt  *time.Time
	CancelledAt  *time.Time
	BlockedAt    *time.Time
	CancelReason *string
}

// Fare returns the cost figures stored on the ride.
func (r *Ride) Fare() pricing.Fare {
	return pricing.Fare{
		DistanceKm:    r.DistanceKm,
		TotalFuelCost: r.TotalFuelCost,
		CostPerPerson: r.CostPerPerson,
		TotalPeople:   r.TotalPeople,
	}
}

func (r *Ride) Clone() *Ride {
	cp := *r
	cp.Passengers = append([]types.ID(nil), r.Passengers...)
	cp.PickupPoints = append([]Location(nil), r.PickupPoints...)
	cp.DropoffPoints = append([]Location(nil), r.DropoffPoints...)
	return &cp
}

type EventKind string

const (
	EventCreated     EventKind = "created"
	EventJoined      EventKind = "joined"
	EventLeft        EventKind = "left"
	EventRescheduled EventKind = "rescheduled"
	EventStatus      EventKind = "status"
)

type Event struct {
	ID         int64
	RideID     types.ID
	Kind       EventKind
	FromStatus Status
	ToStatus   Status
	ActorType  string
	ActorID    *types.ID
	CreatedAt  time.Time
}

// AllowedTransitions represents the ride state flow as code.
var AllowedTransitions = map[Status][]Status{
	StatusPending: {StatusStarted, StatusCancelled, StatusBlocked},
	StatusStarted: {StatusCompleted},
}

func CanTransition(from, to Status) bool {
	next, ok := AllowedTransitions[from]
	if !ok {
		return false
	}
	for _, s := range next {
		if s == to {
			return true
		}
	}
	return false
}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusStarted, StatusCompleted, StatusCancelled, StatusBlocked:
		return true
	}
	return false
}

func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled || s == StatusBlocked
}
