package search

import (
	"context"
	"errors"
	"testing"
	"time"

	"ridepool/internal/modules/ride"
	"ridepool/internal/modules/vehicle"
	"ridepool/internal/types"
)

type fixture struct {
	rides   *ride.Service
	index   *MemoryIndex
	search  *Service
	vehicle *vehicle.Vehicle
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	vehicles := vehicle.NewService(vehicle.NewMemoryStore())
	v, err := vehicles.Register(ctx, vehicle.RegisterCommand{DriverID: "driver-1", Seats: 4, Mileage: 20})
	if err != nil {
		t.Fatalf("register vehicle: %v", err)
	}
	index := NewMemoryIndex()
	store := ride.NewMemoryStore()
	rides := ride.NewService(store, ride.Deps{Vehicles: vehicles, Index: index})
	return &fixture{
		rides:   rides,
		index:   index,
		search:  NewService(index, rides, 10, nil),
		vehicle: v,
	}
}

func (f *fixture) offer(t *testing.T, origin ride.Location, totalPeople int) *ride.Ride {
	t.Helper()
	distance := 12.0
	r, err := f.rides.Create(context.Background(), ride.CreateCommand{
		DriverID:    "driver-1",
		VehicleID:   f.vehicle.ID,
		Origin:      origin,
		Destination: ride.Location{Lat: 10.52, Lng: 76.21},
		DepartAt:    time.Now().Add(time.Hour),
		DistanceKm:  &distance,
		FuelPrice:   0,
		TotalPeople: totalPeople,
	})
	if err != nil {
		t.Fatalf("create ride: %v", err)
	}
	return r
}

func TestNearby_FiltersAndSorts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	near := f.offer(t, ride.Location{Lat: 10.851, Lng: 76.271}, 3)
	nearer := f.offer(t, ride.Location{Lat: 10.8501, Lng: 76.2701}, 3)
	far := f.offer(t, ride.Location{Lat: 12.97, Lng: 77.59}, 3)
	full := f.offer(t, ride.Location{Lat: 10.85, Lng: 76.27}, 2)

	res, err := f.rides.Join(ctx, ride.JoinCommand{
		RideID:       full.ID,
		PassengerID:  "p1",
		Verification: ride.VerificationVerified,
		Pickup:       "10.85,76.27",
		Dropoff:      "10.52,76.21",
	})
	if err != nil || !res.Allowed {
		t.Fatalf("join: %+v, %v", res, err)
	}

	got, err := f.search.Nearby(ctx, types.Point{Lat: 10.85, Lng: 76.27}, 0)
	if err != nil {
		t.Fatalf("nearby: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 results, got %d", len(got))
	}
	if got[0].Ride.ID != nearer.ID || got[1].Ride.ID != near.ID {
		t.Errorf("unexpected order: %s, %s", got[0].Ride.ID, got[1].Ride.ID)
	}
	for _, r := range got {
		if r.Ride.ID == far.ID || r.Ride.ID == full.ID {
			t.Errorf("ride %s should not be listed", r.Ride.ID)
		}
	}
}

func TestNearby_PrunesStaleEntries(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := types.Point{Lat: 10.85, Lng: 76.27}

	r := f.offer(t, ride.Location{Lat: 10.85, Lng: 76.27}, 3)
	_ = f.index.Add(ctx, "ghost", p)

	// Cancelling through the service drops the ride from the index; put it
	// back to simulate a missed update.
	if err := f.rides.Cancel(ctx, ride.CancelCommand{RideID: r.ID, DriverID: "driver-1"}); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	_ = f.index.Add(ctx, r.ID, p)

	got, err := f.search.Nearby(ctx, p, 1)
	if err != nil {
		t.Fatalf("nearby: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no results, got %d", len(got))
	}
	hits, _ := f.index.Within(ctx, p, 1, 0)
	if len(hits) != 0 {
		t.Errorf("expected stale entries pruned, %d left", len(hits))
	}
}

func TestNearby_RejectsBadInput(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.search.Nearby(ctx, types.Point{Lat: 10, Lng: 76}, -1); !errors.Is(err, ErrInvalidRadius) {
		t.Errorf("expected ErrInvalidRadius, got %v", err)
	}
	if _, err := f.search.Nearby(ctx, types.Point{Lat: 91, Lng: 0}, 1); !errors.Is(err, ride.ErrInvalidLocation) {
		t.Errorf("expected ErrInvalidLocation, got %v", err)
	}
}
