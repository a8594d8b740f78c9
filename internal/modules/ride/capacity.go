// README: Seat accounting and passenger roster changes.
package ride

import (
	"errors"
	"fmt"

	"ridepool/internal/types"
)

var (
	ErrCapacityExceeded = errors.New("ride capacity exceeded")
	ErrNotPassenger     = errors.New("passenger not on ride")
)

// AvailableSeats is the number of passenger seats left. It never goes below
// zero, even for a roster that is already over capacity.
func AvailableSeats(r *Ride) int {
	n := r.TotalPeople - 1 - len(r.Passengers)
	if n < 0 {
		return 0
	}
	return n
}

func IsFull(r *Ride) bool {
	return AvailableSeats(r) == 0
}

// Overbooked returns how many passengers exceed the ride's capacity.
func Overbooked(r *Ride) int {
	n := len(r.Passengers) - (r.TotalPeople - 1)
	if n < 0 {
		return 0
	}
	return n
}

func HasPassenger(r *Ride, passengerID types.ID) bool {
	return passengerIndex(r, passengerID) >= 0
}

// CanAddPassenger is false for the ride's own driver, who already holds a seat.
func CanAddPassenger(r *Ride, passengerID types.ID) bool {
	return passengerID != r.DriverID && AvailableSeats(r) > 0 && !HasPassenger(r, passengerID)
}

// AddPassenger seats passengerID with their pickup and dropoff points.
// Callers must hold the ride lock across the check and the save.
func AddPassenger(r *Ride, passengerID types.ID, pickup, dropoff Location) error {
	if !CanAddPassenger(r, passengerID) {
		return fmt.Errorf("%w: ride %s, passenger %s", ErrCapacityExceeded, r.ID, passengerID)
	}
	r.Passengers = append(r.Passengers, passengerID)
	r.PickupPoints = append(r.PickupPoints, pickup)
	r.DropoffPoints = append(r.DropoffPoints, dropoff)
	return nil
}

// RemovePassenger drops passengerID and their points, keeping the order of the rest.
func RemovePassenger(r *Ride, passengerID types.ID) error {
	i := passengerIndex(r, passengerID)
	if i < 0 {
		return fmt.Errorf("%w: ride %s, passenger %s", ErrNotPassenger, r.ID, passengerID)
	}
	r.Passengers = append(r.Passengers[:i], r.Passengers[i+1:]...)
	r.PickupPoints = append(r.PickupPoints[:i], r.PickupPoints[i+1:]...)
	r.DropoffPoints = append(r.DropoffPoints[:i], r.DropoffPoints[i+1:]...)
	return nil
}

func passengerIndex(r *Ride, passengerID types.ID) int {
	for i, p := range r.Passengers {
		if p == passengerID {
			return i
		}
	}
	return -1
}
