// README: Fuel cost-sharing fare computation for ride offers.
package pricing

import (
	"errors"
	"fmt"
	"math"
)

var ErrInvalidInput = errors.New("invalid fare input")

// Fare is the cost split of one ride. Values keep full precision; round only
// for display or at the payment boundary.
type Fare struct {
	DistanceKm    float64
	FuelNeeded    float64
	TotalFuelCost float64
	CostPerPerson float64
	TotalPeople   int
}

// ComputeFare splits the fuel cost of a trip evenly between the driver and
// passengerCount passengers.
func ComputeFare(distanceKm, mileageKmPerUnit, fuelPricePerUnit float64, passengerCount int) (Fare, error) {
	if err := checkNonNegative("distance", distanceKm); err != nil {
		return Fare{}, err
	}
	if err := checkNonNegative("fuel price", fuelPricePerUnit); err != nil {
		return Fare{}, err
	}
	if !isFinite(mileageKmPerUnit) || mileageKmPerUnit <= 0 {
		return Fare{}, fmt.Errorf("%w: mileage must be > 0, got %v", ErrInvalidInput, mileageKmPerUnit)
	}
	if passengerCount < 0 {
		return Fare{}, fmt.Errorf("%w: passenger count must be >= 0, got %d", ErrInvalidInput, passengerCount)
	}

	fuelNeeded := distanceKm / mileageKmPerUnit
	total := fuelNeeded * fuelPricePerUnit
	people := passengerCount + 1
	perPerson := total / float64(people)
	if !isFinite(total) || !isFinite(perPerson) {
		return Fare{}, fmt.Errorf("%w: fare overflows", ErrInvalidInput)
	}

	return Fare{
		DistanceKm:    distanceKm,
		FuelNeeded:    fuelNeeded,
		TotalFuelCost: total,
		CostPerPerson: perPerson,
		TotalPeople:   people,
	}, nil
}

func checkNonNegative(name string, v float64) error {
	if !isFinite(v) {
		return fmt.Errorf("%w: %s must be finite", ErrInvalidInput, name)
	}
	if v < 0 {
		return fmt.Errorf("%w: %s must be >= 0, got %v", ErrInvalidInput, name, v)
	}
	return nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
