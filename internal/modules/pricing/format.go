// README: Fare display formatting and minor-unit conversion.
package pricing

import (
	"math"
	"strconv"
)

// DisplayFare holds the two-decimal strings shown to riders.
type DisplayFare struct {
	DistanceKm    string `json:"distance_km"`
	TotalFuelCost string `json:"total_fuel_cost"`
	CostPerPerson string `json:"cost_per_person"`
	TotalPeople   int    `json:"total_people"`
}

func (f Fare) Display() DisplayFare {
	return DisplayFare{
		DistanceKm:    FormatAmount(f.DistanceKm),
		TotalFuelCost: FormatAmount(f.TotalFuelCost),
		CostPerPerson: FormatAmount(f.CostPerPerson),
		TotalPeople:   f.TotalPeople,
	}
}

func FormatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// MinorUnits converts an amount to the currency's minor unit for charging.
// The result is for the gateway only and must not be stored back on the ride.
func MinorUnits(v float64) int64 {
	return int64(math.Round(v * 100))
}
