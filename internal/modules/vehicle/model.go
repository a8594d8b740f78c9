// README: Vehicle model.
package vehicle

import (
	"time"

	"ridepool/internal/types"
)

// Vehicle is a driver's car. Mileage is km per unit of fuel and feeds the
// fare computation of every ride offered with it. Seats counts the driver's
// seat and caps a ride's TotalPeople.
type Vehicle struct {
	ID        types.ID  `json:"id"`
	DriverID  types.ID  `json:"driver_id"`
	Model     string    `json:"model"`
	Plate     string    `json:"plate"`
	Seats     int       `json:"seats"`
	Mileage   float64   `json:"mileage"`
	CreatedAt time.Time `json:"created_at"`
}
