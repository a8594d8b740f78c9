// README: Ride read model with display fares and geocoded place names.
package ride

import (
	"context"
	"time"

	"ridepool/internal/modules/pricing"
	"ridepool/internal/types"
)

// View is the presentation shape of a ride. Amounts are rounded here and
// nowhere else.
type View struct {
	ID              types.ID            `json:"ride_id"`
	DriverID        types.ID            `json:"driver_id"`
	VehicleID       types.ID            `json:"vehicle_id"`
	Status          Status              `json:"status"`
	Origin          string              `json:"origin"`
	Destination     string              `json:"destination"`
	OriginName      string              `json:"origin_name,omitempty"`
	DestinationName string              `json:"destination_name,omitempty"`
	DepartAt        time.Time           `json:"depart_at"`
	Fare            pricing.DisplayFare `json:"fare"`
	Currency        string              `json:"currency"`
	AvailableSeats  int                 `json:"available_seats"`
	Passengers      []types.ID          `json:"passengers"`
}

func NewView(r *Ride) View {
	passengers := r.Passengers
	if passengers == nil {
		passengers = []types.ID{}
	}
	return View{
		ID:             r.ID,
		DriverID:       r.DriverID,
		VehicleID:      r.VehicleID,
		Status:         r.Status,
		Origin:         r.Origin.String(),
		Destination:    r.Destination.String(),
		DepartAt:       r.DepartAt,
		Fare:           r.Fare().Display(),
		Currency:       r.Currency,
		AvailableSeats: AvailableSeats(r),
		Passengers:     passengers,
	}
}

// Describe builds the view and, when a geocoder is configured, resolves
// display names for the endpoints. Geocoding failures leave the names empty.
func (s *Service) Describe(ctx context.Context, r *Ride) View {
	v := NewView(r)
	if s.geocoder == nil {
		return v
	}
	if name, err := s.geocoder.ReverseGeocode(ctx, r.Origin.Lat, r.Origin.Lng); err == nil {
		v.OriginName = name
	} else {
		s.log.Debug("reverse geocode origin", "ride_id", r.ID, "error", err)
	}
	if name, err := s.geocoder.ReverseGeocode(ctx, r.Destination.Lat, r.Destination.Lng); err == nil {
		v.DestinationName = name
	} else {
		s.log.Debug("reverse geocode destination", "ride_id", r.ID, "error", err)
	}
	return v
}
