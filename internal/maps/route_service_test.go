package maps

import (
	"testing"

	"ridepool/internal/types"
)

func TestLatLng(t *testing.T) {
	cases := []struct {
		in   types.Point
		want string
	}{
		{types.Point{Lat: 10.85, Lng: 76.27}, "10.85,76.27"},
		{types.Point{Lat: -33.5, Lng: 0}, "-33.5,0"},
	}
	for _, c := range cases {
		if got := latLng(c.in); got != c.want {
			t.Errorf("latLng(%v) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestNewRouteService_RequiresKey(t *testing.T) {
	if _, err := NewRouteService(""); err == nil {
		t.Fatal("expected error for empty api key")
	}
}
