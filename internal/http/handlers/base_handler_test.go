package handlers

import "testing"

func TestIsValidID(t *testing.T) {
	tests := []struct {
		id   string
		want bool
	}{
		{"3f0c1d2e-4b5a-4c6d-8e7f-9a0b1c2d3e4f", true},
		{"3F0C1D2E-4B5A-4C6D-8E7F-9A0B1C2D3E4F", true},
		{"3f0c1d2e4b5a4c6d8e7f9a0b1c2d3e4f", false},
		{"{3f0c1d2e-4b5a-4c6d-8e7f-9a0b1c2d3e4f}", false},
		{"urn:uuid:3f0c1d2e-4b5a-4c6d-8e7f-9a0b1c2d3e4f", false},
		{"3f0c1d2e-4b5a-4c6d-8e7f-9a0b1c2d3e4g", false},
		{"3f0c1d2e+4b5a-4c6d-8e7f-9a0b1c2d3e4f", false},
		{"", false},
	}
	for _, tc := range tests {
		if got := isValidID(tc.id); got != tc.want {
			t.Errorf("isValidID(%q) = %v, want %v", tc.id, got, tc.want)
		}
	}
}
