package game

import (
	"math"
	"testing"

	"github.com/skyloft/kitedrift/internal/kitedrift"
)

const tolerance = 1e-12

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < tolerance
}

func TestMathHeadingRoundTrip(t *testing.T) {
	// Converting meteorological → mathematical → back recovers the bearing.
	for _, dir := range []float64{0, 45, 90, 135, 180, 225, 270, 315, 359.5} {
		heading := mathHeading(dir)
		back := math.Mod(math.Mod(270-heading, 360)+360, 360)
		if !almostEqual(back, math.Mod(dir, 360)) {
			t.Errorf("direction %v: heading %v round-trips to %v", dir, heading, back)
		}
	}
}

func TestMathHeadingKnownValues(t *testing.T) {
	tests := []struct {
		direction float64
		want      float64
	}{
		{270, 0},  // from the west: wind blows east
		{180, 90}, // from the south: wind blows north
		{90, 180}, // from the east: wind blows west
		{0, 270},  // from the north: wind blows south
	}
	for _, tt := range tests {
		if got := mathHeading(tt.direction); !almostEqual(got, tt.want) {
			t.Errorf("mathHeading(%v) = %v, want %v", tt.direction, got, tt.want)
		}
	}
}

func TestDisplaceFromWest(t *testing.T) {
	// 10 m/s from the west at low altitude: pure eastward drift at half
	// strength, 0.0001 * 10 * 0.5 degrees of longitude.
	sample := kitedrift.WindSample{Speed: 10, Direction: 270}
	dLat, dLon := displace(sample, kitedrift.AltitudeLow)

	if !almostEqual(dLat, 0) {
		t.Errorf("dLat = %v, want 0", dLat)
	}
	if !almostEqual(dLon, 0.0005) {
		t.Errorf("dLon = %v, want 0.0005", dLon)
	}
}

func TestDisplaceFromSouth(t *testing.T) {
	// Wind from the south blows north: pure positive-latitude drift.
	sample := kitedrift.WindSample{Speed: 10, Direction: 180}
	dLat, dLon := displace(sample, kitedrift.AltitudeMid)

	if !almostEqual(dLat, 0.001) {
		t.Errorf("dLat = %v, want 0.001", dLat)
	}
	if !almostEqual(dLon, 0) {
		t.Errorf("dLon = %v, want 0", dLon)
	}
}

func TestDisplaceAltitudeScaling(t *testing.T) {
	sample := kitedrift.WindSample{Speed: 4, Direction: 180}

	lowLat, _ := displace(sample, kitedrift.AltitudeLow)
	midLat, _ := displace(sample, kitedrift.AltitudeMid)
	highLat, _ := displace(sample, kitedrift.AltitudeHigh)

	if !almostEqual(lowLat*2, midLat) {
		t.Errorf("low %v should be half of mid %v", lowLat, midLat)
	}
	if !almostEqual(midLat*1.5, highLat) {
		t.Errorf("high %v should be 1.5x mid %v", highLat, midLat)
	}
}

func TestDistance(t *testing.T) {
	if got := distance(0, 0, 3, 4); !almostEqual(got, 5) {
		t.Errorf("distance = %v, want 5", got)
	}
	if got := distance(1.5, -2, 1.5, -2); !almostEqual(got, 0) {
		t.Errorf("distance = %v, want 0", got)
	}
}
