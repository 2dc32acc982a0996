package geo

import (
	"math"
	"testing"
)

func TestDistanceKm(t *testing.T) {
	tests := []struct {
		name   string
		a, b   Point
		wantKm float64
		tolKm  float64
	}{
		{
			name:   "same point is zero",
			a:      Point{Lat: 12.9716, Lng: 77.5946},
			b:      Point{Lat: 12.9716, Lng: 77.5946},
			wantKm: 0,
			tolKm:  0.0001,
		},
		{
			name:   "bangalore mg road to koramangala",
			a:      Point{Lat: 12.9716, Lng: 77.5946},
			b:      Point{Lat: 12.9352, Lng: 77.6245},
			wantKm: 4.2,
			tolKm:  0.1,
		},
		{
			name:   "london to paris",
			a:      Point{Lat: 51.5074, Lng: -0.1278},
			b:      Point{Lat: 48.8566, Lng: 2.3522},
			wantKm: 343.5,
			tolKm:  1.0,
		},
		{
			name:   "across the equator",
			a:      Point{Lat: 1.0, Lng: 0},
			b:      Point{Lat: -1.0, Lng: 0},
			wantKm: 222.4,
			tolKm:  0.5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DistanceKm(tt.a, tt.b)
			if math.Abs(got-tt.wantKm) > tt.tolKm {
				t.Errorf("DistanceKm() = %v, want %v ±%v", got, tt.wantKm, tt.tolKm)
			}
		})
	}
}

func TestDistanceKmSymmetry(t *testing.T) {
	pairs := []struct{ a, b Point }{
		{Point{Lat: 12.9716, Lng: 77.5946}, Point{Lat: 12.9352, Lng: 77.6245}},
		{Point{Lat: 51.5074, Lng: -0.1278}, Point{Lat: 48.8566, Lng: 2.3522}},
		{Point{Lat: -33.8688, Lng: 151.2093}, Point{Lat: 35.6762, Lng: 139.6503}},
		{Point{Lat: 0, Lng: 179.9}, Point{Lat: 0, Lng: -179.9}},
	}

	for _, p := range pairs {
		ab := DistanceKm(p.a, p.b)
		ba := DistanceKm(p.b, p.a)
		if ab != ba {
			t.Errorf("DistanceKm not symmetric: %v vs %v for %+v", ab, ba, p)
		}
		if ab < 0 {
			t.Errorf("DistanceKm negative: %v for %+v", ab, p)
		}
	}
}
