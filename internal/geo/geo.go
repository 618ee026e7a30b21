// Package geo maps geodetic fixes onto a local east/north plane around a
// surveyed reference point.
//
// The plane is an equirectangular approximation on a sphere of radius
// EarthRadiusM. It is valid for short baselines (a few kilometres), which is
// what a static accuracy test produces. Haversine is provided to cross-check
// the approximation.
package geo

import (
	"fmt"
	"math"
)

// EarthRadiusM is the mean Earth radius used for both the local plane and
// the great-circle distance.
const EarthRadiusM = 6371000.0

const degToRad = math.Pi / 180.0

type Point struct {
	LatDeg float64 `json:"lat_deg"`
	LonDeg float64 `json:"lon_deg"`
}

func (p Point) Validate() error {
	if math.IsNaN(p.LatDeg) || p.LatDeg < -90 || p.LatDeg > 90 {
		return fmt.Errorf("latitude %v outside [-90, 90]", p.LatDeg)
	}
	if math.IsNaN(p.LonDeg) || p.LonDeg < -180 || p.LonDeg > 180 {
		return fmt.Errorf("longitude %v outside [-180, 180]", p.LonDeg)
	}
	return nil
}

// ENU is an offset from the reference point in metres. Up is not tracked.
type ENU struct {
	EastM  float64 `json:"east_m"`
	NorthM float64 `json:"north_m"`
}

// Horizontal is the radial error sqrt(east² + north²).
func (e ENU) Horizontal() float64 { return math.Hypot(e.EastM, e.NorthM) }

// Converter is bound to one reference point for its whole life.
type Converter struct {
	ref        Point
	mPerDegLat float64
	mPerDegLon float64
}

func NewConverter(ref Point) Converter {
	mPerDegLat := degToRad * EarthRadiusM
	return Converter{
		ref:        ref,
		mPerDegLat: mPerDegLat,
		mPerDegLon: mPerDegLat * math.Cos(ref.LatDeg*degToRad),
	}
}

func (c Converter) Reference() Point { return c.ref }

// ToENU returns the east/north offset of p from the reference.
func (c Converter) ToENU(p Point) ENU {
	return ENU{
		EastM:  (p.LonDeg - c.ref.LonDeg) * c.mPerDegLon,
		NorthM: (p.LatDeg - c.ref.LatDeg) * c.mPerDegLat,
	}
}

// FromENU is the inverse of ToENU.
func (c Converter) FromENU(e ENU) Point {
	return Point{
		LatDeg: c.ref.LatDeg + e.NorthM/c.mPerDegLat,
		LonDeg: c.ref.LonDeg + e.EastM/c.mPerDegLon,
	}
}

// Haversine returns the great-circle distance between a and b in metres.
func Haversine(a, b Point) float64 {
	p1 := a.LatDeg * degToRad
	p2 := b.LatDeg * degToRad
	dp := (b.LatDeg - a.LatDeg) * degToRad
	dl := (b.LonDeg - a.LonDeg) * degToRad

	h := math.Sin(dp/2)*math.Sin(dp/2) + math.Cos(p1)*math.Cos(p2)*math.Sin(dl/2)*math.Sin(dl/2)
	return 2 * EarthRadiusM * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}
