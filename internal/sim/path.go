package sim

import (
	"math"
	"time"

	"gnss-analyzer/internal/geo"
)

// Wander is a deterministic position error around a surveyed point.
type Wander struct {
	RadiusM float64
	Period  time.Duration
}

func (w Wander) withDefaults() Wander {
	if w.RadiusM <= 0 {
		w.RadiusM = 3
	}
	if w.Period <= 0 {
		w.Period = 120 * time.Second
	}
	return w
}

// Offset returns the error at elapsed time t.
//
// The path is a figure-eight (Lissajous) curve:
//
//	east  = cos(2πt)
//	north = 0.5*sin(4πt)
//
// so the horizontal error never exceeds RadiusM.
func (w Wander) Offset(t time.Duration) geo.ENU {
	w = w.withDefaults()
	phase := float64(t%w.Period) / float64(w.Period)
	a := 2 * math.Pi * phase
	return geo.ENU{
		EastM:  w.RadiusM * math.Cos(a),
		NorthM: w.RadiusM * 0.5 * math.Sin(2*a),
	}
}
