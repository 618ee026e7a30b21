package gps

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Quality is the receiver-reported source of a position solution.
type Quality int

const (
	QualityNoFix Quality = iota
	QualityAutonomous
	QualityDifferential
	QualityOtherAugmented
)

func (q Quality) String() string {
	switch q {
	case QualityNoFix:
		return "no-fix"
	case QualityAutonomous:
		return "autonomous"
	case QualityDifferential:
		return "differential"
	default:
		return "other-augmented"
	}
}

// HasFix reports whether the receiver claims a position solution.
func (q Quality) HasFix() bool { return q != QualityNoFix }

// TimeOfDay is a UTC time of day as carried by NMEA sentences (no date).
type TimeOfDay time.Duration

const Day = TimeOfDay(24 * time.Hour)

// ParseTimeOfDay parses hhmmss or hhmmss.sss.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	s = strings.TrimSpace(s)
	hhmmss, frac, hasFrac := strings.Cut(s, ".")
	if len(hhmmss) != 6 || !isDigits(hhmmss) {
		return 0, fmt.Errorf("expected hhmmss[.ss], got %q", s)
	}
	if hasFrac && (frac == "" || len(frac) > 9 || !isDigits(frac)) {
		return 0, fmt.Errorf("bad fractional seconds in %q", s)
	}

	h, _ := strconv.Atoi(hhmmss[0:2])
	m, _ := strconv.Atoi(hhmmss[2:4])
	sec, _ := strconv.Atoi(hhmmss[4:6])
	if h > 23 || m > 59 || sec > 59 {
		return 0, fmt.Errorf("time of day out of range: %q", s)
	}

	var ns int
	if hasFrac {
		ns, _ = strconv.Atoi(frac + strings.Repeat("0", 9-len(frac)))
	}
	d := time.Duration(h)*time.Hour + time.Duration(m)*time.Minute + time.Duration(sec)*time.Second + time.Duration(ns)
	return TimeOfDay(d), nil
}

// Seconds since midnight.
func (t TimeOfDay) Seconds() float64 { return time.Duration(t).Seconds() }

// String formats as hhmmss, with trailing fractional seconds only when non-zero.
func (t TimeOfDay) String() string {
	d := time.Duration(t)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second
	ns := d - s*time.Second

	out := fmt.Sprintf("%02d%02d%02d", h, m, s)
	if ns != 0 {
		out += "." + strings.TrimRight(fmt.Sprintf("%09d", int64(ns)), "0")
	}
	return out
}

type Position struct {
	LatDeg float64 `json:"lat_deg"`
	LonDeg float64 `json:"lon_deg"`
}

// FixRecord is one decoded primary sentence.
//
// Position is nil when the sentence carried no coordinates (normal for
// no-fix epochs). HDOP and Satellites are nil when the field was empty.
type FixRecord struct {
	Sentence   string    `json:"sentence"`
	Time       TimeOfDay `json:"-"`
	Quality    Quality   `json:"-"`
	Position   *Position `json:"position,omitempty"`
	HDOP       *float64  `json:"hdop,omitempty"`
	Satellites *int      `json:"satellites,omitempty"`
}

// Valid reports whether the record can take part in error statistics.
func (r FixRecord) Valid() bool {
	return r.Quality.HasFix() && r.Position != nil
}

// AuxRecord is one decoded secondary sentence. It has no timestamp of its
// own and belongs to the preceding primary record.
type AuxRecord struct {
	HDOP       *float64
	Satellites int
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
