// Package sim generates synthetic receiver logs for exercising the analyzer
// without hardware.
package sim

import (
	"fmt"
	"math"
	"strings"
	"time"

	"gnss-analyzer/internal/capture"
	"gnss-analyzer/internal/geo"
	"gnss-analyzer/internal/gps"
	"gnss-analyzer/internal/series"
)

// Session describes a static receiver cold start: no-fix epochs until
// Acquire, then fixes wandering around Reference.
type Session struct {
	Start     gps.TimeOfDay
	Reference geo.Point
	Acquire   time.Duration
	Duration  time.Duration
	Interval  time.Duration
	Wander    Wander
}

func (s Session) withDefaults() Session {
	if s.Duration <= 0 {
		s.Duration = 5 * time.Minute
	}
	if s.Interval <= 0 {
		s.Interval = time.Second
	}
	if s.Acquire < 0 {
		s.Acquire = 0
	}
	s.Wander = s.Wander.withDefaults()
	return s
}

func (s Session) Validate() error {
	if err := s.Reference.Validate(); err != nil {
		return fmt.Errorf("reference: %w", err)
	}
	if s.Start < 0 || s.Start >= gps.Day {
		return fmt.Errorf("start %s outside one day", s.Start)
	}
	if s.Duration > series.SessionWindow {
		return fmt.Errorf("duration %s longer than the session window %s", s.Duration, series.SessionWindow)
	}
	return nil
}

// Sentences returns the NMEA payloads (no '$' or checksum) for the whole
// session, in emission order.
func (s Session) Sentences() []string {
	s = s.withDefaults()
	conv := geo.NewConverter(s.Reference)

	var out []string
	epoch := 0
	for t := time.Duration(0); t <= s.Duration; t += s.Interval {
		tod := (s.Start + gps.TimeOfDay(t)) % gps.Day
		if t < s.Acquire {
			out = append(out, fmt.Sprintf("GPGGA,%s,,,,,0,00,,,,,,,", tod))
			continue
		}
		sats := 6 + epoch%5
		hdop := 0.8 + 0.1*float64(epoch%4)
		p := conv.FromENU(s.Wander.Offset(t - s.Acquire))
		lat, ns := nmeaLatLon(p.LatDeg, 2, "N", "S")
		lon, ew := nmeaLatLon(p.LonDeg, 3, "E", "W")
		out = append(out,
			fmt.Sprintf("GPGGA,%s,%s,%s,%s,%s,1,%02d,%.1f,10.0,M,,,,", tod, lat, ns, lon, ew, sats, hdop),
			gsa(sats, hdop),
		)
		epoch++
	}
	return out
}

func gsa(sats int, hdop float64) string {
	prns := make([]string, 12)
	for i := 0; i < sats && i < 12; i++ {
		prns[i] = fmt.Sprintf("%02d", i+1)
	}
	return fmt.Sprintf("GPGSA,A,3,%s,%.1f,%.1f,%.1f", strings.Join(prns, ","), hdop*1.6, hdop, hdop*1.3)
}

// nmeaLatLon formats decimal degrees as ddmm.mmmmmm (dddmm for longitude).
func nmeaLatLon(v float64, degDigits int, pos, neg string) (string, string) {
	hemi := pos
	if v < 0 {
		hemi = neg
		v = -v
	}
	deg := math.Floor(v)
	mins := math.Round((v-deg)*60*1e6) / 1e6
	if mins >= 60 {
		deg++
		mins = 0
	}
	return fmt.Sprintf("%0*d%09.6f", degDigits, int(deg), mins), hemi
}

// Write emits the session to w and returns the number of sentences written.
func (s Session) Write(w *capture.Writer) (int, error) {
	n := 0
	for _, payload := range s.Sentences() {
		if err := w.WriteSentence(payload); err != nil {
			return n, err
		}
		n++
	}
	return n, w.Flush()
}

// WriteFile writes a complete log, header included, to path.
func WriteFile(path string, s Session) (int, error) {
	if err := s.Validate(); err != nil {
		return 0, err
	}
	w, err := capture.CreateWriter(path, s.Start)
	if err != nil {
		return 0, err
	}
	n, err := s.Write(w)
	if cerr := w.Close(); err == nil {
		err = cerr
	}
	return n, err
}
