// Package series turns parsed log lines into an ordered, time-stamped fix
// series relative to a session start and a reference point.
package series

import (
	"errors"
	"fmt"
	"time"

	"gnss-analyzer/internal/capture"
	"gnss-analyzer/internal/geo"
	"gnss-analyzer/internal/gps"
)

// SessionWindow bounds how far after the session start a fix may lie.
//
// Sentences carry a time of day but no date. A stamp earlier than the start
// is first assumed to belong to the next day; if that puts it more than
// SessionWindow after the start it is taken to be a stamp from before the
// session and dropped.
const SessionWindow = 12 * time.Hour

var ErrOutOfSession = errors.New("timestamp outside session")

// LineError is a recoverable problem with one log line.
type LineError struct {
	Line int
	Text string
	Err  error
}

func (e *LineError) Error() string { return fmt.Sprintf("line %d: %v", e.Line, e.Err) }

func (e *LineError) Unwrap() error { return e.Err }

type Entry struct {
	Line    int
	Fix     gps.FixRecord
	Elapsed time.Duration
	// Rolled is set when the fix was stamped after midnight relative to the start.
	Rolled bool
	// Offset is nil for fixes that cannot take part in error statistics.
	Offset *geo.ENU
}

func (e Entry) ElapsedSeconds() float64 { return e.Elapsed.Seconds() }

func (e Entry) Valid() bool { return e.Offset != nil }

type Diagnostics struct {
	Lines        int
	Ignored      int
	Malformed    int
	OutOfSession int
	// Orphaned counts secondary sentences with no primary record to attach to.
	Orphaned int
	Headers  int
	// HeaderStart is the first "# START" marker found in the log, if any.
	HeaderStart *gps.TimeOfDay
	// Errors lists malformed and out-of-session lines in log order.
	Errors []LineError
}

// HeaderMismatch reports whether the log header disagrees with the start
// the series was built against.
func (d Diagnostics) HeaderMismatch(start gps.TimeOfDay) bool {
	return d.HeaderStart != nil && *d.HeaderStart != start
}

type Series struct {
	Start       gps.TimeOfDay
	Reference   geo.Point
	Entries     []Entry
	Diagnostics Diagnostics
}

type Builder struct {
	start gps.TimeOfDay
	conv  geo.Converter
	out   Series

	// last is the index of the entry secondary sentences attach to, or -1.
	last     int
	lastSats bool
}

func NewBuilder(start gps.TimeOfDay, ref geo.Point) *Builder {
	return &Builder{
		start: start,
		conv:  geo.NewConverter(ref),
		out:   Series{Start: start, Reference: ref},
		last:  -1,
	}
}

// Build parses every line and returns the resulting series.
func Build(lines []capture.Line, start gps.TimeOfDay, ref geo.Point) Series {
	b := NewBuilder(start, ref)
	for _, l := range lines {
		b.Add(l)
	}
	return b.Series()
}

func (b *Builder) Add(l capture.Line) {
	b.AddResult(l, gps.ParseLine(l.Text))
}

// AddResult consumes one already-parsed line.
func (b *Builder) AddResult(l capture.Line, r gps.Result) {
	d := &b.out.Diagnostics
	d.Lines++

	switch r.Kind {
	case gps.KindIgnored:
		d.Ignored++
	case gps.KindMalformed:
		d.Malformed++
		d.Errors = append(d.Errors, LineError{Line: l.Num, Text: l.Text, Err: r.Err})
		if r.Type != "" && r.Type != gps.TypeGSA {
			b.last = -1
		}
	case gps.KindHeader:
		d.Headers++
		if d.HeaderStart == nil {
			v := r.Start
			d.HeaderStart = &v
		}
	case gps.KindAux:
		b.addAux(r.Aux)
	case gps.KindFix:
		b.addFix(l, r.Fix)
	}
}

func (b *Builder) addFix(l capture.Line, fix gps.FixRecord) {
	elapsed, rolled, ok := b.elapsed(fix.Time)
	if !ok {
		d := &b.out.Diagnostics
		d.OutOfSession++
		err := fmt.Errorf("%w: %s is before session start %s", ErrOutOfSession, fix.Time, b.start)
		if !rolled {
			err = fmt.Errorf("%w: %s is outside the %s session window from %s", ErrOutOfSession, fix.Time, SessionWindow, b.start)
		}
		d.Errors = append(d.Errors, LineError{Line: l.Num, Text: l.Text, Err: err})
		b.last = -1
		return
	}

	e := Entry{Line: l.Num, Fix: fix, Elapsed: elapsed, Rolled: rolled}
	if fix.Valid() {
		off := b.conv.ToENU(geo.Point{LatDeg: fix.Position.LatDeg, LonDeg: fix.Position.LonDeg})
		e.Offset = &off
	}
	b.out.Entries = append(b.out.Entries, e)
	b.last = len(b.out.Entries) - 1
	b.lastSats = false
}

// addAux fills HDOP and satellite count the primary record lacks. Receivers
// emit one GSA per constellation, so satellite counts from several GSA
// sentences in the same epoch add up.
func (b *Builder) addAux(aux gps.AuxRecord) {
	if b.last < 0 {
		b.out.Diagnostics.Orphaned++
		return
	}
	fix := &b.out.Entries[b.last].Fix
	switch {
	case fix.Satellites == nil:
		n := aux.Satellites
		fix.Satellites = &n
		b.lastSats = true
	case b.lastSats:
		*fix.Satellites += aux.Satellites
	}
	if fix.HDOP == nil && aux.HDOP != nil {
		v := *aux.HDOP
		fix.HDOP = &v
	}
}

func (b *Builder) elapsed(tod gps.TimeOfDay) (time.Duration, bool, bool) {
	d := time.Duration(tod - b.start)
	rolled := false
	if d < 0 {
		d += time.Duration(gps.Day)
		rolled = true
	}
	if d > SessionWindow {
		return 0, rolled, false
	}
	return d, rolled, true
}

func (b *Builder) Series() Series {
	return b.out
}
