// Package analysis runs one accuracy analysis: a log file, a session start
// and a reference point in; a fix series, metrics and a report out.
//
// It holds no state between runs and reads no configuration; everything it
// needs is passed in Params.
package analysis

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"gnss-analyzer/internal/accuracy"
	"gnss-analyzer/internal/capture"
	"gnss-analyzer/internal/geo"
	"gnss-analyzer/internal/gps"
	"gnss-analyzer/internal/report"
	"gnss-analyzer/internal/series"
)

type Params struct {
	LogPath   string
	Start     gps.TimeOfDay
	Reference geo.Point
}

// ParamError is a fatal problem with a required input.
type ParamError struct {
	Name  string
	Value string
	Err   error
}

func (e *ParamError) Error() string {
	return fmt.Sprintf("invalid %s %q: %v", e.Name, e.Value, e.Err)
}

func (e *ParamError) Unwrap() error { return e.Err }

var errRequired = errors.New("value is required")

// ParseParams validates the four raw inputs as a caller collects them.
func ParseParams(logPath, start, refLat, refLon string) (Params, error) {
	var p Params

	p.LogPath = strings.TrimSpace(logPath)
	if p.LogPath == "" {
		return Params{}, &ParamError{Name: "log path", Value: logPath, Err: errRequired}
	}

	start = strings.TrimSpace(start)
	if len(start) != 6 {
		return Params{}, &ParamError{Name: "session start", Value: start, Err: errors.New("expected HHMMSS")}
	}
	tod, err := gps.ParseTimeOfDay(start)
	if err != nil {
		return Params{}, &ParamError{Name: "session start", Value: start, Err: err}
	}
	p.Start = tod

	lat, err := parseDegrees(refLat)
	if err != nil {
		return Params{}, &ParamError{Name: "reference latitude", Value: refLat, Err: err}
	}
	lon, err := parseDegrees(refLon)
	if err != nil {
		return Params{}, &ParamError{Name: "reference longitude", Value: refLon, Err: err}
	}
	p.Reference = geo.Point{LatDeg: lat, LonDeg: lon}
	if err := p.Validate(); err != nil {
		return Params{}, err
	}
	return p, nil
}

func parseDegrees(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, errRequired
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, errors.New("not a number")
	}
	return v, nil
}

// Validate checks Params built without ParseParams.
func (p Params) Validate() error {
	if strings.TrimSpace(p.LogPath) == "" {
		return &ParamError{Name: "log path", Value: p.LogPath, Err: errRequired}
	}
	if p.Start < 0 || p.Start >= gps.Day {
		return &ParamError{Name: "session start", Value: p.Start.String(), Err: errors.New("outside one day")}
	}
	if err := p.Reference.Validate(); err != nil {
		v := fmt.Sprintf("%v,%v", p.Reference.LatDeg, p.Reference.LonDeg)
		return &ParamError{Name: "reference point", Value: v, Err: err}
	}
	return nil
}

type Result struct {
	Params  Params
	Stem    string
	Series  series.Series
	Metrics accuracy.Result
}

// Run reads the log and analyses it. Parameter and file errors are fatal and
// returned before anything is computed; problems with individual lines are
// counted in the series diagnostics instead.
func Run(p Params) (Result, error) {
	if err := p.Validate(); err != nil {
		return Result{}, err
	}
	lines, err := capture.ReadFile(p.LogPath)
	if err != nil {
		return Result{}, fmt.Errorf("read log: %w", err)
	}
	return Analyze(lines, p), nil
}

// Analyze runs the analysis over lines already in memory.
func Analyze(lines []capture.Line, p Params) Result {
	s := series.Build(lines, p.Start, p.Reference)
	return Result{
		Params:  p,
		Stem:    report.Stem(p.LogPath),
		Series:  s,
		Metrics: accuracy.Compute(s),
	}
}

func (r Result) Summary() accuracy.Summary { return r.Metrics.Summary }

func (r Result) Report(opts report.Options) report.Report {
	return report.Assemble(r.Stem, r.Series, r.Metrics, opts)
}
