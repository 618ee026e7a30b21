// Package report packages analysis results into the artifacts handed to
// people and to the plotting stage: a one-row CSV summary, a plaintext
// report and the plot series as JSON.
package report

import (
	"path/filepath"
	"strings"

	"golang.org/x/exp/slices"

	"gnss-analyzer/internal/accuracy"
	"gnss-analyzer/internal/geo"
	"gnss-analyzer/internal/gps"
	"gnss-analyzer/internal/series"
)

const (
	DefaultSampleFixes   = 20
	DefaultMaxLineErrors = 10
)

type Options struct {
	// SampleFixes bounds the fixes listed in the plaintext report.
	SampleFixes int
	// MaxLineErrors bounds the skipped lines listed in the plaintext report.
	MaxLineErrors int
}

func (o Options) withDefaults() Options {
	if o.SampleFixes <= 0 {
		o.SampleFixes = DefaultSampleFixes
	}
	if o.MaxLineErrors <= 0 {
		o.MaxLineErrors = DefaultMaxLineErrors
	}
	return o
}

type Sample struct {
	Line       int           `json:"line"`
	Time       gps.TimeOfDay `json:"-"`
	Position   gps.Position  `json:"position"`
	ErrorM     float64       `json:"error_m"`
	HDOP       *float64      `json:"hdop"`
	Satellites *int          `json:"satellites"`
}

type Report struct {
	Stem        string
	Start       gps.TimeOfDay
	Reference   geo.Point
	Summary     accuracy.Summary
	Diagnostics series.Diagnostics
	CrossCheck  *float64
	Samples     []Sample
	Plot        PlotSeries

	opts Options
}

// Stem is the log's base name without extension.
func Stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Assemble gathers everything the writers need. It does not recompute any
// statistic.
func Assemble(stem string, s series.Series, res accuracy.Result, opts Options) Report {
	opts = opts.withDefaults()
	r := Report{
		Stem:        stem,
		Start:       s.Start,
		Reference:   s.Reference,
		Summary:     res.Summary,
		Diagnostics: s.Diagnostics,
		CrossCheck:  res.CrossCheck,
		Plot:        BuildPlotSeries(s, res),
		opts:        opts,
	}
	for _, e := range s.Entries {
		if len(r.Samples) == opts.SampleFixes {
			break
		}
		if !e.Valid() {
			continue
		}
		r.Samples = append(r.Samples, Sample{
			Line:       e.Line,
			Time:       e.Fix.Time,
			Position:   *e.Fix.Position,
			ErrorM:     e.Offset.Horizontal(),
			HDOP:       e.Fix.HDOP,
			Satellites: e.Fix.Satellites,
		})
	}
	return r
}

type EastNorth struct {
	EastM  float64 `json:"east_m"`
	NorthM float64 `json:"north_m"`
}

type HDOPError struct {
	HDOP   float64 `json:"hdop"`
	ErrorM float64 `json:"error_m"`
}

type SatellitesAt struct {
	ElapsedS   float64 `json:"elapsed_s"`
	Satellites int     `json:"satellites"`
}

// PlotSeries is the data contract with the plotting stage: four
// materialised series plus the CEP markers.
type PlotSeries struct {
	SortedErrors []float64      `json:"sorted_errors_m"`
	EastNorth    []EastNorth    `json:"east_north"`
	HDOPError    []HDOPError    `json:"hdop_error"`
	Satellites   []SatellitesAt `json:"satellites_vs_time"`
	CEP50        *float64       `json:"cep50_m"`
	CEP95        *float64       `json:"cep95_m"`
}

func BuildPlotSeries(s series.Series, res accuracy.Result) PlotSeries {
	p := PlotSeries{
		SortedErrors: slices.Clone(res.Sorted),
		EastNorth:    []EastNorth{},
		HDOPError:    []HDOPError{},
		Satellites:   []SatellitesAt{},
		CEP50:        res.Summary.CEP50,
		CEP95:        res.Summary.CEP95,
	}
	if p.SortedErrors == nil {
		p.SortedErrors = []float64{}
	}
	for _, e := range s.Entries {
		// Satellite counts are tracked for every epoch, fix or not.
		if e.Fix.Satellites != nil {
			p.Satellites = append(p.Satellites, SatellitesAt{ElapsedS: e.ElapsedSeconds(), Satellites: *e.Fix.Satellites})
		}
		if !e.Valid() {
			continue
		}
		p.EastNorth = append(p.EastNorth, EastNorth{EastM: e.Offset.EastM, NorthM: e.Offset.NorthM})
		if e.Fix.HDOP != nil {
			p.HDOPError = append(p.HDOPError, HDOPError{HDOP: *e.Fix.HDOP, ErrorM: e.Offset.Horizontal()})
		}
	}
	return p
}
