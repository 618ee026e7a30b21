package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"text/tabwriter"
)

const na = "NA"

var csvHeader = []string{"log", "ttff_s", "cep50_m", "cep95_m", "rms_m", "total_fixes", "valid_fixes", "malformed_lines", "out_of_session"}

func optFloat(v *float64, prec int) string {
	if v == nil {
		return na
	}
	return strconv.FormatFloat(*v, 'f', prec, 64)
}

func optInt(v *int) string {
	if v == nil {
		return na
	}
	return strconv.Itoa(*v)
}

// WriteCSV writes the header and the single summary row.
func (r Report) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	s := r.Summary
	d := r.Diagnostics
	rows := [][]string{
		csvHeader,
		{
			r.Stem,
			optFloat(s.TTFF, 1),
			optFloat(s.CEP50, 3),
			optFloat(s.CEP95, 3),
			optFloat(s.RMS, 3),
			strconv.Itoa(s.TotalFixes),
			strconv.Itoa(s.ValidFixes),
			strconv.Itoa(d.Malformed),
			strconv.Itoa(d.OutOfSession),
		},
	}
	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}

// WriteText writes the human-readable report.
func (r Report) WriteText(w io.Writer) error {
	s := r.Summary
	d := r.Diagnostics
	opts := r.opts.withDefaults()

	bw := &errWriter{w: w}
	bw.printf("Log: %s\n", r.Stem)
	bw.printf("GNSS Start Time (UTC): %s\n", r.Start)
	if d.HeaderMismatch(r.Start) {
		bw.printf("Log Header Start (UTC): %s (differs; the start above was used)\n", *d.HeaderStart)
	}
	bw.printf("Reference (lat,lon): %.6f, %.6f\n", r.Reference.LatDeg, r.Reference.LonDeg)

	if s.FixAcquired() {
		bw.printf("First Fix Time (UTC): %s\n", *s.FirstFix)
		bw.printf("TTFF (s): %.1f\n", *s.TTFF)
	} else {
		bw.printf("First Fix Time (UTC): none\n")
		bw.printf("TTFF (s): unavailable (no fix acquired)\n")
	}
	bw.printf("Total Fixes: %d\n", s.TotalFixes)
	bw.printf("Valid Fixes: %d\n", s.ValidFixes)
	if s.FixAcquired() {
		bw.printf("CEP50: %.2f m\n", *s.CEP50)
		bw.printf("CEP95: %.2f m\n", *s.CEP95)
		bw.printf("RMS Error: %.2f m\n", *s.RMS)
		bw.printf("Error Range: %.2f .. %.2f m\n", *s.MinError, *s.MaxError)
		if r.CrossCheck != nil {
			bw.printf("Haversine Cross-Check: %.3f m max difference\n", *r.CrossCheck)
		}
	} else {
		bw.printf("No fixes acquired: CEP50, CEP95 and RMS are unavailable.\n")
	}

	bw.printf("\nLines: %d (ignored %d, malformed %d, out of session %d, orphaned GSA %d)\n",
		d.Lines, d.Ignored, d.Malformed, d.OutOfSession, d.Orphaned)
	if len(d.Errors) > 0 {
		n := min(len(d.Errors), opts.MaxLineErrors)
		bw.printf("Skipped Lines (first %d of %d):\n", n, len(d.Errors))
		for _, e := range d.Errors[:n] {
			bw.printf("  %v\n", &e)
		}
	}

	if len(r.Samples) > 0 {
		bw.printf("\nSample Fixes (Time | Lat | Lon | Sats | HDOP | Err(m)):\n")
		if bw.err == nil {
			tw := tabwriter.NewWriter(bw, 0, 0, 2, ' ', 0)
			fmt.Fprintf(tw, "Time\tLat\tLon\tSats\tHDOP\tErr(m)\n")
			for _, smp := range r.Samples {
				fmt.Fprintf(tw, "%s\t%.6f\t%.6f\t%s\t%s\t%.2f\n",
					smp.Time, smp.Position.LatDeg, smp.Position.LonDeg,
					optInt(smp.Satellites), optFloat(smp.HDOP, 2), smp.ErrorM)
			}
			if err := tw.Flush(); err != nil && bw.err == nil {
				bw.err = err
			}
		}
	}
	return bw.err
}

type seriesFile struct {
	Log string `json:"log"`
	PlotSeries
}

// WriteSeriesJSON writes the plot series for the plotting stage.
func (r Report) WriteSeriesJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(seriesFile{Log: r.Stem, PlotSeries: r.Plot})
}

// Paths lists the artifacts written by WriteFiles.
type Paths struct {
	Summary string
	Report  string
	Series  string
}

// WriteFiles writes <stem>_summary.csv, <stem>_report.txt and, when
// withSeries is set, <stem>_series.json into dir.
func (r Report) WriteFiles(dir string, withSeries bool) (Paths, error) {
	var p Paths
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return p, err
	}

	p.Summary = filepath.Join(dir, r.Stem+"_summary.csv")
	if err := writeFile(p.Summary, r.WriteCSV); err != nil {
		return p, err
	}
	p.Report = filepath.Join(dir, r.Stem+"_report.txt")
	if err := writeFile(p.Report, r.WriteText); err != nil {
		return p, err
	}
	if withSeries {
		p.Series = filepath.Join(dir, r.Stem+"_series.json")
		if err := writeFile(p.Series, r.WriteSeriesJSON); err != nil {
			return p, err
		}
	}
	return p, nil
}

func writeFile(path string, fn func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := fn(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("%s: %w", path, err)
	}
	return f.Close()
}

// errWriter keeps the first write error so formatting code stays linear.
type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) Write(p []byte) (int, error) {
	if e.err != nil {
		return 0, e.err
	}
	n, err := e.w.Write(p)
	if err != nil {
		e.err = err
	}
	return n, err
}

func (e *errWriter) printf(format string, args ...any) {
	if e.err != nil {
		return
	}
	_, _ = fmt.Fprintf(e, format, args...)
}
