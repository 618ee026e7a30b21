package sink

import (
	"context"
	"fmt"
	"log"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"gnss-analyzer/internal/analysis"
	"gnss-analyzer/internal/config"
)

// fixPoints turns every series entry into a gnss_fix point. Logs carry only
// time of day, so day anchors them to a calendar date.
func fixPoints(r analysis.Result, day time.Time) []*write.Point {
	pts := make([]*write.Point, 0, len(r.Series.Entries))
	for _, e := range r.Series.Entries {
		ts := day.Add(time.Duration(e.Fix.Time))
		if e.Rolled {
			ts = ts.Add(24 * time.Hour)
		}
		p := influxdb2.NewPointWithMeasurement("gnss_fix").
			AddTag("log", r.Stem).
			AddTag("quality", e.Fix.Quality.String()).
			AddField("elapsed_s", e.ElapsedSeconds()).
			SetTime(ts)
		if e.Offset != nil {
			p.AddField("east_m", e.Offset.EastM).
				AddField("north_m", e.Offset.NorthM).
				AddField("error_m", e.Offset.Horizontal())
		}
		if e.Fix.HDOP != nil {
			p.AddField("hdop", *e.Fix.HDOP)
		}
		if e.Fix.Satellites != nil {
			p.AddField("satellites", *e.Fix.Satellites)
		}
		pts = append(pts, p)
	}
	return pts
}

func summaryPoint(s Summary, ts time.Time) *write.Point {
	p := influxdb2.NewPointWithMeasurement("gnss_summary").
		AddTag("log", s.Log).
		AddField("total_fixes", s.TotalFixes).
		AddField("valid_fixes", s.ValidFixes).
		AddField("malformed_lines", s.Malformed).
		AddField("out_of_session", s.OutOfSession).
		SetTime(ts)
	for k, v := range map[string]*float64{
		"ttff_s":  s.TTFFS,
		"cep50_m": s.CEP50M,
		"cep95_m": s.CEP95M,
		"rms_m":   s.RMSM,
	} {
		if v != nil {
			p.AddField(k, *v)
		}
	}
	return p
}

// WriteInflux writes the fix series and the summary in one blocking batch.
func WriteInflux(ctx context.Context, cfg config.InfluxConfig, r analysis.Result) error {
	day := cfg.SessionDateUTC()
	pts := fixPoints(r, day)
	pts = append(pts, summaryPoint(NewSummary(r), day.Add(time.Duration(r.Params.Start))))

	client := influxdb2.NewClient(cfg.URL, cfg.Token)
	defer client.Close()

	if err := client.WriteAPIBlocking(cfg.Org, cfg.Bucket).WritePoint(ctx, pts...); err != nil {
		return fmt.Errorf("influx write: %w", err)
	}
	log.Printf("influx: wrote %d points log=%s bucket=%s", len(pts), r.Stem, cfg.Bucket)
	return nil
}
