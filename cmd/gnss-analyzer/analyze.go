package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"path/filepath"

	"github.com/spf13/cobra"

	"gnss-analyzer/internal/analysis"
	"gnss-analyzer/internal/config"
	"gnss-analyzer/internal/observability"
	"gnss-analyzer/internal/report"
	"gnss-analyzer/internal/sink"
)

type analyzeFlags struct {
	logPath string
	start   string
	refLat  string
	refLon  string
	outDir  string
}

func newAnalyzeCmd() *cobra.Command {
	var f analyzeFlags
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Analyse one NMEA log against a reference point",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return fmt.Errorf("config load failed: %w", err)
			}
			return runAnalyze(cmd.Context(), cfg, f, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&f.logPath, "log", "", "NMEA log file")
	cmd.Flags().StringVar(&f.start, "start", "", "Session start as UTC HHMMSS")
	cmd.Flags().StringVar(&f.refLat, "ref-lat", "", "Reference latitude, decimal degrees")
	cmd.Flags().StringVar(&f.refLon, "ref-lon", "", "Reference longitude, decimal degrees")
	cmd.Flags().StringVar(&f.outDir, "out", "", "Output directory (default: report.out_dir, then the log's directory)")
	for _, name := range []string{"log", "start", "ref-lat", "ref-lon"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

func runAnalyze(ctx context.Context, cfg config.Config, f analyzeFlags, stdout io.Writer) error {
	p, err := analysis.ParseParams(f.logPath, f.start, f.refLat, f.refLon)
	if err != nil {
		return err
	}
	res, err := analysis.Run(p)
	if err != nil {
		return err
	}

	sum := res.Summary()
	d := res.Series.Diagnostics
	log.Printf("analysis done log=%s fixes=%d valid=%d malformed=%d out_of_session=%d",
		res.Stem, sum.TotalFixes, sum.ValidFixes, d.Malformed, d.OutOfSession)
	if d.HeaderMismatch(p.Start) {
		log.Printf("header start %s differs from session start %s, using %s", *d.HeaderStart, p.Start, p.Start)
	}

	rep := res.Report(report.Options{
		SampleFixes:   cfg.Report.SampleFixes,
		MaxLineErrors: cfg.Report.MaxLineErrors,
	})
	outDir := f.outDir
	if outDir == "" {
		outDir = cfg.Report.OutDir
	}
	if outDir == "" {
		outDir = filepath.Dir(p.LogPath)
	}
	paths, err := rep.WriteFiles(outDir, cfg.Report.SeriesEnabled())
	if err != nil {
		return err
	}
	log.Printf("wrote summary=%s report=%s", paths.Summary, paths.Report)
	if paths.Series != "" {
		log.Printf("wrote series=%s", paths.Series)
	}

	if err := rep.WriteText(stdout); err != nil {
		return err
	}

	publish(ctx, cfg, res)
	return nil
}

// publish sends results to every configured external system. Failures are
// logged and never fail the run.
func publish(ctx context.Context, cfg config.Config, res analysis.Result) {
	m := observability.New()
	m.Observe(res.Series, res.Metrics)
	if cfg.Metrics.PushgatewayURL != "" {
		if err := m.Push(ctx, cfg.Metrics.PushgatewayURL, cfg.Metrics.Job, res.Stem); err != nil {
			log.Printf("metrics push failed: %v", err)
		} else {
			log.Printf("metrics pushed url=%s job=%s", cfg.Metrics.PushgatewayURL, cfg.Metrics.Job)
		}
	}

	s := sink.NewSummary(res)
	if cfg.Influx.Enable {
		if err := sink.WriteInflux(ctx, cfg.Influx, res); err != nil {
			log.Printf("influx sink failed: %v", err)
		}
	}
	if cfg.MQTT.Enable {
		if err := sink.PublishMQTT(cfg.MQTT, s); err != nil {
			log.Printf("mqtt sink failed: %v", err)
		}
	}
	if cfg.Redis.Enable {
		if err := sink.WriteRedis(ctx, cfg.Redis, s); err != nil {
			log.Printf("redis sink failed: %v", err)
		}
	}
}
