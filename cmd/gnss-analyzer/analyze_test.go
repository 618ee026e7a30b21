package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gnss-analyzer/internal/analysis"
	"gnss-analyzer/internal/config"
	"gnss-analyzer/internal/geo"
	"gnss-analyzer/internal/gps"
	"gnss-analyzer/internal/sim"
)

func simulatedLog(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cold_start.nmea")
	_, err := sim.WriteFile(path, sim.Session{
		Start:     gps.TimeOfDay(12 * time.Hour),
		Reference: geo.Point{LatDeg: 37, LonDeg: -122},
		Acquire:   20 * time.Second,
		Duration:  time.Minute,
		Wander:    sim.Wander{RadiusM: 2},
	})
	if err != nil {
		t.Fatalf("sim.WriteFile: %v", err)
	}
	return path
}

func TestRunAnalyze_WritesArtifacts(t *testing.T) {
	logPath := simulatedLog(t)
	outDir := filepath.Join(t.TempDir(), "out")

	var stdout bytes.Buffer
	f := analyzeFlags{logPath: logPath, start: "120000", refLat: "37", refLon: "-122", outDir: outDir}
	if err := runAnalyze(context.Background(), config.Default(), f, &stdout); err != nil {
		t.Fatalf("runAnalyze() error: %v", err)
	}

	for _, name := range []string{"cold_start_summary.csv", "cold_start_report.txt", "cold_start_series.json"} {
		if _, err := os.Stat(filepath.Join(outDir, name)); err != nil {
			t.Fatalf("missing %s: %v", name, err)
		}
	}
	if !strings.Contains(stdout.String(), "TTFF (s): 20.0") {
		t.Fatalf("stdout missing TTFF: %q", stdout.String())
	}

	csv, err := os.ReadFile(filepath.Join(outDir, "cold_start_summary.csv"))
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	rows := strings.Split(strings.TrimSpace(string(csv)), "\n")
	if len(rows) != 2 || !strings.HasPrefix(rows[1], "cold_start,20.0,") {
		t.Fatalf("csv=%q", csv)
	}
}

func TestRunAnalyze_SeriesDisabled(t *testing.T) {
	logPath := simulatedLog(t)
	cfg := config.Default()
	off := false
	cfg.Report.WriteSeries = &off

	var stdout bytes.Buffer
	f := analyzeFlags{logPath: logPath, start: "120000", refLat: "37", refLon: "-122"}
	if err := runAnalyze(context.Background(), cfg, f, &stdout); err != nil {
		t.Fatalf("runAnalyze() error: %v", err)
	}
	dir := filepath.Dir(logPath)
	if _, err := os.Stat(filepath.Join(dir, "cold_start_report.txt")); err != nil {
		t.Fatalf("report should default to the log's directory: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "cold_start_series.json")); !os.IsNotExist(err) {
		t.Fatalf("series written although disabled: %v", err)
	}
}

func TestRunAnalyze_ParamErrors(t *testing.T) {
	f := analyzeFlags{logPath: "x.nmea", start: "25:00", refLat: "37", refLon: "-122"}
	err := runAnalyze(context.Background(), config.Default(), f, &bytes.Buffer{})
	var pe *analysis.ParamError
	if !errors.As(err, &pe) || pe.Name != "session start" {
		t.Fatalf("err=%v want session start ParamError", err)
	}
}

func TestRunAnalyze_SinkFailureDoesNotFail(t *testing.T) {
	logPath := simulatedLog(t)
	cfg := config.Default()
	cfg.Metrics.PushgatewayURL = "http://127.0.0.1:1"

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	f := analyzeFlags{logPath: logPath, start: "120000", refLat: "37", refLon: "-122", outDir: t.TempDir()}
	if err := runAnalyze(ctx, cfg, f, &bytes.Buffer{}); err != nil {
		t.Fatalf("runAnalyze() error: %v", err)
	}
}

func TestRootCmd_SimulateThenAnalyze(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "drive.nmea")

	root := newRootCmd()
	root.SetArgs([]string{"simulate", "--out", logPath, "--start", "235930", "--ref-lat", "-33.8568", "--ref-lon", "151.2153", "--acquire", "12s", "--duration", "90s"})
	if err := root.Execute(); err != nil {
		t.Fatalf("simulate: %v", err)
	}

	var out bytes.Buffer
	root = newRootCmd()
	root.SetOut(&out)
	root.SetArgs([]string{"analyze", "--log", logPath, "--start", "235930", "--ref-lat", "-33.8568", "--ref-lon", "151.2153", "--out", dir})
	if err := root.Execute(); err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if !strings.Contains(out.String(), "TTFF (s): 12.0") {
		t.Fatalf("output=%q", out.String())
	}
	if !strings.Contains(out.String(), "out of session 0") {
		t.Fatalf("rollover should keep fixes in session: %q", out.String())
	}
}

func TestRootCmd_AnalyzeRequiresFlags(t *testing.T) {
	root := newRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"analyze", "--log", "x.nmea"})
	if err := root.Execute(); err == nil {
		t.Fatalf("expected missing flag error")
	}
}
