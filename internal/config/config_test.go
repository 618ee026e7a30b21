package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeTempConfig(t *testing.T, contents string) string {
	t.Helper()
	tmp := t.TempDir()
	path := filepath.Join(tmp, "cfg.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("WriteFile() error: %v", err)
	}
	return path
}

func requireErrEq(t *testing.T, err error, want string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error %q, got nil", want)
	}
	if err.Error() != want {
		t.Fatalf("error=%q want %q", err.Error(), want)
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Report.SampleFixes != 20 || cfg.Report.MaxLineErrors != 10 {
		t.Fatalf("report defaults=%+v", cfg.Report)
	}
	if !cfg.Report.SeriesEnabled() {
		t.Fatalf("series output should default on")
	}
	if cfg.Metrics.Job != "gnss_analysis" || cfg.Metrics.PushgatewayURL != "" {
		t.Fatalf("metrics defaults=%+v", cfg.Metrics)
	}
	if cfg.Influx.Enable || cfg.MQTT.Enable || cfg.Redis.Enable {
		t.Fatalf("sinks must default off")
	}
	if got := cfg.Influx.SessionDateUTC(); !got.Equal(time.Unix(0, 0)) {
		t.Fatalf("session date=%s want epoch", got)
	}
}

func TestLoad_EmptyFileUsesDefaults(t *testing.T) {
	cfg, err := Load(writeTempConfig(t, ""))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Redis.Addr != "localhost:6379" || cfg.Redis.KeyPrefix != "gnss:summary:" {
		t.Fatalf("redis defaults=%+v", cfg.Redis)
	}
	if cfg.MQTT.Broker != "tcp://localhost:1883" || cfg.MQTT.TopicPrefix != "gnss/analysis" {
		t.Fatalf("mqtt defaults=%+v", cfg.MQTT)
	}
}

func TestLoad_ValuesKept(t *testing.T) {
	path := writeTempConfig(t, `report:
  out_dir: /tmp/out
  sample_fixes: 5
  write_series: false
influx:
  enable: true
  org: lab
  bucket: drives
  session_date: "2024-06-01"
mqtt:
  topic_prefix: /lab/gnss/
redis:
  enable: true
  ttl: 1h
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Report.OutDir != "/tmp/out" || cfg.Report.SampleFixes != 5 || cfg.Report.SeriesEnabled() {
		t.Fatalf("report=%+v", cfg.Report)
	}
	if cfg.Report.MaxLineErrors != 10 {
		t.Fatalf("max_line_errors=%d want default 10", cfg.Report.MaxLineErrors)
	}
	want := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	if got := cfg.Influx.SessionDateUTC(); !got.Equal(want) {
		t.Fatalf("session date=%s want %s", got, want)
	}
	if cfg.MQTT.TopicPrefix != "lab/gnss" {
		t.Fatalf("topic prefix=%q want lab/gnss", cfg.MQTT.TopicPrefix)
	}
	if cfg.Redis.TTL != time.Hour {
		t.Fatalf("ttl=%s want 1h", cfg.Redis.TTL)
	}
}

func TestLoad_Validation(t *testing.T) {
	cases := []struct {
		name string
		yaml string
		want string
	}{
		{"influx org", "influx:\n  enable: true\n  bucket: b\n", "influx.org is required when influx.enable is true"},
		{"influx bucket", "influx:\n  enable: true\n  org: o\n", "influx.bucket is required when influx.enable is true"},
		{"session date", "influx:\n  session_date: 01/06/2024\n", "influx.session_date must be YYYY-MM-DD"},
		{"sample fixes", "report:\n  sample_fixes: -1\n", "report.sample_fixes must be >= 0"},
		{"max line errors", "report:\n  max_line_errors: -2\n", "report.max_line_errors must be >= 0"},
		{"topic wildcard", "mqtt:\n  topic_prefix: gnss/#\n", "mqtt.topic_prefix must not contain wildcards"},
		{"redis db", "redis:\n  db: -1\n", "redis.db must be >= 0"},
		{"redis ttl", "redis:\n  ttl: -5s\n", "redis.ttl must be >= 0"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeTempConfig(t, tc.yaml))
			requireErrEq(t, err, tc.want)
		})
	}
}

func TestLoad_RejectsUnknownField(t *testing.T) {
	path := writeTempConfig(t, "report:\n  out: ./x\n")
	_, err := Load(path)
	requireErrEq(t, err, "config contains unknown fields: field out not found in type config.ReportConfig")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if !os.IsNotExist(err) {
		t.Fatalf("err=%v want not-exist", err)
	}
}
