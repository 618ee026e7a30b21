package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config governs where results go. The analysis inputs themselves (log path,
// session start, reference point) are never read from config.
type Config struct {
	Report  ReportConfig  `yaml:"report"`
	Metrics MetricsConfig `yaml:"metrics"`
	Influx  InfluxConfig  `yaml:"influx"`
	MQTT    MQTTConfig    `yaml:"mqtt"`
	Redis   RedisConfig   `yaml:"redis"`
}

type ReportConfig struct {
	// OutDir defaults to the directory holding the log.
	OutDir        string `yaml:"out_dir"`
	SampleFixes   int    `yaml:"sample_fixes"`
	MaxLineErrors int    `yaml:"max_line_errors"`
	WriteSeries   *bool  `yaml:"write_series"`
}

type MetricsConfig struct {
	PushgatewayURL string `yaml:"pushgateway_url"`
	Job            string `yaml:"job"`
}

type InfluxConfig struct {
	Enable      bool   `yaml:"enable"`
	URL         string `yaml:"url"`
	Token       string `yaml:"token"`
	Org         string `yaml:"org"`
	Bucket      string `yaml:"bucket"`
	SessionDate string `yaml:"session_date"`
}

type MQTTConfig struct {
	Enable      bool   `yaml:"enable"`
	Broker      string `yaml:"broker"`
	ClientID    string `yaml:"client_id"`
	TopicPrefix string `yaml:"topic_prefix"`
}

type RedisConfig struct {
	Enable    bool          `yaml:"enable"`
	Addr      string        `yaml:"addr"`
	DB        int           `yaml:"db"`
	KeyPrefix string        `yaml:"key_prefix"`
	TTL       time.Duration `yaml:"ttl"`
}

const sessionDateLayout = "2006-01-02"

// Default is the configuration used when no file is given.
func Default() Config {
	cfg, err := finish(Config{})
	if err != nil {
		panic(err)
	}
	return cfg
}

func Load(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}

	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, decodeErr(err)
	}
	return finish(cfg)
}

func decodeErr(err error) error {
	var te *yaml.TypeError
	if !errors.As(err, &te) {
		return err
	}
	var unknown []string
	for _, msg := range te.Errors {
		if !strings.Contains(msg, " not found in type ") {
			return err
		}
		// Drop the "line N: " prefix.
		if i := strings.Index(msg, ": "); i >= 0 {
			msg = msg[i+2:]
		}
		unknown = append(unknown, msg)
	}
	return fmt.Errorf("config contains unknown fields: %s", strings.Join(unknown, "; "))
}

func finish(cfg Config) (Config, error) {
	if cfg.Report.SampleFixes < 0 {
		return Config{}, fmt.Errorf("report.sample_fixes must be >= 0")
	}
	if cfg.Report.SampleFixes == 0 {
		cfg.Report.SampleFixes = 20
	}
	if cfg.Report.MaxLineErrors < 0 {
		return Config{}, fmt.Errorf("report.max_line_errors must be >= 0")
	}
	if cfg.Report.MaxLineErrors == 0 {
		cfg.Report.MaxLineErrors = 10
	}
	if cfg.Report.WriteSeries == nil {
		v := true
		cfg.Report.WriteSeries = &v
	}

	if cfg.Metrics.Job == "" {
		cfg.Metrics.Job = "gnss_analysis"
	}

	if cfg.Influx.URL == "" {
		cfg.Influx.URL = "http://localhost:8086"
	}
	if cfg.Influx.SessionDate == "" {
		cfg.Influx.SessionDate = "1970-01-01"
	}
	if _, err := time.Parse(sessionDateLayout, cfg.Influx.SessionDate); err != nil {
		return Config{}, fmt.Errorf("influx.session_date must be YYYY-MM-DD")
	}
	if cfg.Influx.Enable {
		if cfg.Influx.Org == "" {
			return Config{}, fmt.Errorf("influx.org is required when influx.enable is true")
		}
		if cfg.Influx.Bucket == "" {
			return Config{}, fmt.Errorf("influx.bucket is required when influx.enable is true")
		}
	}

	if cfg.MQTT.Broker == "" {
		cfg.MQTT.Broker = "tcp://localhost:1883"
	}
	if cfg.MQTT.ClientID == "" {
		cfg.MQTT.ClientID = "gnss-analyzer"
	}
	cfg.MQTT.TopicPrefix = strings.Trim(cfg.MQTT.TopicPrefix, "/")
	if cfg.MQTT.TopicPrefix == "" {
		cfg.MQTT.TopicPrefix = "gnss/analysis"
	}
	if strings.ContainsAny(cfg.MQTT.TopicPrefix, "+#") {
		return Config{}, fmt.Errorf("mqtt.topic_prefix must not contain wildcards")
	}

	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = "localhost:6379"
	}
	if cfg.Redis.KeyPrefix == "" {
		cfg.Redis.KeyPrefix = "gnss:summary:"
	}
	if cfg.Redis.DB < 0 {
		return Config{}, fmt.Errorf("redis.db must be >= 0")
	}
	if cfg.Redis.TTL < 0 {
		return Config{}, fmt.Errorf("redis.ttl must be >= 0")
	}

	return cfg, nil
}

// SessionDateUTC is the UTC day that time-of-day stamps are anchored to when
// fixes are exported with absolute timestamps.
func (c InfluxConfig) SessionDateUTC() time.Time {
	t, err := time.Parse(sessionDateLayout, c.SessionDate)
	if err != nil {
		return time.Unix(0, 0).UTC()
	}
	return t.UTC()
}

func (c ReportConfig) SeriesEnabled() bool {
	return c.WriteSeries == nil || *c.WriteSeries
}
