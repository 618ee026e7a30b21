package sink

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"gnss-analyzer/internal/analysis"
	"gnss-analyzer/internal/capture"
	"gnss-analyzer/internal/geo"
	"gnss-analyzer/internal/gps"
)

func nmeaLine(payload string) string {
	ck := byte(0)
	for i := 0; i < len(payload); i++ {
		ck ^= payload[i]
	}
	return fmt.Sprintf("$%s*%02X", payload, ck)
}

func analyze(t *testing.T, start string, texts ...string) analysis.Result {
	t.Helper()
	tod, err := gps.ParseTimeOfDay(start)
	if err != nil {
		t.Fatalf("ParseTimeOfDay: %v", err)
	}
	lines := make([]capture.Line, 0, len(texts))
	for i, s := range texts {
		lines = append(lines, capture.Line{Num: i + 1, Text: s})
	}
	p := analysis.Params{
		LogPath:   "/data/drive_07.nmea",
		Start:     tod,
		Reference: geo.Point{LatDeg: 37, LonDeg: -122},
	}
	return analysis.Analyze(lines, p)
}

func fields(p *write.Point) map[string]any {
	out := map[string]any{}
	for _, f := range p.FieldList() {
		out[f.Key] = f.Value
	}
	return out
}

func tags(p *write.Point) map[string]string {
	out := map[string]string{}
	for _, tg := range p.TagList() {
		out[tg.Key] = tg.Value
	}
	return out
}

func TestNewSummary_NoFixEncodesNull(t *testing.T) {
	r := analyze(t, "120000", nmeaLine("GPGGA,120001,,,,,0,00,,,,,,,"))
	s := NewSummary(r)
	if s.Log != "drive_07" || s.SessionStart != "120000" {
		t.Fatalf("summary=%+v", s)
	}
	b, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	for _, k := range []string{"ttff_s", "cep50_m", "cep95_m", "rms_m"} {
		v, ok := m[k]
		if !ok || v != nil {
			t.Fatalf("%s=%v want null", k, v)
		}
	}
	if m["fix_acquired"] != false || m["total_fixes"] != 1.0 {
		t.Fatalf("payload=%s", b)
	}
}

func TestSummaryTopic(t *testing.T) {
	if got := SummaryTopic("gnss/analysis", "drive_07"); got != "gnss/analysis/drive_07/summary" {
		t.Fatalf("topic=%q", got)
	}
	if got := SummaryTopic("/lab/", "x"); got != "lab/x/summary" {
		t.Fatalf("topic=%q", got)
	}
}

func TestSummaryFields(t *testing.T) {
	r := analyze(t, "120000",
		nmeaLine("GPGGA,120001,,,,,0,00,,,,,,,"),
		nmeaLine("GPGGA,120004,3700.000,N,12200.000,W,1,06,1.2,,,,,,"),
	)
	f := summaryFields(NewSummary(r))
	want := map[string]any{
		"ttff_s":      "4.000",
		"cep50_m":     "0.000",
		"total_fixes": "2",
		"valid_fixes": "1",
		"ref_lon_deg": "-122.000000",
	}
	for k, v := range want {
		if f[k] != v {
			t.Fatalf("%s=%v want %v", k, f[k], v)
		}
	}
	if got := redisKey("gnss:summary:", "drive_07"); got != "gnss:summary:drive_07" {
		t.Fatalf("key=%q", got)
	}

	f = summaryFields(NewSummary(analyze(t, "120000", nmeaLine("GPGGA,120001,,,,,0,00,,,,,,,"))))
	if f["rms_m"] != "NA" || f["fix_acquired"] != "false" {
		t.Fatalf("no-fix fields=%v", f)
	}
}

func TestFixPoints(t *testing.T) {
	r := analyze(t, "235950",
		nmeaLine("GPGGA,235955,,,,,0,00,,,,,,,"),
		nmeaLine("GPGGA,000010,3700.000,N,12200.000,W,2,09,0.8,,,,,,"),
	)
	day := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	pts := fixPoints(r, day)
	if len(pts) != 2 {
		t.Fatalf("points=%d want 2", len(pts))
	}

	first := pts[0]
	if first.Name() != "gnss_fix" {
		t.Fatalf("measurement=%q", first.Name())
	}
	if want := day.Add(23*time.Hour + 59*time.Minute + 55*time.Second); !first.Time().Equal(want) {
		t.Fatalf("time=%s want %s", first.Time(), want)
	}
	if tg := tags(first); tg["log"] != "drive_07" || tg["quality"] != "no-fix" {
		t.Fatalf("tags=%v", tg)
	}
	if _, ok := fields(first)["error_m"]; ok {
		t.Fatalf("no-fix point must not carry error_m")
	}

	second := pts[1]
	if want := day.Add(24*time.Hour + 10*time.Second); !second.Time().Equal(want) {
		t.Fatalf("rolled time=%s want %s", second.Time(), want)
	}
	f := fields(second)
	if f["elapsed_s"] != 20.0 || f["error_m"] != 0.0 || f["hdop"] != 0.8 {
		t.Fatalf("fields=%v", f)
	}
	if tags(second)["quality"] != "differential" {
		t.Fatalf("quality tag=%v", tags(second))
	}
}

func TestSummaryPoint(t *testing.T) {
	r := analyze(t, "120000", nmeaLine("GPGGA,120001,,,,,0,00,,,,,,,"))
	ts := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	p := summaryPoint(NewSummary(r), ts)
	f := fields(p)
	if _, ok := f["cep50_m"]; ok {
		t.Fatalf("unavailable metric must be omitted: %v", f)
	}
	if f["total_fixes"] != int64(1) {
		t.Fatalf("total_fixes=%v (%T)", f["total_fixes"], f["total_fixes"])
	}
	if !p.Time().Equal(ts) || p.Name() != "gnss_summary" {
		t.Fatalf("point=%s %s", p.Name(), p.Time())
	}
}
