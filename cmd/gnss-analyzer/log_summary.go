package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"gnss-analyzer/internal/capture"
	"gnss-analyzer/internal/gps"
)

type logSummary struct {
	Lines       int
	Malformed   int
	Ignored     int
	Headers     int
	HeaderStart *gps.TimeOfDay
	FirstTime   *gps.TimeOfDay
	LastTime    *gps.TimeOfDay
	Fixes       int
	TypeCounts  map[string]int
}

// summarizeNMEALog counts sentence types without a session start or
// reference, so it works on any log.
func summarizeNMEALog(lines []capture.Line) logSummary {
	s := logSummary{TypeCounts: map[string]int{}}
	for _, l := range lines {
		s.Lines++
		r := gps.ParseLine(l.Text)
		if r.Type != "" {
			s.TypeCounts[r.Type]++
		}
		switch r.Kind {
		case gps.KindMalformed:
			s.Malformed++
		case gps.KindIgnored:
			s.Ignored++
		case gps.KindHeader:
			s.Headers++
			if s.HeaderStart == nil {
				v := r.Start
				s.HeaderStart = &v
			}
		case gps.KindFix:
			if r.Fix.Quality.HasFix() {
				s.Fixes++
			}
			tod := r.Fix.Time
			if s.FirstTime == nil {
				s.FirstTime = &tod
			}
			s.LastTime = &tod
		}
	}
	return s
}

func printLogSummary(path string) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return fmt.Errorf("path is empty")
	}

	lines, err := capture.ReadFile(path)
	if err != nil {
		return err
	}

	s := summarizeNMEALog(lines)

	fmt.Printf("path: %s\n", path)
	fmt.Printf("lines: %d\n", s.Lines)
	fmt.Printf("malformed: %d\n", s.Malformed)
	fmt.Printf("ignored: %d\n", s.Ignored)
	if s.HeaderStart != nil {
		fmt.Printf("header_start: %s\n", *s.HeaderStart)
	} else {
		fmt.Printf("header_start: none\n")
	}
	if s.FirstTime != nil {
		fmt.Printf("first_time: %s\n", *s.FirstTime)
		fmt.Printf("last_time: %s\n", *s.LastTime)
	}
	fmt.Printf("fixes_with_position_claim: %d\n", s.Fixes)

	keys := make([]string, 0, len(s.TypeCounts))
	for k := range s.TypeCounts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	fmt.Printf("sentence_counts:\n")
	for _, k := range keys {
		fmt.Printf("  %s: %d\n", k, s.TypeCounts[k])
	}
	return nil
}

func newSummaryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "summary PATH",
		Short: "Print sentence counts and the header of an NMEA log",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return printLogSummary(args[0])
		},
	}
}
