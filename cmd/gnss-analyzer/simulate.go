package main

import (
	"fmt"
	"log"
	"time"

	"github.com/spf13/cobra"

	"gnss-analyzer/internal/analysis"
	"gnss-analyzer/internal/sim"
)

func newSimulateCmd() *cobra.Command {
	var (
		out, start, refLat, refLon string
		acquire, duration, period  time.Duration
		radius                     float64
	)
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Write a synthetic cold-start log around a reference point",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			p, err := analysis.ParseParams(out, start, refLat, refLon)
			if err != nil {
				return err
			}
			if radius <= 0 {
				return fmt.Errorf("radius must be > 0")
			}
			s := sim.Session{
				Start:     p.Start,
				Reference: p.Reference,
				Acquire:   acquire,
				Duration:  duration,
				Wander:    sim.Wander{RadiusM: radius, Period: period},
			}
			n, err := sim.WriteFile(p.LogPath, s)
			if err != nil {
				return err
			}
			log.Printf("simulate wrote %d sentences path=%s ttff=%s", n, p.LogPath, acquire)
			return nil
		},
	}
	cmd.Flags().StringVar(&out, "out", "", "Output log path")
	cmd.Flags().StringVar(&start, "start", "", "Session start as UTC HHMMSS")
	cmd.Flags().StringVar(&refLat, "ref-lat", "", "Reference latitude, decimal degrees")
	cmd.Flags().StringVar(&refLon, "ref-lon", "", "Reference longitude, decimal degrees")
	cmd.Flags().DurationVar(&acquire, "acquire", 35*time.Second, "Time to first fix")
	cmd.Flags().DurationVar(&duration, "duration", 5*time.Minute, "Session length")
	cmd.Flags().DurationVar(&period, "period", 2*time.Minute, "Period of the error path")
	cmd.Flags().Float64Var(&radius, "radius", 3, "Maximum horizontal error in metres")
	for _, name := range []string{"out", "start", "ref-lat", "ref-lon"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}
