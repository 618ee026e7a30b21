// Package sink publishes finished analyses to external systems. Every sink
// is optional and best effort; callers log failures and carry on.
package sink

import (
	"gnss-analyzer/internal/analysis"
)

// Summary is the published form of one run. Unavailable metrics are nil and
// encode as JSON null.
type Summary struct {
	Log          string   `json:"log"`
	SessionStart string   `json:"session_start"`
	RefLatDeg    float64  `json:"ref_lat_deg"`
	RefLonDeg    float64  `json:"ref_lon_deg"`
	FixAcquired  bool     `json:"fix_acquired"`
	TTFFS        *float64 `json:"ttff_s"`
	CEP50M       *float64 `json:"cep50_m"`
	CEP95M       *float64 `json:"cep95_m"`
	RMSM         *float64 `json:"rms_m"`
	TotalFixes   int      `json:"total_fixes"`
	ValidFixes   int      `json:"valid_fixes"`
	Malformed    int      `json:"malformed_lines"`
	OutOfSession int      `json:"out_of_session"`
}

func NewSummary(r analysis.Result) Summary {
	s := r.Summary()
	d := r.Series.Diagnostics
	return Summary{
		Log:          r.Stem,
		SessionStart: r.Params.Start.String(),
		RefLatDeg:    r.Params.Reference.LatDeg,
		RefLonDeg:    r.Params.Reference.LonDeg,
		FixAcquired:  s.FixAcquired(),
		TTFFS:        s.TTFF,
		CEP50M:       s.CEP50,
		CEP95M:       s.CEP95,
		RMSM:         s.RMS,
		TotalFixes:   s.TotalFixes,
		ValidFixes:   s.ValidFixes,
		Malformed:    d.Malformed,
		OutOfSession: d.OutOfSession,
	}
}
