package regime

import (
	"fmt"
	"math"
	"time"

	"github.com/pennantlabs/tradegate/internal/observ"
)

// Regime is a discrete risk classification with a total order:
// normal < moderate_risk < high_risk. Evaluation only ever escalates.
type Regime string

const (
	Normal       Regime = "normal"
	ModerateRisk Regime = "moderate_risk"
	HighRisk     Regime = "high_risk"
)

func (r Regime) rank() int {
	switch r {
	case HighRisk:
		return 2
	case ModerateRisk:
		return 1
	default:
		return 0
	}
}

func maxRegime(a, b Regime) Regime {
	if b.rank() > a.rank() {
		return b
	}
	return a
}

// GateAction is the policy-level trade gate derived from the regime.
type GateAction string

const (
	GateOpen  GateAction = "OPEN"
	GateClose GateAction = "CLOSE"
)

// Snapshot is a point-in-time reading of market stress indicators. It is
// produced by the market data layer and never mutated here.
type Snapshot struct {
	AsOf           time.Time `json:"as_of"`
	VIX            float64   `json:"vix"`
	VIXPercentile  float64   `json:"vix_percentile"`
	FuturesGapPct  float64   `json:"futures_gap_pct"`
	RealizedVol    float64   `json:"realized_vol"`
	BreadthRiskOff float64   `json:"breadth_risk_off"`
}

// Controls are the per-regime risk parameters applied downstream.
type Controls struct {
	RiskScale    float64 `yaml:"risk_scale"`
	MaxPositions int     `yaml:"max_positions"` // 0 = no override
}

// PolicyConfig names the escalation thresholds and per-regime controls.
// Static configuration, supplied by the caller or defaulted.
type PolicyConfig struct {
	Version        string   `yaml:"version"`
	VIXModerate    float64  `yaml:"vix_moderate"`
	VIXHigh        float64  `yaml:"vix_high"`
	GapModerate    float64  `yaml:"gap_moderate"`
	GapHigh        float64  `yaml:"gap_high"`
	BreadthRiskOff float64  `yaml:"breadth_risk_off"`
	Normal         Controls `yaml:"normal"`
	Moderate       Controls `yaml:"moderate_risk"`
	High           Controls `yaml:"high_risk"`
}

// DefaultPolicy returns the production thresholds: VIX 18/25, absolute
// futures gap 0.8%/1.5%, breadth risk-off score -0.5.
func DefaultPolicy() PolicyConfig {
	return PolicyConfig{
		Version:        "v1",
		VIXModerate:    18,
		VIXHigh:        25,
		GapModerate:    0.8,
		GapHigh:        1.5,
		BreadthRiskOff: -0.5,
		Normal:         Controls{RiskScale: 1.0},
		Moderate:       Controls{RiskScale: 0.5, MaxPositions: 3},
		High:           Controls{RiskScale: 0.0},
	}
}

// Decision is the evaluated policy output. Derived, never mutated after
// creation.
type Decision struct {
	PolicyVersion        string     `json:"policy_version"`
	AsOf                 time.Time  `json:"as_of"`
	Regime               Regime     `json:"regime"`
	TradeGate            GateAction `json:"trade_gate"`
	RiskScale            float64    `json:"risk_scale"`
	MaxPositionsOverride int        `json:"max_positions_override,omitempty"`
	Notes                []string   `json:"notes"`
}

// Evaluate derives a regime from three independent threshold checks. Each
// check can escalate the regime but never de-escalate it; breadth alone caps
// at moderate_risk. Pure function of (snapshot, config).
func Evaluate(snap Snapshot, cfg PolicyConfig) Decision {
	regime := Normal
	notes := []string{}

	switch {
	case snap.VIX >= cfg.VIXHigh:
		regime = maxRegime(regime, HighRisk)
		notes = append(notes, fmt.Sprintf("VIX %.1f at or above high threshold %.1f", snap.VIX, cfg.VIXHigh))
	case snap.VIX >= cfg.VIXModerate:
		regime = maxRegime(regime, ModerateRisk)
		notes = append(notes, fmt.Sprintf("VIX %.1f at or above moderate threshold %.1f", snap.VIX, cfg.VIXModerate))
	}

	gap := math.Abs(snap.FuturesGapPct)
	switch {
	case gap >= cfg.GapHigh:
		regime = maxRegime(regime, HighRisk)
		notes = append(notes, fmt.Sprintf("futures gap %.2f%% at or above high threshold %.2f%%", gap, cfg.GapHigh))
	case gap >= cfg.GapModerate:
		regime = maxRegime(regime, ModerateRisk)
		notes = append(notes, fmt.Sprintf("futures gap %.2f%% at or above moderate threshold %.2f%%", gap, cfg.GapModerate))
	}

	// Breadth confirmation escalates at most one step: it can push normal to
	// moderate_risk but never directly to high_risk.
	if snap.BreadthRiskOff <= cfg.BreadthRiskOff {
		regime = maxRegime(regime, ModerateRisk)
		notes = append(notes, fmt.Sprintf("breadth risk-off score %.2f at or below %.2f", snap.BreadthRiskOff, cfg.BreadthRiskOff))
	}

	controls := cfg.Normal
	action := GateOpen
	switch regime {
	case ModerateRisk:
		controls = cfg.Moderate
	case HighRisk:
		controls = cfg.High
		action = GateClose
	}

	observ.IncCounter("market_context_evaluations_total", map[string]string{"regime": string(regime)})

	return Decision{
		PolicyVersion:        cfg.Version,
		AsOf:                 snap.AsOf,
		Regime:               regime,
		TradeGate:            action,
		RiskScale:            controls.RiskScale,
		MaxPositionsOverride: controls.MaxPositions,
		Notes:                notes,
	}
}
