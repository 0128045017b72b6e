// Package appetite synthesizes a 0-100 appetite score for a
// carrier/state/line combination from rate filing recency, rate-change
// direction, class-code fit, territory alignment, and recent market signals.
package appetite

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/quotewell/placement-cli/internal/model"
	"github.com/quotewell/placement-cli/internal/store"
)

// Component names used as keys in Result.Components.
const (
	ComponentRecency       = "recency_score"
	ComponentRateDirection = "rate_direction_score"
	ComponentClassFit      = "class_fit_score"
	ComponentTerritory     = "territory_score"
	ComponentSignal        = "signal_score"
)

// Weights holds each component's maximum contribution; they sum to 100.
var Weights = map[string]float64{
	ComponentRecency:       20.0,
	ComponentRateDirection: 20.0,
	ComponentClassFit:      30.0,
	ComponentTerritory:     15.0,
	ComponentSignal:        15.0,
}

var positiveSignals = map[model.SignalType]bool{
	model.SignalRateDecrease:       true,
	model.SignalNewFiling:          true,
	model.SignalExpandedClasses:    true,
	model.SignalTerritoryExpansion: true,
	model.SignalNewEndorsement:     true,
	model.SignalNewStateEntry:      true,
}

var negativeSignals = map[model.SignalType]bool{
	model.SignalRateIncrease:         true,
	model.SignalContractedClasses:    true,
	model.SignalTerritoryContraction: true,
	model.SignalFilingWithdrawal:     true,
	model.SignalMarketExit:           true,
}

// Result is the appetite scoring output for one carrier/state/line.
type Result struct {
	Score         float64                `json:"score"`
	Components    map[string]float64     `json:"components"`
	RecentSignals []model.AppetiteSignal `json:"recent_signals"`
	Notes         []string               `json:"notes"`
}

// Scorer computes appetite scores against stored carrier profiles.
type Scorer struct {
	store        store.Store
	lookbackDays int
}

// NewScorer creates a Scorer with the given signal look-back window; a
// non-positive value uses the default.
func NewScorer(st store.Store, lookbackDays int) *Scorer {
	if lookbackDays <= 0 {
		lookbackDays = store.DefaultSignalLookbackDays
	}
	return &Scorer{store: st, lookbackDays: lookbackDays}
}

// ScoreAppetite computes a 0-100 appetite score for the
// carrier/state/line/risk combination. When no profile exists it returns a
// conservative fixed score rather than failing.
func (s *Scorer) ScoreAppetite(ctx context.Context, carrierID uuid.UUID, state, line string, risk *model.RiskProfile) (*Result, error) {
	profile, err := s.store.LoadAppetiteProfile(ctx, carrierID, state, line)
	if err != nil {
		return nil, eris.Wrap(err, "appetite: load profile")
	}
	signals, err := s.GetRecentSignals(ctx, carrierID, state, line)
	if err != nil {
		return nil, eris.Wrap(err, "appetite: load signals")
	}

	if profile == nil {
		zap.L().Warn("no appetite profile found",
			zap.String("carrier_id", carrierID.String()),
			zap.String("state", state),
			zap.String("line", line),
		)
		components := make(map[string]float64, len(Weights))
		for k := range Weights {
			components[k] = 5.0
		}
		return &Result{
			Score:         25.0,
			Components:    components,
			RecentSignals: signals,
			Notes:         []string{"No appetite profile found; using conservative defaults."},
		}, nil
	}

	var notes []string
	components := make(map[string]float64, len(Weights))

	recency := scoreRecency(profile)
	components[ComponentRecency] = recency
	if recency < 10 {
		notes = append(notes, "Rate filings are stale (> 2 years old); appetite confidence reduced.")
	}

	components[ComponentRateDirection] = scoreRateDirection(profile)
	if profile.LastRateChangePct != nil {
		pct := *profile.LastRateChangePct
		direction, posture := "increase", "restriction"
		if pct < 0 {
			direction, posture = "decrease", "volume-seeking"
		}
		notes = append(notes, fmt.Sprintf("Last rate change was %+.1f%% (%s); signals %s.",
			pct, direction, posture))
	}

	classFit := scoreClassFit(profile, risk.ClassCode)
	components[ComponentClassFit] = classFit
	switch {
	case classFit >= 25:
		notes = append(notes, "Risk class code is in carrier's preferred classes.")
	case classFit >= 15:
		notes = append(notes, "Risk class code is in carrier's eligible classes.")
	default:
		notes = append(notes, "Risk class code not found in preferred/eligible classes.")
	}

	components[ComponentTerritory] = scoreTerritory(profile, state)

	components[ComponentSignal] = scoreSignals(signals)
	if len(signals) > 0 {
		notes = append(notes, fmt.Sprintf("%d appetite signal(s) in the past %d days detected.",
			len(signals), s.lookbackDays))
	}

	// Each component is already scaled to its weight, so the composite is
	// a straight sum capped at 100.
	composite := 0.0
	for _, v := range components {
		composite += v
	}
	composite = clamp(composite, 0, 100)

	// Blend 70% computed with 30% of the stored 1-10 rating.
	stored := profile.AppetiteRating
	if stored == 0 {
		stored = 5.0
	}
	finalScore := round2(0.70*composite + 0.30*(stored/10.0*100.0))

	zap.L().Info("appetite score computed",
		zap.String("carrier_id", carrierID.String()),
		zap.String("state", state),
		zap.String("line", line),
		zap.Float64("score", finalScore),
	)

	return &Result{
		Score:         finalScore,
		Components:    components,
		RecentSignals: signals,
		Notes:         notes,
	}, nil
}

// GetRecentSignals returns the raw signal rows for the look-back window. It
// is a separate public read consumed directly by the API layer.
func (s *Scorer) GetRecentSignals(ctx context.Context, carrierID uuid.UUID, state, line string) ([]model.AppetiteSignal, error) {
	signals, err := s.store.LoadRecentSignals(ctx, carrierID, state, line, s.lookbackDays)
	if err != nil {
		return nil, eris.Wrap(err, "appetite: load recent signals")
	}
	return signals, nil
}

// scoreRecency scores filing recency (0-20). More recent filings indicate an
// active, engaged carrier.
func scoreRecency(profile *model.AppetiteProfile) float64 {
	if profile.LastRateChangeDate == nil {
		return 5.0
	}
	daysSince := int(time.Since(*profile.LastRateChangeDate).Hours() / 24)

	switch {
	case daysSince <= 90:
		return 20.0
	case daysSince <= 180:
		return 17.0
	case daysSince <= 365:
		return 13.0
	case daysSince <= 730:
		return 8.0
	default:
		return 3.0
	}
}

// scoreRateDirection scores the last rate change (0-20). Decreases signal a
// volume-seeking carrier, increases a restricting one.
func scoreRateDirection(profile *model.AppetiteProfile) float64 {
	if profile.LastRateChangePct == nil {
		return 10.0
	}
	pct := *profile.LastRateChangePct

	switch {
	case pct <= -5.0:
		return 20.0
	case pct <= -2.0:
		return 17.0
	case pct < 0.0:
		return 14.0
	case pct == 0.0:
		return 10.0
	case pct <= 3.0:
		return 7.0
	case pct <= 7.0:
		return 4.0
	default:
		return 1.0
	}
}

// scoreClassFit scores class-code alignment (0-30) using the same
// prefix-or-exact matching as the eligibility filter.
func scoreClassFit(profile *model.AppetiteProfile, classCode string) float64 {
	classCode = strings.TrimSpace(classCode)
	if classCode == "" {
		return 10.0
	}
	if classMatches(classCode, profile.IneligibleClasses) {
		return 0.0
	}
	if classMatches(classCode, profile.PreferredClasses) {
		return 30.0
	}
	if classMatches(classCode, profile.EligibleClasses) {
		return 18.0
	}
	return 5.0
}

// scoreTerritory scores territory alignment (0-15) from the profile's
// per-state preference map.
func scoreTerritory(profile *model.AppetiteProfile, state string) float64 {
	prefs := profile.TerritoryPreferences
	if len(prefs) == 0 {
		return 10.0
	}
	if pref, ok := prefs[state]; ok && pref != nil {
		// 0-10 preference scaled to 0-15.
		return clamp(*pref*1.5, 0, 15)
	}
	return 8.0
}

// scoreSignals scores recent appetite signals (0-15). The net of positive
// minus negative strengths is normalized by the maximum possible magnitude
// and mapped onto a range centered at 8.
func scoreSignals(signals []model.AppetiteSignal) float64 {
	if len(signals) == 0 {
		return 8.0
	}

	net := 0.0
	for _, sig := range signals {
		strength := sig.Strength
		if strength == 0 {
			strength = 5.0
		}
		switch {
		case positiveSignals[sig.Type]:
			net += strength
		case negativeSignals[sig.Type]:
			net -= strength
		}
	}

	maxNet := float64(len(signals)) * 10.0
	ratio := net / maxNet
	return clamp(8.0+ratio*7.0, 0, 15)
}

func classMatches(code string, list []string) bool {
	for _, entry := range list {
		entry = strings.TrimSpace(entry)
		if code == entry || strings.HasPrefix(code, entry) || strings.HasPrefix(entry, code) {
			return true
		}
	}
	return false
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, v))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
