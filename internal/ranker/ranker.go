package ranker

import (
	"math"
	"sort"

	"go.uber.org/zap"

	"github.com/quotewell/placement-cli/internal/eligibility"
)

// minMeaningfulPremium is the floor below which a premium is not comparable.
const minMeaningfulPremium = 1.0

// Ranker orders carrier matches by composite score. It is stateless; Rank
// returns new records and never mutates its input.
type Ranker struct {
	weights Weights
}

// New creates a Ranker with the given weights.
func New(weights Weights) *Ranker {
	return &Ranker{weights: weights}
}

// Rank sorts carrier matches by composite score and populates
// CompositeScore, CompetitivenessRank, and PlacementProbability on copies of
// the input records.
//
// Procedure:
//  1. Normalize premiums so the lowest meaningful premium scores 100 and the
//     highest 0; carriers below the floor get a neutral 50.
//  2. Blend premium competitiveness, appetite, and coverage breadth.
//  3. Sort descending by composite score, tie-break ascending by name.
//  4. Assign 1-based ranks and derive placement probability from the final
//     rank, so probability depends on sort order rather than raw score.
func (r *Ranker) Rank(matches []CarrierMatch) []CarrierMatch {
	if len(matches) == 0 {
		return nil
	}

	var premiums []float64
	for _, m := range matches {
		if m.Premium != nil && m.Premium.FinalEstimated >= minMeaningfulPremium {
			premiums = append(premiums, m.Premium.FinalEstimated)
		}
	}
	minPremium, maxPremium, havePremiums := bounds(premiums)

	ranked := make([]CarrierMatch, len(matches))
	for i, m := range matches {
		finalEstimated := 0.0
		if m.Premium != nil {
			finalEstimated = m.Premium.FinalEstimated
		}
		premiumScore := normalizePremium(finalEstimated, minPremium, maxPremium, havePremiums)

		appetiteScore := 0.0
		if m.Appetite != nil {
			appetiteScore = m.Appetite.Score
		}
		coverageScore := scoreCoverageBreadth(len(m.CoverageHighlights))

		composite := r.weights.Premium*premiumScore +
			r.weights.Appetite*appetiteScore +
			r.weights.Coverage*coverageScore

		ranked[i] = m
		ranked[i].CompositeScore = round4(composite)
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].CompositeScore != ranked[j].CompositeScore {
			return ranked[i].CompositeScore > ranked[j].CompositeScore
		}
		return ranked[i].CarrierName < ranked[j].CarrierName
	})

	for i := range ranked {
		ranked[i].CompetitivenessRank = i + 1
		ranked[i].PlacementProbability = r.placementProbability(&ranked[i])
		zap.L().Debug("ranked carrier",
			zap.String("carrier", ranked[i].CarrierName),
			zap.Int("rank", ranked[i].CompetitivenessRank),
			zap.Float64("composite", ranked[i].CompositeScore),
			zap.Float64("placement_prob", ranked[i].PlacementProbability),
		)
	}
	return ranked
}

// placementProbability estimates the chance of successful placement. A hard
// eligibility failure is always 0; otherwise eligibility posture, appetite,
// and the assigned rank blend into a 0-1 heuristic.
func (r *Ranker) placementProbability(m *CarrierMatch) float64 {
	eligibilityWeight := 0.0
	if m.Eligibility != nil {
		switch m.Eligibility.Status {
		case eligibility.StatusPass:
			eligibilityWeight = 1.0
		case eligibility.StatusConditional:
			eligibilityWeight = 0.6
		}
	}
	if eligibilityWeight == 0.0 {
		return 0.0
	}

	appetiteWeight := 0.0
	if m.Appetite != nil {
		appetiteWeight = m.Appetite.Score / 100.0
	}

	rank := m.CompetitivenessRank
	if rank < 1 {
		rank = 1
	}
	competitivenessWeight := math.Min(1.0, 1.0/math.Sqrt(float64(rank)))

	probability := r.weights.Probability.Eligibility*eligibilityWeight +
		r.weights.Probability.Appetite*appetiteWeight +
		r.weights.Probability.Competitiveness*competitivenessWeight
	return round4(math.Min(1.0, math.Max(0.0, probability)))
}

// normalizePremium maps a premium to a 0-100 competitiveness score; lower
// premiums score higher.
func normalizePremium(premium, minPremium, maxPremium float64, havePremiums bool) float64 {
	if premium < minMeaningfulPremium || !havePremiums {
		return 50.0
	}
	if maxPremium == minPremium {
		return 100.0
	}
	score := 100.0 * (maxPremium - premium) / (maxPremium - minPremium)
	return round2(math.Max(0.0, math.Min(100.0, score)))
}

// scoreCoverageBreadth rewards broader coverage; saturates at 10 highlights.
func scoreCoverageBreadth(count int) float64 {
	return math.Min(100.0, float64(count)*10.0)
}

func bounds(values []float64) (lo, hi float64, ok bool) {
	if len(values) == 0 {
		return 0, 0, false
	}
	lo, hi = values[0], values[0]
	for _, v := range values[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi, true
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }

func round4(v float64) float64 { return math.Round(v*10000) / 10000 }
