// Package matching orchestrates the carrier-risk matching pipeline:
// eligibility, appetite, and premium evaluation fanned out per carrier, then
// a single global ranking pass.
package matching

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/quotewell/placement-cli/internal/appetite"
	"github.com/quotewell/placement-cli/internal/eligibility"
	"github.com/quotewell/placement-cli/internal/model"
	"github.com/quotewell/placement-cli/internal/premium"
	"github.com/quotewell/placement-cli/internal/ranker"
	"github.com/quotewell/placement-cli/internal/store"
)

const (
	defaultMaxConcurrency = 10
	defaultCarrierTimeout = 30 * time.Second
)

// Options tunes the matching engine.
type Options struct {
	// SignalLookbackDays is the appetite-signal window; zero uses the
	// store default.
	SignalLookbackDays int
	// MaxConcurrency bounds concurrent carrier evaluations per line.
	MaxConcurrency int
	// CarrierTimeout bounds one carrier's full evaluation.
	CarrierTimeout time.Duration
	// Weights configures the ranking blend; the zero value uses defaults.
	Weights *ranker.Weights
}

// Engine coordinates the three evaluation stages across all carriers with
// active appetite profiles for the requested state and lines, then delegates
// to the ranker for a sorted, scored result set.
type Engine struct {
	store          store.Store
	filter         *eligibility.Filter
	scorer         *appetite.Scorer
	estimator      *premium.Estimator
	ranker         *ranker.Ranker
	maxConcurrency int
	carrierTimeout time.Duration
}

// NewEngine creates an Engine with all pipeline components sharing the given
// store.
func NewEngine(st store.Store, opts Options) *Engine {
	maxConcurrency := opts.MaxConcurrency
	if maxConcurrency <= 0 {
		maxConcurrency = defaultMaxConcurrency
	}
	carrierTimeout := opts.CarrierTimeout
	if carrierTimeout <= 0 {
		carrierTimeout = defaultCarrierTimeout
	}
	weights := ranker.DefaultWeights()
	if opts.Weights != nil {
		weights = *opts.Weights
	}

	return &Engine{
		store:          st,
		filter:         eligibility.NewFilter(st),
		scorer:         appetite.NewScorer(st, opts.SignalLookbackDays),
		estimator:      premium.NewEstimator(st),
		ranker:         ranker.New(weights),
		maxConcurrency: maxConcurrency,
		carrierTimeout: carrierTimeout,
	}
}

// Match runs the full matching pipeline for a risk profile. Per requested
// line it discovers active carriers and evaluates each concurrently; hard
// eligibility failures are dropped, and the survivors across all lines are
// ranked together so cross-line competitiveness is comparable.
//
// A carrier whose evaluation errors is logged and excluded; nothing short of
// an invalid risk profile fails the whole call.
func (e *Engine) Match(ctx context.Context, risk *model.RiskProfile, state string, lines []string) ([]ranker.CarrierMatch, error) {
	if err := risk.Validate(); err != nil {
		return nil, eris.Wrap(err, "matching: invalid risk profile")
	}

	var pooled []ranker.CarrierMatch
	for _, line := range lines {
		zap.L().Info("matching line", zap.String("state", state), zap.String("line", line))

		carriers, err := e.store.FindActiveCarriers(ctx, state, line)
		if err != nil {
			return nil, eris.Wrapf(err, "matching: discover carriers for %s/%s", state, line)
		}
		zap.L().Info("found active carriers",
			zap.Int("count", len(carriers)),
			zap.String("state", state),
			zap.String("line", line),
		)
		if len(carriers) == 0 {
			continue
		}

		results := make([]*ranker.CarrierMatch, len(carriers))
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(e.maxConcurrency)
		for i, carrier := range carriers {
			g.Go(func() error {
				cctx, cancel := context.WithTimeout(gctx, e.carrierTimeout)
				defer cancel()

				match, err := e.evaluateCarrier(cctx, carrier, state, line, risk)
				if err != nil {
					// Fault isolation: one carrier's failure never
					// aborts the batch.
					zap.L().Error("carrier evaluation failed; excluded",
						zap.String("carrier", carrier.LegalName),
						zap.String("state", state),
						zap.String("line", line),
						zap.Error(err),
					)
					return nil
				}
				results[i] = match
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, eris.Wrapf(err, "matching: evaluate %s/%s", state, line)
		}

		for _, result := range results {
			if result == nil {
				continue
			}
			if result.Eligibility.Status == eligibility.StatusFail {
				zap.L().Debug("carrier failed eligibility; excluded",
					zap.String("carrier", result.CarrierName),
					zap.String("state", state),
					zap.String("line", line),
				)
				continue
			}
			pooled = append(pooled, *result)
		}
	}

	ranked := e.ranker.Rank(pooled)
	zap.L().Info("matching complete",
		zap.Int("eligible_carriers", len(ranked)),
		zap.Int("lines", len(lines)),
	)
	return ranked, nil
}

// evaluateCarrier runs eligibility, appetite, and premium for one carrier.
// Appetite is always computed for market-intelligence completeness; premium
// is skipped and annotated when eligibility already failed.
func (e *Engine) evaluateCarrier(ctx context.Context, carrier model.Carrier, state, line string, risk *model.RiskProfile) (*ranker.CarrierMatch, error) {
	elig, err := e.filter.CheckEligibility(ctx, risk, carrier.ID, state, line)
	if err != nil {
		return nil, err
	}

	app, err := e.scorer.ScoreAppetite(ctx, carrier.ID, state, line, risk)
	if err != nil {
		return nil, err
	}

	var est *premium.Estimate
	if elig.Status != eligibility.StatusFail {
		est, err = e.estimator.EstimatePremium(ctx, carrier.ID, state, line, risk)
		if err != nil {
			return nil, err
		}
	} else {
		est = &premium.Estimate{
			TerritoryFactor:  1.0,
			ClassFactor:      1.0,
			ExperienceMod:    1.0,
			ILFFactor:        1.0,
			DeductibleFactor: 1.0,
			Components:       map[string]any{},
			Notes:            []string{"Premium not estimated due to eligibility failure."},
		}
	}

	highlights, err := e.store.LoadCoverageHighlights(ctx, carrier.ID, state, line)
	if err != nil {
		return nil, err
	}
	filings, err := e.store.LoadFilingReferences(ctx, carrier.ID, state, line)
	if err != nil {
		return nil, err
	}

	return &ranker.CarrierMatch{
		CarrierID:          carrier.ID,
		CarrierName:        carrier.LegalName,
		NAICCode:           carrier.NAICCode,
		AMBestRating:       carrier.AMBestRating,
		AMBestOutlook:      carrier.AMBestOutlook,
		State:              state,
		Line:               line,
		Eligibility:        elig,
		Appetite:           app,
		Premium:            est,
		CoverageHighlights: highlights,
		FilingReferences:   filings,
	}, nil
}

// MarketOverview returns the most recent market-intelligence snapshot for a
// state/line, or nil when none exists.
func (e *Engine) MarketOverview(ctx context.Context, state, line string) (*model.MarketIntelligence, error) {
	mi, err := e.store.LoadMarketIntelligence(ctx, state, line)
	if err != nil {
		return nil, eris.Wrapf(err, "matching: market overview for %s/%s", state, line)
	}
	if mi == nil {
		zap.L().Info("no market intelligence found",
			zap.String("state", state), zap.String("line", line))
	}
	return mi, nil
}

// RecentSignals exposes the appetite scorer's raw signal read for the API
// layer.
func (e *Engine) RecentSignals(ctx context.Context, carrierID uuid.UUID, state, line string) ([]model.AppetiteSignal, error) {
	return e.scorer.GetRecentSignals(ctx, carrierID, state, line)
}
