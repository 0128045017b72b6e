// Package store implements the read contracts the matching pipeline depends
// on, over a data store populated upstream by the filing-ingestion system.
package store

import (
	"context"

	"github.com/google/uuid"

	"github.com/quotewell/placement-cli/internal/model"
)

// DefaultSignalLookbackDays is the rolling window for appetite signals.
const DefaultSignalLookbackDays = 90

// Store defines the persistence interface consumed by the matching pipeline.
// All pipeline reads return only "current" rows; the store guarantees at most
// one current appetite profile, rule set, and rate table per
// (carrier, state, line) triple.
type Store interface {
	// Carrier discovery
	FindActiveCarriers(ctx context.Context, state, line string) ([]model.Carrier, error)

	// Appetite
	LoadAppetiteProfile(ctx context.Context, carrierID uuid.UUID, state, line string) (*model.AppetiteProfile, error)
	LoadRecentSignals(ctx context.Context, carrierID uuid.UUID, state, line string, lookbackDays int) ([]model.AppetiteSignal, error)

	// Eligibility
	LoadEligibilityCriteria(ctx context.Context, carrierID uuid.UUID, state, line string) ([]model.EligibilityCriterion, error)

	// Rating
	LoadRateTable(ctx context.Context, carrierID uuid.UUID, state, line string) (*model.RateTable, error)
	LookupTerritory(ctx context.Context, rateTableID uuid.UUID, zipCode string) (string, error)
	LoadBaseRate(ctx context.Context, rateTableID uuid.UUID, classCode, territory string) (*model.BaseRate, error)
	LoadRatingFactor(ctx context.Context, rateTableID uuid.UUID, factorType model.FactorType, factorKey string) (float64, bool, error)

	// Supplemental context
	LoadCoverageHighlights(ctx context.Context, carrierID uuid.UUID, state, line string) ([]model.CoverageHighlight, error)
	LoadFilingReferences(ctx context.Context, carrierID uuid.UUID, state, line string) ([]model.FilingReference, error)
	LoadMarketIntelligence(ctx context.Context, state, line string) (*model.MarketIntelligence, error)

	// Fixture loading for local datasets and tests
	Seed(ctx context.Context, fx *SeedFixture) error

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
