// Package ranker orders carrier match results by a composite score and
// derives a placement probability per carrier.
package ranker

import (
	"github.com/google/uuid"

	"github.com/quotewell/placement-cli/internal/appetite"
	"github.com/quotewell/placement-cli/internal/eligibility"
	"github.com/quotewell/placement-cli/internal/model"
	"github.com/quotewell/placement-cli/internal/premium"
)

// CarrierMatch is the output unit of one carrier evaluation. Created fresh
// per match call and never persisted by this pipeline.
type CarrierMatch struct {
	CarrierID     uuid.UUID `json:"carrier_id"`
	CarrierName   string    `json:"carrier_name"`
	NAICCode      string    `json:"naic_code,omitempty"`
	AMBestRating  string    `json:"am_best_rating,omitempty"`
	AMBestOutlook string    `json:"am_best_outlook,omitempty"`
	State         string    `json:"state"`
	Line          string    `json:"line"`

	Eligibility *eligibility.Result `json:"eligibility"`
	Appetite    *appetite.Result    `json:"appetite"`
	Premium     *premium.Estimate   `json:"premium"`

	CoverageHighlights []model.CoverageHighlight `json:"coverage_highlights,omitempty"`
	FilingReferences   []model.FilingReference   `json:"filing_references,omitempty"`

	CompositeScore       float64 `json:"composite_score"`
	CompetitivenessRank  int     `json:"competitiveness_rank"`
	PlacementProbability float64 `json:"placement_probability"`
}
