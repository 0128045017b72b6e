package model

import (
	"time"

	"github.com/google/uuid"
)

// CarrierStatus tracks whether a carrier is actively writing business.
type CarrierStatus string

const (
	CarrierStatusActive    CarrierStatus = "active"
	CarrierStatusInactive  CarrierStatus = "inactive"
	CarrierStatusWithdrawn CarrierStatus = "withdrawn"
)

// Carrier is one insurance carrier discovered for a state/line.
type Carrier struct {
	ID            uuid.UUID `json:"id"`
	NAICCode      string    `json:"naic_code"`
	LegalName     string    `json:"legal_name"`
	AMBestRating  string    `json:"am_best_rating,omitempty"`
	AMBestOutlook string    `json:"am_best_outlook,omitempty"`
}

// CriterionType identifies which underwriting rule a criterion encodes.
type CriterionType string

const (
	CriterionEligibleClass    CriterionType = "eligible_class"
	CriterionIneligibleClass  CriterionType = "ineligible_class"
	CriterionMinYearsBusiness CriterionType = "min_years_business"
	CriterionMaxLossRatio     CriterionType = "max_loss_ratio"
	CriterionTerritory        CriterionType = "territory_restriction"
	CriterionConstructionType CriterionType = "construction_type"
	CriterionMinEmployees     CriterionType = "min_employees"
	CriterionMaxEmployees     CriterionType = "max_employees"
	CriterionRevenueRange     CriterionType = "revenue_range"
	CriterionOperations       CriterionType = "operations_restriction"
)

// CriterionOperator is the comparison applied between a risk value and a
// criterion value.
type CriterionOperator string

const (
	OpEquals      CriterionOperator = "equals"
	OpGT          CriterionOperator = "gt"
	OpGTE         CriterionOperator = "gte"
	OpLT          CriterionOperator = "lt"
	OpLTE         CriterionOperator = "lte"
	OpIn          CriterionOperator = "in"
	OpNotIn       CriterionOperator = "not_in"
	OpBetween     CriterionOperator = "between"
	OpContains    CriterionOperator = "contains"
	OpNotContains CriterionOperator = "not_contains"
)

// EligibilityCriterion is a single underwriting rule condition for a
// carrier/state/line. Hard criteria block eligibility on failure; soft
// criteria only raise conditional notes.
type EligibilityCriterion struct {
	ID          uuid.UUID         `json:"id"`
	Type        CriterionType     `json:"criterion_type"`
	Operator    CriterionOperator `json:"criterion_operator"`
	Value       string            `json:"criterion_value"`
	Unit        string            `json:"criterion_unit,omitempty"`
	HardRule    bool              `json:"is_hard_rule"`
	Description string            `json:"description,omitempty"`
	Confidence  float64           `json:"confidence,omitempty"`
}

// SignalType classifies an appetite signal; polarity is implied by the type.
type SignalType string

const (
	SignalRateDecrease         SignalType = "rate_decrease"
	SignalNewFiling            SignalType = "new_filing"
	SignalExpandedClasses      SignalType = "expanded_classes"
	SignalTerritoryExpansion   SignalType = "territory_expansion"
	SignalNewEndorsement       SignalType = "new_endorsement"
	SignalNewStateEntry        SignalType = "new_state_entry"
	SignalRateIncrease         SignalType = "rate_increase"
	SignalContractedClasses    SignalType = "contracted_classes"
	SignalTerritoryContraction SignalType = "territory_contraction"
	SignalFilingWithdrawal     SignalType = "filing_withdrawal"
	SignalMarketExit           SignalType = "market_exit"
)

// AppetiteSignal is a time-stamped market event for a carrier/state/line.
type AppetiteSignal struct {
	ID          uuid.UUID  `json:"id"`
	Type        SignalType `json:"signal_type"`
	Strength    float64    `json:"signal_strength"` // 1-10
	Date        time.Time  `json:"signal_date"`
	Description string     `json:"signal_description,omitempty"`
	Confidence  float64    `json:"confidence,omitempty"`
}

// AppetiteProfile is the current appetite record for one
// (carrier, state, line) triple. The store guarantees at most one current
// row per triple.
type AppetiteProfile struct {
	ID                uuid.UUID `json:"id"`
	AppetiteRating    float64   `json:"appetite_score"` // stored 1-10 rating
	EligibleClasses   []string  `json:"eligible_classes,omitempty"`
	IneligibleClasses []string  `json:"ineligible_classes,omitempty"`
	PreferredClasses  []string  `json:"preferred_classes,omitempty"`

	// State code -> 0-10 preference. A key present with a nil value means
	// the state is known but unrated.
	TerritoryPreferences map[string]*float64 `json:"territory_preferences,omitempty"`

	LimitRangeMin            *float64   `json:"limit_range_min,omitempty"`
	LimitRangeMax            *float64   `json:"limit_range_max,omitempty"`
	RateCompetitivenessIndex *float64   `json:"rate_competitiveness_index,omitempty"`
	LastRateChangePct        *float64   `json:"last_rate_change_pct,omitempty"`
	LastRateChangeDate       *time.Time `json:"last_rate_change_date,omitempty"`
	FilingFrequencyScore     *float64   `json:"filing_frequency_score,omitempty"`
	YearsActiveInState       *float64   `json:"years_active_in_state,omitempty"`
	MarketShareEstimate      *float64   `json:"market_share_estimate,omitempty"`
	SourceFilingCount        int        `json:"source_filing_count,omitempty"`
	ComputedAt               time.Time  `json:"computed_at,omitempty"`
}

// CoverageHighlight is a notable coverage feature offered by a carrier.
type CoverageHighlight struct {
	CoverageType      string             `json:"coverage_type"`
	LimitMin          *float64           `json:"limit_min,omitempty"`
	LimitMax          *float64           `json:"limit_max,omitempty"`
	DefaultLimit      *float64           `json:"default_limit,omitempty"`
	DefaultDeductible *float64           `json:"default_deductible,omitempty"`
	Sublimits         map[string]float64 `json:"sublimits,omitempty"`
}

// FilingReference points at a source rate filing backing a match result.
type FilingReference struct {
	TrackingNumber     string     `json:"tracking_number"`
	FilingType         string     `json:"filing_type,omitempty"`
	Status             string     `json:"status,omitempty"`
	EffectiveDate      *time.Time `json:"effective_date,omitempty"`
	FiledDate          *time.Time `json:"filed_date,omitempty"`
	OverallRateChange  *float64   `json:"overall_rate_change_pct,omitempty"`
	FilingDescription  string     `json:"filing_description,omitempty"`
}
