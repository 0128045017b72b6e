package model

import (
	"time"

	"github.com/google/uuid"
)

// ExposureBasis names the unit a base rate is quoted against. Monetary bases
// (revenue, payroll, receipts, area) are rated per $100; unit bases
// (employees, units) pass through unscaled.
type ExposureBasis string

const (
	BasisRevenue   ExposureBasis = "revenue"
	BasisPayroll   ExposureBasis = "payroll"
	BasisReceipts  ExposureBasis = "receipts"
	BasisArea      ExposureBasis = "area"
	BasisUnits     ExposureBasis = "units"
	BasisEmployees ExposureBasis = "employees"
)

// FactorType is the category of a multiplicative rating factor.
type FactorType string

const (
	FactorTerritory  FactorType = "territory"
	FactorClass      FactorType = "class"
	FactorILF        FactorType = "ilf"
	FactorDeductible FactorType = "deductible"
)

// RateTable is the current filed rate container for a carrier/state/line.
type RateTable struct {
	ID                   uuid.UUID  `json:"id"`
	TableName            string     `json:"table_name,omitempty"`
	TableType            string     `json:"table_type,omitempty"`
	EffectiveDate        *time.Time `json:"effective_date,omitempty"`
	ExtractionConfidence float64    `json:"extraction_confidence,omitempty"`
}

// BaseRate is one rate row keyed by classification code and optional
// territory.
type BaseRate struct {
	ID             uuid.UUID     `json:"id"`
	ClassCode      string        `json:"class_code"`
	Territory      string        `json:"territory,omitempty"`
	Rate           float64       `json:"base_rate"`
	RatePerUnit    *float64      `json:"rate_per_unit,omitempty"`
	MinimumPremium *float64      `json:"minimum_premium,omitempty"`
	MaximumPremium *float64      `json:"maximum_premium,omitempty"`
	ExposureBasis  ExposureBasis `json:"exposure_basis,omitempty"`
	Confidence     float64       `json:"confidence,omitempty"`
}

// MarketIntelligence is an aggregate market snapshot for a state/line.
type MarketIntelligence struct {
	ID                  uuid.UUID  `json:"id"`
	State               string     `json:"state"`
	Line                string     `json:"line"`
	PeriodStart         *time.Time `json:"period_start,omitempty"`
	PeriodEnd           *time.Time `json:"period_end,omitempty"`
	AvgRateChangePct    *float64   `json:"avg_rate_change_pct,omitempty"`
	MedianRateChangePct *float64   `json:"median_rate_change_pct,omitempty"`
	FilingCount         int        `json:"filing_count"`
	RateIncreaseCount   int        `json:"rate_increase_count"`
	RateDecreaseCount   int        `json:"rate_decrease_count"`
	NewEntrantCount     int        `json:"new_entrant_count"`
	WithdrawalCount     int        `json:"withdrawal_count"`
	NewEntrants         []string   `json:"new_entrants,omitempty"`
	Withdrawals         []string   `json:"withdrawals,omitempty"`
	TopAppetiteShifts   []string   `json:"top_appetite_shifts,omitempty"`
	MarketTrend         string     `json:"market_trend,omitempty"`
	Summary             string     `json:"summary,omitempty"`
	ComputedAt          time.Time  `json:"computed_at,omitempty"`
}
