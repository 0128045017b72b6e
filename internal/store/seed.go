package store

import (
	"os"
	"time"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/quotewell/placement-cli/internal/model"
)

// SeedFixture is a parsed dataset file used to populate a local store with
// carrier, appetite, and rate records. Fixtures are developer/test data; the
// production store is populated by the upstream filing-ingestion system.
type SeedFixture struct {
	Carriers []SeedCarrier `yaml:"carriers"`
	Market   []SeedMarket  `yaml:"market"`
}

// SeedCarrier is one carrier plus its per-state/line program data.
type SeedCarrier struct {
	LegalName     string        `yaml:"legal_name"`
	NAICCode      string        `yaml:"naic_code"`
	Status        string        `yaml:"status"`
	AMBestRating  string        `yaml:"am_best_rating"`
	AMBestOutlook string        `yaml:"am_best_outlook"`
	Programs      []SeedProgram `yaml:"programs"`
}

// SeedProgram holds everything a carrier files for one (state, line).
type SeedProgram struct {
	State    string          `yaml:"state"`
	Line     string          `yaml:"line"`
	Appetite *SeedAppetite   `yaml:"appetite"`
	Signals  []SeedSignal    `yaml:"signals"`
	Criteria []SeedCriterion `yaml:"criteria"`
	Rates    *SeedRateTable  `yaml:"rate_table"`
	Coverage []SeedCoverage  `yaml:"coverage"`
	Filings  []SeedFiling    `yaml:"filings"`
}

// SeedAppetite mirrors the current appetite-profile row.
type SeedAppetite struct {
	Rating               float64             `yaml:"rating"` // 1-10
	EligibleClasses      []string            `yaml:"eligible_classes"`
	IneligibleClasses    []string            `yaml:"ineligible_classes"`
	PreferredClasses     []string            `yaml:"preferred_classes"`
	TerritoryPreferences map[string]*float64 `yaml:"territory_preferences"`
	LimitRangeMin        *float64            `yaml:"limit_range_min"`
	LimitRangeMax        *float64            `yaml:"limit_range_max"`
	RateCompIndex        *float64            `yaml:"rate_competitiveness_index"`
	LastRateChangePct    *float64            `yaml:"last_rate_change_pct"`
	LastRateChangeDate   *time.Time          `yaml:"last_rate_change_date"`
}

// SeedSignal is one appetite signal event.
type SeedSignal struct {
	Type        string    `yaml:"type"`
	Strength    float64   `yaml:"strength"`
	Date        time.Time `yaml:"date"`
	Description string    `yaml:"description"`
	Confidence  float64   `yaml:"confidence"`
}

// SeedCriterion is one eligibility criterion under the program's current
// underwriting rule.
type SeedCriterion struct {
	Type        string  `yaml:"type"`
	Operator    string  `yaml:"operator"`
	Value       string  `yaml:"value"`
	Unit        string  `yaml:"unit"`
	Hard        bool    `yaml:"hard"`
	Description string  `yaml:"description"`
	Confidence  float64 `yaml:"confidence"`
}

// SeedRateTable is the program's current rate table.
type SeedRateTable struct {
	TableName            string          `yaml:"table_name"`
	TableType            string          `yaml:"table_type"`
	EffectiveDate        *time.Time      `yaml:"effective_date"`
	ExtractionConfidence float64         `yaml:"extraction_confidence"`
	Territories          []SeedTerritory `yaml:"territories"`
	BaseRates            []SeedBaseRate  `yaml:"base_rates"`
	Factors              []SeedFactor    `yaml:"factors"`
}

// SeedTerritory maps postal codes to a territory code.
type SeedTerritory struct {
	Code     string   `yaml:"code"`
	Name     string   `yaml:"name"`
	ZipCodes []string `yaml:"zip_codes"`
}

// SeedBaseRate is one base-rate row.
type SeedBaseRate struct {
	ClassCode      string   `yaml:"class_code"`
	Territory      string   `yaml:"territory"`
	Rate           float64  `yaml:"rate"`
	ExposureBasis  string   `yaml:"exposure_basis"`
	MinimumPremium *float64 `yaml:"minimum_premium"`
	MaximumPremium *float64 `yaml:"maximum_premium"`
	Confidence     float64  `yaml:"confidence"`
}

// SeedFactor is one multiplicative rating factor.
type SeedFactor struct {
	Type  string  `yaml:"type"`
	Key   string  `yaml:"key"`
	Value float64 `yaml:"value"`
}

// SeedCoverage is one coverage option row.
type SeedCoverage struct {
	CoverageType      string             `yaml:"coverage_type"`
	LimitMin          *float64           `yaml:"limit_min"`
	LimitMax          *float64           `yaml:"limit_max"`
	DefaultLimit      *float64           `yaml:"default_limit"`
	DefaultDeductible *float64           `yaml:"default_deductible"`
	Sublimits         map[string]float64 `yaml:"sublimits"`
}

// SeedFiling is one filing reference row.
type SeedFiling struct {
	TrackingNumber    string     `yaml:"tracking_number"`
	FilingType        string     `yaml:"filing_type"`
	Status            string     `yaml:"status"`
	EffectiveDate     *time.Time `yaml:"effective_date"`
	FiledDate         *time.Time `yaml:"filed_date"`
	OverallRateChange *float64   `yaml:"overall_rate_change_pct"`
	Description       string     `yaml:"description"`
}

// SeedMarket is one market-intelligence snapshot row.
type SeedMarket struct {
	State               string     `yaml:"state"`
	Line                string     `yaml:"line"`
	PeriodStart         *time.Time `yaml:"period_start"`
	PeriodEnd           *time.Time `yaml:"period_end"`
	AvgRateChangePct    *float64   `yaml:"avg_rate_change_pct"`
	MedianRateChangePct *float64   `yaml:"median_rate_change_pct"`
	FilingCount         int        `yaml:"filing_count"`
	RateIncreaseCount   int        `yaml:"rate_increase_count"`
	RateDecreaseCount   int        `yaml:"rate_decrease_count"`
	NewEntrantCount     int        `yaml:"new_entrant_count"`
	WithdrawalCount     int        `yaml:"withdrawal_count"`
	NewEntrants         []string   `yaml:"new_entrants"`
	Withdrawals         []string   `yaml:"withdrawals"`
	MarketTrend         string     `yaml:"market_trend"`
	Summary             string     `yaml:"summary"`
}

// LoadSeedFixture reads a fixture dataset from a YAML file.
func LoadSeedFixture(path string) (*SeedFixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "store: read fixture %s", path)
	}

	var fx SeedFixture
	if err := yaml.Unmarshal(data, &fx); err != nil {
		return nil, eris.Wrap(err, "store: parse fixture")
	}

	for i, c := range fx.Carriers {
		if c.LegalName == "" {
			return nil, eris.Errorf("store: fixture carrier %d has no legal_name", i)
		}
		if c.Status == "" {
			fx.Carriers[i].Status = string(model.CarrierStatusActive)
		}
	}
	return &fx, nil
}
