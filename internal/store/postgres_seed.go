package store

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"

	"github.com/quotewell/placement-cli/internal/db"
)

// Seed loads a fixture dataset. Parent rows go in one at a time so their
// generated ids can be referenced; base rates, rating factors, and signals
// are bulk-copied.
func (s *PostgresStore) Seed(ctx context.Context, fx *SeedFixture) error {
	for _, carrier := range fx.Carriers {
		carrierID := uuid.NewString()
		_, err := s.pool.Exec(ctx,
			`INSERT INTO carriers (id, naic_code, legal_name, status, am_best_rating, am_best_outlook)
			 VALUES ($1, $2, $3, $4, NULLIF($5, ''), NULLIF($6, ''))`,
			carrierID, carrier.NAICCode, carrier.LegalName, carrier.Status,
			carrier.AMBestRating, carrier.AMBestOutlook,
		)
		if err != nil {
			return eris.Wrapf(err, "postgres: seed carrier %s", carrier.LegalName)
		}

		for _, prog := range carrier.Programs {
			if err := s.seedProgram(ctx, carrierID, prog); err != nil {
				return eris.Wrapf(err, "postgres: seed program %s/%s for %s",
					prog.State, prog.Line, carrier.LegalName)
			}
		}
	}

	for _, m := range fx.Market {
		if err := s.seedMarket(ctx, m); err != nil {
			return eris.Wrapf(err, "postgres: seed market %s/%s", m.State, m.Line)
		}
	}
	return nil
}

func (s *PostgresStore) seedProgram(ctx context.Context, carrierID string, prog SeedProgram) error {
	if prog.Appetite != nil {
		a := prog.Appetite
		eligible, err := marshalNullable(a.EligibleClasses)
		if err != nil {
			return err
		}
		ineligible, err := marshalNullable(a.IneligibleClasses)
		if err != nil {
			return err
		}
		preferred, err := marshalNullable(a.PreferredClasses)
		if err != nil {
			return err
		}
		territories, err := marshalNullable(a.TerritoryPreferences)
		if err != nil {
			return err
		}

		_, err = s.pool.Exec(ctx,
			`INSERT INTO appetite_profiles (id, carrier_id, state, line, appetite_score,
				eligible_classes, ineligible_classes, preferred_classes, territory_preferences,
				limit_range_min, limit_range_max, rate_competitiveness_index,
				last_rate_change_pct, last_rate_change_date)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
			uuid.NewString(), carrierID, prog.State, prog.Line, a.Rating,
			eligible, ineligible, preferred, territories,
			a.LimitRangeMin, a.LimitRangeMax, a.RateCompIndex,
			a.LastRateChangePct, a.LastRateChangeDate,
		)
		if err != nil {
			return eris.Wrap(err, "insert appetite profile")
		}
	}

	if len(prog.Signals) > 0 {
		rows := make([][]any, 0, len(prog.Signals))
		for _, sig := range prog.Signals {
			rows = append(rows, []any{
				uuid.NewString(), carrierID, prog.State, prog.Line,
				sig.Type, sig.Strength, sig.Date,
				nilIfEmpty(sig.Description), sig.Confidence,
			})
		}
		if _, err := db.CopyFrom(ctx, s.pool, "appetite_signals",
			[]string{"id", "carrier_id", "state", "line", "signal_type",
				"signal_strength", "signal_date", "signal_description", "confidence"},
			rows,
		); err != nil {
			return err
		}
	}

	if len(prog.Criteria) > 0 {
		ruleID := uuid.NewString()
		_, err := s.pool.Exec(ctx,
			`INSERT INTO underwriting_rules (id, carrier_id, state, line) VALUES ($1, $2, $3, $4)`,
			ruleID, carrierID, prog.State, prog.Line,
		)
		if err != nil {
			return eris.Wrap(err, "insert underwriting rule")
		}
		for _, cr := range prog.Criteria {
			_, err := s.pool.Exec(ctx,
				`INSERT INTO eligibility_criteria (id, rule_id, criterion_type, criterion_operator,
					criterion_value, criterion_unit, is_hard_rule, description, confidence)
				 VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7, NULLIF($8, ''), $9)`,
				uuid.NewString(), ruleID, cr.Type, cr.Operator,
				cr.Value, cr.Unit, cr.Hard, cr.Description, cr.Confidence,
			)
			if err != nil {
				return eris.Wrap(err, "insert eligibility criterion")
			}
		}
	}

	if prog.Rates != nil {
		if err := s.seedRateTable(ctx, carrierID, prog); err != nil {
			return err
		}
	}

	for _, cov := range prog.Coverage {
		sublimits, err := marshalNullable(cov.Sublimits)
		if err != nil {
			return err
		}
		_, err = s.pool.Exec(ctx,
			`INSERT INTO coverage_options (id, carrier_id, state, line, coverage_type,
				limit_min, limit_max, default_limit, default_deductible, sublimits)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			uuid.NewString(), carrierID, prog.State, prog.Line, cov.CoverageType,
			cov.LimitMin, cov.LimitMax, cov.DefaultLimit, cov.DefaultDeductible, sublimits,
		)
		if err != nil {
			return eris.Wrap(err, "insert coverage option")
		}
	}

	for _, f := range prog.Filings {
		_, err := s.pool.Exec(ctx,
			`INSERT INTO filings (id, carrier_id, state, line_of_business, tracking_number,
				filing_type, status, effective_date, filed_date, overall_rate_change_pct,
				filing_description)
			 VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), COALESCE(NULLIF($7, ''), 'approved'), $8, $9, $10, NULLIF($11, ''))`,
			uuid.NewString(), carrierID, prog.State, prog.Line, f.TrackingNumber,
			f.FilingType, f.Status, f.EffectiveDate, f.FiledDate, f.OverallRateChange,
			f.Description,
		)
		if err != nil {
			return eris.Wrap(err, "insert filing")
		}
	}
	return nil
}

func (s *PostgresStore) seedRateTable(ctx context.Context, carrierID string, prog SeedProgram) error {
	rt := prog.Rates
	tableID := uuid.NewString()
	_, err := s.pool.Exec(ctx,
		`INSERT INTO rate_tables (id, carrier_id, state, line, table_name, table_type,
			effective_date, extraction_confidence)
		 VALUES ($1, $2, $3, $4, NULLIF($5, ''), NULLIF($6, ''), $7, $8)`,
		tableID, carrierID, prog.State, prog.Line, rt.TableName, rt.TableType,
		rt.EffectiveDate, rt.ExtractionConfidence,
	)
	if err != nil {
		return eris.Wrap(err, "insert rate table")
	}

	for _, terr := range rt.Territories {
		zips, err := json.Marshal(terr.ZipCodes)
		if err != nil {
			return eris.Wrap(err, "marshal territory zips")
		}
		_, err = s.pool.Exec(ctx,
			`INSERT INTO territory_definitions (id, rate_table_id, territory_code, territory_name, zip_codes)
			 VALUES ($1, $2, $3, NULLIF($4, ''), $5)`,
			uuid.NewString(), tableID, terr.Code, terr.Name, zips,
		)
		if err != nil {
			return eris.Wrap(err, "insert territory definition")
		}
	}

	if len(rt.BaseRates) > 0 {
		rows := make([][]any, 0, len(rt.BaseRates))
		for _, br := range rt.BaseRates {
			rows = append(rows, []any{
				uuid.NewString(), tableID, br.ClassCode, nilIfEmpty(br.Territory),
				br.Rate, br.MinimumPremium, br.MaximumPremium,
				nilIfEmpty(br.ExposureBasis), br.Confidence,
			})
		}
		if _, err := db.CopyFrom(ctx, s.pool, "base_rates",
			[]string{"id", "rate_table_id", "class_code", "territory", "base_rate",
				"minimum_premium", "maximum_premium", "exposure_basis", "confidence"},
			rows,
		); err != nil {
			return err
		}
	}

	if len(rt.Factors) > 0 {
		rows := make([][]any, 0, len(rt.Factors))
		for _, f := range rt.Factors {
			rows = append(rows, []any{uuid.NewString(), tableID, f.Type, f.Key, f.Value})
		}
		if _, err := db.CopyFrom(ctx, s.pool, "rating_factors",
			[]string{"id", "rate_table_id", "factor_type", "factor_key", "factor_value"},
			rows,
		); err != nil {
			return err
		}
	}
	return nil
}

func (s *PostgresStore) seedMarket(ctx context.Context, m SeedMarket) error {
	entrants, err := marshalNullable(m.NewEntrants)
	if err != nil {
		return err
	}
	withdrawals, err := marshalNullable(m.Withdrawals)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO market_intelligence (id, state, line, period_start, period_end,
			avg_rate_change_pct, median_rate_change_pct, filing_count, rate_increase_count,
			rate_decrease_count, new_entrant_count, withdrawal_count, new_entrants,
			withdrawals, market_trend, summary)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, NULLIF($15, ''), NULLIF($16, ''))`,
		uuid.NewString(), m.State, m.Line, m.PeriodStart, m.PeriodEnd,
		m.AvgRateChangePct, m.MedianRateChangePct, m.FilingCount, m.RateIncreaseCount,
		m.RateDecreaseCount, m.NewEntrantCount, m.WithdrawalCount, entrants,
		withdrawals, m.MarketTrend, m.Summary,
	)
	return eris.Wrap(err, "insert market intelligence")
}

// marshalNullable returns JSON for v, or nil when v is an empty slice or map
// so the column stays NULL.
func marshalNullable(v any) (any, error) {
	switch t := v.(type) {
	case []string:
		if len(t) == 0 {
			return nil, nil
		}
	case map[string]float64:
		if len(t) == 0 {
			return nil, nil
		}
	case map[string]*float64:
		if len(t) == 0 {
			return nil, nil
		}
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: marshal fixture json")
	}
	return data, nil
}

func nilIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
