package store

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
)

// Seed loads a fixture dataset inside a single transaction.
func (s *SQLiteStore) Seed(ctx context.Context, fx *SeedFixture) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin seed tx")
	}
	defer tx.Rollback()

	for _, carrier := range fx.Carriers {
		carrierID := uuid.NewString()
		_, err := tx.ExecContext(ctx,
			`INSERT INTO carriers (id, naic_code, legal_name, status, am_best_rating, am_best_outlook)
			 VALUES (?, ?, ?, ?, NULLIF(?, ''), NULLIF(?, ''))`,
			carrierID, carrier.NAICCode, carrier.LegalName, carrier.Status,
			carrier.AMBestRating, carrier.AMBestOutlook,
		)
		if err != nil {
			return eris.Wrapf(err, "sqlite: seed carrier %s", carrier.LegalName)
		}

		for _, prog := range carrier.Programs {
			if err := seedSQLiteProgram(ctx, tx, carrierID, prog); err != nil {
				return eris.Wrapf(err, "sqlite: seed program %s/%s for %s",
					prog.State, prog.Line, carrier.LegalName)
			}
		}
	}

	for _, m := range fx.Market {
		entrants, err := jsonText(m.NewEntrants)
		if err != nil {
			return err
		}
		withdrawals, err := jsonText(m.Withdrawals)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO market_intelligence (id, state, line, period_start, period_end,
				avg_rate_change_pct, median_rate_change_pct, filing_count, rate_increase_count,
				rate_decrease_count, new_entrant_count, withdrawal_count, new_entrants,
				withdrawals, market_trend, summary)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, NULLIF(?, ''), NULLIF(?, ''))`,
			uuid.NewString(), m.State, m.Line, m.PeriodStart, m.PeriodEnd,
			m.AvgRateChangePct, m.MedianRateChangePct, m.FilingCount, m.RateIncreaseCount,
			m.RateDecreaseCount, m.NewEntrantCount, m.WithdrawalCount, entrants,
			withdrawals, m.MarketTrend, m.Summary,
		)
		if err != nil {
			return eris.Wrapf(err, "sqlite: seed market %s/%s", m.State, m.Line)
		}
	}

	return eris.Wrap(tx.Commit(), "sqlite: commit seed tx")
}

func seedSQLiteProgram(ctx context.Context, tx *sql.Tx, carrierID string, prog SeedProgram) error {
	if prog.Appetite != nil {
		a := prog.Appetite
		eligible, err := jsonText(a.EligibleClasses)
		if err != nil {
			return err
		}
		ineligible, err := jsonText(a.IneligibleClasses)
		if err != nil {
			return err
		}
		preferred, err := jsonText(a.PreferredClasses)
		if err != nil {
			return err
		}
		territories, err := jsonText(a.TerritoryPreferences)
		if err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx,
			`INSERT INTO appetite_profiles (id, carrier_id, state, line, appetite_score,
				eligible_classes, ineligible_classes, preferred_classes, territory_preferences,
				limit_range_min, limit_range_max, rate_competitiveness_index,
				last_rate_change_pct, last_rate_change_date)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			uuid.NewString(), carrierID, prog.State, prog.Line, a.Rating,
			eligible, ineligible, preferred, territories,
			a.LimitRangeMin, a.LimitRangeMax, a.RateCompIndex,
			a.LastRateChangePct, a.LastRateChangeDate,
		)
		if err != nil {
			return eris.Wrap(err, "insert appetite profile")
		}
	}

	for _, sig := range prog.Signals {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO appetite_signals (id, carrier_id, state, line, signal_type,
				signal_strength, signal_date, signal_description, confidence)
			 VALUES (?, ?, ?, ?, ?, ?, ?, NULLIF(?, ''), ?)`,
			uuid.NewString(), carrierID, prog.State, prog.Line, sig.Type,
			sig.Strength, sig.Date, sig.Description, sig.Confidence,
		)
		if err != nil {
			return eris.Wrap(err, "insert appetite signal")
		}
	}

	if len(prog.Criteria) > 0 {
		ruleID := uuid.NewString()
		_, err := tx.ExecContext(ctx,
			`INSERT INTO underwriting_rules (id, carrier_id, state, line) VALUES (?, ?, ?, ?)`,
			ruleID, carrierID, prog.State, prog.Line,
		)
		if err != nil {
			return eris.Wrap(err, "insert underwriting rule")
		}
		for _, cr := range prog.Criteria {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO eligibility_criteria (id, rule_id, criterion_type, criterion_operator,
					criterion_value, criterion_unit, is_hard_rule, description, confidence)
				 VALUES (?, ?, ?, ?, ?, NULLIF(?, ''), ?, NULLIF(?, ''), ?)`,
				uuid.NewString(), ruleID, cr.Type, cr.Operator,
				cr.Value, cr.Unit, cr.Hard, cr.Description, cr.Confidence,
			)
			if err != nil {
				return eris.Wrap(err, "insert eligibility criterion")
			}
		}
	}

	if prog.Rates != nil {
		rt := prog.Rates
		tableID := uuid.NewString()
		_, err := tx.ExecContext(ctx,
			`INSERT INTO rate_tables (id, carrier_id, state, line, table_name, table_type,
				effective_date, extraction_confidence)
			 VALUES (?, ?, ?, ?, NULLIF(?, ''), NULLIF(?, ''), ?, ?)`,
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
			_, err = tx.ExecContext(ctx,
				`INSERT INTO territory_definitions (id, rate_table_id, territory_code, territory_name, zip_codes)
				 VALUES (?, ?, ?, NULLIF(?, ''), ?)`,
				uuid.NewString(), tableID, terr.Code, terr.Name, string(zips),
			)
			if err != nil {
				return eris.Wrap(err, "insert territory definition")
			}
		}

		for _, br := range rt.BaseRates {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO base_rates (id, rate_table_id, class_code, territory, base_rate,
					minimum_premium, maximum_premium, exposure_basis, confidence)
				 VALUES (?, ?, ?, NULLIF(?, ''), ?, ?, ?, NULLIF(?, ''), ?)`,
				uuid.NewString(), tableID, br.ClassCode, br.Territory, br.Rate,
				br.MinimumPremium, br.MaximumPremium, br.ExposureBasis, br.Confidence,
			)
			if err != nil {
				return eris.Wrap(err, "insert base rate")
			}
		}

		for _, f := range rt.Factors {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO rating_factors (id, rate_table_id, factor_type, factor_key, factor_value)
				 VALUES (?, ?, ?, ?, ?)`,
				uuid.NewString(), tableID, f.Type, f.Key, f.Value,
			)
			if err != nil {
				return eris.Wrap(err, "insert rating factor")
			}
		}
	}

	for _, cov := range prog.Coverage {
		sublimits, err := jsonText(cov.Sublimits)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO coverage_options (id, carrier_id, state, line, coverage_type,
				limit_min, limit_max, default_limit, default_deductible, sublimits)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			uuid.NewString(), carrierID, prog.State, prog.Line, cov.CoverageType,
			cov.LimitMin, cov.LimitMax, cov.DefaultLimit, cov.DefaultDeductible, sublimits,
		)
		if err != nil {
			return eris.Wrap(err, "insert coverage option")
		}
	}

	for _, f := range prog.Filings {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO filings (id, carrier_id, state, line_of_business, tracking_number,
				filing_type, status, effective_date, filed_date, overall_rate_change_pct,
				filing_description)
			 VALUES (?, ?, ?, ?, ?, NULLIF(?, ''), COALESCE(NULLIF(?, ''), 'approved'), ?, ?, ?, NULLIF(?, ''))`,
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

// jsonText marshals v for a TEXT column, returning nil for empty collections
// so the column stays NULL.
func jsonText(v any) (any, error) {
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
		return nil, eris.Wrap(err, "sqlite: marshal fixture json")
	}
	return string(data), nil
}
