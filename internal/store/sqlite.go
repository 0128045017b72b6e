package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/quotewell/placement-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite. JSON columns are
// stored as TEXT; territory zip lookups use json_each. Intended for local
// datasets and offline evaluation, not production carrier data.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	sdb, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := sdb.Exec(pragma); err != nil {
			sdb.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: sdb}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS carriers (
	id              TEXT PRIMARY KEY,
	naic_code       TEXT NOT NULL DEFAULT '',
	legal_name      TEXT NOT NULL,
	status          TEXT NOT NULL DEFAULT 'active',
	am_best_rating  TEXT,
	am_best_outlook TEXT,
	created_at      DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS appetite_profiles (
	id                         TEXT PRIMARY KEY,
	carrier_id                 TEXT NOT NULL REFERENCES carriers(id),
	state                      TEXT NOT NULL,
	line                       TEXT NOT NULL,
	is_current                 INTEGER NOT NULL DEFAULT 1,
	appetite_score             REAL NOT NULL DEFAULT 5,
	eligible_classes           TEXT,
	ineligible_classes         TEXT,
	preferred_classes          TEXT,
	territory_preferences      TEXT,
	limit_range_min            REAL,
	limit_range_max            REAL,
	rate_competitiveness_index REAL,
	last_rate_change_pct       REAL,
	last_rate_change_date      DATETIME,
	filing_frequency_score     REAL,
	years_active_in_state      REAL,
	market_share_estimate      REAL,
	source_filing_count        INTEGER NOT NULL DEFAULT 0,
	computed_at                DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS appetite_signals (
	id                 TEXT PRIMARY KEY,
	carrier_id         TEXT NOT NULL REFERENCES carriers(id),
	state              TEXT NOT NULL,
	line               TEXT NOT NULL,
	signal_type        TEXT NOT NULL,
	signal_strength    REAL NOT NULL DEFAULT 5,
	signal_date        DATETIME NOT NULL,
	signal_description TEXT,
	confidence         REAL
);

CREATE TABLE IF NOT EXISTS underwriting_rules (
	id         TEXT PRIMARY KEY,
	carrier_id TEXT NOT NULL REFERENCES carriers(id),
	state      TEXT NOT NULL,
	line       TEXT NOT NULL,
	is_current INTEGER NOT NULL DEFAULT 1,
	created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS eligibility_criteria (
	id                 TEXT PRIMARY KEY,
	rule_id            TEXT NOT NULL REFERENCES underwriting_rules(id),
	criterion_type     TEXT NOT NULL,
	criterion_operator TEXT NOT NULL DEFAULT 'equals',
	criterion_value    TEXT NOT NULL DEFAULT '',
	criterion_unit     TEXT,
	is_hard_rule       INTEGER NOT NULL DEFAULT 1,
	description        TEXT,
	confidence         REAL
);

CREATE TABLE IF NOT EXISTS rate_tables (
	id                    TEXT PRIMARY KEY,
	carrier_id            TEXT NOT NULL REFERENCES carriers(id),
	state                 TEXT NOT NULL,
	line                  TEXT NOT NULL,
	is_current            INTEGER NOT NULL DEFAULT 1,
	table_name            TEXT,
	table_type            TEXT,
	effective_date        DATETIME,
	extraction_confidence REAL
);

CREATE TABLE IF NOT EXISTS base_rates (
	id              TEXT PRIMARY KEY,
	rate_table_id   TEXT NOT NULL REFERENCES rate_tables(id),
	class_code      TEXT NOT NULL,
	territory       TEXT,
	base_rate       REAL NOT NULL,
	rate_per_unit   REAL,
	minimum_premium REAL,
	maximum_premium REAL,
	exposure_basis  TEXT,
	confidence      REAL
);

CREATE TABLE IF NOT EXISTS rating_factors (
	id            TEXT PRIMARY KEY,
	rate_table_id TEXT NOT NULL REFERENCES rate_tables(id),
	factor_type   TEXT NOT NULL,
	factor_key    TEXT NOT NULL,
	factor_value  REAL NOT NULL
);

CREATE TABLE IF NOT EXISTS territory_definitions (
	id             TEXT PRIMARY KEY,
	rate_table_id  TEXT NOT NULL REFERENCES rate_tables(id),
	territory_code TEXT NOT NULL,
	territory_name TEXT,
	zip_codes      TEXT NOT NULL DEFAULT '[]'
);

CREATE TABLE IF NOT EXISTS coverage_options (
	id                 TEXT PRIMARY KEY,
	carrier_id         TEXT NOT NULL REFERENCES carriers(id),
	state              TEXT NOT NULL,
	line               TEXT NOT NULL,
	is_current         INTEGER NOT NULL DEFAULT 1,
	coverage_type      TEXT NOT NULL,
	limit_min          REAL,
	limit_max          REAL,
	default_limit      REAL,
	default_deductible REAL,
	sublimits          TEXT
);

CREATE TABLE IF NOT EXISTS filings (
	id                      TEXT PRIMARY KEY,
	carrier_id              TEXT NOT NULL REFERENCES carriers(id),
	state                   TEXT NOT NULL,
	line_of_business        TEXT NOT NULL,
	tracking_number         TEXT NOT NULL,
	filing_type             TEXT,
	status                  TEXT NOT NULL DEFAULT 'approved',
	effective_date          DATETIME,
	filed_date              DATETIME,
	overall_rate_change_pct REAL,
	filing_description      TEXT
);

CREATE TABLE IF NOT EXISTS market_intelligence (
	id                     TEXT PRIMARY KEY,
	state                  TEXT NOT NULL,
	line                   TEXT NOT NULL,
	period_start           DATETIME,
	period_end             DATETIME,
	avg_rate_change_pct    REAL,
	median_rate_change_pct REAL,
	filing_count           INTEGER NOT NULL DEFAULT 0,
	rate_increase_count    INTEGER NOT NULL DEFAULT 0,
	rate_decrease_count    INTEGER NOT NULL DEFAULT 0,
	new_entrant_count      INTEGER NOT NULL DEFAULT 0,
	withdrawal_count       INTEGER NOT NULL DEFAULT 0,
	new_entrants           TEXT,
	withdrawals            TEXT,
	top_appetite_shifts    TEXT,
	market_trend           TEXT,
	summary                TEXT,
	computed_at            DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_appetite_lookup ON appetite_profiles(carrier_id, state, line);
CREATE INDEX IF NOT EXISTS idx_signals_lookup ON appetite_signals(carrier_id, state, line, signal_date);
CREATE INDEX IF NOT EXISTS idx_rules_lookup ON underwriting_rules(carrier_id, state, line);
CREATE INDEX IF NOT EXISTS idx_criteria_rule ON eligibility_criteria(rule_id);
CREATE INDEX IF NOT EXISTS idx_rate_tables_lookup ON rate_tables(carrier_id, state, line);
CREATE INDEX IF NOT EXISTS idx_base_rates_lookup ON base_rates(rate_table_id, class_code);
CREATE INDEX IF NOT EXISTS idx_rating_factors_lookup ON rating_factors(rate_table_id, factor_type, factor_key);
CREATE INDEX IF NOT EXISTS idx_market_intel_lookup ON market_intelligence(state, line);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.db.PingContext(ctx), "sqlite: ping")
}

func (s *SQLiteStore) FindActiveCarriers(ctx context.Context, state, line string) ([]model.Carrier, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT c.id, c.naic_code, c.legal_name,
			COALESCE(c.am_best_rating, ''), COALESCE(c.am_best_outlook, '')
		 FROM carriers c
		 JOIN appetite_profiles ap ON ap.carrier_id = c.id
		 WHERE ap.state = ? AND ap.line = ? AND ap.is_current = 1 AND c.status = 'active'
		 ORDER BY c.legal_name`,
		state, line,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: find active carriers")
	}
	defer rows.Close()

	var carriers []model.Carrier
	for rows.Next() {
		var c model.Carrier
		var id string
		if err := rows.Scan(&id, &c.NAICCode, &c.LegalName, &c.AMBestRating, &c.AMBestOutlook); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan carrier")
		}
		if c.ID, err = uuid.Parse(id); err != nil {
			return nil, eris.Wrapf(err, "sqlite: parse carrier id %s", id)
		}
		carriers = append(carriers, c)
	}
	return carriers, eris.Wrap(rows.Err(), "sqlite: find active carriers iterate")
}

func (s *SQLiteStore) LoadAppetiteProfile(ctx context.Context, carrierID uuid.UUID, state, line string) (*model.AppetiteProfile, error) {
	var (
		p              model.AppetiteProfile
		id             string
		eligibleJSON   *string
		ineligibleJSON *string
		preferredJSON  *string
		territoryJSON  *string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, appetite_score, eligible_classes, ineligible_classes, preferred_classes,
			territory_preferences, limit_range_min, limit_range_max, rate_competitiveness_index,
			last_rate_change_pct, last_rate_change_date, filing_frequency_score,
			years_active_in_state, market_share_estimate, source_filing_count, computed_at
		 FROM appetite_profiles
		 WHERE carrier_id = ? AND state = ? AND line = ? AND is_current = 1
		 LIMIT 1`,
		carrierID.String(), state, line,
	).Scan(
		&id, &p.AppetiteRating, &eligibleJSON, &ineligibleJSON, &preferredJSON,
		&territoryJSON, &p.LimitRangeMin, &p.LimitRangeMax, &p.RateCompetitivenessIndex,
		&p.LastRateChangePct, &p.LastRateChangeDate, &p.FilingFrequencyScore,
		&p.YearsActiveInState, &p.MarketShareEstimate, &p.SourceFilingCount, &p.ComputedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrap(err, "sqlite: load appetite profile")
	}

	if p.ID, err = uuid.Parse(id); err != nil {
		return nil, eris.Wrapf(err, "sqlite: parse profile id %s", id)
	}
	for _, col := range []struct {
		raw  *string
		dest any
	}{
		{eligibleJSON, &p.EligibleClasses},
		{ineligibleJSON, &p.IneligibleClasses},
		{preferredJSON, &p.PreferredClasses},
		{territoryJSON, &p.TerritoryPreferences},
	} {
		if col.raw == nil || *col.raw == "" {
			continue
		}
		if err := json.Unmarshal([]byte(*col.raw), col.dest); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal appetite profile json")
		}
	}
	return &p, nil
}

func (s *SQLiteStore) LoadRecentSignals(ctx context.Context, carrierID uuid.UUID, state, line string, lookbackDays int) ([]model.AppetiteSignal, error) {
	if lookbackDays <= 0 {
		lookbackDays = DefaultSignalLookbackDays
	}
	cutoff := time.Now().UTC().AddDate(0, 0, -lookbackDays)

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, signal_type, signal_strength, signal_date, signal_description, confidence
		 FROM appetite_signals
		 WHERE carrier_id = ? AND state = ? AND line = ? AND signal_date >= ?
		 ORDER BY signal_date DESC
		 LIMIT 50`,
		carrierID.String(), state, line, cutoff,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: load recent signals")
	}
	defer rows.Close()

	var signals []model.AppetiteSignal
	for rows.Next() {
		var (
			sig  model.AppetiteSignal
			id   string
			desc *string
			conf *float64
		)
		if err := rows.Scan(&id, &sig.Type, &sig.Strength, &sig.Date, &desc, &conf); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan signal")
		}
		if sig.ID, err = uuid.Parse(id); err != nil {
			return nil, eris.Wrapf(err, "sqlite: parse signal id %s", id)
		}
		if desc != nil {
			sig.Description = *desc
		}
		if conf != nil {
			sig.Confidence = *conf
		}
		signals = append(signals, sig)
	}
	return signals, eris.Wrap(rows.Err(), "sqlite: load recent signals iterate")
}

func (s *SQLiteStore) LoadEligibilityCriteria(ctx context.Context, carrierID uuid.UUID, state, line string) ([]model.EligibilityCriterion, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT ec.id, ec.criterion_type, ec.criterion_operator, ec.criterion_value,
			ec.criterion_unit, ec.is_hard_rule, ec.description, ec.confidence
		 FROM eligibility_criteria ec
		 JOIN underwriting_rules ur ON ur.id = ec.rule_id
		 WHERE ur.carrier_id = ? AND ur.state = ? AND ur.line = ? AND ur.is_current = 1
		 ORDER BY ec.is_hard_rule DESC, ec.criterion_type`,
		carrierID.String(), state, line,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: load eligibility criteria")
	}
	defer rows.Close()

	var criteria []model.EligibilityCriterion
	for rows.Next() {
		var (
			c    model.EligibilityCriterion
			id   string
			unit *string
			desc *string
			conf *float64
		)
		if err := rows.Scan(&id, &c.Type, &c.Operator, &c.Value, &unit, &c.HardRule, &desc, &conf); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan criterion")
		}
		if c.ID, err = uuid.Parse(id); err != nil {
			return nil, eris.Wrapf(err, "sqlite: parse criterion id %s", id)
		}
		if unit != nil {
			c.Unit = *unit
		}
		if desc != nil {
			c.Description = *desc
		}
		if conf != nil {
			c.Confidence = *conf
		}
		criteria = append(criteria, c)
	}
	return criteria, eris.Wrap(rows.Err(), "sqlite: load eligibility criteria iterate")
}

func (s *SQLiteStore) LoadRateTable(ctx context.Context, carrierID uuid.UUID, state, line string) (*model.RateTable, error) {
	var (
		rt   model.RateTable
		id   string
		name *string
		typ  *string
		conf *float64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, table_name, table_type, effective_date, extraction_confidence
		 FROM rate_tables
		 WHERE carrier_id = ? AND state = ? AND line = ? AND is_current = 1
		 ORDER BY effective_date DESC
		 LIMIT 1`,
		carrierID.String(), state, line,
	).Scan(&id, &name, &typ, &rt.EffectiveDate, &conf)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrap(err, "sqlite: load rate table")
	}
	if rt.ID, err = uuid.Parse(id); err != nil {
		return nil, eris.Wrapf(err, "sqlite: parse rate table id %s", id)
	}
	if name != nil {
		rt.TableName = *name
	}
	if typ != nil {
		rt.TableType = *typ
	}
	if conf != nil {
		rt.ExtractionConfidence = *conf
	}
	return &rt, nil
}

func (s *SQLiteStore) LookupTerritory(ctx context.Context, rateTableID uuid.UUID, zipCode string) (string, error) {
	if zipCode == "" {
		return "", nil
	}

	var code string
	err := s.db.QueryRowContext(ctx,
		`SELECT td.territory_code
		 FROM territory_definitions td
		 WHERE td.rate_table_id = ?
			AND EXISTS (SELECT 1 FROM json_each(td.zip_codes) WHERE json_each.value = ?)
		 LIMIT 1`,
		rateTableID.String(), zipCode,
	).Scan(&code)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", eris.Wrap(err, "sqlite: lookup territory")
	}
	return code, nil
}

func (s *SQLiteStore) LoadBaseRate(ctx context.Context, rateTableID uuid.UUID, classCode, territory string) (*model.BaseRate, error) {
	if classCode == "" {
		return nil, nil
	}

	var (
		query string
		args  []any
	)
	if territory != "" {
		query = `SELECT id, class_code, territory, base_rate, rate_per_unit, minimum_premium,
			maximum_premium, exposure_basis, confidence
		FROM base_rates
		WHERE rate_table_id = ?
			AND (class_code = ? OR ? LIKE class_code || '%' OR class_code LIKE ? || '%')
			AND territory = ?
		ORDER BY length(class_code) DESC
		LIMIT 1`
		args = []any{rateTableID.String(), classCode, classCode, classCode, territory}
	} else {
		query = `SELECT id, class_code, territory, base_rate, rate_per_unit, minimum_premium,
			maximum_premium, exposure_basis, confidence
		FROM base_rates
		WHERE rate_table_id = ?
			AND (class_code = ? OR ? LIKE class_code || '%' OR class_code LIKE ? || '%')
		ORDER BY CASE WHEN territory IS NULL THEN 1 ELSE 0 END, length(class_code) DESC
		LIMIT 1`
		args = []any{rateTableID.String(), classCode, classCode, classCode}
	}

	var (
		br    model.BaseRate
		id    string
		terr  *string
		basis *string
		conf  *float64
	)
	err := s.db.QueryRowContext(ctx, query, args...).Scan(
		&id, &br.ClassCode, &terr, &br.Rate, &br.RatePerUnit,
		&br.MinimumPremium, &br.MaximumPremium, &basis, &conf,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrap(err, "sqlite: load base rate")
	}
	if br.ID, err = uuid.Parse(id); err != nil {
		return nil, eris.Wrapf(err, "sqlite: parse base rate id %s", id)
	}
	if terr != nil {
		br.Territory = *terr
	}
	if basis != nil {
		br.ExposureBasis = model.ExposureBasis(*basis)
	}
	if conf != nil {
		br.Confidence = *conf
	}
	return &br, nil
}

func (s *SQLiteStore) LoadRatingFactor(ctx context.Context, rateTableID uuid.UUID, factorType model.FactorType, factorKey string) (float64, bool, error) {
	if factorKey == "" {
		return 1.0, false, nil
	}

	var value float64
	err := s.db.QueryRowContext(ctx,
		`SELECT factor_value FROM rating_factors
		 WHERE rate_table_id = ? AND factor_type = ? AND factor_key = ?
		 LIMIT 1`,
		rateTableID.String(), string(factorType), factorKey,
	).Scan(&value)
	if err == nil {
		return value, true, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 1.0, false, eris.Wrap(err, "sqlite: load rating factor")
	}

	if factorType == model.FactorClass && len(factorKey) > 3 {
		err = s.db.QueryRowContext(ctx,
			`SELECT factor_value FROM rating_factors
			 WHERE rate_table_id = ? AND factor_type = ? AND ? LIKE factor_key || '%'
			 ORDER BY length(factor_key) DESC
			 LIMIT 1`,
			rateTableID.String(), string(factorType), factorKey,
		).Scan(&value)
		if err == nil {
			return value, true, nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return 1.0, false, eris.Wrap(err, "sqlite: load rating factor prefix")
		}
	}

	return 1.0, false, nil
}

func (s *SQLiteStore) LoadCoverageHighlights(ctx context.Context, carrierID uuid.UUID, state, line string) ([]model.CoverageHighlight, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT coverage_type, limit_min, limit_max, default_limit, default_deductible, sublimits
		 FROM coverage_options
		 WHERE carrier_id = ? AND state = ? AND line = ? AND is_current = 1
		 ORDER BY coverage_type
		 LIMIT 10`,
		carrierID.String(), state, line,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: load coverage highlights")
	}
	defer rows.Close()

	var highlights []model.CoverageHighlight
	for rows.Next() {
		var (
			h             model.CoverageHighlight
			sublimitsJSON *string
		)
		if err := rows.Scan(&h.CoverageType, &h.LimitMin, &h.LimitMax, &h.DefaultLimit, &h.DefaultDeductible, &sublimitsJSON); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan coverage highlight")
		}
		if sublimitsJSON != nil && *sublimitsJSON != "" {
			if err := json.Unmarshal([]byte(*sublimitsJSON), &h.Sublimits); err != nil {
				return nil, eris.Wrap(err, "sqlite: unmarshal sublimits")
			}
		}
		highlights = append(highlights, h)
	}
	return highlights, eris.Wrap(rows.Err(), "sqlite: load coverage highlights iterate")
}

func (s *SQLiteStore) LoadFilingReferences(ctx context.Context, carrierID uuid.UUID, state, line string) ([]model.FilingReference, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT tracking_number, filing_type, status, effective_date, filed_date,
			overall_rate_change_pct, filing_description
		 FROM filings
		 WHERE carrier_id = ? AND state = ? AND line_of_business = ?
			AND status IN ('approved', 'pending')
		 ORDER BY effective_date IS NULL, effective_date DESC
		 LIMIT 5`,
		carrierID.String(), state, line,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: load filing references")
	}
	defer rows.Close()

	var refs []model.FilingReference
	for rows.Next() {
		var (
			f    model.FilingReference
			typ  *string
			stat *string
			desc *string
		)
		if err := rows.Scan(&f.TrackingNumber, &typ, &stat, &f.EffectiveDate, &f.FiledDate, &f.OverallRateChange, &desc); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan filing reference")
		}
		if typ != nil {
			f.FilingType = *typ
		}
		if stat != nil {
			f.Status = *stat
		}
		if desc != nil {
			f.FilingDescription = *desc
		}
		refs = append(refs, f)
	}
	return refs, eris.Wrap(rows.Err(), "sqlite: load filing references iterate")
}

func (s *SQLiteStore) LoadMarketIntelligence(ctx context.Context, state, line string) (*model.MarketIntelligence, error) {
	var (
		mi             model.MarketIntelligence
		id             string
		entrantsJSON   *string
		withdrawalJSON *string
		shiftsJSON     *string
		trend          *string
		summary        *string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, state, line, period_start, period_end, avg_rate_change_pct,
			median_rate_change_pct, filing_count, rate_increase_count, rate_decrease_count,
			new_entrant_count, withdrawal_count, new_entrants, withdrawals,
			top_appetite_shifts, market_trend, summary, computed_at
		 FROM market_intelligence
		 WHERE state = ? AND line = ?
		 ORDER BY period_end DESC
		 LIMIT 1`,
		state, line,
	).Scan(
		&id, &mi.State, &mi.Line, &mi.PeriodStart, &mi.PeriodEnd, &mi.AvgRateChangePct,
		&mi.MedianRateChangePct, &mi.FilingCount, &mi.RateIncreaseCount, &mi.RateDecreaseCount,
		&mi.NewEntrantCount, &mi.WithdrawalCount, &entrantsJSON, &withdrawalJSON,
		&shiftsJSON, &trend, &summary, &mi.ComputedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrap(err, "sqlite: load market intelligence")
	}
	if mi.ID, err = uuid.Parse(id); err != nil {
		return nil, eris.Wrapf(err, "sqlite: parse market intelligence id %s", id)
	}
	for _, col := range []struct {
		raw  *string
		dest any
	}{
		{entrantsJSON, &mi.NewEntrants},
		{withdrawalJSON, &mi.Withdrawals},
		{shiftsJSON, &mi.TopAppetiteShifts},
	} {
		if col.raw == nil || *col.raw == "" {
			continue
		}
		if err := json.Unmarshal([]byte(*col.raw), col.dest); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal market intelligence json")
		}
	}
	if trend != nil {
		mi.MarketTrend = *trend
	}
	if summary != nil {
		mi.Summary = *summary
	}
	return &mi, nil
}
