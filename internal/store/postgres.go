package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/quotewell/placement-cli/internal/db"
	"github.com/quotewell/placement-cli/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// preparedStatements lists the per-carrier hot-path queries to prepare on
// each new connection; match calls issue these once per carrier evaluated.
var preparedStatements = map[string]string{
	"load_appetite_profile": sqlLoadAppetiteProfile,
	"load_recent_signals":   sqlLoadRecentSignals,
	"load_criteria":         sqlLoadCriteria,
	"load_rate_table":       sqlLoadRateTable,
	"load_rating_factor":    sqlLoadRatingFactor,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// Pool returns the underlying database pool for subsystems that need direct
// query access.
func (s *PostgresStore) Pool() db.Pool {
	return s.pool
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS carriers (
	id              TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	naic_code       TEXT NOT NULL DEFAULT '',
	legal_name      TEXT NOT NULL,
	status          TEXT NOT NULL DEFAULT 'active',
	am_best_rating  TEXT,
	am_best_outlook TEXT,
	created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS appetite_profiles (
	id                         TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	carrier_id                 TEXT NOT NULL REFERENCES carriers(id),
	state                      TEXT NOT NULL,
	line                       TEXT NOT NULL,
	is_current                 BOOLEAN NOT NULL DEFAULT TRUE,
	appetite_score             DOUBLE PRECISION NOT NULL DEFAULT 5,
	eligible_classes           JSONB,
	ineligible_classes         JSONB,
	preferred_classes          JSONB,
	territory_preferences      JSONB,
	limit_range_min            DOUBLE PRECISION,
	limit_range_max            DOUBLE PRECISION,
	rate_competitiveness_index DOUBLE PRECISION,
	last_rate_change_pct       DOUBLE PRECISION,
	last_rate_change_date      DATE,
	filing_frequency_score     DOUBLE PRECISION,
	years_active_in_state      DOUBLE PRECISION,
	market_share_estimate      DOUBLE PRECISION,
	source_filing_count        INTEGER NOT NULL DEFAULT 0,
	computed_at                TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE UNIQUE INDEX IF NOT EXISTS uq_appetite_current
	ON appetite_profiles(carrier_id, state, line) WHERE is_current;

CREATE TABLE IF NOT EXISTS appetite_signals (
	id                 TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	carrier_id         TEXT NOT NULL REFERENCES carriers(id),
	state              TEXT NOT NULL,
	line               TEXT NOT NULL,
	signal_type        TEXT NOT NULL,
	signal_strength    DOUBLE PRECISION NOT NULL DEFAULT 5,
	signal_date        DATE NOT NULL,
	signal_description TEXT,
	confidence         DOUBLE PRECISION
);

CREATE INDEX IF NOT EXISTS idx_signals_lookup
	ON appetite_signals(carrier_id, state, line, signal_date DESC);

CREATE TABLE IF NOT EXISTS underwriting_rules (
	id         TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	carrier_id TEXT NOT NULL REFERENCES carriers(id),
	state      TEXT NOT NULL,
	line       TEXT NOT NULL,
	is_current BOOLEAN NOT NULL DEFAULT TRUE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_rules_lookup
	ON underwriting_rules(carrier_id, state, line) WHERE is_current;

CREATE TABLE IF NOT EXISTS eligibility_criteria (
	id                 TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	rule_id            TEXT NOT NULL REFERENCES underwriting_rules(id),
	criterion_type     TEXT NOT NULL,
	criterion_operator TEXT NOT NULL DEFAULT 'equals',
	criterion_value    TEXT NOT NULL DEFAULT '',
	criterion_unit     TEXT,
	is_hard_rule       BOOLEAN NOT NULL DEFAULT TRUE,
	description        TEXT,
	confidence         DOUBLE PRECISION
);

CREATE INDEX IF NOT EXISTS idx_criteria_rule ON eligibility_criteria(rule_id);

CREATE TABLE IF NOT EXISTS rate_tables (
	id                    TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	carrier_id            TEXT NOT NULL REFERENCES carriers(id),
	state                 TEXT NOT NULL,
	line                  TEXT NOT NULL,
	is_current            BOOLEAN NOT NULL DEFAULT TRUE,
	table_name            TEXT,
	table_type            TEXT,
	effective_date        DATE,
	extraction_confidence DOUBLE PRECISION
);

CREATE INDEX IF NOT EXISTS idx_rate_tables_lookup
	ON rate_tables(carrier_id, state, line) WHERE is_current;

CREATE TABLE IF NOT EXISTS base_rates (
	id              TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	rate_table_id   TEXT NOT NULL REFERENCES rate_tables(id),
	class_code      TEXT NOT NULL,
	territory       TEXT,
	base_rate       DOUBLE PRECISION NOT NULL,
	rate_per_unit   DOUBLE PRECISION,
	minimum_premium DOUBLE PRECISION,
	maximum_premium DOUBLE PRECISION,
	exposure_basis  TEXT,
	confidence      DOUBLE PRECISION
);

CREATE INDEX IF NOT EXISTS idx_base_rates_lookup ON base_rates(rate_table_id, class_code);

CREATE TABLE IF NOT EXISTS rating_factors (
	id            TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	rate_table_id TEXT NOT NULL REFERENCES rate_tables(id),
	factor_type   TEXT NOT NULL,
	factor_key    TEXT NOT NULL,
	factor_value  DOUBLE PRECISION NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_rating_factors_lookup
	ON rating_factors(rate_table_id, factor_type, factor_key);

CREATE TABLE IF NOT EXISTS territory_definitions (
	id             TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	rate_table_id  TEXT NOT NULL REFERENCES rate_tables(id),
	territory_code TEXT NOT NULL,
	territory_name TEXT,
	zip_codes      JSONB NOT NULL DEFAULT '[]'
);

CREATE INDEX IF NOT EXISTS idx_territory_defs_table ON territory_definitions(rate_table_id);

CREATE TABLE IF NOT EXISTS coverage_options (
	id                 TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	carrier_id         TEXT NOT NULL REFERENCES carriers(id),
	state              TEXT NOT NULL,
	line               TEXT NOT NULL,
	is_current         BOOLEAN NOT NULL DEFAULT TRUE,
	coverage_type      TEXT NOT NULL,
	limit_min          DOUBLE PRECISION,
	limit_max          DOUBLE PRECISION,
	default_limit      DOUBLE PRECISION,
	default_deductible DOUBLE PRECISION,
	sublimits          JSONB
);

CREATE TABLE IF NOT EXISTS filings (
	id                      TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	carrier_id              TEXT NOT NULL REFERENCES carriers(id),
	state                   TEXT NOT NULL,
	line_of_business        TEXT NOT NULL,
	tracking_number         TEXT NOT NULL,
	filing_type             TEXT,
	status                  TEXT NOT NULL DEFAULT 'approved',
	effective_date          DATE,
	filed_date              DATE,
	overall_rate_change_pct DOUBLE PRECISION,
	filing_description      TEXT
);

CREATE TABLE IF NOT EXISTS market_intelligence (
	id                     TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	state                  TEXT NOT NULL,
	line                   TEXT NOT NULL,
	period_start           DATE,
	period_end             DATE,
	avg_rate_change_pct    DOUBLE PRECISION,
	median_rate_change_pct DOUBLE PRECISION,
	filing_count           INTEGER NOT NULL DEFAULT 0,
	rate_increase_count    INTEGER NOT NULL DEFAULT 0,
	rate_decrease_count    INTEGER NOT NULL DEFAULT 0,
	new_entrant_count      INTEGER NOT NULL DEFAULT 0,
	withdrawal_count       INTEGER NOT NULL DEFAULT 0,
	new_entrants           JSONB,
	withdrawals            JSONB,
	top_appetite_shifts    JSONB,
	market_trend           TEXT,
	summary                TEXT,
	computed_at            TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_market_intel_lookup ON market_intelligence(state, line, period_end DESC);
`

const (
	sqlLoadAppetiteProfile = `SELECT id, appetite_score, eligible_classes, ineligible_classes, preferred_classes,
		territory_preferences, limit_range_min, limit_range_max, rate_competitiveness_index,
		last_rate_change_pct, last_rate_change_date, filing_frequency_score, years_active_in_state,
		market_share_estimate, source_filing_count, computed_at
	FROM appetite_profiles
	WHERE carrier_id = $1 AND state = $2 AND line = $3 AND is_current = TRUE
	LIMIT 1`

	sqlLoadRecentSignals = `SELECT id, signal_type, signal_strength, signal_date, signal_description, confidence
	FROM appetite_signals
	WHERE carrier_id = $1 AND state = $2 AND line = $3 AND signal_date >= $4
	ORDER BY signal_date DESC
	LIMIT 50`

	sqlLoadCriteria = `SELECT ec.id, ec.criterion_type, ec.criterion_operator, ec.criterion_value,
		ec.criterion_unit, ec.is_hard_rule, ec.description, ec.confidence
	FROM eligibility_criteria ec
	JOIN underwriting_rules ur ON ur.id = ec.rule_id
	WHERE ur.carrier_id = $1 AND ur.state = $2 AND ur.line = $3 AND ur.is_current = TRUE
	ORDER BY ec.is_hard_rule DESC, ec.criterion_type`

	sqlLoadRateTable = `SELECT id, table_name, table_type, effective_date, extraction_confidence
	FROM rate_tables
	WHERE carrier_id = $1 AND state = $2 AND line = $3 AND is_current = TRUE
	ORDER BY effective_date DESC
	LIMIT 1`

	sqlLoadRatingFactor = `SELECT factor_value
	FROM rating_factors
	WHERE rate_table_id = $1 AND factor_type = $2 AND factor_key = $3
	LIMIT 1`
)

func (s *PostgresStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.pool.Ping(ctx), "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) FindActiveCarriers(ctx context.Context, state, line string) ([]model.Carrier, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT DISTINCT c.id, c.naic_code, c.legal_name, COALESCE(c.am_best_rating, ''), COALESCE(c.am_best_outlook, '')
		 FROM carriers c
		 JOIN appetite_profiles ap ON ap.carrier_id = c.id
		 WHERE ap.state = $1 AND ap.line = $2 AND ap.is_current = TRUE AND c.status = 'active'
		 ORDER BY c.legal_name`,
		state, line,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: find active carriers")
	}
	defer rows.Close()

	var carriers []model.Carrier
	for rows.Next() {
		var c model.Carrier
		var id string
		if err := rows.Scan(&id, &c.NAICCode, &c.LegalName, &c.AMBestRating, &c.AMBestOutlook); err != nil {
			return nil, eris.Wrap(err, "postgres: scan carrier")
		}
		c.ID, err = uuid.Parse(id)
		if err != nil {
			return nil, eris.Wrapf(err, "postgres: parse carrier id %s", id)
		}
		carriers = append(carriers, c)
	}
	return carriers, eris.Wrap(rows.Err(), "postgres: find active carriers iterate")
}

func (s *PostgresStore) LoadAppetiteProfile(ctx context.Context, carrierID uuid.UUID, state, line string) (*model.AppetiteProfile, error) {
	var (
		p              model.AppetiteProfile
		id             string
		eligibleJSON   []byte
		ineligibleJSON []byte
		preferredJSON  []byte
		territoryJSON  []byte
	)

	err := s.pool.QueryRow(ctx, sqlLoadAppetiteProfile, carrierID.String(), state, line).Scan(
		&id, &p.AppetiteRating, &eligibleJSON, &ineligibleJSON, &preferredJSON,
		&territoryJSON, &p.LimitRangeMin, &p.LimitRangeMax, &p.RateCompetitivenessIndex,
		&p.LastRateChangePct, &p.LastRateChangeDate, &p.FilingFrequencyScore,
		&p.YearsActiveInState, &p.MarketShareEstimate, &p.SourceFilingCount, &p.ComputedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrap(err, "postgres: load appetite profile")
	}

	if p.ID, err = uuid.Parse(id); err != nil {
		return nil, eris.Wrapf(err, "postgres: parse profile id %s", id)
	}
	for _, col := range []struct {
		raw  []byte
		dest any
	}{
		{eligibleJSON, &p.EligibleClasses},
		{ineligibleJSON, &p.IneligibleClasses},
		{preferredJSON, &p.PreferredClasses},
		{territoryJSON, &p.TerritoryPreferences},
	} {
		if len(col.raw) == 0 {
			continue
		}
		if err := json.Unmarshal(col.raw, col.dest); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal appetite profile json")
		}
	}
	return &p, nil
}

func (s *PostgresStore) LoadRecentSignals(ctx context.Context, carrierID uuid.UUID, state, line string, lookbackDays int) ([]model.AppetiteSignal, error) {
	if lookbackDays <= 0 {
		lookbackDays = DefaultSignalLookbackDays
	}
	cutoff := time.Now().UTC().AddDate(0, 0, -lookbackDays)

	rows, err := s.pool.Query(ctx, sqlLoadRecentSignals, carrierID.String(), state, line, cutoff)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: load recent signals")
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
			return nil, eris.Wrap(err, "postgres: scan signal")
		}
		if sig.ID, err = uuid.Parse(id); err != nil {
			return nil, eris.Wrapf(err, "postgres: parse signal id %s", id)
		}
		if desc != nil {
			sig.Description = *desc
		}
		if conf != nil {
			sig.Confidence = *conf
		}
		signals = append(signals, sig)
	}
	return signals, eris.Wrap(rows.Err(), "postgres: load recent signals iterate")
}

func (s *PostgresStore) LoadEligibilityCriteria(ctx context.Context, carrierID uuid.UUID, state, line string) ([]model.EligibilityCriterion, error) {
	rows, err := s.pool.Query(ctx, sqlLoadCriteria, carrierID.String(), state, line)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: load eligibility criteria")
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
			return nil, eris.Wrap(err, "postgres: scan criterion")
		}
		if c.ID, err = uuid.Parse(id); err != nil {
			return nil, eris.Wrapf(err, "postgres: parse criterion id %s", id)
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
	return criteria, eris.Wrap(rows.Err(), "postgres: load eligibility criteria iterate")
}

func (s *PostgresStore) LoadRateTable(ctx context.Context, carrierID uuid.UUID, state, line string) (*model.RateTable, error) {
	var (
		rt   model.RateTable
		id   string
		name *string
		typ  *string
		conf *float64
	)
	err := s.pool.QueryRow(ctx, sqlLoadRateTable, carrierID.String(), state, line).Scan(
		&id, &name, &typ, &rt.EffectiveDate, &conf,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrap(err, "postgres: load rate table")
	}
	if rt.ID, err = uuid.Parse(id); err != nil {
		return nil, eris.Wrapf(err, "postgres: parse rate table id %s", id)
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

func (s *PostgresStore) LookupTerritory(ctx context.Context, rateTableID uuid.UUID, zipCode string) (string, error) {
	if zipCode == "" {
		return "", nil
	}

	zipJSON, err := json.Marshal([]string{zipCode})
	if err != nil {
		return "", eris.Wrap(err, "postgres: marshal zip")
	}

	var code string
	err = s.pool.QueryRow(ctx,
		`SELECT territory_code FROM territory_definitions
		 WHERE rate_table_id = $1 AND zip_codes @> $2::jsonb
		 LIMIT 1`,
		rateTableID.String(), string(zipJSON),
	).Scan(&code)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil
		}
		return "", eris.Wrap(err, "postgres: lookup territory")
	}
	return code, nil
}

func (s *PostgresStore) LoadBaseRate(ctx context.Context, rateTableID uuid.UUID, classCode, territory string) (*model.BaseRate, error) {
	if classCode == "" {
		return nil, nil
	}

	// Class codes are hierarchical: accept an exact match or either value
	// being a prefix of the other, longest stored code wins.
	var (
		query string
		args  []any
	)
	if territory != "" {
		query = `SELECT id, class_code, territory, base_rate, rate_per_unit, minimum_premium,
			maximum_premium, exposure_basis, confidence
		FROM base_rates
		WHERE rate_table_id = $1
			AND (class_code = $2 OR $2 LIKE class_code || '%' OR class_code LIKE $2 || '%')
			AND territory = $3
		ORDER BY length(class_code) DESC
		LIMIT 1`
		args = []any{rateTableID.String(), classCode, territory}
	} else {
		query = `SELECT id, class_code, territory, base_rate, rate_per_unit, minimum_premium,
			maximum_premium, exposure_basis, confidence
		FROM base_rates
		WHERE rate_table_id = $1
			AND (class_code = $2 OR $2 LIKE class_code || '%' OR class_code LIKE $2 || '%')
		ORDER BY CASE WHEN territory IS NULL THEN 1 ELSE 0 END, length(class_code) DESC
		LIMIT 1`
		args = []any{rateTableID.String(), classCode}
	}

	var (
		br    model.BaseRate
		id    string
		terr  *string
		basis *string
		conf  *float64
	)
	err := s.pool.QueryRow(ctx, query, args...).Scan(
		&id, &br.ClassCode, &terr, &br.Rate, &br.RatePerUnit,
		&br.MinimumPremium, &br.MaximumPremium, &basis, &conf,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrap(err, "postgres: load base rate")
	}
	if br.ID, err = uuid.Parse(id); err != nil {
		return nil, eris.Wrapf(err, "postgres: parse base rate id %s", id)
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

func (s *PostgresStore) LoadRatingFactor(ctx context.Context, rateTableID uuid.UUID, factorType model.FactorType, factorKey string) (float64, bool, error) {
	if factorKey == "" {
		return 1.0, false, nil
	}

	var value float64
	err := s.pool.QueryRow(ctx, sqlLoadRatingFactor, rateTableID.String(), string(factorType), factorKey).Scan(&value)
	if err == nil {
		return value, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 1.0, false, eris.Wrap(err, "postgres: load rating factor")
	}

	// Prefix fallback applies to class-code lookups only (e.g. a "236"
	// factor row covers class "236118").
	if factorType == model.FactorClass && len(factorKey) > 3 {
		err = s.pool.QueryRow(ctx,
			`SELECT factor_value FROM rating_factors
			 WHERE rate_table_id = $1 AND factor_type = $2 AND $3 LIKE factor_key || '%'
			 ORDER BY length(factor_key) DESC
			 LIMIT 1`,
			rateTableID.String(), string(factorType), factorKey,
		).Scan(&value)
		if err == nil {
			return value, true, nil
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return 1.0, false, eris.Wrap(err, "postgres: load rating factor prefix")
		}
	}

	return 1.0, false, nil
}

func (s *PostgresStore) LoadCoverageHighlights(ctx context.Context, carrierID uuid.UUID, state, line string) ([]model.CoverageHighlight, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT coverage_type, limit_min, limit_max, default_limit, default_deductible, sublimits
		 FROM coverage_options
		 WHERE carrier_id = $1 AND state = $2 AND line = $3 AND is_current = TRUE
		 ORDER BY coverage_type
		 LIMIT 10`,
		carrierID.String(), state, line,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: load coverage highlights")
	}
	defer rows.Close()

	var highlights []model.CoverageHighlight
	for rows.Next() {
		var (
			h             model.CoverageHighlight
			sublimitsJSON []byte
		)
		if err := rows.Scan(&h.CoverageType, &h.LimitMin, &h.LimitMax, &h.DefaultLimit, &h.DefaultDeductible, &sublimitsJSON); err != nil {
			return nil, eris.Wrap(err, "postgres: scan coverage highlight")
		}
		if len(sublimitsJSON) > 0 {
			if err := json.Unmarshal(sublimitsJSON, &h.Sublimits); err != nil {
				return nil, eris.Wrap(err, "postgres: unmarshal sublimits")
			}
		}
		highlights = append(highlights, h)
	}
	return highlights, eris.Wrap(rows.Err(), "postgres: load coverage highlights iterate")
}

func (s *PostgresStore) LoadFilingReferences(ctx context.Context, carrierID uuid.UUID, state, line string) ([]model.FilingReference, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT tracking_number, filing_type, status, effective_date, filed_date,
			overall_rate_change_pct, filing_description
		 FROM filings
		 WHERE carrier_id = $1 AND state = $2 AND line_of_business = $3
			AND status IN ('approved', 'pending')
		 ORDER BY effective_date DESC NULLS LAST
		 LIMIT 5`,
		carrierID.String(), state, line,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: load filing references")
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
			return nil, eris.Wrap(err, "postgres: scan filing reference")
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
	return refs, eris.Wrap(rows.Err(), "postgres: load filing references iterate")
}

func (s *PostgresStore) LoadMarketIntelligence(ctx context.Context, state, line string) (*model.MarketIntelligence, error) {
	var (
		mi             model.MarketIntelligence
		id             string
		entrantsJSON   []byte
		withdrawalJSON []byte
		shiftsJSON     []byte
		trend          *string
		summary        *string
	)
	err := s.pool.QueryRow(ctx,
		`SELECT id, state, line, period_start, period_end, avg_rate_change_pct,
			median_rate_change_pct, filing_count, rate_increase_count, rate_decrease_count,
			new_entrant_count, withdrawal_count, new_entrants, withdrawals,
			top_appetite_shifts, market_trend, summary, computed_at
		 FROM market_intelligence
		 WHERE state = $1 AND line = $2
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
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrap(err, "postgres: load market intelligence")
	}
	if mi.ID, err = uuid.Parse(id); err != nil {
		return nil, eris.Wrapf(err, "postgres: parse market intelligence id %s", id)
	}
	for _, col := range []struct {
		raw  []byte
		dest any
	}{
		{entrantsJSON, &mi.NewEntrants},
		{withdrawalJSON, &mi.Withdrawals},
		{shiftsJSON, &mi.TopAppetiteShifts},
	} {
		if len(col.raw) == 0 {
			continue
		}
		if err := json.Unmarshal(col.raw, col.dest); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal market intelligence json")
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
