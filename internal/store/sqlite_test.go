package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quotewell/placement-cli/internal/model"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func seedTestFixture(t *testing.T, st *SQLiteStore) model.Carrier {
	t.Helper()
	ctx := context.Background()

	pref := 8.0
	effective := time.Now().UTC().AddDate(0, -6, 0)
	minPrem := 500.0

	fx := &SeedFixture{
		Carriers: []SeedCarrier{
			{
				LegalName:    "Lone Star Mutual Insurance Company",
				NAICCode:     "12345",
				Status:       "active",
				AMBestRating: "A",
				Programs: []SeedProgram{
					{
						State: "TX",
						Line:  "general_liability",
						Appetite: &SeedAppetite{
							Rating:           7,
							EligibleClasses:  []string{"2361", "238"},
							PreferredClasses: []string{"236118"},
							TerritoryPreferences: map[string]*float64{
								"TX": &pref,
								"OK": nil,
							},
						},
						Signals: []SeedSignal{
							{
								Type:       "rate_decrease",
								Strength:   7,
								Date:       time.Now().UTC().AddDate(0, 0, -30),
								Confidence: 0.8,
							},
							{
								Type:     "new_filing",
								Strength: 5,
								Date:     time.Now().UTC().AddDate(0, 0, -400),
							},
						},
						Criteria: []SeedCriterion{
							{
								Type:     "max_loss_ratio",
								Operator: "lte",
								Value:    "0.65",
								Hard:     false,
							},
							{
								Type:        "min_years_business",
								Operator:    "gte",
								Value:       "3",
								Unit:        "years",
								Hard:        true,
								Description: "Minimum 3 years in business",
							},
						},
						Rates: &SeedRateTable{
							TableName:            "GL Base Rates 2026",
							EffectiveDate:        &effective,
							ExtractionConfidence: 0.9,
							Territories: []SeedTerritory{
								{Code: "T1", Name: "Metro", ZipCodes: []string{"78701", "78702"}},
							},
							BaseRates: []SeedBaseRate{
								{
									ClassCode:      "236118",
									Territory:      "T1",
									Rate:           2.35,
									ExposureBasis:  "revenue",
									MinimumPremium: &minPrem,
								},
								{ClassCode: "2361", Rate: 1.9, ExposureBasis: "revenue"},
							},
							Factors: []SeedFactor{
								{Type: "territory", Key: "T1", Value: 1.12},
								{Type: "class", Key: "2361", Value: 0.95},
							},
						},
						Coverage: []SeedCoverage{
							{
								CoverageType: "general_liability",
								Sublimits:    map[string]float64{"products": 1_000_000},
							},
						},
						Filings: []SeedFiling{
							{TrackingNumber: "TX-2026-0147", FilingType: "rate"},
						},
					},
				},
			},
		},
		Market: []SeedMarket{
			{
				State:       "TX",
				Line:        "general_liability",
				FilingCount: 42,
				MarketTrend: "softening",
				NewEntrants: []string{"Lone Star Mutual Insurance Company"},
			},
		},
	}
	require.NoError(t, st.Seed(ctx, fx))

	carriers, err := st.FindActiveCarriers(ctx, "TX", "general_liability")
	require.NoError(t, err)
	require.Len(t, carriers, 1)
	return carriers[0]
}

func TestSQLite_FindActiveCarriers(t *testing.T) {
	st := newTestSQLiteStore(t)
	carrier := seedTestFixture(t, st)

	assert.Equal(t, "Lone Star Mutual Insurance Company", carrier.LegalName)
	assert.Equal(t, "12345", carrier.NAICCode)
	assert.Equal(t, "A", carrier.AMBestRating)
	assert.Empty(t, carrier.AMBestOutlook)

	// No appetite profile for this line, so no carriers.
	none, err := st.FindActiveCarriers(context.Background(), "TX", "commercial_property")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestSQLite_LoadAppetiteProfile(t *testing.T) {
	st := newTestSQLiteStore(t)
	carrier := seedTestFixture(t, st)
	ctx := context.Background()

	p, err := st.LoadAppetiteProfile(ctx, carrier.ID, "TX", "general_liability")
	require.NoError(t, err)
	require.NotNil(t, p)

	assert.Equal(t, 7.0, p.AppetiteRating)
	assert.Equal(t, []string{"2361", "238"}, p.EligibleClasses)
	assert.Equal(t, []string{"236118"}, p.PreferredClasses)
	require.Contains(t, p.TerritoryPreferences, "TX")
	require.NotNil(t, p.TerritoryPreferences["TX"])
	assert.Equal(t, 8.0, *p.TerritoryPreferences["TX"])
	require.Contains(t, p.TerritoryPreferences, "OK")
	assert.Nil(t, p.TerritoryPreferences["OK"])
	assert.Nil(t, p.LimitRangeMin)
}

func TestSQLite_LoadAppetiteProfile_Missing(t *testing.T) {
	st := newTestSQLiteStore(t)
	carrier := seedTestFixture(t, st)

	p, err := st.LoadAppetiteProfile(context.Background(), carrier.ID, "CA", "general_liability")
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestSQLite_LoadRecentSignals_WindowFilter(t *testing.T) {
	st := newTestSQLiteStore(t)
	carrier := seedTestFixture(t, st)

	// The 400-day-old new_filing signal falls outside the default window.
	signals, err := st.LoadRecentSignals(context.Background(), carrier.ID, "TX", "general_liability", 0)
	require.NoError(t, err)
	require.Len(t, signals, 1)
	assert.Equal(t, model.SignalRateDecrease, signals[0].Type)
	assert.Equal(t, 7.0, signals[0].Strength)
	assert.Equal(t, 0.8, signals[0].Confidence)

	// A wide window picks up both, newest first.
	signals, err = st.LoadRecentSignals(context.Background(), carrier.ID, "TX", "general_liability", 500)
	require.NoError(t, err)
	require.Len(t, signals, 2)
	assert.Equal(t, model.SignalRateDecrease, signals[0].Type)
	assert.Equal(t, model.SignalNewFiling, signals[1].Type)
}

func TestSQLite_LoadEligibilityCriteria(t *testing.T) {
	st := newTestSQLiteStore(t)
	carrier := seedTestFixture(t, st)

	criteria, err := st.LoadEligibilityCriteria(context.Background(), carrier.ID, "TX", "general_liability")
	require.NoError(t, err)
	require.Len(t, criteria, 2)

	// Hard rules sort first.
	assert.Equal(t, model.CriterionMinYearsBusiness, criteria[0].Type)
	assert.True(t, criteria[0].HardRule)
	assert.Equal(t, "years", criteria[0].Unit)
	assert.Equal(t, "Minimum 3 years in business", criteria[0].Description)

	assert.Equal(t, model.CriterionMaxLossRatio, criteria[1].Type)
	assert.False(t, criteria[1].HardRule)
	assert.Equal(t, "0.65", criteria[1].Value)
}

func TestSQLite_RateTableLookups(t *testing.T) {
	st := newTestSQLiteStore(t)
	carrier := seedTestFixture(t, st)
	ctx := context.Background()

	rt, err := st.LoadRateTable(ctx, carrier.ID, "TX", "general_liability")
	require.NoError(t, err)
	require.NotNil(t, rt)
	assert.Equal(t, "GL Base Rates 2026", rt.TableName)
	assert.Equal(t, 0.9, rt.ExtractionConfidence)

	missing, err := st.LoadRateTable(ctx, carrier.ID, "TX", "commercial_property")
	require.NoError(t, err)
	assert.Nil(t, missing)

	territory, err := st.LookupTerritory(ctx, rt.ID, "78701")
	require.NoError(t, err)
	assert.Equal(t, "T1", territory)

	territory, err = st.LookupTerritory(ctx, rt.ID, "99999")
	require.NoError(t, err)
	assert.Empty(t, territory)
}

func TestSQLite_LoadBaseRate(t *testing.T) {
	st := newTestSQLiteStore(t)
	carrier := seedTestFixture(t, st)
	ctx := context.Background()

	rt, err := st.LoadRateTable(ctx, carrier.ID, "TX", "general_liability")
	require.NoError(t, err)
	require.NotNil(t, rt)

	// Exact class and territory.
	br, err := st.LoadBaseRate(ctx, rt.ID, "236118", "T1")
	require.NoError(t, err)
	require.NotNil(t, br)
	assert.Equal(t, 2.35, br.Rate)
	require.NotNil(t, br.MinimumPremium)
	assert.Equal(t, 500.0, *br.MinimumPremium)

	// Territory-less lookup falls back to the class-prefix row.
	br, err = st.LoadBaseRate(ctx, rt.ID, "236120", "")
	require.NoError(t, err)
	require.NotNil(t, br)
	assert.Equal(t, "2361", br.ClassCode)
	assert.Equal(t, 1.9, br.Rate)

	br, err = st.LoadBaseRate(ctx, rt.ID, "991234", "")
	require.NoError(t, err)
	assert.Nil(t, br)
}

func TestSQLite_LoadRatingFactor(t *testing.T) {
	st := newTestSQLiteStore(t)
	carrier := seedTestFixture(t, st)
	ctx := context.Background()

	rt, err := st.LoadRateTable(ctx, carrier.ID, "TX", "general_liability")
	require.NoError(t, err)
	require.NotNil(t, rt)

	value, found, err := st.LoadRatingFactor(ctx, rt.ID, model.FactorTerritory, "T1")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 1.12, value)

	// Class factors fall back to the longest stored prefix.
	value, found, err = st.LoadRatingFactor(ctx, rt.ID, model.FactorClass, "236118")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 0.95, value)

	value, found, err = st.LoadRatingFactor(ctx, rt.ID, model.FactorDeductible, "5000")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Equal(t, 1.0, value)
}

func TestSQLite_LoadCoverageHighlights(t *testing.T) {
	st := newTestSQLiteStore(t)
	carrier := seedTestFixture(t, st)

	highlights, err := st.LoadCoverageHighlights(context.Background(), carrier.ID, "TX", "general_liability")
	require.NoError(t, err)
	require.Len(t, highlights, 1)
	assert.Equal(t, "general_liability", highlights[0].CoverageType)
	assert.Equal(t, 1_000_000.0, highlights[0].Sublimits["products"])
}

func TestSQLite_LoadFilingReferences(t *testing.T) {
	st := newTestSQLiteStore(t)
	carrier := seedTestFixture(t, st)

	refs, err := st.LoadFilingReferences(context.Background(), carrier.ID, "TX", "general_liability")
	require.NoError(t, err)
	require.Len(t, refs, 1)
	assert.Equal(t, "TX-2026-0147", refs[0].TrackingNumber)
	assert.Equal(t, "rate", refs[0].FilingType)
	// Empty fixture status defaults to approved.
	assert.Equal(t, "approved", refs[0].Status)
}

func TestSQLite_LoadMarketIntelligence(t *testing.T) {
	st := newTestSQLiteStore(t)
	seedTestFixture(t, st)
	ctx := context.Background()

	mi, err := st.LoadMarketIntelligence(ctx, "TX", "general_liability")
	require.NoError(t, err)
	require.NotNil(t, mi)
	assert.Equal(t, 42, mi.FilingCount)
	assert.Equal(t, "softening", mi.MarketTrend)
	assert.Equal(t, []string{"Lone Star Mutual Insurance Company"}, mi.NewEntrants)

	missing, err := st.LoadMarketIntelligence(ctx, "WY", "inland_marine")
	require.NoError(t, err)
	assert.Nil(t, missing)
}
