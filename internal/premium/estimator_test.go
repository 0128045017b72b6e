package premium

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quotewell/placement-cli/internal/model"
	"github.com/quotewell/placement-cli/internal/store"
)

// stubStore serves a single rate table with in-memory territory, base-rate,
// and factor lookups.
type stubStore struct {
	store.Store
	rateTable   *model.RateTable
	territories map[string]string // zip -> territory code
	baseRates   map[string]*model.BaseRate
	factors     map[string]float64 // "type/key" -> value
}

func (s *stubStore) LoadRateTable(ctx context.Context, carrierID uuid.UUID, state, line string) (*model.RateTable, error) {
	return s.rateTable, nil
}

func (s *stubStore) LookupTerritory(ctx context.Context, rateTableID uuid.UUID, zipCode string) (string, error) {
	return s.territories[zipCode], nil
}

func (s *stubStore) LoadBaseRate(ctx context.Context, rateTableID uuid.UUID, classCode, territory string) (*model.BaseRate, error) {
	return s.baseRates[classCode+"/"+territory], nil
}

func (s *stubStore) LoadRatingFactor(ctx context.Context, rateTableID uuid.UUID, factorType model.FactorType, factorKey string) (float64, bool, error) {
	if factorKey == "" {
		return 1.0, false, nil
	}
	v, ok := s.factors[string(factorType)+"/"+factorKey]
	if !ok {
		return 1.0, false, nil
	}
	return v, true, nil
}

func floatPtr(f float64) *float64 { return &f }

func fullStub() *stubStore {
	return &stubStore{
		rateTable:   &model.RateTable{ID: uuid.New(), TableName: "GL Base Rates"},
		territories: map[string]string{"78701": "T1"},
		baseRates: map[string]*model.BaseRate{
			"236118/T1": {ID: uuid.New(), ClassCode: "236118", Territory: "T1", Rate: 2.5, ExposureBasis: model.BasisRevenue},
		},
		factors: map[string]float64{
			"territory/T1":    1.10,
			"class/236118":    0.95,
			"ilf/1000000":     1.25,
			"deductible/5000": 0.90,
		},
	}
}

func baseRisk() *model.RiskProfile {
	return &model.RiskProfile{
		ClassCode:     "236118",
		State:         "TX",
		ZipCode:       "78701",
		AnnualRevenue: floatPtr(2_000_000),
		ExperienceMod: floatPtr(0.85),
		Lines:         []string{"general_liability"},
		RequestedLimits: map[string]float64{
			"occurrence": 1_000_000,
			"deductible": 5_000,
		},
	}
}

func estimate(t *testing.T, st store.Store, risk *model.RiskProfile) *Estimate {
	t.Helper()
	est, err := NewEstimator(st).EstimatePremium(context.Background(), uuid.New(), "TX", "general_liability", risk)
	require.NoError(t, err)
	return est
}

func TestEstimatePremium_FullPipeline(t *testing.T) {
	est := estimate(t, fullStub(), baseRisk())

	// 2.5 per $100 of 2M revenue = 50,000 base premium.
	assert.Equal(t, 50_000.0, est.BasePremium)
	assert.Equal(t, 1.10, est.TerritoryFactor)
	assert.Equal(t, 0.95, est.ClassFactor)
	assert.Equal(t, 0.85, est.ExperienceMod)
	assert.Equal(t, 1.25, est.ILFFactor)
	assert.Equal(t, 0.90, est.DeductibleFactor)
	assert.Equal(t, 0.0, est.ScheduleCredits)

	// 50000 * 1.10 * 0.95 * 0.85 * 1.25 * 0.90 = 49962.65625
	assert.InDelta(t, 49_962.66, est.FinalEstimated, 0.01)

	// 5 of 6 factors found (schedule credits never sourced).
	assert.InDelta(t, 0.833, est.Confidence, 1e-9)
	assert.Equal(t, "T1", est.Components["territory_code"])
	assert.Equal(t, "1000000", est.Components["limit_key"])
}

func TestEstimatePremium_NoRateTable(t *testing.T) {
	est := estimate(t, &stubStore{}, baseRisk())

	assert.Equal(t, 0.0, est.FinalEstimated)
	assert.Equal(t, 0.0, est.Confidence)
	require.NotEmpty(t, est.Notes)
	assert.Contains(t, est.Notes[0], "No current rate table")
}

func TestEstimatePremium_NoBaseRate(t *testing.T) {
	st := fullStub()
	st.baseRates = nil

	est := estimate(t, st, baseRisk())
	assert.Equal(t, 0.0, est.FinalEstimated)
	assert.Equal(t, 0.0, est.Confidence)
	require.NotEmpty(t, est.Notes)
	assert.Contains(t, est.Notes[0], "No base rate found")
}

func TestEstimatePremium_TerritoryFallbackToTerritorylessRate(t *testing.T) {
	st := fullStub()
	st.baseRates = map[string]*model.BaseRate{
		"236118/": {ID: uuid.New(), ClassCode: "236118", Rate: 3.0, ExposureBasis: model.BasisRevenue},
	}

	est := estimate(t, st, baseRisk())
	assert.Equal(t, 60_000.0, est.BasePremium)
}

func TestEstimatePremium_MissingOptionalInputsDegradeGracefully(t *testing.T) {
	risk := baseRisk()
	risk.ExperienceMod = nil
	risk.RequestedLimits = nil

	est := estimate(t, fullStub(), risk)

	assert.Equal(t, 1.0, est.ExperienceMod)
	assert.Equal(t, 1.0, est.ILFFactor)
	assert.Equal(t, 1.0, est.DeductibleFactor)
	// Only territory and class factors found.
	assert.InDelta(t, 0.333, est.Confidence, 1e-9)
}

func TestEstimatePremium_UnitBasisNotScaled(t *testing.T) {
	st := fullStub()
	st.baseRates["236118/T1"].ExposureBasis = model.BasisEmployees

	risk := baseRisk()
	risk.EmployeeCount = floatPtr(40)

	est := estimate(t, st, risk)
	// 2.5 per employee times 40 employees.
	assert.Equal(t, 100.0, est.BasePremium)
}

func TestEstimatePremium_MissingExposureDefaultsToOneUnit(t *testing.T) {
	risk := baseRisk()
	risk.AnnualRevenue = nil

	est := estimate(t, fullStub(), risk)
	assert.Equal(t, 2.5, est.BasePremium)
}

func TestExtractLimitKey(t *testing.T) {
	assert.Equal(t, "1000000", extractLimitKey(map[string]float64{"occurrence": 1_000_000, "aggregate": 2_000_000}))
	assert.Equal(t, "2000000", extractLimitKey(map[string]float64{"aggregate": 2_000_000}))
	assert.Equal(t, "500000", extractLimitKey(map[string]float64{"umbrella": 500_000}))
	assert.Equal(t, "", extractLimitKey(nil))
}
