package eligibility

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quotewell/placement-cli/internal/model"
	"github.com/quotewell/placement-cli/internal/store"
)

// stubStore returns canned criteria; other Store methods panic if called.
type stubStore struct {
	store.Store
	criteria []model.EligibilityCriterion
	err      error
}

func (s *stubStore) LoadEligibilityCriteria(ctx context.Context, carrierID uuid.UUID, state, line string) ([]model.EligibilityCriterion, error) {
	return s.criteria, s.err
}

func floatPtr(f float64) *float64 { return &f }

func baseRisk() *model.RiskProfile {
	return &model.RiskProfile{
		EntityName:      "Lonestar Framing LLC",
		ClassCode:       "236118",
		State:           "TX",
		ZipCode:         "78701",
		YearsInBusiness: floatPtr(6),
		AnnualRevenue:   floatPtr(2_400_000),
		EmployeeCount:   floatPtr(14),
		LossRatio3Yr:    floatPtr(0.42),
		Lines:           []string{"general_liability"},
	}
}

func check(t *testing.T, criteria []model.EligibilityCriterion, risk *model.RiskProfile) *Result {
	t.Helper()
	f := NewFilter(&stubStore{criteria: criteria})
	result, err := f.CheckEligibility(context.Background(), risk, uuid.New(), "TX", "general_liability")
	require.NoError(t, err)
	return result
}

func TestCheckEligibility_AllPass(t *testing.T) {
	criteria := []model.EligibilityCriterion{
		{Type: model.CriterionEligibleClass, Operator: model.OpIn, Value: `["236"]`, HardRule: true},
		{Type: model.CriterionMinYearsBusiness, Operator: model.OpGTE, Value: "3", HardRule: true},
		{Type: model.CriterionMaxLossRatio, Operator: model.OpLTE, Value: "0.65", HardRule: false},
	}

	result := check(t, criteria, baseRisk())
	assert.Equal(t, StatusPass, result.Status)
	assert.Empty(t, result.FailedCriteria)
	assert.Empty(t, result.ConditionalNotes)
	assert.Equal(t, 3, result.CriteriaChecked)
}

func TestCheckEligibility_HardFail(t *testing.T) {
	criteria := []model.EligibilityCriterion{
		{Type: model.CriterionIneligibleClass, Operator: model.OpNotIn, Value: `["2361"]`, HardRule: true,
			Description: "residential construction excluded"},
		{Type: model.CriterionMinYearsBusiness, Operator: model.OpGTE, Value: "3", HardRule: false},
	}

	result := check(t, criteria, baseRisk())
	assert.Equal(t, StatusFail, result.Status)
	require.Len(t, result.FailedCriteria, 1)
	assert.Contains(t, result.FailedCriteria[0], "residential construction excluded")
	assert.Equal(t, 2, result.CriteriaChecked)
}

func TestCheckEligibility_SoftFailIsConditional(t *testing.T) {
	criteria := []model.EligibilityCriterion{
		{Type: model.CriterionMinYearsBusiness, Operator: model.OpGTE, Value: "10", HardRule: false, Unit: "years"},
	}

	result := check(t, criteria, baseRisk())
	assert.Equal(t, StatusConditional, result.Status)
	assert.Empty(t, result.FailedCriteria)
	require.Len(t, result.ConditionalNotes, 1)
	assert.Contains(t, result.ConditionalNotes[0], "min_years_business")
	assert.Contains(t, result.ConditionalNotes[0], "years")
}

func TestCheckEligibility_AllCriteriaEvaluatedAfterFailure(t *testing.T) {
	criteria := []model.EligibilityCriterion{
		{Type: model.CriterionMinYearsBusiness, Operator: model.OpGTE, Value: "50", HardRule: true},
		{Type: model.CriterionMinEmployees, Operator: model.OpGTE, Value: "100", HardRule: true},
		{Type: model.CriterionMaxLossRatio, Operator: model.OpLTE, Value: "0.1", HardRule: false},
	}

	result := check(t, criteria, baseRisk())
	assert.Equal(t, StatusFail, result.Status)
	assert.Len(t, result.FailedCriteria, 2)
	assert.Len(t, result.ConditionalNotes, 1)
	assert.Equal(t, 3, result.CriteriaChecked)
}

func TestCheckEligibility_ConstructionTypeSkippedForNonPropertyLine(t *testing.T) {
	criteria := []model.EligibilityCriterion{
		{Type: model.CriterionConstructionType, Operator: model.OpIn, Value: `["masonry"]`, HardRule: true},
	}

	risk := baseRisk()
	risk.ConstructionType = "frame"

	result := check(t, criteria, risk)
	assert.Equal(t, StatusPass, result.Status)
}

func TestCheckEligibility_ConstructionTypeAppliedForPropertyLine(t *testing.T) {
	criteria := []model.EligibilityCriterion{
		{Type: model.CriterionConstructionType, Operator: model.OpIn, Value: `["masonry"]`, HardRule: true},
	}

	risk := baseRisk()
	risk.ConstructionType = "frame"

	f := NewFilter(&stubStore{criteria: criteria})
	result, err := f.CheckEligibility(context.Background(), risk, uuid.New(), "TX", "commercial property")
	require.NoError(t, err)
	assert.Equal(t, StatusFail, result.Status)
}

func TestCheckEligibility_MissingRiskValueFails(t *testing.T) {
	criteria := []model.EligibilityCriterion{
		{Type: model.CriterionMaxLossRatio, Operator: model.OpLTE, Value: "0.65", HardRule: true},
	}

	risk := baseRisk()
	risk.LossRatio3Yr = nil

	result := check(t, criteria, risk)
	assert.Equal(t, StatusFail, result.Status)
}

func TestCheckEligibility_UnknownOperatorPasses(t *testing.T) {
	criteria := []model.EligibilityCriterion{
		{Type: model.CriterionMinYearsBusiness, Operator: "approximately", Value: "5", HardRule: true},
	}

	result := check(t, criteria, baseRisk())
	assert.Equal(t, StatusPass, result.Status)
}

func TestClassInList_PrefixSymmetric(t *testing.T) {
	assert.True(t, classInList("236118", []string{"236"}))
	assert.True(t, classInList("236", []string{"236118"}))
	assert.True(t, classInList("236118", []string{"236118"}))
	assert.False(t, classInList("500000", []string{"236"}))
	assert.False(t, classInList("", []string{"236"}))
}

func TestCheckEligibility_EmptyClassListIsNoRestriction(t *testing.T) {
	criteria := []model.EligibilityCriterion{
		{Type: model.CriterionEligibleClass, Operator: model.OpIn, Value: "", HardRule: true},
	}

	result := check(t, criteria, baseRisk())
	assert.Equal(t, StatusPass, result.Status)
}

func TestCheckCriterion_Operators(t *testing.T) {
	tests := []struct {
		name     string
		operator model.CriterionOperator
		value    string
		risk     any
		want     bool
	}{
		{"equals case-insensitive", model.OpEquals, " Frame ", "frame", true},
		{"equals mismatch", model.OpEquals, "masonry", "frame", false},
		{"gt true", model.OpGT, "5", 6.0, true},
		{"gt false", model.OpGT, "5", 5.0, false},
		{"gte boundary", model.OpGTE, "5", 5.0, true},
		{"lt true", model.OpLT, "10", 6.0, true},
		{"lte boundary", model.OpLTE, "10", 10.0, true},
		{"numeric with non-numeric risk fails", model.OpGTE, "5", "lots", false},
		{"numeric with non-numeric criterion fails", model.OpGTE, "many", 6.0, false},
		{"in json list", model.OpIn, `["TX","OK"]`, "TX", true},
		{"in csv list", model.OpIn, "TX, OK", "OK", true},
		{"in miss", model.OpIn, `["TX","OK"]`, "LA", false},
		{"not_in", model.OpNotIn, `["TX"]`, "LA", true},
		{"between inclusive", model.OpBetween, "1000000,5000000", 2_400_000.0, true},
		{"between json", model.OpBetween, "[1, 10]", 10.0, true},
		{"between outside", model.OpBetween, "1,10", 11.0, false},
		{"between wrong arity", model.OpBetween, "1,2,3", 1.5, false},
		{"contains", model.OpContains, "roof", "Roofing Contractor", true},
		{"not_contains", model.OpNotContains, "roof", "General Carpentry", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := model.EligibilityCriterion{
				Type:     model.CriterionConstructionType,
				Operator: tt.operator,
				Value:    tt.value,
			}
			assert.Equal(t, tt.want, checkCriterion(c, tt.risk, true))
		})
	}
}
