// Package premium estimates annual premiums from carrier rate tables and
// multiplicative rating factors.
//
// The estimation pipeline is:
//
//	estimated = base_rate
//	            × exposure_units
//	            × territory_factor
//	            × class_factor
//	            × experience_mod
//	            × ilf_factor
//	            × deductible_factor
//	            × (1 - schedule_credits)
package premium

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/quotewell/placement-cli/internal/model"
	"github.com/quotewell/placement-cli/internal/store"
)

const (
	defaultFactor          = 1.0
	defaultScheduleCredits = 0.0
	factorsPossible        = 6 // territory, class, exp_mod, ilf, deductible, schedule
)

// exposureFieldMap maps an exposure basis to the risk-profile field carrying
// the exposure amount. Revenue stands in for payroll and area when no
// dedicated field exists.
var exposureFieldMap = map[string]model.RiskField{
	"payroll":   model.FieldAnnualRevenue,
	"revenue":   model.FieldAnnualRevenue,
	"receipts":  model.FieldAnnualRevenue,
	"area":      model.FieldAnnualRevenue,
	"units":     model.FieldEmployeeCount,
	"employees": model.FieldEmployeeCount,
}

// Estimate is the premium breakdown for one carrier/state/line. Confidence
// runs from 0 (highly estimated) to 1 (fully table-sourced); it is a
// data-completeness proxy, not a statistical confidence.
type Estimate struct {
	BasePremium      float64        `json:"base_premium"`
	TerritoryFactor  float64        `json:"territory_factor"`
	ClassFactor      float64        `json:"class_factor"`
	ExperienceMod    float64        `json:"experience_mod"`
	ScheduleCredits  float64        `json:"schedule_credits"`
	ILFFactor        float64        `json:"ilf_factor"`
	DeductibleFactor float64        `json:"deductible_factor"`
	FinalEstimated   float64        `json:"final_estimated"`
	Confidence       float64        `json:"confidence"`
	Components       map[string]any `json:"components"`
	Notes            []string       `json:"notes"`
}

func newEstimate() *Estimate {
	return &Estimate{
		TerritoryFactor:  defaultFactor,
		ClassFactor:      defaultFactor,
		ExperienceMod:    defaultFactor,
		ScheduleCredits:  defaultScheduleCredits,
		ILFFactor:        defaultFactor,
		DeductibleFactor: defaultFactor,
		Components:       map[string]any{},
	}
}

// Estimator builds premium estimates from stored rate tables.
type Estimator struct {
	store store.Store
}

// NewEstimator creates an Estimator backed by the given store.
func NewEstimator(st store.Store) *Estimator {
	return &Estimator{store: st}
}

// EstimatePremium estimates the annual premium for a
// carrier/state/line/risk combination. Missing data never errors: it lowers
// confidence and adds explanatory notes instead.
func (e *Estimator) EstimatePremium(ctx context.Context, carrierID uuid.UUID, state, line string, risk *model.RiskProfile) (*Estimate, error) {
	est := newEstimate()
	factorsFound := 0

	rateTable, err := e.store.LoadRateTable(ctx, carrierID, state, line)
	if err != nil {
		return nil, eris.Wrap(err, "premium: load rate table")
	}
	if rateTable == nil {
		est.Notes = append(est.Notes, "No current rate table found; estimate is highly approximate.")
		return est, nil
	}

	territory, err := e.store.LookupTerritory(ctx, rateTable.ID, risk.ZipCode)
	if err != nil {
		return nil, eris.Wrap(err, "premium: lookup territory")
	}

	baseRate, err := e.store.LoadBaseRate(ctx, rateTable.ID, risk.ClassCode, territory)
	if err != nil {
		return nil, eris.Wrap(err, "premium: load base rate")
	}
	if baseRate == nil && territory != "" {
		baseRate, err = e.store.LoadBaseRate(ctx, rateTable.ID, risk.ClassCode, "")
		if err != nil {
			return nil, eris.Wrap(err, "premium: load base rate without territory")
		}
	}
	if baseRate == nil {
		est.Notes = append(est.Notes, fmt.Sprintf(
			"No base rate found for class_code=%q territory=%q; cannot produce estimate.",
			risk.ClassCode, territory))
		return est, nil
	}

	basis := string(baseRate.ExposureBasis)
	if basis == "" {
		basis = "revenue"
	}
	est.Notes = append(est.Notes, fmt.Sprintf(
		"Base rate: %.6f per unit (%s), class=%q, territory=%q.",
		baseRate.Rate, basis, baseRate.ClassCode, territory))

	exposureUnits := computeExposure(basis, risk)
	basePremium := baseRate.Rate * exposureUnits

	territoryFactor, err := e.factor(ctx, rateTable.ID, model.FactorTerritory, territory)
	if err != nil {
		return nil, err
	}
	if territoryFactor != defaultFactor {
		factorsFound++
	} else {
		est.Notes = append(est.Notes, "Territory factor not found; using 1.0.")
	}

	classFactor, err := e.factor(ctx, rateTable.ID, model.FactorClass, risk.ClassCode)
	if err != nil {
		return nil, err
	}
	if classFactor != defaultFactor {
		factorsFound++
	} else {
		est.Notes = append(est.Notes, "Class code factor not found; using 1.0.")
	}

	experienceMod := defaultFactor
	if risk.ExperienceMod != nil {
		experienceMod = *risk.ExperienceMod
		factorsFound++
		est.Notes = append(est.Notes, fmt.Sprintf("Experience mod from risk profile: %.3f.", experienceMod))
	} else {
		est.Notes = append(est.Notes, "Experience mod not provided; using 1.0.")
	}

	limitKey := extractLimitKey(risk.RequestedLimits)
	ilfFactor, err := e.factor(ctx, rateTable.ID, model.FactorILF, limitKey)
	if err != nil {
		return nil, err
	}
	if ilfFactor != defaultFactor {
		factorsFound++
	} else {
		est.Notes = append(est.Notes, fmt.Sprintf("ILF not found for limit=%q; using 1.0.", limitKey))
	}

	deductibleKey := "0"
	if d, ok := risk.RequestedLimits["deductible"]; ok {
		deductibleKey = formatAmount(d)
	}
	deductibleFactor, err := e.factor(ctx, rateTable.ID, model.FactorDeductible, deductibleKey)
	if err != nil {
		return nil, err
	}
	if deductibleFactor != defaultFactor {
		factorsFound++
	} else {
		est.Notes = append(est.Notes, "Deductible factor not found; using 1.0.")
	}

	// Schedule rating data is not part of the submission.
	scheduleCredits := defaultScheduleCredits
	est.Notes = append(est.Notes, "Schedule credits/debits not applied (not in submission).")

	finalEstimated := basePremium *
		territoryFactor *
		classFactor *
		experienceMod *
		ilfFactor *
		deductibleFactor *
		(1.0 - scheduleCredits)

	confidence := round3(float64(factorsFound) / factorsPossible)

	zap.L().Info("premium estimated",
		zap.String("carrier_id", carrierID.String()),
		zap.String("state", state),
		zap.String("line", line),
		zap.Float64("final_estimated", finalEstimated),
		zap.Float64("confidence", confidence),
	)

	est.BasePremium = round2(basePremium)
	est.TerritoryFactor = territoryFactor
	est.ClassFactor = classFactor
	est.ExperienceMod = experienceMod
	est.ScheduleCredits = scheduleCredits
	est.ILFFactor = ilfFactor
	est.DeductibleFactor = deductibleFactor
	est.FinalEstimated = round2(finalEstimated)
	est.Confidence = confidence
	est.Components = map[string]any{
		"base_rate":        baseRate.Rate,
		"exposure_units":   exposureUnits,
		"exposure_basis":   basis,
		"territory_code":   territory,
		"class_code":       risk.ClassCode,
		"limit_key":        limitKey,
		"factors_found":    factorsFound,
		"factors_possible": factorsPossible,
	}
	return est, nil
}

func (e *Estimator) factor(ctx context.Context, rateTableID uuid.UUID, factorType model.FactorType, key string) (float64, error) {
	value, found, err := e.store.LoadRatingFactor(ctx, rateTableID, factorType, key)
	if err != nil {
		return defaultFactor, eris.Wrapf(err, "premium: load %s factor", factorType)
	}
	if !found {
		return defaultFactor, nil
	}
	return value, nil
}

// computeExposure derives exposure units from the risk profile. Monetary
// bases are rated per $100; unit bases pass through unscaled. Missing or
// non-numeric exposure input defaults to 1.0.
func computeExposure(basis string, risk *model.RiskProfile) float64 {
	basisLower := strings.ToLower(basis)
	field, ok := exposureFieldMap[basisLower]
	if !ok {
		field = model.FieldAnnualRevenue
	}
	raw, present := risk.FieldValue(field)
	if !present {
		zap.L().Debug("no exposure field in risk profile; defaulting to 1.0",
			zap.String("field", string(field)))
		return 1.0
	}
	value, ok := raw.(float64)
	if !ok {
		return 1.0
	}

	switch basisLower {
	case "revenue", "payroll", "receipts", "area":
		return value / 100.0
	}
	return value
}

// extractLimitKey derives a string limit key for ILF lookups. Prefers the
// occurrence limit, then falls back to the first numeric value found.
func extractLimitKey(requestedLimits map[string]float64) string {
	for _, key := range []string{"occurrence", "per_occurrence", "csl", "aggregate"} {
		if val, ok := requestedLimits[key]; ok {
			return formatAmount(val)
		}
	}
	for _, val := range requestedLimits {
		return formatAmount(val)
	}
	return ""
}

func formatAmount(v float64) string {
	if v == math.Trunc(v) {
		return strconv.FormatFloat(v, 'f', 0, 64)
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }

func round3(v float64) float64 { return math.Round(v*1000) / 1000 }
