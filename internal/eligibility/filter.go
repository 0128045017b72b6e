// Package eligibility checks risk profiles against carrier underwriting
// criteria for a state and line of business.
package eligibility

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/quotewell/placement-cli/internal/model"
	"github.com/quotewell/placement-cli/internal/store"
)

// Status is the outcome of an eligibility check.
type Status string

const (
	StatusPass        Status = "pass"
	StatusFail        Status = "fail"
	StatusConditional Status = "conditional"
)

// Result holds the outcome of checking one carrier/state/line combination.
// Hard criteria failing produce fail; soft criteria failing produce
// conditional notes only.
type Result struct {
	Status           Status   `json:"status"`
	FailedCriteria   []string `json:"failed_criteria"`
	ConditionalNotes []string `json:"conditional_notes"`
	CriteriaChecked  int      `json:"criteria_checked"`
}

// fieldForCriterion maps criterion types to the risk-profile field they
// evaluate against.
var fieldForCriterion = map[model.CriterionType]model.RiskField{
	model.CriterionEligibleClass:    model.FieldClassCode,
	model.CriterionIneligibleClass:  model.FieldClassCode,
	model.CriterionMinYearsBusiness: model.FieldYearsInBusiness,
	model.CriterionMaxLossRatio:     model.FieldLossRatio3Yr,
	model.CriterionTerritory:        model.FieldState,
	model.CriterionConstructionType: model.FieldConstructionType,
	model.CriterionMinEmployees:     model.FieldEmployeeCount,
	model.CriterionMaxEmployees:     model.FieldEmployeeCount,
	model.CriterionRevenueRange:     model.FieldAnnualRevenue,
	model.CriterionOperations:       model.FieldClassCode,
}

// Filter evaluates risk profiles against stored eligibility criteria.
type Filter struct {
	store store.Store
}

// NewFilter creates a Filter backed by the given store.
func NewFilter(st store.Store) *Filter {
	return &Filter{store: st}
}

// CheckEligibility evaluates a risk profile against all active criteria for a
// carrier/state/line. Every criterion is evaluated even once failure is
// known, so CriteriaChecked and the note lists are always complete.
func (f *Filter) CheckEligibility(ctx context.Context, risk *model.RiskProfile, carrierID uuid.UUID, state, line string) (*Result, error) {
	criteria, err := f.store.LoadEligibilityCriteria(ctx, carrierID, state, line)
	if err != nil {
		return nil, eris.Wrap(err, "eligibility: load criteria")
	}
	zap.L().Debug("loaded eligibility criteria",
		zap.Int("count", len(criteria)),
		zap.String("carrier_id", carrierID.String()),
		zap.String("state", state),
		zap.String("line", line),
	)

	var failed, conditional []string
	for _, criterion := range criteria {
		field, ok := fieldForCriterion[criterion.Type]
		if !ok {
			zap.L().Debug("no field mapping for criterion type; skipping",
				zap.String("criterion_type", string(criterion.Type)))
			continue
		}

		// Construction-type criteria only apply to property lines.
		if criterion.Type == model.CriterionConstructionType && !isPropertyLine(line) {
			continue
		}

		riskValue, present := risk.FieldValue(field)
		if checkCriterion(criterion, riskValue, present) {
			continue
		}

		msg := failureMessage(criterion, riskValue)
		if criterion.HardRule {
			failed = append(failed, msg)
		} else {
			conditional = append(conditional, msg)
		}
	}

	status := StatusPass
	switch {
	case len(failed) > 0:
		status = StatusFail
	case len(conditional) > 0:
		status = StatusConditional
	}

	return &Result{
		Status:           status,
		FailedCriteria:   failed,
		ConditionalNotes: conditional,
		CriteriaChecked:  len(criteria),
	}, nil
}

// checkCriterion evaluates a single criterion against the resolved risk
// value. Returns true when the criterion is satisfied.
func checkCriterion(criterion model.EligibilityCriterion, riskValue any, present bool) bool {
	rawValue := criterion.Value

	// Class membership criteria have their own semantics regardless of the
	// stored operator. An empty configured list means no restriction.
	switch criterion.Type {
	case model.CriterionEligibleClass:
		allowed := parseList(rawValue)
		if len(allowed) == 0 {
			return true
		}
		return classInList(asString(riskValue), allowed)
	case model.CriterionIneligibleClass:
		forbidden := parseList(rawValue)
		if len(forbidden) == 0 {
			return true
		}
		return !classInList(asString(riskValue), forbidden)
	}

	if !present || riskValue == nil {
		return false
	}

	switch criterion.Operator {
	case model.OpEquals:
		return strings.EqualFold(
			strings.TrimSpace(asString(riskValue)),
			strings.TrimSpace(rawValue),
		)
	case model.OpGT, model.OpGTE, model.OpLT, model.OpLTE:
		return numericCompare(criterion.Operator, riskValue, rawValue)
	case model.OpIn:
		return stringInList(asString(riskValue), parseList(rawValue))
	case model.OpNotIn:
		return !stringInList(asString(riskValue), parseList(rawValue))
	case model.OpBetween:
		return between(riskValue, rawValue)
	case model.OpContains:
		return strings.Contains(
			strings.ToLower(asString(riskValue)),
			strings.ToLower(rawValue),
		)
	case model.OpNotContains:
		return !strings.Contains(
			strings.ToLower(asString(riskValue)),
			strings.ToLower(rawValue),
		)
	default:
		// Permissive by contract: an operator this build does not know
		// passes rather than blocking a placement.
		zap.L().Warn("unknown criterion operator; treating as pass",
			zap.String("operator", string(criterion.Operator)),
			zap.String("criterion_type", string(criterion.Type)),
		)
		return true
	}
}

// isPropertyLine reports whether the line of business is property-related.
func isPropertyLine(line string) bool {
	lower := strings.ToLower(line)
	for _, kw := range []string{"property", "commercial property", "bop", "fire"} {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// parseList parses a criterion value that may be a JSON array or a
// comma-separated string.
func parseList(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	if strings.HasPrefix(raw, "[") {
		var parsed []any
		if err := json.Unmarshal([]byte(raw), &parsed); err == nil {
			out := make([]string, 0, len(parsed))
			for _, v := range parsed {
				out = append(out, strings.TrimSpace(asString(v)))
			}
			return out
		}
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// classInList checks whether a classification code matches any list entry,
// by exact match or either value being a prefix of the other. Hierarchical
// codes make "236" cover "236118" and vice versa.
func classInList(code string, list []string) bool {
	code = strings.TrimSpace(code)
	if code == "" {
		return false
	}
	for _, entry := range list {
		entry = strings.TrimSpace(entry)
		if code == entry || strings.HasPrefix(code, entry) || strings.HasPrefix(entry, code) {
			return true
		}
	}
	return false
}

func stringInList(value string, list []string) bool {
	value = strings.TrimSpace(value)
	for _, entry := range list {
		if value == strings.TrimSpace(entry) {
			return true
		}
	}
	return false
}

// numericCompare fails the criterion when either side is non-numeric.
func numericCompare(op model.CriterionOperator, riskValue any, rawCriterion string) bool {
	riskNum, ok := toFloat(riskValue)
	if !ok {
		zap.L().Warn("non-numeric risk value for numeric comparison",
			zap.Any("risk_value", riskValue))
		return false
	}
	critNum, err := strconv.ParseFloat(strings.TrimSpace(rawCriterion), 64)
	if err != nil {
		zap.L().Warn("non-numeric criterion value for numeric comparison",
			zap.String("criterion_value", rawCriterion))
		return false
	}

	switch op {
	case model.OpGT:
		return riskNum > critNum
	case model.OpGTE:
		return riskNum >= critNum
	case model.OpLT:
		return riskNum < critNum
	case model.OpLTE:
		return riskNum <= critNum
	}
	return false
}

// between checks an inclusive [low, high] range encoded as "low,high" or a
// JSON two-element array.
func between(riskValue any, rawCriterion string) bool {
	parts := parseList(rawCriterion)
	if len(parts) != 2 {
		zap.L().Warn("between operator requires exactly 2 values",
			zap.Strings("parts", parts))
		return false
	}
	low, err1 := strconv.ParseFloat(parts[0], 64)
	high, err2 := strconv.ParseFloat(parts[1], 64)
	riskNum, ok := toFloat(riskValue)
	if err1 != nil || err2 != nil || !ok {
		return false
	}
	return low <= riskNum && riskNum <= high
}

func toFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return f, err == nil
	case *float64:
		if t == nil {
			return 0, false
		}
		return *t, true
	}
	return 0, false
}

func asString(v any) string {
	if v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case *float64:
		if t == nil {
			return ""
		}
		return strconv.FormatFloat(*t, 'f', -1, 64)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	}
	return fmt.Sprintf("%v", v)
}

// failureMessage builds a human-readable failure explanation.
func failureMessage(criterion model.EligibilityCriterion, riskValue any) string {
	got := asString(riskValue)
	if got == "" {
		got = "none"
	}
	if criterion.Description != "" {
		return fmt.Sprintf("%s (got %s)", criterion.Description, got)
	}

	unit := ""
	if criterion.Unit != "" {
		unit = " " + criterion.Unit
	}
	return fmt.Sprintf("Criterion '%s' failed: expected %s %s%s, got %s",
		criterion.Type, criterion.Operator, criterion.Value, unit, got)
}
