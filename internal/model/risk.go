package model

import (
	"github.com/go-playground/validator/v10"
)

// RiskField names the risk-profile attributes that eligibility criteria and
// rating lookups can reference.
type RiskField string

const (
	FieldClassCode        RiskField = "class_code"
	FieldState            RiskField = "state"
	FieldZipCode          RiskField = "zip_code"
	FieldYearsInBusiness  RiskField = "years_in_business"
	FieldAnnualRevenue    RiskField = "annual_revenue"
	FieldEmployeeCount    RiskField = "employee_count"
	FieldConstructionType RiskField = "construction_type"
	FieldLossRatio3Yr     RiskField = "loss_ratio_3yr"
	FieldExperienceMod    RiskField = "experience_mod"
)

// RiskProfile describes the entity being placed. It is immutable for the
// duration of one match call; optional fields degrade to neutral defaults
// downstream instead of erroring.
type RiskProfile struct {
	EntityName       string             `json:"entity_name,omitempty"`
	ClassCode        string             `json:"class_code" validate:"required"`
	State            string             `json:"state" validate:"required,len=2"`
	ZipCode          string             `json:"zip_code,omitempty"`
	YearsInBusiness  *float64           `json:"years_in_business,omitempty" validate:"omitempty,gte=0"`
	AnnualRevenue    *float64           `json:"annual_revenue,omitempty" validate:"omitempty,gte=0"`
	EmployeeCount    *float64           `json:"employee_count,omitempty" validate:"omitempty,gte=0"`
	ConstructionType string             `json:"construction_type,omitempty"`
	LossRatio3Yr     *float64           `json:"loss_ratio_3yr,omitempty" validate:"omitempty,gte=0"`
	ExperienceMod    *float64           `json:"experience_mod,omitempty" validate:"omitempty,gt=0"`
	Lines            []string           `json:"lines" validate:"required,min=1,dive,required"`
	RequestedLimits  map[string]float64 `json:"requested_limits,omitempty"`

	// Externally supplied scores, passed through untouched.
	RiskScores map[string]any `json:"risk_scores,omitempty"`
}

// Validate checks the input contract: classification code and at least one
// requested line are required; everything else is optional.
func (r *RiskProfile) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}

// FieldValue resolves a named risk field to its raw value. The second return
// is false when the field is absent from the profile. Numeric fields resolve
// to float64, string fields to string.
func (r *RiskProfile) FieldValue(field RiskField) (any, bool) {
	switch field {
	case FieldClassCode:
		return nonEmpty(r.ClassCode)
	case FieldState:
		return nonEmpty(r.State)
	case FieldZipCode:
		return nonEmpty(r.ZipCode)
	case FieldConstructionType:
		return nonEmpty(r.ConstructionType)
	case FieldYearsInBusiness:
		return deref(r.YearsInBusiness)
	case FieldAnnualRevenue:
		return deref(r.AnnualRevenue)
	case FieldEmployeeCount:
		return deref(r.EmployeeCount)
	case FieldLossRatio3Yr:
		return deref(r.LossRatio3Yr)
	case FieldExperienceMod:
		return deref(r.ExperienceMod)
	}
	return nil, false
}

func nonEmpty(s string) (any, bool) {
	if s == "" {
		return nil, false
	}
	return s, true
}

func deref(f *float64) (any, bool) {
	if f == nil {
		return nil, false
	}
	return *f, true
}
