package validation

import (
	"fmt"
	"maps"
	"slices"

	"github.com/hyperengineering/snsreport/internal/formula"
	"github.com/hyperengineering/snsreport/internal/types"
)

// Field length limits.
const (
	MaxNameLength     = 200
	MaxFilenameLength = 255
	MaxTitleLength    = 300
	MaxMetricLength   = 100
)

// ValidateMapping checks a column mapping names the date column and only
// canonical keys.
func ValidateMapping(field string, m types.ColumnMapping) *Error {
	if m == nil {
		return New(field, "is required")
	}

	var c Collector
	if m.Column(types.KeyDate) == "" {
		c.Add(&ValidationError{Field: field + ".date", Message: "is required"})
	}
	for _, k := range slices.Sorted(maps.Keys(m)) {
		if !types.IsMappingKey(k) {
			c.Add(&ValidationError{Field: field + "." + string(k), Message: "is not a known column key"})
		}
	}
	if !c.HasErrors() {
		return nil
	}
	return &Error{Fields: c.Errors()}
}

// ValidateDateFilter checks that at most one selector is set and that it is
// well formed.
func ValidateDateFilter(f types.DateFilter) error {
	var c Collector

	set := 0
	if f.Range != nil {
		set++
		c.Add(ValidateDate("start", f.Range.Start))
		c.Add(ValidateDate("end", f.Range.End))
		if !c.HasErrors() {
			c.Add(ValidateDateOrder("start", f.Range.Start, f.Range.End))
		}
	}
	if f.Month != "" {
		set++
		c.Add(ValidateMonth("month", f.Month))
	}
	if f.Week != "" {
		set++
		c.Add(ValidateWeek("week", f.Week))
	}
	if set > 1 {
		c.Add(&ValidationError{Field: "filter", Message: "only one of start/end, month or week may be given"})
	}

	return c.Err()
}

// ValidateDateRange checks an inclusive YYYY-MM-DD range.
func ValidateDateRange(c *Collector, prefix string, r types.DateRange) {
	before := len(c.Errors())
	c.Add(ValidateDate(prefix+"start", r.Start))
	c.Add(ValidateDate(prefix+"end", r.End))
	if len(c.Errors()) == before {
		c.Add(ValidateDateOrder(prefix+"start", r.Start, r.End))
	}
}

// KPITypes lists the accepted KPI cadences.
var KPITypes = []string{string(types.KPIMonthly), string(types.KPIWeekly), string(types.KPICustom)}

// ValidateKPIPeriod checks the period label matches the cadence.
// Custom periods only need to be non-empty.
func ValidateKPIPeriod(field string, kpiType types.KPIType, period string) *ValidationError {
	switch kpiType {
	case types.KPIMonthly:
		return ValidateMonth(field, period)
	case types.KPIWeekly:
		return ValidateWeek(field, period)
	default:
		return ValidateRequired(field, period)
	}
}

// ValidateKPIInput adds every problem with in to c. prefix is prepended to
// field names, e.g. "settings[2].".
func ValidateKPIInput(c *Collector, prefix string, in types.KPIInput) {
	if err := ValidateEnum(prefix+"kpi_type", string(in.KPIType), KPITypes); err != nil {
		c.Add(err)
	} else {
		c.Add(ValidateKPIPeriod(prefix+"period", in.KPIType, in.Period))
	}

	if err := ValidateRequired(prefix+"metric_name", in.MetricName); err != nil {
		c.Add(err)
	} else {
		c.Add(ValidateMaxLength(prefix+"metric_name", in.MetricName, MaxMetricLength))
	}

	if in.MetricLabel != nil {
		c.Add(ValidateMaxLength(prefix+"metric_label", *in.MetricLabel, MaxMetricLength))
	}
	if in.TargetValue != nil {
		c.Add(ValidateNonNegative(prefix+"target_value", *in.TargetValue))
	}
	if in.Formula != nil && *in.Formula != "" {
		if _, err := formula.Parse(*in.Formula); err != nil {
			c.Add(&ValidationError{Field: prefix + "formula", Message: fmt.Sprintf("is invalid: %v", err)})
		}
	}
}

// ReportTypes lists the accepted report templates.
var ReportTypes = []string{string(types.ReportMonthlyClient), string(types.ReportWeeklyInternal)}
