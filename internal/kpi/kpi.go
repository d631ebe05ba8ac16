// Package kpi stores KPI targets and evaluates them against aggregated
// post statistics.
package kpi

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"regexp"

	"github.com/hyperengineering/snsreport/internal/formula"
	"github.com/hyperengineering/snsreport/internal/normalize"
	"github.com/hyperengineering/snsreport/internal/stats"
	"github.com/hyperengineering/snsreport/internal/types"
	"github.com/hyperengineering/snsreport/internal/validation"
)

// Store is the persistence surface the evaluator needs.
type Store interface {
	Aggregate(ctx context.Context, clientID string, filter types.DateFilter) (*types.Statistics, error)
	ListKPISettings(ctx context.Context, clientID string, kpiType types.KPIType, period string) ([]types.KPISetting, error)
	UpsertKPISettings(ctx context.Context, clientID string, inputs []types.KPIInput) ([]string, error)
	DeleteKPISetting(ctx context.Context, clientID, id string) error
}

// Evaluator manages KPI targets and computes progress toward them.
type Evaluator struct {
	store Store
}

// NewEvaluator creates an evaluator.
func NewEvaluator(store Store) *Evaluator {
	return &Evaluator{store: store}
}

var (
	weekLabel  = regexp.MustCompile(`^\d{4}-W\d{2}$`)
	monthLabel = regexp.MustCompile(`^\d{4}-\d{2}`)
)

// Resolve maps a KPI period label to the records it covers and the label
// its targets are stored under.
//
// Monthly periods use the first seven characters, so "2025-11" and
// "2025-11-15" both select November. Weekly periods take an ISO week label
// or a date inside the week. Custom periods are resolved by shape: a week
// label selects that week, anything starting with YYYY-MM selects the month.
func Resolve(kpiType types.KPIType, period string) (types.DateFilter, string, error) {
	switch kpiType {
	case types.KPIMonthly:
		if !monthLabel.MatchString(period) {
			return types.DateFilter{}, "", validation.New("period", "must start with YYYY-MM for monthly KPIs")
		}
		month := period[:7]
		if err := validation.ValidateMonth("period", month); err != nil {
			return types.DateFilter{}, "", err.Err()
		}
		return types.DateFilter{Month: month}, month, nil

	case types.KPIWeekly:
		if validation.ValidateDate("period", period) == nil {
			week, err := normalize.ISOWeek(period)
			if err != nil {
				return types.DateFilter{}, "", validation.New("period", err.Error())
			}
			return types.DateFilter{Week: week}, week, nil
		}
		if err := validation.ValidateWeek("period", period); err != nil {
			return types.DateFilter{}, "", err.Err()
		}
		return types.DateFilter{Week: period}, period, nil

	case types.KPICustom:
		if err := validation.ValidateRequired("period", period); err != nil {
			return types.DateFilter{}, "", err.Err()
		}
		switch {
		case weekLabel.MatchString(period):
			return types.DateFilter{Week: period}, period, nil
		case monthLabel.MatchString(period):
			return types.DateFilter{Month: period[:7]}, period, nil
		}
		return types.DateFilter{}, "", validation.New("period", "custom period must be a YYYY-Www week or start with YYYY-MM")

	default:
		return types.DateFilter{}, "", validation.New("type", "must be one of: monthly, weekly, custom")
	}
}

// Progress evaluates every target of the given type and period.
//
// A target with a formula uses the formula's value as its actual. When the
// formula cannot be evaluated the actual is 0 and the item carries a
// warning. Without a formula the actual is the aggregate metric named by
// the target, or 0 for unknown names.
func (e *Evaluator) Progress(ctx context.Context, clientID string, kpiType types.KPIType, period string) ([]types.KPIProgress, error) {
	filter, label, err := Resolve(kpiType, period)
	if err != nil {
		return nil, err
	}

	settings, err := e.store.ListKPISettings(ctx, clientID, kpiType, label)
	if err != nil {
		return nil, fmt.Errorf("list kpi settings: %w", err)
	}

	st, err := e.store.Aggregate(ctx, clientID, filter)
	if err != nil {
		return nil, fmt.Errorf("aggregate: %w", err)
	}

	progress := make([]types.KPIProgress, 0, len(settings))
	for _, s := range settings {
		progress = append(progress, evaluate(s, st))
	}
	return progress, nil
}

func evaluate(s types.KPISetting, st *types.Statistics) types.KPIProgress {
	p := types.KPIProgress{
		MetricName:  s.MetricName,
		MetricLabel: s.MetricName,
	}
	if s.MetricLabel != nil && *s.MetricLabel != "" {
		p.MetricLabel = *s.MetricLabel
	}
	if s.TargetValue != nil {
		p.Target = *s.TargetValue
	}

	if s.Formula != nil && *s.Formula != "" {
		p.Formula = *s.Formula
		actual, err := formula.Evaluate(*s.Formula, Variables(st))
		if err != nil {
			p.Warning = fmt.Sprintf("formula could not be evaluated: %v", err)
			slog.Warn("kpi formula evaluation failed",
				"component", "kpi",
				"client_id", s.ClientID,
				"kpi_id", s.ID,
				"metric_name", s.MetricName,
				"error", err,
			)
		} else {
			p.Actual = actual
		}
	} else {
		p.Actual = stats.Metric(st, s.MetricName)
	}

	p.AchievementRate = AchievementRate(p.Actual, p.Target)
	return p
}

// Variables exposes aggregate totals under the names formulas may use.
func Variables(st *types.Statistics) map[string]float64 {
	vars := make(map[string]float64, len(formula.Variables))
	for _, name := range formula.Variables {
		vars[name] = stats.Metric(st, name)
	}
	return vars
}

// AchievementRate is actual as a percentage of target, rounded to one
// decimal. It is 0 when there is no positive target.
func AchievementRate(actual, target float64) float64 {
	if target <= 0 {
		return 0
	}
	return math.Round(actual/target*100*10) / 10
}

// List returns stored targets. Empty kpiType or period match everything.
func (e *Evaluator) List(ctx context.Context, clientID string, kpiType types.KPIType, period string) ([]types.KPISetting, error) {
	if kpiType != "" {
		if err := validation.ValidateEnum("type", string(kpiType), validation.KPITypes); err != nil {
			return nil, err.Err()
		}
	}
	settings, err := e.store.ListKPISettings(ctx, clientID, kpiType, period)
	if err != nil {
		return nil, fmt.Errorf("list kpi settings: %w", err)
	}
	return settings, nil
}

// Upsert creates or replaces one target and returns its ID.
func (e *Evaluator) Upsert(ctx context.Context, clientID string, in types.KPIInput) (string, error) {
	ids, err := e.UpsertBatch(ctx, clientID, []types.KPIInput{in})
	if err != nil {
		return "", err
	}
	return ids[0], nil
}

// UpsertBatch creates or replaces several targets atomically. Nothing is
// written unless every input is valid.
func (e *Evaluator) UpsertBatch(ctx context.Context, clientID string, inputs []types.KPIInput) ([]string, error) {
	if len(inputs) == 0 {
		return nil, validation.New("settings", "must contain at least one KPI")
	}

	var c validation.Collector
	for i, in := range inputs {
		prefix := ""
		if len(inputs) > 1 {
			prefix = fmt.Sprintf("settings[%d].", i)
		}
		validation.ValidateKPIInput(&c, prefix, in)
	}
	if err := c.Err(); err != nil {
		return nil, err
	}

	ids, err := e.store.UpsertKPISettings(ctx, clientID, inputs)
	if err != nil {
		return nil, fmt.Errorf("upsert kpi settings: %w", err)
	}
	return ids, nil
}

// Delete removes one target.
func (e *Evaluator) Delete(ctx context.Context, clientID, id string) error {
	if err := e.store.DeleteKPISetting(ctx, clientID, id); err != nil {
		return fmt.Errorf("delete kpi setting: %w", err)
	}
	return nil
}

// ProposeNext suggests next-period targets 10% above this period's actuals.
func ProposeNext(progress []types.KPIProgress) map[string]float64 {
	out := make(map[string]float64, len(progress))
	for _, p := range progress {
		out[p.MetricName] = math.Round(p.Actual * 1.1)
	}
	return out
}
