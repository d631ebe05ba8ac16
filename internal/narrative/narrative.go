// Package narrative writes the highlight, issue and proposal prose of a
// report. The OpenAI writer is used when an API key is configured; reports
// fall back to placeholder prose otherwise.
package narrative

import (
	"context"
	"time"

	"github.com/hyperengineering/snsreport/internal/config"
	"github.com/hyperengineering/snsreport/internal/types"
)

// Brief is everything a writer may base its prose on.
type Brief struct {
	ClientName  string              `json:"client_name"`
	ReportType  types.ReportType    `json:"report_type"`
	PeriodStart string              `json:"period_start"`
	PeriodEnd   string              `json:"period_end"`
	Statistics  *types.Statistics   `json:"statistics"`
	KPIProgress []types.KPIProgress `json:"kpi_progress"`
	TopPosts    []types.TopPost     `json:"top_posts"`
	Comparison  *types.Comparison   `json:"comparison,omitempty"`
}

// Writer produces report commentary from a Brief.
type Writer interface {
	Write(ctx context.Context, brief Brief) (types.Narrative, error)
}

// Noop returns an empty Narrative.
type Noop struct{}

// Write returns an empty Narrative and no error.
func (Noop) Write(ctx context.Context, brief Brief) (types.Narrative, error) {
	return types.Narrative{}, nil
}

// New creates the Writer selected by configuration.
func New(cfg config.NarrativeConfig) Writer {
	if cfg.APIKey == "" {
		return Noop{}
	}
	return NewOpenAI(cfg.APIKey, cfg.Model, time.Duration(cfg.Timeout))
}
