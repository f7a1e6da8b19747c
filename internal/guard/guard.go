// Package guard implements the quality gate protecting stage boundaries.
// A gate runs a configured rule set against a tabular dataset and returns
// a report with FATAL and WARN findings; it never mutates the data.
package guard

import (
	"context"

	"go.uber.org/zap"

	"github.com/jobscope/jobscope/internal/dataset"
)

// Severity of a single finding.
type Severity string

const (
	SeverityFatal Severity = "FATAL"
	SeverityWarn  Severity = "WARN"
)

// Finding is one rule violation detected at a boundary.
type Finding struct {
	Rule     string   `json:"rule"`
	Severity Severity `json:"severity"`
	Detail   string   `json:"detail"`
}

// Report aggregates the findings produced at one boundary.
type Report struct {
	Boundary string    `json:"boundary"`
	Rows     int       `json:"rows"`
	Findings []Finding `json:"findings"`
}

// Fatal reports whether any finding must halt downstream stages.
func (r *Report) Fatal() bool {
	for _, f := range r.Findings {
		if f.Severity == SeverityFatal {
			return true
		}
	}
	return false
}

// Warnings returns the number of non-fatal findings.
func (r *Report) Warnings() int {
	n := 0
	for _, f := range r.Findings {
		if f.Severity == SeverityWarn {
			n++
		}
	}
	return n
}

// Rule is a single quality check applied to a dataset at a boundary.
type Rule interface {
	Name() string
	Check(ds *dataset.Dataset) []Finding
}

// Run executes the rules sequentially against the dataset and logs each
// finding. WARN findings are logged and absorbed; the caller decides what
// a FATAL finding means for downstream stages. Cancellation mid-run is an
// error: a partially evaluated gate must never pass for a clean one.
func Run(ctx context.Context, boundary string, ds *dataset.Dataset, rules []Rule, logger *zap.Logger) (*Report, error) {
	report := &Report{Boundary: boundary, Rows: len(ds.Rows)}

	for _, rule := range rules {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		findings := rule.Check(ds)
		for _, f := range findings {
			switch f.Severity {
			case SeverityFatal:
				logger.Error("quality gate finding",
					zap.String("boundary", boundary),
					zap.String("rule", f.Rule),
					zap.String("severity", string(f.Severity)),
					zap.String("detail", f.Detail),
				)
			default:
				logger.Warn("quality gate finding",
					zap.String("boundary", boundary),
					zap.String("rule", f.Rule),
					zap.String("severity", string(f.Severity)),
					zap.String("detail", f.Detail),
				)
			}
		}
		report.Findings = append(report.Findings, findings...)
	}

	logger.Info("quality gate evaluated",
		zap.String("boundary", boundary),
		zap.Int("rows", len(ds.Rows)),
		zap.Int("findings", len(report.Findings)),
		zap.Bool("fatal", report.Fatal()),
	)

	return report, nil
}
