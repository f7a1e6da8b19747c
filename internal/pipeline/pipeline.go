// Package pipeline sequences the run's stages. The dependency structure is
// a short linear/branching chain, so stages are an ordered list with
// explicit predecessor checks rather than a general DAG scheduler.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jobscope/jobscope/internal/guard"
)

// Status of one stage within a run.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusRunning   Status = "RUNNING"
	StatusSucceeded Status = "SUCCEEDED"
	StatusFailed    Status = "FAILED"
)

// StageFunc does the stage's work. A returned report lets a quality gate
// attach its findings; a fatal report fails the stage exactly like an error.
type StageFunc func(ctx context.Context, run *Context) (*guard.Report, error)

// Stage is one named step with its declared predecessors.
type Stage struct {
	Name  string
	Needs []string
	Run   StageFunc
}

// TaskResult is the observable outcome of one stage.
type TaskResult struct {
	Stage     string        `json:"stage_name"`
	Status    Status        `json:"status"`
	StartedAt time.Time     `json:"started_at,omitempty"`
	Duration  time.Duration `json:"duration"`
	Report    *guard.Report `json:"report,omitempty"`
	Error     string        `json:"error,omitempty"`
}

// Run is the full report of one pipeline execution.
type Run struct {
	ID      string        `json:"run_id"`
	Status  Status        `json:"status"`
	Results []*TaskResult `json:"results"`
}

// Failed reports whether any stage failed.
func (r *Run) Failed() bool { return r.Status == StatusFailed }

// Result returns the task result for a stage name, or nil.
func (r *Run) Result(stage string) *TaskResult {
	for _, res := range r.Results {
		if res.Stage == stage {
			return res
		}
	}
	return nil
}

// Execute runs the stages strictly in order. A stage whose predecessor did
// not succeed is marked FAILED without executing; cancellation is honored
// at stage boundaries only. The returned error is non-nil when the run as
// a whole failed, with the first failing stage named.
func Execute(ctx context.Context, stages []Stage, run *Context, logger *zap.Logger) (*Run, error) {
	report := &Run{ID: uuid.NewString(), Status: StatusSucceeded}
	statuses := make(map[string]Status, len(stages))
	results := make(map[string]*TaskResult, len(stages))
	var firstFailure string

	for _, stage := range stages {
		result := &TaskResult{Stage: stage.Name, Status: StatusPending}
		report.Results = append(report.Results, result)
		results[stage.Name] = result
		statuses[stage.Name] = StatusPending
	}

	for _, stage := range stages {
		result := results[stage.Name]

		if err := ctx.Err(); err != nil {
			result.Status = StatusFailed
			result.Error = err.Error()
			statuses[stage.Name] = StatusFailed
			if firstFailure == "" {
				firstFailure = stage.Name
			}
			continue
		}

		if blocked, need := unmetDependency(stage, statuses); blocked {
			result.Status = StatusFailed
			result.Error = fmt.Sprintf("skipped: predecessor %s did not succeed", need)
			statuses[stage.Name] = StatusFailed
			logger.Warn("stage skipped",
				zap.String("run_id", report.ID),
				zap.String("stage", stage.Name),
				zap.String("failed_predecessor", need),
			)
			continue
		}

		result.Status = StatusRunning
		result.StartedAt = time.Now().UTC()
		logger.Info("stage started",
			zap.String("run_id", report.ID),
			zap.String("stage", stage.Name),
		)

		gateReport, err := stage.Run(ctx, run)
		result.Duration = time.Since(result.StartedAt)
		result.Report = gateReport
		if gateReport != nil {
			run.Reports[gateReport.Boundary] = gateReport
		}

		switch {
		case err != nil:
			result.Status = StatusFailed
			result.Error = err.Error()
			logger.Error("stage failed",
				zap.String("run_id", report.ID),
				zap.String("stage", stage.Name),
				zap.Duration("duration", result.Duration),
				zap.Error(err),
			)
		case gateReport != nil && gateReport.Fatal():
			result.Status = StatusFailed
			result.Error = fmt.Sprintf("quality gate %s reported fatal findings", gateReport.Boundary)
			logger.Error("stage failed",
				zap.String("run_id", report.ID),
				zap.String("stage", stage.Name),
				zap.Duration("duration", result.Duration),
				zap.String("boundary", gateReport.Boundary),
			)
		default:
			result.Status = StatusSucceeded
			logger.Info("stage completed",
				zap.String("run_id", report.ID),
				zap.String("stage", stage.Name),
				zap.Duration("duration", result.Duration),
			)
		}

		statuses[stage.Name] = result.Status
		if result.Status == StatusFailed && firstFailure == "" {
			firstFailure = stage.Name
		}
	}

	if firstFailure != "" {
		report.Status = StatusFailed
		logger.Error("pipeline run failed",
			zap.String("run_id", report.ID),
			zap.String("failed_stage", firstFailure),
		)
		return report, fmt.Errorf("pipeline run %s failed at stage %s", report.ID, firstFailure)
	}

	logger.Info("pipeline run completed", zap.String("run_id", report.ID))
	return report, nil
}

// unmetDependency reports the first declared predecessor that did not
// succeed. Transitive failures propagate naturally because each failed
// dependent is itself marked FAILED.
func unmetDependency(stage Stage, statuses map[string]Status) (bool, string) {
	for _, need := range stage.Needs {
		if statuses[need] != StatusSucceeded {
			return true, need
		}
	}
	return false, ""
}
