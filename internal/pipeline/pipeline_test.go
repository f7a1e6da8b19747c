package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jobscope/jobscope/internal/config"
	"github.com/jobscope/jobscope/internal/guard"
)

func noop(context.Context, *Context) (*guard.Report, error) { return nil, nil }

func newRunContext() *Context {
	return NewContext(config.Default(), zap.NewNop(), 42)
}

func TestExecuteAllStagesSucceed(t *testing.T) {
	t.Parallel()

	stages := []Stage{
		{Name: "extract", Run: noop},
		{Name: "transform", Needs: []string{"extract"}, Run: noop},
		{Name: "aggregate", Needs: []string{"transform"}, Run: noop},
	}

	run, err := Execute(context.Background(), stages, newRunContext(), zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, StatusSucceeded, run.Status)
	for _, res := range run.Results {
		assert.Equal(t, StatusSucceeded, res.Status)
		assert.False(t, res.StartedAt.IsZero())
	}
}

func TestExecuteFailureCascades(t *testing.T) {
	t.Parallel()

	executed := map[string]bool{}
	mark := func(name string, err error) StageFunc {
		return func(context.Context, *Context) (*guard.Report, error) {
			executed[name] = true
			return nil, err
		}
	}

	stages := []Stage{
		{Name: "extract", Run: mark("extract", nil)},
		{Name: "transform", Needs: []string{"extract"}, Run: mark("transform", errors.New("boom"))},
		{Name: "aggregate", Needs: []string{"transform"}, Run: mark("aggregate", nil)},
		{Name: "recommend", Needs: []string{"transform"}, Run: mark("recommend", nil)},
		{Name: "export", Needs: []string{"aggregate", "recommend"}, Run: mark("export", nil)},
	}

	run, err := Execute(context.Background(), stages, newRunContext(), zap.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "transform")
	assert.True(t, run.Failed())

	assert.Equal(t, StatusSucceeded, run.Result("extract").Status)
	assert.Equal(t, StatusFailed, run.Result("transform").Status)
	for _, name := range []string{"aggregate", "recommend", "export"} {
		assert.Equal(t, StatusFailed, run.Result(name).Status)
		assert.False(t, executed[name], "%s must not execute after a failed predecessor", name)
		assert.Contains(t, run.Result(name).Error, "predecessor")
	}
}

func TestExecuteFatalGateFailsStage(t *testing.T) {
	t.Parallel()

	fatal := &guard.Report{
		Boundary: "raw",
		Findings: []guard.Finding{{Rule: "schema_check", Severity: guard.SeverityFatal, Detail: "missing title"}},
	}

	stages := []Stage{
		{Name: "gate_raw", Run: func(context.Context, *Context) (*guard.Report, error) {
			return fatal, nil
		}},
		{Name: "transform", Needs: []string{"gate_raw"}, Run: noop},
	}

	rc := newRunContext()
	run, err := Execute(context.Background(), stages, rc, zap.NewNop())
	require.Error(t, err)

	assert.Equal(t, StatusFailed, run.Result("gate_raw").Status)
	assert.Equal(t, StatusFailed, run.Result("transform").Status)
	assert.Same(t, fatal, rc.Reports["raw"])
}

func TestExecuteWarnGateContinues(t *testing.T) {
	t.Parallel()

	warn := &guard.Report{
		Boundary: "raw",
		Findings: []guard.Finding{{Rule: "volume_check", Severity: guard.SeverityWarn, Detail: "0 rows"}},
	}

	stages := []Stage{
		{Name: "gate_raw", Run: func(context.Context, *Context) (*guard.Report, error) {
			return warn, nil
		}},
		{Name: "transform", Needs: []string{"gate_raw"}, Run: noop},
	}

	run, err := Execute(context.Background(), stages, newRunContext(), zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, StatusSucceeded, run.Status)
}

func TestExecuteHonorsCancellationAtBoundaries(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())

	stages := []Stage{
		{Name: "extract", Run: func(context.Context, *Context) (*guard.Report, error) {
			cancel() // cancellation arrives mid-stage; the stage still finishes
			return nil, nil
		}},
		{Name: "transform", Needs: []string{"extract"}, Run: noop},
	}

	run, err := Execute(ctx, stages, newRunContext(), zap.NewNop())
	require.Error(t, err)
	assert.Equal(t, StatusSucceeded, run.Result("extract").Status)
	assert.Equal(t, StatusFailed, run.Result("transform").Status)
}
