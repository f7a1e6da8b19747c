package export

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// Exporter publishes an artifact batch into the public directory. The
// batch is staged fully before the first visible file changes, and every
// completed replacement is rolled back if a later one fails, so consumers
// only ever observe the previous complete set or the new complete set.
type Exporter struct {
	dir    string
	logger *zap.Logger
}

func NewExporter(dir string, logger *zap.Logger) *Exporter {
	return &Exporter{dir: dir, logger: logger}
}

// Write publishes the batch. I/O failures are retried once; the second
// failure surfaces after rollback.
func (e *Exporter) Write(artifacts []Artifact) error {
	err := e.writeOnce(artifacts)
	if err == nil {
		return nil
	}

	e.logger.Warn("export attempt failed, retrying once", zap.Error(err))
	if retryErr := e.writeOnce(artifacts); retryErr != nil {
		return fmt.Errorf("export failed after retry: %w", retryErr)
	}
	return nil
}

func (e *Exporter) writeOnce(artifacts []Artifact) error {
	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return fmt.Errorf("creating export dir: %w", err)
	}

	staging, err := os.MkdirTemp(e.dir, ".staging-")
	if err != nil {
		return fmt.Errorf("creating staging dir: %w", err)
	}
	defer os.RemoveAll(staging)

	for _, a := range artifacts {
		if err := os.WriteFile(filepath.Join(staging, a.Name), a.Data, 0o644); err != nil {
			return fmt.Errorf("staging %s: %w", a.Name, err)
		}
	}

	if err := e.commit(staging, artifacts); err != nil {
		return err
	}

	e.logger.Info("artifacts exported",
		zap.String("dir", e.dir),
		zap.Int("files", len(artifacts)),
	)
	return nil
}

// commit swaps the staged files into place. Each prior file is set aside
// before its replacement lands; on any failure all completed swaps are
// undone so the visible set stays consistent.
func (e *Exporter) commit(staging string, artifacts []Artifact) error {
	type swap struct {
		final  string
		backup string // empty when no prior file existed
	}
	var done []swap

	rollback := func() {
		for i := len(done) - 1; i >= 0; i-- {
			s := done[i]
			if s.backup == "" {
				_ = os.Remove(s.final)
				continue
			}
			_ = os.Rename(s.backup, s.final)
		}
	}

	for _, a := range artifacts {
		final := filepath.Join(e.dir, a.Name)
		s := swap{final: final}

		if _, err := os.Stat(final); err == nil {
			s.backup = final + ".bak"
			if err := os.Rename(final, s.backup); err != nil {
				rollback()
				return fmt.Errorf("setting aside %s: %w", a.Name, err)
			}
		}

		if err := os.Rename(filepath.Join(staging, a.Name), final); err != nil {
			if s.backup != "" {
				_ = os.Rename(s.backup, s.final)
			}
			rollback()
			return fmt.Errorf("publishing %s: %w", a.Name, err)
		}
		done = append(done, s)
	}

	for _, s := range done {
		if s.backup != "" {
			_ = os.Remove(s.backup)
		}
	}
	return nil
}
