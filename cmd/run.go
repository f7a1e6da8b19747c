package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/jobscope/jobscope/internal/config"
	"github.com/jobscope/jobscope/internal/dataset"
	"github.com/jobscope/jobscope/internal/pipeline"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full pipeline: extract, quality gates, transform, aggregate, recommend, export",
	RunE: func(cmd *cobra.Command, _ []string) error {
		_, err := executePipeline(cmd, func(cfg *config.Config, paths stagePaths) []pipeline.Stage {
			return newStageSet(paths).all(cfg)
		})
		return err
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}

// executePipeline decodes the config, executes the stage list and persists
// the run report. The report is written on failure too, so a broken run
// stays inspectable.
func executePipeline(cmd *cobra.Command, build func(cfg *config.Config, paths stagePaths) []pipeline.Stage) (*pipeline.Context, error) {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := getConfig()
	if err != nil {
		logger.Error("getting a config", zap.Error(err))
		return nil, err
	}

	logger.Info("starting "+app, zap.String("version", version))

	paths := defaultPaths(cfg)
	stages := build(cfg, paths)

	rc := pipeline.NewContext(cfg, logger, viper.GetInt64("seed"))
	run, runErr := pipeline.Execute(cmd.Context(), stages, rc, logger)
	if run != nil {
		if err := dataset.WriteJSON(paths.runReport, run); err != nil {
			logger.Warn("writing run report", zap.Error(err))
		} else {
			logger.Info("run report written", zap.String("path", paths.runReport))
		}
	}
	return rc, runErr
}
