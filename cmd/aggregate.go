package cmd

import (
	"github.com/spf13/cobra"

	"github.com/jobscope/jobscope/internal/config"
	"github.com/jobscope/jobscope/internal/pipeline"
)

var aggregateCmd = &cobra.Command{
	Use:   "aggregate",
	Short: "Build the skill co-occurrence graph from the canonical jobs",
	RunE: func(cmd *cobra.Command, _ []string) error {
		in, err := cmd.Flags().GetString("input")
		if err != nil {
			return err
		}
		out, err := cmd.Flags().GetString("output")
		if err != nil {
			return err
		}

		_, err = executePipeline(cmd, func(_ *config.Config, paths stagePaths) []pipeline.Stage {
			if in != "" {
				paths.canonical = in
			}
			if out != "" {
				paths.graph = out
			}
			return []pipeline.Stage{newStageSet(paths).aggregate()}
		})
		return err
	},
}

func init() {
	rootCmd.AddCommand(aggregateCmd)

	aggregateCmd.Flags().StringP("input", "i", "", "canonical tables file to read")
	aggregateCmd.Flags().StringP("output", "o", "", "skill graph file to write")
}
