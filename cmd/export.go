package cmd

import (
	"github.com/spf13/cobra"

	"github.com/jobscope/jobscope/internal/config"
	"github.com/jobscope/jobscope/internal/pipeline"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Publish the artifact batch to the public directory",
	RunE: func(cmd *cobra.Command, _ []string) error {
		out, err := cmd.Flags().GetString("output")
		if err != nil {
			return err
		}

		_, err = executePipeline(cmd, func(_ *config.Config, paths stagePaths) []pipeline.Stage {
			if out != "" {
				paths.public = out
			}
			return []pipeline.Stage{newStageSet(paths).export()}
		})
		return err
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringP("output", "o", "", "public directory to publish into (default is the configured public dir)")
}
