package cmd

import (
	"github.com/spf13/cobra"

	"github.com/jobscope/jobscope/internal/config"
	"github.com/jobscope/jobscope/internal/pipeline"
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Ingest all configured sources and gate the raw batch",
	RunE: func(cmd *cobra.Command, _ []string) error {
		out, err := cmd.Flags().GetString("output")
		if err != nil {
			return err
		}

		_, err = executePipeline(cmd, func(_ *config.Config, paths stagePaths) []pipeline.Stage {
			if out != "" {
				paths.raw = out
			}
			s := newStageSet(paths)
			return []pipeline.Stage{
				s.extract(),
				s.gateRaw("extract"),
			}
		})
		return err
	},
}

func init() {
	rootCmd.AddCommand(extractCmd)

	extractCmd.Flags().StringP("output", "o", "", "raw batch file to write (default is data/raw/jobs_raw.json under the configured data dir)")
}
