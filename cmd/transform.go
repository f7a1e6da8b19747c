package cmd

import (
	"github.com/spf13/cobra"

	"github.com/jobscope/jobscope/internal/config"
	"github.com/jobscope/jobscope/internal/pipeline"
)

var transformCmd = &cobra.Command{
	Use:   "transform",
	Short: "Resolve, deduplicate and canonicalize the previously extracted batch",
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
				paths.raw = in
			}
			if out != "" {
				paths.canonical = out
				paths.canonicalCSV = sidecarCSV(out)
			}
			s := newStageSet(paths)
			return []pipeline.Stage{
				s.transform(),
				s.gateCurated("transform"),
			}
		})
		return err
	},
}

func init() {
	rootCmd.AddCommand(transformCmd)

	transformCmd.Flags().StringP("input", "i", "", "raw batch file to read")
	transformCmd.Flags().StringP("output", "o", "", "canonical tables file to write")
}
