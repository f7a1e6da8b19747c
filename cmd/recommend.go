package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/jobscope/jobscope/internal/config"
	"github.com/jobscope/jobscope/internal/pipeline"
)

const promptAllProfiles = "All profiles"

var recommendCmd = &cobra.Command{
	Use:   "recommend",
	Short: "Score the demo profiles against the canonical jobs and print ranked matches",
	RunE: func(cmd *cobra.Command, _ []string) error {
		name, err := cmd.Flags().GetString("profile")
		if err != nil {
			return err
		}
		in, err := cmd.Flags().GetString("input")
		if err != nil {
			return err
		}
		out, err := cmd.Flags().GetString("output")
		if err != nil {
			return err
		}

		cfg, err := getConfig()
		if err != nil {
			return err
		}
		picked, err := pickProfiles(cfg.Recommend.Profiles, name)
		if err != nil {
			return err
		}

		rc, err := executePipeline(cmd, func(_ *config.Config, paths stagePaths) []pipeline.Stage {
			if in != "" {
				paths.canonical = in
			}
			if out != "" {
				paths.recs = out
			}
			return []pipeline.Stage{newStageSet(paths).recommend(picked)}
		})
		if err != nil {
			return err
		}

		for _, profile := range picked {
			pretty, _ := json.MarshalIndent(rc.Recs[profile.Name], "", "  ")
			fmt.Printf("recommendations for %q:\n%s\n", profile.Name, pretty)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(recommendCmd)

	recommendCmd.Flags().StringP("profile", "p", "", "profile name to score (default is an interactive prompt)")
	recommendCmd.Flags().StringP("input", "i", "", "canonical tables file to read")
	recommendCmd.Flags().StringP("output", "o", "", "recommendations file to write")
}

// pickProfiles narrows the configured profiles to the requested one. With
// no --profile flag the choice is made interactively.
func pickProfiles(profiles []config.Profile, name string) ([]config.Profile, error) {
	if len(profiles) == 0 {
		return nil, fmt.Errorf("no profiles configured under recommend.profiles")
	}

	if name == "" {
		items := make([]string, 0, len(profiles)+1)
		items = append(items, promptAllProfiles)
		for _, p := range profiles {
			items = append(items, p.Name)
		}
		prompt := promptui.Select{
			Label: "Choose a profile and press ENTER",
			Items: items,
		}
		_, selected, err := prompt.Run()
		if err != nil {
			return nil, err
		}
		name = selected
	}

	if name == promptAllProfiles {
		return profiles, nil
	}
	for _, p := range profiles {
		if p.Name == name {
			return []config.Profile{p}, nil
		}
	}
	return nil, fmt.Errorf("profile %q is not configured", name)
}
