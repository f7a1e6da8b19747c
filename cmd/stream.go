package cmd

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/jobscope/jobscope/internal/source"
)

var streamCmd = &cobra.Command{
	Use:   "stream",
	Short: "Demo a simulated posting stream with a live skill tally",
	RunE: func(cmd *cobra.Command, _ []string) error {
		count, err := cmd.Flags().GetInt("count")
		if err != nil {
			return err
		}
		delay, err := cmd.Flags().GetDuration("delay")
		if err != nil {
			return err
		}

		logger := newLogger()
		defer logger.Sync()

		producer := source.NewStreamProducer(viper.GetInt64("seed"))
		consumer := source.NewStreamConsumer()

		logger.Info("starting the stream demo",
			zap.Int("count", count),
			zap.Duration("delay", delay),
		)

		for rec := range producer.Stream(cmd.Context(), count, delay) {
			consumer.Ingest(rec)
			logger.Info("posting received",
				zap.String("title", rec.Fields["title"]),
				zap.String("company", rec.Fields["company"]),
				zap.String("skills", rec.Fields["skills"]),
			)
		}

		pretty, _ := json.MarshalIndent(consumer.TopSkills(), "", "  ")
		fmt.Printf("skill tally:\n%s\n", pretty)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(streamCmd)

	streamCmd.Flags().IntP("count", "n", 25, "number of synthetic postings to emit")
	streamCmd.Flags().Duration("delay", 200*time.Millisecond, "pause between postings")
}
