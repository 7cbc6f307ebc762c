package flux

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/fluxtrack/flux/internal/service"
	"github.com/fluxtrack/flux/internal/store"
)

var qualityDays int

var qualityCmd = &cobra.Command{
	Use:   "quality",
	Short: "Score recent logging quality",
	RunE: func(cmd *cobra.Command, args []string) error {
		if qualityDays <= 0 {
			qualityDays = 30
		}
		return withStore(func(st store.Store) error {
			to := time.Now()
			from := to.AddDate(0, 0, -(qualityDays - 1))
			report, err := service.DataQualityForRange(context.Background(), st, from, to, service.DefaultParams())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Data quality over last %d day(s): %.0f/100\n", qualityDays, report.Score)
			for _, issue := range report.Issues {
				fmt.Fprintf(out, "  - %s\n", issue)
			}
			return nil
		})
	},
}

func init() {
	qualityCmd.Flags().IntVar(&qualityDays, "days", 30, "Number of days to score")
	rootCmd.AddCommand(qualityCmd)
}
