package flux

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fluxtrack/flux/internal/service"
	"github.com/fluxtrack/flux/internal/store"
)

var dayDate string

var dayCmd = &cobra.Command{
	Use:   "day",
	Short: "Show the daily log and computed state for a date",
	RunE: func(cmd *cobra.Command, args []string) error {
		day, err := service.ParseDay(dayDate)
		if err != nil {
			return err
		}
		key := day.Format("2006-01-02")
		return withStore(func(st store.Store) error {
			ctx := context.Background()
			out := cmd.OutOrStdout()

			dlog, err := st.DailyLog(ctx, key)
			if err != nil {
				return err
			}
			if dlog == nil {
				fmt.Fprintf(out, "%s: no daily log\n", key)
			} else {
				fmt.Fprintf(out, "%s  status=%s", dlog.Date, dlog.LogStatus)
				if dlog.NutritionCalories != nil {
					fmt.Fprintf(out, "  intake=%d kcal (P %.0fg / C %.0fg / F %.0fg)",
						*dlog.NutritionCalories, deref(dlog.NutritionProteinG), deref(dlog.NutritionCarbsG), deref(dlog.NutritionFatG))
				}
				if dlog.ScaleWeightKg != nil {
					fmt.Fprintf(out, "  scale=%.1f kg", *dlog.ScaleWeightKg)
				}
				fmt.Fprintln(out)
			}

			state, err := st.ComputedState(ctx, key)
			if err != nil {
				return err
			}
			if state == nil {
				fmt.Fprintf(out, "%s: no computed state\n", key)
				return nil
			}
			fmt.Fprintf(out, "trend %.2f kg (Δ %+.3f)  TDEE %.0f kcal ±%.0f (raw %.0f)\n",
				state.TrendWeightKg, state.WeightDeltaKg, state.EstimatedTDEEKcal, state.FluxConfidenceRange, state.RawTDEEKcal)
			return nil
		})
	},
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

func init() {
	dayCmd.Flags().StringVar(&dayDate, "date", "", "Date (YYYY-MM-DD), defaults to today")
	rootCmd.AddCommand(dayCmd)
}
