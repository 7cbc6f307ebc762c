package flux

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fluxtrack/flux/internal/model"
	"github.com/fluxtrack/flux/internal/service"
	"github.com/fluxtrack/flux/internal/store"
)

var weightCmd = &cobra.Command{
	Use:   "weight",
	Short: "Log scale weight",
}

var (
	weightKg    float64
	weightDate  string
	weightTime  string
	weightNotes string
)

var weightAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Log a weigh-in and recalculate the affected days",
	RunE: func(cmd *cobra.Command, args []string) error {
		measuredAt, err := parseDateTimeOrNow(weightDate, weightTime)
		if err != nil {
			return err
		}
		return withStore(func(st store.Store) error {
			ctx := context.Background()
			params := service.DefaultParams()

			prev, err := previousScaleWeight(ctx, st, measuredAt)
			if err != nil {
				return err
			}
			check := service.ValidateWeightEntry(weightKg, prev)
			if !check.IsValid {
				return fmt.Errorf("rejected: %s", check.Warning)
			}
			if check.Warning != "" {
				fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %s\n", check.Warning)
			}

			id, err := st.CreateWeightLog(ctx, model.WeightLog{
				WeightKg:   weightKg,
				MeasuredAt: measuredAt,
				Notes:      weightNotes,
			})
			if err != nil {
				return err
			}

			engine := service.NewEngine(st, params, nil)
			if err := engine.OnWeightLogged(ctx, measuredAt); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged weight %d\n", id)
			return nil
		})
	},
}

func init() {
	weightAddCmd.Flags().Float64Var(&weightKg, "kg", 0, "Weight (kg)")
	weightAddCmd.Flags().StringVar(&weightDate, "date", "", "Date (YYYY-MM-DD), defaults to today")
	weightAddCmd.Flags().StringVar(&weightTime, "time", "", "Time (HH:MM)")
	weightAddCmd.Flags().StringVar(&weightNotes, "notes", "", "Notes")
	_ = weightAddCmd.MarkFlagRequired("kg")

	weightCmd.AddCommand(weightAddCmd)
	rootCmd.AddCommand(weightCmd)
}
