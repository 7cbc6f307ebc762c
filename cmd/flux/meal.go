package flux

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fluxtrack/flux/internal/model"
	"github.com/fluxtrack/flux/internal/service"
	"github.com/fluxtrack/flux/internal/store"
)

var mealCmd = &cobra.Command{
	Use:   "meal",
	Short: "Log meals",
}

var (
	mealName     string
	mealCalories int
	mealProtein  float64
	mealCarbs    float64
	mealFat      float64
	mealDate     string
	mealTime     string
	mealNotes    string
)

var mealAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Log a meal and recalculate the affected days",
	RunE: func(cmd *cobra.Command, args []string) error {
		loggedAt, err := parseDateTimeOrNow(mealDate, mealTime)
		if err != nil {
			return err
		}
		return withStore(func(st store.Store) error {
			ctx := context.Background()
			params := service.DefaultParams()

			tdee, err := currentTDEE(ctx, st, params)
			if err != nil {
				return err
			}
			check := service.ValidateCalorieEntry(mealCalories, tdee)
			if !check.IsValid {
				return fmt.Errorf("rejected: %s", check.Warning)
			}
			if check.Warning != "" {
				fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %s\n", check.Warning)
			}

			id, err := st.CreateMeal(ctx, model.Meal{
				Name:     mealName,
				Calories: mealCalories,
				ProteinG: mealProtein,
				CarbsG:   mealCarbs,
				FatG:     mealFat,
				LoggedAt: loggedAt,
				Notes:    mealNotes,
			})
			if err != nil {
				return err
			}

			engine := service.NewEngine(st, params, nil)
			if err := engine.OnMealLogged(ctx, loggedAt); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged meal %d\n", id)
			return nil
		})
	},
}

func init() {
	mealAddCmd.Flags().StringVar(&mealName, "name", "", "Meal name")
	mealAddCmd.Flags().IntVar(&mealCalories, "calories", 0, "Calories (kcal)")
	mealAddCmd.Flags().Float64Var(&mealProtein, "protein", 0, "Protein (g)")
	mealAddCmd.Flags().Float64Var(&mealCarbs, "carbs", 0, "Carbs (g)")
	mealAddCmd.Flags().Float64Var(&mealFat, "fat", 0, "Fat (g)")
	mealAddCmd.Flags().StringVar(&mealDate, "date", "", "Date (YYYY-MM-DD), defaults to today")
	mealAddCmd.Flags().StringVar(&mealTime, "time", "", "Time (HH:MM)")
	mealAddCmd.Flags().StringVar(&mealNotes, "notes", "", "Notes")
	_ = mealAddCmd.MarkFlagRequired("name")
	_ = mealAddCmd.MarkFlagRequired("calories")

	mealCmd.AddCommand(mealAddCmd)
	rootCmd.AddCommand(mealCmd)
}
