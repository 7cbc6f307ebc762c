package flux

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/fluxtrack/flux/internal/model"
	"github.com/fluxtrack/flux/internal/store"
)

var goalCmd = &cobra.Command{
	Use:   "goal",
	Short: "Manage goals",
}

var (
	goalCalories  int
	goalProtein   float64
	goalCarbs     float64
	goalFat       float64
	goalType      string
	goalRate      float64
	goalEffective string
)

var goalSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Set goals effective from a date",
	RunE: func(cmd *cobra.Command, args []string) error {
		goalType = strings.TrimSpace(strings.ToLower(goalType))
		switch goalType {
		case model.GoalTypeLose, model.GoalTypeMaintain, model.GoalTypeGain:
		default:
			return fmt.Errorf("invalid --type %q (expected lose, maintain, or gain)", goalType)
		}
		if goalRate < 0 {
			return fmt.Errorf("--rate must be >= 0")
		}
		effective := strings.TrimSpace(goalEffective)
		if effective == "" {
			effective = time.Now().Format("2006-01-02")
		}
		if _, err := time.Parse("2006-01-02", effective); err != nil {
			return fmt.Errorf("invalid --effective %q (expected YYYY-MM-DD)", effective)
		}
		return withStore(func(st store.Store) error {
			if err := st.SetGoals(context.Background(), model.UserGoals{
				CalorieGoal:       goalCalories,
				ProteinGoalG:      goalProtein,
				CarbsGoalG:        goalCarbs,
				FatGoalG:          goalFat,
				GoalType:          goalType,
				GoalRateKgPerWeek: goalRate,
				EffectiveDate:     effective,
			}); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Goals set effective %s\n", effective)
			return nil
		})
	},
}

func init() {
	goalSetCmd.Flags().IntVar(&goalCalories, "calories", 0, "Daily calorie goal (kcal)")
	goalSetCmd.Flags().Float64Var(&goalProtein, "protein", 0, "Protein goal (g)")
	goalSetCmd.Flags().Float64Var(&goalCarbs, "carbs", 0, "Carbs goal (g)")
	goalSetCmd.Flags().Float64Var(&goalFat, "fat", 0, "Fat goal (g)")
	goalSetCmd.Flags().StringVar(&goalType, "type", "maintain", "Goal type: lose, maintain, or gain")
	goalSetCmd.Flags().Float64Var(&goalRate, "rate", 0, "Target rate magnitude (kg/week)")
	goalSetCmd.Flags().StringVar(&goalEffective, "effective", "", "Effective date (YYYY-MM-DD), defaults to today")
	_ = goalSetCmd.MarkFlagRequired("calories")

	goalCmd.AddCommand(goalSetCmd)
	rootCmd.AddCommand(goalCmd)
}
