package flux

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fluxtrack/flux/internal/service"
	"github.com/fluxtrack/flux/internal/store"
)

var recalcFrom string

var recalcCmd = &cobra.Command{
	Use:   "recalc",
	Short: "Recalculate trend weight and TDEE forward from a date",
	RunE: func(cmd *cobra.Command, args []string) error {
		from, err := service.ParseDay(recalcFrom)
		if err != nil {
			return err
		}
		return withStore(func(st store.Store) error {
			engine := service.NewEngine(st, service.DefaultParams(), nil)
			count, err := engine.RecalculateTDEEFromDate(context.Background(), from)
			if err != nil {
				return err
			}
			if count == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No weight data in range; nothing recalculated")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Recalculated %d day(s)\n", count)
			return nil
		})
	},
}

func init() {
	recalcCmd.Flags().StringVar(&recalcFrom, "from", "", "Anchor date (YYYY-MM-DD), defaults to today")
	rootCmd.AddCommand(recalcCmd)
}
