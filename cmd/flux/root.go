package flux

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	dbPath string
	pgDSN  string
)

var rootCmd = &cobra.Command{
	Use:   "flux",
	Short: "flux estimates your TDEE and weight trend from logged meals and scale readings",
	Long: "flux is a local-first metabolic tracking engine: log meals and weigh-ins,\n" +
		"and it maintains a smoothed weight trend and an adaptive TDEE estimate per day.",
}

func Execute() {
	// Optional .env for FLUX_DB / FLUX_PG_DSN; absence is fine.
	_ = godotenv.Load()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Path to SQLite database (or FLUX_DB)")
	rootCmd.PersistentFlags().StringVar(&pgDSN, "dsn", "", "PostgreSQL connection string (or FLUX_PG_DSN); overrides --db")
}
