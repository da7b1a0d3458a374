package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bcorbett503/HoopRank/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "courtsync",
	Short: "Basketball venue deduplication engine",
	Long: "Fetches indoor gyms from OpenStreetMap, names generic outdoor courts, and removes duplicate " +
		"venues within and across the outdoor and indoor surveys before they ship to the app.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return eris.Wrap(err, "load config")
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return eris.Wrap(err, "init logger")
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
