package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"PriceTicker/internal/config"
	"PriceTicker/internal/logger"
)

var cfg *config.Config

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:          "ticker",
	Short:        "Crypto price ticker for Gemini pairs",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		path, _ := cmd.Flags().GetString("config")
		var err error
		cfg, err = config.Load(path)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
			cfg.Log.Level = lvl
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("config validation: %w", err)
		}
		logger.Setup(logger.Config{Level: cfg.Log.Level, Pretty: cfg.Log.Pretty})
		return nil
	},
	RunE: func(cmd *cobra.Command, _ []string) error {
		return run(cmd.Context(), cfg)
	},
}

var fetchCmd = &cobra.Command{
	Use:   "fetch [BASE/QUOTE]",
	Short: "Fetch one price and print it",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return fetchOnce(cmd.Context(), cfg, args)
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (default: "+config.DefaultPath+")")
	rootCmd.PersistentFlags().String("log-level", "", "log level override (debug, info, warn, error)")
	rootCmd.AddCommand(fetchCmd)
}
