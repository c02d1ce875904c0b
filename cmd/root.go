package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/outreach-cli/internal/config"
)

var (
	cfg        *config.Config
	profile    string
	dryRunFlag bool
)

var rootCmd = &cobra.Command{
	Use:   "outreach-cli",
	Short: "B2B outreach lead pipeline with eligibility gating",
	Long: "Fetches leads from Lusha, enriches them, writes personalised messages and mails them. " +
		"Every stage checks leads against the do-not-contact list, the recent-contacts cooldown " +
		"and everything already sent.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load(profile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if dryRunFlag {
			c.DryRun = true
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
		if cfg.Profile != "" {
			zap.L().Info("profile loaded", zap.String("profile", cfg.Profile))
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&profile, "profile", "p", "", "consultant profile; loads .env.<profile>")
	rootCmd.PersistentFlags().BoolVar(&dryRunFlag, "dry-run", false, "generate previews and skip delivery")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
