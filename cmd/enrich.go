package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var enrichCmd = &cobra.Command{
	Use:   "enrich",
	Short: "Run Yelp matching against stored places",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initEnv()
		if err != nil {
			return err
		}
		defer env.Close()

		if err := env.Store.Migrate(ctx); err != nil {
			return err
		}

		res, err := env.Matcher.Run(ctx)
		if err != nil {
			return err
		}

		zap.L().Info("enrich complete",
			zap.Int("matched", res.Matched),
			zap.Int("failed", res.Failed),
		)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(enrichCmd)
}
