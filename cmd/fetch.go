package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/leadscan/internal/pipeline"
)

var fetchZips []string

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch, merge, and persist records without Yelp matching",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initEnv()
		if err != nil {
			return err
		}
		defer env.Close()

		zips := cfg.Fetch.Zips
		if len(fetchZips) > 0 {
			zips = fetchZips
		}

		p := pipeline.New(env.Fetchers, env.Store, nil, pipeline.Options{Zips: zips})
		run, err := p.Run(ctx)
		if err != nil {
			return err
		}

		zap.L().Info("fetch complete",
			zap.String("run_id", run.ID),
			zap.Int("fetched", run.Fetched),
		)
		return nil
	},
}

func init() {
	fetchCmd.Flags().StringSliceVar(&fetchZips, "zips", nil, "ZIP codes to fetch (default from config)")
	rootCmd.AddCommand(fetchCmd)
}
