package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/leadscan/internal/pipeline"
)

var (
	refreshZips       []string
	refreshStrictZips bool
	refreshNoYelp     bool
)

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Run the full pipeline: fetch, merge, persist, match",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initEnv()
		if err != nil {
			return err
		}
		defer env.Close()

		zips := cfg.Fetch.Zips
		if len(refreshZips) > 0 {
			zips = refreshZips
		}

		matcher := env.Matcher
		if refreshNoYelp {
			matcher = nil
		}

		p := pipeline.New(env.Fetchers, env.Store, matcher, pipeline.Options{
			Zips:       zips,
			StrictZips: refreshStrictZips,
		})
		run, err := p.Run(ctx)
		if err != nil {
			return err
		}

		zap.L().Info("refresh complete",
			zap.String("run_id", run.ID),
			zap.Int("fetched", run.Fetched),
			zap.Int("matched", run.Matched),
			zap.Int("failed", run.Failed),
		)
		return nil
	},
}

func init() {
	refreshCmd.Flags().StringSliceVar(&refreshZips, "zips", nil, "ZIP codes to fetch (default from config)")
	refreshCmd.Flags().BoolVar(&refreshStrictZips, "strict-zips", false, "drop results outside the requested ZIP codes")
	refreshCmd.Flags().BoolVar(&refreshNoYelp, "no-yelp", false, "skip the Yelp matching stage")
	rootCmd.AddCommand(refreshCmd)
}
