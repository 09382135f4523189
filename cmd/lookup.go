package main

import (
	"encoding/json"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/leadscan/pkg/yelp"
)

var lookupLocation string

var lookupCmd = &cobra.Command{
	Use:   "lookup <business name>",
	Short: "One-shot Google and Yelp lookup for a single business, printed as JSON",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		name := strings.Join(args, " ")

		env, err := initEnv()
		if err != nil {
			return err
		}
		defer env.Close()

		query := name
		if lookupLocation != "" {
			query += " " + lookupLocation
		}

		out := map[string]any{"query": query}

		search, err := env.Places.TextSearch(ctx, query)
		if err != nil {
			return eris.Wrap(err, "lookup: google search")
		}
		if len(search.Results) > 0 {
			details, err := env.Places.Details(ctx, search.Results[0].PlaceID)
			if err != nil {
				return eris.Wrap(err, "lookup: google details")
			}
			out["google"] = details
		}

		params := yelp.SearchParams{Term: name, Limit: 1}
		if lookupLocation != "" {
			params.Location = lookupLocation
		} else if len(search.Results) > 0 {
			loc := search.Results[0].Geometry.Location
			params.Lat, params.Lon = loc.Lat, loc.Lng
		}
		if params.Lat != nil || params.Location != "" {
			hits, err := env.Yelp.Search(ctx, params)
			if err != nil {
				zap.L().Warn("lookup: yelp search failed", zap.Error(err))
			} else if len(hits) > 0 {
				biz, err := env.Yelp.Details(ctx, hits[0].ID)
				if err != nil {
					return eris.Wrap(err, "lookup: yelp details")
				}
				out["yelp"] = biz

				reviews, err := env.Yelp.Reviews(ctx, hits[0].ID)
				if err != nil {
					zap.L().Warn("lookup: yelp reviews failed", zap.Error(err))
				} else {
					out["yelp_reviews"] = reviews
				}
			}
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	},
}

func init() {
	lookupCmd.Flags().StringVar(&lookupLocation, "location", "", "city/state hint for the search")
	rootCmd.AddCommand(lookupCmd)
}
