package main

import (
	"github.com/spf13/cobra"

	"github.com/sells-group/leadscan/internal/export"
	"github.com/sells-group/leadscan/internal/store"
)

var (
	exportXLSXPath    string
	exportGeoJSONPath string
	exportZip         string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write stored places to XLSX and GeoJSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEnv()
		if err != nil {
			return err
		}
		defer env.Close()

		if err := env.Store.Migrate(ctx); err != nil {
			return err
		}

		places, err := env.Store.ListPlaces(ctx, store.Filter{Zip: exportZip})
		if err != nil {
			return err
		}

		xlsxPath := exportXLSXPath
		if xlsxPath == "" {
			xlsxPath = cfg.Export.XLSXPath
		}
		geojsonPath := exportGeoJSONPath
		if geojsonPath == "" {
			geojsonPath = cfg.Export.GeoJSONPath
		}

		if xlsxPath != "" {
			if err := export.WriteXLSX(places, xlsxPath); err != nil {
				return err
			}
		}
		if geojsonPath != "" {
			if err := export.WriteGeoJSON(places, geojsonPath); err != nil {
				return err
			}
		}
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportXLSXPath, "xlsx", "", "XLSX output path (default from config)")
	exportCmd.Flags().StringVar(&exportGeoJSONPath, "geojson", "", "GeoJSON output path (default from config)")
	exportCmd.Flags().StringVar(&exportZip, "zip", "", "restrict export to one ZIP code")
	rootCmd.AddCommand(exportCmd)
}
