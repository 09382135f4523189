package export

import (
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"

	"github.com/sells-group/leadscan/internal/model"
)

var xlsxHeaders = []string{
	"Place ID", "Name", "Address", "City", "State", "Zip",
	"Phone", "Website", "Category", "Hours", "Distance (mi)",
	"Google Rating", "Google Reviews", "Price",
	"Yelp Rating", "Yelp Reviews", "Yelp Price", "Cuisines",
	"Sources", "Needs Verification", "GPV Projection",
}

// WriteXLSX renders places as a single-sheet workbook at path.
func WriteXLSX(places []model.Place, path string) error {
	wb := xlsx.NewFile()
	sheet, err := wb.AddSheet("Restaurants")
	if err != nil {
		return eris.Wrap(err, "export: add sheet")
	}

	header := sheet.AddRow()
	for _, h := range xlsxHeaders {
		cell := header.AddCell()
		cell.SetString(h)
		cell.GetStyle().Font.Bold = true
	}

	for _, p := range places {
		row := sheet.AddRow()
		row.AddCell().SetString(p.PlaceID)
		row.AddCell().SetString(p.Name)
		row.AddCell().SetString(p.FormattedAddress)
		row.AddCell().SetString(p.City)
		row.AddCell().SetString(p.State)
		row.AddCell().SetString(p.ZipCode)
		row.AddCell().SetString(p.LocalPhone)
		row.AddCell().SetString(p.Website)
		row.AddCell().SetString(p.Category)
		row.AddCell().SetString(p.OpeningHours)
		addFloat(row, p.DistanceMiles)
		addFloat(row, p.Rating)
		addInt(row, p.UserRatingsTotal)
		row.AddCell().SetString(priceSymbol(p.PriceLevel))
		addFloat(row, p.YelpRating)
		addInt(row, p.YelpReviews)
		addString(row, p.YelpPriceTier)
		addString(row, p.YelpCuisines)
		row.AddCell().SetString(p.AppearedIn)
		row.AddCell().SetBool(p.NeedsVerification)
		addFloat(row, p.GPVProjection)
	}

	if err := wb.Save(path); err != nil {
		return eris.Wrapf(err, "export: save workbook %s", path)
	}
	zap.L().Info("export: wrote workbook",
		zap.String("path", path),
		zap.Int("rows", len(places)),
	)
	return nil
}

// priceSymbol renders a Google price level (0-4) as dollar signs. Level 0
// ("free") and level 1 both render a single symbol.
func priceSymbol(level *int) string {
	if level == nil {
		return ""
	}
	n := *level
	if n < 1 {
		n = 1
	}
	if n > 4 {
		n = 4
	}
	out := ""
	for i := 0; i < n; i++ {
		out += "$"
	}
	return out
}

func addFloat(row *xlsx.Row, v *float64) {
	cell := row.AddCell()
	if v != nil {
		cell.SetFloat(*v)
	}
}

func addInt(row *xlsx.Row, v *int) {
	cell := row.AddCell()
	if v != nil {
		cell.SetInt(*v)
	}
}

func addString(row *xlsx.Row, v *string) {
	cell := row.AddCell()
	if v != nil {
		cell.SetString(*v)
	}
}
