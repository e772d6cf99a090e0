// Package export writes batch results as styled XLSX workbooks.
package export

import (
	"io"
	"strconv"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/address-intel/internal/model"
)

const sheetName = "Addresses"

// resultColumns defines the ordered output columns.
var resultColumns = []string{
	"COMPANY NAME",
	"WEBSITE",
	"STREET ADDRESS",
	"CITY",
	"STATE",
	"POSTAL CODE",
	"COUNTRY",
	"LATITUDE",
	"LONGITUDE",
	"MATCH",
	"STATUS",
	"ERROR DETAIL",
	"SOURCE LINK",
}

// WriteXLSX writes result rows as an XLSX workbook to w.
func WriteXLSX(w io.Writer, rows []model.ResultRow) error {
	f, err := buildFile(rows)
	if err != nil {
		return err
	}
	if err := f.Write(w); err != nil {
		return eris.Wrap(err, "export: write xlsx")
	}
	return nil
}

// SaveXLSX writes result rows as an XLSX workbook at path.
func SaveXLSX(path string, rows []model.ResultRow) error {
	f, err := buildFile(rows)
	if err != nil {
		return err
	}
	if err := f.Save(path); err != nil {
		return eris.Wrap(err, "export: save xlsx")
	}
	return nil
}

func buildFile(rows []model.ResultRow) (*xlsx.File, error) {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet(sheetName)
	if err != nil {
		return nil, eris.Wrap(err, "export: add sheet")
	}

	headerStyle := xlsx.NewStyle()
	headerStyle.Font.Bold = true
	headerStyle.ApplyFont = true

	widths := make([]int, len(resultColumns))
	header := sheet.AddRow()
	for i, col := range resultColumns {
		cell := header.AddCell()
		cell.SetString(col)
		cell.SetStyle(headerStyle)
		widths[i] = len(col)
	}

	for _, r := range rows {
		row := sheet.AddRow()
		for i, val := range buildRow(r) {
			row.AddCell().SetString(val)
			if len(val) > widths[i] {
				widths[i] = len(val)
			}
		}
	}

	for i, w := range widths {
		sheet.SetColWidth(i, i, float64(w+2))
	}
	return f, nil
}

// buildRow maps a ResultRow to one spreadsheet row.
func buildRow(r model.ResultRow) []string {
	var addr model.EnrichedAddress
	if r.Address != nil {
		addr = *r.Address
	}

	return []string{
		r.Company.Name,              // COMPANY NAME
		r.Company.Website,           // WEBSITE
		addr.Street,                 // STREET ADDRESS
		addr.City,                   // CITY
		addr.Region,                 // STATE
		addr.PostalCode,             // POSTAL CODE
		addr.Country,                // COUNTRY
		formatCoord(addr.Latitude),  // LATITUDE
		formatCoord(addr.Longitude), // LONGITUDE
		string(addr.Match),          // MATCH
		string(r.Status),            // STATUS
		r.ErrorDetail,               // ERROR DETAIL
		r.SourceURL,                 // SOURCE LINK
	}
}

// formatCoord renders a coordinate without exponent or padding artifacts.
func formatCoord(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
