// Package tabular reads company lists from CSV and XLSX tables.
package tabular

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/address-intel/internal/model"
)

// ErrUnsupportedFormat is returned for file extensions other than .csv and .xlsx.
var ErrUnsupportedFormat = eris.New("tabular: unsupported file format")

// ErrNoRows is returned when a table has a header but no usable data rows.
var ErrNoRows = eris.New("tabular: no data rows")

// MissingColumnsError reports required columns absent from the header row.
type MissingColumnsError struct {
	Missing []string
}

func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("tabular: missing required columns: %s", strings.Join(e.Missing, ", "))
}

// Options configures table reading.
type Options struct {
	// MaxRows caps the number of data rows read. 0 means unlimited.
	MaxRows int
}

// Column aliases accepted for the two required fields, checked in order
// against the lowercased, trimmed header.
var (
	nameAliases    = []string{"company name", "name", "company"}
	websiteAliases = []string{"official website", "website", "url", "web site"}
)

// ReadCompanies reads a company table from path, dispatching on extension.
// Rows with an empty website are kept; rows empty in both columns are skipped.
func ReadCompanies(path string, opts Options) ([]model.Company, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		f, err := os.Open(path)
		if err != nil {
			return nil, eris.Wrapf(err, "tabular: open %s", path)
		}
		defer f.Close() //nolint:errcheck
		return ReadCompaniesCSV(f, opts)
	case ".xlsx":
		return readXLSX(path, opts)
	default:
		return nil, ErrUnsupportedFormat
	}
}

// ReadCompaniesCSV reads a company table from CSV content.
func ReadCompaniesCSV(r io.Reader, opts Options) ([]model.Company, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // allow variable fields

	records, err := reader.ReadAll()
	if err != nil {
		return nil, eris.Wrap(err, "tabular: read csv")
	}
	return fromRecords(records, opts)
}

func readXLSX(path string, opts Options) ([]model.Company, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "tabular: open xlsx")
	}
	if len(f.Sheets) == 0 {
		return nil, eris.New("tabular: xlsx has no sheets")
	}

	sheet := f.Sheets[0]
	records := make([][]string, 0, len(sheet.Rows))
	for _, row := range sheet.Rows {
		cells := make([]string, len(row.Cells))
		for j, cell := range row.Cells {
			cells[j] = cell.String()
		}
		records = append(records, cells)
	}
	return fromRecords(records, opts)
}

func fromRecords(records [][]string, opts Options) ([]model.Company, error) {
	if len(records) == 0 {
		return nil, ErrNoRows
	}

	colIdx := mapColumns(records[0])
	nameIdx, nameOK := findColumn(colIdx, nameAliases)
	siteIdx, siteOK := findColumn(colIdx, websiteAliases)
	if !nameOK || !siteOK {
		missing := &MissingColumnsError{}
		if !nameOK {
			missing.Missing = append(missing.Missing, "company name")
		}
		if !siteOK {
			missing.Missing = append(missing.Missing, "official website")
		}
		return nil, missing
	}

	var companies []model.Company
	for _, record := range records[1:] {
		if opts.MaxRows > 0 && len(companies) >= opts.MaxRows {
			break
		}
		name := getCell(record, nameIdx)
		website := getCell(record, siteIdx)
		if name == "" && website == "" {
			continue
		}
		companies = append(companies, model.Company{Name: name, Website: website})
	}
	if len(companies) == 0 {
		return nil, ErrNoRows
	}
	return companies, nil
}

// mapColumns builds a case-insensitive column name to index map.
func mapColumns(header []string) map[string]int {
	m := make(map[string]int, len(header))
	for i, col := range header {
		m[strings.ToLower(strings.TrimSpace(col))] = i
	}
	return m
}

func findColumn(colIdx map[string]int, aliases []string) (int, bool) {
	for _, alias := range aliases {
		if idx, ok := colIdx[alias]; ok {
			return idx, true
		}
	}
	return 0, false
}

func getCell(record []string, idx int) string {
	if idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}
