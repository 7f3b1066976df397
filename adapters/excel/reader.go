package excel

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"sedes/domain/dataset"
	"sedes/internal"
)

var utf8BOM = []byte("\xef\xbb\xbf")

// DataReader parses CSV and XLSX content into a RawTable. Cells are kept
// exactly as parsed; trimming and normalization happen downstream.
type DataReader struct {
	format Format
	sheet  string
	logger *internal.Logger
}

// NewDataReader creates a reader for the given format. FormatAuto sniffs
// the content: a zip signature means xlsx, anything else is read as CSV.
func NewDataReader(format Format, sheet string, logger *internal.Logger) *DataReader {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &DataReader{format: format, sheet: sheet, logger: logger.Named("DataReader")}
}

// DetectFormat guesses the format from a file name or URL path and an
// optional Content-Type header.
func DetectFormat(name, contentType string) Format {
	ct := strings.ToLower(contentType)
	switch {
	case strings.Contains(ct, "spreadsheetml"):
		return FormatXLSX
	case strings.Contains(ct, "text/csv"):
		return FormatCSV
	}

	lower := strings.ToLower(name)
	if i := strings.IndexAny(lower, "?#"); i >= 0 {
		if strings.Contains(lower[i:], "output=xlsx") {
			return FormatXLSX
		}
		if strings.Contains(lower[i:], "output=csv") {
			return FormatCSV
		}
		lower = lower[:i]
	}
	switch filepath.Ext(lower) {
	case ".xlsx", ".xlsm":
		return FormatXLSX
	case ".csv", ".tsv", ".txt":
		return FormatCSV
	}
	return FormatAuto
}

// ReadFile reads a local CSV or XLSX file
func (r *DataReader) ReadFile(path string) (dataset.RawTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	reader := r
	if r.format == FormatAuto {
		if detected := DetectFormat(path, ""); detected != FormatAuto {
			reader = &DataReader{format: detected, sheet: r.sheet, logger: r.logger}
		}
	}
	return reader.Read(f)
}

// Read parses the full content of rd
func (r *DataReader) Read(rd io.Reader) (dataset.RawTable, error) {
	content, err := io.ReadAll(rd)
	if err != nil {
		return nil, fmt.Errorf("failed to read content: %w", err)
	}

	format := r.format
	if format == FormatAuto {
		format = sniffFormat(content)
	}

	start := time.Now()
	var table dataset.RawTable
	switch format {
	case FormatXLSX:
		table, err = r.readExcel(content)
	default:
		table, err = r.readCSV(content)
	}
	if err != nil {
		return nil, err
	}

	r.logger.Debug("%s parsed in %.2fms (%d rows)", strings.ToUpper(string(format)),
		float64(time.Since(start).Nanoseconds())/1e6, len(table))
	return table, nil
}

func sniffFormat(content []byte) Format {
	if bytes.HasPrefix(content, []byte("PK\x03\x04")) {
		return FormatXLSX
	}
	return FormatCSV
}

// readCSV keeps ragged rows: the header row and data rows need not agree
// on field count.
func (r *DataReader) readCSV(content []byte) (dataset.RawTable, error) {
	content = bytes.TrimPrefix(content, utf8BOM)

	reader := csv.NewReader(bytes.NewReader(content))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse CSV: %w", err)
	}
	return dataset.RawTable(rows), nil
}

func (r *DataReader) readExcel(content []byte) (dataset.RawTable, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel workbook: %w", err)
	}
	defer f.Close()

	sheet := r.sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("workbook has no sheets")
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}
	return dataset.RawTable(rows), nil
}
