package excel

import (
	"time"
)

// Format is the tabular encoding of the source resource
type Format string

const (
	FormatAuto Format = "auto"
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// ParseFormat maps a config string to a Format, defaulting to auto-detection
func ParseFormat(s string) Format {
	switch Format(s) {
	case FormatCSV, FormatXLSX:
		return Format(s)
	default:
		return FormatAuto
	}
}

// ExcelConfig holds configuration for the spreadsheet data source.
// Exactly one of URL and FilePath is expected; URL wins when both are set.
type ExcelConfig struct {
	URL      string        `json:"url"`
	FilePath string        `json:"file_path"`
	Format   Format        `json:"format"`
	Sheet    string        `json:"sheet"` // xlsx only; empty means the first sheet
	Timeout  time.Duration `json:"timeout"`
	MaxBytes int64         `json:"max_bytes"`
}

// DefaultExcelConfig returns sensible defaults for spreadsheet ingestion
func DefaultExcelConfig() ExcelConfig {
	return ExcelConfig{
		Format:   FormatAuto,
		Timeout:  30 * time.Second,
		MaxBytes: 50 * 1024 * 1024, // 50MB
	}
}
