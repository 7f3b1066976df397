package excel

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"sedes/domain/dataset"
	"sedes/internal"
	"sedes/internal/errors"
	"sedes/ports"
)

// NewSource returns the TableSource described by config
func NewSource(config ExcelConfig, logger *internal.Logger) (ports.TableSource, error) {
	switch {
	case config.URL != "":
		return NewHTTPSource(config, nil, logger), nil
	case config.FilePath != "":
		return NewFileSource(config, logger), nil
	default:
		return nil, errors.ConfigInvalid("either a source URL or a source file is required")
	}
}

// FileSource reads the spreadsheet export from the local filesystem
type FileSource struct {
	path   string
	reader *DataReader
}

// NewFileSource creates a file-backed table source
func NewFileSource(config ExcelConfig, logger *internal.Logger) *FileSource {
	return &FileSource{
		path:   config.FilePath,
		reader: NewDataReader(config.Format, config.Sheet, logger),
	}
}

// Fetch reads and parses the file
func (s *FileSource) Fetch(ctx context.Context) (dataset.RawTable, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Transport(s.path, err)
	}
	table, err := s.reader.ReadFile(s.path)
	if err != nil {
		return nil, errors.Transport(s.path, err)
	}
	return table, nil
}

// Describe names the source for logs and load history
func (s *FileSource) Describe() string {
	return "file:" + s.path
}

// HTTPSource downloads the published export, e.g. a Google Sheets
// "output=csv" link.
type HTTPSource struct {
	url      string
	format   Format
	sheet    string
	maxBytes int64
	client   *http.Client
	logger   *internal.Logger
}

// NewHTTPSource creates a URL-backed table source. A nil client gets one
// with the configured timeout.
func NewHTTPSource(config ExcelConfig, client *http.Client, logger *internal.Logger) *HTTPSource {
	if client == nil {
		client = &http.Client{Timeout: config.Timeout}
	}
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &HTTPSource{
		url:      config.URL,
		format:   config.Format,
		sheet:    config.Sheet,
		maxBytes: config.MaxBytes,
		client:   client,
		logger:   logger.Named("HTTPSource"),
	}
}

// Fetch downloads and parses the resource
func (s *HTTPSource) Fetch(ctx context.Context) (dataset.RawTable, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, errors.Transport(s.url, err)
	}

	s.logger.Debug("GET %s", s.url)
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, errors.Transport(s.url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, errors.Transport(s.url, fmt.Errorf("unexpected status %s", resp.Status))
	}

	var body io.Reader = resp.Body
	if s.maxBytes > 0 {
		body = io.LimitReader(resp.Body, s.maxBytes+1)
	}
	content, err := io.ReadAll(body)
	if err != nil {
		return nil, errors.Transport(s.url, err)
	}
	if s.maxBytes > 0 && int64(len(content)) > s.maxBytes {
		return nil, errors.Transport(s.url, fmt.Errorf("response exceeds %d bytes", s.maxBytes))
	}

	format := s.format
	if format == FormatAuto {
		format = DetectFormat(s.url, resp.Header.Get("Content-Type"))
	}

	table, err := NewDataReader(format, s.sheet, s.logger).Read(bytes.NewReader(content))
	if err != nil {
		return nil, errors.Transport(s.url, err)
	}
	s.logger.Info("fetched %d bytes, %d rows", len(content), len(table))
	return table, nil
}

// Describe names the source for logs and load history
func (s *HTTPSource) Describe() string {
	return s.url
}
