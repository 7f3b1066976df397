package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"sedes/domain/dataset"
	"sedes/internal/errors"
	"sedes/internal/search"
)

// Config represents the complete application configuration
type Config struct {
	Source   SourceConfig
	Server   ServerConfig
	Admin    AdminConfig
	Database DatabaseConfig
	Catalog  CatalogConfig
	LogLevel string
}

// SourceConfig locates the published spreadsheet
type SourceConfig struct {
	URL            string
	File           string
	Format         string
	Sheet          string
	FetchTimeout   time.Duration
	HeaderRowIndex int
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port        string
	GinMode     string
	CORSOrigins []string
	SessionTTL  time.Duration
}

// AdminConfig holds the health, reload and profiling listener settings
type AdminConfig struct {
	Port    string
	Enabled bool
}

// DatabaseConfig holds the optional load history store. An empty URL
// disables it.
type DatabaseConfig struct {
	URL string
}

// Enabled reports whether load history is persisted
func (d DatabaseConfig) Enabled() bool {
	return d.URL != ""
}

// CatalogConfig holds the category labels and the metadata column mapping
type CatalogConfig struct {
	File       string
	Categories []string
	Mapping    dataset.FieldMapping
}

// CatalogFile is the YAML layout of CATEGORIES_FILE. Mapping entries that
// are left out keep their defaults.
type CatalogFile struct {
	Categories []string             `yaml:"categories"`
	Mapping    dataset.FieldMapping `yaml:"mapping"`
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Source:   loadSourceConfig(),
		Server:   loadServerConfig(),
		Admin:    loadAdminConfig(),
		Database: DatabaseConfig{URL: os.Getenv("DATABASE_URL")},
		LogLevel: getEnvOrDefault("LOG_LEVEL", "INFO"),
	}

	catalog, err := LoadCatalog(os.Getenv("CATEGORIES_FILE"))
	if err != nil {
		return nil, errors.Wrap(err, "failed to load category catalog")
	}
	config.Catalog = *catalog

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

func loadSourceConfig() SourceConfig {
	return SourceConfig{
		URL:            os.Getenv("SOURCE_URL"),
		File:           os.Getenv("SOURCE_FILE"),
		Format:         strings.ToLower(getEnvOrDefault("SOURCE_FORMAT", "auto")),
		Sheet:          os.Getenv("SOURCE_SHEET"),
		FetchTimeout:   getEnvDurationOrDefault("FETCH_TIMEOUT", 30*time.Second),
		HeaderRowIndex: getEnvIntOrDefault("HEADER_ROW_INDEX", dataset.DefaultHeaderRowIndex),
	}
}

func loadServerConfig() ServerConfig {
	return ServerConfig{
		Port:        getEnvOrDefault("PORT", "8080"),
		GinMode:     getEnvOrDefault("GIN_MODE", "release"),
		CORSOrigins: getEnvListOrDefault("CORS_ORIGINS", []string{"*"}),
		SessionTTL:  getEnvDurationOrDefault("SESSION_TTL", 2*time.Hour),
	}
}

func loadAdminConfig() AdminConfig {
	return AdminConfig{
		Port:    getEnvOrDefault("ADMIN_PORT", "6060"),
		Enabled: getEnvBoolOrDefault("ADMIN_ENABLED", true),
	}
}

// LoadCatalog resolves the category labels and field mapping from a catalog
// file, falling back to the built-in defaults when path is empty.
func LoadCatalog(path string) (*CatalogConfig, error) {
	catalog := &CatalogConfig{
		File:       path,
		Categories: search.DefaultCategoryLabels(),
		Mapping:    dataset.DefaultFieldMapping(),
	}
	if path == "" {
		return catalog, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.ConfigInvalid(fmt.Sprintf("cannot read CATEGORIES_FILE %s: %v", path, err))
	}
	file, err := ParseCatalog(data)
	if err != nil {
		return nil, err
	}

	if len(file.Categories) > 0 {
		catalog.Categories = file.Categories
	}
	catalog.Mapping = mergeMapping(catalog.Mapping, file.Mapping)
	return catalog, nil
}

// ParseCatalog decodes a category catalog document
func ParseCatalog(data []byte) (*CatalogFile, error) {
	var file CatalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, errors.ConfigInvalid(fmt.Sprintf("invalid category catalog: %v", err))
	}
	labels := make([]string, 0, len(file.Categories))
	for _, label := range file.Categories {
		if label = strings.TrimSpace(label); label != "" {
			labels = append(labels, label)
		}
	}
	file.Categories = labels
	return &file, nil
}

func mergeMapping(base, override dataset.FieldMapping) dataset.FieldMapping {
	pick := func(def, over []string) []string {
		if len(over) > 0 {
			return over
		}
		return def
	}
	return dataset.FieldMapping{
		Municipality: pick(base.Municipality, override.Municipality),
		Site:         pick(base.Site, override.Site),
		Institution:  pick(base.Institution, override.Institution),
		Code:         pick(base.Code, override.Code),
		Zone:         pick(base.Zone, override.Zone),
		Students:     pick(base.Students, override.Students),
		Teachers:     pick(base.Teachers, override.Teachers),
	}
}

func validateConfig(config *Config) error {
	src := config.Source
	if src.URL == "" && src.File == "" {
		return errors.ConfigInvalid("one of SOURCE_URL or SOURCE_FILE is required")
	}
	if src.URL != "" && src.File != "" {
		return errors.ConfigInvalid("SOURCE_URL and SOURCE_FILE are mutually exclusive")
	}
	switch src.Format {
	case "auto", "csv", "xlsx":
	default:
		return errors.ConfigInvalid(fmt.Sprintf("SOURCE_FORMAT must be auto, csv or xlsx, got %q", src.Format))
	}
	if src.HeaderRowIndex < 0 {
		return errors.ConfigInvalid("HEADER_ROW_INDEX cannot be negative")
	}
	if src.FetchTimeout <= 0 {
		return errors.ConfigInvalid("FETCH_TIMEOUT must be positive")
	}
	if config.Server.Port == "" {
		return errors.ConfigInvalid("PORT is required")
	}
	if config.Admin.Enabled && config.Admin.Port == config.Server.Port {
		return errors.ConfigInvalid("ADMIN_PORT must differ from PORT")
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvListOrDefault(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
