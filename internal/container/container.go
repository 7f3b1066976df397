package container

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"sedes/adapters/excel"
	"sedes/adapters/postgres"
	"sedes/app"
	"sedes/internal"
	"sedes/internal/config"
	ingest "sedes/internal/dataset"
	"sedes/internal/migration"
	"sedes/ports"
)

// Container holds all application dependencies and manages their lifecycle
type Container struct {
	Config *config.Config
	Logger *internal.Logger

	// Infrastructure
	DB *sqlx.DB

	// Ports
	Source      ports.TableSource
	LoadHistory ports.LoadRunRepository

	// Application
	Builder   *ingest.Builder
	Dashboard *app.DashboardService
}

// New creates a new dependency injection container
func New(cfg *config.Config, logger *internal.Logger) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if logger == nil {
		logger = internal.DefaultLogger
	}

	c := &Container{
		Config: cfg,
		Logger: logger,
	}

	if err := c.initSource(); err != nil {
		return nil, err
	}
	c.initBuilder()
	return c, nil
}

func (c *Container) initSource() error {
	src := c.Config.Source
	excelConfig := excel.DefaultExcelConfig()
	excelConfig.URL = src.URL
	excelConfig.FilePath = src.File
	excelConfig.Format = excel.ParseFormat(src.Format)
	excelConfig.Sheet = src.Sheet
	excelConfig.Timeout = src.FetchTimeout

	source, err := excel.NewSource(excelConfig, c.Logger)
	if err != nil {
		return err
	}
	c.Source = source
	return nil
}

func (c *Container) initBuilder() {
	builderConfig := ingest.DefaultBuilderConfig()
	builderConfig.HeaderRowIndex = c.Config.Source.HeaderRowIndex
	builderConfig.Mapping = c.Config.Catalog.Mapping
	c.Builder = ingest.NewBuilder(builderConfig, c.Logger)
}

// InitWithDatabase connects the load history store and applies its schema
func (c *Container) InitWithDatabase(ctx context.Context) error {
	if !c.Config.Database.Enabled() {
		return nil
	}

	db, err := sqlx.ConnectContext(ctx, "postgres", c.Config.Database.URL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	migrator := migration.NewRunner()
	if err := migrator.Run(ctx, db); err != nil {
		db.Close()
		return fmt.Errorf("database migration failed: %w", err)
	}

	c.DB = db
	c.LoadHistory = postgres.NewLoadRunRepository(db)
	c.Logger.Info("load history enabled (schema %s)", migrator.Version())
	return nil
}

// Build creates the dashboard service from the initialized dependencies
func (c *Container) Build() *app.DashboardService {
	c.Dashboard = app.NewDashboardService(c.Source, c.Builder, c.LoadHistory, c.Config.Catalog.Categories, c.Logger)
	return c.Dashboard
}

// Shutdown releases held resources
func (c *Container) Shutdown(ctx context.Context) error {
	if c.DB != nil {
		if err := c.DB.Close(); err != nil {
			return fmt.Errorf("failed to close database: %w", err)
		}
	}
	return nil
}
