package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"sedes/adapters/excel"
	"sedes/app"
	"sedes/internal"
	"sedes/internal/analysis"
	"sedes/internal/config"
	ingest "sedes/internal/dataset"
)

type globalOptions struct {
	source    string
	format    string
	sheet     string
	catalog   string
	headerRow int
	timeout   time.Duration
	asJSON    bool
	verbose   bool
}

func main() {
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}
	rootCmd := &cobra.Command{
		Use:   "sedes-cli",
		Short: "Query the educational sites sheet from the command line",
		Long: `Load the sites sheet once and run a single query against it.

Example: sedes-cli --source ./sedes.xlsx search "la esperanza"`,
		SilenceUsage: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.source, "source", os.Getenv("SOURCE_URL"), "Sheet file path or http(s) URL")
	flags.StringVar(&opts.format, "format", "auto", "Sheet format: auto, csv or xlsx")
	flags.StringVar(&opts.sheet, "sheet", "", "Worksheet name for xlsx sources")
	flags.StringVar(&opts.catalog, "catalog", os.Getenv("CATEGORIES_FILE"), "YAML catalog with categories and field mapping")
	flags.IntVar(&opts.headerRow, "header-row", 2, "Zero-based index of the header row")
	flags.DurationVar(&opts.timeout, "timeout", 30*time.Second, "Fetch timeout")
	flags.BoolVar(&opts.asJSON, "json", false, "Print JSON instead of tables")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "Debug logging")

	rootCmd.AddCommand(
		newSummaryCmd(opts),
		newSearchCmd(opts),
		newCategoriesCmd(opts),
		newMunicipiosCmd(opts),
		newDetailCmd(opts),
	)
	return rootCmd
}

// loadService builds a dashboard over the configured source and loads it.
// The catalog is resolved the same way the server resolves it.
func loadService(ctx context.Context, opts *globalOptions) (*app.DashboardService, error) {
	if opts.source == "" {
		return nil, fmt.Errorf("--source is required (or set SOURCE_URL)")
	}

	level := internal.LogLevelWarn
	if opts.verbose {
		level = internal.LogLevelDebug
	}
	logger := internal.NewLogger(level)

	catalog, err := config.LoadCatalog(opts.catalog)
	if err != nil {
		return nil, err
	}

	excelConfig := excel.DefaultExcelConfig()
	if isURL(opts.source) {
		excelConfig.URL = opts.source
	} else {
		excelConfig.FilePath = opts.source
	}
	excelConfig.Format = excel.ParseFormat(opts.format)
	excelConfig.Sheet = opts.sheet
	excelConfig.Timeout = opts.timeout

	source, err := excel.NewSource(excelConfig, logger)
	if err != nil {
		return nil, err
	}

	builderConfig := ingest.DefaultBuilderConfig()
	builderConfig.HeaderRowIndex = opts.headerRow
	builderConfig.Mapping = catalog.Mapping
	builder := ingest.NewBuilder(builderConfig, logger)

	service := app.NewDashboardService(source, builder, nil, catalog.Categories, logger)

	loadCtx, cancel := context.WithTimeout(ctx, opts.timeout)
	defer cancel()
	if _, err := service.Load(loadCtx); err != nil {
		return nil, err
	}
	return service, nil
}

func isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

func newSummaryCmd(opts *globalOptions) *cobra.Command {
	var municipio string

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Print totals for the whole sheet or one municipality",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			service, err := loadService(cmd.Context(), opts)
			if err != nil {
				return err
			}
			session := service.NewSession()
			if municipio != "" {
				if _, err := session.OnSelectMunicipality(municipio); err != nil {
					return err
				}
			}
			summary, err := session.Summary()
			if err != nil {
				return err
			}
			if opts.asJSON {
				return printJSON(cmd.OutOrStdout(), summary)
			}
			return printSummary(cmd.OutOrStdout(), summary)
		},
	}

	cmd.Flags().StringVar(&municipio, "municipio", "", "Restrict the summary to one municipality")
	return cmd
}

func newSearchCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "search <query>",
		Short: "Find sites by site name, institution or DANE code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			service, err := loadService(cmd.Context(), opts)
			if err != nil {
				return err
			}
			matches, err := service.NewSession().OnTextQuery(args[0])
			if err != nil {
				return err
			}
			if opts.asJSON {
				return printJSON(cmd.OutOrStdout(), matches)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "#\tSCORE\tSEDE\tINSTITUCIÓN\tMUNICIPIO")
			for _, m := range matches {
				fmt.Fprintf(w, "%d\t%d\t%s\t%s\t%s\n", m.Index, m.Score, m.Site, m.Institution, m.Municipality)
			}
			return w.Flush()
		},
	}
}

func newCategoriesCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "categories <query>",
		Short: "Find categories and how many sites take part in each",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			service, err := loadService(cmd.Context(), opts)
			if err != nil {
				return err
			}
			matches, err := service.NewSession().OnCategoryQuery(args[0])
			if err != nil {
				return err
			}
			if opts.asJSON {
				return printJSON(cmd.OutOrStdout(), matches)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "CATEGORÍA\tCLAVE\tSEDES")
			for _, m := range matches {
				fmt.Fprintf(w, "%s\t%s\t%d\n", m.Label, m.Key, m.Count)
			}
			return w.Flush()
		},
	}
}

func newMunicipiosCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "municipios",
		Short: "List the municipalities present in the sheet",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			service, err := loadService(cmd.Context(), opts)
			if err != nil {
				return err
			}
			names, err := service.Municipalities()
			if err != nil {
				return err
			}
			if opts.asJSON {
				return printJSON(cmd.OutOrStdout(), names)
			}
			for _, name := range names {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}
}

func newDetailCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "detail <index>",
		Short: "Print every field of one site",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid index %q: %w", args[0], err)
			}
			service, err := loadService(cmd.Context(), opts)
			if err != nil {
				return err
			}
			fields, err := service.NewSession().Detail(index)
			if err != nil {
				return err
			}
			if opts.asJSON {
				return printJSON(cmd.OutOrStdout(), fields)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			for _, f := range fields {
				fmt.Fprintf(w, "%s\t%s\n", f.Label, f.Value)
			}
			return w.Flush()
		},
	}
}

func printSummary(out io.Writer, s analysis.Summary) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Sedes\t%d\n", s.SiteCount)
	fmt.Fprintf(w, "Estudiantes\t%.0f\n", s.TotalStudents)
	fmt.Fprintf(w, "Docentes\t%.0f\n", s.TotalTeachers)
	fmt.Fprintf(w, "Estudiantes rurales\t%.0f\n", s.RuralStudents)
	fmt.Fprintf(w, "Estudiantes urbanos\t%.0f\n", s.UrbanStudents)
	fmt.Fprintf(w, "Promedio por sede\t%.1f\n", s.AverageStudentsPerSite)
	fmt.Fprintf(w, "Mediana por sede\t%.1f\n", s.MedianStudentsPerSite)
	fmt.Fprintf(w, "Estudiantes por docente\t%.1f\n", s.StudentsPerTeacher)
	if err := w.Flush(); err != nil {
		return err
	}

	if len(s.ByMunicipality) == 0 {
		return nil
	}
	fmt.Fprintln(out)
	w = tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "MUNICIPIO\tRURAL\tURBANO")
	for _, m := range s.ByMunicipality {
		fmt.Fprintf(w, "%s\t%.0f\t%.0f\n", m.Name, m.Rural, m.Urban)
	}
	return w.Flush()
}

func printJSON(out io.Writer, v interface{}) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
