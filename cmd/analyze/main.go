// cmd/analyze/main.go
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/andresuchdata/rop-analytics/internal/cache"
	"github.com/andresuchdata/rop-analytics/internal/dataset"
	"github.com/andresuchdata/rop-analytics/internal/domain"
	"github.com/andresuchdata/rop-analytics/internal/engine"
	"github.com/andresuchdata/rop-analytics/internal/export"
	"github.com/andresuchdata/rop-analytics/internal/service"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
)

func dataFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "sales-dir",
			Usage:   "Directory containing sales transaction CSV files",
			Value:   "./data/sales",
			EnvVars: []string{"DATA_SALES_DIR"},
		},
		&cli.StringFlag{
			Name:    "product-file",
			Usage:   "Product reference CSV file",
			Value:   "./data/products.csv",
			EnvVars: []string{"DATA_PRODUCT_FILE"},
		},
		&cli.StringFlag{
			Name:     "start",
			Usage:    "Analysis start date (YYYY-MM-DD, inclusive)",
			Required: true,
		},
		&cli.StringFlag{
			Name:     "end",
			Usage:    "Analysis end date (YYYY-MM-DD, inclusive)",
			Required: true,
		},
		&cli.StringFlag{
			Name:  "output",
			Usage: "Output directory for result CSVs",
			Value: "./data/output",
		},
	}
}

func parseRange(c *cli.Context) (domain.DateRange, error) {
	start, err := time.ParseInLocation("2006-01-02", c.String("start"), time.UTC)
	if err != nil {
		return domain.DateRange{}, fmt.Errorf("invalid start date: %w", err)
	}
	end, err := time.ParseInLocation("2006-01-02", c.String("end"), time.UTC)
	if err != nil {
		return domain.DateRange{}, fmt.Errorf("invalid end date: %w", err)
	}

	rng := domain.DateRange{Start: start, End: end}
	if err := rng.Validate(); err != nil {
		return domain.DateRange{}, err
	}
	return rng, nil
}

func newService(c *cli.Context) *service.AnalysisService {
	source := dataset.NewCSVSource(c.String("sales-dir"), c.String("product-file"))
	return service.NewAnalysisService(source, engine.New(engine.Config{}), cache.NewNoopAnalysisCache())
}

func writeCSV(path string, write func(f *os.File) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return write(f)
}

func runROP(c *cli.Context) error {
	rng, err := parseRange(c)
	if err != nil {
		return err
	}
	method, err := domain.ParseMethod(c.String("method"))
	if err != nil {
		return err
	}

	rows, err := newService(c).RunAnalysis(c.Context, domain.AnalysisParams{Range: rng, Method: method})
	if err != nil {
		return fmt.Errorf("run analysis: %w", err)
	}
	if len(rows) == 0 {
		log.Warn().Msg("no data: analysis produced no rows")
	}

	outDir := c.String("output")
	flatPath := filepath.Join(outDir, fmt.Sprintf("rop_%s_%s_%s.csv",
		method, c.String("start"), c.String("end")))
	if err := writeCSV(flatPath, func(f *os.File) error {
		return export.WriteROPCSV(f, rows)
	}); err != nil {
		return fmt.Errorf("write analysis csv: %w", err)
	}
	log.Info().Str("path", flatPath).Int("rows", len(rows)).Msg("wrote ROP analysis")

	if !c.Bool("pivot") {
		return nil
	}
	for _, table := range export.BuildPivot(rows) {
		pivotPath := filepath.Join(outDir, fmt.Sprintf("rop_pivot_%s_%s_%s_%s.csv",
			method, table.City, c.String("start"), c.String("end")))
		if err := writeCSV(pivotPath, func(f *os.File) error {
			return export.WritePivotCSV(f, table)
		}); err != nil {
			return fmt.Errorf("write pivot csv for %s: %w", table.City, err)
		}
		log.Info().Str("path", pivotPath).Str("city", table.City).Msg("wrote pivot table")
	}
	return nil
}

func runErrors(c *cli.Context) error {
	rng, err := parseRange(c)
	if err != nil {
		return err
	}

	rows, summaries, err := newService(c).CompareMethods(c.Context, rng)
	if err != nil {
		return fmt.Errorf("compare methods: %w", err)
	}
	if len(rows) == 0 {
		log.Warn().Msg("no data: no rows with realized forward demand in the requested range")
	}

	summaryPath := filepath.Join(c.String("output"), fmt.Sprintf("rop_errors_%s_%s.csv",
		c.String("start"), c.String("end")))
	if err := writeCSV(summaryPath, func(f *os.File) error {
		return export.WriteSummaryCSV(f, summaries)
	}); err != nil {
		return fmt.Errorf("write summary csv: %w", err)
	}
	log.Info().Str("path", summaryPath).Int("scored_rows", len(rows)).Msg("wrote error comparison")
	return nil
}

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Debug().Err(err).Msg("no .env file loaded")
	}

	app := &cli.App{
		Name:  "analyze",
		Usage: "Run reorder-point analysis over sales transaction exports",
		Commands: []*cli.Command{
			{
				Name:  "rop",
				Usage: "Compute the ROP table for one method",
				Flags: append(dataFlags(),
					&cli.StringFlag{
						Name:  "method",
						Usage: "ROP method: tiered-ABC, uniform or min-stock-only",
						Value: string(domain.MethodTieredABC),
					},
					&cli.BoolFlag{
						Name:  "pivot",
						Usage: "Also write per-city pivot tables",
					},
				),
				Action: runROP,
			},
			{
				Name:   "errors",
				Usage:  "Compare all methods against realized 21-day demand",
				Flags:  dataFlags(),
				Action: runErrors,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal().Err(err).Msg("analysis failed")
	}
}
