package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"vitalstats/verity/pkg/artifact"
	"vitalstats/verity/pkg/cli"
	"vitalstats/verity/pkg/config"
	"vitalstats/verity/pkg/extract"
	"vitalstats/verity/pkg/telemetry/logging"
	"vitalstats/verity/pkg/telemetry/metrics"
	"vitalstats/verity/pkg/validation/raw"
	"vitalstats/verity/pkg/warehouse"
)

var (
	extractOutput   string
	extractWorkers  int
	extractFailFast bool
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Run an extraction plan against the warehouse",
	Long: `Extract pulls every entity/measure/location dataset named in the plan
from the warehouse, validates it, and writes the datasets that pass to a
new artifact run. The run report is printed when the plan finishes.`,
	RunE: runExtract,
}

func init() {
	extractCmd.Flags().StringVarP(&planPath, "plan", "p", "", "path to extraction plan (YAML)")
	extractCmd.Flags().StringVarP(&extractOutput, "output", "o", "text", "report format (text, json, csv)")
	extractCmd.Flags().IntVar(&extractWorkers, "workers", 0, "concurrent request processors (overrides config)")
	extractCmd.Flags().BoolVar(&extractFailFast, "fail-fast", false, "stop the run on the first fatal error")
	extractCmd.MarkFlagRequired("plan")
	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfigOrDefault(configPath)
	if err != nil {
		return cli.NewCommandError("extract", err)
	}
	if extractWorkers > 0 {
		cfg.Extraction.Workers = extractWorkers
	}
	if extractFailFast {
		cfg.Extraction.FailFast = true
	}

	log, err := newLogger(cfg.Telemetry.Logging)
	if err != nil {
		return cli.NewCommandError("extract", err)
	}

	plan, err := extract.LoadPlan(planPath)
	if err != nil {
		return cli.NewCommandError("extract", fmt.Errorf("load plan: %w", err))
	}
	requests, err := plan.Requests()
	if err != nil {
		return cli.NewCommandError("extract", err)
	}

	wh, err := warehouse.OpenSQLite(cfg.Warehouse)
	if err != nil {
		return cli.NewCommandError("extract", fmt.Errorf("open warehouse: %w", err))
	}
	defer wh.Close()

	store, err := artifact.NewStore(cfg.Artifact)
	if err != nil {
		return cli.NewCommandError("extract", fmt.Errorf("open artifact store: %w", err))
	}

	collector := metrics.NewCollector(cfg.Telemetry.Metrics, nil)
	if addr := cfg.Telemetry.Metrics.ListenAddress; addr != "" && cfg.Telemetry.Metrics.Enabled {
		mux := http.NewServeMux()
		mux.Handle("/metrics", collector.Handler())
		srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Error("metrics endpoint failed", "error", err)
			}
		}()
		defer srv.Close()
		log.Info("metrics endpoint listening", "address", addr)
	}

	extractor, err := extract.New(extract.Options{
		Warehouse:       wh,
		Store:           store,
		Catalog:         plan.Catalog(),
		Logger:          log,
		Metrics:         collector,
		AgeGroupIDs:     cfg.Validation.AgeGroupIDs,
		EstimationYears: cfg.Validation.EstimationYears,
		Bounds:          boundsFromConfig(cfg.Validation.Bounds),
		Workers:         cfg.Extraction.Workers,
		FailFast:        cfg.Extraction.FailFast,
	})
	if err != nil {
		return cli.NewCommandError("extract", err)
	}

	ctx, cancel := cli.SetupSignalHandler()
	defer cancel()

	log.Info("starting extraction", "requests", len(requests), "workers", cfg.Extraction.Workers)
	report, err := extractor.Run(ctx, requests)
	if err != nil {
		return cli.NewCommandError("extract", err)
	}

	if err := printReport(cmd.OutOrStdout(), extractOutput, report); err != nil {
		return cli.NewCommandError("extract", err)
	}
	if report.Failed() > 0 {
		os.Exit(2)
	}
	return nil
}

// boundsFromConfig maps the config overrides onto the default validation
// bounds, keeping defaults for zero fields.
func boundsFromConfig(bc config.BoundsConfig) *raw.Bounds {
	b := raw.DefaultBounds()
	if bc.MaxIncidence > 0 {
		b.MaxIncidence = bc.MaxIncidence
	}
	if bc.MaxRemission > 0 {
		b.MaxRemission = bc.MaxRemission
	}
	if bc.MaxCategoricalRelativeRisk > 0 {
		b.MaxCategoricalRelativeRisk = bc.MaxCategoricalRelativeRisk
	}
	if bc.MaxContinuousRelativeRisk > 0 {
		b.MaxContinuousRelativeRisk = bc.MaxContinuousRelativeRisk
	}
	if bc.MaxUtilization > 0 {
		b.MaxUtilization = bc.MaxUtilization
	}
	if bc.MaxLifeExpectancy > 0 {
		b.MaxLifeExpectancy = bc.MaxLifeExpectancy
	}
	if bc.MaxPopulation > 0 {
		b.MaxPopulation = bc.MaxPopulation
	}
	return &b
}

func loadConfigOrDefault(path string) (*config.Config, error) {
	if path == "" {
		cfg := &config.Config{}
		cfg.ApplyDefaults()
		return cfg, nil
	}
	return config.LoadConfig(path)
}

func newLogger(lc config.LoggingConfig) (*logging.Logger, error) {
	level := lc.Level
	if verbose {
		level = "debug"
	}
	return logging.New(logging.Config{
		Level:     level,
		Format:    lc.Format,
		AddSource: lc.AddSource,
	})
}
