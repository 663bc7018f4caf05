package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"vitalstats/verity/pkg/cli"
	"vitalstats/verity/pkg/config"
	"vitalstats/verity/pkg/extract"
	"vitalstats/verity/pkg/warehouse"
)

var (
	validateEntity   string
	validateMeasure  string
	validateLocation int
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check a config file and extraction plan, or one dataset",
	Long: `Validate parses the config file and the extraction plan and reports
any problems. With --entity and --measure it additionally pulls that one
dataset from the warehouse, runs the full check suite against it, and
exits non-zero on a fatal finding. Nothing is written in either mode.`,
	RunE: runValidate,
}

func init() {
	validateCmd.Flags().StringVarP(&planPath, "plan", "p", "", "path to extraction plan (YAML)")
	validateCmd.Flags().StringVar(&validateEntity, "entity", "", "entity name to validate (requires --plan)")
	validateCmd.Flags().StringVar(&validateMeasure, "measure", "", "measure to validate")
	validateCmd.Flags().IntVar(&validateLocation, "location", 0, "location id to validate")
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	var cfg *config.Config
	if configPath != "" {
		loaded, err := config.LoadConfig(configPath)
		if err != nil {
			return cli.NewCommandError("validate", fmt.Errorf("config: %w", err))
		}
		cfg = loaded
		fmt.Fprintf(out, "config %s: ok\n", configPath)
		fmt.Fprintf(out, "  warehouse: %s\n", cfg.Warehouse.Path)
		fmt.Fprintf(out, "  artifacts: %s (%s)\n", cfg.Artifact.Path, cfg.Artifact.Compression)
		fmt.Fprintf(out, "  estimation years: %v\n", cfg.Validation.EstimationYears)
	}

	var plan *extract.Plan
	var requests []extract.Request
	if planPath != "" {
		loaded, err := extract.LoadPlan(planPath)
		if err != nil {
			return cli.NewCommandError("validate", fmt.Errorf("plan: %w", err))
		}
		plan = loaded
		requests, err = plan.Requests()
		if err != nil {
			return cli.NewCommandError("validate", fmt.Errorf("plan: %w", err))
		}
		kinds := make(map[string]int)
		for _, req := range requests {
			kinds[string(req.Entity.EntityKind())]++
		}
		names := make([]string, 0, len(kinds))
		for kind := range kinds {
			names = append(names, kind)
		}
		sort.Strings(names)
		fmt.Fprintf(out, "plan %s: ok\n", planPath)
		fmt.Fprintf(out, "  locations: %v\n", plan.Locations)
		fmt.Fprintf(out, "  requests: %d\n", len(requests))
		for _, kind := range names {
			fmt.Fprintf(out, "    %s: %d\n", kind, kinds[kind])
		}
	}

	if validateEntity != "" || validateMeasure != "" {
		if plan == nil {
			return cli.NewCommandError("validate", fmt.Errorf("--entity/--measure need --plan for entity metadata"))
		}
		return validateOne(cmd, cfg, plan, requests)
	}

	if configPath == "" && planPath == "" {
		return cli.NewCommandError("validate", fmt.Errorf("nothing to validate: pass --config and/or --plan"))
	}
	return nil
}

// validateOne runs the full check suite for a single dataset named on the
// command line, resolved against the plan's requests.
func validateOne(cmd *cobra.Command, cfg *config.Config, plan *extract.Plan, requests []extract.Request) error {
	out := cmd.OutOrStdout()

	req, err := findRequest(requests)
	if err != nil {
		return cli.NewCommandError("validate", err)
	}

	if cfg == nil {
		loaded, err := loadConfigOrDefault(configPath)
		if err != nil {
			return cli.NewCommandError("validate", err)
		}
		cfg = loaded
	}
	log, err := newLogger(cfg.Telemetry.Logging)
	if err != nil {
		return cli.NewCommandError("validate", err)
	}

	wh, err := warehouse.OpenSQLite(cfg.Warehouse)
	if err != nil {
		return cli.NewCommandError("validate", fmt.Errorf("open warehouse: %w", err))
	}
	defer wh.Close()

	checker, err := extract.NewChecker(extract.Options{
		Warehouse:       wh,
		Catalog:         plan.Catalog(),
		Logger:          log,
		AgeGroupIDs:     cfg.Validation.AgeGroupIDs,
		EstimationYears: cfg.Validation.EstimationYears,
		Bounds:          boundsFromConfig(cfg.Validation.Bounds),
	})
	if err != nil {
		return cli.NewCommandError("validate", err)
	}

	ctx, cancel := cli.SetupSignalHandler()
	defer cancel()

	res, err := checker.Check(ctx, req)
	if err != nil {
		return cli.NewCommandError("validate", err)
	}
	if res.Err != nil {
		fmt.Fprintf(out, "FAIL %s: %v\n", req, res.Err)
		os.Exit(2)
	}
	if res.Warnings > 0 {
		fmt.Fprintf(out, "WARN %s: %d warnings (%s)\n", req, res.Warnings, res.Elapsed)
		return nil
	}
	fmt.Fprintf(out, "ok %s (%s)\n", req, res.Elapsed)
	return nil
}

// findRequest resolves the --entity/--measure/--location flags against the
// plan's request list.
func findRequest(requests []extract.Request) (extract.Request, error) {
	var matches []extract.Request
	for _, req := range requests {
		if validateEntity != "" && req.Entity.EntityName() != validateEntity {
			continue
		}
		if validateMeasure != "" && string(req.Measure) != validateMeasure {
			continue
		}
		if validateLocation != 0 && req.LocationID != validateLocation {
			continue
		}
		matches = append(matches, req)
	}
	switch len(matches) {
	case 0:
		return extract.Request{}, fmt.Errorf("no plan request matches entity=%q measure=%q location=%d",
			validateEntity, validateMeasure, validateLocation)
	case 1:
		return matches[0], nil
	default:
		return extract.Request{}, fmt.Errorf("%d plan requests match; narrow with --measure and --location", len(matches))
	}
}
