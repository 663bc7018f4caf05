package extract

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"vitalstats/verity/pkg/artifact"
	"vitalstats/verity/pkg/gbd"
	"vitalstats/verity/pkg/gbd/entity"
	"vitalstats/verity/pkg/table"
	"vitalstats/verity/pkg/telemetry/logging"
	"vitalstats/verity/pkg/telemetry/metrics"
	verrors "vitalstats/verity/pkg/validation/errors"
	"vitalstats/verity/pkg/validation/raw"
	"vitalstats/verity/pkg/warehouse"
)

// Request names one dataset to pull, validate, and store.
type Request struct {
	Entity     entity.Entity
	Measure    gbd.Measure
	LocationID int
}

// String renders the request in log-friendly form.
func (r Request) String() string {
	return fmt.Sprintf("%s/%s %s loc=%d",
		r.Entity.EntityKind(), r.Entity.EntityName(), r.Measure, r.LocationID)
}

// datasetName is the artifact file stem for the request.
func (r Request) datasetName(runLocation bool) string {
	name := fmt.Sprintf("%s_%s", r.Entity.EntityName(), r.Measure)
	if runLocation {
		name = fmt.Sprintf("%s_%d", name, r.LocationID)
	}
	return strings.ReplaceAll(name, " ", "_")
}

// Result records the outcome of one request.
type Result struct {
	Request  Request
	Warnings int
	Err      error
	Elapsed  time.Duration
}

// Report summarizes an extraction run.
type Report struct {
	RunID    string
	Results  []Result
	Started  time.Time
	Finished time.Time
}

// Failed counts the requests that ended in an error.
func (r *Report) Failed() int {
	n := 0
	for _, res := range r.Results {
		if res.Err != nil {
			n++
		}
	}
	return n
}

// Warnings totals the validation warnings across all requests.
func (r *Report) Warnings() int {
	n := 0
	for _, res := range r.Results {
		n += res.Warnings
	}
	return n
}

// Status is "success" when every request passed, "partial" when some did,
// and "failed" when none did.
func (r *Report) Status() string {
	failed := r.Failed()
	switch {
	case failed == 0:
		return "success"
	case failed == len(r.Results):
		return "failed"
	default:
		return "partial"
	}
}

// Options configures an Extractor. Warehouse and Store are required; the
// rest default sensibly.
type Options struct {
	Warehouse warehouse.Client
	Store     *artifact.Store
	Catalog   *entity.Catalog
	Logger    *logging.Logger
	Metrics   *metrics.Collector

	// AgeGroupIDs overrides the canonical age-group ordering.
	AgeGroupIDs []int

	// EstimationYears overrides the estimation year set. When empty the
	// years stored in the warehouse are used.
	EstimationYears []int

	// Bounds overrides the validation envelopes.
	Bounds *raw.Bounds

	// Workers is the number of concurrent request processors. Default: 4.
	Workers int

	// FailFast cancels the run on the first fatal validation error.
	FailFast bool
}

// Extractor pulls raw datasets from the warehouse, validates them, and
// writes the survivors to the artifact store.
type Extractor struct {
	opts Options
	log  *logging.Logger
}

// New creates an extractor. It returns an error when a required dependency
// is missing.
func New(opts Options) (*Extractor, error) {
	if opts.Warehouse == nil {
		return nil, fmt.Errorf("extract: warehouse client is required")
	}
	if opts.Store == nil {
		return nil, fmt.Errorf("extract: artifact store is required")
	}
	if opts.Workers <= 0 {
		opts.Workers = 4
	}
	log := opts.Logger
	if log == nil {
		log = logging.Discard()
	}
	return &Extractor{opts: opts, log: log}, nil
}

// NewChecker creates an extractor limited to Check calls. No artifact
// store is needed since nothing is written.
func NewChecker(opts Options) (*Extractor, error) {
	if opts.Warehouse == nil {
		return nil, fmt.Errorf("extract: warehouse client is required")
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	log := opts.Logger
	if log == nil {
		log = logging.Discard()
	}
	return &Extractor{opts: opts, log: log}, nil
}

// Run processes every request and returns the run report. The returned
// error covers run-level failures (context building, artifact setup); per
// request failures land in the report.
func (e *Extractor) Run(ctx context.Context, requests []Request) (*Report, error) {
	runID := uuid.NewString()
	ctx = logging.WithRunID(ctx, runID)

	vctx, err := e.buildValidationContext(ctx, requests)
	if err != nil {
		return nil, fmt.Errorf("building validation context: %w", err)
	}

	run, err := e.opts.Store.NewRun(runID)
	if err != nil {
		return nil, fmt.Errorf("starting artifact run: %w", err)
	}

	report := &Report{RunID: runID, Started: time.Now()}
	e.log.InfoContext(ctx, "extraction started",
		"requests", len(requests), "workers", e.opts.Workers)
	if e.opts.Metrics != nil {
		e.opts.Metrics.RunStarted()
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	jobs := make(chan Request)
	results := make(chan Result)

	var wg sync.WaitGroup
	for i := 0; i < e.opts.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for req := range jobs {
				res := e.process(runCtx, vctx, run, req)
				if res.Err != nil && e.opts.FailFast {
					cancel()
				}
				results <- res
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, req := range requests {
			select {
			case jobs <- req:
			case <-runCtx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	for res := range results {
		report.Results = append(report.Results, res)
	}
	report.Finished = time.Now()

	status := report.Status()
	if err := run.Finalize(status); err != nil {
		return report, fmt.Errorf("finalizing artifact run: %w", err)
	}
	if e.opts.Metrics != nil {
		e.opts.Metrics.RunCompleted(status)
	}
	e.log.InfoContext(ctx, "extraction finished",
		"status", status,
		"requests", len(report.Results),
		"failed", report.Failed(),
		"warnings", report.Warnings(),
		"elapsed", report.Finished.Sub(report.Started).String())

	return report, nil
}

// Check validates a single request against the warehouse without writing
// anything. The result carries the accumulated warning count and the first
// fatal error, mirroring what a full run would report for the request.
func (e *Extractor) Check(ctx context.Context, req Request) (Result, error) {
	vctx, err := e.buildValidationContext(ctx, []Request{req})
	if err != nil {
		return Result{}, fmt.Errorf("building validation context: %w", err)
	}

	start := time.Now()
	res := Result{Request: req}

	lctx := logging.WithEntity(ctx, req.Entity.EntityName())
	lctx = logging.WithMeasure(lctx, string(req.Measure))
	if req.LocationID != 0 {
		lctx = logging.WithLocation(lctx, req.LocationID)
	}

	meta, err := raw.CheckMetadata(vctx, req.Entity, req.Measure)
	if meta != nil {
		res.Warnings += meta.Count()
	}
	if err != nil {
		res.Err = err
		res.Elapsed = time.Since(start)
		return res, nil
	}

	data, err := e.pull(lctx, req, warehouseQuery(req))
	if err == nil {
		var extra raw.Additional
		extra, err = e.pullAdditional(lctx, req)
		if err == nil {
			var outcome *verrors.Outcome
			outcome, err = raw.ValidateRawData(vctx, data, req.Entity, req.Measure, req.LocationID, extra)
			if outcome != nil {
				res.Warnings += outcome.Count()
			}
		}
	}
	res.Err = err
	res.Elapsed = time.Since(start)
	return res, nil
}

// buildValidationContext assembles the shared validation context from the
// warehouse round metadata and the locations the requests touch.
func (e *Extractor) buildValidationContext(ctx context.Context, requests []Request) (*raw.Context, error) {
	years := e.opts.EstimationYears
	if len(years) == 0 {
		stored, err := e.opts.Warehouse.EstimationYears(ctx)
		if err != nil {
			return nil, err
		}
		years = stored
	}

	paths := make(map[int][]int)
	for _, req := range requests {
		if req.LocationID == 0 {
			continue
		}
		if _, done := paths[req.LocationID]; done {
			continue
		}
		path, err := e.opts.Warehouse.PathToTop(ctx, req.LocationID)
		if err != nil {
			if errors.Is(err, warehouse.ErrNotFound) {
				continue
			}
			return nil, err
		}
		paths[req.LocationID] = path
	}

	return raw.NewContext(raw.ContextConfig{
		AgeGroupIDs:     e.opts.AgeGroupIDs,
		PathToTop:       paths,
		EstimationYears: years,
		Catalog:         e.opts.Catalog,
		Bounds:          e.opts.Bounds,
	})
}

// process handles a single request end to end.
func (e *Extractor) process(ctx context.Context, vctx *raw.Context, run *artifact.Run, req Request) Result {
	start := time.Now()
	res := Result{Request: req}
	finish := func(err error) Result {
		res.Err = err
		res.Elapsed = time.Since(start)
		e.record(ctx, req, res)
		return res
	}

	if err := ctx.Err(); err != nil {
		return finish(err)
	}

	lctx := logging.WithEntity(ctx, req.Entity.EntityName())
	lctx = logging.WithMeasure(lctx, string(req.Measure))
	if req.LocationID != 0 {
		lctx = logging.WithLocation(lctx, req.LocationID)
	}
	if e.opts.Metrics != nil {
		e.opts.Metrics.WorkerStarted()
		defer e.opts.Metrics.WorkerDone()
	}

	meta, err := raw.CheckMetadata(vctx, req.Entity, req.Measure)
	if err != nil {
		e.log.WarnContext(lctx, "metadata check failed", "error", err.Error())
		return finish(err)
	}
	for _, w := range meta.Warnings {
		e.log.WarnContext(lctx, "metadata warning", "warning", w.String())
	}
	res.Warnings += meta.Count()

	data, err := e.pull(lctx, req, warehouseQuery(req))
	if err != nil {
		return finish(err)
	}
	extra, err := e.pullAdditional(lctx, req)
	if err != nil {
		return finish(err)
	}

	outcome, err := raw.ValidateRawData(vctx, data, req.Entity, req.Measure, req.LocationID, extra)
	if outcome != nil {
		for _, w := range outcome.Warnings {
			e.log.WarnContext(lctx, "validation warning", "warning", w.String())
		}
		res.Warnings += outcome.Count()
	}
	if err != nil {
		e.log.WarnContext(lctx, "validation failed", "error", err.Error())
		return finish(err)
	}

	writeStart := time.Now()
	err = run.WriteDataset(req.datasetName(req.LocationID != 0), data, artifact.DatasetMeta{
		EntityKind: string(req.Entity.EntityKind()),
		EntityName: req.Entity.EntityName(),
		Measure:    string(req.Measure),
		LocationID: req.LocationID,
		Warnings:   res.Warnings,
	})
	if err != nil {
		return finish(err)
	}
	if e.opts.Metrics != nil {
		e.opts.Metrics.RecordArtifactWrite(req.datasetName(req.LocationID != 0), data.Len(), time.Since(writeStart))
	}

	e.log.InfoContext(lctx, "dataset validated and stored",
		"rows", data.Len(), "warnings", res.Warnings)
	return finish(nil)
}

// record updates metrics for a finished request.
func (e *Extractor) record(ctx context.Context, req Request, res Result) {
	if e.opts.Metrics == nil {
		return
	}
	status := "ok"
	switch {
	case res.Err != nil:
		status = "failed"
		if t := verrors.TypeOf(res.Err); t != "" {
			e.opts.Metrics.RecordValidationError(string(t))
		}
	case res.Warnings > 0:
		status = "warned"
	}
	e.opts.Metrics.RecordValidation(string(req.Measure), status, res.Warnings, res.Elapsed)
}

// pull fetches one dataset, timing the warehouse query.
func (e *Extractor) pull(ctx context.Context, req Request, q warehouse.Query) (*table.Table, error) {
	start := time.Now()
	t, err := e.opts.Warehouse.DrawTable(ctx, q)
	if e.opts.Metrics != nil {
		status := "ok"
		if err != nil {
			status = "error"
		}
		e.opts.Metrics.RecordWarehouseQuery(status, time.Since(start))
	}
	if err != nil {
		e.log.WarnContext(ctx, "warehouse query failed", "query", q.String(), "error", err.Error())
		return nil, err
	}
	return t, nil
}

// warehouseQuery maps a request to its primary dataset address.
func warehouseQuery(req Request) warehouse.Query {
	return warehouse.Query{
		EntityKind: req.Entity.EntityKind(),
		EntityID:   req.Entity.EntityID(),
		Measure:    req.Measure,
		LocationID: req.LocationID,
	}
}

// pullAdditional fetches the supporting datasets some measures validate
// against: population for deaths, exposure for its standard deviation and
// for risk-factor relative risk, and exposure plus relative risk for
// attributable fractions.
func (e *Extractor) pullAdditional(ctx context.Context, req Request) (raw.Additional, error) {
	var extra raw.Additional
	var err error

	switch req.Measure {
	case gbd.MeasureDeaths:
		extra.Population, err = e.pull(ctx, req, warehouse.Query{
			EntityKind: entity.KindPopulation,
			Measure:    gbd.MeasureStructure,
			LocationID: req.LocationID,
		})
	case gbd.MeasureExposureStandardDeviation:
		extra.Exposure, err = e.pull(ctx, req, warehouse.Query{
			EntityKind: req.Entity.EntityKind(),
			EntityID:   req.Entity.EntityID(),
			Measure:    gbd.MeasureExposure,
			LocationID: req.LocationID,
		})
	case gbd.MeasureRelativeRisk:
		// Coverage gap relative risk validates without exposure; risk
		// factors need it for the exposure-derived age span.
		if req.Entity.EntityKind() == entity.KindRiskFactor {
			extra.Exposure, err = e.pull(ctx, req, warehouse.Query{
				EntityKind: req.Entity.EntityKind(),
				EntityID:   req.Entity.EntityID(),
				Measure:    gbd.MeasureExposure,
				LocationID: req.LocationID,
			})
		}
	case gbd.MeasurePAF:
		extra.Exposure, err = e.pull(ctx, req, warehouse.Query{
			EntityKind: req.Entity.EntityKind(),
			EntityID:   req.Entity.EntityID(),
			Measure:    gbd.MeasureExposure,
			LocationID: req.LocationID,
		})
		if err == nil {
			extra.RelativeRisk, err = e.pull(ctx, req, warehouse.Query{
				EntityKind: req.Entity.EntityKind(),
				EntityID:   req.Entity.EntityID(),
				Measure:    gbd.MeasureRelativeRisk,
				LocationID: req.LocationID,
			})
		}
	}
	return extra, err
}
