package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"vitalstats/verity/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func enabledConfig() config.MetricsConfig {
	return config.MetricsConfig{
		Enabled:   true,
		Namespace: "verity",
		Subsystem: "extract",
	}
}

func TestRecordValidation(t *testing.T) {
	c := NewCollector(enabledConfig(), nil)

	c.RecordValidation("incidence", "ok", 0, 50*time.Millisecond)
	c.RecordValidation("incidence", "warned", 3, 75*time.Millisecond)
	c.RecordValidation("prevalence", "failed", 0, 10*time.Millisecond)

	if got := testutil.ToFloat64(c.tablesValidated.WithLabelValues("incidence", "ok")); got != 1 {
		t.Errorf("incidence ok = %g, want 1", got)
	}
	if got := testutil.ToFloat64(c.tablesValidated.WithLabelValues("prevalence", "failed")); got != 1 {
		t.Errorf("prevalence failed = %g, want 1", got)
	}
	if got := testutil.ToFloat64(c.validationWarnings.WithLabelValues("incidence")); got != 3 {
		t.Errorf("incidence warnings = %g, want 3", got)
	}
}

func TestRecordValidationError(t *testing.T) {
	c := NewCollector(enabledConfig(), nil)

	c.RecordValidationError("data_abnormal")
	c.RecordValidationError("data_abnormal")
	c.RecordValidationError("data_missing")

	if got := testutil.ToFloat64(c.validationErrors.WithLabelValues("data_abnormal")); got != 2 {
		t.Errorf("data_abnormal = %g, want 2", got)
	}
}

func TestRunAndWorkerCounters(t *testing.T) {
	c := NewCollector(enabledConfig(), nil)

	c.RunStarted()
	c.WorkerStarted()
	c.WorkerStarted()
	c.WorkerDone()
	c.RunCompleted("success")

	if got := testutil.ToFloat64(c.runsStarted); got != 1 {
		t.Errorf("runs started = %g", got)
	}
	if got := testutil.ToFloat64(c.activeWorkers); got != 1 {
		t.Errorf("active workers = %g, want 1", got)
	}
	if got := testutil.ToFloat64(c.runsCompleted.WithLabelValues("success")); got != 1 {
		t.Errorf("runs completed = %g", got)
	}
}

func TestDisabledCollectorRecordsNothing(t *testing.T) {
	cfg := enabledConfig()
	cfg.Enabled = false
	c := NewCollector(cfg, nil)

	c.RecordValidation("incidence", "ok", 5, time.Second)
	c.RecordValidationError("data_missing")
	c.RunStarted()
	c.WorkerStarted()

	if got := testutil.ToFloat64(c.runsStarted); got != 0 {
		t.Errorf("runs started = %g, want 0", got)
	}
	if got := testutil.ToFloat64(c.activeWorkers); got != 0 {
		t.Errorf("active workers = %g, want 0", got)
	}
}

func TestIndependentRegistries(t *testing.T) {
	// Two collectors with nil registries must not collide on registration.
	a := NewCollector(enabledConfig(), nil)
	b := NewCollector(enabledConfig(), nil)
	if a.Registry() == b.Registry() {
		t.Error("collectors share a registry")
	}
}

func TestExplicitRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(enabledConfig(), reg)
	if c.Registry() != reg {
		t.Error("collector did not adopt the provided registry")
	}
}

func TestHandlerExposition(t *testing.T) {
	c := NewCollector(enabledConfig(), nil)
	c.RecordValidation("deaths", "ok", 0, 20*time.Millisecond)

	srv := httptest.NewServer(c.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	body := string(raw)
	if !strings.Contains(body, "verity_extract_tables_validated_total") {
		t.Errorf("exposition missing tables_validated metric:\n%s", body)
	}
}
