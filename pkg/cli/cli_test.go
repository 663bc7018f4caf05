package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestNewFormatter(t *testing.T) {
	tests := []struct {
		format OutputFormat
		want   string
	}{
		{FormatText, "*cli.TextFormatter"},
		{FormatJSON, "*cli.JSONFormatter"},
		{FormatCSV, "*cli.CSVFormatter"},
		{OutputFormat("bogus"), "*cli.TextFormatter"},
	}
	for _, tt := range tests {
		f := NewFormatter(tt.format)
		switch tt.want {
		case "*cli.TextFormatter":
			if _, ok := f.(*TextFormatter); !ok {
				t.Errorf("NewFormatter(%q) = %T", tt.format, f)
			}
		case "*cli.JSONFormatter":
			if _, ok := f.(*JSONFormatter); !ok {
				t.Errorf("NewFormatter(%q) = %T", tt.format, f)
			}
		case "*cli.CSVFormatter":
			if _, ok := f.(*CSVFormatter); !ok {
				t.Errorf("NewFormatter(%q) = %T", tt.format, f)
			}
		}
	}
}

func TestJSONFormatter(t *testing.T) {
	var buf bytes.Buffer
	f := &JSONFormatter{Indent: true}
	if err := f.FormatTo(&buf, map[string]int{"warnings": 3}); err != nil {
		t.Fatal(err)
	}
	var decoded map[string]int
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if decoded["warnings"] != 3 {
		t.Errorf("decoded = %v", decoded)
	}
}

func TestCSVFormatter(t *testing.T) {
	var buf bytes.Buffer
	f := &CSVFormatter{}
	rows := Rows{
		Header: []string{"entity", "measure", "warnings"},
		Data: [][]string{
			{"diarrheal_diseases", "prevalence", "0"},
			{"diarrheal_diseases", "incidence", "2"},
		},
	}
	if err := f.FormatTo(&buf, rows); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("lines = %d: %q", len(lines), buf.String())
	}
	if lines[0] != "entity,measure,warnings" {
		t.Errorf("header = %q", lines[0])
	}

	if err := f.FormatTo(&buf, "not tabular"); err == nil {
		t.Error("expected error for non-tabular data")
	}
}

func TestCommandError(t *testing.T) {
	inner := errors.New("boom")
	err := NewCommandError("extract", inner)
	if !strings.Contains(err.Error(), "extract") || !strings.Contains(err.Error(), "boom") {
		t.Errorf("message = %q", err.Error())
	}
	if !errors.Is(err, inner) {
		t.Error("CommandError does not unwrap")
	}
}

func TestProgressReporter(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgressReporter(&buf)
	p.Start(4)
	p.Update(2)
	p.Finish()

	out := buf.String()
	if !strings.Contains(out, "(2/4 datasets)") {
		t.Errorf("missing midpoint render: %q", out)
	}
	if !strings.Contains(out, "100.0%") {
		t.Errorf("missing finish render: %q", out)
	}
	if !strings.HasSuffix(out, "\n") {
		t.Error("Finish did not end the line")
	}
}

func TestProgressZeroTotal(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgressReporter(&buf)
	p.Start(0)
	p.Finish()
	// Only the closing newline; nothing to render for an empty run.
	if got := buf.String(); got != "\n" {
		t.Errorf("output = %q", got)
	}
}
