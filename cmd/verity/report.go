package main

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"vitalstats/verity/pkg/cli"
	"vitalstats/verity/pkg/extract"
)

// reportSummary is the JSON shape of a finished run report.
type reportSummary struct {
	RunID    string          `json:"run_id"`
	Status   string          `json:"status"`
	Requests int             `json:"requests"`
	Failed   int             `json:"failed"`
	Warnings int             `json:"warnings"`
	Elapsed  string          `json:"elapsed"`
	Results  []resultSummary `json:"results"`
}

type resultSummary struct {
	Request  string `json:"request"`
	Warnings int    `json:"warnings"`
	Error    string `json:"error,omitempty"`
	Elapsed  string `json:"elapsed"`
}

func summarize(report *extract.Report) reportSummary {
	s := reportSummary{
		RunID:    report.RunID,
		Status:   report.Status(),
		Requests: len(report.Results),
		Failed:   report.Failed(),
		Warnings: report.Warnings(),
		Elapsed:  report.Finished.Sub(report.Started).Round(time.Millisecond).String(),
	}
	for _, res := range report.Results {
		rs := resultSummary{
			Request:  res.Request.String(),
			Warnings: res.Warnings,
			Elapsed:  res.Elapsed.Round(time.Millisecond).String(),
		}
		if res.Err != nil {
			rs.Error = res.Err.Error()
		}
		s.Results = append(s.Results, rs)
	}
	return s
}

func printReport(w io.Writer, format string, report *extract.Report) error {
	summary := summarize(report)

	switch cli.OutputFormat(format) {
	case cli.FormatJSON:
		f := &cli.JSONFormatter{Indent: true}
		return f.FormatTo(w, summary)
	case cli.FormatCSV:
		rows := cli.Rows{
			Header: []string{"request", "warnings", "error", "elapsed"},
		}
		for _, res := range summary.Results {
			rows.Data = append(rows.Data, []string{
				res.Request, strconv.Itoa(res.Warnings), res.Error, res.Elapsed,
			})
		}
		f := &cli.CSVFormatter{}
		return f.FormatTo(w, rows)
	case cli.FormatText:
		return printTextReport(w, summary)
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

func printTextReport(w io.Writer, s reportSummary) error {
	fmt.Fprintf(w, "Run %s: %s\n", s.RunID, s.Status)
	fmt.Fprintf(w, "  requests: %d  failed: %d  warnings: %d  elapsed: %s\n",
		s.Requests, s.Failed, s.Warnings, s.Elapsed)
	for _, res := range s.Results {
		if res.Error != "" {
			fmt.Fprintf(w, "  FAIL %s: %s\n", res.Request, res.Error)
			continue
		}
		if res.Warnings > 0 {
			fmt.Fprintf(w, "  WARN %s: %d warnings (%s)\n", res.Request, res.Warnings, res.Elapsed)
			continue
		}
		fmt.Fprintf(w, "  ok   %s (%s)\n", res.Request, res.Elapsed)
	}
	return nil
}
