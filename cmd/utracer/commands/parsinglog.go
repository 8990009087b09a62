// SPDX-License-Identifier: GPL-3.0-or-later

package commands

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"utracer/cmd/utracer/internal/cliutil"
	"utracer/cmd/utracer/internal/output"

	trace "utracer"
)

var parsingLogFlags = &struct {
	All        bool
	Severities []string
	Categories []string
	Since      string
	Until      string
}{}

var parsingLogCmd = &cobra.Command{
	Use:   "parsing-log <file>",
	Short: "Show validation findings from decoding and reconstructing the trace",
	Args:  cobra.ExactArgs(1),
	RunE:  runParsingLog,
}

func init() {
	parsingLogCmd.Flags().BoolVar(&parsingLogFlags.All, "all", false, "include Info-severity findings (default: Warning and above)")
	parsingLogCmd.Flags().StringArrayVar(&parsingLogFlags.Severities, "severity", nil, "only include this severity (repeatable): info, warning, critical")
	parsingLogCmd.Flags().StringArrayVar(&parsingLogFlags.Categories, "category", nil, "only include findings whose category contains this substring (repeatable)")
	parsingLogCmd.Flags().StringVar(&parsingLogFlags.Since, "since", "", "only include findings at or after this timestamp")
	parsingLogCmd.Flags().StringVar(&parsingLogFlags.Until, "until", "", "only include findings at or before this timestamp")
}

func runParsingLog(cmd *cobra.Command, args []string) error {
	format, err := output.ParseFormat(Flags.Format)
	if err != nil {
		return cliutil.NewInputError("%w", err)
	}

	var since, until *time.Time
	if parsingLogFlags.Since != "" {
		t, ok := trace.ParseTimestamp(parsingLogFlags.Since, nil)
		if !ok {
			return cliutil.NewInputError("unrecognized --since timestamp %q", parsingLogFlags.Since)
		}
		since = &t
	}
	if parsingLogFlags.Until != "" {
		t, ok := trace.ParseTimestamp(parsingLogFlags.Until, nil)
		if !ok {
			return cliutil.NewInputError("unrecognized --until timestamp %q", parsingLogFlags.Until)
		}
		until = &t
	}

	cfg := trace.NewAnalysisConfig()
	model, err := cliutil.LoadModel(context.Background(), cfg, args[0])
	if err != nil {
		return err
	}

	pipeline := trace.NewPipeline(cfg)
	pairs, _, _ := pipeline.Pairs(model)
	sessions := pipeline.Sessions(model)
	issues := pipeline.Validate(model, pairs, sessions)

	filtered := filterIssues(issues, since, until)

	w, closeFn, err := cliutil.OpenOutput(Flags.Out)
	if err != nil {
		return err
	}
	defer closeFn()

	return output.Write(w, format, filtered, parsingLogTable(filtered))
}

func filterIssues(issues []trace.ValidationIssue, since, until *time.Time) []trace.ValidationIssue {
	wantSeverities := normalizedSeverities(parsingLogFlags.Severities)
	var out []trace.ValidationIssue
	for _, iss := range issues {
		if !parsingLogFlags.All && iss.Severity == trace.SeverityInfo {
			continue
		}
		if len(wantSeverities) > 0 && !containsSeverity(wantSeverities, iss.Severity) {
			continue
		}
		if len(parsingLogFlags.Categories) > 0 && !matchesCategory(parsingLogFlags.Categories, iss.Category) {
			continue
		}
		if since != nil && (iss.Timestamp == nil || iss.Timestamp.Before(*since)) {
			continue
		}
		if until != nil && (iss.Timestamp == nil || iss.Timestamp.After(*until)) {
			continue
		}
		out = append(out, iss)
	}
	return out
}

func normalizedSeverities(values []string) []trace.Severity {
	out := make([]trace.Severity, len(values))
	for i, v := range values {
		out[i] = trace.Severity(strings.ToUpper(v[:1]) + strings.ToLower(v[1:]))
	}
	return out
}

func containsSeverity(severities []trace.Severity, s trace.Severity) bool {
	for _, want := range severities {
		if want == s {
			return true
		}
	}
	return false
}

func matchesCategory(substrs []string, category string) bool {
	for _, s := range substrs {
		if strings.Contains(strings.ToLower(category), strings.ToLower(s)) {
			return true
		}
	}
	return false
}

func parsingLogTable(issues []trace.ValidationIssue) output.TableRenderer {
	t := output.NewRows("SEVERITY", "CATEGORY", "ITEM", "TIMESTAMP", "MESSAGE")
	for _, iss := range issues {
		item := "-"
		if iss.ItemIndex != nil {
			item = strconv.Itoa(*iss.ItemIndex)
		}
		ts := "-"
		if iss.Timestamp != nil {
			ts = trace.FormatTimestamp(*iss.Timestamp)
		}
		t.Add(string(iss.Severity), iss.Category, item, ts, iss.Message)
	}
	return t
}
