// SPDX-License-Identifier: GPL-3.0-or-later

package commands

import (
	"context"
	"strconv"

	"github.com/spf13/cobra"

	"utracer/cmd/utracer/internal/cliutil"
	"utracer/cmd/utracer/internal/output"

	trace "utracer"
)

var statsCmd = &cobra.Command{
	Use:   "stats <file>",
	Short: "Summarize item, pair, session and issue counts for a trace",
	Args:  cobra.ExactArgs(1),
	RunE:  runStats,
}

func runStats(cmd *cobra.Command, args []string) error {
	format, err := output.ParseFormat(Flags.Format)
	if err != nil {
		return cliutil.NewInputError("%w", err)
	}

	cfg := trace.NewAnalysisConfig()
	model, err := cliutil.LoadModel(context.Background(), cfg, args[0])
	if err != nil {
		return err
	}

	pipeline := trace.NewPipeline(cfg)
	analysis := pipeline.Analyze(model)
	stats := trace.ComputeStats(analysis)

	w, closeFn, err := cliutil.OpenOutput(Flags.Out)
	if err != nil {
		return err
	}
	defer closeFn()

	return output.Write(w, format, stats, statsTable(stats))
}

func statsTable(s trace.Stats) output.TableRenderer {
	t := output.NewRows("METRIC", "VALUE")
	t.Add("Total items", strconv.Itoa(s.TotalItems))
	for proto, n := range s.ItemsByProtocol {
		t.Add("  items: "+proto, strconv.Itoa(n))
	}
	t.Add("Total pairs", strconv.Itoa(s.TotalPairs))
	for status, n := range s.PairsByStatus {
		t.Add("  pairs: "+string(status), strconv.Itoa(n))
	}
	t.Add("Total sessions", strconv.Itoa(s.TotalSessions))
	for role, n := range s.SessionsByRole {
		t.Add("  sessions: "+string(role), strconv.Itoa(n))
	}
	for sev, n := range s.IssuesBySeverity {
		t.Add("  issues: "+string(sev), strconv.Itoa(n))
	}
	if s.Iccid != "" {
		t.Add("ICCID", s.Iccid)
	}
	return t
}
