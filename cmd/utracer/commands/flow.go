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

var flowOverviewCmd = &cobra.Command{
	Use:   "flow-overview <file>",
	Short: "Show the full merged session/event timeline",
	Args:  cobra.ExactArgs(1),
	RunE:  runFlow(trace.FlowAll),
}

var flowSessionsCmd = &cobra.Command{
	Use:   "flow-sessions <file>",
	Short: "Show only reconstructed BIP channel sessions",
	Args:  cobra.ExactArgs(1),
	RunE:  runFlow(trace.FlowSessions),
}

var flowEventsCmd = &cobra.Command{
	Use:   "flow-events <file>",
	Short: "Show only single-item events (Refresh, Cold Reset, ICCID)",
	Args:  cobra.ExactArgs(1),
	RunE:  runFlow(trace.FlowEvents),
}

func runFlow(filter trace.FlowFilter) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
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
		sessions := pipeline.Sessions(model)
		rows := pipeline.Flow(model, sessions, filter)

		w, closeFn, err := cliutil.OpenOutput(Flags.Out)
		if err != nil {
			return err
		}
		defer closeFn()

		return output.Write(w, format, rows, flowTable(rows))
	}
}

func flowTable(rows []trace.FlowRow) output.TableRenderer {
	t := output.NewRows("KIND", "TYPE", "TIMESTAMP", "ITEM", "ENDPOINT", "DETAIL")
	for _, r := range rows {
		ts := "-"
		if r.Timestamp != nil {
			ts = trace.FormatTimestamp(*r.Timestamp)
		}
		endpoint := "-"
		if r.HasEndpoint {
			endpoint = r.Endpoint.String()
		}
		t.Add(r.Kind, r.Type, ts, strconv.Itoa(r.ItemIndex), endpoint, r.Detail)
	}
	return t
}
