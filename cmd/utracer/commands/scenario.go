// SPDX-License-Identifier: GPL-3.0-or-later

package commands

import (
	"context"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"utracer/cmd/utracer/internal/cliutil"
	"utracer/cmd/utracer/internal/output"

	trace "utracer"
)

var scenarioFlags = &struct {
	List   bool
	Config string
}{}

var scenarioCmd = &cobra.Command{
	Use:   "scenario [name] <file>",
	Short: "List scenarios in a config file, or run one against a trace",
	Long: `With -l, lists the scenario names defined in --config.

Otherwise takes a scenario name and a trace file, runs the named
scenario's step sequence against the trace's flow timeline, and exits
with code 4 when the overall verdict is Fail.`,
	Args: cobra.RangeArgs(0, 2),
	RunE: runScenario,
}

func init() {
	scenarioCmd.Flags().BoolVarP(&scenarioFlags.List, "list", "l", false, "list scenario names defined in --config")
	scenarioCmd.Flags().StringVar(&scenarioFlags.Config, "config", "", "path to the scenario config JSON file (required)")
}

func runScenario(cmd *cobra.Command, args []string) error {
	if scenarioFlags.Config == "" {
		return cliutil.NewInputError("scenario: --config <scenario-config.json> is required")
	}
	data, err := os.ReadFile(scenarioFlags.Config)
	if err != nil {
		return cliutil.NewInputError("reading --config: %w", err)
	}
	file, err := trace.ParseScenarioConfig(data)
	if err != nil {
		return cliutil.NewInputError("%w", err)
	}

	format, err := output.ParseFormat(Flags.Format)
	if err != nil {
		return cliutil.NewInputError("%w", err)
	}
	w, closeFn, err := cliutil.OpenOutput(Flags.Out)
	if err != nil {
		return err
	}
	defer closeFn()

	if scenarioFlags.List {
		names := file.Names()
		sort.Strings(names)
		t := output.NewRows("SCENARIO")
		for _, n := range names {
			t.Add(n)
		}
		return output.Write(w, format, names, t)
	}

	if len(args) != 2 {
		return cliutil.NewInputError("scenario: expected <name> <file> (or -l)")
	}
	name, traceFile := args[0], args[1]

	base := trace.NewAnalysisConfig()
	scn, cfg, err := file.Build(name, base)
	if err != nil {
		return cliutil.NewInputError("%w", err)
	}

	model, err := cliutil.LoadModel(context.Background(), cfg, traceFile)
	if err != nil {
		return err
	}

	pipeline := trace.NewPipeline(cfg)
	result := pipeline.RunScenario(model, scn)

	if err := output.Write(w, format, result, scenarioResultTable(result)); err != nil {
		return err
	}
	if result.Overall == trace.ScenarioFail {
		return &cliutil.ScenarioFailedError{}
	}
	return nil
}

func scenarioResultTable(r trace.ScenarioResult) output.TableRenderer {
	t := output.NewRows("STEP", "STATUS", "MATCHED", "ITEMS", "REASON")
	for _, step := range r.Steps {
		items := make([]string, len(step.ItemIndices))
		for i, idx := range step.ItemIndices {
			items[i] = strconv.Itoa(idx)
		}
		t.Add(step.Label, string(step.Status), strings.Join(step.MatchedTypes, ","), strings.Join(items, ","), step.Reason)
	}
	t.Add("OVERALL", string(r.Overall), "", "", "")
	t.Add("RUN", r.RunID, "", "", "")
	return t
}
