// SPDX-License-Identifier: GPL-3.0-or-later

package commands

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	trace "utracer"
)

const sampleTrace = `<?xml version="1.0"?>
<tracedata>
  <traceitem protocol="BIP" type="Command" year="2026" month="1" day="1" hour="10" minute="0" second="0" millisecond="0">
    <data rawhex="00 A4 00 0C 02 2F E2"/>
    <interpretation>
      <interpretedresult content="SELECT EF_ICCID"/>
    </interpretation>
  </traceitem>
  <traceitem protocol="BIP" type="Response" year="2026" month="1" day="1" hour="10" minute="0" second="1" millisecond="0">
    <data rawhex="21 43 65 87 09 90 00"/>
    <interpretation>
      <interpretedresult content="Status: Success"/>
    </interpretation>
  </traceitem>
</tracedata>`

func writeTraceFile(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "trace.xml")
	require.NoError(t, os.WriteFile(path, []byte(sampleTrace), 0o644))
	return path
}

func resetFlags() {
	Flags.Format = "text"
	Flags.Out = ""
}

func TestRunFlowOverviewJSON(t *testing.T) {
	resetFlags()
	Flags.Format = "json"
	path := writeTraceFile(t)

	out, err := captureOutPath(t, func(outPath string) error {
		Flags.Out = outPath
		return runFlow(trace.FlowAll)(flowOverviewCmd, []string{path})
	})
	require.NoError(t, err)
	assert.Contains(t, out, "\"Kind\"")
}

func TestRunStatsText(t *testing.T) {
	resetFlags()
	path := writeTraceFile(t)

	out, err := captureOutPath(t, func(outPath string) error {
		Flags.Out = outPath
		return runStats(statsCmd, []string{path})
	})
	require.NoError(t, err)
	assert.Contains(t, out, "Total items")
}

func TestRunIccidText(t *testing.T) {
	resetFlags()
	path := writeTraceFile(t)

	out, err := captureOutPath(t, func(outPath string) error {
		Flags.Out = outPath
		return runIccid(iccidCmd, []string{path})
	})
	require.NoError(t, err)
	assert.Contains(t, out, "1234567890")
}

func TestRunParsingLogDefaultExcludesInfo(t *testing.T) {
	resetFlags()
	path := writeTraceFile(t)

	out, err := captureOutPath(t, func(outPath string) error {
		Flags.Out = outPath
		return runParsingLog(parsingLogCmd, []string{path})
	})
	require.NoError(t, err)
	assert.NotContains(t, out, "Info")
}

func TestRunParsingLogInvalidSince(t *testing.T) {
	resetFlags()
	path := writeTraceFile(t)
	parsingLogFlags.Since = "not-a-time"
	defer func() { parsingLogFlags.Since = "" }()

	err := runParsingLog(parsingLogCmd, []string{path})
	require.Error(t, err)
}

func TestRunScenarioListsNames(t *testing.T) {
	resetFlags()
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "scenario.json")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`{"scenarios":{"solo":{"sequence":["Command"]}},"selected_scenario":"solo"}`), 0o644))

	scenarioFlags.List = true
	scenarioFlags.Config = cfgPath
	defer func() { scenarioFlags.List = false; scenarioFlags.Config = "" }()

	out, err := captureOutPath(t, func(outPath string) error {
		Flags.Out = outPath
		return runScenario(scenarioCmd, nil)
	})
	require.NoError(t, err)
	assert.Contains(t, out, "solo")
}

func TestRunScenarioMissingConfig(t *testing.T) {
	resetFlags()
	scenarioFlags.List = false
	scenarioFlags.Config = ""
	err := runScenario(scenarioCmd, []string{"x", "y"})
	assert.Error(t, err)
}

func captureOutPath(t *testing.T, fn func(outPath string) error) (string, error) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "out")
	err := fn(path)
	data, readErr := os.ReadFile(path)
	require.NoError(t, readErr)
	return string(data), err
}
