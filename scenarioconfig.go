// SPDX-License-Identifier: GPL-3.0-or-later

package trace

import (
	"encoding/json"
	"fmt"
)

// ScenarioConfigFile is the on-disk shape of a scenario config (§3, §6): a
// named set of scenarios plus which one is selected by default. It is the
// unit the `scenario` CLI subcommand loads and lists.
type ScenarioConfigFile struct {
	Scenarios        map[string]scenarioDef `json:"scenarios"`
	SelectedScenario string                 `json:"selected_scenario"`
}

type scenarioDef struct {
	Sequence    []json.RawMessage  `json:"sequence"`
	Constraints *scenarioConstraints `json:"constraints"`
}

type scenarioConstraints struct {
	MaxGapEnabled     *bool    `json:"max_gap_enabled"`
	MaxGapSeconds     *float64 `json:"max_gap_seconds"`
	MaxGapOnUnknown   *string  `json:"max_gap_on_unknown"`
	MaxGapOnViolation *string  `json:"max_gap_on_violation"`
}

// stepDef is the object form of a config-file step; a bare JSON string is
// shorthand for {Kind: <string>, Presence: "Required"}.
type stepDef struct {
	Kind     string   `json:"kind"`
	AnyOf    []string `json:"any_of"`
	Presence string   `json:"presence"`
	Min      *int     `json:"min"`
	Max      *int     `json:"max"`
	TooFew   string   `json:"too_few"`
	TooMany  string   `json:"too_many"`
	Scope    string   `json:"scope"`
	Label    string   `json:"label"`
}

// ParseScenarioConfig decodes a scenario config file's JSON bytes.
func ParseScenarioConfig(data []byte) (*ScenarioConfigFile, error) {
	var file ScenarioConfigFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("trace: invalid scenario config: %w", err)
	}
	return &file, nil
}

// Names returns the scenario names defined in the file, in map order (the
// CLI's `-l` flag sorts these for display).
func (f *ScenarioConfigFile) Names() []string {
	names := make([]string, 0, len(f.Scenarios))
	for name := range f.Scenarios {
		names = append(names, name)
	}
	return names
}

// Build resolves the named scenario (or the file's SelectedScenario, when
// name is empty) into a [Scenario] plus the [*AnalysisConfig] overrides its
// constraints carry, applied on top of base.
func (f *ScenarioConfigFile) Build(name string, base *AnalysisConfig) (Scenario, *AnalysisConfig, error) {
	if name == "" {
		name = f.SelectedScenario
	}
	if name == "" {
		return Scenario{}, nil, fmt.Errorf("trace: no scenario name given and no selected_scenario set")
	}
	def, ok := f.Scenarios[name]
	if !ok {
		return Scenario{}, nil, fmt.Errorf("trace: no such scenario %q", name)
	}

	steps := make([]ScenarioStep, 0, len(def.Sequence))
	for i, raw := range def.Sequence {
		step, err := decodeStep(raw)
		if err != nil {
			return Scenario{}, nil, fmt.Errorf("trace: scenario %q step %d: %w", name, i, err)
		}
		steps = append(steps, step)
	}

	cfg := base
	if def.Constraints != nil {
		cp := *base
		cfg = &cp
		applyConstraints(cfg, def.Constraints)
	}

	return Scenario{Name: name, Sequence: steps}, cfg, nil
}

func decodeStep(raw json.RawMessage) (ScenarioStep, error) {
	var shorthand string
	if err := json.Unmarshal(raw, &shorthand); err == nil {
		return NewRequiredStep(shorthand), nil
	}

	var d stepDef
	if err := json.Unmarshal(raw, &d); err != nil {
		return ScenarioStep{}, err
	}
	step := ScenarioStep{
		Kind:     d.Kind,
		AnyOf:    d.AnyOf,
		Presence: StepPresence(d.Presence),
		TooFew:   ScenarioStatus(d.TooFew),
		TooMany:  ScenarioStatus(d.TooMany),
		Scope:    StepScope(d.Scope),
		Label:    d.Label,
	}
	if d.Min != nil {
		step.HasMin, step.Min = true, *d.Min
	}
	if d.Max != nil {
		step.HasMax, step.Max = true, *d.Max
	}
	if step.Kind == "" && len(step.AnyOf) == 0 {
		return ScenarioStep{}, fmt.Errorf("step has neither kind nor any_of")
	}
	return step, nil
}

func applyConstraints(cfg *AnalysisConfig, c *scenarioConstraints) {
	if c.MaxGapEnabled != nil {
		cfg.MaxGapEnabled = *c.MaxGapEnabled
	}
	if c.MaxGapSeconds != nil {
		cfg.MaxGapSeconds = *c.MaxGapSeconds
	}
	if c.MaxGapOnUnknown != nil {
		cfg.MaxGapOnUnknown = ScenarioStatus(*c.MaxGapOnUnknown)
	}
	if c.MaxGapOnViolation != nil {
		cfg.MaxGapOnViolation = ScenarioStatus(*c.MaxGapOnViolation)
	}
}
