// SPDX-License-Identifier: GPL-3.0-or-later

package trace

import "time"

// ScenarioStatus is the outcome of one evaluated [ScenarioStep], or the
// overall result of a [Scenario] run (§3, §4.12).
type ScenarioStatus string

const (
	ScenarioOK   ScenarioStatus = "OK"
	ScenarioWarn ScenarioStatus = "Warn"
	ScenarioFail ScenarioStatus = "Fail"
)

func worseStatus(a, b ScenarioStatus) ScenarioStatus {
	rank := map[ScenarioStatus]int{ScenarioOK: 0, ScenarioWarn: 1, ScenarioFail: 2}
	if rank[b] > rank[a] {
		return b
	}
	return a
}

// StepPresence is how many times a [ScenarioStep] may match within its
// segment (§3).
type StepPresence string

const (
	PresenceRequired StepPresence = "Required"
	PresenceOptional StepPresence = "Optional"
	PresenceForbidden StepPresence = "Forbidden"
)

// StepScope controls the window a [ScenarioStep] is matched against (§4.12
// step 2): Segment runs from the cursor to the next Required step (or end
// of timeline); Global runs over the whole timeline and never consumes.
type StepScope string

const (
	ScopeSegment StepScope = "Segment"
	ScopeGlobal  StepScope = "Global"
)

// ScenarioStep is one pattern element in a [Scenario]'s sequence (§3).
// Kind and AnyOf are mutually exclusive ways to say what a timeline row
// must (or must not) match; a shorthand string step in the config format
// becomes {Kind: s, Presence: Required}.
type ScenarioStep struct {
	Kind  string
	AnyOf []string

	Presence StepPresence

	Min, Max int
	HasMin   bool
	HasMax   bool
	TooFew   ScenarioStatus
	TooMany  ScenarioStatus
	Scope    StepScope
	Label    string
}

// presenceKind returns the step's presence, defaulting to Required for
// the zero value (the shorthand string-step form).
func (s ScenarioStep) presenceKind() StepPresence {
	if s.Presence == "" {
		return PresenceRequired
	}
	return s.Presence
}

// NewRequiredStep builds the shorthand string-step form: a single required
// match of kind.
func NewRequiredStep(kind string) ScenarioStep {
	return ScenarioStep{Kind: kind, Presence: PresenceRequired}
}

func (s ScenarioStep) bounds() (lo, hi int) {
	switch s.presenceKind() {
	case PresenceForbidden:
		lo, hi = 0, 0
	case PresenceOptional:
		lo, hi = 0, 1
	default:
		lo, hi = 1, 1
	}
	if s.HasMin {
		lo = s.Min
	}
	if s.HasMax {
		hi = s.Max
	}
	return lo, hi
}

func (s ScenarioStep) tooFewStatus() ScenarioStatus {
	if s.TooFew != "" {
		return s.TooFew
	}
	if s.presenceKind() == PresenceRequired {
		return ScenarioFail
	}
	return ScenarioOK
}

func (s ScenarioStep) tooManyStatus() ScenarioStatus {
	if s.TooMany != "" {
		return s.TooMany
	}
	switch s.presenceKind() {
	case PresenceRequired:
		return ScenarioFail
	case PresenceForbidden:
		return ScenarioFail
	default:
		return ScenarioWarn
	}
}

func (s ScenarioStep) matches(typ string) bool {
	if s.Kind != "" {
		return s.Kind == typ
	}
	for _, k := range s.AnyOf {
		if k == typ {
			return true
		}
	}
	return false
}

func (s ScenarioStep) label() string {
	if s.Label != "" {
		return s.Label
	}
	if s.Kind != "" {
		return s.Kind
	}
	return "any-of"
}

// Scenario is a named, ordered sequence of steps. The max-gap timing
// constraints §4.12 checks between consumed steps are not part of it; they
// are read from [AnalysisConfig] (MaxGapEnabled, MaxGapSeconds, ...).
type Scenario struct {
	Name     string
	Sequence []ScenarioStep
}

// StepResult is one step's outcome from [RunScenario] (§4.12).
type StepResult struct {
	Label        string
	Status       ScenarioStatus
	MatchedTypes []string
	ItemIndices  []int
	Reason       string
}

// ScenarioResult is the full output of [RunScenario]: per-step results,
// the worst status across all of them, and a [NewRunID] correlation id
// for this particular evaluation.
type ScenarioResult struct {
	RunID   string
	Steps   []StepResult
	Overall ScenarioStatus
}

// TimelineRow is one entry of the flow timeline a scenario is matched
// against (§4.11, §4.12): a Session or an Event, reduced to the fields
// the scenario engine needs.
type TimelineRow struct {
	Kind      string // "Session" or "Event"
	Type      string // e.g. "TAC", "DNS", "DNSbyME", "Refresh", "ICCID"
	Timestamp *time.Time
	ItemIndex int
}

// RunScenario evaluates scenario against timeline using the deterministic
// cursor algorithm of §4.12, escalating a step's status when a Critical
// issue falls within its consumed range or when the inter-step timing gap
// exceeds cfg's max-gap constraint.
func RunScenario(cfg *AnalysisConfig, scenario Scenario, timeline []TimelineRow, issues []ValidationIssue) ScenarioResult {
	var results []StepResult
	cursor := 0
	var lastConsumedIdx = -1
	var lastConsumedTime *time.Time

	for i, step := range scenario.Sequence {
		segStart, segEnd := cursor, len(timeline)
		if step.Scope != ScopeGlobal {
			segEnd = nextRequiredWindowEnd(scenario.Sequence, i, timeline, cursor)
		} else {
			segStart = 0
		}

		var matchedIdx []int
		for j := segStart; j < segEnd && j < len(timeline); j++ {
			if step.matches(timeline[j].Type) {
				matchedIdx = append(matchedIdx, j)
			}
		}

		stepMin, stepMax := step.bounds()
		count := len(matchedIdx)
		var status ScenarioStatus
		var reason string
		switch {
		case count < stepMin:
			status = step.tooFewStatus()
			reason = "too few matches"
		case count > stepMax:
			status = step.tooManyStatus()
			reason = "too many matches"
		default:
			status = ScenarioOK
		}

		var matchedTypes []string
		var itemIndices []int
		for _, j := range matchedIdx {
			matchedTypes = append(matchedTypes, timeline[j].Type)
			itemIndices = append(itemIndices, timeline[j].ItemIndex)
		}

		if status != ScenarioFail && step.Scope != ScopeGlobal && step.presenceKind() != PresenceForbidden && len(matchedIdx) > 0 {
			last := matchedIdx[len(matchedIdx)-1]
			cursor = last + 1
		}

		if cfg.MaxGapEnabled && step.Scope != ScopeGlobal && len(matchedIdx) > 0 {
			first := timeline[matchedIdx[0]]
			if lastConsumedTime != nil && first.Timestamp != nil {
				gap := first.Timestamp.Sub(*lastConsumedTime).Seconds()
				if gap > cfg.MaxGapSeconds {
					status = worseStatus(status, cfg.MaxGapOnViolation)
					reason = "inter-step gap exceeds max_gap_seconds"
				}
			} else if lastConsumedIdx >= 0 && (first.Timestamp == nil || lastConsumedTime == nil) {
				status = worseStatus(status, cfg.MaxGapOnUnknown)
				reason = "inter-step gap unknown: missing timestamp"
			}
			last := timeline[matchedIdx[len(matchedIdx)-1]]
			lastConsumedIdx = matchedIdx[len(matchedIdx)-1]
			lastConsumedTime = last.Timestamp
		}

		status = worseStatus(status, criticalEscalation(issues, itemIndices))

		results = append(results, StepResult{
			Label:        step.label(),
			Status:       status,
			MatchedTypes: matchedTypes,
			ItemIndices:  itemIndices,
			Reason:       reason,
		})
	}

	overall := ScenarioOK
	for _, r := range results {
		overall = worseStatus(overall, r.Status)
	}
	return ScenarioResult{RunID: NewRunID(), Steps: results, Overall: overall}
}

// nextRequiredWindowEnd implements the Segment-scope lookahead of §4.12
// step 2: the window runs from cursor up to (but not including) the
// earliest row at or after cursor that matches the first later Required
// (non-Global) step having any such row; a later Required step with no
// match at or after cursor is skipped. When no later Required step
// matches, the window runs to the end of the timeline.
func nextRequiredWindowEnd(steps []ScenarioStep, from int, timeline []TimelineRow, cursor int) int {
	for k := from + 1; k < len(steps); k++ {
		if steps[k].presenceKind() != PresenceRequired || steps[k].Scope == ScopeGlobal {
			continue
		}
		for j := cursor; j < len(timeline); j++ {
			if steps[k].matches(timeline[j].Type) {
				return j
			}
		}
	}
	return len(timeline)
}

// criticalEscalation returns [ScenarioWarn] when any Critical issue falls
// within the item index range covered by indices, else [ScenarioOK]
// (§4.12 step 4: a step's severity is never downgraded by this check).
func criticalEscalation(issues []ValidationIssue, indices []int) ScenarioStatus {
	if len(indices) == 0 {
		return ScenarioOK
	}
	lo, hi := indices[0], indices[0]
	for _, i := range indices {
		if i < lo {
			lo = i
		}
		if i > hi {
			hi = i
		}
	}
	for _, iss := range issues {
		if iss.Severity != SeverityCritical || iss.ItemIndex == nil {
			continue
		}
		if *iss.ItemIndex >= lo && *iss.ItemIndex <= hi {
			return ScenarioWarn
		}
	}
	return ScenarioOK
}
