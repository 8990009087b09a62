// SPDX-License-Identifier: GPL-3.0-or-later

package trace

import "time"

// RoleRule maps a CIDR prefix to the [Role] of endpoints within it. See
// [AnalysisConfig.IPRoles].
type RoleRule struct {
	CIDR string
	Role Role
}

// HostnameRole maps a case-insensitive SNI/hostname substring pattern to a
// [Role]. Rules are evaluated in order; the first match wins. See
// [AnalysisConfig.HostnameRoles] and §4.5 of the role detector.
type HostnameRole struct {
	Pattern string
	Role    Role
}

// AnalysisConfig holds every tunable this package uses. It is built once
// via [NewAnalysisConfig] and passed explicitly to pipeline constructors;
// there is no global mutable configuration.
type AnalysisConfig struct {
	// ErrClassifier classifies decode-level errors for structured logging.
	//
	// Set by [NewAnalysisConfig] to [DecodeErrClassifier].
	ErrClassifier ErrClassifier

	// Logger is the [SLogger] every stage logs through.
	//
	// Set by [NewAnalysisConfig] to [DefaultSLogger] (discard).
	Logger SLogger

	// TimeNow returns the current time (overridable for deterministic
	// tests of anything that stamps wall-clock time, e.g. scenario runs).
	//
	// Set by [NewAnalysisConfig] to [time.Now].
	TimeNow func() time.Time

	// TimestampLayouts lists layouts in the form [ParseTimestamp] takes as
	// its layouts argument; empty stands for the built-in MM/DD/YYYY and
	// RFC3339 variants. This package does not read the field itself:
	// ingestion composes timestamps from attributes, and the CLI calls
	// ParseTimestamp with the built-in list.
	TimestampLayouts []string

	// HostnameRoles are the SNI-based role patterns consulted first by the
	// role detector (§4.5 priority 1). Defaults to the built-in SM-DP+/
	// SM-DS/eIM/TAC patterns.
	HostnameRoles []HostnameRole

	// IPRoles is the CIDR→role table consulted last by the role detector
	// (§4.5 priority 3). Empty by default: every unmatched session falls
	// through to Unknown.
	IPRoles []RoleRule

	// ApprovedCipherSuites is the TLS compliance allowlist (§4.8). An empty
	// slice disables the chosen-cipher compliance check entirely.
	ApprovedCipherSuites []uint16

	// RoleDetectionItemCap bounds how many items of a session's TLS stream
	// the role detector inspects (§4.5, default N=20).
	RoleDetectionItemCap int

	// MaxGapEnabled turns on the scenario engine's inter-step timing check
	// (§4.12).
	MaxGapEnabled bool

	// MaxGapSeconds is the maximum allowed gap between two consecutive
	// consumed scenario steps before a severity escalation.
	MaxGapSeconds float64

	// MaxGapOnUnknown is the status a step is raised to when a timing gap
	// can't be computed because a timestamp is missing.
	MaxGapOnUnknown ScenarioStatus

	// MaxGapOnViolation is the status a step is raised to when the gap
	// exceeds MaxGapSeconds.
	MaxGapOnViolation ScenarioStatus
}

// NewAnalysisConfig creates an [*AnalysisConfig] with sensible defaults:
// no approved-cipher restriction, an empty IP role table, the built-in
// SNI role patterns, N=20 role-detection cap, and max-gap checking
// disabled.
func NewAnalysisConfig() *AnalysisConfig {
	return &AnalysisConfig{
		ErrClassifier:         DecodeErrClassifier,
		Logger:                DefaultSLogger(),
		TimeNow:               time.Now,
		RoleDetectionItemCap:  20,
		MaxGapEnabled:         false,
		MaxGapSeconds:         30,
		MaxGapOnUnknown:       ScenarioWarn,
		MaxGapOnViolation:     ScenarioWarn,
		HostnameRoles: []HostnameRole{
			{Pattern: "smdpplus", Role: RoleSMDPPlus},
			{Pattern: "smdp", Role: RoleSMDPPlus},
			{Pattern: "smds", Role: RoleSMDS},
			{Pattern: "dpplus", Role: RoleEIM},
			{Pattern: "eim", Role: RoleEIM},
			{Pattern: "tac.", Role: RoleTAC},
			{Pattern: "thales", Role: RoleTAC},
		},
	}
}
