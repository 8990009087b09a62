// SPDX-License-Identifier: GPL-3.0-or-later

package trace

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateLocationStatus(t *testing.T) {
	buf := []byte{0x1B, 0x01, 0x02} // No Service
	items := []TraceItem{{Index: 0, RawHex: buf, Tlvs: ParseTLVs(buf)}}
	model := newTraceModel(items)
	issues := validateItemPatterns(model)
	require.Len(t, issues, 1)
	assert.Equal(t, SeverityWarning, issues[0].Severity)
	assert.Equal(t, "Location Status / No Service", issues[0].Category)
}

func TestValidateBIPError(t *testing.T) {
	buf := []byte{0x03, 0x02, 0x3A, 0x07}
	items := []TraceItem{{Index: 0, RawHex: buf, Tlvs: ParseTLVs(buf)}}
	model := newTraceModel(items)
	issues := validateItemPatterns(model)
	require.Len(t, issues, 1)
	assert.Equal(t, SeverityCritical, issues[0].Severity)
	assert.Equal(t, "BIP Error", issues[0].Category)
	assert.Contains(t, issues[0].Message, "07")
}

func TestValidateStatusWord5023(t *testing.T) {
	items := []TraceItem{{Index: 0, Apdu: &Apdu{Kind: ApduResponse, SW1: 0x50, SW2: 0x23}}}
	model := newTraceModel(items)
	issues := validateItemPatterns(model)
	require.Len(t, issues, 1)
	assert.Equal(t, SeverityCritical, issues[0].Severity)
}

func TestValidateCardEventAndLinkDropped(t *testing.T) {
	items := []TraceItem{
		{Index: 0, Summary: "Card powered off"},
		{Index: 1, Summary: "Link dropped unexpectedly"},
	}
	model := newTraceModel(items)
	issues := validateItemPatterns(model)
	require.Len(t, issues, 2)
	assert.Equal(t, "Card Event", issues[0].Category)
	assert.Equal(t, "Channel Status", issues[1].Category)
	assert.Equal(t, SeverityCritical, issues[1].Severity)
}

func TestValidatePairsUnanswered(t *testing.T) {
	ts := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	items := []TraceItem{{Index: 0, Timestamp: &ts}}
	model := newTraceModel(items)
	pairs := []Pair{{FetchIndex: 0, Status: PairPending}}
	issues := validatePairs(pairs, model)
	require.Len(t, issues, 1)
	assert.Equal(t, "UnansweredCommand", issues[0].Category)
	assert.Equal(t, SeverityWarning, issues[0].Severity)
}

func TestValidateSessionFieldsNoIPNoPort(t *testing.T) {
	sessions := []ChannelSession{{OpenIndex: 3}}
	issues := validateSessionFields(sessions)
	require.Len(t, issues, 1)
	assert.Equal(t, "Channel", issues[0].Category)
	assert.Equal(t, SeverityInfo, issues[0].Severity)
}

func TestValidateSessionFieldsOK(t *testing.T) {
	sessions := []ChannelSession{{IPAddresses: []string{"1.2.3.4"}}}
	issues := validateSessionFields(sessions)
	assert.Empty(t, issues)
}

func TestValidateCipherComplianceDisabledWhenEmpty(t *testing.T) {
	cfg := NewAnalysisConfig()
	issues := validateCipherCompliance(cfg, nil, newTraceModel(nil))
	assert.Empty(t, issues)
}

func TestCipherApproved(t *testing.T) {
	cfg := NewAnalysisConfig()
	cfg.ApprovedCipherSuites = []uint16{0x1301, 0x1302}
	assert.True(t, cipherApproved(cfg, 0x1301))
	assert.False(t, cipherApproved(cfg, 0x1303))
}

func TestSortValidationIssuesChronological(t *testing.T) {
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	t1 := t0.Add(time.Minute)
	idx0, idx1, idx2 := 0, 1, 2
	issues := []ValidationIssue{
		{Category: "b", Timestamp: &t1, ItemIndex: &idx1},
		{Category: "undated", ItemIndex: &idx2},
		{Category: "a", Timestamp: &t0, ItemIndex: &idx0},
	}
	sortValidationIssues(issues)
	require.Len(t, issues, 3)
	assert.Equal(t, "a", issues[0].Category)
	assert.Equal(t, "b", issues[1].Category)
	assert.Equal(t, "undated", issues[2].Category)
}

func TestSortValidationIssuesStableTieBreakOnIndex(t *testing.T) {
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	idx0, idx1 := 5, 2
	issues := []ValidationIssue{
		{Category: "first-by-time", Timestamp: &t0, ItemIndex: &idx0},
		{Category: "second-by-time", Timestamp: &t0, ItemIndex: &idx1},
	}
	sortValidationIssues(issues)
	assert.Equal(t, "second-by-time", issues[0].Category) // lower index wins the tie
	assert.Equal(t, "first-by-time", issues[1].Category)
}
