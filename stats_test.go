// SPDX-License-Identifier: GPL-3.0-or-later

package trace

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeStats(t *testing.T) {
	items := []TraceItem{
		{Index: 0, Protocol: "BIP"},
		{Index: 1, Protocol: "DNS"},
	}
	model := newTraceModel(items)
	model.Iccid = "1234567890"

	a := Analysis{
		Model:    model,
		Pairs:    []Pair{{Status: PairSuccess}, {Status: PairPending}},
		Sessions: []ChannelSession{{Role: RoleTAC}, {Role: RoleUnknown}},
		Issues:   []ValidationIssue{{Severity: SeverityWarning}, {Severity: SeverityWarning}, {Severity: SeverityCritical}},
	}

	s := ComputeStats(a)
	assert.Equal(t, 2, s.TotalItems)
	assert.Equal(t, 1, s.ItemsByProtocol["BIP"])
	assert.Equal(t, 1, s.ItemsByProtocol["DNS"])
	assert.Equal(t, 2, s.TotalPairs)
	assert.Equal(t, 1, s.PairsByStatus[PairSuccess])
	assert.Equal(t, 1, s.PairsByStatus[PairPending])
	assert.Equal(t, 2, s.TotalSessions)
	assert.Equal(t, 1, s.SessionsByRole[RoleTAC])
	assert.Equal(t, 2, s.IssuesBySeverity[SeverityWarning])
	assert.Equal(t, 1, s.IssuesBySeverity[SeverityCritical])
	assert.Equal(t, "1234567890", s.Iccid)
}
