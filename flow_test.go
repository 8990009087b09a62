// SPDX-License-Identifier: GPL-3.0-or-later

package trace

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildFlowMergesSessionsAndEvents(t *testing.T) {
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	t1 := t0.Add(time.Minute)
	items := []TraceItem{
		{Index: 0, Timestamp: &t0},
		{Index: 1, Summary: "Refresh requested", Timestamp: &t1},
	}
	model := newTraceModel(items)
	sessions := []ChannelSession{
		{ChannelID: 1, OpenIndex: 0, OpenedAt: &t0, Role: RoleTAC, Label: "tac.example.com"},
	}

	rows := BuildFlow(model, sessions, FlowAll)
	require.Len(t, rows, 2)
	assert.Equal(t, "Session", rows[0].Kind)
	assert.Equal(t, "TAC", rows[0].Type)
	assert.Equal(t, "Event", rows[1].Kind)
	assert.Equal(t, "Refresh", rows[1].Type)
}

func TestBuildFlowFilterSessionsOnly(t *testing.T) {
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	items := []TraceItem{{Index: 0, Summary: "Refresh", Timestamp: &t0}}
	model := newTraceModel(items)
	sessions := []ChannelSession{{ChannelID: 1, OpenIndex: 0, OpenedAt: &t0}}

	rows := BuildFlow(model, sessions, FlowSessions)
	require.Len(t, rows, 1)
	assert.Equal(t, "Session", rows[0].Kind)
}

func TestBuildFlowFilterEventsOnly(t *testing.T) {
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	items := []TraceItem{{Index: 0, Summary: "Cold reset detected", Timestamp: &t0}}
	model := newTraceModel(items)
	sessions := []ChannelSession{{ChannelID: 1, OpenIndex: 0, OpenedAt: &t0}}

	rows := BuildFlow(model, sessions, FlowEvents)
	require.Len(t, rows, 1)
	assert.Equal(t, "Cold Reset", rows[0].Type)
}

func TestSessionTimelineTypeFallsBackToLabel(t *testing.T) {
	s := ChannelSession{Role: RoleUnknown, Label: "BIP Session"}
	assert.Equal(t, "BIP Session", sessionTimelineType(s))
}

func TestFlowRowLessUndatedSortsAfterDated(t *testing.T) {
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	dated := FlowRow{TimelineRow: TimelineRow{Timestamp: &t0, ItemIndex: 5}}
	undated := FlowRow{TimelineRow: TimelineRow{ItemIndex: 0}}
	assert.True(t, flowRowLess(dated, undated))
	assert.False(t, flowRowLess(undated, dated))
}
