// SPDX-License-Identifier: GPL-3.0-or-later

package trace

import (
	"net/netip"
	"time"
)

// FlowFilter selects which rows [BuildFlow] returns (§4.11).
type FlowFilter string

const (
	FlowAll      FlowFilter = "All"
	FlowSessions FlowFilter = "Sessions"
	FlowEvents   FlowFilter = "Events"
)

// FlowRow is one entry of the merged chronological timeline (§4.11): a
// Session (one per [ChannelSession]) or an Event (Refresh, Cold Reset,
// ICCID). FlowRow embeds the reduced [TimelineRow] fields the scenario
// engine consumes, plus display-only extras.
type FlowRow struct {
	TimelineRow

	Session     *ChannelSession
	Detail      string
	Endpoint    netip.AddrPort
	HasEndpoint bool
}

// BuildFlow merges sessions and the key single-item events of §4.11 into
// one chronological timeline, applying filter. Rows are sorted by
// timestamp ascending, with a stable trace-order tie-break (the sort used
// by [sortValidationIssues] applies here too: items without a timestamp
// sort after dated ones, in original order).
func BuildFlow(model *TraceModel, sessions []ChannelSession, filter FlowFilter) []FlowRow {
	var rows []FlowRow

	if filter == FlowAll || filter == FlowSessions {
		for i := range sessions {
			s := sessions[i]
			endpoint, hasEndpoint := SessionEndpoint(s)
			rows = append(rows, FlowRow{
				TimelineRow: TimelineRow{
					Kind:      "Session",
					Type:      sessionTimelineType(s),
					Timestamp: sessionTimelineTime(s, model),
					ItemIndex: s.OpenIndex,
				},
				Session:     &s,
				Detail:      s.Label,
				Endpoint:    endpoint,
				HasEndpoint: hasEndpoint,
			})
		}
	}

	if filter == FlowAll || filter == FlowEvents {
		rows = append(rows, buildEventRows(model)...)
	}

	sortFlowRows(rows)
	return rows
}

// sessionTimelineType is the scenario-facing `type` label for a session
// row: its resolved role, or its normalised Label when the role carries no
// useful distinction (e.g. a bare BIP session with Unknown role).
func sessionTimelineType(s ChannelSession) string {
	if s.Role != RoleUnknown {
		return string(s.Role)
	}
	return s.Label
}

func sessionTimelineTime(s ChannelSession, model *TraceModel) *time.Time {
	if s.OpenedAt != nil {
		return s.OpenedAt
	}
	if it, ok := model.Item(s.OpenIndex); ok {
		return it.Timestamp
	}
	return nil
}

func buildEventRows(model *TraceModel) []FlowRow {
	var rows []FlowRow
	iccidReported := false
	for _, it := range model.Items {
		switch {
		case containsFold(it.Summary, "refresh"):
			rows = append(rows, eventRow(it, "Refresh", it.Summary))
		case containsFold(it.Summary, "cold reset"):
			rows = append(rows, eventRow(it, "Cold Reset", it.Summary))
		}
		if !iccidReported && it.Apdu != nil && it.Apdu.Kind == ApduResponse {
			if iccid := decodeIccidFromItems(model.Items[:it.Index+1]); iccid != "" {
				rows = append(rows, eventRow(it, "ICCID", iccid))
				iccidReported = true
			}
		}
	}
	return rows
}

func eventRow(it TraceItem, typ, detail string) FlowRow {
	return FlowRow{
		TimelineRow: TimelineRow{
			Kind:      "Event",
			Type:      typ,
			Timestamp: it.Timestamp,
			ItemIndex: it.Index,
		},
		Detail: detail,
	}
}

func sortFlowRows(rows []FlowRow) {
	for i := 1; i < len(rows); i++ {
		for j := i; j > 0 && flowRowLess(rows[j], rows[j-1]); j-- {
			rows[j], rows[j-1] = rows[j-1], rows[j]
		}
	}
}

func flowRowLess(a, b FlowRow) bool {
	switch {
	case a.Timestamp != nil && b.Timestamp != nil && !a.Timestamp.Equal(*b.Timestamp):
		return a.Timestamp.Before(*b.Timestamp)
	case (a.Timestamp != nil) != (b.Timestamp != nil):
		return a.Timestamp != nil
	}
	return a.ItemIndex < b.ItemIndex
}
