// SPDX-License-Identifier: GPL-3.0-or-later

package trace

import (
	"strconv"
	"strings"
	"time"
)

// ChannelSession is one OPEN→CLOSE (or OPEN→end-of-trace) lifecycle for a
// BIP channel (§3, §4.4).
type ChannelSession struct {
	ChannelID int

	OpenIndex  int
	CloseIndex int // -1 when the session is still open at end of trace
	Items      []int

	ServerName  string
	IPAddresses []string
	Port        int
	HasPort     bool
	Transport   Transport

	Role Role

	OpenedAt *time.Time
	ClosedAt *time.Time

	// Label is the normalised display name: "DNS" when ServerName is
	// Google's public resolver, "BIP Session" for an Open Channel group
	// with no server field, else ServerName.
	Label string
}

// Duration reports the session's lifetime when both endpoints have a
// timestamp.
func (s ChannelSession) Duration() (time.Duration, bool) {
	if s.OpenedAt == nil || s.ClosedAt == nil {
		return 0, false
	}
	return s.ClosedAt.Sub(*s.OpenedAt), true
}

// openChannelState tracks one channel id's in-progress session while the
// reconstructor walks the trace in order.
type openChannelState struct {
	session ChannelSession
}

// reconstructSessions runs the Closed→Opened→(Active)→Closed state machine
// of §4.4 over model, returning completed/open sessions in the order their
// OPEN CHANNEL item occurred, plus the issues the transitions themselves
// raise (ResourceLeak, OrphanData, CloseWithoutOpen, UnclosedChannel).
func reconstructSessions(cfg *AnalysisConfig, model *TraceModel) ([]ChannelSession, []ValidationIssue) {
	open := make(map[int]*openChannelState)
	var done []ChannelSession
	var issues []ValidationIssue
	var order []int // channel ids in first-OPEN order, for stable output

	closeSession := func(st *openChannelState, closeIndex int, closedAt *time.Time) {
		st.session.CloseIndex = closeIndex
		st.session.ClosedAt = closedAt
		finishSession(cfg, &st.session, model)
		done = append(done, st.session)
	}

	for _, it := range model.Items {
		ch, ok := itemChannelID(it)
		if !ok {
			continue
		}
		switch {
		case isOpenChannelType(it.Type):
			if prior, exists := open[ch]; exists {
				issues = append(issues, ValidationIssue{
					Severity:  SeverityCritical,
					Category:  "ResourceLeak",
					Message:   "OPEN CHANNEL on channel " + strconv.Itoa(ch) + " without a prior CLOSE CHANNEL",
					ItemIndex: &it.Index,
					Timestamp: it.Timestamp,
				})
				closeSession(prior, it.Index, it.Timestamp)
				delete(open, ch)
			}
			st := &openChannelState{session: ChannelSession{
				ChannelID:  ch,
				OpenIndex:  it.Index,
				CloseIndex: -1,
				OpenedAt:   it.Timestamp,
			}}
			extractOpenChannelFields(&st.session, it)
			open[ch] = st
			order = append(order, ch)

		case isSendDataType(it.Type) || isReceiveDataType(it.Type):
			st, exists := open[ch]
			if !exists {
				issues = append(issues, ValidationIssue{
					Severity:  SeverityWarning,
					Category:  "OrphanData",
					Message:   "data item on channel " + strconv.Itoa(ch) + " with no open session",
					ItemIndex: &it.Index,
					Timestamp: it.Timestamp,
				})
				continue
			}
			st.session.Items = append(st.session.Items, it.Index)

		case isCloseChannelType(it.Type):
			st, exists := open[ch]
			if !exists {
				issues = append(issues, ValidationIssue{
					Severity:  SeverityCritical,
					Category:  "CloseWithoutOpen",
					Message:   "CLOSE CHANNEL on channel " + strconv.Itoa(ch) + " with no open session",
					ItemIndex: &it.Index,
					Timestamp: it.Timestamp,
				})
				continue
			}
			closeSession(st, it.Index, it.Timestamp)
			delete(open, ch)
		}
	}

	// Anything still open at end of trace leaked.
	for _, ch := range order {
		st, exists := open[ch]
		if !exists {
			continue
		}
		issues = append(issues, ValidationIssue{
			Severity: SeverityCritical,
			Category: "UnclosedChannel",
			Message:  "channel " + strconv.Itoa(ch) + " was never closed",
		})
		closeSession(st, -1, nil)
		delete(open, ch)
	}

	return orderSessionsByOpenIndex(done), issues
}

func orderSessionsByOpenIndex(sessions []ChannelSession) []ChannelSession {
	out := append([]ChannelSession(nil), sessions...)
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].OpenIndex < out[j-1].OpenIndex; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}

// finishSession fills in the fields that depend on the session's full item
// set, once it is known to be closed (or terminal): transport and role.
func finishSession(cfg *AnalysisConfig, s *ChannelSession, model *TraceModel) {
	if s.HasPort {
		s.Transport = transportForPort(s.Port)
	} else {
		s.Transport = TransportUnknown
	}

	sni := sessionClientHelloSNI(cfg, s, model)
	s.Role = detectRole(cfg, sni, s.Port, s.IPAddresses)

	switch {
	case strings.EqualFold(s.ServerName, "Google DNS"):
		s.Label = "DNS"
	case s.ServerName == "" && isOpenChannelType(mustItemType(model, s.OpenIndex)):
		s.Label = "BIP Session"
	default:
		s.Label = s.ServerName
	}
}

func mustItemType(model *TraceModel, index int) string {
	it, ok := model.Item(index)
	if !ok {
		return ""
	}
	return it.Type
}

// extractOpenChannelFields reads the free-text "Server name" / "IP address"
// / "Port" fields out of an OPEN CHANNEL item's interpretation tree (§4.4).
// TLV-based extraction from the command's data bytes is the fallback for
// producers that don't label these as free text.
func extractOpenChannelFields(s *ChannelSession, it TraceItem) {
	if v, ok := findField(it.Interpretation, "Server name"); ok {
		s.ServerName = v
	}
	if v, ok := findField(it.Interpretation, "IP address"); ok {
		s.IPAddresses = append(s.IPAddresses, v)
	}
	if v, ok := findField(it.Interpretation, "Port"); ok {
		if port, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			s.Port = port
			s.HasPort = true
		}
	}
	if len(s.IPAddresses) == 0 && it.Tlvs != nil {
		extractOpenChannelFieldsFromTLVs(s, it)
	}
}

const (
	tagOpenChannelIPAddress uint32 = 0x3B
	tagOpenChannelPort      uint32 = 0x3C
)

func extractOpenChannelFieldsFromTLVs(s *ChannelSession, it TraceItem) {
	if node, ok := findTLVByTag(it.Tlvs, tagOpenChannelIPAddress); ok {
		if v := node.Value(it.RawHex); len(v) == 4 {
			s.IPAddresses = append(s.IPAddresses, formatIPv4(v))
		}
	}
	if node, ok := findTLVByTag(it.Tlvs, tagOpenChannelPort); ok {
		if v := node.Value(it.RawHex); len(v) == 2 {
			s.Port = int(v[0])<<8 | int(v[1])
			s.HasPort = true
		}
	}
}

func formatIPv4(b []byte) string {
	var sb strings.Builder
	for i, o := range b {
		if i > 0 {
			sb.WriteByte('.')
		}
		sb.WriteString(strconv.Itoa(int(o)))
	}
	return sb.String()
}

// sessionClientHelloSNI scans at most cfg.RoleDetectionItemCap items of the
// session's stream for a ClientHello and returns its SNI, per §4.5's
// bounded-work rule. TLS parsing itself lives in tlsrecord.go/tlshandshake.go;
// this is a thin seam so role detection doesn't depend on session
// reconstruction order.
func sessionClientHelloSNI(cfg *AnalysisConfig, s *ChannelSession, model *TraceModel) string {
	itemCap := cfg.RoleDetectionItemCap
	if itemCap <= 0 {
		itemCap = 20
	}
	n := len(s.Items)
	if n > itemCap {
		n = itemCap
	}
	for _, idx := range s.Items[:n] {
		it, ok := model.Item(idx)
		if !ok {
			continue
		}
		if sni, ok := sniFromPayload(it); ok {
			return sni
		}
	}
	return ""
}

// itemChannelID extracts the BIP channel id an item pertains to. The
// channel id is not reliably present in the raw APDU bytes (P1/P2 don't
// carry it for every producer), so it is read from the item's free-text
// interpretation tree first
// ("Channel", "Channel ID", "Channel number") and falls back to the
// command's P2 byte for OPEN/CLOSE/SEND/RECEIVE CHANNEL commands, which is
// where several producers do encode it.
func itemChannelID(it TraceItem) (int, bool) {
	for _, label := range []string{"Channel ID", "Channel number", "Channel"} {
		if v, ok := findField(it.Interpretation, label); ok {
			if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
				return n, true
			}
		}
	}
	if it.Apdu != nil && it.Apdu.Kind == ApduCommand {
		isChannelCmd := isOpenChannelType(it.Type) || isCloseChannelType(it.Type) ||
			isSendDataType(it.Type) || isReceiveDataType(it.Type)
		if isChannelCmd && it.Apdu.P2 != 0 {
			return int(it.Apdu.P2), true
		}
	}
	return 0, false
}
