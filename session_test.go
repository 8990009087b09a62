// SPDX-License-Identifier: GPL-3.0-or-later

package trace

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chInterp(label, value string) []InterpretationNode {
	return []InterpretationNode{{Content: label + ": " + value}}
}

func TestItemChannelIDFromFreeText(t *testing.T) {
	it := TraceItem{Interpretation: chInterp("Channel ID", "3")}
	ch, ok := itemChannelID(it)
	require.True(t, ok)
	assert.Equal(t, 3, ch)
}

func TestItemChannelIDFromP2Fallback(t *testing.T) {
	it := TraceItem{
		Type: "Open Channel",
		Apdu: &Apdu{Kind: ApduCommand, P2: 2},
	}
	ch, ok := itemChannelID(it)
	require.True(t, ok)
	assert.Equal(t, 2, ch)
}

func TestItemChannelIDNone(t *testing.T) {
	it := TraceItem{Type: "Status", Apdu: &Apdu{Kind: ApduCommand}}
	_, ok := itemChannelID(it)
	assert.False(t, ok)
}

func TestReconstructSessionsNormalLifecycle(t *testing.T) {
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	t1 := t0.Add(time.Second)
	items := []TraceItem{
		{Index: 0, Type: "Open Channel", Timestamp: &t0, Interpretation: append(chInterp("Channel ID", "1"), chInterp("Server name", "example.com")...), Apdu: &Apdu{Kind: ApduCommand, P2: 1}},
		{Index: 1, Type: "Send Data", Timestamp: &t1, Interpretation: chInterp("Channel ID", "1"), Apdu: &Apdu{Kind: ApduCommand, P2: 1}},
		{Index: 2, Type: "Close Channel", Timestamp: &t1, Interpretation: chInterp("Channel ID", "1"), Apdu: &Apdu{Kind: ApduCommand, P2: 1}},
	}
	model := newTraceModel(items)
	cfg := NewAnalysisConfig()

	sessions, issues := reconstructSessions(cfg, model)
	require.Len(t, sessions, 1)
	assert.Empty(t, issues)
	s := sessions[0]
	assert.Equal(t, 1, s.ChannelID)
	assert.Equal(t, 0, s.OpenIndex)
	assert.Equal(t, 2, s.CloseIndex)
	assert.Equal(t, []int{1}, s.Items)
	assert.Equal(t, "example.com", s.ServerName)
}

func TestReconstructSessionsOpenWithoutClose(t *testing.T) {
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	items := []TraceItem{
		{Index: 0, Type: "Open Channel", Timestamp: &t0, Interpretation: chInterp("Channel ID", "1"), Apdu: &Apdu{Kind: ApduCommand, P2: 1}},
	}
	model := newTraceModel(items)
	cfg := NewAnalysisConfig()

	sessions, issues := reconstructSessions(cfg, model)
	require.Len(t, sessions, 1)
	require.Len(t, issues, 1)
	assert.Equal(t, "UnclosedChannel", issues[0].Category)
	assert.Equal(t, SeverityCritical, issues[0].Severity)
	assert.Equal(t, -1, sessions[0].CloseIndex)
}

func TestReconstructSessionsCloseWithoutOpen(t *testing.T) {
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	items := []TraceItem{
		{Index: 0, Type: "Close Channel", Timestamp: &t0, Interpretation: chInterp("Channel ID", "1"), Apdu: &Apdu{Kind: ApduCommand, P2: 1}},
	}
	model := newTraceModel(items)
	cfg := NewAnalysisConfig()

	sessions, issues := reconstructSessions(cfg, model)
	assert.Empty(t, sessions)
	require.Len(t, issues, 1)
	assert.Equal(t, "CloseWithoutOpen", issues[0].Category)
}

func TestReconstructSessionsOrphanData(t *testing.T) {
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	items := []TraceItem{
		{Index: 0, Type: "Send Data", Timestamp: &t0, Interpretation: chInterp("Channel ID", "5")},
	}
	model := newTraceModel(items)
	cfg := NewAnalysisConfig()

	sessions, issues := reconstructSessions(cfg, model)
	assert.Empty(t, sessions)
	require.Len(t, issues, 1)
	assert.Equal(t, "OrphanData", issues[0].Category)
	assert.Equal(t, SeverityWarning, issues[0].Severity)
}

func TestReconstructSessionsResourceLeakOnDoubleOpen(t *testing.T) {
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	t1 := t0.Add(time.Second)
	items := []TraceItem{
		{Index: 0, Type: "Open Channel", Timestamp: &t0, Interpretation: chInterp("Channel ID", "1"), Apdu: &Apdu{Kind: ApduCommand, P2: 1}},
		{Index: 1, Type: "Open Channel", Timestamp: &t1, Interpretation: chInterp("Channel ID", "1"), Apdu: &Apdu{Kind: ApduCommand, P2: 1}},
	}
	model := newTraceModel(items)
	cfg := NewAnalysisConfig()

	sessions, issues := reconstructSessions(cfg, model)
	require.Len(t, sessions, 2)
	require.Len(t, issues, 2) // ResourceLeak + UnclosedChannel for the second open
	assert.Equal(t, "ResourceLeak", issues[0].Category)
}

func TestFinishSessionLabelsDNSAndBIPSession(t *testing.T) {
	cfg := NewAnalysisConfig()
	model := newTraceModel(nil)

	dnsSession := ChannelSession{ServerName: "Google DNS", OpenIndex: -1}
	finishSession(cfg, &dnsSession, model)
	assert.Equal(t, "DNS", dnsSession.Label)

	bipModel := newTraceModel([]TraceItem{{Index: 0, Type: "Open Channel"}})
	bipSession := ChannelSession{OpenIndex: 0}
	finishSession(cfg, &bipSession, bipModel)
	assert.Equal(t, "BIP Session", bipSession.Label)
}

func TestSessionDuration(t *testing.T) {
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	t1 := t0.Add(5 * time.Second)
	s := ChannelSession{OpenedAt: &t0, ClosedAt: &t1}
	d, ok := s.Duration()
	require.True(t, ok)
	assert.Equal(t, 5*time.Second, d)
}

func TestSessionDurationMissing(t *testing.T) {
	s := ChannelSession{}
	_, ok := s.Duration()
	assert.False(t, ok)
}

func TestExtractOpenChannelFieldsFromTLVFallback(t *testing.T) {
	raw := []byte{0x3B, 0x04, 93, 184, 216, 34, 0x3C, 0x02, 0x01, 0xBB}
	it := TraceItem{RawHex: raw, Tlvs: ParseTLVs(raw)}
	s := &ChannelSession{}
	extractOpenChannelFields(s, it)
	require.Len(t, s.IPAddresses, 1)
	assert.Equal(t, "93.184.216.34", s.IPAddresses[0])
	assert.True(t, s.HasPort)
	assert.Equal(t, 443, s.Port)
}

// TestReconstructSessionsDetectsTACRoleFromWrappedClientHello mirrors a real
// producer's trace shape: the OPEN CHANNEL command's raw bytes carry IP/port
// TLVs, not free text, and the SEND DATA item's RawHex is an APDU/TLV
// envelope (tag 0x36) around the TLS bytes rather than bare TLS at offset 0.
// Role detection must peel off that envelope via channelDataPayload before
// it can see the ClientHello's SNI.
func TestReconstructSessionsDetectsTACRoleFromWrappedClientHello(t *testing.T) {
	openRaw := []byte{0x3B, 0x04, 93, 184, 216, 34, 0x3C, 0x02, 0x01, 0xBB}
	clientHelloRecord := tlsRecord(tlsContentHandshake, 0x0303,
		handshakeMessage(handshakeClientHello, clientHelloBody("tac.example.com")))
	sendRaw := append([]byte{0x36, byte(len(clientHelloRecord))}, clientHelloRecord...)

	items := []TraceItem{
		{
			Index: 0, Type: "Open Channel", Interpretation: chInterp("Channel ID", "1"),
			RawHex: openRaw, Tlvs: ParseTLVs(openRaw),
		},
		{
			Index: 1, Type: "Send Data", Interpretation: chInterp("Channel ID", "1"),
			RawHex: sendRaw, Tlvs: ParseTLVs(sendRaw),
		},
		{Index: 2, Type: "Close Channel", Interpretation: chInterp("Channel ID", "1")},
	}
	model := newTraceModel(items)
	cfg := NewAnalysisConfig()

	sessions, issues := reconstructSessions(cfg, model)
	require.Len(t, sessions, 1)
	assert.Empty(t, issues)
	assert.Equal(t, RoleTAC, sessions[0].Role)
}
