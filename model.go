// SPDX-License-Identifier: GPL-3.0-or-later

package trace

import "time"

// InterpretationNode is one `<interpretedresult content="…">` node,
// preserving the XML document's order and nesting.
type InterpretationNode struct {
	Content  string
	Children []InterpretationNode
}

// TraceItem is one row of a Universal-Tracer trace: a single `<traceitem>`.
//
// Items are immutable after [Ingest]. Index is unique and dense across a
// [*TraceModel]; every derived structure refers back to an item by Index
// rather than by pointer, so the model can stay shared and read-only.
type TraceItem struct {
	Index          int
	Protocol       string
	Type           string
	Timestamp      *time.Time
	RawHex         []byte
	Interpretation []InterpretationNode
	Summary        string

	// Apdu is the parsed command/response, when RawHex looked like one.
	Apdu *Apdu

	// Tlvs is the top-level BER-TLV list parsed from RawHex, when present.
	Tlvs []Tlv
}

// TraceModel is the canonical, immutable in-memory trace: an ordered item
// slice plus lookup indices built once at ingestion time.
type TraceModel struct {
	Items []TraceItem

	// Iccid is the ICCID decoded at the end of ingestion from the full item
	// list (a SELECT EF_ICCID + READ BINARY pair), or empty when none
	// decodes. [DecodeIccid] runs the same decoding over a model's items.
	Iccid string

	// MalformedItems are the Warning issues ingestion raised for
	// individual <traceitem> elements it could not fully parse.
	MalformedItems []ValidationIssue

	byProtocol map[string][]int
	byType     map[string][]int
	byChannel  map[int][]int
}

func newTraceModel(items []TraceItem) *TraceModel {
	m := &TraceModel{
		Items:      items,
		byProtocol: make(map[string][]int),
		byType:     make(map[string][]int),
		byChannel:  make(map[int][]int),
	}
	for _, it := range items {
		m.byProtocol[it.Protocol] = append(m.byProtocol[it.Protocol], it.Index)
		m.byType[it.Type] = append(m.byType[it.Type], it.Index)
		if ch, ok := itemChannelID(it); ok {
			m.byChannel[ch] = append(m.byChannel[ch], it.Index)
		}
	}
	return m
}

// ByProtocol returns the indices of items with the given protocol, in
// trace order.
func (m *TraceModel) ByProtocol(protocol string) []int {
	return m.byProtocol[protocol]
}

// ByType returns the indices of items with the given type, in trace order.
func (m *TraceModel) ByType(typ string) []int {
	return m.byType[typ]
}

// ByChannel returns the indices of items carrying the given BIP channel id,
// in trace order.
func (m *TraceModel) ByChannel(channelID int) []int {
	return m.byChannel[channelID]
}

// Item returns the item at the given index and whether it exists.
func (m *TraceModel) Item(index int) (TraceItem, bool) {
	if index < 0 || index >= len(m.Items) {
		return TraceItem{}, false
	}
	return m.Items[index], true
}

// firstInterpretationContent returns the content of the first top-level
// interpretation node, or "" when there is none. Used to compute
// [TraceItem.Summary] at ingestion time.
func firstInterpretationContent(nodes []InterpretationNode) string {
	if len(nodes) == 0 {
		return ""
	}
	return nodes[0].Content
}

// findField does a depth-first search of an interpretation tree for a node
// whose content starts with the given label (case-insensitive), returning
// the remainder of that content after a ":" separator, trimmed.
func findField(nodes []InterpretationNode, label string) (string, bool) {
	for _, n := range nodes {
		if v, ok := splitLabel(n.Content, label); ok {
			return v, true
		}
		if v, ok := findField(n.Children, label); ok {
			return v, true
		}
	}
	return "", false
}
