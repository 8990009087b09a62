// SPDX-License-Identifier: GPL-3.0-or-later

package trace

import (
	"context"
	"encoding/hex"
	"encoding/xml"
	"io"
	"strconv"
	"strings"
)

// IngestFunc is the [Func] wrapper around [Ingest], for composition with
// the rest of the pipeline via [Compose2] and friends. It takes an
// [io.ReadCloser] rather than a bare [io.Reader] so it composes directly
// with [CancelReaderFunc] in [LoadReadCloser].
type IngestFunc struct {
	Config *AnalysisConfig
}

// Call ingests r and closes it once Ingest returns, successfully or not:
// an [IngestFunc] takes ownership of the [io.ReadCloser] it's handed, the
// same way [CancelReaderFunc]'s wrapper owns the reader it wraps.
func (f IngestFunc) Call(ctx context.Context, r io.ReadCloser) (*TraceModel, error) {
	defer r.Close()
	return Ingest(ctx, f.Config, r)
}

// LoadReadCloser builds the composed [Func] pipeline that ingests a trace
// from an [io.ReadCloser] that might block indefinitely (a pipe, a slow
// network mount, an open file on a stalled filesystem): [CancelReaderFunc]
// closes the reader on context cancellation so a blocked Read inside
// [Ingest] unblocks promptly, chained into [IngestFunc] via [Compose2].
// Callers reading from an in-memory buffer that never blocks can call
// [Ingest] directly instead.
func LoadReadCloser(cfg *AnalysisConfig) Func[io.ReadCloser, *TraceModel] {
	return Compose2[io.ReadCloser, io.ReadCloser, *TraceModel](NewCancelReaderFunc(), IngestFunc{Config: cfg})
}

// Ingest reads a Universal-Tracer XML document from r and produces the
// canonical, immutable [*TraceModel] (§4.1).
//
// Ingest fails only when the document itself is malformed or its root
// `<tracedata>` element is missing, returning [ErrInvalidXML]. A single
// unparseable `<traceitem>` never aborts ingestion: it is recorded as an
// item with empty interpretation, and a Warning [ValidationIssue] is
// appended to the returned model's MalformedItems so the validator can
// surface it without re-scanning the source.
//
// Memory use is proportional to one item at a time until the final item
// slice is built: decoding streams token-by-token via [xml.Decoder] rather
// than loading a DOM. ctx is checked between items; on cancellation,
// Ingest returns ctx.Err() and discards the partial result.
func Ingest(ctx context.Context, cfg *AnalysisConfig, r io.Reader) (*TraceModel, error) {
	if cfg == nil {
		cfg = NewAnalysisConfig()
	}
	dec := xml.NewDecoder(r)

	root, err := findRootElement(dec)
	if err != nil {
		cfg.Logger.Info("ingest: invalid document", "error", err)
		return nil, ErrInvalidXML
	}
	if root != "tracedata" {
		cfg.Logger.Info("ingest: unexpected root element", "root", root)
		return nil, ErrInvalidXML
	}

	var items []TraceItem
	var malformed []ValidationIssue
	index := 0

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			cfg.Logger.Info("ingest: invalid document", "error", err)
			return nil, ErrInvalidXML
		}
		start, ok := tok.(xml.StartElement)
		if !ok || start.Name.Local != "traceitem" {
			continue
		}
		item, warn, err := decodeTraceItem(dec, start, index, cfg)
		if err != nil {
			cfg.Logger.Info("ingest: invalid document", "error", err)
			return nil, ErrInvalidXML
		}
		items = append(items, item)
		if warn != nil {
			malformed = append(malformed, *warn)
		}
		cfg.Logger.Debug("ingest: item decoded", "index", index, "protocol", item.Protocol, "type", item.Type)
		index++
	}

	model := newTraceModel(items)
	model.MalformedItems = malformed
	model.Iccid = decodeIccidFromItems(items)
	cfg.Logger.Info("ingest: complete", "items", len(items))
	return model, nil
}

// findRootElement advances dec to the document's first start element and
// returns its local name, or an error if the document has no elements at
// all (an empty or non-XML file).
func findRootElement(dec *xml.Decoder) (string, error) {
	for {
		tok, err := dec.Token()
		if err != nil {
			return "", err
		}
		if start, ok := tok.(xml.StartElement); ok {
			return start.Name.Local, nil
		}
	}
}

// traceItemAttrKeys are the timestamp-part attribute names [composeTimestamp]
// looks for, gathered here so decodeTraceItem can build the map it expects.
var traceItemAttrKeys = []string{"date", "day", "month", "year", "hour", "minute", "second", "millisecond", "nanosecond"}

// decodeTraceItem consumes one <traceitem>...</traceitem> subtree (start
// already read) and returns the parsed item plus, when its rawhex is
// malformed, a Warning issue describing it; such an item is returned with
// an empty interpretation. Timestamp parts that do not compose leave
// Timestamp nil and raise no issue. Neither case returns a non-nil error;
// only a genuinely broken XML structure
// (mismatched tags, decoder desync) does, and that propagates as
// [ErrInvalidXML] from the caller.
func decodeTraceItem(dec *xml.Decoder, start xml.StartElement, index int, cfg *AnalysisConfig) (TraceItem, *ValidationIssue, error) {
	item := TraceItem{Index: index}
	attrs := make(map[string]string, len(traceItemAttrKeys))

	for _, a := range start.Attr {
		switch a.Name.Local {
		case "protocol":
			item.Protocol = a.Value
		case "type":
			item.Type = a.Value
		default:
			attrs[a.Name.Local] = a.Value
		}
	}
	if t, ok := composeTimestamp(attrs); ok {
		item.Timestamp = &t
	}

	var malformed bool
	depth := 0
	for {
		tok, err := dec.Token()
		if err != nil {
			return item, nil, err
		}
		switch el := tok.(type) {
		case xml.StartElement:
			switch el.Name.Local {
			case "data":
				raw, ok := decodeRawHex(attrValue(el, "rawhex"))
				item.RawHex = raw
				if !ok {
					malformed = true
				}
				if err := skipElement(dec); err != nil {
					return item, nil, err
				}
			case "interpretation":
				nodes, err := decodeInterpretation(dec)
				if err != nil {
					return item, nil, err
				}
				item.Interpretation = nodes
			default:
				depth++
			}
		case xml.EndElement:
			if el.Name.Local == start.Name.Local && depth == 0 {
				if malformed {
					item.Interpretation = nil
				}
				item.Summary = firstInterpretationContent(item.Interpretation)
				item.Apdu, item.Tlvs = decodeApduAndTLVs(item)
				var warn *ValidationIssue
				if malformed {
					idx := index
					warn = &ValidationIssue{
						Severity:  SeverityWarning,
						Category:  "MalformedItem",
						Message:   "item " + strconv.Itoa(idx) + " carries malformed raw hex data",
						ItemIndex: &idx,
						Timestamp: item.Timestamp,
					}
				}
				return item, warn, nil
			}
			if depth > 0 {
				depth--
			}
		}
	}
}

func decodeApduAndTLVs(item TraceItem) (*Apdu, []Tlv) {
	if len(item.RawHex) == 0 {
		return nil, nil
	}
	tlvs := ParseTLVs(item.RawHex)
	apdu, _ := ParseApdu(item.RawHex, item.Type)
	return apdu, tlvs
}

// decodeInterpretation parses a full <interpretation>...</interpretation>
// subtree (start already consumed) into a preserved-order node tree.
func decodeInterpretation(dec *xml.Decoder) ([]InterpretationNode, error) {
	var nodes []InterpretationNode
	for {
		tok, err := dec.Token()
		if err != nil {
			return nodes, err
		}
		switch el := tok.(type) {
		case xml.StartElement:
			if el.Name.Local != "interpretedresult" {
				if err := skipElement(dec); err != nil {
					return nodes, err
				}
				continue
			}
			node := InterpretationNode{Content: attrValue(el, "content")}
			children, err := decodeInterpretationChildren(dec)
			if err != nil {
				return nodes, err
			}
			node.Children = children
			nodes = append(nodes, node)
		case xml.EndElement:
			if el.Name.Local == "interpretation" {
				return nodes, nil
			}
		}
	}
}

// decodeInterpretationChildren parses the children of one
// <interpretedresult> that is itself a parent (nested interpretedresult
// elements), stopping at its matching end tag.
func decodeInterpretationChildren(dec *xml.Decoder) ([]InterpretationNode, error) {
	var nodes []InterpretationNode
	for {
		tok, err := dec.Token()
		if err != nil {
			return nodes, err
		}
		switch el := tok.(type) {
		case xml.StartElement:
			if el.Name.Local != "interpretedresult" {
				if err := skipElement(dec); err != nil {
					return nodes, err
				}
				continue
			}
			node := InterpretationNode{Content: attrValue(el, "content")}
			children, err := decodeInterpretationChildren(dec)
			if err != nil {
				return nodes, err
			}
			node.Children = children
			nodes = append(nodes, node)
		case xml.EndElement:
			if el.Name.Local == "interpretedresult" {
				return nodes, nil
			}
		}
	}
}

// skipElement consumes tokens up to and including the matching end tag of
// the element whose start tag was just read.
func skipElement(dec *xml.Decoder) error {
	depth := 0
	for {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		switch tok.(type) {
		case xml.StartElement:
			depth++
		case xml.EndElement:
			if depth == 0 {
				return nil
			}
			depth--
		}
	}
}

func attrValue(el xml.StartElement, name string) string {
	for _, a := range el.Attr {
		if a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}

// decodeRawHex parses a rawhex attribute, which is whitespace-insensitive
// and hex-only (§6). An empty string decodes to an empty, valid buffer.
func decodeRawHex(s string) ([]byte, bool) {
	s = strings.Join(strings.Fields(s), "")
	if s == "" {
		return nil, true
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, false
	}
	return b, true
}
