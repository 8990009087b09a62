// SPDX-License-Identifier: GPL-3.0-or-later

package trace

import (
	"context"
	"io"
	"strconv"
)

// Analysis is the full set of derived results [*Pipeline.Analyze] produces
// from one trace, bundled together because the flow timeline and scenario
// engine both need pairing and sessions already computed.
type Analysis struct {
	Model    *TraceModel
	Pairs    []Pair
	ByFetch  map[int]int
	ByResp   map[int]int
	Sessions []ChannelSession
	Issues   []ValidationIssue
	Flow     []FlowRow
}

// Pipeline wires the independent analysis stages of §2 behind one
// [*AnalysisConfig]. Every method is safe to call concurrently for
// different traces; a Pipeline holds no per-trace state.
type Pipeline struct {
	Config *AnalysisConfig
}

// NewPipeline builds a [*Pipeline] from cfg, defaulting to
// [NewAnalysisConfig] when cfg is nil.
func NewPipeline(cfg *AnalysisConfig) *Pipeline {
	if cfg == nil {
		cfg = NewAnalysisConfig()
	}
	return &Pipeline{Config: cfg}
}

// Load ingests r into a [*TraceModel] (§6's `load`).
func (p *Pipeline) Load(ctx context.Context, r io.Reader) (*TraceModel, error) {
	return Ingest(ctx, p.Config, r)
}

// IngestAsync runs [Pipeline.Load] on a worker goroutine, per §5's
// "ingestion may be offloaded" rule, returning a channel that receives
// exactly one result. Cancelling ctx stops the worker between items; the
// channel still receives the (discarded) error so callers never block
// forever on a cancelled load.
func (p *Pipeline) IngestAsync(ctx context.Context, r io.Reader) <-chan IngestResult {
	out := make(chan IngestResult, 1)
	go func() {
		model, err := p.Load(ctx, r)
		out <- IngestResult{Model: model, Err: err}
	}()
	return out
}

// IngestResult is the value delivered on [*Pipeline.IngestAsync]'s channel.
type IngestResult struct {
	Model *TraceModel
	Err   error
}

// Pairs runs the pairing engine (§6's `pairs`).
func (p *Pipeline) Pairs(model *TraceModel) (pairs []Pair, byFetch, byResponse map[int]int) {
	return reconstructPairs(model)
}

// Sessions runs channel-session reconstruction with roles resolved (§6's
// `sessions`). The ResourceLeak/OrphanData/CloseWithoutOpen/UnclosedChannel
// issues the reconstructor itself raises are discarded here; call
// [*Pipeline.Validate] for the full issue list.
func (p *Pipeline) Sessions(model *TraceModel) []ChannelSession {
	sessions, _ := reconstructSessions(p.Config, model)
	return sessions
}

// Validate runs the full validation engine (§6's `validate`), given the
// pairing and session results a caller has already computed (or will
// discard, if they only want issues).
func (p *Pipeline) Validate(model *TraceModel, pairs []Pair, sessions []ChannelSession) []ValidationIssue {
	return Validate(p.Config, model, pairs, sessions)
}

// Flow builds the merged chronological timeline (§6's `flow`).
func (p *Pipeline) Flow(model *TraceModel, sessions []ChannelSession, filter FlowFilter) []FlowRow {
	return BuildFlow(model, sessions, filter)
}

// RunScenario evaluates scenario against model's flow timeline (§6's
// `run_scenario`), computing pairs/sessions/issues/flow itself so callers
// don't have to re-derive them.
func (p *Pipeline) RunScenario(model *TraceModel, scenario Scenario) ScenarioResult {
	a := p.Analyze(model)
	return RunScenario(p.Config, scenario, timelineFromFlow(a.Flow), a.Issues)
}

// analysisState threads through [*Pipeline.Analyze]'s composed pipeline.
// Each stage is a plain [Func][analysisState, analysisState] that reads
// what it needs from the accumulated state and returns it enriched with
// its own result; this lets [Compose4] chain stages whose real inputs
// differ (pairing only needs the model, validate needs the model plus
// pairs plus sessions, flow needs the model plus sessions) without each
// stage's signature being constrained to the single value a bare
// [Func[A,B]] chain would otherwise force through every step.
type analysisState struct {
	Model    *TraceModel
	Pairs    []Pair
	ByFetch  map[int]int
	ByResp   map[int]int
	Sessions []ChannelSession
	Issues   []ValidationIssue
	Flow     []FlowRow
}

// Analyze runs every derived stage over model once and returns the bundle.
// This is the composed entrypoint of §2's Pipeline Composer: pairing,
// sessions, validate and flow are wired together via [Compose4] rather
// than hand-called in sequence, even though none of them can actually
// fail (their [Func.Call] error return is always nil here).
func (p *Pipeline) Analyze(model *TraceModel) Analysis {
	pairStage := FuncAdapter[analysisState, analysisState](func(_ context.Context, st analysisState) (analysisState, error) {
		st.Pairs, st.ByFetch, st.ByResp = p.Pairs(st.Model)
		return st, nil
	})
	sessionStage := FuncAdapter[analysisState, analysisState](func(_ context.Context, st analysisState) (analysisState, error) {
		st.Sessions = p.Sessions(st.Model)
		return st, nil
	})
	validateStage := FuncAdapter[analysisState, analysisState](func(_ context.Context, st analysisState) (analysisState, error) {
		st.Issues = p.Validate(st.Model, st.Pairs, st.Sessions)
		return st, nil
	})
	flowStage := FuncAdapter[analysisState, analysisState](func(_ context.Context, st analysisState) (analysisState, error) {
		st.Flow = p.Flow(st.Model, st.Sessions, FlowAll)
		return st, nil
	})

	composed := Compose4(pairStage, sessionStage, validateStage, flowStage)
	result, _ := composed.Call(context.Background(), analysisState{Model: model})

	return Analysis{
		Model:    result.Model,
		Pairs:    result.Pairs,
		ByFetch:  result.ByFetch,
		ByResp:   result.ByResp,
		Sessions: result.Sessions,
		Issues:   result.Issues,
		Flow:     result.Flow,
	}
}

func timelineFromFlow(rows []FlowRow) []TimelineRow {
	out := make([]TimelineRow, len(rows))
	for i, r := range rows {
		out[i] = r.TimelineRow
	}
	return out
}

// TLSFlow reconstructs the TLS handshake message sequence observed within
// session's payload streams (§6's `tls_flow`), across both directions in
// trace item order.
func (p *Pipeline) TLSFlow(model *TraceModel, session ChannelSession) []TlsMessage {
	meToSIM, simToME := NewObservePayloadFunc(p.Config).Reassemble(model, session)
	var out []TlsMessage
	out = append(out, tlsMessagesFromStream(meToSIM, DirectionMEToSIM)...)
	out = append(out, tlsMessagesFromStream(simToME, DirectionSIMToME)...)
	return out
}

// TlsMessage is one entry of a [*Pipeline.TLSFlow] result: either a
// handshake message (ClientHello, ServerHello, Certificate, ...) or a
// bare record-layer event (ChangeCipherSpec, Alert, opaque
// ApplicationData after CCS), per §4.8.
type TlsMessage struct {
	Direction PayloadDirection
	Label     string
	Detail    string
}

func tlsMessagesFromStream(stream PayloadStream, dir PayloadDirection) []TlsMessage {
	var out []TlsMessage
	ccsSeen := false
	for _, rec := range parseTLSRecords(stream.Data) {
		end := rec.BodyOffset + rec.Length
		if end > len(stream.Data) {
			end = len(stream.Data)
		}
		body := stream.Data[rec.BodyOffset:end]
		switch rec.ContentType {
		case tlsContentChangeCipherSpec:
			out = append(out, TlsMessage{Direction: dir, Label: "ChangeCipherSpec"})
			ccsSeen = true
		case tlsContentAlert:
			out = append(out, TlsMessage{Direction: dir, Label: "Alert"})
		case tlsContentApplicationData:
			if ccsSeen {
				out = append(out, TlsMessage{Direction: dir, Label: "ApplicationData", Detail: strconv.Itoa(len(body)) + " bytes"})
			}
		case tlsContentHandshake:
			if ccsSeen {
				out = append(out, TlsMessage{Direction: dir, Label: "Encrypted Finished"})
				continue
			}
			out = append(out, handshakeMessagesToTLSMessages(body, dir)...)
		}
	}
	return out
}

func handshakeMessagesToTLSMessages(body []byte, dir PayloadDirection) []TlsMessage {
	var out []TlsMessage
	for _, msg := range parseHandshakeMessages(body) {
		out = append(out, TlsMessage{Direction: dir, Label: handshakeLabel(msg.MsgType), Detail: handshakeDetail(msg)})
	}
	return out
}

func handshakeLabel(msgType byte) string {
	switch msgType {
	case handshakeClientHello:
		return "ClientHello"
	case handshakeServerHello:
		return "ServerHello"
	case handshakeCertificate:
		return "Certificate"
	case handshakeServerKeyExchange:
		return "ServerKeyExchange"
	case handshakeServerHelloDone:
		return "ServerHelloDone"
	case handshakeClientKeyExchange:
		return "ClientKeyExchange"
	case handshakeFinished:
		return "Finished"
	default:
		return "Unknown"
	}
}

func handshakeDetail(msg TlsHandshake) string {
	switch msg.MsgType {
	case handshakeClientHello:
		if ch, ok := parseClientHello(msg.Body); ok {
			detail := tlsVersionName(ch.Version)
			if ch.HasSNI {
				detail += " sni=" + ch.SNI
			}
			return detail
		}
	case handshakeServerHello:
		if sh, ok := parseServerHello(msg.Body); ok {
			return tlsVersionName(sh.Version)
		}
	case handshakeCertificate:
		if certs, ok := parseCertificateMessage(msg.Body); ok && len(certs) > 0 {
			return certs[0].SubjectCN
		}
	}
	return ""
}
