// SPDX-License-Identifier: GPL-3.0-or-later

package trace

import "time"

// NewObservePayloadFunc returns a new [*ObservePayloadFunc] configured from
// cfg.
func NewObservePayloadFunc(cfg *AnalysisConfig) *ObservePayloadFunc {
	return &ObservePayloadFunc{
		ErrClassifier: cfg.ErrClassifier,
		Logger:        cfg.Logger,
		TimeNow:       cfg.TimeNow,
	}
}

// ObservePayloadFunc wraps [reassemblePayloads] to log reassembly events
// for a session's two [PayloadStream]s, the way [Pipeline.TLSFlow]'s
// callers can watch how much data each direction accumulated without
// re-deriving it from the session's item list.
//
// This mirrors the read/write logging idiom net.Conn observers use, with
// the payload-reassembly pass standing in for a live connection's I/O: a
// "start" log before concatenation, a "done" log per direction with the
// resulting byte count and item count.
type ObservePayloadFunc struct {
	// ErrClassifier classifies errors for structured logging.
	// [ObservePayloadFunc.Reassemble] does not consult it, since
	// reassembly cannot fail.
	ErrClassifier ErrClassifier

	// Logger is the [SLogger] to use.
	Logger SLogger

	// TimeNow is the function to get the current time.
	TimeNow func() time.Time
}

// Reassemble reassembles session's ME→SIM and SIM→ME payload streams
// against model, logging a start/done pair.
func (op *ObservePayloadFunc) Reassemble(model *TraceModel, session ChannelSession) (meToSIM, simToME PayloadStream) {
	t0 := op.TimeNow()
	op.Logger.Debug("payload: reassembly start",
		"channel", session.ChannelID, "items", len(session.Items), "t", t0)

	meToSIM, simToME = reassemblePayloads(model, session)

	op.Logger.Debug("payload: reassembly done",
		"channel", session.ChannelID,
		"meToSimBytes", len(meToSIM.Data), "simToMeBytes", len(simToME.Data),
		"t0", t0, "t", op.TimeNow())
	return meToSIM, simToME
}
