// SPDX-License-Identifier: GPL-3.0-or-later

package trace

import (
	"errors"
	"fmt"
)

// ErrInvalidXML is returned by [Ingest] when the document is not
// well-formed or its root `<tracedata>` element is missing. It is the one
// fatal error in this package: nothing downstream runs when ingestion
// fails this way.
var ErrInvalidXML = errors.New("trace: invalid or missing <tracedata> document")

// errShortBuffer is the decode-level sentinel for a buffer that ran out of
// bytes mid-structure, which [DecodeErrClassifier] classifies as
// "truncated". No decoder in this package returns it; the decoders report
// a short buffer through their own return values.
var errShortBuffer = errors.New("trace: short buffer")

// DecoderFailure records that a parser (APDU, TLV, TLS, DNS, X.509) could
// not proceed on a particular buffer. It never aborts the pipeline: the
// buffer it describes is reported as "unable to decode" and analysis
// continues with the next item or record. No decoder in this package
// builds one: the APDU, TLV, TLS, DNS and X.509 decoders report failure
// through their own return values.
type DecoderFailure struct {
	// Stage names the decoder that failed ("apdu", "tlv", "tls-record",
	// "tls-handshake", "x509", "dns").
	Stage string

	// ItemIndex is the trace item the buffer came from, when known.
	ItemIndex int

	// Err is the underlying error.
	Err error

	// Class is the output of an [ErrClassifier] applied to Err.
	Class string
}

func (f *DecoderFailure) Error() string {
	return fmt.Sprintf("trace: %s: unable to decode (item %d): %v", f.Stage, f.ItemIndex, f.Err)
}

func (f *DecoderFailure) Unwrap() error {
	return f.Err
}

func newDecoderFailure(stage string, itemIndex int, err error, classifier ErrClassifier) *DecoderFailure {
	if classifier == nil {
		classifier = DefaultErrClassifier
	}
	return &DecoderFailure{
		Stage:     stage,
		ItemIndex: itemIndex,
		Err:       err,
		Class:     classifier.Classify(err),
	}
}
