// SPDX-License-Identifier: GPL-3.0-or-later

package trace

import (
	"encoding/xml"
	"errors"
	"io"
)

// ErrClassifier classifies errors into short categorical strings for
// structured logging and [DecoderFailure] results.
//
// Implementations map errors to descriptive labels (e.g., "truncated",
// "malformed-xml") that facilitate systematic analysis of decode failures
// across a large batch of traces.
type ErrClassifier interface {
	Classify(err error) string
}

// ErrClassifierFunc adapts a function to the [ErrClassifier] interface.
type ErrClassifierFunc func(error) string

var _ ErrClassifier = ErrClassifierFunc(nil)

// Classify implements [ErrClassifier].
func (f ErrClassifierFunc) Classify(err error) string {
	return f(err)
}

// DefaultErrClassifier is a no-op classifier that returns an empty string.
var DefaultErrClassifier = ErrClassifierFunc(func(error) string { return "" })

// DecodeErrClassifier classifies the decode-level errors this package
// itself can produce (truncated buffers, malformed XML, short reads). It
// is the classifier [NewAnalysisConfig] installs by default.
var DecodeErrClassifier = ErrClassifierFunc(classifyDecodeErr)

func classifyDecodeErr(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, io.ErrUnexpectedEOF), errors.Is(err, io.EOF):
		return "truncated"
	case errors.As(err, new(*xml.SyntaxError)):
		return "malformed-xml"
	case errors.Is(err, errShortBuffer):
		return "truncated"
	default:
		return "unclassified"
	}
}
