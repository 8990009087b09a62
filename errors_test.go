// SPDX-License-Identifier: GPL-3.0-or-later

package trace

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecoderFailureErrorMessage(t *testing.T) {
	f := newDecoderFailure("tlv", 4, errShortBuffer, nil)
	assert.Contains(t, f.Error(), "tlv")
	assert.Contains(t, f.Error(), "item 4")
	assert.ErrorIs(t, f, errShortBuffer)
}

func TestDecoderFailureUsesDefaultClassifierWhenNilGiven(t *testing.T) {
	f := newDecoderFailure("apdu", 0, errShortBuffer, nil)
	assert.NotEmpty(t, f.Class)
}

func TestDecoderFailureUsesProvidedClassifier(t *testing.T) {
	classifier := ErrClassifierFunc(func(err error) string { return "custom" })
	f := newDecoderFailure("dns", 1, errors.New("boom"), classifier)
	assert.Equal(t, "custom", f.Class)
}

func TestErrInvalidXMLIsSentinel(t *testing.T) {
	assert.True(t, errors.Is(ErrInvalidXML, ErrInvalidXML))
}
