// SPDX-License-Identifier: GPL-3.0-or-later

package trace

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecodeIccidBytesEvenDigits(t *testing.T) {
	assert.Equal(t, "12345678", decodeIccidBytes([]byte{0x21, 0x43, 0x65, 0x87}))
}

func TestDecodeIccidBytesOddDigitsStripsPadding(t *testing.T) {
	assert.Equal(t, "1234567", decodeIccidBytes([]byte{0x21, 0x43, 0x65, 0xF7}))
}

func TestSelectsICCID(t *testing.T) {
	assert.True(t, selectsICCID([]byte{0x2F, 0xE2}))
	assert.False(t, selectsICCID([]byte{0x2F, 0xE3}))
	assert.False(t, selectsICCID([]byte{0x2F}))
}

func TestDecodeIccidFromItemsSelectThenReadBinary(t *testing.T) {
	items := []TraceItem{
		{Index: 0, Apdu: &Apdu{Kind: ApduCommand, INS: insSelect, Data: []byte{0x2F, 0xE2}}},
		{Index: 1, Apdu: &Apdu{Kind: ApduResponse, SW1: 0x90, SW2: 0x00}},
		{Index: 2, Apdu: &Apdu{Kind: ApduCommand, INS: insReadBinary}},
		{Index: 3, Apdu: &Apdu{Kind: ApduResponse, SW1: 0x90, SW2: 0x00, Data: []byte{0x21, 0x43, 0x65, 0x87}}},
	}
	iccid := decodeIccidFromItems(items)
	assert.Equal(t, "12345678", iccid)
}

func TestDecodeIccidFromItemsNoSelect(t *testing.T) {
	items := []TraceItem{
		{Index: 0, Apdu: &Apdu{Kind: ApduResponse, SW1: 0x90, SW2: 0x00, Data: []byte{0x21, 0x43}}},
	}
	assert.Equal(t, "", decodeIccidFromItems(items))
}

func TestDecodeIccidModel(t *testing.T) {
	items := []TraceItem{
		{Index: 0, Apdu: &Apdu{Kind: ApduCommand, INS: insSelect, Data: []byte{0x2F, 0xE2}}},
		{Index: 1, Apdu: &Apdu{Kind: ApduResponse, SW1: 0x90, SW2: 0x00, Data: []byte{0x21, 0x43, 0x65, 0x87}}},
	}
	model := newTraceModel(items)
	assert.Equal(t, "12345678", DecodeIccid(model))
}
