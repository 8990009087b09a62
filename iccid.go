// SPDX-License-Identifier: GPL-3.0-or-later

package trace

// efICCID is the file id of EF_ICCID, per ETSI TS 102.221 §13.2.
var efICCID = []byte{0x2F, 0xE2}

// DecodeIccid scans model for a SELECT EF_ICCID command followed by the
// nearest READ BINARY response, and decodes the ICCID from that response's
// data (§4.1, §4.11): BCD nibble-swapped, trailing `F` padding removed.
// It returns "" when no such pair is found.
func DecodeIccid(model *TraceModel) string {
	return decodeIccidFromItems(model.Items)
}

func decodeIccidFromItems(items []TraceItem) string {
	selected := false
	for _, it := range items {
		if it.Apdu == nil {
			continue
		}
		if it.Apdu.Kind == ApduCommand && it.Apdu.INS == insSelect && selectsICCID(it.Apdu.Data) {
			selected = true
			continue
		}
		if !selected {
			continue
		}
		if it.Apdu.Kind == ApduResponse && it.Apdu.Success() && len(it.Apdu.Data) > 0 {
			if iccid := decodeIccidBytes(it.Apdu.Data); iccid != "" {
				return iccid
			}
			continue
		}
		// A READ BINARY command between SELECT and its response doesn't
		// reset the search; anything else does.
		if it.Apdu.Kind == ApduCommand && it.Apdu.INS != insReadBinary {
			selected = false
		}
	}
	return ""
}

func selectsICCID(data []byte) bool {
	return len(data) >= 2 && data[0] == efICCID[0] && data[1] == efICCID[1]
}

// decodeIccidBytes swaps each byte's nibbles (BCD storage order) and
// strips trailing `F` padding nibbles, per §4.11.
func decodeIccidBytes(data []byte) string {
	digits := make([]byte, 0, len(data)*2)
	for _, b := range data {
		lo := b & 0x0F
		hi := b >> 4
		digits = append(digits, bcdDigit(lo), bcdDigit(hi))
	}
	for len(digits) > 0 && digits[len(digits)-1] == 'F' {
		digits = digits[:len(digits)-1]
	}
	return string(digits)
}

func bcdDigit(n byte) byte {
	if n <= 9 {
		return '0' + n
	}
	return 'F'
}
