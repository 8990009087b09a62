// SPDX-License-Identifier: GPL-3.0-or-later

package trace

// ApduKind discriminates the two halves of an ISO-7816 exchange (§3).
type ApduKind int

const (
	ApduCommand ApduKind = iota
	ApduResponse
)

// Apdu is a parsed 7816 command or response, expressed as a tagged variant
// (a Kind discriminator plus the fields relevant to that kind) rather than
// a class hierarchy, so a switch over Kind is exhaustiveness-checkable.
type Apdu struct {
	Kind ApduKind

	// Command fields (Kind == ApduCommand).
	CLA, INS, P1, P2 byte
	Lc               int
	Data             []byte
	Le               int
	LePresent        bool

	// Response fields (Kind == ApduResponse).
	SW1, SW2 byte
}

// SW returns the two-byte status word of a response APDU as a single
// integer (e.g. 0x9000).
func (a Apdu) SW() uint16 {
	return uint16(a.SW1)<<8 | uint16(a.SW2)
}

// Success reports whether a response's status word indicates success:
// 90 00 or 91 xx (§4.3).
func (a Apdu) Success() bool {
	return a.Kind == ApduResponse && (a.SW() == 0x9000 || a.SW1 == 0x91)
}

// Instruction bytes of the commands this package deals with (§4.2), per
// ETSI TS 102 221 / 3GPP TS 31.111. The type-string recognisers below do
// not consult them.
const (
	insEnvelope         byte = 0xC2
	insFetch            byte = 0x12
	insTerminalResponse byte = 0x14
	insSelect           byte = 0xA4
	insReadBinary       byte = 0xB0
)

// Proactive command-type bytes carried in the command-details TLV (tag
// 0x81) of a FETCH response, per 3GPP TS 102.223 §8.6.
const (
	cmdRefresh          byte = 0x01
	cmdSetUpEventList   byte = 0x05
	cmdSetUpCall        byte = 0x10
	cmdOpenChannel      byte = 0x40
	cmdCloseChannel     byte = 0x41
	cmdReceiveData      byte = 0x42
	cmdSendData         byte = 0x43
	cmdGetChannelStatus byte = 0x44
)

// Proactive-command recognisers (§4.2). Each one matches the trace
// producer's `type` string only (case-insensitive substring); none reads
// the command-details TLV, so a row whose `type` does not name the command
// is not recognised. [commandDetailsType] reads the command-type byte from
// that TLV, but no recogniser calls it.

func isFetchType(typ string) bool {
	return containsFold(typ, "fetch")
}

func isTerminalResponseType(typ string) bool {
	return containsFold(typ, "terminalresponse") || containsFold(typ, "terminal response")
}

func isEnvelopeType(typ string) bool {
	return containsFold(typ, "envelope")
}

func isProactiveCommandType(typ string) bool {
	return isFetchType(typ) || containsFold(typ, "proactivecommand") || containsFold(typ, "proactive command")
}

func isOpenChannelType(typ string) bool {
	return containsFold(typ, "open channel") || containsFold(typ, "openchannel")
}

func isCloseChannelType(typ string) bool {
	return containsFold(typ, "close channel") || containsFold(typ, "closechannel")
}

func isSendDataType(typ string) bool {
	return containsFold(typ, "send data") || containsFold(typ, "senddata")
}

func isReceiveDataType(typ string) bool {
	return containsFold(typ, "receive data") || containsFold(typ, "receivedata")
}

// ParseApdu decodes raw as either a command (CLA INS P1 P2 [Lc data] [Le])
// or a response (… SW1 SW2), per §4.2. The raw bytes alone are ambiguous
// for short buffers, so the caller passes typ (the trace item's `type`
// attribute) to tell commands and responses apart; when typ names neither,
// a length heuristic decides.
func ParseApdu(raw []byte, typ string) (*Apdu, bool) {
	if isResponseType(typ) {
		return parseApduResponse(raw)
	}
	if isCommandType(typ) {
		return parseApduCommand(raw)
	}
	// Fall back to a length heuristic: a command needs at least 4 bytes
	// (CLA INS P1 P2); a bare 2-byte buffer is almost always a status word.
	if len(raw) == 2 {
		return parseApduResponse(raw)
	}
	if len(raw) >= 4 {
		return parseApduCommand(raw)
	}
	return nil, false
}

func isCommandType(typ string) bool {
	return containsFold(typ, "command")
}

func isResponseType(typ string) bool {
	return containsFold(typ, "response")
}

func parseApduCommand(raw []byte) (*Apdu, bool) {
	if len(raw) < 4 {
		return nil, false
	}
	a := &Apdu{Kind: ApduCommand, CLA: raw[0], INS: raw[1], P1: raw[2], P2: raw[3]}
	rest := raw[4:]
	switch {
	case len(rest) == 0:
		// Case 1: no data, no Le.
	case len(rest) == 1:
		a.Le = int(rest[0])
		a.LePresent = true
	default:
		lc := int(rest[0])
		if lc+1 > len(rest) {
			// Truncated Lc/data; take what is there as best-effort data.
			a.Lc = len(rest) - 1
			a.Data = rest[1:]
			return a, true
		}
		a.Lc = lc
		a.Data = rest[1 : 1+lc]
		if len(rest) > 1+lc {
			a.Le = int(rest[1+lc])
			a.LePresent = true
		}
	}
	return a, true
}

func parseApduResponse(raw []byte) (*Apdu, bool) {
	if len(raw) < 2 {
		return nil, false
	}
	n := len(raw)
	return &Apdu{
		Kind: ApduResponse,
		Data: raw[:n-2],
		SW1:  raw[n-2],
		SW2:  raw[n-1],
	}, true
}

// commandDetailsType returns the proactive command-type byte from a
// command-details TLV (tag 0x81) within tlvs, when present. buf is the raw
// byte buffer the TLVs were parsed from. The type-string recognisers above
// do not call it.
func commandDetailsType(tlvs []Tlv, buf []byte) (byte, bool) {
	const tagCommandDetails = 0x81
	node, ok := findTLVByTag(tlvs, tagCommandDetails)
	if !ok {
		return 0, false
	}
	val := node.Value(buf)
	if len(val) < 2 {
		return 0, false
	}
	return val[1], true
}
