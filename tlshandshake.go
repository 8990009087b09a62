// SPDX-License-Identifier: GPL-3.0-or-later

package trace

// TlsHandshake is one handshake message within a TLS_CONTENT_HANDSHAKE
// record (§3): ClientHello=1, ServerHello=2, Certificate=11,
// ServerKeyExchange=12, ServerHelloDone=14, ClientKeyExchange=16,
// Finished=20.
type TlsHandshake struct {
	MsgType byte
	Length  int
	Body    []byte
}

const (
	handshakeClientHello       byte = 1
	handshakeServerHello       byte = 2
	handshakeCertificate       byte = 11
	handshakeServerKeyExchange byte = 12
	handshakeServerHelloDone   byte = 14
	handshakeClientKeyExchange byte = 16
	handshakeFinished          byte = 20
)

// parseHandshakeMessages splits a handshake record body into its
// individual {msg_type, length, body} messages. A record may carry more
// than one handshake message back to back (e.g. ServerHello + Certificate
// coalesced into one TLS record by the sender).
func parseHandshakeMessages(buf []byte) []TlsHandshake {
	var out []TlsHandshake
	off := 0
	for off+4 <= len(buf) {
		msgType := buf[off]
		length := int(buf[off+1])<<16 | int(buf[off+2])<<8 | int(buf[off+3])
		bodyStart := off + 4
		if bodyStart+length > len(buf) {
			out = append(out, TlsHandshake{MsgType: msgType, Length: length, Body: buf[bodyStart:]})
			break
		}
		out = append(out, TlsHandshake{MsgType: msgType, Length: length, Body: buf[bodyStart : bodyStart+length]})
		off = bodyStart + length
	}
	return out
}

// ClientHello is the decoded handshake body of a ClientHello message (§3).
type ClientHello struct {
	Version      uint16
	SNI          string
	HasSNI       bool
	CipherSuites []uint16
}

// ServerHello is the decoded handshake body of a ServerHello message (§3).
type ServerHello struct {
	Version     uint16
	CipherSuite uint16
}

// parseClientHello decodes a ClientHello handshake body, extracting the
// server_name extension when present (§4.8's SNI extraction path).
func parseClientHello(body []byte) (ClientHello, bool) {
	var ch ClientHello
	if len(body) < 2 {
		return ch, false
	}
	ch.Version = uint16(body[0])<<8 | uint16(body[1])
	off := 2 + 32 // version + random
	if off >= len(body) {
		return ch, false
	}
	sessionIDLen := int(body[off])
	off += 1 + sessionIDLen
	if off+2 > len(body) {
		return ch, true
	}
	cipherLen := int(body[off])<<8 | int(body[off+1])
	off += 2
	if off+cipherLen > len(body) {
		return ch, true
	}
	for i := 0; i+1 < cipherLen; i += 2 {
		ch.CipherSuites = append(ch.CipherSuites, uint16(body[off+i])<<8|uint16(body[off+i+1]))
	}
	off += cipherLen
	if off >= len(body) {
		return ch, true
	}
	compLen := int(body[off])
	off += 1 + compLen
	if off+2 > len(body) {
		return ch, true
	}
	extTotal := int(body[off])<<8 | int(body[off+1])
	off += 2
	end := off + extTotal
	if end > len(body) {
		end = len(body)
	}
	for off+4 <= end {
		extType := uint16(body[off])<<8 | uint16(body[off+1])
		extLen := int(body[off+2])<<8 | int(body[off+3])
		extStart := off + 4
		if extStart+extLen > end {
			break
		}
		if extType == 0 { // server_name
			if sni, ok := parseServerNameExtension(body[extStart : extStart+extLen]); ok {
				ch.SNI = sni
				ch.HasSNI = true
			}
		}
		off = extStart + extLen
	}
	return ch, true
}

// parseServerNameExtension decodes a server_name extension body down to
// its first host_name (type 0) entry.
func parseServerNameExtension(data []byte) (string, bool) {
	if len(data) < 2 {
		return "", false
	}
	listLen := int(data[0])<<8 | int(data[1])
	off := 2
	end := off + listLen
	if end > len(data) {
		end = len(data)
	}
	for off+3 <= end {
		nameType := data[off]
		nameLen := int(data[off+1])<<8 | int(data[off+2])
		nameStart := off + 3
		if nameStart+nameLen > end {
			break
		}
		if nameType == 0 {
			return string(data[nameStart : nameStart+nameLen]), true
		}
		off = nameStart + nameLen
	}
	return "", false
}

// parseServerHello decodes a ServerHello handshake body far enough to read
// the negotiated version and cipher suite (§4.8's compliance check).
func parseServerHello(body []byte) (ServerHello, bool) {
	var sh ServerHello
	if len(body) < 2+32+1 {
		return sh, false
	}
	sh.Version = uint16(body[0])<<8 | uint16(body[1])
	off := 2 + 32
	sessionIDLen := int(body[off])
	off += 1 + sessionIDLen
	if off+2 > len(body) {
		return sh, false
	}
	sh.CipherSuite = uint16(body[off])<<8 | uint16(body[off+1])
	return sh, true
}

// clientHelloFromPayload scans a single item's reassembled channel-data
// payload (§4.6's `channelDataPayload`, the same bytes TLSFlow parses) for
// a TLS record carrying a ClientHello, per the bounded per-session scan in
// [sessionClientHelloSNI]. A SEND DATA item's RawHex starts with the APDU
// header, not a TLS record, so the ClientHello only surfaces once the
// channel-data TLV has been peeled off.
func clientHelloFromPayload(it TraceItem) (ClientHello, bool) {
	buf, ok := channelDataPayload(it)
	if !ok {
		return ClientHello{}, false
	}
	for _, rec := range parseTLSRecords(buf) {
		if rec.ContentType != tlsContentHandshake {
			continue
		}
		end := rec.BodyOffset + rec.Length
		if end > len(buf) {
			end = len(buf)
		}
		for _, msg := range parseHandshakeMessages(buf[rec.BodyOffset:end]) {
			if msg.MsgType != handshakeClientHello {
				continue
			}
			if ch, ok := parseClientHello(msg.Body); ok {
				return ch, true
			}
		}
	}
	return ClientHello{}, false
}

func sniFromPayload(it TraceItem) (string, bool) {
	ch, ok := clientHelloFromPayload(it)
	if !ok || !ch.HasSNI {
		return "", false
	}
	return ch.SNI, true
}

// serverHelloFromPayload is the ServerHello analogue of
// [clientHelloFromPayload], used by the cipher-suite compliance check. It
// scans the same reassembled channel-data payload, not the item's raw
// APDU bytes.
func serverHelloFromPayload(it TraceItem) (ServerHello, bool) {
	buf, ok := channelDataPayload(it)
	if !ok {
		return ServerHello{}, false
	}
	for _, rec := range parseTLSRecords(buf) {
		if rec.ContentType != tlsContentHandshake {
			continue
		}
		end := rec.BodyOffset + rec.Length
		if end > len(buf) {
			end = len(buf)
		}
		for _, msg := range parseHandshakeMessages(buf[rec.BodyOffset:end]) {
			if msg.MsgType != handshakeServerHello {
				continue
			}
			if sh, ok := parseServerHello(msg.Body); ok {
				return sh, true
			}
		}
	}
	return ServerHello{}, false
}
