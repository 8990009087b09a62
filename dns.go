// SPDX-License-Identifier: GPL-3.0-or-later

package trace

import "github.com/miekg/dns"

// DNSMessage is the decoded form of a UDP-53 buffer (§3, §4.9). OK is
// false when the buffer did not parse as DNS; Reason then explains why.
// This package never raises on a malformed DNS buffer — it reports a
// negative result and analysis continues with the next record.
type DNSMessage struct {
	OK      bool
	Reason  string
	ID      uint16
	QR      bool
	Opcode  int
	Rcode   int
	QDCount int
	ANCount int
	NSCount int
	ARCount int

	Questions  []DNSQuestion
	Answers    []DNSResourceRecord
	Authority  []DNSResourceRecord
	Additional []DNSResourceRecord
}

// DNSQuestion is one parsed question section entry.
type DNSQuestion struct {
	Name  string
	Type  string
	Class string
}

// DNSResourceRecord is one parsed answer/authority/additional entry, with
// RDATA decoded for the record types §4.9 names (A, AAAA, NS, CNAME, PTR,
// MX, TXT, SRV, SOA); for other types Rdata holds the library's generic
// text form of the whole record.
type DNSResourceRecord struct {
	Name  string
	Type  string
	Class string
	TTL   uint32
	Rdata string
}

// decodeDNSMessage unpacks buf as a DNS message using
// [github.com/miekg/dns]'s wire-format decoder, adapting its panic-free
// error return into the soft-fail {ok, reason} result §4.9 calls for.
// Name compression pointers are handled by the underlying library.
func decodeDNSMessage(buf []byte) (DNSMessage, bool) {
	msg := new(dns.Msg)
	if err := msg.Unpack(buf); err != nil {
		return DNSMessage{OK: false, Reason: err.Error()}, false
	}

	out := DNSMessage{
		OK:      true,
		ID:      msg.Id,
		QR:      msg.Response,
		Opcode:  msg.Opcode,
		Rcode:   msg.Rcode,
		QDCount: len(msg.Question),
		ANCount: len(msg.Answer),
		NSCount: len(msg.Ns),
		ARCount: len(msg.Extra),
	}
	for _, q := range msg.Question {
		out.Questions = append(out.Questions, DNSQuestion{
			Name:  q.Name,
			Type:  dns.TypeToString[q.Qtype],
			Class: dns.ClassToString[q.Qclass],
		})
	}
	out.Answers = convertRRs(msg.Answer)
	out.Authority = convertRRs(msg.Ns)
	out.Additional = convertRRs(msg.Extra)
	return out, true
}

func convertRRs(rrs []dns.RR) []DNSResourceRecord {
	out := make([]DNSResourceRecord, 0, len(rrs))
	for _, rr := range rrs {
		hdr := rr.Header()
		out = append(out, DNSResourceRecord{
			Name:  hdr.Name,
			Type:  dns.TypeToString[hdr.Rrtype],
			Class: dns.ClassToString[hdr.Class],
			TTL:   hdr.Ttl,
			Rdata: rdataString(rr),
		})
	}
	return out
}

// rdataString renders a resource record's answer data as text, for the
// record types §4.9 lists explicitly (A, AAAA, NS, CNAME, PTR, MX, TXT,
// SRV, SOA); any other type falls back to the library's generic string
// form, which still includes the RDATA after the header fields.
func rdataString(rr dns.RR) string {
	switch r := rr.(type) {
	case *dns.A:
		return r.A.String()
	case *dns.AAAA:
		return r.AAAA.String()
	case *dns.NS:
		return r.Ns
	case *dns.CNAME:
		return r.Target
	case *dns.PTR:
		return r.Ptr
	case *dns.MX:
		return r.Mx
	case *dns.TXT:
		out := ""
		for i, s := range r.Txt {
			if i > 0 {
				out += " "
			}
			out += s
		}
		return out
	case *dns.SRV:
		return r.Target
	case *dns.SOA:
		return r.Ns + " " + r.Mbox
	default:
		return rr.String()
	}
}
