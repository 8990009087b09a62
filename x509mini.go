// SPDX-License-Identifier: GPL-3.0-or-later

package trace

import (
	"crypto/x509"
	"time"
)

// Certificate is the minimal decode of one X.509 certificate within a TLS
// Certificate handshake message (§3, §4.8): subject/issuer common name,
// validity window, and key type. Chains are not cryptographically
// verified — this package never checks signatures, per the Non-goals.
type Certificate struct {
	SubjectCN string
	IssuerCN  string
	NotBefore time.Time
	NotAfter  time.Time
	KeyType   string
}

// parseCertificateMessage decodes a Certificate handshake body
// (`cert_list_length(3)` then repeated `cert_length(3) | cert_bytes`,
// §4.8) into an ordered chain. Each certificate's DER bytes are parsed
// with [crypto/x509.ParseCertificate] for the fields §4.8 asks for; this
// package does not re-implement ASN.1/DER itself, since the standard
// library's X.509 parser already does the minimal walk needed here
// without verifying anything.
func parseCertificateMessage(body []byte) ([]Certificate, bool) {
	if len(body) < 3 {
		return nil, false
	}
	listLen := int(body[0])<<16 | int(body[1])<<8 | int(body[2])
	off := 3
	end := off + listLen
	if end > len(body) {
		end = len(body)
	}
	var out []Certificate
	for off+3 <= end {
		certLen := int(body[off])<<16 | int(body[off+1])<<8 | int(body[off+2])
		certStart := off + 3
		if certStart+certLen > end {
			break
		}
		der := body[certStart : certStart+certLen]
		if cert, ok := decodeCertificateDER(der); ok {
			out = append(out, cert)
		}
		off = certStart + certLen
	}
	return out, len(out) > 0
}

func decodeCertificateDER(der []byte) (Certificate, bool) {
	cert, err := x509.ParseCertificate(der)
	if err != nil {
		return Certificate{}, false
	}
	return Certificate{
		SubjectCN: cert.Subject.CommonName,
		IssuerCN:  cert.Issuer.CommonName,
		NotBefore: cert.NotBefore,
		NotAfter:  cert.NotAfter,
		KeyType:   keyTypeName(cert),
	}, true
}

func keyTypeName(cert *x509.Certificate) string {
	switch cert.PublicKeyAlgorithm {
	case x509.RSA:
		return "RSA"
	case x509.ECDSA:
		return "EC"
	case x509.Ed25519:
		return "Ed25519"
	case x509.DSA:
		return "DSA"
	default:
		return "Unknown"
	}
}
