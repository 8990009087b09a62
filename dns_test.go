// SPDX-License-Identifier: GPL-3.0-or-later

package trace

import (
	"testing"

	"github.com/miekg/dns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeDNSMessageQuery(t *testing.T) {
	m := new(dns.Msg)
	m.SetQuestion("example.com.", dns.TypeA)
	buf, err := m.Pack()
	require.NoError(t, err)

	out, ok := decodeDNSMessage(buf)
	require.True(t, ok)
	assert.True(t, out.OK)
	require.Len(t, out.Questions, 1)
	assert.Equal(t, "example.com.", out.Questions[0].Name)
	assert.Equal(t, "A", out.Questions[0].Type)
}

func TestDecodeDNSMessageAnswerWithA(t *testing.T) {
	m := new(dns.Msg)
	m.SetQuestion("example.com.", dns.TypeA)
	m.Response = true
	rr, err := dns.NewRR("example.com. 300 IN A 93.184.216.34")
	require.NoError(t, err)
	m.Answer = append(m.Answer, rr)
	buf, err := m.Pack()
	require.NoError(t, err)

	out, ok := decodeDNSMessage(buf)
	require.True(t, ok)
	require.Len(t, out.Answers, 1)
	assert.Equal(t, "A", out.Answers[0].Type)
	assert.Equal(t, "93.184.216.34", out.Answers[0].Rdata)
	assert.Equal(t, uint32(300), out.Answers[0].TTL)
}

func TestDecodeDNSMessageInvalidBuffer(t *testing.T) {
	out, ok := decodeDNSMessage([]byte{0x01, 0x02})
	assert.False(t, ok)
	assert.False(t, out.OK)
	assert.NotEmpty(t, out.Reason)
}

func TestRdataStringCNAME(t *testing.T) {
	rr, err := dns.NewRR("www.example.com. 300 IN CNAME example.com.")
	require.NoError(t, err)
	assert.Equal(t, "example.com.", rdataString(rr))
}
