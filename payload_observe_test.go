// SPDX-License-Identifier: GPL-3.0-or-later

package trace

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSLogger struct {
	debugMsgs []string
}

func (l *recordingSLogger) Debug(msg string, args ...any) {
	l.debugMsgs = append(l.debugMsgs, msg)
}

func (l *recordingSLogger) Info(msg string, args ...any) {}

func TestNewObservePayloadFunc(t *testing.T) {
	cfg := NewAnalysisConfig()
	fn := NewObservePayloadFunc(cfg)
	require.NotNil(t, fn)
}

func TestObservePayloadFuncReassembleLogsStartAndDone(t *testing.T) {
	logger := &recordingSLogger{}
	cfg := NewAnalysisConfig()
	cfg.Logger = logger
	cfg.TimeNow = func() time.Time { return time.Unix(0, 0) }

	items := []TraceItem{
		{Index: 0, Type: "Open Channel"},
		{Index: 1, Type: "Send Data", Tlvs: []Tlv{{Tag: []byte{0x36}, Length: 2, ValueOffset: 0}}, RawHex: []byte{0xAA, 0xBB}},
	}
	model := newTraceModel(items)
	session := ChannelSession{ChannelID: 1, Items: []int{1}}

	fn := NewObservePayloadFunc(cfg)
	meToSIM, _ := fn.Reassemble(model, session)

	require.Len(t, logger.debugMsgs, 2)
	assert.Equal(t, "payload: reassembly start", logger.debugMsgs[0])
	assert.Equal(t, "payload: reassembly done", logger.debugMsgs[1])
	assert.Equal(t, []byte{0xAA, 0xBB}, meToSIM.Data)
}
