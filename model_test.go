// SPDX-License-Identifier: GPL-3.0-or-later

package trace

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTraceModelIndexesByProtocolTypeAndChannel(t *testing.T) {
	items := []TraceItem{
		{Index: 0, Protocol: "BIP", Type: "Open Channel", Interpretation: chInterp("Channel ID", "2")},
		{Index: 1, Protocol: "DNS", Type: "Send Data", Interpretation: chInterp("Channel ID", "2")},
	}
	m := newTraceModel(items)

	assert.Equal(t, []int{0}, m.ByProtocol("BIP"))
	assert.Equal(t, []int{1}, m.ByProtocol("DNS"))
	assert.Equal(t, []int{0}, m.ByType("Open Channel"))
	assert.Equal(t, []int{0, 1}, m.ByChannel(2))
}

func TestTraceModelItemBoundsCheck(t *testing.T) {
	m := newTraceModel([]TraceItem{{Index: 0}})

	it, ok := m.Item(0)
	require.True(t, ok)
	assert.Equal(t, 0, it.Index)

	_, ok = m.Item(5)
	assert.False(t, ok)

	_, ok = m.Item(-1)
	assert.False(t, ok)
}

func TestFirstInterpretationContent(t *testing.T) {
	assert.Equal(t, "", firstInterpretationContent(nil))
	nodes := []InterpretationNode{{Content: "Status: OK"}, {Content: "Other: x"}}
	assert.Equal(t, "Status: OK", firstInterpretationContent(nodes))
}

func TestFindFieldDepthFirst(t *testing.T) {
	nodes := []InterpretationNode{
		{Content: "Header"},
		{
			Content: "Group",
			Children: []InterpretationNode{
				{Content: "Channel ID: 4"},
			},
		},
	}
	v, ok := findField(nodes, "Channel ID")
	require.True(t, ok)
	assert.Equal(t, "4", v)
}

func TestFindFieldNotFound(t *testing.T) {
	_, ok := findField(chInterp("Other", "x"), "Channel ID")
	assert.False(t, ok)
}
