// SPDX-License-Identifier: GPL-3.0-or-later

package trace

import "time"

// PairStatus is the outcome of matching a proactive command to its
// terminal response (§3, §4.3).
type PairStatus string

const (
	PairSuccess PairStatus = "Success"
	PairError   PairStatus = "Error"
	PairPending PairStatus = "Pending"
)

// Pair links a proactive command item to its terminal response, per §4.3.
type Pair struct {
	FetchIndex    int
	ResponseIndex int
	HasResponse   bool
	DurationMs    float64
	HasDuration   bool
	Status        PairStatus
}

// pairingContext is the key pairs are matched on: channel id when both
// sides carry one, otherwise protocol (§4.3's matching rules).
type pairingContext struct {
	protocol string
	channel  int
	hasChan  bool
}

func contextFor(it TraceItem) pairingContext {
	ctx := pairingContext{protocol: it.Protocol}
	if ch, ok := itemChannelID(it); ok {
		ctx.channel = ch
		ctx.hasChan = true
	}
	return ctx
}

func sameContext(a, b pairingContext) bool {
	if a.hasChan && b.hasChan {
		return a.channel == b.channel
	}
	return a.protocol == b.protocol
}

// reconstructPairs matches every proactive-command item to the first
// subsequent terminal-response item sharing its context, with no
// intervening unanswered command on that same context (§4.3). It returns
// the pair list in command order, plus the by_fetch/by_response lookup
// indices used for Alt+↑/↓ navigation between paired rows.
func reconstructPairs(model *TraceModel) (pairs []Pair, byFetch, byResponse map[int]int) {
	byFetch = make(map[int]int)
	byResponse = make(map[int]int)

	type pending struct {
		fetchIndex int
		ctx        pairingContext
	}
	var open []pending

	for _, it := range model.Items {
		if isTerminalResponseType(it.Type) {
			ctx := contextFor(it)
			for i, p := range open {
				if !sameContext(p.ctx, ctx) {
					continue
				}
				pair := Pair{FetchIndex: p.fetchIndex, ResponseIndex: it.Index, HasResponse: true}
				fillPairOutcome(&pair, model)
				pairs = append(pairs, pair)
				byFetch[p.fetchIndex] = it.Index
				byResponse[it.Index] = p.fetchIndex
				open = append(open[:i], open[i+1:]...)
				break
			}
			continue
		}
		if isProactiveCommandType(it.Type) {
			open = append(open, pending{fetchIndex: it.Index, ctx: contextFor(it)})
		}
	}

	for _, p := range open {
		pairs = append(pairs, Pair{FetchIndex: p.fetchIndex, Status: PairPending})
	}

	sortPairsByFetchIndex(pairs)
	return pairs, byFetch, byResponse
}

func fillPairOutcome(p *Pair, model *TraceModel) {
	fetch, _ := model.Item(p.FetchIndex)
	resp, _ := model.Item(p.ResponseIndex)

	p.Status = PairError
	if resp.Apdu != nil && resp.Apdu.Kind == ApduResponse && resp.Apdu.Success() {
		p.Status = PairSuccess
	}

	if fetch.Timestamp != nil && resp.Timestamp != nil {
		d := resp.Timestamp.Sub(*fetch.Timestamp)
		p.DurationMs = float64(d) / float64(time.Millisecond)
		p.HasDuration = true
	}
}

func sortPairsByFetchIndex(pairs []Pair) {
	for i := 1; i < len(pairs); i++ {
		for j := i; j > 0 && pairs[j].FetchIndex < pairs[j-1].FetchIndex; j-- {
			pairs[j], pairs[j-1] = pairs[j-1], pairs[j]
		}
	}
}
