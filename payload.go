// SPDX-License-Identifier: GPL-3.0-or-later

package trace

// PayloadDirection is which side of a BIP channel a [PayloadStream] carries
// (§3).
type PayloadDirection string

const (
	DirectionMEToSIM PayloadDirection = "ME->SIM"
	DirectionSIMToME PayloadDirection = "SIM->ME"
)

// payloadOffset maps a byte offset in a [PayloadStream]'s buffer back to
// the trace item it came from, for selection sync in a GUI hex view.
type payloadOffset struct {
	Offset    int
	ItemIndex int
}

// PayloadStream is the ordered concatenation of data-TLV bytes for one
// (channel, direction) pair within a [ChannelSession] (§3, §4.6).
type PayloadStream struct {
	ChannelID int
	Direction PayloadDirection
	Data      []byte

	offsets []payloadOffset
}

// ItemIndexAt returns the trace item that produced the byte at offset,
// when offset falls within a recorded chunk.
func (p PayloadStream) ItemIndexAt(offset int) (int, bool) {
	best := -1
	for _, o := range p.offsets {
		if o.Offset <= offset {
			best = o.ItemIndex
		}
	}
	if best < 0 {
		return 0, false
	}
	return best, true
}

// tagChannelData is the data TLV tag carrying SEND/RECEIVE DATA payload
// bytes in the BIP context (§4.6): implementation-defined per producer,
// 0x36 is the common choice this package follows.
const tagChannelData uint32 = 0x36

// reassemblePayloads builds the ME→SIM and SIM→ME [PayloadStream]s for one
// session by walking its item indices in trace order and concatenating
// each SEND DATA / RECEIVE DATA item's channel-data TLV value (§4.6).
// Empty payloads are skipped; items with no recognised data TLV contribute
// nothing.
func reassemblePayloads(model *TraceModel, s ChannelSession) (meToSIM, simToME PayloadStream) {
	meToSIM = PayloadStream{ChannelID: s.ChannelID, Direction: DirectionMEToSIM}
	simToME = PayloadStream{ChannelID: s.ChannelID, Direction: DirectionSIMToME}

	for _, idx := range s.Items {
		it, ok := model.Item(idx)
		if !ok {
			continue
		}
		data, ok := channelDataPayload(it)
		if !ok || len(data) == 0 {
			continue
		}
		switch {
		case isSendDataType(it.Type):
			meToSIM.offsets = append(meToSIM.offsets, payloadOffset{Offset: len(meToSIM.Data), ItemIndex: idx})
			meToSIM.Data = append(meToSIM.Data, data...)
		case isReceiveDataType(it.Type):
			simToME.offsets = append(simToME.offsets, payloadOffset{Offset: len(simToME.Data), ItemIndex: idx})
			simToME.Data = append(simToME.Data, data...)
		}
	}
	return meToSIM, simToME
}

// channelDataPayload locates the channel-data TLV within an item's
// top-level TLVs, falling back to the item's whole raw command/response
// data when no tagged TLV is present (some producers don't wrap payload
// bytes in a TLV at all).
func channelDataPayload(it TraceItem) ([]byte, bool) {
	if node, ok := findTLVByTag(it.Tlvs, tagChannelData); ok {
		return node.Value(it.RawHex), true
	}
	if it.Apdu != nil {
		switch it.Apdu.Kind {
		case ApduCommand:
			return it.Apdu.Data, len(it.Apdu.Data) > 0
		case ApduResponse:
			return it.Apdu.Data, len(it.Apdu.Data) > 0
		}
	}
	return nil, false
}
