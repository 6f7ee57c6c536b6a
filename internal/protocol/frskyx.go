package protocol

import (
	"github.com/usbrf/groundstation/internal/crc"
)

// FrSkyX channel-derivation and scan-plan constants. CHAN_MAX is
// the CC2500 raw channel range FrSkyX hops across; CHAN_USED is the size
// of the dense hopping table a transmitter advertises.
const (
	frskyxChanMin  = 1
	frskyxChanMax  = 247
	frskyxChanUsed = 47

	frskyxPacketLen   = 29
	frskyxEUPacketLen = 32
)

// FrSkyXProtocol is the FrSkyX/FrSkyXEU link-protocol descriptor. The EU
// variant differs only in packet length and the id/eu flag it stamps onto
// recovered candidates.
type FrSkyXProtocol struct {
	eu        bool
	depth     ScanDepth
	channels  map[ScanDepth][]CCChannel
	packetLen int
}

// NewFrSkyXProtocol builds a non-EU FrSkyX descriptor.
func NewFrSkyXProtocol() *FrSkyXProtocol {
	return newFrSkyXProtocol(false)
}

// NewFrSkyXEUProtocol builds the EU-variant FrSkyX descriptor.
func NewFrSkyXEUProtocol() *FrSkyXProtocol {
	return newFrSkyXProtocol(true)
}

func newFrSkyXProtocol(eu bool) *FrSkyXProtocol {
	packetLen := frskyxPacketLen
	if eu {
		packetLen = frskyxEUPacketLen
	}
	p := &FrSkyXProtocol{
		eu:        eu,
		depth:     Average,
		channels:  make(map[ScanDepth][]CCChannel),
		packetLen: packetLen,
	}

	minSpan := frskyxChanMax - frskyxChanUsed + 1
	p.channels[Minimum] = frskyxChannelRange(frskyxChanMin, frskyxChanMin+minSpan, []uint8{0})
	p.channels[Average] = frskyxChannelRange(frskyxChanMin, frskyxChanMax, []uint8{0})

	allCtrl := make([]uint8, 8)
	for i := range allCtrl {
		allCtrl[i] = uint8(i)
	}
	p.channels[Maximum] = frskyxChannelRange(frskyxChanMin, frskyxChanMax, allCtrl)

	return p
}

func frskyxChannelRange(lo, hi int, ctrl []uint8) []CCChannel {
	out := make([]CCChannel, 0, (hi-lo)*len(ctrl))
	for c := lo; c < hi; c++ {
		for _, f := range ctrl {
			out = append(out, CCChannel{RFChannel: uint8(c), FSCtrl0: f})
		}
	}
	return out
}

func (p *FrSkyXProtocol) ID() ID {
	if p.eu {
		return FrSkyXEU
	}
	return FrSkyX
}

func (p *FrSkyXProtocol) Name() string {
	if p.eu {
		return "FrSkyXEU"
	}
	return "FrSkyX"
}

func (p *FrSkyXProtocol) Depth() ScanDepth     { return p.depth }
func (p *FrSkyXProtocol) SetDepth(d ScanDepth) { p.depth = d }

// ScanTimeMicros always returns 0: FrSkyX fixes only the channel set and
// defines no scan-time estimate.
func (p *FrSkyXProtocol) ScanTimeMicros() int64 { return 0 }

func (p *FrSkyXProtocol) Channels() []CCChannel { return p.channels[p.depth] }

// ParseRecv validates a raw CC2500 packet buffer: packet length, the
// chip-level CRC-ok bit, then the FrSkyX inner CRC over buf[3:packetLen-1].
// On match it emits a candidate with id = buf[1:3].
func (p *FrSkyXProtocol) ParseRecv(buf []byte) (*FrSkyXCandidate, bool) {
	if len(buf) == 0 || int(buf[0]) != p.packetLen {
		return nil, false
	}
	if len(buf) < p.packetLen+3 {
		return nil, false
	}
	if buf[p.packetLen+2]&0x80 != 0x80 {
		return nil, false
	}

	innerCRC := crc.FrSkyXInner(buf[3 : p.packetLen-1])
	want := uint16(buf[p.packetLen-1])<<8 | uint16(buf[p.packetLen])
	if innerCRC != want {
		return nil, false
	}

	cand := &FrSkyXCandidate{EU: p.eu, Packet: buf}
	copy(cand.ID[:], buf[1:3])
	return cand, true
}
