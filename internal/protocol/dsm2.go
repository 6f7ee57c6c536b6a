package protocol

import (
	"github.com/usbrf/groundstation/internal/crc"
)

// DSM2 channel-derivation and scan-plan constants.
const (
	dsm2ChanTimeNum = 19500 * 3 // CHAN_TIME = 19500*1.5us, kept as a 2x-scaled integer
	dsm2ChanTimeDen = 2
	dsm2ChanMin     = 0
	dsm2ChanMax     = 79
	dsm2DataCodes   = 8
)

// DSM2Protocol is the DSM2 link-protocol descriptor. Its scan set is the
// same at every depth: every channel crossed with every pn_column.
type DSM2Protocol struct {
	depth    ScanDepth
	channels []CYRFChannel
	timeUs   int64
}

// NewDSM2Protocol builds a DSM2 descriptor with its (depth-invariant)
// scan plan pre-computed.
func NewDSM2Protocol() *DSM2Protocol {
	span := dsm2ChanMax - dsm2ChanMin + 1
	channels := make([]CYRFChannel, 0, span*dsm2DataCodes)
	for c := dsm2ChanMin; c <= dsm2ChanMax; c++ {
		pnRow := uint8(mod5(c))
		for col := 0; col < dsm2DataCodes; col++ {
			channels = append(channels, CYRFChannel{RFChannel: uint8(c), PNRow: pnRow, PNColumn: uint8(col)})
		}
	}
	timeUs := int64(dsm2ChanTimeNum) * int64(span) * int64(dsm2DataCodes) / int64(dsm2ChanTimeDen)
	return &DSM2Protocol{depth: Average, channels: channels, timeUs: timeUs}
}

func (p *DSM2Protocol) ID() ID                  { return DSM2 }
func (p *DSM2Protocol) Name() string            { return "DSM2" }
func (p *DSM2Protocol) Depth() ScanDepth        { return p.depth }
func (p *DSM2Protocol) SetDepth(d ScanDepth)    { p.depth = d }
func (p *DSM2Protocol) ScanTimeMicros() int64   { return p.timeUs }
func (p *DSM2Protocol) Channels() []CYRFChannel { return p.channels }

// ParseRecv validates a raw CYRF6936 packet buffer against the DSM2
// pn_row invariant and, on a unique CRC seed recovery, returns a
// candidate transmitter identity with the complemented id bytes DSM2
// advertises.
func (p *DSM2Protocol) ParseRecv(msg []byte) (*DSMCandidate, bool) {
	if len(msg) < 24 {
		return nil, false
	}
	rfChannel := msg[19]
	pnRow := msg[20] >> 4
	if int(pnRow) != mod5(int(rfChannel)) {
		return nil, false
	}

	observedCRC := uint16(msg[17])<<8 | uint16(msg[18])
	seeds := crc.CYRF6936FindSeeds(msg[:len(msg)-4], observedCRC)
	if len(seeds) != 1 {
		return nil, false
	}
	var seed uint16
	for s := range seeds {
		seed = s
	}

	cand := &DSMCandidate{DSMX: false, Packet: msg}
	cand.ID[0] = byte(seed & 0xFF)
	cand.ID[1] = byte(seed >> 8)
	cand.ID[2] = ^msg[1]
	cand.ID[3] = ^msg[2]
	return cand, true
}
