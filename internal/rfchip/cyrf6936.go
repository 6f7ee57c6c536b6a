package rfchip

import (
	"sort"

	"github.com/usbrf/groundstation/internal/protocol"
)

// CYRF6936Chip bundles the DSMX and DSM2 protocol descriptors a
// CYRF6936-equipped probe scans for.
type CYRF6936Chip struct {
	DSMX *protocol.DSMXProtocol
	DSM2 *protocol.DSM2Protocol
}

// NewCYRF6936Chip builds a chip with both its protocols at their
// default (Average) scan depth.
func NewCYRF6936Chip() *CYRF6936Chip {
	return &CYRF6936Chip{
		DSMX: protocol.NewDSMXProtocol(),
		DSM2: protocol.NewDSM2Protocol(),
	}
}

func (c *CYRF6936Chip) ID() ChipId   { return CYRF6936 }
func (c *CYRF6936Chip) Name() string { return "CYRF6936" }

// SetDepth sets the scan depth of whichever of this chip's protocols
// matches id, reporting whether a match was found.
func (c *CYRF6936Chip) SetDepth(id protocol.ID, depth protocol.ScanDepth) bool {
	switch id {
	case protocol.DSMX:
		c.DSMX.SetDepth(depth)
		return true
	case protocol.DSM2:
		c.DSM2.SetDepth(depth)
		return true
	default:
		return false
	}
}

// ScanTimeMicros sums the current-depth scan time across both
// protocols.
func (c *CYRF6936Chip) ScanTimeMicros() int64 {
	return c.DSMX.ScanTimeMicros() + c.DSM2.ScanTimeMicros()
}

// CalcScanChannels unions the current-depth channel sets of both
// protocols, deduplicating identical (rf_channel, pn_row, pn_column)
// triples.
func (c *CYRF6936Chip) CalcScanChannels() []protocol.CYRFChannel {
	seen := make(map[protocol.CYRFChannel]struct{})
	var out []protocol.CYRFChannel
	for _, ch := range c.DSMX.Channels() {
		if _, ok := seen[ch]; !ok {
			seen[ch] = struct{}{}
			out = append(out, ch)
		}
	}
	for _, ch := range c.DSM2.Channels() {
		if _, ok := seen[ch]; !ok {
			seen[ch] = struct{}{}
			out = append(out, ch)
		}
	}
	return out
}

// ParseRecvMsg tries DSMX then DSM2, returning the first validator's
// success.
func (c *CYRF6936Chip) ParseRecvMsg(msg []byte) (Candidate, bool) {
	if cand, ok := c.DSMX.ParseRecv(msg); ok {
		return Candidate{Protocol: protocol.DSMX, DSM: cand}, true
	}
	if cand, ok := c.DSM2.ParseRecv(msg); ok {
		return Candidate{Protocol: protocol.DSM2, DSM: cand}, true
	}
	return Candidate{}, false
}

func sortedCYRFChannels(channels []protocol.CYRFChannel) []protocol.CYRFChannel {
	out := make([]protocol.CYRFChannel, len(channels))
	copy(out, channels)
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.RFChannel != b.RFChannel {
			return a.RFChannel < b.RFChannel
		}
		if a.PNRow != b.PNRow {
			return a.PNRow < b.PNRow
		}
		return a.PNColumn < b.PNColumn
	})
	return out
}

// DivideChannels partitions the chip's current scan channels into cnt
// contiguous slices, cut at ⌊i·n/k⌋ boundaries after sorting.
func (c *CYRF6936Chip) DivideChannels(cnt int) [][]protocol.CYRFChannel {
	channels := sortedCYRFChannels(c.CalcScanChannels())
	n := len(channels)
	out := make([][]protocol.CYRFChannel, cnt)
	for i := 0; i < cnt; i++ {
		lo := i * n / cnt
		hi := (i + 1) * n / cnt
		out[i] = channels[lo:hi]
	}
	return out
}

// GenerateScanData serializes a channel slice into the CYRF6936 scan
// payload: 2 bytes per channel, rf_channel then (pn_row<<4)|pn_column.
func GenerateScanData(channels []protocol.CYRFChannel) []byte {
	data := make([]byte, len(channels)*2)
	for i, ch := range channels {
		data[i*2] = ch.RFChannel
		data[i*2+1] = ch.PNRow<<4 | ch.PNColumn&0x0F
	}
	return data
}

// GenerateHackData serializes the 7-byte CYRF6936 hack payload.
// DSM2 emits [0, id[0..3], channels[0], channels[1]]; DSMX emits
// [1, id[0..3], 0, 0] since its hop set is derived, not observed.
func GenerateHackData(id [4]byte, dsmx bool, dsm2Channels [2]int) []byte {
	data := make([]byte, 7)
	if dsmx {
		data[0] = 1
		copy(data[1:5], id[:])
		return data
	}
	data[0] = 0
	copy(data[1:5], id[:])
	data[5] = byte(dsm2Channels[0])
	data[6] = byte(dsm2Channels[1])
	return data
}
