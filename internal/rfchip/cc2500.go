package rfchip

import (
	"errors"
	"sort"

	"github.com/usbrf/groundstation/internal/protocol"
)

// ErrScanPayloadUndefined is returned by GenerateCCScanData:
// the firmware contract for the CC2500 scanner payload is not fully
// specified upstream, only CYRF6936's 2-bytes-per-channel layout is.
// Callers that need CC2500 scanning must supply their own
// firmware-matched encoder.
var ErrScanPayloadUndefined = errors.New("rfchip: CC2500 scan payload serialization is not defined by the firmware contract")

// CC2500Chip bundles the FrSkyX and FrSkyXEU protocol descriptors a
// CC2500-equipped probe scans for.
type CC2500Chip struct {
	FrSkyX   *protocol.FrSkyXProtocol
	FrSkyXEU *protocol.FrSkyXProtocol
}

// NewCC2500Chip builds a chip with both FrSkyX variants at their
// default scan depth.
func NewCC2500Chip() *CC2500Chip {
	return &CC2500Chip{
		FrSkyX:   protocol.NewFrSkyXProtocol(),
		FrSkyXEU: protocol.NewFrSkyXEUProtocol(),
	}
}

func (c *CC2500Chip) ID() ChipId   { return CC2500 }
func (c *CC2500Chip) Name() string { return "CC2500" }

func (c *CC2500Chip) SetDepth(id protocol.ID, depth protocol.ScanDepth) bool {
	switch id {
	case protocol.FrSkyX:
		c.FrSkyX.SetDepth(depth)
		return true
	case protocol.FrSkyXEU:
		c.FrSkyXEU.SetDepth(depth)
		return true
	default:
		return false
	}
}

// ScanTimeMicros always returns 0: no per-channel dwell time is defined
// for CC2500. The scheduler drops zero-scan-time chips, so no probe is
// assigned to scan CC2500 channels.
func (c *CC2500Chip) ScanTimeMicros() int64 { return 0 }

// CalcScanChannels unions FrSkyX and FrSkyXEU's current-depth channel
// sets.
func (c *CC2500Chip) CalcScanChannels() []protocol.CCChannel {
	seen := make(map[protocol.CCChannel]struct{})
	var out []protocol.CCChannel
	for _, ch := range c.FrSkyX.Channels() {
		if _, ok := seen[ch]; !ok {
			seen[ch] = struct{}{}
			out = append(out, ch)
		}
	}
	for _, ch := range c.FrSkyXEU.Channels() {
		if _, ok := seen[ch]; !ok {
			seen[ch] = struct{}{}
			out = append(out, ch)
		}
	}
	return out
}

// ParseRecvMsg tries FrSkyX then FrSkyXEU.
func (c *CC2500Chip) ParseRecvMsg(msg []byte) (Candidate, bool) {
	if cand, ok := c.FrSkyX.ParseRecv(msg); ok {
		return Candidate{Protocol: protocol.FrSkyX, FrSkyX: cand}, true
	}
	if cand, ok := c.FrSkyXEU.ParseRecv(msg); ok {
		return Candidate{Protocol: protocol.FrSkyXEU, FrSkyX: cand}, true
	}
	return Candidate{}, false
}

func sortedCCChannels(channels []protocol.CCChannel) []protocol.CCChannel {
	out := make([]protocol.CCChannel, len(channels))
	copy(out, channels)
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.RFChannel != b.RFChannel {
			return a.RFChannel < b.RFChannel
		}
		return a.FSCtrl0 < b.FSCtrl0
	})
	return out
}

// DivideChannels partitions the chip's current scan channels into cnt
// contiguous slices, same cut rule as CYRF6936Chip.
func (c *CC2500Chip) DivideChannels(cnt int) [][]protocol.CCChannel {
	channels := sortedCCChannels(c.CalcScanChannels())
	n := len(channels)
	out := make([][]protocol.CCChannel, cnt)
	for i := 0; i < cnt; i++ {
		lo := i * n / cnt
		hi := (i + 1) * n / cnt
		out[i] = channels[lo:hi]
	}
	return out
}

// GenerateCCScanData always fails: the CC2500 scanner payload layout is
// an open question left unresolved upstream. This is a deliberate
// stub, not a placeholder implementation — guessing the wire format
// would silently corrupt probe firmware state.
func GenerateCCScanData(channels []protocol.CCChannel) ([]byte, error) {
	return nil, ErrScanPayloadUndefined
}
