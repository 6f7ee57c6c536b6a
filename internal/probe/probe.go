package probe

import "github.com/usbrf/groundstation/internal/rfchip"

// board codes as reported in INFO.Board.
const (
	boardSingleChip = 1
	boardDualChip   = 2
)

// ChipsForBoard reports which RF chips a probe's board revision
// carries: board ≤ 1 hosts just the CYRF6936; board 2 adds the CC2500.
func ChipsForBoard(board uint8) []rfchip.ChipId {
	if board >= boardDualChip {
		return []rfchip.ChipId{rfchip.CYRF6936, rfchip.CC2500}
	}
	return []rfchip.ChipId{rfchip.CYRF6936}
}

// Probe is a negotiated probe: its session plus the chip set its
// hardware board derives.
type Probe struct {
	Session *Session
	Chips   []rfchip.ChipId
}

// NewProbe builds a Probe from a negotiated session, deriving its chip
// set from the INFO board code.
func NewProbe(s *Session) *Probe {
	return &Probe{Session: s, Chips: ChipsForBoard(s.Info().Board)}
}

// ChipNames implements scheduler.ProbeChips.
func (p *Probe) ChipNames() []string {
	names := make([]string, len(p.Chips))
	for i, c := range p.Chips {
		names[i] = c.String()
	}
	return names
}

// HasChip reports whether the probe's board carries id.
func (p *Probe) HasChip(id rfchip.ChipId) bool {
	for _, c := range p.Chips {
		if c == id {
			return true
		}
	}
	return false
}
