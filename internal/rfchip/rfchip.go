// Package rfchip abstracts the two radio chips a probe may carry —
// CYRF6936 (DSM2/DSMX) and CC2500 (FrSkyX/FrSkyXEU) — aggregating their
// protocol descriptors into a single scan/parse/hack surface.
package rfchip

import (
	"github.com/usbrf/groundstation/internal/protocol"
)

// ChipId names a physical radio chip a probe board may carry.
type ChipId int

const (
	CYRF6936 ChipId = iota
	CC2500
)

func (c ChipId) String() string {
	switch c {
	case CYRF6936:
		return "CYRF6936"
	case CC2500:
		return "CC2500"
	default:
		return "unknown"
	}
}

// Candidate wraps whichever protocol family recognized an inbound
// packet. Exactly one of DSM/FrSkyX is non-nil.
type Candidate struct {
	Protocol protocol.ID
	DSM      *protocol.DSMCandidate
	FrSkyX   *protocol.FrSkyXCandidate
}

// ScanChip is the minimal surface the scheduler needs: a name for
// diagnostics and the current aggregate scan-time estimate across all
// of a chip's protocols at their current depths.
type ScanChip interface {
	Name() string
	ID() ChipId
	ScanTimeMicros() int64
}
