// Package protocol implements the per-link-protocol packet validators and
// identity reconstructors: DSMX, DSM2, FrSkyX and FrSkyXEU. Each
// descriptor owns a static scan plan per scan depth and a validator that
// turns a raw, chip-validated packet buffer into a candidate transmitter
// identity, or rejects it silently.
package protocol

// ID names one of the four supported link protocols.
type ID int

const (
	DSMX ID = iota
	DSM2
	FrSkyX
	FrSkyXEU
)

func (p ID) String() string {
	switch p {
	case DSMX:
		return "DSMX"
	case DSM2:
		return "DSM2"
	case FrSkyX:
		return "FrSkyX"
	case FrSkyXEU:
		return "FrSkyXEU"
	default:
		return "unknown"
	}
}

// ScanDepth is the operator-selected scan thoroughness, ordered from
// least to most exhaustive.
type ScanDepth int

const (
	Disabled ScanDepth = iota
	Minimum
	Average
	Maximum
)

func (d ScanDepth) String() string {
	switch d {
	case Disabled:
		return "Disabled"
	case Minimum:
		return "Minimum"
	case Average:
		return "Average"
	case Maximum:
		return "Maximum"
	default:
		return "unknown"
	}
}

// CYRFChannel is a CYRF6936-family channel descriptor: an RF channel
// together with the PN spreading-code row/column in use on it.
type CYRFChannel struct {
	RFChannel uint8 // 0..79
	PNRow     uint8 // 0..4
	PNColumn  uint8 // 0..7
}

// CCChannel is a CC2500-family channel descriptor.
type CCChannel struct {
	RFChannel uint8 // 0..255
	FSCtrl0   uint8 // 0..7
}

// Descriptor is the common shape every protocol descriptor satisfies:
// a name, a live scan-depth selection, and the scan-time estimate for
// whatever depth is currently selected.
type Descriptor interface {
	ID() ID
	Name() string
	Depth() ScanDepth
	SetDepth(ScanDepth)
	ScanTimeMicros() int64
}

// DSMCandidate is the transmitter identity a DSMX/DSM2 validator emits
// when a packet's CRC seed is uniquely recoverable.
type DSMCandidate struct {
	ID   [4]byte
	DSMX bool
	// Packet is the full validated buffer (including RSSI/LQI/status
	// trailer) so the registry can replay it through parse_data on merge.
	Packet []byte
}

// FrSkyXCandidate is the transmitter identity a FrSkyX/FrSkyXEU validator
// emits on a CRC match.
type FrSkyXCandidate struct {
	ID     [2]byte
	EU     bool
	Packet []byte
}
