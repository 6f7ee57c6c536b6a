package transmitter

import (
	"github.com/usbrf/groundstation/internal/protocol"
	"github.com/usbrf/groundstation/internal/rfchip"
)

// DSM is a DSM2 or DSMX transmitter record.
type DSM struct {
	Common

	ID         [4]byte
	DSMX       bool
	Resolution *int
	BM10Bit    uint16
	BM11Bit    uint16
	Channels   map[int]struct{}
}

// NewDSM builds a DSM transmitter from a validated candidate and
// immediately parses its originating packet.
func NewDSM(cand *protocol.DSMCandidate, chipID rfchip.ChipId) *DSM {
	name := "DSM2"
	if cand.DSMX {
		name = "DSMX"
	}
	tx := &DSM{
		Common:   newCommon(name, chipID),
		ID:       cand.ID,
		DSMX:     cand.DSMX,
		Channels: make(map[int]struct{}),
	}
	tx.Name = "UNK " + tx.GetIDStr()
	if cand.Packet != nil {
		tx.ParseData(cand.Packet)
	}
	tx.CheckHackable()
	return tx
}

func (t *DSM) GetName() string  { return t.Name }
func (t *DSM) SetName(n string) { t.Name = n }
func (t *DSM) Recv() *Common    { return &t.Common }
func (t *DSM) GetIDStr() string { return idStr(t.ID[:]) }

// InverseID returns the transmitter id with bytes 0,1 bit-complemented:
// the checksum-preserving alias DSM firmware may advertise.
func (t *DSM) InverseID() [4]byte {
	return [4]byte{^t.ID[0], ^t.ID[1], t.ID[2], t.ID[3]}
}

// IsSame implements the DSM "same transmitter" invariant: matching
// dsmx flag and (equal id or inverse-id alias).
func (t *DSM) IsSame(other Transmitter) bool {
	o, ok := other.(*DSM)
	if !ok {
		return false
	}
	if o.DSMX != t.DSMX {
		return false
	}
	return o.ID == t.ID || o.ID == t.InverseID()
}

// Merge replays other's buffered packets through ParseData and
// re-evaluates hackability.
func (t *DSM) Merge(other Transmitter) {
	o, ok := other.(*DSM)
	if !ok {
		return
	}
	t.ChipID = o.ChipID
	for _, data := range o.RecvData.Items() {
		t.ParseData(data)
	}
	t.CheckHackable()
}

// decodeChannel interprets a 2-byte channel slot at the given
// resolution. 0xFFFF is the "no channel" sentinel.
func decodeChannel(data []byte, resolution uint) (channel int, value int, ok bool) {
	raw := uint16(data[0])<<8 | uint16(data[1])
	if raw == 0xFFFF {
		return 0, 0, false
	}
	channel = int((raw >> resolution) & 0xF)
	mask := uint16(1<<resolution) - 1
	value = int(raw & mask)
	return channel, value, true
}

// GetResolution returns the forced resolution if set; otherwise 11.
// The 10-bit guess branch from the original implementation always
// falls through to 11 as well — both arms of its conditional returned
// the same value, so that quirk is preserved verbatim rather than
// "fixed".
func (t *DSM) GetResolution() uint {
	if t.Resolution != nil {
		return uint(*t.Resolution)
	}
	if (t.BM10Bit&0x3f)^0x3f == 0 {
		return 11
	}
	return 11
}

func (t *DSM) updateChannelValues(data []byte) {
	resolution := t.GetResolution()
	for i := 0; i < 7; i++ {
		lo := 3 + i*2
		hi := lo + 2
		if hi > len(data) {
			break
		}
		channel, value, ok := decodeChannel(data[lo:hi], resolution)
		if !ok {
			continue
		}
		t.ChannelValues[channel] = float64(value) / float64(uint(1)<<resolution) * 100
	}
}

// ParseData ingests a raw CYRF6936 packet: ring buffer, channel set,
// 10/11-bit resolution bitmaps, and latest per-RC-channel values.
func (t *DSM) ParseData(data []byte) {
	t.RecvData.Push(data)
	t.RecvCnt++
	if len(data) > 19 {
		t.Channels[int(data[19])] = struct{}{}
	}

	for i := 0; i < 7; i++ {
		lo := 3 + i*2
		hi := lo + 2
		if hi > len(data) {
			break
		}
		slot := data[lo:hi]
		if ch, _, ok := decodeChannel(slot, 10); ok {
			t.BM10Bit |= 1 << uint(ch)
		}
		if ch, _, ok := decodeChannel(slot, 11); ok {
			t.BM11Bit |= 1 << uint(ch)
		}
	}

	t.updateChannelValues(data)
}

func sopCol(id [4]byte, invert01 bool) int {
	b0, b1 := int(id[0]), int(id[1])
	if invert01 {
		b0, b1 = int(^id[0]), int(^id[1])
	}
	return (b0 + b1 + int(id[2]) + 2) & 7
}

func channelSet(m map[int]struct{}) map[int]struct{} {
	out := make(map[int]struct{}, len(m))
	for k := range m {
		out[k] = struct{}{}
	}
	return out
}

func setDiffCount(a, b map[int]struct{}) int {
	n := 0
	for k := range a {
		if _, ok := b[k]; !ok {
			n++
		}
	}
	return n
}

// CheckHackable implements the DSM hackability decision table.
func (t *DSM) CheckHackable() {
	last := t.RecvData.Last()
	lastSopCol := -1
	if last != nil && len(last) > 20 {
		lastSopCol = int(last[20]) & 0xF
	}

	sopColNatural := sopCol(t.ID, false)
	sopColInverse := sopCol(t.ID, true)

	if !t.DSMX {
		if len(t.Channels) != 2 {
			t.Hackable = 20 * len(t.Channels)
			return
		}
		switch {
		case sopColNatural != lastSopCol && sopColInverse == lastSopCol:
			t.ID = t.InverseID()
			t.Hackable = 100
		case sopColNatural == lastSopCol && sopColInverse != lastSopCol:
			t.Hackable = 100
		default:
			t.Hackable = 20 * len(t.Channels)
		}
		return
	}

	calcNatural := setFromSlice(protocol.CalcChannels(t.ID))
	calcInverse := setFromSlice(protocol.CalcChannels(t.InverseID()))
	diffNatural := setDiffCount(channelSet(t.Channels), calcNatural)
	diffInverse := setDiffCount(channelSet(t.Channels), calcInverse)

	switch {
	case (sopColNatural != lastSopCol && sopColInverse == lastSopCol) || (diffNatural > 0 && diffInverse == 0):
		t.ID = t.InverseID()
		t.Hackable = 100
	case (sopColNatural == lastSopCol && sopColInverse != lastSopCol) || (diffNatural == 0 && diffInverse > 0):
		t.Hackable = 100
	default:
		t.Hackable = len(t.Channels)
	}
}

func setFromSlice(xs []int) map[int]struct{} {
	out := make(map[int]struct{}, len(xs))
	for _, x := range xs {
		out[x] = struct{}{}
	}
	return out
}

// DSMObj is the JSON persistence shape for a DSM transmitter.
type DSMObj struct {
	Name       string `json:"name"`
	ID         [4]int `json:"id"`
	DSMX       bool   `json:"dsmx"`
	Resolution *int   `json:"resolution"`
	Channels   []int  `json:"channels"`
	DoHack     bool   `json:"do_hack"`
}

// ToObj exports the persistence form.
func (t *DSM) ToObj() DSMObj {
	channels := make([]int, 0, len(t.Channels))
	for c := range t.Channels {
		channels = append(channels, c)
	}
	return DSMObj{
		Name:       t.Name,
		ID:         [4]int{int(t.ID[0]), int(t.ID[1]), int(t.ID[2]), int(t.ID[3])},
		DSMX:       t.DSMX,
		Resolution: t.Resolution,
		Channels:   channels,
		DoHack:     t.DoHack,
	}
}

// DSMFromObj rebuilds a DSM transmitter from its persisted form.
func DSMFromObj(obj DSMObj) *DSM {
	tx := &DSM{
		Common:     newCommon(protoName(obj.DSMX), CYRF6936NoChip),
		ID:         [4]byte{byte(obj.ID[0]), byte(obj.ID[1]), byte(obj.ID[2]), byte(obj.ID[3])},
		DSMX:       obj.DSMX,
		Resolution: obj.Resolution,
		Channels:   make(map[int]struct{}),
	}
	tx.Name = obj.Name
	tx.DoHack = obj.DoHack
	if tx.DSMX {
		for _, c := range obj.Channels {
			tx.Channels[c] = struct{}{}
		}
	}
	tx.CheckHackable()
	return tx
}

func protoName(dsmx bool) string {
	if dsmx {
		return "DSMX"
	}
	return "DSM2"
}

// CYRF6936NoChip is the chip id assigned to transmitters rebuilt from
// persistence, before any live packet re-associates them with a chip.
const CYRF6936NoChip = rfchip.CYRF6936
