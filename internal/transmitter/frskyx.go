package transmitter

import (
	"strconv"

	"github.com/usbrf/groundstation/internal/protocol"
	"github.com/usbrf/groundstation/internal/rfchip"
)

const frskyxTableSize = 47

// frskyxTableEntry is one hopping-table slot: the best (lowest-lqi)
// channel observed at that index, or -1/128 ("unknown") when nothing
// has been seen yet.
type frskyxTableEntry struct {
	Channel int
	LQI     int
}

// FrSkyX is a FrSkyX or FrSkyXEU transmitter record.
type FrSkyX struct {
	Common

	ID    [2]byte
	EU    bool
	Table [frskyxTableSize]frskyxTableEntry
}

// NewFrSkyX builds a FrSkyX transmitter from a validated candidate and
// immediately parses its originating packet.
func NewFrSkyX(cand *protocol.FrSkyXCandidate, chipID rfchip.ChipId) *FrSkyX {
	name := "FrSkyX"
	if cand.EU {
		name = "FrSkyXEU"
	}
	tx := &FrSkyX{
		Common: newCommon(name, chipID),
		ID:     cand.ID,
		EU:     cand.EU,
	}
	for i := range tx.Table {
		tx.Table[i] = frskyxTableEntry{Channel: -1, LQI: 128}
	}
	tx.Name = "UNK " + tx.GetIDStr()
	if cand.Packet != nil {
		tx.ParseData(cand.Packet)
	}
	tx.CheckHackable()
	return tx
}

func (t *FrSkyX) GetName() string  { return t.Name }
func (t *FrSkyX) SetName(n string) { t.Name = n }
func (t *FrSkyX) Recv() *Common    { return &t.Common }
func (t *FrSkyX) GetIDStr() string { return idStr(t.ID[:]) }

// IsSame implements the FrSkyX "same transmitter" invariant: matching
// eu flag and byte-equal ids.
func (t *FrSkyX) IsSame(other Transmitter) bool {
	o, ok := other.(*FrSkyX)
	if !ok {
		return false
	}
	return o.EU == t.EU && o.ID == t.ID
}

// Merge replays other's buffered packets through ParseData and
// re-evaluates hackability.
func (t *FrSkyX) Merge(other Transmitter) {
	o, ok := other.(*FrSkyX)
	if !ok {
		return
	}
	t.ChipID = o.ChipID
	for _, data := range o.RecvData.Items() {
		t.ParseData(data)
	}
	t.CheckHackable()
}

func rssiFromByte(b byte) int {
	if b >= 128 {
		return (int(b)-256)/2 - 72
	}
	return int(b)/2 - 72
}

// ParseData ingests a raw CC2500 packet: rssi/lqi extraction, the
// hopping-table slot update (kept only when the new reading is
// stronger, i.e. a lower lqi), and — for non-failsafe type-0 packets —
// the six packed 12-bit RC channel values.
func (t *FrSkyX) ParseData(data []byte) {
	t.RecvData.Push(data)
	t.RecvCnt++

	if len(data) < 4 {
		return
	}
	_ = rssiFromByte(data[len(data)-4])
	lqi := int(data[len(data)-3]) & 0x7F

	if len(data) < 5 {
		return
	}
	idx := int(data[4]) & 0x3F
	channel := int(data[len(data)-2])
	if idx < frskyxTableSize && lqi < t.Table[idx].LQI {
		t.Table[idx] = frskyxTableEntry{Channel: channel, LQI: lqi}
	}

	if len(data) <= 7 || data[7] != 0 {
		return
	}
	for i := 0; i < 9; i += 3 {
		base := 9 + i
		if base+2 >= len(data) {
			break
		}
		chan0 := int(data[base]) + (int(data[base+1]&0x0F) << 8)
		chan1 := (int(data[base+1]) >> 4) + (int(data[base+2]) << 4)

		idx0 := i / 3 * 2
		if chan0&0x800 != 0 {
			t.ChannelValues[idx0+8] = float64(chan0-0x800) / 2047 * 100
		} else {
			t.ChannelValues[idx0] = float64(chan0) / 2047 * 100
		}
		if chan1&0x800 != 0 {
			t.ChannelValues[idx0+9] = float64(chan1-0x800) / 2047 * 100
		} else {
			t.ChannelValues[idx0+1] = float64(chan1) / 2047 * 100
		}
	}
}

// CheckHackable scores 100 once every table slot has a known channel,
// otherwise 100 minus the proportional share of missing slots.
func (t *FrSkyX) CheckHackable() {
	notFound := 0
	for _, e := range t.Table {
		if e.Channel == -1 {
			notFound++
		}
	}
	if notFound == 0 {
		t.Hackable = 100
		return
	}
	t.Hackable = int(100.0 - (100.0/float64(frskyxTableSize))*float64(notFound))
}

// FrSkyXObj is the JSON persistence shape for a FrSkyX transmitter.
// Channels is keyed by string index to match the on-disk format, each
// value a [channel, lqi] pair; loaders re-key to int and reset lqi to
// 128 (unknown) regardless of what was persisted.
type FrSkyXObj struct {
	Name     string            `json:"name"`
	ID       [2]int            `json:"id"`
	EU       bool              `json:"eu"`
	Channels map[string][2]int `json:"channels"`
	DoHack   bool              `json:"do_hack"`
}

// ToObj exports the persistence form: each known table slot's
// [channel, lqi] pair, keyed by its string index.
func (t *FrSkyX) ToObj() FrSkyXObj {
	channels := make(map[string][2]int, frskyxTableSize)
	for i, e := range t.Table {
		if e.Channel != -1 {
			channels[strconv.Itoa(i)] = [2]int{e.Channel, e.LQI}
		}
	}
	return FrSkyXObj{
		Name:     t.Name,
		ID:       [2]int{int(t.ID[0]), int(t.ID[1])},
		EU:       t.EU,
		Channels: channels,
		DoHack:   t.DoHack,
	}
}

// FrSkyXFromObj rebuilds a FrSkyX transmitter from its persisted form.
func FrSkyXFromObj(obj FrSkyXObj) *FrSkyX {
	tx := &FrSkyX{
		Common: newCommon(protoNameFrSkyX(obj.EU), CC2500NoChip),
		ID:     [2]byte{byte(obj.ID[0]), byte(obj.ID[1])},
		EU:     obj.EU,
	}
	for i := range tx.Table {
		tx.Table[i] = frskyxTableEntry{Channel: -1, LQI: 128}
	}
	tx.Name = obj.Name
	tx.DoHack = obj.DoHack
	for k, pair := range obj.Channels {
		idx, err := strconv.Atoi(k)
		if err != nil || idx < 0 || idx >= frskyxTableSize {
			continue
		}
		tx.Table[idx] = frskyxTableEntry{Channel: pair[0], LQI: 128}
	}
	tx.CheckHackable()
	return tx
}

func protoNameFrSkyX(eu bool) string {
	if eu {
		return "FrSkyXEU"
	}
	return "FrSkyX"
}

// CC2500NoChip is the chip id assigned to transmitters rebuilt from
// persistence, before any live packet re-associates them with a chip.
const CC2500NoChip = rfchip.CC2500
