// Package transmitter implements the transmitter variants and the
// registry that deduplicates, merges, scores hackability for, and
// persists observed RC transmitters.
package transmitter

import (
	"fmt"

	"github.com/usbrf/groundstation/internal/rfchip"
)

const ringCapacity = 20

// Ring is a fixed-capacity, overwrite-oldest ring buffer of raw packet
// buffers.
type Ring struct {
	buf   [][]byte
	start int
}

// NewRing builds an empty ring with ringCapacity slots.
func NewRing() *Ring {
	return &Ring{}
}

// Push appends data, dropping the oldest entry once the ring is full.
func (r *Ring) Push(data []byte) {
	if len(r.buf) < ringCapacity {
		r.buf = append(r.buf, data)
		return
	}
	r.buf[r.start] = data
	r.start = (r.start + 1) % ringCapacity
}

// Items returns the buffered packets in insertion order (oldest
// first), matching collections.deque iteration in the original.
func (r *Ring) Items() [][]byte {
	if len(r.buf) < ringCapacity {
		return r.buf
	}
	out := make([][]byte, 0, ringCapacity)
	for i := 0; i < ringCapacity; i++ {
		out = append(out, r.buf[(r.start+i)%ringCapacity])
	}
	return out
}

// Last returns the most recently pushed packet, or nil if empty.
func (r *Ring) Last() []byte {
	items := r.Items()
	if len(items) == 0 {
		return nil
	}
	return items[len(items)-1]
}

// Common holds the fields every transmitter variant carries.
type Common struct {
	Name     string
	ProtName string
	ChipID   rfchip.ChipId
	Hackable int
	DoHack   bool

	RecvData      *Ring
	RecvCnt       int
	ChannelValues [20]float64
}

func newCommon(protName string, chipID rfchip.ChipId) Common {
	return Common{
		Name:     "UNK",
		ProtName: protName,
		ChipID:   chipID,
		RecvData: NewRing(),
	}
}

// Transmitter is the common surface the registry operates on.
type Transmitter interface {
	GetName() string
	SetName(string)
	IsSame(other Transmitter) bool
	Merge(other Transmitter)
	ParseData(data []byte)
	CheckHackable()
	GetIDStr() string
	Recv() *Common
}

func idStr(id []byte) string {
	s := ""
	for _, b := range id {
		s += fmt.Sprintf("%02X", b)
	}
	return s
}
