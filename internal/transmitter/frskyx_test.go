package transmitter

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/usbrf/groundstation/internal/crc"
	"github.com/usbrf/groundstation/internal/protocol"
	"github.com/usbrf/groundstation/internal/rfchip"
)

func frskyxPacket(idx byte, channel byte, lqi byte) []byte {
	const packetLen = 29
	// packet, then trailer: rssi, lqi|crc-ok, channel, one more byte
	buf := make([]byte, packetLen+5)
	buf[0] = packetLen
	buf[4] = idx
	buf[7] = 1 // not a type-0 (RC channel) packet in this helper
	buf[len(buf)-2] = channel
	buf[len(buf)-3] = lqi & 0x7F
	inner := crc.FrSkyXInner(buf[3 : packetLen-1])
	buf[packetLen-1] = byte(inner >> 8)
	buf[packetLen] = byte(inner & 0xFF)
	buf[packetLen+2] |= 0x80
	return buf
}

// TestScenarioS4FrSkyXTableUpdate exercises scenario S4: a packet for
// hop index 7 records (channel, lqi); a later weaker reading for the
// same index leaves the table unchanged.
func TestScenarioS4FrSkyXTableUpdate(t *testing.T) {
	proto := protocol.NewFrSkyXProtocol()
	buf := frskyxPacket(0x07, 42, 50)
	cand, ok := proto.ParseRecv(buf)
	require.True(t, ok)

	tx := NewFrSkyX(cand, rfchip.CC2500)
	require.Equal(t, 42, tx.Table[7].Channel)
	require.Equal(t, 50, tx.Table[7].LQI)

	buf2 := frskyxPacket(0x07, 99, 60)
	cand2, ok := proto.ParseRecv(buf2)
	require.True(t, ok)
	tx.ParseData(cand2.Packet)

	require.Equal(t, 42, tx.Table[7].Channel)
	require.Equal(t, 50, tx.Table[7].LQI)
}

func TestFrSkyXCheckHackableFull(t *testing.T) {
	tx := &FrSkyX{Common: newCommon("FrSkyX", rfchip.CC2500)}
	for i := range tx.Table {
		tx.Table[i] = frskyxTableEntry{Channel: i, LQI: 10}
	}
	tx.CheckHackable()
	require.Equal(t, 100, tx.Hackable)
}

func TestFrSkyXCheckHackableEmpty(t *testing.T) {
	tx := &FrSkyX{Common: newCommon("FrSkyX", rfchip.CC2500)}
	for i := range tx.Table {
		tx.Table[i] = frskyxTableEntry{Channel: -1, LQI: 128}
	}
	tx.CheckHackable()
	require.Equal(t, 0, tx.Hackable)
}

func TestFrSkyXIsSame(t *testing.T) {
	a := &FrSkyX{ID: [2]byte{0x01, 0x02}, EU: false}
	b := &FrSkyX{ID: [2]byte{0x01, 0x02}, EU: false}
	c := &FrSkyX{ID: [2]byte{0x01, 0x02}, EU: true}
	require.True(t, a.IsSame(b))
	require.False(t, a.IsSame(c))
}

func TestFrSkyXPersistenceRoundTrip(t *testing.T) {
	tx := &FrSkyX{Common: newCommon("FrSkyX", rfchip.CC2500), ID: [2]byte{0xAA, 0xBB}}
	for i := range tx.Table {
		tx.Table[i] = frskyxTableEntry{Channel: -1, LQI: 128}
	}
	tx.Table[3] = frskyxTableEntry{Channel: 17, LQI: 20}
	tx.Name = "mytx"

	obj := tx.ToObj()
	restored := FrSkyXFromObj(obj)

	require.True(t, tx.IsSame(restored))
	require.Equal(t, "mytx", restored.Name)
	require.Equal(t, 17, restored.Table[3].Channel)
	require.Equal(t, 128, restored.Table[3].LQI)
}

// TestFrSkyXObjChannelsAreChannelLQIPairs pins the on-disk shape: each
// channels entry is a [channel, lqi] pair, not a bare channel int.
func TestFrSkyXObjChannelsAreChannelLQIPairs(t *testing.T) {
	tx := &FrSkyX{Common: newCommon("FrSkyX", rfchip.CC2500), ID: [2]byte{0xAA, 0xBB}}
	for i := range tx.Table {
		tx.Table[i] = frskyxTableEntry{Channel: -1, LQI: 128}
	}
	tx.Table[7] = frskyxTableEntry{Channel: 42, LQI: 50}

	obj := tx.ToObj()
	require.Equal(t, [2]int{42, 50}, obj.Channels["7"])

	raw, err := json.Marshal(obj)
	require.NoError(t, err)
	require.Contains(t, string(raw), `"7":[42,50]`)
}
