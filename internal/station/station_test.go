package station

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/usbrf/groundstation/internal/crc"
	"github.com/usbrf/groundstation/internal/probe"
	"github.com/usbrf/groundstation/internal/protocol"
	"github.com/usbrf/groundstation/internal/transmitter"
)

func newTestProbe(t *testing.T, board uint8) (*probe.Probe, net.Conn) {
	t.Helper()
	host, far := net.Pipe()
	sess := probe.NewSession("test", host)
	p := &probe.Probe{Session: sess, Chips: probe.ChipsForBoard(board)}
	return p, far
}

func dsmPacket(rfChannel, pnRowCol byte, seed uint16, idByte1, idByte2 byte) []byte {
	msg := make([]byte, 24)
	msg[1] = idByte1
	msg[2] = idByte2
	msg[19] = rfChannel
	msg[20] = pnRowCol
	want := crc.CYRF6936Forward(msg[:20], seed)
	msg[17] = byte(want >> 8)
	msg[18] = byte(want & 0xFF)
	return msg
}

func TestStationOnRecvDataPopulatesRegistry(t *testing.T) {
	s := New()
	p, far := newTestProbe(t, 1)
	defer far.Close()
	s.AddProbe(p)

	changed := make(chan struct{}, 1)
	s.Registry().SetOnChange(func() {
		select {
		case changed <- struct{}{}:
		default:
		}
	})

	go func() { _ = p.Session.Run() }()

	msg := dsmPacket(5, 0x00, 0xABCD, 0x10, 0x20)
	frame := probe.Frame{Type: probe.MsgRecvData, Payload: append([]byte{byte(probe.ChipCYRF6936)}, msg...)}
	require.NoError(t, probe.WriteFrame(far, frame))

	select {
	case <-changed:
	case <-time.After(time.Second):
		t.Fatal("registry never changed")
	}
	require.Len(t, s.Registry().Transmitters(), 1)
}

func TestStationScanDispatchesToSingleChipProbe(t *testing.T) {
	s := New()
	p, far := newTestProbe(t, 1)
	defer far.Close()
	s.AddProbe(p)

	done := make(chan []string, 1)
	go func() { done <- s.Scan() }()

	frame, err := probe.ReadFrame(far)
	require.NoError(t, err)
	require.Equal(t, probe.MsgProtExec, frame.Type)
	require.Equal(t, byte(probe.ProtoScanner), frame.Payload[0])

	diags := <-done
	require.Empty(t, diags)
}

// TestStationScanDropsZeroScanTimeChip exercises the scheduler's
// chip-dropping rule at the station level: CC2500Chip.ScanTimeMicros
// is always 0, so a
// dual-chip probe should receive a CYRF6936 scanner dispatch only, with
// nothing sent (and no diagnostic) for CC2500.
func TestStationScanDropsZeroScanTimeChip(t *testing.T) {
	s := New()
	p, far := newTestProbe(t, 2)
	defer far.Close()
	s.AddProbe(p)

	done := make(chan []string, 1)
	go func() { done <- s.Scan() }()

	frame, err := probe.ReadFrame(far)
	require.NoError(t, err)
	require.Equal(t, byte(probe.ProtoScanner), frame.Payload[0])

	diags := <-done
	require.Empty(t, diags)
}

func TestStationHackSkipsWhenNoEligibleProbe(t *testing.T) {
	s := New()
	dsm := &transmitter.DSM{
		ID:       [4]byte{1, 2, 3, 4},
		Channels: map[int]struct{}{1: {}, 2: {}},
	}
	dsm.DoHack = true
	s.registry.AddOrMerge(dsm)

	diags := s.Hack()
	require.Len(t, diags, 1)
	require.Contains(t, diags[0], "not enough devices")
}

func TestStationHackDispatchesToCYRF6936Probe(t *testing.T) {
	s := New()
	p, far := newTestProbe(t, 1)
	defer far.Close()
	s.AddProbe(p)

	dsm := &transmitter.DSM{
		ID:       [4]byte{1, 2, 3, 4},
		Channels: map[int]struct{}{1: {}, 2: {}},
	}
	dsm.DoHack = true
	s.registry.AddOrMerge(dsm)

	done := make(chan []string, 1)
	go func() { done <- s.Hack() }()

	frame, err := probe.ReadFrame(far)
	require.NoError(t, err)
	require.Equal(t, byte(probe.ProtoDSMHack), frame.Payload[0])

	diags := <-done
	require.Empty(t, diags)
}

// TestStationHackOrdersByRecvCntDescending exercises the hack-dispatch
// ordering rule: with one eligible probe and two candidates, the
// transmitter with the higher recv_cnt claims it.
func TestStationHackOrdersByRecvCntDescending(t *testing.T) {
	s := New()
	p, far := newTestProbe(t, 1)
	defer far.Close()
	s.AddProbe(p)

	low := &transmitter.DSM{ID: [4]byte{1, 1, 1, 1}, Channels: map[int]struct{}{1: {}, 2: {}}}
	low.DoHack = true
	low.RecvCnt = 2
	high := &transmitter.DSM{ID: [4]byte{2, 2, 2, 2}, Channels: map[int]struct{}{3: {}, 4: {}}}
	high.DoHack = true
	high.RecvCnt = 9

	s.registry.AddOrMerge(low)
	s.registry.AddOrMerge(high)

	done := make(chan []string, 1)
	go func() { done <- s.Hack() }()

	frame, err := probe.ReadFrame(far)
	require.NoError(t, err)
	require.Equal(t, byte(2), frame.Payload[7]) // id[0] of the high-recv_cnt transmitter, after the 6-byte chunk header

	diags := <-done
	require.Len(t, diags, 1)
	require.Contains(t, diags[0], "not enough devices")
}

func TestStationStopSendsZeroLengthChunkToEveryProbe(t *testing.T) {
	s := New()
	p, far := newTestProbe(t, 1)
	defer far.Close()
	s.AddProbe(p)

	done := make(chan []string, 1)
	go func() { done <- s.Stop() }()

	frame, err := probe.ReadFrame(far)
	require.NoError(t, err)
	require.Empty(t, frame.Payload[6:])

	require.Empty(t, <-done)
}

func TestStationSetDepthDispatchesToOwningChip(t *testing.T) {
	s := New()
	require.True(t, s.SetDepth(protocol.DSMX, protocol.Maximum))
	require.True(t, s.SetDepth(protocol.FrSkyXEU, protocol.Minimum))
}
