package probe

import (
	"net"
	"testing"

	"github.com/stretchr/testify/require"
)

// newSessionPipe wraps one half of a net.Pipe as a Session's
// Transport; net.Conn already satisfies Transport, giving synchronous,
// deterministic in-memory transports for exercising the framing
// protocol without real I/O.
func newSessionPipe() (*Session, net.Conn) {
	host, probeSide := net.Pipe()
	return NewSession("test", host), probeSide
}

func TestSessionNegotiateSuccess(t *testing.T) {
	sess, probeSide := newSessionPipe()
	defer probeSide.Close()

	done := make(chan error, 1)
	go func() { done <- sess.Negotiate(1000) }()

	req, err := ReadFrame(probeSide)
	require.NoError(t, err)
	require.Equal(t, MsgReqInfo, req.Type)

	info := Info{ID: [4]uint16{1, 2, 3, 4}, Board: 2, Version: 1000}
	payload := make([]byte, 0, 13)
	for _, v := range info.ID {
		payload = append(payload, byte(v>>8), byte(v))
	}
	payload = append(payload, info.Board, byte(info.Version>>24), byte(info.Version>>16), byte(info.Version>>8), byte(info.Version))
	require.NoError(t, WriteFrame(probeSide, Frame{Type: MsgInfo, Payload: payload}))

	require.NoError(t, <-done)
	require.Equal(t, StateReady, sess.State())
	require.Equal(t, info, sess.Info())
}

func TestSessionNegotiateRejectsWrongType(t *testing.T) {
	sess, probeSide := newSessionPipe()
	defer probeSide.Close()

	done := make(chan error, 1)
	go func() { done <- sess.Negotiate(1000) }()

	_, err := ReadFrame(probeSide)
	require.NoError(t, err)
	require.NoError(t, WriteFrame(probeSide, Frame{Type: MsgRecvData, Payload: []byte{0, 1}}))

	err = <-done
	require.Error(t, err)
}

func TestSessionExecSingleChunk(t *testing.T) {
	sess, probeSide := newSessionPipe()
	defer probeSide.Close()

	done := make(chan error, 1)
	go func() { done <- sess.Exec(ProtExec{ID: ProtoScanner, Type: RunStart, ArgData: []byte{1, 2, 3}}) }()

	frame, err := ReadFrame(probeSide)
	require.NoError(t, err)
	require.Equal(t, MsgProtExec, frame.Type)
	require.Equal(t, byte(ProtoScanner), frame.Payload[0])
	require.Equal(t, byte(RunStart), frame.Payload[1])
	require.Equal(t, []byte{1, 2, 3}, frame.Payload[6:])

	require.NoError(t, <-done)
	require.Equal(t, Running{Protocol: ProtoScanner, Type: RunStart}, sess.Running())
}

// TestSessionExecStopSendsOneChunk exercises the firmware-compatibility
// preservation: a stop (zero-length payload) still produces exactly one
// PROT_EXEC frame on the wire.
func TestSessionExecStopSendsOneChunk(t *testing.T) {
	sess, probeSide := newSessionPipe()
	defer probeSide.Close()

	done := make(chan error, 1)
	go func() { done <- sess.Exec(ProtExec{ID: ProtoScanner, Type: RunStop}) }()

	frame, err := ReadFrame(probeSide)
	require.NoError(t, err)
	require.Empty(t, frame.Payload[6:])
	require.NoError(t, <-done)
}

func TestSessionExecMultiChunk(t *testing.T) {
	sess, probeSide := newSessionPipe()
	defer probeSide.Close()

	data := make([]byte, protExecChunkSize+10)
	for i := range data {
		data[i] = byte(i)
	}

	done := make(chan error, 1)
	go func() { done <- sess.Exec(ProtExec{ID: ProtoCCScanner, Type: RunStart, ArgData: data}) }()

	first, err := ReadFrame(probeSide)
	require.NoError(t, err)
	require.Len(t, first.Payload[6:], protExecChunkSize)

	second, err := ReadFrame(probeSide)
	require.NoError(t, err)
	require.Len(t, second.Payload[6:], 10)

	require.NoError(t, <-done)
}

func TestSessionRunRoutesRecvData(t *testing.T) {
	sess, probeSide := newSessionPipe()
	defer probeSide.Close()

	received := make(chan RecvData, 1)
	sess.SetOnRecvData(func(d RecvData) { received <- d })

	go func() { _ = sess.Run() }()

	require.NoError(t, WriteFrame(probeSide, Frame{Type: MsgRecvData, Payload: []byte{byte(ChipCYRF6936), 0xAA}}))

	got := <-received
	require.Equal(t, ChipCYRF6936, got.ChipID)
	require.Equal(t, []byte{0xAA}, got.Data)
}
