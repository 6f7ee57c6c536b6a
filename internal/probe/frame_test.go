package probe

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFrameRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteFrame(&buf, Frame{Type: MsgRecvData, Payload: []byte{1, 2, 3}}))

	got, err := ReadFrame(&buf)
	require.NoError(t, err)
	require.Equal(t, MsgRecvData, got.Type)
	require.Equal(t, []byte{1, 2, 3}, got.Payload)
}

func TestFrameZeroLengthPayload(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteFrame(&buf, Frame{Type: MsgProtExec}))

	got, err := ReadFrame(&buf)
	require.NoError(t, err)
	require.Equal(t, MsgProtExec, got.Type)
	require.Empty(t, got.Payload)
}

func TestReadFrameRejectsBadTag(t *testing.T) {
	buf := bytes.NewBufferString("wrongtagXX")
	_, err := ReadFrame(buf)
	require.ErrorIs(t, err, errBadTag)
}

func TestDecodeInfoRoundTrip(t *testing.T) {
	info := Info{ID: [4]uint16{1, 2, 3, 4}, Board: 2, Version: 4000}
	var buf bytes.Buffer
	payload := make([]byte, 0, 13)
	for _, v := range info.ID {
		payload = append(payload, byte(v>>8), byte(v))
	}
	payload = append(payload, info.Board)
	payload = append(payload, byte(info.Version>>24), byte(info.Version>>16), byte(info.Version>>8), byte(info.Version))
	buf.Write(payload)

	got, err := DecodeInfo(buf.Bytes())
	require.NoError(t, err)
	require.Equal(t, info, got)
}

func TestDecodeInfoWrongLength(t *testing.T) {
	_, err := DecodeInfo([]byte{1, 2, 3})
	require.Error(t, err)
}

func TestDecodeRecvData(t *testing.T) {
	got, err := DecodeRecvData([]byte{byte(ChipCC2500), 0xAA, 0xBB})
	require.NoError(t, err)
	require.Equal(t, ChipCC2500, got.ChipID)
	require.Equal(t, []byte{0xAA, 0xBB}, got.Data)
}

// TestProtExecChunkingStopSendsOneZeroChunk preserves the observed
// firmware-compatible quirk: a zero-length ArgData (stop) still emits
// exactly one empty chunk rather than zero chunks.
func TestProtExecChunkingStopSendsOneZeroChunk(t *testing.T) {
	payload := protExecChunkPayload(ProtoScanner, RunStop, nil, 0)
	require.Len(t, payload, 6)
	require.Equal(t, byte(ProtoScanner), payload[0])
	require.Equal(t, byte(RunStop), payload[1])
}

func TestProtExecChunkingSplitsLargePayload(t *testing.T) {
	data := make([]byte, protExecChunkSize+50)
	first := protExecChunkPayload(ProtoCCScanner, RunStart, data, 0)
	second := protExecChunkPayload(ProtoCCScanner, RunStart, data, protExecChunkSize)

	require.Len(t, first, 6+protExecChunkSize)
	require.Len(t, second, 6+50)
}
