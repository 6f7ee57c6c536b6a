package probe

import (
	"testing"

	"github.com/creack/pty"
	"github.com/stretchr/testify/require"
)

// TestSerialTransportOverPty exercises OpenSerial against a real
// pseudo-terminal pair, standing in for a probe's USB CDC-ACM port in
// environments with no attached hardware.
func TestSerialTransportOverPty(t *testing.T) {
	master, slave, err := pty.Open()
	require.NoError(t, err)
	defer master.Close()
	defer slave.Close()

	transport, err := OpenSerial(slave.Name(), DefaultBaud)
	require.NoError(t, err)
	defer transport.Close()

	require.NoError(t, WriteFrame(transport, Frame{Type: MsgReqInfo, Payload: ReqInfo{Version: 1000}.Encode()}))

	got, err := ReadFrame(master)
	require.NoError(t, err)
	require.Equal(t, MsgReqInfo, got.Type)
}
