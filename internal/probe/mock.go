package probe

import (
	"encoding/binary"
	"io"
)

// MockTransport is an in-process stand-in for a real USB probe: it
// answers REQ_INFO with a synthesized INFO frame reporting a fixed
// id/board, and silently accepts every PROT_EXEC. It never produces
// RECV_DATA. Selected by config's "mock" transport type so the daemon
// can run its full negotiate/scan/stop path with no USB hardware
// attached.
type MockTransport struct {
	id    [4]uint16
	board uint8

	pr *io.PipeReader
	pw *io.PipeWriter
}

// NewMockTransport builds a mock probe reporting the given id/board in
// its INFO response.
func NewMockTransport(id [4]uint16, board uint8) *MockTransport {
	pr, pw := io.Pipe()
	return &MockTransport{id: id, board: board, pr: pr, pw: pw}
}

func (m *MockTransport) Write(p []byte) (int, error) {
	if len(p) >= 8 && [5]byte(p[:5]) == senderTag && MsgType(p[5]) == MsgReqInfo {
		length := binary.BigEndian.Uint16(p[6:8])
		var version uint32
		if length >= 4 && len(p) >= 12 {
			version = binary.BigEndian.Uint32(p[8:12])
		}
		info := Info{ID: m.id, Board: m.board, Version: version}
		go WriteFrame(m.pw, Frame{Type: MsgInfo, Payload: info.Encode()})
	}
	return len(p), nil
}

func (m *MockTransport) Read(p []byte) (int, error) { return m.pr.Read(p) }

func (m *MockTransport) Close() error {
	m.pw.Close()
	return m.pr.Close()
}
