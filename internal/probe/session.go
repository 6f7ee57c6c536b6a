package probe

import (
	"fmt"
	"time"
)

// chunkPacing is the inter-chunk delay for PROT_EXEC payloads larger
// than one chunk.
const chunkPacing = 30 * time.Millisecond

// State is where a probe sits in its discovery → ready → disconnected
// lifecycle.
type State int

const (
	StateDiscovered State = iota
	StateInfoPending
	StateReady
	StateDisconnected
)

func (s State) String() string {
	switch s {
	case StateDiscovered:
		return "discovered"
	case StateInfoPending:
		return "info-pending"
	case StateReady:
		return "ready"
	case StateDisconnected:
		return "disconnected"
	default:
		return "unknown"
	}
}

// Running is the (protocol, run-type) pair a probe is currently
// executing; the zero value means nothing is running.
type Running struct {
	Protocol ProtocolID
	Type     RunType
}

// Session owns one probe's transport and tracks its negotiated
// identity and current running protocol. It is not safe for concurrent
// use; callers serialize access on the control thread per the shared
// single-mutex discipline the rest of the station uses.
type Session struct {
	transport Transport
	devname   string

	state   State
	info    Info
	running Running

	onRecvData func(RecvData)
}

// NewSession wraps transport for devname, unopened/unnegotiated.
func NewSession(devname string, transport Transport) *Session {
	return &Session{transport: transport, devname: devname, state: StateDiscovered}
}

func (s *Session) DeviceName() string { return s.devname }
func (s *Session) State() State       { return s.state }
func (s *Session) Info() Info         { return s.info }
func (s *Session) Running() Running   { return s.running }

// SetOnRecvData installs the callback invoked for every inbound
// RECV_DATA frame. Dispatch runs on whatever goroutine reads the
// transport; the callback must not block.
func (s *Session) SetOnRecvData(fn func(RecvData)) {
	s.onRecvData = fn
}

// Negotiate sends REQ_INFO and waits for the probe's INFO response.
// An absent or malformed INFO leaves the probe ineligible and returns
// an error; the caller should drop the session.
func (s *Session) Negotiate(stationVersion uint32) error {
	s.state = StateInfoPending
	if err := WriteFrame(s.transport, Frame{Type: MsgReqInfo, Payload: ReqInfo{Version: stationVersion}.Encode()}); err != nil {
		return fmt.Errorf("probe: REQ_INFO write: %w", err)
	}

	frame, err := ReadFrame(s.transport)
	if err != nil {
		return fmt.Errorf("probe: INFO read: %w", err)
	}
	if frame.Type != MsgInfo {
		return fmt.Errorf("probe: expected INFO, got type %d", frame.Type)
	}
	info, err := DecodeInfo(frame.Payload)
	if err != nil {
		return err
	}
	s.info = info
	s.state = StateReady
	return nil
}

// Exec dispatches a PROT_EXEC request, chunking ArgData into
// protExecChunkSize pieces and pacing writes by chunkPacing. Starting a
// new protocol implicitly cancels whatever the firmware was already
// running; the host does not wait for acknowledgement. A zero-length
// ArgData (the stop command) still sends exactly one empty chunk so the
// firmware observes the stop.
func (s *Session) Exec(req ProtExec) error {
	offset := 0
	first := true
	for offset <= len(req.ArgData) {
		if !first {
			time.Sleep(chunkPacing)
		}
		first = false

		payload := protExecChunkPayload(req.ID, req.Type, req.ArgData, offset)
		if err := WriteFrame(s.transport, Frame{Type: MsgProtExec, Payload: payload}); err != nil {
			return fmt.Errorf("probe: PROT_EXEC write at offset %d: %w", offset, err)
		}

		if len(req.ArgData) == 0 {
			break
		}
		offset += protExecChunkSize
	}

	s.running = Running{Protocol: req.ID, Type: req.Type}
	return nil
}

// Run reads frames until the transport closes or errors, routing
// RECV_DATA to the installed callback and discarding everything else.
// A transport fault marks the session disconnected and returns the
// triggering error; the caller is responsible for removing the probe
// roster entry without draining further.
func (s *Session) Run() error {
	for {
		frame, err := ReadFrame(s.transport)
		if err != nil {
			s.state = StateDisconnected
			return err
		}
		if frame.Type != MsgRecvData {
			continue
		}
		data, err := DecodeRecvData(frame.Payload)
		if err != nil {
			continue
		}
		if s.onRecvData != nil {
			s.onRecvData(data)
		}
	}
}

// Close releases the underlying transport. Disconnect is final: no
// attempt is made to drain or flush pending frames.
func (s *Session) Close() error {
	s.state = StateDisconnected
	return s.transport.Close()
}
