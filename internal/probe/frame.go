// Package probe implements the host side of the probe wire protocol:
// framing, the REQ_INFO/INFO handshake, chunked PROT_EXEC dispatch, and
// RECV_DATA routing, plus USB discovery of attached probes.
package probe

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// MsgType identifies a frame's payload shape on the wire.
type MsgType byte

const (
	MsgReqInfo  MsgType = 0
	MsgInfo     MsgType = 1
	MsgProtExec MsgType = 2
	MsgRecvData MsgType = 3
)

// senderTag is the opaque 5-byte sync tag every frame on the link
// starts with.
var senderTag = [5]byte{'u', 's', 'b', 'r', 'f'}

// Frame is one complete message exchanged over the probe link:
// tag, type, length-prefixed payload.
type Frame struct {
	Type    MsgType
	Payload []byte
}

var errBadTag = errors.New("probe: frame missing usbrf sync tag")

// WriteFrame serializes tag + type + u16 length + payload.
func WriteFrame(w io.Writer, f Frame) error {
	buf := make([]byte, 0, 5+1+2+len(f.Payload))
	buf = append(buf, senderTag[:]...)
	buf = append(buf, byte(f.Type))
	var length [2]byte
	binary.BigEndian.PutUint16(length[:], uint16(len(f.Payload)))
	buf = append(buf, length[:]...)
	buf = append(buf, f.Payload...)
	_, err := w.Write(buf)
	return err
}

// ReadFrame blocks for one complete frame, validating the sync tag.
func ReadFrame(r io.Reader) (Frame, error) {
	var head [8]byte
	if _, err := io.ReadFull(r, head[:]); err != nil {
		return Frame{}, err
	}
	if [5]byte(head[:5]) != senderTag {
		return Frame{}, errBadTag
	}
	length := binary.BigEndian.Uint16(head[6:8])
	payload := make([]byte, length)
	if length > 0 {
		if _, err := io.ReadFull(r, payload); err != nil {
			return Frame{}, err
		}
	}
	return Frame{Type: MsgType(head[5]), Payload: payload}, nil
}

// ReqInfo is the host → probe version announcement. version is the
// ground-station version multiplied by 1000.
type ReqInfo struct {
	Version uint32
}

func (m ReqInfo) Encode() []byte {
	buf := make([]byte, 4)
	binary.BigEndian.PutUint32(buf, m.Version)
	return buf
}

// Info is the probe → host identification response.
type Info struct {
	ID      [4]uint16
	Board   uint8
	Version uint32
}

// Encode serializes Info to its 13-byte wire form, the inverse of
// DecodeInfo. Used by MockTransport to synthesize a probe's response.
func (m Info) Encode() []byte {
	buf := make([]byte, 13)
	for i := 0; i < 4; i++ {
		binary.BigEndian.PutUint16(buf[i*2:i*2+2], m.ID[i])
	}
	buf[8] = m.Board
	binary.BigEndian.PutUint32(buf[9:13], m.Version)
	return buf
}

func DecodeInfo(buf []byte) (Info, error) {
	if len(buf) != 13 {
		return Info{}, fmt.Errorf("probe: INFO wrong length %d", len(buf))
	}
	var info Info
	for i := 0; i < 4; i++ {
		info.ID[i] = binary.BigEndian.Uint16(buf[i*2 : i*2+2])
	}
	info.Board = buf[8]
	info.Version = binary.BigEndian.Uint32(buf[9:13])
	return info, nil
}

// ProtocolID is the firmware-side protocol identifier carried by
// PROT_EXEC.
type ProtocolID uint8

const (
	ProtoScanner    ProtocolID = 0
	ProtoDSMHack    ProtocolID = 1
	ProtoCCScanner  ProtocolID = 2
	ProtoFrSkyHack  ProtocolID = 3
	ProtoFrSkyRecv  ProtocolID = 4
	ProtoFrSkyXmit  ProtocolID = 5
)

// RunType distinguishes a PROT_EXEC start from a stop.
type RunType uint8

const (
	RunStop  RunType = 0
	RunStart RunType = 1
)

// ProtExec is the host → probe dispatch request. ArgData may exceed
// the 200-byte single-chunk limit; Session.Exec handles chunking.
type ProtExec struct {
	ID      ProtocolID
	Type    RunType
	ArgData []byte
}

const protExecChunkSize = 200

// protExecChunkPayload returns the ArgOffset/ArgSize-prefixed payload for one
// chunk of data starting at offset.
func protExecChunkPayload(id ProtocolID, typ RunType, data []byte, offset int) []byte {
	end := offset + protExecChunkSize
	if end > len(data) {
		end = len(data)
	}
	chunk := data[offset:end]
	buf := make([]byte, 0, 6+len(chunk))
	buf = append(buf, byte(id), byte(typ))
	var offBuf, sizeBuf [2]byte
	binary.BigEndian.PutUint16(offBuf[:], uint16(offset))
	binary.BigEndian.PutUint16(sizeBuf[:], uint16(len(chunk)))
	buf = append(buf, offBuf[:]...)
	buf = append(buf, sizeBuf[:]...)
	buf = append(buf, chunk...)
	return buf
}

// ChipID identifies which radio chip a RECV_DATA packet came from.
type ChipID uint8

const (
	ChipCYRF6936 ChipID = 0
	ChipCC2500   ChipID = 1
)

// RecvData is a probe → host raw-packet notification.
type RecvData struct {
	ChipID ChipID
	Data   []byte
}

func DecodeRecvData(buf []byte) (RecvData, error) {
	if len(buf) < 1 {
		return RecvData{}, errors.New("probe: RECV_DATA empty payload")
	}
	return RecvData{ChipID: ChipID(buf[0]), Data: buf[1:]}, nil
}
