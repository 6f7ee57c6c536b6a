package probe

import (
	"io"

	"github.com/pkg/term"
)

// Transport is the byte-stream abstraction a Session talks over. A
// real probe uses serialTransport (pkg/term at 115200 8N1); tests use
// any io.ReadWriteCloser, such as one half of a net.Pipe.
type Transport interface {
	io.Reader
	io.Writer
	io.Closer
}

// DefaultBaud is the probe's serial rate when config does not override it.
const DefaultBaud = 115200

// serialTransport wraps a pkg/term handle opened in raw mode, mirroring
// the teacher's serial_port_open/_write/_get1/_close helpers.
type serialTransport struct {
	fd *term.Term
}

// OpenSerial opens devicename at the given baud rate, 8N1, in raw mode.
func OpenSerial(devicename string, baud int) (Transport, error) {
	fd, err := term.Open(devicename, term.RawMode)
	if err != nil {
		return nil, err
	}
	if err := fd.SetSpeed(baud); err != nil {
		fd.Close()
		return nil, err
	}
	return &serialTransport{fd: fd}, nil
}

func (s *serialTransport) Read(p []byte) (int, error)  { return s.fd.Read(p) }
func (s *serialTransport) Write(p []byte) (int, error) { return s.fd.Write(p) }
func (s *serialTransport) Close() error                { return s.fd.Close() }
